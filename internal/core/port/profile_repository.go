package port

import (
	"context"

	"github.com/feldboy/aparmenttool/internal/core/domain"
)

// ProfileRepositoryPort отдает профили поиска, подлежащие сканированию.
type ProfileRepositoryPort interface {
	ListActiveProfiles(ctx context.Context) ([]domain.SearchProfile, error)
}
