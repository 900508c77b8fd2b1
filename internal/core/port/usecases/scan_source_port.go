package usecases_port

import (
	"context"

	"github.com/feldboy/aparmenttool/internal/core/domain"
)

type ScanSourcePort interface {
	Execute(ctx context.Context, profile *domain.SearchProfile, source domain.Source) (domain.CycleStats, error)
}
