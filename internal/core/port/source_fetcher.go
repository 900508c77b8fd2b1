package port

import (
	"context"
	"time"

	"github.com/feldboy/aparmenttool/internal/core/domain"
)

// SourceFetcherPort - контракт адаптера площадки. Реализации возвращают
// объявления, опубликованные после since; нулевое since означает полный обход.
type SourceFetcherPort interface {
	Source() domain.Source

	// FetchListings выполняет один обход источника для профиля.
	// Частично распарсенные объявления пропускаются внутри адаптера,
	// ошибка возвращается только при сбое обхода целиком.
	FetchListings(ctx context.Context, profile *domain.SearchProfile, since time.Time) ([]domain.RawListing, error)
}
