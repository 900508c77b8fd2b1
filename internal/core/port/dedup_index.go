package port

import (
	"context"
	"time"

	"github.com/feldboy/aparmenttool/internal/core/domain"
)

// DedupIndexPort - постоянный индекс уже виденных объявлений.
type DedupIndexPort interface {
	// CheckAndInsert атомарно проверяет и регистрирует объявление.
	// Возвращает true, если объявление новое. Дубликатом считается
	// совпадение как нативного идентификатора, так и контент-хэша.
	CheckAndInsert(ctx context.Context, listing domain.ScannedListing) (bool, error)

	// PurgeOlderThan удаляет записи за пределами окна дедупликации.
	PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
