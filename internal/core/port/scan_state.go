package port

import (
	"context"
	"time"

	"github.com/feldboy/aparmenttool/internal/core/domain"
	"github.com/google/uuid"
)

// ScanStatePort хранит курсоры сканирования по паре (профиль, источник).
type ScanStatePort interface {
	// GetCursor возвращает отметку последнего обработанного объявления.
	// Нулевое время означает, что пара еще не сканировалась.
	GetCursor(ctx context.Context, profileID uuid.UUID, source domain.Source) (time.Time, error)

	// AdvanceCursor двигает курсор вперед. Движение назад реализация
	// обязана игнорировать.
	AdvanceCursor(ctx context.Context, profileID uuid.UUID, source domain.Source, to time.Time) error
}
