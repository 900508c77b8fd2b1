package port

import (
	"context"

	"github.com/feldboy/aparmenttool/internal/core/domain"
	"github.com/google/uuid"
)

// NotificationLogPort - журнал отправленных уведомлений. Служит барьером
// "не более одного уведомления на (профиль, объявление, канал)".
type NotificationLogPort interface {
	Append(ctx context.Context, n domain.SentNotification) error

	// WasSent сообщает, была ли уже успешная доставка по этой тройке.
	WasSent(ctx context.Context, profileID uuid.UUID, listingID string, channel domain.Channel) (bool, error)
}
