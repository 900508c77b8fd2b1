package port

import (
	"context"

	"github.com/feldboy/aparmenttool/internal/core/domain"
)

// DeliveryChannelPort - контракт одного канала доставки уведомлений.
type DeliveryChannelPort interface {
	Channel() domain.Channel

	// Send доставляет сообщение получателю и возвращает идентификатор
	// сообщения на стороне провайдера, если он есть. Временные сбои
	// оборачиваются в domain.DeliveryError с Transient=true.
	Send(ctx context.Context, recipient string, msg domain.OutgoingMessage) (string, error)
}
