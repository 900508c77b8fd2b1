package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/feldboy/aparmenttool/internal/contextkeys"
	"github.com/feldboy/aparmenttool/internal/contracts"
	"github.com/feldboy/aparmenttool/internal/core/domain"
	"github.com/feldboy/aparmenttool/internal/core/port"
	"github.com/feldboy/aparmenttool/pkg/rabbitmq/rabbitmq_producer"
	amqp "github.com/rabbitmq/amqp091-go"
)

// RabbitMQMatchEventsAdapter реализует MatchEventsQueuePort для RabbitMQ.
type RabbitMQMatchEventsAdapter struct {
	producer   *rabbitmq_producer.Publisher
	routingKey string // Ключ маршрутизации для событий о совпадениях
}

// NewRabbitMQMatchEventsAdapter создает новый экземпляр адаптера.
// producer - уже инициализированный rabbitmq_producer.Publisher.
func NewRabbitMQMatchEventsAdapter(producer *rabbitmq_producer.Publisher, routingKey string) (*RabbitMQMatchEventsAdapter, error) {
	if producer == nil {
		return nil, fmt.Errorf("rabbitmq adapter: producer cannot be nil")
	}
	if routingKey == "" {
		return nil, fmt.Errorf("rabbitmq adapter: routingKey cannot be empty")
	}

	return &RabbitMQMatchEventsAdapter{
		producer:   producer,
		routingKey: routingKey,
	}, nil
}

// PublishMatchEvent отправляет событие о совпадении в шину. Тело
// проверяется по JSON-схеме контракта перед публикацией: невалидное
// событие не должно попасть к потребителям.
func (a *RabbitMQMatchEventsAdapter) PublishMatchEvent(ctx context.Context, event domain.MatchEvent) error {
	logger := contextkeys.LoggerFromContext(ctx)
	adapterLogger := logger.WithFields(port.Fields{
		"component":   "RabbitMQMatchEventsAdapter",
		"routing_key": a.routingKey,
	})

	dto := MatchFoundEventDTO{
		EventID:    event.EventID,
		ProfileID:  event.ProfileID,
		ListingID:  event.ListingID,
		Source:     string(event.Source),
		Score:      event.Score,
		Confidence: string(event.Confidence),
		URL:        event.URL,
		MatchedAt:  event.MatchedAt,
	}

	body, err := json.Marshal(dto)
	if err != nil {
		adapterLogger.Error("Failed to marshal match event to JSON", err, port.Fields{"listing_id": event.ListingID})
		return fmt.Errorf("rabbitmq adapter: failed to marshal match event: %w", err)
	}

	if err := contracts.ValidateEvent("MatchFoundEvent", "1.0.0", body); err != nil {
		adapterLogger.Error("Match event failed contract validation", err, port.Fields{"listing_id": event.ListingID})
		return fmt.Errorf("rabbitmq adapter: match event violates contract: %w", err)
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent, // Для сохранения сообщений при перезапуске брокера
		Timestamp:    time.Now(),
		Headers: amqp.Table{
			"x-event-type":    "MatchFoundEvent",
			"x-event-version": "1.0.0",
		},
	}

	// Таймаут на операцию публикации, если контекст его не предоставляет
	publishCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := a.producer.Publish(publishCtx, a.routingKey, msg); err != nil {
		adapterLogger.Error("Failed to publish match event", err, port.Fields{"listing_id": event.ListingID})
		return fmt.Errorf("rabbitmq adapter: failed to publish match event for listing %s: %w", event.ListingID, err)
	}

	adapterLogger.Debug("Successfully published match event", port.Fields{"listing_id": event.ListingID})
	return nil
}
