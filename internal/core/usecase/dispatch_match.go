package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/feldboy/aparmenttool/internal/contextkeys"
	"github.com/feldboy/aparmenttool/internal/core/domain"
	"github.com/feldboy/aparmenttool/internal/core/port"
)

// DispatchMatchUseCase рассылает уведомление о матче по всем включенным
// каналам профиля. Гарантия "не более одного уведомления" обеспечивается
// журналом доставки, ретраи применяются только к временным сбоям.
type DispatchMatchUseCase struct {
	channels          map[domain.Channel]port.DeliveryChannelPort
	log               port.NotificationLogPort
	operatorChannel   domain.Channel
	operatorRecipient string
	maxRetries        int
	retryBackoff      time.Duration
}

func NewDispatchMatchUseCase(
	channels []port.DeliveryChannelPort,
	log port.NotificationLogPort,
	operatorChannel domain.Channel,
	operatorRecipient string,
	maxRetries int,
	retryBackoff time.Duration,
) *DispatchMatchUseCase {
	byChannel := make(map[domain.Channel]port.DeliveryChannelPort, len(channels))
	for _, ch := range channels {
		byChannel[ch.Channel()] = ch
	}
	return &DispatchMatchUseCase{
		channels:          byChannel,
		log:               log,
		operatorChannel:   operatorChannel,
		operatorRecipient: operatorRecipient,
		maxRetries:        maxRetries,
		retryBackoff:      retryBackoff,
	}
}

// Execute доставляет уведомление по каждому включенному каналу независимо:
// сбой одного канала не мешает остальным. Возвращает отчеты по каналам.
func (uc *DispatchMatchUseCase) Execute(ctx context.Context, profile *domain.SearchProfile, listing *domain.RawListing, match domain.MatchResult) ([]domain.DeliveryReport, error) {
	baseLogger := contextkeys.LoggerFromContext(ctx)
	ucLogger := baseLogger.WithFields(port.Fields{
		"use_case":   "DispatchMatch",
		"profile_id": profile.ID.String(),
		"listing_id": listing.ListingID(),
	})

	msg := formatMatchMessage(listing, match)

	var reports []domain.DeliveryReport
	for _, channel := range profile.EnabledChannels() {
		cfg, _ := profile.Channels.ByChannel(channel)
		if cfg.Recipient == "" {
			ucLogger.Warn("Channel enabled but recipient is empty, skipping", port.Fields{"channel": string(channel)})
			continue
		}

		adapter, ok := uc.channels[channel]
		if !ok {
			ucLogger.Warn("No adapter registered for channel, skipping", port.Fields{"channel": string(channel)})
			continue
		}

		sent, err := uc.log.WasSent(ctx, profile.ID, listing.ListingID(), channel)
		if err != nil {
			ucLogger.Error("Failed to check notification log, skipping channel", err, port.Fields{"channel": string(channel)})
			reports = append(reports, domain.DeliveryReport{Channel: channel, Recipient: cfg.Recipient, Err: err})
			continue
		}
		if sent {
			ucLogger.Debug("Notification already sent for this channel, skipping", port.Fields{"channel": string(channel)})
			continue
		}

		report := uc.deliverWithRetry(ctx, adapter, cfg.Recipient, msg)
		reports = append(reports, report)

		entry := domain.SentNotification{
			ProfileID: profile.ID,
			ListingID: listing.ListingID(),
			Channel:   channel,
			Recipient: cfg.Recipient,
			Success:   report.Success,
			MessageID: report.MessageID,
			SentAt:    time.Now().UTC(),
		}
		if report.Err != nil {
			entry.ErrorMessage = report.Err.Error()
		}
		if err := uc.log.Append(ctx, entry); err != nil {
			ucLogger.Error("Failed to append notification log entry", err, port.Fields{"channel": string(channel)})
		}

		if report.Success {
			ucLogger.Info("Notification delivered", port.Fields{
				"channel":    string(channel),
				"message_id": report.MessageID,
				"attempts":   report.Attempts,
			})
		} else {
			ucLogger.Error("Notification delivery failed", report.Err, port.Fields{
				"channel":  string(channel),
				"attempts": report.Attempts,
			})
		}
	}

	return reports, nil
}

// ExecuteAlert доставляет служебное сообщение оператору через
// сконфигурированный операторский канал.
func (uc *DispatchMatchUseCase) ExecuteAlert(ctx context.Context, text string) error {
	adapter, ok := uc.channels[uc.operatorChannel]
	if !ok || uc.operatorRecipient == "" {
		return fmt.Errorf("operator channel %q is not configured", uc.operatorChannel)
	}
	msg := domain.OutgoingMessage{Title: "Scanner alert", Body: text}
	report := uc.deliverWithRetry(ctx, adapter, uc.operatorRecipient, msg)
	if !report.Success {
		return report.Err
	}
	return nil
}

// deliverWithRetry выполняет до 1+maxRetries попыток доставки.
// Повторяются только временные сбои, пауза растет линейно.
func (uc *DispatchMatchUseCase) deliverWithRetry(ctx context.Context, adapter port.DeliveryChannelPort, recipient string, msg domain.OutgoingMessage) domain.DeliveryReport {
	report := domain.DeliveryReport{
		Channel:   adapter.Channel(),
		Recipient: recipient,
	}

	for attempt := 1; attempt <= uc.maxRetries+1; attempt++ {
		report.Attempts = attempt

		messageID, err := adapter.Send(ctx, recipient, msg)
		if err == nil {
			report.Success = true
			report.MessageID = messageID
			return report
		}
		report.Err = err

		var deliveryErr *domain.DeliveryError
		if !errors.As(err, &deliveryErr) || !deliveryErr.Transient {
			return report
		}

		select {
		case <-ctx.Done():
			report.Err = ctx.Err()
			return report
		case <-time.After(uc.retryBackoff * time.Duration(attempt)):
		}
	}

	return report
}

// formatMatchMessage собирает каналонезависимое тело уведомления.
func formatMatchMessage(listing *domain.RawListing, match domain.MatchResult) domain.OutgoingMessage {
	var b strings.Builder

	if listing.PriceText != "" {
		fmt.Fprintf(&b, "Price: %s\n", strings.TrimSpace(listing.PriceText))
	}
	if listing.RoomsText != "" {
		fmt.Fprintf(&b, "Rooms: %s\n", strings.TrimSpace(listing.RoomsText))
	}
	if listing.Location != "" {
		fmt.Fprintf(&b, "Location: %s\n", strings.TrimSpace(listing.Location))
	}
	fmt.Fprintf(&b, "Confidence: %s (score %d)\n", match.Confidence, match.Score)
	if listing.Description != "" {
		fmt.Fprintf(&b, "\n%s\n", truncate(strings.TrimSpace(listing.Description), 300))
	}

	title := strings.TrimSpace(listing.Title)
	if title == "" {
		title = fmt.Sprintf("New listing on %s", listing.Source)
	}

	return domain.OutgoingMessage{
		Title:    title,
		Body:     b.String(),
		URL:      listing.URL,
		ImageURL: listing.ImageURL,
	}
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
