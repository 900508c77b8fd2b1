package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/feldboy/aparmenttool/internal/core/domain"
	"github.com/feldboy/aparmenttool/internal/core/port"
	"github.com/google/uuid"
)

func dispatchProfile(channels domain.NotificationChannels) *domain.SearchProfile {
	return &domain.SearchProfile{
		ID:       uuid.New(),
		Name:     "test profile",
		Channels: channels,
	}
}

func matchedListing() *domain.RawListing {
	return &domain.RawListing{
		NativeID:  "l1",
		Source:    domain.SourceYad2,
		Title:     "Apartment in Florentin",
		PriceText: "6,500 ₪",
		URL:       "https://www.yad2.co.il/item/l1",
	}
}

func okMatch() domain.MatchResult {
	return domain.MatchResult{Matched: true, Confidence: domain.ConfidenceHigh, Score: 90}
}

func TestDispatchMatch_DeliversToAllEnabledChannels(t *testing.T) {
	tg := &fakeChannel{channel: domain.ChannelTelegram}
	em := &fakeChannel{channel: domain.ChannelEmail}
	log := newFakeNotificationLog()

	uc := NewDispatchMatchUseCase(
		[]port.DeliveryChannelPort{tg, em}, log, domain.ChannelTelegram, "op", 0, time.Millisecond,
	)

	profile := dispatchProfile(domain.NotificationChannels{
		Telegram: domain.ChannelConfig{Enabled: true, Recipient: "12345"},
		Email:    domain.ChannelConfig{Enabled: true, Recipient: "user@example.com"},
	})

	reports, err := uc.Execute(context.Background(), profile, matchedListing(), okMatch())
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if len(reports) != 2 {
		t.Fatalf("expected 2 reports, got %d", len(reports))
	}
	for _, r := range reports {
		if !r.Success {
			t.Errorf("channel %s: expected success, got error %v", r.Channel, r.Err)
		}
	}
	if len(tg.sent) != 1 || len(em.sent) != 1 {
		t.Errorf("each channel should get exactly one message: telegram=%d email=%d", len(tg.sent), len(em.sent))
	}
	if len(log.appended) != 2 {
		t.Errorf("expected 2 log entries, got %d", len(log.appended))
	}
}

func TestDispatchMatch_NotifyOnce(t *testing.T) {
	tg := &fakeChannel{channel: domain.ChannelTelegram}
	log := newFakeNotificationLog()

	uc := NewDispatchMatchUseCase(
		[]port.DeliveryChannelPort{tg}, log, domain.ChannelTelegram, "op", 0, time.Millisecond,
	)

	profile := dispatchProfile(domain.NotificationChannels{
		Telegram: domain.ChannelConfig{Enabled: true, Recipient: "12345"},
	})
	listing := matchedListing()

	if _, err := uc.Execute(context.Background(), profile, listing, okMatch()); err != nil {
		t.Fatalf("first Execute returned error: %v", err)
	}
	reports, err := uc.Execute(context.Background(), profile, listing, okMatch())
	if err != nil {
		t.Fatalf("second Execute returned error: %v", err)
	}

	if len(reports) != 0 {
		t.Errorf("repeated dispatch should be skipped entirely, got %d reports", len(reports))
	}
	if tg.calls != 1 {
		t.Errorf("channel should be called exactly once, got %d calls", tg.calls)
	}
}

func TestDispatchMatch_OneChannelFailureDoesNotBlockOthers(t *testing.T) {
	tg := &fakeChannel{
		channel: domain.ChannelTelegram,
		errs:    []error{&domain.DeliveryError{Channel: domain.ChannelTelegram, Transient: false, Err: errors.New("chat not found")}},
	}
	em := &fakeChannel{channel: domain.ChannelEmail}
	log := newFakeNotificationLog()

	uc := NewDispatchMatchUseCase(
		[]port.DeliveryChannelPort{tg, em}, log, domain.ChannelTelegram, "op", 0, time.Millisecond,
	)

	profile := dispatchProfile(domain.NotificationChannels{
		Telegram: domain.ChannelConfig{Enabled: true, Recipient: "12345"},
		Email:    domain.ChannelConfig{Enabled: true, Recipient: "user@example.com"},
	})

	reports, err := uc.Execute(context.Background(), profile, matchedListing(), okMatch())
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}

	byChannel := make(map[domain.Channel]domain.DeliveryReport)
	for _, r := range reports {
		byChannel[r.Channel] = r
	}
	if byChannel[domain.ChannelTelegram].Success {
		t.Error("telegram delivery should have failed")
	}
	if !byChannel[domain.ChannelEmail].Success {
		t.Errorf("email delivery should have succeeded, got %v", byChannel[domain.ChannelEmail].Err)
	}

	// Журнал хранит детали сбоя, а не только факт неудачи.
	for _, entry := range log.appended {
		switch entry.Channel {
		case domain.ChannelTelegram:
			if entry.Success {
				t.Error("telegram log entry should record a failure")
			}
			if entry.ErrorMessage == "" {
				t.Error("failed delivery must persist the error detail")
			}
		case domain.ChannelEmail:
			if entry.ErrorMessage != "" {
				t.Errorf("successful delivery should not carry an error, got %q", entry.ErrorMessage)
			}
		}
	}
}

func TestDispatchMatch_RetriesOnlyTransientErrors(t *testing.T) {
	transient := &domain.DeliveryError{Channel: domain.ChannelTelegram, Transient: true, Err: errors.New("429 too many requests")}
	permanent := &domain.DeliveryError{Channel: domain.ChannelTelegram, Transient: false, Err: errors.New("chat not found")}

	tests := []struct {
		name        string
		errs        []error
		maxRetries  int
		wantCalls   int
		wantSuccess bool
	}{
		{"transient then success", []error{transient, nil}, 2, 2, true},
		{"permanent fails immediately", []error{permanent}, 2, 1, false},
		{"transient exhausts retries", []error{transient, transient, transient}, 2, 3, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tg := &fakeChannel{channel: domain.ChannelTelegram, errs: tt.errs}
			log := newFakeNotificationLog()
			uc := NewDispatchMatchUseCase(
				[]port.DeliveryChannelPort{tg}, log, domain.ChannelTelegram, "op", tt.maxRetries, time.Millisecond,
			)

			profile := dispatchProfile(domain.NotificationChannels{
				Telegram: domain.ChannelConfig{Enabled: true, Recipient: "12345"},
			})

			reports, err := uc.Execute(context.Background(), profile, matchedListing(), okMatch())
			if err != nil {
				t.Fatalf("Execute returned error: %v", err)
			}
			if len(reports) != 1 {
				t.Fatalf("expected 1 report, got %d", len(reports))
			}
			if tg.calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", tg.calls, tt.wantCalls)
			}
			if reports[0].Success != tt.wantSuccess {
				t.Errorf("success = %v, want %v (err %v)", reports[0].Success, tt.wantSuccess, reports[0].Err)
			}
			if reports[0].Attempts != tt.wantCalls {
				t.Errorf("attempts = %d, want %d", reports[0].Attempts, tt.wantCalls)
			}
		})
	}
}

func TestDispatchMatch_SkipsChannelWithoutRecipient(t *testing.T) {
	tg := &fakeChannel{channel: domain.ChannelTelegram}
	log := newFakeNotificationLog()
	uc := NewDispatchMatchUseCase(
		[]port.DeliveryChannelPort{tg}, log, domain.ChannelTelegram, "op", 0, time.Millisecond,
	)

	profile := dispatchProfile(domain.NotificationChannels{
		Telegram: domain.ChannelConfig{Enabled: true, Recipient: ""},
	})

	reports, err := uc.Execute(context.Background(), profile, matchedListing(), okMatch())
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if len(reports) != 0 || tg.calls != 0 {
		t.Errorf("channel without recipient must be skipped: reports=%d calls=%d", len(reports), tg.calls)
	}
}

func TestDispatchMatch_ExecuteAlert(t *testing.T) {
	tg := &fakeChannel{channel: domain.ChannelTelegram}
	uc := NewDispatchMatchUseCase(
		[]port.DeliveryChannelPort{tg}, newFakeNotificationLog(), domain.ChannelTelegram, "operator-chat", 0, time.Millisecond,
	)

	if err := uc.ExecuteAlert(context.Background(), "facebook session expired"); err != nil {
		t.Fatalf("ExecuteAlert returned error: %v", err)
	}
	if len(tg.sent) != 1 {
		t.Fatalf("expected 1 operator message, got %d", len(tg.sent))
	}
	if tg.sent[0].Body != "facebook session expired" {
		t.Errorf("alert body = %q", tg.sent[0].Body)
	}
}

func TestDispatchMatch_ExecuteAlertWithoutOperatorChannel(t *testing.T) {
	uc := NewDispatchMatchUseCase(
		nil, newFakeNotificationLog(), domain.ChannelTelegram, "", 0, time.Millisecond,
	)
	if err := uc.ExecuteAlert(context.Background(), "anything"); err == nil {
		t.Error("expected error when operator channel is not configured")
	}
}
