package domain

import (
	"time"

	"github.com/google/uuid"
)

// OutgoingMessage - каналонезависимое содержимое уведомления.
// Каждый адаптер канала сам решает, как его отрендерить.
type OutgoingMessage struct {
	Title    string
	Body     string
	URL      string
	ImageURL string
}

// SentNotification - запись журнала доставки. Одна строка на
// (профиль, объявление, канал).
type SentNotification struct {
	ProfileID    uuid.UUID `json:"profile_id"`
	ListingID    string    `json:"listing_id"`
	Channel      Channel   `json:"channel"`
	Recipient    string    `json:"recipient"`
	Success      bool      `json:"success"`
	MessageID    string    `json:"message_id,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`
	SentAt       time.Time `json:"sent_at"`
}

// DeliveryReport - результат попытки доставки по одному каналу.
type DeliveryReport struct {
	Channel   Channel
	Recipient string
	Success   bool
	MessageID string
	Attempts  int
	Err       error
}

// MatchEvent публикуется в шину при каждом успешном матче.
type MatchEvent struct {
	EventID    uuid.UUID  `json:"event_id"`
	ProfileID  uuid.UUID  `json:"profile_id"`
	ListingID  string     `json:"listing_id"`
	Source     Source     `json:"source"`
	Score      int        `json:"score"`
	Confidence Confidence `json:"confidence"`
	URL        string     `json:"url"`
	MatchedAt  time.Time  `json:"matched_at"`
}

// CycleStats - агрегированная статистика одного цикла сканирования.
type CycleStats struct {
	StartedAt         time.Time `json:"started_at"`
	FinishedAt        time.Time `json:"finished_at"`
	ProfilesScanned   int       `json:"profiles_scanned"`
	ListingsFetched   int       `json:"listings_fetched"`
	ListingsNew       int       `json:"listings_new"`
	MatchesFound      int       `json:"matches_found"`
	NotificationsSent int       `json:"notifications_sent"`
	SourceFailures    int       `json:"source_failures"`
	ParseErrors       int       `json:"parse_errors"`
	DedupFailures     int       `json:"dedup_failures"`
}

// Merge складывает статистику подзадачи в аккумулятор.
func (s *CycleStats) Merge(other CycleStats) {
	s.ProfilesScanned += other.ProfilesScanned
	s.ListingsFetched += other.ListingsFetched
	s.ListingsNew += other.ListingsNew
	s.MatchesFound += other.MatchesFound
	s.NotificationsSent += other.NotificationsSent
	s.SourceFailures += other.SourceFailures
	s.ParseErrors += other.ParseErrors
	s.DedupFailures += other.DedupFailures
}
