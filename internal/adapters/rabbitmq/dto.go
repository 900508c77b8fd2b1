package rabbitmq

import (
	"time"

	"github.com/google/uuid"
)

// MatchFoundEventDTO - это структура контракта события о найденном
// совпадении. Она точно соответствует JSON-схеме events/match-found/v1.json.
type MatchFoundEventDTO struct {
	EventID    uuid.UUID `json:"event_id"`
	ProfileID  uuid.UUID `json:"profile_id"`
	ListingID  string    `json:"listing_id"`
	Source     string    `json:"source"`
	Score      int       `json:"score"`
	Confidence string    `json:"confidence"`
	URL        string    `json:"url,omitempty"`
	MatchedAt  time.Time `json:"matched_at"`
}
