package domain

// Confidence - уверенность матчинга, выводится из итогового счета.
type Confidence string

const (
	ConfidenceHigh    Confidence = "high"
	ConfidenceMedium  Confidence = "medium"
	ConfidenceLow     Confidence = "low"
	ConfidenceNoMatch Confidence = "no_match"
)

// Причины отказа. Фиксированный словарь, попадает в логи и статистику.
const (
	RejectPriceOutOfRange  = "price_out_of_range"
	RejectRoomsOutOfRange  = "rooms_out_of_range"
	RejectLocationMismatch = "location_mismatch"
	RejectTypeMismatch     = "type_mismatch"
	RejectUnparsableField  = "unparsable_field"
)

// MatchResult - итог сверки объявления с профилем.
type MatchResult struct {
	Matched      bool       `json:"matched"`
	Confidence   Confidence `json:"confidence"`
	Score        int        `json:"score"`
	Reasons      []string   `json:"reasons,omitempty"`
	RejectReason string     `json:"reject_reason,omitempty"`
}

// NoMatch строит отрицательный результат с причиной отказа.
func NoMatch(reason string) MatchResult {
	return MatchResult{
		Matched:      false,
		Confidence:   ConfidenceNoMatch,
		RejectReason: reason,
	}
}
