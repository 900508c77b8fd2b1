package contracts

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func validMatchFoundBody() string {
	return fmt.Sprintf(`{
		"event_id": %q,
		"profile_id": %q,
		"listing_id": "yad2:abc123",
		"source": "yad2",
		"score": 90,
		"confidence": "high",
		"url": "https://www.yad2.co.il/item/abc123",
		"matched_at": %q
	}`, uuid.New(), uuid.New(), time.Now().UTC().Format(time.RFC3339))
}

func TestValidateEvent_ValidMatchFound(t *testing.T) {
	if err := ValidateEvent("MatchFoundEvent", "1.0.0", []byte(validMatchFoundBody())); err != nil {
		t.Errorf("valid event failed validation: %v", err)
	}
}

func TestValidateEvent_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(string) string
	}{
		{"bad source", func(s string) string { return strings.Replace(s, `"yad2"`, `"kijiji"`, 1) }},
		{"bad confidence", func(s string) string { return strings.Replace(s, `"high"`, `"certain"`, 1) }},
		{"missing required field", func(s string) string { return strings.Replace(s, `"score": 90,`, ``, 1) }},
		{"extra field", func(s string) string { return strings.Replace(s, `"score": 90,`, `"score": 90, "comment": "x",`, 1) }},
		{"not json", func(string) string { return "not json at all" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := tt.mutate(validMatchFoundBody())
			if err := ValidateEvent("MatchFoundEvent", "1.0.0", []byte(body)); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestValidateEvent_UnknownSchema(t *testing.T) {
	err := ValidateEvent("NoSuchEvent", "1.0.0", []byte(`{}`))
	if err == nil {
		t.Error("expected error for unknown schema")
	}
}

func TestGenerateKeyFromPath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"events/match-found/v1.json", "MatchFoundEvent/1.0.0"},
		{"events/match-found/v2.json", "MatchFoundEvent/2.0.0"},
		{"events/bad-path-too/deep/v1.json", ""},
	}
	for _, tt := range tests {
		if got := generateKeyFromPath(tt.path); got != tt.want {
			t.Errorf("generateKeyFromPath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
