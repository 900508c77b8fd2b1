package yad2fetcher

import (
	"errors"
	"testing"
	"time"

	"github.com/feldboy/aparmenttool/internal/core/domain"
)

func TestBuildListing(t *testing.T) {
	fields := feedItemFields{
		ItemLink: "/realestate/item/abc123",
		Title:    "דירה 2.5 חדרים בפלורנטין",
		Price:    "6,500 ₪",
		Rooms:    "2.5 חדרים",
		Address:  "פלורנטין, תל אביב",
		ImageURL: "https://img.yad2.co.il/pic/abc123.jpg",
		DateText: "לפני 2 שעות",
	}
	now := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)

	got, err := buildListing(fields, now)
	if err != nil {
		t.Fatalf("buildListing returned error: %v", err)
	}

	if got.NativeID != "abc123" {
		t.Errorf("NativeID = %q, want %q", got.NativeID, "abc123")
	}
	if got.Source != domain.SourceYad2 {
		t.Errorf("Source = %q", got.Source)
	}
	if got.URL != "https://www.yad2.co.il/realestate/item/abc123" {
		t.Errorf("URL = %q", got.URL)
	}
	if wantPosted := now.Add(-2 * time.Hour); !got.PostedAt.Equal(wantPosted) {
		t.Errorf("PostedAt = %v, want %v", got.PostedAt, wantPosted)
	}
}

func TestBuildListing_AbsoluteURLKept(t *testing.T) {
	fields := feedItemFields{
		ItemLink: "https://www.yad2.co.il/item/xyz9",
		Title:    "studio",
	}
	got, err := buildListing(fields, time.Now())
	if err != nil {
		t.Fatalf("buildListing returned error: %v", err)
	}
	if got.NativeID != "xyz9" {
		t.Errorf("NativeID = %q, want %q", got.NativeID, "xyz9")
	}
	if got.URL != "https://www.yad2.co.il/item/xyz9" {
		t.Errorf("URL = %q", got.URL)
	}
}

func TestBuildListing_AddressFallsBackAsTitle(t *testing.T) {
	fields := feedItemFields{
		ItemLink: "/item/abc123",
		Address:  "Florentin, Tel Aviv",
	}
	got, err := buildListing(fields, time.Now())
	if err != nil {
		t.Fatalf("buildListing returned error: %v", err)
	}
	if got.Title != "Florentin, Tel Aviv" {
		t.Errorf("Title = %q, want address fallback", got.Title)
	}
}

func TestBuildListing_ParseErrors(t *testing.T) {
	tests := []struct {
		name      string
		fields    feedItemFields
		wantField string
	}{
		{"missing item link", feedItemFields{Title: "flat"}, "native_id"},
		{"link without token", feedItemFields{ItemLink: "/realestate/rent", Title: "flat"}, "native_id"},
		{"no title and no address", feedItemFields{ItemLink: "/item/abc123"}, "title"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := buildListing(tt.fields, time.Now())
			var parseErr *domain.ParseError
			if !errors.As(err, &parseErr) {
				t.Fatalf("expected ParseError, got %v", err)
			}
			if parseErr.Field != tt.wantField {
				t.Errorf("field = %q, want %q", parseErr.Field, tt.wantField)
			}
		})
	}
}

func TestParseListingDate(t *testing.T) {
	now := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		text string
		want time.Time
	}{
		{"minutes ago", "לפני 5 דקות", now.Add(-5 * time.Minute)},
		{"one minute ago", "לפני 1 דקה", now.Add(-time.Minute)},
		{"hours ago", "לפני 3 שעות", now.Add(-3 * time.Hour)},
		{"days ago", "לפני 2 ימים", now.AddDate(0, 0, -2)},
		{"absolute short year", "15/08/26", time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)},
		{"absolute full year", "15/08/2026", time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)},
		{"unparsable", "עודכן היום", time.Time{}},
		{"empty", "", time.Time{}},
		{"impossible date", "45/13/26", time.Time{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseListingDate(tt.text, now)
			if !got.Equal(tt.want) {
				t.Errorf("parseListingDate(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}
