package facebookfetcher

import (
	"testing"

	"github.com/feldboy/aparmenttool/internal/core/domain"
)

func TestMapGroupPost(t *testing.T) {
	post := rawPost{
		Text:      "דירה מהממת להשכרה בפלורנטין\n2.5 חדרים, 6,500 ₪\nכניסה מיידית",
		Permalink: "https://www.facebook.com/groups/123/posts/987654321",
		ImageURL:  "https://scontent.xx.fbcdn.net/photo.jpg",
	}

	got, ok := mapGroupPost(post, "123")
	if !ok {
		t.Fatal("rental post should map to a listing")
	}

	if got.NativeID != "987654321" {
		t.Errorf("NativeID = %q, want permalink post id", got.NativeID)
	}
	if got.Source != domain.SourceFacebook {
		t.Errorf("Source = %q", got.Source)
	}
	if got.Title != "דירה מהממת להשכרה בפלורנטין" {
		t.Errorf("Title = %q, want first line", got.Title)
	}
	if got.PriceText != "6,500 ₪" {
		t.Errorf("PriceText = %q", got.PriceText)
	}
	if got.RoomsText != "2.5" {
		t.Errorf("RoomsText = %q", got.RoomsText)
	}
	if !got.PostedAt.IsZero() {
		t.Errorf("PostedAt should stay zero for feed posts, got %v", got.PostedAt)
	}
}

func TestMapGroupPost_FiltersNonPropertyPosts(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{"hebrew rental", "דירה להשכרה בתל אביב", true},
		{"english rental", "Apartment for rent in Florentin", true},
		{"sublet", "Sublet available for August", true},
		{"chatter", "מי בא לים מחר?", false},
		{"empty", "", false},
		{"whitespace only", "   \n  ", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := mapGroupPost(rawPost{Text: tt.text, Permalink: "https://www.facebook.com/groups/1/posts/2"}, "1")
			if ok != tt.want {
				t.Errorf("mapGroupPost(%q) ok = %v, want %v", tt.text, ok, tt.want)
			}
		})
	}
}

func TestMapGroupPost_HashIDWithoutPermalink(t *testing.T) {
	post := rawPost{Text: "apartment for rent, 3 rooms"}

	first, ok := mapGroupPost(post, "g1")
	if !ok {
		t.Fatal("post should map")
	}
	again, _ := mapGroupPost(post, "g1")
	otherGroup, _ := mapGroupPost(post, "g2")

	if first.NativeID == "" || len(first.NativeID) != 16 {
		t.Errorf("hash id = %q, want 16 hex chars", first.NativeID)
	}
	if first.NativeID != again.NativeID {
		t.Error("same text in the same group must produce the same id")
	}
	if first.NativeID == otherGroup.NativeID {
		t.Error("same text in different groups must produce different ids")
	}
}

func TestExtractPrice(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"symbol before", "מחיר: ₪6,500 לחודש", "6,500 ₪"},
		{"symbol after", "6500 ₪ לחודש", "6500 ₪"},
		{"shekel word", "רק 5500 שקל", "5500 ₪"},
		{"nis suffix", "4200 nis per month", "4200 ₪"},
		{"no price", "call for details", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractPrice(tt.text); got != tt.want {
				t.Errorf("extractPrice(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestExtractRooms(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"decimal hebrew", "2.5 חדרים במרכז", "2.5"},
		{"comma decimal", "2,5 חדרים", "2.5"},
		{"english", "3 rooms near the beach", "3"},
		{"single room", "1 room studio", "1"},
		{"no rooms", "great location", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractRooms(tt.text); got != tt.want {
				t.Errorf("extractRooms(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestFirstLine(t *testing.T) {
	long := make([]rune, 200)
	for i := range long {
		long[i] = 'א'
	}

	tests := []struct {
		name string
		text string
		want int
	}{
		{"truncated to 120 runes", string(long), 120},
		{"short line kept", "hello", 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := firstLine(tt.text)
			if len([]rune(got)) != tt.want {
				t.Errorf("firstLine length = %d, want %d", len([]rune(got)), tt.want)
			}
		})
	}
}
