package domain

import (
	"testing"
	"time"
)

func TestFingerprint_StableAcrossCosmeticChanges(t *testing.T) {
	base := &RawListing{
		NativeID:    "a1",
		Source:      SourceYad2,
		Title:       "Apartment in Florentin",
		PriceText:   "6,500 ₪",
		RoomsText:   "2.5 rooms",
		Location:    "Tel Aviv",
		Description: "Sunny and renovated",
		PostedAt:    time.Now(),
	}

	variants := []RawListing{*base, *base, *base, *base}
	variants[1].PriceText = "₪ 6.500"                  // другой валютный формат, те же цифры
	variants[2].Title = "  APARTMENT   in florentin "  // регистр и пробелы
	variants[3].NativeID = "fb42"                      // кросс-пост с другой площадки
	variants[3].Source = SourceFacebook
	variants[3].URL = "https://facebook.com/posts/fb42"

	want := Fingerprint(base)
	for i := range variants {
		if got := Fingerprint(&variants[i]); got != want {
			t.Errorf("variant %d: fingerprint changed on a cosmetic difference", i)
		}
	}
}

func TestFingerprint_DiffersOnSubstance(t *testing.T) {
	base := &RawListing{
		Title:       "Apartment in Florentin",
		PriceText:   "6,500 ₪",
		RoomsText:   "2.5",
		Location:    "Tel Aviv",
		Description: "Sunny and renovated",
	}

	otherPrice := *base
	otherPrice.PriceText = "7,200 ₪"

	otherText := *base
	otherText.Description = "Ground floor, needs work"

	if Fingerprint(&otherPrice) == Fingerprint(base) {
		t.Error("different price should change the fingerprint")
	}
	if Fingerprint(&otherText) == Fingerprint(base) {
		t.Error("different description should change the fingerprint")
	}
}

func TestListingID(t *testing.T) {
	l := &RawListing{NativeID: "a1", Source: SourceYad2}
	if got := l.ListingID(); got != "yad2:a1" {
		t.Errorf("ListingID() = %q, want %q", got, "yad2:a1")
	}
}

func TestPriceRangeContains(t *testing.T) {
	tests := []struct {
		name  string
		r     PriceRange
		price int
		want  bool
	}{
		{"inside", PriceRange{Min: 4000, Max: 7000}, 6500, true},
		{"at min", PriceRange{Min: 4000, Max: 7000}, 4000, true},
		{"at max", PriceRange{Min: 4000, Max: 7000}, 7000, true},
		{"below", PriceRange{Min: 4000, Max: 7000}, 3999, false},
		{"above", PriceRange{Min: 4000, Max: 7000}, 7001, false},
		{"unbounded max", PriceRange{Min: 4000}, 1000000, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.r.Contains(tt.price); got != tt.want {
				t.Errorf("Contains(%d) = %v, want %v", tt.price, got, tt.want)
			}
		})
	}
}
