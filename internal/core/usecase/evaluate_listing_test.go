package usecase

import (
	"testing"

	"github.com/feldboy/aparmenttool/internal/core/domain"
	"github.com/google/uuid"
)

func telAvivProfile() *domain.SearchProfile {
	return &domain.SearchProfile{
		ID:     uuid.New(),
		Name:   "tel aviv rentals",
		Active: true,
		Price:  domain.PriceRange{Min: 4000, Max: 7000},
		Rooms:  domain.RoomRange{Min: 2, Max: 3},
		Location: domain.LocationCriteria{
			Cities:        []string{"tel aviv"},
			Neighborhoods: []string{"florentin", "neve tzedek"},
		},
	}
}

func TestEvaluateListing_FullMatchIsHigh(t *testing.T) {
	uc := NewEvaluateListingUseCase()
	listing := &domain.RawListing{
		NativeID:  "a1",
		Source:    domain.SourceYad2,
		Title:     "Lovely apartment in Florentin, Tel Aviv",
		PriceText: "6,500 ₪",
		RoomsText: "2.5 rooms",
		Location:  "Tel Aviv",
	}

	got := uc.Execute(telAvivProfile(), listing)

	if !got.Matched {
		t.Fatalf("expected match, got rejection %q", got.RejectReason)
	}
	if got.Confidence != domain.ConfidenceHigh {
		t.Errorf("confidence = %q, want %q (score %d)", got.Confidence, domain.ConfidenceHigh, got.Score)
	}
	if got.Score != 100 {
		t.Errorf("score = %d, want 100", got.Score)
	}
}

func TestEvaluateListing_CityOnlyIsMedium(t *testing.T) {
	uc := NewEvaluateListingUseCase()
	listing := &domain.RawListing{
		NativeID:  "a2",
		Source:    domain.SourceYad2,
		Title:     "Apartment for rent in Tel Aviv",
		PriceText: "5,000 ₪",
		RoomsText: "3",
		Location:  "Tel Aviv",
	}

	got := uc.Execute(telAvivProfile(), listing)

	if !got.Matched {
		t.Fatalf("expected match, got rejection %q", got.RejectReason)
	}
	// Один географический сигнал не дотягивает до high при любом счете.
	if got.Confidence != domain.ConfidenceMedium {
		t.Errorf("confidence = %q, want %q (score %d)", got.Confidence, domain.ConfidenceMedium, got.Score)
	}
}

func TestEvaluateListing_HardRejections(t *testing.T) {
	tests := []struct {
		name       string
		listing    domain.RawListing
		wantReason string
	}{
		{
			name: "price above max",
			listing: domain.RawListing{
				PriceText: "8,000 ₪", RoomsText: "2.5", Title: "Florentin", Location: "Tel Aviv",
			},
			wantReason: domain.RejectPriceOutOfRange,
		},
		{
			name: "price below min",
			listing: domain.RawListing{
				PriceText: "3,000 ₪", RoomsText: "2.5", Title: "Florentin", Location: "Tel Aviv",
			},
			wantReason: domain.RejectPriceOutOfRange,
		},
		{
			name: "too many rooms",
			listing: domain.RawListing{
				PriceText: "6,000 ₪", RoomsText: "4 rooms", Title: "Florentin", Location: "Tel Aviv",
			},
			wantReason: domain.RejectRoomsOutOfRange,
		},
		{
			name: "wrong city",
			listing: domain.RawListing{
				PriceText: "6,000 ₪", RoomsText: "2.5", Title: "Apartment in Haifa", Location: "Haifa",
			},
			wantReason: domain.RejectLocationMismatch,
		},
		{
			// Совпавший район не спасает объявление из другого города.
			name: "wrong city with neighborhood mention",
			listing: domain.RawListing{
				PriceText: "6,000 ₪", RoomsText: "2.5", Title: "Apartment on Florentin street", Location: "Jerusalem",
			},
			wantReason: domain.RejectLocationMismatch,
		},
		{
			name: "unparsable price with constraint",
			listing: domain.RawListing{
				PriceText: "call me", RoomsText: "2.5", Title: "Florentin", Location: "Tel Aviv",
			},
			wantReason: domain.RejectUnparsableField,
		},
	}

	uc := NewEvaluateListingUseCase()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := uc.Execute(telAvivProfile(), &tt.listing)
			if got.Matched {
				t.Fatalf("expected rejection, got match with score %d", got.Score)
			}
			if got.RejectReason != tt.wantReason {
				t.Errorf("reject reason = %q, want %q", got.RejectReason, tt.wantReason)
			}
		})
	}
}

func TestEvaluateListing_NeighborhoodOnlyProfile(t *testing.T) {
	uc := NewEvaluateListingUseCase()
	profile := telAvivProfile()
	profile.Location = domain.LocationCriteria{Neighborhoods: []string{"florentin"}}

	listing := &domain.RawListing{
		PriceText: "6,000 ₪", RoomsText: "2.5", Title: "Cozy place in Florentin",
	}

	got := uc.Execute(profile, listing)
	if !got.Matched {
		t.Fatalf("profile without city constraint should match on neighborhood alone, got %q", got.RejectReason)
	}
}

func TestEvaluateListing_InclusiveBounds(t *testing.T) {
	uc := NewEvaluateListingUseCase()
	for _, priceText := range []string{"4,000 ₪", "7,000 ₪"} {
		listing := &domain.RawListing{
			PriceText: priceText, RoomsText: "2", Title: "Florentin", Location: "Tel Aviv",
		}
		if got := uc.Execute(telAvivProfile(), listing); !got.Matched {
			t.Errorf("price %s on the boundary should match, got rejection %q", priceText, got.RejectReason)
		}
	}
}

func TestEvaluateListing_UnparsableWithoutConstraintPasses(t *testing.T) {
	uc := NewEvaluateListingUseCase()
	profile := telAvivProfile()
	profile.Price = domain.PriceRange{}

	listing := &domain.RawListing{
		PriceText: "price on request", RoomsText: "2.5", Title: "Florentin", Location: "Tel Aviv",
	}

	got := uc.Execute(profile, listing)
	if !got.Matched {
		t.Fatalf("unparsable price must not reject when the profile has no price constraint, got %q", got.RejectReason)
	}
}

func TestEvaluateListing_PropertyTypeGate(t *testing.T) {
	uc := NewEvaluateListingUseCase()
	profile := telAvivProfile()
	profile.PropertyTypes = []string{"studio"}

	listing := &domain.RawListing{
		PriceText: "6,000 ₪", RoomsText: "2", Title: "Garden apartment in Florentin", Location: "Tel Aviv",
	}
	if got := uc.Execute(profile, listing); got.Matched || got.RejectReason != domain.RejectTypeMismatch {
		t.Errorf("expected %q rejection, got matched=%v reason=%q", domain.RejectTypeMismatch, got.Matched, got.RejectReason)
	}

	listing.Title = "Studio in Florentin"
	if got := uc.Execute(profile, listing); !got.Matched {
		t.Errorf("studio listing should match studio profile, got rejection %q", got.RejectReason)
	}
}

func TestEvaluateListing_PreferredFeaturesOnlyBoost(t *testing.T) {
	uc := NewEvaluateListingUseCase()
	profile := telAvivProfile()
	profile.PreferredFeatures = []string{"balcony", "parking"}

	plain := &domain.RawListing{
		PriceText: "6,000 ₪", RoomsText: "2.5", Title: "Florentin apartment", Location: "Tel Aviv",
	}
	featured := &domain.RawListing{
		PriceText: "6,000 ₪", RoomsText: "2.5", Title: "Florentin apartment with balcony and parking", Location: "Tel Aviv",
	}

	plainResult := uc.Execute(profile, plain)
	featuredResult := uc.Execute(profile, featured)

	if !plainResult.Matched {
		t.Fatalf("missing features must not reject, got %q", plainResult.RejectReason)
	}
	if featuredResult.Score != plainResult.Score+4 {
		t.Errorf("two features should add 4 points: plain=%d featured=%d", plainResult.Score, featuredResult.Score)
	}
}

func TestEvaluateListing_HebrewListingMatchesEnglishProfile(t *testing.T) {
	uc := NewEvaluateListingUseCase()
	listing := &domain.RawListing{
		NativeID:  "fb1",
		Source:    domain.SourceFacebook,
		Title:     "דירה מהממת בפלורנטין תל אביב",
		PriceText: "₪6500",
		RoomsText: "2 וחצי חדרים",
	}

	got := uc.Execute(telAvivProfile(), listing)
	if !got.Matched {
		t.Fatalf("hebrew listing should match, got rejection %q", got.RejectReason)
	}
	if got.Confidence != domain.ConfidenceHigh {
		t.Errorf("confidence = %q, want %q (score %d)", got.Confidence, domain.ConfidenceHigh, got.Score)
	}
}

func TestEvaluateListing_Deterministic(t *testing.T) {
	uc := NewEvaluateListingUseCase()
	profile := telAvivProfile()
	listing := &domain.RawListing{
		PriceText: "6,500 ₪", RoomsText: "2.5", Title: "Florentin apartment", Location: "Tel Aviv",
	}

	first := uc.Execute(profile, listing)
	for i := 0; i < 10; i++ {
		again := uc.Execute(profile, listing)
		if again.Score != first.Score || again.Confidence != first.Confidence {
			t.Fatalf("evaluation is not deterministic: run %d gave score %d confidence %q", i, again.Score, again.Confidence)
		}
	}
}
