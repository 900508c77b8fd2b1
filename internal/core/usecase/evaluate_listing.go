package usecase

import (
	"fmt"

	"github.com/feldboy/aparmenttool/internal/core/domain"
)

// Веса критериев матчинга. Сумма подобрана так, чтобы полное попадание
// по цене и комнатам вместе с городом давало уверенный матч.
const (
	weightPrice        = 30
	weightRooms        = 25
	weightCity         = 20
	weightNeighborhood = 15
	weightStreet       = 10
	weightPropertyType = 10
	weightFeature      = 2
)

// Пороги уверенности по итоговому счету.
const (
	scoreHigh   = 80
	scoreMedium = 60
	scoreLow    = 50
)

// EvaluateListingUseCase - чистый движок матчинга. Не имеет зависимостей
// и побочных эффектов: одно объявление против одного профиля.
type EvaluateListingUseCase struct{}

func NewEvaluateListingUseCase() *EvaluateListingUseCase {
	return &EvaluateListingUseCase{}
}

// Execute сверяет объявление с профилем. Жесткие критерии (цена, комнаты,
// локация, тип) проверяются по порядку и отсекают сразу; мягкие критерии
// только добавляют счет. Нечитаемое поле отклоняет объявление лишь тогда,
// когда профиль этим полем действительно ограничивает поиск.
func (uc *EvaluateListingUseCase) Execute(profile *domain.SearchProfile, listing *domain.RawListing) domain.MatchResult {
	score := 0
	var reasons []string

	// 1. Цена.
	price, priceOK := NormalizePrice(listing.PriceText)
	if profile.Price.IsConstrained() {
		if !priceOK {
			return domain.NoMatch(domain.RejectUnparsableField)
		}
		if !profile.Price.Contains(price) {
			return domain.NoMatch(domain.RejectPriceOutOfRange)
		}
	}
	score += weightPrice
	if priceOK {
		reasons = append(reasons, fmt.Sprintf("price %d in range", price))
	}

	// 2. Комнаты.
	rooms, roomsOK := NormalizeRooms(listing.RoomsText)
	if profile.Rooms.IsConstrained() {
		if !roomsOK {
			return domain.NoMatch(domain.RejectUnparsableField)
		}
		if !profile.Rooms.Contains(rooms) {
			return domain.NoMatch(domain.RejectRoomsOutOfRange)
		}
	}
	score += weightRooms
	if roomsOK {
		reasons = append(reasons, fmt.Sprintf("rooms %.1f in range", rooms))
	}

	// 3. Локация. Текст объявления может упоминать локацию и в заголовке,
	// и в описании, поэтому ищем по всем трем полям.
	locationText := listing.Location + " " + listing.Title + " " + listing.Description
	locationSignals := 0
	if profile.Location.IsConstrained() {
		// Город - жесткий критерий: без попадания по городу район и улица
		// не спасают объявление из другого города.
		if len(profile.Location.Cities) > 0 {
			city := firstContained(locationText, profile.Location.Cities)
			if city == "" {
				return domain.NoMatch(domain.RejectLocationMismatch)
			}
			score += weightCity
			locationSignals++
			reasons = append(reasons, "city "+city)
		}
		if hood := firstContained(locationText, profile.Location.Neighborhoods); hood != "" {
			score += weightNeighborhood
			locationSignals++
			reasons = append(reasons, "neighborhood "+hood)
		}
		if street := firstContained(locationText, profile.Location.Streets); street != "" {
			score += weightStreet
			locationSignals++
			reasons = append(reasons, "street "+street)
		}
		if locationSignals == 0 {
			return domain.NoMatch(domain.RejectLocationMismatch)
		}
	} else {
		// Без географических ограничений локация считается совпавшей.
		score += weightCity + weightNeighborhood
		locationSignals = 2
	}

	// 4. Тип недвижимости.
	if len(profile.PropertyTypes) > 0 {
		propText := listing.Title + " " + listing.Description
		if pt := firstContained(propText, profile.PropertyTypes); pt != "" {
			score += weightPropertyType
			reasons = append(reasons, "property type "+pt)
		} else {
			return domain.NoMatch(domain.RejectTypeMismatch)
		}
	} else {
		score += weightPropertyType
	}

	// 5. Желательные удобства. Только бонус, никогда не отсекают.
	featureText := listing.Title + " " + listing.Description
	for _, f := range profile.PreferredFeatures {
		if ContainsNormalized(featureText, f) {
			score += weightFeature
			reasons = append(reasons, "feature "+f)
		}
	}

	confidence := confidenceFor(score, locationSignals)
	if confidence == domain.ConfidenceNoMatch {
		return domain.MatchResult{
			Matched:    false,
			Confidence: domain.ConfidenceNoMatch,
			Score:      score,
		}
	}

	return domain.MatchResult{
		Matched:    true,
		Confidence: confidence,
		Score:      score,
		Reasons:    reasons,
	}
}

func confidenceFor(score, locationSignals int) domain.Confidence {
	switch {
	case score >= scoreHigh && locationSignals >= 2:
		return domain.ConfidenceHigh
	case score >= scoreMedium && locationSignals >= 1:
		return domain.ConfidenceMedium
	case score >= scoreLow:
		return domain.ConfidenceLow
	default:
		return domain.ConfidenceNoMatch
	}
}

// firstContained возвращает первое из значений, найденное в тексте
// после нормализации, либо пустую строку.
func firstContained(text string, values []string) string {
	for _, v := range values {
		if ContainsNormalized(text, v) {
			return v
		}
	}
	return ""
}
