package facebookfetcher

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"

	"github.com/feldboy/aparmenttool/internal/core/domain"
)

// Ключевые слова, по которым пост группы считается объявлением об аренде.
// Посты-болталки ("ищу соседа", мемы) отсеиваются здесь.
var propertyKeywords = []string{
	"להשכרה", "דירה", "חדרים", "שכירות", "סאבלט",
	"for rent", "apartment", "sublet", "rooms", "flat",
}

var (
	fbPriceRe     = regexp.MustCompile(`(?:₪|ils|nis)\s*([\d,]{3,7})|([\d,]{3,7})\s*(?:₪|ils|nis|שקל)`)
	fbRoomsRe     = regexp.MustCompile(`(\d(?:[.,]5)?|\d\s*וחצי)\s*(?:חדרים|חד'|rooms?|br\b)`)
	permalinkIDRe = regexp.MustCompile(`/(?:posts|permalink)/(\d+)`)
)

// mapGroupPost превращает пост группы в RawListing. Возвращает false,
// если пост не похож на объявление о недвижимости.
func mapGroupPost(post rawPost, groupID string) (domain.RawListing, bool) {
	text := strings.TrimSpace(post.Text)
	if text == "" || !isPropertyPost(text) {
		return domain.RawListing{}, false
	}

	nativeID := extractPostID(post.Permalink)
	if nativeID == "" {
		// Без пермалинка идентификатором служит хэш текста: тот же текст
		// в той же группе останется тем же объявлением
		sum := sha256.Sum256([]byte(groupID + "|" + text))
		nativeID = hex.EncodeToString(sum[:])[:16]
	}

	title := firstLine(text)

	return domain.RawListing{
		NativeID:    nativeID,
		Source:      domain.SourceFacebook,
		Title:       title,
		PriceText:   extractPrice(text),
		RoomsText:   extractRooms(text),
		Description: text,
		URL:         post.Permalink,
		ImageURL:    post.ImageURL,
		// Отметки времени в ленте относительные и обфусцированные,
		// дедупликация работает по идентификатору и контент-хэшу
	}, true
}

func isPropertyPost(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range propertyKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func extractPostID(permalink string) string {
	if m := permalinkIDRe.FindStringSubmatch(permalink); m != nil {
		return m[1]
	}
	return ""
}

func extractPrice(text string) string {
	if m := fbPriceRe.FindStringSubmatch(strings.ToLower(text)); m != nil {
		if m[1] != "" {
			return m[1] + " ₪"
		}
		return m[2] + " ₪"
	}
	return ""
}

func extractRooms(text string) string {
	if m := fbRoomsRe.FindStringSubmatch(strings.ToLower(text)); m != nil {
		return strings.ReplaceAll(m[1], ",", ".")
	}
	return ""
}

func firstLine(text string) string {
	for _, line := range strings.Split(text, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			runes := []rune(trimmed)
			if len(runes) > 120 {
				return string(runes[:120])
			}
			return trimmed
		}
	}
	return ""
}
