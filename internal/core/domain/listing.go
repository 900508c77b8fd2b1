package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// RawListing - объявление в том виде, в котором его вернул источник,
// до нормализации и матчинга. NativeID - идентификатор площадки.
type RawListing struct {
	NativeID    string            `json:"native_id"`
	Source      Source            `json:"source"`
	Title       string            `json:"title"`
	PriceText   string            `json:"price_text"`
	RoomsText   string            `json:"rooms_text"`
	Location    string            `json:"location"`
	Description string            `json:"description"`
	URL         string            `json:"url"`
	ImageURL    string            `json:"image_url"`
	PostedAt    time.Time         `json:"posted_at"`
	Fields      map[string]string `json:"fields,omitempty"`
}

// ListingID - составной ключ объявления, уникальный между площадками.
func (l *RawListing) ListingID() string {
	return fmt.Sprintf("%s:%s", l.Source, l.NativeID)
}

// ScannedListing - запись индекса дедупликации: то, что мы уже видели.
type ScannedListing struct {
	NativeID    string    `json:"native_id"`
	Source      Source    `json:"source"`
	ContentHash string    `json:"content_hash"`
	ImageHash   string    `json:"image_hash,omitempty"`
	FirstSeen   time.Time `json:"first_seen"`
	URL         string    `json:"url"`
}

var digitsRe = regexp.MustCompile(`\d+`)

// Fingerprint строит контент-хэш объявления для дедупликации кросс-постов.
// В хэш входят только стабильные части: цифры цены и комнат плюс усеченные
// префиксы локации, заголовка и описания. Перестановка эмодзи или смена
// валютного знака не меняют отпечаток.
func Fingerprint(l *RawListing) string {
	price := strings.Join(digitsRe.FindAllString(l.PriceText, -1), "")
	rooms := strings.Join(digitsRe.FindAllString(l.RoomsText, -1), "")
	location := truncate(normalizeForHash(l.Location), 50)
	title := truncate(normalizeForHash(l.Title), 100)
	desc := truncate(normalizeForHash(l.Description), 100)

	payload := fmt.Sprintf("%s|%s|%s|%s|%s", price, rooms, location, title, desc)
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}

func normalizeForHash(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
