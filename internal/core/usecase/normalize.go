package usecase

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Таблица псевдонимов: ивритские названия и термины приводятся к
// каноническим английским формам, чтобы матчинг не зависел от языка
// объявления. Ключи уже в нижнем регистре.
var hebrewAliases = map[string]string{
	"תל אביב":    "tel aviv",
	"תל-אביב":    "tel aviv",
	"ת\"א":       "tel aviv",
	"ירושלים":    "jerusalem",
	"חיפה":       "haifa",
	"רמת גן":     "ramat gan",
	"גבעתיים":    "givatayim",
	"באר שבע":    "beer sheva",
	"ראשון לציון": "rishon lezion",
	"פלורנטין":   "florentin",
	"נווה צדק":   "neve tzedek",
	"לב העיר":    "lev hair",
	"הצפון הישן": "old north",
	"דירה":       "apartment",
	"דירת גן":    "garden apartment",
	"סטודיו":     "studio",
	"פנטהאוז":    "penthouse",
	"דופלקס":     "duplex",
	"יחידת דיור": "housing unit",
	"מרפסת":      "balcony",
	"חניה":       "parking",
	"מעלית":      "elevator",
	"ממ\"ד":      "safe room",
	"מרוהטת":     "furnished",
	"מיזוג":      "air conditioning",
	"חדרים":      "rooms",
	"חדר":        "room",
	"וחצי":       ".5",
	"שכירות":     "rent",
}

var (
	nonTextRe    = regexp.MustCompile(`[^\p{L}\p{N}."\s-]+`)
	priceDigitRe = regexp.MustCompile(`\d[\d,.]*`)
	roomsNumRe   = regexp.MustCompile(`\d+(?:\.\d+)?`)
)

// Замены применяются от длинных ключей к коротким, иначе "חדר" съедал
// бы префикс "חדרים".
var aliasReplacer = buildAliasReplacer()

func buildAliasReplacer() *strings.Replacer {
	keys := make([]string, 0, len(hebrewAliases))
	for k := range hebrewAliases {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return len(keys[i]) > len(keys[j]) })

	pairs := make([]string, 0, len(keys)*2)
	for _, k := range keys {
		pairs = append(pairs, k, hebrewAliases[k])
	}
	return strings.NewReplacer(pairs...)
}

// NormalizeText приводит произвольный текст объявления к канонической
// форме для сравнения: нижний регистр, без эмодзи и пунктуации,
// ивритские термины заменены псевдонимами.
func NormalizeText(s string) string {
	lower := strings.ToLower(strings.TrimSpace(s))
	lower = aliasReplacer.Replace(lower)
	lower = nonTextRe.ReplaceAllString(lower, " ")
	return strings.Join(strings.Fields(lower), " ")
}

// ContainsNormalized проверяет вхождение needle в haystack после
// нормализации обеих строк.
func ContainsNormalized(haystack, needle string) bool {
	n := NormalizeText(needle)
	if n == "" {
		return false
	}
	return strings.Contains(NormalizeText(haystack), n)
}

// NormalizePrice извлекает целую цену из текста вида "6,500 ₪" или
// "₪6500/месяц". Возвращает ok=false, если цифр в тексте нет.
func NormalizePrice(s string) (int, bool) {
	m := priceDigitRe.FindString(s)
	if m == "" {
		return 0, false
	}
	cleaned := strings.ReplaceAll(m, ",", "")
	// Точка в ценах встречается как разделитель тысяч ("6.500")
	cleaned = strings.ReplaceAll(cleaned, ".", "")
	v, err := strconv.Atoi(cleaned)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}

// NormalizeRooms извлекает число комнат из текста вида "2.5 rooms",
// "2½" или "2 וחצי".
func NormalizeRooms(s string) (float64, bool) {
	prepared := strings.ReplaceAll(s, "½", ".5")
	prepared = strings.ReplaceAll(prepared, "וחצי", ".5")
	prepared = strings.ReplaceAll(prepared, " .5", ".5")
	m := roomsNumRe.FindString(prepared)
	if m == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil || v <= 0 || v > 20 {
		return 0, false
	}
	return v, true
}

// TitleCase приводит произвольное название к заголовочному регистру
// для человекочитаемых уведомлений.
func TitleCase(s string) string {
	caser := cases.Title(language.English)
	return caser.String(strings.ToLower(strings.TrimSpace(s)))
}
