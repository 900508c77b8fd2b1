package yad2fetcher

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/feldboy/aparmenttool/internal/constants"
	"github.com/feldboy/aparmenttool/internal/core/domain"
	"github.com/gocolly/colly/v2"
)

// feedItemFields - сырые строки, вытащенные из разметки одного элемента
// выдачи. Отдельная структура, чтобы маппинг можно было тестировать без
// живого HTML.
type feedItemFields struct {
	ItemLink string
	Title    string
	Price    string
	Rooms    string
	Address  string
	ImageURL string
	DateText string
}

var itemTokenRe = regexp.MustCompile(`/(?:realestate/)?item/([A-Za-z0-9]+)`)

// mapFeedItem собирает RawListing из элемента выдачи.
func mapFeedItem(e *colly.HTMLElement) (domain.RawListing, error) {
	fields := feedItemFields{
		ItemLink: firstChildAttr(e, "href", `a[href*="/item/"]`, "a"),
		Title:    firstChildText(e, `[data-testid="title"]`, "h2", ".title"),
		Price:    firstChildText(e, `[data-testid="price"]`, ".price", `[class*="price"]`),
		Rooms:    firstChildText(e, `[data-testid="rooms"]`, `[class*="rooms"]`, ".data"),
		Address:  firstChildText(e, `[data-testid="address"]`, ".subtitle", `[class*="address"]`),
		ImageURL: firstChildAttr(e, "src", "img"),
		DateText: firstChildText(e, `[data-testid="date"]`, ".date", `[class*="date"]`),
	}
	return buildListing(fields, time.Now())
}

// buildListing превращает сырые строки элемента выдачи в RawListing.
func buildListing(fields feedItemFields, now time.Time) (domain.RawListing, error) {
	m := itemTokenRe.FindStringSubmatch(fields.ItemLink)
	if m == nil {
		return domain.RawListing{}, &domain.ParseError{
			Source: domain.SourceYad2,
			Field:  "native_id",
			Err:    fmt.Errorf("no item token in link %q", fields.ItemLink),
		}
	}
	nativeID := m[1]

	itemURL := fields.ItemLink
	if strings.HasPrefix(itemURL, "/") {
		itemURL = constants.Yad2BaseURL + itemURL
	}

	title := strings.TrimSpace(fields.Title)
	if title == "" {
		title = strings.TrimSpace(fields.Address)
	}
	if title == "" {
		return domain.RawListing{}, &domain.ParseError{
			Source: domain.SourceYad2,
			Field:  "title",
			Err:    fmt.Errorf("feed item %s has neither title nor address", nativeID),
		}
	}

	return domain.RawListing{
		NativeID:  nativeID,
		Source:    domain.SourceYad2,
		Title:     title,
		PriceText: strings.TrimSpace(fields.Price),
		RoomsText: strings.TrimSpace(fields.Rooms),
		Location:  strings.TrimSpace(fields.Address),
		URL:       itemURL,
		ImageURL:  strings.TrimSpace(fields.ImageURL),
		PostedAt:  parseListingDate(fields.DateText, now),
	}, nil
}

var (
	relativeDateRe = regexp.MustCompile(`לפני\s+(\d+)\s+(דקות|דקה|שעות|שעה|ימים|יום)`)
	absoluteDateRe = regexp.MustCompile(`(\d{1,2})/(\d{1,2})/(\d{2,4})`)
)

// parseListingDate разбирает отметку времени элемента выдачи. Yad2 пишет
// либо относительное время на иврите ("לפני 2 שעות"), либо дату dd/mm/yy.
// Нечитаемая отметка дает нулевое время: такое объявление не фильтруется
// по курсору и полагается на дедупликацию.
func parseListingDate(text string, now time.Time) time.Time {
	text = strings.TrimSpace(text)
	if text == "" {
		return time.Time{}
	}

	if m := relativeDateRe.FindStringSubmatch(text); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return time.Time{}
		}
		switch m[2] {
		case "דקה", "דקות":
			return now.Add(-time.Duration(n) * time.Minute)
		case "שעה", "שעות":
			return now.Add(-time.Duration(n) * time.Hour)
		case "יום", "ימים":
			return now.AddDate(0, 0, -n)
		}
	}

	if m := absoluteDateRe.FindStringSubmatch(text); m != nil {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		if year < 100 {
			year += 2000
		}
		if month >= 1 && month <= 12 && day >= 1 && day <= 31 {
			return time.Date(year, time.Month(month), day, 0, 0, 0, 0, now.Location())
		}
	}

	return time.Time{}
}

// firstChildText возвращает текст первого непустого селектора.
func firstChildText(e *colly.HTMLElement, selectors ...string) string {
	for _, sel := range selectors {
		if text := strings.TrimSpace(e.ChildText(sel)); text != "" {
			return text
		}
	}
	return ""
}

// firstChildAttr возвращает атрибут первого непустого селектора.
func firstChildAttr(e *colly.HTMLElement, attr string, selectors ...string) string {
	for _, sel := range selectors {
		if val := strings.TrimSpace(e.ChildAttr(sel, attr)); val != "" {
			return val
		}
	}
	return ""
}
