package yad2fetcher

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/feldboy/aparmenttool/internal/constants"
	"github.com/feldboy/aparmenttool/internal/contextkeys"
	"github.com/feldboy/aparmenttool/internal/core/domain"
	"github.com/feldboy/aparmenttool/internal/core/port"
	"github.com/feldboy/aparmenttool/internal/metrics"
	"github.com/gocolly/colly/v2"
)

// Маркеры антибот-заслона в теле ответа. Yad2 использует ShieldSquare,
// который отдает страницу с капчей вместо выдачи.
var challengeMarkers = []string{
	"shieldsquare",
	"px-captcha",
	"are you for real",
	"validate.perfdrive.com",
}

// buildURLFromProfile строит адрес поиска. Явный URL профиля имеет
// приоритет, иначе адрес собирается из критериев через словари кодов.
func (a *Yad2FetcherAdapter) buildURLFromProfile(profile *domain.SearchProfile) (string, error) {
	if profile.Targets.Yad2URL != "" {
		return profile.Targets.Yad2URL, nil
	}

	u, err := url.Parse(a.searchURL)
	if err != nil {
		return "", err
	}

	q := u.Query()
	if len(profile.Location.Cities) > 0 {
		if code, ok := constants.CityToYad2Map[strings.ToLower(profile.Location.Cities[0])]; ok {
			q.Set("city", code)
		}
	}
	if profile.Price.IsConstrained() {
		max := "-1"
		if profile.Price.Max > 0 {
			max = fmt.Sprintf("%d", profile.Price.Max)
		}
		q.Set("price", fmt.Sprintf("%d-%s", profile.Price.Min, max))
	}
	if profile.Rooms.IsConstrained() {
		max := "-1"
		if profile.Rooms.Max > 0 {
			max = fmt.Sprintf("%g", profile.Rooms.Max)
		}
		q.Set("rooms", fmt.Sprintf("%g-%s", profile.Rooms.Min, max))
	}
	if len(profile.PropertyTypes) > 0 {
		var codes []string
		for _, pt := range profile.PropertyTypes {
			if code, ok := constants.PropertyTypeToYad2Map[strings.ToLower(pt)]; ok {
				codes = append(codes, code)
			}
		}
		if len(codes) > 0 {
			q.Set("propertyGroup", strings.Join(codes, ","))
		}
	}

	u.RawQuery = q.Encode()
	return u.String(), nil
}

// FetchListings выполняет один обход выдачи Yad2 для профиля.
func (a *Yad2FetcherAdapter) FetchListings(ctx context.Context, profile *domain.SearchProfile, since time.Time) ([]domain.RawListing, error) {
	logger := contextkeys.LoggerFromContext(ctx)
	fetchLogger := logger.WithFields(port.Fields{"component": "Yad2FetcherAdapter(FetchListings)"})

	targetURL, err := a.buildURLFromProfile(profile)
	if err != nil {
		return nil, fmt.Errorf("yad2 adapter: failed to build search URL: %w", err)
	}

	// Одноразовый клон для этого запроса: наследует лимиты,
	// но имеет свои собственные обработчики
	collector := a.collector.Clone()

	var fetched []domain.RawListing
	var responseErr error
	parseErrors := 0

	collector.OnRequest(func(r *colly.Request) {
		fetchLogger.Debug("Making request to fetch listings", port.Fields{
			"url": r.URL.String(),
		})
	})

	collector.OnResponse(func(r *colly.Response) {
		body := strings.ToLower(string(r.Body))
		for _, marker := range challengeMarkers {
			if strings.Contains(body, marker) {
				responseErr = &domain.ProtectionChallengeError{URL: r.Request.URL.String()}
				return
			}
		}
	})

	collector.OnHTML(`[data-testid="feed-item"], div.feeditem, article[data-nagish="feed-item"]`, func(e *colly.HTMLElement) {
		listing, err := mapFeedItem(e)
		if err != nil {
			parseErrors++
			metrics.ParseErrors.WithLabelValues(string(domain.SourceYad2)).Inc()
			fetchLogger.Warn("Failed to parse feed item, skipping", port.Fields{
				"url":   e.Request.URL.String(),
				"error": err.Error(),
			})
			return
		}

		// Объявления старше курсора уже обработаны в прошлых циклах
		if !since.IsZero() && !listing.PostedAt.IsZero() && !listing.PostedAt.After(since) {
			return
		}

		if len(fetched) < constants.Yad2MaxItemsPerScan {
			fetched = append(fetched, listing)
		}
	})

	collector.OnError(func(r *colly.Response, err error) {
		if r != nil && (r.StatusCode == 403 || r.StatusCode == 429) {
			responseErr = &domain.ProtectionChallengeError{URL: r.Request.URL.String()}
			return
		}
		fetchLogger.Error("Failed to fetch listings page", err, port.Fields{
			"url":    r.Request.URL.String(),
			"status": r.StatusCode,
		})
		responseErr = fmt.Errorf("yad2 adapter: request to %s failed with status %d: %w", r.Request.URL, r.StatusCode, domain.ErrTransientNetwork)
	})

	visitErr := collector.Visit(targetURL)
	if visitErr != nil {
		fetchLogger.Error("Failed to initiate visit for fetching listings", visitErr, port.Fields{"url": targetURL})
		metrics.ScanFailures.WithLabelValues(string(domain.SourceYad2)).Inc()
		return nil, fmt.Errorf("yad2 adapter: failed to visit URL %s: %w", targetURL, visitErr)
	}
	collector.Wait()

	if responseErr != nil {
		metrics.ScanFailures.WithLabelValues(string(domain.SourceYad2)).Inc()
		return nil, responseErr
	}

	metrics.ListingsFetched.WithLabelValues(string(domain.SourceYad2)).Add(float64(len(fetched)))
	fetchLogger.Info("Finished fetching listings", port.Fields{
		"url":          targetURL,
		"fetched":      len(fetched),
		"parse_errors": parseErrors,
	})

	return fetched, nil
}
