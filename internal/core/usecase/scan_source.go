package usecase

import (
	"context"
	"time"

	"github.com/feldboy/aparmenttool/internal/contextkeys"
	"github.com/feldboy/aparmenttool/internal/core/domain"
	"github.com/feldboy/aparmenttool/internal/core/port"
	usecases_port "github.com/feldboy/aparmenttool/internal/core/port/usecases"
	"github.com/google/uuid"
)

// ScanSourceUseCase - конвейер одной пары (профиль, источник):
// забрать объявления, отфильтровать дубликаты, проверить совпадение,
// разослать уведомления и сдвинуть курсор.
type ScanSourceUseCase struct {
	fetchers    map[domain.Source]port.SourceFetcherPort
	scanState   port.ScanStatePort
	dedup       port.DedupIndexPort
	imageHasher port.ImageHasherPort
	evaluate    usecases_port.EvaluateListingPort
	dispatch    usecases_port.DispatchMatchPort
	events      port.MatchEventsQueuePort
}

func NewScanSourceUseCase(
	fetchers []port.SourceFetcherPort,
	scanState port.ScanStatePort,
	dedup port.DedupIndexPort,
	imageHasher port.ImageHasherPort,
	evaluate usecases_port.EvaluateListingPort,
	dispatch usecases_port.DispatchMatchPort,
	events port.MatchEventsQueuePort,
) *ScanSourceUseCase {
	bySource := make(map[domain.Source]port.SourceFetcherPort, len(fetchers))
	for _, f := range fetchers {
		bySource[f.Source()] = f
	}
	return &ScanSourceUseCase{
		fetchers:    bySource,
		scanState:   scanState,
		dedup:       dedup,
		imageHasher: imageHasher,
		evaluate:    evaluate,
		dispatch:    dispatch,
		events:      events,
	}
}

// Execute прогоняет конвейер для одной пары (профиль, источник).
// Ошибка возвращается только при сбое обхода источника целиком;
// сбои отдельных объявлений учитываются в статистике.
func (uc *ScanSourceUseCase) Execute(ctx context.Context, profile *domain.SearchProfile, source domain.Source) (domain.CycleStats, error) {
	baseLogger := contextkeys.LoggerFromContext(ctx)
	ucLogger := baseLogger.WithFields(port.Fields{
		"use_case":   "ScanSource",
		"profile_id": profile.ID.String(),
		"source":     string(source),
	})

	stats := domain.CycleStats{}

	fetcher, ok := uc.fetchers[source]
	if !ok {
		ucLogger.Warn("No fetcher registered for source, skipping", nil)
		return stats, nil
	}

	// Сбой чтения курсора не повод пропускать скан: падаем на полный
	// обход, дедупликация отсеет уже виденное.
	since, err := uc.scanState.GetCursor(ctx, profile.ID, source)
	if err != nil {
		ucLogger.Warn("Failed to read scan cursor, falling back to full scan", port.Fields{"error": err.Error()})
		since = time.Time{}
	}

	listings, err := fetcher.FetchListings(ctx, profile, since)
	if err != nil {
		return stats, err
	}
	stats.ListingsFetched = len(listings)
	ucLogger.Info("Fetched listings from source", port.Fields{"count": len(listings), "since": since})

	var newestSeen time.Time
	for i := range listings {
		listing := &listings[i]

		isNew, err := uc.registerListing(ctx, listing)
		if err != nil {
			ucLogger.Error("Failed to register listing in dedup index, skipping", err, port.Fields{"listing_id": listing.ListingID()})
			stats.DedupFailures++
			continue
		}
		// Отметка объявления учитывается в курсоре только после надежной
		// регистрации: иначе сбой хранилища навсегда перескочил бы его.
		if listing.PostedAt.After(newestSeen) {
			newestSeen = listing.PostedAt
		}
		if !isNew {
			continue
		}
		stats.ListingsNew++

		match := uc.evaluate.Execute(profile, listing)
		if !match.Matched {
			ucLogger.Debug("Listing did not match profile", port.Fields{
				"listing_id":    listing.ListingID(),
				"reject_reason": match.RejectReason,
			})
			continue
		}
		stats.MatchesFound++
		ucLogger.Info("Listing matched profile", port.Fields{
			"listing_id": listing.ListingID(),
			"confidence": string(match.Confidence),
			"score":      match.Score,
		})

		uc.publishMatchEvent(ctx, ucLogger, profile, listing, match)

		reports, err := uc.dispatch.Execute(ctx, profile, listing, match)
		if err != nil {
			ucLogger.Error("Dispatch failed for matched listing", err, port.Fields{"listing_id": listing.ListingID()})
			continue
		}
		for _, r := range reports {
			if r.Success {
				stats.NotificationsSent++
			}
		}
	}

	// Курсор двигается только к самой свежей фактически увиденной отметке.
	// Пустой обход курсор не трогает, иначе можно перескочить объявления,
	// опубликованные между обходами.
	if newestSeen.After(since) {
		if err := uc.scanState.AdvanceCursor(ctx, profile.ID, source, newestSeen); err != nil {
			ucLogger.Error("Failed to advance scan cursor", err, port.Fields{"to": newestSeen})
		}
	}

	return stats, nil
}

// registerListing строит запись индекса и атомарно регистрирует ее.
func (uc *ScanSourceUseCase) registerListing(ctx context.Context, listing *domain.RawListing) (bool, error) {
	entry := domain.ScannedListing{
		NativeID:    listing.NativeID,
		Source:      listing.Source,
		ContentHash: domain.Fingerprint(listing),
		FirstSeen:   time.Now().UTC(),
		URL:         listing.URL,
	}

	if uc.imageHasher != nil && listing.ImageURL != "" {
		if hash, err := uc.imageHasher.HashImage(ctx, listing.ImageURL); err == nil {
			entry.ImageHash = hash
		}
	}

	return uc.dedup.CheckAndInsert(ctx, entry)
}

// publishMatchEvent отправляет событие в шину. Сбой публикации не
// останавливает доставку уведомлений.
func (uc *ScanSourceUseCase) publishMatchEvent(ctx context.Context, logger port.LoggerPort, profile *domain.SearchProfile, listing *domain.RawListing, match domain.MatchResult) {
	if uc.events == nil {
		return
	}
	event := domain.MatchEvent{
		EventID:    uuid.New(),
		ProfileID:  profile.ID,
		ListingID:  listing.ListingID(),
		Source:     listing.Source,
		Score:      match.Score,
		Confidence: match.Confidence,
		URL:        listing.URL,
		MatchedAt:  time.Now().UTC(),
	}
	if err := uc.events.PublishMatchEvent(ctx, event); err != nil {
		logger.Error("Failed to publish match event", err, port.Fields{"listing_id": listing.ListingID()})
	}
}
