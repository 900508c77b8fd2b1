package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/feldboy/aparmenttool/internal/contextkeys"
	"github.com/feldboy/aparmenttool/internal/core/domain"
	"github.com/feldboy/aparmenttool/internal/core/port"
	usecases_port "github.com/feldboy/aparmenttool/internal/core/port/usecases"
	"golang.org/x/sync/semaphore"
)

// RunCycleUseCase - оркестратор одного цикла сканирования: обходит все
// активные профили с ограниченным параллелизмом и агрегирует статистику.
// Сбой одной пары (профиль, источник) не прерывает остальные.
type RunCycleUseCase struct {
	profiles    port.ProfileRepositoryPort
	scanSource  usecases_port.ScanSourcePort
	dispatch    usecases_port.DispatchMatchPort
	dedup       port.DedupIndexPort
	suspensions *SuspensionRegistry

	cycleTimeout  time.Duration
	maxConcurrent int64
	dedupWindow   time.Duration
}

func NewRunCycleUseCase(
	profiles port.ProfileRepositoryPort,
	scanSource usecases_port.ScanSourcePort,
	dispatch usecases_port.DispatchMatchPort,
	dedup port.DedupIndexPort,
	suspensions *SuspensionRegistry,
	cycleTimeout time.Duration,
	maxConcurrent int64,
	dedupWindow time.Duration,
) *RunCycleUseCase {
	return &RunCycleUseCase{
		profiles:      profiles,
		scanSource:    scanSource,
		dispatch:      dispatch,
		dedup:         dedup,
		suspensions:   suspensions,
		cycleTimeout:  cycleTimeout,
		maxConcurrent: maxConcurrent,
		dedupWindow:   dedupWindow,
	}
}

func (uc *RunCycleUseCase) Execute(ctx context.Context) (domain.CycleStats, error) {
	baseLogger := contextkeys.LoggerFromContext(ctx)
	ucLogger := baseLogger.WithFields(port.Fields{
		"use_case": "RunCycle",
	})

	total := domain.CycleStats{StartedAt: time.Now().UTC()}

	cycleCtx, cancel := context.WithTimeout(ctx, uc.cycleTimeout)
	defer cancel()

	// Чистка индекса дедупликации выполняется раз в цикл, до сканирования.
	cutoff := time.Now().UTC().Add(-uc.dedupWindow)
	if purged, err := uc.dedup.PurgeOlderThan(cycleCtx, cutoff); err != nil {
		ucLogger.Warn("Failed to purge dedup index", port.Fields{"error": err.Error()})
	} else if purged > 0 {
		ucLogger.Info("Purged stale dedup entries", port.Fields{"count": purged})
	}

	profiles, err := uc.profiles.ListActiveProfiles(cycleCtx)
	if err != nil {
		ucLogger.Error("Failed to list active profiles", err, nil)
		return total, err
	}
	if len(profiles) == 0 {
		ucLogger.Info("No active profiles, nothing to scan", nil)
		total.FinishedAt = time.Now().UTC()
		return total, nil
	}

	ucLogger.Info("Starting scan cycle", port.Fields{"profiles": len(profiles)})

	sem := semaphore.NewWeighted(uc.maxConcurrent)
	var wg sync.WaitGroup
	statsChan := make(chan domain.CycleStats, len(profiles))

	for i := range profiles {
		profile := profiles[i]

		if err := sem.Acquire(cycleCtx, 1); err != nil {
			ucLogger.Warn("Cycle deadline reached before all profiles were scheduled", port.Fields{"profile_id": profile.ID.String()})
			break
		}

		wg.Add(1)
		go func(p domain.SearchProfile) {
			defer wg.Done()
			defer sem.Release(1)

			profileLogger := ucLogger.WithFields(port.Fields{"profile_id": p.ID.String(), "profile_name": p.Name})
			profileCtx := contextkeys.ContextWithLogger(cycleCtx, profileLogger)

			statsChan <- uc.scanProfile(profileCtx, profileLogger, &p)
		}(profile)
	}

	wg.Wait()
	close(statsChan)

	for stats := range statsChan {
		total.Merge(stats)
		total.ProfilesScanned++
	}
	total.FinishedAt = time.Now().UTC()

	ucLogger.Info("Scan cycle completed", port.Fields{
		"profiles_scanned":   total.ProfilesScanned,
		"listings_fetched":   total.ListingsFetched,
		"listings_new":       total.ListingsNew,
		"matches_found":      total.MatchesFound,
		"notifications_sent": total.NotificationsSent,
		"source_failures":    total.SourceFailures,
		"duration":           total.FinishedAt.Sub(total.StartedAt).String(),
	})

	if errors.Is(cycleCtx.Err(), context.DeadlineExceeded) {
		return total, domain.ErrCycleTimeout
	}
	return total, nil
}

// scanProfile последовательно обходит источники одного профиля.
// Источники внутри профиля не распараллеливаются, чтобы не удваивать
// нагрузку на площадки с одного профиля.
func (uc *RunCycleUseCase) scanProfile(ctx context.Context, logger port.LoggerPort, profile *domain.SearchProfile) domain.CycleStats {
	stats := domain.CycleStats{}

	for _, source := range profileSources(profile) {
		if uc.suspensions.IsSuspended(profile.ID, source) {
			logger.Debug("Source is suspended for profile, skipping", port.Fields{"source": string(source)})
			continue
		}

		sourceStats, err := uc.scanSource.Execute(ctx, profile, source)
		stats.Merge(sourceStats)
		if err == nil {
			continue
		}

		stats.SourceFailures++
		uc.classifyScanFailure(ctx, logger, profile, source, err)
	}

	return stats
}

// classifyScanFailure разбирает ошибку обхода источника. Протухшая
// аутентификация приостанавливает пару и будит оператора, остальные
// сбои считаются временными.
func (uc *RunCycleUseCase) classifyScanFailure(ctx context.Context, logger port.LoggerPort, profile *domain.SearchProfile, source domain.Source, err error) {
	fields := port.Fields{"source": string(source)}

	var challenge *domain.ProtectionChallengeError
	switch {
	case errors.Is(err, domain.ErrAuthenticationExpired):
		logger.Error("Source authentication expired, suspending profile for this source", err, fields)
		uc.suspensions.Suspend(profile.ID, source, err.Error())

		alert := fmt.Sprintf("Authentication expired for %s while scanning profile %q. Refresh the session and clear the suspension.", source, profile.Name)
		if alertErr := uc.dispatch.ExecuteAlert(ctx, alert); alertErr != nil {
			logger.Error("Failed to alert operator about expired authentication", alertErr, fields)
		}

	case errors.As(err, &challenge):
		fields["challenge_url"] = challenge.URL
		logger.Warn("Source served a protection challenge, will retry next cycle", fields)

	case errors.Is(err, context.DeadlineExceeded):
		logger.Warn("Source scan hit the cycle deadline", fields)

	default:
		logger.Error("Source scan failed", err, fields)
	}
}

// profileSources определяет, какие площадки сканировать для профиля.
func profileSources(profile *domain.SearchProfile) []domain.Source {
	sources := []domain.Source{domain.SourceYad2}
	if len(profile.Targets.FacebookGroupIDs) > 0 {
		sources = append(sources, domain.SourceFacebook)
	}
	return sources
}
