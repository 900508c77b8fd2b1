package metrics

import (
	"time"

	"github.com/feldboy/aparmenttool/internal/core/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Метрики процесса сканирования. Регистрируются в глобальном реестре,
// наружу отдаются через /metrics служебного REST-сервера.
var (
	CyclesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scanner_cycles_total",
		Help: "Total number of completed scan cycles.",
	})

	CycleDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "scanner_cycle_duration_seconds",
		Help:    "Duration of a full scan cycle.",
		Buckets: prometheus.ExponentialBuckets(1, 2, 10),
	})

	ListingsFetched = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scanner_listings_fetched_total",
		Help: "Listings returned by source adapters.",
	}, []string{"source"})

	ListingsNew = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scanner_listings_new_total",
		Help: "Listings that passed deduplication.",
	})

	MatchesFound = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scanner_matches_found_total",
		Help: "Listings that matched a search profile.",
	})

	NotificationsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scanner_notifications_total",
		Help: "Notification delivery attempts by channel and outcome.",
	}, []string{"channel", "outcome"})

	ScanFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scanner_scan_failures_total",
		Help: "Source scans that failed, by source.",
	}, []string{"source"})

	ParseErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scanner_parse_errors_total",
		Help: "Listings dropped because a field could not be parsed.",
	}, []string{"source"})

	SuspendedPairs = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "scanner_suspended_pairs",
		Help: "Currently suspended (profile, source) pairs.",
	})
)

// RecordCycle фиксирует агрегаты завершенного цикла.
func RecordCycle(stats domain.CycleStats) {
	CyclesTotal.Inc()
	CycleDuration.Observe(stats.FinishedAt.Sub(stats.StartedAt).Seconds())
	ListingsNew.Add(float64(stats.ListingsNew))
	MatchesFound.Add(float64(stats.MatchesFound))
}

// RecordCycleDurationSince - хелпер для ручного замера.
func RecordCycleDurationSince(start time.Time) {
	CycleDuration.Observe(time.Since(start).Seconds())
}
