package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/feldboy/aparmenttool/internal/core/domain"
	"github.com/google/uuid"
)

// Фейки портов для юнит-тестов use case-слоя.

type fakeChannel struct {
	channel domain.Channel
	// errs выдаются по одной на каждую попытку; после исчерпания
	// доставка считается успешной.
	errs  []error
	calls int
	sent  []domain.OutgoingMessage
}

func (f *fakeChannel) Channel() domain.Channel { return f.channel }

func (f *fakeChannel) Send(_ context.Context, _ string, msg domain.OutgoingMessage) (string, error) {
	f.calls++
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return "", err
		}
	}
	f.sent = append(f.sent, msg)
	return "msg-1", nil
}

type fakeNotificationLog struct {
	appended []domain.SentNotification
	sentKeys map[string]bool
}

func newFakeNotificationLog() *fakeNotificationLog {
	return &fakeNotificationLog{sentKeys: make(map[string]bool)}
}

func logKey(profileID uuid.UUID, listingID string, ch domain.Channel) string {
	return profileID.String() + "|" + listingID + "|" + string(ch)
}

func (f *fakeNotificationLog) Append(_ context.Context, n domain.SentNotification) error {
	f.appended = append(f.appended, n)
	if n.Success {
		f.sentKeys[logKey(n.ProfileID, n.ListingID, n.Channel)] = true
	}
	return nil
}

func (f *fakeNotificationLog) WasSent(_ context.Context, profileID uuid.UUID, listingID string, ch domain.Channel) (bool, error) {
	return f.sentKeys[logKey(profileID, listingID, ch)], nil
}

type fakeFetcher struct {
	source   domain.Source
	listings []domain.RawListing
	err      error
	gotSince time.Time
}

func (f *fakeFetcher) Source() domain.Source { return f.source }

func (f *fakeFetcher) FetchListings(_ context.Context, _ *domain.SearchProfile, since time.Time) ([]domain.RawListing, error) {
	f.gotSince = since
	if f.err != nil {
		return nil, f.err
	}
	return f.listings, nil
}

type fakeScanState struct {
	cursors  map[string]time.Time
	advanced []time.Time
}

func newFakeScanState() *fakeScanState {
	return &fakeScanState{cursors: make(map[string]time.Time)}
}

func cursorKey(profileID uuid.UUID, source domain.Source) string {
	return profileID.String() + "|" + string(source)
}

func (f *fakeScanState) GetCursor(_ context.Context, profileID uuid.UUID, source domain.Source) (time.Time, error) {
	return f.cursors[cursorKey(profileID, source)], nil
}

func (f *fakeScanState) AdvanceCursor(_ context.Context, profileID uuid.UUID, source domain.Source, to time.Time) error {
	key := cursorKey(profileID, source)
	if to.After(f.cursors[key]) {
		f.cursors[key] = to
	}
	f.advanced = append(f.advanced, to)
	return nil
}

type fakeDedupIndex struct {
	mu        sync.Mutex
	byID      map[string]bool
	byHash    map[string]bool
	insertErr error
	purged    int64
	purgeErr  error
}

func newFakeDedupIndex() *fakeDedupIndex {
	return &fakeDedupIndex{byID: make(map[string]bool), byHash: make(map[string]bool)}
}

func (f *fakeDedupIndex) CheckAndInsert(_ context.Context, listing domain.ScannedListing) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return false, f.insertErr
	}
	idKey := string(listing.Source) + "|" + listing.NativeID
	if f.byID[idKey] || f.byHash[listing.ContentHash] {
		return false, nil
	}
	f.byID[idKey] = true
	f.byHash[listing.ContentHash] = true
	return true, nil
}

func (f *fakeDedupIndex) PurgeOlderThan(_ context.Context, _ time.Time) (int64, error) {
	return f.purged, f.purgeErr
}

type fakeMatchEvents struct {
	events []domain.MatchEvent
	err    error
}

func (f *fakeMatchEvents) PublishMatchEvent(_ context.Context, event domain.MatchEvent) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, event)
	return nil
}

type fakeDispatch struct {
	mu      sync.Mutex
	calls   int
	alerts  []string
	reports []domain.DeliveryReport
}

func (f *fakeDispatch) Execute(_ context.Context, _ *domain.SearchProfile, _ *domain.RawListing, _ domain.MatchResult) ([]domain.DeliveryReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.reports, nil
}

func (f *fakeDispatch) ExecuteAlert(_ context.Context, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alerts = append(f.alerts, text)
	return nil
}

type fakeProfileRepo struct {
	profiles []domain.SearchProfile
	err      error
}

func (f *fakeProfileRepo) ListActiveProfiles(_ context.Context) ([]domain.SearchProfile, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.profiles, nil
}

// fakeScanSource подменяет весь конвейер пары (профиль, источник)
// в тестах оркестратора.
type fakeScanSource struct {
	mu      sync.Mutex
	stats   map[domain.Source]domain.CycleStats
	errs    map[string]error
	scanned []string
}

func newFakeScanSource() *fakeScanSource {
	return &fakeScanSource{
		stats: make(map[domain.Source]domain.CycleStats),
		errs:  make(map[string]error),
	}
}

func (f *fakeScanSource) Execute(_ context.Context, profile *domain.SearchProfile, source domain.Source) (domain.CycleStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := cursorKey(profile.ID, source)
	f.scanned = append(f.scanned, key)
	return f.stats[source], f.errs[key]
}
