package usecase

import (
	"sync"
	"time"

	"github.com/feldboy/aparmenttool/internal/core/domain"
	"github.com/feldboy/aparmenttool/internal/metrics"
	"github.com/google/uuid"
)

// Suspension - приостановленная пара (профиль, источник) с причиной.
type Suspension struct {
	ProfileID uuid.UUID     `json:"profile_id"`
	Source    domain.Source `json:"source"`
	Reason    string        `json:"reason"`
	Since     time.Time     `json:"since"`
}

type suspensionKey struct {
	profileID uuid.UUID
	source    domain.Source
}

// SuspensionRegistry хранит приостановки в памяти процесса. Пара
// приостанавливается при протухшей аутентификации источника и снимается
// оператором через REST после обновления сессии.
type SuspensionRegistry struct {
	mu      sync.RWMutex
	entries map[suspensionKey]Suspension
}

func NewSuspensionRegistry() *SuspensionRegistry {
	return &SuspensionRegistry{
		entries: make(map[suspensionKey]Suspension),
	}
}

func (r *SuspensionRegistry) Suspend(profileID uuid.UUID, source domain.Source, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := suspensionKey{profileID: profileID, source: source}
	if _, exists := r.entries[key]; exists {
		return
	}
	r.entries[key] = Suspension{
		ProfileID: profileID,
		Source:    source,
		Reason:    reason,
		Since:     time.Now().UTC(),
	}
	metrics.SuspendedPairs.Set(float64(len(r.entries)))
}

func (r *SuspensionRegistry) IsSuspended(profileID uuid.UUID, source domain.Source) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[suspensionKey{profileID: profileID, source: source}]
	return ok
}

// Clear снимает приостановку. Возвращает false, если ее не было.
func (r *SuspensionRegistry) Clear(profileID uuid.UUID, source domain.Source) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := suspensionKey{profileID: profileID, source: source}
	if _, ok := r.entries[key]; !ok {
		return false
	}
	delete(r.entries, key)
	metrics.SuspendedPairs.Set(float64(len(r.entries)))
	return true
}

func (r *SuspensionRegistry) List() []Suspension {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Suspension, 0, len(r.entries))
	for _, s := range r.entries {
		out = append(out, s)
	}
	return out
}
