package rest

import (
	"encoding/json"
	"net/http"

	"github.com/feldboy/aparmenttool/internal/contextkeys"
	"github.com/feldboy/aparmenttool/internal/core/domain"
	core_port "github.com/feldboy/aparmenttool/internal/core/port"
	"github.com/feldboy/aparmenttool/internal/core/usecase"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// StatsProvider отдает статистику последнего завершенного цикла.
type StatsProvider interface {
	LastStats() domain.CycleStats
}

// OpsHandler - служебные ручки: здоровье, статистика, приостановки.
type OpsHandler struct {
	stats       StatsProvider
	suspensions *usecase.SuspensionRegistry
}

func NewOpsHandler(stats StatsProvider, suspensions *usecase.SuspensionRegistry) *OpsHandler {
	return &OpsHandler{stats: stats, suspensions: suspensions}
}

func (h *OpsHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetStats возвращает агрегаты последнего цикла сканирования.
func (h *OpsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.stats.LastStats())
}

// ListSuspensions возвращает приостановленные пары (профиль, источник).
func (h *OpsHandler) ListSuspensions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.suspensions.List())
}

// ClearSuspension снимает приостановку после того, как оператор обновил
// сессию источника.
func (h *OpsHandler) ClearSuspension(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context())

	profileID, err := uuid.Parse(chi.URLParam(r, "profileID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid profile id"})
		return
	}

	source := domain.Source(chi.URLParam(r, "source"))
	if source != domain.SourceYad2 && source != domain.SourceFacebook {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown source"})
		return
	}

	if !h.suspensions.Clear(profileID, source) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "suspension not found"})
		return
	}

	logger.Info("Suspension cleared by operator", core_port.Fields{
		"profile_id": profileID.String(),
		"source":     string(source),
	})
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
