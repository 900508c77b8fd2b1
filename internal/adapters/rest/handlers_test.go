package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/feldboy/aparmenttool/internal/core/domain"
	"github.com/feldboy/aparmenttool/internal/core/usecase"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type fakeStatsProvider struct {
	stats domain.CycleStats
}

func (f *fakeStatsProvider) LastStats() domain.CycleStats { return f.stats }

func newTestHandler(stats domain.CycleStats) (*OpsHandler, *usecase.SuspensionRegistry) {
	suspensions := usecase.NewSuspensionRegistry()
	return NewOpsHandler(&fakeStatsProvider{stats: stats}, suspensions), suspensions
}

// withURLParams подкладывает параметры маршрута chi в контекст запроса.
func withURLParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func TestHealthz(t *testing.T) {
	handler, _ := newTestHandler(domain.CycleStats{})

	rec := httptest.NewRecorder()
	handler.Healthz(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status field = %q, want %q", body["status"], "ok")
	}
}

func TestGetStats(t *testing.T) {
	handler, _ := newTestHandler(domain.CycleStats{
		ProfilesScanned: 3,
		ListingsFetched: 42,
		MatchesFound:    2,
	})

	rec := httptest.NewRecorder()
	handler.GetStats(rec, httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var got domain.CycleStats
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	if got.ProfilesScanned != 3 || got.ListingsFetched != 42 || got.MatchesFound != 2 {
		t.Errorf("stats = %+v", got)
	}
}

func TestListSuspensions(t *testing.T) {
	handler, suspensions := newTestHandler(domain.CycleStats{})
	profileID := uuid.New()
	suspensions.Suspend(profileID, domain.SourceFacebook, "session expired")

	rec := httptest.NewRecorder()
	handler.ListSuspensions(rec, httptest.NewRequest(http.MethodGet, "/api/v1/suspensions", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var got []usecase.Suspension
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	if len(got) != 1 || got[0].ProfileID != profileID || got[0].Source != domain.SourceFacebook {
		t.Errorf("suspensions = %+v", got)
	}
}

func TestClearSuspension(t *testing.T) {
	handler, suspensions := newTestHandler(domain.CycleStats{})
	profileID := uuid.New()
	suspensions.Suspend(profileID, domain.SourceFacebook, "session expired")

	tests := []struct {
		name       string
		profileID  string
		source     string
		wantStatus int
	}{
		{"bad profile id", "not-a-uuid", "facebook", http.StatusBadRequest},
		{"unknown source", profileID.String(), "craigslist", http.StatusBadRequest},
		{"not suspended", uuid.NewString(), "facebook", http.StatusNotFound},
		{"cleared", profileID.String(), "facebook", http.StatusNoContent},
		{"already cleared", profileID.String(), "facebook", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodDelete, "/api/v1/suspensions/"+tt.profileID+"/"+tt.source, nil)
			req = withURLParams(req, map[string]string{"profileID": tt.profileID, "source": tt.source})

			rec := httptest.NewRecorder()
			handler.ClearSuspension(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}

	if suspensions.IsSuspended(profileID, domain.SourceFacebook) {
		t.Error("suspension should be gone after DELETE")
	}
}
