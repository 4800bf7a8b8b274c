package dashboard

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
)

type stubStats struct {
	from, to time.Time
	stats    Stats
	err      error
}

func (s *stubStats) Stats(ctx context.Context, from, to time.Time) (Stats, error) {
	s.from, s.to = from, to
	return s.stats, s.err
}

func newTestRouter(stub *stubStats) chi.Router {
	r := chi.NewRouter()
	Mount(r, NewHandler(stub))
	return r
}

func TestStatsUsesRequestedRange(t *testing.T) {
	stub := &stubStats{stats: Stats{TotalChildren: 12, ClassAttendanceRate: 75}}
	router := newTestRouter(stub)

	req := httptest.NewRequest(http.MethodGet, "/dashboard/stats?from=2024-06-01&to=2024-06-30", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if got := stub.from.Format("2006-01-02"); got != "2024-06-01" {
		t.Fatalf("from = %s", got)
	}
	if got := stub.to.Format("2006-01-02"); got != "2024-06-30" {
		t.Fatalf("to = %s", got)
	}

	var stats Stats
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatalf("resposta inválida: %v", err)
	}
	if stats.TotalChildren != 12 || stats.ClassAttendanceRate != 75 {
		t.Fatalf("stats = %+v", stats)
	}
}

func TestStatsDefaultsToLastThirtyDays(t *testing.T) {
	stub := &stubStats{}
	router := newTestRouter(stub)

	req := httptest.NewRequest(http.MethodGet, "/dashboard/stats", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if days := stub.to.Sub(stub.from).Hours() / 24; days != DefaultRangeDays {
		t.Fatalf("janela = %v dias, esperado %d", days, DefaultRangeDays)
	}
}

func TestStatsRejectsInvertedRange(t *testing.T) {
	router := newTestRouter(&stubStats{})

	req := httptest.NewRequest(http.MethodGet, "/dashboard/stats?from=2024-06-30&to=2024-06-01", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestStatsRejectsBadDate(t *testing.T) {
	router := newTestRouter(&stubStats{})

	req := httptest.NewRequest(http.MethodGet, "/dashboard/stats?from=ontem", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}
