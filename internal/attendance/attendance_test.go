package attendance

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ministeriokids/api/internal/audit"
	httpmiddleware "github.com/ministeriokids/api/internal/http/middleware"
	"github.com/ministeriokids/api/internal/repo"
)

type classKey struct {
	meeting uuid.UUID
	child   uuid.UUID
}

type stubAttendanceRepo struct {
	meetings []ClassMeeting
	services []WorshipService
	class    map[classKey]ClassRecord
	recent   []Status
	seq      int64

	lastStreakLimit int
}

func newStubAttendanceRepo() *stubAttendanceRepo {
	return &stubAttendanceRepo{class: make(map[classKey]ClassRecord)}
}

func (s *stubAttendanceRepo) ListClassMeetings(ctx context.Context, classID *uuid.UUID) ([]ClassMeeting, error) {
	return s.meetings, nil
}

func (s *stubAttendanceRepo) CreateClassMeeting(ctx context.Context, classID *uuid.UUID, date time.Time, observations *string) (ClassMeeting, error) {
	m := ClassMeeting{ID: uuid.New(), ClassID: classID, Date: date}
	s.meetings = append(s.meetings, m)
	return m, nil
}

func (s *stubAttendanceRepo) ListWorshipServices(ctx context.Context) ([]WorshipService, error) {
	return s.services, nil
}

func (s *stubAttendanceRepo) CreateWorshipService(ctx context.Context, date time.Time, description, observations *string) (WorshipService, error) {
	svc := WorshipService{ID: uuid.New(), Date: date, Description: description}
	s.services = append(s.services, svc)
	return svc, nil
}

func (s *stubAttendanceRepo) MarkClass(ctx context.Context, meetingID, childID uuid.UUID, status Status, observation *string) (ClassRecord, error) {
	key := classKey{meeting: meetingID, child: childID}
	rec, ok := s.class[key]
	if !ok {
		rec = ClassRecord{ID: uuid.New(), ClassMeetingID: meetingID, ChildID: childID}
	}
	rec.Status = status
	rec.Observation = observation
	s.seq++
	rec.CreatedAt = time.Unix(s.seq, 0)
	s.class[key] = rec
	return rec, nil
}

func (s *stubAttendanceRepo) MarkWorship(ctx context.Context, serviceID, childID uuid.UUID, status Status, observation *string) (WorshipRecord, error) {
	return WorshipRecord{ID: uuid.New(), WorshipServiceID: serviceID, ChildID: childID, Status: status}, nil
}

func (s *stubAttendanceRepo) ListClassByDate(ctx context.Context, date time.Time) ([]ClassRecord, error) {
	var out []ClassRecord
	for _, rec := range s.class {
		out = append(out, rec)
	}
	return out, nil
}

func (s *stubAttendanceRepo) ListWorshipByDate(ctx context.Context, date time.Time) ([]WorshipRecord, error) {
	return nil, nil
}

func (s *stubAttendanceRepo) RecentClassStatuses(ctx context.Context, childID uuid.UUID, limit int) ([]Status, error) {
	s.lastStreakLimit = limit
	statuses := s.recent
	if statuses == nil {
		var recs []ClassRecord
		for _, rec := range s.class {
			if rec.ChildID == childID {
				recs = append(recs, rec)
			}
		}
		sort.Slice(recs, func(i, j int) bool { return recs[i].CreatedAt.After(recs[j].CreatedAt) })
		for _, rec := range recs {
			statuses = append(statuses, rec.Status)
		}
	}
	if len(statuses) > limit {
		return statuses[:limit], nil
	}
	return statuses, nil
}

func newTestRouter(t *testing.T, stub *stubAttendanceRepo) chi.Router {
	t.Helper()
	h := NewHandler(NewService(stub, audit.NopRecorder{}))
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			user := repo.User{ID: uuid.New(), Username: "lider", Role: repo.RoleLeader, IsActive: true}
			next.ServeHTTP(w, req.WithContext(context.WithValue(req.Context(), httpmiddleware.ContextKeyUser, user)))
		})
	})
	Mount(r, h)
	return r
}

func TestMarkClassUpsertKeepsSingleRecord(t *testing.T) {
	stub := newStubAttendanceRepo()
	router := newTestRouter(t, stub)

	meetingID := uuid.New()
	childID := uuid.New()

	mark := func(status Status) *httptest.ResponseRecorder {
		payload, _ := json.Marshal(markClassRequest{ClassMeetingID: meetingID, ChildID: childID, Status: status})
		req := httptest.NewRequest(http.MethodPost, "/attendance/class", bytes.NewReader(payload))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	if rec := mark(StatusAusente); rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if rec := mark(StatusPresente); rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	if len(stub.class) != 1 {
		t.Fatalf("registros = %d, esperado 1", len(stub.class))
	}
	got := stub.class[classKey{meeting: meetingID, child: childID}]
	if got.Status != StatusPresente {
		t.Fatalf("status final = %q, esperado presente", got.Status)
	}
}

func TestMarkClassRejectsUnknownStatus(t *testing.T) {
	router := newTestRouter(t, newStubAttendanceRepo())

	payload, _ := json.Marshal(markClassRequest{ClassMeetingID: uuid.New(), ChildID: uuid.New(), Status: "talvez"})
	req := httptest.NewRequest(http.MethodPost, "/attendance/class", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, esperado %d", rec.Code, http.StatusBadRequest)
	}
}

func TestConsecutiveAbsences(t *testing.T) {
	cases := []struct {
		name   string
		recent []Status
		want   int
	}{
		{"para na primeira presença", []Status{StatusAusente, StatusAusente, StatusPresente, StatusAusente}, 2},
		{"presença recente zera", []Status{StatusPresente, StatusAusente, StatusAusente}, 0},
		{"tudo ausente limita em cinco", []Status{StatusAusente, StatusAusente, StatusAusente, StatusAusente, StatusAusente, StatusAusente, StatusAusente}, 5},
		{"sem histórico", nil, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			stub := newStubAttendanceRepo()
			stub.recent = tc.recent
			router := newTestRouter(t, stub)

			req := httptest.NewRequest(http.MethodGet, "/attendance/consecutive-absences/"+uuid.NewString(), nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
			}
			var resp map[string]int
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("resposta inválida: %v", err)
			}
			if resp["consecutiveAbsences"] != tc.want {
				t.Fatalf("faltas seguidas = %d, esperado %d", resp["consecutiveAbsences"], tc.want)
			}
		})
	}
}

func TestRemarkBecomesMostRecentRecord(t *testing.T) {
	stub := newStubAttendanceRepo()
	router := newTestRouter(t, stub)

	meetingA := uuid.New()
	meetingB := uuid.New()
	childID := uuid.New()

	mark := func(meetingID uuid.UUID, status Status) {
		t.Helper()
		payload, _ := json.Marshal(markClassRequest{ClassMeetingID: meetingID, ChildID: childID, Status: status})
		req := httptest.NewRequest(http.MethodPost, "/attendance/class", bytes.NewReader(payload))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
		}
	}

	// Ausente em dois encontros e depois corrigido no primeiro: a correção
	// renova o carimbo, então a sequência de faltas volta a zero.
	mark(meetingA, StatusAusente)
	mark(meetingB, StatusAusente)
	mark(meetingA, StatusPresente)

	req := httptest.NewRequest(http.MethodGet, "/attendance/consecutive-absences/"+childID.String(), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var resp map[string]int
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("resposta inválida: %v", err)
	}
	if resp["consecutiveAbsences"] != 0 {
		t.Fatalf("faltas seguidas = %d, esperado 0", resp["consecutiveAbsences"])
	}
}

func TestCreateClassMeetingRejectsBadDate(t *testing.T) {
	router := newTestRouter(t, newStubAttendanceRepo())

	req := httptest.NewRequest(http.MethodPost, "/attendance/class-meetings",
		bytes.NewBufferString(`{"date":"31/12/2024"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestCreateWorshipService(t *testing.T) {
	stub := newStubAttendanceRepo()
	router := newTestRouter(t, stub)

	req := httptest.NewRequest(http.MethodPost, "/attendance/worship-services",
		bytes.NewBufferString(`{"date":"2024-06-02","description":"Culto infantil"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if len(stub.services) != 1 {
		t.Fatalf("cultos = %d", len(stub.services))
	}
}
