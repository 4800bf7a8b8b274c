package devotional

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ministeriokids/api/internal/audit"
	httpmiddleware "github.com/ministeriokids/api/internal/http/middleware"
	"github.com/ministeriokids/api/internal/repo"
)

type deliveryKey struct {
	child uuid.UUID
	week  uuid.UUID
}

type stubDevotionalRepo struct {
	weeks      []MeditationWeek
	deliveries map[deliveryKey]Delivery
	verses     []Verse
}

func newStubDevotionalRepo() *stubDevotionalRepo {
	return &stubDevotionalRepo{deliveries: make(map[deliveryKey]Delivery)}
}

func (s *stubDevotionalRepo) ListWeeks(ctx context.Context) ([]MeditationWeek, error) {
	return s.weeks, nil
}

func (s *stubDevotionalRepo) CreateWeek(ctx context.Context, weekReference, theme string, materialLink *string, allowsAttachments bool) (MeditationWeek, error) {
	w := MeditationWeek{ID: uuid.New(), WeekReference: weekReference, Theme: theme, AllowsAttachments: allowsAttachments}
	s.weeks = append(s.weeks, w)
	return w, nil
}

func (s *stubDevotionalRepo) CurrentWeek(ctx context.Context) (MeditationWeek, error) {
	if len(s.weeks) == 0 {
		return MeditationWeek{}, repo.ErrNotFound
	}
	return s.weeks[len(s.weeks)-1], nil
}

func (s *stubDevotionalRepo) ListDeliveriesByWeek(ctx context.Context, weekID uuid.UUID) ([]Delivery, error) {
	var out []Delivery
	for _, d := range s.deliveries {
		if d.MeditationWeekID == weekID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (s *stubDevotionalRepo) UpsertDelivery(ctx context.Context, childID, weekID uuid.UUID, status DeliveryStatus, evidenceURL, observation *string) (Delivery, error) {
	key := deliveryKey{child: childID, week: weekID}
	d, ok := s.deliveries[key]
	if !ok {
		d = Delivery{ID: uuid.New(), ChildID: childID, MeditationWeekID: weekID}
	}
	d.Status = status
	if status == DeliveryEntregou {
		now := time.Now()
		d.DeliveryDate = &now
	} else {
		d.DeliveryDate = nil
	}
	s.deliveries[key] = d
	return d, nil
}

func (s *stubDevotionalRepo) ListVerses(ctx context.Context) ([]Verse, error) {
	return s.verses, nil
}

func (s *stubDevotionalRepo) CreateVerse(ctx context.Context, reference, text string, weekReference *string) (Verse, error) {
	v := Verse{ID: uuid.New(), Reference: reference, Text: text, WeekReference: weekReference}
	s.verses = append(s.verses, v)
	return v, nil
}

func (s *stubDevotionalRepo) ListMemorizations(ctx context.Context, childID *uuid.UUID) ([]Memorization, error) {
	return nil, nil
}

func (s *stubDevotionalRepo) UpsertMemorization(ctx context.Context, childID, verseID uuid.UUID, status MemorizationStatus, observation *string) (Memorization, error) {
	return Memorization{ID: uuid.New(), ChildID: childID, BibleVerseID: verseID, Status: status}, nil
}

func newTestRouter(t *testing.T, stub *stubDevotionalRepo) chi.Router {
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

func TestUpdateDeliveryStampsDateOnlyWhenDelivered(t *testing.T) {
	stub := newStubDevotionalRepo()
	router := newTestRouter(t, stub)

	childID := uuid.New()
	weekID := uuid.New()

	update := func(status DeliveryStatus) Delivery {
		payload, _ := json.Marshal(deliveryStatusRequest{ChildID: childID, MeditationWeekID: weekID, Status: status})
		req := httptest.NewRequest(http.MethodPost, "/meditations/status", bytes.NewReader(payload))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
		}
		var d Delivery
		if err := json.Unmarshal(rec.Body.Bytes(), &d); err != nil {
			t.Fatalf("resposta inválida: %v", err)
		}
		return d
	}

	d := update(DeliveryEntregou)
	if d.DeliveryDate == nil {
		t.Fatal("entregou deveria carimbar a data de entrega")
	}

	d = update(DeliveryEmAndamento)
	if d.DeliveryDate != nil {
		t.Fatal("em_andamento deveria limpar a data de entrega")
	}

	if len(stub.deliveries) != 1 {
		t.Fatalf("entregas = %d, esperado 1", len(stub.deliveries))
	}
}

func TestUpdateDeliveryRejectsUnknownStatus(t *testing.T) {
	router := newTestRouter(t, newStubDevotionalRepo())

	payload, _ := json.Marshal(deliveryStatusRequest{ChildID: uuid.New(), MeditationWeekID: uuid.New(), Status: "quase"})
	req := httptest.NewRequest(http.MethodPost, "/meditations/status", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestCurrentWeekEmpty(t *testing.T) {
	router := newTestRouter(t, newStubDevotionalRepo())

	req := httptest.NewRequest(http.MethodGet, "/meditations/current", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestCreateWeekAndVerse(t *testing.T) {
	stub := newStubDevotionalRepo()
	router := newTestRouter(t, stub)

	req := httptest.NewRequest(http.MethodPost, "/meditations/weeks",
		bytes.NewBufferString(`{"weekReference":"2024-W23","theme":"Davi e Golias"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodPost, "/verses",
		bytes.NewBufferString(`{"reference":"Sl 119:11","text":"Guardei no coração as tuas palavras"}`))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodPost, "/verses", bytes.NewBufferString(`{"reference":""}`))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestMemorizationUpsert(t *testing.T) {
	router := newTestRouter(t, newStubDevotionalRepo())

	payload, _ := json.Marshal(memorizationRequest{ChildID: uuid.New(), BibleVerseID: uuid.New(), Status: MemorizationMemorizou})
	req := httptest.NewRequest(http.MethodPost, "/verses/memorizations", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var m Memorization
	if err := json.Unmarshal(rec.Body.Bytes(), &m); err != nil {
		t.Fatalf("resposta inválida: %v", err)
	}
	if m.Status != MemorizationMemorizou {
		t.Fatalf("status = %q", m.Status)
	}
}
