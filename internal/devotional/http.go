package devotional

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	httpmiddleware "github.com/ministeriokids/api/internal/http/middleware"
	"github.com/ministeriokids/api/internal/repo"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type weekRequest struct {
	WeekReference     string  `json:"weekReference"`
	Theme             string  `json:"theme"`
	MaterialLink      *string `json:"materialLink"`
	AllowsAttachments *bool   `json:"allowsAttachments"`
}

type deliveryStatusRequest struct {
	ChildID          uuid.UUID      `json:"childId"`
	MeditationWeekID uuid.UUID      `json:"meditationWeekId"`
	Status           DeliveryStatus `json:"status"`
	EvidenceURL      *string        `json:"evidenceUrl"`
	Observation      *string        `json:"observation"`
}

type verseRequest struct {
	Reference     string  `json:"reference"`
	Text          string  `json:"text"`
	WeekReference *string `json:"weekReference"`
}

type memorizationRequest struct {
	ChildID      uuid.UUID          `json:"childId"`
	BibleVerseID uuid.UUID          `json:"bibleVerseId"`
	Status       MemorizationStatus `json:"status"`
	Observation  *string            `json:"observation"`
}

func (h *Handler) listWeeks(w http.ResponseWriter, r *http.Request) {
	weeks, err := h.svc.ListWeeks(r.Context())
	if err != nil {
		writeInternalError(w, err)
		return
	}
	if weeks == nil {
		weeks = []MeditationWeek{}
	}
	writeJSON(w, http.StatusOK, weeks)
}

func (h *Handler) createWeek(w http.ResponseWriter, r *http.Request) {
	user, ok := httpmiddleware.GetUser(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "não autorizado")
		return
	}

	var req weekRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "payload inválido")
		return
	}
	allows := true
	if req.AllowsAttachments != nil {
		allows = *req.AllowsAttachments
	}

	week, err := h.svc.CreateWeek(r.Context(), user.ID, req.WeekReference, req.Theme, req.MaterialLink, allows)
	if err != nil {
		if errors.Is(err, ErrWeekRequired) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, week)
}

func (h *Handler) currentWeek(w http.ResponseWriter, r *http.Request) {
	week, err := h.svc.CurrentWeek(r.Context())
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			writeError(w, http.StatusNotFound, "nenhuma semana cadastrada")
			return
		}
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, week)
}

func (h *Handler) currentDeliveries(w http.ResponseWriter, r *http.Request) {
	deliveries, err := h.svc.CurrentDeliveries(r.Context())
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			writeError(w, http.StatusNotFound, "nenhuma semana cadastrada")
			return
		}
		writeInternalError(w, err)
		return
	}
	if deliveries == nil {
		deliveries = []Delivery{}
	}
	writeJSON(w, http.StatusOK, deliveries)
}

func (h *Handler) updateDeliveryStatus(w http.ResponseWriter, r *http.Request) {
	user, ok := httpmiddleware.GetUser(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "não autorizado")
		return
	}

	var req deliveryStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "payload inválido")
		return
	}
	if req.ChildID == uuid.Nil || req.MeditationWeekID == uuid.Nil {
		writeError(w, http.StatusBadRequest, "childId e meditationWeekId são obrigatórios")
		return
	}

	delivery, err := h.svc.UpdateDeliveryStatus(r.Context(), user.ID, req.ChildID, req.MeditationWeekID,
		req.Status, req.EvidenceURL, req.Observation)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidStatus):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, repo.ErrNotFound):
			writeError(w, http.StatusNotFound, "criança ou semana não encontrada")
		default:
			writeInternalError(w, err)
		}
		return
	}
	writeJSON(w, http.StatusOK, delivery)
}

func (h *Handler) listVerses(w http.ResponseWriter, r *http.Request) {
	verses, err := h.svc.ListVerses(r.Context())
	if err != nil {
		writeInternalError(w, err)
		return
	}
	if verses == nil {
		verses = []Verse{}
	}
	writeJSON(w, http.StatusOK, verses)
}

func (h *Handler) createVerse(w http.ResponseWriter, r *http.Request) {
	user, ok := httpmiddleware.GetUser(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "não autorizado")
		return
	}

	var req verseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "payload inválido")
		return
	}

	verse, err := h.svc.CreateVerse(r.Context(), user.ID, req.Reference, req.Text, req.WeekReference)
	if err != nil {
		if errors.Is(err, ErrVerseRequired) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, verse)
}

func (h *Handler) listMemorizations(w http.ResponseWriter, r *http.Request) {
	var childID *uuid.UUID
	if raw := r.URL.Query().Get("childId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "childId inválido")
			return
		}
		childID = &id
	}

	memorizations, err := h.svc.ListMemorizations(r.Context(), childID)
	if err != nil {
		writeInternalError(w, err)
		return
	}
	if memorizations == nil {
		memorizations = []Memorization{}
	}
	writeJSON(w, http.StatusOK, memorizations)
}

func (h *Handler) updateMemorization(w http.ResponseWriter, r *http.Request) {
	user, ok := httpmiddleware.GetUser(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "não autorizado")
		return
	}

	var req memorizationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "payload inválido")
		return
	}
	if req.ChildID == uuid.Nil || req.BibleVerseID == uuid.Nil {
		writeError(w, http.StatusBadRequest, "childId e bibleVerseId são obrigatórios")
		return
	}

	memorization, err := h.svc.UpdateMemorization(r.Context(), user.ID, req.ChildID, req.BibleVerseID,
		req.Status, req.Observation)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidStatus):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, repo.ErrNotFound):
			writeError(w, http.StatusNotFound, "criança ou versículo não encontrado")
		default:
			writeInternalError(w, err)
		}
		return
	}
	writeJSON(w, http.StatusOK, memorization)
}

func (h *Handler) listDeliveriesByWeek(w http.ResponseWriter, r *http.Request) {
	weekID, err := uuid.Parse(chi.URLParam(r, "weekId"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "identificador inválido")
		return
	}

	deliveries, err := h.svc.ListDeliveriesByWeek(r.Context(), weekID)
	if err != nil {
		writeInternalError(w, err)
		return
	}
	if deliveries == nil {
		deliveries = []Delivery{}
	}
	writeJSON(w, http.StatusOK, deliveries)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

func writeInternalError(w http.ResponseWriter, err error) {
	log.Error().Err(err).Msg("erro no acompanhamento devocional")
	writeError(w, http.StatusInternalServerError, "erro interno")
}
