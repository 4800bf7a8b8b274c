package attendance

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

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

type meetingRequest struct {
	ClassID      *uuid.UUID `json:"classId"`
	Date         string     `json:"date"`
	Observations *string    `json:"observations"`
}

type serviceRequest struct {
	Date         string  `json:"date"`
	Description  *string `json:"description"`
	Observations *string `json:"observations"`
}

type markClassRequest struct {
	ClassMeetingID uuid.UUID `json:"classMeetingId"`
	ChildID        uuid.UUID `json:"childId"`
	Status         Status    `json:"status"`
	Observation    *string   `json:"observation"`
}

type markWorshipRequest struct {
	WorshipServiceID uuid.UUID `json:"worshipServiceId"`
	ChildID          uuid.UUID `json:"childId"`
	Status           Status    `json:"status"`
	Observation      *string   `json:"observation"`
}

func (h *Handler) listClassMeetings(w http.ResponseWriter, r *http.Request) {
	var classID *uuid.UUID
	if raw := r.URL.Query().Get("classId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "classId inválido")
			return
		}
		classID = &id
	}

	meetings, err := h.svc.ListClassMeetings(r.Context(), classID)
	if err != nil {
		writeInternalError(w, err)
		return
	}
	if meetings == nil {
		meetings = []ClassMeeting{}
	}
	writeJSON(w, http.StatusOK, meetings)
}

func (h *Handler) createClassMeeting(w http.ResponseWriter, r *http.Request) {
	user, ok := httpmiddleware.GetUser(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "não autorizado")
		return
	}

	var req meetingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "payload inválido")
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "data inválida, use AAAA-MM-DD")
		return
	}

	meeting, err := h.svc.CreateClassMeeting(r.Context(), user.ID, req.ClassID, date, req.Observations)
	if err != nil {
		if errors.Is(err, ErrDateRequired) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, meeting)
}

func (h *Handler) listWorshipServices(w http.ResponseWriter, r *http.Request) {
	services, err := h.svc.ListWorshipServices(r.Context())
	if err != nil {
		writeInternalError(w, err)
		return
	}
	if services == nil {
		services = []WorshipService{}
	}
	writeJSON(w, http.StatusOK, services)
}

func (h *Handler) createWorshipService(w http.ResponseWriter, r *http.Request) {
	user, ok := httpmiddleware.GetUser(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "não autorizado")
		return
	}

	var req serviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "payload inválido")
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "data inválida, use AAAA-MM-DD")
		return
	}

	service, err := h.svc.CreateWorshipService(r.Context(), user.ID, date, req.Description, req.Observations)
	if err != nil {
		if errors.Is(err, ErrDateRequired) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, service)
}

func (h *Handler) markClass(w http.ResponseWriter, r *http.Request) {
	user, ok := httpmiddleware.GetUser(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "não autorizado")
		return
	}

	var req markClassRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "payload inválido")
		return
	}
	if req.ClassMeetingID == uuid.Nil || req.ChildID == uuid.Nil {
		writeError(w, http.StatusBadRequest, "classMeetingId e childId são obrigatórios")
		return
	}

	record, err := h.svc.MarkClass(r.Context(), user.ID, req.ClassMeetingID, req.ChildID, req.Status, req.Observation)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidStatus):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, repo.ErrNotFound):
			writeError(w, http.StatusNotFound, "encontro ou criança não encontrados")
		default:
			writeInternalError(w, err)
		}
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (h *Handler) markWorship(w http.ResponseWriter, r *http.Request) {
	user, ok := httpmiddleware.GetUser(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "não autorizado")
		return
	}

	var req markWorshipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "payload inválido")
		return
	}
	if req.WorshipServiceID == uuid.Nil || req.ChildID == uuid.Nil {
		writeError(w, http.StatusBadRequest, "worshipServiceId e childId são obrigatórios")
		return
	}

	record, err := h.svc.MarkWorship(r.Context(), user.ID, req.WorshipServiceID, req.ChildID, req.Status, req.Observation)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidStatus):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, repo.ErrNotFound):
			writeError(w, http.StatusNotFound, "culto ou criança não encontrados")
		default:
			writeInternalError(w, err)
		}
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (h *Handler) listClassByDate(w http.ResponseWriter, r *http.Request) {
	date, err := parseDate(r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "data inválida, use AAAA-MM-DD")
		return
	}

	records, err := h.svc.ListClassByDate(r.Context(), date)
	if err != nil {
		writeInternalError(w, err)
		return
	}
	if records == nil {
		records = []ClassRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (h *Handler) listWorshipByDate(w http.ResponseWriter, r *http.Request) {
	date, err := parseDate(r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "data inválida, use AAAA-MM-DD")
		return
	}

	records, err := h.svc.ListWorshipByDate(r.Context(), date)
	if err != nil {
		writeInternalError(w, err)
		return
	}
	if records == nil {
		records = []WorshipRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (h *Handler) consecutiveAbsences(w http.ResponseWriter, r *http.Request) {
	childID, err := uuid.Parse(chi.URLParam(r, "childId"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "identificador inválido")
		return
	}

	count, err := h.svc.ConsecutiveAbsences(r.Context(), childID, DefaultStreakLimit)
	if err != nil {
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"consecutiveAbsences": count})
}

func parseDate(raw string) (time.Time, error) {
	return time.Parse("2006-01-02", raw)
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
	log.Error().Err(err).Msg("erro no registro de presença")
	writeError(w, http.StatusInternalServerError, "erro interno")
}
