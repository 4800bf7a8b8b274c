package messaging

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

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

type sendRequest struct {
	ChildID    uuid.UUID         `json:"childId"`
	GuardianID uuid.UUID         `json:"guardianId"`
	TemplateID *uuid.UUID        `json:"templateId"`
	Channel    string            `json:"channel"`
	Message    string            `json:"message"`
	Variables  map[string]string `json:"variables"`
}

func (h *Handler) listTemplates(w http.ResponseWriter, r *http.Request) {
	var category *Category
	if raw := r.URL.Query().Get("category"); raw != "" {
		c := Category(raw)
		category = &c
	}

	templates, err := h.svc.ListTemplates(r.Context(), category)
	if err != nil {
		if errors.Is(err, ErrInvalidCategory) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeInternalError(w, err)
		return
	}
	if templates == nil {
		templates = []Template{}
	}
	writeJSON(w, http.StatusOK, templates)
}

func (h *Handler) createTemplate(w http.ResponseWriter, r *http.Request) {
	user, ok := httpmiddleware.GetUser(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "não autorizado")
		return
	}

	var req TemplateParams
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "payload inválido")
		return
	}

	template, err := h.svc.CreateTemplate(r.Context(), user.ID, req)
	if err != nil {
		if errors.Is(err, ErrTemplateDataRequired) || errors.Is(err, ErrInvalidCategory) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, template)
}

func (h *Handler) updateTemplate(w http.ResponseWriter, r *http.Request) {
	user, ok := httpmiddleware.GetUser(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "não autorizado")
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "identificador inválido")
		return
	}

	var req TemplateParams
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "payload inválido")
		return
	}

	template, err := h.svc.UpdateTemplate(r.Context(), user.ID, id, req)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidCategory):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, repo.ErrNotFound):
			writeError(w, http.StatusNotFound, "modelo não encontrado")
		default:
			writeInternalError(w, err)
		}
		return
	}
	writeJSON(w, http.StatusOK, template)
}

func (h *Handler) send(w http.ResponseWriter, r *http.Request) {
	user, ok := httpmiddleware.GetUser(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "não autorizado")
		return
	}

	var req sendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "payload inválido")
		return
	}

	send, err := h.svc.Send(r.Context(), user.ID, SendParams{
		ChildID:    req.ChildID,
		GuardianID: req.GuardianID,
		TemplateID: req.TemplateID,
		Channel:    req.Channel,
		Message:    req.Message,
		Variables:  req.Variables,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrSendDataRequired):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, repo.ErrNotFound):
			writeError(w, http.StatusNotFound, "criança, responsável ou modelo não encontrado")
		default:
			writeInternalError(w, err)
		}
		return
	}
	writeJSON(w, http.StatusCreated, send)
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "limit inválido")
			return
		}
		limit = n
	}

	sends, err := h.svc.History(r.Context(), limit)
	if err != nil {
		writeInternalError(w, err)
		return
	}
	if sends == nil {
		sends = []Send{}
	}
	writeJSON(w, http.StatusOK, sends)
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
	log.Error().Err(err).Msg("erro no envio de mensagens")
	writeError(w, http.StatusInternalServerError, "erro interno")
}
