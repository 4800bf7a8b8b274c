package notes

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

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	user, ok := httpmiddleware.GetUser(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "não autorizado")
		return
	}

	notes, err := h.svc.List(r.Context(), user)
	if err != nil {
		writeInternalError(w, err)
		return
	}
	if notes == nil {
		notes = []Note{}
	}
	writeJSON(w, http.StatusOK, notes)
}

func (h *Handler) listByChild(w http.ResponseWriter, r *http.Request) {
	user, ok := httpmiddleware.GetUser(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "não autorizado")
		return
	}
	childID, err := uuid.Parse(chi.URLParam(r, "childId"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "identificador inválido")
		return
	}

	notes, err := h.svc.ListByChild(r.Context(), user, childID)
	if err != nil {
		writeInternalError(w, err)
		return
	}
	if notes == nil {
		notes = []Note{}
	}
	writeJSON(w, http.StatusOK, notes)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	user, ok := httpmiddleware.GetUser(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "não autorizado")
		return
	}

	var req NoteParams
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "payload inválido")
		return
	}

	note, err := h.svc.Create(r.Context(), user, req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, note)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
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

	var req UpdateParams
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "payload inválido")
		return
	}

	note, err := h.svc.Update(r.Context(), user, id, req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
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

	if err := h.svc.Delete(r.Context(), user, id); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNoteDataRequired), errors.Is(err, ErrInvalidAttention), errors.Is(err, ErrInvalidTag):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, repo.ErrNotFound):
		writeError(w, http.StatusNotFound, "anotação não encontrada")
	default:
		writeInternalError(w, err)
	}
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
	log.Error().Err(err).Msg("erro nas anotações")
	writeError(w, http.StatusInternalServerError, "erro interno")
}
