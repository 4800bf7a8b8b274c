package roster

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

func (h *Handler) listChildren(w http.ResponseWriter, r *http.Request) {
	var classID *uuid.UUID
	if raw := r.URL.Query().Get("classId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "classId inválido")
			return
		}
		classID = &id
	}

	children, err := h.svc.ListChildren(r.Context(), classID)
	if err != nil {
		writeInternalError(w, err)
		return
	}
	if children == nil {
		children = []Child{}
	}
	writeJSON(w, http.StatusOK, children)
}

func (h *Handler) getChild(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	child, err := h.svc.GetChild(r.Context(), id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			writeError(w, http.StatusNotFound, "criança não encontrada")
			return
		}
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, child)
}

func (h *Handler) createChild(w http.ResponseWriter, r *http.Request) {
	user, ok := httpmiddleware.GetUser(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "não autorizado")
		return
	}

	var req ChildParams
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "payload inválido")
		return
	}

	child, err := h.svc.CreateChild(r.Context(), user.ID, req)
	if err != nil {
		if errors.Is(err, ErrFullNameRequired) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, child)
}

func (h *Handler) updateChild(w http.ResponseWriter, r *http.Request) {
	user, ok := httpmiddleware.GetUser(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "não autorizado")
		return
	}
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var req ChildParams
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "payload inválido")
		return
	}

	child, err := h.svc.UpdateChild(r.Context(), user.ID, id, req)
	if err != nil {
		switch {
		case errors.Is(err, repo.ErrNotFound):
			writeError(w, http.StatusNotFound, "criança não encontrada")
		case errors.Is(err, ErrFullNameRequired):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeInternalError(w, err)
		}
		return
	}
	writeJSON(w, http.StatusOK, child)
}

func (h *Handler) deleteChild(w http.ResponseWriter, r *http.Request) {
	user, ok := httpmiddleware.GetUser(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "não autorizado")
		return
	}
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	if err := h.svc.DeleteChild(r.Context(), user.ID, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			writeError(w, http.StatusNotFound, "criança não encontrada")
			return
		}
		writeInternalError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listGuardians(w http.ResponseWriter, r *http.Request) {
	guardians, err := h.svc.ListGuardians(r.Context())
	if err != nil {
		writeInternalError(w, err)
		return
	}
	if guardians == nil {
		guardians = []Guardian{}
	}
	writeJSON(w, http.StatusOK, guardians)
}

func (h *Handler) listGuardiansByChild(w http.ResponseWriter, r *http.Request) {
	childID, err := uuid.Parse(chi.URLParam(r, "childId"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "identificador inválido")
		return
	}

	guardians, err := h.svc.ListGuardiansByChild(r.Context(), childID)
	if err != nil {
		writeInternalError(w, err)
		return
	}
	if guardians == nil {
		guardians = []Guardian{}
	}
	writeJSON(w, http.StatusOK, guardians)
}

func (h *Handler) createGuardian(w http.ResponseWriter, r *http.Request) {
	user, ok := httpmiddleware.GetUser(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "não autorizado")
		return
	}

	var req GuardianParams
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "payload inválido")
		return
	}

	guardian, err := h.svc.CreateGuardian(r.Context(), user.ID, req)
	if err != nil {
		if errors.Is(err, ErrGuardianDataRequired) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, guardian)
}

func (h *Handler) updateGuardian(w http.ResponseWriter, r *http.Request) {
	user, ok := httpmiddleware.GetUser(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "não autorizado")
		return
	}
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var req GuardianParams
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "payload inválido")
		return
	}

	guardian, err := h.svc.UpdateGuardian(r.Context(), user.ID, id, req)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			writeError(w, http.StatusNotFound, "responsável não encontrado")
			return
		}
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, guardian)
}

func (h *Handler) deleteGuardian(w http.ResponseWriter, r *http.Request) {
	user, ok := httpmiddleware.GetUser(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "não autorizado")
		return
	}
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	if err := h.svc.DeleteGuardian(r.Context(), user.ID, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			writeError(w, http.StatusNotFound, "responsável não encontrado")
			return
		}
		writeInternalError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type linkGuardianRequest struct {
	ChildID    uuid.UUID `json:"childId"`
	GuardianID uuid.UUID `json:"guardianId"`
	IsPrimary  bool      `json:"isPrimary"`
}

func (h *Handler) linkGuardian(w http.ResponseWriter, r *http.Request) {
	user, ok := httpmiddleware.GetUser(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "não autorizado")
		return
	}

	var req linkGuardianRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "payload inválido")
		return
	}
	if req.ChildID == uuid.Nil || req.GuardianID == uuid.Nil {
		writeError(w, http.StatusBadRequest, "childId e guardianId são obrigatórios")
		return
	}

	if err := h.svc.LinkGuardian(r.Context(), user.ID, req.ChildID, req.GuardianID, req.IsPrimary); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			writeError(w, http.StatusNotFound, "criança ou responsável não encontrado")
			return
		}
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"linked": true})
}

func (h *Handler) listClasses(w http.ResponseWriter, r *http.Request) {
	classes, err := h.svc.ListClasses(r.Context())
	if err != nil {
		writeInternalError(w, err)
		return
	}
	if classes == nil {
		classes = []Class{}
	}
	writeJSON(w, http.StatusOK, classes)
}

func (h *Handler) getClass(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	class, err := h.svc.GetClass(r.Context(), id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			writeError(w, http.StatusNotFound, "turma não encontrada")
			return
		}
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, class)
}

func (h *Handler) createClass(w http.ResponseWriter, r *http.Request) {
	user, ok := httpmiddleware.GetUser(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "não autorizado")
		return
	}

	var req ClassParams
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "payload inválido")
		return
	}

	class, err := h.svc.CreateClass(r.Context(), user.ID, req)
	if err != nil {
		if errors.Is(err, ErrClassNameRequired) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, class)
}

func (h *Handler) updateClass(w http.ResponseWriter, r *http.Request) {
	user, ok := httpmiddleware.GetUser(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "não autorizado")
		return
	}
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var req ClassParams
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "payload inválido")
		return
	}

	class, err := h.svc.UpdateClass(r.Context(), user.ID, id, req)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			writeError(w, http.StatusNotFound, "turma não encontrada")
			return
		}
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, class)
}

func (h *Handler) deleteClass(w http.ResponseWriter, r *http.Request) {
	user, ok := httpmiddleware.GetUser(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "não autorizado")
		return
	}
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	if err := h.svc.DeleteClass(r.Context(), user.ID, id); err != nil {
		switch {
		case errors.Is(err, ErrClassHasChildren):
			writeError(w, http.StatusConflict, err.Error())
		case errors.Is(err, repo.ErrNotFound):
			writeError(w, http.StatusNotFound, "turma não encontrada")
		default:
			writeInternalError(w, err)
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "identificador inválido")
		return uuid.Nil, false
	}
	return id, true
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
	log.Error().Err(err).Msg("erro no cadastro")
	writeError(w, http.StatusInternalServerError, "erro interno")
}
