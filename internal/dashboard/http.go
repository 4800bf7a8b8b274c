package dashboard

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

type statsProvider interface {
	Stats(ctx context.Context, from, to time.Time) (Stats, error)
}

type Handler struct {
	provider statsProvider
}

func NewHandler(provider statsProvider) *Handler {
	return &Handler{provider: provider}
}

// Mount registra a rota de indicadores sob o roteador autenticado.
func Mount(r chi.Router, h *Handler) {
	r.Get("/dashboard/stats", h.stats)
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	to := time.Now().Truncate(24 * time.Hour)
	from := to.AddDate(0, 0, -DefaultRangeDays)

	if raw := r.URL.Query().Get("from"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "from inválido, use AAAA-MM-DD")
			return
		}
		from = parsed
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "to inválido, use AAAA-MM-DD")
			return
		}
		to = parsed
	}
	if to.Before(from) {
		writeError(w, http.StatusBadRequest, "intervalo inválido: to anterior a from")
		return
	}

	stats, err := h.provider.Stats(r.Context(), from, to)
	if err != nil {
		log.Error().Err(err).Msg("erro ao calcular indicadores")
		writeError(w, http.StatusInternalServerError, "erro interno")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}
