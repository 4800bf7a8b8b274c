package http

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/ministeriokids/api/internal/metrics"
)

// WriteJSON serializa a resposta de sucesso.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteError escreve o corpo de erro padrão `{"message": ...}`.
func WriteError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": message})
}

// WriteInternalError loga a causa e devolve mensagem genérica.
func WriteInternalError(w http.ResponseWriter, err error) {
	log.Error().Err(err).Msg("erro interno em handler")
	metrics.HandlerErrors.Inc()
	WriteError(w, http.StatusInternalServerError, "erro interno")
}
