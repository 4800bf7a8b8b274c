// Package audit registra mutações relevantes em trilha imutável.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

const dbTimeout = 3 * time.Second

// Recorder é o contrato consumido pelos serviços de domínio.
type Recorder interface {
	Record(ctx context.Context, userID uuid.UUID, action, resource, resourceID string, summary map[string]any)
}

// Entry é uma linha da trilha de auditoria.
type Entry struct {
	ID             uuid.UUID      `json:"id"`
	UserID         *uuid.UUID     `json:"userId"`
	Action         string         `json:"action"`
	Resource       string         `json:"resource"`
	ResourceID     *string        `json:"resourceId"`
	PayloadSummary map[string]any `json:"payloadSummary"`
	CreatedAt      time.Time      `json:"createdAt"`
}

// Repository persiste e consulta a trilha.
type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Record grava a entrada em melhor esforço: falha de auditoria não pode
// derrubar a operação de negócio, então o erro é apenas logado.
func (r *Repository) Record(ctx context.Context, userID uuid.UUID, action, resource, resourceID string, summary map[string]any) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), dbTimeout)
	defer cancel()

	var resID *string
	if resourceID != "" {
		resID = &resourceID
	}

	_, err := r.db.Exec(ctx, `
		INSERT INTO audit_logs (user_id, action, resource, resource_id, payload_summary)
		VALUES ($1, $2, $3, $4, $5)
	`, userID, action, resource, resID, summary)
	if err != nil {
		log.Error().Err(err).Str("action", action).Str("resource", resource).Msg("falha ao gravar auditoria")
	}
}

// List devolve as entradas mais recentes.
func (r *Repository) List(ctx context.Context, limit int) ([]Entry, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	if limit <= 0 || limit > 500 {
		limit = 100
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, action, resource, resource_id, payload_summary, created_at
		FROM audit_logs
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Action, &e.Resource, &e.ResourceID, &e.PayloadSummary, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// NopRecorder descarta registros (testes).
type NopRecorder struct{}

func (NopRecorder) Record(ctx context.Context, userID uuid.UUID, action, resource, resourceID string, summary map[string]any) {
}
