// Package messaging cuida de modelos de mensagem e do histórico de envios
// por WhatsApp.
package messaging

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ministeriokids/api/internal/repo"
)

const dbTimeout = 3 * time.Second

// Category do modelo de mensagem.
type Category string

const (
	CategoryFalta      Category = "falta"
	CategoryMeditacao  Category = "meditacao"
	CategoryCulto      Category = "culto"
	CategoryIncentivo  Category = "incentivo"
	CategoryBoasVindas Category = "boas_vindas"
	CategoryPastoral   Category = "pastoral"
	CategoryAviso      Category = "aviso"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryFalta, CategoryMeditacao, CategoryCulto, CategoryIncentivo,
		CategoryBoasVindas, CategoryPastoral, CategoryAviso:
		return true
	}
	return false
}

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

type Template struct {
	ID                 uuid.UUID `json:"id"`
	Title              string    `json:"title"`
	BodyTemplate       string    `json:"bodyTemplate"`
	SupportedVariables []string  `json:"supportedVariables"`
	IsActive           bool      `json:"isActive"`
	Category           Category  `json:"category"`
	CreatedAt          time.Time `json:"createdAt"`
}

type TemplateParams struct {
	Title              *string   `json:"title"`
	BodyTemplate       *string   `json:"bodyTemplate"`
	SupportedVariables []string  `json:"supportedVariables"`
	IsActive           *bool     `json:"isActive"`
	Category           *Category `json:"category"`
}

// Send é uma linha imutável do histórico: guarda o texto exatamente como
// foi gerado no momento do envio.
type Send struct {
	ID                uuid.UUID  `json:"id"`
	ChildID           uuid.UUID  `json:"childId"`
	GuardianID        uuid.UUID  `json:"guardianId"`
	MessageTemplateID *uuid.UUID `json:"messageTemplateId"`
	Channel           string     `json:"channel"`
	GeneratedMessage  string     `json:"generatedMessage"`
	SentAt            time.Time  `json:"sentAt"`
	SentBy            *uuid.UUID `json:"sentBy"`
}

const templateColumns = `id, title, body_template, supported_variables, is_active, category, created_at`

func scanTemplate(row pgx.Row) (Template, error) {
	var t Template
	err := row.Scan(&t.ID, &t.Title, &t.BodyTemplate, &t.SupportedVariables, &t.IsActive, &t.Category, &t.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return t, repo.ErrNotFound
	}
	return t, err
}

// ListActiveTemplates devolve só os modelos ativos, agrupados por categoria.
func (r *Repository) ListActiveTemplates(ctx context.Context, category *Category) ([]Template, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := r.db.Query(ctx, `
		SELECT `+templateColumns+`
		FROM message_templates
		WHERE is_active AND ($1::varchar IS NULL OR category = $1)
		ORDER BY category, title
	`, category)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var templates []Template
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		templates = append(templates, t)
	}
	return templates, rows.Err()
}

func (r *Repository) GetTemplate(ctx context.Context, id uuid.UUID) (Template, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	return scanTemplate(r.db.QueryRow(ctx, `
		SELECT `+templateColumns+`
		FROM message_templates
		WHERE id = $1
	`, id))
}

func (r *Repository) CreateTemplate(ctx context.Context, arg TemplateParams) (Template, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	isActive := true
	if arg.IsActive != nil {
		isActive = *arg.IsActive
	}
	variables := arg.SupportedVariables
	if variables == nil {
		variables = []string{}
	}

	return scanTemplate(r.db.QueryRow(ctx, `
		INSERT INTO message_templates (title, body_template, supported_variables, is_active, category)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+templateColumns+`
	`, arg.Title, arg.BodyTemplate, variables, isActive, arg.Category))
}

func (r *Repository) UpdateTemplate(ctx context.Context, id uuid.UUID, arg TemplateParams) (Template, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	return scanTemplate(r.db.QueryRow(ctx, `
		UPDATE message_templates SET
			title               = COALESCE($2, title),
			body_template       = COALESCE($3, body_template),
			supported_variables = COALESCE($4, supported_variables),
			is_active           = COALESCE($5, is_active),
			category            = COALESCE($6, category)
		WHERE id = $1
		RETURNING `+templateColumns+`
	`, id, arg.Title, arg.BodyTemplate, arg.SupportedVariables, arg.IsActive, arg.Category))
}

// LogSend acrescenta ao histórico. Nunca há update ou delete nesta tabela.
func (r *Repository) LogSend(ctx context.Context, childID, guardianID uuid.UUID, templateID, sentBy *uuid.UUID, channel, message string) (Send, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var s Send
	err := r.db.QueryRow(ctx, `
		INSERT INTO message_sends (child_id, guardian_id, message_template_id, channel, generated_message, sent_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, child_id, guardian_id, message_template_id, channel, generated_message, sent_at, sent_by
	`, childID, guardianID, templateID, channel, message, sentBy).
		Scan(&s.ID, &s.ChildID, &s.GuardianID, &s.MessageTemplateID, &s.Channel, &s.GeneratedMessage, &s.SentAt, &s.SentBy)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return s, repo.ErrNotFound
		}
		return s, err
	}
	return s, nil
}

func (r *Repository) ListHistory(ctx context.Context, limit int) ([]Send, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	if limit <= 0 || limit > 500 {
		limit = 100
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, child_id, guardian_id, message_template_id, channel, generated_message, sent_at, sent_by
		FROM message_sends
		ORDER BY sent_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sends []Send
	for rows.Next() {
		var s Send
		if err := rows.Scan(&s.ID, &s.ChildID, &s.GuardianID, &s.MessageTemplateID, &s.Channel,
			&s.GeneratedMessage, &s.SentAt, &s.SentBy); err != nil {
			return nil, err
		}
		sends = append(sends, s)
	}
	return sends, rows.Err()
}
