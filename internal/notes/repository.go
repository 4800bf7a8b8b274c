// Package notes guarda anotações livres sobre as crianças.
package notes

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

// AttentionLevel da anotação.
type AttentionLevel string

const (
	AttentionBaixa AttentionLevel = "baixa"
	AttentionMedia AttentionLevel = "media"
	AttentionAlta  AttentionLevel = "alta"
)

func (l AttentionLevel) Valid() bool {
	return l == AttentionBaixa || l == AttentionMedia || l == AttentionAlta
}

var allowedTags = map[string]struct{}{
	"comportamento": {},
	"saude":         {},
	"familia":       {},
	"espiritual":    {},
	"elogio":        {},
}

// ValidTag informa se a categoria de anotação é conhecida.
func ValidTag(tag string) bool {
	_, ok := allowedTags[tag]
	return ok
}

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

type Note struct {
	ID             uuid.UUID      `json:"id"`
	ChildID        uuid.UUID      `json:"childId"`
	Title          string         `json:"title"`
	Content        string         `json:"content"`
	Tags           []string       `json:"tags"`
	AttentionLevel AttentionLevel `json:"attentionLevel"`
	ReminderDate   *time.Time     `json:"reminderDate"`
	IsSensitive    bool           `json:"isSensitive"`
	CreatedBy      *uuid.UUID     `json:"createdBy"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

type NoteParams struct {
	ChildID        uuid.UUID      `json:"childId"`
	Title          string         `json:"title"`
	Content        string         `json:"content"`
	Tags           []string       `json:"tags"`
	AttentionLevel AttentionLevel `json:"attentionLevel"`
	ReminderDate   *time.Time     `json:"reminderDate"`
	IsSensitive    bool           `json:"isSensitive"`
}

// UpdateParams permite atualização parcial: campos nulos mantêm o valor
// atual, inclusive tags (enviar lista vazia limpa as categorias).
type UpdateParams struct {
	Title          *string         `json:"title"`
	Content        *string         `json:"content"`
	Tags           []string        `json:"tags"`
	AttentionLevel *AttentionLevel `json:"attentionLevel"`
	ReminderDate   *time.Time      `json:"reminderDate"`
	IsSensitive    *bool           `json:"isSensitive"`
}

const noteColumns = `id, child_id, title, content, tags, attention_level, reminder_date, is_sensitive, created_by, created_at, updated_at`

func scanNote(row pgx.Row) (Note, error) {
	var n Note
	err := row.Scan(&n.ID, &n.ChildID, &n.Title, &n.Content, &n.Tags, &n.AttentionLevel,
		&n.ReminderDate, &n.IsSensitive, &n.CreatedBy, &n.CreatedAt, &n.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return n, repo.ErrNotFound
	}
	return n, err
}

func (r *Repository) List(ctx context.Context) ([]Note, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := r.db.Query(ctx, `
		SELECT `+noteColumns+`
		FROM notes
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectNotes(rows)
}

func (r *Repository) ListByChild(ctx context.Context, childID uuid.UUID) ([]Note, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := r.db.Query(ctx, `
		SELECT `+noteColumns+`
		FROM notes
		WHERE child_id = $1
		ORDER BY created_at DESC
	`, childID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectNotes(rows)
}

func collectNotes(rows pgx.Rows) ([]Note, error) {
	var notes []Note
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

func (r *Repository) Get(ctx context.Context, id uuid.UUID) (Note, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	return scanNote(r.db.QueryRow(ctx, `
		SELECT `+noteColumns+`
		FROM notes
		WHERE id = $1
	`, id))
}

func (r *Repository) Create(ctx context.Context, createdBy uuid.UUID, arg NoteParams) (Note, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	tags := arg.Tags
	if tags == nil {
		tags = []string{}
	}

	note, err := scanNote(r.db.QueryRow(ctx, `
		INSERT INTO notes (child_id, title, content, tags, attention_level, reminder_date, is_sensitive, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+noteColumns+`
	`, arg.ChildID, arg.Title, arg.Content, tags, arg.AttentionLevel, arg.ReminderDate, arg.IsSensitive, createdBy))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return Note{}, repo.ErrNotFound
		}
		return Note{}, err
	}
	return note, nil
}

func (r *Repository) Update(ctx context.Context, id uuid.UUID, arg UpdateParams) (Note, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	return scanNote(r.db.QueryRow(ctx, `
		UPDATE notes SET
			title           = COALESCE($2, title),
			content         = COALESCE($3, content),
			tags            = COALESCE($4, tags),
			attention_level = COALESCE($5, attention_level),
			reminder_date   = COALESCE($6, reminder_date),
			is_sensitive    = COALESCE($7, is_sensitive),
			updated_at      = now()
		WHERE id = $1
		RETURNING `+noteColumns+`
	`, id, arg.Title, arg.Content, arg.Tags, arg.AttentionLevel, arg.ReminderDate, arg.IsSensitive))
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	cmd, err := r.db.Exec(ctx, `DELETE FROM notes WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return repo.ErrNotFound
	}
	return nil
}
