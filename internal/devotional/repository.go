// Package devotional acompanha meditações semanais e memorização de versículos.
package devotional

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

// DeliveryStatus da meditação semanal.
type DeliveryStatus string

const (
	DeliveryEntregou    DeliveryStatus = "entregou"
	DeliveryEmAndamento DeliveryStatus = "em_andamento"
	DeliveryNaoEntregou DeliveryStatus = "nao_entregou"
)

func (s DeliveryStatus) Valid() bool {
	return s == DeliveryEntregou || s == DeliveryEmAndamento || s == DeliveryNaoEntregou
}

// MemorizationStatus do versículo.
type MemorizationStatus string

const (
	MemorizationMemorizou   MemorizationStatus = "memorizou"
	MemorizationEmAndamento MemorizationStatus = "em_andamento"
	MemorizationNao         MemorizationStatus = "nao_memorizou"
)

func (s MemorizationStatus) Valid() bool {
	return s == MemorizationMemorizou || s == MemorizationEmAndamento || s == MemorizationNao
}

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

type MeditationWeek struct {
	ID                uuid.UUID `json:"id"`
	WeekReference     string    `json:"weekReference"`
	Theme             string    `json:"theme"`
	MaterialLink      *string   `json:"materialLink"`
	AllowsAttachments bool      `json:"allowsAttachments"`
	CreatedAt         time.Time `json:"createdAt"`
}

type Delivery struct {
	ID               uuid.UUID      `json:"id"`
	ChildID          uuid.UUID      `json:"childId"`
	MeditationWeekID uuid.UUID      `json:"meditationWeekId"`
	Status           DeliveryStatus `json:"status"`
	DeliveryDate     *time.Time     `json:"deliveryDate"`
	EvidenceURL      *string        `json:"evidenceUrl"`
	Observation      *string        `json:"observation"`
	CreatedAt        time.Time      `json:"createdAt"`
	UpdatedAt        time.Time      `json:"updatedAt"`
}

type Verse struct {
	ID            uuid.UUID `json:"id"`
	Reference     string    `json:"reference"`
	Text          string    `json:"text"`
	WeekReference *string   `json:"weekReference"`
	CreatedAt     time.Time `json:"createdAt"`
}

type Memorization struct {
	ID           uuid.UUID          `json:"id"`
	ChildID      uuid.UUID          `json:"childId"`
	BibleVerseID uuid.UUID          `json:"bibleVerseId"`
	Status       MemorizationStatus `json:"status"`
	Observation  *string            `json:"observation"`
	CreatedAt    time.Time          `json:"createdAt"`
	UpdatedAt    time.Time          `json:"updatedAt"`
}

func (r *Repository) ListWeeks(ctx context.Context) ([]MeditationWeek, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := r.db.Query(ctx, `
		SELECT id, week_reference, theme, material_link, allows_attachments, created_at
		FROM meditation_weeks
		ORDER BY week_reference DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var weeks []MeditationWeek
	for rows.Next() {
		var w MeditationWeek
		if err := rows.Scan(&w.ID, &w.WeekReference, &w.Theme, &w.MaterialLink, &w.AllowsAttachments, &w.CreatedAt); err != nil {
			return nil, err
		}
		weeks = append(weeks, w)
	}
	return weeks, rows.Err()
}

func (r *Repository) CreateWeek(ctx context.Context, weekReference, theme string, materialLink *string, allowsAttachments bool) (MeditationWeek, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var w MeditationWeek
	err := r.db.QueryRow(ctx, `
		INSERT INTO meditation_weeks (week_reference, theme, material_link, allows_attachments)
		VALUES ($1, $2, $3, $4)
		RETURNING id, week_reference, theme, material_link, allows_attachments, created_at
	`, weekReference, theme, materialLink, allowsAttachments).
		Scan(&w.ID, &w.WeekReference, &w.Theme, &w.MaterialLink, &w.AllowsAttachments, &w.CreatedAt)
	return w, err
}

// CurrentWeek devolve a semana de referência mais recente.
func (r *Repository) CurrentWeek(ctx context.Context) (MeditationWeek, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var w MeditationWeek
	err := r.db.QueryRow(ctx, `
		SELECT id, week_reference, theme, material_link, allows_attachments, created_at
		FROM meditation_weeks
		ORDER BY week_reference DESC
		LIMIT 1
	`).Scan(&w.ID, &w.WeekReference, &w.Theme, &w.MaterialLink, &w.AllowsAttachments, &w.CreatedAt)
	if err != nil {
		return w, mapNotFound(err)
	}
	return w, nil
}

func (r *Repository) ListDeliveriesByWeek(ctx context.Context, weekID uuid.UUID) ([]Delivery, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := r.db.Query(ctx, `
		SELECT id, child_id, meditation_week_id, status, delivery_date, evidence_url, observation, created_at, updated_at
		FROM meditation_deliveries
		WHERE meditation_week_id = $1
		ORDER BY created_at DESC
	`, weekID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var deliveries []Delivery
	for rows.Next() {
		var d Delivery
		if err := rows.Scan(&d.ID, &d.ChildID, &d.MeditationWeekID, &d.Status, &d.DeliveryDate,
			&d.EvidenceURL, &d.Observation, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		deliveries = append(deliveries, d)
	}
	return deliveries, rows.Err()
}

// UpsertDelivery grava o status da meditação. Status "entregou" carimba a
// data de entrega; qualquer outro status limpa o carimbo.
func (r *Repository) UpsertDelivery(ctx context.Context, childID, weekID uuid.UUID, status DeliveryStatus, evidenceURL, observation *string) (Delivery, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var deliveryDate *time.Time
	if status == DeliveryEntregou {
		now := time.Now()
		deliveryDate = &now
	}

	var d Delivery
	err := r.db.QueryRow(ctx, `
		INSERT INTO meditation_deliveries (child_id, meditation_week_id, status, delivery_date, evidence_url, observation)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (child_id, meditation_week_id)
		DO UPDATE SET
			status        = EXCLUDED.status,
			delivery_date = EXCLUDED.delivery_date,
			evidence_url  = EXCLUDED.evidence_url,
			observation   = EXCLUDED.observation,
			updated_at    = now()
		RETURNING id, child_id, meditation_week_id, status, delivery_date, evidence_url, observation, created_at, updated_at
	`, childID, weekID, status, deliveryDate, evidenceURL, observation).
		Scan(&d.ID, &d.ChildID, &d.MeditationWeekID, &d.Status, &d.DeliveryDate,
			&d.EvidenceURL, &d.Observation, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return d, mapNotFound(err)
	}
	return d, nil
}

func (r *Repository) ListVerses(ctx context.Context) ([]Verse, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := r.db.Query(ctx, `
		SELECT id, reference, text, week_reference, created_at
		FROM bible_verses
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var verses []Verse
	for rows.Next() {
		var v Verse
		if err := rows.Scan(&v.ID, &v.Reference, &v.Text, &v.WeekReference, &v.CreatedAt); err != nil {
			return nil, err
		}
		verses = append(verses, v)
	}
	return verses, rows.Err()
}

func (r *Repository) CreateVerse(ctx context.Context, reference, text string, weekReference *string) (Verse, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var v Verse
	err := r.db.QueryRow(ctx, `
		INSERT INTO bible_verses (reference, text, week_reference)
		VALUES ($1, $2, $3)
		RETURNING id, reference, text, week_reference, created_at
	`, reference, text, weekReference).Scan(&v.ID, &v.Reference, &v.Text, &v.WeekReference, &v.CreatedAt)
	return v, err
}

func (r *Repository) ListMemorizations(ctx context.Context, childID *uuid.UUID) ([]Memorization, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := r.db.Query(ctx, `
		SELECT id, child_id, bible_verse_id, status, observation, created_at, updated_at
		FROM verse_memorizations
		WHERE ($1::uuid IS NULL OR child_id = $1)
		ORDER BY created_at DESC
	`, childID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var memorizations []Memorization
	for rows.Next() {
		var m Memorization
		if err := rows.Scan(&m.ID, &m.ChildID, &m.BibleVerseID, &m.Status, &m.Observation, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		memorizations = append(memorizations, m)
	}
	return memorizations, rows.Err()
}

func (r *Repository) UpsertMemorization(ctx context.Context, childID, verseID uuid.UUID, status MemorizationStatus, observation *string) (Memorization, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var m Memorization
	err := r.db.QueryRow(ctx, `
		INSERT INTO verse_memorizations (child_id, bible_verse_id, status, observation)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (child_id, bible_verse_id)
		DO UPDATE SET
			status      = EXCLUDED.status,
			observation = EXCLUDED.observation,
			updated_at  = now()
		RETURNING id, child_id, bible_verse_id, status, observation, created_at, updated_at
	`, childID, verseID, status, observation).
		Scan(&m.ID, &m.ChildID, &m.BibleVerseID, &m.Status, &m.Observation, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return m, mapNotFound(err)
	}
	return m, nil
}

func mapNotFound(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23503" {
		return repo.ErrNotFound
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return repo.ErrNotFound
	}
	return err
}
