// Package attendance registra presença em encontros de turma e cultos.
package attendance

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

// Status de presença. Qualquer outro valor é rejeitado antes do banco.
type Status string

const (
	StatusPresente Status = "presente"
	StatusAusente  Status = "ausente"
)

func (s Status) Valid() bool {
	return s == StatusPresente || s == StatusAusente
}

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

type ClassMeeting struct {
	ID           uuid.UUID  `json:"id"`
	ClassID      *uuid.UUID `json:"classId"`
	Date         time.Time  `json:"date"`
	Observations *string    `json:"observations"`
	CreatedAt    time.Time  `json:"createdAt"`
}

type WorshipService struct {
	ID           uuid.UUID `json:"id"`
	Date         time.Time `json:"date"`
	Description  *string   `json:"description"`
	Observations *string   `json:"observations"`
	CreatedAt    time.Time `json:"createdAt"`
}

type ClassRecord struct {
	ID             uuid.UUID `json:"id"`
	ClassMeetingID uuid.UUID `json:"classMeetingId"`
	ChildID        uuid.UUID `json:"childId"`
	Status         Status    `json:"status"`
	Observation    *string   `json:"observation"`
	CreatedAt      time.Time `json:"createdAt"`
}

type WorshipRecord struct {
	ID               uuid.UUID `json:"id"`
	WorshipServiceID uuid.UUID `json:"worshipServiceId"`
	ChildID          uuid.UUID `json:"childId"`
	Status           Status    `json:"status"`
	Observation      *string   `json:"observation"`
	CreatedAt        time.Time `json:"createdAt"`
}

func (r *Repository) ListClassMeetings(ctx context.Context, classID *uuid.UUID) ([]ClassMeeting, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := r.db.Query(ctx, `
		SELECT id, class_id, date, observations, created_at
		FROM class_meetings
		WHERE ($1::uuid IS NULL OR class_id = $1)
		ORDER BY date DESC
	`, classID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var meetings []ClassMeeting
	for rows.Next() {
		var m ClassMeeting
		if err := rows.Scan(&m.ID, &m.ClassID, &m.Date, &m.Observations, &m.CreatedAt); err != nil {
			return nil, err
		}
		meetings = append(meetings, m)
	}
	return meetings, rows.Err()
}

func (r *Repository) CreateClassMeeting(ctx context.Context, classID *uuid.UUID, date time.Time, observations *string) (ClassMeeting, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var m ClassMeeting
	err := r.db.QueryRow(ctx, `
		INSERT INTO class_meetings (class_id, date, observations)
		VALUES ($1, $2, $3)
		RETURNING id, class_id, date, observations, created_at
	`, classID, date, observations).Scan(&m.ID, &m.ClassID, &m.Date, &m.Observations, &m.CreatedAt)
	return m, err
}

func (r *Repository) ListWorshipServices(ctx context.Context) ([]WorshipService, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := r.db.Query(ctx, `
		SELECT id, date, description, observations, created_at
		FROM worship_services
		ORDER BY date DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var services []WorshipService
	for rows.Next() {
		var s WorshipService
		if err := rows.Scan(&s.ID, &s.Date, &s.Description, &s.Observations, &s.CreatedAt); err != nil {
			return nil, err
		}
		services = append(services, s)
	}
	return services, rows.Err()
}

func (r *Repository) CreateWorshipService(ctx context.Context, date time.Time, description, observations *string) (WorshipService, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var s WorshipService
	err := r.db.QueryRow(ctx, `
		INSERT INTO worship_services (date, description, observations)
		VALUES ($1, $2, $3)
		RETURNING id, date, description, observations, created_at
	`, date, description, observations).Scan(&s.ID, &s.Date, &s.Description, &s.Observations, &s.CreatedAt)
	return s, err
}

// MarkClass grava presença de turma; repetir o par encontro+criança
// sobrescreve status e observação e renova o carimbo de criação, de modo
// que a remarcação passa a ser o registro mais recente da criança.
func (r *Repository) MarkClass(ctx context.Context, meetingID, childID uuid.UUID, status Status, observation *string) (ClassRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var rec ClassRecord
	err := r.db.QueryRow(ctx, `
		INSERT INTO class_attendance (class_meeting_id, child_id, status, observation)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (class_meeting_id, child_id)
		DO UPDATE SET status = EXCLUDED.status, observation = EXCLUDED.observation, created_at = now()
		RETURNING id, class_meeting_id, child_id, status, observation, created_at
	`, meetingID, childID, status, observation).
		Scan(&rec.ID, &rec.ClassMeetingID, &rec.ChildID, &rec.Status, &rec.Observation, &rec.CreatedAt)
	if err != nil {
		return rec, mapFKError(err)
	}
	return rec, nil
}

func (r *Repository) MarkWorship(ctx context.Context, serviceID, childID uuid.UUID, status Status, observation *string) (WorshipRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var rec WorshipRecord
	err := r.db.QueryRow(ctx, `
		INSERT INTO worship_attendance (worship_service_id, child_id, status, observation)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (worship_service_id, child_id)
		DO UPDATE SET status = EXCLUDED.status, observation = EXCLUDED.observation, created_at = now()
		RETURNING id, worship_service_id, child_id, status, observation, created_at
	`, serviceID, childID, status, observation).
		Scan(&rec.ID, &rec.WorshipServiceID, &rec.ChildID, &rec.Status, &rec.Observation, &rec.CreatedAt)
	if err != nil {
		return rec, mapFKError(err)
	}
	return rec, nil
}

func (r *Repository) ListClassByDate(ctx context.Context, date time.Time) ([]ClassRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := r.db.Query(ctx, `
		SELECT a.id, a.class_meeting_id, a.child_id, a.status, a.observation, a.created_at
		FROM class_attendance a
		JOIN class_meetings m ON m.id = a.class_meeting_id
		WHERE m.date = $1
		ORDER BY a.created_at DESC
	`, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []ClassRecord
	for rows.Next() {
		var rec ClassRecord
		if err := rows.Scan(&rec.ID, &rec.ClassMeetingID, &rec.ChildID, &rec.Status, &rec.Observation, &rec.CreatedAt); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (r *Repository) ListWorshipByDate(ctx context.Context, date time.Time) ([]WorshipRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := r.db.Query(ctx, `
		SELECT a.id, a.worship_service_id, a.child_id, a.status, a.observation, a.created_at
		FROM worship_attendance a
		JOIN worship_services s ON s.id = a.worship_service_id
		WHERE s.date = $1
		ORDER BY a.created_at DESC
	`, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []WorshipRecord
	for rows.Next() {
		var rec WorshipRecord
		if err := rows.Scan(&rec.ID, &rec.WorshipServiceID, &rec.ChildID, &rec.Status, &rec.Observation, &rec.CreatedAt); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// RecentClassStatuses devolve os últimos status da criança do mais recente
// para o mais antigo, base para a contagem de faltas seguidas.
func (r *Repository) RecentClassStatuses(ctx context.Context, childID uuid.UUID, limit int) ([]Status, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := r.db.Query(ctx, `
		SELECT status
		FROM class_attendance
		WHERE child_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, childID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var statuses []Status
	for rows.Next() {
		var s Status
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		statuses = append(statuses, s)
	}
	return statuses, rows.Err()
}

func mapFKError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23503" {
		return repo.ErrNotFound
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return repo.ErrNotFound
	}
	return err
}
