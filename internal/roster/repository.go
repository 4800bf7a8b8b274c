// Package roster cobre o cadastro básico: crianças, responsáveis e turmas.
package roster

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ministeriokids/api/internal/db"
	"github.com/ministeriokids/api/internal/repo"
)

var (
	// ErrClassHasChildren impede excluir turma com crianças vinculadas.
	ErrClassHasChildren = errors.New("turma possui crianças vinculadas")
)

const dbTimeout = 3 * time.Second

// Repository fornece acesso aos dados de cadastro.
type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

type Child struct {
	ID           uuid.UUID  `json:"id"`
	FullName     string     `json:"fullName"`
	BirthDate    *time.Time `json:"birthDate"`
	ClassID      *uuid.UUID `json:"classId"`
	PhotoURL     *string    `json:"photoUrl"`
	Allergies    *string    `json:"allergies"`
	Observations *string    `json:"observations"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

type Guardian struct {
	ID                   uuid.UUID `json:"id"`
	FullName             string    `json:"fullName"`
	Relationship         string    `json:"relationship"`
	PhoneWhatsApp        string    `json:"phoneWhatsApp"`
	Email                *string   `json:"email"`
	ContactAuthorization bool      `json:"contactAuthorization"`
	CreatedAt            time.Time `json:"createdAt"`
}

type Class struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Room         *string   `json:"room"`
	Observations *string   `json:"observations"`
	CreatedAt    time.Time `json:"createdAt"`
}

// ChildParams agrupa campos de criação/atualização de criança. Campos nil
// em atualização preservam o valor atual.
type ChildParams struct {
	FullName     *string    `json:"fullName"`
	BirthDate    *time.Time `json:"birthDate"`
	ClassID      *uuid.UUID `json:"classId"`
	PhotoURL     *string    `json:"photoUrl"`
	Allergies    *string    `json:"allergies"`
	Observations *string    `json:"observations"`
}

type GuardianParams struct {
	FullName             *string `json:"fullName"`
	Relationship         *string `json:"relationship"`
	PhoneWhatsApp        *string `json:"phoneWhatsApp"`
	Email                *string `json:"email"`
	ContactAuthorization *bool   `json:"contactAuthorization"`
}

type ClassParams struct {
	Name         *string `json:"name"`
	Room         *string `json:"room"`
	Observations *string `json:"observations"`
}

const childColumns = `id, full_name, birth_date, class_id, photo_url, allergies, observations, created_at, updated_at`

func scanChild(row pgx.Row) (Child, error) {
	var c Child
	err := row.Scan(&c.ID, &c.FullName, &c.BirthDate, &c.ClassID, &c.PhotoURL, &c.Allergies,
		&c.Observations, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return c, repo.ErrNotFound
	}
	return c, err
}

func (r *Repository) ListChildren(ctx context.Context, classID *uuid.UUID) ([]Child, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := r.db.Query(ctx, `
		SELECT `+childColumns+`
		FROM children
		WHERE ($1::uuid IS NULL OR class_id = $1)
		ORDER BY full_name
	`, classID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var children []Child
	for rows.Next() {
		c, err := scanChild(rows)
		if err != nil {
			return nil, err
		}
		children = append(children, c)
	}
	return children, rows.Err()
}

func (r *Repository) GetChild(ctx context.Context, id uuid.UUID) (Child, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	return scanChild(r.db.QueryRow(ctx, `
		SELECT `+childColumns+`
		FROM children
		WHERE id = $1
	`, id))
}

func (r *Repository) CreateChild(ctx context.Context, arg ChildParams) (Child, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	return scanChild(r.db.QueryRow(ctx, `
		INSERT INTO children (full_name, birth_date, class_id, photo_url, allergies, observations)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+childColumns+`
	`, arg.FullName, arg.BirthDate, arg.ClassID, arg.PhotoURL, arg.Allergies, arg.Observations))
}

func (r *Repository) UpdateChild(ctx context.Context, id uuid.UUID, arg ChildParams) (Child, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	return scanChild(r.db.QueryRow(ctx, `
		UPDATE children SET
			full_name    = COALESCE($2, full_name),
			birth_date   = COALESCE($3, birth_date),
			class_id     = COALESCE($4, class_id),
			photo_url    = COALESCE($5, photo_url),
			allergies    = COALESCE($6, allergies),
			observations = COALESCE($7, observations),
			updated_at   = now()
		WHERE id = $1
		RETURNING `+childColumns+`
	`, id, arg.FullName, arg.BirthDate, arg.ClassID, arg.PhotoURL, arg.Allergies, arg.Observations))
}

func (r *Repository) DeleteChild(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	cmd, err := r.db.Exec(ctx, `DELETE FROM children WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return repo.ErrNotFound
	}
	return nil
}

const guardianColumns = `id, full_name, relationship, phone_whatsapp, email, contact_authorization, created_at`

func scanGuardian(row pgx.Row) (Guardian, error) {
	var g Guardian
	err := row.Scan(&g.ID, &g.FullName, &g.Relationship, &g.PhoneWhatsApp, &g.Email,
		&g.ContactAuthorization, &g.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return g, repo.ErrNotFound
	}
	return g, err
}

func (r *Repository) ListGuardians(ctx context.Context) ([]Guardian, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := r.db.Query(ctx, `
		SELECT `+guardianColumns+`
		FROM guardians
		ORDER BY full_name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var guardians []Guardian
	for rows.Next() {
		g, err := scanGuardian(rows)
		if err != nil {
			return nil, err
		}
		guardians = append(guardians, g)
	}
	return guardians, rows.Err()
}

func (r *Repository) ListGuardiansByChild(ctx context.Context, childID uuid.UUID) ([]Guardian, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := r.db.Query(ctx, `
		SELECT g.id, g.full_name, g.relationship, g.phone_whatsapp, g.email, g.contact_authorization, g.created_at
		FROM guardians g
		JOIN children_guardians cg ON cg.guardian_id = g.id
		WHERE cg.child_id = $1
		ORDER BY cg.is_primary DESC, g.full_name
	`, childID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var guardians []Guardian
	for rows.Next() {
		g, err := scanGuardian(rows)
		if err != nil {
			return nil, err
		}
		guardians = append(guardians, g)
	}
	return guardians, rows.Err()
}

func (r *Repository) CreateGuardian(ctx context.Context, arg GuardianParams) (Guardian, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	contactAuth := true
	if arg.ContactAuthorization != nil {
		contactAuth = *arg.ContactAuthorization
	}

	return scanGuardian(r.db.QueryRow(ctx, `
		INSERT INTO guardians (full_name, relationship, phone_whatsapp, email, contact_authorization)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+guardianColumns+`
	`, arg.FullName, arg.Relationship, arg.PhoneWhatsApp, arg.Email, contactAuth))
}

func (r *Repository) UpdateGuardian(ctx context.Context, id uuid.UUID, arg GuardianParams) (Guardian, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	return scanGuardian(r.db.QueryRow(ctx, `
		UPDATE guardians SET
			full_name             = COALESCE($2, full_name),
			relationship          = COALESCE($3, relationship),
			phone_whatsapp        = COALESCE($4, phone_whatsapp),
			email                 = COALESCE($5, email),
			contact_authorization = COALESCE($6, contact_authorization)
		WHERE id = $1
		RETURNING `+guardianColumns+`
	`, id, arg.FullName, arg.Relationship, arg.PhoneWhatsApp, arg.Email, arg.ContactAuthorization))
}

func (r *Repository) DeleteGuardian(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	cmd, err := r.db.Exec(ctx, `DELETE FROM guardians WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// LinkGuardian vincula responsável à criança; vínculo repetido só atualiza
// a marcação de responsável principal.
func (r *Repository) LinkGuardian(ctx context.Context, childID, guardianID uuid.UUID, isPrimary bool) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	_, err := r.db.Exec(ctx, `
		INSERT INTO children_guardians (child_id, guardian_id, is_primary)
		VALUES ($1, $2, $3)
		ON CONFLICT (child_id, guardian_id)
		DO UPDATE SET is_primary = EXCLUDED.is_primary
	`, childID, guardianID, isPrimary)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return repo.ErrNotFound
		}
		return err
	}
	return nil
}

const classColumns = `id, name, room, observations, created_at`

func scanClass(row pgx.Row) (Class, error) {
	var c Class
	err := row.Scan(&c.ID, &c.Name, &c.Room, &c.Observations, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return c, repo.ErrNotFound
	}
	return c, err
}

func (r *Repository) ListClasses(ctx context.Context) ([]Class, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := r.db.Query(ctx, `
		SELECT `+classColumns+`
		FROM classes
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var classes []Class
	for rows.Next() {
		c, err := scanClass(rows)
		if err != nil {
			return nil, err
		}
		classes = append(classes, c)
	}
	return classes, rows.Err()
}

func (r *Repository) GetClass(ctx context.Context, id uuid.UUID) (Class, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	return scanClass(r.db.QueryRow(ctx, `
		SELECT `+classColumns+`
		FROM classes
		WHERE id = $1
	`, id))
}

func (r *Repository) CreateClass(ctx context.Context, arg ClassParams) (Class, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	return scanClass(r.db.QueryRow(ctx, `
		INSERT INTO classes (name, room, observations)
		VALUES ($1, $2, $3)
		RETURNING `+classColumns+`
	`, arg.Name, arg.Room, arg.Observations))
}

func (r *Repository) UpdateClass(ctx context.Context, id uuid.UUID, arg ClassParams) (Class, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	return scanClass(r.db.QueryRow(ctx, `
		UPDATE classes SET
			name         = COALESCE($2, name),
			room         = COALESCE($3, room),
			observations = COALESCE($4, observations)
		WHERE id = $1
		RETURNING `+classColumns+`
	`, id, arg.Name, arg.Room, arg.Observations))
}

// DeleteClass verifica e exclui na mesma transação: turma com crianças
// vinculadas nunca é removida, mesmo sob concorrência.
func (r *Repository) DeleteClass(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	return db.WithTx(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		var count int
		if err := tx.QueryRow(ctx, `
			SELECT COUNT(*) FROM children WHERE class_id = $1
		`, id).Scan(&count); err != nil {
			return err
		}
		if count > 0 {
			return ErrClassHasChildren
		}

		cmd, err := tx.Exec(ctx, `DELETE FROM classes WHERE id = $1`, id)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23503" {
				return ErrClassHasChildren
			}
			return err
		}
		if cmd.RowsAffected() == 0 {
			return repo.ErrNotFound
		}
		return nil
	})
}
