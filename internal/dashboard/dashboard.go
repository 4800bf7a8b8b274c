// Package dashboard calcula indicadores agregados do período.
package dashboard

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const dbTimeout = 3 * time.Second

// DefaultRangeDays define o período padrão quando a consulta não informa datas.
const DefaultRangeDays = 30

// Stats resume o período consultado. Percentuais vão de 0 a 100.
type Stats struct {
	From                  time.Time `json:"from"`
	To                    time.Time `json:"to"`
	TotalChildren         int       `json:"totalChildren"`
	TotalClasses          int       `json:"totalClasses"`
	ClassAttendanceRate   float64   `json:"classAttendanceRate"`
	WorshipAttendanceRate float64   `json:"worshipAttendanceRate"`
	MeditationsDelivered  int       `json:"meditationsDelivered"`
	VersesMemorized       int       `json:"versesMemorized"`
	MessagesSent          int       `json:"messagesSent"`
}

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Stats agrega presença, entregas e envios dentro do intervalo. As contagens
// de crianças e turmas são instantâneas, não recortadas por data.
func (r *Repository) Stats(ctx context.Context, from, to time.Time) (Stats, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	stats := Stats{From: from, To: to}

	err := r.db.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM children),
			(SELECT COUNT(*) FROM classes),
			(SELECT COALESCE(
				100.0 * COUNT(*) FILTER (WHERE a.status = 'presente') / NULLIF(COUNT(*), 0), 0)
			 FROM class_attendance a
			 JOIN class_meetings m ON m.id = a.class_meeting_id
			 WHERE m.date BETWEEN $1 AND $2),
			(SELECT COALESCE(
				100.0 * COUNT(*) FILTER (WHERE a.status = 'presente') / NULLIF(COUNT(*), 0), 0)
			 FROM worship_attendance a
			 JOIN worship_services s ON s.id = a.worship_service_id
			 WHERE s.date BETWEEN $1 AND $2),
			(SELECT COUNT(*) FROM meditation_deliveries
			 WHERE status = 'entregou' AND delivery_date BETWEEN $1 AND $2),
			(SELECT COUNT(*) FROM verse_memorizations
			 WHERE status = 'memorizou' AND updated_at >= $1 AND updated_at < $2 + INTERVAL '1 day'),
			(SELECT COUNT(*) FROM message_sends
			 WHERE sent_at >= $1 AND sent_at < $2 + INTERVAL '1 day')
	`, from, to).Scan(
		&stats.TotalChildren,
		&stats.TotalClasses,
		&stats.ClassAttendanceRate,
		&stats.WorshipAttendanceRate,
		&stats.MeditationsDelivered,
		&stats.VersesMemorized,
		&stats.MessagesSent,
	)
	return stats, err
}
