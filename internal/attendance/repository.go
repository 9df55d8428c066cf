package attendance

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
)

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, rec *Record) error {
	query := `
		INSERT INTO attendance (gym_id, kind, member_id, staff_id, method)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, timestamp
	`
	return r.db.QueryRowxContext(ctx, query, rec.GymID, rec.Kind, rec.MemberID, rec.StaffID, rec.Method).
		Scan(&rec.ID, &rec.Timestamp)
}

// DailyCounts groups check-ins by UTC day over [from, to]. Days without
// check-ins are absent.
func (r *repository) DailyCounts(ctx context.Context, gymID int, from, to time.Time) ([]dailyCount, error) {
	query := `
		SELECT (timestamp AT TIME ZONE 'UTC')::date AS day,
		       COUNT(*) FILTER (WHERE kind = 'member') AS members,
		       COUNT(*) FILTER (WHERE kind = 'staff') AS staff
		FROM attendance
		WHERE gym_id = $1 AND timestamp >= $2 AND timestamp < $3
		GROUP BY day
		ORDER BY day
	`
	rows := []dailyCount{}
	err := r.db.SelectContext(ctx, &rows, query, gymID, from, to.AddDate(0, 0, 1))
	return rows, err
}
