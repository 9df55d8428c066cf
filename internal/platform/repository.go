package platform

import (
	"context"

	"gymhub/internal/db"

	"github.com/jmoiron/sqlx"
)

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Settings(ctx context.Context) (map[string]string, error) {
	var rows []setting
	if err := r.db.SelectContext(ctx, &rows, `SELECT key, value FROM system_settings`); err != nil {
		return nil, err
	}

	values := make(map[string]string, len(rows))
	for _, row := range rows {
		values[row.Key] = row.Value
	}
	return values, nil
}

// SaveSettings writes every key in one transaction.
func (r *repository) SaveSettings(ctx context.Context, s *Settings) error {
	query := `
		INSERT INTO system_settings (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
	`
	return db.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		for _, p := range s.pairs() {
			if _, err := tx.ExecContext(ctx, query, p.Key, p.Value); err != nil {
				return err
			}
		}
		return nil
	})
}
