package attendance

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, r *Record) error
	DailyCounts(ctx context.Context, gymID int, from, to time.Time) ([]dailyCount, error)
}
