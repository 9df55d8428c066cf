package member

import (
	"context"
	"time"

	"gymhub/internal/gym"
)

type Repository interface {
	FindByID(ctx context.Context, gymID, id int) (*Member, error)
	List(ctx context.Context, f Filter, today time.Time) ([]Member, int, error)
	Deactivate(ctx context.Context, gymID, id int) error
	RecentAttendance(ctx context.Context, memberID, limit int) ([]gym.CheckIn, error)
}
