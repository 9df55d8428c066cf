package gym

import (
	"context"
	"time"
)

type Repository interface {
	FindByID(ctx context.Context, id int) (*Gym, error)
	ListByOwner(ctx context.Context, ownerID int) ([]Gym, error)
	Search(ctx context.Context, f Filter, today time.Time) ([]Gym, int, error)
	Recent(ctx context.Context, limit int) ([]Gym, error)
	PlatformStats(ctx context.Context, today time.Time) (*PlatformStats, error)
	ListExpiringOn(ctx context.Context, dates []time.Time) ([]ExpiringGym, error)

	CreatePlan(ctx context.Context, p *Plan) error
	ListPlans(ctx context.Context, gymID int) ([]Plan, error)

	FindStaffByUser(ctx context.Context, userID int) (*Staff, error)
	FindStaff(ctx context.Context, gymID, staffID int) (*Staff, error)
	ListStaff(ctx context.Context, gymID int) ([]Staff, error)
	StaffCheckIns(ctx context.Context, staffID, limit int) ([]CheckIn, error)

	MemberStats(ctx context.Context, gymID int, today time.Time) (*MemberStats, error)
	MemberCount(ctx context.Context, gymID int) (int, error)
	RecentMembers(ctx context.Context, gymID, limit int) ([]MemberSummary, error)
}
