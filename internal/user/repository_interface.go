package user

import (
	"context"

	"gymhub/internal/auth"
)

type Repository interface {
	Create(ctx context.Context, u *User) error
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id int) (*User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	ListByRole(ctx context.Context, role auth.Role) ([]User, error)
	FindGymForUser(ctx context.Context, userID int) (*GymSummary, error)
}
