package user

import (
	"context"
	"database/sql"
	"errors"

	"gymhub/internal/auth"
	"gymhub/internal/db"

	"github.com/jmoiron/sqlx"
)

var ErrUserNotFound = errors.New("user not found")

const userColumns = `id, username, email, phone, password_hash, role, is_approved, created_at`

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

// Insert writes u using q, which may be a transaction owned by another
// package, and fills in the generated columns.
func Insert(ctx context.Context, q sqlx.QueryerContext, u *User) error {
	query := `
		INSERT INTO users (username, email, phone, password_hash, role, is_approved)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`
	return q.QueryRowxContext(ctx, query,
		u.Username, u.Email, u.Phone, u.PasswordHash, u.Role, u.IsApproved,
	).Scan(&u.ID, &u.CreatedAt)
}

func (r *repository) Create(ctx context.Context, u *User) error {
	return Insert(ctx, r.db, u)
}

func (r *repository) FindByEmail(ctx context.Context, email string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	var u User
	if err := r.db.GetContext(ctx, &u, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *repository) FindByID(ctx context.Context, id int) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	var u User
	if err := r.db.GetContext(ctx, &u, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *repository) EmailExists(ctx context.Context, email string) (bool, error) {
	return db.Exists(ctx, r.db, `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, email)
}

func (r *repository) ListByRole(ctx context.Context, role auth.Role) ([]User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE role = $1 ORDER BY id`

	var users []User
	if err := r.db.SelectContext(ctx, &users, query, role); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *repository) FindGymForUser(ctx context.Context, userID int) (*GymSummary, error) {
	query := `
		SELECT g.id, g.name, g.is_active, g.is_approved, g.expiry_date
		FROM gyms g
		LEFT JOIN staff s ON s.gym_id = g.id AND s.is_active = true
		WHERE g.owner_id = $1 OR s.user_id = $1
		ORDER BY g.id
		LIMIT 1
	`

	var g GymSummary
	if err := r.db.GetContext(ctx, &g, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &g, nil
}
