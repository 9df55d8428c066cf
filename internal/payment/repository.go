package payment

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

var (
	ErrMethodNotFound = errors.New("payment method not found")
	ErrMethodInactive = errors.New("payment method is not active")
)

type Repository interface {
	ListActive(ctx context.Context) ([]Method, error)
	FindByID(ctx context.Context, id int) (*Method, error)
	FindByName(ctx context.Context, name MethodName) (*Method, error)
}

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) ListActive(ctx context.Context) ([]Method, error) {
	var methods []Method
	err := r.db.SelectContext(ctx, &methods,
		`SELECT id, name, is_active, created_at FROM payment_methods WHERE is_active = true ORDER BY id`)
	if err != nil {
		return nil, err
	}
	return methods, nil
}

func (r *repository) FindByID(ctx context.Context, id int) (*Method, error) {
	return FindByID(ctx, r.db, id)
}

func (r *repository) FindByName(ctx context.Context, name MethodName) (*Method, error) {
	return FindByName(ctx, r.db, name)
}

// FindByID loads a method through q so callers holding a transaction can
// resolve the method inside it.
func FindByID(ctx context.Context, q sqlx.QueryerContext, id int) (*Method, error) {
	var m Method
	err := sqlx.GetContext(ctx, q, &m,
		`SELECT id, name, is_active, created_at FROM payment_methods WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMethodNotFound
		}
		return nil, err
	}
	return &m, nil
}

// FindActiveByID is FindByID that also rejects disabled methods.
func FindActiveByID(ctx context.Context, q sqlx.QueryerContext, id int) (*Method, error) {
	m, err := FindByID(ctx, q, id)
	if err != nil {
		return nil, err
	}
	if !m.IsActive {
		return nil, ErrMethodInactive
	}
	return m, nil
}

func FindByName(ctx context.Context, q sqlx.QueryerContext, name MethodName) (*Method, error) {
	var m Method
	err := sqlx.GetContext(ctx, q, &m,
		`SELECT id, name, is_active, created_at FROM payment_methods WHERE name = $1`, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMethodNotFound
		}
		return nil, err
	}
	return &m, nil
}
