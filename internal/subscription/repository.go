package subscription

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

var ErrPlanNotFound = errors.New("subscription plan not found")

const planColumns = `id, name, tier, price, duration_days, gym_limit, member_limit, description`

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

// FindByID loads a plan through q so callers holding a transaction see the
// same snapshot.
func FindByID(ctx context.Context, q sqlx.QueryerContext, id int) (*Plan, error) {
	var p Plan
	err := sqlx.GetContext(ctx, q, &p, `SELECT `+planColumns+` FROM subscription_plans WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *repository) List(ctx context.Context) ([]Plan, error) {
	plans := []Plan{}
	err := r.db.SelectContext(ctx, &plans, `SELECT `+planColumns+` FROM subscription_plans ORDER BY price, id`)
	return plans, err
}

func (r *repository) FindByID(ctx context.Context, id int) (*Plan, error) {
	return FindByID(ctx, r.db, id)
}

func (r *repository) Create(ctx context.Context, p *Plan) error {
	query := `
		INSERT INTO subscription_plans (name, tier, price, duration_days, gym_limit, member_limit, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	return r.db.QueryRowxContext(ctx, query,
		p.Name, p.Tier, p.Price, p.DurationDays, p.GymLimit, p.MemberLimit, p.Description,
	).Scan(&p.ID)
}

func (r *repository) Update(ctx context.Context, p *Plan) error {
	query := `
		UPDATE subscription_plans
		SET name = $1, tier = $2, price = $3, duration_days = $4,
		    gym_limit = $5, member_limit = $6, description = $7
		WHERE id = $8
	`
	res, err := r.db.ExecContext(ctx, query,
		p.Name, p.Tier, p.Price, p.DurationDays, p.GymLimit, p.MemberLimit, p.Description, p.ID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrPlanNotFound
	}
	return nil
}
