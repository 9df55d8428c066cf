package subscription

import (
	"context"
	"errors"

	"gymhub/internal/db"
	"gymhub/internal/logger"
)

var (
	ErrTierTaken     = errors.New("a plan with this tier already exists")
	ErrNegativePrice = errors.New("price must not be negative")
)

type Service interface {
	List(ctx context.Context) ([]Plan, error)
	Get(ctx context.Context, id int) (*Plan, error)
	Create(ctx context.Context, req PlanRequest) (*Plan, error)
	Update(ctx context.Context, id int, req PlanRequest) (*Plan, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) List(ctx context.Context) ([]Plan, error) {
	return s.repo.List(ctx)
}

func (s *service) Get(ctx context.Context, id int) (*Plan, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *service) Create(ctx context.Context, req PlanRequest) (*Plan, error) {
	if req.Price.IsNegative() {
		return nil, ErrNegativePrice
	}

	p := &Plan{}
	req.apply(p)
	if err := s.repo.Create(ctx, p); err != nil {
		if db.IsUniqueViolation(err) {
			return nil, ErrTierTaken
		}
		return nil, err
	}

	logger.Info("subscription plan created", "plan_id", p.ID, "tier", p.Tier)
	return p, nil
}

// Update replaces the plan's fields. Gyms already on the plan keep the
// expiry date computed when they registered.
func (s *service) Update(ctx context.Context, id int, req PlanRequest) (*Plan, error) {
	if req.Price.IsNegative() {
		return nil, ErrNegativePrice
	}

	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	req.apply(p)

	if err := s.repo.Update(ctx, p); err != nil {
		if db.IsUniqueViolation(err) {
			return nil, ErrTierTaken
		}
		return nil, err
	}

	logger.Info("subscription plan updated", "plan_id", p.ID)
	return p, nil
}
