package subscription

import "context"

type Repository interface {
	List(ctx context.Context) ([]Plan, error)
	FindByID(ctx context.Context, id int) (*Plan, error)
	Create(ctx context.Context, p *Plan) error
	Update(ctx context.Context, p *Plan) error
}
