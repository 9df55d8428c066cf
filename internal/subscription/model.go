package subscription

import (
	"github.com/shopspring/decimal"
)

type Tier string

const (
	TierBasic Tier = "basic"
	TierPro   Tier = "pro"
	TierElite Tier = "elite"
)

func (t Tier) Valid() bool {
	switch t {
	case TierBasic, TierPro, TierElite:
		return true
	}
	return false
}

// Plan is a platform subscription plan a gym owner picks when registering a
// gym. Limits are enforced at gym registration and member enrollment.
type Plan struct {
	ID           int             `db:"id" json:"id"`
	Name         string          `db:"name" json:"name"`
	Tier         Tier            `db:"tier" json:"tier"`
	Price        decimal.Decimal `db:"price" json:"price" swaggertype:"string" example:"49.99"`
	DurationDays int             `db:"duration_days" json:"duration_days"`
	GymLimit     int             `db:"gym_limit" json:"gym_limit"`
	MemberLimit  int             `db:"member_limit" json:"member_limit"`
	Description  string          `db:"description" json:"description"`
}

type PlanRequest struct {
	Name         string          `json:"name" binding:"required,max=100"`
	Tier         Tier            `json:"tier" binding:"required,oneof=basic pro elite"`
	Price        decimal.Decimal `json:"price" swaggertype:"string" example:"49.99"`
	DurationDays int             `json:"duration_days" binding:"required,gt=0"`
	GymLimit     int             `json:"gym_limit" binding:"required,gt=0"`
	MemberLimit  int             `json:"member_limit" binding:"required,gt=0"`
	Description  string          `json:"description"`
}

func (r PlanRequest) apply(p *Plan) {
	p.Name = r.Name
	p.Tier = r.Tier
	p.Price = r.Price.Round(2)
	p.DurationDays = r.DurationDays
	p.GymLimit = r.GymLimit
	p.MemberLimit = r.MemberLimit
	p.Description = r.Description
}
