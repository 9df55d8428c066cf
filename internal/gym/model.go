package gym

import (
	"errors"
	"time"

	"gymhub/internal/api"
	"gymhub/internal/billing"
	"gymhub/internal/notification"
	"gymhub/internal/subscription"

	"github.com/shopspring/decimal"
)

var (
	ErrGymNotFound      = errors.New("gym not found")
	ErrGymAlreadyActive = errors.New("gym is already active")
	ErrGymLimitReached  = errors.New("gym limit reached for this subscription plan")
	ErrPlanNotFound     = errors.New("gym plan not found")
	ErrInvalidPlanTerms = errors.New("duration plans need duration_days and session plans need session_count")
	ErrStaffNotFound    = errors.New("staff not found")
	ErrNoGymAccess      = errors.New("no access to this gym")
)

type Gym struct {
	ID                 int       `db:"id" json:"id"`
	OwnerID            int       `db:"owner_id" json:"owner_id"`
	Name               string    `db:"name" json:"name"`
	Address            string    `db:"address" json:"address"`
	Phone              string    `db:"phone" json:"phone"`
	Email              string    `db:"email" json:"email"`
	SubscriptionPlanID int       `db:"subscription_plan_id" json:"subscription_plan_id"`
	RegistrationDate   time.Time `db:"registration_date" json:"registration_date"`
	ExpiryDate         time.Time `db:"expiry_date" json:"expiry_date"`
	IsActive           bool      `db:"is_active" json:"is_active"`
	IsApproved         bool      `db:"is_approved" json:"is_approved"`
}

// NewGym builds a pending gym whose expiry is one plan period after today.
// The expiry is fixed here; later plan edits do not move it.
func NewGym(ownerID int, req RegisterGymRequest, plan *subscription.Plan, now time.Time) *Gym {
	today := api.Today(now)
	return &Gym{
		OwnerID:            ownerID,
		Name:               req.Name,
		Address:            req.Address,
		Phone:              req.Phone,
		Email:              req.Email,
		SubscriptionPlanID: plan.ID,
		RegistrationDate:   today,
		ExpiryDate:         today.AddDate(0, 0, plan.DurationDays),
	}
}

// Activate moves a pending gym to active. There is no way back.
func (g *Gym) Activate() error {
	if g.IsActive {
		return ErrGymAlreadyActive
	}
	g.IsActive = true
	g.IsApproved = true
	return nil
}

func (g *Gym) Status() string {
	if g.IsActive {
		return "active"
	}
	return "pending"
}

// DaysUntilExpiry is negative once the expiry date has passed.
func (g *Gym) DaysUntilExpiry(now time.Time) int {
	return int(g.ExpiryDate.Sub(api.Today(now)).Hours() / 24)
}

type PlanKind string

const (
	KindIndividualDuration PlanKind = "individual_duration"
	KindGroupDuration      PlanKind = "group_duration"
	KindIndividualSession  PlanKind = "individual_session"
	KindGroupSession       PlanKind = "group_session"
)

func (k PlanKind) IsDuration() bool {
	return k == KindIndividualDuration || k == KindGroupDuration
}

func (k PlanKind) IsSession() bool {
	return k == KindIndividualSession || k == KindGroupSession
}

// Plan is a membership plan a gym sells to its members.
type Plan struct {
	ID           int             `db:"id" json:"id"`
	GymID        int             `db:"gym_id" json:"gym_id"`
	Name         string          `db:"name" json:"name"`
	Kind         PlanKind        `db:"kind" json:"kind" swaggertype:"string" enums:"individual_duration,group_duration,individual_session,group_session"`
	Price        decimal.Decimal `db:"price" json:"price" swaggertype:"string" example:"30.00"`
	DurationDays *int            `db:"duration_days" json:"duration_days,omitempty"`
	SessionCount *int            `db:"session_count" json:"session_count,omitempty"`
	Description  string          `db:"description" json:"description"`
}

type PlanRequest struct {
	Name         string          `json:"name" binding:"required,max=100"`
	Kind         PlanKind        `json:"kind" binding:"required,oneof=individual_duration group_duration individual_session group_session"`
	Price        decimal.Decimal `json:"price" swaggertype:"string" example:"30.00"`
	DurationDays *int            `json:"duration_days" binding:"omitempty,gt=0"`
	SessionCount *int            `json:"session_count" binding:"omitempty,gt=0"`
	Description  string          `json:"description"`
}

// newPlan keeps only the term that matches the kind.
func newPlan(gymID int, req PlanRequest) (*Plan, error) {
	if req.Price.IsNegative() {
		return nil, billing.ErrNegativeAmount
	}

	p := &Plan{
		GymID:       gymID,
		Name:        req.Name,
		Kind:        req.Kind,
		Price:       req.Price.Round(2),
		Description: req.Description,
	}
	switch {
	case req.Kind.IsDuration() && req.DurationDays != nil:
		p.DurationDays = req.DurationDays
	case req.Kind.IsSession() && req.SessionCount != nil:
		p.SessionCount = req.SessionCount
	default:
		return nil, ErrInvalidPlanTerms
	}
	return p, nil
}

type Capability string

const (
	CapRegisterMembers  Capability = "can_register_members"
	CapManageAttendance Capability = "can_manage_attendance"
	CapManageFinances   Capability = "can_manage_finances"
)

type Staff struct {
	ID                  int    `db:"id" json:"id"`
	GymID               int    `db:"gym_id" json:"gym_id"`
	UserID              int    `db:"user_id" json:"user_id"`
	Username            string `db:"username" json:"username"`
	Email               string `db:"email" json:"email"`
	Position            string `db:"position" json:"position"`
	CanRegisterMembers  bool   `db:"can_register_members" json:"can_register_members"`
	CanManageAttendance bool   `db:"can_manage_attendance" json:"can_manage_attendance"`
	CanManageFinances   bool   `db:"can_manage_finances" json:"can_manage_finances"`
	IsActive            bool   `db:"is_active" json:"is_active"`
}

func (s *Staff) Can(c Capability) bool {
	if !s.IsActive {
		return false
	}
	switch c {
	case CapRegisterMembers:
		return s.CanRegisterMembers
	case CapManageAttendance:
		return s.CanManageAttendance
	case CapManageFinances:
		return s.CanManageFinances
	}
	return false
}

type CreateStaffRequest struct {
	Username            string `json:"username" binding:"required,max=150"`
	Email               string `json:"email" binding:"required,email"`
	Phone               string `json:"phone" binding:"max=20"`
	Password            string `json:"password" binding:"required,min=8"`
	Position            string `json:"position" binding:"required,max=100"`
	CanRegisterMembers  bool   `json:"can_register_members"`
	CanManageAttendance bool   `json:"can_manage_attendance"`
	CanManageFinances   bool   `json:"can_manage_finances"`
}

type CheckIn struct {
	ID        int       `db:"id" json:"id"`
	Timestamp time.Time `db:"timestamp" json:"timestamp"`
	Method    string    `db:"method" json:"method"`
}

type StaffDetail struct {
	Staff            Staff     `json:"staff"`
	RecentAttendance []CheckIn `json:"recent_attendance"`
}

type RegisterGymRequest struct {
	Name               string `json:"name" binding:"required,max=200"`
	Address            string `json:"address" binding:"required"`
	Phone              string `json:"phone" binding:"required,max=20"`
	Email              string `json:"email" binding:"omitempty,email"`
	SubscriptionPlanID int    `json:"subscription_plan_id" binding:"required,gt=0"`
}

type RegistrationResponse struct {
	Gym     Gym             `json:"gym"`
	Invoice billing.Invoice `json:"invoice"`
}

type PayRegistrationRequest struct {
	PaymentMethodID int `json:"payment_method_id" binding:"required,gt=0"`
}

type MemberSummary struct {
	ID               int        `db:"id" json:"id"`
	Name             string     `db:"name" json:"name"`
	RegistrationDate time.Time  `db:"registration_date" json:"registration_date"`
	ExpiryDate       *time.Time `db:"expiry_date" json:"expiry_date,omitempty"`
	IsActive         bool       `db:"is_active" json:"is_active"`
}

type MemberStats struct {
	ActiveMembers   int `db:"active_members" json:"active_members"`
	ExpiringMembers int `db:"expiring_members" json:"expiring_members"`
	ExpiredMembers  int `db:"expired_members" json:"expired_members"`
	MemberCheckIns  int `db:"member_check_ins" json:"member_check_ins_today"`
	StaffCheckIns   int `db:"staff_check_ins" json:"staff_check_ins_today"`
}

type Dashboard struct {
	Gym           Gym                         `json:"gym"`
	Stats         MemberStats                 `json:"stats"`
	Finances      *billing.Totals             `json:"finances,omitempty"`
	RecentMembers []MemberSummary             `json:"recent_members"`
	Notifications []notification.Notification `json:"notifications"`
}

// ExpiringGym is a gym together with the owner contact used by reminders.
type ExpiringGym struct {
	ID         int       `db:"id"`
	Name       string    `db:"name"`
	ExpiryDate time.Time `db:"expiry_date"`
	OwnerID    int       `db:"owner_id"`
	OwnerName  string    `db:"owner_name"`
	OwnerEmail string    `db:"owner_email"`
}

type Filter struct {
	// Status is one of active, expiring, expired, pending or all.
	Status string
	Search string
	Page   api.Pagination
}

type PlatformStats struct {
	ActiveGyms   int `db:"active_gyms" json:"active_gyms"`
	ExpiringGyms int `db:"expiring_gyms" json:"expiring_gyms"`
	ExpiredGyms  int `db:"expired_gyms" json:"expired_gyms"`
	PendingGyms  int `db:"pending_gyms" json:"pending_gyms"`
}
