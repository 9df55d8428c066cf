package member

import (
	"errors"
	"time"

	"gymhub/internal/api"
	"gymhub/internal/billing"
	"gymhub/internal/gym"
)

var (
	ErrMemberNotFound        = errors.New("member not found")
	ErrMemberLimitReached    = errors.New("member limit reached for this subscription plan")
	ErrMemberAlreadyInactive = errors.New("member is already inactive")
	ErrNoPlan                = errors.New("member has no plan to renew")
	ErrNoQRCode              = errors.New("member has no qr code")
)

type Type string

const (
	TypeIndividual Type = "individual"
	TypeGroup      Type = "group"
)

type Member struct {
	ID                int        `db:"id" json:"id"`
	GymID             int        `db:"gym_id" json:"gym_id"`
	Name              string     `db:"name" json:"name"`
	Email             *string    `db:"email" json:"email,omitempty"`
	Phone             string     `db:"phone" json:"phone"`
	Gender            string     `db:"gender" json:"gender"`
	MemberType        Type       `db:"member_type" json:"member_type" swaggertype:"string" enums:"individual,group"`
	PlanID            *int       `db:"plan_id" json:"plan_id,omitempty"`
	PlanName          *string    `db:"plan_name" json:"plan_name,omitempty"`
	RegistrationDate  time.Time  `db:"registration_date" json:"registration_date"`
	ExpiryDate        *time.Time `db:"expiry_date" json:"expiry_date,omitempty"`
	SessionsRemaining *int       `db:"sessions_remaining" json:"sessions_remaining,omitempty"`
	IsActive          bool       `db:"is_active" json:"is_active"`
	QRCode            string     `db:"qr_code" json:"-"`
}

// NewMember builds an active member on plan p, which may be nil.
func NewMember(gymID int, req CreateMemberRequest, p *gym.Plan, now time.Time) *Member {
	m := &Member{
		GymID:            gymID,
		Name:             req.Name,
		Phone:            req.Phone,
		Gender:           req.Gender,
		MemberType:       req.MemberType,
		RegistrationDate: api.Today(now),
		IsActive:         true,
	}
	if req.Email != "" {
		email := req.Email
		m.Email = &email
	}
	if p != nil {
		m.applyPlan(p, now)
	}
	return m
}

// applyPlan sets exactly one of expiry date and remaining sessions from p.
func (m *Member) applyPlan(p *gym.Plan, now time.Time) {
	planID, planName := p.ID, p.Name
	m.PlanID = &planID
	m.PlanName = &planName
	m.ExpiryDate = nil
	m.SessionsRemaining = nil

	switch {
	case p.Kind.IsDuration() && p.DurationDays != nil:
		expiry := api.Today(now).AddDate(0, 0, *p.DurationDays)
		m.ExpiryDate = &expiry
	case p.Kind.IsSession() && p.SessionCount != nil:
		sessions := *p.SessionCount
		m.SessionsRemaining = &sessions
	}
}

// Renew reactivates the member and restarts the terms of p from today.
func (m *Member) Renew(p *gym.Plan, now time.Time) {
	m.applyPlan(p, now)
	m.IsActive = true
}

func (m *Member) Deactivate() error {
	if !m.IsActive {
		return ErrMemberAlreadyInactive
	}
	m.IsActive = false
	return nil
}

// Status is inactive, expired (past expiry or out of sessions) or active.
func (m *Member) Status(now time.Time) string {
	switch {
	case !m.IsActive:
		return "inactive"
	case m.ExpiryDate != nil && m.ExpiryDate.Before(api.Today(now)):
		return "expired"
	case m.SessionsRemaining != nil && *m.SessionsRemaining <= 0:
		return "expired"
	}
	return "active"
}

type CreateMemberRequest struct {
	Name            string `json:"name" binding:"required,max=100"`
	Email           string `json:"email" binding:"omitempty,email"`
	Phone           string `json:"phone" binding:"required,max=20"`
	Gender          string `json:"gender" binding:"required,oneof=male female other"`
	MemberType      Type   `json:"member_type" binding:"required,oneof=individual group"`
	PlanID          *int   `json:"plan_id" binding:"omitempty,gt=0"`
	PaymentMethodID int    `json:"payment_method_id" binding:"omitempty,gt=0"`
}

type RenewRequest struct {
	PaymentMethodID int `json:"payment_method_id" binding:"omitempty,gt=0"`
}

type NotifyRequest struct {
	Message string `json:"message" binding:"required,max=500"`
}

// Enrollment is a member with the invoice charged for its plan, if any.
type Enrollment struct {
	Member  Member           `json:"member"`
	Invoice *billing.Invoice `json:"invoice,omitempty"`
}

type Detail struct {
	Member           Member        `json:"member"`
	Status           string        `json:"status"`
	RecentAttendance []gym.CheckIn `json:"recent_attendance"`
}

type QRCodeResponse struct {
	URL       string `json:"url"`
	ExpiresIn int    `json:"expires_in" example:"900"`
}

type Filter struct {
	GymID int
	// Status is active, expired, inactive or empty for all.
	Status string
	Search string
	Page   api.Pagination
}
