package gym

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gymhub/internal/api"
	"gymhub/internal/auth"
	"gymhub/internal/billing"
	"gymhub/internal/db"
	"gymhub/internal/logger"
	"gymhub/internal/metrics"
	"gymhub/internal/notification"
	"gymhub/internal/payment"
	"gymhub/internal/qr"
	"gymhub/internal/subscription"
	"gymhub/internal/user"

	"github.com/jmoiron/sqlx"
)

const (
	dashboardListSize = 5
	staffHistorySize  = 10
)

// Payments is the part of billing the gym flows need.
type Payments interface {
	ProcessPayment(ctx context.Context, invoiceID, methodID int) (*billing.Invoice, error)
	Totals(ctx context.Context, scope billing.Scope) (*billing.Totals, error)
}

// Feed returns a user's latest notifications.
type Feed interface {
	Latest(ctx context.Context, userID, limit int) ([]notification.Notification, error)
}

type Service interface {
	Register(ctx context.Context, ownerID int, req RegisterGymRequest) (*RegistrationResponse, error)
	PayRegistration(ctx context.Context, gymID, methodID int) (*billing.Invoice, error)
	ListMine(ctx context.Context, userID int, role auth.Role) ([]Gym, error)
	Get(ctx context.Context, id int) (*Gym, error)
	ResolveAccess(ctx context.Context, userID int, role auth.Role, gymID int) (*Access, error)
	// Dashboard leaves out finances unless access can manage them.
	Dashboard(ctx context.Context, access *Access, userID int) (*Dashboard, error)

	CreatePlan(ctx context.Context, gymID int, req PlanRequest) (*Plan, error)
	ListPlans(ctx context.Context, gymID int) ([]Plan, error)

	CreateStaff(ctx context.Context, gymID int, req CreateStaffRequest) (*Staff, error)
	ListStaff(ctx context.Context, gymID int) ([]Staff, error)
	GetStaff(ctx context.Context, gymID, staffID int) (*StaffDetail, error)

	ShareLink(ctx context.Context, gymID int) (*qr.ShareLink, error)

	Search(ctx context.Context, f Filter) ([]Gym, int, error)
	Stats(ctx context.Context) (*PlatformStats, error)
	Recent(ctx context.Context, limit int) ([]Gym, error)
	MemberCount(ctx context.Context, gymID int) (int, error)
	// ExpiringIn lists active gyms whose expiry is exactly one of the given
	// numbers of days away.
	ExpiringIn(ctx context.Context, days ...int) ([]ExpiringGym, error)
}

type service struct {
	db            *sqlx.DB
	repo          Repository
	payments      Payments
	notifications Feed
	publicBaseURL string
	now           func() time.Time
}

func NewService(db *sqlx.DB, repo Repository, payments Payments, notifications Feed, publicBaseURL string) Service {
	return &service{
		db:            db,
		repo:          repo,
		payments:      payments,
		notifications: notifications,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		now:           time.Now,
	}
}

// Register creates a pending gym and its unpaid initial subscription invoice.
// The owner row is locked while the plan's gym limit is checked.
func (s *service) Register(ctx context.Context, ownerID int, req RegisterGymRequest) (*RegistrationResponse, error) {
	plan, err := subscription.FindByID(ctx, s.db, req.SubscriptionPlanID)
	if err != nil {
		return nil, err
	}

	g := NewGym(ownerID, req, plan, s.now())
	var inv *billing.Invoice

	err = db.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		owned, err := countOwnedForUpdate(ctx, tx, ownerID)
		if err != nil {
			return err
		}
		if owned >= plan.GymLimit {
			return ErrGymLimitReached
		}

		if err := Insert(ctx, tx, g); err != nil {
			return err
		}

		cash, err := payment.FindByName(ctx, tx, payment.Cash)
		if err != nil {
			return err
		}
		inv = billing.NewInvoice(g.ID, plan.Price, cash.ID, billing.PurposeInitialSubscription,
			"Initial subscription: "+plan.Name)
		inv.PaymentMethod = cash.Name
		return billing.Insert(ctx, tx, inv)
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordGymRegistered()
	logger.Info("gym registered",
		"gym_id", g.ID,
		"owner_id", ownerID,
		"plan", plan.Tier,
		"invoice_id", inv.ID,
	)
	return &RegistrationResponse{Gym: *g, Invoice: *inv}, nil
}

// PayRegistration pays the initial invoice right away for electronic
// methods. Cash only records the choice; the gym waits for approval.
func (s *service) PayRegistration(ctx context.Context, gymID, methodID int) (*billing.Invoice, error) {
	method, err := payment.FindActiveByID(ctx, s.db, methodID)
	if err != nil {
		return nil, err
	}

	if method.Name.Electronic() {
		inv, err := billing.FindInitial(ctx, s.db, gymID)
		if err != nil {
			return nil, err
		}
		return s.payments.ProcessPayment(ctx, inv.ID, method.ID)
	}

	var inv *billing.Invoice
	err = db.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		var err error
		inv, err = billing.FindInitialForUpdate(ctx, tx, gymID)
		if err != nil {
			return err
		}
		if inv.IsPaid {
			return billing.ErrInvoiceAlreadyPaid
		}
		if err := billing.SetMethod(ctx, tx, inv.ID, method.ID); err != nil {
			return err
		}
		inv.PaymentMethodID = method.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	inv.PaymentMethod = method.Name
	logger.Info("registration payment pending", "gym_id", gymID, "invoice_id", inv.ID, "method", method.Name)
	return inv, nil
}

func (s *service) ListMine(ctx context.Context, userID int, role auth.Role) ([]Gym, error) {
	switch role {
	case auth.RoleGymOwner:
		return s.repo.ListByOwner(ctx, userID)
	case auth.RoleStaff:
		st, err := s.repo.FindStaffByUser(ctx, userID)
		if errors.Is(err, ErrStaffNotFound) {
			return []Gym{}, nil
		}
		if err != nil {
			return nil, err
		}
		if !st.IsActive {
			return []Gym{}, nil
		}
		g, err := s.repo.FindByID(ctx, st.GymID)
		if err != nil {
			return nil, err
		}
		return []Gym{*g}, nil
	}
	return []Gym{}, nil
}

func (s *service) Get(ctx context.Context, id int) (*Gym, error) {
	return s.repo.FindByID(ctx, id)
}

// ResolveAccess answers ErrGymNotFound for gyms the caller is not related
// to, so other tenants' ids are indistinguishable from missing ones.
func (s *service) ResolveAccess(ctx context.Context, userID int, role auth.Role, gymID int) (*Access, error) {
	switch role {
	case auth.RoleGymOwner:
		g, err := s.repo.FindByID(ctx, gymID)
		if err != nil {
			return nil, err
		}
		if g.OwnerID != userID {
			return nil, ErrGymNotFound
		}
		return &Access{Gym: g, Owner: true}, nil

	case auth.RoleStaff:
		st, err := s.repo.FindStaffByUser(ctx, userID)
		if errors.Is(err, ErrStaffNotFound) {
			return nil, ErrGymNotFound
		}
		if err != nil {
			return nil, err
		}
		if st.GymID != gymID || !st.IsActive {
			return nil, ErrGymNotFound
		}
		g, err := s.repo.FindByID(ctx, gymID)
		if err != nil {
			return nil, err
		}
		return &Access{Gym: g, Staff: st}, nil
	}
	return nil, ErrNoGymAccess
}

func (s *service) Dashboard(ctx context.Context, access *Access, userID int) (*Dashboard, error) {
	g := access.Gym
	stats, err := s.repo.MemberStats(ctx, g.ID, api.Today(s.now()))
	if err != nil {
		return nil, fmt.Errorf("member stats: %w", err)
	}

	var totals *billing.Totals
	if access.Can(CapManageFinances) {
		if totals, err = s.payments.Totals(ctx, billing.Scope{GymID: g.ID}); err != nil {
			return nil, fmt.Errorf("finance totals: %w", err)
		}
	}
	recent, err := s.repo.RecentMembers(ctx, g.ID, dashboardListSize)
	if err != nil {
		return nil, fmt.Errorf("recent members: %w", err)
	}
	feed, err := s.notifications.Latest(ctx, userID, dashboardListSize)
	if err != nil {
		return nil, fmt.Errorf("notifications: %w", err)
	}
	if feed == nil {
		feed = []notification.Notification{}
	}

	return &Dashboard{
		Gym:           *g,
		Stats:         *stats,
		Finances:      totals,
		RecentMembers: recent,
		Notifications: feed,
	}, nil
}

func (s *service) CreatePlan(ctx context.Context, gymID int, req PlanRequest) (*Plan, error) {
	p, err := newPlan(gymID, req)
	if err != nil {
		return nil, err
	}
	if err := s.repo.CreatePlan(ctx, p); err != nil {
		return nil, err
	}
	logger.Info("gym plan created", "gym_id", gymID, "plan_id", p.ID, "kind", p.Kind)
	return p, nil
}

func (s *service) ListPlans(ctx context.Context, gymID int) ([]Plan, error) {
	return s.repo.ListPlans(ctx, gymID)
}

// CreateStaff creates the staff login and its staff record together.
func (s *service) CreateStaff(ctx context.Context, gymID int, req CreateStaffRequest) (*Staff, error) {
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	u := &user.User{
		Username:     req.Username,
		Email:        req.Email,
		Phone:        req.Phone,
		PasswordHash: hash,
		Role:         auth.RoleStaff,
		IsApproved:   true,
	}
	st := &Staff{
		GymID:               gymID,
		Username:            req.Username,
		Email:               req.Email,
		Position:            req.Position,
		CanRegisterMembers:  req.CanRegisterMembers,
		CanManageAttendance: req.CanManageAttendance,
		CanManageFinances:   req.CanManageFinances,
		IsActive:            true,
	}

	err = db.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		if err := user.Insert(ctx, tx, u); err != nil {
			if db.IsUniqueViolation(err) {
				return user.ErrEmailExists
			}
			return err
		}
		st.UserID = u.ID
		return insertStaff(ctx, tx, st)
	})
	if err != nil {
		return nil, err
	}

	logger.Info("staff created", "gym_id", gymID, "staff_id", st.ID, "user_id", u.ID)
	return st, nil
}

func (s *service) ListStaff(ctx context.Context, gymID int) ([]Staff, error) {
	return s.repo.ListStaff(ctx, gymID)
}

func (s *service) GetStaff(ctx context.Context, gymID, staffID int) (*StaffDetail, error) {
	st, err := s.repo.FindStaff(ctx, gymID, staffID)
	if err != nil {
		return nil, err
	}
	checkIns, err := s.repo.StaffCheckIns(ctx, st.ID, staffHistorySize)
	if err != nil {
		return nil, err
	}
	return &StaffDetail{Staff: *st, RecentAttendance: checkIns}, nil
}

func (s *service) ShareLink(ctx context.Context, gymID int) (*qr.ShareLink, error) {
	return qr.NewShareLink(fmt.Sprintf("%s/gyms/%d/join", s.publicBaseURL, gymID))
}

func (s *service) Search(ctx context.Context, f Filter) ([]Gym, int, error) {
	return s.repo.Search(ctx, f, api.Today(s.now()))
}

func (s *service) Stats(ctx context.Context) (*PlatformStats, error) {
	return s.repo.PlatformStats(ctx, api.Today(s.now()))
}

func (s *service) Recent(ctx context.Context, limit int) ([]Gym, error) {
	return s.repo.Recent(ctx, limit)
}

func (s *service) MemberCount(ctx context.Context, gymID int) (int, error) {
	return s.repo.MemberCount(ctx, gymID)
}

func (s *service) ExpiringIn(ctx context.Context, days ...int) ([]ExpiringGym, error) {
	today := api.Today(s.now())
	dates := make([]time.Time, len(days))
	for i, d := range days {
		dates[i] = today.AddDate(0, 0, d)
	}
	return s.repo.ListExpiringOn(ctx, dates)
}
