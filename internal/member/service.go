package member

import (
	"context"
	"fmt"
	"time"

	"gymhub/internal/api"
	"gymhub/internal/billing"
	"gymhub/internal/db"
	"gymhub/internal/gym"
	"gymhub/internal/logger"
	"gymhub/internal/metrics"
	"gymhub/internal/notification"
	"gymhub/internal/payment"
	"gymhub/internal/qr"
	"gymhub/internal/storage"
	"gymhub/internal/subscription"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const (
	qrURLExpiry     = 15 * time.Minute
	attendanceLimit = 10
)

type Notifier interface {
	Notify(ctx context.Context, userID int, message string, t notification.Type, link string) (*notification.Notification, error)
}

type Mailer interface {
	SendMemberMessage(ctx context.Context, to, name, gymName, message string) error
}

type Service interface {
	Create(ctx context.Context, g *gym.Gym, req CreateMemberRequest) (*Enrollment, error)
	Get(ctx context.Context, gymID, id int) (*Detail, error)
	List(ctx context.Context, f Filter) ([]Member, int, error)
	Renew(ctx context.Context, gymID, id int, req RenewRequest) (*Enrollment, error)
	Deactivate(ctx context.Context, gymID, id int) (*Member, error)
	Notify(ctx context.Context, g *gym.Gym, id int, req NotifyRequest) error
	QRCodeURL(ctx context.Context, gymID, id int) (*QRCodeResponse, error)
}

type service struct {
	db       *sqlx.DB
	repo     Repository
	store    storage.ObjectStore
	notifier Notifier
	mailer   Mailer
	qrSecret string
	now      func() time.Time
}

func NewService(db *sqlx.DB, repo Repository, store storage.ObjectStore, notifier Notifier, mailer Mailer, qrSecret string) Service {
	return &service{
		db:       db,
		repo:     repo,
		store:    store,
		notifier: notifier,
		mailer:   mailer,
		qrSecret: qrSecret,
		now:      time.Now,
	}
}

// Create enrolls a member in one transaction with the gym row locked, so
// concurrent enrollments cannot overshoot the member limit. The QR image is
// uploaded before commit and removed again if the transaction fails.
func (s *service) Create(ctx context.Context, g *gym.Gym, req CreateMemberRequest) (*Enrollment, error) {
	var (
		m     *Member
		inv   *billing.Invoice
		qrKey string
	)

	err := db.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		locked, err := gym.LockByID(ctx, tx, g.ID)
		if err != nil {
			return err
		}
		sub, err := subscription.FindByID(ctx, tx, locked.SubscriptionPlanID)
		if err != nil {
			return err
		}
		count, err := countByGym(ctx, tx, g.ID)
		if err != nil {
			return err
		}
		if count >= sub.MemberLimit {
			return ErrMemberLimitReached
		}

		var plan *gym.Plan
		if req.PlanID != nil {
			if plan, err = gym.FindPlan(ctx, tx, g.ID, *req.PlanID); err != nil {
				return err
			}
		}

		m = NewMember(g.ID, req, plan, s.now())
		if err := insert(ctx, tx, m); err != nil {
			return err
		}

		if qrKey, err = s.storeQR(ctx, m); err != nil {
			return err
		}
		if err := setQRCode(ctx, tx, m.ID, qrKey); err != nil {
			return err
		}
		m.QRCode = qrKey

		if plan != nil {
			inv, err = s.charge(ctx, tx, m, plan, req.PaymentMethodID)
			return err
		}
		return nil
	})
	if err != nil {
		if qrKey != "" {
			if delErr := s.store.Delete(context.WithoutCancel(ctx), qrKey); delErr != nil {
				logger.WithError(delErr).Warn("failed to remove orphaned qr code", "key", qrKey)
			}
		}
		return nil, err
	}

	metrics.RecordMemberEnrolled()
	if inv != nil {
		metrics.RecordInvoicePaid(string(inv.Purpose), string(inv.PaymentMethod))
	}
	logger.Info("member enrolled", "gym_id", g.ID, "member_id", m.ID, "plan_id", m.PlanID)
	return &Enrollment{Member: *m, Invoice: inv}, nil
}

func (s *service) storeQR(ctx context.Context, m *Member) (string, error) {
	payload, err := SignQR(m, s.qrSecret)
	if err != nil {
		return "", err
	}
	png, err := qr.PNG(payload, qr.DefaultSize)
	if err != nil {
		return "", err
	}
	key := qrObjectKey(m.GymID, m.ID)
	if err := s.store.Put(ctx, key, png, "image/png"); err != nil {
		return "", err
	}
	return key, nil
}

// charge records the plan price as a paid membership invoice. Without an
// explicit method the payment is taken as cash.
func (s *service) charge(ctx context.Context, tx *sqlx.Tx, m *Member, plan *gym.Plan, methodID int) (*billing.Invoice, error) {
	var (
		method *payment.Method
		err    error
	)
	if methodID == 0 {
		method, err = payment.FindByName(ctx, tx, payment.Cash)
	} else {
		method, err = payment.FindActiveByID(ctx, tx, methodID)
	}
	if err != nil {
		return nil, err
	}

	inv := billing.NewInvoice(m.GymID, plan.Price, method.ID, billing.PurposeMembership,
		fmt.Sprintf("Membership: %s for %s", plan.Name, m.Name))
	if err := inv.MarkPaid(method.ID, uuid.NewString(), s.now()); err != nil {
		return nil, err
	}
	inv.PaymentMethod = method.Name
	if err := billing.Insert(ctx, tx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

func (s *service) Get(ctx context.Context, gymID, id int) (*Detail, error) {
	m, err := s.repo.FindByID(ctx, gymID, id)
	if err != nil {
		return nil, err
	}
	checkIns, err := s.repo.RecentAttendance(ctx, m.ID, attendanceLimit)
	if err != nil {
		return nil, err
	}
	return &Detail{Member: *m, Status: m.Status(s.now()), RecentAttendance: checkIns}, nil
}

func (s *service) List(ctx context.Context, f Filter) ([]Member, int, error) {
	return s.repo.List(ctx, f, api.Today(s.now()))
}

// Renew restarts the member's plan terms from today and charges the plan
// price. The QR code is kept.
func (s *service) Renew(ctx context.Context, gymID, id int, req RenewRequest) (*Enrollment, error) {
	var (
		m   *Member
		inv *billing.Invoice
	)

	err := db.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		var err error
		m, err = findForUpdate(ctx, tx, gymID, id)
		if err != nil {
			return err
		}
		if m.PlanID == nil {
			return ErrNoPlan
		}
		plan, err := gym.FindPlan(ctx, tx, gymID, *m.PlanID)
		if err != nil {
			return err
		}

		m.Renew(plan, s.now())
		if err := saveTerms(ctx, tx, m); err != nil {
			return err
		}
		inv, err = s.charge(ctx, tx, m, plan, req.PaymentMethodID)
		return err
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordInvoicePaid(string(inv.Purpose), string(inv.PaymentMethod))
	logger.Info("membership renewed", "gym_id", gymID, "member_id", id, "invoice_id", inv.ID)
	return &Enrollment{Member: *m, Invoice: inv}, nil
}

func (s *service) Deactivate(ctx context.Context, gymID, id int) (*Member, error) {
	m, err := s.repo.FindByID(ctx, gymID, id)
	if err != nil {
		return nil, err
	}
	if err := m.Deactivate(); err != nil {
		return nil, err
	}
	if err := s.repo.Deactivate(ctx, gymID, id); err != nil {
		return nil, err
	}
	logger.Info("member deactivated", "gym_id", gymID, "member_id", id)
	return m, nil
}

// Notify leaves a record of the message in the owner's feed and emails the
// member when an address is on file.
func (s *service) Notify(ctx context.Context, g *gym.Gym, id int, req NotifyRequest) error {
	m, err := s.repo.FindByID(ctx, g.ID, id)
	if err != nil {
		return err
	}

	_, err = s.notifier.Notify(ctx, g.OwnerID,
		fmt.Sprintf("Message sent to %s: %s", m.Name, req.Message),
		notification.TypeInfo,
		fmt.Sprintf("/gyms/%d/members/%d", g.ID, m.ID))
	if err != nil {
		return err
	}

	if m.Email != nil && *m.Email != "" {
		if err := s.mailer.SendMemberMessage(ctx, *m.Email, m.Name, g.Name, req.Message); err != nil {
			return err
		}
	}
	return nil
}

func (s *service) QRCodeURL(ctx context.Context, gymID, id int) (*QRCodeResponse, error) {
	m, err := s.repo.FindByID(ctx, gymID, id)
	if err != nil {
		return nil, err
	}
	if m.QRCode == "" {
		return nil, ErrNoQRCode
	}

	url, err := s.store.PresignedURL(ctx, m.QRCode, qrURLExpiry)
	if err != nil {
		return nil, err
	}
	return &QRCodeResponse{URL: url, ExpiresIn: int(qrURLExpiry.Seconds())}, nil
}
