package platform

import (
	"context"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"gymhub/internal/api"
	"gymhub/internal/billing"
	"gymhub/internal/db"
	"gymhub/internal/gym"
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
	dashboardSize      = 5
	recentInvoiceCount = 10
)

type Gyms interface {
	Get(ctx context.Context, id int) (*gym.Gym, error)
	Search(ctx context.Context, f gym.Filter) ([]gym.Gym, int, error)
	Stats(ctx context.Context) (*gym.PlatformStats, error)
	Recent(ctx context.Context, limit int) ([]gym.Gym, error)
	MemberCount(ctx context.Context, gymID int) (int, error)
}

type Books interface {
	Totals(ctx context.Context, scope billing.Scope) (*billing.Totals, error)
	LatestPaid(ctx context.Context, limit int) ([]billing.Invoice, error)
	ListInvoices(ctx context.Context, f billing.InvoiceFilter) ([]billing.Invoice, int, error)
}

type Notifications interface {
	Notify(ctx context.Context, userID int, message string, t notification.Type, link string) (*notification.Notification, error)
	Deliver(ctx context.Context, n notification.Notification)
	Latest(ctx context.Context, userID, limit int) ([]notification.Notification, error)
}

type Owners interface {
	ListGymOwners(ctx context.Context) ([]user.User, error)
}

type Mailer interface {
	SendInvitation(ctx context.Context, to, inviter, note, registrationURL string) error
}

type Service interface {
	Dashboard(ctx context.Context, adminID int) (*Dashboard, error)
	ListGyms(ctx context.Context, f gym.Filter) ([]gym.Gym, int, error)
	GymDetail(ctx context.Context, gymID int) (*GymDetail, error)
	ApproveGym(ctx context.Context, gymID int) (*gym.Gym, error)
	RenewSubscription(ctx context.Context, gymID int) (*billing.Invoice, error)
	Broadcast(ctx context.Context, req BroadcastRequest) (*BroadcastResult, error)
	Settings(ctx context.Context) (*Settings, error)
	UpdateSettings(ctx context.Context, req SettingsRequest) (*Settings, error)
	RegistrationLink(ctx context.Context) (*qr.ShareLink, error)
	Invite(ctx context.Context, req InviteRequest) (*qr.ShareLink, error)
}

type service struct {
	db            *sqlx.DB
	repo          Repository
	gyms          Gyms
	books         Books
	notifications Notifications
	owners        Owners
	mailer        Mailer
	publicBaseURL string
	now           func() time.Time
}

func NewService(db *sqlx.DB, repo Repository, gyms Gyms, books Books, notifications Notifications, owners Owners, mailer Mailer, publicBaseURL string) Service {
	return &service{
		db:            db,
		repo:          repo,
		gyms:          gyms,
		books:         books,
		notifications: notifications,
		owners:        owners,
		mailer:        mailer,
		publicBaseURL: strings.TrimSuffix(publicBaseURL, "/"),
		now:           time.Now,
	}
}

func (s *service) Dashboard(ctx context.Context, adminID int) (*Dashboard, error) {
	stats, err := s.gyms.Stats(ctx)
	if err != nil {
		return nil, err
	}
	totals, err := s.books.Totals(ctx, billing.Scope{})
	if err != nil {
		return nil, err
	}
	recent, err := s.gyms.Recent(ctx, dashboardSize)
	if err != nil {
		return nil, err
	}
	invoices, err := s.books.LatestPaid(ctx, dashboardSize)
	if err != nil {
		return nil, err
	}
	feed, err := s.notifications.Latest(ctx, adminID, dashboardSize)
	if err != nil {
		return nil, err
	}
	if feed == nil {
		feed = []notification.Notification{}
	}

	return &Dashboard{
		Stats:          *stats,
		Finances:       *totals,
		RecentGyms:     recent,
		LatestInvoices: invoices,
		Notifications:  feed,
	}, nil
}

func (s *service) ListGyms(ctx context.Context, f gym.Filter) ([]gym.Gym, int, error) {
	if f.Status == "" {
		f.Status = "all"
	}
	return s.gyms.Search(ctx, f)
}

func (s *service) GymDetail(ctx context.Context, gymID int) (*GymDetail, error) {
	g, err := s.gyms.Get(ctx, gymID)
	if err != nil {
		return nil, err
	}

	members, err := s.gyms.MemberCount(ctx, gymID)
	if err != nil {
		return nil, err
	}

	invoices, _, err := s.books.ListInvoices(ctx, billing.InvoiceFilter{
		GymID: gymID,
		Page:  api.Pagination{Number: 1, Size: recentInvoiceCount},
	})
	if err != nil {
		return nil, err
	}

	plan, err := subscription.FindByID(ctx, s.db, g.SubscriptionPlanID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	return &GymDetail{
		Gym:             *g,
		Status:          g.Status(),
		Plan:            plan,
		MemberCount:     members,
		DaysUntilExpiry: g.DaysUntilExpiry(now),
		RecentInvoices:  invoices,
	}, nil
}

// ApproveGym activates a pending gym and tells its owner. A gym that is
// already active is left alone and no notification is sent.
func (s *service) ApproveGym(ctx context.Context, gymID int) (*gym.Gym, error) {
	var (
		g *gym.Gym
		n *notification.Notification
	)

	err := db.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		var err error
		g, err = gym.Activate(ctx, tx, gymID)
		if err != nil {
			return err
		}

		n = notification.New(g.OwnerID,
			fmt.Sprintf("Your gym %s has been approved!", g.Name),
			notification.TypeSuccess, fmt.Sprintf("/gyms/%d/dashboard", g.ID))
		return notification.Insert(ctx, tx, n)
	})
	if err != nil {
		return nil, err
	}

	s.notifications.Deliver(ctx, *n)
	metrics.RecordGymActivation("approval")
	logger.Info("gym approved", "gym_id", g.ID, "owner_id", g.OwnerID)
	return g, nil
}

// RenewSubscription bills the gym one more period of its plan. The expiry
// moves only when the invoice is paid.
func (s *service) RenewSubscription(ctx context.Context, gymID int) (*billing.Invoice, error) {
	g, err := gym.FindByID(ctx, s.db, gymID)
	if err != nil {
		return nil, err
	}
	plan, err := subscription.FindByID(ctx, s.db, g.SubscriptionPlanID)
	if err != nil {
		return nil, err
	}
	cash, err := payment.FindByName(ctx, s.db, payment.Cash)
	if err != nil {
		return nil, err
	}

	inv := billing.NewInvoice(g.ID, plan.Price, cash.ID, billing.PurposeRenewal,
		fmt.Sprintf("Renewal subscription for %s", g.Name))
	inv.PaymentMethod = cash.Name
	if err := billing.Insert(ctx, s.db, inv); err != nil {
		return nil, err
	}

	if _, err := s.notifications.Notify(ctx, g.OwnerID,
		fmt.Sprintf("A renewal invoice of %s for %s is ready to pay.", inv.Amount.StringFixed(2), g.Name),
		notification.TypeInfo, fmt.Sprintf("/gyms/%d/invoices/%d", g.ID, inv.ID)); err != nil {
		logger.WithError(err).Warn("renewal notification failed", "gym_id", g.ID)
	}

	logger.Info("renewal invoice created", "gym_id", g.ID, "invoice_id", inv.ID, "amount", inv.Amount.String())
	return inv, nil
}

func (s *service) Broadcast(ctx context.Context, req BroadcastRequest) (*BroadcastResult, error) {
	var recipients []int

	switch req.Recipients {
	case RecipientsGym:
		g, err := s.gyms.Get(ctx, req.GymID)
		if err != nil {
			return nil, err
		}
		recipients = []int{g.OwnerID}
	default:
		owners, err := s.owners.ListGymOwners(ctx)
		if err != nil {
			return nil, err
		}
		for _, o := range owners {
			recipients = append(recipients, o.ID)
		}
	}
	if len(recipients) == 0 {
		return nil, ErrNoRecipients
	}

	t := req.Type
	if t == "" {
		t = notification.TypeInfo
	}

	sent := 0
	for _, userID := range recipients {
		if _, err := s.notifications.Notify(ctx, userID, req.Message, t, ""); err != nil {
			return &BroadcastResult{Sent: sent}, err
		}
		sent++
	}

	logger.Info("broadcast sent", "recipients", req.Recipients, "sent", sent)
	return &BroadcastResult{Sent: sent}, nil
}

func (s *service) Settings(ctx context.Context) (*Settings, error) {
	values, err := s.repo.Settings(ctx)
	if err != nil {
		return nil, err
	}
	return settingsFrom(values), nil
}

func (s *service) UpdateSettings(ctx context.Context, req SettingsRequest) (*Settings, error) {
	if _, err := time.LoadLocation(req.Timezone); err != nil {
		return nil, ErrInvalidTimezone
	}

	settings := &Settings{
		Currency:        req.Currency,
		Timezone:        req.Timezone,
		SupportEmail:    req.SupportEmail,
		CompanyName:     req.CompanyName,
		MaintenanceMode: req.MaintenanceMode,
	}
	if err := s.repo.SaveSettings(ctx, settings); err != nil {
		return nil, err
	}

	logger.Info("system settings updated", "currency", settings.Currency, "maintenance_mode", settings.MaintenanceMode)
	return settings, nil
}

func (s *service) RegistrationLink(ctx context.Context) (*qr.ShareLink, error) {
	return qr.NewShareLink(s.publicBaseURL + "/register")
}

// Invite mails the registration link, signed with the company name.
func (s *service) Invite(ctx context.Context, req InviteRequest) (*qr.ShareLink, error) {
	link, err := s.RegistrationLink(ctx)
	if err != nil {
		return nil, err
	}

	settings, err := s.Settings(ctx)
	if err != nil {
		return nil, err
	}
	inviter := settings.CompanyName
	if inviter == "" {
		inviter = "GymHub"
	}

	if err := s.mailer.SendInvitation(ctx, req.Email, inviter, req.Note, link.URL); err != nil {
		return nil, err
	}
	return link, nil
}
