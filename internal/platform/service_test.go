package platform

import (
	"context"
	"errors"
	"testing"
	"time"

	"gymhub/internal/api"
	"gymhub/internal/billing"
	"gymhub/internal/gym"
	"gymhub/internal/notification"
	"gymhub/internal/user"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var (
	testNow   = time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)
	gymRow    = []string{"id", "owner_id", "name", "address", "phone", "email", "subscription_plan_id", "registration_date", "expiry_date", "is_active", "is_approved"}
	subRow    = []string{"id", "name", "tier", "price", "duration_days", "gym_limit", "member_limit", "description"}
	methodRow = []string{"id", "name", "is_active", "created_at"}
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Settings(ctx context.Context) (map[string]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]string), args.Error(1)
}

func (m *MockRepository) SaveSettings(ctx context.Context, s *Settings) error {
	return m.Called(ctx, s).Error(0)
}

type MockGyms struct {
	mock.Mock
}

func (m *MockGyms) Get(ctx context.Context, id int) (*gym.Gym, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gym.Gym), args.Error(1)
}

func (m *MockGyms) Search(ctx context.Context, f gym.Filter) ([]gym.Gym, int, error) {
	args := m.Called(ctx, f)
	return args.Get(0).([]gym.Gym), args.Int(1), args.Error(2)
}

func (m *MockGyms) Stats(ctx context.Context) (*gym.PlatformStats, error) {
	args := m.Called(ctx)
	return args.Get(0).(*gym.PlatformStats), args.Error(1)
}

func (m *MockGyms) Recent(ctx context.Context, limit int) ([]gym.Gym, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]gym.Gym), args.Error(1)
}

func (m *MockGyms) MemberCount(ctx context.Context, gymID int) (int, error) {
	args := m.Called(ctx, gymID)
	return args.Int(0), args.Error(1)
}

type MockBooks struct {
	mock.Mock
}

func (m *MockBooks) Totals(ctx context.Context, scope billing.Scope) (*billing.Totals, error) {
	args := m.Called(ctx, scope)
	return args.Get(0).(*billing.Totals), args.Error(1)
}

func (m *MockBooks) LatestPaid(ctx context.Context, limit int) ([]billing.Invoice, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]billing.Invoice), args.Error(1)
}

func (m *MockBooks) ListInvoices(ctx context.Context, f billing.InvoiceFilter) ([]billing.Invoice, int, error) {
	args := m.Called(ctx, f)
	return args.Get(0).([]billing.Invoice), args.Int(1), args.Error(2)
}

type MockNotifications struct {
	mock.Mock
}

func (m *MockNotifications) Notify(ctx context.Context, userID int, message string, t notification.Type, link string) (*notification.Notification, error) {
	args := m.Called(ctx, userID, message, t, link)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*notification.Notification), args.Error(1)
}

func (m *MockNotifications) Deliver(ctx context.Context, n notification.Notification) {
	m.Called(ctx, n)
}

func (m *MockNotifications) Latest(ctx context.Context, userID, limit int) ([]notification.Notification, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]notification.Notification), args.Error(1)
}

type MockOwners struct {
	mock.Mock
}

func (m *MockOwners) ListGymOwners(ctx context.Context) ([]user.User, error) {
	args := m.Called(ctx)
	return args.Get(0).([]user.User), args.Error(1)
}

type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) SendInvitation(ctx context.Context, to, inviter, note, registrationURL string) error {
	return m.Called(ctx, to, inviter, note, registrationURL).Error(0)
}

type fixture struct {
	svc           *service
	mock          sqlmock.Sqlmock
	repo          *MockRepository
	gyms          *MockGyms
	books         *MockBooks
	notifications *MockNotifications
	owners        *MockOwners
	mailer        *MockMailer
}

func newFixture(t *testing.T) *fixture {
	sqlDB, m, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	f := &fixture{
		mock:          m,
		repo:          new(MockRepository),
		gyms:          new(MockGyms),
		books:         new(MockBooks),
		notifications: new(MockNotifications),
		owners:        new(MockOwners),
		mailer:        new(MockMailer),
	}
	f.svc = NewService(sqlx.NewDb(sqlDB, "sqlmock"), f.repo, f.gyms, f.books, f.notifications, f.owners, f.mailer,
		"https://app.gymhub.io/").(*service)
	f.svc.now = func() time.Time { return testNow }
	return f
}

func ironTemple() *gym.Gym {
	return &gym.Gym{
		ID: 9, OwnerID: 3, Name: "Iron Temple", SubscriptionPlanID: 2,
		RegistrationDate: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		ExpiryDate:       time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC),
		IsActive:         true, IsApproved: true,
	}
}

func (f *fixture) expectSubscriptionPlan(id int) {
	f.mock.ExpectQuery(`FROM subscription_plans WHERE id = \$1`).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(subRow).AddRow(id, "Pro", "pro", "49.90", 30, 3, 200, ""))
}

func TestApproveGym(t *testing.T) {
	f := newFixture(t)
	reg := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	f.mock.ExpectBegin()
	f.mock.ExpectQuery(`UPDATE gyms SET is_active = true, is_approved = true WHERE id = \$1 AND is_active = false`).
		WithArgs(9).
		WillReturnRows(sqlmock.NewRows(gymRow).AddRow(9, 3, "Iron Temple", "", "", "", 2, reg, reg.AddDate(0, 0, 30), true, true))
	f.mock.ExpectQuery(`INSERT INTO notifications`).
		WithArgs(3, "Your gym Iron Temple has been approved!", "success", "/gyms/9/dashboard").
		WillReturnRows(sqlmock.NewRows([]string{"id", "is_read", "created_at"}).AddRow(40, false, testNow))
	f.mock.ExpectCommit()
	f.notifications.On("Deliver", mock.Anything, mock.MatchedBy(func(n notification.Notification) bool {
		return n.ID == 40 && n.UserID == 3
	})).Return()

	g, err := f.svc.ApproveGym(context.Background(), 9)

	require.NoError(t, err)
	assert.True(t, g.IsActive)
	assert.True(t, g.IsApproved)
	assert.NoError(t, f.mock.ExpectationsWereMet())
	f.notifications.AssertNumberOfCalls(t, "Deliver", 1)
}

func TestApproveGym_AlreadyActive(t *testing.T) {
	f := newFixture(t)
	reg := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	f.mock.ExpectBegin()
	f.mock.ExpectQuery(`UPDATE gyms SET is_active = true`).WithArgs(9).WillReturnRows(sqlmock.NewRows(gymRow))
	f.mock.ExpectQuery(`FROM gyms WHERE id = \$1`).
		WithArgs(9).
		WillReturnRows(sqlmock.NewRows(gymRow).AddRow(9, 3, "Iron Temple", "", "", "", 2, reg, reg.AddDate(0, 0, 30), true, true))
	f.mock.ExpectRollback()

	_, err := f.svc.ApproveGym(context.Background(), 9)

	assert.ErrorIs(t, err, gym.ErrGymAlreadyActive)
	assert.NoError(t, f.mock.ExpectationsWereMet())
	f.notifications.AssertNotCalled(t, "Deliver", mock.Anything, mock.Anything)
}

func TestApproveGym_Missing(t *testing.T) {
	f := newFixture(t)

	f.mock.ExpectBegin()
	f.mock.ExpectQuery(`UPDATE gyms SET is_active = true`).WithArgs(9).WillReturnRows(sqlmock.NewRows(gymRow))
	f.mock.ExpectQuery(`FROM gyms WHERE id = \$1`).WithArgs(9).WillReturnRows(sqlmock.NewRows(gymRow))
	f.mock.ExpectRollback()

	_, err := f.svc.ApproveGym(context.Background(), 9)

	assert.ErrorIs(t, err, gym.ErrGymNotFound)
}

func TestRenewSubscription(t *testing.T) {
	f := newFixture(t)
	g := ironTemple()

	f.mock.ExpectQuery(`FROM gyms WHERE id = \$1`).
		WithArgs(9).
		WillReturnRows(sqlmock.NewRows(gymRow).AddRow(g.ID, g.OwnerID, g.Name, "", "", "", 2, g.RegistrationDate, g.ExpiryDate, true, true))
	f.expectSubscriptionPlan(2)
	f.mock.ExpectQuery(`FROM payment_methods WHERE name = \$1`).
		WithArgs("cash").
		WillReturnRows(sqlmock.NewRows(methodRow).AddRow(1, "cash", true, testNow))
	f.mock.ExpectQuery(`INSERT INTO invoices`).
		WithArgs(9, "49.9", 1, "renewal", "Renewal subscription for Iron Temple", false, "", nil).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(61, testNow))
	f.notifications.On("Notify", mock.Anything, 3, "A renewal invoice of 49.90 for Iron Temple is ready to pay.",
		notification.TypeInfo, "/gyms/9/invoices/61").Return(&notification.Notification{ID: 1}, nil)

	inv, err := f.svc.RenewSubscription(context.Background(), 9)

	require.NoError(t, err)
	assert.Equal(t, billing.PurposeRenewal, inv.Purpose)
	assert.False(t, inv.IsPaid)
	assert.True(t, decimal.RequireFromString("49.90").Equal(inv.Amount))
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestGymDetail(t *testing.T) {
	f := newFixture(t)
	f.gyms.On("Get", mock.Anything, 9).Return(ironTemple(), nil)
	f.gyms.On("MemberCount", mock.Anything, 9).Return(42, nil)
	f.books.On("ListInvoices", mock.Anything, billing.InvoiceFilter{
		GymID: 9,
		Page:  api.Pagination{Number: 1, Size: recentInvoiceCount},
	}).Return([]billing.Invoice{{ID: 5}}, 1, nil)
	f.expectSubscriptionPlan(2)

	d, err := f.svc.GymDetail(context.Background(), 9)

	require.NoError(t, err)
	assert.Equal(t, 42, d.MemberCount)
	assert.Equal(t, 21, d.DaysUntilExpiry)
	assert.Equal(t, "active", d.Status)
	assert.Equal(t, "Pro", d.Plan.Name)
	assert.Len(t, d.RecentInvoices, 1)
}

func TestDashboard(t *testing.T) {
	f := newFixture(t)
	f.gyms.On("Stats", mock.Anything).Return(&gym.PlatformStats{ActiveGyms: 4, ExpiringGyms: 1}, nil)
	f.books.On("Totals", mock.Anything, billing.Scope{}).Return(&billing.Totals{
		Income: decimal.NewFromInt(500), Expenses: decimal.NewFromInt(120), Net: decimal.NewFromInt(380),
	}, nil)
	f.gyms.On("Recent", mock.Anything, dashboardSize).Return([]gym.Gym{*ironTemple()}, nil)
	f.books.On("LatestPaid", mock.Anything, dashboardSize).Return([]billing.Invoice{}, nil)
	f.notifications.On("Latest", mock.Anything, 1, dashboardSize).Return(nil, nil)

	d, err := f.svc.Dashboard(context.Background(), 1)

	require.NoError(t, err)
	assert.Equal(t, 4, d.Stats.ActiveGyms)
	assert.Equal(t, "380", d.Finances.Net.String())
	assert.NotNil(t, d.Notifications)
}

func TestListGyms_DefaultsToAll(t *testing.T) {
	f := newFixture(t)
	f.gyms.On("Search", mock.Anything, gym.Filter{Status: "all"}).Return([]gym.Gym{}, 0, nil)

	_, _, err := f.svc.ListGyms(context.Background(), gym.Filter{})
	assert.NoError(t, err)
}

func TestBroadcast(t *testing.T) {
	t.Run("all owners", func(t *testing.T) {
		f := newFixture(t)
		f.owners.On("ListGymOwners", mock.Anything).Return([]user.User{{ID: 3}, {ID: 5}}, nil)
		f.notifications.On("Notify", mock.Anything, mock.Anything, "Maintenance tonight", notification.TypeWarning, "").
			Return(&notification.Notification{}, nil)

		res, err := f.svc.Broadcast(context.Background(), BroadcastRequest{
			Recipients: RecipientsAll, Message: "Maintenance tonight", Type: notification.TypeWarning,
		})

		require.NoError(t, err)
		assert.Equal(t, 2, res.Sent)
		f.notifications.AssertNumberOfCalls(t, "Notify", 2)
	})

	t.Run("one gym", func(t *testing.T) {
		f := newFixture(t)
		f.gyms.On("Get", mock.Anything, 9).Return(ironTemple(), nil)
		f.notifications.On("Notify", mock.Anything, 3, "Hello", notification.TypeInfo, "").
			Return(&notification.Notification{}, nil)

		res, err := f.svc.Broadcast(context.Background(), BroadcastRequest{
			Recipients: RecipientsGym, GymID: 9, Message: "Hello",
		})

		require.NoError(t, err)
		assert.Equal(t, 1, res.Sent)
		f.owners.AssertNotCalled(t, "ListGymOwners", mock.Anything)
	})

	t.Run("nobody", func(t *testing.T) {
		f := newFixture(t)
		f.owners.On("ListGymOwners", mock.Anything).Return([]user.User{}, nil)

		_, err := f.svc.Broadcast(context.Background(), BroadcastRequest{Recipients: RecipientsAll, Message: "Hi"})

		assert.ErrorIs(t, err, ErrNoRecipients)
	})

	t.Run("stops on failure", func(t *testing.T) {
		f := newFixture(t)
		f.owners.On("ListGymOwners", mock.Anything).Return([]user.User{{ID: 3}, {ID: 5}}, nil)
		f.notifications.On("Notify", mock.Anything, 3, "Hi", notification.TypeInfo, "").Return(&notification.Notification{}, nil)
		f.notifications.On("Notify", mock.Anything, 5, "Hi", notification.TypeInfo, "").Return(nil, errors.New("db down"))

		res, err := f.svc.Broadcast(context.Background(), BroadcastRequest{Recipients: RecipientsAll, Message: "Hi"})

		assert.Error(t, err)
		assert.Equal(t, 1, res.Sent)
	})
}

func TestSettings(t *testing.T) {
	f := newFixture(t)
	f.repo.On("Settings", mock.Anything).Return(map[string]string{
		"currency": "RWF", "timezone": "Africa/Kigali", "support_email": "help@gymhub.io",
		"company_name": "GymHub", "maintenance_mode": "true",
	}, nil)

	s, err := f.svc.Settings(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "RWF", s.Currency)
	assert.True(t, s.MaintenanceMode)
}

func TestUpdateSettings(t *testing.T) {
	req := SettingsRequest{Currency: "EUR", Timezone: "Europe/Paris", SupportEmail: "a@b.io", CompanyName: "GymHub"}

	t.Run("valid", func(t *testing.T) {
		f := newFixture(t)
		f.repo.On("SaveSettings", mock.Anything, &Settings{
			Currency: "EUR", Timezone: "Europe/Paris", SupportEmail: "a@b.io", CompanyName: "GymHub",
		}).Return(nil)

		s, err := f.svc.UpdateSettings(context.Background(), req)

		require.NoError(t, err)
		assert.Equal(t, "Europe/Paris", s.Timezone)
	})

	t.Run("unknown timezone", func(t *testing.T) {
		f := newFixture(t)
		bad := req
		bad.Timezone = "Mars/Olympus"

		_, err := f.svc.UpdateSettings(context.Background(), bad)

		assert.ErrorIs(t, err, ErrInvalidTimezone)
		f.repo.AssertNotCalled(t, "SaveSettings", mock.Anything, mock.Anything)
	})
}

func TestRegistrationLink(t *testing.T) {
	f := newFixture(t)

	link, err := f.svc.RegistrationLink(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "https://app.gymhub.io/register", link.URL)
	assert.NotEmpty(t, link.QRCode)
}

func TestInvite(t *testing.T) {
	f := newFixture(t)
	f.repo.On("Settings", mock.Anything).Return(map[string]string{"company_name": "GymHub Rwanda"}, nil)
	f.mailer.On("SendInvitation", mock.Anything, "friend@gym.io", "GymHub Rwanda", "Join us", "https://app.gymhub.io/register").
		Return(nil)

	_, err := f.svc.Invite(context.Background(), InviteRequest{Email: "friend@gym.io", Note: "Join us"})

	require.NoError(t, err)
	f.mailer.AssertExpectations(t)
}
