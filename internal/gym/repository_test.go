package gym

import (
	"context"
	"regexp"
	"testing"
	"time"

	"gymhub/internal/api"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var gymRow = []string{"id", "owner_id", "name", "address", "phone", "email", "subscription_plan_id", "registration_date", "expiry_date", "is_active", "is_approved"}

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

func addGym(rows *sqlmock.Rows, id, ownerID int, active bool) *sqlmock.Rows {
	reg := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	return rows.AddRow(id, ownerID, "Iron Temple", "1 Main St", "0788", "", 2, reg, reg.AddDate(0, 0, 30), active, active)
}

func TestActivate(t *testing.T) {
	update := `UPDATE gyms SET is_active = true, is_approved = true\s+WHERE id = \$1 AND is_active = false`

	t.Run("pending gym", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(update).WithArgs(9).WillReturnRows(addGym(sqlmock.NewRows(gymRow), 9, 3, true))

		g, err := Activate(context.Background(), db, 9)
		require.NoError(t, err)
		assert.True(t, g.IsActive)
		assert.Equal(t, 3, g.OwnerID)
	})

	t.Run("already active", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(update).WithArgs(9).WillReturnRows(sqlmock.NewRows(gymRow))
		mock.ExpectQuery(regexp.QuoteMeta("FROM gyms WHERE id = $1")).WithArgs(9).
			WillReturnRows(addGym(sqlmock.NewRows(gymRow), 9, 3, true))

		_, err := Activate(context.Background(), db, 9)
		assert.ErrorIs(t, err, ErrGymAlreadyActive)
	})

	t.Run("missing", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(update).WithArgs(9).WillReturnRows(sqlmock.NewRows(gymRow))
		mock.ExpectQuery(regexp.QuoteMeta("FROM gyms WHERE id = $1")).WithArgs(9).
			WillReturnRows(sqlmock.NewRows(gymRow))

		_, err := Activate(context.Background(), db, 9)
		assert.ErrorIs(t, err, ErrGymNotFound)
	})
}

func TestExtendExpiry(t *testing.T) {
	db, mock := newMockDB(t)
	today := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("SET expiry_date = GREATEST(g.expiry_date, $2::date) + p.duration_days")).
		WithArgs(9, today).
		WillReturnRows(addGym(sqlmock.NewRows(gymRow), 9, 3, true))

	g, err := ExtendExpiry(context.Background(), db, 9, today)
	require.NoError(t, err)
	assert.Equal(t, 3, g.OwnerID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindPlanScopedToGym(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM gym_plans WHERE id = $1 AND gym_id = $2")).
		WithArgs(7, 9).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := FindPlan(context.Background(), db, 9, 7)
	assert.ErrorIs(t, err, ErrPlanNotFound)
}

func TestSearch(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRepository(db)
	today := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM gyms WHERE is_active = true AND expiry_date BETWEEN $1 AND $1::date + 30 AND (name ILIKE $2 OR email ILIKE $2)")).
		WithArgs(today, "%iron%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta("LIMIT $3 OFFSET $4")).
		WithArgs(today, "%iron%", 10, 0).
		WillReturnRows(addGym(sqlmock.NewRows(gymRow), 9, 3, true))

	gyms, total, err := repo.Search(context.Background(), Filter{
		Status: "expiring",
		Search: " iron ",
		Page:   api.Pagination{Number: 1, Size: 10},
	}, today)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Len(t, gyms, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchAll(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRepository(db)

	mock.ExpectQuery(`^SELECT COUNT\(\*\) FROM gyms$`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(regexp.QuoteMeta("LIMIT $1 OFFSET $2")).
		WithArgs(10, 10).
		WillReturnRows(sqlmock.NewRows(gymRow))

	gyms, total, err := repo.Search(context.Background(), Filter{Status: "all", Page: api.Pagination{Number: 2, Size: 10}}, time.Now())
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.NotNil(t, gyms)
}

func TestListExpiringOn(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRepository(db)
	d7 := time.Date(2025, 3, 17, 0, 0, 0, 0, time.UTC)
	d1 := time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("g.expiry_date = ANY($1::date[])")).
		WithArgs(pq.Array([]string{"2025-03-17", "2025-03-11"})).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "expiry_date", "owner_id", "owner_name", "owner_email"}).
			AddRow(9, "Iron Temple", d1, 3, "ironowner", "owner@gym.io"))

	gyms, err := repo.ListExpiringOn(context.Background(), []time.Time{d7, d1})
	require.NoError(t, err)
	require.Len(t, gyms, 1)
	assert.Equal(t, "owner@gym.io", gyms[0].OwnerEmail)
}

func TestMemberStats(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRepository(db)
	today := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`FROM members\s+WHERE gym_id = \$1`).
		WithArgs(9, today).
		WillReturnRows(sqlmock.NewRows([]string{"active_members", "expiring_members", "expired_members"}).AddRow(20, 3, 2))
	mock.ExpectQuery(`FROM attendance\s+WHERE gym_id = \$1 AND timestamp >= \$2 AND timestamp < \$3`).
		WithArgs(9, today, today.AddDate(0, 0, 1)).
		WillReturnRows(sqlmock.NewRows([]string{"m", "s"}).AddRow(14, 4))

	stats, err := repo.MemberStats(context.Background(), 9, today)
	require.NoError(t, err)
	assert.Equal(t, MemberStats{ActiveMembers: 20, ExpiringMembers: 3, ExpiredMembers: 2, MemberCheckIns: 14, StaffCheckIns: 4}, *stats)
}
