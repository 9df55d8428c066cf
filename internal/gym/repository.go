package gym

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const gymColumns = `id, owner_id, name, address, phone, email, subscription_plan_id, registration_date, expiry_date, is_active, is_approved`

const planColumns = `id, gym_id, name, kind, price, duration_days, session_count, description`

const staffSelect = `
	SELECT s.id, s.gym_id, s.user_id, u.username, u.email, s.position,
	       s.can_register_members, s.can_manage_attendance, s.can_manage_finances, s.is_active
	FROM staff s
	JOIN users u ON u.id = s.user_id`

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func Insert(ctx context.Context, q sqlx.QueryerContext, g *Gym) error {
	query := `
		INSERT INTO gyms (owner_id, name, address, phone, email, subscription_plan_id, registration_date, expiry_date, is_active, is_approved)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`
	return q.QueryRowxContext(ctx, query,
		g.OwnerID, g.Name, g.Address, g.Phone, g.Email, g.SubscriptionPlanID,
		g.RegistrationDate, g.ExpiryDate, g.IsActive, g.IsApproved,
	).Scan(&g.ID)
}

func FindByID(ctx context.Context, q sqlx.QueryerContext, id int) (*Gym, error) {
	return findGym(ctx, q, id, "")
}

// LockByID loads the gym and holds its row lock until the transaction ends.
func LockByID(ctx context.Context, q sqlx.QueryerContext, id int) (*Gym, error) {
	return findGym(ctx, q, id, " FOR UPDATE")
}

func findGym(ctx context.Context, q sqlx.QueryerContext, id int, lock string) (*Gym, error) {
	var g Gym
	if err := sqlx.GetContext(ctx, q, &g, `SELECT `+gymColumns+` FROM gyms WHERE id = $1`+lock, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGymNotFound
		}
		return nil, err
	}
	return &g, nil
}

// Activate flips a pending gym to active and approved. The update is guarded
// on is_active so concurrent callers cannot both succeed.
func Activate(ctx context.Context, q sqlx.QueryerContext, id int) (*Gym, error) {
	query := `
		UPDATE gyms SET is_active = true, is_approved = true
		WHERE id = $1 AND is_active = false
		RETURNING ` + gymColumns
	var g Gym
	err := sqlx.GetContext(ctx, q, &g, query, id)
	if err == nil {
		return &g, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	if _, err := FindByID(ctx, q, id); err != nil {
		return nil, err
	}
	return nil, ErrGymAlreadyActive
}

// ExtendExpiry adds one period of the gym's plan to the later of its expiry
// date and today.
func ExtendExpiry(ctx context.Context, q sqlx.QueryerContext, id int, today time.Time) (*Gym, error) {
	query := `
		UPDATE gyms g
		SET expiry_date = GREATEST(g.expiry_date, $2::date) + p.duration_days
		FROM subscription_plans p
		WHERE g.id = $1 AND p.id = g.subscription_plan_id
		RETURNING g.id, g.owner_id, g.name, g.address, g.phone, g.email, g.subscription_plan_id,
		          g.registration_date, g.expiry_date, g.is_active, g.is_approved
	`
	var g Gym
	if err := sqlx.GetContext(ctx, q, &g, query, id, today); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGymNotFound
		}
		return nil, err
	}
	return &g, nil
}

// FindPlan loads a membership plan only if it belongs to gymID.
func FindPlan(ctx context.Context, q sqlx.QueryerContext, gymID, planID int) (*Plan, error) {
	var p Plan
	err := sqlx.GetContext(ctx, q, &p, `SELECT `+planColumns+` FROM gym_plans WHERE id = $1 AND gym_id = $2`, planID, gymID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	return &p, nil
}

// FindStaff loads a staff record only if it belongs to gymID.
func FindStaff(ctx context.Context, q sqlx.QueryerContext, gymID, staffID int) (*Staff, error) {
	var s Staff
	if err := sqlx.GetContext(ctx, q, &s, staffSelect+` WHERE s.id = $1 AND s.gym_id = $2`, staffID, gymID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStaffNotFound
		}
		return nil, err
	}
	return &s, nil
}

func insertStaff(ctx context.Context, q sqlx.QueryerContext, s *Staff) error {
	query := `
		INSERT INTO staff (gym_id, user_id, position, can_register_members, can_manage_attendance, can_manage_finances, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	return q.QueryRowxContext(ctx, query,
		s.GymID, s.UserID, s.Position, s.CanRegisterMembers, s.CanManageAttendance, s.CanManageFinances, s.IsActive,
	).Scan(&s.ID)
}

// countOwnedForUpdate locks the owner's user row so concurrent registrations
// see each other's gyms when checking the plan's gym limit.
func countOwnedForUpdate(ctx context.Context, q sqlx.QueryerContext, ownerID int) (int, error) {
	var locked int
	if err := sqlx.GetContext(ctx, q, &locked, `SELECT id FROM users WHERE id = $1 FOR UPDATE`, ownerID); err != nil {
		return 0, err
	}
	var n int
	err := sqlx.GetContext(ctx, q, &n, `SELECT COUNT(*) FROM gyms WHERE owner_id = $1`, ownerID)
	return n, err
}

func (r *repository) FindByID(ctx context.Context, id int) (*Gym, error) {
	return FindByID(ctx, r.db, id)
}

func (r *repository) ListByOwner(ctx context.Context, ownerID int) ([]Gym, error) {
	gyms := []Gym{}
	err := r.db.SelectContext(ctx, &gyms, `SELECT `+gymColumns+` FROM gyms WHERE owner_id = $1 ORDER BY id`, ownerID)
	return gyms, err
}

// statusCondition returns the WHERE fragment for a status filter. Fragments
// that compare against today use $1.
func statusCondition(status string) (cond string, usesToday bool) {
	switch status {
	case "active":
		return "is_active = true AND expiry_date >= $1", true
	case "expiring":
		return "is_active = true AND expiry_date BETWEEN $1 AND $1::date + 30", true
	case "expired":
		return "is_active = true AND expiry_date < $1", true
	case "pending":
		return "is_active = false", false
	}
	return "", false
}

func (r *repository) Search(ctx context.Context, f Filter, today time.Time) ([]Gym, int, error) {
	var (
		conds []string
		args  []interface{}
	)
	if cond, usesToday := statusCondition(f.Status); cond != "" {
		if usesToday {
			args = append(args, today)
		}
		conds = append(conds, cond)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		args = append(args, "%"+s+"%")
		conds = append(conds, fmt.Sprintf("(name ILIKE $%d OR email ILIKE $%d)", len(args), len(args)))
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM gyms`+where, args...); err != nil {
		return nil, 0, err
	}

	args = append(args, f.Page.Size, f.Page.Offset())
	query := `SELECT ` + gymColumns + ` FROM gyms` + where +
		fmt.Sprintf(` ORDER BY registration_date DESC, id DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	gyms := []Gym{}
	if err := r.db.SelectContext(ctx, &gyms, query, args...); err != nil {
		return nil, 0, err
	}
	return gyms, total, nil
}

func (r *repository) Recent(ctx context.Context, limit int) ([]Gym, error) {
	gyms := []Gym{}
	err := r.db.SelectContext(ctx, &gyms,
		`SELECT `+gymColumns+` FROM gyms ORDER BY registration_date DESC, id DESC LIMIT $1`, limit)
	return gyms, err
}

func (r *repository) PlatformStats(ctx context.Context, today time.Time) (*PlatformStats, error) {
	query := `
		SELECT
			COUNT(*) FILTER (WHERE is_active AND expiry_date >= $1) AS active_gyms,
			COUNT(*) FILTER (WHERE is_active AND expiry_date BETWEEN $1 AND $1::date + 30) AS expiring_gyms,
			COUNT(*) FILTER (WHERE is_active AND expiry_date < $1) AS expired_gyms,
			COUNT(*) FILTER (WHERE NOT is_active) AS pending_gyms
		FROM gyms
	`
	var s PlatformStats
	if err := r.db.GetContext(ctx, &s, query, today); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *repository) ListExpiringOn(ctx context.Context, dates []time.Time) ([]ExpiringGym, error) {
	query := `
		SELECT g.id, g.name, g.expiry_date, g.owner_id, u.username AS owner_name, u.email AS owner_email
		FROM gyms g
		JOIN users u ON u.id = g.owner_id
		WHERE g.is_active = true AND g.expiry_date = ANY($1::date[])
		ORDER BY g.expiry_date, g.id
	`
	days := make([]string, len(dates))
	for i, d := range dates {
		days[i] = d.Format("2006-01-02")
	}

	gyms := []ExpiringGym{}
	err := r.db.SelectContext(ctx, &gyms, query, pq.Array(days))
	return gyms, err
}

func (r *repository) CreatePlan(ctx context.Context, p *Plan) error {
	query := `
		INSERT INTO gym_plans (gym_id, name, kind, price, duration_days, session_count, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	return r.db.QueryRowxContext(ctx, query,
		p.GymID, p.Name, p.Kind, p.Price, p.DurationDays, p.SessionCount, p.Description,
	).Scan(&p.ID)
}

func (r *repository) ListPlans(ctx context.Context, gymID int) ([]Plan, error) {
	plans := []Plan{}
	err := r.db.SelectContext(ctx, &plans, `SELECT `+planColumns+` FROM gym_plans WHERE gym_id = $1 ORDER BY price, id`, gymID)
	return plans, err
}

func (r *repository) FindStaffByUser(ctx context.Context, userID int) (*Staff, error) {
	var s Staff
	if err := r.db.GetContext(ctx, &s, staffSelect+` WHERE s.user_id = $1`, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStaffNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *repository) FindStaff(ctx context.Context, gymID, staffID int) (*Staff, error) {
	return FindStaff(ctx, r.db, gymID, staffID)
}

func (r *repository) ListStaff(ctx context.Context, gymID int) ([]Staff, error) {
	staff := []Staff{}
	err := r.db.SelectContext(ctx, &staff, staffSelect+` WHERE s.gym_id = $1 ORDER BY s.id`, gymID)
	return staff, err
}

func (r *repository) StaffCheckIns(ctx context.Context, staffID, limit int) ([]CheckIn, error) {
	checkIns := []CheckIn{}
	err := r.db.SelectContext(ctx, &checkIns, `
		SELECT id, timestamp, method FROM attendance
		WHERE staff_id = $1
		ORDER BY timestamp DESC
		LIMIT $2
	`, staffID, limit)
	return checkIns, err
}

// MemberStats counts members by expiry state and today's check-ins. Members
// "expiring" have an expiry date within the next 7 days.
func (r *repository) MemberStats(ctx context.Context, gymID int, today time.Time) (*MemberStats, error) {
	var s MemberStats
	err := r.db.GetContext(ctx, &s, `
		SELECT
			COUNT(*) FILTER (WHERE is_active) AS active_members,
			COUNT(*) FILTER (WHERE is_active AND expiry_date BETWEEN $2 AND $2::date + 7) AS expiring_members,
			COUNT(*) FILTER (WHERE is_active AND expiry_date < $2) AS expired_members
		FROM members
		WHERE gym_id = $1
	`, gymID, today)
	if err != nil {
		return nil, err
	}

	err = r.db.QueryRowxContext(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE kind = 'member'),
			COUNT(*) FILTER (WHERE kind = 'staff')
		FROM attendance
		WHERE gym_id = $1 AND timestamp >= $2 AND timestamp < $3
	`, gymID, today, today.AddDate(0, 0, 1)).Scan(&s.MemberCheckIns, &s.StaffCheckIns)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *repository) MemberCount(ctx context.Context, gymID int) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM members WHERE gym_id = $1`, gymID)
	return n, err
}

func (r *repository) RecentMembers(ctx context.Context, gymID, limit int) ([]MemberSummary, error) {
	members := []MemberSummary{}
	err := r.db.SelectContext(ctx, &members, `
		SELECT id, name, registration_date, expiry_date, is_active
		FROM members
		WHERE gym_id = $1
		ORDER BY registration_date DESC, id DESC
		LIMIT $2
	`, gymID, limit)
	return members, err
}
