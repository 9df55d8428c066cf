package member

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"gymhub/internal/gym"

	"github.com/jmoiron/sqlx"
)

const memberSelect = `
	SELECT m.id, m.gym_id, m.name, m.email, m.phone, m.gender, m.member_type, m.plan_id, p.name AS plan_name,
	       m.registration_date, m.expiry_date, m.sessions_remaining, m.is_active, m.qr_code
	FROM members m
	LEFT JOIN gym_plans p ON p.id = m.plan_id`

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func insert(ctx context.Context, q sqlx.QueryerContext, m *Member) error {
	query := `
		INSERT INTO members (gym_id, name, email, phone, gender, member_type, plan_id, registration_date, expiry_date, sessions_remaining, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`
	return q.QueryRowxContext(ctx, query,
		m.GymID, m.Name, m.Email, m.Phone, m.Gender, m.MemberType, m.PlanID,
		m.RegistrationDate, m.ExpiryDate, m.SessionsRemaining, m.IsActive,
	).Scan(&m.ID)
}

func setQRCode(ctx context.Context, q sqlx.ExecerContext, id int, key string) error {
	_, err := q.ExecContext(ctx, `UPDATE members SET qr_code = $1 WHERE id = $2`, key, id)
	return err
}

func countByGym(ctx context.Context, q sqlx.QueryerContext, gymID int) (int, error) {
	var n int
	err := sqlx.GetContext(ctx, q, &n, `SELECT COUNT(*) FROM members WHERE gym_id = $1`, gymID)
	return n, err
}

// FindByID loads a member of gymID. Members of other gyms are not found.
func FindByID(ctx context.Context, q sqlx.QueryerContext, gymID, id int) (*Member, error) {
	return findMember(ctx, q, gymID, id, "")
}

func findForUpdate(ctx context.Context, q sqlx.QueryerContext, gymID, id int) (*Member, error) {
	return findMember(ctx, q, gymID, id, " FOR UPDATE OF m")
}

func findMember(ctx context.Context, q sqlx.QueryerContext, gymID, id int, lock string) (*Member, error) {
	var m Member
	err := sqlx.GetContext(ctx, q, &m, memberSelect+` WHERE m.id = $1 AND m.gym_id = $2`+lock, id, gymID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMemberNotFound
		}
		return nil, err
	}
	return &m, nil
}

func saveTerms(ctx context.Context, q sqlx.ExecerContext, m *Member) error {
	_, err := q.ExecContext(ctx, `
		UPDATE members
		SET is_active = $1, expiry_date = $2, sessions_remaining = $3
		WHERE id = $4
	`, m.IsActive, m.ExpiryDate, m.SessionsRemaining, m.ID)
	return err
}

func (r *repository) FindByID(ctx context.Context, gymID, id int) (*Member, error) {
	return FindByID(ctx, r.db, gymID, id)
}

func (r *repository) List(ctx context.Context, f Filter, today time.Time) ([]Member, int, error) {
	conds := []string{"m.gym_id = $1"}
	args := []interface{}{f.GymID}

	switch f.Status {
	case "active":
		args = append(args, today)
		conds = append(conds, fmt.Sprintf(
			"m.is_active = true AND (m.expiry_date IS NULL OR m.expiry_date >= $%d) AND (m.sessions_remaining IS NULL OR m.sessions_remaining > 0)", len(args)))
	case "expired":
		args = append(args, today)
		conds = append(conds, fmt.Sprintf(
			"m.is_active = true AND (m.expiry_date < $%d OR m.sessions_remaining <= 0)", len(args)))
	case "inactive":
		conds = append(conds, "m.is_active = false")
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		args = append(args, "%"+s+"%")
		conds = append(conds, fmt.Sprintf("(m.name ILIKE $%d OR m.phone ILIKE $%d OR m.email ILIKE $%d)", len(args), len(args), len(args)))
	}
	where := " WHERE " + strings.Join(conds, " AND ")

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM members m`+where, args...); err != nil {
		return nil, 0, err
	}

	args = append(args, f.Page.Size, f.Page.Offset())
	query := memberSelect + where +
		fmt.Sprintf(` ORDER BY m.registration_date DESC, m.id DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	members := []Member{}
	if err := r.db.SelectContext(ctx, &members, query, args...); err != nil {
		return nil, 0, err
	}
	return members, total, nil
}

// Deactivate only flips active members.
func (r *repository) Deactivate(ctx context.Context, gymID, id int) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE members SET is_active = false WHERE id = $1 AND gym_id = $2 AND is_active = true`, id, gymID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrMemberAlreadyInactive
	}
	return nil
}

func (r *repository) RecentAttendance(ctx context.Context, memberID, limit int) ([]gym.CheckIn, error) {
	checkIns := []gym.CheckIn{}
	err := r.db.SelectContext(ctx, &checkIns, `
		SELECT id, timestamp, method FROM attendance
		WHERE member_id = $1
		ORDER BY timestamp DESC
		LIMIT $2
	`, memberID, limit)
	return checkIns, err
}
