package billing

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"gymhub/internal/api"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

const invoiceColumns = `id, gym_id, amount, payment_method_id, purpose, description, is_paid, transaction_id, paid_at, created_at`

const invoiceSelect = `
	SELECT i.id, i.gym_id, g.name AS gym_name, i.amount, i.payment_method_id, pm.name AS payment_method,
	       i.purpose, i.description, i.is_paid, i.transaction_id, i.paid_at, i.created_at
	FROM invoices i
	JOIN gyms g ON g.id = i.gym_id
	JOIN payment_methods pm ON pm.id = i.payment_method_id`

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

// Insert writes inv through q, usually a transaction that also creates the
// record the invoice is for.
func Insert(ctx context.Context, q sqlx.QueryerContext, inv *Invoice) error {
	query := `
		INSERT INTO invoices (gym_id, amount, payment_method_id, purpose, description, is_paid, transaction_id, paid_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`
	return q.QueryRowxContext(ctx, query,
		inv.GymID, inv.Amount, inv.PaymentMethodID, inv.Purpose, inv.Description,
		inv.IsPaid, inv.TransactionID, inv.PaidAt,
	).Scan(&inv.ID, &inv.CreatedAt)
}

// FindForUpdate loads and row-locks an invoice for the rest of the transaction.
func FindForUpdate(ctx context.Context, q sqlx.QueryerContext, id int) (*Invoice, error) {
	var inv Invoice
	err := sqlx.GetContext(ctx, q, &inv, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1 FOR UPDATE`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvoiceNotFound
		}
		return nil, err
	}
	return &inv, nil
}

// FindInitial loads the gym's initial subscription invoice.
func FindInitial(ctx context.Context, q sqlx.QueryerContext, gymID int) (*Invoice, error) {
	return findInitial(ctx, q, gymID, "")
}

// FindInitialForUpdate is FindInitial holding a row lock.
func FindInitialForUpdate(ctx context.Context, q sqlx.QueryerContext, gymID int) (*Invoice, error) {
	return findInitial(ctx, q, gymID, " FOR UPDATE")
}

func findInitial(ctx context.Context, q sqlx.QueryerContext, gymID int, lock string) (*Invoice, error) {
	var inv Invoice
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE gym_id = $1 AND purpose = $2` + lock
	if err := sqlx.GetContext(ctx, q, &inv, query, gymID, PurposeInitialSubscription); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvoiceNotFound
		}
		return nil, err
	}
	return &inv, nil
}

// SetMethod records the payment method chosen for an unpaid invoice.
func SetMethod(ctx context.Context, q sqlx.ExecerContext, id, methodID int) error {
	res, err := q.ExecContext(ctx,
		`UPDATE invoices SET payment_method_id = $1 WHERE id = $2 AND is_paid = false`, methodID, id)
	if err != nil {
		return err
	}
	return expectOne(res, ErrInvoiceAlreadyPaid)
}

func savePaid(ctx context.Context, q sqlx.ExecerContext, inv *Invoice) error {
	res, err := q.ExecContext(ctx, `
		UPDATE invoices
		SET payment_method_id = $1, is_paid = true, paid_at = $2, transaction_id = $3
		WHERE id = $4 AND is_paid = false
	`, inv.PaymentMethodID, inv.PaidAt, inv.TransactionID, inv.ID)
	if err != nil {
		return err
	}
	return expectOne(res, ErrInvoiceAlreadyPaid)
}

func insertVisitor(ctx context.Context, q sqlx.QueryerContext, v *Visitor) error {
	query := `
		INSERT INTO visitors (gym_id, name, amount, payment_method_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	return q.QueryRowxContext(ctx, query, v.GymID, v.Name, v.Amount, v.PaymentMethodID).
		Scan(&v.ID, &v.CreatedAt)
}

func expectOne(res sql.Result, otherwise error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return otherwise
	}
	return nil
}

func (r *repository) FindByID(ctx context.Context, gymID, id int) (*Invoice, error) {
	query := invoiceSelect + ` WHERE i.id = $1`
	args := []interface{}{id}
	if gymID != 0 {
		query += ` AND i.gym_id = $2`
		args = append(args, gymID)
	}

	var inv Invoice
	if err := r.db.GetContext(ctx, &inv, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvoiceNotFound
		}
		return nil, err
	}
	return &inv, nil
}

func (r *repository) List(ctx context.Context, f InvoiceFilter) ([]Invoice, int, error) {
	var conds []string
	var args []interface{}
	if f.GymID != 0 {
		args = append(args, f.GymID)
		conds = append(conds, fmt.Sprintf("i.gym_id = $%d", len(args)))
	}
	if f.PaidOnly {
		conds = append(conds, "i.is_paid = true")
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		args = append(args, "%"+s+"%")
		conds = append(conds, fmt.Sprintf("(i.description ILIKE $%d OR g.name ILIKE $%d)", len(args), len(args)))
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM invoices i JOIN gyms g ON g.id = i.gym_id` + where
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, err
	}

	args = append(args, f.Page.Size, f.Page.Offset())
	query := invoiceSelect + where +
		fmt.Sprintf(` ORDER BY i.created_at DESC, i.id DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	invoices := []Invoice{}
	if err := r.db.SelectContext(ctx, &invoices, query, args...); err != nil {
		return nil, 0, err
	}
	return invoices, total, nil
}

func (r *repository) LatestPaid(ctx context.Context, limit int) ([]Invoice, error) {
	invoices := []Invoice{}
	query := invoiceSelect + ` WHERE i.is_paid = true ORDER BY i.paid_at DESC LIMIT $1`
	err := r.db.SelectContext(ctx, &invoices, query, limit)
	return invoices, err
}

func (r *repository) GymOwnerOf(ctx context.Context, invoiceID int) (int, error) {
	var ownerID int
	err := r.db.GetContext(ctx, &ownerID,
		`SELECT g.owner_id FROM invoices i JOIN gyms g ON g.id = i.gym_id WHERE i.id = $1`, invoiceID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrInvoiceNotFound
	}
	return ownerID, err
}

func (r *repository) ListVisitors(ctx context.Context, gymID int, page api.Pagination) ([]Visitor, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM visitors WHERE gym_id = $1`, gymID); err != nil {
		return nil, 0, err
	}

	visitors := []Visitor{}
	query := `
		SELECT v.id, v.gym_id, v.name, v.amount, v.payment_method_id, pm.name AS payment_method, v.created_at
		FROM visitors v
		JOIN payment_methods pm ON pm.id = v.payment_method_id
		WHERE v.gym_id = $1
		ORDER BY v.created_at DESC
		LIMIT $2 OFFSET $3
	`
	if err := r.db.SelectContext(ctx, &visitors, query, gymID, page.Size, page.Offset()); err != nil {
		return nil, 0, err
	}
	return visitors, total, nil
}

func (r *repository) CreateExpense(ctx context.Context, e *Expense) error {
	query := `
		INSERT INTO expenses (gym_id, description, amount, category, date)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	return r.db.QueryRowxContext(ctx, query, e.GymID, e.Description, e.Amount, e.Category, e.Date).Scan(&e.ID)
}

// expenseScope returns the WHERE fragment that selects a scope's expenses.
func expenseScope(scope Scope) (string, []interface{}) {
	if scope.Platform() {
		return `gym_id IS NULL`, nil
	}
	return `gym_id = $1`, []interface{}{scope.GymID}
}

func (r *repository) ListExpenses(ctx context.Context, scope Scope, page api.Pagination) ([]Expense, int, error) {
	where, args := expenseScope(scope)

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM expenses WHERE `+where, args...); err != nil {
		return nil, 0, err
	}

	args = append(args, page.Size, page.Offset())
	query := fmt.Sprintf(`
		SELECT id, gym_id, description, amount, category, date
		FROM expenses
		WHERE %s
		ORDER BY date DESC, id DESC
		LIMIT $%d OFFSET $%d
	`, where, len(args)-1, len(args))

	expenses := []Expense{}
	if err := r.db.SelectContext(ctx, &expenses, query, args...); err != nil {
		return nil, 0, err
	}
	return expenses, total, nil
}

type sourceRow struct {
	Purpose Purpose         `db:"purpose"`
	Total   decimal.Decimal `db:"total"`
}

// IncomeBySource sums paid invoices whose paid_at falls on a day in
// [from, to], grouped by purpose.
func (r *repository) IncomeBySource(ctx context.Context, scope Scope, from, to time.Time) (map[Purpose]decimal.Decimal, error) {
	query := `
		SELECT purpose, COALESCE(SUM(amount), 0) AS total
		FROM invoices
		WHERE is_paid = true AND paid_at >= $1 AND paid_at < $2`
	args := []interface{}{from, to.AddDate(0, 0, 1)}
	if !scope.Platform() {
		query += ` AND gym_id = $3`
		args = append(args, scope.GymID)
	}
	query += ` GROUP BY purpose`

	var rows []sourceRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}

	out := make(map[Purpose]decimal.Decimal, len(rows))
	for _, row := range rows {
		out[row.Purpose] = row.Total
	}
	return out, nil
}

func (r *repository) ExpenseTotal(ctx context.Context, scope Scope, from, to time.Time) (decimal.Decimal, error) {
	var total decimal.Decimal
	query := `SELECT COALESCE(SUM(amount), 0) FROM expenses WHERE date >= $1 AND date <= $2 AND `
	args := []interface{}{from, to}
	if scope.Platform() {
		query += `gym_id IS NULL`
	} else {
		query += `gym_id = $3`
		args = append(args, scope.GymID)
	}
	err := r.db.GetContext(ctx, &total, query, args...)
	return total, err
}

func (r *repository) Totals(ctx context.Context, scope Scope) (*Totals, error) {
	incomeQuery := `SELECT COALESCE(SUM(amount), 0) FROM invoices WHERE is_paid = true`
	var incomeArgs []interface{}
	if !scope.Platform() {
		incomeQuery += ` AND gym_id = $1`
		incomeArgs = append(incomeArgs, scope.GymID)
	}

	var t Totals
	if err := r.db.GetContext(ctx, &t.Income, incomeQuery, incomeArgs...); err != nil {
		return nil, err
	}

	where, args := expenseScope(scope)
	if err := r.db.GetContext(ctx, &t.Expenses, `SELECT COALESCE(SUM(amount), 0) FROM expenses WHERE `+where, args...); err != nil {
		return nil, err
	}
	t.Net = t.Income.Sub(t.Expenses)
	return &t, nil
}

func (r *repository) IncomeByGym(ctx context.Context, from, to time.Time) ([]GymIncome, error) {
	query := `
		SELECT g.id AS gym_id, g.name AS gym_name,
		       COALESCE(SUM(i.amount) FILTER (WHERE i.is_paid AND i.paid_at >= $1 AND i.paid_at < $2), 0) AS total
		FROM gyms g
		LEFT JOIN invoices i ON i.gym_id = g.id
		GROUP BY g.id, g.name
		ORDER BY total DESC, g.id
	`
	rows := []GymIncome{}
	err := r.db.SelectContext(ctx, &rows, query, from, to.AddDate(0, 0, 1))
	return rows, err
}
