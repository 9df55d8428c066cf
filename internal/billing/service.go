package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gymhub/internal/api"
	"gymhub/internal/auth"
	"gymhub/internal/db"
	"gymhub/internal/logger"
	"gymhub/internal/metrics"
	"gymhub/internal/notification"
	"gymhub/internal/payment"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

var ErrNotInvoiceOwner = errors.New("invoice belongs to another gym")

// GymLifecycle applies the gym side of a settled subscription invoice inside
// the payment transaction.
type GymLifecycle interface {
	// Activate marks a pending gym active and approved. activated is false
	// when the gym was already active.
	Activate(ctx context.Context, tx *sqlx.Tx, gymID int) (ownerID int, activated bool, err error)
	// ExtendExpiry pushes the expiry date by one plan period, counted from
	// the later of the current expiry and today.
	ExtendExpiry(ctx context.Context, tx *sqlx.Tx, gymID int, today time.Time) (ownerID int, expiry time.Time, err error)
}

// Deliverer fans a committed notification out to its live and email channels.
type Deliverer interface {
	Deliver(ctx context.Context, n notification.Notification)
}

type Service interface {
	ProcessPayment(ctx context.Context, invoiceID, methodID int) (*Invoice, error)
	AuthorizePayment(ctx context.Context, userID int, role auth.Role, invoiceID int) error

	CreateInvoice(ctx context.Context, gymID int, req CreateInvoiceRequest) (*Invoice, error)
	ListInvoices(ctx context.Context, f InvoiceFilter) ([]Invoice, int, error)
	GetInvoice(ctx context.Context, gymID, id int) (*Invoice, error)
	LatestPaid(ctx context.Context, limit int) ([]Invoice, error)

	AddVisitor(ctx context.Context, gymID int, req VisitorRequest) (*Visitor, *Invoice, error)
	ListVisitors(ctx context.Context, gymID int, page api.Pagination) ([]Visitor, int, error)

	AddExpense(ctx context.Context, scope Scope, req ExpenseRequest) (*Expense, error)
	ListExpenses(ctx context.Context, scope Scope, page api.Pagination) ([]Expense, int, error)

	Report(ctx context.Context, scope Scope, from, to time.Time) (*Report, error)
	Totals(ctx context.Context, scope Scope) (*Totals, error)
	IncomeByGym(ctx context.Context, from, to time.Time) ([]GymIncome, error)
}

type service struct {
	db            *sqlx.DB
	repo          Repository
	gyms          GymLifecycle
	notifications Deliverer
	now           func() time.Time
}

func NewService(db *sqlx.DB, repo Repository, gyms GymLifecycle, notifications Deliverer) Service {
	return &service{
		db:            db,
		repo:          repo,
		gyms:          gyms,
		notifications: notifications,
		now:           time.Now,
	}
}

// ProcessPayment settles an invoice and applies what its purpose implies, all
// in one transaction. Notifications created on the way are delivered after
// commit.
func (s *service) ProcessPayment(ctx context.Context, invoiceID, methodID int) (*Invoice, error) {
	var (
		inv     *Invoice
		method  *payment.Method
		pending []notification.Notification
	)

	err := db.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		var err error
		inv, err = FindForUpdate(ctx, tx, invoiceID)
		if err != nil {
			return err
		}

		method, err = payment.FindActiveByID(ctx, tx, methodID)
		if err != nil {
			return err
		}

		if err := inv.MarkPaid(method.ID, uuid.NewString(), s.now()); err != nil {
			return err
		}
		if err := savePaid(ctx, tx, inv); err != nil {
			return err
		}

		n, err := s.cascade(ctx, tx, inv)
		if err != nil {
			return err
		}
		if n != nil {
			pending = append(pending, *n)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	inv.PaymentMethod = method.Name
	metrics.RecordInvoicePaid(string(inv.Purpose), string(method.Name))
	logger.Info("invoice paid",
		"invoice_id", inv.ID,
		"gym_id", inv.GymID,
		"purpose", inv.Purpose,
		"transaction_id", inv.TransactionID,
	)

	for _, n := range pending {
		s.notifications.Deliver(ctx, n)
	}
	return inv, nil
}

func (s *service) cascade(ctx context.Context, tx *sqlx.Tx, inv *Invoice) (*notification.Notification, error) {
	link := fmt.Sprintf("/gyms/%d/dashboard", inv.GymID)

	switch inv.Purpose {
	case PurposeInitialSubscription:
		ownerID, activated, err := s.gyms.Activate(ctx, tx, inv.GymID)
		if err != nil {
			return nil, err
		}
		if !activated {
			return nil, nil
		}
		metrics.RecordGymActivation("payment")

		n := notification.New(ownerID,
			fmt.Sprintf("Payment received for invoice #%d. Your gym is now active.", inv.ID),
			notification.TypeSuccess, link)
		if err := notification.Insert(ctx, tx, n); err != nil {
			return nil, err
		}
		return n, nil

	case PurposeRenewal:
		ownerID, expiry, err := s.gyms.ExtendExpiry(ctx, tx, inv.GymID, api.Today(s.now()))
		if err != nil {
			return nil, err
		}

		n := notification.New(ownerID,
			fmt.Sprintf("Subscription renewed. Your gym is now active until %s.", expiry.Format(api.DateLayout)),
			notification.TypeSuccess, link)
		if err := notification.Insert(ctx, tx, n); err != nil {
			return nil, err
		}
		return n, nil
	}
	return nil, nil
}

// AuthorizePayment lets platform admins pay any invoice and gym owners pay
// their own gym's invoices.
func (s *service) AuthorizePayment(ctx context.Context, userID int, role auth.Role, invoiceID int) error {
	ownerID, err := s.repo.GymOwnerOf(ctx, invoiceID)
	if err != nil {
		return err
	}
	if role == auth.RoleSystemAdmin || ownerID == userID {
		return nil
	}
	return ErrNotInvoiceOwner
}

func (s *service) CreateInvoice(ctx context.Context, gymID int, req CreateInvoiceRequest) (*Invoice, error) {
	if req.Amount.IsNegative() {
		return nil, ErrNegativeAmount
	}

	inv := NewInvoice(gymID, req.Amount, req.PaymentMethodID, PurposeOther, req.Description)
	err := db.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		if _, err := payment.FindActiveByID(ctx, tx, req.PaymentMethodID); err != nil {
			return err
		}
		return Insert(ctx, tx, inv)
	})
	if err != nil {
		return nil, err
	}
	return inv, nil
}

func (s *service) ListInvoices(ctx context.Context, f InvoiceFilter) ([]Invoice, int, error) {
	return s.repo.List(ctx, f)
}

func (s *service) GetInvoice(ctx context.Context, gymID, id int) (*Invoice, error) {
	return s.repo.FindByID(ctx, gymID, id)
}

func (s *service) LatestPaid(ctx context.Context, limit int) ([]Invoice, error) {
	return s.repo.LatestPaid(ctx, limit)
}

// AddVisitor records a walk-in with its visitor pass invoice. Card payments
// leave the invoice open for ProcessPayment; any other method settles it
// immediately.
func (s *service) AddVisitor(ctx context.Context, gymID int, req VisitorRequest) (*Visitor, *Invoice, error) {
	if req.Amount.IsNegative() {
		return nil, nil, ErrNegativeAmount
	}

	v := &Visitor{
		GymID:           gymID,
		Name:            req.Name,
		Amount:          req.Amount.Round(2),
		PaymentMethodID: req.PaymentMethodID,
	}
	inv := NewInvoice(gymID, req.Amount, req.PaymentMethodID, PurposeVisitorPass, "Visitor pass for "+req.Name)

	err := db.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		method, err := payment.FindActiveByID(ctx, tx, req.PaymentMethodID)
		if err != nil {
			return err
		}
		v.PaymentMethod = method.Name
		inv.PaymentMethod = method.Name

		if method.Name != payment.Card {
			if err := inv.MarkPaid(method.ID, uuid.NewString(), s.now()); err != nil {
				return err
			}
		}
		if err := Insert(ctx, tx, inv); err != nil {
			return err
		}
		return insertVisitor(ctx, tx, v)
	})
	if err != nil {
		return nil, nil, err
	}

	if inv.IsPaid {
		metrics.RecordInvoicePaid(string(inv.Purpose), string(inv.PaymentMethod))
	}
	return v, inv, nil
}

func (s *service) ListVisitors(ctx context.Context, gymID int, page api.Pagination) ([]Visitor, int, error) {
	return s.repo.ListVisitors(ctx, gymID, page)
}

func (s *service) AddExpense(ctx context.Context, scope Scope, req ExpenseRequest) (*Expense, error) {
	if req.Amount.IsNegative() {
		return nil, ErrNegativeAmount
	}
	date, err := time.Parse(api.DateLayout, req.Date)
	if err != nil {
		return nil, err
	}

	e := &Expense{
		Description: req.Description,
		Amount:      req.Amount.Round(2),
		Category:    req.Category,
		Date:        date,
	}
	if !scope.Platform() {
		gymID := scope.GymID
		e.GymID = &gymID
	}

	if err := s.repo.CreateExpense(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *service) ListExpenses(ctx context.Context, scope Scope, page api.Pagination) ([]Expense, int, error) {
	return s.repo.ListExpenses(ctx, scope, page)
}

// Report is recomputed from the ledger on every call.
func (s *service) Report(ctx context.Context, scope Scope, from, to time.Time) (*Report, error) {
	sources, err := s.repo.IncomeBySource(ctx, scope, from, to)
	if err != nil {
		return nil, err
	}
	expenses, err := s.repo.ExpenseTotal(ctx, scope, from, to)
	if err != nil {
		return nil, err
	}

	income := decimal.Zero
	for _, v := range sources {
		income = income.Add(v)
	}

	return &Report{
		From:     from.Format(api.DateLayout),
		To:       to.Format(api.DateLayout),
		Income:   income,
		Expenses: expenses,
		Net:      income.Sub(expenses),
		Sources:  sources,
	}, nil
}

func (s *service) Totals(ctx context.Context, scope Scope) (*Totals, error) {
	return s.repo.Totals(ctx, scope)
}

func (s *service) IncomeByGym(ctx context.Context, from, to time.Time) ([]GymIncome, error) {
	return s.repo.IncomeByGym(ctx, from, to)
}
