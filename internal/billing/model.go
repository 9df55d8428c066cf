package billing

import (
	"errors"
	"time"

	"gymhub/internal/api"
	"gymhub/internal/payment"

	"github.com/shopspring/decimal"
)

type Purpose string

const (
	PurposeInitialSubscription Purpose = "initial_subscription"
	PurposeRenewal             Purpose = "renewal"
	PurposeMembership          Purpose = "membership"
	PurposeVisitorPass         Purpose = "visitor_pass"
	PurposeOther               Purpose = "other"
)

var (
	ErrInvoiceNotFound    = errors.New("invoice not found")
	ErrInvoiceAlreadyPaid = errors.New("invoice already paid")
	ErrNegativeAmount     = errors.New("amount must not be negative")
)

type Invoice struct {
	ID              int                `db:"id" json:"id"`
	GymID           int                `db:"gym_id" json:"gym_id"`
	GymName         string             `db:"gym_name" json:"gym_name,omitempty"`
	Amount          decimal.Decimal    `db:"amount" json:"amount" swaggertype:"string" example:"25.00"`
	PaymentMethodID int                `db:"payment_method_id" json:"payment_method_id"`
	PaymentMethod   payment.MethodName `db:"payment_method" json:"payment_method,omitempty" swaggertype:"string"`
	Purpose         Purpose            `db:"purpose" json:"purpose" swaggertype:"string" enums:"initial_subscription,renewal,membership,visitor_pass,other"`
	Description     string             `db:"description" json:"description"`
	IsPaid          bool               `db:"is_paid" json:"is_paid"`
	TransactionID   string             `db:"transaction_id" json:"transaction_id,omitempty"`
	PaidAt          *time.Time         `db:"paid_at" json:"paid_at,omitempty"`
	CreatedAt       time.Time          `db:"created_at" json:"created_at"`
}

// NewInvoice builds an unpaid invoice. The purpose is fixed here and decides
// what paying the invoice does later.
func NewInvoice(gymID int, amount decimal.Decimal, methodID int, purpose Purpose, description string) *Invoice {
	return &Invoice{
		GymID:           gymID,
		Amount:          amount.Round(2),
		PaymentMethodID: methodID,
		Purpose:         purpose,
		Description:     description,
	}
}

// MarkPaid settles the invoice with the given method. Paid invoices never
// revert, so a second call fails.
func (i *Invoice) MarkPaid(methodID int, transactionID string, now time.Time) error {
	if i.IsPaid {
		return ErrInvoiceAlreadyPaid
	}
	i.PaymentMethodID = methodID
	i.IsPaid = true
	i.TransactionID = transactionID
	paidAt := now
	i.PaidAt = &paidAt
	return nil
}

type Visitor struct {
	ID              int                `db:"id" json:"id"`
	GymID           int                `db:"gym_id" json:"gym_id"`
	Name            string             `db:"name" json:"name"`
	Amount          decimal.Decimal    `db:"amount" json:"amount" swaggertype:"string" example:"5.00"`
	PaymentMethodID int                `db:"payment_method_id" json:"payment_method_id"`
	PaymentMethod   payment.MethodName `db:"payment_method" json:"payment_method,omitempty" swaggertype:"string"`
	CreatedAt       time.Time          `db:"created_at" json:"created_at"`
}

type Expense struct {
	ID          int             `db:"id" json:"id"`
	GymID       *int            `db:"gym_id" json:"gym_id,omitempty"`
	Description string          `db:"description" json:"description"`
	Amount      decimal.Decimal `db:"amount" json:"amount" swaggertype:"string" example:"120.00"`
	Category    string          `db:"category" json:"category"`
	Date        time.Time       `db:"date" json:"date"`
}

// Report is income minus expenses over an inclusive date range.
type Report struct {
	From     string                      `json:"from" example:"2025-01-01"`
	To       string                      `json:"to" example:"2025-01-31"`
	Income   decimal.Decimal             `json:"income" swaggertype:"string"`
	Expenses decimal.Decimal             `json:"expenses" swaggertype:"string"`
	Net      decimal.Decimal             `json:"net" swaggertype:"string"`
	Sources  map[Purpose]decimal.Decimal `json:"sources" swaggertype:"object"`
}

type GymIncome struct {
	GymID   int             `db:"gym_id" json:"gym_id"`
	GymName string          `db:"gym_name" json:"gym_name"`
	Total   decimal.Decimal `db:"total" json:"total" swaggertype:"string"`
}

// Totals are all-time paid income and expenses for a scope.
type Totals struct {
	Income   decimal.Decimal `json:"income" swaggertype:"string"`
	Expenses decimal.Decimal `json:"expenses" swaggertype:"string"`
	Net      decimal.Decimal `json:"net" swaggertype:"string"`
}

// Scope selects whose books are read. A zero GymID means the platform:
// every gym's paid invoices and the expenses not attached to a gym.
type Scope struct {
	GymID int
}

func (s Scope) Platform() bool { return s.GymID == 0 }

type InvoiceFilter struct {
	GymID    int
	PaidOnly bool
	Search   string
	Page     api.Pagination
}

type CreateInvoiceRequest struct {
	Amount          decimal.Decimal `json:"amount" swaggertype:"string" example:"25.00"`
	PaymentMethodID int             `json:"payment_method_id" binding:"required,gt=0"`
	Description     string          `json:"description" binding:"required,max=500"`
}

type PayInvoiceRequest struct {
	PaymentMethodID int `json:"payment_method_id" binding:"required,gt=0"`
}

type VisitorRequest struct {
	Name            string          `json:"name" binding:"required,max=100"`
	Amount          decimal.Decimal `json:"amount" swaggertype:"string" example:"5.00"`
	PaymentMethodID int             `json:"payment_method_id" binding:"required,gt=0"`
}

type ExpenseRequest struct {
	Description string          `json:"description" binding:"required,max=200"`
	Amount      decimal.Decimal `json:"amount" swaggertype:"string" example:"120.00"`
	Category    string          `json:"category" binding:"required,max=50"`
	Date        string          `json:"date" binding:"required,datetime=2006-01-02" example:"2025-01-15"`
}

type VisitorResponse struct {
	Visitor Visitor `json:"visitor"`
	Invoice Invoice `json:"invoice"`
}
