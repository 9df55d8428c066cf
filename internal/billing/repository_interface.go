package billing

import (
	"context"
	"time"

	"gymhub/internal/api"

	"github.com/shopspring/decimal"
)

type Repository interface {
	FindByID(ctx context.Context, gymID, id int) (*Invoice, error)
	List(ctx context.Context, f InvoiceFilter) ([]Invoice, int, error)
	LatestPaid(ctx context.Context, limit int) ([]Invoice, error)
	GymOwnerOf(ctx context.Context, invoiceID int) (int, error)

	ListVisitors(ctx context.Context, gymID int, page api.Pagination) ([]Visitor, int, error)

	CreateExpense(ctx context.Context, e *Expense) error
	ListExpenses(ctx context.Context, scope Scope, page api.Pagination) ([]Expense, int, error)

	IncomeBySource(ctx context.Context, scope Scope, from, to time.Time) (map[Purpose]decimal.Decimal, error)
	ExpenseTotal(ctx context.Context, scope Scope, from, to time.Time) (decimal.Decimal, error)
	Totals(ctx context.Context, scope Scope) (*Totals, error)
	IncomeByGym(ctx context.Context, from, to time.Time) ([]GymIncome, error)
}
