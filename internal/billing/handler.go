package billing

import (
	"errors"
	"net/http"
	"time"

	"gymhub/internal/api"
	"gymhub/internal/auth"
	"gymhub/internal/logger"
	"gymhub/internal/payment"

	"github.com/gin-gonic/gin"
)

const defaultReportDays = 30

type Handler struct {
	service Service
	now     func() time.Time
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service, now: time.Now}
}

func writeError(c *gin.Context, err error, action string) {
	switch {
	case errors.Is(err, ErrInvoiceNotFound):
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Invoice not found"})
	case errors.Is(err, ErrInvoiceAlreadyPaid):
		c.JSON(http.StatusConflict, api.ErrorResponse{Error: "Invoice already paid"})
	case errors.Is(err, ErrNotInvoiceOwner):
		c.JSON(http.StatusForbidden, api.ErrorResponse{Error: "Access denied"})
	case errors.Is(err, payment.ErrMethodNotFound), errors.Is(err, payment.ErrMethodInactive):
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
	case errors.Is(err, ErrNegativeAmount):
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
	default:
		logger.WithError(err).Error(action + " failed")
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to " + action})
	}
}

// PayInvoice godoc
// @Summary      Pay an invoice
// @Description  Settles the invoice. Paying an initial subscription invoice activates the gym; paying a renewal extends its expiry.
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        invoiceID  path      int                true  "Invoice ID"
// @Param        request    body      PayInvoiceRequest  true  "Payment method"
// @Success      200        {object}  Invoice
// @Failure      400        {object}  api.ErrorResponse
// @Failure      403        {object}  api.ErrorResponse
// @Failure      404        {object}  api.ErrorResponse
// @Failure      409        {object}  api.ErrorResponse
// @Router       /invoices/{invoiceID}/pay [post]
func (h *Handler) PayInvoice(c *gin.Context) {
	invoiceID, ok := api.ParamID(c, "invoiceID", "invoice")
	if !ok {
		return
	}

	var req PayInvoiceRequest
	if !api.BindJSON(c, &req) {
		return
	}

	userID, _ := auth.GetUserID(c)
	role, _ := auth.GetUserRole(c)
	ctx := c.Request.Context()

	if err := h.service.AuthorizePayment(ctx, userID, role, invoiceID); err != nil {
		writeError(c, err, "pay invoice")
		return
	}

	inv, err := h.service.ProcessPayment(ctx, invoiceID, req.PaymentMethodID)
	if err != nil {
		writeError(c, err, "pay invoice")
		return
	}
	c.JSON(http.StatusOK, inv)
}

// ListInvoices godoc
// @Summary      List gym invoices
// @Tags         invoices
// @Produce      json
// @Security     BearerAuth
// @Param        gymID  path      int     true   "Gym ID"
// @Param        page   query     int     false  "Page"
// @Param        q      query     string  false  "Search description"
// @Success      200    {object}  api.Page[Invoice]
// @Router       /gyms/{gymID}/invoices [get]
func (h *Handler) ListInvoices(c *gin.Context) {
	gymID, ok := api.ParamID(c, "gymID", "gym")
	if !ok {
		return
	}
	h.listInvoices(c, InvoiceFilter{GymID: gymID, Search: c.Query("q")})
}

// ListPaidInvoices godoc
// @Summary      List paid invoices across gyms
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        page  query     int     false  "Page"
// @Param        q     query     string  false  "Search description or gym name"
// @Success      200   {object}  api.Page[Invoice]
// @Router       /admin/invoices [get]
func (h *Handler) ListPaidInvoices(c *gin.Context) {
	h.listInvoices(c, InvoiceFilter{PaidOnly: true, Search: c.Query("q")})
}

func (h *Handler) listInvoices(c *gin.Context, f InvoiceFilter) {
	f.Page = api.PaginationFromQuery(c)
	invoices, total, err := h.service.ListInvoices(c.Request.Context(), f)
	if err != nil {
		writeError(c, err, "load invoices")
		return
	}
	c.JSON(http.StatusOK, api.NewPage(invoices, f.Page, total))
}

// CreateInvoice godoc
// @Summary      Create invoice
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        gymID    path      int                   true  "Gym ID"
// @Param        request  body      CreateInvoiceRequest  true  "Invoice"
// @Success      201      {object}  Invoice
// @Failure      400      {object}  api.ValidationErrorResponse
// @Router       /gyms/{gymID}/invoices [post]
func (h *Handler) CreateInvoice(c *gin.Context) {
	gymID, ok := api.ParamID(c, "gymID", "gym")
	if !ok {
		return
	}

	var req CreateInvoiceRequest
	if !api.BindJSON(c, &req) {
		return
	}

	inv, err := h.service.CreateInvoice(c.Request.Context(), gymID, req)
	if err != nil {
		writeError(c, err, "create invoice")
		return
	}
	c.JSON(http.StatusCreated, inv)
}

// GetInvoice godoc
// @Summary      Invoice detail
// @Tags         invoices
// @Produce      json
// @Security     BearerAuth
// @Param        gymID      path      int  true  "Gym ID"
// @Param        invoiceID  path      int  true  "Invoice ID"
// @Success      200        {object}  Invoice
// @Failure      404        {object}  api.ErrorResponse
// @Router       /gyms/{gymID}/invoices/{invoiceID} [get]
func (h *Handler) GetInvoice(c *gin.Context) {
	gymID, ok := api.ParamID(c, "gymID", "gym")
	if !ok {
		return
	}
	invoiceID, ok := api.ParamID(c, "invoiceID", "invoice")
	if !ok {
		return
	}

	inv, err := h.service.GetInvoice(c.Request.Context(), gymID, invoiceID)
	if err != nil {
		writeError(c, err, "load invoice")
		return
	}
	c.JSON(http.StatusOK, inv)
}

// AddVisitor godoc
// @Summary      Record a visitor
// @Description  Card payments leave the visitor pass invoice unpaid; other methods settle it immediately.
// @Tags         visitors
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        gymID    path      int             true  "Gym ID"
// @Param        request  body      VisitorRequest  true  "Visitor"
// @Success      201      {object}  VisitorResponse
// @Failure      400      {object}  api.ValidationErrorResponse
// @Router       /gyms/{gymID}/visitors [post]
func (h *Handler) AddVisitor(c *gin.Context) {
	gymID, ok := api.ParamID(c, "gymID", "gym")
	if !ok {
		return
	}

	var req VisitorRequest
	if !api.BindJSON(c, &req) {
		return
	}

	v, inv, err := h.service.AddVisitor(c.Request.Context(), gymID, req)
	if err != nil {
		writeError(c, err, "record visitor")
		return
	}
	c.JSON(http.StatusCreated, VisitorResponse{Visitor: *v, Invoice: *inv})
}

// ListVisitors godoc
// @Summary      List visitors
// @Tags         visitors
// @Produce      json
// @Security     BearerAuth
// @Param        gymID  path      int  true   "Gym ID"
// @Param        page   query     int  false  "Page"
// @Success      200    {object}  api.Page[Visitor]
// @Router       /gyms/{gymID}/visitors [get]
func (h *Handler) ListVisitors(c *gin.Context) {
	gymID, ok := api.ParamID(c, "gymID", "gym")
	if !ok {
		return
	}

	page := api.PaginationFromQuery(c)
	visitors, total, err := h.service.ListVisitors(c.Request.Context(), gymID, page)
	if err != nil {
		writeError(c, err, "load visitors")
		return
	}
	c.JSON(http.StatusOK, api.NewPage(visitors, page, total))
}

// AddGymExpense godoc
// @Summary      Record a gym expense
// @Tags         expenses
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        gymID    path      int             true  "Gym ID"
// @Param        request  body      ExpenseRequest  true  "Expense"
// @Success      201      {object}  Expense
// @Router       /gyms/{gymID}/expenses [post]
func (h *Handler) AddGymExpense(c *gin.Context) {
	gymID, ok := api.ParamID(c, "gymID", "gym")
	if !ok {
		return
	}
	h.addExpense(c, Scope{GymID: gymID})
}

// AddPlatformExpense godoc
// @Summary      Record a platform expense
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      ExpenseRequest  true  "Expense"
// @Success      201      {object}  Expense
// @Router       /admin/expenses [post]
func (h *Handler) AddPlatformExpense(c *gin.Context) {
	h.addExpense(c, Scope{})
}

func (h *Handler) addExpense(c *gin.Context, scope Scope) {
	var req ExpenseRequest
	if !api.BindJSON(c, &req) {
		return
	}

	e, err := h.service.AddExpense(c.Request.Context(), scope, req)
	if err != nil {
		writeError(c, err, "record expense")
		return
	}
	c.JSON(http.StatusCreated, e)
}

// ListGymExpenses godoc
// @Summary      List gym expenses
// @Tags         expenses
// @Produce      json
// @Security     BearerAuth
// @Param        gymID  path      int  true   "Gym ID"
// @Param        page   query     int  false  "Page"
// @Success      200    {object}  api.Page[Expense]
// @Router       /gyms/{gymID}/expenses [get]
func (h *Handler) ListGymExpenses(c *gin.Context) {
	gymID, ok := api.ParamID(c, "gymID", "gym")
	if !ok {
		return
	}
	h.listExpenses(c, Scope{GymID: gymID})
}

// ListPlatformExpenses godoc
// @Summary      List platform expenses
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        page  query     int  false  "Page"
// @Success      200   {object}  api.Page[Expense]
// @Router       /admin/expenses [get]
func (h *Handler) ListPlatformExpenses(c *gin.Context) {
	h.listExpenses(c, Scope{})
}

func (h *Handler) listExpenses(c *gin.Context, scope Scope) {
	page := api.PaginationFromQuery(c)
	expenses, total, err := h.service.ListExpenses(c.Request.Context(), scope, page)
	if err != nil {
		writeError(c, err, "load expenses")
		return
	}
	c.JSON(http.StatusOK, api.NewPage(expenses, page, total))
}

// GymReport godoc
// @Summary      Gym financial report
// @Description  Paid invoices minus expenses over [from, to]. Defaults to the last 30 days.
// @Tags         reports
// @Produce      json
// @Security     BearerAuth
// @Param        gymID  path      int     true   "Gym ID"
// @Param        from   query     string  false  "From (YYYY-MM-DD)"
// @Param        to     query     string  false  "To (YYYY-MM-DD)"
// @Success      200    {object}  Report
// @Failure      400    {object}  api.ErrorResponse
// @Router       /gyms/{gymID}/reports [get]
func (h *Handler) GymReport(c *gin.Context) {
	gymID, ok := api.ParamID(c, "gymID", "gym")
	if !ok {
		return
	}
	h.report(c, Scope{GymID: gymID})
}

// PlatformReport godoc
// @Summary      Platform financial report
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        from  query     string  false  "From (YYYY-MM-DD)"
// @Param        to    query     string  false  "To (YYYY-MM-DD)"
// @Success      200   {object}  Report
// @Router       /admin/reports [get]
func (h *Handler) PlatformReport(c *gin.Context) {
	h.report(c, Scope{})
}

func (h *Handler) report(c *gin.Context, scope Scope) {
	from, to, err := api.DateRangeFromQuery(c, h.now(), defaultReportDays)
	if err != nil {
		api.WriteRangeError(c, err)
		return
	}

	report, err := h.service.Report(c.Request.Context(), scope, from, to)
	if err != nil {
		writeError(c, err, "build report")
		return
	}
	c.JSON(http.StatusOK, report)
}

// IncomeByGym godoc
// @Summary      Income per gym
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        from  query     string  false  "From (YYYY-MM-DD)"
// @Param        to    query     string  false  "To (YYYY-MM-DD)"
// @Success      200   {array}   GymIncome
// @Router       /admin/income [get]
func (h *Handler) IncomeByGym(c *gin.Context) {
	from, to, err := api.DateRangeFromQuery(c, h.now(), defaultReportDays)
	if err != nil {
		api.WriteRangeError(c, err)
		return
	}

	rows, err := h.service.IncomeByGym(c.Request.Context(), from, to)
	if err != nil {
		writeError(c, err, "build income report")
		return
	}
	c.JSON(http.StatusOK, rows)
}
