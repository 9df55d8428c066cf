package gym

import (
	"errors"
	"net/http"

	"gymhub/internal/api"
	"gymhub/internal/auth"
	"gymhub/internal/billing"
	"gymhub/internal/logger"
	"gymhub/internal/payment"
	"gymhub/internal/subscription"
	"gymhub/internal/user"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func writeError(c *gin.Context, err error, action string) {
	switch {
	case errors.Is(err, ErrGymNotFound):
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Gym not found"})
	case errors.Is(err, ErrStaffNotFound):
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Staff not found"})
	case errors.Is(err, billing.ErrInvoiceNotFound):
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Invoice not found"})
	case errors.Is(err, subscription.ErrPlanNotFound):
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Subscription plan not found"})
	case errors.Is(err, ErrInvalidPlanTerms),
		errors.Is(err, billing.ErrNegativeAmount),
		errors.Is(err, payment.ErrMethodNotFound),
		errors.Is(err, payment.ErrMethodInactive):
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
	case errors.Is(err, ErrGymLimitReached):
		c.JSON(http.StatusConflict, api.ErrorResponse{Error: "You have reached the gym limit of your subscription plan"})
	case errors.Is(err, billing.ErrInvoiceAlreadyPaid):
		c.JSON(http.StatusConflict, api.ErrorResponse{Error: "Invoice already paid"})
	case errors.Is(err, ErrGymAlreadyActive):
		c.JSON(http.StatusConflict, api.ErrorResponse{Error: "Gym is already active"})
	case errors.Is(err, user.ErrEmailExists):
		c.JSON(http.StatusConflict, api.ErrorResponse{Error: "Email already registered"})
	default:
		logger.WithError(err).Error(action + " failed")
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to " + action})
	}
}

// RegisterGym godoc
// @Summary      Register a gym
// @Description  Creates a pending gym and its unpaid initial subscription invoice.
// @Tags         gyms
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      RegisterGymRequest  true  "Gym"
// @Success      201      {object}  RegistrationResponse
// @Failure      400      {object}  api.ValidationErrorResponse
// @Failure      409      {object}  api.ErrorResponse
// @Router       /gyms [post]
func (h *Handler) RegisterGym(c *gin.Context) {
	var req RegisterGymRequest
	if !api.BindJSON(c, &req) {
		return
	}

	userID, _ := auth.GetUserID(c)
	res, err := h.service.Register(c.Request.Context(), userID, req)
	if err != nil {
		writeError(c, err, "register gym")
		return
	}
	c.JSON(http.StatusCreated, res)
}

// ListMine godoc
// @Summary      My gyms
// @Tags         gyms
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}  Gym
// @Router       /gyms [get]
func (h *Handler) ListMine(c *gin.Context) {
	userID, _ := auth.GetUserID(c)
	role, _ := auth.GetUserRole(c)

	gyms, err := h.service.ListMine(c.Request.Context(), userID, role)
	if err != nil {
		writeError(c, err, "load gyms")
		return
	}
	c.JSON(http.StatusOK, gyms)
}

// PayRegistration godoc
// @Summary      Pay gym registration
// @Description  Electronic methods settle the initial invoice and activate the gym. Cash records the method and leaves the gym pending approval.
// @Tags         gyms
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        gymID    path      int                     true  "Gym ID"
// @Param        request  body      PayRegistrationRequest  true  "Payment method"
// @Success      200      {object}  billing.Invoice
// @Failure      400      {object}  api.ErrorResponse
// @Failure      404      {object}  api.ErrorResponse
// @Failure      409      {object}  api.ErrorResponse
// @Router       /gyms/{gymID}/payment [post]
func (h *Handler) PayRegistration(c *gin.Context) {
	access, _ := GetAccess(c)

	var req PayRegistrationRequest
	if !api.BindJSON(c, &req) {
		return
	}

	inv, err := h.service.PayRegistration(c.Request.Context(), access.Gym.ID, req.PaymentMethodID)
	if err != nil {
		writeError(c, err, "pay registration")
		return
	}
	c.JSON(http.StatusOK, inv)
}

// Dashboard godoc
// @Summary      Gym dashboard
// @Description  Finance totals are included only for the owner and staff who can manage finances.
// @Tags         gyms
// @Produce      json
// @Security     BearerAuth
// @Param        gymID  path      int  true  "Gym ID"
// @Success      200    {object}  Dashboard
// @Failure      404    {object}  api.ErrorResponse
// @Router       /gyms/{gymID}/dashboard [get]
func (h *Handler) Dashboard(c *gin.Context) {
	access, _ := GetAccess(c)
	userID, _ := auth.GetUserID(c)

	d, err := h.service.Dashboard(c.Request.Context(), access, userID)
	if err != nil {
		writeError(c, err, "load dashboard")
		return
	}
	c.JSON(http.StatusOK, d)
}

// ListPlans godoc
// @Summary      Gym membership plans
// @Tags         gym plans
// @Produce      json
// @Security     BearerAuth
// @Param        gymID  path     int  true  "Gym ID"
// @Success      200    {array}  Plan
// @Router       /gyms/{gymID}/plans [get]
func (h *Handler) ListPlans(c *gin.Context) {
	access, _ := GetAccess(c)

	plans, err := h.service.ListPlans(c.Request.Context(), access.Gym.ID)
	if err != nil {
		writeError(c, err, "load plans")
		return
	}
	c.JSON(http.StatusOK, plans)
}

// CreatePlan godoc
// @Summary      Create membership plan
// @Tags         gym plans
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        gymID    path      int          true  "Gym ID"
// @Param        request  body      PlanRequest  true  "Plan"
// @Success      201      {object}  Plan
// @Failure      400      {object}  api.ErrorResponse
// @Router       /gyms/{gymID}/plans [post]
func (h *Handler) CreatePlan(c *gin.Context) {
	access, _ := GetAccess(c)

	var req PlanRequest
	if !api.BindJSON(c, &req) {
		return
	}

	p, err := h.service.CreatePlan(c.Request.Context(), access.Gym.ID, req)
	if err != nil {
		writeError(c, err, "create plan")
		return
	}
	c.JSON(http.StatusCreated, p)
}

// ListStaff godoc
// @Summary      Gym staff
// @Tags         staff
// @Produce      json
// @Security     BearerAuth
// @Param        gymID  path     int  true  "Gym ID"
// @Success      200    {array}  Staff
// @Router       /gyms/{gymID}/staff [get]
func (h *Handler) ListStaff(c *gin.Context) {
	access, _ := GetAccess(c)

	staff, err := h.service.ListStaff(c.Request.Context(), access.Gym.ID)
	if err != nil {
		writeError(c, err, "load staff")
		return
	}
	c.JSON(http.StatusOK, staff)
}

// CreateStaff godoc
// @Summary      Add staff member
// @Description  Creates a staff login for the gym with the given capabilities.
// @Tags         staff
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        gymID    path      int                 true  "Gym ID"
// @Param        request  body      CreateStaffRequest  true  "Staff"
// @Success      201      {object}  Staff
// @Failure      400      {object}  api.ValidationErrorResponse
// @Failure      409      {object}  api.ErrorResponse
// @Router       /gyms/{gymID}/staff [post]
func (h *Handler) CreateStaff(c *gin.Context) {
	access, _ := GetAccess(c)

	var req CreateStaffRequest
	if !api.BindJSON(c, &req) {
		return
	}

	st, err := h.service.CreateStaff(c.Request.Context(), access.Gym.ID, req)
	if err != nil {
		writeError(c, err, "create staff")
		return
	}
	c.JSON(http.StatusCreated, st)
}

// GetStaff godoc
// @Summary      Staff detail
// @Tags         staff
// @Produce      json
// @Security     BearerAuth
// @Param        gymID    path      int  true  "Gym ID"
// @Param        staffID  path      int  true  "Staff ID"
// @Success      200      {object}  StaffDetail
// @Failure      404      {object}  api.ErrorResponse
// @Router       /gyms/{gymID}/staff/{staffID} [get]
func (h *Handler) GetStaff(c *gin.Context) {
	access, _ := GetAccess(c)
	staffID, ok := api.ParamID(c, "staffID", "staff")
	if !ok {
		return
	}

	detail, err := h.service.GetStaff(c.Request.Context(), access.Gym.ID, staffID)
	if err != nil {
		writeError(c, err, "load staff")
		return
	}
	c.JSON(http.StatusOK, detail)
}

// ShareLink godoc
// @Summary      Gym share link
// @Description  Join link for the gym with its QR code as base64 PNG.
// @Tags         gyms
// @Produce      json
// @Security     BearerAuth
// @Param        gymID  path      int  true  "Gym ID"
// @Success      200    {object}  qr.ShareLink
// @Router       /gyms/{gymID}/share-link [get]
func (h *Handler) ShareLink(c *gin.Context) {
	access, _ := GetAccess(c)

	link, err := h.service.ShareLink(c.Request.Context(), access.Gym.ID)
	if err != nil {
		writeError(c, err, "create share link")
		return
	}
	c.JSON(http.StatusOK, link)
}
