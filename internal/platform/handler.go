package platform

import (
	"errors"
	"net/http"

	"gymhub/internal/api"
	"gymhub/internal/auth"
	"gymhub/internal/gym"
	"gymhub/internal/logger"
	"gymhub/internal/subscription"

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
	case errors.Is(err, gym.ErrGymNotFound):
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Gym not found"})
	case errors.Is(err, subscription.ErrPlanNotFound):
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Subscription plan not found"})
	case errors.Is(err, gym.ErrGymAlreadyActive):
		c.JSON(http.StatusConflict, api.ErrorResponse{Error: "Gym is already active"})
	case errors.Is(err, ErrNoRecipients):
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "There are no gym owners to notify"})
	case errors.Is(err, ErrInvalidTimezone):
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Timezone must be an IANA name such as Africa/Kigali"})
	default:
		logger.WithError(err).Error(action + " failed")
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to " + action})
	}
}

// Dashboard godoc
// @Summary      Platform dashboard
// @Description  Gym counts by state, platform totals, newest gyms, latest paid invoices and the admin's notifications.
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  Dashboard
// @Failure      403  {object}  api.ErrorResponse
// @Router       /admin/dashboard [get]
func (h *Handler) Dashboard(c *gin.Context) {
	userID, _ := auth.GetUserID(c)

	d, err := h.service.Dashboard(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err, "load dashboard")
		return
	}
	c.JSON(http.StatusOK, d)
}

// ListGyms godoc
// @Summary      List gyms
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        status  query     string  false  "active, expiring, expired, pending or all"  Enums(active, expiring, expired, pending, all)
// @Param        q       query     string  false  "Search name or email"
// @Param        page    query     int     false  "Page"
// @Success      200     {object}  api.Page[gym.Gym]
// @Failure      400     {object}  api.ErrorResponse
// @Router       /admin/gyms [get]
func (h *Handler) ListGyms(c *gin.Context) {
	status := c.DefaultQuery("status", "all")
	switch status {
	case "active", "expiring", "expired", "pending", "all":
	default:
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Unknown status filter"})
		return
	}

	page := api.PaginationFromQuery(c)
	gyms, total, err := h.service.ListGyms(c.Request.Context(), gym.Filter{
		Status: status,
		Search: c.Query("q"),
		Page:   page,
	})
	if err != nil {
		writeError(c, err, "list gyms")
		return
	}
	c.JSON(http.StatusOK, api.NewPage(gyms, page, total))
}

// GymDetail godoc
// @Summary      Gym detail
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        gymID  path      int  true  "Gym ID"
// @Success      200    {object}  GymDetail
// @Failure      404    {object}  api.ErrorResponse
// @Router       /admin/gyms/{gymID} [get]
func (h *Handler) GymDetail(c *gin.Context) {
	gymID, ok := api.ParamID(c, "gymID", "gym")
	if !ok {
		return
	}

	d, err := h.service.GymDetail(c.Request.Context(), gymID)
	if err != nil {
		writeError(c, err, "load gym")
		return
	}
	c.JSON(http.StatusOK, d)
}

// ApproveGym godoc
// @Summary      Approve a gym
// @Description  Activates a pending gym and notifies its owner once.
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        gymID  path      int  true  "Gym ID"
// @Success      200    {object}  gym.Gym
// @Failure      404    {object}  api.ErrorResponse
// @Failure      409    {object}  api.ErrorResponse
// @Router       /admin/gyms/{gymID}/approve [post]
func (h *Handler) ApproveGym(c *gin.Context) {
	gymID, ok := api.ParamID(c, "gymID", "gym")
	if !ok {
		return
	}

	g, err := h.service.ApproveGym(c.Request.Context(), gymID)
	if err != nil {
		writeError(c, err, "approve gym")
		return
	}
	c.JSON(http.StatusOK, g)
}

// RenewSubscription godoc
// @Summary      Bill a subscription renewal
// @Description  Creates an unpaid renewal invoice for the gym's plan price. Paying it extends the expiry date.
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        gymID  path      int  true  "Gym ID"
// @Success      201    {object}  billing.Invoice
// @Failure      404    {object}  api.ErrorResponse
// @Router       /admin/gyms/{gymID}/renew [post]
func (h *Handler) RenewSubscription(c *gin.Context) {
	gymID, ok := api.ParamID(c, "gymID", "gym")
	if !ok {
		return
	}

	inv, err := h.service.RenewSubscription(c.Request.Context(), gymID)
	if err != nil {
		writeError(c, err, "create renewal invoice")
		return
	}
	c.JSON(http.StatusCreated, inv)
}

// Broadcast godoc
// @Summary      Notify gym owners
// @Description  Sends a notification to every gym owner or to the owner of one gym.
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      BroadcastRequest  true  "Message"
// @Success      200      {object}  BroadcastResult
// @Failure      400      {object}  api.ValidationErrorResponse
// @Failure      404      {object}  api.ErrorResponse
// @Router       /admin/notifications [post]
func (h *Handler) Broadcast(c *gin.Context) {
	var req BroadcastRequest
	if !api.BindJSON(c, &req) {
		return
	}

	res, err := h.service.Broadcast(c.Request.Context(), req)
	if err != nil {
		writeError(c, err, "send notification")
		return
	}
	c.JSON(http.StatusOK, res)
}

// GetSettings godoc
// @Summary      System settings
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  Settings
// @Router       /admin/settings [get]
func (h *Handler) GetSettings(c *gin.Context) {
	s, err := h.service.Settings(c.Request.Context())
	if err != nil {
		writeError(c, err, "load settings")
		return
	}
	c.JSON(http.StatusOK, s)
}

// UpdateSettings godoc
// @Summary      Update system settings
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      SettingsRequest  true  "Settings"
// @Success      200      {object}  Settings
// @Failure      400      {object}  api.ValidationErrorResponse
// @Router       /admin/settings [put]
func (h *Handler) UpdateSettings(c *gin.Context) {
	var req SettingsRequest
	if !api.BindJSON(c, &req) {
		return
	}

	s, err := h.service.UpdateSettings(c.Request.Context(), req)
	if err != nil {
		writeError(c, err, "update settings")
		return
	}
	c.JSON(http.StatusOK, s)
}

// ShareLink godoc
// @Summary      Registration link
// @Description  The public registration URL and its QR code as base64 PNG.
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  qr.ShareLink
// @Router       /admin/share-link [get]
func (h *Handler) ShareLink(c *gin.Context) {
	link, err := h.service.RegistrationLink(c.Request.Context())
	if err != nil {
		writeError(c, err, "create share link")
		return
	}
	c.JSON(http.StatusOK, link)
}

// Invite godoc
// @Summary      Email the registration link
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      InviteRequest  true  "Recipient"
// @Success      200      {object}  qr.ShareLink
// @Failure      400      {object}  api.ValidationErrorResponse
// @Router       /admin/share-link [post]
func (h *Handler) Invite(c *gin.Context) {
	var req InviteRequest
	if !api.BindJSON(c, &req) {
		return
	}

	link, err := h.service.Invite(c.Request.Context(), req)
	if err != nil {
		writeError(c, err, "send invitation")
		return
	}
	c.JSON(http.StatusOK, link)
}
