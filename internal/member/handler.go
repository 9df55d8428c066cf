package member

import (
	"errors"
	"net/http"

	"gymhub/internal/api"
	"gymhub/internal/gym"
	"gymhub/internal/logger"
	"gymhub/internal/payment"

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
	case errors.Is(err, ErrMemberNotFound):
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Member not found"})
	case errors.Is(err, ErrNoQRCode):
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Member has no QR code"})
	case errors.Is(err, gym.ErrPlanNotFound):
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Plan not found in this gym"})
	case errors.Is(err, payment.ErrMethodNotFound), errors.Is(err, payment.ErrMethodInactive):
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
	case errors.Is(err, ErrNoPlan):
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Member has no plan to renew"})
	case errors.Is(err, ErrMemberLimitReached):
		c.JSON(http.StatusConflict, api.ErrorResponse{Error: "Member limit reached. Upgrade your subscription plan to add more members"})
	case errors.Is(err, ErrMemberAlreadyInactive):
		c.JSON(http.StatusConflict, api.ErrorResponse{Error: "Member is already inactive"})
	default:
		logger.WithError(err).Error(action + " failed")
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to " + action})
	}
}

// List godoc
// @Summary      List members
// @Tags         members
// @Produce      json
// @Security     BearerAuth
// @Param        gymID   path      int     true   "Gym ID"
// @Param        page    query     int     false  "Page"
// @Param        q       query     string  false  "Search name, phone or email"
// @Param        status  query     string  false  "active, expired or inactive"
// @Success      200     {object}  api.Page[Member]
// @Router       /gyms/{gymID}/members [get]
func (h *Handler) List(c *gin.Context) {
	access, _ := gym.GetAccess(c)

	f := Filter{
		GymID:  access.Gym.ID,
		Status: c.Query("status"),
		Search: c.Query("q"),
		Page:   api.PaginationFromQuery(c),
	}
	members, total, err := h.service.List(c.Request.Context(), f)
	if err != nil {
		writeError(c, err, "load members")
		return
	}
	c.JSON(http.StatusOK, api.NewPage(members, f.Page, total))
}

// Create godoc
// @Summary      Enroll member
// @Description  Creates the member with its QR code and, when a plan is chosen, a paid membership invoice.
// @Tags         members
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        gymID    path      int                  true  "Gym ID"
// @Param        request  body      CreateMemberRequest  true  "Member"
// @Success      201      {object}  Enrollment
// @Failure      400      {object}  api.ValidationErrorResponse
// @Failure      409      {object}  api.ErrorResponse
// @Router       /gyms/{gymID}/members [post]
func (h *Handler) Create(c *gin.Context) {
	access, _ := gym.GetAccess(c)

	var req CreateMemberRequest
	if !api.BindJSON(c, &req) {
		return
	}

	e, err := h.service.Create(c.Request.Context(), access.Gym, req)
	if err != nil {
		writeError(c, err, "enroll member")
		return
	}
	c.JSON(http.StatusCreated, e)
}

// Get godoc
// @Summary      Member detail
// @Tags         members
// @Produce      json
// @Security     BearerAuth
// @Param        gymID     path      int  true  "Gym ID"
// @Param        memberID  path      int  true  "Member ID"
// @Success      200       {object}  Detail
// @Failure      404       {object}  api.ErrorResponse
// @Router       /gyms/{gymID}/members/{memberID} [get]
func (h *Handler) Get(c *gin.Context) {
	access, _ := gym.GetAccess(c)
	memberID, ok := api.ParamID(c, "memberID", "member")
	if !ok {
		return
	}

	d, err := h.service.Get(c.Request.Context(), access.Gym.ID, memberID)
	if err != nil {
		writeError(c, err, "load member")
		return
	}
	c.JSON(http.StatusOK, d)
}

// QRCode godoc
// @Summary      Member QR code
// @Description  Short-lived link to the member's QR code image.
// @Tags         members
// @Produce      json
// @Security     BearerAuth
// @Param        gymID     path      int  true  "Gym ID"
// @Param        memberID  path      int  true  "Member ID"
// @Success      200       {object}  QRCodeResponse
// @Failure      404       {object}  api.ErrorResponse
// @Router       /gyms/{gymID}/members/{memberID}/qr [get]
func (h *Handler) QRCode(c *gin.Context) {
	access, _ := gym.GetAccess(c)
	memberID, ok := api.ParamID(c, "memberID", "member")
	if !ok {
		return
	}

	res, err := h.service.QRCodeURL(c.Request.Context(), access.Gym.ID, memberID)
	if err != nil {
		writeError(c, err, "load qr code")
		return
	}
	c.JSON(http.StatusOK, res)
}

// Renew godoc
// @Summary      Renew membership
// @Tags         members
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        gymID     path      int           true   "Gym ID"
// @Param        memberID  path      int           true   "Member ID"
// @Param        request   body      RenewRequest  false  "Payment method"
// @Success      200       {object}  Enrollment
// @Failure      400       {object}  api.ErrorResponse
// @Failure      404       {object}  api.ErrorResponse
// @Router       /gyms/{gymID}/members/{memberID}/renew [post]
func (h *Handler) Renew(c *gin.Context) {
	access, _ := gym.GetAccess(c)
	memberID, ok := api.ParamID(c, "memberID", "member")
	if !ok {
		return
	}

	var req RenewRequest
	if c.Request.ContentLength > 0 && !api.BindJSON(c, &req) {
		return
	}

	e, err := h.service.Renew(c.Request.Context(), access.Gym.ID, memberID, req)
	if err != nil {
		writeError(c, err, "renew membership")
		return
	}
	c.JSON(http.StatusOK, e)
}

// Deactivate godoc
// @Summary      Deactivate member
// @Tags         members
// @Produce      json
// @Security     BearerAuth
// @Param        gymID     path      int  true  "Gym ID"
// @Param        memberID  path      int  true  "Member ID"
// @Success      200       {object}  Member
// @Failure      404       {object}  api.ErrorResponse
// @Failure      409       {object}  api.ErrorResponse
// @Router       /gyms/{gymID}/members/{memberID}/deactivate [post]
func (h *Handler) Deactivate(c *gin.Context) {
	access, _ := gym.GetAccess(c)
	memberID, ok := api.ParamID(c, "memberID", "member")
	if !ok {
		return
	}

	m, err := h.service.Deactivate(c.Request.Context(), access.Gym.ID, memberID)
	if err != nil {
		writeError(c, err, "deactivate member")
		return
	}
	c.JSON(http.StatusOK, m)
}

// Notify godoc
// @Summary      Message a member
// @Tags         members
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        gymID     path      int            true  "Gym ID"
// @Param        memberID  path      int            true  "Member ID"
// @Param        request   body      NotifyRequest  true  "Message"
// @Success      200       {object}  api.MessageResponse
// @Failure      404       {object}  api.ErrorResponse
// @Router       /gyms/{gymID}/members/{memberID}/notify [post]
func (h *Handler) Notify(c *gin.Context) {
	access, _ := gym.GetAccess(c)
	memberID, ok := api.ParamID(c, "memberID", "member")
	if !ok {
		return
	}

	var req NotifyRequest
	if !api.BindJSON(c, &req) {
		return
	}

	if err := h.service.Notify(c.Request.Context(), access.Gym, memberID, req); err != nil {
		writeError(c, err, "send message")
		return
	}
	c.JSON(http.StatusOK, api.MessageResponse{Message: "Message sent"})
}
