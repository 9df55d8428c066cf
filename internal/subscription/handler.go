package subscription

import (
	"errors"
	"net/http"

	"gymhub/internal/api"
	"gymhub/internal/logger"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// ListPlans godoc
// @Summary      List subscription plans
// @Tags         plans
// @Produce      json
// @Success      200  {array}   Plan
// @Failure      500  {object}  api.ErrorResponse
// @Router       /plans [get]
func (h *Handler) ListPlans(c *gin.Context) {
	plans, err := h.service.List(c.Request.Context())
	if err != nil {
		logger.WithError(err).Error("list plans failed")
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to load plans"})
		return
	}
	c.JSON(http.StatusOK, plans)
}

// CreatePlan godoc
// @Summary      Create subscription plan
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      PlanRequest  true  "Plan"
// @Success      201      {object}  Plan
// @Failure      400      {object}  api.ValidationErrorResponse
// @Failure      409      {object}  api.ErrorResponse
// @Router       /admin/plans [post]
func (h *Handler) CreatePlan(c *gin.Context) {
	var req PlanRequest
	if !api.BindJSON(c, &req) {
		return
	}

	p, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// UpdatePlan godoc
// @Summary      Update subscription plan
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        planID   path      int          true  "Plan ID"
// @Param        request  body      PlanRequest  true  "Plan"
// @Success      200      {object}  Plan
// @Failure      400      {object}  api.ValidationErrorResponse
// @Failure      404      {object}  api.ErrorResponse
// @Failure      409      {object}  api.ErrorResponse
// @Router       /admin/plans/{planID} [put]
func (h *Handler) UpdatePlan(c *gin.Context) {
	id, ok := api.ParamID(c, "planID", "plan")
	if !ok {
		return
	}

	var req PlanRequest
	if !api.BindJSON(c, &req) {
		return
	}

	p, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNegativePrice):
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
	case errors.Is(err, ErrPlanNotFound):
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Plan not found"})
	case errors.Is(err, ErrTierTaken):
		c.JSON(http.StatusConflict, api.ErrorResponse{Error: err.Error()})
	default:
		logger.WithError(err).Error("plan request failed")
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to save plan"})
	}
}
