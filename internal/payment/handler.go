package payment

import (
	"net/http"

	"gymhub/internal/api"
	"gymhub/internal/logger"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	repo Repository
}

func NewHandler(repo Repository) *Handler {
	return &Handler{repo: repo}
}

// @Summary      List payment methods
// @Tags         payments
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} payment.Method
// @Failure      401 {object} api.ErrorResponse
// @Failure      500 {object} api.ErrorResponse
// @Router       /payment-methods [get]
func (h *Handler) ListMethods(c *gin.Context) {
	methods, err := h.repo.ListActive(c.Request.Context())
	if err != nil {
		logger.WithError(err).Error("failed to list payment methods")
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to fetch payment methods"})
		return
	}
	if methods == nil {
		methods = []Method{}
	}
	c.JSON(http.StatusOK, methods)
}
