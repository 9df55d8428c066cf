package attendance

import (
	"errors"
	"net/http"
	"time"

	"gymhub/internal/api"
	"gymhub/internal/gym"
	"gymhub/internal/logger"
	"gymhub/internal/member"

	"github.com/gin-gonic/gin"
)

const defaultReportDays = 7

type Handler struct {
	service Service
	now     func() time.Time
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service, now: time.Now}
}

func writeError(c *gin.Context, err error, action string) {
	switch {
	case errors.Is(err, member.ErrMemberNotFound):
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Member not found"})
	case errors.Is(err, gym.ErrStaffNotFound):
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Staff not found"})
	case errors.Is(err, ErrMemberInactive):
		c.JSON(http.StatusConflict, api.ErrorResponse{Error: "Membership is inactive"})
	default:
		logger.WithError(err).Error(action + " failed")
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to " + action})
	}
}

// RecordManual godoc
// @Summary      Manual check-in
// @Description  Records a manual check-in for exactly one of member_id or staff_id.
// @Tags         attendance
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        gymID    path      int            true  "Gym ID"
// @Param        request  body      ManualRequest  true  "Who checks in"
// @Success      201      {object}  Record
// @Failure      400      {object}  api.ValidationErrorResponse
// @Failure      404      {object}  api.ErrorResponse
// @Failure      409      {object}  api.ErrorResponse
// @Router       /gyms/{gymID}/attendance [post]
func (h *Handler) RecordManual(c *gin.Context) {
	access, _ := gym.GetAccess(c)

	var req ManualRequest
	if !api.BindJSON(c, &req) {
		return
	}

	rec, err := h.service.RecordManual(c.Request.Context(), access.Gym.ID, req)
	if err != nil {
		writeError(c, err, "record attendance")
		return
	}
	c.JSON(http.StatusCreated, rec)
}

// Scan godoc
// @Summary      QR check-in
// @Description  Verifies a scanned member card and records the check-in.
// @Tags         attendance
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        gymID    path      int          true  "Gym ID"
// @Param        request  body      ScanRequest  true  "Scanned payload"
// @Success      200      {object}  ScanResult
// @Failure      400      {object}  ScanResult
// @Failure      404      {object}  ScanResult
// @Failure      409      {object}  ScanResult
// @Router       /gyms/{gymID}/attendance/scan [post]
func (h *Handler) Scan(c *gin.Context) {
	access, _ := gym.GetAccess(c)

	var req ScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ScanResult{Status: "error", Message: "QR payload is required"})
		return
	}

	m, err := h.service.Scan(c.Request.Context(), access.Gym.ID, req.Payload)
	if err != nil {
		status, message := scanFailure(err)
		c.JSON(status, ScanResult{Status: "error", Message: message})
		return
	}
	c.JSON(http.StatusOK, ScanResult{Status: "success", MemberName: m.Name})
}

func scanFailure(err error) (int, string) {
	switch {
	case errors.Is(err, member.ErrInvalidQR):
		return http.StatusBadRequest, "Invalid QR code"
	case errors.Is(err, ErrWrongGym):
		return http.StatusBadRequest, "This QR code belongs to another gym"
	case errors.Is(err, member.ErrMemberNotFound):
		return http.StatusNotFound, "Member not found"
	case errors.Is(err, ErrMemberInactive):
		return http.StatusConflict, "Membership is inactive"
	}
	logger.WithError(err).Error("qr scan failed")
	return http.StatusInternalServerError, "Failed to record attendance"
}

// Report godoc
// @Summary      Attendance report
// @Description  Member, staff and total check-ins for every day in the range. Defaults to the last 7 days.
// @Tags         attendance
// @Produce      json
// @Security     BearerAuth
// @Param        gymID  path      int     true   "Gym ID"
// @Param        from   query     string  false  "First day (YYYY-MM-DD)"
// @Param        to     query     string  false  "Last day (YYYY-MM-DD)"
// @Success      200    {object}  Report
// @Failure      400    {object}  api.ErrorResponse
// @Router       /gyms/{gymID}/attendance/report [get]
func (h *Handler) Report(c *gin.Context) {
	access, _ := gym.GetAccess(c)

	from, to, err := api.DateRangeFromQuery(c, h.now(), defaultReportDays)
	if err != nil {
		api.WriteRangeError(c, err)
		return
	}

	report, err := h.service.Report(c.Request.Context(), access.Gym.ID, from, to)
	if err != nil {
		writeError(c, err, "load attendance report")
		return
	}
	c.JSON(http.StatusOK, report)
}
