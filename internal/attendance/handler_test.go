package attendance

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"gymhub/internal/gym"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func setupRouter(f *fixture) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(f.svc)
	h.now = func() time.Time { return testNow }

	r := gin.New()
	g := r.Group("/gyms/:gymID", func(c *gin.Context) {
		c.Set(gym.ContextAccess, &gym.Access{Gym: &gym.Gym{ID: 9, OwnerID: 3}, Owner: true})
		c.Next()
	})
	g.POST("/attendance", h.RecordManual)
	g.POST("/attendance/scan", h.Scan)
	g.GET("/attendance/report", h.Report)
	return r
}

func do(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestHandler_RecordManual_NeedsExactlyOne(t *testing.T) {
	for _, body := range []string{`{}`, `{"member_id":4,"staff_id":2}`} {
		f := newFixture(t)
		w := do(setupRouter(f), http.MethodPost, "/gyms/9/attendance", body)

		assert.Equal(t, http.StatusBadRequest, w.Code, body)
		f.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	}
}

func TestHandler_RecordManual_Inactive(t *testing.T) {
	f := newFixture(t)
	f.expectMember(9, 4, false)

	w := do(setupRouter(f), http.MethodPost, "/gyms/9/attendance", `{"member_id":4}`)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestHandler_RecordManual_Created(t *testing.T) {
	f := newFixture(t)
	f.expectMember(9, 4, true)
	f.repo.On("Create", mock.Anything, isMemberCheckIn(MethodManual)).Return(nil)

	w := do(setupRouter(f), http.MethodPost, "/gyms/9/attendance", `{"member_id":4}`)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"method":"manual"`)
}

func TestHandler_Scan(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		f := newFixture(t)
		f.expectMember(9, 4, true)
		f.repo.On("Create", mock.Anything, isMemberCheckIn(MethodQR)).Return(nil)

		w := do(setupRouter(f), http.MethodPost, "/gyms/9/attendance/scan", `{"payload":"`+card(t, 9, 4, testSecret)+`"}`)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"status":"success","member_name":"Ann"}`, w.Body.String())
	})

	t.Run("wrong gym", func(t *testing.T) {
		f := newFixture(t)

		w := do(setupRouter(f), http.MethodPost, "/gyms/9/attendance/scan", `{"payload":"`+card(t, 12, 4, testSecret)+`"}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), `"status":"error"`)
	})

	t.Run("garbage", func(t *testing.T) {
		f := newFixture(t)

		w := do(setupRouter(f), http.MethodPost, "/gyms/9/attendance/scan", `{"payload":"not-a-card"}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "Invalid QR code")
	})

	t.Run("not found", func(t *testing.T) {
		f := newFixture(t)
		f.expectNoMember(9, 4)

		w := do(setupRouter(f), http.MethodPost, "/gyms/9/attendance/scan", `{"payload":"`+card(t, 9, 4, testSecret)+`"}`)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestHandler_Report_DefaultWeek(t *testing.T) {
	f := newFixture(t)
	to := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	from := to.AddDate(0, 0, -(defaultReportDays - 1))
	f.repo.On("DailyCounts", mock.Anything, 9, from, to).Return([]dailyCount{}, nil)

	w := do(setupRouter(f), http.MethodGet, "/gyms/9/attendance/report", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"from":"2025-03-04"`)
	assert.Contains(t, w.Body.String(), `"date":"2025-03-10"`)
}

func TestHandler_Report_RangeTooLong(t *testing.T) {
	f := newFixture(t)

	w := do(setupRouter(f), http.MethodGet, "/gyms/9/attendance/report?from=0001-01-01&to=9999-12-31", "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "longer than 366 days")
	f.repo.AssertNotCalled(t, "DailyCounts", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestHandler_Report_FullYearAllowed(t *testing.T) {
	f := newFixture(t)
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)
	f.repo.On("DailyCounts", mock.Anything, 9, from, to).Return([]dailyCount{}, nil)

	w := do(setupRouter(f), http.MethodGet, "/gyms/9/attendance/report?from=2024-01-01&to=2024-12-31", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 366, strings.Count(w.Body.String(), `"date":`))
}

func TestHandler_Report_InvertedRangeIsEmpty(t *testing.T) {
	f := newFixture(t)
	from := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	f.repo.On("DailyCounts", mock.Anything, 9, from, to).Return([]dailyCount{}, nil)

	w := do(setupRouter(f), http.MethodGet, "/gyms/9/attendance/report?from=2025-03-10&to=2025-03-01", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"days":[]`)
}
