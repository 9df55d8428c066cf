package member

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"gymhub/internal/gym"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func setupRouter(f *fixture) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(f.svc)

	r := gin.New()
	g := r.Group("/gyms/:gymID", func(c *gin.Context) {
		c.Set(gym.ContextAccess, &gym.Access{Gym: ironTemple, Owner: true})
		c.Next()
	})
	g.POST("/members", h.Create)
	g.GET("/members/:memberID", h.Get)
	g.POST("/members/:memberID/deactivate", h.Deactivate)
	g.POST("/members/:memberID/renew", h.Renew)
	return r
}

func do(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestHandler_CreateValidation(t *testing.T) {
	f := newFixture(t)
	w := do(setupRouter(f), http.MethodPost, "/gyms/9/members", `{"name":"Ann","phone":"0788","gender":"x","member_type":"individual"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Gender must be one of")
}

func TestHandler_CreateQuota(t *testing.T) {
	f := newFixture(t)
	f.mock.ExpectBegin()
	f.expectQuota(10, 10)
	f.mock.ExpectRollback()

	w := do(setupRouter(f), http.MethodPost, "/gyms/9/members",
		`{"name":"Ann","phone":"0788","gender":"female","member_type":"individual"}`)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "Member limit reached")
}

func TestHandler_GetOtherGymsMember(t *testing.T) {
	f := newFixture(t)
	f.repo.On("FindByID", mock.Anything, 9, 44).Return(nil, ErrMemberNotFound)

	w := do(setupRouter(f), http.MethodGet, "/gyms/9/members/44", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandler_DeactivateTwice(t *testing.T) {
	f := newFixture(t)
	f.repo.On("FindByID", mock.Anything, 9, 31).Return(&Member{ID: 31, GymID: 9, IsActive: false}, nil)

	w := do(setupRouter(f), http.MethodPost, "/gyms/9/members/31/deactivate", "")
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestHandler_RenewWithoutBody(t *testing.T) {
	f := newFixture(t)
	f.mock.ExpectBegin()
	f.mock.ExpectQuery(`FOR UPDATE OF m`).WillReturnRows(
		sqlmock.NewRows(memberRow).AddRow(31, 9, "Ann", nil, "0788", "female", "individual", nil, nil, testNow, nil, nil, true, "k"))
	f.mock.ExpectRollback()

	w := do(setupRouter(f), http.MethodPost, "/gyms/9/members/31/renew", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "no plan")
}
