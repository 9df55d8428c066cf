package notification

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"gymhub/internal/api"
	"gymhub/internal/auth"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func setupRouter(repo Repository) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(NewService(repo, nil, nil), NewHub())

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(auth.ContextUserID, 3)
		c.Next()
	})
	r.GET("/notifications", h.List)
	r.GET("/notifications/unread-count", h.UnreadCount)
	r.POST("/notifications/:id/read", h.MarkRead)
	r.POST("/notifications/read-all", h.MarkAllRead)
	return r
}

func TestHandler_List(t *testing.T) {
	repo := new(MockRepository)
	repo.On("ListByUser", mock.Anything, 3, true, api.Pagination{Number: 2, Size: api.DefaultPageSize}).
		Return([]Notification{{ID: 1, UserID: 3, Message: "hello"}}, 11, nil)

	w := httptest.NewRecorder()
	setupRouter(repo).ServeHTTP(w, httptest.NewRequest("GET", "/notifications?unread=true&page=2", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total_pages":2`)
	repo.AssertExpectations(t)
}

func TestHandler_MarkRead(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
	}{
		{"marked", nil, http.StatusOK},
		{"already read is idempotent", ErrAlreadyRead, http.StatusOK},
		{"not mine", ErrNotificationNotFound, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRepository)
			repo.On("MarkRead", mock.Anything, 5, 3).Return(tt.err)

			w := httptest.NewRecorder()
			setupRouter(repo).ServeHTTP(w, httptest.NewRequest("POST", "/notifications/5/read", nil))

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestHandler_MarkAllRead(t *testing.T) {
	repo := new(MockRepository)
	repo.On("MarkAllRead", mock.Anything, 3).Return(int64(4), nil)

	w := httptest.NewRecorder()
	setupRouter(repo).ServeHTTP(w, httptest.NewRequest("POST", "/notifications/read-all", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"updated":4}`, w.Body.String())
}

func TestHandler_UnreadCount(t *testing.T) {
	repo := new(MockRepository)
	repo.On("UnreadCount", mock.Anything, 3).Return(2, nil)

	w := httptest.NewRecorder()
	setupRouter(repo).ServeHTTP(w, httptest.NewRequest("GET", "/notifications/unread-count", nil))

	assert.JSONEq(t, `{"count":2}`, w.Body.String())
}
