package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestPaginationFromQuery(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		query    string
		expected int
	}{
		{"", 1},
		{"page=3", 3},
		{"page=0", 1},
		{"page=abc", 1},
		{"page=100001", MaxPage},
		{"page=9223372036854775807", MaxPage},
		{"page=99999999999999999999", 1},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest("GET", "/?"+tt.query, nil)

			p := PaginationFromQuery(c)
			assert.Equal(t, tt.expected, p.Number)
			assert.Equal(t, DefaultPageSize, p.Size)
			assert.GreaterOrEqual(t, p.Offset(), 0)
		})
	}
}

func TestNewPage(t *testing.T) {
	p := NewPage([]string{"a", "b"}, Pagination{Number: 2, Size: 10}, 21)

	assert.Equal(t, 3, p.TotalPages)
	assert.Equal(t, 2, p.Page)
	assert.Len(t, p.Items, 2)
	assert.Equal(t, 10, Pagination{Number: 2, Size: 10}.Offset())

	empty := NewPage[int](nil, Pagination{Number: 1, Size: 10}, 0)
	assert.NotNil(t, empty.Items)
	assert.Equal(t, 0, empty.TotalPages)
}

func TestParamID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Params = gin.Params{{Key: "gymID", Value: "x"}}

	_, ok := ParamID(c, "gymID", "gym")
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid gym ID")

	c, _ = gin.CreateTestContext(httptest.NewRecorder())
	c.Params = gin.Params{{Key: "gymID", Value: "12"}}
	id, ok := ParamID(c, "gymID", "gym")
	assert.True(t, ok)
	assert.Equal(t, 12, id)
}
