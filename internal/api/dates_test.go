package api

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rangeFor(t *testing.T, query string) (time.Time, time.Time, error) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/?"+query, nil)
	now := time.Date(2025, 3, 10, 18, 30, 0, 0, time.UTC)
	return DateRangeFromQuery(c, now, 7)
}

func day(s string) time.Time {
	d, _ := time.Parse(DateLayout, s)
	return d
}

func TestDateRangeFromQuery(t *testing.T) {
	t.Run("default window", func(t *testing.T) {
		from, to, err := rangeFor(t, "")
		require.NoError(t, err)
		assert.Equal(t, day("2025-03-04"), from)
		assert.Equal(t, day("2025-03-10"), to)
	})

	t.Run("explicit bounds", func(t *testing.T) {
		from, to, err := rangeFor(t, "from=2025-01-01&to=2025-01-31")
		require.NoError(t, err)
		assert.Equal(t, day("2025-01-01"), from)
		assert.Equal(t, day("2025-01-31"), to)
	})

	t.Run("inverted range passes through", func(t *testing.T) {
		from, to, err := rangeFor(t, "from=2025-03-10&to=2025-03-01")
		require.NoError(t, err)
		assert.True(t, to.Before(from))
	})

	t.Run("longest allowed", func(t *testing.T) {
		_, _, err := rangeFor(t, "from=2024-01-01&to=2024-12-31")
		assert.NoError(t, err)
	})

	t.Run("one day too long", func(t *testing.T) {
		_, _, err := rangeFor(t, "from=2024-01-01&to=2025-01-01")
		assert.ErrorIs(t, err, ErrRangeTooLong)
	})

	t.Run("far apart", func(t *testing.T) {
		_, _, err := rangeFor(t, "from=0001-01-01&to=9999-12-31")
		assert.ErrorIs(t, err, ErrRangeTooLong)
	})

	t.Run("bad date", func(t *testing.T) {
		_, _, err := rangeFor(t, "to=10/03/2025")
		assert.ErrorIs(t, err, ErrInvalidDate)
	})
}

func TestToday(t *testing.T) {
	kigali := time.FixedZone("CAT", 2*60*60)
	now := time.Date(2025, 3, 11, 1, 0, 0, 0, kigali)
	assert.Equal(t, day("2025-03-10"), Today(now))
}
