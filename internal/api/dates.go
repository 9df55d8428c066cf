package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	DateLayout = "2006-01-02"

	// MaxRangeDays bounds report windows; per-day reports emit one row per day.
	MaxRangeDays = 366
)

var (
	ErrInvalidDate  = errors.New("dates must be YYYY-MM-DD")
	ErrRangeTooLong = fmt.Errorf("range is longer than %d days", MaxRangeDays)
)

// Today truncates now to midnight UTC. Calendar fields (registration and
// expiry dates) are stored as DATE and compared in UTC.
func Today(now time.Time) time.Time {
	y, m, d := now.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DateRangeFromQuery reads ?from= and ?to= (YYYY-MM-DD). Missing bounds
// default to the window [today-defaultDays+1, today]. The returned to is
// inclusive. A from after to is an empty range, not an error.
func DateRangeFromQuery(c *gin.Context, now time.Time, defaultDays int) (from, to time.Time, err error) {
	to = Today(now)
	from = to.AddDate(0, 0, -(defaultDays - 1))

	if v := c.Query("from"); v != "" {
		if from, err = time.Parse(DateLayout, v); err != nil {
			return time.Time{}, time.Time{}, ErrInvalidDate
		}
	}
	if v := c.Query("to"); v != "" {
		if to, err = time.Parse(DateLayout, v); err != nil {
			return time.Time{}, time.Time{}, ErrInvalidDate
		}
	}
	if to.After(from.AddDate(0, 0, MaxRangeDays-1)) {
		return time.Time{}, time.Time{}, ErrRangeTooLong
	}
	return from, to, nil
}

// WriteRangeError answers a rejected date range with 400.
func WriteRangeError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid date range: " + err.Error()})
}
