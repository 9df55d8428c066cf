package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	DefaultPageSize = 10
	// MaxPage keeps the OFFSET far from integer overflow.
	MaxPage = 100000
)

type ErrorResponse struct {
	Error string `json:"error" example:"something went wrong"`
}

type MessageResponse struct {
	Message string `json:"message" example:"ok"`
}

type HealthResponse struct {
	Status string `json:"status" example:"ok"`
}

type CountResponse struct {
	Count int `json:"count" example:"3"`
}

// Page is a paginated list envelope.
type Page[T any] struct {
	Items      []T `json:"items"`
	Page       int `json:"page" example:"1"`
	PageSize   int `json:"page_size" example:"10"`
	Total      int `json:"total" example:"42"`
	TotalPages int `json:"total_pages" example:"5"`
}

func NewPage[T any](items []T, p Pagination, total int) Page[T] {
	if items == nil {
		items = []T{}
	}
	pages := 0
	if p.Size > 0 {
		pages = (total + p.Size - 1) / p.Size
	}
	return Page[T]{
		Items:      items,
		Page:       p.Number,
		PageSize:   p.Size,
		Total:      total,
		TotalPages: pages,
	}
}

type Pagination struct {
	Number int
	Size   int
}

func (p Pagination) Offset() int {
	return (p.Number - 1) * p.Size
}

// PaginationFromQuery reads ?page= with a fixed page size. Invalid or
// missing values fall back to the first page; pages past MaxPage are
// clamped to it.
func PaginationFromQuery(c *gin.Context) Pagination {
	page, err := strconv.Atoi(c.Query("page"))
	if err != nil || page < 1 {
		page = 1
	}
	if page > MaxPage {
		page = MaxPage
	}
	return Pagination{Number: page, Size: DefaultPageSize}
}

// ParamID parses a positive integer path parameter, writing a 400 response
// when it is malformed.
func ParamID(c *gin.Context, name, label string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid " + label + " ID"})
		return 0, false
	}
	return id, true
}
