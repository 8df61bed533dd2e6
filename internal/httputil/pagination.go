package httputil

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
)

// Page size bounds of list endpoints.
const (
	DefaultPageSize = 25
	MaxPageSize     = 100
)

// Pagination is the offset/limit window of a list request.
type Pagination struct {
	Offset int
	Limit  int
}

// ParsePagination reads the offset and limit query parameters. offset defaults
// to 0 and limit to DefaultPageSize, at most MaxPageSize.
func ParsePagination(c *gin.Context) (Pagination, error) {
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		return Pagination{}, fmt.Errorf("invalid offset parameter: must be a non-negative integer")
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(DefaultPageSize)))
	if err != nil || limit < 1 || limit > MaxPageSize {
		return Pagination{}, fmt.Errorf("invalid limit parameter: must be between 1 and %d", MaxPageSize)
	}

	return Pagination{Offset: offset, Limit: limit}, nil
}

// Paginate returns the window of items selected by p and the offset of the
// following window, nil on the last one.
func Paginate[T any](items []T, p Pagination) ([]T, *int) {
	if p.Offset >= len(items) {
		return []T{}, nil
	}
	end := min(p.Offset+p.Limit, len(items))
	if end == len(items) {
		return items[p.Offset:end], nil
	}
	return items[p.Offset:end], &end
}
