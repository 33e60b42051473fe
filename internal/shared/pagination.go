package shared

import (
	"math"
	"net/http"
	"strconv"
)

const defaultPageSize = 20

// Pagination contains metadata for paginated listings.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

// NewPagination computes pagination metadata.
func NewPagination(page, limit, total int) Pagination {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if page <= 0 {
		page = 1
	}
	pages := int(math.Ceil(float64(total) / float64(limit)))
	return Pagination{Page: page, Limit: limit, Total: total, Pages: pages}
}

// PageRequest holds the page/limit/search triple common to every listing.
type PageRequest struct {
	Page   int
	Limit  int
	Search string
}

// Offset returns the SQL offset for the request.
func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.Limit
}

// ParsePageRequest reads page, limit and search query parameters,
// clamping out-of-range values rather than rejecting them.
func ParsePageRequest(r *http.Request) PageRequest {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	if page <= 0 {
		page = 1
	}
	limit, _ := strconv.Atoi(q.Get("limit"))
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > 100 {
		limit = 100
	}
	return PageRequest{Page: page, Limit: limit, Search: q.Get("search")}
}
