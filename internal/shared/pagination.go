package shared

import "math"

const (
	// DefaultPage is used when a listing omits the page number.
	DefaultPage = 1
	// DefaultPageSize is used when a listing omits the page size.
	DefaultPageSize = 50
	// MaxPageSize caps pagesize on every listing.
	MaxPageSize = 100
)

// PageRequest is the validated page/pagesize pair shared by all listings.
// Defaults apply only when the query omits the key, so page=0 is still rejected.
type PageRequest struct {
	Page     int `json:"page" default:"1" validate:"min=1"`
	PageSize int `json:"pagesize" default:"50" validate:"min=1,max=100"`
}

// Offset returns the zero-based row offset of the page.
func (p PageRequest) Offset() int {
	if p.Page <= 1 {
		return 0
	}
	return (p.Page - 1) * p.Limit()
}

// Limit returns the row limit of the page.
func (p PageRequest) Limit() int {
	if p.PageSize <= 0 {
		return DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		return MaxPageSize
	}
	return p.PageSize
}

// Pagination contains metadata for paginated listings.
type Pagination struct {
	Page       int `json:"page"`
	PerPage    int `json:"pagesize"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// NewPagination computes pagination metadata.
func NewPagination(page, perPage, total int) Pagination {
	if perPage <= 0 {
		perPage = DefaultPageSize
	}
	if page <= 0 {
		page = DefaultPage
	}
	totalPages := int(math.Ceil(float64(total) / float64(perPage)))
	return Pagination{Page: page, PerPage: perPage, Total: total, TotalPages: totalPages}
}
