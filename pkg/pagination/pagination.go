package pagination

import (
	"net/http"
	"strconv"
)

// MaxPageSize is the largest page the recognition service will serve.
const MaxPageSize = 100

// Params holds pagination parameters extracted from query strings.
type Params struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

// DefaultParams returns sensible pagination defaults.
func DefaultParams() Params {
	return Params{
		Page:     1,
		PageSize: 20,
	}
}

// FromRequest extracts pagination parameters from an HTTP request,
// clamping page_size to MaxPageSize.
func FromRequest(r *http.Request) Params {
	p := DefaultParams()

	if page := r.URL.Query().Get("page"); page != "" {
		if v, err := strconv.Atoi(page); err == nil && v > 0 {
			p.Page = v
		}
	}

	if size := r.URL.Query().Get("page_size"); size != "" {
		if v, err := strconv.Atoi(size); err == nil && v > 0 {
			p.PageSize = v
			if p.PageSize > MaxPageSize {
				p.PageSize = MaxPageSize
			}
		}
	}

	return p
}

// Meta mirrors the pagination envelope returned by the recognition service.
type Meta struct {
	Page       int  `json:"page"`
	PageSize   int  `json:"page_size"`
	TotalCount int  `json:"total_count"`
	HasNext    bool `json:"has_next"`
}

// Result wraps a paginated response page.
type Result[T any] struct {
	Data       []T  `json:"data"`
	Pagination Meta `json:"pagination"`
}

// NewResult creates a paginated result, normalizing nil data to an empty slice.
func NewResult[T any](data []T, meta Meta) Result[T] {
	if data == nil {
		data = []T{}
	}
	return Result[T]{Data: data, Pagination: meta}
}
