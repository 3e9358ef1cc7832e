package pagination

import "math"

const (
	// DefaultLimit is the standard page size when a limit is not provided.
	DefaultLimit = 10
	// MaxLimit caps how many rows a page query can request.
	MaxLimit = 100
)

// Pagination describes where a page sits in the full result set.
type Pagination struct {
	Limit   int   `json:"limit"`
	Current int   `json:"current"`
	Items   int64 `json:"items"`
	Pages   int   `json:"pages"`
	Next    *int  `json:"next"`
	Prev    *int  `json:"prev"`
}

// Page pairs a slice of rows with its pagination metadata.
type Page[T any] struct {
	Data       []T        `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// Normalize clamps page to >= 1 and limit to (0, MaxLimit].
func Normalize(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return page, limit
}

// Range returns the inclusive row window for a page.
func Range(page, limit int) (from, to int) {
	from = (page - 1) * limit
	to = from + limit - 1
	return from, to
}

// Offset is the zero-based row offset of a page.
func Offset(page, limit int) int {
	from, _ := Range(page, limit)
	return from
}

// New computes pagination metadata for a total row count.
func New(page, limit int, count int64) Pagination {
	pages := 0
	if limit > 0 {
		pages = int(math.Ceil(float64(count) / float64(limit)))
	}

	current := page
	if current > pages {
		current = pages
	}
	if current < 1 {
		current = 1
	}

	p := Pagination{
		Limit:   limit,
		Current: current,
		Items:   count,
		Pages:   pages,
	}
	if current < pages {
		next := current + 1
		p.Next = &next
	}
	if current > 1 {
		prev := current - 1
		p.Prev = &prev
	}
	return p
}

// NewPage builds a Page, substituting an empty slice for nil data.
func NewPage[T any](data []T, page, limit int, count int64) Page[T] {
	if data == nil {
		data = []T{}
	}
	return Page[T]{Data: data, Pagination: New(page, limit, count)}
}
