// internal/app/system/paging/paging.go
package paging

import (
	"net/http"
	"strconv"

	"github.com/dalemusser/waffle/pantry/query"
)

// PageSize is the default number of rows returned by list endpoints.
const PageSize = 50

// MaxPageSize caps the "limit" a client may ask for.
const MaxPageSize = 500

// Params is a parsed offset page request.
type Params struct {
	Page  int // 1-based
	Limit int
}

// Skip returns the number of rows before this page, for Find().SetSkip.
func (p Params) Skip() int64 { return int64((p.Page - 1) * p.Limit) }

// Limit64 returns Limit as int64, for Find().SetLimit.
func (p Params) Limit64() int64 { return int64(p.Limit) }

// Parse reads the "page" and "limit" query parameters. Missing or invalid
// values fall back to page 1 and PageSize; limit is capped at MaxPageSize.
func Parse(r *http.Request) Params {
	return Params{
		Page:  positive(query.Get(r, "page"), 1),
		Limit: min(positive(query.Get(r, "limit"), PageSize), MaxPageSize),
	}
}

func positive(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return def
	}
	return n
}

// Meta describes a returned page.
type Meta struct {
	Page    int   `json:"page"`
	Limit   int   `json:"limit"`
	Total   int64 `json:"total"`
	Pages   int64 `json:"pages"`
	HasPrev bool  `json:"has_prev"`
	HasNext bool  `json:"has_next"`
}

// NewMeta computes page metadata for total matching rows.
func NewMeta(p Params, total int64) Meta {
	var pages int64
	if p.Limit > 0 {
		pages = (total + int64(p.Limit) - 1) / int64(p.Limit)
	}
	return Meta{
		Page:    p.Page,
		Limit:   p.Limit,
		Total:   total,
		Pages:   pages,
		HasPrev: p.Page > 1,
		HasNext: int64(p.Page) < pages,
	}
}
