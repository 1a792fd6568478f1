package pagination

import (
	"math"
	"net/http"
	"strconv"
)

// MaxLimit caps the page size a client may request.
const MaxLimit = 100

// Params holds zero-based pagination and the name filter from a query string.
type Params struct {
	Page   int    `json:"page"`
	Limit  int    `json:"limit"`
	Search string `json:"-"`
}

// Offset is the number of rows to skip. It saturates at math.MaxInt
// instead of overflowing.
func (p Params) Offset() int {
	if p.Limit > 0 && p.Page > math.MaxInt/p.Limit {
		return math.MaxInt
	}
	return p.Page * p.Limit
}

// FromRequest reads page, limit and search_query. Missing, malformed or
// negative pages become 0; a missing, malformed or non-positive limit becomes
// defaultLimit, and any limit above MaxLimit is clamped. The page is capped
// so that its offset fits in an int.
func FromRequest(r *http.Request, defaultLimit int) Params {
	q := r.URL.Query()
	p := Params{Page: 0, Limit: defaultLimit, Search: q.Get("search_query")}

	if v, err := strconv.Atoi(q.Get("page")); err == nil && v > 0 {
		p.Page = v
	}
	if v, err := strconv.Atoi(q.Get("limit")); err == nil && v > 0 {
		p.Limit = v
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	if p.Page > math.MaxInt/p.Limit {
		p.Page = math.MaxInt / p.Limit
	}
	return p
}

// Result is the paginated listing body.
type Result[T any] struct {
	Result    []T `json:"result"`
	Page      int `json:"page"`
	Limit     int `json:"limit"`
	TotalRows int `json:"totalRows"`
	TotalPage int `json:"totalPage"`
}

// NewResult computes totalPage as ceil(totalRows/limit). Nil data is
// rendered as an empty array.
func NewResult[T any](data []T, totalRows int, p Params) Result[T] {
	if data == nil {
		data = []T{}
	}
	totalPage := 0
	if p.Limit > 0 {
		totalPage = (totalRows + p.Limit - 1) / p.Limit
	}
	return Result[T]{
		Result:    data,
		Page:      p.Page,
		Limit:     p.Limit,
		TotalRows: totalRows,
		TotalPage: totalPage,
	}
}
