package repository

import (
	"context"
	"math"
	"strconv"
	"strings"
)

// DefaultPageSize is used when a listing does not name a page size.
const DefaultPageSize = 30

// MaxPageSize caps client supplied page sizes.
const MaxPageSize = 500

// ParsePage reads page and limit query values. Missing, non-numeric or
// non-positive values fall back to page 1 and defaultLimit.
func ParsePage(pageStr, limitStr string, defaultLimit int) (page, limit int) {
	page, limit = 1, defaultLimit
	if p, err := strconv.Atoi(strings.TrimSpace(pageStr)); err == nil && p > 0 {
		page = p
	}
	if l, err := strconv.Atoi(strings.TrimSpace(limitStr)); err == nil && l > 0 {
		limit = l
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return page, limit
}

// Offset returns the row offset of page.
func Offset(page, limit int) int {
	if page < 1 {
		return 0
	}
	return (page - 1) * limit
}

// TotalPages returns ceil(count/size).
func TotalPages(count int64, size int) int {
	if size <= 0 || count <= 0 {
		return 0
	}
	return int(math.Ceil(float64(count) / float64(size)))
}

// Page is one page of a listing.
type Page[T any] struct {
	TotalItems  int64 `json:"totalItems"`
	TotalPages  int   `json:"totalPages"`
	CurrentPage int   `json:"currentPage"`
	Items       []T   `json:"items"`
}

// Paginate counts and reads one page of rows matching q's scopes.
func (r *Repository[T]) Paginate(ctx context.Context, q Query, page, limit int) (Page[T], error) {
	total, err := r.Count(ctx, q)
	if err != nil {
		return Page[T]{}, err
	}
	q.Limit = limit
	q.Offset = Offset(page, limit)
	rows, err := r.FindAll(ctx, q)
	if err != nil {
		return Page[T]{}, err
	}
	if rows == nil {
		rows = []T{}
	}
	return Page[T]{
		TotalItems:  total,
		TotalPages:  TotalPages(total, limit),
		CurrentPage: page,
		Items:       rows,
	}, nil
}
