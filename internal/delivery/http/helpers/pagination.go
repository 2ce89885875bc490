package helpers

import (
	"net/http"
	"strconv"
	"strings"

	"waitlist/internal/domain"
)

// Entry listing defaults. page_size above MaxPageSize is cut down to it.
const (
	DefaultPage     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ParsePagination reads page and page_size from the query string. Missing,
// malformed or non-positive values fall back to the defaults.
func ParsePagination(r *http.Request) domain.PaginationParams {
	q := r.URL.Query()
	return domain.PaginationParams{
		Page:     positiveInt(q.Get("page"), DefaultPage),
		PageSize: min(positiveInt(q.Get("page_size"), DefaultPageSize), MaxPageSize),
	}
}

// ParseStatusFilter reads the status query parameter of an entry listing.
// "all" and an empty value both mean no filter.
func ParseStatusFilter(r *http.Request) domain.EntryStatus {
	s := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("status")))
	if s == "all" {
		return ""
	}
	return domain.EntryStatus(s)
}

func positiveInt(s string, fallback int) int {
	v, err := strconv.Atoi(s)
	if err != nil || v < 1 {
		return fallback
	}
	return v
}

// PaginationMeta accompanies a page of entries.
// swagger:model PaginationMeta
type PaginationMeta struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// NewPaginationMeta describes the page of a listing holding total entries.
func NewPaginationMeta(page, pageSize, total int) PaginationMeta {
	meta := PaginationMeta{Page: page, PageSize: pageSize, Total: total}
	if pageSize > 0 {
		meta.TotalPages = (total + pageSize - 1) / pageSize
	}
	return meta
}
