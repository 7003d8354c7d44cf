package store

import "strings"

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// PaginationParams selects one page of a listing. Page is 1-based.
type PaginationParams struct {
	Page     int
	PageSize int
	Search   string
}

// NewPaginationParams clamps raw query values into a usable page request.
func NewPaginationParams(page, pageSize int, search string) PaginationParams {
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	return PaginationParams{
		Page:     max(page, 1),
		PageSize: min(pageSize, maxPageSize),
		Search:   strings.TrimSpace(search),
	}
}

// Offset is the number of rows before this page.
func (p PaginationParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// PaginationResult describes where a page sits in the full result set.
type PaginationResult struct {
	Total       int64
	TotalPages  int
	CurrentPage int
	PageSize    int
	HasPrev     bool
	HasNext     bool
}

// CalculatePagination derives page metadata from a row count. A page past the
// end is reported as the last page.
func CalculatePagination(total int64, page, pageSize int) PaginationResult {
	pages := 0
	if pageSize > 0 {
		pages = int((total + int64(pageSize) - 1) / int64(pageSize))
	}
	page = max(page, 1)
	if pages > 0 {
		page = min(page, pages)
	}
	return PaginationResult{
		Total:       total,
		TotalPages:  pages,
		CurrentPage: page,
		PageSize:    pageSize,
		HasPrev:     page > 1,
		HasNext:     page < pages,
	}
}
