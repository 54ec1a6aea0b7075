// Package listutil holds the paging math shared by list projections.
package listutil

import (
	"net/url"
	"strconv"
)

// Paging bounds. The sheet holds at most a few hundred members, so the cap
// mostly guards against nonsense query values.
const (
	DefaultPerPage = 20
	MaxPerPage     = 200
)

// PageParams carries the page window requested by the client.
type PageParams struct {
	Page    int // 1-indexed
	PerPage int
}

// PageInfo is the resolved window over a concrete result set.
type PageInfo struct {
	Page       int
	PerPage    int
	Total      int // matching rows before paging
	TotalPages int
}

// ParsePageParams reads page and per_page from query values, applying
// defaults and the per-page cap.
// POST: Page >= 1 and 1 <= PerPage <= MaxPerPage
func ParsePageParams(q url.Values) PageParams {
	page, _ := strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = 1
	}
	perPage, _ := strconv.Atoi(q.Get("per_page"))
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	return PageParams{Page: page, PerPage: perPage}
}

// NewPageInfo resolves the requested window against the result size. A page
// past the end is clamped to the last page so a shrinking result set never
// yields an empty window while rows remain.
func NewPageInfo(page, perPage, total int) PageInfo {
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	totalPages := (total + perPage - 1) / perPage
	if totalPages < 1 {
		totalPages = 1
	}
	if page > totalPages {
		page = totalPages
	}
	if page < 1 {
		page = 1
	}
	return PageInfo{Page: page, PerPage: perPage, Total: total, TotalPages: totalPages}
}

// Offset returns the index of the first row on the current page.
func (p PageInfo) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// EndRow returns the index one past the last row on the current page.
// POST: Offset() <= EndRow() <= Total
func (p PageInfo) EndRow() int {
	end := p.Offset() + p.PerPage
	if end > p.Total {
		end = p.Total
	}
	return end
}
