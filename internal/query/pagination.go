package query

import (
	"fmt"

	"cnes-dashboard/internal/models"
)

type PageInfo struct {
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	TotalPages int `json:"totalPages"`
	TotalRows  int `json:"totalRows"`
	RangeStart int `json:"rangeStart"`
	RangeEnd   int `json:"rangeEnd"`
}

// TotalPages is ceil(totalRows/pageSize), never less than 1.
func TotalPages(totalRows, pageSize int) int {
	if pageSize <= 0 {
		pageSize = models.DefaultPageSize
	}
	if totalRows <= 0 {
		return 1
	}
	pages := totalRows / pageSize
	if totalRows%pageSize > 0 {
		pages++
	}
	return pages
}

func ClampPage(page, totalPages int) int {
	if totalPages < 1 {
		totalPages = 1
	}
	if page < 1 {
		return 1
	}
	if page > totalPages {
		return totalPages
	}
	return page
}

// Paginate clamps requestedPage into range and computes the 1-based display
// window. With no rows the window is 0..0.
func Paginate(totalRows, pageSize, requestedPage int) PageInfo {
	if pageSize <= 0 {
		pageSize = models.DefaultPageSize
	}
	if totalRows < 0 {
		totalRows = 0
	}

	totalPages := TotalPages(totalRows, pageSize)
	page := ClampPage(requestedPage, totalPages)

	info := PageInfo{
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
		TotalRows:  totalRows,
	}
	if totalRows == 0 {
		return info
	}

	info.RangeStart = (page-1)*pageSize + 1
	info.RangeEnd = page * pageSize
	if info.RangeEnd > totalRows {
		info.RangeEnd = totalRows
	}
	return info
}

func (p PageInfo) HasNext() bool { return p.Page < p.TotalPages }

func (p PageInfo) HasPrevious() bool { return p.Page > 1 }

// Summary renders the footer line shown under the results table.
func (p PageInfo) Summary() string {
	return fmt.Sprintf("Exibindo %d a %d de %d registros", p.RangeStart, p.RangeEnd, p.TotalRows)
}
