package fetcher

import (
	"cnes-dashboard/internal/models"
	"cnes-dashboard/internal/query"
)

// Result is one rendered page. Page is already clamped, so Rows always
// belong to Page.Page.
type Result struct {
	Rows     []models.Record       `json:"rows"`
	Total    int                   `json:"total"`
	Page     query.PageInfo        `json:"page"`
	Criteria models.FilterCriteria `json:"filters"`
	Cached   bool                  `json:"cached"`
}

func (r *Result) Summary() string {
	return r.Page.Summary()
}
