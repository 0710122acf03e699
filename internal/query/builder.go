// Package query turns a filter selection and page request into a
// backend-agnostic descriptor, and renders it for SQL dialects or applies it
// to in-memory rows.
package query

import (
	"strconv"
	"strings"

	"cnes-dashboard/internal/models"
)

const (
	ColumnRegion    = "estado"
	ColumnSubRegion = "municipio"
	ColumnCNES      = "codigo_cnes"

	SortColumn = ColumnRegion
	// TieBreakColumn orders rows sharing an estado so pages never overlap.
	TieBreakColumn = ColumnCNES
)

// Condition is one equality predicate.
type Condition struct {
	Column string
	Value  string
}

type Descriptor struct {
	Criteria   models.FilterCriteria
	Page       models.PageRequest
	Conditions []Condition
	OrderBy    string
	TieBreak   string
	Limit      int
	Offset     int
}

// Build normalizes criteria and page and derives the predicate and window.
// Only non-empty criteria become conditions.
func Build(criteria models.FilterCriteria, page models.PageRequest) Descriptor {
	c := criteria.Normalize()
	p := page.Normalize()

	d := Descriptor{
		Criteria: c,
		Page:     p,
		OrderBy:  SortColumn,
		TieBreak: TieBreakColumn,
		Limit:    p.Size,
		Offset:   (p.Page - 1) * p.Size,
	}
	if c.Region != "" {
		d.Conditions = append(d.Conditions, Condition{Column: ColumnRegion, Value: c.Region})
	}
	if c.SubRegion != "" {
		d.Conditions = append(d.Conditions, Condition{Column: ColumnSubRegion, Value: c.SubRegion})
	}
	return d
}

// WithPage returns the same predicate positioned on another page.
func (d Descriptor) WithPage(page int) Descriptor {
	return Build(d.Criteria, models.PageRequest{Page: page, Size: d.Page.Size})
}

// Match is the in-memory equivalent of the rendered WHERE clause.
func (d Descriptor) Match(r models.Record) bool {
	for _, c := range d.Conditions {
		if r.String(c.Column) != c.Value {
			return false
		}
	}
	return true
}

// Less is the in-memory equivalent of the rendered ORDER BY.
func (d Descriptor) Less(a, b models.Record) bool {
	if ka, kb := a.String(d.OrderBy), b.String(d.OrderBy); ka != kb {
		return ka < kb
	}
	return a.String(d.TieBreak) < b.String(d.TieBreak)
}

// Slice returns the [start, end) window of this page over n matching rows.
func (d Descriptor) Slice(n int) (int, int) {
	start := d.Offset
	if start > n {
		start = n
	}
	end := start + d.Limit
	if end > n {
		end = n
	}
	return start, end
}

// CountKey identifies the predicate alone; every page of a selection shares
// one total.
func (d Descriptor) CountKey() string {
	var b strings.Builder
	b.WriteString(string(models.QueryTypeCount))
	d.writeCriteria(&b)
	return b.String()
}

// Key identifies the (criteria, page) tuple.
func (d Descriptor) Key() string {
	var b strings.Builder
	b.WriteString(string(models.QueryTypeRows))
	d.writeCriteria(&b)
	b.WriteString("|page=")
	b.WriteString(strconv.Itoa(d.Page.Page))
	b.WriteString("|size=")
	b.WriteString(strconv.Itoa(d.Page.Size))
	return b.String()
}

func (d Descriptor) writeCriteria(b *strings.Builder) {
	b.WriteString(":estado=")
	b.WriteString(strconv.Quote(d.Criteria.Region))
	b.WriteString("|municipio=")
	b.WriteString(strconv.Quote(d.Criteria.SubRegion))
}
