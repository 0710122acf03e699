package models

import (
	"sort"
	"strings"
)

const DefaultPageSize = 100

// FilterCriteria is the user's region selection. Region maps to the estado
// column and SubRegion to municipio. Empty means "no filter".
type FilterCriteria struct {
	Region    string `json:"estado,omitempty"`
	SubRegion string `json:"municipio,omitempty"`
}

// Normalize trims both values and drops SubRegion when no Region is set,
// so a sub-region filter is never applied on its own.
func (c FilterCriteria) Normalize() FilterCriteria {
	c.Region = strings.TrimSpace(c.Region)
	c.SubRegion = strings.TrimSpace(c.SubRegion)
	if c.Region == "" {
		c.SubRegion = ""
	}
	return c
}

// WithRegion returns c with a new region; a changed region resets SubRegion.
func (c FilterCriteria) WithRegion(region string) FilterCriteria {
	if region != c.Region {
		c.SubRegion = ""
	}
	c.Region = region
	return c.Normalize()
}

func (c FilterCriteria) IsEmpty() bool {
	n := c.Normalize()
	return n.Region == ""
}

// PageRequest is 1-based.
type PageRequest struct {
	Page int `json:"page"`
	Size int `json:"pageSize"`
}

func (p PageRequest) Normalize() PageRequest {
	if p.Size <= 0 {
		p.Size = DefaultPageSize
	}
	if p.Page < 1 {
		p.Page = 1
	}
	return p
}

// Record is one establishment row, field name to value.
type Record map[string]interface{}

// String returns the field as a string, or "" when absent or nil.
func (r Record) String(field string) string {
	v, ok := r[field]
	if !ok || v == nil {
		return ""
	}
	switch val := v.(type) {
	case string:
		return val
	case []byte:
		return string(val)
	default:
		return toString(val)
	}
}

type QueryResult struct {
	Rows  []Record `json:"rows"`
	Total int      `json:"total"`
}

type RegionPair struct {
	Region    string `json:"estado"`
	SubRegion string `json:"municipio"`
}

// DistinctValuesIndex backs the region and sub-region dropdowns.
type DistinctValuesIndex struct {
	Pairs []RegionPair `json:"pairs"`
}

// NewDistinctValuesIndex drops pairs with an empty side and duplicates.
func NewDistinctValuesIndex(pairs []RegionPair) *DistinctValuesIndex {
	seen := make(map[RegionPair]struct{}, len(pairs))
	out := make([]RegionPair, 0, len(pairs))
	for _, p := range pairs {
		if p.Region == "" || p.SubRegion == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Region != out[j].Region {
			return out[i].Region < out[j].Region
		}
		return out[i].SubRegion < out[j].SubRegion
	})
	return &DistinctValuesIndex{Pairs: out}
}

// Regions returns the sorted unique regions.
func (d *DistinctValuesIndex) Regions() []string {
	seen := make(map[string]struct{})
	regions := []string{}
	for _, p := range d.Pairs {
		if _, ok := seen[p.Region]; ok {
			continue
		}
		seen[p.Region] = struct{}{}
		regions = append(regions, p.Region)
	}
	sort.Strings(regions)
	return regions
}

// SubRegions returns the sorted sub-regions of region; empty region yields
// an empty list.
func (d *DistinctValuesIndex) SubRegions(region string) []string {
	subRegions := []string{}
	if region == "" {
		return subRegions
	}
	seen := make(map[string]struct{})
	for _, p := range d.Pairs {
		if p.Region != region {
			continue
		}
		if _, ok := seen[p.SubRegion]; ok {
			continue
		}
		seen[p.SubRegion] = struct{}{}
		subRegions = append(subRegions, p.SubRegion)
	}
	sort.Strings(subRegions)
	return subRegions
}
