package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaginate(t *testing.T) {
	tests := []struct {
		name      string
		total     int
		size      int
		requested int
		want      PageInfo
		summary   string
	}{
		{
			name:      "first of many",
			total:     1250,
			size:      100,
			requested: 1,
			want:      PageInfo{Page: 1, PageSize: 100, TotalPages: 13, TotalRows: 1250, RangeStart: 1, RangeEnd: 100},
			summary:   "Exibindo 1 a 100 de 1250 registros",
		},
		{
			name:      "partial last page",
			total:     1250,
			size:      100,
			requested: 13,
			want:      PageInfo{Page: 13, PageSize: 100, TotalPages: 13, TotalRows: 1250, RangeStart: 1201, RangeEnd: 1250},
			summary:   "Exibindo 1201 a 1250 de 1250 registros",
		},
		{
			name:      "beyond last page clamps",
			total:     250,
			size:      100,
			requested: 9,
			want:      PageInfo{Page: 3, PageSize: 100, TotalPages: 3, TotalRows: 250, RangeStart: 201, RangeEnd: 250},
			summary:   "Exibindo 201 a 250 de 250 registros",
		},
		{
			name:      "below first page clamps",
			total:     250,
			size:      100,
			requested: -2,
			want:      PageInfo{Page: 1, PageSize: 100, TotalPages: 3, TotalRows: 250, RangeStart: 1, RangeEnd: 100},
			summary:   "Exibindo 1 a 100 de 250 registros",
		},
		{
			name:      "exact multiple",
			total:     200,
			size:      100,
			requested: 2,
			want:      PageInfo{Page: 2, PageSize: 100, TotalPages: 2, TotalRows: 200, RangeStart: 101, RangeEnd: 200},
			summary:   "Exibindo 101 a 200 de 200 registros",
		},
		{
			name:      "empty result",
			total:     0,
			size:      100,
			requested: 5,
			want:      PageInfo{Page: 1, PageSize: 100, TotalPages: 1, TotalRows: 0, RangeStart: 0, RangeEnd: 0},
			summary:   "Exibindo 0 a 0 de 0 registros",
		},
		{
			name:      "default page size",
			total:     150,
			size:      0,
			requested: 2,
			want:      PageInfo{Page: 2, PageSize: 100, TotalPages: 2, TotalRows: 150, RangeStart: 101, RangeEnd: 150},
			summary:   "Exibindo 101 a 150 de 150 registros",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Paginate(tt.total, tt.size, tt.requested)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.summary, got.Summary())
		})
	}
}

func TestPaginate_Invariants(t *testing.T) {
	for total := 0; total <= 310; total += 7 {
		for _, size := range []int{1, 7, 100} {
			for requested := -1; requested <= 50; requested += 3 {
				p := Paginate(total, size, requested)

				assert.GreaterOrEqual(t, p.TotalPages, 1)
				assert.GreaterOrEqual(t, p.Page, 1)
				assert.LessOrEqual(t, p.Page, p.TotalPages)
				assert.LessOrEqual(t, p.RangeStart, p.RangeEnd+1)
				assert.LessOrEqual(t, p.RangeEnd, p.TotalRows)
				if total > 0 {
					assert.GreaterOrEqual(t, p.RangeStart, 1)
				}
			}
		}
	}
}

func TestPageInfo_Navigation(t *testing.T) {
	p := Paginate(250, 100, 2)
	assert.True(t, p.HasNext())
	assert.True(t, p.HasPrevious())

	p = Paginate(0, 100, 1)
	assert.False(t, p.HasNext())
	assert.False(t, p.HasPrevious())
}

func TestTotalPagesAndClamp(t *testing.T) {
	assert.Equal(t, 1, TotalPages(0, 100))
	assert.Equal(t, 1, TotalPages(100, 100))
	assert.Equal(t, 2, TotalPages(101, 100))
	assert.Equal(t, 2, TotalPages(101, -5))

	assert.Equal(t, 1, ClampPage(0, 0))
	assert.Equal(t, 4, ClampPage(4, 5))
	assert.Equal(t, 5, ClampPage(8, 5))
}
