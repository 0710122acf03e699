package backend

import (
	"context"
	"sort"
	"sync"
	"time"

	"cnes-dashboard/internal/common/config"
	"cnes-dashboard/internal/common/logger"
	"cnes-dashboard/internal/models"
	"cnes-dashboard/internal/query"
)

// Relational loads the whole table and filters, sorts and pages it in
// memory. The loaded snapshot is reused until ttl has elapsed, so paging
// through one selection reads the table once.
type Relational struct {
	runner Runner
	table  string
	ttl    time.Duration
	now    func() time.Time
	logger logger.Logger

	mu       sync.Mutex
	rows     []models.Record
	loadedAt time.Time
	loaded   bool
}

func NewRelational(runner Runner, table string, ttl time.Duration, now func() time.Time, log logger.Logger) (*Relational, error) {
	if _, err := query.QuoteTable(table, runner.Dialect()); err != nil {
		return nil, err
	}
	if now == nil {
		now = time.Now
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Relational{
		runner: runner,
		table:  table,
		ttl:    ttl,
		now:    now,
		logger: log.WithFields(map[string]interface{}{"backend": config.BackendRelational}),
	}, nil
}

func (r *Relational) Name() string { return config.BackendRelational }

func (r *Relational) snapshot(ctx context.Context) ([]models.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.loaded && r.now().Sub(r.loadedAt) < r.ttl {
		return r.rows, nil
	}

	stmt, err := query.SelectAllSQL(r.table, r.runner.Dialect())
	if err != nil {
		return nil, err
	}

	start := time.Now()
	records, err := r.runner.QueryRecords(ctx, stmt)
	if err != nil {
		return nil, classify(ctx, models.QueryTypeTable, err)
	}
	order := query.Build(models.FilterCriteria{}, models.PageRequest{})
	sort.SliceStable(records, func(i, j int) bool {
		return order.Less(records[i], records[j])
	})

	r.rows = records
	r.loadedAt = r.now()
	r.loaded = true

	r.logger.Info("Loaded table snapshot", map[string]interface{}{
		"table":    r.table,
		"rows":     len(records),
		"duration": time.Since(start).String(),
	})
	return records, nil
}

func filterRecords(d query.Descriptor, rows []models.Record) []models.Record {
	if len(d.Conditions) == 0 {
		return rows
	}
	matched := make([]models.Record, 0)
	for _, row := range rows {
		if d.Match(row) {
			matched = append(matched, row)
		}
	}
	return matched
}

func page(d query.Descriptor, matched []models.Record) []models.Record {
	start, end := d.Slice(len(matched))
	out := make([]models.Record, end-start)
	copy(out, matched[start:end])
	return out
}

func (r *Relational) Count(ctx context.Context, d query.Descriptor) (int, error) {
	rows, err := r.snapshot(ctx)
	if err != nil {
		return 0, err
	}
	return len(filterRecords(d, rows)), nil
}

func (r *Relational) Rows(ctx context.Context, d query.Descriptor) ([]models.Record, error) {
	rows, err := r.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return page(d, filterRecords(d, rows)), nil
}

// Query computes total and page from a single filter pass.
func (r *Relational) Query(ctx context.Context, d query.Descriptor) (*models.QueryResult, error) {
	rows, err := r.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	matched := filterRecords(d, rows)
	return &models.QueryResult{Rows: page(d, matched), Total: len(matched)}, nil
}

func (r *Relational) DistinctRegions(ctx context.Context) (*models.DistinctValuesIndex, error) {
	rows, err := r.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	pairs := make([]models.RegionPair, 0, len(rows))
	for _, row := range rows {
		pairs = append(pairs, models.RegionPair{
			Region:    row.String(query.ColumnRegion),
			SubRegion: row.String(query.ColumnSubRegion),
		})
	}
	return models.NewDistinctValuesIndex(pairs), nil
}
