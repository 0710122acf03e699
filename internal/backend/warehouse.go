package backend

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"cnes-dashboard/internal/common/logger"
	"cnes-dashboard/internal/models"
	"cnes-dashboard/internal/query"
)

// ServerSide pushes the predicate, sort and page window into the store, so
// only one page of rows ever crosses the wire.
type ServerSide struct {
	name   string
	runner Runner
	table  string
	logger logger.Logger
}

// NewServerSide validates table against the runner's dialect up front.
func NewServerSide(name string, runner Runner, table string, log logger.Logger) (*ServerSide, error) {
	if _, err := query.QuoteTable(table, runner.Dialect()); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &ServerSide{
		name:   name,
		runner: runner,
		table:  table,
		logger: log.WithFields(map[string]interface{}{"backend": name}),
	}, nil
}

func (s *ServerSide) Name() string { return s.name }

func (s *ServerSide) Count(ctx context.Context, d query.Descriptor) (int, error) {
	stmts, err := d.SQL(s.table, s.runner.Dialect())
	if err != nil {
		return 0, err
	}

	records, err := s.runner.QueryRecords(ctx, stmts.Count)
	if err != nil {
		return 0, classify(ctx, models.QueryTypeCount, err)
	}
	if len(records) == 0 {
		return 0, classify(ctx, models.QueryTypeCount, fmt.Errorf("count returned no rows"))
	}

	total, err := toInt(records[0]["total"])
	if err != nil {
		return 0, classify(ctx, models.QueryTypeCount, err)
	}
	return total, nil
}

func (s *ServerSide) Rows(ctx context.Context, d query.Descriptor) ([]models.Record, error) {
	stmts, err := d.SQL(s.table, s.runner.Dialect())
	if err != nil {
		return nil, err
	}

	s.logger.Debug("Executing page query", map[string]interface{}{
		"page":  d.Page.Page,
		"size":  d.Page.Size,
		"query": stmts.Rows.Text,
	})

	records, err := s.runner.QueryRecords(ctx, stmts.Rows)
	if err != nil {
		return nil, classify(ctx, models.QueryTypeRows, err)
	}
	return records, nil
}

// Query runs the count and page statements concurrently.
func (s *ServerSide) Query(ctx context.Context, d query.Descriptor) (*models.QueryResult, error) {
	var (
		total int
		rows  []models.Record
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		total, err = s.Count(gctx, d)
		return err
	})
	g.Go(func() error {
		var err error
		rows, err = s.Rows(gctx, d)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &models.QueryResult{Rows: rows, Total: total}, nil
}

func (s *ServerSide) DistinctRegions(ctx context.Context) (*models.DistinctValuesIndex, error) {
	stmt, err := query.DistinctSQL(s.table, s.runner.Dialect())
	if err != nil {
		return nil, err
	}

	records, err := s.runner.QueryRecords(ctx, stmt)
	if err != nil {
		return nil, classify(ctx, models.QueryTypeDistinct, err)
	}

	pairs := make([]models.RegionPair, 0, len(records))
	for _, r := range records {
		pairs = append(pairs, models.RegionPair{
			Region:    r.String(query.ColumnRegion),
			SubRegion: r.String(query.ColumnSubRegion),
		})
	}
	return models.NewDistinctValuesIndex(pairs), nil
}
