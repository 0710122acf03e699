// Package fetcher resolves a filter selection and page request into one page
// of establishment rows, memoizing backend results by request signature.
package fetcher

import (
	"context"
	"errors"
	"time"

	"cnes-dashboard/internal/backend"
	"cnes-dashboard/internal/cache"
	apperrors "cnes-dashboard/internal/common/errors"
	"cnes-dashboard/internal/common/logger"
	"cnes-dashboard/internal/models"
	"cnes-dashboard/internal/query"
)

const distinctKey = "distinct:estado|municipio"

// Recorder receives one observation per fetch.
type Recorder interface {
	RecordFetch(ctx context.Context, operation, status string, duration time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) RecordFetch(context.Context, string, string, time.Duration) {}

type Fetcher struct {
	config   *Config
	backend  backend.DataBackend
	memo     *cache.Memo
	recorder Recorder
	logger   logger.Logger
}

func New(cfg *Config, b backend.DataBackend, memo *cache.Memo, recorder Recorder, log logger.Logger) *Fetcher {
	if cfg == nil {
		cfg = LoadConfig(nil)
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Fetcher{
		config:   cfg,
		backend:  b,
		memo:     memo,
		recorder: recorder,
		logger:   log.WithFields(map[string]interface{}{"backend": b.Name()}),
	}
}

// Fetch returns the requested page of rows matching criteria. The total is
// resolved first and memoized per criteria; the page is then clamped into
// range and only the clamped page's rows are loaded.
func (f *Fetcher) Fetch(ctx context.Context, criteria models.FilterCriteria, page models.PageRequest) (result *Result, err error) {
	start := time.Now()
	defer func() { f.recorder.RecordFetch(ctx, "fetch", status(err), time.Since(start)) }()

	ctx, cancel := context.WithTimeout(ctx, f.config.Timeout)
	defer cancel()

	if page.Size <= 0 {
		page.Size = f.config.PageSize
	}
	d := query.Build(criteria, page)

	total, countCached, err := cache.Fetch(ctx, f.memo, models.QueryTypeCount, d.CountKey(), func(ctx context.Context) (int, error) {
		return f.backend.Count(ctx, d)
	})
	if err != nil {
		return nil, f.wrap(ctx, models.QueryTypeCount, err)
	}

	info := query.Paginate(total, d.Page.Size, d.Page.Page)
	if info.Page != d.Page.Page {
		f.logger.Debug("Clamped requested page", map[string]interface{}{
			"requested": d.Page.Page,
			"page":      info.Page,
			"pages":     info.TotalPages,
		})
	}
	d = d.WithPage(info.Page)

	rows := []models.Record{}
	rowsCached := true
	if total > 0 {
		rows, rowsCached, err = cache.Fetch(ctx, f.memo, models.QueryTypeRows, d.Key(), func(ctx context.Context) ([]models.Record, error) {
			return f.backend.Rows(ctx, d)
		})
		if err != nil {
			return nil, f.wrap(ctx, models.QueryTypeRows, err)
		}
	}

	return &Result{
		Rows:     rows,
		Total:    total,
		Page:     info,
		Criteria: d.Criteria,
		Cached:   countCached && rowsCached,
	}, nil
}

// Regions returns the distinct (estado, municipio) pairs, memoized with the
// same ttl as page results.
func (f *Fetcher) Regions(ctx context.Context) (idx *models.DistinctValuesIndex, err error) {
	start := time.Now()
	defer func() { f.recorder.RecordFetch(ctx, "regions", status(err), time.Since(start)) }()

	ctx, cancel := context.WithTimeout(ctx, f.config.Timeout)
	defer cancel()

	index, _, err := cache.Fetch(ctx, f.memo, models.QueryTypeDistinct, distinctKey, func(ctx context.Context) (models.DistinctValuesIndex, error) {
		idx, err := f.backend.DistinctRegions(ctx)
		if err != nil {
			return models.DistinctValuesIndex{}, err
		}
		return *idx, nil
	})
	if err != nil {
		return nil, f.wrap(ctx, models.QueryTypeDistinct, err)
	}
	if index.Pairs == nil {
		index.Pairs = []models.RegionPair{}
	}
	return &index, nil
}

func (f *Fetcher) Backend() string { return f.backend.Name() }

// wrap normalizes a backend failure into a StandardError. Configuration and
// connection errors pass through unchanged so callers can treat them as
// fatal.
func (f *Fetcher) wrap(ctx context.Context, queryType models.QueryType, err error) error {
	if errors.Is(err, context.Canceled) && !errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return err
	}

	out := err
	if _, ok := apperrors.As(err); !ok {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			out = apperrors.NewQueryTimeoutError(string(queryType))
		} else {
			out = apperrors.NewQueryExecutionFailedError(string(queryType), err)
		}
	}

	f.logger.Warn("Backend query failed", map[string]interface{}{
		"queryType": string(queryType),
		"errorCode": string(apperrors.CodeOf(out)),
		"fatal":     apperrors.IsFatal(out),
		"error":     err,
	})
	return out
}

func status(err error) string {
	if err == nil {
		return "success"
	}
	return string(apperrors.CodeOf(err))
}
