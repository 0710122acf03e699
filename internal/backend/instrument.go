package backend

import (
	"context"
	"time"

	apperrors "cnes-dashboard/internal/common/errors"
	"cnes-dashboard/internal/common/metrics"
	"cnes-dashboard/internal/models"
	"cnes-dashboard/internal/query"
)

type instrumented struct {
	next DataBackend
}

// Instrument records duration and error metrics around every call of b.
func Instrument(b DataBackend) DataBackend {
	if _, ok := b.(*instrumented); ok {
		return b
	}
	return &instrumented{next: b}
}

func (i *instrumented) observe(queryType models.QueryType, start time.Time, err error) {
	name := i.next.Name()
	metrics.BackendQueryDuration.WithLabelValues(name, string(queryType)).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.BackendErrors.WithLabelValues(name, string(apperrors.CodeOf(err))).Inc()
	}
}

func (i *instrumented) Query(ctx context.Context, d query.Descriptor) (res *models.QueryResult, err error) {
	defer func(start time.Time) { i.observe(models.QueryTypeRows, start, err) }(time.Now())
	return i.next.Query(ctx, d)
}

func (i *instrumented) Count(ctx context.Context, d query.Descriptor) (n int, err error) {
	defer func(start time.Time) { i.observe(models.QueryTypeCount, start, err) }(time.Now())
	return i.next.Count(ctx, d)
}

func (i *instrumented) Rows(ctx context.Context, d query.Descriptor) (rows []models.Record, err error) {
	defer func(start time.Time) { i.observe(models.QueryTypeRows, start, err) }(time.Now())
	return i.next.Rows(ctx, d)
}

func (i *instrumented) DistinctRegions(ctx context.Context) (idx *models.DistinctValuesIndex, err error) {
	defer func(start time.Time) { i.observe(models.QueryTypeDistinct, start, err) }(time.Now())
	return i.next.DistinctRegions(ctx)
}

func (i *instrumented) Name() string { return i.next.Name() }
