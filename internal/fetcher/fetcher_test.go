package fetcher

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"cnes-dashboard/internal/cache"
	apperrors "cnes-dashboard/internal/common/errors"
	"cnes-dashboard/internal/common/logger"
	"cnes-dashboard/internal/models"
	"cnes-dashboard/internal/query"
)

func TestMain(m *testing.M) {
	// backend links the BigQuery client, whose opencensus view worker starts at init.
	goleak.VerifyTestMain(m, goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))
}

// fakeBackend serves total rows in memory and records every call.
type fakeBackend struct {
	mu          sync.Mutex
	total       int
	countErr    error
	rowsErr     error
	gate        chan struct{}
	countCalls  int
	rowsCalls   int
	regionCalls int
	offsets     []int
}

func (f *fakeBackend) wait(ctx context.Context) error {
	if f.gate == nil {
		return nil
	}
	select {
	case <-f.gate:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *fakeBackend) Query(ctx context.Context, d query.Descriptor) (*models.QueryResult, error) {
	total, err := f.Count(ctx, d)
	if err != nil {
		return nil, err
	}
	rows, err := f.Rows(ctx, d)
	if err != nil {
		return nil, err
	}
	return &models.QueryResult{Rows: rows, Total: total}, nil
}

func (f *fakeBackend) Count(ctx context.Context, _ query.Descriptor) (int, error) {
	if err := f.wait(ctx); err != nil {
		return 0, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.countCalls++
	if f.countErr != nil {
		return 0, f.countErr
	}
	return f.total, nil
}

func (f *fakeBackend) Rows(ctx context.Context, d query.Descriptor) ([]models.Record, error) {
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rowsCalls++
	f.offsets = append(f.offsets, d.Offset)
	if f.rowsErr != nil {
		return nil, f.rowsErr
	}
	start, end := d.Slice(f.total)
	rows := make([]models.Record, 0, end-start)
	for i := start; i < end; i++ {
		rows = append(rows, models.Record{"estado": d.Criteria.Region, "position": i})
	}
	return rows, nil
}

func (f *fakeBackend) DistinctRegions(context.Context) (*models.DistinctValuesIndex, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.regionCalls++
	return models.NewDistinctValuesIndex([]models.RegionPair{
		{Region: "SP", SubRegion: "Santos"},
		{Region: "RJ", SubRegion: "Niterói"},
	}), nil
}

func (f *fakeBackend) Name() string { return "fake" }

func (f *fakeBackend) calls() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.countCalls, f.rowsCalls
}

func newTestFetcher(t *testing.T, b *fakeBackend, timeout time.Duration) *Fetcher {
	t.Helper()
	log := logger.NewTestLogger(t)
	memo := cache.NewMemo(cache.NewMemoryStore(0), time.Minute, log)
	return New(&Config{Timeout: timeout, PageSize: 100}, b, memo, nil, log)
}

func TestFetch_FirstPage(t *testing.T) {
	b := &fakeBackend{total: 250}
	f := newTestFetcher(t, b, time.Second)

	res, err := f.Fetch(context.Background(), models.FilterCriteria{Region: "SP"}, models.PageRequest{Page: 1})
	require.NoError(t, err)

	assert.Equal(t, 250, res.Total)
	assert.Len(t, res.Rows, 100)
	assert.Equal(t, 1, res.Page.Page)
	assert.Equal(t, 3, res.Page.TotalPages)
	assert.Equal(t, "Exibindo 1 a 100 de 250 registros", res.Summary())
	assert.Equal(t, "SP", res.Criteria.Region)
	assert.False(t, res.Cached)
}

func TestFetch_SecondCallIsMemoized(t *testing.T) {
	b := &fakeBackend{total: 250}
	f := newTestFetcher(t, b, time.Second)
	ctx := context.Background()

	first, err := f.Fetch(ctx, models.FilterCriteria{Region: "SP"}, models.PageRequest{Page: 2})
	require.NoError(t, err)
	second, err := f.Fetch(ctx, models.FilterCriteria{Region: "SP"}, models.PageRequest{Page: 2})
	require.NoError(t, err)

	counts, rows := b.calls()
	assert.Equal(t, 1, counts)
	assert.Equal(t, 1, rows)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Rows, second.Rows)
	assert.Equal(t, first.Page, second.Page)
}

func TestFetch_ExpiredEntriesReloadFromBackend(t *testing.T) {
	var mu sync.Mutex
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}

	b := &fakeBackend{total: 250}
	log := logger.NewTestLogger(t)
	memo := cache.NewMemo(cache.NewMemoryStore(0).WithClock(clock), time.Minute, log)
	f := New(&Config{Timeout: time.Second, PageSize: 100}, b, memo, nil, log)
	ctx := context.Background()
	criteria := models.FilterCriteria{Region: "SP"}

	_, err := f.Fetch(ctx, criteria, models.PageRequest{Page: 1})
	require.NoError(t, err)
	hit, err := f.Fetch(ctx, criteria, models.PageRequest{Page: 1})
	require.NoError(t, err)
	assert.True(t, hit.Cached)

	counts, rows := b.calls()
	assert.Equal(t, 1, counts)
	assert.Equal(t, 1, rows)

	mu.Lock()
	now = now.Add(2 * time.Minute)
	mu.Unlock()

	fresh, err := f.Fetch(ctx, criteria, models.PageRequest{Page: 1})
	require.NoError(t, err)
	assert.False(t, fresh.Cached)

	counts, rows = b.calls()
	assert.Equal(t, 2, counts)
	assert.Equal(t, 2, rows)
}

func TestFetch_PagingReusesCount(t *testing.T) {
	b := &fakeBackend{total: 250}
	f := newTestFetcher(t, b, time.Second)
	ctx := context.Background()

	for page := 1; page <= 3; page++ {
		_, err := f.Fetch(ctx, models.FilterCriteria{Region: "SP"}, models.PageRequest{Page: page})
		require.NoError(t, err)
	}

	counts, rows := b.calls()
	assert.Equal(t, 1, counts)
	assert.Equal(t, 3, rows)
}

func TestFetch_ClampsPageBeforeLoadingRows(t *testing.T) {
	b := &fakeBackend{total: 250}
	f := newTestFetcher(t, b, time.Second)

	res, err := f.Fetch(context.Background(), models.FilterCriteria{}, models.PageRequest{Page: 9})
	require.NoError(t, err)

	assert.Equal(t, 3, res.Page.Page)
	assert.Len(t, res.Rows, 50)
	assert.Equal(t, 201, res.Page.RangeStart)
	assert.Equal(t, 250, res.Page.RangeEnd)
	assert.Equal(t, []int{200}, b.offsets)
}

func TestFetch_EmptySelection(t *testing.T) {
	b := &fakeBackend{total: 0}
	f := newTestFetcher(t, b, time.Second)

	res, err := f.Fetch(context.Background(), models.FilterCriteria{Region: "XX"}, models.PageRequest{Page: 4})
	require.NoError(t, err)

	assert.Empty(t, res.Rows)
	assert.NotNil(t, res.Rows)
	assert.Equal(t, 1, res.Page.Page)
	assert.Equal(t, "Exibindo 0 a 0 de 0 registros", res.Summary())

	_, rows := b.calls()
	assert.Equal(t, 0, rows, "no row query when nothing matches")
}

func TestFetch_SubRegionWithoutRegionIsIgnored(t *testing.T) {
	b := &fakeBackend{total: 10}
	f := newTestFetcher(t, b, time.Second)

	res, err := f.Fetch(context.Background(), models.FilterCriteria{SubRegion: "Santos"}, models.PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, models.FilterCriteria{}, res.Criteria)
}

func TestFetch_ErrorsAreWrappedAndNotCached(t *testing.T) {
	b := &fakeBackend{total: 5, countErr: errors.New("syntax error")}
	f := newTestFetcher(t, b, time.Second)
	ctx := context.Background()

	_, err := f.Fetch(ctx, models.FilterCriteria{}, models.PageRequest{})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeQueryExecutionFailed, apperrors.CodeOf(err))
	assert.False(t, apperrors.IsFatal(err))

	b.mu.Lock()
	b.countErr = nil
	b.mu.Unlock()

	res, err := f.Fetch(ctx, models.FilterCriteria{}, models.PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, 5, res.Total)

	counts, _ := b.calls()
	assert.Equal(t, 2, counts)
}

func TestFetch_ConfigurationErrorsPassThrough(t *testing.T) {
	b := &fakeBackend{total: 5, rowsErr: apperrors.NewConfigurationError("credentials rejected")}
	f := newTestFetcher(t, b, time.Second)

	_, err := f.Fetch(context.Background(), models.FilterCriteria{}, models.PageRequest{})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeConfigurationInvalid, apperrors.CodeOf(err))
	assert.True(t, apperrors.IsFatal(err))
}

func TestFetch_Timeout(t *testing.T) {
	b := &fakeBackend{total: 5, gate: make(chan struct{})}
	f := newTestFetcher(t, b, 20*time.Millisecond)

	_, err := f.Fetch(context.Background(), models.FilterCriteria{}, models.PageRequest{})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeQueryTimeout, apperrors.CodeOf(err))
}

func TestFetch_CoalescesConcurrentRequests(t *testing.T) {
	b := &fakeBackend{total: 30, gate: make(chan struct{})}
	f := newTestFetcher(t, b, 5*time.Second)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := f.Fetch(context.Background(), models.FilterCriteria{Region: "SP"}, models.PageRequest{Page: 1, Size: 10})
			if assert.NoError(t, err) {
				assert.Equal(t, 30, res.Total)
			}
		}()
	}

	time.Sleep(50 * time.Millisecond)
	close(b.gate)
	wg.Wait()

	counts, rows := b.calls()
	assert.Equal(t, 1, counts)
	assert.Equal(t, 1, rows)
}

func TestRegions(t *testing.T) {
	b := &fakeBackend{}
	f := newTestFetcher(t, b, time.Second)
	ctx := context.Background()

	idx, err := f.Regions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"RJ", "SP"}, idx.Regions())
	assert.Equal(t, []string{"Santos"}, idx.SubRegions("SP"))

	_, err = f.Regions(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, b.regionCalls)
}

func TestLoadConfig(t *testing.T) {
	c := LoadConfig(nil)
	assert.Equal(t, 30*time.Second, c.Timeout)
	assert.Equal(t, models.DefaultPageSize, c.PageSize)
}
