// Package backend implements the establishment data sources behind one
// interface. Server-side variants push filtering and paging into the store;
// the relational variant loads the table and filters in memory.
package backend

import (
	"context"
	"fmt"
	"sort"
	"time"

	"cnes-dashboard/internal/common/config"
	"cnes-dashboard/internal/common/database"
	apperrors "cnes-dashboard/internal/common/errors"
	"cnes-dashboard/internal/common/logger"
	"cnes-dashboard/internal/models"
	"cnes-dashboard/internal/query"
)

type DataBackend interface {
	// Query returns one page of matching rows and the total match count.
	Query(ctx context.Context, d query.Descriptor) (*models.QueryResult, error)
	Count(ctx context.Context, d query.Descriptor) (int, error)
	Rows(ctx context.Context, d query.Descriptor) ([]models.Record, error)
	DistinctRegions(ctx context.Context) (*models.DistinctValuesIndex, error)
	Name() string
}

// Dependencies carries the opened connection handles. A factory only reads
// the handle its kind needs.
type Dependencies struct {
	Config   *config.Config
	SQL      *database.SQLClient
	BigQuery *database.BigQueryClient
	Search   *database.ElasticsearchClient
	Logger   logger.Logger
	Now      func() time.Time
}

type Factory func(deps Dependencies) (DataBackend, error)

var Registry = map[string]Factory{
	config.BackendWarehouse:     newWarehouse,
	config.BackendBigQuery:      newBigQuery,
	config.BackendRelational:    newRelational,
	config.BackendElasticsearch: newElasticsearch,
}

// Kinds lists the registered backend kinds in sorted order.
func Kinds() []string {
	kinds := make([]string, 0, len(Registry))
	for k := range Registry {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// New builds the backend registered for kind, instrumented with metrics.
func New(kind string, deps Dependencies) (DataBackend, error) {
	factory, ok := Registry[kind]
	if !ok {
		return nil, apperrors.NewConfigurationError(fmt.Sprintf("unknown backend kind %q", kind))
	}
	if deps.Config == nil {
		return nil, apperrors.NewConfigurationError("backend requires configuration")
	}
	if deps.Logger == nil {
		deps.Logger = logger.NewNoOpLogger()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}

	b, err := factory(deps)
	if err != nil {
		return nil, err
	}
	return Instrument(b), nil
}

func newWarehouse(deps Dependencies) (DataBackend, error) {
	if deps.SQL == nil || deps.SQL.DB == nil {
		return nil, apperrors.NewConfigurationError("warehouse backend requires a SQL connection")
	}
	dialect, err := query.DialectFor(deps.SQL.Driver)
	if err != nil {
		return nil, err
	}
	runner := NewSQLRunner(deps.SQL.GetDB(), dialect)
	return NewServerSide(config.BackendWarehouse, runner, deps.Config.Backend.Table, deps.Logger)
}

func newBigQuery(deps Dependencies) (DataBackend, error) {
	if deps.BigQuery == nil || deps.BigQuery.Client == nil {
		return nil, apperrors.NewConfigurationError("bigquery backend requires a BigQuery client")
	}
	runner := NewBigQueryRunner(deps.BigQuery.Client)
	return NewServerSide(config.BackendBigQuery, runner, deps.Config.Backend.Table, deps.Logger)
}

func newRelational(deps Dependencies) (DataBackend, error) {
	if deps.SQL == nil || deps.SQL.DB == nil {
		return nil, apperrors.NewConfigurationError("relational backend requires a SQL connection")
	}
	dialect, err := query.DialectFor(deps.SQL.Driver)
	if err != nil {
		return nil, err
	}
	runner := NewSQLRunner(deps.SQL.GetDB(), dialect)
	return NewRelational(runner, deps.Config.Backend.Table, deps.Config.CacheTTL(), deps.Now, deps.Logger)
}

func newElasticsearch(deps Dependencies) (DataBackend, error) {
	if deps.Search == nil || deps.Search.Client == nil {
		return nil, apperrors.NewConfigurationError("elasticsearch backend requires a search client")
	}
	index := deps.Search.Index
	if index == "" {
		index = deps.Config.Backend.Table
	}
	return NewElasticsearch(deps.Search.Client, index, deps.Config.Database.Elasticsearch.MaxResultWindow, deps.Logger), nil
}
