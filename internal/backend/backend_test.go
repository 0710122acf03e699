package backend

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cnes-dashboard/internal/common/config"
	"cnes-dashboard/internal/common/database"
	apperrors "cnes-dashboard/internal/common/errors"
	"cnes-dashboard/internal/models"
	"cnes-dashboard/internal/query"
)

func testConfig(kind string) *config.Config {
	cfg := &config.Config{}
	cfg.Backend.Kind = kind
	cfg.Backend.Table = testTable
	cfg.Cache.TTL = 60
	return cfg
}

func TestKinds(t *testing.T) {
	assert.Equal(t, []string{"bigquery", "elasticsearch", "relational", "warehouse"}, Kinds())
}

func TestNew_Errors(t *testing.T) {
	tests := []struct {
		name string
		kind string
		deps Dependencies
	}{
		{name: "unknown kind", kind: "mongo", deps: Dependencies{Config: testConfig("mongo")}},
		{name: "missing config", kind: config.BackendWarehouse},
		{name: "warehouse without sql", kind: config.BackendWarehouse, deps: Dependencies{Config: testConfig(config.BackendWarehouse)}},
		{name: "relational without sql", kind: config.BackendRelational, deps: Dependencies{Config: testConfig(config.BackendRelational)}},
		{name: "bigquery without client", kind: config.BackendBigQuery, deps: Dependencies{Config: testConfig(config.BackendBigQuery)}},
		{name: "elasticsearch without client", kind: config.BackendElasticsearch, deps: Dependencies{Config: testConfig(config.BackendElasticsearch)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.kind, tt.deps)
			require.Error(t, err)
			assert.Equal(t, apperrors.ErrCodeConfigurationInvalid, apperrors.CodeOf(err))
		})
	}
}

func TestNew_RelationalOverSQLite(t *testing.T) {
	client := seedSQLite(t)

	b, err := New(config.BackendRelational, Dependencies{
		Config: testConfig(config.BackendRelational),
		SQL:    client,
	})
	require.NoError(t, err)
	assert.Equal(t, config.BackendRelational, b.Name())

	res, err := b.Query(context.Background(), query.Build(models.FilterCriteria{Region: "RJ"}, models.PageRequest{}))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Total)
}

func TestNew_WarehouseOverSQLite(t *testing.T) {
	client := seedSQLite(t)

	b, err := New(config.BackendWarehouse, Dependencies{
		Config: testConfig(config.BackendWarehouse),
		SQL:    client,
	})
	require.NoError(t, err)
	assert.Equal(t, config.BackendWarehouse, b.Name())

	res, err := b.Query(context.Background(), query.Build(models.FilterCriteria{Region: "SP"}, models.PageRequest{Page: 1, Size: 2}))
	require.NoError(t, err)
	assert.Equal(t, 3, res.Total)
	assert.Len(t, res.Rows, 2)
}

func TestNew_WarehouseRejectsUnknownDriver(t *testing.T) {
	client := seedSQLite(t)

	_, err := New(config.BackendWarehouse, Dependencies{
		Config: testConfig(config.BackendWarehouse),
		SQL:    &database.SQLClient{DB: client.DB, Driver: "mysql"},
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsFatal(err))
}

func TestInstrument_IsIdempotent(t *testing.T) {
	r, err := NewRelational(&recordingRunner{dialect: query.SQLite}, testTable, 0, nil, nil)
	require.NoError(t, err)

	once := Instrument(r)
	assert.Same(t, once, Instrument(once))
	assert.Equal(t, config.BackendRelational, once.Name())
}
