package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"cnes-dashboard/internal/backend"
	"cnes-dashboard/internal/common/config"
	"cnes-dashboard/internal/common/credentials"
	"cnes-dashboard/internal/common/database"
	apperrors "cnes-dashboard/internal/common/errors"
)

type pinger interface {
	Ping(ctx context.Context) error
	Close() error
}

// connections holds whichever handles the configured backend needs.
type connections struct {
	sql      *database.SQLClient
	bigquery *database.BigQueryClient
	search   *database.ElasticsearchClient
	closers  []pinger
}

func (c *connections) dependencies(cfg *config.Config) backend.Dependencies {
	return backend.Dependencies{
		Config:   cfg,
		SQL:      c.sql,
		BigQuery: c.bigquery,
		Search:   c.search,
	}
}

func (c *connections) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		_ = c.closers[i].Close()
	}
}

// openConnections resolves credentials once and opens the store selected by
// backend.kind, pinging it with retries so a bad DSN fails at startup.
func openConnections(ctx context.Context, cfg *config.Config, provider credentials.Provider, opts Options, log *zap.Logger) (*connections, error) {
	creds, err := provider.Resolve(ctx)
	if err != nil {
		return nil, err
	}

	conns := &connections{}
	var handle pinger

	switch cfg.Backend.Kind {
	case config.BackendWarehouse, config.BackendRelational:
		var client *database.SQLClient
		if cfg.Backend.Driver == config.DriverSQLite {
			client, err = database.NewSQLite(creds.DSN)
		} else {
			client, err = database.NewPostgres(cfg.Database.Postgres, creds.DSN)
		}
		if err != nil {
			return nil, apperrors.WrapConfigurationError("open sql database", err)
		}
		conns.sql = client
		handle = client

	case config.BackendBigQuery:
		client, err := database.NewBigQuery(ctx, cfg.Database.BigQuery, creds, opts.BigQueryOptions...)
		if err != nil {
			return nil, apperrors.WrapConfigurationError("create bigquery client", err)
		}
		conns.bigquery = client
		handle = client

	case config.BackendElasticsearch:
		client, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return nil, apperrors.WrapConfigurationError("create elasticsearch client", err)
		}
		conns.search = client
		handle = client

	default:
		return nil, apperrors.NewConfigurationError(fmt.Sprintf("backend.kind %q is not supported", cfg.Backend.Kind))
	}
	conns.closers = append(conns.closers, handle)

	err = retryWithBackoff(ctx, handle.Ping, opts.ConnectRetries, opts.ConnectDelay, log,
		fmt.Sprintf("%s connection", cfg.Backend.Kind))
	if err != nil {
		conns.Close()
		return nil, apperrors.NewDatabaseConnectionFailedError(err)
	}

	log.Info("backend connection established",
		zap.String("kind", cfg.Backend.Kind),
		zap.String("credentialSource", creds.Source),
	)
	return conns, nil
}
