package database

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/option"

	"cnes-dashboard/internal/common/config"
	"cnes-dashboard/internal/common/credentials"
)

type BigQueryClient struct {
	Client   *bigquery.Client
	Location string
}

// NewBigQuery authenticates with the resolved service account. Options are
// appended last so callers can override the endpoint.
func NewBigQuery(ctx context.Context, cfg config.BigQueryConfig, creds *credentials.Credentials, opts ...option.ClientOption) (*BigQueryClient, error) {
	if creds == nil || creds.ProjectID == "" {
		return nil, fmt.Errorf("bigquery requires a project id")
	}

	clientOpts := []option.ClientOption{}
	if len(creds.ServiceAccountJSON) > 0 {
		clientOpts = append(clientOpts, option.WithCredentialsJSON(creds.ServiceAccountJSON))
	}
	clientOpts = append(clientOpts, opts...)

	client, err := bigquery.NewClient(ctx, creds.ProjectID, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create bigquery client: %w", err)
	}
	if cfg.Location != "" {
		client.Location = cfg.Location
	}

	return &BigQueryClient{Client: client, Location: cfg.Location}, nil
}

// Ping runs a trivial query so credential problems surface at startup.
func (c *BigQueryClient) Ping(ctx context.Context) error {
	it, err := c.Client.Query("SELECT 1").Read(ctx)
	if err != nil {
		return fmt.Errorf("bigquery ping failed: %w", err)
	}
	var row []bigquery.Value
	if err := it.Next(&row); err != nil {
		return fmt.Errorf("bigquery ping failed: %w", err)
	}
	return nil
}

func (c *BigQueryClient) Close() error {
	if c.Client != nil {
		return c.Client.Close()
	}
	return nil
}
