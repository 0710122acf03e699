package backend

import (
	"context"
	"errors"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	"cnes-dashboard/internal/models"
	"cnes-dashboard/internal/query"
)

// BigQueryRunner runs statements rendered for the BigQuery dialect, binding
// arguments as named query parameters.
type BigQueryRunner struct {
	client *bigquery.Client
}

func NewBigQueryRunner(client *bigquery.Client) *BigQueryRunner {
	return &BigQueryRunner{client: client}
}

func (r *BigQueryRunner) Dialect() query.Dialect { return query.BigQuery }

func (r *BigQueryRunner) QueryRecords(ctx context.Context, stmt query.Statement) ([]models.Record, error) {
	q := r.client.Query(stmt.Text)
	q.Parameters = queryParameters(stmt)

	it, err := q.Read(ctx)
	if err != nil {
		return nil, err
	}

	records := []models.Record{}
	for {
		var row map[string]bigquery.Value
		err := it.Next(&row)
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, err
		}

		record := make(models.Record, len(row))
		for k, v := range row {
			record[k] = normalizeValue(v)
		}
		records = append(records, record)
	}
	return records, nil
}

func queryParameters(stmt query.Statement) []bigquery.QueryParameter {
	params := make([]bigquery.QueryParameter, 0, len(stmt.Args))
	for _, a := range stmt.Args {
		params = append(params, bigquery.QueryParameter{Name: a.Name, Value: a.Value})
	}
	return params
}
