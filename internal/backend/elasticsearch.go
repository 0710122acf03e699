package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"cnes-dashboard/internal/common/config"
	"cnes-dashboard/internal/common/logger"
	"cnes-dashboard/internal/models"
	"cnes-dashboard/internal/query"
)

const (
	regionAggSize    = 100
	subRegionAggSize = 1000
)

// Elasticsearch serves pages from a search index holding one document per
// establishment. estado, municipio and codigo_cnes are expected to be
// keyword fields.
//
// Pages inside the index's max_result_window use from/size. Deeper pages
// walk the sort order with search_after, since the cluster rejects
// from+size beyond the window.
type Elasticsearch struct {
	client *elasticsearch.Client
	index  string
	window int
	logger logger.Logger
}

func NewElasticsearch(client *elasticsearch.Client, index string, window int, log logger.Logger) *Elasticsearch {
	if window <= 0 {
		window = config.DefaultMaxResultWindow
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Elasticsearch{
		client: client,
		index:  index,
		window: window,
		logger: log.WithFields(map[string]interface{}{"backend": config.BackendElasticsearch, "index": index}),
	}
}

func (e *Elasticsearch) Name() string { return config.BackendElasticsearch }

type searchResponse struct {
	Hits struct {
		Total struct {
			Value int `json:"value"`
		} `json:"total"`
		Hits []struct {
			Source models.Record `json:"_source"`
			Sort   []interface{} `json:"sort"`
		} `json:"hits"`
	} `json:"hits"`
	Aggregations struct {
		Regions struct {
			Buckets []struct {
				Key        string `json:"key"`
				SubRegions struct {
					Buckets []struct {
						Key string `json:"key"`
					} `json:"buckets"`
				} `json:"sub_regions"`
			} `json:"buckets"`
		} `json:"regions"`
	} `json:"aggregations"`
}

type countResponse struct {
	Count int `json:"count"`
}

func filterQuery(d query.Descriptor) map[string]interface{} {
	if len(d.Conditions) == 0 {
		return map[string]interface{}{"match_all": map[string]interface{}{}}
	}
	filters := make([]interface{}, 0, len(d.Conditions))
	for _, c := range d.Conditions {
		filters = append(filters, map[string]interface{}{
			"term": map[string]interface{}{c.Column: c.Value},
		})
	}
	return map[string]interface{}{
		"bool": map[string]interface{}{"filter": filters},
	}
}

func pageBody(d query.Descriptor) map[string]interface{} {
	return map[string]interface{}{
		"query": filterQuery(d),
		"sort": []interface{}{
			map[string]interface{}{d.OrderBy: map[string]interface{}{"order": "asc"}},
			map[string]interface{}{d.TieBreak: map[string]interface{}{"order": "asc", "unmapped_type": "keyword"}},
		},
		"track_total_hits": true,
	}
}

func (e *Elasticsearch) search(ctx context.Context, queryType models.QueryType, body map[string]interface{}, from, size int) (*searchResponse, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req := esapi.SearchRequest{
		Index: []string{e.index},
		Body:  strings.NewReader(string(data)),
		From:  &from,
		Size:  &size,
	}

	res, err := req.Do(ctx, e.client)
	if err != nil {
		return nil, classify(ctx, queryType, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return nil, statusError(queryType, res.StatusCode, string(msg))
	}

	var out searchResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, classify(ctx, queryType, fmt.Errorf("decode search response: %w", err))
	}
	return &out, nil
}

// page fetches d's window, switching to search_after once the window end
// passes max_result_window.
func (e *Elasticsearch) page(ctx context.Context, d query.Descriptor) (*searchResponse, error) {
	if d.Offset+d.Limit <= e.window {
		return e.search(ctx, models.QueryTypeRows, pageBody(d), d.Offset, d.Limit)
	}

	var after []interface{}
	skipped, exhausted := 0, false
	for skipped < d.Offset {
		step := d.Offset - skipped
		if step > e.window {
			step = e.window
		}
		body := pageBody(d)
		body["_source"] = false
		body["track_total_hits"] = false
		if after != nil {
			body["search_after"] = after
		}
		res, err := e.search(ctx, models.QueryTypeRows, body, 0, step)
		if err != nil {
			return nil, err
		}
		n := len(res.Hits.Hits)
		if n > 0 {
			after = res.Hits.Hits[n-1].Sort
		}
		skipped += n
		if n < step {
			exhausted = true
			break
		}
	}

	e.logger.Debug("Paging past result window", map[string]interface{}{
		"offset":  d.Offset,
		"window":  e.window,
		"skipped": skipped,
	})

	body := pageBody(d)
	size := d.Limit
	if exhausted {
		size = 0
	} else if after != nil {
		body["search_after"] = after
	}
	return e.search(ctx, models.QueryTypeRows, body, 0, size)
}

func (e *Elasticsearch) Query(ctx context.Context, d query.Descriptor) (*models.QueryResult, error) {
	res, err := e.page(ctx, d)
	if err != nil {
		return nil, err
	}
	return &models.QueryResult{Rows: sources(res), Total: res.Hits.Total.Value}, nil
}

func (e *Elasticsearch) Rows(ctx context.Context, d query.Descriptor) ([]models.Record, error) {
	res, err := e.page(ctx, d)
	if err != nil {
		return nil, err
	}
	return sources(res), nil
}

func (e *Elasticsearch) Count(ctx context.Context, d query.Descriptor) (int, error) {
	data, err := json.Marshal(map[string]interface{}{"query": filterQuery(d)})
	if err != nil {
		return 0, err
	}

	req := esapi.CountRequest{
		Index: []string{e.index},
		Body:  strings.NewReader(string(data)),
	}

	res, err := req.Do(ctx, e.client)
	if err != nil {
		return 0, classify(ctx, models.QueryTypeCount, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return 0, statusError(models.QueryTypeCount, res.StatusCode, string(msg))
	}

	var out countResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return 0, classify(ctx, models.QueryTypeCount, fmt.Errorf("decode count response: %w", err))
	}
	return out.Count, nil
}

// DistinctRegions reads region pairs from a nested terms aggregation.
func (e *Elasticsearch) DistinctRegions(ctx context.Context) (*models.DistinctValuesIndex, error) {
	body := map[string]interface{}{
		"query": map[string]interface{}{"match_all": map[string]interface{}{}},
		"aggs": map[string]interface{}{
			"regions": map[string]interface{}{
				"terms": map[string]interface{}{"field": query.ColumnRegion, "size": regionAggSize},
				"aggs": map[string]interface{}{
					"sub_regions": map[string]interface{}{
						"terms": map[string]interface{}{"field": query.ColumnSubRegion, "size": subRegionAggSize},
					},
				},
			},
		},
	}

	res, err := e.search(ctx, models.QueryTypeDistinct, body, 0, 0)
	if err != nil {
		return nil, err
	}

	var pairs []models.RegionPair
	for _, region := range res.Aggregations.Regions.Buckets {
		for _, sub := range region.SubRegions.Buckets {
			pairs = append(pairs, models.RegionPair{Region: region.Key, SubRegion: sub.Key})
		}
	}
	return models.NewDistinctValuesIndex(pairs), nil
}

func sources(res *searchResponse) []models.Record {
	rows := make([]models.Record, 0, len(res.Hits.Hits))
	for _, h := range res.Hits.Hits {
		rows = append(rows, h.Source)
	}
	return rows
}
