package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

type Config struct {
	URL        string
	Username   string
	Password   string
	Index      string
	MaxRetries int
}

type ElasticsearchClient struct {
	client *elasticsearch.Client
	index  string
}

// FlightDocument is the search-side projection of a flight, kept in sync by
// the event consumers.
type FlightDocument struct {
	ID          int64     `json:"id"`
	Origin      string    `json:"origin"`
	Destination string    `json:"destination"`
	Departure   time.Time `json:"departure"`
	Arrival     time.Time `json:"arrival"`
	Status      string    `json:"status"`
}

const flightIndexMapping = `{
	"mappings": {
		"properties": {
			"id":          {"type": "long"},
			"origin":      {"type": "keyword"},
			"destination": {"type": "keyword"},
			"departure":   {"type": "date"},
			"arrival":     {"type": "date"},
			"status":      {"type": "keyword"}
		}
	}
}`

func NewElasticsearchClient(cfg Config) (*ElasticsearchClient, error) {
	esCfg := elasticsearch.Config{
		Addresses:  []string{cfg.URL},
		Username:   cfg.Username,
		Password:   cfg.Password,
		MaxRetries: cfg.MaxRetries,
	}

	client, err := elasticsearch.NewClient(esCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Elasticsearch client: %w", err)
	}

	es := &ElasticsearchClient{client: client, index: cfg.Index}
	if err := es.ensureIndex(context.Background()); err != nil {
		return nil, err
	}

	slog.Info("Connected to Elasticsearch", "url", cfg.URL, "index", cfg.Index)
	return es, nil
}

func (es *ElasticsearchClient) ensureIndex(ctx context.Context) error {
	res, err := esapi.IndicesExistsRequest{Index: []string{es.index}}.Do(ctx, es.client)
	if err != nil {
		return fmt.Errorf("failed to check index existence: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == 200 {
		return nil
	}

	createRes, err := esapi.IndicesCreateRequest{
		Index: es.index,
		Body:  strings.NewReader(flightIndexMapping),
	}.Do(ctx, es.client)
	if err != nil {
		return fmt.Errorf("failed to create index %s: %w", es.index, err)
	}
	defer createRes.Body.Close()

	if createRes.IsError() {
		return fmt.Errorf("index creation failed: %s", createRes.String())
	}

	slog.Info("Created Elasticsearch index", "index", es.index)
	return nil
}

func (es *ElasticsearchClient) IndexFlight(ctx context.Context, doc FlightDocument) error {
	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal flight document: %w", err)
	}

	res, err := esapi.IndexRequest{
		Index:      es.index,
		DocumentID: fmt.Sprintf("%d", doc.ID),
		Body:       bytes.NewReader(payload),
		Refresh:    "true",
	}.Do(ctx, es.client)
	if err != nil {
		return fmt.Errorf("failed to index flight %d: %w", doc.ID, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("indexing flight %d failed: %s", doc.ID, res.String())
	}
	return nil
}

func (es *ElasticsearchClient) UpdateFlightStatus(ctx context.Context, flightID int64, status string) error {
	body := fmt.Sprintf(`{"doc": {"status": %q}}`, status)

	res, err := esapi.UpdateRequest{
		Index:      es.index,
		DocumentID: fmt.Sprintf("%d", flightID),
		Body:       strings.NewReader(body),
		Refresh:    "true",
	}.Do(ctx, es.client)
	if err != nil {
		return fmt.Errorf("failed to update flight %d status: %w", flightID, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("status update for flight %d failed: %s", flightID, res.String())
	}
	return nil
}

// SearchFlights queries by exact origin/destination and an optional departure
// date (matches the whole day). Empty parameters are skipped.
func (es *ElasticsearchClient) SearchFlights(ctx context.Context, origin, destination, date string) ([]FlightDocument, error) {
	filters := make([]map[string]interface{}, 0, 3)
	if origin != "" {
		filters = append(filters, map[string]interface{}{
			"term": map[string]interface{}{"origin": origin},
		})
	}
	if destination != "" {
		filters = append(filters, map[string]interface{}{
			"term": map[string]interface{}{"destination": destination},
		})
	}
	if date != "" {
		filters = append(filters, map[string]interface{}{
			"range": map[string]interface{}{
				"departure": map[string]interface{}{
					"gte": date,
					"lt":  date + "||+1d",
				},
			},
		})
	}

	query := map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"filter": filters,
			},
		},
		"sort": []map[string]interface{}{
			{"departure": map[string]interface{}{"order": "asc"}},
		},
		"size": 100,
	}

	payload, err := json.Marshal(query)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal search query: %w", err)
	}

	res, err := es.client.Search(
		es.client.Search.WithContext(ctx),
		es.client.Search.WithIndex(es.index),
		es.client.Search.WithBody(bytes.NewReader(payload)),
	)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("search failed: %s", res.String())
	}

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read search response: %w", err)
	}

	var result struct {
		Hits struct {
			Hits []struct {
				Source FlightDocument `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	flights := make([]FlightDocument, 0, len(result.Hits.Hits))
	for _, hit := range result.Hits.Hits {
		flights = append(flights, hit.Source)
	}
	return flights, nil
}
