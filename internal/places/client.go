// Package places is the read-only gateway to the geonames city records API
package places

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/randytsao24/cityweather/internal/metrics"
	"github.com/randytsao24/cityweather/internal/models"
)

const gatewayName = "places"

var (
	ErrUpstream = errors.New("places: upstream request failed")
	ErrDecode   = errors.New("places: response not decodable")
)

// Query is one records request. A zero Limit sends neither limit nor
// offset, which is how filter queries go out.
type Query struct {
	Where   string
	Limit   int
	Offset  int
	OrderBy string
}

// Values encodes the query parameters understood by the records endpoint
func (q Query) Values() url.Values {
	params := url.Values{}
	if q.Where != "" {
		params.Set("where", q.Where)
	}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
		params.Set("offset", strconv.Itoa(q.Offset))
	}
	if q.OrderBy != "" {
		params.Set("order_by", q.OrderBy)
	}
	return params
}

// Client fetches city record pages
type Client struct {
	baseURL string
	client  *http.Client
	memo    *gocache.Cache
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewClient creates a places client. A cacheTTL of zero disables the
// in-memory response memo.
func NewClient(baseURL string, timeout, cacheTTL time.Duration, m *metrics.Metrics, logger *slog.Logger) *Client {
	c := &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		metrics: m,
		logger:  logger.With(slog.String("gateway", gatewayName)),
	}
	if cacheTTL > 0 {
		c.memo = gocache.New(cacheTTL, 2*cacheTTL)
	}
	return c
}

// Records performs one GET against the records endpoint
func (c *Client) Records(ctx context.Context, q Query) (models.Page, error) {
	params := q.Values()
	encoded := params.Encode()

	ctx, span := otel.Tracer("cityweather/places").Start(ctx, "Records", trace.WithAttributes(
		attribute.String("places.query", encoded),
	))
	defer span.End()

	if c.memo != nil {
		if cached, ok := c.memo.Get(encoded); ok {
			span.SetAttributes(attribute.Bool("places.memo_hit", true))
			return cached.(models.Page), nil
		}
	}

	start := time.Now()
	page, err := c.fetch(ctx, encoded)
	c.metrics.ObserveUpstream(gatewayName, start, err)
	if errors.Is(err, context.Canceled) {
		c.logger.DebugContext(ctx, "records request canceled", slog.String("query", encoded))
		span.SetStatus(codes.Error, "caller gave up")
		return models.Page{}, err
	}
	if err != nil {
		c.logger.ErrorContext(ctx, "records request failed", slog.String("query", encoded), slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "records request failed")
		return models.Page{}, err
	}

	if c.memo != nil {
		c.memo.SetDefault(encoded, page)
	}
	span.SetAttributes(
		attribute.Int("places.total_count", page.TotalCount),
		attribute.Int("places.results", len(page.Results)),
	)
	span.SetStatus(codes.Ok, "records fetched")
	return page, nil
}

func (c *Client) fetch(ctx context.Context, encoded string) (models.Page, error) {
	apiURL := c.baseURL
	if encoded != "" {
		apiURL += "?" + encoded
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return models.Page{}, fmt.Errorf("building records request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return models.Page{}, fmt.Errorf("fetching records: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.Page{}, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}

	var result recordsResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return models.Page{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if result.TotalCount == nil {
		return models.Page{}, fmt.Errorf("%w: missing total_count", ErrDecode)
	}

	results := result.Results
	if results == nil {
		results = []models.CityRecord{}
	}
	return models.Page{TotalCount: *result.TotalCount, Results: results}, nil
}

// API response structure
type recordsResponse struct {
	TotalCount *int                `json:"total_count"`
	Results    []models.CityRecord `json:"results"`
}
