// Package weather is the gateway to the current-conditions API. The API
// credential lives here, on the server, and never reaches the browser.
package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/randytsao24/cityweather/internal/location"
	"github.com/randytsao24/cityweather/internal/metrics"
	"github.com/randytsao24/cityweather/internal/models"
)

const gatewayName = "weather"

var (
	ErrNoCredential = errors.New("weather: OPENWEATHER_API_KEY not configured")
	ErrUpstream     = errors.New("weather: upstream request failed")
	ErrDecode       = errors.New("weather: response not decodable")
)

// Client fetches current conditions by coordinate. Identical lookups that
// overlap in time share one upstream request; nothing is kept afterwards.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
	group   singleflight.Group
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewClient creates a weather client
func NewClient(baseURL, apiKey string, timeout time.Duration, m *metrics.Metrics, logger *slog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
		metrics: m,
		logger:  logger.With(slog.String("gateway", gatewayName)),
	}
}

// HasAPIKey returns true if the client has a credential configured
func (c *Client) HasAPIKey() bool {
	return c.apiKey != ""
}

// Current returns the conditions at the given coordinates
func (c *Client) Current(ctx context.Context, coords models.Coordinates) (models.WeatherSnapshot, error) {
	if c.apiKey == "" {
		return models.WeatherSnapshot{}, ErrNoCredential
	}

	lat := location.FormatDegrees(coords.Lat)
	lon := location.FormatDegrees(coords.Lon)

	ctx, span := otel.Tracer("cityweather/weather").Start(ctx, "Current", trace.WithAttributes(
		attribute.String("weather.lat", lat),
		attribute.String("weather.lon", lon),
	))
	defer span.End()

	ch := c.group.DoChan(lat+","+lon, func() (any, error) {
		start := time.Now()
		snap, err := c.fetch(context.WithoutCancel(ctx), lat, lon)
		c.metrics.ObserveUpstream(gatewayName, start, err)
		return snap, err
	})

	select {
	case <-ctx.Done():
		span.SetStatus(codes.Error, "caller gave up")
		return models.WeatherSnapshot{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			c.logger.ErrorContext(ctx, "weather request failed",
				slog.String("lat", lat), slog.String("lon", lon), slog.Any("error", res.Err))
			span.RecordError(res.Err)
			span.SetStatus(codes.Error, "weather request failed")
			return models.WeatherSnapshot{}, res.Err
		}
		span.SetAttributes(attribute.Bool("weather.shared", res.Shared))
		span.SetStatus(codes.Ok, "weather fetched")
		return res.Val.(models.WeatherSnapshot), nil
	}
}

func (c *Client) fetch(ctx context.Context, lat, lon string) (models.WeatherSnapshot, error) {
	params := url.Values{}
	params.Set("lat", lat)
	params.Set("lon", lon)
	params.Set("units", "metric")
	params.Set("appid", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return models.WeatherSnapshot{}, fmt.Errorf("building weather request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		// url.Error repeats the full URL, credential included
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return models.WeatherSnapshot{}, fmt.Errorf("fetching weather: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.WeatherSnapshot{}, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}

	var result currentResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return models.WeatherSnapshot{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if result.Main == nil {
		return models.WeatherSnapshot{}, fmt.Errorf("%w: missing main block", ErrDecode)
	}

	snap := models.WeatherSnapshot{
		Place:       result.Name,
		Temperature: result.Main.Temp,
		Humidity:    result.Main.Humidity,
		Pressure:    result.Main.Pressure,
		WindSpeed:   result.Wind.Speed,
	}
	if len(result.Weather) > 0 {
		snap.ConditionID = result.Weather[0].ID
		snap.Description = result.Weather[0].Description
		snap.Icon = result.Weather[0].Icon
	}
	return snap, nil
}

// API response structure
type currentResponse struct {
	Name string `json:"name"`
	Main *struct {
		Temp     float64 `json:"temp"`
		Humidity int     `json:"humidity"`
		Pressure int     `json:"pressure"`
	} `json:"main"`
	Weather []struct {
		ID          int    `json:"id"`
		Description string `json:"description"`
		Icon        string `json:"icon"`
	} `json:"weather"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
}
