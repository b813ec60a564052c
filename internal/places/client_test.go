package places

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randytsao24/cityweather/internal/metrics"
)

const parisBody = `{
	"total_count": 3,
	"results": [{
		"geoname_id": "2988507",
		"name": "Paris",
		"ascii_name": "Paris",
		"country_code": "FR",
		"cou_name_en": "France",
		"admin1_code": "11",
		"population": 2138551,
		"elevation": null,
		"dem": 42,
		"timezone": "Europe/Paris",
		"coordinates": {"lon": 2.35, "lat": 48.85}
	}]
}`

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(baseURL string, ttl time.Duration) *Client {
	return NewClient(baseURL, 2*time.Second, ttl, metrics.New(prometheus.NewRegistry()), discardLogger())
}

func TestQueryValues(t *testing.T) {
	tests := []struct {
		name  string
		query Query
		want  url.Values
	}{
		{
			name:  "paged first page",
			query: Query{Limit: 20},
			want:  url.Values{"limit": {"20"}, "offset": {"0"}},
		},
		{
			name:  "paged with order",
			query: Query{Limit: 20, Offset: 40, OrderBy: "name DESC"},
			want:  url.Values{"limit": {"20"}, "offset": {"40"}, "order_by": {"name DESC"}},
		},
		{
			name:  "filter only",
			query: Query{Where: `"paris"`},
			want:  url.Values{"where": {`"paris"`}},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.query.Values())
		})
	}
}

func TestRecordsDecodesPage(t *testing.T) {
	var gotQuery url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, parisBody)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, 0)
	page, err := c.Records(context.Background(), Query{Limit: 20, Offset: 20, OrderBy: "population DESC"})
	require.NoError(t, err)

	assert.Equal(t, "20", gotQuery.Get("limit"))
	assert.Equal(t, "20", gotQuery.Get("offset"))
	assert.Equal(t, "population DESC", gotQuery.Get("order_by"))

	assert.Equal(t, 3, page.TotalCount)
	require.Len(t, page.Results, 1)
	city := page.Results[0]
	assert.Equal(t, "Paris", city.Name)
	assert.Equal(t, "France", city.CountryName)
	assert.Equal(t, int64(2138551), city.Population)
	assert.Nil(t, city.Elevation)
	assert.Equal(t, 48.85, city.Coordinates.Lat)
	assert.Equal(t, 2.35, city.Coordinates.Lon)
}

func TestRecordsUpstreamStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, 0).Records(context.Background(), Query{Limit: 20})
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestRecordsDecodeFailure(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", "<html>"},
		{"missing total", `{"results": []}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, tc.body)
			}))
			defer srv.Close()

			_, err := newTestClient(srv.URL, 0).Records(context.Background(), Query{Limit: 20})
			assert.ErrorIs(t, err, ErrDecode)
		})
	}
}

func TestRecordsNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	baseURL := srv.URL
	srv.Close()

	_, err := newTestClient(baseURL, 0).Records(context.Background(), Query{Limit: 20})
	assert.Error(t, err)
}

func TestRecordsMemo(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = io.WriteString(w, parisBody)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, time.Minute)
	ctx := context.Background()

	_, err := c.Records(ctx, Query{Limit: 20})
	require.NoError(t, err)
	_, err = c.Records(ctx, Query{Limit: 20})
	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load())

	_, err = c.Records(ctx, Query{Limit: 20, Offset: 20})
	require.NoError(t, err)
	assert.Equal(t, int32(2), hits.Load())
}

func upstreamOutcome(t *testing.T, reg *prometheus.Registry, outcome string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != "cityweather_upstream_requests_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			if labelValue(m, "outcome") == outcome {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func labelValue(m *dto.Metric, name string) string {
	for _, lp := range m.GetLabel() {
		if lp.GetName() == name {
			return lp.GetValue()
		}
	}
	return ""
}

// A caller hanging up mid-request is not an upstream failure
func TestRecordsCallerCanceled(t *testing.T) {
	arrived := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(arrived)
		<-r.Context().Done()
	}))
	defer srv.Close()

	var logs bytes.Buffer
	reg := prometheus.NewRegistry()
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	c := NewClient(srv.URL, 2*time.Second, 0, metrics.New(reg), logger)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-arrived
		cancel()
	}()

	_, err := c.Records(ctx, Query{Limit: 20})
	require.ErrorIs(t, err, context.Canceled)

	assert.NotContains(t, logs.String(), "level=ERROR")
	assert.Contains(t, logs.String(), "records request canceled")
	assert.Equal(t, 1.0, upstreamOutcome(t, reg, "canceled"))
	assert.Zero(t, upstreamOutcome(t, reg, "error"))
}
