// Package feed implements the paged city feed: accumulated pages for one
// filter/sort shape, a single in-flight fetch, and reset on shape change.
package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/randytsao24/cityweather/internal/metrics"
	"github.com/randytsao24/cityweather/internal/models"
	"github.com/randytsao24/cityweather/internal/places"
)

// DefaultPageSize is the number of records requested per page
const DefaultPageSize = 20

// ErrTotalShrank is recorded when the backend reports fewer matches than
// rows already accumulated, which means pagination went wrong upstream.
var ErrTotalShrank = errors.New("feed: reported total below accumulated rows")

// Source fetches one page of records
type Source interface {
	Records(ctx context.Context, q places.Query) (models.Page, error)
}

// Status is a snapshot of the feed flags
type Status struct {
	IsLoading  bool  `json:"is_loading"`
	IsFetching bool  `json:"is_fetching"`
	IsError    bool  `json:"is_error"`
	Err        error `json:"-"`
	TotalCount int   `json:"total_count"`
	Fetched    int   `json:"fetched"`
	Pages      int   `json:"pages"`
}

// HasMore reports whether another page may exist for the current shape
func (s Status) HasMore() bool {
	return s.Pages == 0 || s.Fetched < s.TotalCount
}

// Feed is owned by one table view. All methods are safe for concurrent use.
type Feed struct {
	source   Source
	pageSize int
	metrics  *metrics.Metrics
	logger   *slog.Logger

	mu         sync.Mutex
	params     FilterSortParams
	generation uint64
	pages      []models.Page
	fetched    int
	total      int
	fetching   bool
	err        error
}

// New creates an empty feed with no filter and no sort
func New(source Source, pageSize int, m *metrics.Metrics, logger *slog.Logger) *Feed {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Feed{
		source:   source,
		pageSize: pageSize,
		metrics:  m,
		logger:   logger.With(slog.String("component", "feed")),
	}
}

// Params returns the active filter/sort shape
func (f *Feed) Params() FilterSortParams {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.params.clone()
}

// SetFilterSort replaces the query shape. A shape equal to the current one
// is ignored; otherwise every page, the error and the in-flight marker are
// dropped and the next fetch starts again from page 0. Returns whether a
// reset happened.
func (f *Feed) SetFilterSort(p FilterSortParams) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.params.Equal(p) {
		return false
	}

	f.params = p.clone()
	f.generation++
	f.pages = nil
	f.fetched = 0
	f.total = 0
	f.fetching = false
	f.err = nil

	f.logger.Debug("filter/sort changed, feed reset",
		slog.String("global_filter", p.GlobalFilter),
		slog.String("sort", p.Sort.Column),
		slog.Bool("desc", p.Sort.Desc),
	)
	return true
}

// FetchNextPage requests one more page and waits for it. It does nothing
// while another fetch is in flight or once every reported row is held.
// It reports whether a page was appended. A failed request sets the error
// flag and is not retried. A response that arrives after the shape changed
// is discarded.
func (f *Feed) FetchNextPage(ctx context.Context) (bool, error) {
	f.mu.Lock()
	if f.fetching || (len(f.pages) > 0 && f.fetched >= f.total) {
		f.mu.Unlock()
		return false, nil
	}
	f.fetching = true
	generation := f.generation
	pageIndex := len(f.pages)
	query := BuildQuery(f.params, pageIndex, f.pageSize)
	f.mu.Unlock()

	ctx, span := otel.Tracer("cityweather/feed").Start(ctx, "FetchNextPage", trace.WithAttributes(
		attribute.Int("feed.page_index", pageIndex),
	))
	defer span.End()

	page, err := f.source.Records(ctx, query)

	f.mu.Lock()
	defer f.mu.Unlock()

	if generation != f.generation {
		f.metrics.FeedPage("stale")
		f.logger.DebugContext(ctx, "discarding page for superseded filter/sort", slog.Int("page_index", pageIndex))
		span.SetAttributes(attribute.Bool("feed.stale", true))
		return false, nil
	}
	f.fetching = false

	if err != nil {
		if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			// caller went away; leave the feed as it was
			return false, err
		}
		f.err = err
		f.metrics.FeedPage("failed")
		span.RecordError(err)
		span.SetStatus(codes.Error, "page fetch failed")
		return false, fmt.Errorf("fetching page %d: %w", pageIndex, err)
	}

	if page.TotalCount < f.fetched {
		f.err = fmt.Errorf("%w: total %d, held %d", ErrTotalShrank, page.TotalCount, f.fetched)
		f.metrics.FeedPage("failed")
		f.logger.WarnContext(ctx, "pagination inconsistency", slog.Any("error", f.err))
		span.SetStatus(codes.Error, "pagination inconsistency")
		return false, f.err
	}

	results := page.Results
	if room := page.TotalCount - f.fetched; len(results) > room {
		f.logger.WarnContext(ctx, "page overruns reported total, truncating",
			slog.Int("page_index", pageIndex),
			slog.Int("results", len(results)),
			slog.Int("room", room),
		)
		results = results[:room]
	}

	f.pages = append(f.pages, models.Page{TotalCount: page.TotalCount, Results: results})
	f.fetched += len(results)
	f.total = page.TotalCount
	f.err = nil
	f.metrics.FeedPage("appended")

	f.logger.DebugContext(ctx, "page appended",
		slog.Int("page_index", pageIndex),
		slog.Int("rows", len(results)),
		slog.Int("fetched", f.fetched),
		slog.Int("total", f.total),
	)
	span.SetAttributes(attribute.Int("feed.fetched", f.fetched), attribute.Int("feed.total", f.total))
	return true, nil
}

// CurrentRows returns every row fetched so far in fetch order
func (f *Feed) CurrentRows() []models.CityRecord {
	f.mu.Lock()
	defer f.mu.Unlock()

	rows := make([]models.CityRecord, 0, f.fetched)
	for _, page := range f.pages {
		rows = append(rows, page.Results...)
	}
	return rows
}

// Rows returns the rows in [start, end) of the flattened view, clamped to
// what has been fetched.
func (f *Feed) Rows(start, end int) []models.CityRecord {
	f.mu.Lock()
	defer f.mu.Unlock()

	start = max(start, 0)
	end = min(end, f.fetched)
	if start >= end {
		return nil
	}

	out := make([]models.CityRecord, 0, end-start)
	offset := 0
	for _, page := range f.pages {
		n := len(page.Results)
		if offset+n > start && offset < end {
			lo := max(start-offset, 0)
			hi := min(end-offset, n)
			out = append(out, page.Results[lo:hi]...)
		}
		offset += n
		if offset >= end {
			break
		}
	}
	return out
}

// Row returns one row by its flattened index
func (f *Feed) Row(index int) (models.CityRecord, bool) {
	rows := f.Rows(index, index+1)
	if len(rows) == 0 {
		return models.CityRecord{}, false
	}
	return rows[0], true
}

// Status returns the current flags and counts
func (f *Feed) Status() Status {
	f.mu.Lock()
	defer f.mu.Unlock()

	return Status{
		IsLoading:  len(f.pages) == 0 && f.err == nil,
		IsFetching: f.fetching,
		IsError:    f.err != nil,
		Err:        f.err,
		TotalCount: f.total,
		Fetched:    f.fetched,
		Pages:      len(f.pages),
	}
}
