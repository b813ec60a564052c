package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randytsao24/cityweather/internal/models"
	"github.com/randytsao24/cityweather/internal/places"
)

type fakeSource struct {
	mu      sync.Mutex
	queries []places.Query
	total   int
	err     error
	// when set, each call signals started and then blocks until release
	started chan struct{}
	release chan struct{}
}

func (s *fakeSource) Records(ctx context.Context, q places.Query) (models.Page, error) {
	s.mu.Lock()
	s.queries = append(s.queries, q)
	started, release := s.started, s.release
	s.mu.Unlock()

	if started != nil {
		started <- struct{}{}
		<-release
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return models.Page{}, s.err
	}

	n := q.Limit
	if n == 0 {
		n = 10
	}
	results := make([]models.CityRecord, n)
	for i := range results {
		results[i] = models.CityRecord{
			GeonameID: fmt.Sprintf("%d", q.Offset+i),
			Name:      fmt.Sprintf("city-%d", q.Offset+i),
		}
	}
	return models.Page{TotalCount: s.total, Results: results}, nil
}

func (s *fakeSource) calls() []places.Query {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]places.Query(nil), s.queries...)
}

func (s *fakeSource) setErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

func (s *fakeSource) gate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.started = make(chan struct{})
	s.release = make(chan struct{})
}

func newTestFeed(src Source) *Feed {
	return New(src, 20, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestBuildQuery(t *testing.T) {
	tests := []struct {
		name   string
		params FilterSortParams
		page   int
		want   places.Query
	}{
		{"first page", FilterSortParams{}, 0, places.Query{Limit: 20, Offset: 0}},
		{"third page", FilterSortParams{}, 2, places.Query{Limit: 20, Offset: 40}},
		{
			"ascending sort",
			FilterSortParams{Sort: SortKey{Column: "name"}},
			1,
			places.Query{Limit: 20, Offset: 20, OrderBy: "name ASC"},
		},
		{
			"descending sort",
			FilterSortParams{Sort: SortKey{Column: "population", Desc: true}},
			0,
			places.Query{Limit: 20, OrderBy: "population DESC"},
		},
		{
			"filter drops sort and window",
			FilterSortParams{GlobalFilter: "paris", Sort: SortKey{Column: "name", Desc: true}},
			3,
			places.Query{Where: `"paris"`},
		},
		{
			"filter quotes are escaped",
			FilterSortParams{GlobalFilter: `say "hi"`},
			0,
			places.Query{Where: `"say \"hi\""`},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, BuildQuery(tc.params, tc.page, 20))
		})
	}
}

func TestParamsEqual(t *testing.T) {
	a := FilterSortParams{GlobalFilter: "x", Sort: SortKey{Column: "name"}}
	b := FilterSortParams{GlobalFilter: "x", Sort: SortKey{Column: "name"}, ColumnFilters: []ColumnFilter{}}
	assert.True(t, a.Equal(b))

	b.ColumnFilters = []ColumnFilter{{Column: "timezone", Value: "Europe"}}
	assert.False(t, a.Equal(b))

	c := a
	c.Sort.Desc = true
	assert.False(t, a.Equal(c))
}

func TestFirstLoadAndScrollFetch(t *testing.T) {
	src := &fakeSource{total: 5000}
	f := newTestFeed(src)
	ctx := context.Background()

	st := f.Status()
	assert.True(t, st.IsLoading)
	assert.False(t, st.IsFetching)
	assert.True(t, st.HasMore())

	ok, err := f.FetchNextPage(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, f.CurrentRows(), 20)
	assert.Equal(t, 5000, f.Status().TotalCount)
	assert.False(t, f.Status().IsLoading)

	src.gate()
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = f.FetchNextPage(ctx)
	}()

	<-src.started
	assert.True(t, f.Status().IsFetching)
	close(src.release)
	<-done

	st = f.Status()
	assert.False(t, st.IsFetching)
	assert.Equal(t, 40, st.Fetched)
	rows := f.CurrentRows()
	require.Len(t, rows, 40)
	assert.Equal(t, "city-0", rows[0].Name)
	assert.Equal(t, "city-39", rows[39].Name)

	calls := src.calls()
	require.Len(t, calls, 2)
	assert.Equal(t, places.Query{Limit: 20, Offset: 20}, calls[1])
}

func TestSingleFlight(t *testing.T) {
	src := &fakeSource{total: 5000}
	src.gate()
	f := newTestFeed(src)
	ctx := context.Background()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = f.FetchNextPage(ctx)
	}()
	<-src.started

	for range 5 {
		ok, err := f.FetchNextPage(ctx)
		assert.NoError(t, err)
		assert.False(t, ok)
	}

	close(src.release)
	<-done
	assert.Len(t, src.calls(), 1)
	assert.Len(t, f.CurrentRows(), 20)
}

func TestSetFilterSortIdempotent(t *testing.T) {
	src := &fakeSource{total: 5000}
	f := newTestFeed(src)
	ctx := context.Background()

	_, err := f.FetchNextPage(ctx)
	require.NoError(t, err)

	params := FilterSortParams{Sort: SortKey{Column: "name", Desc: true}}
	assert.True(t, f.SetFilterSort(params))
	assert.Empty(t, f.CurrentRows())

	_, err = f.FetchNextPage(ctx)
	require.NoError(t, err)
	assert.Len(t, f.CurrentRows(), 20)

	assert.False(t, f.SetFilterSort(params))
	assert.Len(t, f.CurrentRows(), 20, "identical params must not reset")
}

func TestGlobalFilterReplacesRows(t *testing.T) {
	src := &fakeSource{total: 5000}
	f := newTestFeed(src)
	ctx := context.Background()

	for range 2 {
		_, err := f.FetchNextPage(ctx)
		require.NoError(t, err)
	}
	require.Len(t, f.CurrentRows(), 40)

	require.True(t, f.SetFilterSort(FilterSortParams{GlobalFilter: "paris", Sort: SortKey{Column: "name"}}))
	assert.Empty(t, f.CurrentRows())
	assert.True(t, f.Status().IsLoading)

	src.mu.Lock()
	src.total = 12
	src.mu.Unlock()

	ok, err := f.FetchNextPage(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	calls := src.calls()
	last := calls[len(calls)-1]
	assert.Equal(t, `"paris"`, last.Where)
	assert.Zero(t, last.Limit)
	assert.Zero(t, last.Offset)
	assert.Empty(t, last.OrderBy)

	values := last.Values()
	assert.Equal(t, `"paris"`, values.Get("where"))
	assert.False(t, values.Has("offset"))
	assert.False(t, values.Has("order_by"))

	assert.Len(t, f.CurrentRows(), 10)
	assert.Equal(t, 12, f.Status().TotalCount)
}

func TestNeverExceedsTotal(t *testing.T) {
	src := &fakeSource{total: 45}
	f := newTestFeed(src)
	ctx := context.Background()

	for range 10 {
		_, err := f.FetchNextPage(ctx)
		require.NoError(t, err)

		st := f.Status()
		assert.LessOrEqual(t, st.Fetched, st.TotalCount)
		assert.Len(t, f.CurrentRows(), st.Fetched)
	}

	assert.Equal(t, 45, f.Status().Fetched)
	assert.False(t, f.Status().HasMore())
	assert.Len(t, src.calls(), 3, "no request once every row is held")
}

func TestFetchErrorAndManualRetry(t *testing.T) {
	src := &fakeSource{total: 5000}
	f := newTestFeed(src)
	ctx := context.Background()

	_, err := f.FetchNextPage(ctx)
	require.NoError(t, err)

	boom := errors.New("network down")
	src.setErr(boom)

	ok, err := f.FetchNextPage(ctx)
	assert.False(t, ok)
	assert.ErrorIs(t, err, boom)

	st := f.Status()
	assert.True(t, st.IsError)
	assert.ErrorIs(t, st.Err, boom)
	assert.False(t, st.IsFetching)
	assert.Len(t, f.CurrentRows(), 20, "previous rows stay visible")

	src.setErr(nil)
	ok, err = f.FetchNextPage(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.False(t, f.Status().IsError)
	assert.Len(t, f.CurrentRows(), 40)
}

func TestResetClearsError(t *testing.T) {
	src := &fakeSource{total: 5000, err: errors.New("boom")}
	f := newTestFeed(src)

	_, err := f.FetchNextPage(context.Background())
	require.Error(t, err)
	st := f.Status()
	assert.True(t, st.IsError)
	assert.False(t, st.IsLoading)

	f.SetFilterSort(FilterSortParams{GlobalFilter: "lyon"})
	assert.False(t, f.Status().IsError)
}

func TestStaleResponseDiscarded(t *testing.T) {
	src := &fakeSource{total: 5000}
	src.gate()
	f := newTestFeed(src)
	ctx := context.Background()

	result := make(chan bool, 1)
	go func() {
		ok, _ := f.FetchNextPage(ctx)
		result <- ok
	}()
	<-src.started

	f.SetFilterSort(FilterSortParams{Sort: SortKey{Column: "timezone"}})
	close(src.release)

	assert.False(t, <-result)
	assert.Empty(t, f.CurrentRows())
	assert.Zero(t, f.Status().Pages)
	assert.True(t, f.Status().IsLoading)
}

func TestTotalShrinkIsReported(t *testing.T) {
	src := &fakeSource{total: 100}
	f := newTestFeed(src)
	ctx := context.Background()

	for range 2 {
		_, err := f.FetchNextPage(ctx)
		require.NoError(t, err)
	}

	src.mu.Lock()
	src.total = 30
	src.mu.Unlock()

	_, err := f.FetchNextPage(ctx)
	assert.ErrorIs(t, err, ErrTotalShrank)
	assert.Len(t, f.CurrentRows(), 40)
	assert.True(t, f.Status().IsError)
}

func TestRowsWindow(t *testing.T) {
	src := &fakeSource{total: 5000}
	f := newTestFeed(src)
	ctx := context.Background()

	for range 3 {
		_, err := f.FetchNextPage(ctx)
		require.NoError(t, err)
	}

	rows := f.Rows(15, 45)
	require.Len(t, rows, 30)
	assert.Equal(t, "city-15", rows[0].Name)
	assert.Equal(t, "city-44", rows[29].Name)

	assert.Len(t, f.Rows(50, 100), 10)
	assert.Nil(t, f.Rows(70, 80))
	assert.Len(t, f.Rows(-5, 3), 3)

	row, ok := f.Row(21)
	require.True(t, ok)
	assert.Equal(t, "city-21", row.Name)

	_, ok = f.Row(60)
	assert.False(t, ok)
}
