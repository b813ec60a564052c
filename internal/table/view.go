// Package table is the city table view: it drives the city feed from
// scroll, filter and sort events, realizes only the visible rows, and turns
// row clicks into navigation.
package table

import (
	"context"
	"errors"
	"log/slog"

	"github.com/randytsao24/cityweather/internal/feed"
	"github.com/randytsao24/cityweather/internal/models"
)

// ErrNoSuchRow is returned when an activated index has not been fetched
var ErrNoSuchRow = errors.New("table: row not loaded")

// Row is a realized row with its absolute position in the feed
type Row struct {
	Index  int               `json:"index"`
	Record models.CityRecord `json:"record"`
}

// Window is what the browser needs to draw the table at its current offset
type Window struct {
	Rows          []Row                 `json:"rows"`
	Start         int                   `json:"start"`
	End           int                   `json:"end"`
	ContentHeight float64               `json:"content_height"`
	ScrollTop     float64               `json:"scroll_top"`
	Params        feed.FilterSortParams `json:"params"`
	Status        feed.Status           `json:"status"`
}

// View owns one feed and one viewport for the lifetime of a mounted table
type View struct {
	feed     *feed.Feed
	viewport *Viewport
	logger   *slog.Logger
}

// NewView mounts a table view over f
func NewView(f *feed.Feed, vp *Viewport, logger *slog.Logger) *View {
	return &View{
		feed:     f,
		viewport: vp,
		logger:   logger.With(slog.String("component", "table")),
	}
}

// Load fetches the first page for the current shape if nothing is held yet.
// Every call after a failed first page is a manual retry.
func (v *View) Load(ctx context.Context) error {
	if v.feed.Status().Pages > 0 {
		return nil
	}
	_, err := v.feed.FetchNextPage(ctx)
	return err
}

// SetFilterSort applies a new shape. When it differs from the active one
// the feed resets and the viewport jumps back to the first row.
func (v *View) SetFilterSort(p feed.FilterSortParams) bool {
	if !v.feed.SetFilterSort(p) {
		return false
	}
	v.viewport.ScrollToTop()
	return true
}

// OnScroll records the reported offset and requests the next page when the
// viewport is within FetchThreshold of the bottom, no fetch is in flight and
// rows remain on the server. It reports whether a page was appended.
func (v *View) OnScroll(ctx context.Context, m ScrollMetrics) (bool, error) {
	v.viewport.ScrollTo(m.ScrollTop)

	if !m.NearBottom() {
		return false, nil
	}
	st := v.feed.Status()
	if st.IsFetching || !st.HasMore() {
		return false, nil
	}

	v.logger.DebugContext(ctx, "near bottom, fetching next page",
		slog.Float64("remaining", m.Remaining()),
		slog.Int("fetched", st.Fetched),
		slog.Int("total", st.TotalCount),
	)
	return v.feed.FetchNextPage(ctx)
}

// Window returns the realized rows at the current offset
func (v *View) Window() Window {
	st := v.feed.Status()
	start, end := v.viewport.Range(st.Fetched)
	records := v.feed.Rows(start, end)

	rows := make([]Row, len(records))
	for i, r := range records {
		rows[i] = Row{Index: start + i, Record: r}
	}

	return Window{
		Rows:          rows,
		Start:         start,
		End:           start + len(rows),
		ContentHeight: v.viewport.ContentHeight(st.Fetched),
		ScrollTop:     v.viewport.ScrollTop(),
		Params:        v.feed.Params(),
		Status:        st,
	}
}

// Activate resolves a click on the row at index
func (v *View) Activate(nav Navigator, index int, click Click) (Activation, error) {
	row, ok := v.feed.Row(index)
	if !ok {
		return Activation{}, ErrNoSuchRow
	}
	return Activate(nav, row, click), nil
}
