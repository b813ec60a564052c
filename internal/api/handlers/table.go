package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/randytsao24/cityweather/internal/feed"
	"github.com/randytsao24/cityweather/internal/table"
)

const (
	dirAsc  = "asc"
	dirDesc = "desc"

	// LoadErrorMessage is the banner shown over the table after a failed page
	LoadErrorMessage = "Error loading data"

	maxPageIndex = 10000
)

type TableHandler struct {
	views    ViewProvider
	places   PlacesProvider
	pageSize int
	logger   *slog.Logger
}

func NewTableHandler(views ViewProvider, places PlacesProvider, pageSize int, logger *slog.Logger) *TableHandler {
	return &TableHandler{
		views:    views,
		places:   places,
		pageSize: pageSize,
		logger:   logger.With(slog.String("handler", "table")),
	}
}

type tablePage struct {
	Columns   []table.Column
	Window    table.Window
	RowHeight float64
	Height    float64
	Query     string
	Sort      string
	Dir       string
	Banner    string
}

// Page renders the city table for the caller's session
func (h *TableHandler) Page(w http.ResponseWriter, r *http.Request) {
	params, err := parseFilterSort(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	view, ok := h.view(w, r)
	if !ok {
		return
	}
	win := h.apply(r, view, params)

	page := tablePage{
		Columns:   table.Columns,
		Window:    win,
		RowHeight: table.DefaultRowHeight,
		Height:    table.DefaultHeight,
		Query:     params.GlobalFilter,
		Sort:      params.Sort.Column,
	}
	if page.Sort != "" {
		page.Dir = dirAsc
		if params.Sort.Desc {
			page.Dir = dirDesc
		}
	}
	if win.Status.IsError {
		page.Banner = LoadErrorMessage
	}
	render(w, r, http.StatusOK, "table.html", page)
}

// State applies the filter and sort in the query string and returns the
// visible window
func (h *TableHandler) State(w http.ResponseWriter, r *http.Request) {
	params, err := parseFilterSort(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid filter or sort", err.Error())
		return
	}

	view, ok := h.view(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.apply(r, view, params))
}

// Scroll reports the browser's scroll geometry and fetches the next page
// when the viewport nears the bottom
func (h *TableHandler) Scroll(w http.ResponseWriter, r *http.Request) {
	var m table.ScrollMetrics
	if err := decodeJSON(r, &m); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid scroll metrics", err.Error())
		return
	}
	if m.ScrollHeight < 0 || m.ClientHeight < 0 || m.ScrollTop < 0 {
		writeError(w, http.StatusBadRequest, "Invalid scroll metrics", "values must not be negative")
		return
	}

	view, ok := h.view(w, r)
	if !ok {
		return
	}

	appended, err := view.OnScroll(r.Context(), m)
	if err != nil {
		// the feed carries the error flag; the banner comes from the window
		h.logger.WarnContext(r.Context(), "scroll fetch failed", slog.Any("error", err))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"appended": appended,
		"window":   view.Window(),
	})
}

type activateRequest struct {
	Index  int          `json:"index"`
	Button table.Button `json:"button"`
	Ctrl   bool         `json:"ctrl"`
	Meta   bool         `json:"meta"`
}

// Activate resolves a row click into navigate or open
func (h *TableHandler) Activate(w http.ResponseWriter, r *http.Request) {
	var req activateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid activation", err.Error())
		return
	}
	switch req.Button {
	case "":
		req.Button = table.Primary
	case table.Primary, table.Secondary:
	default:
		writeError(w, http.StatusBadRequest, "Invalid activation", fmt.Sprintf("unknown button %q", req.Button))
		return
	}

	view, ok := h.view(w, r)
	if !ok {
		return
	}

	nav := headerNavigator{header: w.Header()}
	act, err := view.Activate(nav, req.Index, table.Click{Button: req.Button, Ctrl: req.Ctrl, Meta: req.Meta})
	if errors.Is(err, table.ErrNoSuchRow) {
		writeError(w, http.StatusNotFound, "Row not loaded", fmt.Sprintf("row %d has not been fetched", req.Index))
		return
	}

	h.logger.DebugContext(r.Context(), "row activated",
		slog.Int("index", req.Index),
		slog.String("action", string(act.Action)),
		slog.String("path", act.Path),
	)
	writeJSON(w, http.StatusOK, act)
}

// Cities runs one stateless records query
func (h *TableHandler) Cities(w http.ResponseWriter, r *http.Request) {
	params, err := parseFilterSort(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid filter or sort", err.Error())
		return
	}
	page := parseIntParam(r, "page", 0, 0, maxPageIndex)

	result, err := h.places.Records(r.Context(), feed.BuildQuery(params, page, h.pageSize))
	if err != nil {
		h.logger.ErrorContext(r.Context(), "records query failed", slog.Any("error", err))
		writeError(w, http.StatusBadGateway, "Places service unavailable", LoadErrorMessage)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"page":        page,
		"page_size":   h.pageSize,
		"total_count": result.TotalCount,
		"results":     result.Results,
	})
}

func (h *TableHandler) view(w http.ResponseWriter, r *http.Request) (*table.View, bool) {
	view, err := h.views.View(w, r)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "session view unavailable", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "Session unavailable", "")
		return nil, false
	}
	return view, true
}

// apply sets the shape and makes sure its first page has been requested
func (h *TableHandler) apply(r *http.Request, view *table.View, params feed.FilterSortParams) table.Window {
	if view.SetFilterSort(params) {
		h.logger.DebugContext(r.Context(), "filter or sort changed",
			slog.String("q", params.GlobalFilter),
			slog.String("sort", params.Sort.Column),
		)
	}
	if err := view.Load(r.Context()); err != nil {
		h.logger.WarnContext(r.Context(), "first page failed", slog.Any("error", err))
	}
	return view.Window()
}

// headerNavigator tells the browser where a row leads through response
// headers, next to the JSON body
type headerNavigator struct {
	header http.Header
}

func (n headerNavigator) Navigate(path string) {
	n.header.Set("X-Navigate", path)
}

func (n headerNavigator) Open(path string) {
	n.header.Set("X-Open", path)
}

// parseFilterSort reads q, sort, dir and repeated filter=column:value
func parseFilterSort(r *http.Request) (feed.FilterSortParams, error) {
	query := r.URL.Query()
	params := feed.FilterSortParams{
		GlobalFilter: strings.TrimSpace(query.Get("q")),
	}

	if sort := query.Get("sort"); sort != "" {
		if !table.IsSortable(sort) {
			return feed.FilterSortParams{}, fmt.Errorf("cannot sort by %q", sort)
		}
		params.Sort.Column = sort
		switch strings.ToLower(query.Get("dir")) {
		case "", dirAsc:
		case dirDesc:
			params.Sort.Desc = true
		default:
			return feed.FilterSortParams{}, fmt.Errorf("unknown sort direction %q", query.Get("dir"))
		}
	}

	for _, f := range query["filter"] {
		column, value, ok := strings.Cut(f, ":")
		if !ok || !table.IsSortable(column) {
			return feed.FilterSortParams{}, fmt.Errorf("invalid column filter %q", f)
		}
		params.ColumnFilters = append(params.ColumnFilters, feed.ColumnFilter{Column: column, Value: value})
	}

	return params, nil
}
