package handlers

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/randytsao24/cityweather/internal/feed"
	"github.com/randytsao24/cityweather/internal/route"
	"github.com/randytsao24/cityweather/internal/table"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = template.Must(template.New("pages").Funcs(template.FuncMap{
	"cells":      table.Cells,
	"columnKeys": columnKeys,
	"inc":        func(i int) int { return i + 1 },
	"rowTop":     func(i int, rowHeight float64) float64 { return float64(i) * rowHeight },
	"sortLink":   sortLink,
	"statusText": statusText,
}).ParseFS(templateFS, "templates/*.html"))

// render executes a page into a buffer first so a template error still
// produces a clean 500
func render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	var buf bytes.Buffer
	if err := pages.ExecuteTemplate(&buf, name, data); err != nil {
		slog.ErrorContext(r.Context(), "rendering page", slog.String("page", name), slog.Any("error", err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func columnKeys(cols []table.Column) string {
	keys := make([]string, len(cols))
	for i, c := range cols {
		keys[i] = c.Key
	}
	return strings.Join(keys, ",")
}

// sortLink points a column header at the table sorted by key. Clicking the
// active ascending column flips it to descending.
func sortLink(q, sort, dir, key string) string {
	v := url.Values{}
	if q != "" {
		v.Set("q", q)
	}
	v.Set("sort", key)
	if sort == key && dir != dirDesc {
		v.Set("dir", dirDesc)
	} else {
		v.Set("dir", dirAsc)
	}
	return route.Home + "?" + v.Encode()
}

func statusText(st feed.Status) string {
	switch {
	case st.IsLoading:
		return "Loading..."
	case st.IsFetching:
		return "Fetching more..."
	default:
		return fmt.Sprintf("%d of %d cities", st.Fetched, st.TotalCount)
	}
}
