// Package session maps browser sessions to mounted table views. A view, and
// with it its feed state, lives until the browser stops talking to it for
// the idle timeout.
package session

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"

	"github.com/randytsao24/cityweather/internal/cache"
	"github.com/randytsao24/cityweather/internal/metrics"
	"github.com/randytsao24/cityweather/internal/table"
)

const (
	cookieName = "cityweather"
	viewIDKey  = "view_id"
)

// Manager hands each browser session its own table view
type Manager struct {
	store   *sessions.CookieStore
	views   *cache.Cache[*table.View]
	newView func() *table.View
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewManager creates a manager. newView builds a fresh view for a session
// that has none; views idle for longer than idle are unmounted.
func NewManager(secret []byte, secure bool, idle time.Duration, newView func() *table.View, m *metrics.Metrics, logger *slog.Logger) *Manager {
	store := sessions.NewCookieStore(secret)
	store.Options = &sessions.Options{
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}

	mgr := &Manager{
		store:   store,
		newView: newView,
		metrics: m,
		logger:  logger.With(slog.String("component", "session")),
	}
	mgr.views = cache.New(idle, mgr.unmount)
	return mgr
}

// View returns the table view bound to the request's session, creating the
// session cookie and the view when needed. It must run before the response
// body is written.
func (m *Manager) View(w http.ResponseWriter, r *http.Request) (*table.View, error) {
	// a cookie signed with an old secret decodes to a fresh session
	sess, _ := m.store.Get(r, cookieName)

	id, _ := sess.Values[viewIDKey].(string)
	if id == "" {
		id = uuid.NewString()
		sess.Values[viewIDKey] = id
		if err := sess.Save(r, w); err != nil {
			return nil, err
		}
	}

	view, created := m.views.GetOrCreate(id, m.newView)
	if created {
		m.metrics.ViewMounted()
		m.logger.DebugContext(r.Context(), "table view mounted", slog.String("view_id", id))
	}
	return view, nil
}

// SessionID returns the view id carried by a valid session cookie. It
// never creates a session.
func (m *Manager) SessionID(r *http.Request) (string, bool) {
	sess, err := m.store.New(r, cookieName)
	if err != nil || sess.IsNew {
		return "", false
	}
	id, _ := sess.Values[viewIDKey].(string)
	return id, id != ""
}

// Active returns the number of mounted views
func (m *Manager) Active() int {
	return m.views.Size()
}

// Close unmounts every view
func (m *Manager) Close() {
	m.views.Close()
}

func (m *Manager) unmount(id string, _ *table.View) {
	m.metrics.ViewUnmounted()
	m.logger.Debug("table view unmounted", slog.String("view_id", id))
}
