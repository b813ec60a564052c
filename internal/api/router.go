package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/randytsao24/cityweather/internal/api/handlers"
	"github.com/randytsao24/cityweather/internal/config"
	"github.com/randytsao24/cityweather/internal/route"
)

const (
	requestTimeout = 15 * time.Second
	limiterIdle    = time.Minute
)

// Dependencies are what the router hands to its handlers
type Dependencies struct {
	Config  *config.Config
	Logger  *slog.Logger
	Places  handlers.PlacesProvider
	Weather handlers.WeatherProvider
	Views   handlers.ViewProvider
	// Limiters budgets the API routes per client; nil disables limiting
	Limiters *ClientLimiters
	// Gatherer backs /metrics; nil leaves the route out
	Gatherer prometheus.Gatherer
}

// NewRouter creates and configures the HTTP router with all routes and middleware
func NewRouter(deps Dependencies) http.Handler {
	mux := http.NewServeMux()
	cfg := deps.Config

	tableHandler := handlers.NewTableHandler(deps.Views, deps.Places, cfg.PageSize, deps.Logger)
	weatherHandler := handlers.NewWeatherHandler(deps.Weather, deps.Logger)
	rootHandler := handlers.NewRootHandler()

	limit := RateLimit(deps.Limiters)

	// Screens
	mux.HandleFunc("GET "+route.Home+"{$}", tableHandler.Page)
	mux.HandleFunc(route.WeatherDetailsPattern, weatherHandler.Details)

	// Table view API. Scroll reports go unbudgeted; the feed keeps at most
	// one page in flight per view.
	mux.Handle("GET /api/table", limit(http.HandlerFunc(tableHandler.State)))
	mux.HandleFunc("POST /api/table/scroll", tableHandler.Scroll)
	mux.Handle("POST /api/table/activate", limit(http.HandlerFunc(tableHandler.Activate)))

	// Stateless gateway routes
	mux.Handle("GET /api/cities", limit(http.HandlerFunc(tableHandler.Cities)))
	mux.Handle("GET /api/weather", limit(http.HandlerFunc(weatherHandler.Current)))

	mux.HandleFunc("GET /api", rootHandler.Index)
	mux.HandleFunc("/", rootHandler.NotFound)

	registerUtilityRoutes(mux, deps)

	// Apply middleware stack
	handler := Chain(mux,
		RequestID,
		Recovery(deps.Logger),
		Logging(deps.Logger),
		CORS(cfg.AllowedOrigins),
		Timeout(requestTimeout),
	)

	return handler
}

// NewRateLimiters builds the per-client limiters configured in cfg. A
// request is budgeted by its session when it carries a valid one and by its
// IP otherwise. Returns nil when rate limiting is off.
func NewRateLimiters(cfg *config.Config, views handlers.ViewProvider) *ClientLimiters {
	if cfg.RateLimitPerSecond <= 0 || cfg.RateLimitBurst <= 0 {
		return nil
	}
	return NewClientLimiters(float64(cfg.RateLimitPerSecond), cfg.RateLimitBurst, limiterIdle, func(r *http.Request) string {
		if id, ok := views.SessionID(r); ok {
			return "session:" + id
		}
		return "ip:" + ClientIP(r)
	})
}

func registerUtilityRoutes(mux *http.ServeMux, deps Dependencies) {
	healthHandler := handlers.NewHealthHandler(deps.Weather, deps.Views)

	mux.HandleFunc("GET /health", healthHandler.Health)
	mux.HandleFunc("GET /ready", healthHandler.Ready)

	if deps.Config.MetricsEnabled && deps.Gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
		deps.Logger.Info("registered metrics endpoint", slog.String("path", "/metrics"))
	}
}
