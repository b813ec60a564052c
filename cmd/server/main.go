// Package main is the entry point for the cityweather server.
package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/randytsao24/cityweather/internal/api"
	"github.com/randytsao24/cityweather/internal/config"
	"github.com/randytsao24/cityweather/internal/feed"
	"github.com/randytsao24/cityweather/internal/metrics"
	"github.com/randytsao24/cityweather/internal/places"
	"github.com/randytsao24/cityweather/internal/session"
	"github.com/randytsao24/cityweather/internal/table"
	"github.com/randytsao24/cityweather/internal/weather"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.Load()

	if err := cfg.Validate(); err != nil {
		log.Fatal("Configuration error: ", err)
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("server stopped")
}

func run(cfg *config.Config, logger *slog.Logger) error {
	m := metrics.New(prometheus.DefaultRegisterer)

	placesClient := places.NewClient(cfg.PlacesBaseURL, cfg.HTTPTimeout, cfg.PlacesCacheTTL, m, logger)
	weatherClient := weather.NewClient(cfg.WeatherBaseURL, cfg.WeatherAPIKey, cfg.HTTPTimeout, m, logger)
	if !cfg.HasWeatherKey() {
		logger.Warn("OPENWEATHER_API_KEY not set, weather pages will be unavailable")
	}

	newView := func() *table.View {
		return table.NewView(
			feed.New(placesClient, cfg.PageSize, m, logger),
			table.NewViewport(table.DefaultRowHeight, table.DefaultHeight, table.DefaultOverscan),
			logger,
		)
	}
	views := session.NewManager([]byte(cfg.SessionSecret), !cfg.IsDevelopment(), cfg.ViewIdleTTL, newView, m, logger)
	defer views.Close()

	limiters := api.NewRateLimiters(cfg, views)
	if limiters != nil {
		defer limiters.Close()
	}

	router := api.NewRouter(api.Dependencies{
		Config:   cfg,
		Logger:   logger,
		Places:   placesClient,
		Weather:  weatherClient,
		Views:    views,
		Limiters: limiters,
		Gatherer: prometheus.DefaultGatherer,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 20 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("cityweather server starting",
			slog.String("port", cfg.Port),
			slog.String("env", cfg.Env),
			slog.String("url", "http://localhost:"+cfg.Port),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func newLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	if cfg.IsDevelopment() {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}
