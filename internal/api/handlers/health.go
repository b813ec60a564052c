// Package handlers contains HTTP request handlers
package handlers

import (
	"net/http"
	"time"
)

const version = "1.0.0"

type HealthHandler struct {
	startTime time.Time
	weather   WeatherProvider
	views     ViewProvider
}

func NewHealthHandler(weather WeatherProvider, views ViewProvider) *HealthHandler {
	return &HealthHandler{startTime: time.Now(), weather: weather, views: views}
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "OK",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   version,
		"uptime":    time.Since(h.startTime).String(),
	})
}

// Ready reports which upstream features are usable. The table works without
// a weather credential, so readiness never fails on it.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":       "ready",
		"active_views": h.views.Active(),
		"features": map[string]bool{
			"cities":  true,
			"weather": h.weather.HasAPIKey(),
		},
	})
}
