package handlers

import (
	"net/http"
)

type RootHandler struct{}

func NewRootHandler() *RootHandler {
	return &RootHandler{}
}

func (h *RootHandler) Index(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":        "cityweather",
		"description": "Browse world cities and check the weather where they are",
		"version":     version,
		"endpoints": map[string]string{
			"GET /":                                   "City table",
			"GET /weather-details/{city}/{lat}/{lon}": "Weather page for a city",
			"GET /api/table":                          "Apply q, sort, dir and return the visible rows",
			"POST /api/table/scroll":                  "Report scroll position, fetch more near the bottom",
			"POST /api/table/activate":                "Resolve a row click",
			"GET /api/cities":                         "One page of cities (q, sort, dir, page)",
			"GET /api/weather":                        "Current weather (lat, lon)",
			"GET /health":                             "Health check",
			"GET /ready":                              "Feature readiness",
		},
	})
}

func (h *RootHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, map[string]any{
		"error":   "Route not found",
		"message": "Check /api for available routes",
	})
}
