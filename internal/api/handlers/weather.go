package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/randytsao24/cityweather/internal/detail"
	"github.com/randytsao24/cityweather/internal/location"
	"github.com/randytsao24/cityweather/internal/route"
	"github.com/randytsao24/cityweather/internal/weather"
)

type WeatherHandler struct {
	weather WeatherProvider
	logger  *slog.Logger
}

func NewWeatherHandler(w WeatherProvider, logger *slog.Logger) *WeatherHandler {
	return &WeatherHandler{
		weather: w,
		logger:  logger.With(slog.String("handler", "weather")),
	}
}

// Details renders the weather page for /weather-details/{city}/{lat}/{lon}.
// Each request mounts its own detail view.
func (h *WeatherHandler) Details(w http.ResponseWriter, r *http.Request) {
	view := detail.NewView(h.weather, h.logger)
	snap := view.Show(r.Context(), route.FromRequest(r))

	if snap.State == detail.StateLoading {
		// the client went away mid-fetch
		return
	}
	render(w, r, detailStatus(snap), "weather.html", snap)
}

// Current returns the conditions at ?lat=&lon= as JSON
func (h *WeatherHandler) Current(w http.ResponseWriter, r *http.Request) {
	if !h.weather.HasAPIKey() {
		writeError(w, http.StatusServiceUnavailable, "Weather service unavailable", "OPENWEATHER_API_KEY not configured")
		return
	}

	coords, err := location.ParseCoordinates(r.URL.Query().Get("lat"), r.URL.Query().Get("lon"))
	if err != nil {
		writeError(w, http.StatusBadRequest, detail.InvalidLocationMessage, err.Error())
		return
	}

	snap, err := h.weather.Current(r.Context(), coords)
	if err != nil {
		writeError(w, http.StatusBadGateway, detail.ErrorMessage, "")
		return
	}

	body := map[string]any{
		"success":     true,
		"coordinates": coords,
		"weather":     snap,
	}
	if c, ok := weather.CategoryFor(snap.ConditionID); ok {
		body["category"] = c
	}
	writeJSON(w, http.StatusOK, body)
}

func detailStatus(snap detail.Snapshot) int {
	if snap.State != detail.StateError {
		return http.StatusOK
	}
	switch {
	case errors.Is(snap.Err, location.ErrMissingCoordinate), errors.Is(snap.Err, location.ErrInvalidCoordinate):
		return http.StatusBadRequest
	case errors.Is(snap.Err, weather.ErrNoCredential):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}
