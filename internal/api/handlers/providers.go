package handlers

import (
	"context"
	"net/http"

	"github.com/randytsao24/cityweather/internal/models"
	"github.com/randytsao24/cityweather/internal/places"
	"github.com/randytsao24/cityweather/internal/table"
)

// PlacesProvider abstracts the city records source for testability.
type PlacesProvider interface {
	Records(ctx context.Context, q places.Query) (models.Page, error)
}

// WeatherProvider abstracts the current conditions source for testability.
type WeatherProvider interface {
	HasAPIKey() bool
	Current(ctx context.Context, c models.Coordinates) (models.WeatherSnapshot, error)
}

// ViewProvider hands out the table view mounted for the caller's session.
type ViewProvider interface {
	View(w http.ResponseWriter, r *http.Request) (*table.View, error)
	SessionID(r *http.Request) (string, bool)
	Active() int
}
