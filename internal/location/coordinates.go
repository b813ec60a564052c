// Package location parses and formats the coordinate strings carried in routes
package location

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/randytsao24/cityweather/internal/models"
)

var (
	ErrMissingCoordinate = errors.New("coordinate is missing")
	ErrInvalidCoordinate = errors.New("coordinate is invalid")
)

// ParseCoordinates converts decimal-degree strings into a coordinate pair.
// Route values are untrusted, so anything empty, non-numeric or out of range
// is reported rather than passed upstream.
func ParseCoordinates(lat, lon string) (models.Coordinates, error) {
	latVal, err := parseDegrees("lat", lat, 90)
	if err != nil {
		return models.Coordinates{}, err
	}
	lonVal, err := parseDegrees("lon", lon, 180)
	if err != nil {
		return models.Coordinates{}, err
	}
	return models.Coordinates{Lat: latVal, Lon: lonVal}, nil
}

func parseDegrees(name, raw string, limit float64) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "undefined" || raw == "null" {
		return 0, fmt.Errorf("%s: %w", name, ErrMissingCoordinate)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%s %q: %w", name, raw, ErrInvalidCoordinate)
	}
	if v < -limit || v > limit {
		return 0, fmt.Errorf("%s %q out of range: %w", name, raw, ErrInvalidCoordinate)
	}
	return v, nil
}

// FormatDegrees renders a coordinate with the shortest exact representation,
// so 48.85 stays "48.85" in paths and query strings.
func FormatDegrees(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
