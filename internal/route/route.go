// Package route defines the two navigation targets and the parameters the
// weather page is addressed by.
package route

import (
	"net/http"
	"net/url"

	"github.com/randytsao24/cityweather/internal/location"
	"github.com/randytsao24/cityweather/internal/models"
)

const (
	// Home is the city table
	Home = "/"
	// WeatherDetailsPattern is the ServeMux pattern of the weather page
	WeatherDetailsPattern = "GET /weather-details/{city}/{lat}/{lon}"

	weatherDetailsPrefix = "/weather-details/"
)

// Params are the raw path values of a weather page. Nothing is validated
// here; the detail view decides what malformed values mean.
type Params struct {
	City string `json:"city"`
	Lat  string `json:"lat"`
	Lon  string `json:"lon"`
}

// WeatherDetails builds the weather page path for a city
func WeatherDetails(city string, c models.Coordinates) string {
	return Params{
		City: city,
		Lat:  location.FormatDegrees(c.Lat),
		Lon:  location.FormatDegrees(c.Lon),
	}.Path()
}

// Path renders the params as an escaped weather page path
func (p Params) Path() string {
	return weatherDetailsPrefix +
		url.PathEscape(p.City) + "/" +
		url.PathEscape(p.Lat) + "/" +
		url.PathEscape(p.Lon)
}

// Coordinates parses the latitude and longitude values
func (p Params) Coordinates() (models.Coordinates, error) {
	return location.ParseCoordinates(p.Lat, p.Lon)
}

// FromRequest reads the params of a request routed by WeatherDetailsPattern
func FromRequest(r *http.Request) Params {
	return Params{
		City: r.PathValue("city"),
		Lat:  r.PathValue("lat"),
		Lon:  r.PathValue("lon"),
	}
}
