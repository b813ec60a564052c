package route

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randytsao24/cityweather/internal/location"
	"github.com/randytsao24/cityweather/internal/models"
)

func TestWeatherDetailsPath(t *testing.T) {
	assert.Equal(t, "/weather-details/Paris/48.85/2.35",
		WeatherDetails("Paris", models.Coordinates{Lat: 48.85, Lon: 2.35}))
	assert.Equal(t, "/weather-details/S%C3%A3o%20Paulo/-23.5475/-46.63611",
		WeatherDetails("São Paulo", models.Coordinates{Lat: -23.5475, Lon: -46.63611}))
	assert.Equal(t, "/weather-details/a%2Fb/1/2",
		WeatherDetails("a/b", models.Coordinates{Lat: 1, Lon: 2}))
}

func TestFromRequestRoundTrip(t *testing.T) {
	var got Params
	mux := http.NewServeMux()
	mux.HandleFunc(WeatherDetailsPattern, func(w http.ResponseWriter, r *http.Request) {
		got = FromRequest(r)
	})

	path := WeatherDetails("São Paulo", models.Coordinates{Lat: -23.5475, Lon: -46.63611})
	mux.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))

	assert.Equal(t, Params{City: "São Paulo", Lat: "-23.5475", Lon: "-46.63611"}, got)

	c, err := got.Coordinates()
	require.NoError(t, err)
	assert.Equal(t, -23.5475, c.Lat)
}

func TestParamsCoordinatesMalformed(t *testing.T) {
	_, err := Params{City: "Nowhere", Lat: "north", Lon: "2"}.Coordinates()
	assert.ErrorIs(t, err, location.ErrInvalidCoordinate)

	_, err = Params{City: "Nowhere"}.Coordinates()
	assert.ErrorIs(t, err, location.ErrMissingCoordinate)
}
