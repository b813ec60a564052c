// Package detail is the weather detail view: one fetch per coordinate pair,
// then either a weather card or an error message.
package detail

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/randytsao24/cityweather/internal/models"
	"github.com/randytsao24/cityweather/internal/route"
	"github.com/randytsao24/cityweather/internal/weather"
)

// State of the detail view
type State string

const (
	StateLoading State = "loading"
	StateLoaded  State = "loaded"
	StateError   State = "error"
)

const (
	// ErrorMessage is shown for any failed weather fetch
	ErrorMessage = "Error fetching weather data"
	// InvalidLocationMessage is shown when the route coordinates are unusable
	InvalidLocationMessage = "Invalid location coordinates"
)

// Source fetches current weather
type Source interface {
	Current(ctx context.Context, c models.Coordinates) (models.WeatherSnapshot, error)
}

// Snapshot is the renderable state of the view
type Snapshot struct {
	State      State                   `json:"state"`
	Params     route.Params            `json:"params"`
	Weather    *models.WeatherSnapshot `json:"weather,omitempty"`
	Background weather.Category        `json:"background,omitempty"`
	Message    string                  `json:"message,omitempty"`
	Err        error                   `json:"-"`
}

// View holds the weather for one mounted detail page
type View struct {
	source Source
	logger *slog.Logger

	mu         sync.Mutex
	generation uint64
	params     route.Params
	shown      bool
	state      State
	weather    *models.WeatherSnapshot
	err        error
	message    string
}

// NewView creates a view in the Loading state
func NewView(source Source, logger *slog.Logger) *View {
	return &View{
		source: source,
		logger: logger.With(slog.String("component", "detail")),
		state:  StateLoading,
	}
}

// Show enters the view with p. New coordinates move it to Loading and issue
// exactly one request; the same coordinates again keep the current result.
// When Show is called again before a request returns, the older response is
// dropped.
func (v *View) Show(ctx context.Context, p route.Params) Snapshot {
	v.mu.Lock()
	if v.shown && sameCoordinates(v.params, p) {
		v.params.City = p.City
		snap := v.snapshotLocked()
		v.mu.Unlock()
		return snap
	}
	v.shown = true
	v.generation++
	generation := v.generation
	v.params = p
	v.state = StateLoading
	v.weather = nil
	v.err = nil
	v.message = ""
	v.mu.Unlock()

	coords, err := p.Coordinates()
	if err != nil {
		v.logger.WarnContext(ctx, "unusable route coordinates",
			slog.String("lat", p.Lat), slog.String("lon", p.Lon), slog.Any("error", err))
		return v.finish(generation, nil, err, InvalidLocationMessage)
	}

	snap, err := v.source.Current(ctx, coords)
	if err != nil {
		if errors.Is(err, context.Canceled) && ctx.Err() != nil {
			// nobody is waiting; let the next Show fetch again
			v.mu.Lock()
			defer v.mu.Unlock()
			if generation == v.generation {
				v.shown = false
			}
			return v.snapshotLocked()
		}
		return v.finish(generation, nil, err, ErrorMessage)
	}
	return v.finish(generation, &snap, nil, "")
}

func (v *View) finish(generation uint64, w *models.WeatherSnapshot, err error, message string) Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()

	if generation != v.generation {
		v.logger.Debug("discarding weather for superseded coordinates")
		return v.snapshotLocked()
	}

	if err != nil {
		v.state = StateError
		v.err = err
		v.message = message
	} else {
		v.state = StateLoaded
		v.weather = w
	}
	return v.snapshotLocked()
}

// Snapshot returns the current state without fetching
func (v *View) Snapshot() Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.snapshotLocked()
}

func (v *View) snapshotLocked() Snapshot {
	snap := Snapshot{
		State:   v.state,
		Params:  v.params,
		Message: v.message,
		Err:     v.err,
	}
	if v.weather != nil {
		w := *v.weather
		snap.Weather = &w
		if c, ok := weather.CategoryFor(w.ConditionID); ok {
			snap.Background = c
		}
	}
	return snap
}

func sameCoordinates(a, b route.Params) bool {
	return a.Lat == b.Lat && a.Lon == b.Lon
}
