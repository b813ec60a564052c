package table

import (
	"github.com/randytsao24/cityweather/internal/models"
	"github.com/randytsao24/cityweather/internal/route"
)

// Button identifies which mouse button activated a row
type Button string

const (
	Primary   Button = "primary"
	Secondary Button = "secondary"
)

// Click is a row activation with its modifier state
type Click struct {
	Button Button `json:"button"`
	Ctrl   bool   `json:"ctrl"`
	Meta   bool   `json:"meta"`
}

// OpensInBackground is the platform predicate for "open elsewhere":
// a secondary click, or a primary click with Ctrl (Windows/Linux) or Cmd (macOS).
func (c Click) OpensInBackground() bool {
	return c.Button == Secondary || c.Ctrl || c.Meta
}

// Action names the outcome of a row activation
type Action string

const (
	ActionNavigate Action = "navigate"
	ActionOpen     Action = "open"
)

// Navigator carries out navigation decided by the table
type Navigator interface {
	// Navigate replaces the current view with path
	Navigate(path string)
	// Open shows path in a new, independent view and leaves this one alone
	Open(path string)
}

// Activation is the result of activating a row
type Activation struct {
	Action Action `json:"action"`
	Path   string `json:"path"`
}

// NavigateTo moves the shell to the weather page of row
func NavigateTo(nav Navigator, row models.CityRecord) Activation {
	path := route.WeatherDetails(row.Name, row.Coordinates)
	nav.Navigate(path)
	return Activation{Action: ActionNavigate, Path: path}
}

// OpenInNewView opens the weather page of row without leaving the table
func OpenInNewView(nav Navigator, row models.CityRecord) Activation {
	path := route.WeatherDetails(row.Name, row.Coordinates)
	nav.Open(path)
	return Activation{Action: ActionOpen, Path: path}
}

// Activate picks between NavigateTo and OpenInNewView by the click's modifiers
func Activate(nav Navigator, row models.CityRecord, click Click) Activation {
	if click.OpensInBackground() {
		return OpenInNewView(nav, row)
	}
	return NavigateTo(nav, row)
}
