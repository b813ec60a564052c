package table

import "github.com/randytsao24/cityweather/internal/models"

// Column is one displayed table column
type Column struct {
	Key    string `json:"key"`
	Header string `json:"header"`
}

// Columns is the table layout, keyed by records field name
var Columns = []Column{
	{Key: "name", Header: "City Name"},
	{Key: "cou_name_en", Header: "Country"},
	{Key: "timezone", Header: "Timezone"},
	{Key: "country_code", Header: "Country Code"},
}

// sortable also admits population, which is not displayed but is the
// usual way to find large cities.
var sortable = map[string]bool{
	"name":         true,
	"cou_name_en":  true,
	"timezone":     true,
	"country_code": true,
	"population":   true,
}

// IsSortable reports whether the records API may be ordered by key
func IsSortable(key string) bool {
	return sortable[key]
}

// Cells returns the displayed values of a record in column order
func Cells(r models.CityRecord) []string {
	return []string{r.Name, r.CountryName, r.Timezone, r.CountryCode}
}
