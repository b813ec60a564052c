// Package models defines shared data types
package models

// Coordinates is a latitude/longitude pair in decimal degrees
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// CityRecord is one geonames place as returned by the places dataset.
// Records are immutable once received.
type CityRecord struct {
	GeonameID      string      `json:"geoname_id"`
	Name           string      `json:"name"`
	ASCIIName      string      `json:"ascii_name"`
	AlternateNames []string    `json:"alternate_names,omitempty"`
	FeatureClass   string      `json:"feature_class,omitempty"`
	FeatureCode    string      `json:"feature_code,omitempty"`
	CountryCode    string      `json:"country_code"`
	CountryName    string      `json:"cou_name_en"`
	CountryCode2   *string     `json:"country_code_2,omitempty"`
	Admin1Code     string      `json:"admin1_code,omitempty"`
	Admin2Code     *string     `json:"admin2_code,omitempty"`
	Admin3Code     *string     `json:"admin3_code,omitempty"`
	Admin4Code     *string     `json:"admin4_code,omitempty"`
	Population     int64       `json:"population"`
	Elevation      *int        `json:"elevation,omitempty"`
	DEM            int         `json:"dem"`
	Timezone       string      `json:"timezone"`
	LabelEN        string      `json:"label_en,omitempty"`
	Coordinates    Coordinates `json:"coordinates"`
}

// Page is one batch of city records plus the dataset-wide match count
type Page struct {
	TotalCount int          `json:"total_count"`
	Results    []CityRecord `json:"results"`
}

// WeatherSnapshot is the current conditions at one coordinate pair
type WeatherSnapshot struct {
	Place       string  `json:"name"`
	Temperature float64 `json:"temperature_c"`
	Humidity    int     `json:"humidity_pct"`
	Pressure    int     `json:"pressure_hpa"`
	WindSpeed   float64 `json:"wind_speed_ms"`
	ConditionID int     `json:"condition_code"`
	Description string  `json:"description"`
	Icon        string  `json:"icon,omitempty"`
}
