package weather

// Category is the display background chosen from a condition code
type Category string

const (
	Thunderstorm Category = "thunderstorm"
	Drizzle      Category = "drizzle"
	Rain         Category = "rain"
	Snow         Category = "snow"
	Fog          Category = "fog"
	Clear        Category = "clear"
	Clouds       Category = "clouds"
)

// CategoryFor maps a condition code onto its background category. Codes
// outside [200,900), and the unassigned 400-499 block, have none.
func CategoryFor(code int) (Category, bool) {
	switch {
	case code >= 200 && code < 300:
		return Thunderstorm, true
	case code >= 300 && code < 400:
		return Drizzle, true
	case code >= 500 && code < 600:
		return Rain, true
	case code >= 600 && code < 700:
		return Snow, true
	case code >= 700 && code < 800:
		return Fog, true
	case code == 800:
		return Clear, true
	case code > 800 && code < 900:
		return Clouds, true
	}
	return "", false
}
