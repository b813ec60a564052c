// Package config handles application configuration from environment variables.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultPlacesURL  = "https://public.opendatasoft.com/api/explore/v2.1/catalog/datasets/geonames-all-cities-with-a-population-1000/records"
	defaultWeatherURL = "https://api.openweathermap.org/data/2.5/weather"
)

// Config holds all application configuration.
type Config struct {
	Port     string
	Env      string
	LogLevel slog.Level

	PlacesBaseURL  string
	WeatherBaseURL string
	WeatherAPIKey  string

	PageSize       int
	HTTPTimeout    time.Duration
	PlacesCacheTTL time.Duration
	ViewIdleTTL    time.Duration

	SessionSecret string

	RateLimitPerSecond int
	RateLimitBurst     int
	MetricsEnabled     bool
	AllowedOrigins     []string
}

// Load reads configuration from environment variables with sensible defaults.
// A .env file in the working directory is applied first when present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:               getEnv("PORT", "3000"),
		Env:                getEnv("ENV", "development"),
		LogLevel:           getLevelEnv("LOG_LEVEL", slog.LevelInfo),
		PlacesBaseURL:      getEnv("PLACES_BASE_URL", defaultPlacesURL),
		WeatherBaseURL:     getEnv("WEATHER_BASE_URL", defaultWeatherURL),
		WeatherAPIKey:      getEnv("OPENWEATHER_API_KEY", ""),
		PageSize:           getIntEnv("PAGE_SIZE", 20),
		HTTPTimeout:        getDurationEnv("HTTP_TIMEOUT_SECONDS", 10) * time.Second,
		PlacesCacheTTL:     getDurationEnv("PLACES_CACHE_TTL_SECONDS", 60) * time.Second,
		ViewIdleTTL:        getDurationEnv("VIEW_IDLE_TIMEOUT_SECONDS", 1800) * time.Second,
		SessionSecret:      getEnv("SESSION_SECRET", ""),
		RateLimitPerSecond: getIntEnv("RATE_LIMIT_PER_SECOND", 20),
		RateLimitBurst:     getIntEnv("RATE_LIMIT_BURST", 40),
		MetricsEnabled:     getBoolEnv("METRICS_ENABLED", true),
		AllowedOrigins:     getListEnv("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
	}
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// HasWeatherKey reports whether the weather credential is configured.
func (c *Config) HasWeatherKey() bool {
	return c.WeatherAPIKey != ""
}

// Validate checks that required configuration is present. In development a
// missing session secret is replaced with a random one for this process.
func (c *Config) Validate() error {
	if c.PageSize <= 0 {
		return errors.New("PAGE_SIZE must be positive")
	}
	if c.ViewIdleTTL <= 0 {
		return errors.New("VIEW_IDLE_TIMEOUT_SECONDS must be positive")
	}
	if c.SessionSecret == "" {
		if !c.IsDevelopment() {
			return errors.New("SESSION_SECRET is required outside development")
		}
		c.SessionSecret = randomSecret()
	}
	return nil
}

func randomSecret() string {
	buf := make([]byte, 32)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultSeconds int) time.Duration {
	if value := os.Getenv(key); value != "" {
		if seconds, err := strconv.Atoi(value); err == nil {
			return time.Duration(seconds)
		}
	}
	return time.Duration(defaultSeconds)
}

func getLevelEnv(key string, defaultValue slog.Level) slog.Level {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(value)); err != nil {
		return defaultValue
	}
	return level
}

func getListEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
