package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/go-playground/validator/v10"
)

// ErrMissingCredential is returned when a configured provider lacks its API key.
var ErrMissingCredential = errors.New("missing required credential")

var validate = validator.New()

type AppConfig struct {
	// Timezone is the one civil timezone every timestamp is read and gridded in.
	Timezone *time.Location `validate:"required"`

	// Providers in display order.
	Providers []string `validate:"required,min=1,dive,required"`

	WindySpotID         string `validate:"required"`
	WindfinderSpot      string `validate:"required"`
	PirateWeatherAPIKey string

	Lat float64 `validate:"gte=-90,lte=90"`
	Lon float64 `validate:"gte=-180,lte=180"`

	// Optional address lookup for Lat/Lon.
	SpotStreet     string
	SpotCity       string
	SpotCountry    string
	GeocoderAPIKey string

	HistoryURL  string `validate:"required,url"`
	HistoryFile string `validate:"required"`
	SnapshotDir string // empty disables the archive

	// FetchInterval controls how often forecasts are fetched and saved.
	FetchInterval time.Duration `validate:"gte=1m"`

	HorizonDays    int           `validate:"gte=1,lte=14"`
	MatchTolerance time.Duration `validate:"gt=0"`
	DayStartHour   int           `validate:"gte=0,lte=23"`
	DayEndHour     int           `validate:"gte=0,lte=23,gtefield=DayStartHour"`

	// In-memory store retention.
	StoreMaxHistory int           // max number of snapshots per provider (0 = unlimited)
	StoreMaxAge     time.Duration // max age of snapshots (0 = unlimited)

	HTTPTimeout time.Duration `validate:"gt=0"`
	Port        string        `validate:"required,numeric"`

	Debug   bool
	LogFile string
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	cfg := &AppConfig{}
	var err error

	tzName := getenvDefault("TIMEZONE", "America/Vancouver")
	if cfg.Timezone, err = time.LoadLocation(tzName); err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
	}

	cfg.Providers = splitList(getenvDefault("PROVIDERS", "windy_gfs27_long,windy_ecmwf,windy_iconglobal,windfinder,pirateweather"))
	cfg.WindySpotID = getenvDefault("WINDY_SPOT_ID", "5099589")
	cfg.WindfinderSpot = getenvDefault("WINDFINDER_SPOT", "jericho_beach_park")
	cfg.PirateWeatherAPIKey = os.Getenv("PIRATE_WEATHER_API_KEY")

	if cfg.Lat, err = getenvFloat("SPOT_LAT", 49.28269); err != nil {
		return nil, err
	}
	if cfg.Lon, err = getenvFloat("SPOT_LON", -123.20581); err != nil {
		return nil, err
	}
	cfg.SpotStreet = os.Getenv("SPOT_STREET")
	cfg.SpotCity = os.Getenv("SPOT_CITY")
	cfg.SpotCountry = os.Getenv("SPOT_COUNTRY")
	cfg.GeocoderAPIKey = os.Getenv("GEOCODER_API_KEY")

	cfg.HistoryURL = getenvDefault("HISTORY_URL", "https://jsca.bc.ca/main/downld02.txt")
	cfg.HistoryFile = getenvDefault("HISTORY_FILE", "jsca_weather.jsonl")
	cfg.SnapshotDir = getenvDefault("SNAPSHOT_DIR", "snapshots")

	if cfg.FetchInterval, err = getenvDuration("FETCH_INTERVAL", "10m"); err != nil {
		return nil, err
	}
	if cfg.HorizonDays, err = getenvInt("HORIZON_DAYS", 5); err != nil {
		return nil, err
	}
	if cfg.MatchTolerance, err = getenvDuration("MATCH_TOLERANCE", "1h"); err != nil {
		return nil, err
	}
	if cfg.DayStartHour, err = getenvInt("DAY_START_HOUR", 9); err != nil {
		return nil, err
	}
	if cfg.DayEndHour, err = getenvInt("DAY_END_HOUR", 21); err != nil {
		return nil, err
	}

	// Store retention: a day of snapshots at the default 10-minute cadence.
	if cfg.StoreMaxHistory, err = getenvInt("STORE_MAX_HISTORY", 144); err != nil {
		return nil, err
	}
	if cfg.StoreMaxAge, err = getenvDuration("STORE_MAX_AGE", "24h"); err != nil {
		return nil, err
	}
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", "15s"); err != nil {
		return nil, err
	}
	cfg.Port = getenvDefault("PORT", "8080")

	cfg.Debug, _ = strconv.ParseBool(os.Getenv("DEBUG"))
	cfg.LogFile = os.Getenv("LOG_FILE")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints and provider credentials.
func (c *AppConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.HasProvider("pirateweather") && c.PirateWeatherAPIKey == "" {
		return fmt.Errorf("%w: PIRATE_WEATHER_API_KEY is required by the pirateweather provider", ErrMissingCredential)
	}
	return nil
}

// HasProvider reports whether name is among the configured providers.
func (c *AppConfig) HasProvider(name string) bool {
	for _, p := range c.Providers {
		if p == name {
			return true
		}
	}
	return false
}

// GeocodeSpot reports whether the spot coordinates should come from an address lookup.
func (c *AppConfig) GeocodeSpot() bool {
	return c.GeocoderAPIKey != "" && c.SpotCity != "" && c.SpotCountry != ""
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getenvFloat(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
