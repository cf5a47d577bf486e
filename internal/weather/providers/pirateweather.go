package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/sony/gobreaker"

	"github.com/i474232898/windboard/internal/weather"
)

// PirateWeatherPayload is the subset of the forecast response we read. Fields
// absent from an hourly entry decode as zero.
type PirateWeatherPayload struct {
	Hourly *struct {
		Data []PirateWeatherHour `json:"data"`
	} `json:"hourly"`
}

// PirateWeatherHour is one entry of hourly.data, requested in SI units.
type PirateWeatherHour struct {
	Time              int64   `json:"time"`
	WindSpeed         float64 `json:"windSpeed"` // m/s
	WindGust          float64 `json:"windGust"`  // m/s
	WindBearing       float64 `json:"windBearing"`
	Temperature       float64 `json:"temperature"`
	Icon              string  `json:"icon"`
	PrecipProbability float64 `json:"precipProbability"` // 0-1
	PrecipIntensity   float64 `json:"precipIntensity"`
	CloudCover        float64 `json:"cloudCover"` // 0-1
}

var pirateWeatherConditions = map[string]weather.Condition{
	"clear-day":           weather.ConditionSunny,
	"clear-night":         weather.ConditionClear,
	"rain":                weather.ConditionRainy,
	"snow":                weather.ConditionSnowy,
	"sleet":               weather.ConditionRainy,
	"wind":                weather.ConditionWindy,
	"fog":                 weather.ConditionCloudy,
	"cloudy":              weather.ConditionCloudy,
	"partly-cloudy-day":   weather.ConditionPartlyCloudy,
	"partly-cloudy-night": weather.ConditionPartlyCloudy,
	"thunderstorm":        weather.ConditionRainy,
	"hail":                weather.ConditionRainy,
}

// MapPirateWeatherCondition maps a provider icon code onto the condition vocabulary.
func MapPirateWeatherCondition(icon string) weather.Condition {
	if c, ok := pirateWeatherConditions[icon]; ok {
		return c
	}
	return weather.ConditionUnknown
}

// NormalizePirateWeather converts the hourly block to canonical points. Bearings
// are flipped to the direction the wind comes from; fractions become percentages.
func NormalizePirateWeather(payload PirateWeatherPayload) []weather.ForecastPoint {
	if payload.Hourly == nil {
		return nil
	}

	points := make([]weather.ForecastPoint, 0, len(payload.Hourly.Data))
	for _, h := range payload.Hourly.Data {
		probability := h.PrecipProbability * 100
		intensity := h.PrecipIntensity
		cloud := h.CloudCover * 100

		points = append(points, weather.ForecastPoint{
			Time:                     h.Time,
			SpeedKnots:               weather.MetersPerSecondToKnots(h.WindSpeed),
			GustKnots:                weather.MetersPerSecondToKnots(h.WindGust),
			Direction:                weather.FlipDirection(h.WindBearing),
			Temperature:              h.Temperature,
			Condition:                MapPirateWeatherCondition(h.Icon),
			Icon:                     h.Icon,
			PrecipitationProbability: &probability,
			PrecipitationIntensity:   &intensity,
			CloudCover:               &cloud,
		})
	}
	return points
}

// PirateWeatherProvider reads the hourly forecast from the pirateweather API.
type PirateWeatherProvider struct {
	name    string
	apiKey  string
	lat     float64
	lon     float64
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewPirateWeatherProvider(client *http.Client, apiKey string, lat, lon float64) *PirateWeatherProvider {
	return &PirateWeatherProvider{
		name:    "pirateweather",
		apiKey:  apiKey,
		lat:     lat,
		lon:     lon,
		baseURL: "https://api.pirateweather.net/forecast/",
		httpCfg: DefaultHTTPConfig(client),
		circuit: newCircuit("pirateweather"),
	}
}

func (p *PirateWeatherProvider) Name() string {
	return p.name
}

func (p *PirateWeatherProvider) Units() weather.Units {
	return weather.Units{Temperature: "C", WindSpeed: "m/s"}
}

func (p *PirateWeatherProvider) Forecast(ctx context.Context) ([]weather.ForecastPoint, error) {
	if p.apiKey == "" {
		return nil, errors.New("pirateweather api key is not configured")
	}

	values := url.Values{}
	values.Set("units", "si")
	values.Set("exclude", "minutely,daily,alerts")
	values.Set("extend", "hourly")
	u := fmt.Sprintf("%s%s/%f,%f?%s", p.baseURL, url.PathEscape(p.apiKey), p.lat, p.lon, values.Encode())

	body, err := getWithResilience(ctx, p.httpCfg, p.circuit, u)
	if err != nil {
		return nil, err
	}

	var payload PirateWeatherPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode pirateweather payload: %w", err)
	}
	return NormalizePirateWeather(payload), nil
}

// compile-time interface checks
var (
	_ weather.Provider = (*WindyProvider)(nil)
	_ weather.Provider = (*WindfinderProvider)(nil)
	_ weather.Provider = (*PirateWeatherProvider)(nil)
)
