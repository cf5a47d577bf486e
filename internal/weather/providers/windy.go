package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/windboard/internal/weather"
)

// WindyModels are the numerical models the windy widget serves.
var WindyModels = []string{"gfs27_long", "ecmwf", "iconglobal"}

const windyPrefix = "window.wfwindyapp="

// WindyRecord is one entry of the windy widget payload.
type WindyRecord struct {
	Timestamp     int64   `json:"timestamp"`
	WindSpeed     float64 `json:"windSpeed"` // m/s
	WindGust      float64 `json:"windGust"`  // m/s
	WindDirection float64 `json:"windDirection"`
	AirTemp       float64 `json:"airTemp"`
}

// NormalizeWindy converts widget records to canonical points. Directions are
// already meteorological degrees.
func NormalizeWindy(records []WindyRecord) []weather.ForecastPoint {
	points := make([]weather.ForecastPoint, 0, len(records))
	for _, r := range records {
		points = append(points, weather.ForecastPoint{
			Time:        r.Timestamp,
			SpeedKnots:  weather.MetersPerSecondToKnots(r.WindSpeed),
			GustKnots:   weather.MetersPerSecondToKnots(r.WindGust),
			Direction:   weather.NormalizeDegrees(r.WindDirection),
			Temperature: r.AirTemp,
		})
	}
	return points
}

// DecodeWindyBody unwraps the widget script body. The script assigns an object
// whose "data" member is itself a JSON-encoded array of records.
func DecodeWindyBody(body []byte) ([]WindyRecord, error) {
	raw := strings.TrimSpace(string(body))
	raw = strings.TrimPrefix(raw, windyPrefix)
	raw = strings.TrimSuffix(raw, ";")

	var envelope struct {
		Data string `json:"data"`
	}
	if err := json.Unmarshal([]byte(raw), &envelope); err != nil {
		return nil, fmt.Errorf("decode windy envelope: %w", err)
	}

	var records []WindyRecord
	if err := json.Unmarshal([]byte(envelope.Data), &records); err != nil {
		return nil, fmt.Errorf("decode windy records: %w", err)
	}
	return records, nil
}

// WindyProvider fetches one model of the windy.app forecast widget.
type WindyProvider struct {
	name    string
	model   string
	spotID  string
	baseURL string
	loc     *time.Location
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
	now     func() time.Time
}

// NewWindyProvider creates a provider named windy_<model>.
func NewWindyProvider(client *http.Client, model, spotID string, loc *time.Location) *WindyProvider {
	name := "windy_" + model
	return &WindyProvider{
		name:    name,
		model:   model,
		spotID:  spotID,
		baseURL: "https://windy.app/widget/data.php",
		loc:     loc,
		httpCfg: DefaultHTTPConfig(client),
		circuit: newCircuit(name),
		now:     time.Now,
	}
}

func (p *WindyProvider) Name() string {
	return p.name
}

func (p *WindyProvider) Units() weather.Units {
	return weather.Units{Temperature: "C", WindSpeed: "m/s"}
}

func (p *WindyProvider) Forecast(ctx context.Context) ([]weather.ForecastPoint, error) {
	values := url.Values{}
	values.Set("id", "wfwindyapp")
	values.Set("model", p.model)
	values.Set("spotID", p.spotID)
	values.Set("tz", fmt.Sprintf("%d", utcOffsetHours(p.now(), p.loc)))

	body, err := getWithResilience(ctx, p.httpCfg, p.circuit, p.baseURL+"?"+values.Encode())
	if err != nil {
		return nil, err
	}

	records, err := DecodeWindyBody(body)
	if err != nil {
		return nil, err
	}
	return NormalizeWindy(records), nil
}
