package weather

import (
	"time"
)

// Condition represents a normalized high-level weather condition.
type Condition string

const (
	ConditionUnknown      Condition = "unknown"
	ConditionSunny        Condition = "sunny"
	ConditionClear        Condition = "clear"
	ConditionRainy        Condition = "rainy"
	ConditionSnowy        Condition = "snowy"
	ConditionWindy        Condition = "windy"
	ConditionCloudy       Condition = "cloudy"
	ConditionPartlyCloudy Condition = "partly-cloudy"
)

// UnknownDirection marks a reading whose wind direction could not be determined.
const UnknownDirection = -1.0

// ForecastPoint is one provider's reading at one instant, in the canonical schema
// every provider is normalized into.
//
// Time, SpeedKnots, GustKnots, Direction and Temperature are always set. The pointer
// fields are only populated by sources that report them: the forecast API fills the
// precipitation and cloud fields, the observation history fills Rain.
type ForecastPoint struct {
	Time        int64   `json:"time"` // unix seconds
	SpeedKnots  float64 `json:"speed_knots"`
	GustKnots   float64 `json:"gust_knots"`
	Direction   float64 `json:"direction"` // degrees FROM, [0, 360) or UnknownDirection
	Temperature float64 `json:"temperature"`

	Condition                Condition `json:"condition,omitempty"`
	Icon                     string    `json:"icon,omitempty"`
	PrecipitationProbability *float64  `json:"precipitation_probability,omitempty"`
	PrecipitationIntensity   *float64  `json:"precipitation_intensity,omitempty"`
	CloudCover               *float64  `json:"cloud_cover,omitempty"`
	Rain                     *float64  `json:"rain,omitempty"`
}

// Units describes the native units a provider reports in. Wind is always
// converted to knots; temperature is passed through untouched.
type Units struct {
	Temperature string `json:"temperature"`
	WindSpeed   string `json:"windSpeed"`
}

// ProviderInfo is the presentation-facing description of a configured provider.
type ProviderInfo struct {
	Name  string `json:"name"`
	Units Units  `json:"units"`
}

// Snapshot is the complete sequence one provider returned on one fetch.
type Snapshot struct {
	Provider  string          `json:"provider"`
	FetchedAt time.Time       `json:"fetchedAt"`
	Points    []ForecastPoint `json:"points"`
}

// SlotForecast is a provider point matched to a grid slot, with the absolute
// distance in seconds between the point and the slot.
type SlotForecast struct {
	ForecastPoint
	Offset int64 `json:"offset_seconds"`
}

// TimeSlot is one hourly grid point of the aligned timeline. Providers without a
// point inside the tolerance window are absent from Forecasts.
type TimeSlot struct {
	Timestamp int64                   `json:"timestamp"`
	Time      time.Time               `json:"datetime"`
	Forecasts map[string]SlotForecast `json:"forecasts"`
}

// DayBucket groups the slots of one local calendar date, in grid order.
type DayBucket struct {
	Date  string     `json:"date"` // 2006-01-02, local civil date
	Slots []TimeSlot `json:"slots"`
}

// Board is the aligned, side-by-side view handed to the presentation layer.
type Board struct {
	ID          string                     `json:"id"`
	GeneratedAt time.Time                  `json:"generatedAt"`
	Providers   []ProviderInfo             `json:"providers"`
	Slots       []TimeSlot                 `json:"forecasts"`
	Days        []DayBucket                `json:"days"`
	Series      map[string][]ForecastPoint `json:"series,omitempty"`
}
