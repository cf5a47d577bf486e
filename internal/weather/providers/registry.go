package providers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/i474232898/windboard/internal/weather"
)

// Options carries the per-source settings needed to build providers.
type Options struct {
	Location            *time.Location
	WindySpotID         string
	WindfinderSpot      string
	PirateWeatherAPIKey string
	Lat, Lon            float64
}

// Build constructs the providers named in names, keeping their order. Names are
// windy_<model>, windfinder and pirateweather.
func Build(client *http.Client, names []string, opts Options) ([]weather.Provider, error) {
	provs := make([]weather.Provider, 0, len(names))
	seen := make(map[string]bool, len(names))

	for _, name := range names {
		if seen[name] {
			return nil, fmt.Errorf("provider %q configured twice", name)
		}
		seen[name] = true

		switch {
		case strings.HasPrefix(name, "windy_"):
			model := strings.TrimPrefix(name, "windy_")
			if !isWindyModel(model) {
				return nil, fmt.Errorf("unknown windy model %q", model)
			}
			provs = append(provs, NewWindyProvider(client, model, opts.WindySpotID, opts.Location))
		case name == "windfinder":
			provs = append(provs, NewWindfinderProvider(client, opts.WindfinderSpot, opts.Location))
		case name == "pirateweather":
			provs = append(provs, NewPirateWeatherProvider(client, opts.PirateWeatherAPIKey, opts.Lat, opts.Lon))
		default:
			return nil, fmt.Errorf("unknown provider %q", name)
		}
	}
	return provs, nil
}

func isWindyModel(model string) bool {
	for _, m := range WindyModels {
		if m == model {
			return true
		}
	}
	return false
}
