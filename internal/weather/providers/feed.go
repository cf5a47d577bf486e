package providers

import (
	"context"
	"net/http"

	"github.com/sony/gobreaker"
)

// ObservationFeed downloads the station's plain-text observation table.
type ObservationFeed struct {
	url     string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

// NewObservationFeed creates a feed reading from feedURL.
func NewObservationFeed(client *http.Client, feedURL string) *ObservationFeed {
	return &ObservationFeed{
		url:     feedURL,
		httpCfg: DefaultHTTPConfig(client),
		circuit: newCircuit("observations"),
	}
}

// FetchText returns the raw table body.
func (f *ObservationFeed) FetchText(ctx context.Context) (string, error) {
	body, err := getWithResilience(ctx, f.httpCfg, f.circuit, f.url)
	if err != nil {
		return "", err
	}
	return string(body), nil
}
