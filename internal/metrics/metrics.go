// Package metrics holds the prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ProviderFetches counts forecast fetches by provider and result ("ok" or "error").
	ProviderFetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "windboard",
		Name:      "provider_fetches_total",
		Help:      "Forecast fetches per provider and result.",
	}, []string{"provider", "result"})

	// ProviderPoints reports how many points the last successful fetch returned.
	ProviderPoints = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "windboard",
		Name:      "provider_points",
		Help:      "Number of forecast points in the latest snapshot per provider.",
	}, []string{"provider"})

	// HistoryAppended counts observation records appended to the history log.
	HistoryAppended = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "windboard",
		Name:      "history_records_appended_total",
		Help:      "Observation records appended to the history log.",
	})

	// HistoryRuns counts ingestion runs by result.
	HistoryRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "windboard",
		Name:      "history_runs_total",
		Help:      "History ingestion runs by result.",
	}, []string{"result"})
)

// ObserveFetch records the outcome of one provider fetch.
func ObserveFetch(provider string, points int, err error) {
	if err != nil {
		ProviderFetches.WithLabelValues(provider, "error").Inc()
		return
	}
	ProviderFetches.WithLabelValues(provider, "ok").Inc()
	ProviderPoints.WithLabelValues(provider).Set(float64(points))
}
