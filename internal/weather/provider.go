package weather

import (
	"context"
	"time"
)

// Provider abstracts one forecast source (e.g. a windy widget model, windfinder,
// pirateweather). Forecast fetches the raw payload and normalizes it into
// canonical points; the returned sequence need not be sorted.
type Provider interface {
	Name() string
	Units() Units
	Forecast(ctx context.Context) ([]ForecastPoint, error)
}

// Store is the contract the in-memory store (and any future persistent store) must satisfy.
type Store interface {
	SaveSnapshot(snapshot Snapshot)
	GetLatest(provider string) (Snapshot, error)
	GetRange(provider string, from, to time.Time) ([]Snapshot, error)
}

// Archive keeps a durable copy of every fetched snapshot.
type Archive interface {
	Save(runAt time.Time, snapshot Snapshot) error
}
