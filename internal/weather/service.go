package weather

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/i474232898/windboard/internal/log"
	"github.com/i474232898/windboard/internal/metrics"
)

var (
	// ErrNoProviders is returned when the service has nothing to fetch from.
	ErrNoProviders = errors.New("no weather providers configured")
	// ErrUnknownProvider is returned for a provider name that is not configured.
	ErrUnknownProvider = errors.New("unknown provider")
)

// Service orchestrates fetching from multiple providers, persisting snapshots and
// aligning the latest snapshots into a board.
type Service struct {
	store     Store
	archive   Archive
	providers []Provider
	aligner   Aligner
	now       func() time.Time
}

// NewService creates a new Service. The provider order is kept for presentation.
func NewService(store Store, providers []Provider, aligner Aligner) *Service {
	return &Service{
		store:     store,
		providers: providers,
		aligner:   aligner,
		now:       time.Now,
	}
}

// WithArchive makes FetchAndStore also write every snapshot to a.
func (s *Service) WithArchive(a Archive) *Service {
	s.archive = a
	return s
}

// Providers lists the configured providers in order.
func (s *Service) Providers() []ProviderInfo {
	infos := make([]ProviderInfo, 0, len(s.providers))
	for _, p := range s.providers {
		infos = append(infos, ProviderInfo{Name: p.Name(), Units: p.Units()})
	}
	return infos
}

func (s *Service) providerNames() []string {
	names := make([]string, 0, len(s.providers))
	for _, p := range s.providers {
		names = append(names, p.Name())
	}
	return names
}

// Collect fetches every provider concurrently. A provider that fails is logged and
// maps to an empty sequence; it never fails the whole collection.
func (s *Service) Collect(ctx context.Context) (map[string][]ForecastPoint, map[string]error) {
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		series = make(map[string][]ForecastPoint, len(s.providers))
		errs   = make(map[string]error)
	)

	for _, p := range s.providers {
		wg.Add(1)
		go func(p Provider) {
			defer wg.Done()

			points, err := p.Forecast(ctx)
			metrics.ObserveFetch(p.Name(), len(points), err)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				// Log and continue; we want partial success when possible.
				log.Warnf("provider %s fetch failed: %v", p.Name(), err)
				series[p.Name()] = nil
				errs[p.Name()] = err
				return
			}
			series[p.Name()] = points
		}(p)
	}

	wg.Wait()
	return series, errs
}

// FetchAndStore fetches all providers and stores a snapshot for each one that
// succeeded. Failed providers keep their last good snapshot. Only archive write
// failures are returned.
func (s *Service) FetchAndStore(ctx context.Context) error {
	if len(s.providers) == 0 {
		return ErrNoProviders
	}

	runAt := s.now()
	series, errs := s.Collect(ctx)
	log.Debugf("fetched %d providers, %d failed", len(series), len(errs))

	var archiveErrs []error
	for _, name := range s.providerNames() {
		if _, failed := errs[name]; failed {
			continue
		}
		snap := Snapshot{Provider: name, FetchedAt: runAt, Points: series[name]}
		s.store.SaveSnapshot(snap)

		if s.archive == nil {
			continue
		}
		if err := s.archive.Save(runAt, snap); err != nil {
			archiveErrs = append(archiveErrs, fmt.Errorf("archive %s: %w", name, err))
		}
	}
	return errors.Join(archiveErrs...)
}

// Latest returns the most recent stored snapshot for one provider.
func (s *Service) Latest(provider string) (Snapshot, error) {
	if !s.hasProvider(provider) {
		return Snapshot{}, fmt.Errorf("%w: %s", ErrUnknownProvider, provider)
	}
	return s.store.GetLatest(provider)
}

// Range returns stored snapshots for one provider fetched between from and to.
func (s *Service) Range(provider string, from, to time.Time) ([]Snapshot, error) {
	if !s.hasProvider(provider) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, provider)
	}
	return s.store.GetRange(provider, from, to)
}

func (s *Service) hasProvider(name string) bool {
	for _, p := range s.providers {
		if p.Name() == name {
			return true
		}
	}
	return false
}

// Board aligns the latest stored snapshot of every provider. days overrides the
// aligner horizon when positive. Providers that never produced a snapshot are
// shown with no data.
func (s *Service) Board(days int) (Board, error) {
	if len(s.providers) == 0 {
		return Board{}, ErrNoProviders
	}

	series := make(map[string][]ForecastPoint, len(s.providers))
	for _, name := range s.providerNames() {
		snap, err := s.store.GetLatest(name)
		if err != nil {
			series[name] = nil
			continue
		}
		series[name] = snap.Points
	}

	return s.BuildBoard(series, days), nil
}

// BuildBoard aligns already collected sequences into a board.
func (s *Service) BuildBoard(series map[string][]ForecastPoint, days int) Board {
	aligner := s.aligner
	if days > 0 {
		aligner.Days = days
	}

	now := s.now()
	slots := aligner.Align(now, s.providerNames(), series)

	return Board{
		ID:          uuid.NewString(),
		GeneratedAt: now.In(aligner.Location),
		Providers:   s.Providers(),
		Slots:       slots,
		Days:        GroupByDay(slots, aligner.Location),
		Series:      series,
	}
}
