package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/i474232898/windboard/internal/history"
	"github.com/i474232898/windboard/internal/log"
	"github.com/i474232898/windboard/internal/weather"
)

const jobTimeout = 2 * time.Minute

// Scheduler periodically saves every provider's forecast and grows the
// observation history.
type Scheduler struct {
	mu        sync.Mutex // one run at a time
	scheduler *gocron.Scheduler
	service   *weather.Service
	ingestor  *history.Ingestor
	feed      history.Source
	interval  time.Duration
}

// New creates a new Scheduler. Runs are aligned to the wall clock of loc, so a
// 10 minute interval fires at :00, :10, :20 and so on.
func New(service *weather.Service, ingestor *history.Ingestor, feed history.Source, interval time.Duration, loc *time.Location) *Scheduler {
	s := gocron.NewScheduler(loc)
	s.SingletonModeAll()
	return &Scheduler{
		scheduler: s,
		service:   service,
		ingestor:  ingestor,
		feed:      feed,
		interval:  interval,
	}
}

// Start schedules the periodic job and starts the underlying scheduler.
// The first run starts at the next interval boundary.
func (s *Scheduler) Start() error {
	minutes := int(s.interval.Minutes())
	if minutes <= 0 {
		minutes = 10
	}

	_, err := s.scheduler.Every(minutes).Minutes().StartAt(nextBoundary(time.Now(), s.interval)).Do(s.Run)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// Run performs one fetch-and-save plus history ingestion. A run that starts
// while another is in progress waits for it.
func (s *Scheduler) Run() {
	s.mu.Lock()
	defer s.mu.Unlock()

	log.Infof("scheduler: running forecast job")

	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	if err := s.service.FetchAndStore(ctx); err != nil {
		log.Errorf("scheduler: saving forecasts failed: %v", err)
	}

	if s.ingestor != nil && s.feed != nil {
		if _, err := s.ingestor.Update(ctx, s.feed); err != nil {
			log.Errorf("scheduler: updating observation history failed: %v", err)
		}
	}

	log.Infof("scheduler: completed forecast job")
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

func nextBoundary(now time.Time, interval time.Duration) time.Time {
	if interval <= 0 {
		return now
	}
	next := now.Truncate(interval)
	if next.Before(now) {
		next = next.Add(interval)
	}
	return next
}
