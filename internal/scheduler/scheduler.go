package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron"

	"glasscast/internal/weather"
)

// Scheduler periodically refreshes every favorite city so cached data stays
// fresh without user interaction.
type Scheduler struct {
	scheduler *gocron.Scheduler
	engine    *weather.Engine
	interval  time.Duration
}

// New creates a Scheduler. An interval of zero disables it.
func New(engine *weather.Engine, interval time.Duration) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler: s,
		engine:    engine,
		interval:  interval,
	}
}

// Start schedules the periodic refresh job and starts the underlying
// scheduler.
func (s *Scheduler) Start() error {
	if s.interval <= 0 {
		log.Println("scheduler: refresh disabled; nothing to schedule")
		return nil
	}

	minutes := int(s.interval.Minutes())
	if minutes <= 0 {
		minutes = 15
	}

	_, err := s.scheduler.Every(minutes).Minutes().Do(func() {
		log.Println("scheduler: refreshing favorite cities")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := s.engine.RefreshFavorites(ctx); err != nil {
			log.Printf("scheduler: refresh completed with errors: %v", err)
		}
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
