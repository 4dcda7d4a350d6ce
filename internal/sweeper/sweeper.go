package sweeper

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gigboard/gigboard/internal/jobs"
)

// Config holds sweeper configuration
type Config struct {
	Logger       *slog.Logger
	Coordinator  *jobs.Coordinator
	Interval     time.Duration
	PruneRetired bool
}

// Sweeper periodically drives expired listings and overdue claims through
// their reversion transitions. Each pass goes through the same coordinator
// operations as user requests, so a sweep racing a user action loses
// cleanly on the store's conditional update.
type Sweeper struct {
	logger       *slog.Logger
	coordinator  *jobs.Coordinator
	interval     time.Duration
	pruneRetired bool
	stopChan     chan struct{}
	wg           sync.WaitGroup
}

// New creates a sweeper instance.
func New(cfg *Config) *Sweeper {
	return &Sweeper{
		logger:       cfg.Logger,
		coordinator:  cfg.Coordinator,
		interval:     cfg.Interval,
		pruneRetired: cfg.PruneRetired,
		stopChan:     make(chan struct{}),
	}
}

// Start runs sweep passes until the context is canceled or Stop is called.
// The first pass runs immediately.
func (s *Sweeper) Start(ctx context.Context) error {
	s.logger.Info("Starting reconciliation sweeper",
		slog.Duration("interval", s.interval),
		slog.Bool("prune_retired", s.pruneRetired),
	)

	s.wg.Add(1)
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.RunOnce(ctx)

	for {
		select {
		case <-s.stopChan:
			s.logger.Info("Sweeper stopping")
			return nil

		case <-ctx.Done():
			s.logger.Info("Sweeper context canceled, stopping")
			return nil

		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// Stop waits for an in-flight pass to finish and stops the loop.
func (s *Sweeper) Stop() {
	close(s.stopChan)
	s.wg.Wait()
	s.logger.Info("Sweeper stopped")
}

// RunOnce executes a single sweep pass. Failures are logged and left for
// the next scheduled run; there is no in-pass retry.
func (s *Sweeper) RunOnce(ctx context.Context) {
	start := time.Now()

	expired, err := s.coordinator.ExpireOverdueListings(ctx)
	if err != nil {
		s.logger.Error("Expire pass failed",
			slog.Any("error", err),
		)
	}

	timedOut, err := s.coordinator.TimeoutOverdueClaims(ctx)
	if err != nil {
		s.logger.Error("Timeout pass failed",
			slog.Any("error", err),
		)
	}

	var pruned int64
	if s.pruneRetired {
		pruned, err = s.coordinator.PruneRetired(ctx)
		if err != nil {
			s.logger.Error("Prune pass failed",
				slog.Any("error", err),
			)
		}
	}

	s.logger.Info("Sweep pass complete",
		slog.Int("expired", expired),
		slog.Int("timed_out", timedOut),
		slog.Int64("pruned", pruned),
		slog.Duration("elapsed", time.Since(start)),
	)
}
