package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gigboard/gigboard/internal/jobs/domain"
	"github.com/gigboard/gigboard/internal/jobs/event"
)

const defaultSweepBatchSize = 100

// Config holds coordinator dependencies.
type Config struct {
	Store  Store
	Events event.Publisher
	Logger *slog.Logger
	// Now overrides the clock, for tests.
	Now func() time.Time
	// SweepBatchSize caps how many records one sweep pass touches.
	SweepBatchSize int
}

// Coordinator orchestrates the job lifecycle: it evaluates guards through
// the store's atomic conditional updates, maps lost races to typed errors,
// and emits exactly one lifecycle event per successful transition. Every
// invocation is stateless; the store's per-record atomicity is the only
// synchronization.
type Coordinator struct {
	store      Store
	events     event.Publisher
	logger     *slog.Logger
	now        func() time.Time
	sweepBatch int
}

// NewCoordinator creates a Coordinator.
func NewCoordinator(cfg *Config) *Coordinator {
	now := cfg.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	batch := cfg.SweepBatchSize
	if batch <= 0 {
		batch = defaultSweepBatchSize
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Coordinator{
		store:      cfg.Store,
		events:     cfg.Events,
		logger:     logger,
		now:        now,
		sweepBatch: batch,
	}
}

// CreateJob validates the input and inserts a new OPEN listing. When the
// input carries an idempotency key that was already used, the original job
// is returned instead of a duplicate and no event is emitted.
func (c *Coordinator) CreateJob(ctx context.Context, in *domain.CreateInput) (*domain.Job, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	now := c.now()
	job := domain.NewJob(in, now)

	if err := c.store.Insert(ctx, job); err != nil {
		if errors.Is(err, domain.ErrIdempotencyConflict) && in.IdempotencyKey != "" {
			existing, getErr := c.store.GetByIdempotencyKey(ctx, in.IdempotencyKey)
			if getErr != nil {
				return nil, fmt.Errorf("failed to load job for idempotency key: %w", getErr)
			}
			c.logger.Info("Create replayed via idempotency key",
				slog.String("job_id", existing.JobID),
			)
			return existing, nil
		}
		return nil, err
	}

	c.emit(ctx, event.FromJob(event.TypeCreated, job, now))
	return job, nil
}

// ClaimJob assigns the job to actor. Exactly one of N concurrent claimers
// wins; the rest receive ErrAlreadyClaimed.
func (c *Coordinator) ClaimJob(ctx context.Context, jobID string, actor domain.Actor) (*domain.Job, error) {
	now := c.now()

	job, err := c.store.Claim(ctx, jobID, actor.ID, now)
	if err != nil {
		if errors.Is(err, domain.ErrConditionFailed) {
			return nil, c.explain(ctx, jobID, domain.ErrAlreadyClaimed, func(j *domain.Job) error {
				return domain.CanClaim(j, actor, now)
			})
		}
		return nil, err
	}

	c.emit(ctx, event.FromJob(event.TypeClaimed, job, now))
	return job, nil
}

// SubmitJob marks the claimer's work as submitted. A submit after the
// deadline does not land: the job reverts to OPEN with claimer fields
// cleared and the caller gets ErrDeadlineExceeded.
func (c *Coordinator) SubmitJob(ctx context.Context, jobID string, actor domain.Actor) (*domain.Job, error) {
	now := c.now()

	job, err := c.store.Submit(ctx, jobID, actor.ID, now)
	if err != nil {
		if errors.Is(err, domain.ErrConditionFailed) {
			mapped := c.explain(ctx, jobID, domain.ErrNotClaimedByActor, func(j *domain.Job) error {
				return domain.CanSubmit(j, actor, now)
			})
			if errors.Is(mapped, domain.ErrDeadlineExceeded) {
				c.revertLateSubmit(ctx, jobID, now)
			}
			return nil, mapped
		}
		return nil, err
	}

	c.emit(ctx, event.FromJob(event.TypeSubmitted, job, now))
	return job, nil
}

func (c *Coordinator) revertLateSubmit(ctx context.Context, jobID string, now time.Time) {
	rev, err := c.store.RevertOverdue(ctx, jobID, now)
	if err != nil {
		// A concurrent sweep or relist may have reverted it first.
		if !errors.Is(err, domain.ErrConditionFailed) && !errors.Is(err, domain.ErrJobNotFound) {
			c.logger.Warn("Failed to revert job after late submit",
				slog.String("job_id", jobID),
				slog.Any("error", err),
			)
		}
		return
	}
	c.emit(ctx, event.FromReversion(rev, now))
}

// ApproveJob lets the owner accept submitted work. The emitted event
// triggers payment downstream.
func (c *Coordinator) ApproveJob(ctx context.Context, jobID string, actor domain.Actor) (*domain.Job, error) {
	now := c.now()

	job, err := c.store.Approve(ctx, jobID, actor.ID, now)
	if err != nil {
		if errors.Is(err, domain.ErrConditionFailed) {
			return nil, c.explain(ctx, jobID, domain.ErrNotSubmitted, func(j *domain.Job) error {
				return domain.CanApprove(j, actor)
			})
		}
		return nil, err
	}

	c.emit(ctx, event.FromJob(event.TypeApproved, job, now))
	return job, nil
}

// RejectJob lets the owner or an admin turn down submitted work.
func (c *Coordinator) RejectJob(ctx context.Context, jobID string, actor domain.Actor) (*domain.Job, error) {
	now := c.now()

	job, err := c.store.Reject(ctx, jobID, actor, now)
	if err != nil {
		if errors.Is(err, domain.ErrConditionFailed) {
			return nil, c.explain(ctx, jobID, domain.ErrNotSubmitted, func(j *domain.Job) error {
				return domain.CanReject(j, actor)
			})
		}
		return nil, err
	}

	c.emit(ctx, event.FromJob(event.TypeRejected, job, now))
	return job, nil
}

// CancelJob lets the owner or an admin withdraw an open listing.
func (c *Coordinator) CancelJob(ctx context.Context, jobID string, actor domain.Actor) (*domain.Job, error) {
	now := c.now()

	job, err := c.store.Cancel(ctx, jobID, actor, now)
	if err != nil {
		if errors.Is(err, domain.ErrConditionFailed) {
			return nil, c.explain(ctx, jobID, domain.ErrNotCancellable, func(j *domain.Job) error {
				return domain.CanCancel(j, actor)
			})
		}
		return nil, err
	}

	c.emit(ctx, event.FromJob(event.TypeCancelled, job, now))
	return job, nil
}

// RelistJob reopens an eligible job with a fresh expiry. Claimer fields are
// cleared unconditionally. expiryDays of zero means the default; other
// values are clamped into the allowed range.
func (c *Coordinator) RelistJob(ctx context.Context, jobID string, actor domain.Actor, expiryDays int) (*domain.Job, error) {
	now := c.now()
	newExpiry := domain.RelistExpiry(now, expiryDays)

	job, err := c.store.Relist(ctx, jobID, actor, now, newExpiry, domain.RetainUntil(newExpiry))
	if err != nil {
		if errors.Is(err, domain.ErrConditionFailed) {
			return nil, c.explain(ctx, jobID, domain.ErrNotRelistable, func(j *domain.Job) error {
				return domain.CanRelist(j, actor, now)
			})
		}
		return nil, err
	}

	c.emit(ctx, event.FromJob(event.TypeRelisted, job, now))
	return job, nil
}

// GetJob fetches one job record.
func (c *Coordinator) GetJob(ctx context.Context, jobID string) (*domain.Job, error) {
	return c.store.Get(ctx, jobID)
}

// ListJobs returns jobs matching the filter.
func (c *Coordinator) ListJobs(ctx context.Context, filter ListFilter) ([]domain.Job, error) {
	return c.store.List(ctx, filter)
}

// ExpireOverdueListings marks open listings past their expiry as EXPIRED
// and emits an audit event per record. One record's failure never aborts
// the batch; the next scheduled run picks it up again.
func (c *Coordinator) ExpireOverdueListings(ctx context.Context) (int, error) {
	now := c.now()

	ids, err := c.store.ListExpiredOpen(ctx, now, c.sweepBatch)
	if err != nil {
		return 0, fmt.Errorf("failed to list expired listings: %w", err)
	}

	count := 0
	for _, id := range ids {
		job, err := c.store.MarkExpired(ctx, id, now)
		if err != nil {
			if errors.Is(err, domain.ErrConditionFailed) || errors.Is(err, domain.ErrJobNotFound) {
				// Lost the race to a user action.
				continue
			}
			c.logger.Error("Failed to expire listing",
				slog.String("job_id", id),
				slog.Any("error", err),
			)
			continue
		}
		c.emit(ctx, event.FromJob(event.TypeExpired, job, now))
		count++
	}

	return count, nil
}

// TimeoutOverdueClaims reverts claimed and submitted jobs whose submission
// deadline has passed back to OPEN, clearing claimer fields.
func (c *Coordinator) TimeoutOverdueClaims(ctx context.Context) (int, error) {
	now := c.now()

	ids, err := c.store.ListOverdueClaims(ctx, now, c.sweepBatch)
	if err != nil {
		return 0, fmt.Errorf("failed to list overdue claims: %w", err)
	}

	count := 0
	for _, id := range ids {
		rev, err := c.store.RevertOverdue(ctx, id, now)
		if err != nil {
			if errors.Is(err, domain.ErrConditionFailed) || errors.Is(err, domain.ErrJobNotFound) {
				continue
			}
			c.logger.Error("Failed to time out claim",
				slog.String("job_id", id),
				slog.Any("error", err),
			)
			continue
		}
		c.emit(ctx, event.FromReversion(rev, now))
		count++
	}

	return count, nil
}

// PruneRetired deletes terminal records whose retention horizon has passed.
// Retention is storage hygiene, not part of the state machine.
func (c *Coordinator) PruneRetired(ctx context.Context) (int64, error) {
	return c.store.PruneRetired(ctx, c.now(), c.sweepBatch)
}

// explain re-reads the record after a failed conditional update and runs the
// pure guard to pick the typed error. The re-read is best-effort commentary;
// it cannot affect what the store committed.
func (c *Coordinator) explain(ctx context.Context, jobID string, fallback error, guard func(*domain.Job) error) error {
	job, err := c.store.Get(ctx, jobID)
	if err != nil {
		if errors.Is(err, domain.ErrJobNotFound) {
			return domain.ErrJobNotFound
		}
		return fallback
	}
	if gerr := guard(job); gerr != nil {
		return gerr
	}
	// The record changed again between the update and the re-read.
	return fallback
}

func (c *Coordinator) emit(ctx context.Context, evt event.Event) {
	if c.events == nil {
		return
	}
	if err := c.events.Publish(ctx, evt); err != nil {
		// The transition already committed; emission failures are logged
		// and swallowed.
		c.logger.Warn("Failed to publish lifecycle event",
			slog.String("event_type", evt.Type),
			slog.String("job_id", evt.JobID),
			slog.Any("error", err),
		)
	}
}
