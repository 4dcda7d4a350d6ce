package jobs

import (
	"context"
	"time"

	"github.com/gigboard/gigboard/internal/jobs/domain"
)

// ListFilter narrows a job listing query. Cursor-based pagination keys on
// (created_at, job_id) descending.
type ListFilter struct {
	OwnerID    string
	CategoryID string
	Status     string
	PageSize   int
	Cursor     *Cursor
}

// Cursor marks the position after the last returned row.
type Cursor struct {
	CreatedAt time.Time
	JobID     string
}

// Store is the job record store. Every transition method applies its guard
// and its mutation as one atomic conditional update: the predicate is
// evaluated by the store against the same snapshot it mutates, so there is
// no read-then-write race window. On guard failure a transition method
// returns domain.ErrJobNotFound when the record is missing and
// domain.ErrConditionFailed when it exists but the precondition did not
// hold; the coordinator maps the latter to the precise typed error.
type Store interface {
	Insert(ctx context.Context, job *domain.Job) error
	Get(ctx context.Context, jobID string) (*domain.Job, error)
	GetByIdempotencyKey(ctx context.Context, key string) (*domain.Job, error)
	List(ctx context.Context, filter ListFilter) ([]domain.Job, error)

	// Claim sets CLAIMED/claimer/claimed_at and computes the submission
	// deadline from the record's own time_to_complete_seconds.
	Claim(ctx context.Context, jobID, claimerID string, now time.Time) (*domain.Job, error)
	Submit(ctx context.Context, jobID, claimerID string, now time.Time) (*domain.Job, error)
	Approve(ctx context.Context, jobID, ownerID string, now time.Time) (*domain.Job, error)
	Reject(ctx context.Context, jobID string, actor domain.Actor, now time.Time) (*domain.Job, error)
	Cancel(ctx context.Context, jobID string, actor domain.Actor, now time.Time) (*domain.Job, error)
	Relist(ctx context.Context, jobID string, actor domain.Actor, now, newExpiry time.Time, retainUntil int64) (*domain.Job, error)

	// MarkExpired and RevertOverdue are the sweep-side transitions. They
	// are guarded by the same conditional-update discipline, so a sweep
	// racing a user action loses cleanly. RevertOverdue reports the claim
	// it cleared alongside the reverted record.
	MarkExpired(ctx context.Context, jobID string, now time.Time) (*domain.Job, error)
	RevertOverdue(ctx context.Context, jobID string, now time.Time) (*domain.Reversion, error)

	ListExpiredOpen(ctx context.Context, now time.Time, limit int) ([]string, error)
	ListOverdueClaims(ctx context.Context, now time.Time, limit int) ([]string, error)
	PruneRetired(ctx context.Context, now time.Time, limit int) (int64, error)
}
