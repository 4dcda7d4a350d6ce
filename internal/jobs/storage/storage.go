package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gigboard/gigboard/internal/jobs"
	"github.com/gigboard/gigboard/internal/jobs/domain"
	"github.com/gigboard/gigboard/shared/postgresql"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const jobColumns = `
	job_id, idempotency_key, owner_id, category_id, name, description,
	pay_amount, time_to_complete_seconds, status, expiry_date,
	claimer_id, claimed_at, submission_deadline, submitted_at,
	retain_until, created_at, updated_at`

// Storage is the Postgres job record store. Every transition is one
// conditional UPDATE whose WHERE clause carries the transition guard, so
// the predicate and the mutation are applied against the same row version.
// A guard that matches no row is split into ErrJobNotFound and
// ErrConditionFailed by a follow-up existence probe.
type Storage struct {
	db     *sqlx.DB
	logger *slog.Logger
}

var _ jobs.Store = (*Storage)(nil)

// NewStorage creates a Storage on an established PostgreSQL client.
func NewStorage(pg *postgresql.Client, logger *slog.Logger) *Storage {
	return &Storage{
		db:     pg.GetDB(),
		logger: logger,
	}
}

// Insert persists a freshly created job.
func (s *Storage) Insert(ctx context.Context, job *domain.Job) error {
	query := `
		INSERT INTO jobs (
			job_id, idempotency_key, owner_id, category_id, name, description,
			pay_amount, time_to_complete_seconds, status, expiry_date,
			retain_until, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10,
			$11, $12, $13
		)
	`

	_, err := s.db.ExecContext(
		ctx,
		query,
		job.JobID,
		job.IdempotencyKey,
		job.OwnerID,
		job.CategoryID,
		job.Name,
		job.Description,
		job.PayAmount,
		job.TimeToCompleteSeconds,
		job.Status,
		job.ExpiryDate,
		job.RetainUntil,
		job.CreatedAt,
		job.UpdatedAt,
	)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" && pqErr.Constraint == "jobs_idempotency_key_key" {
			return domain.ErrIdempotencyConflict
		}
		return fmt.Errorf("failed to insert job: %w", err)
	}

	return nil
}

// Get retrieves a job by id.
func (s *Storage) Get(ctx context.Context, jobID string) (*domain.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE job_id = $1`

	var job domain.Job
	if err := s.db.GetContext(ctx, &job, query, jobID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	return &job, nil
}

// GetByIdempotencyKey retrieves the job created under key.
func (s *Storage) GetByIdempotencyKey(ctx context.Context, key string) (*domain.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE idempotency_key = $1`

	var job domain.Job
	if err := s.db.GetContext(ctx, &job, query, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get job by idempotency key: %w", err)
	}

	return &job, nil
}

// List returns jobs matching the filter, newest first, keyset-paginated on
// (created_at, job_id).
func (s *Storage) List(ctx context.Context, filter jobs.ListFilter) ([]domain.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE 1=1`
	args := []interface{}{}
	argIdx := 1

	if filter.OwnerID != "" {
		query += fmt.Sprintf(" AND owner_id = $%d", argIdx)
		args = append(args, filter.OwnerID)
		argIdx++
	}

	if filter.CategoryID != "" {
		query += fmt.Sprintf(" AND category_id = $%d", argIdx)
		args = append(args, filter.CategoryID)
		argIdx++
	}

	if filter.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, filter.Status)
		argIdx++
	}

	if filter.Cursor != nil {
		query += fmt.Sprintf(" AND (created_at, job_id) < ($%d, $%d)", argIdx, argIdx+1)
		args = append(args, filter.Cursor.CreatedAt, filter.Cursor.JobID)
		argIdx += 2
	}

	query += " ORDER BY created_at DESC, job_id DESC"

	// One extra row tells the caller whether more results exist.
	query += fmt.Sprintf(" LIMIT $%d", argIdx)
	args = append(args, filter.PageSize+1)

	var result []domain.Job
	if err := s.db.SelectContext(ctx, &result, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}

	return result, nil
}

// Claim atomically assigns an open, unexpired listing to claimerID. The
// submission deadline is computed server-side from the row's own
// time_to_complete_seconds, so guard and effect see the same snapshot.
func (s *Storage) Claim(ctx context.Context, jobID, claimerID string, now time.Time) (*domain.Job, error) {
	query := `
		UPDATE jobs
		SET status = $1,
		    claimer_id = $2,
		    claimed_at = $3,
		    submission_deadline = $3::timestamptz + make_interval(secs => time_to_complete_seconds),
		    updated_at = $3
		WHERE job_id = $4
		  AND status = $5
		  AND expiry_date > $3
		  AND owner_id <> $2
		RETURNING ` + jobColumns

	var job domain.Job
	err := s.db.GetContext(ctx, &job, query, domain.StatusClaimed, claimerID, now, jobID, domain.StatusOpen)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("Claim condition not met",
				slog.String("job_id", jobID),
				slog.String("claimer_id", claimerID),
			)
			return nil, s.conditionError(ctx, jobID)
		}
		return nil, fmt.Errorf("failed to claim job: %w", err)
	}

	return &job, nil
}

// Submit atomically marks a claimed job submitted, succeeding up to and
// including the deadline instant.
func (s *Storage) Submit(ctx context.Context, jobID, claimerID string, now time.Time) (*domain.Job, error) {
	query := `
		UPDATE jobs
		SET status = $1,
		    submitted_at = $2,
		    updated_at = $2
		WHERE job_id = $3
		  AND status = $4
		  AND claimer_id = $5
		  AND submission_deadline >= $2
		RETURNING ` + jobColumns

	var job domain.Job
	err := s.db.GetContext(ctx, &job, query, domain.StatusSubmitted, now, jobID, domain.StatusClaimed, claimerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, s.conditionError(ctx, jobID)
		}
		return nil, fmt.Errorf("failed to submit job: %w", err)
	}

	return &job, nil
}

// Approve atomically approves a submitted job, owner only.
func (s *Storage) Approve(ctx context.Context, jobID, ownerID string, now time.Time) (*domain.Job, error) {
	query := `
		UPDATE jobs
		SET status = $1,
		    updated_at = $2
		WHERE job_id = $3
		  AND status = $4
		  AND owner_id = $5
		RETURNING ` + jobColumns

	var job domain.Job
	err := s.db.GetContext(ctx, &job, query, domain.StatusApproved, now, jobID, domain.StatusSubmitted, ownerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, s.conditionError(ctx, jobID)
		}
		return nil, fmt.Errorf("failed to approve job: %w", err)
	}

	return &job, nil
}

// Reject atomically rejects a submitted job; owner or admin.
func (s *Storage) Reject(ctx context.Context, jobID string, actor domain.Actor, now time.Time) (*domain.Job, error) {
	query := `
		UPDATE jobs
		SET status = $1,
		    updated_at = $2
		WHERE job_id = $3
		  AND status = $4
		  AND (owner_id = $5 OR $6)
		RETURNING ` + jobColumns

	var job domain.Job
	err := s.db.GetContext(ctx, &job, query, domain.StatusRejected, now, jobID, domain.StatusSubmitted, actor.ID, actor.Admin)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, s.conditionError(ctx, jobID)
		}
		return nil, fmt.Errorf("failed to reject job: %w", err)
	}

	return &job, nil
}

// Cancel atomically withdraws an open listing; owner or admin.
func (s *Storage) Cancel(ctx context.Context, jobID string, actor domain.Actor, now time.Time) (*domain.Job, error) {
	query := `
		UPDATE jobs
		SET status = $1,
		    updated_at = $2
		WHERE job_id = $3
		  AND status = $4
		  AND (owner_id = $5 OR $6)
		RETURNING ` + jobColumns

	var job domain.Job
	err := s.db.GetContext(ctx, &job, query, domain.StatusCancelled, now, jobID, domain.StatusOpen, actor.ID, actor.Admin)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, s.conditionError(ctx, jobID)
		}
		return nil, fmt.Errorf("failed to cancel job: %w", err)
	}

	return &job, nil
}

// Relist atomically reopens an eligible job with a fresh expiry, clearing
// claimer fields. Admin callers skip the ownership predicate only.
func (s *Storage) Relist(ctx context.Context, jobID string, actor domain.Actor, now, newExpiry time.Time, retainUntil int64) (*domain.Job, error) {
	query := `
		UPDATE jobs
		SET status = 'OPEN',
		    expiry_date = $1,
		    claimer_id = NULL,
		    claimed_at = NULL,
		    submission_deadline = NULL,
		    submitted_at = NULL,
		    retain_until = $2,
		    updated_at = $3
		WHERE job_id = $4
		  AND ($5 OR owner_id = $6)
		  AND (
		        (status = 'OPEN' AND expiry_date <= $3)
		     OR status IN ('APPROVED', 'REJECTED', 'CANCELLED', 'EXPIRED')
		     OR (status IN ('CLAIMED', 'SUBMITTED') AND submission_deadline <= $3)
		  )
		RETURNING ` + jobColumns

	var job domain.Job
	err := s.db.GetContext(ctx, &job, query, newExpiry, retainUntil, now, jobID, actor.Admin, actor.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, s.conditionError(ctx, jobID)
		}
		return nil, fmt.Errorf("failed to relist job: %w", err)
	}

	return &job, nil
}

// MarkExpired writes the sweep's EXPIRED audit marker on an open listing
// past its expiry.
func (s *Storage) MarkExpired(ctx context.Context, jobID string, now time.Time) (*domain.Job, error) {
	query := `
		UPDATE jobs
		SET status = $1,
		    updated_at = $2
		WHERE job_id = $3
		  AND status = $4
		  AND expiry_date <= $2
		RETURNING ` + jobColumns

	var job domain.Job
	err := s.db.GetContext(ctx, &job, query, domain.StatusExpired, now, jobID, domain.StatusOpen)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, s.conditionError(ctx, jobID)
		}
		return nil, fmt.Errorf("failed to mark job expired: %w", err)
	}

	return &job, nil
}

// RevertOverdue reverts a claimed or submitted job whose submission
// deadline has passed back to OPEN, clearing claimer fields. The self-join
// lets RETURNING surface the old row's claim, which the update nulls out;
// the timedout event needs it to name the evicted claimer.
func (s *Storage) RevertOverdue(ctx context.Context, jobID string, now time.Time) (*domain.Reversion, error) {
	query := `
		UPDATE jobs
		SET status = 'OPEN',
		    claimer_id = NULL,
		    claimed_at = NULL,
		    submission_deadline = NULL,
		    submitted_at = NULL,
		    updated_at = $1
		FROM jobs prev
		WHERE jobs.job_id = $2
		  AND prev.job_id = jobs.job_id
		  AND jobs.status IN ('CLAIMED', 'SUBMITTED')
		  AND jobs.submission_deadline <= $1
		RETURNING
		    jobs.job_id, jobs.idempotency_key, jobs.owner_id, jobs.category_id,
		    jobs.name, jobs.description, jobs.pay_amount,
		    jobs.time_to_complete_seconds, jobs.status, jobs.expiry_date,
		    jobs.claimer_id, jobs.claimed_at, jobs.submission_deadline,
		    jobs.submitted_at, jobs.retain_until, jobs.created_at, jobs.updated_at,
		    prev.claimer_id AS prev_claimer_id,
		    prev.submission_deadline AS prev_submission_deadline`

	var row struct {
		domain.Job
		PrevClaimerID          *string    `db:"prev_claimer_id"`
		PrevSubmissionDeadline *time.Time `db:"prev_submission_deadline"`
	}
	err := s.db.GetContext(ctx, &row, query, now, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, s.conditionError(ctx, jobID)
		}
		return nil, fmt.Errorf("failed to revert overdue job: %w", err)
	}

	rev := &domain.Reversion{Job: &row.Job}
	if row.PrevClaimerID != nil {
		rev.ClaimerID = *row.PrevClaimerID
	}
	if row.PrevSubmissionDeadline != nil {
		rev.SubmissionDeadline = *row.PrevSubmissionDeadline
	}

	return rev, nil
}

// ListExpiredOpen returns ids of open listings past their expiry.
func (s *Storage) ListExpiredOpen(ctx context.Context, now time.Time, limit int) ([]string, error) {
	query := `
		SELECT job_id FROM jobs
		WHERE status = $1 AND expiry_date <= $2
		ORDER BY expiry_date
		LIMIT $3
	`

	var ids []string
	if err := s.db.SelectContext(ctx, &ids, query, domain.StatusOpen, now, limit); err != nil {
		return nil, fmt.Errorf("failed to list expired listings: %w", err)
	}

	return ids, nil
}

// ListOverdueClaims returns ids of claimed/submitted jobs past their
// submission deadline.
func (s *Storage) ListOverdueClaims(ctx context.Context, now time.Time, limit int) ([]string, error) {
	query := `
		SELECT job_id FROM jobs
		WHERE status IN ('CLAIMED', 'SUBMITTED') AND submission_deadline <= $1
		ORDER BY submission_deadline
		LIMIT $2
	`

	var ids []string
	if err := s.db.SelectContext(ctx, &ids, query, now, limit); err != nil {
		return nil, fmt.Errorf("failed to list overdue claims: %w", err)
	}

	return ids, nil
}

// PruneRetired deletes terminal records whose retention horizon has passed.
func (s *Storage) PruneRetired(ctx context.Context, now time.Time, limit int) (int64, error) {
	query := `
		DELETE FROM jobs
		WHERE job_id IN (
			SELECT job_id FROM jobs
			WHERE status IN ('APPROVED', 'REJECTED', 'CANCELLED', 'EXPIRED')
			  AND retain_until <= $1
			LIMIT $2
		)
	`

	result, err := s.db.ExecContext(ctx, query, now.Unix(), limit)
	if err != nil {
		return 0, fmt.Errorf("failed to prune retired jobs: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return deleted, nil
}

// conditionError distinguishes a missing record from a failed precondition
// after a conditional update matched nothing.
func (s *Storage) conditionError(ctx context.Context, jobID string) error {
	var exists bool
	err := s.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM jobs WHERE job_id = $1)`, jobID)
	if err != nil {
		return fmt.Errorf("failed to probe job existence: %w", err)
	}
	if !exists {
		return domain.ErrJobNotFound
	}
	return domain.ErrConditionFailed
}
