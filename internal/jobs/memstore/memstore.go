// Package memstore provides an in-memory jobs.Store. It enforces the same
// transition guards as the Postgres store, serialized under one mutex to
// model the store's per-record atomicity. It backs the coordinator and
// sweeper test suites and local development without a database.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/gigboard/gigboard/internal/jobs"
	"github.com/gigboard/gigboard/internal/jobs/domain"
)

// Store is an in-memory job record store.
type Store struct {
	mu    sync.Mutex
	byID  map[string]*domain.Job
	byKey map[string]string
}

var _ jobs.Store = (*Store)(nil)

// New creates an empty Store.
func New() *Store {
	return &Store{
		byID:  make(map[string]*domain.Job),
		byKey: make(map[string]string),
	}
}

func (s *Store) Insert(_ context.Context, job *domain.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if job.IdempotencyKey != nil {
		if _, used := s.byKey[*job.IdempotencyKey]; used {
			return domain.ErrIdempotencyConflict
		}
		s.byKey[*job.IdempotencyKey] = job.JobID
	}

	s.byID[job.JobID] = clone(job)
	return nil
}

func (s *Store) Get(_ context.Context, jobID string) (*domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.byID[jobID]
	if !ok {
		return nil, domain.ErrJobNotFound
	}
	return clone(job), nil
}

func (s *Store) GetByIdempotencyKey(_ context.Context, key string) (*domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	jobID, ok := s.byKey[key]
	if !ok {
		return nil, domain.ErrJobNotFound
	}
	return clone(s.byID[jobID]), nil
}

func (s *Store) List(_ context.Context, filter jobs.ListFilter) ([]domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []*domain.Job
	for _, job := range s.byID {
		if filter.OwnerID != "" && job.OwnerID != filter.OwnerID {
			continue
		}
		if filter.CategoryID != "" && job.CategoryID != filter.CategoryID {
			continue
		}
		if filter.Status != "" && job.Status != filter.Status {
			continue
		}
		matched = append(matched, job)
	}

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].JobID > matched[j].JobID
	})

	result := make([]domain.Job, 0, len(matched))
	for _, job := range matched {
		if filter.Cursor != nil && !before(job, filter.Cursor) {
			continue
		}
		result = append(result, *clone(job))
		if len(result) == filter.PageSize+1 {
			break
		}
	}

	return result, nil
}

func before(j *domain.Job, cursor *jobs.Cursor) bool {
	if !j.CreatedAt.Equal(cursor.CreatedAt) {
		return j.CreatedAt.Before(cursor.CreatedAt)
	}
	return j.JobID < cursor.JobID
}

func (s *Store) Claim(_ context.Context, jobID, claimerID string, now time.Time) (*domain.Job, error) {
	return s.update(jobID, func(j *domain.Job) error {
		if err := domain.CanClaim(j, domain.Actor{ID: claimerID}, now); err != nil {
			return domain.ErrConditionFailed
		}
		claimedAt := now
		deadline := domain.SubmissionDeadlineAt(now, j.TimeToCompleteSeconds)
		j.Status = domain.StatusClaimed
		j.ClaimerID = &claimerID
		j.ClaimedAt = &claimedAt
		j.SubmissionDeadline = &deadline
		j.UpdatedAt = now
		return nil
	})
}

func (s *Store) Submit(_ context.Context, jobID, claimerID string, now time.Time) (*domain.Job, error) {
	return s.update(jobID, func(j *domain.Job) error {
		if err := domain.CanSubmit(j, domain.Actor{ID: claimerID}, now); err != nil {
			return domain.ErrConditionFailed
		}
		submittedAt := now
		j.Status = domain.StatusSubmitted
		j.SubmittedAt = &submittedAt
		j.UpdatedAt = now
		return nil
	})
}

func (s *Store) Approve(_ context.Context, jobID, ownerID string, now time.Time) (*domain.Job, error) {
	return s.update(jobID, func(j *domain.Job) error {
		if err := domain.CanApprove(j, domain.Actor{ID: ownerID}); err != nil {
			return domain.ErrConditionFailed
		}
		j.Status = domain.StatusApproved
		j.UpdatedAt = now
		return nil
	})
}

func (s *Store) Reject(_ context.Context, jobID string, actor domain.Actor, now time.Time) (*domain.Job, error) {
	return s.update(jobID, func(j *domain.Job) error {
		if err := domain.CanReject(j, actor); err != nil {
			return domain.ErrConditionFailed
		}
		j.Status = domain.StatusRejected
		j.UpdatedAt = now
		return nil
	})
}

func (s *Store) Cancel(_ context.Context, jobID string, actor domain.Actor, now time.Time) (*domain.Job, error) {
	return s.update(jobID, func(j *domain.Job) error {
		if err := domain.CanCancel(j, actor); err != nil {
			return domain.ErrConditionFailed
		}
		j.Status = domain.StatusCancelled
		j.UpdatedAt = now
		return nil
	})
}

func (s *Store) Relist(_ context.Context, jobID string, actor domain.Actor, now, newExpiry time.Time, retainUntil int64) (*domain.Job, error) {
	return s.update(jobID, func(j *domain.Job) error {
		if err := domain.CanRelist(j, actor, now); err != nil {
			return domain.ErrConditionFailed
		}
		j.Status = domain.StatusOpen
		j.ExpiryDate = newExpiry
		j.ClaimerID = nil
		j.ClaimedAt = nil
		j.SubmissionDeadline = nil
		j.SubmittedAt = nil
		j.RetainUntil = retainUntil
		j.UpdatedAt = now
		return nil
	})
}

func (s *Store) MarkExpired(_ context.Context, jobID string, now time.Time) (*domain.Job, error) {
	return s.update(jobID, func(j *domain.Job) error {
		if err := domain.CanExpire(j, now); err != nil {
			return domain.ErrConditionFailed
		}
		j.Status = domain.StatusExpired
		j.UpdatedAt = now
		return nil
	})
}

func (s *Store) RevertOverdue(_ context.Context, jobID string, now time.Time) (*domain.Reversion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.byID[jobID]
	if !ok {
		return nil, domain.ErrJobNotFound
	}
	if err := domain.CanTimeout(job, now); err != nil {
		return nil, domain.ErrConditionFailed
	}

	rev := &domain.Reversion{}
	if job.ClaimerID != nil {
		rev.ClaimerID = *job.ClaimerID
	}
	if job.SubmissionDeadline != nil {
		rev.SubmissionDeadline = *job.SubmissionDeadline
	}

	job.Status = domain.StatusOpen
	job.ClaimerID = nil
	job.ClaimedAt = nil
	job.SubmissionDeadline = nil
	job.SubmittedAt = nil
	job.UpdatedAt = now

	rev.Job = clone(job)
	return rev, nil
}

func (s *Store) ListExpiredOpen(_ context.Context, now time.Time, limit int) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var ids []string
	for id, job := range s.byID {
		if domain.CanExpire(job, now) == nil {
			ids = append(ids, id)
			if len(ids) == limit {
				break
			}
		}
	}
	return ids, nil
}

func (s *Store) ListOverdueClaims(_ context.Context, now time.Time, limit int) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var ids []string
	for id, job := range s.byID {
		if domain.CanTimeout(job, now) == nil {
			ids = append(ids, id)
			if len(ids) == limit {
				break
			}
		}
	}
	return ids, nil
}

func (s *Store) PruneRetired(_ context.Context, now time.Time, limit int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var pruned int64
	for id, job := range s.byID {
		if pruned == int64(limit) {
			break
		}
		if domain.Terminal(job.Status) && job.RetainUntil <= now.Unix() {
			if job.IdempotencyKey != nil {
				delete(s.byKey, *job.IdempotencyKey)
			}
			delete(s.byID, id)
			pruned++
		}
	}
	return pruned, nil
}

// update applies guard and mutation under the mutex, mirroring the
// conditional-update atomicity of the real store.
func (s *Store) update(jobID string, apply func(*domain.Job) error) (*domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.byID[jobID]
	if !ok {
		return nil, domain.ErrJobNotFound
	}
	if err := apply(job); err != nil {
		return nil, err
	}
	return clone(job), nil
}

func clone(j *domain.Job) *domain.Job {
	out := *j
	out.IdempotencyKey = cloneString(j.IdempotencyKey)
	out.ClaimerID = cloneString(j.ClaimerID)
	out.ClaimedAt = cloneTime(j.ClaimedAt)
	out.SubmissionDeadline = cloneTime(j.SubmissionDeadline)
	out.SubmittedAt = cloneTime(j.SubmittedAt)
	return &out
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
