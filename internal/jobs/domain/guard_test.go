package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func jobInStatus(status string, now time.Time) *Job {
	j := &Job{
		JobID:                 "job-1",
		OwnerID:               "owner-1",
		CategoryID:            "cat-1",
		Name:                  "Paint the fence",
		Status:                status,
		TimeToCompleteSeconds: 3600,
		ExpiryDate:            now.Add(24 * time.Hour),
		CreatedAt:             now,
		UpdatedAt:             now,
	}

	switch status {
	case StatusClaimed, StatusSubmitted:
		claimer := "worker-1"
		claimedAt := now.Add(-10 * time.Minute)
		deadline := now.Add(time.Hour)
		j.ClaimerID = &claimer
		j.ClaimedAt = &claimedAt
		j.SubmissionDeadline = &deadline
		if status == StatusSubmitted {
			submittedAt := now
			j.SubmittedAt = &submittedAt
		}
	}

	return j
}

func TestCanClaim(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	worker := Actor{ID: "worker-1"}

	t.Run("only open jobs are claimable", func(t *testing.T) {
		for _, status := range Statuses {
			err := CanClaim(jobInStatus(status, now), worker, now)
			if status == StatusOpen {
				assert.NoError(t, err, status)
			} else {
				assert.ErrorIs(t, err, ErrAlreadyClaimed, status)
			}
		}
	})

	t.Run("expired listing is not claimable", func(t *testing.T) {
		j := jobInStatus(StatusOpen, now)
		j.ExpiryDate = now
		assert.ErrorIs(t, CanClaim(j, worker, now), ErrAlreadyClaimed)

		j.ExpiryDate = now.Add(-time.Minute)
		assert.ErrorIs(t, CanClaim(j, worker, now), ErrAlreadyClaimed)
	})

	t.Run("owner cannot claim own job", func(t *testing.T) {
		j := jobInStatus(StatusOpen, now)
		assert.ErrorIs(t, CanClaim(j, Actor{ID: "owner-1"}, now), ErrAlreadyClaimed)
	})
}

func TestCanSubmit(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	claimer := Actor{ID: "worker-1"}

	t.Run("only claimed jobs are submittable", func(t *testing.T) {
		for _, status := range Statuses {
			err := CanSubmit(jobInStatus(status, now), claimer, now)
			if status == StatusClaimed {
				assert.NoError(t, err, status)
			} else {
				assert.ErrorIs(t, err, ErrNotClaimedByActor, status)
			}
		}
	})

	t.Run("only the claimer may submit", func(t *testing.T) {
		j := jobInStatus(StatusClaimed, now)
		assert.ErrorIs(t, CanSubmit(j, Actor{ID: "worker-2"}, now), ErrNotClaimedByActor)
		assert.ErrorIs(t, CanSubmit(j, Actor{ID: "owner-1"}, now), ErrNotClaimedByActor)
	})

	t.Run("deadline boundary is inclusive", func(t *testing.T) {
		j := jobInStatus(StatusClaimed, now)
		deadline := now
		j.SubmissionDeadline = &deadline

		assert.NoError(t, CanSubmit(j, claimer, now))
		assert.ErrorIs(t, CanSubmit(j, claimer, now.Add(time.Nanosecond)), ErrDeadlineExceeded)
	})
}

func TestCanApprove(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	owner := Actor{ID: "owner-1"}

	t.Run("only submitted jobs are approvable", func(t *testing.T) {
		for _, status := range Statuses {
			err := CanApprove(jobInStatus(status, now), owner)
			if status == StatusSubmitted {
				assert.NoError(t, err, status)
			} else {
				assert.ErrorIs(t, err, ErrNotSubmitted, status)
			}
		}
	})

	t.Run("only the owner may approve", func(t *testing.T) {
		j := jobInStatus(StatusSubmitted, now)
		assert.ErrorIs(t, CanApprove(j, Actor{ID: "worker-1"}), ErrNotOwner)
		// Approval releases payment, so not even admins bypass ownership.
		assert.ErrorIs(t, CanApprove(j, Actor{ID: "admin-1", Admin: true}), ErrNotOwner)
	})
}

func TestCanReject(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	t.Run("only submitted jobs are rejectable", func(t *testing.T) {
		for _, status := range Statuses {
			err := CanReject(jobInStatus(status, now), Actor{ID: "owner-1"})
			if status == StatusSubmitted {
				assert.NoError(t, err, status)
			} else {
				assert.ErrorIs(t, err, ErrNotSubmitted, status)
			}
		}
	})

	t.Run("owner or admin may reject", func(t *testing.T) {
		j := jobInStatus(StatusSubmitted, now)
		assert.NoError(t, CanReject(j, Actor{ID: "owner-1"}))
		assert.NoError(t, CanReject(j, Actor{ID: "admin-1", Admin: true}))
		assert.ErrorIs(t, CanReject(j, Actor{ID: "worker-1"}), ErrNotAuthorized)
	})
}

func TestCanCancel(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	t.Run("only open jobs are cancellable", func(t *testing.T) {
		for _, status := range Statuses {
			err := CanCancel(jobInStatus(status, now), Actor{ID: "owner-1"})
			if status == StatusOpen {
				assert.NoError(t, err, status)
			} else {
				assert.ErrorIs(t, err, ErrNotCancellable, status)
			}
		}
	})

	t.Run("owner or admin may cancel", func(t *testing.T) {
		j := jobInStatus(StatusOpen, now)
		assert.NoError(t, CanCancel(j, Actor{ID: "owner-1"}))
		assert.NoError(t, CanCancel(j, Actor{ID: "admin-1", Admin: true}))
		assert.ErrorIs(t, CanCancel(j, Actor{ID: "worker-1"}), ErrNotAuthorized)
	})
}

func TestCanRelist(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	owner := Actor{ID: "owner-1"}

	t.Run("terminal statuses are relistable", func(t *testing.T) {
		for _, status := range []string{StatusApproved, StatusRejected, StatusCancelled, StatusExpired} {
			assert.NoError(t, CanRelist(jobInStatus(status, now), owner, now), status)
		}
	})

	t.Run("open listing relistable only once expired", func(t *testing.T) {
		j := jobInStatus(StatusOpen, now)
		assert.ErrorIs(t, CanRelist(j, owner, now), ErrNotRelistable)

		j.ExpiryDate = now
		assert.NoError(t, CanRelist(j, owner, now))
	})

	t.Run("active claim blocks relist until the deadline passes", func(t *testing.T) {
		for _, status := range []string{StatusClaimed, StatusSubmitted} {
			j := jobInStatus(status, now)
			assert.ErrorIs(t, CanRelist(j, owner, now), ErrNotRelistable, status)

			deadline := now.Add(-time.Second)
			j.SubmissionDeadline = &deadline
			assert.NoError(t, CanRelist(j, owner, now), status)
		}
	})

	t.Run("owner or admin may relist", func(t *testing.T) {
		j := jobInStatus(StatusCancelled, now)
		assert.NoError(t, CanRelist(j, owner, now))
		assert.NoError(t, CanRelist(j, Actor{ID: "admin-1", Admin: true}, now))
		assert.ErrorIs(t, CanRelist(j, Actor{ID: "worker-1"}, now), ErrNotRelistable)
	})
}

func TestCanExpire(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	for _, status := range Statuses {
		j := jobInStatus(status, now)
		j.ExpiryDate = now.Add(-time.Minute)
		err := CanExpire(j, now)
		if status == StatusOpen {
			assert.NoError(t, err, status)
		} else {
			assert.ErrorIs(t, err, ErrConditionFailed, status)
		}
	}

	t.Run("unexpired listing stays", func(t *testing.T) {
		j := jobInStatus(StatusOpen, now)
		assert.ErrorIs(t, CanExpire(j, now), ErrConditionFailed)
	})

	t.Run("boundary instant is expired", func(t *testing.T) {
		j := jobInStatus(StatusOpen, now)
		j.ExpiryDate = now
		assert.NoError(t, CanExpire(j, now))
	})
}

func TestCanTimeout(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	for _, status := range Statuses {
		j := jobInStatus(status, now)
		if j.SubmissionDeadline != nil {
			deadline := now.Add(-time.Minute)
			j.SubmissionDeadline = &deadline
		}
		err := CanTimeout(j, now)
		if status == StatusClaimed || status == StatusSubmitted {
			assert.NoError(t, err, status)
		} else {
			assert.ErrorIs(t, err, ErrConditionFailed, status)
		}
	}

	t.Run("future deadline is not overdue", func(t *testing.T) {
		j := jobInStatus(StatusClaimed, now)
		assert.ErrorIs(t, CanTimeout(j, now), ErrConditionFailed)
	})

	t.Run("boundary instant is overdue", func(t *testing.T) {
		j := jobInStatus(StatusClaimed, now)
		deadline := now
		j.SubmissionDeadline = &deadline
		assert.NoError(t, CanTimeout(j, now))
	})
}
