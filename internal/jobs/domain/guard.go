package domain

import "time"

// Transition guards. Each is a pure predicate over (record, actor, now) that
// returns nil when the transition is eligible and the typed error explaining
// the refusal otherwise. The Postgres store encodes the same predicates in
// its conditional UPDATE statements; these functions are the single source
// of truth for the in-memory store and for explaining a lost race.
//
// Deadline comparisons are inclusive of the boundary instant for success:
// submit at now == deadline succeeds, and the timeout reversion becomes
// eligible at the same instant. The store's per-record atomicity guarantees
// exactly one of two racing updates wins.

// CanClaim reports whether actor may claim the job at now.
func CanClaim(j *Job, actor Actor, now time.Time) error {
	if j.Status != StatusOpen {
		return ErrAlreadyClaimed
	}
	if !j.ExpiryDate.After(now) {
		return ErrAlreadyClaimed
	}
	if actor.ID == j.OwnerID {
		return ErrAlreadyClaimed
	}
	return nil
}

// CanSubmit reports whether actor may submit the job at now.
func CanSubmit(j *Job, actor Actor, now time.Time) error {
	if j.Status != StatusClaimed {
		return ErrNotClaimedByActor
	}
	if j.ClaimerID == nil || *j.ClaimerID != actor.ID {
		return ErrNotClaimedByActor
	}
	if j.SubmissionDeadline == nil {
		return ErrNotClaimedByActor
	}
	if now.After(*j.SubmissionDeadline) {
		return ErrDeadlineExceeded
	}
	return nil
}

// CanApprove reports whether actor may approve the submitted job.
func CanApprove(j *Job, actor Actor) error {
	if j.Status != StatusSubmitted {
		return ErrNotSubmitted
	}
	if actor.ID != j.OwnerID {
		return ErrNotOwner
	}
	return nil
}

// CanReject reports whether actor may reject the submitted job.
func CanReject(j *Job, actor Actor) error {
	if j.Status != StatusSubmitted {
		return ErrNotSubmitted
	}
	if !actor.Admin && actor.ID != j.OwnerID {
		return ErrNotAuthorized
	}
	return nil
}

// CanCancel reports whether actor may cancel the open job.
func CanCancel(j *Job, actor Actor) error {
	if j.Status != StatusOpen {
		return ErrNotCancellable
	}
	if !actor.Admin && actor.ID != j.OwnerID {
		return ErrNotAuthorized
	}
	return nil
}

// CanRelist reports whether actor may relist the job at now. Admins bypass
// the ownership check but not status eligibility.
func CanRelist(j *Job, actor Actor, now time.Time) error {
	if !relistEligible(j, now) {
		return ErrNotRelistable
	}
	if !actor.Admin && actor.ID != j.OwnerID {
		return ErrNotRelistable
	}
	return nil
}

func relistEligible(j *Job, now time.Time) bool {
	switch j.Status {
	case StatusOpen:
		return !j.ExpiryDate.After(now)
	case StatusApproved, StatusRejected, StatusCancelled, StatusExpired:
		return true
	case StatusClaimed, StatusSubmitted:
		return j.SubmissionDeadline != nil && !j.SubmissionDeadline.After(now)
	}
	return false
}

// CanExpire reports whether the sweep may mark the listing expired.
func CanExpire(j *Job, now time.Time) error {
	if j.Status != StatusOpen || j.ExpiryDate.After(now) {
		return ErrConditionFailed
	}
	return nil
}

// CanTimeout reports whether the sweep may revert an overdue claim.
func CanTimeout(j *Job, now time.Time) error {
	if j.Status != StatusClaimed && j.Status != StatusSubmitted {
		return ErrConditionFailed
	}
	if j.SubmissionDeadline == nil || j.SubmissionDeadline.After(now) {
		return ErrConditionFailed
	}
	return nil
}
