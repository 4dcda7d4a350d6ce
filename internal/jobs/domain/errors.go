package domain

import "errors"

var (
	// ErrValidation is returned for malformed or out-of-range input,
	// before any store access.
	ErrValidation = errors.New("validation failed")

	// ErrJobNotFound is returned when the job id does not exist.
	ErrJobNotFound = errors.New("job not found")

	// ErrAlreadyClaimed is returned when a claim loses the race or the
	// listing is otherwise unavailable (expired, not open, own job).
	ErrAlreadyClaimed = errors.New("job already claimed or unavailable")

	// ErrNotClaimedByActor is returned when a submit comes from anyone
	// other than the current claimer of a CLAIMED job.
	ErrNotClaimedByActor = errors.New("job not claimed by actor")

	// ErrDeadlineExceeded is returned for a submit after the submission
	// deadline; the job reverts to OPEN.
	ErrDeadlineExceeded = errors.New("submission deadline exceeded")

	// ErrNotSubmitted is returned when approve/reject targets a job that
	// is not in SUBMITTED status.
	ErrNotSubmitted = errors.New("job not submitted")

	// ErrNotOwner is returned when approve comes from anyone but the owner.
	ErrNotOwner = errors.New("actor is not the job owner")

	// ErrNotAuthorized is returned when reject or cancel comes from
	// someone who is neither the owner nor an admin.
	ErrNotAuthorized = errors.New("actor not authorized")

	// ErrNotRelistable is returned when a relist targets a job whose
	// status or ownership makes it ineligible.
	ErrNotRelistable = errors.New("job not relistable")

	// ErrNotCancellable is returned when a cancel targets a job that is
	// not OPEN.
	ErrNotCancellable = errors.New("job not cancellable")

	// ErrConditionFailed is the store's report that a conditional update
	// matched no row even though the record exists. The coordinator maps
	// it to one of the typed errors above.
	ErrConditionFailed = errors.New("conditional update precondition failed")

	// ErrIdempotencyConflict is the store's report that an insert hit an
	// existing idempotency key.
	ErrIdempotencyConflict = errors.New("idempotency key already used")
)
