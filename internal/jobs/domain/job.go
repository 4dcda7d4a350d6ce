package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Job status constants. EXPIRED is written by the reconciliation sweep as an
// audit marker; guards treat it the same as an OPEN listing past its expiry.
const (
	StatusOpen      = "OPEN"
	StatusClaimed   = "CLAIMED"
	StatusSubmitted = "SUBMITTED"
	StatusApproved  = "APPROVED"
	StatusRejected  = "REJECTED"
	StatusCancelled = "CANCELLED"
	StatusExpired   = "EXPIRED"
)

// Statuses lists every persisted job status.
var Statuses = []string{
	StatusOpen,
	StatusClaimed,
	StatusSubmitted,
	StatusApproved,
	StatusRejected,
	StatusCancelled,
	StatusExpired,
}

// Actor identifies the caller of a lifecycle operation. Admin bypasses
// ownership checks but never status eligibility.
type Actor struct {
	ID    string
	Admin bool
}

// Job is the single record the coordinator mutates. Claimer fields are
// non-nil iff the job is CLAIMED or SUBMITTED.
type Job struct {
	JobID                 string          `db:"job_id"`
	IdempotencyKey        *string         `db:"idempotency_key"`
	OwnerID               string          `db:"owner_id"`
	CategoryID            string          `db:"category_id"`
	Name                  string          `db:"name"`
	Description           string          `db:"description"`
	PayAmount             decimal.Decimal `db:"pay_amount"`
	TimeToCompleteSeconds int64           `db:"time_to_complete_seconds"`
	Status                string          `db:"status"`
	ExpiryDate            time.Time       `db:"expiry_date"`
	ClaimerID             *string         `db:"claimer_id"`
	ClaimedAt             *time.Time      `db:"claimed_at"`
	SubmissionDeadline    *time.Time      `db:"submission_deadline"`
	SubmittedAt           *time.Time      `db:"submitted_at"`
	RetainUntil           int64           `db:"retain_until"`
	CreatedAt             time.Time       `db:"created_at"`
	UpdatedAt             time.Time       `db:"updated_at"`
}

// CreateInput carries everything needed to post a new job listing.
type CreateInput struct {
	OwnerID               string
	Name                  string
	Description           string
	CategoryID            string
	PayAmount             decimal.Decimal
	TimeToCompleteSeconds int64
	ExpirySeconds         int64
	IdempotencyKey        string
}

// Validate rejects malformed input before any store access.
func (in *CreateInput) Validate() error {
	if strings.TrimSpace(in.OwnerID) == "" {
		return fmt.Errorf("%w: owner_id is required", ErrValidation)
	}
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	if strings.TrimSpace(in.Description) == "" {
		return fmt.Errorf("%w: description is required", ErrValidation)
	}
	if strings.TrimSpace(in.CategoryID) == "" {
		return fmt.Errorf("%w: category_id is required", ErrValidation)
	}
	if !in.PayAmount.IsPositive() {
		return fmt.Errorf("%w: pay_amount must be greater than 0", ErrValidation)
	}
	if in.TimeToCompleteSeconds <= 0 {
		return fmt.Errorf("%w: time_to_complete_seconds must be greater than 0", ErrValidation)
	}
	if in.ExpirySeconds <= 0 {
		return fmt.Errorf("%w: expiry_seconds must be greater than 0", ErrValidation)
	}
	return nil
}

// NewJob builds an OPEN job record from validated input.
func NewJob(in *CreateInput, now time.Time) *Job {
	now = now.UTC()
	expiry := ExpiryAt(now, in.ExpirySeconds)

	job := &Job{
		JobID:                 uuid.New().String(),
		OwnerID:               in.OwnerID,
		CategoryID:            in.CategoryID,
		Name:                  in.Name,
		Description:           in.Description,
		PayAmount:             in.PayAmount,
		TimeToCompleteSeconds: in.TimeToCompleteSeconds,
		Status:                StatusOpen,
		ExpiryDate:            expiry,
		RetainUntil:           RetainUntil(expiry),
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	if in.IdempotencyKey != "" {
		key := in.IdempotencyKey
		job.IdempotencyKey = &key
	}
	return job
}

// Reversion pairs a record reverted to OPEN with the claim the reversion
// cleared. The record itself carries NULL claimer fields after the update,
// so the pre-image is the only place consumers can learn whose claim was
// evicted.
type Reversion struct {
	Job                *Job
	ClaimerID          string
	SubmissionDeadline time.Time
}

// Terminal reports whether the status triggers no further automatic
// transitions. Relisting can still reopen any of these.
func Terminal(status string) bool {
	switch status {
	case StatusApproved, StatusRejected, StatusCancelled, StatusExpired:
		return true
	}
	return false
}
