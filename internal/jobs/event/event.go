package event

import (
	"time"

	"github.com/gigboard/gigboard/internal/jobs/domain"
)

// Lifecycle event types. The type doubles as the AMQP routing key.
const (
	TypeCreated   = "job.created"
	TypeClaimed   = "job.claimed"
	TypeSubmitted = "job.submitted"
	TypeApproved  = "job.approved"
	TypeRejected  = "job.rejected"
	TypeCancelled = "job.cancelled"
	TypeRelisted  = "job.relisted"
	TypeExpired   = "job.expired"
	TypeTimedOut  = "job.timedout"
)

// Event is the payload published after a committed transition. It carries
// enough data for a consumer to act without a follow-up read.
type Event struct {
	Type               string     `json:"event_type"`
	JobID              string     `json:"job_id"`
	OwnerID            string     `json:"owner_id"`
	CategoryID         string     `json:"category_id,omitempty"`
	Status             string     `json:"status"`
	ClaimerID          string     `json:"claimer_id,omitempty"`
	PayAmount          string     `json:"pay_amount,omitempty"`
	ExpiryDate         *time.Time `json:"expiry_date,omitempty"`
	ClaimedAt          *time.Time `json:"claimed_at,omitempty"`
	SubmissionDeadline *time.Time `json:"submission_deadline,omitempty"`
	SubmittedAt        *time.Time `json:"submitted_at,omitempty"`
	ApprovedAt         *time.Time `json:"approved_at,omitempty"`
	OccurredAt         time.Time  `json:"occurred_at"`
}

// FromJob builds the payload for typ from the post-transition record.
func FromJob(typ string, j *domain.Job, now time.Time) Event {
	evt := Event{
		Type:       typ,
		JobID:      j.JobID,
		OwnerID:    j.OwnerID,
		CategoryID: j.CategoryID,
		Status:     j.Status,
		OccurredAt: now.UTC(),
	}

	if j.ClaimerID != nil {
		evt.ClaimerID = *j.ClaimerID
	}

	switch typ {
	case TypeCreated, TypeRelisted:
		evt.PayAmount = j.PayAmount.String()
		expiry := j.ExpiryDate
		evt.ExpiryDate = &expiry
	case TypeClaimed:
		evt.ClaimedAt = j.ClaimedAt
		evt.SubmissionDeadline = j.SubmissionDeadline
	case TypeSubmitted:
		evt.SubmissionDeadline = j.SubmissionDeadline
		evt.SubmittedAt = j.SubmittedAt
	case TypeApproved:
		// Consumed by the payment component.
		evt.PayAmount = j.PayAmount.String()
		evt.SubmittedAt = j.SubmittedAt
		approvedAt := j.UpdatedAt
		evt.ApprovedAt = &approvedAt
	case TypeExpired:
		expiry := j.ExpiryDate
		evt.ExpiryDate = &expiry
	}

	return evt
}

// FromReversion builds the timedout payload. The reverted record carries no
// claimer anymore, so the claim comes from the reversion's pre-image; a
// notification consumer needs it to tell the evicted claimer.
func FromReversion(rev *domain.Reversion, now time.Time) Event {
	evt := FromJob(TypeTimedOut, rev.Job, now)
	evt.ClaimerID = rev.ClaimerID
	deadline := rev.SubmissionDeadline
	evt.SubmissionDeadline = &deadline
	return evt
}
