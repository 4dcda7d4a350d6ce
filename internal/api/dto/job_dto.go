package dto

import (
	"time"

	"github.com/gigboard/gigboard/internal/jobs/domain"
)

type CreateJobRequest struct {
	Name                  string `json:"name" binding:"required"`
	Description           string `json:"description" binding:"required"`
	CategoryID            string `json:"category_id" binding:"required"`
	PayAmount             string `json:"pay_amount" binding:"required"`
	TimeToCompleteSeconds int64  `json:"time_to_complete_seconds" binding:"required,gt=0"`
	ExpirySeconds         int64  `json:"expiry_seconds" binding:"required,gt=0"`
}

type RelistJobRequest struct {
	ExpiryDays int `json:"expiry_days" binding:"omitempty,min=1,max=90"`
}

type ListJobsRequest struct {
	OwnerID    string `form:"owner_id"`
	CategoryID string `form:"category_id"`
	Status     string `form:"status"`
	PageSize   int    `form:"page_size"`
	Cursor     string `form:"cursor"`
}

type ListJobsResponse struct {
	Jobs       []JobDTO `json:"jobs"`
	NextCursor string   `json:"next_cursor,omitempty"`
}

type JobDTO struct {
	JobID                 string `json:"job_id"`
	OwnerID               string `json:"owner_id"`
	CategoryID            string `json:"category_id"`
	Name                  string `json:"name"`
	Description           string `json:"description"`
	PayAmount             string `json:"pay_amount"`
	TimeToCompleteSeconds int64  `json:"time_to_complete_seconds"`
	Status                string `json:"status"`
	ExpiryDate            string `json:"expiry_date"`
	ClaimerID             string `json:"claimer_id,omitempty"`
	ClaimedAt             string `json:"claimed_at,omitempty"`
	SubmissionDeadline    string `json:"submission_deadline,omitempty"`
	SubmittedAt           string `json:"submitted_at,omitempty"`
	CreatedAt             string `json:"created_at"`
	UpdatedAt             string `json:"updated_at"`
}

// FromJob maps a domain record to its API representation.
func FromJob(j *domain.Job) JobDTO {
	d := JobDTO{
		JobID:                 j.JobID,
		OwnerID:               j.OwnerID,
		CategoryID:            j.CategoryID,
		Name:                  j.Name,
		Description:           j.Description,
		PayAmount:             j.PayAmount.String(),
		TimeToCompleteSeconds: j.TimeToCompleteSeconds,
		Status:                j.Status,
		ExpiryDate:            j.ExpiryDate.Format(time.RFC3339),
		CreatedAt:             j.CreatedAt.Format(time.RFC3339),
		UpdatedAt:             j.UpdatedAt.Format(time.RFC3339),
	}

	if j.ClaimerID != nil {
		d.ClaimerID = *j.ClaimerID
	}
	if j.ClaimedAt != nil {
		d.ClaimedAt = j.ClaimedAt.Format(time.RFC3339)
	}
	if j.SubmissionDeadline != nil {
		d.SubmissionDeadline = j.SubmissionDeadline.Format(time.RFC3339)
	}
	if j.SubmittedAt != nil {
		d.SubmittedAt = j.SubmittedAt.Format(time.RFC3339)
	}

	return d
}
