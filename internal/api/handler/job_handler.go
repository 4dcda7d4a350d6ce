package handler

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gigboard/gigboard/internal/api/dto"
	"github.com/gigboard/gigboard/internal/jobs"
	"github.com/gigboard/gigboard/internal/jobs/domain"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateJob handles POST /api/v1/jobs
func (h *JobHandler) CreateJob(c *gin.Context) {
	var req dto.CreateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	payAmount, err := decimal.NewFromString(req.PayAmount)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "pay_amount must be a decimal number"})
		return
	}

	in := &domain.CreateInput{
		OwnerID:               actorFrom(c).ID,
		Name:                  req.Name,
		Description:           req.Description,
		CategoryID:            req.CategoryID,
		PayAmount:             payAmount,
		TimeToCompleteSeconds: req.TimeToCompleteSeconds,
		ExpirySeconds:         req.ExpirySeconds,
		IdempotencyKey:        c.GetHeader("Idempotency-Key"),
	}

	job, err := h.coordinator.CreateJob(c.Request.Context(), in)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.FromJob(job))
}

// GetJob handles GET /api/v1/jobs/:job_id
func (h *JobHandler) GetJob(c *gin.Context) {
	jobID, ok := h.jobIDParam(c)
	if !ok {
		return
	}

	job, err := h.coordinator.GetJob(c.Request.Context(), jobID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromJob(job))
}

// ListJobs handles GET /api/v1/jobs
func (h *JobHandler) ListJobs(c *gin.Context) {
	var req dto.ListJobsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters"})
		return
	}

	if req.PageSize <= 0 {
		req.PageSize = 20
	}
	if req.PageSize > 100 {
		req.PageSize = 100
	}

	cursor, err := DecodeJobCursor(req.Cursor)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid cursor"})
		return
	}

	filter := jobs.ListFilter{
		OwnerID:    req.OwnerID,
		CategoryID: req.CategoryID,
		Status:     req.Status,
		PageSize:   req.PageSize,
		Cursor:     cursor,
	}

	result, err := h.coordinator.ListJobs(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, err)
		return
	}

	hasMore := len(result) > req.PageSize
	if hasMore {
		result = result[:req.PageSize]
	}

	jobDTOs := make([]dto.JobDTO, len(result))
	for i := range result {
		jobDTOs[i] = dto.FromJob(&result[i])
	}

	var nextCursor string
	if hasMore {
		last := result[len(result)-1]
		nextCursor = EncodeJobCursor(&jobs.Cursor{
			CreatedAt: last.CreatedAt,
			JobID:     last.JobID,
		})
	}

	c.JSON(http.StatusOK, dto.ListJobsResponse{
		Jobs:       jobDTOs,
		NextCursor: nextCursor,
	})
}

// ClaimJob handles POST /api/v1/jobs/:job_id/claim
func (h *JobHandler) ClaimJob(c *gin.Context) {
	h.transition(c, "claim", func(jobID string, actor domain.Actor) (*domain.Job, error) {
		return h.coordinator.ClaimJob(c.Request.Context(), jobID, actor)
	})
}

// SubmitJob handles POST /api/v1/jobs/:job_id/submit
func (h *JobHandler) SubmitJob(c *gin.Context) {
	h.transition(c, "submit", func(jobID string, actor domain.Actor) (*domain.Job, error) {
		return h.coordinator.SubmitJob(c.Request.Context(), jobID, actor)
	})
}

// ApproveJob handles POST /api/v1/jobs/:job_id/approve
func (h *JobHandler) ApproveJob(c *gin.Context) {
	h.transition(c, "approve", func(jobID string, actor domain.Actor) (*domain.Job, error) {
		return h.coordinator.ApproveJob(c.Request.Context(), jobID, actor)
	})
}

// RejectJob handles POST /api/v1/jobs/:job_id/reject
func (h *JobHandler) RejectJob(c *gin.Context) {
	h.transition(c, "reject", func(jobID string, actor domain.Actor) (*domain.Job, error) {
		return h.coordinator.RejectJob(c.Request.Context(), jobID, actor)
	})
}

// CancelJob handles POST /api/v1/jobs/:job_id/cancel
func (h *JobHandler) CancelJob(c *gin.Context) {
	h.transition(c, "cancel", func(jobID string, actor domain.Actor) (*domain.Job, error) {
		return h.coordinator.CancelJob(c.Request.Context(), jobID, actor)
	})
}

// RelistJob handles POST /api/v1/jobs/:job_id/relist
// The body is optional; an absent or zero expiry_days means the default.
func (h *JobHandler) RelistJob(c *gin.Context) {
	jobID, ok := h.jobIDParam(c)
	if !ok {
		return
	}

	var req dto.RelistJobRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}
	}

	job, err := h.coordinator.RelistJob(c.Request.Context(), jobID, actorFrom(c), req.ExpiryDays)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromJob(job))
}

// transition runs one body-less lifecycle operation and writes the outcome.
func (h *JobHandler) transition(c *gin.Context, name string, op func(string, domain.Actor) (*domain.Job, error)) {
	jobID, ok := h.jobIDParam(c)
	if !ok {
		return
	}

	actor := actorFrom(c)

	job, err := op(jobID, actor)
	if err != nil {
		h.logger.Info(fmt.Sprintf("Job %s refused", name),
			slog.String("job_id", jobID),
			slog.String("actor_id", actor.ID),
			slog.String("reason", err.Error()),
		)
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromJob(job))
}

func (h *JobHandler) jobIDParam(c *gin.Context) (string, bool) {
	jobID := c.Param("job_id")
	if _, err := uuid.Parse(jobID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "job_id must be a valid UUID"})
		return "", false
	}
	return jobID, true
}
