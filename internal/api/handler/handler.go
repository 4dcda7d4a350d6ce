package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gigboard/gigboard/internal/jobs"
	"github.com/gigboard/gigboard/internal/jobs/domain"
	"github.com/gin-gonic/gin"
)

// Context keys set by the actor middleware.
const (
	CtxActorID    = "actor_id"
	CtxActorAdmin = "actor_admin"
)

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Logger      *slog.Logger
	Coordinator *jobs.Coordinator
}

// JobHandler handles job lifecycle HTTP requests
type JobHandler struct {
	logger      *slog.Logger
	coordinator *jobs.Coordinator
}

// NewJobHandler creates a new JobHandler instance
func NewJobHandler(deps *Dependencies) *JobHandler {
	return &JobHandler{
		logger:      deps.Logger,
		coordinator: deps.Coordinator,
	}
}

func actorFrom(c *gin.Context) domain.Actor {
	return domain.Actor{
		ID:    c.GetString(CtxActorID),
		Admin: c.GetBool(CtxActorAdmin),
	}
}

// respondError maps a coordinator error to its HTTP outcome. Precondition
// failures are legitimate lost races, surfaced as 409s and never retried
// server-side.
func (h *JobHandler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrJobNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
	case errors.Is(err, domain.ErrNotOwner), errors.Is(err, domain.ErrNotAuthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrAlreadyClaimed),
		errors.Is(err, domain.ErrNotClaimedByActor),
		errors.Is(err, domain.ErrDeadlineExceeded),
		errors.Is(err, domain.ErrNotSubmitted),
		errors.Is(err, domain.ErrNotRelistable),
		errors.Is(err, domain.ErrNotCancellable):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		h.logger.Error("Store error",
			slog.String("path", c.Request.URL.Path),
			slog.Any("error", err),
		)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "temporarily unavailable"})
	}
}
