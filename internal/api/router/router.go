package router

import (
	"net/http"

	"github.com/gigboard/gigboard/internal/api/handler"
	"github.com/gin-gonic/gin"
)

// SetupRouter configures and returns the Gin router with all routes
func SetupRouter(deps *handler.Dependencies) *gin.Engine {
	r := gin.New()

	// Middleware
	r.Use(gin.Recovery())
	r.Use(LoggerMiddleware(deps.Logger))
	r.Use(CORSMiddleware())

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "job-api-service",
		})
	})

	jobHandler := handler.NewJobHandler(deps)

	v1 := r.Group("/api/v1")
	{
		jobs := v1.Group("/jobs")
		{
			// Reads need no actor identity.
			jobs.GET("", jobHandler.ListJobs)
			jobs.GET("/:job_id", jobHandler.GetJob)

			// Lifecycle transitions act on behalf of an authenticated
			// caller; identity claims arrive pre-parsed in headers.
			authed := jobs.Group("")
			authed.Use(ActorMiddleware())
			{
				authed.POST("", jobHandler.CreateJob)
				authed.POST("/:job_id/claim", jobHandler.ClaimJob)
				authed.POST("/:job_id/submit", jobHandler.SubmitJob)
				authed.POST("/:job_id/approve", jobHandler.ApproveJob)
				authed.POST("/:job_id/reject", jobHandler.RejectJob)
				authed.POST("/:job_id/relist", jobHandler.RelistJob)
				authed.POST("/:job_id/cancel", jobHandler.CancelJob)
			}
		}
	}

	return r
}
