package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cuongbtq/chauffer-be/internal/api/dto"
	"github.com/cuongbtq/chauffer-be/internal/domain"
	"github.com/cuongbtq/chauffer-be/internal/lifecycle"
)

// ListAvailable handles GET /api/v1/jobs/available
func (h *JobHandler) ListAvailable(c *gin.Context) {
	jobs, err := h.lifecycle.Available(c.Request.Context(), CurrentSession(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, dto.ListJobsResponse{Jobs: nonNil(jobs)})
}

// ListPosted handles GET /api/v1/jobs/posted
func (h *JobHandler) ListPosted(c *gin.Context) {
	jobs, err := h.lifecycle.Posted(c.Request.Context(), CurrentSession(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, dto.ListJobsResponse{Jobs: nonNil(jobs)})
}

// ListClaimed handles GET /api/v1/jobs/claimed
func (h *JobHandler) ListClaimed(c *gin.Context) {
	jobs, err := h.lifecycle.Claimed(c.Request.Context(), CurrentSession(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, dto.ListJobsResponse{Jobs: nonNil(jobs)})
}

// GetJob handles GET /api/v1/jobs/:job_id
func (h *JobHandler) GetJob(c *gin.Context) {
	job, err := h.lifecycle.Get(c.Request.Context(), c.Param("job_id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, dto.JobResponse{Job: job})
}

// PostJob handles POST /api/v1/jobs
func (h *JobHandler) PostJob(c *gin.Context) {
	var req dto.PostJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request body", slog.String("error", err.Error()))
		respondError(c, h.logger, bindingError(err))
		return
	}

	result, err := h.lifecycle.Post(c.Request.Context(), CurrentSession(c), req.ToNewJob())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// ClaimJob handles POST /api/v1/jobs/:job_id/claim. Anonymous callers get a sign-in hint.
func (h *JobHandler) ClaimJob(c *gin.Context) {
	h.respond(c, func() (*lifecycle.Result, error) {
		return h.lifecycle.Claim(c.Request.Context(), CurrentSession(c), c.Param("job_id"))
	})
}

// StartJob handles POST /api/v1/jobs/:job_id/start
func (h *JobHandler) StartJob(c *gin.Context) {
	h.respond(c, func() (*lifecycle.Result, error) {
		return h.lifecycle.Start(c.Request.Context(), CurrentSession(c), c.Param("job_id"))
	})
}

// CompleteJob handles POST /api/v1/jobs/:job_id/complete
func (h *JobHandler) CompleteJob(c *gin.Context) {
	h.respond(c, func() (*lifecycle.Result, error) {
		return h.lifecycle.Complete(c.Request.Context(), CurrentSession(c), c.Param("job_id"))
	})
}

// CancelJob handles POST /api/v1/jobs/:job_id/cancel
func (h *JobHandler) CancelJob(c *gin.Context) {
	var req dto.CancelJobRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		h.logger.Warn("Invalid request body", slog.String("error", err.Error()))
		respondError(c, h.logger, bindingError(err))
		return
	}

	h.respond(c, func() (*lifecycle.Result, error) {
		return h.lifecycle.Cancel(c.Request.Context(), CurrentSession(c), c.Param("job_id"), req.Reason)
	})
}

func (h *JobHandler) respond(c *gin.Context, op func() (*lifecycle.Result, error)) {
	result, err := op()
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// bindingError turns a bind failure into a ValidationError naming the offending fields
func bindingError(err error) error {
	fields := dto.InvalidFields(err)
	switch {
	case fields == nil:
		return domain.NewValidationError("Invalid request body")
	case dto.MissingOnly(err):
		return domain.NewValidationError("Please fill in all required fields", fields...)
	default:
		return domain.NewValidationError("Some fields are invalid", fields...)
	}
}

func nonNil(jobs []domain.Job) []domain.Job {
	if jobs == nil {
		return []domain.Job{}
	}
	return jobs
}
