package api

import (
	"sync/atomic"
	"time"

	"github.com/shemshallah/quantum-foam-rng/pkg/jobs"
)

// Deps holds dependencies for API handlers.
// This pattern enables dependency injection and easier testing.
type Deps struct {
	// Jobs is the job lifecycle service backing the API.
	Jobs JobService

	// DefaultAngleDeg is applied when a create request omits the angle.
	DefaultAngleDeg float64

	// Ready flag for the readiness check.
	Ready *atomic.Bool
}

// JobService is the subset of job-manager operations the API needs.
// Defined here to ease mocking in handler tests.
type JobService interface {
	CreateJob(angleDeg float64) (string, error)
	GetJob(id string) (*jobs.Job, error)
}

// CreatedResponse is returned when a job is accepted.
type CreatedResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

// JobResponse is the polling payload. Exactly one of Result and Reason is
// present for terminal jobs; both are absent while processing.
type JobResponse struct {
	ID          string       `json:"id"`
	Status      string       `json:"status"`
	CreatedAt   time.Time    `json:"created_at"`
	CompletedAt *time.Time   `json:"completed_at,omitempty"`
	Result      *jobs.Result `json:"result,omitempty"`
	Reason      string       `json:"reason,omitempty"`
}

// NewJobResponse converts a job snapshot into its API shape, handling each
// status variant exhaustively so a completed job can never be rendered
// without its result.
func NewJobResponse(job *jobs.Job) JobResponse {
	resp := JobResponse{
		ID:        job.ID,
		Status:    string(job.Status),
		CreatedAt: job.CreatedAt,
	}

	switch job.Status {
	case jobs.StatusCompleted:
		completed := job.CompletedAt
		resp.CompletedAt = &completed
		resp.Result = job.Result
	case jobs.StatusFailed:
		completed := job.CompletedAt
		resp.CompletedAt = &completed
		resp.Reason = job.FailureReason
	case jobs.StatusPending, jobs.StatusDispatching, jobs.StatusAnalyzing, jobs.StatusExtracting:
		// In-flight: status only.
	}
	return resp
}
