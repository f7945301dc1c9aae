package jobs

import (
	"fmt"
	"time"
)

// ValidationError rejects bad input to CreateJob before any record exists.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Msg)
}

// NotFoundError reports a query for an unknown or evicted job id.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("job %s not found", e.ID)
}

// JobTimeoutError reports that a job exceeded its wall-clock ceiling and
// was canceled.
type JobTimeoutError struct {
	ID    string
	Limit time.Duration
}

func (e *JobTimeoutError) Error() string {
	return fmt.Sprintf("job %s exceeded %s processing ceiling", e.ID, e.Limit)
}
