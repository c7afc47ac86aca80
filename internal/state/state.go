// Package state tracks live processing runs so callers can poll status while
// the pipeline works. Stores hold the mutable view of a run; the immutable
// outcome lives in the archive once processing finishes.
package state

import (
	"context"
	"time"

	"github.com/yashsmehta/auto-apply/models"
)

// Status of a tracked run.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Run is the live view of one processing run.
type Run struct {
	ID         string    `json:"id"`
	AppName    string    `json:"app_name"`
	Status     Status    `json:"status"`
	Step       int       `json:"step"`
	TotalSteps int       `json:"total_steps"`
	Percentage int       `json:"percentage"`
	Message    string    `json:"message"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Store tracks runs. Get and Update return models.ErrRunNotFound for unknown
// ids. Update applies fn to the stored run and persists the result; a run is
// only mutated by the goroutine driving its pipeline, so stores may implement
// it as read-modify-write.
type Store interface {
	Create(ctx context.Context, appName string) (Run, error)
	Get(ctx context.Context, id string) (Run, error)
	Update(ctx context.Context, id string, fn func(*Run)) (Run, error)
	List(ctx context.Context) ([]Run, error)
}

// Progress returns an Update mutation applying a pipeline progress event.
func Progress(ev models.ProgressEvent) func(*Run) {
	return func(r *Run) {
		r.Status = StatusInProgress
		r.Step = ev.Step
		r.TotalSteps = ev.TotalSteps
		r.Percentage = ev.Percentage
		r.Message = ev.Message
	}
}

// Finish returns an Update mutation closing a run from its final report.
func Finish(report models.ProcessingReport) func(*Run) {
	return func(r *Run) {
		if report.Status == models.StatusSuccess {
			r.Status = StatusCompleted
			return
		}
		r.Status = StatusFailed
		r.Error = report.Error
	}
}
