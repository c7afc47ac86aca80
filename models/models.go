package models

import (
	"errors"
	"math"
	"time"
)

// ErrRunNotFound is returned when a run is not found
var ErrRunNotFound = errors.New("run not found")

// ErrReportNotFound is returned when a saved report is not found
var ErrReportNotFound = errors.New("report not found")

// Application is one form-filling job: an information page, an application
// form page, and optional free-text context supplied by the user.
type Application struct {
	Name           string `json:"name"`
	InfoURL        string `json:"info_url"`
	ApplicationURL string `json:"application_url"`
	Context        string `json:"context,omitempty"`
}

// StageStatus tracks a pipeline stage through its lifecycle.
type StageStatus string

const (
	StagePending    StageStatus = "pending"
	StageInProgress StageStatus = "in_progress"
	StageCompleted  StageStatus = "completed"
	StageFailed     StageStatus = "failed"
)

// Report statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Pipeline stage names as they appear in reports.
const (
	StageInfoFetch          = "info_fetch"
	StageInfoExtraction     = "info_extraction"
	StageFormFetch          = "form_fetch"
	StageQuestionExtraction = "question_extraction"
	StageAnswerGeneration   = "answer_generation"
)

// ProgressEvent is emitted before each pipeline step so callers can surface
// live status without coupling the pipeline to a transport.
type ProgressEvent struct {
	Type       string    `json:"type"`
	Step       int       `json:"step"`
	TotalSteps int       `json:"total_steps"`
	Percentage int       `json:"percentage"`
	Message    string    `json:"message"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewProgressEvent builds a progress event for step out of total.
func NewProgressEvent(step, total int, message string) ProgressEvent {
	pct := 0
	if total > 0 {
		pct = int(math.Round(float64(step) / float64(total) * 100))
	}
	return ProgressEvent{
		Type:       "progress",
		Step:       step,
		TotalSteps: total,
		Percentage: pct,
		Message:    message,
		Timestamp:  time.Now(),
	}
}

// StageResult is the per-stage diagnostic record kept in the report.
type StageResult struct {
	Stage     string      `json:"stage"`
	Status    StageStatus `json:"status"`
	ElapsedMS int64       `json:"elapsed_ms"`
	FromCache bool        `json:"from_cache"`
	Error     string      `json:"error,omitempty"`
}

// StagePayload holds a stage's output: structured JSON when recovery
// succeeded, or the raw model text when it did not. A payload is only
// trusted once its stage completed; failed stages hand an empty default
// downstream, never a stale value.
type StagePayload struct {
	Structured interface{}
	Raw        string
}

// StructuredPayload wraps a recovered JSON value.
func StructuredPayload(v interface{}) StagePayload {
	return StagePayload{Structured: v}
}

// RawPayload wraps unrecoverable model text.
func RawPayload(text string) StagePayload {
	return StagePayload{Raw: text}
}

// IsRaw reports whether recovery failed and only raw text is available.
func (p StagePayload) IsRaw() bool { return p.Structured == nil && p.Raw != "" }

// Value returns the JSON-marshalable representation of the payload: the
// structured value as-is, or the raw text under a raw_response key.
func (p StagePayload) Value() interface{} {
	if p.IsRaw() {
		return map[string]interface{}{"raw_response": p.Raw}
	}
	if p.Structured == nil {
		return map[string]interface{}{}
	}
	return p.Structured
}

// ProcessingReport aggregates everything produced while processing one
// application. The shape is identical for success and failure so a single
// consumer (file writer, HTTP responder) handles both uniformly.
type ProcessingReport struct {
	AppName         string          `json:"app_name"`
	Timestamp       time.Time       `json:"timestamp"`
	InfoURL         string          `json:"info_url"`
	ApplicationURL  string          `json:"application_url"`
	ProcessingSteps []ProgressEvent `json:"processing_steps"`
	ApplicationInfo interface{}     `json:"application_info"`
	Questions       []interface{}   `json:"questions"`
	Answers         []interface{}   `json:"answers"`
	Stages          []StageResult   `json:"stages"`
	Status          string          `json:"status"`
	Error           string          `json:"error,omitempty"`
	ErrorType       string          `json:"error_type,omitempty"`
	TotalQuestions  int             `json:"total_questions"`
	TotalAnswers    int             `json:"total_answers"`

	InfoExtractionWarning     string `json:"info_extraction_warning,omitempty"`
	QuestionExtractionWarning string `json:"question_extraction_warning,omitempty"`
	AnswerGenerationWarning   string `json:"answer_generation_warning,omitempty"`
}
