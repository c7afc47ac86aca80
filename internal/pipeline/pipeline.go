// Package pipeline orchestrates the six-step form-filling run for one
// application: fetch the info page, extract program info, fetch the form
// page, extract its questions, draft answers, finalize. Steps run strictly
// in order because each prompt depends on the previous step's output.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/yashsmehta/auto-apply/internal/content"
	"github.com/yashsmehta/auto-apply/internal/extract"
	"github.com/yashsmehta/auto-apply/internal/fetch"
	"github.com/yashsmehta/auto-apply/internal/metrics"
	"github.com/yashsmehta/auto-apply/models"
)

// TotalSteps is the fixed number of pipeline steps reported in progress
// events.
const TotalSteps = 6

// Observer receives progress events synchronously as each step is announced.
type Observer func(models.ProgressEvent)

// Processor runs the pipeline. It holds no per-run state, so one Processor
// can serve concurrent runs; the response cache inside its collaborators is
// the only shared resource.
type Processor struct {
	fetcher   fetch.Fetcher
	extractor *extract.Service
	logger    *log.Logger
}

// New builds a Processor around a fetcher and an extraction service.
func New(f fetch.Fetcher, e *extract.Service, logger *log.Logger) *Processor {
	if logger == nil {
		logger = log.New(log.Writer(), "[PIPELINE] ", log.LstdFlags)
	}
	return &Processor{fetcher: f, extractor: e, logger: logger}
}

// Process runs all six steps for app and always returns a complete report:
// failures set status=error plus the error's message and kind instead of
// surfacing as a Go error. Progress events are announced to observe (when
// non-nil) before each step does its work, and partial outputs accumulated
// before a failure stay on the report for diagnostics.
func (p *Processor) Process(ctx context.Context, app models.Application, observe Observer) models.ProcessingReport {
	started := time.Now()
	p.logger.Printf("processing %q", app.Name)

	report := models.ProcessingReport{
		AppName:         app.Name,
		Timestamp:       started,
		InfoURL:         app.InfoURL,
		ApplicationURL:  app.ApplicationURL,
		ProcessingSteps: []models.ProgressEvent{},
		ApplicationInfo: map[string]interface{}{},
		Questions:       []interface{}{},
		Answers:         []interface{}{},
		Stages:          []models.StageResult{},
	}

	step := 0
	progress := func(message string) {
		step++
		ev := models.NewProgressEvent(step, TotalSteps, message)
		report.ProcessingSteps = append(report.ProcessingSteps, ev)
		p.logger.Printf("[%d/%d] %s", step, TotalSteps, message)
		if observe != nil {
			observe(ev)
		}
	}

	// Step 1: fetch info page.
	progress(fmt.Sprintf("Scraping info page: %s", app.InfoURL))
	infoPage, err := p.fetchStage(ctx, &report, models.StageInfoFetch, app.InfoURL)
	if err != nil {
		return p.fail(&report, started, app.Name, err)
	}

	// Step 2: extract program info. Parse failures downgrade to a warning.
	progress("Extracting application information...")
	infoEx, err := p.infoStage(ctx, &report, infoPage)
	if err != nil {
		return p.fail(&report, started, app.Name, err)
	}
	report.ApplicationInfo = infoEx.Payload.Value()
	report.InfoExtractionWarning = infoEx.Warning

	// Step 3: fetch application form page.
	progress(fmt.Sprintf("Scraping application page: %s", app.ApplicationURL))
	formPage, err := p.fetchStage(ctx, &report, models.StageFormFetch, app.ApplicationURL)
	if err != nil {
		return p.fail(&report, started, app.Name, err)
	}

	// Step 4: extract form questions.
	progress("Extracting application questions...")
	questions, err := p.questionStage(ctx, &report, formPage)
	if err != nil {
		return p.fail(&report, started, app.Name, err)
	}
	report.Questions = questions.Items
	report.QuestionExtractionWarning = questions.Warning

	// Step 5: generate answers.
	progress("Generating answers...")
	answers, err := p.answerStage(ctx, &report, infoEx.Payload, questions.Items, app.Context)
	if err != nil {
		return p.fail(&report, started, app.Name, err)
	}
	report.Answers = answers.Items
	report.AnswerGenerationWarning = answers.Warning

	// Step 6: finalize.
	progress("Processing complete")
	report.Status = models.StatusSuccess
	report.TotalQuestions = len(report.Questions)
	report.TotalAnswers = len(report.Answers)

	metrics.RunsTotal.WithLabelValues(models.StatusSuccess).Inc()
	metrics.RunDuration.WithLabelValues(models.StatusSuccess).Observe(time.Since(started).Seconds())
	p.logger.Printf("processed %q: %d questions, %d answers", app.Name, report.TotalQuestions, report.TotalAnswers)
	return report
}

// fail closes out a report after a stage error.
func (p *Processor) fail(report *models.ProcessingReport, started time.Time, appName string, err error) models.ProcessingReport {
	report.Status = models.StatusError
	report.Error = err.Error()
	report.ErrorType = string(models.KindOf(err))

	metrics.RunsTotal.WithLabelValues(models.StatusError).Inc()
	metrics.RunDuration.WithLabelValues(models.StatusError).Observe(time.Since(started).Seconds())
	p.logger.Printf("processing %q failed: %v", appName, err)
	return *report
}

// fetchStage runs one page fetch, records its stage result and attributes
// failures to the stage.
func (p *Processor) fetchStage(ctx context.Context, report *models.ProcessingReport, stage, url string) (fetch.Result, error) {
	res, err := p.fetcher.Fetch(ctx, url)
	sr := models.StageResult{
		Stage:     stage,
		Status:    models.StageCompleted,
		ElapsedMS: int64(res.ElapsedMS),
		FromCache: res.FromCache,
	}
	if err != nil {
		sr.Status = models.StageFailed
		sr.Error = err.Error()
		report.Stages = append(report.Stages, sr)
		return res, stageError(stage, err)
	}
	report.Stages = append(report.Stages, sr)
	return res, nil
}

func (p *Processor) infoStage(ctx context.Context, report *models.ProcessingReport, page fetch.Result) (extract.Extraction, error) {
	ex, err := p.extractor.ExtractProgramInfo(ctx, PrepareInfoContent(page))
	p.recordExtraction(report, models.StageInfoExtraction, ex.ElapsedMS, ex.FromCache, err)
	if err != nil {
		return ex, stageError(models.StageInfoExtraction, err)
	}
	return ex, nil
}

func (p *Processor) questionStage(ctx context.Context, report *models.ProcessingReport, page fetch.Result) (extract.ListExtraction, error) {
	ex, err := p.extractor.ExtractQuestions(ctx, content.PrepareForm(page.Content))
	p.recordExtraction(report, models.StageQuestionExtraction, ex.ElapsedMS, ex.FromCache, err)
	if err != nil {
		return ex, stageError(models.StageQuestionExtraction, err)
	}
	return ex, nil
}

func (p *Processor) answerStage(ctx context.Context, report *models.ProcessingReport, info models.StagePayload, questions []interface{}, applicantContext string) (extract.ListExtraction, error) {
	ex, err := p.extractor.GenerateAnswers(ctx, info, questions, applicantContext)
	p.recordExtraction(report, models.StageAnswerGeneration, ex.ElapsedMS, ex.FromCache, err)
	if err != nil {
		return ex, stageError(models.StageAnswerGeneration, err)
	}
	return ex, nil
}

func (p *Processor) recordExtraction(report *models.ProcessingReport, stage string, elapsedMS int64, fromCache bool, err error) {
	sr := models.StageResult{
		Stage:     stage,
		Status:    models.StageCompleted,
		ElapsedMS: elapsedMS,
		FromCache: fromCache,
	}
	if err != nil {
		sr.Status = models.StageFailed
		sr.Error = err.Error()
	}
	report.Stages = append(report.Stages, sr)
}

// stageError re-wraps a collaborator failure with the stage it belongs to,
// keeping the original kind, message and cause.
func stageError(stage string, err error) error {
	var se *models.StageError
	if errors.As(err, &se) {
		return models.NewStageError(se.Kind, stage, se.Message, se.Elapsed, err)
	}
	return models.NewStageError(models.ErrorKindUnexpected, stage, err.Error(), 0, err)
}

// PrepareInfoContent reduces a fetched info page to prompt-ready text. PDF
// bodies arrive already extracted to plain text, so they skip readability;
// overlong documents are cut at a paragraph boundary before whitespace
// collapsing flattens the breaks.
func PrepareInfoContent(page fetch.Result) string {
	if strings.Contains(strings.ToLower(page.ContentType), "pdf") {
		text := page.Content
		if len(text) > content.MaxPageChars {
			if chunks := content.Chunk(text, content.MaxPageChars); len(chunks) > 0 {
				text = chunks[0]
			}
		}
		return content.Truncate(content.CollapseWhitespace(text), content.MaxPageChars)
	}
	return content.PrepareInfo(page.Content, page.URL)
}
