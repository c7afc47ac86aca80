// Package worker runs batches of applications through the pipeline with a
// bounded pool. Applications are processed concurrently; the steps inside
// one application stay strictly sequential.
package worker

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/yashsmehta/auto-apply/internal/pipeline"
	"github.com/yashsmehta/auto-apply/models"
)

// DefaultWorkers is the pool size used when none is configured.
const DefaultWorkers = 4

// Runner is the slice of the pipeline the pool needs.
type Runner interface {
	Process(ctx context.Context, app models.Application, observe pipeline.Observer) models.ProcessingReport
}

// Saver persists successful reports.
type Saver interface {
	Save(report models.ProcessingReport) (string, error)
}

// Outcome pairs an application with its processing result.
type Outcome struct {
	Application models.Application
	Report      models.ProcessingReport
	SavedTo     string
}

// Pool fans a batch of applications out to a fixed number of workers.
type Pool struct {
	runner  Runner
	saver   Saver
	workers int
	logger  *log.Logger
}

// NewPool builds a pool around runner. saver may be nil to skip persistence;
// workers <= 0 falls back to DefaultWorkers.
func NewPool(runner Runner, saver Saver, workers int, logger *log.Logger) *Pool {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if logger == nil {
		logger = log.New(log.Writer(), "[WORKER] ", log.LstdFlags)
	}
	return &Pool{runner: runner, saver: saver, workers: workers, logger: logger}
}

// Process runs every application and returns one outcome per input, in input
// order. Successful reports are saved; failures are returned but not
// persisted. Cancelling ctx stops feeding new applications; outcomes for
// unstarted ones carry an error report.
func (p *Pool) Process(ctx context.Context, apps []models.Application) []Outcome {
	outcomes := make([]Outcome, len(apps))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			for idx := range jobs {
				outcomes[idx] = p.processOne(ctx, id, apps[idx])
			}
		}(fmt.Sprintf("w%d", i+1))
	}

feed:
	for idx := range apps {
		// Checked before the select: with workers idle both cases are ready
		// and a cancelled batch must not feed anything.
		if ctx.Err() != nil {
			break
		}
		select {
		case <-ctx.Done():
			break feed
		case jobs <- idx:
		}
	}
	close(jobs)
	wg.Wait()

	for idx := range outcomes {
		if outcomes[idx].Report.Status == "" {
			outcomes[idx] = cancelledOutcome(apps[idx], ctx.Err())
		}
	}
	return outcomes
}

func (p *Pool) processOne(ctx context.Context, workerID string, app models.Application) Outcome {
	p.logger.Printf("[%s] processing %q", workerID, app.Name)
	out := Outcome{Application: app, Report: p.runner.Process(ctx, app, nil)}
	if out.Report.Status != models.StatusSuccess {
		p.logger.Printf("[%s] %q failed: %s", workerID, app.Name, out.Report.Error)
		return out
	}
	if p.saver != nil {
		dir, err := p.saver.Save(out.Report)
		if err != nil {
			p.logger.Printf("[%s] saving %q failed: %v", workerID, app.Name, err)
		} else {
			out.SavedTo = dir
		}
	}
	return out
}

func cancelledOutcome(app models.Application, cause error) Outcome {
	msg := "processing cancelled"
	if cause != nil {
		msg = fmt.Sprintf("processing cancelled: %v", cause)
	}
	return Outcome{
		Application: app,
		Report: models.ProcessingReport{
			AppName:         app.Name,
			InfoURL:         app.InfoURL,
			ApplicationURL:  app.ApplicationURL,
			ProcessingSteps: []models.ProgressEvent{},
			ApplicationInfo: map[string]interface{}{},
			Questions:       []interface{}{},
			Answers:         []interface{}{},
			Stages:          []models.StageResult{},
			Status:          models.StatusError,
			Error:           msg,
			ErrorType:       string(models.ErrorKindUnexpected),
		},
	}
}

// Summarize counts successful and failed outcomes.
func Summarize(outcomes []Outcome) (successful, failed int) {
	for _, out := range outcomes {
		if out.Report.Status == models.StatusSuccess {
			successful++
		} else {
			failed++
		}
	}
	return successful, failed
}
