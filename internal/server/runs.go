package server

import (
	"context"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/yashsmehta/auto-apply/internal/archive"
	"github.com/yashsmehta/auto-apply/internal/pipeline"
	"github.com/yashsmehta/auto-apply/internal/state"
	"github.com/yashsmehta/auto-apply/models"
)

// Runner abstracts the pipeline so handler tests can script outcomes.
type Runner interface {
	Process(ctx context.Context, app models.Application, observe pipeline.Observer) models.ProcessingReport
}

// RunsHandler launches pipeline runs and serves their live state.
type RunsHandler struct {
	Runner  Runner
	State   state.Store
	Archive *archive.Archive
	Logger  *log.Logger
}

func (h *RunsHandler) Register(g *echo.Group) {
	g.POST("/process", h.process)
	g.GET("/runs", h.list)
	g.GET("/runs/:id", h.get)
}

// process starts an asynchronous pipeline run and returns its run id. The
// caller polls /api/runs/:id for progress; the finished report lands in the
// archive when the run succeeds.
func (h *RunsHandler) process(c echo.Context) error {
	var req ProcessRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Name == "" || req.InfoURL == "" || req.ApplicationURL == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name, info_url and application_url are required")
	}

	run, err := h.State.Create(c.Request().Context(), req.Name)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	app := models.Application{
		Name:           req.Name,
		InfoURL:        req.InfoURL,
		ApplicationURL: req.ApplicationURL,
		Context:        req.Context,
	}

	// The run outlives the request, so it gets its own context. URL problems
	// surface through the run state as a validation failure, same as the CLI.
	go func() {
		ctx := context.Background()
		report := h.Runner.Process(ctx, app, func(ev models.ProgressEvent) {
			_, _ = h.State.Update(ctx, run.ID, state.Progress(ev))
		})
		// Archive before flipping status: a poller that sees the run complete
		// must be able to fetch the report.
		if report.Status == models.StatusSuccess {
			if _, err := h.Archive.Save(report); err != nil {
				h.Logger.Printf("run %s: archive save failed: %v", run.ID, err)
			}
		}
		if _, err := h.State.Update(ctx, run.ID, state.Finish(report)); err != nil {
			h.Logger.Printf("run %s: finish update failed: %v", run.ID, err)
		}
	}()

	return c.JSON(http.StatusAccepted, ProcessResponse{RunID: run.ID})
}

func (h *RunsHandler) get(c echo.Context) error {
	run, err := h.State.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "run not found")
	}
	return c.JSON(http.StatusOK, run)
}

func (h *RunsHandler) list(c echo.Context) error {
	runs, err := h.State.List(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, runs)
}
