package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/yashsmehta/auto-apply/internal/content"
	"github.com/yashsmehta/auto-apply/internal/extract"
	"github.com/yashsmehta/auto-apply/internal/fetch"
	"github.com/yashsmehta/auto-apply/internal/helpers"
	"github.com/yashsmehta/auto-apply/internal/pipeline"
	"github.com/yashsmehta/auto-apply/models"
)

// StagesHandler exposes each pipeline stage as its own endpoint so clients
// can re-run a single extraction without a full pipeline pass. Stage failures
// propagate as models.StageError and are classified by the server's error
// handler into {"error", "error_type"} responses.
type StagesHandler struct {
	Fetcher fetch.Fetcher
	Extract *extract.Service
}

func (h *StagesHandler) Register(g *echo.Group) {
	g.POST("/validate-url", h.validateURL)
	g.POST("/extract-info", h.extractInfo)
	g.POST("/extract-questions", h.extractQuestions)
	g.POST("/generate-answers", h.generateAnswers)
}

func (h *StagesHandler) validateURL(c echo.Context) error {
	var req ValidateURLRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.URL == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "url is required")
	}
	resp := ValidateURLResponse{URL: req.URL, Valid: true}
	if err := helpers.ValidateURL(req.URL); err != nil {
		resp.Valid = false
		resp.Error = err.Error()
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *StagesHandler) extractInfo(c echo.Context) error {
	page, err := h.fetchPage(c)
	if err != nil {
		return err
	}
	ex, err := h.Extract.ExtractProgramInfo(c.Request().Context(), pipeline.PrepareInfoContent(page))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, StageResponse{Result: ex.Payload.Value(), FromCache: ex.FromCache, Warning: ex.Warning})
}

func (h *StagesHandler) extractQuestions(c echo.Context) error {
	page, err := h.fetchPage(c)
	if err != nil {
		return err
	}
	ex, err := h.Extract.ExtractQuestions(c.Request().Context(), content.PrepareForm(page.Content))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, StageResponse{Result: ex.Items, FromCache: ex.FromCache, Warning: ex.Warning})
}

func (h *StagesHandler) generateAnswers(c echo.Context) error {
	var req AnswersRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if len(req.Questions) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "questions are required")
	}
	info := models.StructuredPayload(req.ApplicationInfo)
	ex, err := h.Extract.GenerateAnswers(c.Request().Context(), info, req.Questions, req.Context)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, StageResponse{Result: ex.Items, FromCache: ex.FromCache, Warning: ex.Warning})
}

// fetchPage binds a PageRequest, validates the URL and fetches it.
func (h *StagesHandler) fetchPage(c echo.Context) (fetch.Result, error) {
	var req PageRequest
	if err := c.Bind(&req); err != nil {
		return fetch.Result{}, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.URL == "" {
		return fetch.Result{}, echo.NewHTTPError(http.StatusBadRequest, "url is required")
	}
	if err := helpers.ValidateURL(req.URL); err != nil {
		return fetch.Result{}, models.NewValidationError(err.Error())
	}
	return h.Fetcher.Fetch(c.Request().Context(), req.URL)
}
