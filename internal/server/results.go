package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/yashsmehta/auto-apply/internal/archive"
	"github.com/yashsmehta/auto-apply/models"
)

// ResultsHandler serves archived reports and search over them.
type ResultsHandler struct {
	Archive *archive.Archive
}

func (h *ResultsHandler) Register(g *echo.Group) {
	g.GET("/results", h.list)
	g.GET("/results/:name", h.get)
	g.GET("/search", h.search)
}

func (h *ResultsHandler) list(c echo.Context) error {
	summaries, err := h.Archive.List()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, summaries)
}

func (h *ResultsHandler) get(c echo.Context) error {
	name := c.Param("name")
	report, err := h.Archive.Load(name)
	if err != nil {
		if errors.Is(err, models.ErrReportNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "no results for "+name)
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, ResultDetail{
		Report:          report,
		AnswersMarkdown: h.Archive.AnswersMarkdown(name),
	})
}

func (h *ResultsHandler) search(c echo.Context) error {
	query := c.QueryParam("q")
	if query == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "q is required")
	}
	k, _ := strconv.Atoi(c.QueryParam("k"))
	hits, err := h.Archive.Search(query, k)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, SearchResponse{Query: query, Hits: hits})
}
