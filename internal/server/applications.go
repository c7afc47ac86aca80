package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/yashsmehta/auto-apply/internal/auth"
	"github.com/yashsmehta/auto-apply/internal/helpers"
	"github.com/yashsmehta/auto-apply/internal/store"
	"github.com/yashsmehta/auto-apply/models"
)

// ApplicationsHandler manages tracked applications: user-owned rows the
// scheduler re-processes on their cron spec.
type ApplicationsHandler struct {
	Store *store.Store
}

func (h *ApplicationsHandler) Register(g *echo.Group, secret []byte) {
	g.Use(auth.Middleware(secret))
	g.GET("", h.list)
	g.POST("", h.create)
	g.GET("/:id/runs", h.runs)
}

func (h *ApplicationsHandler) list(c echo.Context) error {
	userID := c.Get("user_id").(string)
	items, err := h.Store.ListApplications(c.Request().Context(), userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, items)
}

func (h *ApplicationsHandler) create(c echo.Context) error {
	userID := c.Get("user_id").(string)
	var req CreateApplicationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Name == "" || req.InfoURL == "" || req.ApplicationURL == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name, info_url and application_url are required")
	}
	if err := helpers.ValidateURL(req.InfoURL); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "info_url: "+err.Error())
	}
	if err := helpers.ValidateURL(req.ApplicationURL); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "application_url: "+err.Error())
	}
	if req.ScheduleCron == "" {
		req.ScheduleCron = "@daily"
	}
	app := models.Application{
		Name:           req.Name,
		InfoURL:        req.InfoURL,
		ApplicationURL: req.ApplicationURL,
		Context:        req.Context,
	}
	id, err := h.Store.CreateApplication(c.Request().Context(), userID, app, req.ScheduleCron)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, IDResponse{ID: id})
}

// runs lists the scheduler's run history for one tracked application.
func (h *ApplicationsHandler) runs(c echo.Context) error {
	userID := c.Get("user_id").(string)
	appID := c.Param("id")
	if _, err := h.Store.GetApplicationByID(c.Request().Context(), appID, userID); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "application not found")
	}
	runs, err := h.Store.ListRuns(c.Request().Context(), appID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, runs)
}
