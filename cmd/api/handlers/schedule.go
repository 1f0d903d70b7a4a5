package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/myuon/flowit-sub001/cmd/api/service"
)

// ScheduleHandler handles cron trigger requests
type ScheduleHandler struct {
	schedules *service.ScheduleService
}

// NewScheduleHandler creates a new schedule handler
func NewScheduleHandler(schedules *service.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{schedules: schedules}
}

// CreateScheduleRequest is the trigger creation payload. Enabled defaults
// to true when absent.
type CreateScheduleRequest struct {
	CronExpr string         `json:"cronExpr" validate:"required"`
	Inputs   map[string]any `json:"inputs"`
	Enabled  *bool          `json:"enabled"`
}

// CreateSchedule registers a cron trigger for a workflow
// POST /api/v1/workflows/:id/schedules
func (h *ScheduleHandler) CreateSchedule(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var req CreateScheduleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}

	schedule, err := h.schedules.Create(c.Request().Context(), id, req.CronExpr, req.Inputs, enabled)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusCreated, schedule)
}

// ListSchedules lists a workflow's cron triggers
// GET /api/v1/workflows/:id/schedules
func (h *ScheduleHandler) ListSchedules(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	schedules, err := h.schedules.ListByWorkflow(c.Request().Context(), id)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"schedules": schedules})
}

// DeleteSchedule removes a cron trigger
// DELETE /api/v1/schedules/:id
func (h *ScheduleHandler) DeleteSchedule(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	if err := h.schedules.Delete(c.Request().Context(), id); err != nil {
		return serviceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
