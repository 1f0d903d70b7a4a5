package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/myuon/flowit-sub001/cmd/api/service"
)

// ExecutionHandler handles queue-backed execution requests
type ExecutionHandler struct {
	executions *service.ExecutionService
}

// NewExecutionHandler creates a new execution handler
func NewExecutionHandler(executions *service.ExecutionService) *ExecutionHandler {
	return &ExecutionHandler{executions: executions}
}

// EnqueueRequest is the asynchronous execution payload
type EnqueueRequest struct {
	Inputs map[string]any `json:"inputs"`
}

// Enqueue creates a pending execution of the current version
// POST /api/v1/workflows/:id/executions
func (h *ExecutionHandler) Enqueue(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var req EnqueueRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	executionID, err := h.executions.Enqueue(c.Request().Context(), id, req.Inputs)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusAccepted, map[string]any{
		"executionId": executionID,
		"status":      "pending",
	})
}

// ListExecutions lists a workflow's executions, newest first
// GET /api/v1/workflows/:id/executions
func (h *ExecutionHandler) ListExecutions(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	limit := 50
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid limit")
		}
		limit = parsed
	}

	executions, err := h.executions.ListByWorkflow(c.Request().Context(), id, limit)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"executions": executions})
}

// GetExecution returns one execution row
// GET /api/v1/executions/:id
func (h *ExecutionHandler) GetExecution(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	execution, err := h.executions.Get(c.Request().Context(), id)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, execution)
}

// CancelExecution cancels a pending or running execution
// POST /api/v1/executions/:id/cancel
func (h *ExecutionHandler) CancelExecution(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	if err := h.executions.Cancel(c.Request().Context(), id); err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "cancelled"})
}

// GetExecutionLogs returns the execution's node logs in write order
// GET /api/v1/executions/:id/logs
func (h *ExecutionHandler) GetExecutionLogs(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	logs, err := h.executions.Logs(c.Request().Context(), id)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"logs": logs})
}
