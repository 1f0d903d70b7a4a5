package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/myuon/flowit-sub001/cmd/api/service"
)

// RunHandler handles synchronous validate and execute requests
type RunHandler struct {
	runs *service.RunService
}

// NewRunHandler creates a new run handler
func NewRunHandler(runs *service.RunService) *RunHandler {
	return &RunHandler{runs: runs}
}

// ValidateRequest carries a workflow document to check
type ValidateRequest struct {
	Workflow json.RawMessage `json:"workflow" validate:"required"`
}

// Validate structurally validates a workflow document
// POST /api/v1/validate
func (h *RunHandler) Validate(c echo.Context) error {
	var req ValidateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	return c.JSON(http.StatusOK, h.runs.Validate(req.Workflow))
}

// ExecuteRequest carries a workflow document plus run environment
type ExecuteRequest struct {
	Workflow json.RawMessage   `json:"workflow" validate:"required"`
	Inputs   map[string]any    `json:"inputs"`
	Secrets  map[string]string `json:"secrets"`
}

// Execute runs a workflow synchronously, in-process.
// 200 carries outputs, 400 a validation failure, 500 a run failure with
// the failing node's error message.
// POST /api/v1/execute
func (h *RunHandler) Execute(c echo.Context) error {
	var req ExecuteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	result, invalid := h.runs.Execute(c.Request().Context(), req.Workflow, req.Inputs, req.Secrets)
	if invalid != nil {
		return c.JSON(http.StatusBadRequest, invalid)
	}

	if result.Err != "" {
		return c.JSON(http.StatusInternalServerError, map[string]any{
			"executionId": result.ExecutionID,
			"status":      "error",
			"error":       result.Err,
			"logs":        result.Logs,
		})
	}

	return c.JSON(http.StatusOK, map[string]any{
		"executionId": result.ExecutionID,
		"status":      "success",
		"outputs":     result.Outputs,
		"logs":        result.Logs,
	})
}
