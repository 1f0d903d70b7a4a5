package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/myuon/flowit-sub001/cmd/api/service"
)

// WorkflowHandler handles workflow definition requests
type WorkflowHandler struct {
	workflows *service.WorkflowService
}

// NewWorkflowHandler creates a new workflow handler
func NewWorkflowHandler(workflows *service.WorkflowService) *WorkflowHandler {
	return &WorkflowHandler{workflows: workflows}
}

// CreateWorkflowRequest is the creation payload
type CreateWorkflowRequest struct {
	Name        string          `json:"name" validate:"required"`
	Description string          `json:"description"`
	DSL         json.RawMessage `json:"dsl" validate:"required"`
}

// CreateWorkflow creates a workflow with version 1 as its current version
// POST /api/v1/workflows
func (h *WorkflowHandler) CreateWorkflow(c echo.Context) error {
	var req CreateWorkflowRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	detail, err := h.workflows.Create(c.Request().Context(), req.Name, req.Description, req.DSL)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusCreated, detail)
}

// ListWorkflows lists workflow heads
// GET /api/v1/workflows
func (h *WorkflowHandler) ListWorkflows(c echo.Context) error {
	limit := 100
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid limit")
		}
		limit = parsed
	}

	workflows, err := h.workflows.List(c.Request().Context(), limit)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"workflows": workflows})
}

// GetWorkflow returns the workflow head plus current version DSL
// GET /api/v1/workflows/:id
func (h *WorkflowHandler) GetWorkflow(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	detail, err := h.workflows.Get(c.Request().Context(), id)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, detail)
}

// DeleteWorkflow deletes a workflow and everything hanging off it
// DELETE /api/v1/workflows/:id
func (h *WorkflowHandler) DeleteWorkflow(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	if err := h.workflows.Delete(c.Request().Context(), id); err != nil {
		return serviceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// PatchWorkflowRequest carries RFC-6902 operations
type PatchWorkflowRequest struct {
	Operations []map[string]interface{} `json:"operations" validate:"required"`
}

// PatchWorkflow applies a JSON patch to the current DSL, cutting a new version
// PATCH /api/v1/workflows/:id
func (h *WorkflowHandler) PatchWorkflow(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var req PatchWorkflowRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	detail, err := h.workflows.Patch(c.Request().Context(), id, req.Operations)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, detail)
}

// ListVersions returns the workflow's version history
// GET /api/v1/workflows/:id/versions
func (h *WorkflowHandler) ListVersions(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	versions, err := h.workflows.ListVersions(c.Request().Context(), id)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"versions": versions})
}

// GetVersion returns one version by sequential number
// GET /api/v1/workflows/:id/versions/:version
func (h *WorkflowHandler) GetVersion(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	version, err := strconv.Atoi(c.Param("version"))
	if err != nil || version < 1 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid version number")
	}

	v, err := h.workflows.GetVersion(c.Request().Context(), id, version)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, v)
}
