// Package routes wires handlers onto the echo router. Rate limiting covers
// the two endpoints that start runs: synchronous execute and enqueue.
package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/myuon/flowit-sub001/cmd/api/container"
	"github.com/myuon/flowit-sub001/cmd/api/handlers"
	"github.com/myuon/flowit-sub001/common/middleware"
)

// RegisterRunRoutes registers validate and synchronous execute
func RegisterRunRoutes(e *echo.Echo, c *container.Container) {
	h := handlers.NewRunHandler(c.RunService)
	limited := middleware.RateLimit(c.Limiter, c.Components.Config.RateLimit)

	e.POST("/api/v1/validate", h.Validate)
	e.POST("/api/v1/execute", h.Execute, limited)
}

// RegisterWorkflowRoutes registers workflow and version CRUD
func RegisterWorkflowRoutes(e *echo.Echo, c *container.Container) {
	h := handlers.NewWorkflowHandler(c.WorkflowService)

	wf := e.Group("/api/v1/workflows")
	wf.POST("", h.CreateWorkflow)
	wf.GET("", h.ListWorkflows)
	wf.GET("/:id", h.GetWorkflow)
	wf.DELETE("/:id", h.DeleteWorkflow)
	wf.PATCH("/:id", h.PatchWorkflow)
	wf.GET("/:id/versions", h.ListVersions)
	wf.GET("/:id/versions/:version", h.GetVersion)
}

// RegisterExecutionRoutes registers queue-backed execution endpoints
func RegisterExecutionRoutes(e *echo.Echo, c *container.Container) {
	h := handlers.NewExecutionHandler(c.ExecutionService)
	limited := middleware.RateLimit(c.Limiter, c.Components.Config.RateLimit)

	e.POST("/api/v1/workflows/:id/executions", h.Enqueue, limited)
	e.GET("/api/v1/workflows/:id/executions", h.ListExecutions)
	e.GET("/api/v1/executions/:id", h.GetExecution)
	e.POST("/api/v1/executions/:id/cancel", h.CancelExecution)
	e.GET("/api/v1/executions/:id/logs", h.GetExecutionLogs)
}

// RegisterNodeRoutes registers the node catalog
func RegisterNodeRoutes(e *echo.Echo, c *container.Container) {
	h := handlers.NewNodeHandler(c.Registry)

	e.GET("/api/v1/nodes", h.ListNodes)
	e.GET("/api/v1/nodes/:id", h.GetNode)
}

// RegisterScheduleRoutes registers cron trigger endpoints
func RegisterScheduleRoutes(e *echo.Echo, c *container.Container) {
	h := handlers.NewScheduleHandler(c.ScheduleService)

	e.POST("/api/v1/workflows/:id/schedules", h.CreateSchedule)
	e.GET("/api/v1/workflows/:id/schedules", h.ListSchedules)
	e.DELETE("/api/v1/schedules/:id", h.DeleteSchedule)
}
