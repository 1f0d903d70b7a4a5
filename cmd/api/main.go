package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/myuon/flowit-sub001/cmd/api/container"
	"github.com/myuon/flowit-sub001/cmd/api/routes"
	"github.com/myuon/flowit-sub001/common/bootstrap"
	"github.com/myuon/flowit-sub001/common/db"
	"github.com/myuon/flowit-sub001/common/repository"
)

func main() {
	ctx := context.Background()

	// Bootstrap common components (config, logger, DB, Redis, telemetry)
	components, err := bootstrap.Setup(ctx, "api",
		bootstrap.WithDBInitHook(func(database *db.DB) error {
			return repository.EnsureSchema(ctx, database)
		}),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap api: %v\n", err)
		os.Exit(1)
	}
	defer components.Shutdown(ctx)

	// Initialize service container (singleton pattern - all services created once)
	serviceContainer, err := container.NewContainer(components)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize service container: %v\n", err)
		os.Exit(1)
	}

	e := setupEcho()
	setupMiddleware(e)
	setupHealthCheck(e)
	registerRoutes(e, serviceContainer)

	startServer(ctx, e, components)
}

// requestValidator adapts go-playground/validator to echo's Validator
type requestValidator struct {
	validate *validator.Validate
}

func (v *requestValidator) Validate(i interface{}) error {
	return v.validate.Struct(i)
}

// setupEcho initializes the Echo server with basic configuration
func setupEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = &requestValidator{validate: validator.New()}
	return e
}

// setupMiddleware configures all middleware for the Echo server
func setupMiddleware(e *echo.Echo) {
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.RequestID())
}

// setupHealthCheck registers the health check endpoint
func setupHealthCheck(e *echo.Echo) {
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "healthy",
			"service": "api",
		})
	})
}

// registerRoutes registers all application routes using the service container
func registerRoutes(e *echo.Echo, serviceContainer *container.Container) {
	routes.RegisterRunRoutes(e, serviceContainer)
	routes.RegisterWorkflowRoutes(e, serviceContainer)
	routes.RegisterExecutionRoutes(e, serviceContainer)
	routes.RegisterNodeRoutes(e, serviceContainer)
	routes.RegisterScheduleRoutes(e, serviceContainer)
}

// startServer starts the Echo server and shuts it down gracefully on
// SIGINT/SIGTERM.
func startServer(ctx context.Context, e *echo.Echo, components *bootstrap.Components) {
	port := components.Config.Service.Port
	components.Logger.Info("Starting api", "port", port)

	go func() {
		if err := e.Start(fmt.Sprintf(":%d", port)); err != nil && err != http.ErrServerClosed {
			components.Logger.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	components.Logger.Info("Shutting down api")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		components.Logger.Error("Server shutdown error", "error", err)
	}
}
