package middleware

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/myuon/flowit-sub001/common/config"
	"github.com/myuon/flowit-sub001/common/ratelimit"
)

// RateLimit guards execution-triggering endpoints: the global limit runs
// first, then the per-workflow limit when the route carries an :id param.
// Redis trouble fails open; availability beats strictness here.
func RateLimit(limiter *ratelimit.Limiter, cfg config.RateLimitConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !cfg.Enabled || limiter == nil {
				return next(c)
			}

			ctx := c.Request().Context()

			result, err := limiter.CheckGlobal(ctx, cfg.GlobalLimit, cfg.WindowSeconds)
			if err != nil {
				return next(c)
			}
			if !result.Allowed {
				return tooManyRequests(c, "global_rate_limit_exceeded", result)
			}

			if workflowID := c.Param("id"); workflowID != "" {
				result, err = limiter.CheckWorkflow(ctx, workflowID, cfg.WorkflowLimit, cfg.WindowSeconds)
				if err != nil {
					return next(c)
				}
				if !result.Allowed {
					return tooManyRequests(c, "workflow_rate_limit_exceeded", result)
				}
			}

			return next(c)
		}
	}
}

func tooManyRequests(c echo.Context, code string, result *ratelimit.Result) error {
	c.Response().Header().Set("Retry-After", strconv.FormatInt(result.RetryAfterSeconds, 10))
	return c.JSON(http.StatusTooManyRequests, map[string]any{
		"error": code,
		"details": map[string]any{
			"limit":               result.Limit,
			"current_count":       result.CurrentCount,
			"retry_after_seconds": result.RetryAfterSeconds,
		},
	})
}
