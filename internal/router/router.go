package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ssms-dev/ssms-api/internal/config"
	"github.com/ssms-dev/ssms-api/internal/handler"
	"github.com/ssms-dev/ssms-api/internal/middleware"
	"github.com/ssms-dev/ssms-api/internal/models"
	"github.com/ssms-dev/ssms-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AssignmentHandler        *handler.AssignmentHandler
	StudentAssignmentHandler *handler.StudentAssignmentHandler
	GradingHandler           *handler.GradingHandler
	UploadHandler            *handler.UploadHandler
	JWTMiddleware            fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))
	api.Get("/metrics", observability.MetricsHandler())

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	// Teacher and admin surface: authoring, review, grading, analytics.
	if deps.AssignmentHandler != nil {
		teacher := api.Group("/teacher", jwtMiddleware, middleware.RequireRole(models.RoleTeacher, models.RoleAdmin))
		deps.AssignmentHandler.Register(teacher.Group("/assignments"))

		if deps.GradingHandler != nil {
			deps.GradingHandler.Register(teacher)
		}
	}

	// Student surface: published assignments and own submissions.
	if deps.StudentAssignmentHandler != nil {
		student := api.Group("/student", jwtMiddleware, middleware.RequireRole(models.RoleStudent))
		deps.StudentAssignmentHandler.Register(student)
	}

	// Uploads burn storage quota, so they are throttled per user on top of
	// authentication.
	if deps.UploadHandler != nil {
		uploads := api.Group("/uploads", jwtMiddleware, middleware.RateLimit("uploads", cfg.UploadRatePerMinute, time.Minute))
		deps.UploadHandler.Register(uploads)
	}
}
