package handler_test

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/ssms-dev/ssms-api/internal/config"
	"github.com/ssms-dev/ssms-api/internal/handler"
	"github.com/ssms-dev/ssms-api/internal/models"
	"github.com/ssms-dev/ssms-api/internal/repository"
	"github.com/ssms-dev/ssms-api/internal/router"
	"github.com/ssms-dev/ssms-api/internal/service"
)

// testApp bundles the wired application with its database handle so tests can
// seed rows directly.
type testApp struct {
	app *fiber.App
	db  *gorm.DB
}

// setupApp wires the full route surface against an in-memory database. The
// fake JWT middleware trusts X-Test-User and X-Test-Role headers.
func setupApp(t *testing.T) testApp {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.SchoolClass{},
		&models.Subject{},
		&models.Assignment{},
		&models.AssignmentAttachment{},
		&models.Submission{},
		&models.SubmissionFile{},
		&models.UploadRecord{},
	))

	validate := validator.New(validator.WithRequiredStructEnabled())
	logger := zerolog.New(io.Discard)

	assignmentRepo := repository.NewAssignmentRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	userRepo := repository.NewUserRepository(db)

	assignmentService := service.NewAssignmentService(assignmentRepo, submissionRepo, validate, nil, 0, logger)
	studentService := service.NewStudentAssignmentService(assignmentRepo, submissionRepo, userRepo, logger)
	submissionService := service.NewSubmissionService(submissionRepo, assignmentRepo, userRepo, validate, logger)
	gradingService := service.NewGradingService(submissionRepo, assignmentRepo, userRepo, validate, logger)
	analyticsService := service.NewAnalyticsService(assignmentRepo, submissionRepo, nil, 0, logger)

	app := fiber.New()

	router.Register(app, config.Config{AppName: "Test", JWTSecret: "secret"}, router.Dependencies{
		AssignmentHandler:        handler.NewAssignmentHandler(assignmentService, logger),
		StudentAssignmentHandler: handler.NewStudentAssignmentHandler(studentService, submissionService, logger),
		GradingHandler:           handler.NewGradingHandler(gradingService, analyticsService, logger),
		JWTMiddleware:            headerAuth(),
	})

	return testApp{app: app, db: db}
}

func headerAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if raw := c.Get("X-Test-User"); raw != "" {
			var id uint
			if _, err := fmt.Sscanf(raw, "%d", &id); err == nil {
				c.Locals("user_id", id)
			}
		}
		if role := c.Get("X-Test-Role"); role != "" {
			c.Locals("user_role", role)
		}
		return c.Next()
	}
}

func authed(req *http.Request, userID uint, role string) *http.Request {
	req.Header.Set("X-Test-User", fmt.Sprintf("%d", userID))
	req.Header.Set("X-Test-Role", role)
	req.Header.Set("Content-Type", fiber.MIMEApplicationJSON)
	return req
}

func decodeResponse(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.NoError(t, json.Unmarshal(data, target))
}
