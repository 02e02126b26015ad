package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/ssms-dev/ssms-api/internal/config"
	"github.com/ssms-dev/ssms-api/internal/database"
	"github.com/ssms-dev/ssms-api/internal/handler"
	"github.com/ssms-dev/ssms-api/internal/middleware"
	"github.com/ssms-dev/ssms-api/internal/models"
	"github.com/ssms-dev/ssms-api/internal/repository"
	"github.com/ssms-dev/ssms-api/internal/router"
	"github.com/ssms-dev/ssms-api/internal/service"
	cloud "github.com/ssms-dev/ssms-api/pkg/cloudinary"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.SchoolClass{},
		&models.Subject{},
		&models.Assignment{},
		&models.AssignmentAttachment{},
		&models.Submission{},
		&models.SubmissionFile{},
		&models.UploadRecord{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	uploader, err := cloud.New(cloud.Config{
		CloudName: cfg.CloudinaryCloudName,
		APIKey:    cfg.CloudinaryAPIKey,
		APISecret: cfg.CloudinaryAPISecret,
		Folder:    cfg.CloudinaryUploadFolder,
	}, logger)
	if err != nil {
		log.Fatalf("failed to create cloudinary client: %v", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	assignmentRepo := repository.NewAssignmentRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	userRepo := repository.NewUserRepository(db)
	uploadRepo := repository.NewUploadRepository(db)

	assignmentService := service.NewAssignmentService(assignmentRepo, submissionRepo, validate, redisClient, cfg.ListCacheTTL, logger)
	studentService := service.NewStudentAssignmentService(assignmentRepo, submissionRepo, userRepo, logger)
	submissionService := service.NewSubmissionService(submissionRepo, assignmentRepo, userRepo, validate, logger)
	gradingService := service.NewGradingService(submissionRepo, assignmentRepo, userRepo, validate, logger)
	analyticsService := service.NewAnalyticsService(assignmentRepo, submissionRepo, redisClient, cfg.ListCacheTTL, logger)
	uploadService := service.NewUploadService(uploader, uploadRepo, cfg.UploadMaxSizeMB, logger)

	assignmentHandler := handler.NewAssignmentHandler(assignmentService, logger)
	studentHandler := handler.NewStudentAssignmentHandler(studentService, submissionService, logger)
	gradingHandler := handler.NewGradingHandler(gradingService, analyticsService, logger)
	uploadHandler := handler.NewUploadHandler(uploadService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		AssignmentHandler:        assignmentHandler,
		StudentAssignmentHandler: studentHandler,
		GradingHandler:           gradingHandler,
		UploadHandler:            uploadHandler,
		JWTMiddleware:            middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
