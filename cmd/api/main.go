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
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/Tanth170203/eduxtend-api/internal/config"
	"github.com/Tanth170203/eduxtend-api/internal/database"
	"github.com/Tanth170203/eduxtend-api/internal/handler"
	"github.com/Tanth170203/eduxtend-api/internal/middleware"
	"github.com/Tanth170203/eduxtend-api/internal/models"
	"github.com/Tanth170203/eduxtend-api/internal/repository"
	"github.com/Tanth170203/eduxtend-api/internal/router"
	"github.com/Tanth170203/eduxtend-api/internal/service"
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
		&models.Semester{},
		&models.Student{},
		&models.Club{},
		&models.CriterionGroup{},
		&models.Criterion{},
		&models.MovementRecord{},
		&models.MovementRecordDetail{},
		&models.ClubMovementRecord{},
		&models.ClubMovementRecordDetail{},
		&models.EvaluationAuditLog{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL)
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer natsConn.Drain()
	} else {
		logger.Warn().Msg("nats url not configured, score events limited to redis")
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	criterionGroupRepo := repository.NewCriterionGroupRepository(db)
	criterionRepo := repository.NewCriterionRepository(db)
	movementRepo := repository.NewMovementRecordRepository(db)
	clubMovementRepo := repository.NewClubMovementRecordRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)
	semesterRepo := repository.NewSemesterRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	clubRepo := repository.NewClubRepository(db)

	publisher := service.NewScorePublisher(redisClient, natsConn, cfg.ScoreEventChannel, logger)
	leaderboardService := service.NewLeaderboardService(movementRepo, clubMovementRepo, redisClient, cfg.LeaderboardCacheTTL, logger)

	criterionService := service.NewCriterionService(criterionGroupRepo, criterionRepo, validate, logger)
	movementService := service.NewMovementScoreService(movementRepo, criterionRepo, validate, publisher, leaderboardService, logger)
	clubMovementService := service.NewClubMovementScoreService(clubMovementRepo, criterionRepo, validate, publisher, leaderboardService, logger)
	manualScoreService := service.NewManualScoreService(movementRepo, clubMovementRepo, criterionRepo, validate, publisher, leaderboardService, logger)
	auditService := service.NewAuditService(auditRepo, logger)
	exportService := service.NewExportService(semesterRepo, studentRepo, clubRepo, movementRepo, clubMovementRepo, logger)
	schoolService := service.NewSchoolService(semesterRepo, studentRepo, clubRepo, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		CriterionHandler:    handler.NewCriterionHandler(criterionService, logger),
		MovementHandler:     handler.NewMovementHandler(movementService, logger),
		ClubMovementHandler: handler.NewClubMovementHandler(clubMovementService, logger),
		ManualScoreHandler:  handler.NewManualScoreHandler(manualScoreService, logger),
		AuditHandler:        handler.NewAuditHandler(auditService, logger),
		LeaderboardHandler:  handler.NewLeaderboardHandler(leaderboardService, logger),
		ExportHandler:       handler.NewExportHandler(exportService, logger),
		SchoolHandler:       handler.NewSchoolHandler(schoolService, logger),
		JWTMiddleware:       middleware.JWTProtected(cfg.JWTSecret),
		AutoScoreLimiter:    middleware.RateLimit("auto-score", cfg.AutoScoreRateLimit, cfg.AutoScoreRateWindow),
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
