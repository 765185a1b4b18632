package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Tanth170203/eduxtend-api/internal/config"
	"github.com/Tanth170203/eduxtend-api/internal/handler"
	"github.com/Tanth170203/eduxtend-api/internal/middleware"
	"github.com/Tanth170203/eduxtend-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	CriterionHandler    *handler.CriterionHandler
	MovementHandler     *handler.MovementHandler
	ClubMovementHandler *handler.ClubMovementHandler
	ManualScoreHandler  *handler.ManualScoreHandler
	AuditHandler        *handler.AuditHandler
	LeaderboardHandler  *handler.LeaderboardHandler
	ExportHandler       *handler.ExportHandler
	SchoolHandler       *handler.SchoolHandler
	JWTMiddleware       fiber.Handler
	AutoScoreLimiter    fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))
	api.Get("/metrics", observability.MetricsHandler())

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	adminOnly := middleware.RequireRole("admin", "teacher")
	// Award ingestion is for admins and the integration accounts that relay
	// activity completions; record deletion stays with admins alone.
	ingestOnly := middleware.RequireRole("admin", "teacher", "service")
	recordAdmin := middleware.RequireRole("admin")

	// Criterion catalog: staff administer it end to end, reads included
	if deps.CriterionHandler != nil {
		deps.CriterionHandler.RegisterGroups(api.Group("/criterion-groups", jwtMiddleware, adminOnly))
		deps.CriterionHandler.RegisterCriteria(api.Group("/criteria", jwtMiddleware, adminOnly))
	}

	// Student and club movement ledgers
	if deps.MovementHandler != nil {
		group := api.Group("/movement-records", jwtMiddleware)
		if deps.AutoScoreLimiter != nil {
			group.Use("/auto-score", deps.AutoScoreLimiter)
		}
		deps.MovementHandler.Register(group, ingestOnly, recordAdmin)
	}
	if deps.ClubMovementHandler != nil {
		group := api.Group("/club-movement-records", jwtMiddleware)
		if deps.AutoScoreLimiter != nil {
			group.Use("/auto-score", deps.AutoScoreLimiter)
		}
		deps.ClubMovementHandler.Register(group, ingestOnly, recordAdmin)
	}

	// Manual overrides and the audit trail are admin territory
	if deps.ManualScoreHandler != nil {
		deps.ManualScoreHandler.Register(api.Group("/manual-scores", jwtMiddleware, adminOnly))
	}
	if deps.AuditHandler != nil {
		deps.AuditHandler.Register(api.Group("/audit-logs", jwtMiddleware, adminOnly))
	}

	// Leaderboards and reports
	if deps.LeaderboardHandler != nil {
		deps.LeaderboardHandler.Register(api.Group("/leaderboards", jwtMiddleware))
	}
	if deps.ExportHandler != nil {
		deps.ExportHandler.Register(api.Group("/reports", jwtMiddleware, adminOnly))
	}

	// Reference entities
	if deps.SchoolHandler != nil {
		deps.SchoolHandler.RegisterSemesters(api.Group("/semesters", jwtMiddleware))
		deps.SchoolHandler.RegisterStudents(api.Group("/students", jwtMiddleware))
		deps.SchoolHandler.RegisterClubs(api.Group("/clubs", jwtMiddleware))
	}
}
