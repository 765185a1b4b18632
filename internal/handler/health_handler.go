package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/Tanth170203/eduxtend-api/internal/config"
	"github.com/Tanth170203/eduxtend-api/internal/utils"
)

var startedAt = time.Now().UTC()

// HealthResponse is the liveness payload served to the platform probes.
type HealthResponse struct {
	Status        string    `json:"status"`
	Timestamp     time.Time `json:"timestamp"`
	Service       string    `json:"service"`
	Environment   string    `json:"environment"`
	UptimeSeconds int64     `json:"uptime_seconds"`
}

// HealthCheck reports service identity and uptime. Liveness only; dependency
// state is visible through the scoring error metrics, not here.
func HealthCheck(cfg config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		now := time.Now().UTC()
		payload := HealthResponse{
			Status:        "ok",
			Timestamp:     now,
			Service:       cfg.AppName,
			Environment:   cfg.AppEnv,
			UptimeSeconds: int64(now.Sub(startedAt).Seconds()),
		}

		return utils.SendSuccess(c, "service healthy", payload)
	}
}
