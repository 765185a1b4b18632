package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/Tanth170203/eduxtend-api/internal/models"
	"github.com/Tanth170203/eduxtend-api/internal/repository"
	"github.com/Tanth170203/eduxtend-api/internal/service"
	"github.com/Tanth170203/eduxtend-api/internal/utils"
)

// AuditHandler exposes the read-only evaluation audit trail.
type AuditHandler struct {
	service service.AuditService
	logger  zerolog.Logger
}

// NewAuditHandler constructs the handler.
func NewAuditHandler(service service.AuditService, logger zerolog.Logger) *AuditHandler {
	return &AuditHandler{
		service: service,
		logger:  logger.With().Str("component", "audit_handler").Logger(),
	}
}

// Register attaches audit trail endpoints to the router group.
func (h *AuditHandler) Register(router fiber.Router) {
	router.Get("", h.list)
}

func (h *AuditHandler) list(c *fiber.Ctx) error {
	filter := repository.AuditLogFilter{
		Action:     strings.TrimSpace(c.Query("action")),
		RecordType: models.TargetType(strings.TrimSpace(c.Query("record_type"))),
	}

	var err error
	if filter.Page, err = parseQueryInt(c, "page"); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page")
	}
	if filter.PageSize, err = parseQueryInt(c, "page_size"); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page_size")
	}
	if actorID, err := parseQueryUint(c, "actor_id"); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid actor_id")
	} else if actorID != 0 {
		filter.ActorID = &actorID
	}
	if recordID, err := parseQueryUint(c, "record_id"); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid record_id")
	} else if recordID != 0 {
		filter.RecordID = &recordID
	}

	entries, total, err := h.service.List(c.Context(), filter)
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}

	return utils.SendPage(c, "audit entries retrieved", entries, utils.PageMeta{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		Total:    total,
	})
}
