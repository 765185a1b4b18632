package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/Tanth170203/eduxtend-api/internal/dto"
	"github.com/Tanth170203/eduxtend-api/internal/service"
	"github.com/Tanth170203/eduxtend-api/internal/utils"
)

// ClubMovementHandler wires the monthly club ledger HTTP routes.
type ClubMovementHandler struct {
	service service.ClubMovementScoreService
	logger  zerolog.Logger
}

// NewClubMovementHandler constructs the handler.
func NewClubMovementHandler(service service.ClubMovementScoreService, logger zerolog.Logger) *ClubMovementHandler {
	return &ClubMovementHandler{
		service: service,
		logger:  logger.With().Str("component", "club_movement_handler").Logger(),
	}
}

// Register attaches club ledger endpoints to the router group. Gating mirrors
// the student ledger: ingestGate on award ingestion, adminGate on deletion.
func (h *ClubMovementHandler) Register(router fiber.Router, ingestGate, adminGate fiber.Handler) {
	ingestGate = gateOrNext(ingestGate)
	adminGate = gateOrNext(adminGate)

	router.Get("", h.listBySemester)
	router.Post("", ingestGate, h.getOrCreate)
	router.Post("/auto-score", ingestGate, h.autoScore)
	router.Get("/club/:clubID", h.listByClub)
	router.Get("/:id", h.get)
	router.Get("/:id/details", h.detail)
	router.Delete("/:id", adminGate, h.delete)
}

func (h *ClubMovementHandler) listBySemester(c *fiber.Ctx) error {
	semesterID, err := parseQueryUint(c, "semester_id")
	if err != nil || semesterID == 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "semester_id is required")
	}

	month, err := parseQueryInt(c, "month")
	if err != nil || month < 0 || month > 12 {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid month")
	}
	page, err := parseQueryInt(c, "page")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page")
	}
	pageSize, err := parseQueryInt(c, "page_size")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page_size")
	}

	records, total, err := h.service.ListBySemester(c.Context(), semesterID, month, page, pageSize)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendPage(c, "club movement records retrieved", records, utils.PageMeta{
		Page:     page,
		PageSize: pageSize,
		Total:    total,
	})
}

func (h *ClubMovementHandler) getOrCreate(c *fiber.Ctx) error {
	var payload struct {
		ClubID     uint `json:"club_id"`
		SemesterID uint `json:"semester_id"`
		Month      int  `json:"month"`
	}
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if payload.ClubID == 0 || payload.SemesterID == 0 || payload.Month < 1 || payload.Month > 12 {
		return utils.SendError(c, fiber.StatusBadRequest, "club_id, semester_id and month are required")
	}

	record, err := h.service.GetOrCreateRecord(c.Context(), payload.ClubID, payload.SemesterID, payload.Month)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "club movement record ready", record)
}

func (h *ClubMovementHandler) autoScore(c *fiber.Ctx) error {
	var payload dto.ClubAutoScoreRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	line, err := h.service.AddAutomaticScore(c.Context(), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "automatic score recorded", line)
}

func (h *ClubMovementHandler) listByClub(c *fiber.Ctx) error {
	clubID, err := parseUintParam(c, "clubID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	records, err := h.service.ListByClub(c.Context(), clubID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "club movement records retrieved", records)
}

func (h *ClubMovementHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	record, err := h.service.GetRecord(c.Context(), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "club movement record retrieved", record)
}

func (h *ClubMovementHandler) detail(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	record, err := h.service.GetRecordDetail(c.Context(), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "club movement record detail retrieved", record)
}

func (h *ClubMovementHandler) delete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.DeleteRecord(c.Context(), id); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "club movement record deleted", fiber.Map{"id": id})
}

func (h *ClubMovementHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrClubMovementRecordNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "club movement record not found")
	case errors.Is(err, service.ErrCriterionNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "criterion not found")
	case errors.Is(err, service.ErrCriterionInactive):
		return utils.SendError(c, fiber.StatusUnprocessableEntity, "criterion is not active")
	case errors.Is(err, service.ErrCriterionWrongTarget):
		return utils.SendError(c, fiber.StatusUnprocessableEntity, "criterion targets a different subject type")
	case errors.Is(err, service.ErrCapExceeded):
		return utils.SendError(c, fiber.StatusUnprocessableEntity, "criterion cap exceeded")
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		return h.internalError(c, err)
	}
}

func (h *ClubMovementHandler) internalError(c *fiber.Ctx, err error) error {
	requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
	return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
}
