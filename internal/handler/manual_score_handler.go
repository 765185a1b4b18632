package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/Tanth170203/eduxtend-api/internal/dto"
	"github.com/Tanth170203/eduxtend-api/internal/service"
	"github.com/Tanth170203/eduxtend-api/internal/utils"
)

// ManualScoreHandler wires the admin manual override HTTP routes. The acting
// administrator always comes from the JWT context, never from the body.
type ManualScoreHandler struct {
	service service.ManualScoreService
	logger  zerolog.Logger
}

// NewManualScoreHandler constructs the handler.
func NewManualScoreHandler(service service.ManualScoreService, logger zerolog.Logger) *ManualScoreHandler {
	return &ManualScoreHandler{
		service: service,
		logger:  logger.With().Str("component", "manual_score_handler").Logger(),
	}
}

// Register attaches manual override endpoints to the router group.
func (h *ManualScoreHandler) Register(router fiber.Router) {
	router.Post("/students", h.addStudent)
	router.Patch("/students/:lineID", h.updateStudent)
	router.Delete("/students/:lineID", h.deleteStudent)
	router.Post("/clubs", h.addClub)
	router.Patch("/clubs/:lineID", h.updateClub)
	router.Delete("/clubs/:lineID", h.deleteClub)
}

func (h *ManualScoreHandler) addStudent(c *fiber.Ctx) error {
	var payload dto.ManualScoreCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	line, err := h.service.AddStudentScore(c.Context(), payload, actorFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "manual score added", line)
}

func (h *ManualScoreHandler) updateStudent(c *fiber.Ctx) error {
	lineID, err := parseUintParam(c, "lineID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.ManualScoreUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	line, err := h.service.UpdateStudentScore(c.Context(), lineID, payload, actorFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "manual score updated", line)
}

func (h *ManualScoreHandler) deleteStudent(c *fiber.Ctx) error {
	lineID, err := parseUintParam(c, "lineID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.DeleteStudentScore(c.Context(), lineID, actorFromContext(c)); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "manual score deleted", fiber.Map{"id": lineID})
}

func (h *ManualScoreHandler) addClub(c *fiber.Ctx) error {
	var payload dto.ClubManualScoreCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	line, err := h.service.AddClubScore(c.Context(), payload, actorFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "manual score added", line)
}

func (h *ManualScoreHandler) updateClub(c *fiber.Ctx) error {
	lineID, err := parseUintParam(c, "lineID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.ManualScoreUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	line, err := h.service.UpdateClubScore(c.Context(), lineID, payload, actorFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "manual score updated", line)
}

func (h *ManualScoreHandler) deleteClub(c *fiber.Ctx) error {
	lineID, err := parseUintParam(c, "lineID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.DeleteClubScore(c.Context(), lineID, actorFromContext(c)); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "manual score deleted", fiber.Map{"id": lineID})
}

func (h *ManualScoreHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrScoreLineNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "score line not found")
	case errors.Is(err, service.ErrMovementRecordNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "movement record not found")
	case errors.Is(err, service.ErrClubMovementRecordNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "club movement record not found")
	case errors.Is(err, service.ErrCriterionNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "criterion not found")
	case errors.Is(err, service.ErrNotManualLine):
		return utils.SendError(c, fiber.StatusConflict, "only manual score lines can be changed")
	case errors.Is(err, service.ErrCriterionInactive):
		return utils.SendError(c, fiber.StatusUnprocessableEntity, "criterion is not active")
	case errors.Is(err, service.ErrCriterionWrongTarget):
		return utils.SendError(c, fiber.StatusUnprocessableEntity, "criterion targets a different subject type")
	case errors.Is(err, service.ErrActorRequired):
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	case errors.Is(err, service.ErrNoteRequired):
		return utils.SendError(c, fiber.StatusBadRequest, "justification note is required")
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		return h.internalError(c, err)
	}
}

func (h *ManualScoreHandler) internalError(c *fiber.Ctx, err error) error {
	requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
	return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
}
