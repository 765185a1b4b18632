package handler

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/Tanth170203/eduxtend-api/internal/dto"
	"github.com/Tanth170203/eduxtend-api/internal/models"
	"github.com/Tanth170203/eduxtend-api/internal/repository"
	"github.com/Tanth170203/eduxtend-api/internal/service"
	"github.com/Tanth170203/eduxtend-api/internal/utils"
)

// CriterionHandler wires the criterion catalog HTTP routes.
type CriterionHandler struct {
	service service.CriterionService
	logger  zerolog.Logger
}

// NewCriterionHandler constructs the handler.
func NewCriterionHandler(service service.CriterionService, logger zerolog.Logger) *CriterionHandler {
	return &CriterionHandler{
		service: service,
		logger:  logger.With().Str("component", "criterion_handler").Logger(),
	}
}

// RegisterGroups attaches criterion group endpoints to the router group.
func (h *CriterionHandler) RegisterGroups(router fiber.Router) {
	router.Get("", h.listGroups)
	router.Get("/:id", h.getGroup)
	router.Post("", h.createGroup)
	router.Patch("/:id", h.updateGroup)
	router.Delete("/:id", h.deleteGroup)
}

// RegisterCriteria attaches criterion endpoints to the router group.
func (h *CriterionHandler) RegisterCriteria(router fiber.Router) {
	router.Get("", h.listCriteria)
	router.Get("/:id", h.getCriterion)
	router.Post("", h.createCriterion)
	router.Patch("/:id", h.updateCriterion)
	router.Patch("/:id/toggle", h.toggleCriterion)
	router.Delete("/:id", h.deleteCriterion)
}

func (h *CriterionHandler) listGroups(c *fiber.Ctx) error {
	target := strings.TrimSpace(c.Query("target_type"))
	groups, err := h.service.ListGroups(c.Context(), target)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "criterion groups retrieved", groups)
}

func (h *CriterionHandler) getGroup(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	group, err := h.service.GetGroup(c.Context(), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "criterion group retrieved", group)
}

func (h *CriterionHandler) createGroup(c *fiber.Ctx) error {
	var payload dto.CriterionGroupCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	group, err := h.service.CreateGroup(c.Context(), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "criterion group created", group)
}

func (h *CriterionHandler) updateGroup(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.CriterionGroupUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	group, err := h.service.UpdateGroup(c.Context(), id, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "criterion group updated", group)
}

func (h *CriterionHandler) deleteGroup(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.DeleteGroup(c.Context(), id); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "criterion group deleted", fiber.Map{"id": id})
}

func (h *CriterionHandler) listCriteria(c *fiber.Ctx) error {
	filter := repository.CriterionFilter{
		TargetType: models.TargetType(strings.TrimSpace(c.Query("target_type"))),
		ActiveOnly: c.QueryBool("active_only"),
	}
	if groupID, err := parseQueryUint(c, "group_id"); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid group_id")
	} else if groupID != 0 {
		filter.GroupID = &groupID
	}

	criteria, err := h.service.ListCriteria(c.Context(), filter)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "criteria retrieved", criteria)
}

func (h *CriterionHandler) getCriterion(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	criterion, err := h.service.GetCriterion(c.Context(), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "criterion retrieved", criterion)
}

func (h *CriterionHandler) createCriterion(c *fiber.Ctx) error {
	var payload dto.CriterionCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	criterion, err := h.service.CreateCriterion(c.Context(), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "criterion created", criterion)
}

func (h *CriterionHandler) updateCriterion(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.CriterionUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	criterion, err := h.service.UpdateCriterion(c.Context(), id, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "criterion updated", criterion)
}

func (h *CriterionHandler) toggleCriterion(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	criterion, err := h.service.ToggleCriterion(c.Context(), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "criterion toggled", criterion)
}

func (h *CriterionHandler) deleteCriterion(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.DeleteCriterion(c.Context(), id); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "criterion deleted", fiber.Map{"id": id})
}

func (h *CriterionHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrCriterionGroupNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "criterion group not found")
	case errors.Is(err, service.ErrCriterionNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "criterion not found")
	case errors.Is(err, service.ErrGroupInUse):
		return utils.SendError(c, fiber.StatusConflict, "criterion group has existing criteria")
	case errors.Is(err, service.ErrCriterionInUse):
		return utils.SendError(c, fiber.StatusConflict, "criterion has existing score lines")
	case errors.Is(err, service.ErrInvalidPointRange):
		return utils.SendError(c, fiber.StatusBadRequest, "min points must not exceed max points")
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		return h.internalError(c, err)
	}
}

func (h *CriterionHandler) internalError(c *fiber.Ctx, err error) error {
	requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
	return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
}
