package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/Tanth170203/eduxtend-api/internal/dto"
	"github.com/Tanth170203/eduxtend-api/internal/service"
	"github.com/Tanth170203/eduxtend-api/internal/utils"
)

// MovementHandler wires the student movement ledger HTTP routes.
type MovementHandler struct {
	service service.MovementScoreService
	logger  zerolog.Logger
}

// NewMovementHandler constructs the handler.
func NewMovementHandler(service service.MovementScoreService, logger zerolog.Logger) *MovementHandler {
	return &MovementHandler{
		service: service,
		logger:  logger.With().Str("component", "movement_handler").Logger(),
	}
}

// Register attaches student ledger endpoints to the router group. Reads stay
// open to any authenticated caller; ingestGate guards award ingestion
// (get-or-create and auto-score) and adminGate guards record deletion.
func (h *MovementHandler) Register(router fiber.Router, ingestGate, adminGate fiber.Handler) {
	ingestGate = gateOrNext(ingestGate)
	adminGate = gateOrNext(adminGate)

	router.Get("", h.listBySemester)
	router.Post("", ingestGate, h.getOrCreate)
	router.Post("/auto-score", ingestGate, h.autoScore)
	router.Get("/student/:studentID", h.listByStudent)
	router.Get("/student/:studentID/semester/:semesterID", h.byStudentSemester)
	router.Get("/:id", h.get)
	router.Get("/:id/details", h.detail)
	router.Delete("/:id", adminGate, h.delete)
}

func (h *MovementHandler) listBySemester(c *fiber.Ctx) error {
	semesterID, err := parseQueryUint(c, "semester_id")
	if err != nil || semesterID == 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "semester_id is required")
	}

	page, err := parseQueryInt(c, "page")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page")
	}
	pageSize, err := parseQueryInt(c, "page_size")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page_size")
	}

	records, total, err := h.service.ListBySemester(c.Context(), semesterID, page, pageSize)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendPage(c, "movement records retrieved", records, utils.PageMeta{
		Page:     page,
		PageSize: pageSize,
		Total:    total,
	})
}

func (h *MovementHandler) getOrCreate(c *fiber.Ctx) error {
	var payload struct {
		StudentID  uint `json:"student_id"`
		SemesterID uint `json:"semester_id"`
	}
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if payload.StudentID == 0 || payload.SemesterID == 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "student_id and semester_id are required")
	}

	record, err := h.service.GetOrCreateRecord(c.Context(), payload.StudentID, payload.SemesterID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "movement record ready", record)
}

func (h *MovementHandler) autoScore(c *fiber.Ctx) error {
	var payload dto.AutoScoreRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	line, err := h.service.AddAutomaticScore(c.Context(), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "automatic score recorded", line)
}

func (h *MovementHandler) listByStudent(c *fiber.Ctx) error {
	studentID, err := parseUintParam(c, "studentID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	records, err := h.service.ListByStudent(c.Context(), studentID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "movement records retrieved", records)
}

func (h *MovementHandler) byStudentSemester(c *fiber.Ctx) error {
	studentID, err := parseUintParam(c, "studentID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	semesterID, err := parseUintParam(c, "semesterID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	record, err := h.service.GetByStudentSemester(c.Context(), studentID, semesterID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "movement record retrieved", record)
}

func (h *MovementHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	record, err := h.service.GetRecord(c.Context(), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "movement record retrieved", record)
}

func (h *MovementHandler) detail(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	record, err := h.service.GetRecordDetail(c.Context(), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "movement record detail retrieved", record)
}

func (h *MovementHandler) delete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.DeleteRecord(c.Context(), id); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "movement record deleted", fiber.Map{"id": id})
}

func (h *MovementHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrMovementRecordNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "movement record not found")
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

func (h *MovementHandler) internalError(c *fiber.Ctx, err error) error {
	requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
	return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
}
