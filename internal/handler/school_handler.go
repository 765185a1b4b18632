package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/Tanth170203/eduxtend-api/internal/service"
	"github.com/Tanth170203/eduxtend-api/internal/utils"
)

// SchoolHandler serves the reference entities the scoring engine scores
// against: semesters, students and clubs.
type SchoolHandler struct {
	service service.SchoolService
	logger  zerolog.Logger
}

// NewSchoolHandler constructs the handler.
func NewSchoolHandler(service service.SchoolService, logger zerolog.Logger) *SchoolHandler {
	return &SchoolHandler{
		service: service,
		logger:  logger.With().Str("component", "school_handler").Logger(),
	}
}

// RegisterSemesters attaches semester endpoints to the router group.
func (h *SchoolHandler) RegisterSemesters(router fiber.Router) {
	router.Get("", h.listSemesters)
	router.Get("/active", h.activeSemester)
	router.Get("/:id", h.getSemester)
}

// RegisterStudents attaches student endpoints to the router group.
func (h *SchoolHandler) RegisterStudents(router fiber.Router) {
	router.Get("/:id", h.getStudent)
}

// RegisterClubs attaches club endpoints to the router group.
func (h *SchoolHandler) RegisterClubs(router fiber.Router) {
	router.Get("/:id", h.getClub)
}

func (h *SchoolHandler) listSemesters(c *fiber.Ctx) error {
	semesters, err := h.service.ListSemesters(c.Context())
	if err != nil {
		return h.internalError(c, err)
	}

	return utils.SendSuccess(c, "semesters retrieved", semesters)
}

func (h *SchoolHandler) activeSemester(c *fiber.Ctx) error {
	semester, err := h.service.GetActiveSemester(c.Context())
	if err != nil {
		if errors.Is(err, service.ErrSemesterNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "no active semester")
		}
		return h.internalError(c, err)
	}

	return utils.SendSuccess(c, "active semester retrieved", semester)
}

func (h *SchoolHandler) getSemester(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	semester, err := h.service.GetSemester(c.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrSemesterNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "semester not found")
		}
		return h.internalError(c, err)
	}

	return utils.SendSuccess(c, "semester retrieved", semester)
}

func (h *SchoolHandler) getStudent(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	student, err := h.service.GetStudent(c.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrStudentNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "student not found")
		}
		return h.internalError(c, err)
	}

	return utils.SendSuccess(c, "student retrieved", student)
}

func (h *SchoolHandler) getClub(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	club, err := h.service.GetClub(c.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrClubNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "club not found")
		}
		return h.internalError(c, err)
	}

	return utils.SendSuccess(c, "club retrieved", club)
}

func (h *SchoolHandler) internalError(c *fiber.Ctx, err error) error {
	requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
	return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
}
