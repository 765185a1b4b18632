package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/Tanth170203/eduxtend-api/internal/service"
	"github.com/Tanth170203/eduxtend-api/internal/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportHandler streams semester movement reports as Excel workbooks.
type ExportHandler struct {
	service service.ExportService
	logger  zerolog.Logger
}

// NewExportHandler constructs the handler.
func NewExportHandler(service service.ExportService, logger zerolog.Logger) *ExportHandler {
	return &ExportHandler{
		service: service,
		logger:  logger.With().Str("component", "export_handler").Logger(),
	}
}

// Register attaches report endpoints to the router group.
func (h *ExportHandler) Register(router fiber.Router) {
	router.Get("/semesters/:semesterID/movement", h.semesterReport)
}

func (h *ExportHandler) semesterReport(c *fiber.Ctx) error {
	semesterID, err := parseUintParam(c, "semesterID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	report, filename, err := h.service.SemesterReport(c.Context(), semesterID)
	if err != nil {
		if errors.Is(err, service.ErrSemesterNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "semester not found")
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}

	c.Set(fiber.HeaderContentType, xlsxContentType)
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Send(report)
}
