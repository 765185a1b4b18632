package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/Tanth170203/eduxtend-api/internal/service"
	"github.com/Tanth170203/eduxtend-api/internal/utils"
)

// LeaderboardHandler serves cached semester rankings.
type LeaderboardHandler struct {
	service service.LeaderboardService
	logger  zerolog.Logger
}

// NewLeaderboardHandler constructs the handler.
func NewLeaderboardHandler(service service.LeaderboardService, logger zerolog.Logger) *LeaderboardHandler {
	return &LeaderboardHandler{
		service: service,
		logger:  logger.With().Str("component", "leaderboard_handler").Logger(),
	}
}

// Register attaches leaderboard endpoints to the router group.
func (h *LeaderboardHandler) Register(router fiber.Router) {
	router.Get("/students", h.students)
	router.Get("/clubs", h.clubs)
}

func (h *LeaderboardHandler) students(c *fiber.Ctx) error {
	semesterID, err := parseQueryUint(c, "semester_id")
	if err != nil || semesterID == 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "semester_id is required")
	}
	limit, err := parseQueryInt(c, "limit")
	if err != nil || limit < 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid limit")
	}

	board, err := h.service.TopStudents(c.Context(), semesterID, limit)
	if err != nil {
		return h.internalError(c, err)
	}

	return utils.SendSuccess(c, "student leaderboard retrieved", board)
}

func (h *LeaderboardHandler) clubs(c *fiber.Ctx) error {
	semesterID, err := parseQueryUint(c, "semester_id")
	if err != nil || semesterID == 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "semester_id is required")
	}
	month, err := parseQueryInt(c, "month")
	if err != nil || month < 1 || month > 12 {
		return utils.SendError(c, fiber.StatusBadRequest, "month is required")
	}
	limit, err := parseQueryInt(c, "limit")
	if err != nil || limit < 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid limit")
	}

	board, err := h.service.TopClubs(c.Context(), semesterID, month, limit)
	if err != nil {
		return h.internalError(c, err)
	}

	return utils.SendSuccess(c, "club leaderboard retrieved", board)
}

func (h *LeaderboardHandler) internalError(c *fiber.Ctx, err error) error {
	requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
	return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
}
