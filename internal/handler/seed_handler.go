package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/siswa-api/internal/service"
	"github.com/noah-isme/siswa-api/internal/utils"
)

// SeedHandler exposes tooling endpoints for seeding data.
type SeedHandler struct {
	service service.SeedService
	logger  zerolog.Logger
}

// NewSeedHandler constructs a seed handler.
func NewSeedHandler(service service.SeedService, logger zerolog.Logger) *SeedHandler {
	return &SeedHandler{
		service: service,
		logger:  logger.With().Str("component", "seed_handler").Logger(),
	}
}

// Register wires seed routes.
func (h *SeedHandler) Register(router fiber.Router) {
	router.Post("/students", h.students)
}

// students replaces the whole roster with the posted document.
func (h *SeedHandler) students(c *fiber.Ctx) error {
	token := c.Get("X-Seed-Token")

	affected, err := h.service.ReplaceStudents(requestContext(c), token, c.Body())
	if err != nil {
		return h.seedError(c, err)
	}

	return utils.SendSuccess(c, "students seeded", fiber.Map{"affected": affected})
}

func (h *SeedHandler) seedError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrSeedDisabled):
		return utils.SendError(c, fiber.StatusForbidden, "seeding disabled")
	case errors.Is(err, service.ErrSeedUnauthorized):
		return utils.SendError(c, fiber.StatusForbidden, "invalid token")
	case errors.Is(err, service.ErrSeedInvalidPayload):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("seed operation failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "seed operation failed")
	}
}
