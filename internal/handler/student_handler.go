package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	fiberutils "github.com/gofiber/fiber/v2/utils"
	"github.com/rs/zerolog"

	"github.com/noah-isme/siswa-api/internal/dto"
	"github.com/noah-isme/siswa-api/internal/service"
	"github.com/noah-isme/siswa-api/internal/utils"
)

// StudentHandler wires roster endpoints.
type StudentHandler struct {
	service service.StudentService
	logger  zerolog.Logger
}

// NewStudentHandler constructs the handler.
func NewStudentHandler(service service.StudentService, logger zerolog.Logger) *StudentHandler {
	return &StudentHandler{
		service: service,
		logger:  logger.With().Str("component", "student_handler").Logger(),
	}
}

// Register attaches roster routes to the router group.
func (h *StudentHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Get("/options", h.options)
	router.Get("/statistics", h.statistics)
	router.Post("/sort-toggle", h.toggleSort)
	router.Get("/:id", h.get)
	router.Post("", h.create)
	router.Put("/:id", h.update)
	router.Delete("/:id", h.delete)
}

func (h *StudentHandler) list(c *fiber.Ctx) error {
	req := dto.StudentListRequest{
		Search:    c.Query("search"),
		MinAge:    c.Query("min_age"),
		Class:     c.Query("class"),
		Gender:    c.Query("gender"),
		MinHeight: c.Query("min_height"),
		MaxWeight: c.Query("max_weight"),
		Vocations: queryList(c, "vocations"),
		Sort:      c.Query("sort"),
		Direction: c.Query("direction"),
	}

	response, err := h.service.List(requestContext(c), req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidSortKey) {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid sort key")
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to list students")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to list students")
	}

	return utils.OK(c, response.Items, "students retrieved", fiber.Map{
		"total":   response.Total,
		"matched": response.Matched,
		"sort":    response.Sort,
	})
}

func (h *StudentHandler) options(c *fiber.Ctx) error {
	return utils.SendSuccess(c, "student options", h.service.Options())
}

func (h *StudentHandler) statistics(c *fiber.Ctx) error {
	stats, err := h.service.Statistics(requestContext(c))
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to compute statistics")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to compute statistics")
	}
	return utils.SendSuccess(c, "student statistics", stats)
}

func (h *StudentHandler) toggleSort(c *fiber.Ctx) error {
	var payload dto.SortToggleRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	next, err := h.service.ToggleSort(payload)
	if err != nil {
		if isValidationError(err) || errors.Is(err, service.ErrInvalidSortKey) {
			return utils.Fail(c, fiber.StatusBadRequest, "invalid sort key", validationDetails(err))
		}
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to toggle sort")
	}
	return utils.SendSuccess(c, "sort updated", next)
}

func (h *StudentHandler) get(c *fiber.Ctx) error {
	student, err := h.service.Get(requestContext(c), c.Params("id"))
	if err != nil {
		return h.handleError(c, err, "failed to load student")
	}
	return utils.SendSuccess(c, "student retrieved", student)
}

func (h *StudentHandler) create(c *fiber.Ctx) error {
	var payload dto.StudentRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	student, err := h.service.Create(requestContext(c), payload)
	if err != nil {
		return h.handleError(c, err, "failed to create student")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "student created", student)
}

func (h *StudentHandler) update(c *fiber.Ctx) error {
	var payload dto.StudentRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	// Params are backed by the pooled request buffer and the id is kept by the store.
	id := fiberutils.CopyString(c.Params("id"))
	student, err := h.service.Update(requestContext(c), id, payload)
	if err != nil {
		return h.handleError(c, err, "failed to update student")
	}
	return utils.SendSuccess(c, "student updated", student)
}

func (h *StudentHandler) delete(c *fiber.Ctx) error {
	removed, err := h.service.Delete(requestContext(c), c.Params("id"))
	if err != nil {
		return h.handleError(c, err, "failed to delete student")
	}

	message := "student deleted"
	if !removed {
		message = "student already absent"
	}
	return utils.SendSuccess(c, message, fiber.Map{"removed": removed})
}

func (h *StudentHandler) handleError(c *fiber.Ctx, err error, message string) error {
	switch {
	case errors.Is(err, service.ErrStudentNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "student not found")
	case isValidationError(err):
		return utils.Fail(c, fiber.StatusBadRequest, err.Error(), validationDetails(err))
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg(message)
		return utils.SendError(c, fiber.StatusInternalServerError, message)
	}
}
