package handler

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/siswa-api/internal/dto"
	"github.com/noah-isme/siswa-api/internal/models"
	"github.com/noah-isme/siswa-api/internal/service"
	"github.com/noah-isme/siswa-api/internal/utils"
)

const maskedAPIKey = "********"

// SettingsHandler exposes preference reads, writes and the change stream.
type SettingsHandler struct {
	service   service.SettingsService
	logger    zerolog.Logger
	keepAlive time.Duration
}

// NewSettingsHandler constructs a handler instance.
func NewSettingsHandler(service service.SettingsService, logger zerolog.Logger, keepAlive time.Duration) *SettingsHandler {
	if keepAlive <= 0 {
		keepAlive = 30 * time.Second
	}
	return &SettingsHandler{
		service:   service,
		logger:    logger.With().Str("component", "settings_handler").Logger(),
		keepAlive: keepAlive,
	}
}

// Register binds the settings routes.
func (h *SettingsHandler) Register(router fiber.Router) {
	router.Get("", h.current)
	router.Patch("", h.update)
	router.Post("/reset", h.reset)
	router.Get("/stream", h.stream)
	router.Get("/:key", h.get)
	router.Put("/:key", h.set)
}

func (h *SettingsHandler) current(c *fiber.Ctx) error {
	settings := h.service.Current(requestContext(c))
	return utils.SendSuccess(c, "settings", dto.NewSettingsResponse(settings))
}

func (h *SettingsHandler) get(c *fiber.Ctx) error {
	key := c.Params("key")
	value, err := h.service.Get(requestContext(c), key)
	if err != nil {
		return h.handleError(c, err)
	}
	if key == models.SettingKeyAPIKey && value != "" {
		value = maskedAPIKey
	}
	return utils.SendSuccess(c, "setting", dto.SettingValueResponse{Key: key, Value: value})
}

func (h *SettingsHandler) set(c *fiber.Ctx) error {
	var payload dto.SettingValueRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	settings, err := h.service.Set(requestContext(c), c.Params("key"), payload.Value)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "setting updated", settings)
}

func (h *SettingsHandler) update(c *fiber.Ctx) error {
	var payload dto.SettingsUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	settings, err := h.service.Update(requestContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "settings updated", settings)
}

func (h *SettingsHandler) reset(c *fiber.Ctx) error {
	response, err := h.service.Reset(requestContext(c))
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "settings reset", response)
}

func (h *SettingsHandler) stream(c *fiber.Ctx) error {
	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	ctx, cancel := context.WithCancel(requestContext(c))
	events, cleanup := h.service.Subscribe()
	snapshot := dto.SettingsEvent{
		Type:       dto.SettingsEventSnapshot,
		Keys:       append([]string(nil), models.SettingKeys...),
		Settings:   dto.NewSettingsResponse(h.service.Current(ctx)),
		OccurredAt: time.Now().UTC(),
	}

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer func() {
			cleanup()
			cancel()
		}()

		if err := streamSettingsEvents(ctx, w, snapshot, events, h.keepAlive); err != nil {
			h.logger.Debug().Err(err).Msg("settings stream closed")
		}
	})

	return nil
}

func (h *SettingsHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrUnknownSettingKey):
		return utils.SendError(c, fiber.StatusNotFound, "unknown setting key")
	case isValidationError(err):
		return utils.Fail(c, fiber.StatusBadRequest, err.Error(), validationDetails(err))
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("settings operation failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "settings operation failed")
	}
}

// streamSettingsEvents writes the snapshot, then every broadcast event, until
// the subscription closes or ctx ends.
func streamSettingsEvents(ctx context.Context, w *bufio.Writer, snapshot dto.SettingsEvent, events <-chan dto.SettingsEvent, keepAlive time.Duration) error {
	if err := writeSettingsEvent(w, snapshot); err != nil {
		return err
	}

	ticker := time.NewTicker(keepAlive / 2)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return nil
			}
			if err := writeSettingsEvent(w, event); err != nil {
				return err
			}
		case <-ticker.C:
			if err := writeKeepAlive(w); err != nil {
				return err
			}
		case <-ctx.Done():
			return nil
		}
	}
}

func writeSettingsEvent(w *bufio.Writer, event dto.SettingsEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w, "event: %s\n", event.Type); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
		return err
	}
	return w.Flush()
}

func writeKeepAlive(w *bufio.Writer) error {
	if _, err := fmt.Fprintf(w, ": keep-alive %s\n\n", time.Now().UTC().Format(time.RFC3339)); err != nil {
		return err
	}
	return w.Flush()
}
