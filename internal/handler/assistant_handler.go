package handler

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/siswa-api/internal/dto"
	"github.com/noah-isme/siswa-api/internal/service"
	"github.com/noah-isme/siswa-api/internal/utils"
)

// Websocket frame types sent to assistant clients.
const (
	assistantFrameSession = "session"
	assistantFrameReply   = "reply"
	assistantFrameError   = "error"
)

type assistantFrame struct {
	Type    string      `json:"type"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

// AssistantHandler wires assistant chat endpoints including the websocket upgrade.
type AssistantHandler struct {
	service   service.AssistantService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewAssistantHandler creates an assistant handler instance.
func NewAssistantHandler(service service.AssistantService, validator *validator.Validate, logger zerolog.Logger) *AssistantHandler {
	return &AssistantHandler{
		service:   service,
		validator: validator,
		logger:    logger.With().Str("component", "assistant_handler").Logger(),
	}
}

// Register binds assistant routes. The limiters, when set, guard message
// submission and session creation respectively.
func (h *AssistantHandler) Register(router fiber.Router, messageLimiter, sessionLimiter fiber.Handler) {
	passThrough := func(c *fiber.Ctx) error { return c.Next() }
	if messageLimiter == nil {
		messageLimiter = passThrough
	}
	if sessionLimiter == nil {
		sessionLimiter = passThrough
	}

	router.Post("/sessions", sessionLimiter, h.createSession)
	router.Get("/sessions/:id", h.session)
	router.Post("/sessions/:id/messages", messageLimiter, h.sendMessage)

	router.Get("/sessions/:id/ws", h.upgrade, websocket.New(h.handleConnection))
}

func (h *AssistantHandler) upgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	ctx := requestContext(c)
	if _, err := h.service.Session(ctx, c.Params("id")); err != nil {
		return h.handleError(c, err)
	}
	c.Locals("request_ctx", ctx)
	return c.Next()
}

func (h *AssistantHandler) createSession(c *fiber.Ctx) error {
	session, err := h.service.CreateSession(requestContext(c))
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "assistant session created", session)
}

func (h *AssistantHandler) session(c *fiber.Ctx) error {
	session, err := h.service.Session(requestContext(c), c.Params("id"))
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "assistant session", session)
}

func (h *AssistantHandler) sendMessage(c *fiber.Ctx) error {
	var payload dto.AssistantMessageRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}
	if err := h.validator.Struct(payload); err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, err.Error(), validationDetails(err))
	}

	reply, err := h.service.SendMessage(requestContext(c), c.Params("id"), payload.Text)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "assistant replied", reply)
}

func (h *AssistantHandler) handleConnection(conn *websocket.Conn) {
	sessionID := conn.Params("id")
	baseCtx, _ := conn.Locals("request_ctx").(context.Context)
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	logger := h.logger.With().Str("session_id", sessionID).Logger()
	defer func() { _ = conn.Close() }()

	session, err := h.service.Session(baseCtx, sessionID)
	if err != nil {
		_ = conn.WriteJSON(assistantFrame{Type: assistantFrameError, Message: err.Error()})
		return
	}
	if err := conn.WriteJSON(assistantFrame{Type: assistantFrameSession, Data: session}); err != nil {
		return
	}

	logger.Info().Msg("assistant websocket connected")
	defer logger.Info().Msg("assistant websocket disconnected")

	for {
		var payload dto.AssistantMessageRequest
		if err := conn.ReadJSON(&payload); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Debug().Err(err).Msg("assistant websocket read failed")
			}
			return
		}

		frame := h.process(baseCtx, sessionID, payload)
		if err := conn.WriteJSON(frame); err != nil {
			logger.Debug().Err(err).Msg("assistant websocket write failed")
			return
		}
	}
}

func (h *AssistantHandler) process(ctx context.Context, sessionID string, payload dto.AssistantMessageRequest) assistantFrame {
	if err := h.validator.Struct(payload); err != nil {
		return assistantFrame{Type: assistantFrameError, Message: err.Error()}
	}
	reply, err := h.service.SendMessage(ctx, sessionID, payload.Text)
	if err != nil {
		return assistantFrame{Type: assistantFrameError, Message: err.Error()}
	}
	return assistantFrame{Type: assistantFrameReply, Data: reply}
}

func (h *AssistantHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrAssistantSessionNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "assistant session not found")
	case errors.Is(err, service.ErrAssistantBusy):
		return utils.SendError(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, service.ErrEmptyAssistantMessage):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrAssistantDisabled):
		return utils.SendError(c, fiber.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrAssistantCapacity):
		return utils.SendError(c, fiber.StatusServiceUnavailable, err.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("assistant operation failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "assistant operation failed")
	}
}
