package dto

import (
	"time"

	"github.com/noah-isme/siswa-api/internal/models"
)

// Assistant outcomes reported for each submitted message.
const (
	AssistantOutcomeAnswered        = "answered"
	AssistantOutcomeCredentialError = "credential_error"
	AssistantOutcomeFailed          = "failed"
)

// AssistantMessageRequest is a question typed into the assistant widget.
type AssistantMessageRequest struct {
	Text string `json:"text" validate:"required,max=4000"`
}

// AssistantSessionResponse describes a chat session and its transcript.
type AssistantSessionResponse struct {
	ID        string                    `json:"id"`
	Messages  []models.AssistantMessage `json:"messages"`
	InFlight  bool                      `json:"in_flight"`
	CreatedAt time.Time                 `json:"created_at"`
}

// AssistantReply is the result of one submit: the appended assistant message and the full transcript.
type AssistantReply struct {
	SessionID string                    `json:"session_id"`
	Outcome   string                    `json:"outcome"`
	Reply     models.AssistantMessage   `json:"reply"`
	Messages  []models.AssistantMessage `json:"messages"`
}
