package models

import "time"

// Assistant message senders.
const (
	SenderUser      = "user"
	SenderAssistant = "assistant"
)

// AssistantMessage is one entry of an assistant chat transcript.
type AssistantMessage struct {
	Sender    string    `json:"sender"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}
