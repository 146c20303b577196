package ai

import (
	"context"
	"errors"
)

var (
	// ErrMissingCredential indicates no API key was supplied for the request.
	ErrMissingCredential = errors.New("API key tidak ditemukan")
	// ErrInvalidCredential indicates the provider rejected the supplied API key.
	ErrInvalidCredential = errors.New("API key ditolak oleh penyedia")
	// ErrEmptyResponse indicates the provider answered without any content.
	ErrEmptyResponse = errors.New("empty response from language model")
)

// ChatRequest is a single-turn prompt sent to a language model.
type ChatRequest struct {
	APIKey            string
	Model             string
	SystemInstruction string
	Prompt            string
}

// ChatResponse carries the raw model output.
type ChatResponse struct {
	Text  string `json:"text"`
	Model string `json:"model"`
}

// Generator produces a completion for a single prompt.
type Generator interface {
	Generate(ctx context.Context, req ChatRequest) (ChatResponse, error)
}

// IsCredentialError reports whether err stems from a missing or rejected API key.
func IsCredentialError(err error) bool {
	return errors.Is(err, ErrMissingCredential) || errors.Is(err, ErrInvalidCredential)
}
