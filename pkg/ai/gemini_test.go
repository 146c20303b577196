package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGeminiGeneratorSendsSystemInstructionAndPrompt(t *testing.T) {
	var captured struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	var authHeader string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		authHeader = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"1","object":"chat.completion","model":"gemini-2.5-flash","choices":[{"index":0,"message":{"role":"assistant","content":"Ada 18 siswa."},"finish_reason":"stop"}]}`))
	}))
	defer server.Close()

	generator := NewGeminiGenerator(GeminiConfig{BaseURL: server.URL + "/"})
	resp, err := generator.Generate(context.Background(), ChatRequest{
		APIKey:            "secret",
		SystemInstruction: "Jawab singkat.",
		Prompt:            "Berapa jumlah siswa?",
	})
	require.NoError(t, err)
	require.Equal(t, "Ada 18 siswa.", resp.Text)
	require.Equal(t, "Bearer secret", authHeader)
	require.Equal(t, DefaultGeminiModel, captured.Model)
	require.Len(t, captured.Messages, 2)
	require.Equal(t, "system", captured.Messages[0].Role)
	require.Equal(t, "Jawab singkat.", captured.Messages[0].Content)
	require.Equal(t, "user", captured.Messages[1].Role)
	require.Equal(t, "Berapa jumlah siswa?", captured.Messages[1].Content)
}

func TestGeminiGeneratorMissingKeySkipsNetwork(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer server.Close()

	generator := NewGeminiGenerator(GeminiConfig{BaseURL: server.URL})
	_, err := generator.Generate(context.Background(), ChatRequest{Prompt: "hi"})

	require.ErrorIs(t, err, ErrMissingCredential)
	require.True(t, IsCredentialError(err))
	require.Zero(t, calls)
}

func TestGeminiGeneratorClassifiesRejectedKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"API key not valid. Please pass a valid API key.","type":"invalid_request_error","code":"invalid_api_key"}}`))
	}))
	defer server.Close()

	generator := NewGeminiGenerator(GeminiConfig{BaseURL: server.URL})
	_, err := generator.Generate(context.Background(), ChatRequest{APIKey: "bad", Prompt: "hi"})

	require.ErrorIs(t, err, ErrInvalidCredential)
	require.False(t, IsTemporary(err))
}

func TestGeminiGeneratorServerErrorIsTemporary(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":{"message":"overloaded","type":"server_error"}}`))
	}))
	defer server.Close()

	generator := NewGeminiGenerator(GeminiConfig{BaseURL: server.URL})
	_, err := generator.Generate(context.Background(), ChatRequest{APIKey: "key", Prompt: "hi"})

	require.Error(t, err)
	require.False(t, IsCredentialError(err))
	require.True(t, IsTemporary(err))
}

func TestIsTemporary(t *testing.T) {
	require.False(t, IsTemporary(nil))
	require.False(t, IsTemporary(ErrMissingCredential))
	require.True(t, IsTemporary(context.DeadlineExceeded))
	require.False(t, IsTemporary(errors.New("boom")))
}
