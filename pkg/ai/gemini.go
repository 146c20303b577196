package ai

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	// DefaultGeminiBaseURL is the OpenAI-compatible surface of the Gemini API.
	DefaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai"
	// DefaultGeminiModel is the model used when none is configured.
	DefaultGeminiModel = "gemini-2.5-flash"
)

var (
	generateDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "siswa",
		Subsystem: "assistant",
		Name:      "generate_duration_seconds",
		Help:      "Duration of language model requests",
	}, []string{"model"})

	generateFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "siswa",
		Subsystem: "assistant",
		Name:      "generate_failures_total",
		Help:      "Number of failed language model requests",
	}, []string{"model", "kind"})
)

// GeminiConfig defines configuration options for the Gemini generator.
type GeminiConfig struct {
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float32
	HTTPClient  *http.Client
	Logger      zerolog.Logger
}

// GeminiGenerator implements Generator against Gemini's OpenAI-compatible chat completion API.
// The API key travels with each request, so one generator serves every credential.
type GeminiGenerator struct {
	cfg    GeminiConfig
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewGeminiGenerator builds a generator using the provided configuration.
func NewGeminiGenerator(cfg GeminiConfig) *GeminiGenerator {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultGeminiBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Model == "" {
		cfg.Model = DefaultGeminiModel
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}

	logger := cfg.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = zerolog.Nop()
	}

	return &GeminiGenerator{
		cfg:    cfg,
		tracer: otel.Tracer("github.com/noah-isme/siswa-api/pkg/ai/gemini"),
		logger: logger,
	}
}

// Generate sends the prompt with the system instruction and returns the raw answer text.
func (g *GeminiGenerator) Generate(parent context.Context, req ChatRequest) (ChatResponse, error) {
	model := req.Model
	if model == "" {
		model = g.cfg.Model
	}

	ctx, span := g.tracer.Start(parent, "gemini.generate", trace.WithAttributes(
		attribute.String("model", model),
		attribute.Int("prompt.length", len(req.Prompt)),
	))
	defer span.End()

	if strings.TrimSpace(req.APIKey) == "" {
		generateFailures.WithLabelValues(model, "credential").Inc()
		span.SetStatus(codes.Error, ErrMissingCredential.Error())
		return ChatResponse{}, ErrMissingCredential
	}

	config := openai.DefaultConfig(req.APIKey)
	config.BaseURL = g.cfg.BaseURL
	config.HTTPClient = g.cfg.HTTPClient
	client := openai.NewClientWithConfig(config)

	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if strings.TrimSpace(req.SystemInstruction) != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.SystemInstruction,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Prompt,
	})

	request := openai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		MaxTokens:   g.cfg.MaxTokens,
		Temperature: g.cfg.Temperature,
	}

	start := time.Now()
	resp, err := client.CreateChatCompletion(ctx, request)
	generateDuration.WithLabelValues(model).Observe(time.Since(start).Seconds())
	if err != nil {
		err = classifyError(err)
		kind := "transport"
		if IsCredentialError(err) {
			kind = "credential"
		}
		generateFailures.WithLabelValues(model, kind).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		g.logger.Warn().Err(err).Str("model", model).Str("kind", kind).Msg("gemini request failed")
		return ChatResponse{}, err
	}

	if len(resp.Choices) == 0 {
		generateFailures.WithLabelValues(model, "empty").Inc()
		span.SetStatus(codes.Error, ErrEmptyResponse.Error())
		return ChatResponse{}, ErrEmptyResponse
	}

	return ChatResponse{
		Text:  resp.Choices[0].Message.Content,
		Model: resp.Model,
	}, nil
}

// classifyError maps provider responses that reject the API key onto ErrInvalidCredential.
func classifyError(err error) error {
	status := statusCode(err)
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	case status == http.StatusBadRequest && strings.Contains(strings.ToLower(err.Error()), "api key"):
		return fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	}
	return fmt.Errorf("gemini generate: %w", err)
}

func statusCode(err error) int {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}

// IsTemporary reports whether a failed request is worth retrying: timeouts,
// network failures, rate limiting and server errors.
func IsTemporary(err error) bool {
	if err == nil || IsCredentialError(err) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if status := statusCode(err); status != 0 {
		return status == http.StatusTooManyRequests || status >= http.StatusInternalServerError
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
