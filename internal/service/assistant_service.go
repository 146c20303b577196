package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/siswa-api/internal/dto"
	"github.com/noah-isme/siswa-api/internal/models"
	"github.com/noah-isme/siswa-api/internal/observability"
	"github.com/noah-isme/siswa-api/internal/repository"
	"github.com/noah-isme/siswa-api/pkg/ai"
)

// Transcript texts shown to the user.
const (
	AssistantGreeting          = "Halo! Saya Asisten Cerdas 7C. Ada yang bisa saya bantu terkait data siswa?"
	AssistantCredentialMessage = "API key tidak ditemukan. Harap atur API Key kustom Anda di halaman Pengaturan."
	AssistantFailureMessage    = "Maaf, terjadi kesalahan saat menghubungi asisten AI. Pastikan API Key Anda valid dan coba lagi nanti."
)

const (
	assistantPromptPrefix   = "Berikut adalah data siswa saat ini dalam format JSON: "
	assistantQuestionPrefix = "\n\nUser Question: "
)

var (
	// ErrAssistantSessionNotFound indicates the session id is unknown.
	ErrAssistantSessionNotFound = errors.New("assistant session not found")
	// ErrAssistantBusy indicates the session is still waiting for a previous answer.
	ErrAssistantBusy = errors.New("assistant is still answering the previous message")
	// ErrEmptyAssistantMessage indicates the submitted text is blank.
	ErrEmptyAssistantMessage = errors.New("message text is empty")
	// ErrAssistantDisabled indicates the assistant is switched off in settings.
	ErrAssistantDisabled = errors.New("assistant is disabled")
	// ErrAssistantCapacity indicates every session slot is taken by a session awaiting an answer.
	ErrAssistantCapacity = errors.New("assistant session capacity reached")
)

// AssistantOptions configures the outbound model call and session retention.
// Sessions idle for SessionTTL are evicted every SweepInterval; MaxSessions
// caps how many live at once. Zero values disable the respective limit.
type AssistantOptions struct {
	Model         string
	DefaultAPIKey string
	SessionTTL    time.Duration
	SweepInterval time.Duration
	MaxSessions   int
}

// AssistantService manages chat sessions between a user and the language model.
type AssistantService interface {
	CreateSession(ctx context.Context) (dto.AssistantSessionResponse, error)
	Session(ctx context.Context, id string) (dto.AssistantSessionResponse, error)
	SendMessage(ctx context.Context, sessionID, text string) (dto.AssistantReply, error)
	Start(ctx context.Context)
}

type assistantService struct {
	students  repository.StudentRepository
	settings  SettingsService
	generator ai.Generator
	options   AssistantOptions
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
	tracer    trace.Tracer
	now       func() time.Time

	mu       sync.RWMutex
	sessions map[string]*assistantSession
}

type assistantSession struct {
	mu         sync.Mutex
	id         string
	messages   []models.AssistantMessage
	inFlight   bool
	createdAt  time.Time
	lastActive time.Time
}

// NewAssistantService constructs the assistant session manager.
func NewAssistantService(students repository.StudentRepository, settings SettingsService, generator ai.Generator, options AssistantOptions, logger zerolog.Logger) AssistantService {
	return &assistantService{
		students:  students,
		settings:  settings,
		generator: generator,
		options:   options,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "assistant_service").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/siswa-api/internal/service/assistant"),
		now:       func() time.Time { return time.Now().UTC() },
		sessions:  make(map[string]*assistantSession),
	}
}

func (s *assistantService) CreateSession(_ context.Context) (dto.AssistantSessionResponse, error) {
	now := s.now()
	session := &assistantSession{
		id:         uuid.NewString(),
		createdAt:  now,
		lastActive: now,
		messages: []models.AssistantMessage{{
			Sender:    models.SenderAssistant,
			Text:      AssistantGreeting,
			CreatedAt: now,
		}},
	}

	s.mu.Lock()
	if s.options.MaxSessions > 0 && len(s.sessions) >= s.options.MaxSessions {
		if !s.evictLeastActiveLocked() {
			s.mu.Unlock()
			s.logger.Warn().Int("max_sessions", s.options.MaxSessions).Msg("assistant session capacity reached")
			return dto.AssistantSessionResponse{}, ErrAssistantCapacity
		}
	}
	s.sessions[session.id] = session
	s.mu.Unlock()
	observability.AssistantSessions().Inc()

	return session.snapshot(), nil
}

// Start evicts idle sessions until ctx is cancelled.
func (s *assistantService) Start(ctx context.Context) {
	if s.options.SessionTTL <= 0 {
		return
	}
	interval := s.options.SweepInterval
	if interval <= 0 {
		interval = s.options.SessionTTL / 2
	}
	if interval <= 0 {
		interval = s.options.SessionTTL
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if evicted := s.evictIdle(s.now()); evicted > 0 {
					s.logger.Debug().Int("evicted", evicted).Msg("idle assistant sessions evicted")
				}
			}
		}
	}()
}

// evictIdle drops sessions without activity for SessionTTL. Sessions awaiting
// an answer are kept.
func (s *assistantService) evictIdle(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for id, session := range s.sessions {
		lastActive, busy := session.activity()
		if busy || now.Sub(lastActive) < s.options.SessionTTL {
			continue
		}
		delete(s.sessions, id)
		evicted++
	}
	observability.AssistantSessions().Sub(float64(evicted))
	return evicted
}

// evictLeastActiveLocked frees one slot; callers hold s.mu.
func (s *assistantService) evictLeastActiveLocked() bool {
	var (
		oldestID string
		oldest   time.Time
	)
	for id, session := range s.sessions {
		lastActive, busy := session.activity()
		if busy {
			continue
		}
		if oldestID == "" || lastActive.Before(oldest) {
			oldestID, oldest = id, lastActive
		}
	}
	if oldestID == "" {
		return false
	}
	delete(s.sessions, oldestID)
	observability.AssistantSessions().Dec()
	return true
}

func (s *assistantService) Session(_ context.Context, id string) (dto.AssistantSessionResponse, error) {
	session, ok := s.lookup(id)
	if !ok {
		return dto.AssistantSessionResponse{}, ErrAssistantSessionNotFound
	}
	return session.snapshot(), nil
}

// SendMessage appends the user's question, asks the model and appends its
// answer. Provider failures never surface as errors; they become transcript
// entries with a credential_error or failed outcome.
func (s *assistantService) SendMessage(ctx context.Context, sessionID, text string) (dto.AssistantReply, error) {
	session, ok := s.lookup(sessionID)
	if !ok {
		return dto.AssistantReply{}, ErrAssistantSessionNotFound
	}

	// Markup-only input has no visible text and counts as blank; the question
	// itself is kept as the user typed it.
	if strings.TrimSpace(html.UnescapeString(s.sanitizer.Sanitize(text))) == "" {
		return dto.AssistantReply{}, ErrEmptyAssistantMessage
	}
	question := strings.TrimSpace(text)

	settings := s.settings.Current(ctx)
	if !settings.AssistantEnabled {
		return dto.AssistantReply{}, ErrAssistantDisabled
	}

	if err := session.begin(question, s.now()); err != nil {
		return dto.AssistantReply{}, err
	}

	spanCtx, span := s.tracer.Start(ctx, "assistant.message", trace.WithAttributes(
		attribute.String("assistant.session_id", sessionID),
		attribute.String("assistant.model", s.options.Model),
	))
	defer span.End()

	outcome, answer := s.ask(spanCtx, settings, question)
	span.SetAttributes(attribute.String("assistant.outcome", outcome))
	if outcome != dto.AssistantOutcomeAnswered {
		span.SetStatus(codes.Error, outcome)
	}

	reply := session.finish(answer, s.now())
	observability.AssistantOutcomes().WithLabelValues(outcome).Inc()

	return dto.AssistantReply{
		SessionID: sessionID,
		Outcome:   outcome,
		Reply:     reply,
		Messages:  session.snapshot().Messages,
	}, nil
}

func (s *assistantService) ask(ctx context.Context, settings models.Settings, question string) (string, string) {
	logger := s.logger.With().Str("model", s.options.Model).Logger()

	apiKey := strings.TrimSpace(settings.APIKey)
	if apiKey == "" {
		apiKey = strings.TrimSpace(s.options.DefaultAPIKey)
	}
	if apiKey == "" {
		logger.Warn().Msg("assistant request without api key")
		return dto.AssistantOutcomeCredentialError, AssistantCredentialMessage
	}

	prompt, err := s.buildPrompt(ctx, question)
	if err != nil {
		logger.Error().Err(err).Msg("failed to build assistant prompt")
		return dto.AssistantOutcomeFailed, AssistantFailureMessage
	}

	personality := strings.TrimSpace(settings.Personality)
	if personality == "" {
		personality = models.DefaultPersonality
	}

	resp, err := s.generate(ctx, ai.ChatRequest{
		APIKey:            apiKey,
		Model:             s.options.Model,
		SystemInstruction: personality,
		Prompt:            prompt,
	})
	switch {
	case err == nil:
		return dto.AssistantOutcomeAnswered, resp.Text
	case ai.IsCredentialError(err):
		logger.Warn().Err(err).Msg("assistant credential rejected")
		return dto.AssistantOutcomeCredentialError, AssistantCredentialMessage
	default:
		logger.Error().Err(err).Msg("assistant request failed")
		return dto.AssistantOutcomeFailed, AssistantFailureMessage
	}
}

// generate turns a generator panic into an error so the session is always released.
func (s *assistantService) generate(ctx context.Context, req ai.ChatRequest) (resp ai.ChatResponse, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("assistant generator panic: %v", r)
		}
	}()
	return s.generator.Generate(ctx, req)
}

func (s *assistantService) buildPrompt(ctx context.Context, question string) (string, error) {
	students, err := s.students.List(ctx)
	if err != nil {
		return "", fmt.Errorf("list students: %w", err)
	}
	payload, err := json.Marshal(students)
	if err != nil {
		return "", fmt.Errorf("encode students: %w", err)
	}

	var builder strings.Builder
	builder.WriteString(assistantPromptPrefix)
	builder.Write(payload)
	builder.WriteString(assistantQuestionPrefix)
	builder.WriteString(question)
	return builder.String(), nil
}

func (s *assistantService) lookup(id string) (*assistantSession, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[strings.TrimSpace(id)]
	return session, ok
}

// begin records the user's question and marks the session busy.
func (a *assistantSession) begin(text string, now time.Time) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.inFlight {
		return ErrAssistantBusy
	}
	a.inFlight = true
	a.lastActive = now
	a.messages = append(a.messages, models.AssistantMessage{
		Sender:    models.SenderUser,
		Text:      text,
		CreatedAt: now,
	})
	return nil
}

func (a *assistantSession) finish(text string, now time.Time) models.AssistantMessage {
	a.mu.Lock()
	defer a.mu.Unlock()

	reply := models.AssistantMessage{
		Sender:    models.SenderAssistant,
		Text:      text,
		CreatedAt: now,
	}
	a.messages = append(a.messages, reply)
	a.inFlight = false
	a.lastActive = now
	return reply
}

func (a *assistantSession) activity() (time.Time, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastActive, a.inFlight
}

func (a *assistantSession) snapshot() dto.AssistantSessionResponse {
	a.mu.Lock()
	defer a.mu.Unlock()

	messages := make([]models.AssistantMessage, len(a.messages))
	copy(messages, a.messages)
	return dto.AssistantSessionResponse{
		ID:        a.id,
		Messages:  messages,
		InFlight:  a.inFlight,
		CreatedAt: a.createdAt,
	}
}
