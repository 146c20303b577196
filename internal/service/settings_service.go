package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/siswa-api/internal/dto"
	"github.com/noah-isme/siswa-api/internal/models"
	"github.com/noah-isme/siswa-api/internal/observability"
	"github.com/noah-isme/siswa-api/internal/repository"
)

const settingsSubscriberBuffer = 8

// ErrUnknownSettingKey indicates the key is not one of models.SettingKeys.
var ErrUnknownSettingKey = errors.New("unknown setting key")

// SettingsService owns the single process-wide preference set. Every mutation
// is validated, persisted, cached and broadcast through the same path.
type SettingsService interface {
	Current(ctx context.Context) models.Settings
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) (dto.SettingsResponse, error)
	Update(ctx context.Context, payload dto.SettingsUpdateRequest) (dto.SettingsResponse, error)
	Reset(ctx context.Context) (dto.SettingsResetResponse, error)
	Subscribe() (<-chan dto.SettingsEvent, func())
	Start(ctx context.Context)
}

type settingsService struct {
	repo        repository.SettingRepository
	redis       *redis.Client
	redisStream string
	nats        *nats.Conn
	natsSubject string
	validator   *validator.Validate
	logger      zerolog.Logger
	tracer      trace.Tracer
	broker      *settingsBroker
	nodeID      string

	mu      sync.RWMutex
	current models.Settings
}

type settingsEnvelope struct {
	Source string            `json:"source"`
	Event  dto.SettingsEvent `json:"event"`
}

type settingsBroker struct {
	mu          sync.RWMutex
	subscribers map[chan dto.SettingsEvent]struct{}
}

// NewSettingsService loads the persisted preferences once, applying defaults for anything missing.
func NewSettingsService(ctx context.Context, repo repository.SettingRepository, redisClient *redis.Client, channelBase string, natsConn *nats.Conn, validate *validator.Validate, logger zerolog.Logger) (SettingsService, error) {
	stream := ""
	subject := ""
	if channelBase != "" {
		stream = channelBase + ":settings"
		subject = strings.ReplaceAll(channelBase, ":", ".") + ".settings"
	}

	s := &settingsService{
		repo:        repo,
		redis:       redisClient,
		redisStream: stream,
		nats:        natsConn,
		natsSubject: subject,
		validator:   validate,
		logger:      logger.With().Str("component", "settings_service").Logger(),
		tracer:      otel.Tracer("github.com/noah-isme/siswa-api/internal/service/settings"),
		broker:      &settingsBroker{subscribers: make(map[chan dto.SettingsEvent]struct{})},
		nodeID:      uuid.NewString(),
	}

	if err := s.reload(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *settingsService) Start(ctx context.Context) {
	if s.redis != nil && s.redisStream != "" {
		go s.consumeRedis(ctx)
	}
	if s.nats != nil && s.natsSubject != "" {
		go s.consumeNATS(ctx)
	}
}

func (s *settingsService) Current(_ context.Context) models.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

func (s *settingsService) Get(ctx context.Context, key string) (string, error) {
	if !isSettingKey(key) {
		return "", ErrUnknownSettingKey
	}
	values := s.Current(ctx).Values()
	return values[key], nil
}

// Set updates a single key using the persisted string representation
// ("true"/"false" for the assistant flag).
func (s *settingsService) Set(ctx context.Context, key, value string) (dto.SettingsResponse, error) {
	var payload dto.SettingsUpdateRequest
	switch key {
	case models.SettingKeyTheme:
		payload.Theme = &value
	case models.SettingKeyPrimaryColor:
		payload.PrimaryColor = &value
	case models.SettingKeyTextColor:
		payload.TextColor = &value
	case models.SettingKeyAssistantEnabled:
		enabled := strings.EqualFold(strings.TrimSpace(value), "true")
		payload.AssistantEnabled = &enabled
	case models.SettingKeyPersonality:
		payload.Personality = &value
	case models.SettingKeyAPIKey:
		payload.APIKey = &value
	case models.SettingKeyTableView:
		payload.TableView = &value
	default:
		return dto.SettingsResponse{}, ErrUnknownSettingKey
	}
	return s.Update(ctx, payload)
}

func (s *settingsService) Update(ctx context.Context, payload dto.SettingsUpdateRequest) (dto.SettingsResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SettingsResponse{}, err
	}

	spanCtx, span := s.tracer.Start(ctx, "settings.update")
	defer span.End()

	values := make(map[string]string)
	removed := make([]string, 0, 1)

	if payload.Theme != nil {
		values[models.SettingKeyTheme] = *payload.Theme
	}
	if payload.PrimaryColor != nil {
		values[models.SettingKeyPrimaryColor] = strings.ToLower(*payload.PrimaryColor)
	}
	if payload.TextColor != nil {
		values[models.SettingKeyTextColor] = strings.ToLower(*payload.TextColor)
	}
	if payload.AssistantEnabled != nil {
		values[models.SettingKeyAssistantEnabled] = fmt.Sprintf("%t", *payload.AssistantEnabled)
	}
	if payload.Personality != nil {
		personality := strings.TrimSpace(*payload.Personality)
		if personality == "" {
			personality = models.DefaultPersonality
		}
		values[models.SettingKeyPersonality] = personality
	}
	if payload.APIKey != nil {
		if key := strings.TrimSpace(*payload.APIKey); key != "" {
			values[models.SettingKeyAPIKey] = key
		} else {
			removed = append(removed, models.SettingKeyAPIKey)
		}
	}
	if payload.TableView != nil {
		values[models.SettingKeyTableView] = *payload.TableView
	}

	keys := changedKeys(values, removed)
	if len(keys) == 0 {
		return dto.NewSettingsResponse(s.Current(ctx)), nil
	}
	span.SetAttributes(attribute.StringSlice("settings.keys", keys))

	if err := s.repo.SetMany(spanCtx, values); err != nil {
		span.RecordError(err)
		return dto.SettingsResponse{}, fmt.Errorf("persist settings: %w", err)
	}
	if err := s.repo.Delete(spanCtx, removed...); err != nil {
		span.RecordError(err)
		return dto.SettingsResponse{}, fmt.Errorf("remove settings: %w", err)
	}
	if err := s.reload(spanCtx); err != nil {
		return dto.SettingsResponse{}, err
	}

	response := dto.NewSettingsResponse(s.Current(spanCtx))
	s.emit(spanCtx, dto.SettingsEvent{
		Type:       dto.SettingsEventUpdated,
		Keys:       keys,
		Settings:   response,
		OccurredAt: time.Now().UTC(),
	})

	s.logger.Info().Strs("keys", keys).Msg("settings updated")
	return response, nil
}

// Reset wipes every stored key and writes the factory defaults back.
func (s *settingsService) Reset(ctx context.Context) (dto.SettingsResetResponse, error) {
	spanCtx, span := s.tracer.Start(ctx, "settings.reset")
	defer span.End()

	if err := s.repo.Clear(spanCtx); err != nil {
		span.RecordError(err)
		return dto.SettingsResetResponse{}, fmt.Errorf("clear settings: %w", err)
	}
	if err := s.repo.SetMany(spanCtx, models.DefaultSettings().Values()); err != nil {
		span.RecordError(err)
		return dto.SettingsResetResponse{}, fmt.Errorf("persist default settings: %w", err)
	}
	if err := s.reload(spanCtx); err != nil {
		return dto.SettingsResetResponse{}, err
	}

	response := dto.NewSettingsResponse(s.Current(spanCtx))
	s.emit(spanCtx, dto.SettingsEvent{
		Type:       dto.SettingsEventReset,
		Keys:       append([]string(nil), models.SettingKeys...),
		Settings:   response,
		OccurredAt: time.Now().UTC(),
	})

	s.logger.Info().Msg("settings reset to defaults")
	return dto.SettingsResetResponse{Settings: response, ReloadRequired: true}, nil
}

func (s *settingsService) Subscribe() (<-chan dto.SettingsEvent, func()) {
	channel := make(chan dto.SettingsEvent, settingsSubscriberBuffer)
	s.broker.subscribe(channel)
	observability.SettingsSubscribers().Inc()

	var once sync.Once
	cleanup := func() {
		once.Do(func() {
			s.broker.unsubscribe(channel)
			observability.SettingsSubscribers().Dec()
		})
	}
	return channel, cleanup
}

func (s *settingsService) reload(ctx context.Context) error {
	values, err := s.repo.All(ctx)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	settings := models.SettingsFromValues(values)
	s.mu.Lock()
	s.current = settings
	s.mu.Unlock()
	return nil
}

func (s *settingsService) emit(ctx context.Context, event dto.SettingsEvent) {
	s.broker.broadcast(event)
	observability.SettingsEvents().WithLabelValues(event.Type).Inc()
	if err := s.publish(ctx, event); err != nil {
		s.logger.Warn().Err(err).Msg("failed to publish settings event to broker")
	}
}

func (s *settingsService) publish(ctx context.Context, event dto.SettingsEvent) error {
	payload, err := json.Marshal(settingsEnvelope{Source: s.nodeID, Event: event})
	if err != nil {
		return err
	}

	if s.redis != nil && s.redisStream != "" {
		if err := s.redis.Publish(ctx, s.redisStream, payload).Err(); err != nil {
			return err
		}
	}

	if s.nats != nil && s.natsSubject != "" {
		if err := s.nats.Publish(s.natsSubject, payload); err != nil {
			return err
		}
	}

	return nil
}

func (s *settingsService) consumeRedis(ctx context.Context) {
	pubsub := s.redis.Subscribe(ctx, s.redisStream)
	defer func() { _ = pubsub.Close() }()

	for {
		msg, err := pubsub.ReceiveMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return
			}
			s.logger.Error().Err(err).Msg("settings redis subscription closed")
			return
		}
		s.handleEnvelope(ctx, []byte(msg.Payload))
	}
}

func (s *settingsService) consumeNATS(ctx context.Context) {
	sub, err := s.nats.Subscribe(s.natsSubject, func(msg *nats.Msg) {
		s.handleEnvelope(ctx, msg.Data)
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to subscribe to nats settings subject")
		return
	}

	go func() {
		<-ctx.Done()
		if err := sub.Drain(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to drain settings nats subscription")
		}
	}()
}

// handleEnvelope applies a change made by another node: the shared store is
// re-read and local subscribers are notified.
func (s *settingsService) handleEnvelope(ctx context.Context, payload []byte) {
	var envelope settingsEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		s.logger.Warn().Err(err).Msg("invalid settings event payload")
		return
	}
	if envelope.Source == s.nodeID {
		return
	}

	if err := s.reload(ctx); err != nil {
		s.logger.Error().Err(err).Msg("failed to reload settings after remote change")
		return
	}

	event := envelope.Event
	event.Settings = dto.NewSettingsResponse(s.Current(ctx))
	s.broker.broadcast(event)
}

func (b *settingsBroker) subscribe(ch chan dto.SettingsEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[ch] = struct{}{}
}

func (b *settingsBroker) unsubscribe(ch chan dto.SettingsEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subscribers[ch]; ok {
		delete(b.subscribers, ch)
		close(ch)
	}
}

func (b *settingsBroker) broadcast(event dto.SettingsEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subscribers {
		select {
		case ch <- event:
		default:
		}
	}
}

func isSettingKey(key string) bool {
	for _, candidate := range models.SettingKeys {
		if candidate == key {
			return true
		}
	}
	return false
}

func changedKeys(values map[string]string, removed []string) []string {
	keys := make([]string, 0, len(values)+len(removed))
	for key := range values {
		keys = append(keys, key)
	}
	keys = append(keys, removed...)
	sort.Strings(keys)
	return keys
}
