package service

import (
	"bytes"
	"context"
	"crypto/subtle"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/noah-isme/siswa-api/internal/dto"
	"github.com/noah-isme/siswa-api/internal/models"
	"github.com/noah-isme/siswa-api/internal/repository"
)

const (
	seedSchemaName  = "students.schema.json"
	seedDefaultName = "students.json"
)

var (
	// ErrSeedDisabled indicates the seeding tools are disabled by configuration.
	ErrSeedDisabled = errors.New("seeding is disabled")
	// ErrSeedUnauthorized indicates the provided token is invalid.
	ErrSeedUnauthorized = errors.New("invalid seed token")
	// ErrSeedInvalidPayload indicates the import document does not match the roster schema.
	ErrSeedInvalidPayload = errors.New("invalid roster payload")
)

//go:embed seeddata/*.json
var seedData embed.FS

// SeedService loads the default roster and replaces the roster in bulk.
type SeedService interface {
	SeedDefaults(ctx context.Context) (int, error)
	ReplaceStudents(ctx context.Context, token string, payload []byte) (int, error)
}

type seedService struct {
	repo      repository.StudentRepository
	schema    *jsonschema.Schema
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	enabled   bool
	token     string
	logger    zerolog.Logger
}

// NewSeedService constructs a seeding service. Bulk replacement requires a
// non-empty token; default seeding is always available to the process.
func NewSeedService(repo repository.StudentRepository, validate *validator.Validate, enabled bool, token string, logger zerolog.Logger) (SeedService, error) {
	schema, err := compileSeedSchema()
	if err != nil {
		return nil, err
	}

	return &seedService{
		repo:      repo,
		schema:    schema,
		validator: validate,
		sanitizer: bluemonday.StrictPolicy(),
		enabled:   enabled,
		token:     token,
		logger:    logger.With().Str("component", "seed_service").Logger(),
	}, nil
}

// SeedDefaults fills an empty store with the built-in roster. A store that
// already holds records is left alone.
func (s *seedService) SeedDefaults(ctx context.Context) (int, error) {
	count, err := s.repo.Count(ctx)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		return 0, nil
	}

	payload, err := seedData.ReadFile("seeddata/" + seedDefaultName)
	if err != nil {
		return 0, fmt.Errorf("read default roster: %w", err)
	}

	students, err := s.decode(payload)
	if err != nil {
		return 0, err
	}
	if err := s.repo.ReplaceAll(ctx, students); err != nil {
		return 0, fmt.Errorf("seed default roster: %w", err)
	}

	s.logger.Info().Int("count", len(students)).Msg("default roster seeded")
	return len(students), nil
}

func (s *seedService) ReplaceStudents(ctx context.Context, token string, payload []byte) (int, error) {
	if !s.enabled {
		return 0, ErrSeedDisabled
	}
	if !s.validateToken(token) {
		return 0, ErrSeedUnauthorized
	}

	students, err := s.decode(payload)
	if err != nil {
		return 0, err
	}
	if err := s.repo.ReplaceAll(ctx, students); err != nil {
		if errors.Is(err, repository.ErrDuplicateStudentID) {
			return 0, fmt.Errorf("%w: %v", ErrSeedInvalidPayload, err)
		}
		return 0, err
	}

	s.logger.Info().Int("count", len(students)).Msg("roster replaced")
	return len(students), nil
}

func (s *seedService) decode(payload []byte) ([]models.Student, error) {
	decoder := json.NewDecoder(bytes.NewReader(payload))
	decoder.UseNumber()
	var document interface{}
	if err := decoder.Decode(&document); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSeedInvalidPayload, err)
	}
	if err := s.schema.Validate(document); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSeedInvalidPayload, err)
	}

	var request dto.StudentImportRequest
	if err := json.Unmarshal(payload, &request); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSeedInvalidPayload, err)
	}

	students := make([]models.Student, 0, len(request.Items))
	for _, item := range request.Items {
		item.StudentRequest = sanitizeStudentRequest(s.sanitizer, item.StudentRequest)
		if err := s.validator.Struct(item); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSeedInvalidPayload, err)
		}

		id := strings.TrimSpace(item.ID)
		if id == "" {
			id = uuid.NewString()
		}
		students = append(students, models.Student{
			ID:        id,
			Name:      item.Name,
			Age:       item.Age,
			Class:     item.Class,
			Gender:    item.Gender,
			Vocations: item.Vocations,
			Height:    item.Height,
			Weight:    item.Weight,
		})
	}
	return students, nil
}

func (s *seedService) validateToken(token string) bool {
	expected := strings.TrimSpace(s.token)
	if expected == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(strings.TrimSpace(token))) == 1
}

func compileSeedSchema() (*jsonschema.Schema, error) {
	raw, err := seedData.ReadFile("seeddata/" + seedSchemaName)
	if err != nil {
		return nil, fmt.Errorf("read roster schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(seedSchemaName, bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("load roster schema: %w", err)
	}
	schema, err := compiler.Compile(seedSchemaName)
	if err != nil {
		return nil, fmt.Errorf("compile roster schema: %w", err)
	}
	return schema, nil
}
