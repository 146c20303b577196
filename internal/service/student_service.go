package service

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"

	"github.com/noah-isme/siswa-api/internal/dto"
	"github.com/noah-isme/siswa-api/internal/models"
	"github.com/noah-isme/siswa-api/internal/repository"
	"github.com/noah-isme/siswa-api/internal/roster"
)

var (
	// ErrStudentNotFound indicates the requested student does not exist.
	ErrStudentNotFound = errors.New("student not found")
	// ErrInvalidSortKey indicates an unsupported sort column.
	ErrInvalidSortKey = errors.New("invalid sort key")
)

// StudentService exposes roster queries and record editing.
type StudentService interface {
	List(ctx context.Context, req dto.StudentListRequest) (dto.StudentListResponse, error)
	Get(ctx context.Context, id string) (dto.StudentResponse, error)
	Create(ctx context.Context, req dto.StudentRequest) (dto.StudentResponse, error)
	Update(ctx context.Context, id string, req dto.StudentRequest) (dto.StudentResponse, error)
	Delete(ctx context.Context, id string) (bool, error)
	Statistics(ctx context.Context) (roster.Statistics, error)
	Options() dto.StudentOptionsResponse
	ToggleSort(req dto.SortToggleRequest) (roster.SortSpec, error)
}

type studentService struct {
	repo      repository.StudentRepository
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
}

// NewStudentService constructs the roster service.
func NewStudentService(repo repository.StudentRepository, validate *validator.Validate, logger zerolog.Logger) StudentService {
	return &studentService{
		repo:      repo,
		validator: validate,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "student_service").Logger(),
	}
}

func (s *studentService) List(ctx context.Context, req dto.StudentListRequest) (dto.StudentListResponse, error) {
	key, ok := roster.ParseSortKey(req.Sort)
	if !ok {
		return dto.StudentListResponse{}, ErrInvalidSortKey
	}
	sortSpec := roster.SortSpec{Key: key, Direction: roster.ParseDirection(req.Direction)}

	filter := roster.ParseFilter(roster.FilterInput{
		Search:    req.Search,
		MinAge:    req.MinAge,
		Class:     req.Class,
		Gender:    req.Gender,
		MinHeight: req.MinHeight,
		MaxWeight: req.MaxWeight,
		Vocations: req.Vocations,
	})

	records, err := s.repo.List(ctx)
	if err != nil {
		return dto.StudentListResponse{}, fmt.Errorf("list students: %w", err)
	}

	view := roster.DeriveView(records, filter, sortSpec)
	return dto.StudentListResponse{
		Items:   dto.NewStudentResponseSlice(view),
		Total:   len(records),
		Matched: len(view),
		Sort:    sortSpec,
	}, nil
}

func (s *studentService) Get(ctx context.Context, id string) (dto.StudentResponse, error) {
	student, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		if errors.Is(err, repository.ErrStudentNotFound) {
			return dto.StudentResponse{}, ErrStudentNotFound
		}
		return dto.StudentResponse{}, err
	}
	return dto.NewStudentResponse(student), nil
}

func (s *studentService) Create(ctx context.Context, req dto.StudentRequest) (dto.StudentResponse, error) {
	student, err := s.buildRecord(uuid.NewString(), req)
	if err != nil {
		return dto.StudentResponse{}, err
	}

	if err := s.repo.Create(ctx, student); err != nil {
		return dto.StudentResponse{}, fmt.Errorf("create student: %w", err)
	}

	s.logger.Info().Str("student_id", student.ID).Msg("student created")
	return dto.NewStudentResponse(student), nil
}

func (s *studentService) Update(ctx context.Context, id string, req dto.StudentRequest) (dto.StudentResponse, error) {
	student, err := s.buildRecord(strings.TrimSpace(id), req)
	if err != nil {
		return dto.StudentResponse{}, err
	}

	if err := s.repo.Update(ctx, student); err != nil {
		if errors.Is(err, repository.ErrStudentNotFound) {
			return dto.StudentResponse{}, ErrStudentNotFound
		}
		return dto.StudentResponse{}, fmt.Errorf("update student: %w", err)
	}

	s.logger.Info().Str("student_id", student.ID).Msg("student updated")
	return dto.NewStudentResponse(student), nil
}

// Delete removes a record. Deleting an unknown id succeeds and reports false.
func (s *studentService) Delete(ctx context.Context, id string) (bool, error) {
	removed, err := s.repo.Delete(ctx, strings.TrimSpace(id))
	if err != nil {
		return false, fmt.Errorf("delete student: %w", err)
	}
	if removed {
		s.logger.Info().Str("student_id", id).Msg("student deleted")
	}
	return removed, nil
}

func (s *studentService) Statistics(ctx context.Context) (roster.Statistics, error) {
	records, err := s.repo.List(ctx)
	if err != nil {
		return roster.Statistics{}, fmt.Errorf("list students: %w", err)
	}
	return roster.Summarize(records), nil
}

func (s *studentService) Options() dto.StudentOptionsResponse {
	return dto.StudentOptionsResponse{
		Classes:   append([]string(nil), models.ClassOptions...),
		Genders:   append([]models.Option(nil), models.GenderOptions...),
		Vocations: append([]string(nil), models.VocationOptions...),
		SortKeys: []string{
			string(roster.SortName),
			string(roster.SortAge),
			string(roster.SortClass),
			string(roster.SortHeight),
			string(roster.SortWeight),
		},
	}
}

func (s *studentService) ToggleSort(req dto.SortToggleRequest) (roster.SortSpec, error) {
	if err := s.validator.Struct(req); err != nil {
		return roster.SortSpec{}, err
	}
	key, ok := roster.ParseSortKey(req.Key)
	if !ok {
		return roster.SortSpec{}, ErrInvalidSortKey
	}
	current := req.Current
	if parsed, ok := roster.ParseSortKey(string(current.Key)); ok {
		current.Key = parsed
	} else {
		current.Key = roster.SortNone
	}
	current.Direction = roster.ParseDirection(string(current.Direction))
	return roster.Toggle(current, key), nil
}

func (s *studentService) buildRecord(id string, req dto.StudentRequest) (models.Student, error) {
	req = sanitizeStudentRequest(s.sanitizer, req)
	if err := s.validator.Struct(req); err != nil {
		return models.Student{}, err
	}
	return models.Student{
		ID:        id,
		Name:      req.Name,
		Age:       req.Age,
		Class:     req.Class,
		Gender:    req.Gender,
		Vocations: req.Vocations,
		Height:    req.Height,
		Weight:    req.Weight,
	}, nil
}

// sanitizeStudentRequest strips markup from free-text fields and normalises
// the vocation list to "a, b" form.
func sanitizeStudentRequest(policy *bluemonday.Policy, req dto.StudentRequest) dto.StudentRequest {
	clean := func(value string) string {
		return strings.TrimSpace(html.UnescapeString(policy.Sanitize(value)))
	}

	req.Name = clean(req.Name)
	req.Class = clean(req.Class)
	req.Gender = strings.ToUpper(strings.TrimSpace(req.Gender))

	labels := make([]string, 0)
	for _, label := range strings.Split(clean(req.Vocations), ",") {
		if trimmed := strings.TrimSpace(label); trimmed != "" {
			labels = append(labels, trimmed)
		}
	}
	req.Vocations = strings.Join(labels, ", ")
	return req
}
