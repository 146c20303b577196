package repository

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/noah-isme/siswa-api/internal/models"
)

var (
	// ErrStudentNotFound indicates no record carries the requested identifier.
	ErrStudentNotFound = errors.New("student not found")
	// ErrDuplicateStudentID indicates an insert would break identifier uniqueness.
	ErrDuplicateStudentID = errors.New("student id already exists")
)

// StudentRepository is the ordered, in-memory student record store.
type StudentRepository interface {
	List(ctx context.Context) ([]models.Student, error)
	GetByID(ctx context.Context, id string) (models.Student, error)
	Create(ctx context.Context, student models.Student) error
	Update(ctx context.Context, student models.Student) error
	Delete(ctx context.Context, id string) (bool, error)
	ReplaceAll(ctx context.Context, students []models.Student) error
	Count(ctx context.Context) (int, error)
}

type memoryStudentRepository struct {
	mu       sync.RWMutex
	students []models.Student
	index    map[string]int
}

// NewStudentRepository constructs an empty in-memory record store.
func NewStudentRepository() StudentRepository {
	return &memoryStudentRepository{index: make(map[string]int)}
}

func (r *memoryStudentRepository) List(_ context.Context) ([]models.Student, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.Student, len(r.students))
	copy(out, r.students)
	return out, nil
}

func (r *memoryStudentRepository) GetByID(_ context.Context, id string) (models.Student, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	idx, ok := r.index[id]
	if !ok {
		return models.Student{}, ErrStudentNotFound
	}
	return r.students[idx], nil
}

func (r *memoryStudentRepository) Create(_ context.Context, student models.Student) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.index[student.ID]; exists {
		return ErrDuplicateStudentID
	}
	student.ID = strings.Clone(student.ID)
	r.index[student.ID] = len(r.students)
	r.students = append(r.students, student)
	return nil
}

// Update replaces every field of the stored record except its identifier and position.
func (r *memoryStudentRepository) Update(_ context.Context, student models.Student) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx, ok := r.index[student.ID]
	if !ok {
		return ErrStudentNotFound
	}
	student.ID = r.students[idx].ID
	r.students[idx] = student
	return nil
}

// Delete removes the record and reports whether it existed. Missing ids are a no-op.
func (r *memoryStudentRepository) Delete(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx, ok := r.index[id]
	if !ok {
		return false, nil
	}

	r.students = append(r.students[:idx:idx], r.students[idx+1:]...)
	r.reindex()
	return true, nil
}

func (r *memoryStudentRepository) ReplaceAll(_ context.Context, students []models.Student) error {
	index := make(map[string]int, len(students))
	replacement := make([]models.Student, len(students))
	for i, student := range students {
		if _, exists := index[student.ID]; exists {
			return ErrDuplicateStudentID
		}
		student.ID = strings.Clone(student.ID)
		index[student.ID] = i
		replacement[i] = student
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.students = replacement
	r.index = index
	return nil
}

func (r *memoryStudentRepository) Count(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.students), nil
}

func (r *memoryStudentRepository) reindex() {
	r.index = make(map[string]int, len(r.students))
	for i, student := range r.students {
		r.index[student.ID] = i
	}
}
