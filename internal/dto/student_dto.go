package dto

import (
	"github.com/noah-isme/siswa-api/internal/models"
	"github.com/noah-isme/siswa-api/internal/roster"
)

// StudentRequest captures the editable fields of a student record.
type StudentRequest struct {
	Name      string  `json:"name" validate:"required,min=1,max=255"`
	Age       int     `json:"age" validate:"gte=0"`
	Class     string  `json:"class" validate:"max=64"`
	Gender    string  `json:"gender" validate:"omitempty,oneof=L P"`
	Vocations string  `json:"vocations" validate:"max=512"`
	Height    float64 `json:"height" validate:"gte=0"`
	Weight    float64 `json:"weight" validate:"gte=0"`
}

// StudentResponse serialises a student together with its derived weight status.
type StudentResponse struct {
	models.Student
	WeightStatus roster.WeightStatus `json:"weight_status"`
}

// NewStudentResponse converts a record into its API representation.
func NewStudentResponse(student models.Student) StudentResponse {
	return StudentResponse{
		Student:      student,
		WeightStatus: roster.ClassifyStudent(student),
	}
}

// NewStudentResponseSlice converts records while preserving order.
func NewStudentResponseSlice(students []models.Student) []StudentResponse {
	responses := make([]StudentResponse, 0, len(students))
	for _, student := range students {
		responses = append(responses, NewStudentResponse(student))
	}
	return responses
}

// StudentListRequest holds raw query parameters for the roster view.
type StudentListRequest struct {
	Search    string
	MinAge    string
	Class     string
	Gender    string
	MinHeight string
	MaxWeight string
	Vocations []string
	Sort      string
	Direction string
}

// StudentListResponse is the derived roster view.
type StudentListResponse struct {
	Items   []StudentResponse `json:"items"`
	Total   int               `json:"total"`
	Matched int               `json:"matched"`
	Sort    roster.SortSpec   `json:"sort"`
}

// SortToggleRequest asks for the next state of the column sort cycle.
type SortToggleRequest struct {
	Current roster.SortSpec `json:"current"`
	Key     string          `json:"key" validate:"required,oneof=name age class height weight"`
}

// StudentOptionsResponse lists the choices offered by roster forms.
type StudentOptionsResponse struct {
	Classes   []string        `json:"classes"`
	Genders   []models.Option `json:"genders"`
	Vocations []string        `json:"vocations"`
	SortKeys  []string        `json:"sort_keys"`
}

// StudentImportItem is one record of a bulk roster import. A blank id is generated.
type StudentImportItem struct {
	ID string `json:"id" validate:"omitempty,max=64"`
	StudentRequest
}

// StudentImportRequest replaces the whole roster.
type StudentImportRequest struct {
	Items []StudentImportItem `json:"items" validate:"dive"`
}
