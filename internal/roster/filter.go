package roster

import (
	"math"
	"strconv"
	"strings"

	"github.com/noah-isme/siswa-api/internal/models"
)

// FilterSpec holds independent predicates over student records.
// Nil or empty fields impose no constraint; active predicates are ANDed,
// while Vocations matches when at least one label is present on the record.
type FilterSpec struct {
	Search    string
	MinAge    *int
	Class     string
	Gender    string
	MinHeight *float64
	MaxWeight *float64
	Vocations []string
}

// FilterInput is the raw, user-entered form of a FilterSpec.
type FilterInput struct {
	Search    string
	MinAge    string
	Class     string
	Gender    string
	MinHeight string
	MaxWeight string
	Vocations []string
}

// ParseFilter converts raw input into a FilterSpec. Malformed numeric thresholds
// are treated as unset.
func ParseFilter(input FilterInput) FilterSpec {
	filter := FilterSpec{
		Search: input.Search,
		Class:  strings.TrimSpace(input.Class),
		Gender: strings.TrimSpace(input.Gender),
	}

	if age, ok := ParseThreshold(input.MinAge); ok {
		v := ageThreshold(age)
		filter.MinAge = &v
	}
	if height, ok := ParseThreshold(input.MinHeight); ok {
		filter.MinHeight = &height
	}
	if weight, ok := ParseThreshold(input.MaxWeight); ok {
		filter.MaxWeight = &weight
	}

	for _, label := range input.Vocations {
		if trimmed := strings.TrimSpace(label); trimmed != "" {
			filter.Vocations = append(filter.Vocations, trimmed)
		}
	}

	return filter
}

// ageThreshold truncates like the integer parse of the age field and
// saturates values outside the int range.
func ageThreshold(age float64) int {
	switch {
	case age >= math.MaxInt:
		return math.MaxInt
	case age <= math.MinInt:
		return math.MinInt
	default:
		return int(age)
	}
}

// ParseThreshold reads a numeric threshold typed by a user. A fully numeric
// value is used as-is; otherwise a leading integer ("160cm") is honoured.
// Anything else reports ok=false, meaning "no constraint".
func ParseThreshold(raw string) (float64, bool) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return 0, false
	}

	if parsed, err := strconv.ParseFloat(value, 64); err == nil && !math.IsNaN(parsed) && !math.IsInf(parsed, 0) {
		return parsed, true
	}

	end := 0
	if value[0] == '-' || value[0] == '+' {
		end = 1
	}
	digits := end
	for end < len(value) && value[end] >= '0' && value[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, false
	}

	parsed, err := strconv.Atoi(value[:end])
	if err != nil {
		return 0, false
	}
	return float64(parsed), true
}

// IsEmpty reports whether the filter imposes no constraint at all.
func (f FilterSpec) IsEmpty() bool {
	return f.Search == "" && f.MinAge == nil && f.Class == "" && f.Gender == "" &&
		f.MinHeight == nil && f.MaxWeight == nil && len(f.Vocations) == 0
}

// Matches reports whether the student satisfies every active predicate.
func (f FilterSpec) Matches(student models.Student) bool {
	if f.Search != "" && !strings.Contains(strings.ToLower(student.Name), strings.ToLower(f.Search)) {
		return false
	}
	if f.MinAge != nil && student.Age < *f.MinAge {
		return false
	}
	if f.Class != "" && student.Class != f.Class {
		return false
	}
	if f.Gender != "" && student.Gender != f.Gender {
		return false
	}
	if f.MinHeight != nil && student.Height < *f.MinHeight {
		return false
	}
	if f.MaxWeight != nil && student.Weight > *f.MaxWeight {
		return false
	}
	if len(f.Vocations) > 0 && !hasAnyVocation(student, f.Vocations) {
		return false
	}
	return true
}

func hasAnyVocation(student models.Student, wanted []string) bool {
	labels := student.VocationLabels()
	if len(labels) == 0 {
		return false
	}

	set := make(map[string]struct{}, len(labels))
	for _, label := range labels {
		set[label] = struct{}{}
	}
	for _, label := range wanted {
		if _, ok := set[label]; ok {
			return true
		}
	}
	return false
}
