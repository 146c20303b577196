package roster

import (
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/noah-isme/siswa-api/internal/models"
)

// SortKey names a sortable student attribute. The zero value means unsorted.
type SortKey string

const (
	SortNone   SortKey = ""
	SortName   SortKey = "name"
	SortAge    SortKey = "age"
	SortClass  SortKey = "class"
	SortHeight SortKey = "height"
	SortWeight SortKey = "weight"
)

// Direction is the sort order applied to a SortKey.
type Direction string

const (
	Ascending  Direction = "ascending"
	Descending Direction = "descending"
)

// SortSpec pairs an optional key with a direction.
type SortSpec struct {
	Key       SortKey   `json:"key"`
	Direction Direction `json:"direction"`
}

// ParseSortKey validates a user supplied sort key. Blank input yields SortNone.
func ParseSortKey(raw string) (SortKey, bool) {
	switch key := SortKey(strings.ToLower(strings.TrimSpace(raw))); key {
	case SortNone, SortName, SortAge, SortClass, SortHeight, SortWeight:
		return key, true
	default:
		return SortNone, false
	}
}

// ParseDirection maps user input to a Direction, defaulting to Ascending.
func ParseDirection(raw string) Direction {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "desc", "descending":
		return Descending
	default:
		return Ascending
	}
}

// Toggle advances the three-state sort cycle for key:
// unsorted -> ascending -> descending -> unsorted. Selecting a different key
// starts over at ascending.
func Toggle(current SortSpec, key SortKey) SortSpec {
	if key == SortNone {
		return SortSpec{Direction: Ascending}
	}
	if current.Key != key {
		return SortSpec{Key: key, Direction: Ascending}
	}
	if current.Direction == Ascending {
		return SortSpec{Key: key, Direction: Descending}
	}
	return SortSpec{Direction: Ascending}
}

// sortStudents stably sorts the slice in place. Textual keys use an
// Indonesian collator, numeric keys compare numerically.
func sortStudents(students []models.Student, order SortSpec) {
	if order.Key == SortNone {
		return
	}

	collator := collate.New(language.Indonesian)
	compare := func(a, b models.Student) int {
		switch order.Key {
		case SortName:
			return collator.CompareString(a.Name, b.Name)
		case SortClass:
			return collator.CompareString(a.Class, b.Class)
		case SortAge:
			return compareFloat(float64(a.Age), float64(b.Age))
		case SortHeight:
			return compareFloat(a.Height, b.Height)
		case SortWeight:
			return compareFloat(a.Weight, b.Weight)
		}
		return 0
	}

	sort.SliceStable(students, func(i, j int) bool {
		result := compare(students[i], students[j])
		if order.Direction == Descending {
			result = -result
		}
		return result < 0
	})
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
