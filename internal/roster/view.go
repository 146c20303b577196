package roster

import "github.com/noah-isme/siswa-api/internal/models"

// DeriveView filters records and, when a sort key is set, stably sorts the
// result. The returned slice is always freshly allocated.
func DeriveView(records []models.Student, filter FilterSpec, sortSpec SortSpec) []models.Student {
	view := make([]models.Student, 0, len(records))
	for _, record := range records {
		if filter.Matches(record) {
			view = append(view, record)
		}
	}

	sortStudents(view, sortSpec)
	return view
}
