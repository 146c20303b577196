package roster

import "github.com/noah-isme/siswa-api/internal/models"

func fixtureStudents() []models.Student {
	return []models.Student{
		{ID: "s1", Name: "Habel Irenza Sitopu", Age: 20, Class: "7C", Gender: "L", Vocations: "Kaigo", Height: 164, Weight: 56},
		{ID: "s2", Name: "Robi Ginting", Age: 20, Class: "Kelas Mensetsu", Gender: "L", Vocations: "Kaigo", Height: 167, Weight: 81},
		{ID: "s3", Name: "Rani Tobing", Age: 20, Class: "7C", Gender: "P", Vocations: "Kaigo", Height: 148, Weight: 45},
		{ID: "s4", Name: "Hime", Age: 18, Class: "7C", Gender: "P", Vocations: "Kaigo, Pengolahan Makanan", Height: 159, Weight: 48},
		{ID: "s5", Name: "Yuki", Age: 18, Class: "7B", Gender: "P", Vocations: "Peternakan", Height: 158, Weight: 49},
		{ID: "s6", Name: "Rawr", Age: 35, Class: "7C", Gender: "L", Vocations: "Pembersihan Gedung", Height: 168, Weight: 99},
	}
}

func ids(students []models.Student) []string {
	out := make([]string, 0, len(students))
	for _, s := range students {
		out = append(out, s.ID)
	}
	return out
}

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }
