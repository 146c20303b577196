package models

import "strings"

// Gender codes stored on student records.
const (
	GenderMale   = "L"
	GenderFemale = "P"
)

// Student is a single roster entry held by the record store.
type Student struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Age       int     `json:"age"`
	Class     string  `json:"class"`
	Gender    string  `json:"gender"`
	Vocations string  `json:"vocations"`
	Height    float64 `json:"height"`
	Weight    float64 `json:"weight"`
}

// VocationLabels splits the comma separated vocational tracks into trimmed, non-empty labels.
func (s Student) VocationLabels() []string {
	parts := strings.Split(s.Vocations, ",")
	labels := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			labels = append(labels, trimmed)
		}
	}
	return labels
}

// Option is a value/label pair offered to roster forms.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// ClassOptions lists the classes offered by the roster forms. Class is free text; these are suggestions.
var ClassOptions = []string{"7A", "7B", "7C", "Kelas Mensetsu"}

// GenderOptions lists the supported gender codes.
var GenderOptions = []Option{
	{Value: GenderMale, Label: "Laki-laki"},
	{Value: GenderFemale, Label: "Perempuan"},
}

// VocationOptions lists the known SSW vocational tracks.
var VocationOptions = []string{
	"Kaigo",
	"Pengolahan Makanan",
	"Restoran",
	"Pertanian",
	"Konstruksi",
	"Pembersihan Gedung",
	"Perikanan",
	"Industri Mesin",
	"Elektronik",
	"Tekstil",
	"Pembuatan Logam",
	"Peternakan",
	"Belum ada",
}
