package roster

import (
	"math"
	"sort"

	"github.com/noah-isme/siswa-api/internal/models"
)

// Count is a labelled tally.
type Count struct {
	Name  string `json:"name"`
	Total int    `json:"total"`
}

// BodyAverage holds the mean height and weight of one class, rounded to one decimal.
type BodyAverage struct {
	Class         string  `json:"class"`
	AverageHeight float64 `json:"average_height"`
	AverageWeight float64 `json:"average_weight"`
}

// Statistics summarises a roster for charts.
type Statistics struct {
	Total        int           `json:"total"`
	Classes      []Count       `json:"classes"`
	Genders      []Count       `json:"genders"`
	Vocations    []Count       `json:"vocations"`
	BodyAverages []BodyAverage `json:"body_averages"`
	WeightStatus []Count       `json:"weight_status"`
}

// Summarize tallies classes and body averages in first-appearance order,
// genders as L then P, and vocational tracks by descending count.
func Summarize(records []models.Student) Statistics {
	classIndex := make(map[string]int)
	classes := make([]Count, 0)
	type bodySum struct {
		height, weight float64
		count          int
	}
	sums := make([]bodySum, 0)

	vocationIndex := make(map[string]int)
	vocations := make([]Count, 0)

	genders := []Count{{Name: models.GenderMale}, {Name: models.GenderFemale}}
	statuses := []Count{{Name: string(WeightIdeal)}, {Name: string(WeightUnderweight)}, {Name: string(WeightOverweight)}}

	for _, record := range records {
		idx, ok := classIndex[record.Class]
		if !ok {
			idx = len(classes)
			classIndex[record.Class] = idx
			classes = append(classes, Count{Name: record.Class})
			sums = append(sums, bodySum{})
		}
		classes[idx].Total++
		sums[idx].height += record.Height
		sums[idx].weight += record.Weight
		sums[idx].count++

		switch record.Gender {
		case models.GenderMale:
			genders[0].Total++
		case models.GenderFemale:
			genders[1].Total++
		}

		for _, label := range record.VocationLabels() {
			vi, seen := vocationIndex[label]
			if !seen {
				vi = len(vocations)
				vocationIndex[label] = vi
				vocations = append(vocations, Count{Name: label})
			}
			vocations[vi].Total++
		}

		switch ClassifyStudent(record) {
		case WeightUnderweight:
			statuses[1].Total++
		case WeightOverweight:
			statuses[2].Total++
		default:
			statuses[0].Total++
		}
	}

	sort.SliceStable(vocations, func(i, j int) bool {
		return vocations[i].Total > vocations[j].Total
	})

	averages := make([]BodyAverage, 0, len(classes))
	for i, class := range classes {
		n := float64(sums[i].count)
		averages = append(averages, BodyAverage{
			Class:         class.Name,
			AverageHeight: roundOneDecimal(sums[i].height / n),
			AverageWeight: roundOneDecimal(sums[i].weight / n),
		})
	}

	return Statistics{
		Total:        len(records),
		Classes:      classes,
		Genders:      genders,
		Vocations:    vocations,
		BodyAverages: averages,
		WeightStatus: statuses,
	}
}

func roundOneDecimal(v float64) float64 {
	return math.Round(v*10) / 10
}
