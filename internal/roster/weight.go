package roster

import "github.com/noah-isme/siswa-api/internal/models"

// WeightStatus is the derived body-weight classification of a student.
type WeightStatus string

const (
	WeightIdeal       WeightStatus = "ideal"
	WeightUnderweight WeightStatus = "underweight"
	WeightOverweight  WeightStatus = "overweight"
)

// Broca index parameters. Overweight starts 3 kg above the +10% band.
const (
	HeightBase          = 100.0
	FemaleReductionRate = 0.15
	MaleReductionRate   = 0.10
	LowerBandFactor     = 0.9
	UpperBandFactor     = 1.1
	UpperToleranceKg    = 3.0
)

// Classify computes the weight status from height (cm), weight (kg) and gender.
// Missing or implausible data yields WeightIdeal.
func Classify(height, weight float64, gender string) WeightStatus {
	if gender == "" || height <= 0 || weight <= 0 || height <= HeightBase {
		return WeightIdeal
	}

	heightFactor := height - HeightBase
	reduction := MaleReductionRate
	if gender == models.GenderFemale {
		reduction = FemaleReductionRate
	}
	idealWeight := heightFactor - heightFactor*reduction

	lowerBound := idealWeight * LowerBandFactor
	upperBound := idealWeight*UpperBandFactor + UpperToleranceKg

	switch {
	case weight < lowerBound:
		return WeightUnderweight
	case weight > upperBound:
		return WeightOverweight
	default:
		return WeightIdeal
	}
}

// ClassifyStudent is Classify applied to a record.
func ClassifyStudent(student models.Student) WeightStatus {
	return Classify(student.Height, student.Weight, student.Gender)
}
