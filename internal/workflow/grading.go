package workflow

import "math"

// Percentage converts obtained marks into a display percentage rounded to
// one decimal place and clamped to [0,100], so a progress bar can never
// overflow even when upstream validation was bypassed. A missing or zero
// totalMarks yields 0 rather than a division error; the validation engine
// rejects such assignments before they are stored.
func Percentage(marksObtained, totalMarks int) float64 {
	if totalMarks <= 0 {
		return 0
	}

	p := float64(marksObtained) / float64(totalMarks) * 100
	p = math.Round(p*10) / 10

	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	default:
		return p
	}
}
