package models

import "math"

const (
	// PassingGrade is the minimum effective grade counted as passing.
	PassingGrade = 3.0
	// MinGrade and MaxGrade bound grades entered at runtime.
	MinGrade = 0.0
	MaxGrade = 5.0
)

// ValidGrade reports whether v is a finite grade within [MinGrade, MaxGrade].
func ValidGrade(v float64) bool {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return false
	}
	return v >= MinGrade && v <= MaxGrade
}
