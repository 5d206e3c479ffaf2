// Package score aggregates completeness and outlier rate into a single
// dataset quality scalar.
package score

import (
	"solarqc/internal/models"
)

// Default weights, carried over from the assessment the field teams used:
// completeness dominates, outliers discount.
const (
	DefaultCompletenessWeight = 0.7
	DefaultOutlierWeight      = 0.3
)

// Weights configures the quality score combination.
type Weights struct {
	Completeness float64
	Outlier      float64
}

// DefaultWeights returns the standard 0.7/0.3 split.
func DefaultWeights() Weights {
	return Weights{Completeness: DefaultCompletenessWeight, Outlier: DefaultOutlierWeight}
}

// Score combines completeness (fraction of non-missing cells) and the
// row-wise outlier rate into a scalar clamped to [0,1]:
//
//	score = wC*completeness + wO*(1-outlierRate)
//
// The score is monotone: a higher missing rate or a higher outlier rate
// can never increase it.
func Score(completeness, outlierRate float64, w Weights) models.QualityScore {
	s := w.Completeness*completeness + w.Outlier*(1-outlierRate)
	if s < 0 {
		s = 0
	}
	if s > 1 {
		s = 1
	}
	return models.QualityScore{
		Completeness: completeness,
		OutlierRate:  outlierRate,
		Score:        s,
	}
}
