// Package clean applies the correction rules to a dataset: clamp
// physically-impossible negative readings to zero, then impute missing
// numeric cells with the column median. The clamp runs first so negative
// sensor artifacts cannot skew the medians used for imputation.
package clean

import (
	"database/sql"
	"sort"

	"solarqc/internal/models"
	"solarqc/internal/profile"
)

// DefaultNonNegativeColumns are the physically-bounded-nonnegative
// channels: irradiance cannot be negative, nor can wind speed or
// precipitation. Negative readings are sensor artifacts.
var DefaultNonNegativeColumns = []string{"GHI", "DNI", "DHI", "ModA", "ModB", "WS", "WSgust", "Precipitation"}

// Config controls which columns the correction rules apply to.
type Config struct {
	// NonNegative lists columns whose values are clamped to >= 0.
	// Columns absent from the dataset are ignored.
	NonNegative []string
}

// DefaultConfig returns the standard correction policy.
func DefaultConfig() Config {
	return Config{NonNegative: DefaultNonNegativeColumns}
}

// Clean returns a corrected copy of the dataset and a report of the
// changes made. The input dataset is never modified. After cleaning, no
// bounded column holds a negative value and no numeric column holds a
// missing value. Cleaning an already-clean dataset reports zero changes.
func Clean(ds *models.Dataset, cfg Config) (*models.Dataset, *models.CleaningReport) {
	report := &models.CleaningReport{
		NegativesCorrected: make(map[string]int),
		CellsImputed:       make(map[string]int),
	}
	report.CompletenessBefore = profile.DatasetCompleteness(ds)

	out := ds.Clone()

	for _, name := range cfg.NonNegative {
		col := out.Column(name)
		if col == nil || col.Kind != models.KindNumeric {
			continue
		}
		for i, v := range col.Floats {
			if v.Valid && v.Float64 < 0 {
				col.Floats[i] = sql.NullFloat64{Float64: 0, Valid: true}
				report.NegativesCorrected[name]++
			}
		}
	}

	// Medians are taken over the corrected columns, so the clamp above
	// already removed any negative skew.
	for i := range out.Columns {
		col := &out.Columns[i]
		if col.Kind != models.KindNumeric {
			continue
		}
		med, ok := median(col.Floats)
		if !ok {
			continue
		}
		for j, v := range col.Floats {
			if !v.Valid {
				col.Floats[j] = sql.NullFloat64{Float64: med, Valid: true}
				report.CellsImputed[col.Name]++
			}
		}
	}

	report.CompletenessAfter = profile.DatasetCompleteness(out)
	return out, report
}

// median returns the median of the non-missing values; for an even count
// it is the mean of the two middle values. ok is false when every value
// is missing.
func median(values []sql.NullFloat64) (float64, bool) {
	var present []float64
	for _, v := range values {
		if v.Valid {
			present = append(present, v.Float64)
		}
	}
	if len(present) == 0 {
		return 0, false
	}
	sort.Float64s(present)
	mid := len(present) / 2
	if len(present)%2 == 1 {
		return present[mid], true
	}
	return (present[mid-1] + present[mid]) / 2, true
}
