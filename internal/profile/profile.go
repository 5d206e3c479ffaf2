// Package profile computes per-column missing-value rates and dataset
// completeness. Profiling is a pure function of its input: an empty
// dataset yields a missing rate of 0 for every column (nothing is missing
// from nothing).
package profile

import (
	"solarqc/internal/models"
)

// DefaultCriticalRate marks a column as critical when more than 5% of its
// cells are missing.
const DefaultCriticalRate = 0.05

// Profile returns a ColumnProfile for every non-timestamp column.
// criticalRate is the missing-rate threshold above which a column is
// flagged Critical; pass DefaultCriticalRate for the standard policy.
func Profile(ds *models.Dataset, criticalRate float64) map[string]models.ColumnProfile {
	profiles := make(map[string]models.ColumnProfile, len(ds.Columns))
	for i := range ds.Columns {
		col := &ds.Columns[i]
		if col.Kind == models.KindTimestamp {
			continue
		}

		missing := countMissing(col)
		rate := 0.0
		if ds.Rows > 0 {
			rate = float64(missing) / float64(ds.Rows)
		}

		profiles[col.Name] = models.ColumnProfile{
			Column:      col.Name,
			Kind:        col.Kind,
			Count:       ds.Rows,
			Missing:     missing,
			MissingRate: rate,
			Critical:    rate > criticalRate,
		}
	}
	return profiles
}

func countMissing(col *models.Column) int {
	missing := 0
	switch col.Kind {
	case models.KindNumeric:
		for _, v := range col.Floats {
			if !v.Valid {
				missing++
			}
		}
	default:
		for _, v := range col.Texts {
			if v == "" {
				missing++
			}
		}
	}
	return missing
}

// DatasetCompleteness returns the completeness of a dataset directly,
// without the critical-rate flagging that Profile applies. Callers that
// only need the scalar use this instead of carrying a threshold.
func DatasetCompleteness(ds *models.Dataset) float64 {
	cols := 0
	sum := 0.0
	for i := range ds.Columns {
		col := &ds.Columns[i]
		if col.Kind == models.KindTimestamp {
			continue
		}
		cols++
		rate := 0.0
		if ds.Rows > 0 {
			rate = float64(countMissing(col)) / float64(ds.Rows)
		}
		sum += 1.0 - rate
	}
	if cols == 0 {
		return 1.0
	}
	return sum / float64(cols)
}

// Completeness returns the mean of (1 - missing rate) over all profiled
// columns. A dataset with no profiled columns is fully complete.
func Completeness(profiles map[string]models.ColumnProfile) float64 {
	if len(profiles) == 0 {
		return 1.0
	}
	sum := 0.0
	for _, p := range profiles {
		sum += 1.0 - p.MissingRate
	}
	return sum / float64(len(profiles))
}

// CriticalColumns returns the names of columns flagged Critical.
func CriticalColumns(profiles map[string]models.ColumnProfile) []string {
	var names []string
	for name, p := range profiles {
		if p.Critical {
			names = append(names, name)
		}
	}
	return names
}
