// Package outlier flags values whose z-score exceeds a threshold. Flags
// accompany the dataset as a side report and never modify it.
package outlier

import (
	"database/sql"
	"math"

	"solarqc/internal/models"
)

// DefaultThreshold is the standard z-score cut-off.
const DefaultThreshold = 3.0

// DefaultColumns are the irradiance and sensor channels monitored for
// outliers across the country datasets.
var DefaultColumns = []string{"GHI", "DNI", "DHI", "ModA", "ModB", "WS", "WSgust"}

// Detect computes the z-score of every non-missing value in the configured
// columns and flags those strictly beyond threshold. Mean and stddev
// (population) are computed once per call over the full column. A column
// with zero variance produces no flags; configured columns absent from the
// dataset, or non-numeric, are skipped.
func Detect(ds *models.Dataset, columns []string, threshold float64) []models.OutlierFlag {
	var flags []models.OutlierFlag
	for _, name := range columns {
		col := ds.Column(name)
		if col == nil || col.Kind != models.KindNumeric {
			continue
		}

		mean, stddev, n := stats(col.Floats)
		if n == 0 || stddev == 0 {
			continue
		}

		for row, v := range col.Floats {
			if !v.Valid {
				continue
			}
			score := (v.Float64 - mean) / stddev
			if math.Abs(score) > threshold {
				flags = append(flags, models.OutlierFlag{
					Row:    row,
					Column: name,
					Value:  v.Float64,
					Score:  score,
				})
			}
		}
	}
	return flags
}

// RowRate returns the fraction of rows carrying at least one flag.
func RowRate(flags []models.OutlierFlag, rows int) float64 {
	if rows == 0 {
		return 0
	}
	flagged := make(map[int]struct{}, len(flags))
	for _, f := range flags {
		flagged[f.Row] = struct{}{}
	}
	return float64(len(flagged)) / float64(rows)
}

// stats returns the population mean and stddev of the non-missing values.
func stats(values []sql.NullFloat64) (mean, stddev float64, n int) {
	sum := 0.0
	for _, v := range values {
		if v.Valid {
			sum += v.Float64
			n++
		}
	}
	if n == 0 {
		return 0, 0, 0
	}
	mean = sum / float64(n)

	ss := 0.0
	for _, v := range values {
		if v.Valid {
			d := v.Float64 - mean
			ss += d * d
		}
	}
	stddev = math.Sqrt(ss / float64(n))
	return mean, stddev, n
}
