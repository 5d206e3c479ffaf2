package profile

import (
	"math"

	"solarqc/internal/models"
)

// Summary holds descriptive statistics for one numeric column, computed
// over its non-missing values.
type Summary struct {
	Column string
	Count  int
	Mean   float64
	Stddev float64 // population stddev
	Min    float64
	Max    float64
}

// Describe returns a Summary for every numeric column. Columns with no
// present values are omitted.
func Describe(ds *models.Dataset) map[string]Summary {
	out := make(map[string]Summary)
	for i := range ds.Columns {
		col := &ds.Columns[i]
		if col.Kind != models.KindNumeric {
			continue
		}

		n := 0
		sum := 0.0
		min := math.Inf(1)
		max := math.Inf(-1)
		for _, v := range col.Floats {
			if !v.Valid {
				continue
			}
			n++
			sum += v.Float64
			if v.Float64 < min {
				min = v.Float64
			}
			if v.Float64 > max {
				max = v.Float64
			}
		}
		if n == 0 {
			continue
		}
		mean := sum / float64(n)

		ss := 0.0
		for _, v := range col.Floats {
			if v.Valid {
				d := v.Float64 - mean
				ss += d * d
			}
		}

		out[col.Name] = Summary{
			Column: col.Name,
			Count:  n,
			Mean:   mean,
			Stddev: math.Sqrt(ss / float64(n)),
			Min:    min,
			Max:    max,
		}
	}
	return out
}
