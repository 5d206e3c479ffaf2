package profile

import (
	"math"

	"solarqc/internal/models"
)

// DefaultStrongCorrelation is the |r| above which a column pair is
// considered strongly correlated.
const DefaultStrongCorrelation = 0.5

// CorrelationMatrix holds pairwise Pearson coefficients for a set of
// columns. Entries are NaN when a pair has fewer than two complete rows
// or either column has zero variance.
type CorrelationMatrix struct {
	Columns []string
	R       [][]float64
}

// CorrelationPair is one strongly-correlated column pair.
type CorrelationPair struct {
	A, B string
	R    float64
}

// Correlations computes the Pearson correlation matrix over the named
// columns, pairwise over the rows where both values are present. Columns
// absent from the dataset or non-numeric are skipped; with fewer than two
// usable columns the matrix is empty.
func Correlations(ds *models.Dataset, columns []string) *CorrelationMatrix {
	var cols []*models.Column
	var names []string
	for _, name := range columns {
		col := ds.Column(name)
		if col == nil || col.Kind != models.KindNumeric {
			continue
		}
		cols = append(cols, col)
		names = append(names, name)
	}
	if len(cols) < 2 {
		return &CorrelationMatrix{}
	}

	m := &CorrelationMatrix{
		Columns: names,
		R:       make([][]float64, len(cols)),
	}
	for i := range cols {
		m.R[i] = make([]float64, len(cols))
		for j := range cols {
			if j < i {
				m.R[i][j] = m.R[j][i]
				continue
			}
			m.R[i][j] = pearson(cols[i], cols[j])
		}
	}
	return m
}

// At returns the coefficient for a pair of column names; ok is false when
// either column is not in the matrix.
func (m *CorrelationMatrix) At(a, b string) (float64, bool) {
	ai, bi := -1, -1
	for i, name := range m.Columns {
		if name == a {
			ai = i
		}
		if name == b {
			bi = i
		}
	}
	if ai == -1 || bi == -1 {
		return 0, false
	}
	return m.R[ai][bi], true
}

// StrongPairs returns the pairs with |r| strictly above threshold, each
// pair once, in column order. NaN entries never qualify.
func (m *CorrelationMatrix) StrongPairs(threshold float64) []CorrelationPair {
	var pairs []CorrelationPair
	for i := range m.Columns {
		for j := i + 1; j < len(m.Columns); j++ {
			r := m.R[i][j]
			if math.IsNaN(r) || math.Abs(r) <= threshold {
				continue
			}
			pairs = append(pairs, CorrelationPair{A: m.Columns[i], B: m.Columns[j], R: r})
		}
	}
	return pairs
}

// pearson computes the coefficient over the rows where both columns hold
// a value.
func pearson(a, b *models.Column) float64 {
	n := 0
	sumA, sumB := 0.0, 0.0
	for row := range a.Floats {
		if !a.Floats[row].Valid || !b.Floats[row].Valid {
			continue
		}
		n++
		sumA += a.Floats[row].Float64
		sumB += b.Floats[row].Float64
	}
	if n < 2 {
		return math.NaN()
	}
	meanA := sumA / float64(n)
	meanB := sumB / float64(n)

	cov, varA, varB := 0.0, 0.0, 0.0
	for row := range a.Floats {
		if !a.Floats[row].Valid || !b.Floats[row].Valid {
			continue
		}
		da := a.Floats[row].Float64 - meanA
		db := b.Floats[row].Float64 - meanB
		cov += da * db
		varA += da * da
		varB += db * db
	}
	if varA == 0 || varB == 0 {
		return math.NaN()
	}
	return cov / math.Sqrt(varA*varB)
}
