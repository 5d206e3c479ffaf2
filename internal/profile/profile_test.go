package profile

import (
	"database/sql"
	"math"
	"testing"

	"solarqc/internal/models"
)

func numericColumn(name string, values ...sql.NullFloat64) models.Column {
	return models.Column{Name: name, Kind: models.KindNumeric, Floats: values}
}

func present(v float64) sql.NullFloat64 { return sql.NullFloat64{Float64: v, Valid: true} }
func missing() sql.NullFloat64         { return sql.NullFloat64{} }

func TestProfileMissingRates(t *testing.T) {
	ds := &models.Dataset{
		Name: "test",
		Rows: 4,
		Columns: []models.Column{
			numericColumn("GHI", present(1), missing(), present(3), missing()),
			numericColumn("DNI", present(1), present(2), present(3), present(4)),
			{Name: "Comments", Kind: models.KindCategorical, Texts: []string{"a", "", "", ""}},
		},
	}

	profiles := Profile(ds, DefaultCriticalRate)

	if got := profiles["GHI"].MissingRate; got != 0.5 {
		t.Errorf("GHI missing rate = %v, want 0.5", got)
	}
	if got := profiles["GHI"].Missing; got != 2 {
		t.Errorf("GHI missing = %d, want 2", got)
	}
	if got := profiles["DNI"].MissingRate; got != 0 {
		t.Errorf("DNI missing rate = %v, want 0", got)
	}
	if got := profiles["Comments"].MissingRate; got != 0.75 {
		t.Errorf("Comments missing rate = %v, want 0.75", got)
	}
}

func TestProfileSkipsTimestampColumn(t *testing.T) {
	ds := &models.Dataset{
		Rows: 1,
		Columns: []models.Column{
			{Name: "Timestamp", Kind: models.KindTimestamp},
			numericColumn("GHI", present(1)),
		},
	}

	profiles := Profile(ds, DefaultCriticalRate)
	if _, ok := profiles["Timestamp"]; ok {
		t.Error("timestamp column should not be profiled")
	}
	if len(profiles) != 1 {
		t.Errorf("profiles = %d, want 1", len(profiles))
	}
}

func TestProfileEmptyDataset(t *testing.T) {
	ds := &models.Dataset{
		Rows:    0,
		Columns: []models.Column{numericColumn("GHI")},
	}

	profiles := Profile(ds, DefaultCriticalRate)
	if got := profiles["GHI"].MissingRate; got != 0 {
		t.Errorf("missing rate = %v, want 0 for empty dataset", got)
	}
	if Completeness(profiles) != 1.0 {
		t.Errorf("completeness = %v, want 1.0", Completeness(profiles))
	}
}

func TestCriticalThresholdIsStrict(t *testing.T) {
	// Exactly at the threshold is not critical; strictly above is.
	ds := &models.Dataset{
		Rows: 20,
		Columns: []models.Column{
			numericColumn("AtThreshold", append([]sql.NullFloat64{missing()}, presentN(19)...)...),
			numericColumn("Above", append([]sql.NullFloat64{missing(), missing()}, presentN(18)...)...),
		},
	}

	profiles := Profile(ds, DefaultCriticalRate)
	if profiles["AtThreshold"].Critical {
		t.Error("missing rate 0.05 should not be critical at threshold 0.05")
	}
	if !profiles["Above"].Critical {
		t.Error("missing rate 0.10 should be critical at threshold 0.05")
	}

	if got := CriticalColumns(profiles); len(got) != 1 || got[0] != "Above" {
		t.Errorf("CriticalColumns = %v, want [Above]", got)
	}
}

func presentN(n int) []sql.NullFloat64 {
	out := make([]sql.NullFloat64, n)
	for i := range out {
		out[i] = present(1)
	}
	return out
}

func TestDatasetCompleteness(t *testing.T) {
	ds := &models.Dataset{
		Rows: 4,
		Columns: []models.Column{
			{Name: "Timestamp", Kind: models.KindTimestamp},
			numericColumn("GHI", present(1), missing(), present(3), missing()),
			{Name: "Comments", Kind: models.KindCategorical, Texts: []string{"a", "", "", ""}},
		},
	}

	// (1-0.5 + 1-0.75) / 2; the timestamp column is not counted.
	if got := DatasetCompleteness(ds); got != 0.375 {
		t.Errorf("completeness = %v, want 0.375", got)
	}

	// Agrees with the profiled form regardless of the critical rate.
	for _, rate := range []float64{0, DefaultCriticalRate, 1} {
		if got := Completeness(Profile(ds, rate)); got != 0.375 {
			t.Errorf("Completeness(Profile(ds, %v)) = %v, want 0.375", rate, got)
		}
	}

	empty := &models.Dataset{Columns: []models.Column{{Name: "Timestamp", Kind: models.KindTimestamp}}}
	if got := DatasetCompleteness(empty); got != 1.0 {
		t.Errorf("completeness with no data columns = %v, want 1.0", got)
	}
}

func TestCompleteness(t *testing.T) {
	profiles := map[string]models.ColumnProfile{
		"a": {MissingRate: 0.0},
		"b": {MissingRate: 0.5},
	}
	if got := Completeness(profiles); got != 0.75 {
		t.Errorf("completeness = %v, want 0.75", got)
	}
	if got := Completeness(nil); got != 1.0 {
		t.Errorf("completeness of no columns = %v, want 1.0", got)
	}
}

func TestDescribe(t *testing.T) {
	ds := &models.Dataset{
		Rows: 4,
		Columns: []models.Column{
			numericColumn("GHI", present(2), present(4), present(4), present(6)),
			numericColumn("AllMissing", missing(), missing(), missing(), missing()),
			{Name: "Comments", Kind: models.KindCategorical, Texts: []string{"a", "b", "c", "d"}},
		},
	}

	summaries := Describe(ds)

	sum, ok := summaries["GHI"]
	if !ok {
		t.Fatal("expected GHI summary")
	}
	if sum.Count != 4 {
		t.Errorf("count = %d, want 4", sum.Count)
	}
	if sum.Mean != 4 {
		t.Errorf("mean = %v, want 4", sum.Mean)
	}
	// Population stddev of {2,4,4,6}: sqrt(8/4)
	if want := math.Sqrt(2); math.Abs(sum.Stddev-want) > 1e-12 {
		t.Errorf("stddev = %v, want %v", sum.Stddev, want)
	}
	if sum.Min != 2 || sum.Max != 6 {
		t.Errorf("min/max = %v/%v, want 2/6", sum.Min, sum.Max)
	}

	if _, ok := summaries["AllMissing"]; ok {
		t.Error("all-missing column should be omitted from summaries")
	}
	if _, ok := summaries["Comments"]; ok {
		t.Error("categorical column should be omitted from summaries")
	}
}

func TestDescribeSkipsMissingValues(t *testing.T) {
	ds := &models.Dataset{
		Rows: 3,
		Columns: []models.Column{
			numericColumn("GHI", present(10), missing(), present(20)),
		},
	}

	sum := Describe(ds)["GHI"]
	if sum.Count != 2 {
		t.Errorf("count = %d, want 2", sum.Count)
	}
	if sum.Mean != 15 {
		t.Errorf("mean = %v, want 15", sum.Mean)
	}
}
