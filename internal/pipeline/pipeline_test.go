package pipeline_test

import (
	"database/sql"
	"math"
	"os"
	"path/filepath"
	"testing"

	"solarqc/internal/pipeline"
	"solarqc/internal/store"

	_ "modernc.org/sqlite"
)

const sampleCSV = `Timestamp,GHI,DNI,Comments
2021-08-09 00:00:00,100,50,ok
2021-08-09 00:01:00,-5,60,
2021-08-09 00:02:00,200,70,cloudy
2021-08-09 00:03:00,,80,
2021-08-09 00:04:00,150,90,ok
`

func setupTestStore(t *testing.T) *store.Store {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	s := store.New(db)
	if err := s.Migrate(); err != nil {
		t.Fatal(err)
	}
	return s
}

func writeSample(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func testConfig(t *testing.T) pipeline.Config {
	cfg := pipeline.DefaultConfig()
	cfg.OutputDir = t.TempDir()
	return cfg
}

func TestRunEndToEnd(t *testing.T) {
	st := setupTestStore(t)
	path := writeSample(t, "benin.csv", sampleCSV)

	runner := pipeline.NewRunner(testConfig(t), st)
	res, err := runner.Run("benin", path)
	if err != nil {
		t.Fatal(err)
	}

	if res.RowsTotal != 5 {
		t.Errorf("rows = %d, want 5", res.RowsTotal)
	}
	if res.Report.NegativesCorrected["GHI"] != 1 {
		t.Errorf("negatives = %d, want 1", res.Report.NegativesCorrected["GHI"])
	}
	if res.Report.CellsImputed["GHI"] != 1 {
		t.Errorf("imputed = %d, want 1", res.Report.CellsImputed["GHI"])
	}
	// Empty Comments cells stay missing; only numeric columns are imputed.
	if res.Report.CompletenessAfter <= res.Report.CompletenessBefore {
		t.Errorf("completeness did not improve: %v -> %v",
			res.Report.CompletenessBefore, res.Report.CompletenessAfter)
	}
	if res.Score.Score <= 0 || res.Score.Score > 1 {
		t.Errorf("score = %v, want in (0,1]", res.Score.Score)
	}

	if res.Correlations == nil || len(res.Correlations.Columns) != 2 {
		t.Fatalf("correlations = %+v, want GHI/DNI matrix", res.Correlations)
	}
	if r, ok := res.Correlations.At("GHI", "DNI"); !ok || math.IsNaN(r) || r < -1 || r > 1 {
		t.Errorf("r(GHI, DNI) = %v, %v", r, ok)
	}

	if _, err := os.Stat(res.OutputPath); err != nil {
		t.Errorf("cleaned file not written: %v", err)
	}
	if filepath.Base(res.OutputPath) != "benin_clean.csv" {
		t.Errorf("output name = %q, want benin_clean.csv", filepath.Base(res.OutputPath))
	}

	run, err := st.GetRun(res.RunID)
	if err != nil {
		t.Fatal(err)
	}
	if run == nil {
		t.Fatal("run not recorded")
	}
	if !run.Success {
		t.Error("run not marked successful")
	}
	if run.QualityScore.Float64 != res.Score.Score {
		t.Errorf("stored score = %v, want %v", run.QualityScore.Float64, res.Score.Score)
	}

	stats, err := st.GetColumnStats(res.RunID)
	if err != nil {
		t.Fatal(err)
	}
	if len(stats) != 3 {
		t.Fatalf("column stats = %d, want 3 (GHI, DNI, Comments)", len(stats))
	}
}

func TestRunRecordsFailure(t *testing.T) {
	st := setupTestStore(t)
	path := writeSample(t, "broken.csv", "Timestamp,Comments\n2021-08-09 00:00:00,ok\n")

	runner := pipeline.NewRunner(testConfig(t), st)
	_, err := runner.Run("broken", path)
	if err == nil {
		t.Fatal("expected load error")
	}

	runs, err := st.GetRunsForDataset("broken", 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 {
		t.Fatal("failed run not recorded")
	}
	if runs[0].Success {
		t.Error("failed run marked successful")
	}
	if !runs[0].ErrorMessage.Valid || runs[0].ErrorMessage.String == "" {
		t.Error("failed run has no error message")
	}
}

func TestRunWithoutStore(t *testing.T) {
	path := writeSample(t, "benin.csv", sampleCSV)

	runner := pipeline.NewRunner(testConfig(t), nil)
	res, err := runner.Run("benin", path)
	if err != nil {
		t.Fatal(err)
	}
	if res.RunID != 0 {
		t.Errorf("run id = %d, want 0 without a store", res.RunID)
	}
}

func TestRunAllIsolatesFailures(t *testing.T) {
	st := setupTestStore(t)
	good := writeSample(t, "benin.csv", sampleCSV)
	bad := filepath.Join(t.TempDir(), "absent.csv")

	runner := pipeline.NewRunner(testConfig(t), st)
	results, errs := runner.RunAll([]pipeline.Input{
		{Name: "benin", Path: good},
		{Name: "absent", Path: bad},
	})

	if len(results) != 1 {
		t.Fatalf("results = %d, want 1", len(results))
	}
	if results[0].Dataset != "benin" {
		t.Errorf("surviving dataset = %q, want benin", results[0].Dataset)
	}
	if len(errs) != 1 {
		t.Fatalf("errs = %d, want 1", len(errs))
	}
}
