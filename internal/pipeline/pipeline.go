// Package pipeline drives the per-dataset stage sequence:
// load -> profile -> detect -> clean -> re-profile -> score -> write,
// recording every run in the store. Stages within one dataset are strictly
// sequential; independent datasets run concurrently with isolated failures.
package pipeline

import (
	"database/sql"
	"fmt"
	"log"
	"path/filepath"
	"sync"
	"time"

	"solarqc/internal/clean"
	"solarqc/internal/dataset"
	"solarqc/internal/metrics"
	"solarqc/internal/models"
	"solarqc/internal/outlier"
	"solarqc/internal/profile"
	"solarqc/internal/score"
	"solarqc/internal/store"
)

// Config holds the tunable policy knobs with their documented defaults.
type Config struct {
	TimeColumn       string
	OutlierColumns   []string
	OutlierThreshold float64
	NonNegative      []string
	CriticalRate     float64
	StrongCorr       float64
	Weights          score.Weights
	OutputDir        string
}

// DefaultConfig returns the standard policy.
func DefaultConfig() Config {
	return Config{
		TimeColumn:       dataset.DefaultTimeColumn,
		OutlierColumns:   outlier.DefaultColumns,
		OutlierThreshold: outlier.DefaultThreshold,
		NonNegative:      clean.DefaultNonNegativeColumns,
		CriticalRate:     profile.DefaultCriticalRate,
		StrongCorr:       profile.DefaultStrongCorrelation,
		Weights:          score.DefaultWeights(),
		OutputDir:        "data/cleaned",
	}
}

// Result collects everything one dataset run produced.
type Result struct {
	Dataset      string
	SourcePath   string
	OutputPath   string
	RowsTotal    int
	RowsDropped  int
	Profiles     map[string]models.ColumnProfile
	Summaries    map[string]profile.Summary
	Correlations *profile.CorrelationMatrix
	StrongPairs  []profile.CorrelationPair
	Flags        []models.OutlierFlag
	Report       *models.CleaningReport
	Score        models.QualityScore
	RunID        int64
	Duration     time.Duration
}

// Runner executes pipelines and records them. The store may be nil
// (no run history) for ad-hoc invocations.
type Runner struct {
	cfg   Config
	store *store.Store
}

func NewRunner(cfg Config, st *store.Store) *Runner {
	return &Runner{cfg: cfg, store: st}
}

// Run executes the full pipeline for one dataset file. The cleaned
// artifact is written to cfg.OutputDir as <name>_clean.csv.
func (r *Runner) Run(name, path string) (*Result, error) {
	started := time.Now()

	var run *store.QCRun
	if r.store != nil {
		var err error
		run, err = r.store.StartRun(name, path)
		if err != nil {
			log.Printf("pipeline: start run record %s: %v", name, err)
		}
	}

	res, err := r.execute(name, path)

	if run != nil {
		r.finishRun(run, res, err)
		if res != nil {
			res.RunID = run.ID
		}
	}

	status := "success"
	if err != nil {
		status = "failure"
	}
	metrics.DatasetsProcessed.WithLabelValues(name, status).Inc()
	metrics.RunDuration.WithLabelValues(name).Observe(time.Since(started).Seconds())

	if err != nil {
		return nil, err
	}
	res.Duration = time.Since(started)
	return res, nil
}

func (r *Runner) execute(name, path string) (*Result, error) {
	ds, dropped, err := dataset.Load(path, dataset.Options{Name: name, TimeColumn: r.cfg.TimeColumn})
	if err != nil {
		return nil, err
	}
	metrics.RowsLoaded.WithLabelValues(name).Add(float64(ds.Rows))
	metrics.RowsDropped.WithLabelValues(name).Add(float64(dropped))
	if dropped > 0 {
		log.Printf("pipeline: %s: dropped %d rows with unparseable timestamps", name, dropped)
	}

	profiles := profile.Profile(ds, r.cfg.CriticalRate)
	if crit := profile.CriticalColumns(profiles); len(crit) > 0 {
		log.Printf("pipeline: %s: %d columns above missing-rate threshold", name, len(crit))
	}

	// Summaries describe the source data so the recorded mean/stddev
	// reflect what the sensors reported, not the imputed values.
	summaries := profile.Describe(ds)

	corr := profile.Correlations(ds, ds.NumericColumns())
	strong := corr.StrongPairs(r.cfg.StrongCorr)
	if len(strong) > 0 {
		log.Printf("pipeline: %s: %d column pairs with |r| > %.2f", name, len(strong), r.cfg.StrongCorr)
	}

	flags := outlier.Detect(ds, r.cfg.OutlierColumns, r.cfg.OutlierThreshold)
	metrics.OutliersFlagged.WithLabelValues(name).Add(float64(len(flags)))

	cleaned, report := clean.Clean(ds, clean.Config{NonNegative: r.cfg.NonNegative})
	metrics.NegativesCorrected.WithLabelValues(name).Add(float64(report.TotalNegatives()))
	metrics.CellsImputed.WithLabelValues(name).Add(float64(report.TotalImputed()))

	outlierRate := outlier.RowRate(flags, ds.Rows)
	qs := score.Score(report.CompletenessBefore, outlierRate, r.cfg.Weights)

	outputPath := filepath.Join(r.cfg.OutputDir, name+"_clean.csv")
	if err := dataset.Write(cleaned, outputPath); err != nil {
		return nil, fmt.Errorf("write cleaned dataset: %w", err)
	}

	log.Printf("pipeline: %s: %d rows, completeness %.3f -> %.3f, outlier rate %.3f, score %.3f",
		name, ds.Rows, report.CompletenessBefore, report.CompletenessAfter, outlierRate, qs.Score)

	return &Result{
		Dataset:      name,
		SourcePath:   path,
		OutputPath:   outputPath,
		RowsTotal:    ds.Rows,
		RowsDropped:  dropped,
		Profiles:     profiles,
		Summaries:    summaries,
		Correlations: corr,
		StrongPairs:  strong,
		Flags:        flags,
		Report:       report,
		Score:        qs,
	}, nil
}

// finishRun fills the run record and its column stats from the result.
func (r *Runner) finishRun(run *store.QCRun, res *Result, runErr error) {
	run.Success = runErr == nil
	if runErr != nil {
		run.ErrorMessage = sql.NullString{String: runErr.Error(), Valid: true}
	}

	if res != nil {
		run.OutputPath = sql.NullString{String: res.OutputPath, Valid: true}
		run.RowsTotal = sql.NullInt64{Int64: int64(res.RowsTotal), Valid: true}
		run.RowsDropped = sql.NullInt64{Int64: int64(res.RowsDropped), Valid: true}
		run.CompletenessBefore = sql.NullFloat64{Float64: res.Report.CompletenessBefore, Valid: true}
		run.CompletenessAfter = sql.NullFloat64{Float64: res.Report.CompletenessAfter, Valid: true}
		run.OutlierRate = sql.NullFloat64{Float64: res.Score.OutlierRate, Valid: true}
		run.QualityScore = sql.NullFloat64{Float64: res.Score.Score, Valid: true}
		run.NegativesCorrected = sql.NullInt64{Int64: int64(res.Report.TotalNegatives()), Valid: true}
		run.CellsImputed = sql.NullInt64{Int64: int64(res.Report.TotalImputed()), Valid: true}
	}

	if err := r.store.CompleteRun(run); err != nil {
		log.Printf("pipeline: complete run record %s: %v", run.Dataset, err)
		return
	}

	if res != nil {
		r.recordColumnStats(run.ID, res)
	}
}

func (r *Runner) recordColumnStats(runID int64, res *Result) {
	flagCounts := make(map[string]int)
	for _, f := range res.Flags {
		flagCounts[f.Column]++
	}

	for name, p := range res.Profiles {
		cs := store.ColumnStat{
			RunID:              runID,
			Column:             name,
			Kind:               string(p.Kind),
			RowCount:           p.Count,
			MissingCount:       p.Missing,
			MissingRate:        p.MissingRate,
			NegativesCorrected: res.Report.NegativesCorrected[name],
			CellsImputed:       res.Report.CellsImputed[name],
			OutlierFlags:       flagCounts[name],
		}
		if sum, ok := res.Summaries[name]; ok {
			cs.Mean = sql.NullFloat64{Float64: sum.Mean, Valid: true}
			cs.Stddev = sql.NullFloat64{Float64: sum.Stddev, Valid: true}
			cs.MinValue = sql.NullFloat64{Float64: sum.Min, Valid: true}
			cs.MaxValue = sql.NullFloat64{Float64: sum.Max, Valid: true}
		}
		if err := r.store.InsertColumnStat(cs); err != nil {
			log.Printf("pipeline: record column stats %s/%s: %v", res.Dataset, name, err)
		}
	}
}

// Input names one dataset file for a batch run.
type Input struct {
	Name string
	Path string
}

// RunAll processes independent datasets concurrently. A failed dataset is
// logged and reported in errs; the others are unaffected.
func (r *Runner) RunAll(inputs []Input) (results []*Result, errs []error) {
	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)

	for _, in := range inputs {
		wg.Add(1)
		go func(in Input) {
			defer wg.Done()
			res, err := r.Run(in.Name, in.Path)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				log.Printf("pipeline: %s: %v", in.Name, err)
				errs = append(errs, fmt.Errorf("%s: %w", in.Name, err))
				return
			}
			results = append(results, res)
		}(in)
	}

	wg.Wait()
	return results, errs
}
