package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"
	kongdotenv "github.com/titusjaka/kong-dotenv-go"
	_ "modernc.org/sqlite"

	"solarqc/internal/api"
	"solarqc/internal/fetch"
	"solarqc/internal/pipeline"
	"solarqc/internal/report"
	"solarqc/internal/score"
	"solarqc/internal/store"
)

type cli struct {
	DB string `env:"SOLARQC_DB" default:"data/solarqc.db" help:"Path to SQLite database."`

	Clean   CleanCmd   `cmd:"" help:"Clean and score dataset files."`
	Fetch   FetchCmd   `cmd:"" help:"Download a dataset archive over HTTP(S) or FTP."`
	Runs    RunsCmd    `cmd:"" help:"List recent quality-control runs."`
	Serve   ServeCmd   `cmd:"" help:"Serve run history and metrics over HTTP."`
	Narrate NarrateCmd `cmd:"" help:"Generate a plain-language summary of a run."`
}

type CleanCmd struct {
	Paths []string `arg:"" type:"existingfile" help:"CSV files to process."`

	Output             string   `default:"data/cleaned" help:"Directory for cleaned CSV output."`
	TimeColumn         string   `default:"Timestamp" help:"Name of the timestamp column."`
	Threshold          float64  `default:"3.0" help:"Z-score magnitude above which a value is flagged."`
	OutlierColumns     []string `help:"Columns checked for outliers (defaults to the irradiance and wind set)."`
	NonNegative        []string `help:"Columns where negatives are clamped to zero (defaults to the physical set)."`
	CriticalRate       float64  `default:"0.05" help:"Missing-rate above which a column is flagged critical."`
	CompletenessWeight float64  `default:"0.7" help:"Quality score weight for completeness."`
	OutlierWeight      float64  `default:"0.3" help:"Quality score weight for outlier cleanliness."`
	NoStore            bool     `help:"Skip recording runs in the database."`
}

func (c *CleanCmd) Run(globals *cli) error {
	cfg := pipeline.DefaultConfig()
	cfg.OutputDir = c.Output
	cfg.TimeColumn = c.TimeColumn
	cfg.OutlierThreshold = c.Threshold
	cfg.CriticalRate = c.CriticalRate
	cfg.Weights = score.Weights{Completeness: c.CompletenessWeight, Outlier: c.OutlierWeight}
	if len(c.OutlierColumns) > 0 {
		cfg.OutlierColumns = c.OutlierColumns
	}
	if len(c.NonNegative) > 0 {
		cfg.NonNegative = c.NonNegative
	}

	var st *store.Store
	if !c.NoStore {
		var err error
		st, err = openStore(globals.DB)
		if err != nil {
			return err
		}
	}

	runner := pipeline.NewRunner(cfg, st)

	inputs := make([]pipeline.Input, 0, len(c.Paths))
	for _, path := range c.Paths {
		inputs = append(inputs, pipeline.Input{Name: datasetName(path), Path: path})
	}

	results, errs := runner.RunAll(inputs)
	for _, res := range results {
		fmt.Printf("%-20s rows=%d completeness=%.3f outliers=%.3f score=%.3f -> %s\n",
			res.Dataset, res.RowsTotal, res.Report.CompletenessBefore,
			res.Score.OutlierRate, res.Score.Score, res.OutputPath)
	}
	if len(errs) > 0 {
		return fmt.Errorf("%d of %d datasets failed", len(errs), len(inputs))
	}
	return nil
}

type FetchCmd struct {
	URL  string `arg:"" help:"HTTP(S) or FTP URL of the dataset file."`
	Dest string `default:"data/raw" help:"Directory for the downloaded file."`
}

func (c *FetchCmd) Run(globals *cli) error {
	path, err := fetch.New().Fetch(c.URL, c.Dest)
	if err != nil {
		return err
	}
	fmt.Println(path)
	return nil
}

type RunsCmd struct {
	Dataset string `help:"Only show runs for this dataset."`
	Limit   int    `default:"20" help:"Maximum number of runs to list."`
}

func (c *RunsCmd) Run(globals *cli) error {
	st, err := openStore(globals.DB)
	if err != nil {
		return err
	}

	var runs []store.QCRun
	if c.Dataset != "" {
		runs, err = st.GetRunsForDataset(c.Dataset, c.Limit)
	} else {
		runs, err = st.GetRecentRuns(c.Limit)
	}
	if err != nil {
		return err
	}

	for _, run := range runs {
		status := "ok"
		if !run.Success {
			status = "failed"
		}
		qs := "-"
		if run.QualityScore.Valid {
			qs = fmt.Sprintf("%.3f", run.QualityScore.Float64)
		}
		fmt.Printf("%4d  %-20s  %s  %-6s  score=%s\n",
			run.ID, run.Dataset, run.StartedAt.Format("2006-01-02 15:04"), status, qs)
	}
	return nil
}

type ServeCmd struct {
	Port string `env:"PORT" default:"8080" help:"HTTP server port."`
}

func (c *ServeCmd) Run(globals *cli) error {
	st, err := openStore(globals.DB)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Printf("starting server on :%s", c.Port)
	return api.NewServer(st, c.Port).Run(ctx)
}

type NarrateCmd struct {
	ID int64 `arg:"" help:"Run ID to summarise."`
}

func (c *NarrateCmd) Run(globals *cli) error {
	st, err := openStore(globals.DB)
	if err != nil {
		return err
	}

	run, err := st.GetRun(c.ID)
	if err != nil {
		return err
	}
	if run == nil {
		return fmt.Errorf("run %d not found", c.ID)
	}
	stats, err := st.GetColumnStats(c.ID)
	if err != nil {
		return err
	}

	narrator, err := report.NewNarrator()
	if err != nil {
		return err
	}
	summary, err := narrator.Summarize(context.Background(), run, stats)
	if err != nil {
		return err
	}
	fmt.Println(summary)
	return nil
}

func openStore(path string) (*store.Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.Exec("PRAGMA journal_mode=WAL")
	db.Exec("PRAGMA busy_timeout=5000")

	st := store.New(db)
	if err := st.Migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return st, nil
}

// datasetName derives a run label from a file path: base name without
// extension, lowercased ("data/benin-malanville.csv" -> "benin-malanville").
func datasetName(path string) string {
	base := filepath.Base(path)
	return strings.ToLower(strings.TrimSuffix(base, filepath.Ext(base)))
}

func main() {
	var c cli
	ktx := kong.Parse(&c,
		kong.Name("solarqc"),
		kong.Description("Quality control for solar irradiance measurement datasets."),
		kong.Configuration(kongdotenv.ENVFileReader, ".env"),
		kong.UsageOnError(),
	)
	if err := ktx.Run(&c); err != nil {
		log.Fatalf("solarqc: %v", err)
	}
}
