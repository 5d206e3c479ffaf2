package store

import (
	"database/sql"
	"time"
)

// Store records pipeline runs and per-column statistics in SQLite.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// QCRun is the audit record for one dataset pipeline invocation.
type QCRun struct {
	ID                 int64
	Dataset            string
	SourcePath         string
	OutputPath         sql.NullString
	StartedAt          time.Time
	FinishedAt         sql.NullTime
	RowsTotal          sql.NullInt64
	RowsDropped        sql.NullInt64
	CompletenessBefore sql.NullFloat64
	CompletenessAfter  sql.NullFloat64
	OutlierRate        sql.NullFloat64
	QualityScore       sql.NullFloat64
	NegativesCorrected sql.NullInt64
	CellsImputed       sql.NullInt64
	Success            bool
	ErrorMessage       sql.NullString
}

// ColumnStat is the per-column record attached to a run.
type ColumnStat struct {
	RunID              int64
	Column             string
	Kind               string
	RowCount           int
	MissingCount       int
	MissingRate        float64
	Mean               sql.NullFloat64
	Stddev             sql.NullFloat64
	MinValue           sql.NullFloat64
	MaxValue           sql.NullFloat64
	NegativesCorrected int
	CellsImputed       int
	OutlierFlags       int
}

// StartRun creates a new run record marked unsuccessful and returns it.
func (s *Store) StartRun(dataset, sourcePath string) (*QCRun, error) {
	run := &QCRun{
		Dataset:    dataset,
		SourcePath: sourcePath,
		StartedAt:  time.Now().UTC(),
	}

	result, err := s.db.Exec(`
		INSERT INTO qc_runs (dataset, source_path, started_at, success)
		VALUES (?, ?, ?, FALSE)
	`, run.Dataset, run.SourcePath, run.StartedAt)
	if err != nil {
		return nil, err
	}

	run.ID, err = result.LastInsertId()
	if err != nil {
		return nil, err
	}
	return run, nil
}

// CompleteRun updates the run record with results.
func (s *Store) CompleteRun(run *QCRun) error {
	if run == nil {
		return nil
	}

	run.FinishedAt = sql.NullTime{Time: time.Now().UTC(), Valid: true}

	_, err := s.db.Exec(`
		UPDATE qc_runs SET
			output_path = ?,
			finished_at = ?,
			rows_total = ?,
			rows_dropped = ?,
			completeness_before = ?,
			completeness_after = ?,
			outlier_rate = ?,
			quality_score = ?,
			negatives_corrected = ?,
			cells_imputed = ?,
			success = ?,
			error_message = ?
		WHERE id = ?
	`, run.OutputPath, run.FinishedAt, run.RowsTotal, run.RowsDropped,
		run.CompletenessBefore, run.CompletenessAfter, run.OutlierRate,
		run.QualityScore, run.NegativesCorrected, run.CellsImputed,
		run.Success, run.ErrorMessage, run.ID)
	return err
}

// InsertColumnStat attaches one column record to a run.
func (s *Store) InsertColumnStat(cs ColumnStat) error {
	_, err := s.db.Exec(`
		INSERT INTO column_stats (run_id, column_name, kind, row_count, missing_count, missing_rate,
			mean, stddev, min_value, max_value, negatives_corrected, cells_imputed, outlier_flags)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, column_name) DO NOTHING
	`, cs.RunID, cs.Column, cs.Kind, cs.RowCount, cs.MissingCount, cs.MissingRate,
		cs.Mean, cs.Stddev, cs.MinValue, cs.MaxValue,
		cs.NegativesCorrected, cs.CellsImputed, cs.OutlierFlags)
	return err
}

const runColumns = `id, dataset, source_path, output_path, started_at, finished_at,
	rows_total, rows_dropped, completeness_before, completeness_after,
	outlier_rate, quality_score, negatives_corrected, cells_imputed, success, error_message`

func scanRun(scanner interface{ Scan(...any) error }) (*QCRun, error) {
	var run QCRun
	err := scanner.Scan(&run.ID, &run.Dataset, &run.SourcePath, &run.OutputPath,
		&run.StartedAt, &run.FinishedAt, &run.RowsTotal, &run.RowsDropped,
		&run.CompletenessBefore, &run.CompletenessAfter, &run.OutlierRate,
		&run.QualityScore, &run.NegativesCorrected, &run.CellsImputed,
		&run.Success, &run.ErrorMessage)
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// GetRun returns one run by id, or nil when it does not exist.
func (s *Store) GetRun(id int64) (*QCRun, error) {
	row := s.db.QueryRow(`SELECT `+runColumns+` FROM qc_runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}

// GetRecentRuns returns the most recent runs, newest first.
func (s *Store) GetRecentRuns(limit int) ([]QCRun, error) {
	rows, err := s.db.Query(`
		SELECT `+runColumns+`
		FROM qc_runs
		ORDER BY started_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []QCRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// GetRunsForDataset returns the most recent runs for one dataset.
func (s *Store) GetRunsForDataset(dataset string, limit int) ([]QCRun, error) {
	rows, err := s.db.Query(`
		SELECT `+runColumns+`
		FROM qc_runs
		WHERE dataset = ?
		ORDER BY started_at DESC, id DESC
		LIMIT ?
	`, dataset, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []QCRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// GetColumnStats returns the column records for one run, ordered by name.
func (s *Store) GetColumnStats(runID int64) ([]ColumnStat, error) {
	rows, err := s.db.Query(`
		SELECT run_id, column_name, kind, row_count, missing_count, missing_rate,
			mean, stddev, min_value, max_value, negatives_corrected, cells_imputed, outlier_flags
		FROM column_stats
		WHERE run_id = ?
		ORDER BY column_name ASC
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []ColumnStat
	for rows.Next() {
		var cs ColumnStat
		if err := rows.Scan(&cs.RunID, &cs.Column, &cs.Kind, &cs.RowCount,
			&cs.MissingCount, &cs.MissingRate, &cs.Mean, &cs.Stddev,
			&cs.MinValue, &cs.MaxValue, &cs.NegativesCorrected,
			&cs.CellsImputed, &cs.OutlierFlags); err != nil {
			return nil, err
		}
		stats = append(stats, cs)
	}
	return stats, rows.Err()
}
