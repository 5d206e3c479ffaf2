package api

import (
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"solarqc/internal/store"
)

// RunView is the JSON shape for one run.
type RunView struct {
	ID                 int64            `json:"id"`
	Dataset            string           `json:"dataset"`
	SourcePath         string           `json:"source_path"`
	OutputPath         string           `json:"output_path,omitempty"`
	StartedAt          time.Time        `json:"started_at"`
	FinishedAt         *time.Time       `json:"finished_at,omitempty"`
	RowsTotal          *int64           `json:"rows_total,omitempty"`
	RowsDropped        *int64           `json:"rows_dropped,omitempty"`
	CompletenessBefore *float64         `json:"completeness_before,omitempty"`
	CompletenessAfter  *float64         `json:"completeness_after,omitempty"`
	OutlierRate        *float64         `json:"outlier_rate,omitempty"`
	QualityScore       *float64         `json:"quality_score,omitempty"`
	NegativesCorrected *int64           `json:"negatives_corrected,omitempty"`
	CellsImputed       *int64           `json:"cells_imputed,omitempty"`
	Success            bool             `json:"success"`
	ErrorMessage       string           `json:"error_message,omitempty"`
	Columns            []ColumnStatView `json:"columns,omitempty"`
}

// ColumnStatView is the JSON shape for one column record.
type ColumnStatView struct {
	Column             string   `json:"column"`
	Kind               string   `json:"kind"`
	RowCount           int      `json:"row_count"`
	MissingCount       int      `json:"missing_count"`
	MissingRate        float64  `json:"missing_rate"`
	Mean               *float64 `json:"mean,omitempty"`
	Stddev             *float64 `json:"stddev,omitempty"`
	MinValue           *float64 `json:"min_value,omitempty"`
	MaxValue           *float64 `json:"max_value,omitempty"`
	NegativesCorrected int      `json:"negatives_corrected"`
	CellsImputed       int      `json:"cells_imputed"`
	OutlierFlags       int      `json:"outlier_flags"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	var (
		runs []store.QCRun
		err  error
	)
	if ds := r.URL.Query().Get("dataset"); ds != "" {
		runs, err = s.store.GetRunsForDataset(ds, limit)
	} else {
		runs, err = s.store.GetRecentRuns(limit)
	}
	if err != nil {
		log.Printf("api: list runs: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	views := make([]RunView, len(runs))
	for i := range runs {
		views[i] = runView(&runs[i], nil)
	}
	writeJSON(w, views)
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	idStr := strings.TrimPrefix(r.URL.Path, "/api/runs/")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		http.Error(w, "invalid run id", http.StatusBadRequest)
		return
	}

	run, err := s.store.GetRun(id)
	if err != nil {
		log.Printf("api: get run %d: %v", id, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if run == nil {
		http.Error(w, "run not found", http.StatusNotFound)
		return
	}

	stats, err := s.store.GetColumnStats(id)
	if err != nil {
		log.Printf("api: get column stats %d: %v", id, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, runView(run, stats))
}

func runView(run *store.QCRun, stats []store.ColumnStat) RunView {
	v := RunView{
		ID:         run.ID,
		Dataset:    run.Dataset,
		SourcePath: run.SourcePath,
		StartedAt:  run.StartedAt,
		Success:    run.Success,
	}
	if run.OutputPath.Valid {
		v.OutputPath = run.OutputPath.String
	}
	if run.FinishedAt.Valid {
		t := run.FinishedAt.Time
		v.FinishedAt = &t
	}
	v.RowsTotal = nullInt(run.RowsTotal)
	v.RowsDropped = nullInt(run.RowsDropped)
	v.CompletenessBefore = nullFloat(run.CompletenessBefore)
	v.CompletenessAfter = nullFloat(run.CompletenessAfter)
	v.OutlierRate = nullFloat(run.OutlierRate)
	v.QualityScore = nullFloat(run.QualityScore)
	v.NegativesCorrected = nullInt(run.NegativesCorrected)
	v.CellsImputed = nullInt(run.CellsImputed)
	if run.ErrorMessage.Valid {
		v.ErrorMessage = run.ErrorMessage.String
	}

	for _, cs := range stats {
		v.Columns = append(v.Columns, ColumnStatView{
			Column:             cs.Column,
			Kind:               cs.Kind,
			RowCount:           cs.RowCount,
			MissingCount:       cs.MissingCount,
			MissingRate:        cs.MissingRate,
			Mean:               nullFloat(cs.Mean),
			Stddev:             nullFloat(cs.Stddev),
			MinValue:           nullFloat(cs.MinValue),
			MaxValue:           nullFloat(cs.MaxValue),
			NegativesCorrected: cs.NegativesCorrected,
			CellsImputed:       cs.CellsImputed,
			OutlierFlags:       cs.OutlierFlags,
		})
	}
	return v
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("api: encode response: %v", err)
	}
}

func nullInt(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	n := v.Int64
	return &n
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
