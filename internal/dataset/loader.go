package dataset

import (
	"database/sql"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"solarqc/internal/models"
)

// DefaultTimeColumn is the timestamp column name used by the measurement
// campaign exports when none is configured.
const DefaultTimeColumn = "Timestamp"

// Timestamp layouts seen across the country exports, tried in order.
var timeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	time.RFC3339,
	"2006-01-02",
	"02/01/2006 15:04",
}

// LoadError is the single fatal failure of a dataset run: the file could
// not be turned into a usable Dataset. All later stages operate on
// validated in-memory data and do not raise domain errors.
type LoadError struct {
	Path   string
	Reason string
	Err    error
}

func (e *LoadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("load %s: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("load %s: %s", e.Path, e.Reason)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Options configures loading.
type Options struct {
	Name       string // dataset name; defaults to the file stem
	TimeColumn string // defaults to DefaultTimeColumn
}

// Load reads a delimited file with a header row into a Dataset. Rows whose
// timestamp does not parse are dropped and counted in droppedRows; loading
// fails only when every row is unparseable, the header is unusable, or no
// numeric measurement column exists.
func Load(path string, opts Options) (ds *models.Dataset, droppedRows int, err error) {
	name := opts.Name
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	timeCol := opts.TimeColumn
	if timeCol == "" {
		timeCol = DefaultTimeColumn
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, 0, &LoadError{Path: path, Reason: "open file", Err: err}
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, 0, &LoadError{Path: path, Reason: "read csv", Err: err}
	}
	if len(records) == 0 {
		return nil, 0, &LoadError{Path: path, Reason: "no header row"}
	}

	header := cleanHeader(records[0])
	timeIdx := -1
	for i, h := range header {
		if h == timeCol {
			timeIdx = i
		}
	}
	if timeIdx == -1 {
		return nil, 0, &LoadError{Path: path, Reason: fmt.Sprintf("timestamp column %q not found", timeCol)}
	}

	rows := records[1:]
	kinds := inferKinds(header, timeIdx, rows)

	numericFound := false
	for _, k := range kinds {
		if k == models.KindNumeric {
			numericFound = true
		}
	}
	if !numericFound {
		return nil, 0, &LoadError{Path: path, Reason: "no numeric measurement column"}
	}

	ds = &models.Dataset{Name: name, TimeColumn: timeCol}
	for i, h := range header {
		c := models.Column{Name: h, Kind: kinds[i]}
		ds.Columns = append(ds.Columns, c)
	}

	for _, rec := range rows {
		if timeIdx >= len(rec) {
			droppedRows++
			continue
		}
		ts, ok := parseTimestamp(rec[timeIdx])
		if !ok {
			droppedRows++
			continue
		}
		appendRow(ds, rec, ts)
	}

	if ds.Rows == 0 && len(rows) > 0 {
		return nil, droppedRows, &LoadError{Path: path, Reason: "no row has a parseable timestamp"}
	}

	return ds, droppedRows, nil
}

func appendRow(ds *models.Dataset, rec []string, ts time.Time) {
	for i := range ds.Columns {
		col := &ds.Columns[i]
		cell := ""
		if i < len(rec) {
			cell = strings.TrimSpace(rec[i])
		}
		switch col.Kind {
		case models.KindTimestamp:
			col.Times = append(col.Times, ts)
		case models.KindNumeric:
			if cell == "" {
				col.Floats = append(col.Floats, sql.NullFloat64{})
				break
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				col.Floats = append(col.Floats, sql.NullFloat64{})
				break
			}
			col.Floats = append(col.Floats, sql.NullFloat64{Float64: v, Valid: true})
		default:
			col.Texts = append(col.Texts, cell)
		}
	}
	ds.Rows++
}

// inferKinds classifies each column from its first non-empty cells: numeric
// if they parse as floats, categorical otherwise. An all-empty column is
// treated as numeric so its cells count as missing rather than as empty text.
func inferKinds(header []string, timeIdx int, rows [][]string) []models.ColumnKind {
	const sampleLimit = 50

	kinds := make([]models.ColumnKind, len(header))
	for i := range header {
		if i == timeIdx {
			kinds[i] = models.KindTimestamp
			continue
		}
		seen, numeric := 0, 0
		for _, rec := range rows {
			if i >= len(rec) {
				continue
			}
			cell := strings.TrimSpace(rec[i])
			if cell == "" {
				continue
			}
			seen++
			if _, err := strconv.ParseFloat(cell, 64); err == nil {
				numeric++
			}
			if seen >= sampleLimit {
				break
			}
		}
		if seen == 0 || numeric == seen {
			kinds[i] = models.KindNumeric
		} else {
			kinds[i] = models.KindCategorical
		}
	}
	return kinds
}

func parseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// cleanHeader strips the UTF-8 BOM and surrounding whitespace from header
// cells. Some country exports carry a BOM on the first column name.
func cleanHeader(header []string) []string {
	out := make([]string, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		h = strings.TrimPrefix(h, "\ufeff")
		out[i] = strings.TrimSpace(h)
	}
	return out
}
