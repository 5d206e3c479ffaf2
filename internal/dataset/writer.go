package dataset

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"solarqc/internal/models"
)

// TimeFormat is the timestamp layout used when writing cleaned datasets.
const TimeFormat = "2006-01-02 15:04:05"

// Write emits the dataset as CSV with the same columns as the input,
// fully overwriting any existing file at path.
func Write(ds *models.Dataset, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(ds.ColumnNames()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	rec := make([]string, len(ds.Columns))
	for row := 0; row < ds.Rows; row++ {
		for i := range ds.Columns {
			rec[i] = formatCell(&ds.Columns[i], row)
		}
		if err := w.Write(rec); err != nil {
			return fmt.Errorf("write row %d: %w", row, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	return nil
}

func formatCell(col *models.Column, row int) string {
	switch col.Kind {
	case models.KindTimestamp:
		return col.Times[row].Format(TimeFormat)
	case models.KindNumeric:
		if !col.Floats[row].Valid {
			return ""
		}
		return strconv.FormatFloat(col.Floats[row].Float64, 'f', -1, 64)
	default:
		return col.Texts[row]
	}
}
