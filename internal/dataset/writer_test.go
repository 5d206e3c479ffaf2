package dataset

import (
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"solarqc/internal/models"
)

func TestWriteRoundTrip(t *testing.T) {
	ds := &models.Dataset{
		Name:       "roundtrip",
		TimeColumn: "Timestamp",
		Rows:       2,
		Columns: []models.Column{
			{Name: "Timestamp", Kind: models.KindTimestamp, Times: []time.Time{
				time.Date(2021, 8, 9, 0, 0, 0, 0, time.UTC),
				time.Date(2021, 8, 9, 0, 1, 0, 0, time.UTC),
			}},
			{Name: "GHI", Kind: models.KindNumeric, Floats: []sql.NullFloat64{
				{Float64: 100.5, Valid: true},
				{},
			}},
			{Name: "Comments", Kind: models.KindCategorical, Texts: []string{"ok", ""}},
		},
	}

	path := filepath.Join(t.TempDir(), "out", "roundtrip_clean.csv")
	if err := Write(ds, path); err != nil {
		t.Fatal(err)
	}

	got, _, err := Load(path, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if got.Rows != 2 {
		t.Fatalf("rows = %d, want 2", got.Rows)
	}
	ghi := got.Column("GHI")
	if !ghi.Floats[0].Valid || ghi.Floats[0].Float64 != 100.5 {
		t.Errorf("GHI[0] = %+v, want 100.5", ghi.Floats[0])
	}
	if ghi.Floats[1].Valid {
		t.Error("GHI[1] should still be missing after round trip")
	}
}

func TestWriteMissingCellIsEmptyField(t *testing.T) {
	ds := &models.Dataset{
		Name: "nulls",
		Rows: 1,
		Columns: []models.Column{
			{Name: "GHI", Kind: models.KindNumeric, Floats: []sql.NullFloat64{{}}},
		},
	}

	path := filepath.Join(t.TempDir(), "nulls.csv")
	if err := Write(ds, path); err != nil {
		t.Fatal(err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines = %d, want 2", len(lines))
	}
	if strings.TrimSpace(lines[1]) != "" {
		t.Errorf("data line = %q, want empty field", lines[1])
	}
}

func TestWriteOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	if err := os.WriteFile(path, []byte("stale content that is much longer than the replacement\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	ds := &models.Dataset{
		Name: "fresh",
		Rows: 1,
		Columns: []models.Column{
			{Name: "GHI", Kind: models.KindNumeric, Floats: []sql.NullFloat64{{Float64: 1, Valid: true}}},
		},
	}
	if err := Write(ds, path); err != nil {
		t.Fatal(err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(raw), "stale") {
		t.Error("old content survived the overwrite")
	}
}
