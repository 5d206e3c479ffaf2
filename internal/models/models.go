package models

import (
	"database/sql"
	"time"
)

// ColumnKind classifies a dataset column.
type ColumnKind string

const (
	KindTimestamp   ColumnKind = "timestamp"
	KindNumeric     ColumnKind = "numeric"
	KindCategorical ColumnKind = "categorical"
)

// Column holds one column of a dataset in columnar form. Exactly one of
// Floats, Texts, or Times is populated depending on Kind, each with one
// entry per row. A numeric cell with Valid=false is a missing value.
type Column struct {
	Name   string
	Kind   ColumnKind
	Floats []sql.NullFloat64
	Texts  []string
	Times  []time.Time
}

// Dataset is an ordered sequence of timestamped records read from one
// delimited file. Timestamps are parseable but not required to be unique
// or sorted. Stages never mutate a Dataset they receive; the cleaner
// returns a transformed copy.
type Dataset struct {
	Name       string
	TimeColumn string
	Columns    []Column
	Rows       int
}

// Column returns the named column, or nil if absent.
func (d *Dataset) Column(name string) *Column {
	for i := range d.Columns {
		if d.Columns[i].Name == name {
			return &d.Columns[i]
		}
	}
	return nil
}

// NumericColumns returns the names of all numeric columns in file order.
func (d *Dataset) NumericColumns() []string {
	var names []string
	for i := range d.Columns {
		if d.Columns[i].Kind == KindNumeric {
			names = append(names, d.Columns[i].Name)
		}
	}
	return names
}

// ColumnNames returns all column names in file order.
func (d *Dataset) ColumnNames() []string {
	names := make([]string, len(d.Columns))
	for i := range d.Columns {
		names[i] = d.Columns[i].Name
	}
	return names
}

// Clone returns a deep copy of the dataset.
func (d *Dataset) Clone() *Dataset {
	out := &Dataset{
		Name:       d.Name,
		TimeColumn: d.TimeColumn,
		Columns:    make([]Column, len(d.Columns)),
		Rows:       d.Rows,
	}
	for i, c := range d.Columns {
		nc := Column{Name: c.Name, Kind: c.Kind}
		if c.Floats != nil {
			nc.Floats = append([]sql.NullFloat64(nil), c.Floats...)
		}
		if c.Texts != nil {
			nc.Texts = append([]string(nil), c.Texts...)
		}
		if c.Times != nil {
			nc.Times = append([]time.Time(nil), c.Times...)
		}
		out.Columns[i] = nc
	}
	return out
}

// ColumnProfile summarises missing values for one column. Recomputed fresh
// per dataset; never cached across pipeline runs.
type ColumnProfile struct {
	Column      string
	Kind        ColumnKind
	Count       int
	Missing     int
	MissingRate float64 // [0,1]
	Critical    bool    // missing rate above the configured threshold
}

// OutlierFlag marks one cell whose z-score exceeded the detection
// threshold. Flags accompany the dataset as a side report and never
// modify it.
type OutlierFlag struct {
	Row    int
	Column string
	Value  float64
	Score  float64
}

// CleaningReport tallies the changes made by one cleaner invocation.
// Immutable once returned.
type CleaningReport struct {
	NegativesCorrected map[string]int
	CellsImputed       map[string]int
	CompletenessBefore float64
	CompletenessAfter  float64
}

// TotalNegatives returns the total negative-value corrections across columns.
func (r *CleaningReport) TotalNegatives() int {
	n := 0
	for _, v := range r.NegativesCorrected {
		n += v
	}
	return n
}

// TotalImputed returns the total imputed cells across columns.
func (r *CleaningReport) TotalImputed() int {
	n := 0
	for _, v := range r.CellsImputed {
		n += v
	}
	return n
}

// QualityScore is the scalar quality summary for one dataset run.
type QualityScore struct {
	Completeness float64 // mean per-column completeness, [0,1]
	OutlierRate  float64 // fraction of rows with at least one flag, [0,1]
	Score        float64 // weighted combination, clamped to [0,1]
}
