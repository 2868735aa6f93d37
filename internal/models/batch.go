// Package models defines the request-scoped data passed between the
// tabular readers, the feature normalizer and the classifier.
package models

import "sort"

// Record is one row of raw input keyed by field name.
type Record map[string]Value

// Get returns the value for field, or a missing value when the field is absent.
func (r Record) Get(field string) (Value, bool) {
	v, ok := r[field]
	if !ok {
		return MissingValue(), false
	}

	return v, true
}

// Batch is an ordered set of records sharing one column layout.
type Batch struct {
	Columns []string `json:"columns"`
	Rows    []Record `json:"rows"`
}

// NewBatch creates an empty batch with the given column layout.
func NewBatch(columns ...string) *Batch {
	return &Batch{Columns: append([]string(nil), columns...)}
}

// Append adds a record. Fields not yet part of the layout are appended to
// Columns in sorted order so repeated calls stay deterministic.
func (b *Batch) Append(rec Record) {
	var extra []string

	for name := range rec {
		if !b.Has(name) {
			extra = append(extra, name)
		}
	}

	sort.Strings(extra)
	b.Columns = append(b.Columns, extra...)
	b.Rows = append(b.Rows, rec)
}

// Has reports whether field is part of the batch layout.
func (b *Batch) Has(field string) bool {
	for _, c := range b.Columns {
		if c == field {
			return true
		}
	}

	return false
}

// Len returns the number of rows.
func (b *Batch) Len() int {
	if b == nil {
		return 0
	}

	return len(b.Rows)
}
