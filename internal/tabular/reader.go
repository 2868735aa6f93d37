// Package tabular converts between delimited files, single-record form
// input and record batches.
package tabular

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"bookingscore/internal/models"
)

// Reader errors.
var (
	ErrEmptyInput      = errors.New("input has no header row")
	ErrBlankHeader     = errors.New("blank column name in header")
	ErrDuplicateHeader = errors.New("duplicate column name in header")
	ErrMalformedRow    = errors.New("malformed row")
	ErrMalformedPair   = errors.New("expected field=value")
)

// ReadCSV reads a comma separated file whose first row names the fields.
func ReadCSV(r io.Reader) (*models.Batch, error) {
	return ReadDelimited(r, ',')
}

// ReadDelimited reads a delimited file whose first row names the fields.
// Cells stay untyped strings; empty cells become missing values. Every row
// must have as many cells as the header.
func ReadDelimited(r io.Reader, comma rune) (*models.Batch, error) {
	cr := csv.NewReader(r)
	cr.Comma = comma
	cr.FieldsPerRecord = 0

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyInput
	}

	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	// Spreadsheet exports often start with a UTF-8 byte order mark.
	header[0] = strings.TrimPrefix(header[0], "\ufeff")

	seen := make(map[string]bool, len(header))

	for i, h := range header {
		h = strings.TrimSpace(h)
		if h == "" {
			return nil, fmt.Errorf("%w: column %d", ErrBlankHeader, i+1)
		}

		if seen[h] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateHeader, h)
		}

		seen[h] = true
		header[i] = h
	}

	batch := models.NewBatch(header...)

	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				return nil, fmt.Errorf("%w: line %d: %w", ErrMalformedRow, perr.Line, perr.Err)
			}

			return nil, fmt.Errorf("failed to read row: %w", err)
		}

		row := make(models.Record, len(header))

		for i, cell := range rec {
			if cell == "" {
				row[header[i]] = models.MissingValue()
			} else {
				row[header[i]] = models.StringValue(cell)
			}
		}

		batch.Rows = append(batch.Rows, row)
	}

	return batch, nil
}

// RecordFromPairs builds a single-record batch from field=value pairs, the
// way a manually filled form submits one booking. Columns keep the order
// the pairs were given in; a repeated field keeps its last value.
func RecordFromPairs(pairs []string) (*models.Batch, error) {
	batch := models.NewBatch()
	rec := make(models.Record, len(pairs))

	for _, p := range pairs {
		key, value, ok := strings.Cut(p, "=")
		key = strings.TrimSpace(key)

		if !ok || key == "" {
			return nil, fmt.Errorf("%w: %q", ErrMalformedPair, p)
		}

		if _, dup := rec[key]; !dup {
			batch.Columns = append(batch.Columns, key)
		}

		if value == "" {
			rec[key] = models.MissingValue()
		} else {
			rec[key] = models.StringValue(value)
		}
	}

	batch.Rows = append(batch.Rows, rec)

	return batch, nil
}

// RecordFromJSON converts a decoded JSON object into a record. Strings,
// numbers and null are accepted; integral numbers become integers.
func RecordFromJSON(obj map[string]any) (models.Record, error) {
	rec := make(models.Record, len(obj))

	for k, v := range obj {
		switch x := v.(type) {
		case nil:
			rec[k] = models.MissingValue()
		case string:
			rec[k] = models.StringValue(x)
		case float64:
			if x == math.Trunc(x) && math.Abs(x) < 1<<53 {
				rec[k] = models.IntValue(int64(x))
			} else {
				rec[k] = models.FloatValue(x)
			}
		case int:
			rec[k] = models.IntValue(int64(x))
		case int64:
			rec[k] = models.IntValue(x)
		case bool:
			if x {
				rec[k] = models.IntValue(1)
			} else {
				rec[k] = models.IntValue(0)
			}
		default:
			return nil, fmt.Errorf("field %s: unsupported value type %T", k, v)
		}
	}

	return rec, nil
}
