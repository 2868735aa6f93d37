package normalizer

import (
	"errors"
	"fmt"
	"strings"
)

// Normalization errors. Typed errors below unwrap to these so callers can
// branch with errors.Is.
var (
	ErrMissingFields     = errors.New("missing required fields")
	ErrMissingField      = errors.New("missing required field")
	ErrInvalidValue      = errors.New("invalid value")
	ErrUnknownCategory   = errors.New("unknown category")
	ErrLengthMismatch    = errors.New("prediction count does not match row count")
	ErrUnknownPrediction = errors.New("prediction code has no label")
	ErrNilBatch          = errors.New("batch is nil")
	ErrNilSchema         = errors.New("schema is nil")
	ErrLabelColumnExists = errors.New("label column already present in batch")
)

// MissingFieldsError lists every required field absent from a batch, in schema order.
type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMissingFields, strings.Join(e.Fields, ", "))
}

func (e *MissingFieldsError) Unwrap() error {
	return ErrMissingFields
}

// CellError locates one cell that could not be encoded.
// Row is the zero-based index into the batch.
type CellError struct {
	Kind  error
	Field string
	Row   int
	Raw   string
}

func (e *CellError) Error() string {
	return fmt.Sprintf("row %d, field %s: %s %q", e.Row, e.Field, e.Kind, e.Raw)
}

func (e *CellError) Unwrap() error {
	return e.Kind
}

// EncodingError aggregates every cell that failed encoding, in row-major,
// schema order.
type EncodingError struct {
	Cells []*CellError
}

func (e *EncodingError) Error() string {
	switch len(e.Cells) {
	case 0:
		return "no invalid cells"
	case 1:
		return e.Cells[0].Error()
	}

	return fmt.Sprintf("%d invalid cells, first at %s", len(e.Cells), e.Cells[0].Error())
}

// Unwrap exposes every cell error so errors.Is matches any of their kinds.
func (e *EncodingError) Unwrap() []error {
	out := make([]error, len(e.Cells))
	for i, c := range e.Cells {
		out[i] = c
	}

	return out
}

// Rows returns the distinct row indexes with at least one failed cell.
func (e *EncodingError) Rows() []int {
	var rows []int

	last := -1

	for _, c := range e.Cells {
		if c.Row != last {
			rows = append(rows, c.Row)
			last = c.Row
		}
	}

	return rows
}

// LengthMismatchError reports a classifier that returned the wrong number of
// predictions. It indicates a broken row-order invariant, not bad user input.
type LengthMismatchError struct {
	Rows        int
	Predictions int
}

func (e *LengthMismatchError) Error() string {
	return fmt.Sprintf("%s: %d rows, %d predictions", ErrLengthMismatch, e.Rows, e.Predictions)
}

func (e *LengthMismatchError) Unwrap() error {
	return ErrLengthMismatch
}

// Warning reports a categorical value outside its vocabulary that was
// replaced by the sentinel code.
type Warning struct {
	Field string `json:"field"`
	Row   int    `json:"row"`
	Raw   string `json:"value"`
}

func (w Warning) String() string {
	return fmt.Sprintf("row %d, field %s: unrecognised category %q encoded as sentinel", w.Row, w.Field, w.Raw)
}
