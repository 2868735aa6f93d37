package normalizer

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"bookingscore/internal/models"
	"bookingscore/internal/schema"
)

// UnknownPolicy decides what happens to a categorical label outside its vocabulary.
type UnknownPolicy string

// Unknown-category policies.
const (
	// PolicyWarn encodes the label as the sentinel and reports a Warning.
	PolicyWarn UnknownPolicy = "warn"
	// PolicyReject fails the cell with ErrUnknownCategory.
	PolicyReject UnknownPolicy = "reject"
)

// ParsePolicy converts a configuration string into a policy. The empty
// string selects PolicyWarn.
func ParsePolicy(s string) (UnknownPolicy, error) {
	switch UnknownPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyWarn:
		return PolicyWarn, nil
	case PolicyReject:
		return PolicyReject, nil
	default:
		return "", fmt.Errorf("unknown category policy %q: must be warn or reject", s)
	}
}

// Encoder turns raw batches into numeric matrices. It holds no mutable
// state and is safe for concurrent use.
type Encoder struct {
	policy UnknownPolicy
}

// NewEncoder creates an encoder with the given unknown-category policy.
func NewEncoder(policy UnknownPolicy) *Encoder {
	if policy == "" {
		policy = PolicyWarn
	}

	return &Encoder{policy: policy}
}

// Policy returns the unknown-category policy.
func (e *Encoder) Policy() UnknownPolicy {
	return e.policy
}

// Encode converts every row of batch into one matrix row in schema feature
// order. Excluded fields are dropped. On failure the returned error is an
// *EncodingError listing every bad cell and no matrix is returned. Warnings
// are returned for unrecognised categories encoded as the sentinel.
func (e *Encoder) Encode(batch *models.Batch, s *schema.Schema) (*models.Matrix, []Warning, error) {
	if batch == nil {
		return nil, nil, ErrNilBatch
	}

	if s == nil {
		return nil, nil, ErrNilSchema
	}

	features := make([]schema.Field, 0, len(s.Fields))
	for _, f := range s.Fields {
		if f.Kind != schema.KindExcluded {
			features = append(features, f)
		}
	}

	present := make(map[string]bool, len(batch.Columns))
	for _, c := range batch.Columns {
		present[c] = true
	}

	sentinel := float64(s.SentinelCode())
	out := &models.Matrix{
		Columns: s.Features(),
		Rows:    make([][]float64, len(batch.Rows)),
	}

	var (
		warnings []Warning
		cells    []*CellError
	)

	for i, rec := range batch.Rows {
		row := make([]float64, len(features))

		for j, f := range features {
			if !present[f.Name] {
				cells = append(cells, &CellError{Kind: ErrMissingField, Field: f.Name, Row: i})

				continue
			}

			v, _ := rec.Get(f.Name)

			switch f.Kind {
			case schema.KindCategorical:
				if v.IsEmpty() {
					row[j] = sentinel

					continue
				}

				code, ok := f.Vocabulary.Code(v.Raw())
				if ok {
					row[j] = float64(code)

					continue
				}

				if e.policy == PolicyReject {
					cells = append(cells, &CellError{Kind: ErrUnknownCategory, Field: f.Name, Row: i, Raw: v.Raw()})

					continue
				}

				row[j] = sentinel
				warnings = append(warnings, Warning{Field: f.Name, Row: i, Raw: v.Raw()})

			case schema.KindNumeric:
				num, ok := numericValue(v)
				if !ok {
					cells = append(cells, &CellError{Kind: ErrInvalidValue, Field: f.Name, Row: i, Raw: v.Raw()})

					continue
				}

				row[j] = num
			}
		}

		out.Rows[i] = row
	}

	if len(cells) > 0 {
		return nil, warnings, &EncodingError{Cells: cells}
	}

	return out, warnings, nil
}

// numericValue converts a raw cell to a finite float.
func numericValue(v models.Value) (float64, bool) {
	var f float64

	switch v.Kind {
	case models.KindInt:
		return float64(v.Int), true
	case models.KindFloat:
		f = v.Num
	case models.KindString:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v.Str), 64)
		if err != nil {
			return 0, false
		}

		f = parsed
	default:
		return 0, false
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}

	return f, true
}
