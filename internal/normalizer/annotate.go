package normalizer

import (
	"fmt"

	"bookingscore/internal/models"
)

// DefaultLabelColumn names the appended prediction column.
const DefaultLabelColumn = "prediction"

// Annotate attaches one human-readable label per row, mapping prediction
// codes through labels. Row i of the result keeps row i of the input; the
// input batch is not modified. Predictions must match the row count exactly.
func Annotate(batch *models.Batch, predictions []int, labels map[int]string, column string) (*models.AnnotatedBatch, error) {
	if batch == nil {
		return nil, ErrNilBatch
	}

	if len(predictions) != len(batch.Rows) {
		return nil, &LengthMismatchError{Rows: len(batch.Rows), Predictions: len(predictions)}
	}

	if column == "" {
		column = DefaultLabelColumn
	}

	if batch.Has(column) {
		return nil, fmt.Errorf("%w: %s", ErrLabelColumnExists, column)
	}

	out := &models.AnnotatedBatch{
		Batch:       batch,
		LabelColumn: column,
		Labels:      make([]string, len(predictions)),
	}

	for i, code := range predictions {
		label, ok := labels[code]
		if !ok {
			return nil, fmt.Errorf("%w: row %d predicted %d", ErrUnknownPrediction, i, code)
		}

		out.Labels[i] = label
	}

	return out, nil
}
