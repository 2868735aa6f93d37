package tabular

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"bookingscore/internal/formatter"
	"bookingscore/internal/models"
)

// Rows flattens an annotated batch into string cells in output column
// order. Input cells are reproduced exactly as supplied.
func Rows(a *models.AnnotatedBatch) [][]string {
	out := make([][]string, len(a.Batch.Rows))

	for i, rec := range a.Batch.Rows {
		row := make([]string, 0, len(a.Batch.Columns)+2)

		for _, c := range a.Batch.Columns {
			v, _ := rec.Get(c)
			row = append(row, v.Raw())
		}

		row = append(row, a.Labels[i])

		if a.Confidence != nil {
			row = append(row, FormatConfidence(a.Confidence[i]))
		}

		out[i] = row
	}

	return out
}

// FormatConfidence renders a probability with fixed precision so output
// files are reproducible.
func FormatConfidence(p float64) string {
	return strconv.FormatFloat(p, 'f', 4, 64)
}

// WriteCSV writes the annotated batch as CSV: the input columns followed by
// the label column.
func WriteCSV(w io.Writer, a *models.AnnotatedBatch) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(a.Columns()); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	if err := cw.WriteAll(Rows(a)); err != nil {
		return fmt.Errorf("failed to write rows: %w", err)
	}

	return nil
}

// RenderTable renders the annotated batch as an aligned markdown table.
func RenderTable(a *models.AnnotatedBatch) string {
	return formatter.Table(a.Columns(), Rows(a))
}

// JSONRows converts an annotated batch into one object per row for JSON
// responses. Input cells keep their original JSON type.
func JSONRows(a *models.AnnotatedBatch) []map[string]any {
	out := make([]map[string]any, len(a.Batch.Rows))

	for i, rec := range a.Batch.Rows {
		obj := make(map[string]any, len(a.Batch.Columns)+2)

		for _, c := range a.Batch.Columns {
			v, _ := rec.Get(c)
			obj[c] = v.Any()
		}

		obj[a.LabelColumn] = a.Labels[i]

		if a.Confidence != nil {
			obj[a.LabelColumn+"_confidence"] = a.Confidence[i]
		}

		out[i] = obj
	}

	return out
}
