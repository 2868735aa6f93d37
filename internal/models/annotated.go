package models

// AnnotatedBatch is the original batch with one predicted label per row.
type AnnotatedBatch struct {
	Batch       *Batch
	LabelColumn string
	Labels      []string
	// Confidence is optional and, when set, holds one vote share per row.
	Confidence []float64
}

// Columns returns the output layout: the input columns followed by the label column.
func (a *AnnotatedBatch) Columns() []string {
	cols := make([]string, 0, len(a.Batch.Columns)+2)
	cols = append(cols, a.Batch.Columns...)
	cols = append(cols, a.LabelColumn)

	if a.Confidence != nil {
		cols = append(cols, a.LabelColumn+"_confidence")
	}

	return cols
}
