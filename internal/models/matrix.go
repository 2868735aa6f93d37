package models

// Matrix is an encoded batch ready for inference. Columns follow the
// schema feature order and Rows keep the input row order.
type Matrix struct {
	Columns []string    `json:"columns"`
	Rows    [][]float64 `json:"rows"`
}

// Len returns the number of rows.
func (m *Matrix) Len() int {
	if m == nil {
		return 0
	}

	return len(m.Rows)
}

// Width returns the number of feature columns.
func (m *Matrix) Width() int {
	if m == nil {
		return 0
	}

	return len(m.Columns)
}
