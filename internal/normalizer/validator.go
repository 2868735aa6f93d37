package normalizer

import (
	"bookingscore/internal/models"
	"bookingscore/internal/schema"
)

// ValidationResult is the outcome of checking a batch against a schema.
// An empty Missing list means the batch is acceptable.
type ValidationResult struct {
	Missing []string
}

// OK reports whether every required field is present.
func (r ValidationResult) OK() bool {
	return len(r.Missing) == 0
}

// Err returns a *MissingFieldsError, or nil when the result is OK.
func (r ValidationResult) Err() error {
	if r.OK() {
		return nil
	}

	return &MissingFieldsError{Fields: append([]string(nil), r.Missing...)}
}

// Validator checks batches for required fields.
type Validator struct{}

// NewValidator creates a new validator instance.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate lists every required field absent from the batch layout, in
// schema order. Excluded fields are never required. A nil batch is missing
// everything.
func (v *Validator) Validate(batch *models.Batch, s *schema.Schema) ValidationResult {
	var res ValidationResult

	for _, name := range s.Required() {
		if batch == nil || !batch.Has(name) {
			res.Missing = append(res.Missing, name)
		}
	}

	return res
}
