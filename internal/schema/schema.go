// Package schema describes the feature layout a classifier was trained on:
// which input fields are numeric, which are categorical with a fixed
// vocabulary, and which are accepted but dropped before inference.
package schema

import (
	"errors"
	"fmt"
	"sort"
	"strconv"

	"bookingscore/pkg/fingerprint"
)

// Schema errors.
var (
	ErrNoFields            = errors.New("schema has no fields")
	ErrNoFeatures          = errors.New("schema has no non-excluded fields")
	ErrBlankFieldName      = errors.New("field name is required")
	ErrDuplicateField      = errors.New("duplicate field name")
	ErrUnknownKind         = errors.New("unknown field kind")
	ErrMissingVocabulary   = errors.New("categorical field requires a vocabulary")
	ErrUnexpectedVocab     = errors.New("vocabulary is only allowed on categorical fields")
	ErrEmptyVocabulary     = errors.New("vocabulary is empty")
	ErrInvalidVocabulary   = errors.New("invalid vocabulary")
	ErrInvalidSentinel     = errors.New("sentinel must be negative")
	ErrNoLabels            = errors.New("schema requires at least one prediction label")
	ErrInvalidVersion      = errors.New("schema version must be at least 1")
	ErrIncompatibleSchema  = errors.New("classifier is incompatible with schema")
	ErrFingerprintMismatch = errors.New("schema fingerprint mismatch")
)

// DefaultSentinel is the code used for absent or unrecognised categorical values.
const DefaultSentinel = -1

// Kind tags how a field is treated during encoding.
type Kind string

// Field kinds.
const (
	KindNumeric     Kind = "numeric"
	KindCategorical Kind = "categorical"
	KindExcluded    Kind = "excluded"
)

// Field is one named input column.
type Field struct {
	Name       string      `yaml:"name" json:"name"`
	Kind       Kind        `yaml:"kind" json:"kind"`
	Vocabulary *Vocabulary `yaml:"vocabulary,omitempty" json:"vocabulary,omitempty"`
}

// Schema is the versioned feature layout shared by the normalizer and the classifier.
type Schema struct {
	Name     string         `yaml:"name" json:"name"`
	Version  int            `yaml:"version" json:"version"`
	Sentinel *int           `yaml:"sentinel,omitempty" json:"sentinel"`
	Labels   map[int]string `yaml:"labels" json:"labels"`
	Fields   []Field        `yaml:"fields" json:"fields"`
}

// SentinelCode returns the configured sentinel, or DefaultSentinel.
func (s *Schema) SentinelCode() int {
	if s.Sentinel == nil {
		return DefaultSentinel
	}

	return *s.Sentinel
}

// Features returns the names of all non-excluded fields in declared order.
// This is the column order of every encoded matrix.
func (s *Schema) Features() []string {
	out := make([]string, 0, len(s.Fields))

	for _, f := range s.Fields {
		if f.Kind != KindExcluded {
			out = append(out, f.Name)
		}
	}

	return out
}

// Required returns the fields that must be present in every batch.
func (s *Schema) Required() []string {
	return s.Features()
}

// Field looks up a field by name.
func (s *Schema) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}

	return Field{}, false
}

// Label returns the human-readable label for a prediction code.
func (s *Schema) Label(code int) (string, bool) {
	label, ok := s.Labels[code]

	return label, ok
}

// Validate checks the schema for internal consistency.
func (s *Schema) Validate() error {
	if s.Version < 1 {
		return ErrInvalidVersion
	}

	if len(s.Fields) == 0 {
		return ErrNoFields
	}

	seen := make(map[string]bool, len(s.Fields))

	for i, f := range s.Fields {
		if f.Name == "" {
			return fmt.Errorf("%w: fields[%d]", ErrBlankFieldName, i)
		}

		if seen[f.Name] {
			return fmt.Errorf("%w: %s", ErrDuplicateField, f.Name)
		}

		seen[f.Name] = true

		switch f.Kind {
		case KindCategorical:
			if f.Vocabulary == nil || f.Vocabulary.Len() == 0 {
				return fmt.Errorf("%w: %s", ErrMissingVocabulary, f.Name)
			}
		case KindNumeric, KindExcluded:
			if f.Vocabulary != nil {
				return fmt.Errorf("%w: %s", ErrUnexpectedVocab, f.Name)
			}
		default:
			return fmt.Errorf("%w %q: %s", ErrUnknownKind, f.Kind, f.Name)
		}
	}

	if len(s.Features()) == 0 {
		return ErrNoFeatures
	}

	if s.SentinelCode() >= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidSentinel, s.SentinelCode())
	}

	if len(s.Labels) == 0 {
		return ErrNoLabels
	}

	return nil
}

// Fingerprint hashes the feature layout: field names, kinds, vocabularies
// and the sentinel. Labels are not part of it since they only affect display.
func (s *Schema) Fingerprint() string {
	parts := []string{"sentinel=" + strconv.Itoa(s.SentinelCode())}

	// Names and labels are quoted so separators inside them cannot alias
	// another layout.
	for _, f := range s.Fields {
		name := strconv.Quote(f.Name)
		parts = append(parts, name+":"+string(f.Kind))

		if f.Vocabulary != nil {
			for _, e := range f.Vocabulary.Entries() {
				parts = append(parts, name+"="+strconv.Quote(e.Label)+"="+strconv.Itoa(e.Code))
			}
		}
	}

	return fingerprint.Sum(parts...)
}

// CheckCompatible verifies that a classifier trained on features (in order)
// can consume matrices produced from this schema. When pinned is non-empty
// it must equal the schema fingerprint.
func (s *Schema) CheckCompatible(features []string, pinned string) error {
	want := s.Features()

	for i := 0; i < len(want) || i < len(features); i++ {
		var w, got string
		if i < len(want) {
			w = want[i]
		}

		if i < len(features) {
			got = features[i]
		}

		if w != got {
			return fmt.Errorf("%w: feature %d is %s in schema but %s in classifier",
				ErrIncompatibleSchema, i, orNone(w), orNone(got))
		}
	}

	if pinned != "" {
		if err := fingerprint.Verify(pinned, s.Fingerprint()); err != nil {
			return fmt.Errorf("%w: %w", ErrFingerprintMismatch, err)
		}
	}

	return nil
}

// CheckLabels verifies that every class code a classifier can emit has a
// label, so predictions never fail to map at request time.
func (s *Schema) CheckLabels(classes []int) error {
	for _, c := range classes {
		if _, ok := s.Labels[c]; !ok {
			return fmt.Errorf("%w: classifier can predict class %d but schema labels only %v",
				ErrIncompatibleSchema, c, s.LabelCodes())
		}
	}

	return nil
}

// LabelCodes returns the prediction codes that have labels, ascending.
func (s *Schema) LabelCodes() []int {
	codes := make([]int, 0, len(s.Labels))
	for c := range s.Labels {
		codes = append(codes, c)
	}

	sort.Ints(codes)

	return codes
}

func orNone(s string) string {
	if s == "" {
		return "<none>"
	}

	return strconv.Quote(s)
}
