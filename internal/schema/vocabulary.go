package schema

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Vocabulary maps the accepted labels of one categorical field to their codes.
// It is immutable once built.
type Vocabulary struct {
	codes  map[string]int
	labels map[int]string
}

// Entry is one label/code pair.
type Entry struct {
	Label string `json:"label"`
	Code  int    `json:"code"`
}

// NewVocabulary builds a vocabulary from a label to code map. Labels are
// trimmed and must stay unique after trimming; codes must be non-negative
// and unique.
func NewVocabulary(m map[string]int) (*Vocabulary, error) {
	if len(m) == 0 {
		return nil, ErrEmptyVocabulary
	}

	v := &Vocabulary{
		codes:  make(map[string]int, len(m)),
		labels: make(map[int]string, len(m)),
	}

	for raw, code := range m {
		label := strings.TrimSpace(raw)
		if label == "" {
			return nil, fmt.Errorf("%w: blank label", ErrInvalidVocabulary)
		}

		if _, dup := v.codes[label]; dup {
			return nil, fmt.Errorf("%w: label %q listed twice", ErrInvalidVocabulary, label)
		}

		if code < 0 {
			return nil, fmt.Errorf("%w: label %q has negative code %d", ErrInvalidVocabulary, label, code)
		}

		if prev, dup := v.labels[code]; dup {
			return nil, fmt.Errorf("%w: code %d used by %q and %q", ErrInvalidVocabulary, code, prev, label)
		}

		v.codes[label] = code
		v.labels[code] = label
	}

	return v, nil
}

// MustVocabulary is NewVocabulary that panics on error. Intended for tests
// and static tables.
func MustVocabulary(m map[string]int) *Vocabulary {
	v, err := NewVocabulary(m)
	if err != nil {
		panic(err)
	}

	return v
}

// Code returns the code for label. Surrounding whitespace is ignored.
func (v *Vocabulary) Code(label string) (int, bool) {
	code, ok := v.codes[strings.TrimSpace(label)]

	return code, ok
}

// Label returns the label for code.
func (v *Vocabulary) Label(code int) (string, bool) {
	label, ok := v.labels[code]

	return label, ok
}

// Len returns the number of labels.
func (v *Vocabulary) Len() int {
	return len(v.codes)
}

// Entries returns the vocabulary sorted by code.
func (v *Vocabulary) Entries() []Entry {
	out := make([]Entry, 0, len(v.codes))
	for label, code := range v.codes {
		out = append(out, Entry{Label: label, Code: code})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })

	return out
}

// UnmarshalYAML decodes a `label: code` mapping.
func (v *Vocabulary) UnmarshalYAML(node *yaml.Node) error {
	var m map[string]int
	if err := node.Decode(&m); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidVocabulary, err)
	}

	built, err := NewVocabulary(m)
	if err != nil {
		return err
	}

	*v = *built

	return nil
}

// MarshalYAML encodes the vocabulary as a `label: code` mapping.
func (v *Vocabulary) MarshalYAML() (any, error) {
	return v.codes, nil
}

// MarshalJSON encodes the vocabulary as entries ordered by code.
func (v *Vocabulary) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Entries())
}
