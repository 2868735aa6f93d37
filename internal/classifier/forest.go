package classifier

import (
	"bytes"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"bookingscore/internal/models"
)

// ModelTypeForest is the artifact type handled by Forest.
const ModelTypeForest = "random_forest"

// Node is one entry of a flattened decision tree. Leaves set Class; split
// nodes send x[Feature] <= Threshold to Left and everything else to Right.
type Node struct {
	Feature   int     `yaml:"feature,omitempty"`
	Threshold float64 `yaml:"threshold,omitempty"`
	Left      int     `yaml:"left,omitempty"`
	Right     int     `yaml:"right,omitempty"`
	Class     *int    `yaml:"class,omitempty"`
}

// IsLeaf reports whether the node carries a class.
func (n Node) IsLeaf() bool {
	return n.Class != nil
}

// Tree is a decision tree stored as a node array rooted at index 0.
type Tree struct {
	Nodes []Node `yaml:"nodes"`
}

// predict walks the tree for one feature vector.
func (t *Tree) predict(x []float64) int {
	i := 0

	for {
		n := t.Nodes[i]
		if n.IsLeaf() {
			return *n.Class
		}

		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// Forest is a majority-vote ensemble of decision trees exported from a
// trained random forest.
type Forest struct {
	ModelName        string   `yaml:"name"`
	Type             string   `yaml:"type"`
	SchemaVersionPin int      `yaml:"schema_version"`
	Fingerprint      string   `yaml:"schema_fingerprint"`
	FeatureNames     []string `yaml:"features"`
	Classes          []int    `yaml:"classes"`
	Trees            []Tree   `yaml:"trees"`
}

// LoadForest reads and validates a forest model artifact.
func LoadForest(path string) (*Forest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model file: %w", err)
	}

	return ParseForest(data)
}

// ParseForest decodes and validates a forest model artifact.
func ParseForest(data []byte) (*Forest, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var f Forest
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to parse model YAML: %w", err)
	}

	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("model validation failed: %w", err)
	}

	sort.Ints(f.Classes)

	return &f, nil
}

// Save writes the forest as a YAML artifact.
func (f *Forest) Save(path string) error {
	data, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("failed to marshal model: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write model file: %w", err)
	}

	return nil
}

// Validate checks the forest structure. Child indexes must point forward so
// every walk terminates.
func (f *Forest) Validate() error {
	if f.Type != "" && f.Type != ModelTypeForest {
		return fmt.Errorf("%w: %s", ErrUnsupportedModel, f.Type)
	}

	if len(f.FeatureNames) == 0 {
		return ErrNoFeatures
	}

	if len(f.Classes) == 0 {
		return ErrNoClasses
	}

	classes := make(map[int]bool, len(f.Classes))
	for _, c := range f.Classes {
		if classes[c] {
			return fmt.Errorf("%w: %d", ErrDuplicateClass, c)
		}

		classes[c] = true
	}

	if len(f.Trees) == 0 {
		return ErrNoTrees
	}

	for ti, t := range f.Trees {
		if len(t.Nodes) == 0 {
			return fmt.Errorf("%w: tree %d is empty", ErrInvalidNode, ti)
		}

		for ni, n := range t.Nodes {
			if n.IsLeaf() {
				if !classes[*n.Class] {
					return fmt.Errorf("%w: tree %d node %d: class %d not declared", ErrInvalidNode, ti, ni, *n.Class)
				}

				continue
			}

			if n.Feature < 0 || n.Feature >= len(f.FeatureNames) {
				return fmt.Errorf("%w: tree %d node %d: feature %d out of range", ErrInvalidNode, ti, ni, n.Feature)
			}

			for _, child := range []int{n.Left, n.Right} {
				if child <= ni || child >= len(t.Nodes) {
					return fmt.Errorf("%w: tree %d node %d: child %d out of range", ErrInvalidNode, ti, ni, child)
				}
			}
		}
	}

	return nil
}

// Name implements Classifier.
func (f *Forest) Name() string {
	return f.ModelName
}

// Features implements Classifier.
func (f *Forest) Features() []string {
	return append([]string(nil), f.FeatureNames...)
}

// SchemaVersion implements Classifier.
func (f *Forest) SchemaVersion() int {
	return f.SchemaVersionPin
}

// SchemaFingerprint implements Classifier.
func (f *Forest) SchemaFingerprint() string {
	return f.Fingerprint
}

// ClassCodes implements Classifier.
func (f *Forest) ClassCodes() []int {
	return append([]int(nil), f.Classes...)
}

// Predict implements Classifier.
func (f *Forest) Predict(m *models.Matrix) ([]int, error) {
	preds, _, err := f.PredictProba(m)

	return preds, err
}

// PredictProba implements ProbabilityClassifier. The probability is the
// share of trees voting for the winning class; ties go to the lowest class.
func (f *Forest) PredictProba(m *models.Matrix) ([]int, []float64, error) {
	if err := f.checkColumns(m); err != nil {
		return nil, nil, err
	}

	preds := make([]int, len(m.Rows))
	probs := make([]float64, len(m.Rows))
	votes := make(map[int]int, len(f.Classes))

	for i, x := range m.Rows {
		if len(x) != len(f.FeatureNames) {
			return nil, nil, fmt.Errorf("%w: row %d has %d values, want %d", ErrRowWidth, i, len(x), len(f.FeatureNames))
		}

		clear(votes)

		for ti := range f.Trees {
			votes[f.Trees[ti].predict(x)]++
		}

		best, bestVotes := f.Classes[0], -1
		for _, c := range f.Classes {
			if votes[c] > bestVotes {
				best, bestVotes = c, votes[c]
			}
		}

		preds[i] = best
		probs[i] = float64(bestVotes) / float64(len(f.Trees))
	}

	return preds, probs, nil
}

func (f *Forest) checkColumns(m *models.Matrix) error {
	if m == nil {
		return fmt.Errorf("%w: nil matrix", ErrColumnMismatch)
	}

	if len(m.Columns) != len(f.FeatureNames) {
		return fmt.Errorf("%w: got %d columns, want %d", ErrColumnMismatch, len(m.Columns), len(f.FeatureNames))
	}

	for i, c := range m.Columns {
		if c != f.FeatureNames[i] {
			return fmt.Errorf("%w: column %d is %q, want %q", ErrColumnMismatch, i, c, f.FeatureNames[i])
		}
	}

	return nil
}
