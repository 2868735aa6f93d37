// Package classifier loads trained models and scores encoded matrices.
package classifier

import (
	"errors"

	"bookingscore/internal/models"
)

// Classifier errors.
var (
	ErrNoTrees          = errors.New("model has no trees")
	ErrNoFeatures       = errors.New("model declares no features")
	ErrNoClasses        = errors.New("model declares no classes")
	ErrDuplicateClass   = errors.New("duplicate class")
	ErrInvalidNode      = errors.New("invalid tree node")
	ErrColumnMismatch   = errors.New("matrix columns do not match model features")
	ErrRowWidth         = errors.New("matrix row has wrong width")
	ErrUnsupportedModel = errors.New("unsupported model type")
)

// Classifier is an opaque trained model over numeric feature vectors.
type Classifier interface {
	// Name identifies the model for logs and health output.
	Name() string
	// Features lists the feature names the model was trained on, in column order.
	Features() []string
	// SchemaVersion is the schema version the model was trained against, or 0.
	SchemaVersion() int
	// SchemaFingerprint is the schema hash the model is pinned to, or "".
	SchemaFingerprint() string
	// ClassCodes lists every class code Predict can return.
	ClassCodes() []int
	// Predict returns one class code per matrix row, in row order.
	Predict(m *models.Matrix) ([]int, error)
}

// ProbabilityClassifier is implemented by classifiers that can report the
// confidence of each prediction.
type ProbabilityClassifier interface {
	Classifier
	// PredictProba returns the predicted class and its probability per row.
	PredictProba(m *models.Matrix) ([]int, []float64, error)
}
