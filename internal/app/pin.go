package app

import (
	"fmt"

	"bookingscore/internal/classifier"
	"bookingscore/internal/schema"
)

// PinModel records the schema's fingerprint and version in the model
// artifact after checking that the feature layouts match. Later loads then
// reject any edit to the schema's vocabularies.
func PinModel(schemaPath, modelPath string) (string, error) {
	s, err := schema.Load(schemaPath)
	if err != nil {
		return "", fmt.Errorf("failed to load schema: %w", err)
	}

	model, err := classifier.LoadForest(modelPath)
	if err != nil {
		return "", fmt.Errorf("failed to load model: %w", err)
	}

	if err := s.CheckCompatible(model.Features(), ""); err != nil {
		return "", err
	}

	model.Fingerprint = s.Fingerprint()
	model.SchemaVersionPin = s.Version

	if err := model.Save(modelPath); err != nil {
		return "", err
	}

	return model.Fingerprint, nil
}
