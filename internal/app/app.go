// Package app assembles a ready-to-serve scoring pipeline from configuration.
package app

import (
	"fmt"
	"io"

	"bookingscore/internal/classifier"
	"bookingscore/internal/config"
	"bookingscore/internal/logger"
	"bookingscore/internal/metrics"
	"bookingscore/internal/normalizer"
	"bookingscore/internal/schema"
	"bookingscore/pkg/fingerprint"
)

// App holds the loaded artifacts shared by the CLI and the HTTP front end.
type App struct {
	Config    *config.Config
	Log       *logger.Logger
	Metrics   *metrics.Metrics
	Schema    *schema.Schema
	Model     *classifier.Forest
	Processor *normalizer.Processor
}

// Load reads the schema and model named by cfg and checks that they agree.
// Any failure here is fatal for the caller; the service must not start with
// an incompatible classifier.
func Load(cfg *config.Config, logOut io.Writer) (*App, error) {
	log := logger.New(logOut, cfg.Logging.Level, cfg.Logging.Format)

	// 1. Schema
	s, err := schema.Load(cfg.Schema.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to load schema: %w", err)
	}

	// 2. Model
	model, err := classifier.LoadForest(cfg.Model.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to load model: %w", err)
	}

	policy, err := normalizer.ParsePolicy(cfg.Schema.UnknownCategory)
	if err != nil {
		return nil, err
	}

	// 3. Compatibility check happens inside NewProcessor
	m := metrics.New()

	proc, err := normalizer.NewProcessor(s, model,
		normalizer.WithLogger(log),
		normalizer.WithMetrics(m),
		normalizer.WithPolicy(policy),
		normalizer.WithLabelColumn(cfg.Output.LabelColumn),
		normalizer.WithConfidence(cfg.Output.Confidence),
	)
	if err != nil {
		return nil, fmt.Errorf("model %s rejected: %w", model.Name(), err)
	}

	log.Info("scoring pipeline ready",
		"schema", s.Name,
		"schema_version", s.Version,
		"fingerprint", fingerprint.Short(s.Fingerprint()),
		"model", model.Name(),
		"features", len(model.Features()),
		"policy", string(policy),
	)

	return &App{
		Config:    cfg,
		Log:       log,
		Metrics:   m,
		Schema:    s,
		Model:     model,
		Processor: proc,
	}, nil
}
