// Package normalizer validates raw record batches against a feature schema,
// encodes them into numeric matrices, and attaches classifier predictions.
package normalizer

import (
	"errors"
	"fmt"
	"time"

	"bookingscore/internal/classifier"
	"bookingscore/internal/logger"
	"bookingscore/internal/metrics"
	"bookingscore/internal/models"
	"bookingscore/internal/schema"
)

// Result is the outcome of scoring one batch.
type Result struct {
	Annotated   *models.AnnotatedBatch
	Matrix      *models.Matrix
	Predictions []int
	Warnings    []Warning
}

// Option configures a Processor.
type Option func(*Processor)

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option { return func(p *Processor) { p.log = l } }

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option { return func(p *Processor) { p.metrics = m } }

// WithPolicy sets the unknown-category policy.
func WithPolicy(policy UnknownPolicy) Option {
	return func(p *Processor) { p.encoder = NewEncoder(policy) }
}

// WithLabelColumn sets the name of the appended prediction column.
func WithLabelColumn(name string) Option { return func(p *Processor) { p.labelColumn = name } }

// WithConfidence appends the vote share of each prediction when the
// classifier can report it.
func WithConfidence(enabled bool) Option { return func(p *Processor) { p.confidence = enabled } }

// Processor runs the full request flow: validate, encode, predict, annotate.
// It only reads its schema and classifier, so one instance can serve
// concurrent requests.
type Processor struct {
	validator   *Validator
	encoder     *Encoder
	schema      *schema.Schema
	classifier  classifier.Classifier
	log         *logger.Logger
	metrics     *metrics.Metrics
	labelColumn string
	confidence  bool
}

// NewProcessor creates a processor after checking that the classifier was
// trained on the schema's feature layout. A mismatch is returned as an error
// so callers fail at start-up.
func NewProcessor(s *schema.Schema, c classifier.Classifier, opts ...Option) (*Processor, error) {
	if s == nil {
		return nil, ErrNilSchema
	}

	if c == nil {
		return nil, errors.New("classifier is nil")
	}

	if v := c.SchemaVersion(); v != 0 && v != s.Version {
		return nil, fmt.Errorf("%w: classifier %s expects schema version %d, loaded version %d",
			schema.ErrIncompatibleSchema, c.Name(), v, s.Version)
	}

	if err := s.CheckCompatible(c.Features(), c.SchemaFingerprint()); err != nil {
		return nil, err
	}

	if err := s.CheckLabels(c.ClassCodes()); err != nil {
		return nil, err
	}

	p := &Processor{
		validator:   NewValidator(),
		encoder:     NewEncoder(PolicyWarn),
		schema:      s,
		classifier:  c,
		log:         logger.Discard(),
		labelColumn: DefaultLabelColumn,
	}

	for _, o := range opts {
		o(p)
	}

	if p.labelColumn == "" {
		p.labelColumn = DefaultLabelColumn
	}

	return p, nil
}

// Schema returns the schema the processor encodes against.
func (p *Processor) Schema() *schema.Schema {
	return p.schema
}

// Classifier returns the classifier used for predictions.
func (p *Processor) Classifier() classifier.Classifier {
	return p.classifier
}

// LabelColumn returns the name of the appended prediction column.
func (p *Processor) LabelColumn() string {
	return p.labelColumn
}

// Process scores one batch. Missing fields and bad cells stop the whole
// batch; nothing is scored with guessed input.
func (p *Processor) Process(batch *models.Batch) (*Result, error) {
	start := time.Now()
	log := p.log.With("rows", batch.Len(), "model", p.classifier.Name())

	// 1. Validate the input layout
	if batch != nil && batch.Has(p.labelColumn) {
		log.Warn("batch rejected: label column already present", "column", p.labelColumn)
		p.metrics.Batch(metrics.OutcomeLabelColumn, time.Since(start))

		return nil, fmt.Errorf("validation failed: %w: %s", ErrLabelColumnExists, p.labelColumn)
	}

	if res := p.validator.Validate(batch, p.schema); !res.OK() {
		log.Warn("batch rejected: missing required fields", "missing", res.Missing)
		p.metrics.Batch(metrics.OutcomeMissingFields, time.Since(start))

		return nil, fmt.Errorf("validation failed: %w", res.Err())
	}

	// 2. Encode
	matrix, warnings, err := p.encoder.Encode(batch, p.schema)
	for _, w := range warnings {
		log.Warn("unrecognised category encoded as sentinel", "field", w.Field, "row", w.Row, "value", w.Raw)
		p.metrics.UnknownCategory(w.Field)
	}

	if err != nil {
		var encErr *EncodingError
		if errors.As(err, &encErr) {
			log.Warn("batch rejected: invalid cells", "cells", len(encErr.Cells), "rows_affected", len(encErr.Rows()))
		}

		p.metrics.Batch(metrics.OutcomeEncodingError, time.Since(start))

		return nil, fmt.Errorf("encoding failed: %w", err)
	}

	// 3. Predict
	predictions, confidence, err := p.predict(matrix)
	if err != nil {
		log.Error("prediction failed", "error", err)
		p.metrics.Batch(metrics.OutcomeInternalError, time.Since(start))

		return nil, fmt.Errorf("prediction failed: %w", err)
	}

	// 4. Attach labels
	annotated, err := Annotate(batch, predictions, p.schema.Labels, p.labelColumn)
	if err != nil {
		log.Error("annotation failed", "error", err)
		p.metrics.Batch(metrics.OutcomeInternalError, time.Since(start))

		return nil, fmt.Errorf("annotation failed: %w", err)
	}

	annotated.Confidence = confidence

	p.metrics.Scored(annotated.Labels)
	p.metrics.Batch(metrics.OutcomeScored, time.Since(start))
	log.Info("batch scored", "warnings", len(warnings), "elapsed", time.Since(start))

	return &Result{
		Annotated:   annotated,
		Matrix:      matrix,
		Predictions: predictions,
		Warnings:    warnings,
	}, nil
}

func (p *Processor) predict(m *models.Matrix) ([]int, []float64, error) {
	if p.confidence {
		if pc, ok := p.classifier.(classifier.ProbabilityClassifier); ok {
			return pc.PredictProba(m)
		}
	}

	preds, err := p.classifier.Predict(m)

	return preds, nil, err
}
