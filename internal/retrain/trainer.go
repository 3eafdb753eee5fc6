// Package retrain rebuilds the category model from accumulated history and
// runs that rebuild as a background job.
package retrain

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"college-budgeting-backend/internal/category"
	"college-budgeting-backend/internal/metrics"
	"college-budgeting-backend/internal/model"
)

// DefaultMinSamples is the smallest labeled history worth training on.
const DefaultMinSamples = 5

// HistorySource supplies every labeled example in a single consistent read.
type HistorySource interface {
	LabeledHistory(ctx context.Context) ([]model.LabeledExample, error)
}

// ArtifactStore persists trained models.
type ArtifactStore interface {
	Save(m *category.Model) error
}

// Report describes a finished training run.
type Report struct {
	Skipped   bool
	Samples   int
	Classes   int
	Converged bool
	Duration  time.Duration
}

// Trainer fits a fresh model on the full history, persists it and then
// publishes it to the registry.
type Trainer struct {
	history    HistorySource
	artifacts  ArtifactStore
	registry   *category.Registry
	logger     *zap.Logger
	minSamples int
	fit        func(context.Context, []model.LabeledExample) (*category.Model, error)
}

// NewTrainer wires a trainer. minSamples <= 0 uses DefaultMinSamples.
func NewTrainer(history HistorySource, artifacts ArtifactStore, registry *category.Registry, logger *zap.Logger, minSamples int) *Trainer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if minSamples <= 0 {
		minSamples = DefaultMinSamples
	}
	return &Trainer{
		history:    history,
		artifacts:  artifacts,
		registry:   registry,
		logger:     logger,
		minSamples: minSamples,
		fit:        category.Train,
	}
}

// Run performs one full retrain. Too little history is reported as a skip,
// not an error. On any error the registry keeps its previous model.
func (t *Trainer) Run(ctx context.Context) (Report, error) {
	start := time.Now()

	examples, err := t.history.LabeledHistory(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("failed to load labeled history: %w", err)
	}
	if len(examples) < t.minSamples {
		t.logger.Debug("not enough labeled history to retrain",
			zap.Int("samples", len(examples)),
			zap.Int("min_samples", t.minSamples))
		return Report{Skipped: true, Samples: len(examples), Duration: time.Since(start)}, nil
	}
	if err := ctx.Err(); err != nil {
		return Report{}, err
	}

	m, err := t.fit(ctx, examples)
	if err != nil {
		return Report{}, fmt.Errorf("failed to fit category model: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return Report{}, err
	}

	if err := t.artifacts.Save(m); err != nil {
		return Report{}, fmt.Errorf("failed to persist category model: %w", err)
	}
	t.registry.Swap(m)
	metrics.ObserveModel(m.Samples, len(m.Classes))

	return Report{
		Samples:   m.Samples,
		Classes:   len(m.Classes),
		Converged: m.Converged,
		Duration:  time.Since(start),
	}, nil
}
