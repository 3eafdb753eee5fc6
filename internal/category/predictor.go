package category

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"college-budgeting-backend/internal/metrics"
)

// Fallback is the category used whenever no prediction can be made.
const Fallback = "Lainnya"

// Predictor maps descriptions to categories using the registry's current model.
type Predictor struct {
	registry *Registry
	logger   *zap.Logger
}

// NewPredictor returns a predictor reading from registry. A nil logger is
// replaced with a no-op logger.
func NewPredictor(registry *Registry, logger *zap.Logger) *Predictor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Predictor{registry: registry, logger: logger}
}

// Predict returns the predicted category for description, or Fallback when
// the description is blank, no model is loaded, or the model fails.
func (p *Predictor) Predict(description string) string {
	if strings.TrimSpace(description) == "" {
		metrics.PredictionsTotal.WithLabelValues(metrics.OutcomeEmpty).Inc()
		return Fallback
	}
	m := p.registry.Current()
	if m == nil {
		metrics.PredictionsTotal.WithLabelValues(metrics.OutcomeNoModel).Inc()
		return Fallback
	}

	category, err := safePredict(m, description)
	if err != nil {
		metrics.PredictionsTotal.WithLabelValues(metrics.OutcomePredictFailure).Inc()
		p.logger.Debug("category prediction failed, using fallback", zap.Error(err))
		return Fallback
	}
	metrics.PredictionsTotal.WithLabelValues(metrics.OutcomeModel).Inc()
	return category
}

func safePredict(m *Model, description string) (category string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic during prediction: %v", ErrCorruptModel, r)
		}
	}()
	return m.Predict(description)
}
