// Package category predicts spending categories from free-text descriptions.
//
// A Model is a TF-IDF feature pipeline (word unigrams and bigrams) feeding a
// one-vs-rest linear support vector classifier. Models are immutable once
// trained; the Registry publishes the model currently in service.
package category

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"college-budgeting-backend/internal/model"
)

// ModelVersion is bumped whenever the artifact layout changes.
const ModelVersion = 1

var (
	// ErrTooFewClasses is returned when the history holds a single category.
	ErrTooFewClasses = errors.New("need at least two distinct categories to train")

	// ErrCorruptModel is returned when a model's shapes do not line up.
	ErrCorruptModel = errors.New("corrupt category model")
)

// Model is a fitted category classifier.
type Model struct {
	Version    int         `json:"version"`
	TrainedAt  time.Time   `json:"trained_at"`
	Samples    int         `json:"samples"`
	Converged  bool        `json:"converged"`
	Classes    []string    `json:"classes"`
	Vectorizer *Vectorizer `json:"vectorizer"`
	// Coef holds one weight vector per decision function. A two-class model
	// has a single function whose positive side is Classes[1].
	Coef      [][]float64 `json:"coef"`
	Intercept []float64   `json:"intercept"`
}

// Train fits a new model on the full set of examples. A cancelled ctx stops
// the solver and returns ctx's error.
func Train(ctx context.Context, examples []model.LabeledExample) (*Model, error) {
	return train(ctx, examples, defaultSVMParams())
}

func train(ctx context.Context, examples []model.LabeledExample, params svmParams) (*Model, error) {
	docs := make([]string, len(examples))
	classSet := make(map[string]struct{})
	for i, ex := range examples {
		docs[i] = ex.Description
		classSet[ex.Category] = struct{}{}
	}
	if len(classSet) < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrTooFewClasses, len(classSet))
	}

	classes := make([]string, 0, len(classSet))
	for c := range classSet {
		classes = append(classes, c)
	}
	sort.Strings(classes)

	vec, err := fitVectorizer(docs)
	if err != nil {
		return nil, err
	}
	x := make([]sparseVector, len(docs))
	for i, doc := range docs {
		x[i] = vec.transform(doc)
	}

	positives := classes
	if len(classes) == 2 {
		positives = classes[1:]
	}

	m := &Model{
		Version:    ModelVersion,
		TrainedAt:  time.Now().UTC(),
		Samples:    len(examples),
		Converged:  true,
		Classes:    classes,
		Vectorizer: vec,
		Coef:       make([][]float64, 0, len(positives)),
		Intercept:  make([]float64, 0, len(positives)),
	}
	y := make([]float64, len(examples))
	for _, pos := range positives {
		for i, ex := range examples {
			if ex.Category == pos {
				y[i] = 1
			} else {
				y[i] = -1
			}
		}
		w, b, ok, err := trainBinary(ctx, x, y, vec.Features(), params)
		if err != nil {
			return nil, err
		}
		m.Coef = append(m.Coef, w)
		m.Intercept = append(m.Intercept, b)
		m.Converged = m.Converged && ok
	}
	return m, nil
}

// Predict returns the most likely category for description.
func (m *Model) Predict(description string) (string, error) {
	if err := m.validate(); err != nil {
		return "", err
	}
	x := m.Vectorizer.transform(description)

	if len(m.Classes) == 2 {
		if x.dot(m.Coef[0])+m.Intercept[0] > 0 {
			return m.Classes[1], nil
		}
		return m.Classes[0], nil
	}

	best, bestScore := 0, x.dot(m.Coef[0])+m.Intercept[0]
	for k := 1; k < len(m.Coef); k++ {
		if s := x.dot(m.Coef[k]) + m.Intercept[k]; s > bestScore {
			best, bestScore = k, s
		}
	}
	return m.Classes[best], nil
}

func (m *Model) validate() error {
	if m == nil || m.Vectorizer == nil {
		return fmt.Errorf("%w: missing vectorizer", ErrCorruptModel)
	}
	if len(m.Classes) < 2 {
		return fmt.Errorf("%w: %d classes", ErrCorruptModel, len(m.Classes))
	}
	want := len(m.Classes)
	if want == 2 {
		want = 1
	}
	if len(m.Coef) != want || len(m.Intercept) != want {
		return fmt.Errorf("%w: %d decision functions for %d classes", ErrCorruptModel, len(m.Coef), len(m.Classes))
	}
	features := m.Vectorizer.Features()
	if len(m.Vectorizer.Vocabulary) != features {
		return fmt.Errorf("%w: vocabulary/idf size mismatch", ErrCorruptModel)
	}
	for _, w := range m.Coef {
		if len(w) != features {
			return fmt.Errorf("%w: weight vector has %d features, want %d", ErrCorruptModel, len(w), features)
		}
	}
	return nil
}
