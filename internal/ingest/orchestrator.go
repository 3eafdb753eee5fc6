// Package ingest turns a balance snapshot into a classified, persisted
// spending record and schedules the category model to learn from it.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"college-budgeting-backend/internal/metrics"
	"college-budgeting-backend/internal/model"
	"college-budgeting-backend/internal/zone"
)

// ErrInvalidInput marks errors caused by the caller's input.
var ErrInvalidInput = errors.New("invalid input")

// RecordStore persists spending records.
type RecordStore interface {
	CreateRecord(ctx context.Context, r *model.SpendingRecord) error
}

// CategoryPredictor guesses a category from a description. It never fails.
type CategoryPredictor interface {
	Predict(description string) string
}

// RetrainTrigger schedules a background retrain without blocking.
type RetrainTrigger interface {
	Trigger()
}

// Input is one ingestion request.
type Input struct {
	UserEmail   string
	Balance     float64
	DailySpend  float64
	Description string
	Category    string
}

// Result is returned to the caller once the record is stored.
type Result struct {
	Zone              zone.Zone            `json:"zone"`
	DaysRemaining     string               `json:"days_remaining"`
	Message           string               `json:"message"`
	PredictedCategory string               `json:"predicted_category"`
	Record            model.SpendingRecord `json:"record"`
}

// Orchestrator coordinates prediction, classification, persistence and retraining.
type Orchestrator struct {
	store     RecordStore
	predictor CategoryPredictor
	retrain   RetrainTrigger
	logger    *zap.Logger
}

// NewOrchestrator wires the collaborators of an ingestion.
func NewOrchestrator(store RecordStore, predictor CategoryPredictor, retrain RetrainTrigger, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{store: store, predictor: predictor, retrain: retrain, logger: logger}
}

// Ingest classifies and stores one snapshot. The record is written whole or
// not at all; a retrain is scheduled only after the write succeeds.
func (o *Orchestrator) Ingest(ctx context.Context, in Input) (Result, error) {
	userEmail := strings.TrimSpace(in.UserEmail)
	if userEmail == "" {
		return Result{}, fmt.Errorf("%w: user_email is required", ErrInvalidInput)
	}

	predicted := o.predictor.Predict(in.Description)

	classification, err := zone.Classify(in.Balance, in.DailySpend)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	// The declared category is the training label; the prediction only fills
	// in when the user did not pick one.
	assigned := strings.TrimSpace(in.Category)
	if assigned == "" {
		assigned = predicted
	}

	record := model.SpendingRecord{
		UserEmail:     userEmail,
		Balance:       in.Balance,
		DailySpend:    in.DailySpend,
		Description:   strings.TrimSpace(in.Description),
		Category:      assigned,
		DaysRemaining: classification.DaysDisplay,
		Zone:          classification.Zone,
		Message:       classification.Message,
	}
	if err := o.store.CreateRecord(ctx, &record); err != nil {
		return Result{}, fmt.Errorf("failed to store spending record: %w", err)
	}
	metrics.IngestionsTotal.WithLabelValues(string(record.Zone)).Inc()

	o.retrain.Trigger()

	o.logger.Debug("spending record ingested",
		zap.Int64("record_id", record.ID),
		zap.String("zone", string(record.Zone)),
		zap.String("predicted_category", predicted))

	return Result{
		Zone:              classification.Zone,
		DaysRemaining:     classification.DaysDisplay,
		Message:           classification.Message,
		PredictedCategory: predicted,
		Record:            record,
	}, nil
}

// Preview classifies a snapshot without storing anything.
func (o *Orchestrator) Preview(balance, dailySpend float64) (zone.Result, error) {
	res, err := zone.Classify(balance, dailySpend)
	if err != nil {
		return zone.Result{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return res, nil
}
