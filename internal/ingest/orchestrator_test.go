package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"college-budgeting-backend/internal/category"
	"college-budgeting-backend/internal/model"
	"college-budgeting-backend/internal/retrain"
	"college-budgeting-backend/internal/storage"
	"college-budgeting-backend/internal/zone"
)

type memoryStore struct {
	records []model.SpendingRecord
	err     error
}

func (m *memoryStore) CreateRecord(_ context.Context, r *model.SpendingRecord) error {
	if m.err != nil {
		return m.err
	}
	r.ID = int64(len(m.records) + 1)
	m.records = append(m.records, *r)
	return nil
}

type stubPredictor struct {
	category string
	calls    []string
}

func (s *stubPredictor) Predict(description string) string {
	s.calls = append(s.calls, description)
	return s.category
}

type countingTrigger struct{ n int }

func (c *countingTrigger) Trigger() { c.n++ }

func TestIngest_ClassifiesPersistsAndTriggers(t *testing.T) {
	store := &memoryStore{}
	predictor := &stubPredictor{category: "Makanan"}
	trigger := &countingTrigger{}
	o := NewOrchestrator(store, predictor, trigger, nil)

	res, err := o.Ingest(context.Background(), Input{
		UserEmail:   "ana@kampus.id",
		Balance:     1000,
		DailySpend:  100,
		Description: "  nasi goreng  ",
		Category:    "Makanan",
	})
	require.NoError(t, err)

	assert.Equal(t, zone.Red, res.Zone)
	assert.Equal(t, "10", res.DaysRemaining)
	assert.Equal(t, "Makanan", res.PredictedCategory)
	assert.NotEmpty(t, res.Message)
	assert.Equal(t, 1, trigger.n)

	require.Len(t, store.records, 1)
	stored := store.records[0]
	assert.Equal(t, "nasi goreng", stored.Description)
	assert.Equal(t, "Makanan", stored.Category)
	assert.Equal(t, "10", stored.DaysRemaining)
	assert.Equal(t, zone.Red, stored.Zone)
	assert.Equal(t, int64(1), res.Record.ID)
}

func TestIngest_DeclaredCategoryWinsOverPrediction(t *testing.T) {
	store := &memoryStore{}
	o := NewOrchestrator(store, &stubPredictor{category: "Hiburan"}, &countingTrigger{}, nil)

	res, err := o.Ingest(context.Background(), Input{
		UserEmail: "ana@kampus.id", Balance: 1000, DailySpend: 50,
		Description: "tiket konser", Category: "Pendidikan",
	})
	require.NoError(t, err)
	assert.Equal(t, "Hiburan", res.PredictedCategory)
	assert.Equal(t, "Pendidikan", store.records[0].Category)
}

func TestIngest_FallsBackToPredictionWithoutDeclaredCategory(t *testing.T) {
	store := &memoryStore{}
	o := NewOrchestrator(store, &stubPredictor{category: "Transportasi"}, &countingTrigger{}, nil)

	_, err := o.Ingest(context.Background(), Input{
		UserEmail: "ana@kampus.id", Balance: 1000, DailySpend: 50, Description: "ojek",
	})
	require.NoError(t, err)
	assert.Equal(t, "Transportasi", store.records[0].Category)
}

func TestIngest_BlackZoneDisplaysSentinel(t *testing.T) {
	store := &memoryStore{}
	o := NewOrchestrator(store, &stubPredictor{category: category.Fallback}, &countingTrigger{}, nil)

	res, err := o.Ingest(context.Background(), Input{UserEmail: "ana@kampus.id", Balance: 0, DailySpend: 50})
	require.NoError(t, err)
	assert.Equal(t, zone.Black, res.Zone)
	assert.Equal(t, zone.NoDaysLeft, res.DaysRemaining)
	assert.Equal(t, zone.NoDaysLeft, store.records[0].DaysRemaining)
}

func TestIngest_RejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name string
		in   Input
	}{
		{name: "missing user", in: Input{Balance: 100, DailySpend: 10}},
		{name: "negative spend", in: Input{UserEmail: "ana@kampus.id", Balance: 100, DailySpend: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &memoryStore{}
			trigger := &countingTrigger{}
			o := NewOrchestrator(store, &stubPredictor{category: "x"}, trigger, nil)

			_, err := o.Ingest(context.Background(), tt.in)
			assert.ErrorIs(t, err, ErrInvalidInput)
			assert.Empty(t, store.records)
			assert.Zero(t, trigger.n)
		})
	}
}

func TestIngest_PersistenceFailurePropagates(t *testing.T) {
	boom := errors.New("disk full")
	trigger := &countingTrigger{}
	o := NewOrchestrator(&memoryStore{err: boom}, &stubPredictor{category: "x"}, trigger, nil)

	_, err := o.Ingest(context.Background(), Input{UserEmail: "ana@kampus.id", Balance: 100, DailySpend: 10})
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrInvalidInput)
	assert.Zero(t, trigger.n, "no retrain without a stored record")
}

func TestIngest_EmptyDescriptionUsesFallbackWithoutModel(t *testing.T) {
	// A registry with no model behaves the same as a blank description.
	predictor := category.NewPredictor(category.NewRegistry(nil), nil)
	store := &memoryStore{}
	o := NewOrchestrator(store, predictor, &countingTrigger{}, nil)

	res, err := o.Ingest(context.Background(), Input{UserEmail: "ana@kampus.id", Balance: 500, DailySpend: 10, Description: "   "})
	require.NoError(t, err)
	assert.Equal(t, category.Fallback, res.PredictedCategory)
	assert.Equal(t, category.Fallback, store.records[0].Category)
}

func TestPreview(t *testing.T) {
	o := NewOrchestrator(&memoryStore{}, &stubPredictor{}, &countingTrigger{}, nil)

	res, err := o.Preview(1000, 50)
	require.NoError(t, err)
	assert.Equal(t, zone.Green, res.Zone)
	assert.Equal(t, "20", res.DaysDisplay)

	_, err = o.Preview(1000, -50)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.ErrorIs(t, err, zone.ErrInvalidInput)
}

// syncTrigger runs the trainer inline so the test can observe its effect.
type syncTrigger struct {
	t       *testing.T
	trainer *retrain.Trainer
	reports []retrain.Report
}

func (s *syncTrigger) Trigger() {
	report, err := s.trainer.Run(context.Background())
	require.NoError(s.t, err)
	s.reports = append(s.reports, report)
}

func TestIngest_RetrainWaitsForFiveLabeledRecords(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := storage.OpenSQLite(filepath.Join(dir, "cbs.db"))
	require.NoError(t, err)
	defer store.Close()
	require.NoError(t, store.Setup(ctx))

	registry := category.NewRegistry(nil)
	artifactPath := filepath.Join(dir, "model.json")
	trainer := retrain.NewTrainer(store, category.NewFileArtifactStore(artifactPath), registry, nil, retrain.DefaultMinSamples)
	trigger := &syncTrigger{t: t, trainer: trainer}
	o := NewOrchestrator(store, category.NewPredictor(registry, nil), trigger, nil)

	inputs := []Input{
		{Description: "nasi goreng", Category: "Makanan"},
		{Description: "ojek kampus", Category: "Transportasi"},
		{Description: "bakso urat", Category: "Makanan"},
		{Description: "bus kota", Category: "Transportasi"},
	}
	for _, in := range inputs {
		in.UserEmail, in.Balance, in.DailySpend = "ana@kampus.id", 1000, 50
		_, err := o.Ingest(ctx, in)
		require.NoError(t, err)
	}

	require.Len(t, trigger.reports, 4)
	assert.True(t, trigger.reports[3].Skipped)
	assert.Nil(t, registry.Current())
	_, statErr := os.Stat(artifactPath)
	assert.True(t, os.IsNotExist(statErr), "no artifact before five labeled records")

	_, err = o.Ingest(ctx, Input{UserEmail: "ana@kampus.id", Balance: 1000, DailySpend: 50, Description: "mie ayam", Category: "Makanan"})
	require.NoError(t, err)

	assert.False(t, trigger.reports[4].Skipped)
	require.NotNil(t, registry.Current())
	assert.FileExists(t, artifactPath)

	res, err := o.Ingest(ctx, Input{UserEmail: "ana@kampus.id", Balance: 1000, DailySpend: 50, Description: "naik bus kota"})
	require.NoError(t, err)
	assert.Equal(t, "Transportasi", res.PredictedCategory)
}
