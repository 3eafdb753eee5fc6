package category

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"college-budgeting-backend/internal/model"
)

func trainingSet() []model.LabeledExample {
	return []model.LabeledExample{
		{Description: "nasi padang makan siang", Category: "Makanan"},
		{Description: "kopi dan roti sarapan", Category: "Makanan"},
		{Description: "mie ayam dan es teh", Category: "Makanan"},
		{Description: "ojek online ke kampus", Category: "Transportasi"},
		{Description: "bensin motor", Category: "Transportasi"},
		{Description: "tiket bus ke rumah", Category: "Transportasi"},
		{Description: "beli buku kalkulus", Category: "Pendidikan"},
		{Description: "fotokopi modul kuliah", Category: "Pendidikan"},
		{Description: "nonton bioskop", Category: "Hiburan"},
		{Description: "langganan streaming musik", Category: "Hiburan"},
	}
}

func TestTerms(t *testing.T) {
	assert.Equal(t,
		[]string{"ojek", "online", "ke", "kampus", "ojek online", "online ke", "ke kampus"},
		terms("Ojek ONLINE ke kampus!"))
	assert.Equal(t, []string{"kopi"}, terms("a kopi"), "single-character tokens are dropped")
	assert.Nil(t, terms("  ? ! "))
}

func TestFitVectorizer(t *testing.T) {
	v, err := fitVectorizer([]string{"kopi susu", "kopi hitam"})
	require.NoError(t, err)

	assert.Equal(t, 5, v.Features())
	// "kopi" appears in every document: idf = ln(3/3) + 1.
	assert.InDelta(t, 1.0, v.IDF[v.Vocabulary["kopi"]], 1e-12)
	assert.InDelta(t, math.Log(1.5)+1, v.IDF[v.Vocabulary["susu"]], 1e-12)

	vec := v.transform("kopi susu kopi")
	var norm float64
	for _, x := range vec.val {
		norm += x * x
	}
	assert.InDelta(t, 1.0, norm, 1e-12)
	assert.Empty(t, v.transform("teh manis").idx)
}

func TestFitVectorizer_EmptyVocabulary(t *testing.T) {
	_, err := fitVectorizer([]string{"a", "!", ""})
	assert.ErrorIs(t, err, ErrEmptyVocabulary)
}

func TestTrain_PredictsTrainingCategories(t *testing.T) {
	examples := trainingSet()
	m, err := Train(context.Background(), examples)
	require.NoError(t, err)

	assert.Equal(t, []string{"Hiburan", "Makanan", "Pendidikan", "Transportasi"}, m.Classes)
	assert.Len(t, m.Coef, 4)
	assert.Equal(t, len(examples), m.Samples)
	assert.True(t, m.Converged)

	for _, ex := range examples {
		got, err := m.Predict(ex.Description)
		require.NoError(t, err)
		assert.Equal(t, ex.Category, got, ex.Description)
	}

	got, err := m.Predict("makan siang nasi goreng")
	require.NoError(t, err)
	assert.Equal(t, "Makanan", got)
}

func TestTrain_TwoClassesUseSingleDecisionFunction(t *testing.T) {
	m, err := Train(context.Background(), []model.LabeledExample{
		{Description: "nasi goreng", Category: "Makanan"},
		{Description: "bakso urat", Category: "Makanan"},
		{Description: "ojek kampus", Category: "Transportasi"},
		{Description: "bus kota", Category: "Transportasi"},
		{Description: "mie ayam", Category: "Makanan"},
	})
	require.NoError(t, err)
	require.Len(t, m.Coef, 1)

	got, err := m.Predict("naik bus kota")
	require.NoError(t, err)
	assert.Equal(t, "Transportasi", got)

	got, err = m.Predict("bakso")
	require.NoError(t, err)
	assert.Equal(t, "Makanan", got)
}

func TestTrain_Deterministic(t *testing.T) {
	a, err := Train(context.Background(), trainingSet())
	require.NoError(t, err)
	b, err := Train(context.Background(), trainingSet())
	require.NoError(t, err)
	assert.Equal(t, a.Coef, b.Coef)
	assert.Equal(t, a.Intercept, b.Intercept)
}

func TestTrain_DegenerateInput(t *testing.T) {
	_, err := Train(context.Background(), []model.LabeledExample{
		{Description: "nasi", Category: "Makanan"},
		{Description: "bakso", Category: "Makanan"},
	})
	assert.ErrorIs(t, err, ErrTooFewClasses)

	_, err = Train(context.Background(), []model.LabeledExample{
		{Description: "!", Category: "Makanan"},
		{Description: "?", Category: "Transportasi"},
	})
	assert.ErrorIs(t, err, ErrEmptyVocabulary)
}

func TestTrain_StopsWhenContextEnds(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m, err := Train(ctx, trainingSet())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, m)
}

func TestModel_PredictRejectsCorruptModel(t *testing.T) {
	m, err := Train(context.Background(), trainingSet())
	require.NoError(t, err)

	m.Coef = m.Coef[:2]
	_, err = m.Predict("kopi")
	assert.ErrorIs(t, err, ErrCorruptModel)

	var nilModel *Model
	_, err = nilModel.Predict("kopi")
	assert.ErrorIs(t, err, ErrCorruptModel)
}

func TestFileArtifactStore_SaveAndLoad(t *testing.T) {
	store := NewFileArtifactStore(filepath.Join(t.TempDir(), "models", "kategori_model.json"))

	_, err := store.Load()
	assert.ErrorIs(t, err, ErrNoArtifact)

	m, err := Train(context.Background(), trainingSet())
	require.NoError(t, err)
	require.NoError(t, store.Save(m))

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, m.Classes, loaded.Classes)

	for _, ex := range trainingSet() {
		want, _ := m.Predict(ex.Description)
		got, err := loaded.Predict(ex.Description)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	entries, err := os.ReadDir(filepath.Dir(store.Path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files are cleaned up")
}

func TestFileArtifactStore_RejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"version": 1, "classes": ["a"]}`), 0600))

	_, err := NewFileArtifactStore(path).Load()
	assert.ErrorIs(t, err, ErrCorruptModel)

	require.NoError(t, os.WriteFile(path, []byte(`not json`), 0600))
	_, err = NewFileArtifactStore(path).Load()
	assert.Error(t, err)
}

func TestPredictor_Fallbacks(t *testing.T) {
	registry := NewRegistry(nil)
	p := NewPredictor(registry, nil)

	assert.Equal(t, Fallback, p.Predict("nasi padang"), "no model loaded")

	m, err := Train(context.Background(), trainingSet())
	require.NoError(t, err)
	registry.Swap(m)

	assert.Equal(t, Fallback, p.Predict(""), "empty description")
	assert.Equal(t, Fallback, p.Predict("  \t "), "whitespace description")
	assert.Equal(t, "Transportasi", p.Predict("ojek online"))
}

func TestPredictor_RecoversFromPanickingModel(t *testing.T) {
	m, err := Train(context.Background(), trainingSet())
	require.NoError(t, err)
	// Point a vocabulary entry past the end of the weight vectors.
	m.Vectorizer.Vocabulary["kopi"] = len(m.Coef[0]) + 10

	p := NewPredictor(NewRegistry(m), nil)
	assert.Equal(t, Fallback, p.Predict("kopi"))
}

func TestRegistry_ConcurrentSwapAndPredict(t *testing.T) {
	first, err := Train(context.Background(), trainingSet())
	require.NoError(t, err)
	second, err := Train(context.Background(), append(trainingSet(), model.LabeledExample{Description: "kopi susu", Category: "Makanan"}))
	require.NoError(t, err)

	registry := NewRegistry(first)
	p := NewPredictor(registry, nil)

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				if got := p.Predict("nasi padang"); got != "Makanan" {
					t.Errorf("unexpected prediction %q", got)
					return
				}
			}
		}()
	}

	for i := 0; i < 200; i++ {
		if i%2 == 0 {
			registry.Swap(second)
		} else {
			registry.Swap(first)
		}
	}
	close(stop)
	wg.Wait()
}
