package engine

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solomia/solomia/internal/common"
	"github.com/solomia/solomia/internal/service"
)

func seedTaxonomy(t *testing.T, store service.Storage) {
	t.Helper()
	ctx := context.Background()

	_, err := store.CreateCategory(ctx, "Бобові", []string{"квасоля", "нут"}, []float64{1, 0, 0})
	require.NoError(t, err)
	_, err = store.CreateCategory(ctx, "Фрукти / Ягоди", []string{"яблуко"}, []float64{0, 1, 0})
	require.NoError(t, err)
}

func TestClassifyUnknownLearnsExample(t *testing.T) {
	store := newTestStorage(t)
	seedTaxonomy(t, store)
	ctx := context.Background()

	generator := NewMockGenerator("Бобові\n")
	embedder := NewMockEmbedder(3)
	fallback := NewFallback(store, generator, embedder)

	category, err := fallback.ClassifyUnknown(ctx, "Сочевиця")
	require.NoError(t, err)
	assert.Equal(t, "Бобові", category)

	// The category list must be in the prompt.
	prompts := generator.Prompts()
	require.Len(t, prompts, 1)
	assert.Contains(t, prompts[0], "- Бобові")
	assert.Contains(t, prompts[0], "сочевиця")

	// The product is now a stored example and the embedding was regenerated.
	cat, err := store.GetCategoryByName(ctx, "Бобові")
	require.NoError(t, err)
	assert.Contains(t, cat.Examples, "сочевиця")
	assert.GreaterOrEqual(t, embedder.CallCount(), 1)
}

func TestClassifyUnknownRejectsOutOfTaxonomyAnswer(t *testing.T) {
	store := newTestStorage(t)
	seedTaxonomy(t, store)
	ctx := context.Background()

	generator := NewMockGenerator("Напої")
	fallback := NewFallback(store, generator, NewMockEmbedder(3))

	_, err := fallback.ClassifyUnknown(ctx, "кава")
	assert.ErrorIs(t, err, common.ErrUnknownCategory)

	// Nothing may be learned from an unconfirmed answer.
	cat, err := store.GetCategoryByName(ctx, "Бобові")
	require.NoError(t, err)
	assert.Len(t, cat.Examples, 2)
}

func TestClassifyUnknownEmptyTaxonomy(t *testing.T) {
	store := newTestStorage(t)
	fallback := NewFallback(store, NewMockGenerator(), NewMockEmbedder(3))

	_, err := fallback.ClassifyUnknown(context.Background(), "гречка")
	assert.ErrorIs(t, err, common.ErrNoCategories)
}

func TestClassifyUnknownPropagatesProviderError(t *testing.T) {
	store := newTestStorage(t)
	seedTaxonomy(t, store)

	generator := NewMockGenerator()
	generator.FailWith(&common.RetryableError{Err: errors.New("quota exhausted"), Retryable: false})
	fallback := NewFallback(store, generator, NewMockEmbedder(3))

	_, err := fallback.ClassifyUnknown(context.Background(), "гречка")
	assert.Error(t, err)
}

func TestClassifyUnknownBatch(t *testing.T) {
	store := newTestStorage(t)
	seedTaxonomy(t, store)
	ctx := context.Background()

	generator := NewMockGenerator(`{"сочевиця": "Бобові", "манго": "Фрукти / Ягоди"}`)
	fallback := NewFallback(store, generator, NewMockEmbedder(3))

	resolved, err := fallback.ClassifyUnknownBatch(ctx, []string{"сочевиця", "манго"})
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"сочевиця": "Бобові",
		"манго":    "Фрукти / Ягоди",
	}, resolved)
	assert.Equal(t, 1, generator.CallCount(), "batch resolution is a single round trip")

	cat, err := store.GetCategoryByName(ctx, "Бобові")
	require.NoError(t, err)
	assert.Contains(t, cat.Examples, "сочевиця")
}

func TestClassifyUnknownBatchRecoversFencedJSON(t *testing.T) {
	store := newTestStorage(t)
	seedTaxonomy(t, store)

	generator := NewMockGenerator("Here you go:\n```json\n{\"сочевиця\": \"Бобові\"}\n```\n")
	fallback := NewFallback(store, generator, NewMockEmbedder(3))

	resolved, err := fallback.ClassifyUnknownBatch(context.Background(), []string{"сочевиця"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"сочевиця": "Бобові"}, resolved)
}

func TestClassifyUnknownBatchUnparseableDegradesToEmpty(t *testing.T) {
	store := newTestStorage(t)
	seedTaxonomy(t, store)

	generator := NewMockGenerator("I could not classify these products, sorry.")
	fallback := NewFallback(store, generator, NewMockEmbedder(3))

	resolved, err := fallback.ClassifyUnknownBatch(context.Background(), []string{"сочевиця"})
	require.NoError(t, err, "an unparseable reply is a degraded result, not a failure")
	assert.Empty(t, resolved)
}

func TestClassifyUnknownBatchDropsBadAnswers(t *testing.T) {
	store := newTestStorage(t)
	seedTaxonomy(t, store)

	generator := NewMockGenerator(`{"сочевиця": "Напої", "борщ": "Бобові"}`)
	fallback := NewFallback(store, generator, NewMockEmbedder(3))

	// "Напої" is not in the taxonomy; "борщ" was never asked about.
	resolved, err := fallback.ClassifyUnknownBatch(context.Background(), []string{"сочевиця"})
	require.NoError(t, err)
	assert.Empty(t, resolved)
}

func TestClassifyUnknownBatchEmptyInput(t *testing.T) {
	store := newTestStorage(t)

	generator := NewMockGenerator()
	fallback := NewFallback(store, generator, NewMockEmbedder(3))

	resolved, err := fallback.ClassifyUnknownBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, resolved)
	assert.Equal(t, 0, generator.CallCount())
}

func TestQuinoaLearningRoundTrip(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	_, err := store.CreateCategory(ctx, "Крупи / Зернові", []string{"гречка", "рис"}, []float64{1, 0, 0})
	require.NoError(t, err)

	embedder := NewMockEmbedder(3)
	embedder.SetVector("кіноа", []float64{0, 0, 1}) // dissimilar to everything

	generator := NewMockGenerator("Крупи / Зернові")
	matcher := NewMatcher(store, embedder, 0)
	fallback := NewFallback(store, generator, embedder)

	// First sighting: matcher cannot place it, fallback resolves and learns.
	result, err := matcher.ClassifyProduct(ctx, "кіноа")
	require.NoError(t, err)
	require.False(t, result.IsKnown)

	category, err := fallback.ClassifyUnknown(ctx, "кіноа")
	require.NoError(t, err)
	require.Equal(t, "Крупи / Зернові", category)

	// Second sighting: exact example match, no generative call needed.
	result, err = matcher.ClassifyProduct(ctx, "кіноа")
	require.NoError(t, err)
	assert.True(t, result.IsKnown)
	assert.Equal(t, "Крупи / Зернові", result.Category)
	assert.InEpsilon(t, 1.0, result.Score, 1e-9)
	assert.Equal(t, 1, generator.CallCount())

	// The regenerated embedding came from the updated example list.
	cat, err := store.GetCategoryByName(ctx, "Крупи / Зернові")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(cat.Examples[len(cat.Examples)-1], "кіноа"))
}
