package engine

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solomia/solomia/internal/common"
	"github.com/solomia/solomia/internal/model"
	"github.com/solomia/solomia/internal/service"
	"github.com/solomia/solomia/internal/storage"
)

func newTestStorage(t *testing.T) service.Storage {
	t.Helper()

	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.Migrate(context.Background()))
	return store
}

func TestClassifyProductExactMatch(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	_, err := store.CreateCategory(ctx, "Бобові", []string{"квасоля", "нут"}, []float64{1, 0, 0})
	require.NoError(t, err)

	embedder := NewMockEmbedder(3)
	matcher := NewMatcher(store, embedder, 0)

	result, err := matcher.ClassifyProduct(ctx, "  Квасоля ")
	require.NoError(t, err)

	assert.Equal(t, "Бобові", result.Category)
	assert.Equal(t, model.MatchedByExact, result.MatchedBy)
	assert.InEpsilon(t, 1.0, result.Score, 1e-9)
	assert.True(t, result.IsKnown)
	assert.Equal(t, 0, embedder.CallCount(), "exact match must not call the embedding provider")
}

func TestClassifyProductByEmbedding(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	_, err := store.CreateCategory(ctx, "Бобові", []string{"квасоля"}, []float64{1, 0, 0})
	require.NoError(t, err)
	_, err = store.CreateCategory(ctx, "Фрукти / Ягоди", []string{"яблуко"}, []float64{0, 1, 0})
	require.NoError(t, err)

	embedder := NewMockEmbedder(3)
	embedder.SetVector("сочевиця", []float64{4, 3, 0}) // cos 0.8 with Бобові

	matcher := NewMatcher(store, embedder, 0)
	result, err := matcher.ClassifyProduct(ctx, "сочевиця")
	require.NoError(t, err)

	assert.Equal(t, "Бобові", result.Category)
	assert.Equal(t, model.MatchedByEmbedding, result.MatchedBy)
	assert.InEpsilon(t, 0.8, result.Score, 1e-9)
	assert.True(t, result.IsKnown)
	assert.Equal(t, 1, embedder.CallCount())
}

func TestClassifyProductThresholdIsInclusive(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	// cos([3,4,0], [1,0,0]) is exactly 0.6
	_, err := store.CreateCategory(ctx, "Овочі, зелень, гриби", []string{"капуста"}, []float64{1, 0, 0})
	require.NoError(t, err)

	embedder := NewMockEmbedder(3)
	embedder.SetVector("селера", []float64{3, 4, 0})

	atThreshold := NewMatcher(store, embedder, 0.6)
	result, err := atThreshold.ClassifyProduct(ctx, "селера")
	require.NoError(t, err)
	assert.True(t, result.IsKnown, "a score equal to the threshold counts as known")

	aboveThreshold := NewMatcher(store, embedder, DefaultThreshold)
	result, err = aboveThreshold.ClassifyProduct(ctx, "селера")
	require.NoError(t, err)
	assert.False(t, result.IsKnown)
	assert.Equal(t, "Овочі, зелень, гриби", result.Category, "best category is reported even below threshold")
}

func TestClassifyProductEmptyStore(t *testing.T) {
	store := newTestStorage(t)
	embedder := NewMockEmbedder(3)
	matcher := NewMatcher(store, embedder, 0)

	result, err := matcher.ClassifyProduct(context.Background(), "гречка")
	require.NoError(t, err)

	assert.False(t, result.IsKnown)
	assert.Empty(t, result.Category)
	assert.InEpsilon(t, -1.0, result.Score, 1e-9)
	assert.Equal(t, 0, embedder.CallCount(), "nothing to compare against, nothing to embed")
}

func TestClassifyProductSkipsCategoriesWithoutEmbeddings(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	_, err := store.CreateCategory(ctx, "Без вектора", []string{"щось"}, nil)
	require.NoError(t, err)

	embedder := NewMockEmbedder(3)
	matcher := NewMatcher(store, embedder, 0)

	result, err := matcher.ClassifyProduct(ctx, "гречка")
	require.NoError(t, err)
	assert.False(t, result.IsKnown)
	assert.Equal(t, 0, embedder.CallCount())
}

func TestClassifyProductFirstBestWinsTies(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	// Identical embeddings; the earlier category must win the tie.
	_, err := store.CreateCategory(ctx, "Перша", []string{"а"}, []float64{1, 0, 0})
	require.NoError(t, err)
	_, err = store.CreateCategory(ctx, "Друга", []string{"б"}, []float64{1, 0, 0})
	require.NoError(t, err)

	embedder := NewMockEmbedder(3)
	embedder.SetVector("тест", []float64{1, 0, 0})

	matcher := NewMatcher(store, embedder, 0)
	result, err := matcher.ClassifyProduct(ctx, "тест")
	require.NoError(t, err)
	assert.Equal(t, "Перша", result.Category)
}

func TestClassifyProductPropagatesProviderError(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	_, err := store.CreateCategory(ctx, "Бобові", []string{"квасоля"}, []float64{1, 0, 0})
	require.NoError(t, err)

	embedder := NewMockEmbedder(3)
	embedder.FailWith(&common.RetryableError{Err: errors.New("provider down"), Retryable: false})

	matcher := NewMatcher(store, embedder, 0)
	_, err = matcher.ClassifyProduct(ctx, "сочевиця")
	assert.Error(t, err, "provider failures must never be swallowed")
}

func TestClassifyProductEmptyName(t *testing.T) {
	store := newTestStorage(t)
	matcher := NewMatcher(store, NewMockEmbedder(3), 0)

	_, err := matcher.ClassifyProduct(context.Background(), "   ")
	assert.Error(t, err)
}
