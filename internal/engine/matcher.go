// Package engine implements the classification pipeline: exact and
// embedding-based category matching, the generative fallback for products the
// matcher cannot place, and ingestion of free-form diary reports.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/solomia/solomia/internal/common"
	"github.com/solomia/solomia/internal/embedding"
	"github.com/solomia/solomia/internal/model"
	"github.com/solomia/solomia/internal/service"
)

// DefaultThreshold is the minimum cosine similarity for a product to count as
// known. Scores at the threshold are accepted.
const DefaultThreshold = 0.75

var defaultRetryOptions = service.RetryOptions{
	MaxAttempts:  3,
	InitialDelay: time.Second,
	MaxDelay:     10 * time.Second,
	Multiplier:   2.0,
}

// Matcher resolves product names to taxonomy categories without any
// generative call: first by exact example lookup, then by cosine similarity
// against stored category embeddings.
type Matcher struct {
	storage   service.Storage
	embedder  embedding.Provider
	threshold float64
}

// NewMatcher creates a matcher. A threshold <= 0 selects DefaultThreshold.
func NewMatcher(storage service.Storage, embedder embedding.Provider, threshold float64) *Matcher {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Matcher{
		storage:   storage,
		embedder:  embedder,
		threshold: threshold,
	}
}

// Threshold returns the similarity cutoff the matcher applies.
func (m *Matcher) Threshold() float64 {
	return m.threshold
}

// ClassifyProduct resolves a single product name. A product already recorded
// as an example short-circuits with score 1.0 and no embedding call. Otherwise
// the product is embedded and scanned against every stored category embedding;
// the best score decides, and IsKnown reports whether it clears the threshold.
// An empty store yields score -1 and IsKnown false without error.
func (m *Matcher) ClassifyProduct(ctx context.Context, name string) (model.ProductClassification, error) {
	name = model.NormalizeProduct(name)
	result := model.ProductClassification{Product: name, Score: -1}
	if name == "" {
		return result, fmt.Errorf("empty product name")
	}

	exact, err := m.storage.GetCategoryByExample(ctx, name)
	if err == nil {
		result.Category = exact.Name
		result.MatchedBy = model.MatchedByExact
		result.Score = 1.0
		result.IsKnown = true
		return result, nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return result, err
	}

	categories, err := m.storage.GetCategoriesWithEmbeddings(ctx)
	if err != nil {
		return result, err
	}

	embedded := categories[:0:0]
	for _, cat := range categories {
		if len(cat.Embedding) > 0 {
			embedded = append(embedded, cat)
		}
	}
	if len(embedded) == 0 {
		return result, nil
	}

	productVec, err := m.embed(ctx, name)
	if err != nil {
		return result, err
	}

	bestScore := -1.0
	bestCategory := ""
	for _, cat := range embedded {
		score, simErr := embedding.CosineSimilarity(productVec, cat.Embedding)
		if simErr != nil {
			slog.Warn("skipping category with incompatible embedding",
				"category", cat.Name,
				"error", simErr)
			continue
		}
		if score > bestScore {
			bestScore = score
			bestCategory = cat.Name
		}
	}

	result.Category = bestCategory
	result.MatchedBy = model.MatchedByEmbedding
	result.Score = bestScore
	result.IsKnown = bestScore >= m.threshold

	slog.Debug("classified by embedding",
		"product", name,
		"category", bestCategory,
		"score", bestScore,
		"known", result.IsKnown)
	return result, nil
}

func (m *Matcher) embed(ctx context.Context, text string) ([]float64, error) {
	var vec []float64
	err := common.WithRetry(ctx, func() error {
		var embedErr error
		vec, embedErr = m.embedder.Embed(ctx, text)
		return embedErr
	}, defaultRetryOptions)
	if err != nil {
		return nil, err
	}
	return vec, nil
}
