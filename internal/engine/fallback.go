package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/solomia/solomia/internal/common"
	"github.com/solomia/solomia/internal/embedding"
	"github.com/solomia/solomia/internal/llm"
	"github.com/solomia/solomia/internal/model"
	"github.com/solomia/solomia/internal/service"
)

const singleClassifyPrompt = `You are a food classification assistant.

Given a product name, decide which of the following food categories it belongs to.
Choose exactly one category and return ONLY its name — no explanations, no JSON.

Categories:
%s

Product: %s`

const batchClassifyPrompt = `You are a food classification assistant.

For each of the given product names, decide which of the following food categories it belongs to.
Every product must be assigned exactly one category from the list, spelled exactly as given.
Return ONLY a single JSON object mapping each product name to its category name — no explanations, no markdown.

Categories:
%s

Products:
%s`

// Fallback asks the generative model to place products the matcher could not,
// and feeds every confirmed answer back into the store so the next occurrence
// matches without a generative call.
type Fallback struct {
	storage  service.Storage
	client   llm.Client
	embedder embedding.Provider
}

// NewFallback creates a fallback classifier.
func NewFallback(storage service.Storage, client llm.Client, embedder embedding.Provider) *Fallback {
	return &Fallback{
		storage:  storage,
		client:   client,
		embedder: embedder,
	}
}

// ClassifyUnknown asks the model to pick a category for one product. The
// taxonomy is closed: an answer naming a category that does not exist is
// logged and reported as ErrUnknownCategory, and nothing is learned from it.
// A confirmed answer is recorded as a new example before returning.
func (f *Fallback) ClassifyUnknown(ctx context.Context, product string) (string, error) {
	product = model.NormalizeProduct(product)

	names, err := f.categoryNames(ctx)
	if err != nil {
		return "", err
	}

	prompt := fmt.Sprintf(singleClassifyPrompt, formatCategoryList(names), product)
	response, err := f.generate(ctx, prompt)
	if err != nil {
		return "", err
	}

	answer := strings.TrimSpace(response)
	slog.Debug("fallback answer", "product", product, "category", answer)

	category, err := f.storage.GetCategoryByName(ctx, answer)
	if err != nil {
		if !errors.Is(err, common.ErrNotFound) {
			return "", err
		}
		slog.Warn("model answered with a category outside the taxonomy",
			"product", product,
			"answer", answer)
		return "", fmt.Errorf("%w: %q", common.ErrUnknownCategory, answer)
	}

	f.learn(ctx, category.ID, category.Name, product)
	return category.Name, nil
}

// ClassifyUnknownBatch classifies several products in one model round trip.
// The reply must be a JSON object mapping product to category; fences and
// surrounding prose are tolerated. An unparseable reply degrades to an empty
// map without error. Answers naming unknown categories are dropped with a
// log line; answers for products that were never asked are ignored. Every
// confirmed pair is learned before returning.
func (f *Fallback) ClassifyUnknownBatch(ctx context.Context, products []string) (map[string]string, error) {
	if len(products) == 0 {
		return map[string]string{}, nil
	}

	normalized := make([]string, 0, len(products))
	for _, p := range products {
		if p = model.NormalizeProduct(p); p != "" {
			normalized = append(normalized, p)
		}
	}

	categories, err := f.storage.GetCategories(ctx)
	if err != nil {
		return nil, err
	}
	if len(categories) == 0 {
		return nil, common.ErrNoCategories
	}
	names := make([]string, len(categories))
	known := make(map[string]int, len(categories))
	for i, cat := range categories {
		names[i] = cat.Name
		known[cat.Name] = cat.ID
	}

	prompt := fmt.Sprintf(batchClassifyPrompt,
		formatCategoryList(names),
		formatCategoryList(normalized))
	response, err := f.generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	raw, err := llm.ExtractJSONObject(response)
	if err != nil {
		slog.Warn("batch classification reply had no JSON object", "error", err)
		return map[string]string{}, nil
	}

	var predicted map[string]string
	if err := json.Unmarshal([]byte(raw), &predicted); err != nil {
		slog.Warn("batch classification reply was not a product-to-category map",
			"error", err)
		return map[string]string{}, nil
	}

	asked := make(map[string]bool, len(normalized))
	for _, p := range normalized {
		asked[p] = true
	}

	resolved := make(map[string]string, len(predicted))
	for product, category := range predicted {
		product = model.NormalizeProduct(product)
		if !asked[product] {
			continue
		}
		id, ok := known[category]
		if !ok {
			slog.Warn("model answered with a category outside the taxonomy",
				"product", product,
				"answer", category)
			continue
		}
		resolved[product] = category
		f.learn(ctx, id, category, product)
	}

	return resolved, nil
}

// learn records a confirmed product under its category and regenerates the
// category embedding. Learning failures never fail the classification that
// produced them.
func (f *Fallback) learn(ctx context.Context, categoryID int, categoryName, product string) {
	if err := f.storage.LearnExample(ctx, categoryID, product, f.regenerator()); err != nil {
		slog.Warn("failed to learn example",
			"category", categoryName,
			"product", product,
			"error", err)
		return
	}
	slog.Info("learned from fallback", "category", categoryName, "product", product)
}

// regenerator recomputes a category embedding from its name and full example
// list, in the same text format used at seeding time.
func (f *Fallback) regenerator() service.EmbeddingRegenerator {
	return func(ctx context.Context, name string, examples []string) ([]float64, error) {
		var vec []float64
		err := common.WithRetry(ctx, func() error {
			var embedErr error
			vec, embedErr = f.embedder.Embed(ctx, model.EmbeddingText(name, examples))
			return embedErr
		}, defaultRetryOptions)
		return vec, err
	}
}

func (f *Fallback) generate(ctx context.Context, prompt string) (string, error) {
	var response string
	err := common.WithRetry(ctx, func() error {
		var genErr error
		response, genErr = f.client.Generate(ctx, prompt)
		return genErr
	}, defaultRetryOptions)
	return response, err
}

func (f *Fallback) categoryNames(ctx context.Context) ([]string, error) {
	categories, err := f.storage.GetCategories(ctx)
	if err != nil {
		return nil, err
	}
	if len(categories) == 0 {
		return nil, common.ErrNoCategories
	}
	names := make([]string, len(categories))
	for i, cat := range categories {
		names[i] = cat.Name
	}
	return names, nil
}

func formatCategoryList(items []string) string {
	var b strings.Builder
	for _, item := range items {
		b.WriteString("- ")
		b.WriteString(item)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
