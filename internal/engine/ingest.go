package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/solomia/solomia/internal/common"
	"github.com/solomia/solomia/internal/llm"
	"github.com/solomia/solomia/internal/model"
	"github.com/solomia/solomia/internal/service"
)

const parseReportPrompt = `You are a precise food report parser. The user provides a daily nutrition report (breakfast, lunch, dinner). Your task is to extract all food items with their estimated quantities in grams.

For each item, output an object with two fields:
  - 'product_name': lowercase string (without units)
  - 'amount_grams': number (integer or float, in grams)

If the user provides piece-based or approximate quantities (e.g. '2 eggs', 'a banana', 'a slice of bread'), you MUST estimate the typical weight in grams based on common food knowledge. Do NOT set 'amount_grams' to null — always provide a reasonable numeric estimate.

Ignore meal names like 'breakfast', 'lunch', 'dinner', as well as any commentary or descriptions. Return ONLY a valid JSON array, for example:
[{"product_name": "вівсянка", "amount_grams": 40}, {"product_name": "яйце", "amount_grams": 120}]

Report:
%s`

// Ingestor turns a free-form diary report into persisted, classified items.
type Ingestor struct {
	storage  service.Storage
	client   llm.Client
	matcher  *Matcher
	fallback *Fallback
}

// NewIngestor creates a report ingestor.
func NewIngestor(storage service.Storage, client llm.Client, matcher *Matcher, fallback *Fallback) *Ingestor {
	return &Ingestor{
		storage:  storage,
		client:   client,
		matcher:  matcher,
		fallback: fallback,
	}
}

// parsedItem tolerates the field-name drift generative models exhibit.
type parsedItem struct {
	ProductName string   `json:"product_name"`
	Name        string   `json:"name"`
	AmountGrams *float64 `json:"amount_grams"`
	Grams       *float64 `json:"grams"`
}

// ParseReport extracts the product lines of a raw diary report via the
// generative model. Amounts are always estimates in grams; an item missing a
// name is dropped. A reply with no parseable JSON array fails the whole
// report.
func (in *Ingestor) ParseReport(ctx context.Context, raw string) ([]model.ParsedProduct, error) {
	response, err := in.generate(ctx, fmt.Sprintf(parseReportPrompt, raw))
	if err != nil {
		return nil, err
	}

	extracted, err := llm.ExtractJSONArray(response)
	if err != nil {
		return nil, err
	}

	var items []parsedItem
	if err := json.Unmarshal([]byte(extracted), &items); err != nil {
		return nil, fmt.Errorf("report parse reply was not a JSON array of items: %w", err)
	}

	products := make([]model.ParsedProduct, 0, len(items))
	for _, item := range items {
		name := item.ProductName
		if name == "" {
			name = item.Name
		}
		name = model.NormalizeProduct(name)
		if name == "" {
			continue
		}
		amount := item.AmountGrams
		if amount == nil {
			amount = item.Grams
		}
		products = append(products, model.ParsedProduct{Name: name, AmountGrams: amount})
	}

	slog.Info("parsed report", "items", len(products))
	return products, nil
}

// ClassifyReport parses a raw report and classifies every product: matcher
// first, then one batch fallback round trip for whatever stayed unknown.
// A product that fails classification is annotated with the unknown-category
// sentinel rather than aborting the report.
func (in *Ingestor) ClassifyReport(ctx context.Context, raw string) ([]model.ClassifiedItem, error) {
	products, err := in.ParseReport(ctx, raw)
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return nil, nil
	}

	classified := make([]model.ClassifiedItem, 0, len(products))
	var unknown []model.ParsedProduct

	for _, product := range products {
		result, classifyErr := in.matcher.ClassifyProduct(ctx, product.Name)
		if classifyErr != nil {
			slog.Warn("product classification failed, deferring to fallback",
				"product", product.Name,
				"error", classifyErr)
			unknown = append(unknown, product)
			continue
		}
		if !result.IsKnown {
			unknown = append(unknown, product)
			continue
		}
		classified = append(classified, model.ClassifiedItem{
			Product:     product.Name,
			AmountGrams: product.AmountGrams,
			Category:    result.Category,
			MatchedBy:   result.MatchedBy,
			Score:       result.Score,
		})
	}

	if len(unknown) > 0 {
		names := make([]string, len(unknown))
		for i, product := range unknown {
			names[i] = product.Name
		}
		slog.Info("classifying unknown products via fallback", "count", len(names))

		predicted, fallbackErr := in.fallback.ClassifyUnknownBatch(ctx, names)
		if fallbackErr != nil {
			// An empty taxonomy means every product is unknown, not a failure.
			if !errors.Is(fallbackErr, common.ErrNoCategories) {
				return nil, fallbackErr
			}
			slog.Warn("no categories in store, leaving products unclassified", "count", len(names))
			predicted = map[string]string{}
		}

		for _, product := range unknown {
			item := model.ClassifiedItem{
				Product:     product.Name,
				AmountGrams: product.AmountGrams,
				Category:    model.UnknownCategoryLabel,
			}
			if category, ok := predicted[product.Name]; ok {
				item.Category = category
				item.MatchedBy = model.MatchedByLLM
			}
			classified = append(classified, item)
		}
	}

	return classified, nil
}

// SaveReport persists classified items as the user's report for the given
// day.
func (in *Ingestor) SaveReport(ctx context.Context, userID string, date time.Time, items []model.ClassifiedItem) (*model.Report, error) {
	return in.storage.SaveReport(ctx, userID, date, items)
}

func (in *Ingestor) generate(ctx context.Context, prompt string) (string, error) {
	var response string
	err := common.WithRetry(ctx, func() error {
		var genErr error
		response, genErr = in.client.Generate(ctx, prompt)
		return genErr
	}, defaultRetryOptions)
	return response, err
}
