package model

// MatchSource indicates which path resolved a product's category.
type MatchSource string

// Match source constants.
const (
	// MatchedByExact means the product string was already in a category's examples.
	MatchedByExact MatchSource = "exact"
	// MatchedByEmbedding means cosine similarity against stored embeddings decided.
	MatchedByEmbedding MatchSource = "embedding"
	// MatchedByLLM means the generative fallback assigned the category.
	MatchedByLLM MatchSource = "llm"
)

// UnknownCategoryLabel annotates items neither the matcher nor the fallback
// could resolve.
const UnknownCategoryLabel = "Невідома категорія"

// ProductClassification is the outcome of classifying a single product name.
type ProductClassification struct {
	Product   string
	Category  string
	MatchedBy MatchSource
	Score     float64
	IsKnown   bool
}

// ParsedProduct is one line item extracted from free-form diary text.
// AmountGrams is nil only when the model violated its contract to estimate.
type ParsedProduct struct {
	AmountGrams *float64
	Name        string
}

// ClassifiedItem is a parsed product annotated with its resolved category.
// Category holds UnknownCategoryLabel when resolution failed.
type ClassifiedItem struct {
	AmountGrams *float64
	Product     string
	Category    string
	MatchedBy   MatchSource
	Score       float64
}

// Resolved reports whether the item ended up with a real taxonomy category.
func (i ClassifiedItem) Resolved() bool {
	return i.Category != "" && i.Category != UnknownCategoryLabel
}
