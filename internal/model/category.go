// Package model defines the core domain models used throughout the application.
package model

import (
	"strings"
	"time"
)

// Category represents one entry of the closed food taxonomy.
//
// Examples grows monotonically as products are learned; the category set
// itself never grows at runtime. Embedding summarizes the category name plus
// the full example list and is regenerated after every example append.
type Category struct {
	CreatedAt time.Time
	Name      string
	Examples  []string
	Embedding []float64
	ID        int
}

// EmbeddingText returns the text a category embedding is computed from.
// The format must stay stable: stored embeddings were produced from it.
func EmbeddingText(name string, examples []string) string {
	return name + ": " + strings.Join(examples, ", ")
}

// HasExample reports whether product is already recorded as an example of
// this category. Matching ignores case and surrounding whitespace, the same
// normalization applied to parsed diary products.
func (c *Category) HasExample(product string) bool {
	product = NormalizeProduct(product)
	for _, ex := range c.Examples {
		if NormalizeProduct(ex) == product {
			return true
		}
	}
	return false
}

// NormalizeProduct canonicalizes a product name for lookups and storage.
func NormalizeProduct(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
