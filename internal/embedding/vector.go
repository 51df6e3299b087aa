package embedding

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/solomia/solomia/internal/common"
)

// CosineSimilarity computes the directional closeness of two vectors:
// dot(a,b) / (|a| * |b|), range [-1, 1]. Vectors of mismatched dimension are
// rejected rather than compared.
func CosineSimilarity(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("dimension mismatch: %d vs %d", len(a), len(b))
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0, nil
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}

// EncodeVector serializes a vector as a JSON float array for storage.
func EncodeVector(v []float64) (string, error) {
	if len(v) == 0 {
		return "", fmt.Errorf("cannot encode empty vector")
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to encode vector: %w", err)
	}
	return string(data), nil
}

// DecodeVector parses a stored vector. It is a strict, schema-validated
// numeric-array parse: anything other than a JSON array of finite numbers of
// the expected dimension is a ParseError. Pass dim <= 0 to skip the
// dimension check.
func DecodeVector(s string, dim int) ([]float64, error) {
	var v []float64
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, common.NewParseError(s, fmt.Errorf("malformed embedding: %w", err))
	}
	if len(v) == 0 {
		return nil, common.NewParseError(s, fmt.Errorf("empty embedding"))
	}
	if dim > 0 && len(v) != dim {
		return nil, common.NewParseError(s, fmt.Errorf("embedding has %d dimensions, expected %d", len(v), dim))
	}
	for i, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil, common.NewParseError(s, fmt.Errorf("non-finite component at index %d", i))
		}
	}
	return v, nil
}
