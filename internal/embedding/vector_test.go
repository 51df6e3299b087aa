package embedding

import (
	"math"
	"testing"

	"github.com/solomia/solomia/internal/common"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a    []float64
		b    []float64
		want float64
	}{
		{"identical", []float64{1, 2, 3}, []float64{1, 2, 3}, 1.0},
		{"opposite", []float64{1, 0}, []float64{-1, 0}, -1.0},
		{"orthogonal", []float64{1, 0}, []float64{0, 1}, 0.0},
		{"scaled pair", []float64{3, 4, 0}, []float64{1, 0, 0}, 0.6},
		{"zero vector", []float64{0, 0}, []float64{1, 1}, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CosineSimilarity(tt.a, tt.b)
			if err != nil {
				t.Fatalf("CosineSimilarity failed: %v", err)
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("expected %v, got %v", tt.want, got)
			}

			// Symmetry
			flipped, err := CosineSimilarity(tt.b, tt.a)
			if err != nil {
				t.Fatalf("flipped CosineSimilarity failed: %v", err)
			}
			if math.Abs(got-flipped) > 1e-9 {
				t.Errorf("expected symmetry, got %v and %v", got, flipped)
			}

			if got < -1.0-1e-9 || got > 1.0+1e-9 {
				t.Errorf("score %v out of [-1, 1]", got)
			}
		})
	}
}

func TestCosineSimilarityDimensionMismatch(t *testing.T) {
	if _, err := CosineSimilarity([]float64{1, 2}, []float64{1, 2, 3}); err == nil {
		t.Error("expected error for mismatched dimensions")
	}
}

func TestEncodeDecodeVector(t *testing.T) {
	original := []float64{0.125, -0.5, 3}

	encoded, err := EncodeVector(original)
	if err != nil {
		t.Fatalf("EncodeVector failed: %v", err)
	}

	decoded, err := DecodeVector(encoded, 3)
	if err != nil {
		t.Fatalf("DecodeVector failed: %v", err)
	}
	for i := range original {
		if decoded[i] != original[i] {
			t.Errorf("component %d: expected %v, got %v", i, original[i], decoded[i])
		}
	}
}

func TestEncodeVectorEmpty(t *testing.T) {
	if _, err := EncodeVector(nil); err == nil {
		t.Error("expected error for empty vector")
	}
}

func TestDecodeVectorRejectsMalformedInput(t *testing.T) {
	tests := []struct {
		name  string
		input string
		dim   int
	}{
		{"not json", "np.array([1, 2, 3])", 0},
		{"code injection", `__import__("os")`, 0},
		{"wrong type", `{"values": [1, 2]}`, 0},
		{"string elements", `["1", "2"]`, 0},
		{"empty array", `[]`, 0},
		{"wrong dimension", `[1, 2, 3]`, 4},
		{"non-finite", `[1, 2, 1e999]`, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeVector(tt.input, tt.dim)
			if err == nil {
				t.Fatal("expected error")
			}
			if !common.IsParseError(err) {
				t.Errorf("expected ParseError, got %v", err)
			}
		})
	}
}
