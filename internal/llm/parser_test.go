package llm

import (
	"testing"

	"github.com/solomia/solomia/internal/common"
)

func TestCleanMarkdownWrapper(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", `{"a": 1}`, `{"a": 1}`},
		{"json fence", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"bare fence", "```\n{\"a\": 1}\n```", `{"a": 1}`},
		{"surrounding whitespace", "  \n{\"a\": 1}\n  ", `{"a": 1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanMarkdownWrapper(tt.input); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"bare object", `{"вівсянка": "Крупи / Зернові"}`, `{"вівсянка": "Крупи / Зернові"}`},
		{"fenced", "```json\n{\"a\": \"b\"}\n```", `{"a": "b"}`},
		{"prose around", `Sure! Here is the result: {"a": "b"} Hope it helps.`, `{"a": "b"}`},
		{"nested", `{"outer": {"inner": 1}}`, `{"outer": {"inner": 1}}`},
		{"braces in strings", `{"a": "value with } brace"}`, `{"a": "value with } brace"}`},
		{"escaped quote in string", `{"a": "say \" and }"}`, `{"a": "say \" and }"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSONObject(tt.input)
			if err != nil {
				t.Fatalf("ExtractJSONObject failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestExtractJSONObjectErrors(t *testing.T) {
	for _, input := range []string{"no json here", `{"unbalanced": `} {
		_, err := ExtractJSONObject(input)
		if err == nil {
			t.Errorf("expected error for %q", input)
			continue
		}
		if !common.IsParseError(err) {
			t.Errorf("expected ParseError for %q, got %v", input, err)
		}
	}
}

func TestExtractJSONArray(t *testing.T) {
	got, err := ExtractJSONArray("```json\n[{\"product_name\": \"яйце\", \"amount_grams\": 120}]\n```")
	if err != nil {
		t.Fatalf("ExtractJSONArray failed: %v", err)
	}
	want := `[{"product_name": "яйце", "amount_grams": 120}]`
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}
