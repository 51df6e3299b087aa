package llm

import (
	"fmt"
	"strings"

	"github.com/solomia/solomia/internal/common"
)

// CleanMarkdownWrapper strips markdown code fences the model may have put
// around its output (```json ... ```).
func CleanMarkdownWrapper(content string) string {
	content = strings.TrimSpace(content)

	if strings.HasPrefix(content, "```") {
		// Drop the opening fence with its optional language tag
		if idx := strings.IndexByte(content, '\n'); idx >= 0 {
			content = content[idx+1:]
		} else {
			content = strings.TrimPrefix(content, "```json")
			content = strings.TrimPrefix(content, "```")
		}
	}
	content = strings.TrimSuffix(strings.TrimSpace(content), "```")

	return strings.TrimSpace(content)
}

// ExtractJSONObject returns the first balanced {...} substring of content,
// tolerating prose or code fences around it. Braces inside JSON strings are
// honored. Returns a ParseError when no balanced object is present.
func ExtractJSONObject(content string) (string, error) {
	return extractBalanced(content, '{', '}')
}

// ExtractJSONArray returns the first balanced [...] substring of content,
// with the same tolerance as ExtractJSONObject.
func ExtractJSONArray(content string) (string, error) {
	return extractBalanced(content, '[', ']')
}

func extractBalanced(content string, open, closeDelim byte) (string, error) {
	cleaned := CleanMarkdownWrapper(content)

	start := strings.IndexByte(cleaned, open)
	if start < 0 {
		return "", common.NewParseError(content, fmt.Errorf("no %q found in response", string(open)))
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(cleaned); i++ {
		c := cleaned[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case open:
			depth++
		case closeDelim:
			depth--
			if depth == 0 {
				return cleaned[start : i+1], nil
			}
		}
	}

	return "", common.NewParseError(content, fmt.Errorf("unbalanced %q in response", string(open)))
}
