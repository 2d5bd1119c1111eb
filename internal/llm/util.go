// Package llm - util.go provides shared utilities for LLM response processing.
package llm

import (
	"encoding/json"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// CleanJSONBlock removes markdown code block wrappers and conversational text around
// a JSON value. LLMs often wrap JSON in ```json ... ``` blocks even when instructed not to.
func CleanJSONBlock(text string) string {
	text = stripCodeFence(strings.TrimSpace(text))

	start := strings.IndexAny(text, "{[")
	if start < 0 {
		return text
	}
	candidate := text[start:]
	var extracted string
	if candidate[0] == '{' {
		extracted = extractJSONObject(candidate)
	} else {
		extracted = extractJSONArray(candidate)
	}
	if extracted == "" {
		// Unbalanced, probably truncated. Leave it for repair.
		return candidate
	}
	return extracted
}

func stripCodeFence(text string) string {
	// Handle ```json ... ``` blocks
	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		return strings.TrimSpace(text)
	}

	// Handle generic ``` ... ``` blocks
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		// Skip potential language identifier on first line
		if idx := strings.Index(text, "\n"); idx >= 0 {
			firstLine := text[:idx]
			if len(firstLine) < 20 && !strings.Contains(firstLine, " ") && !strings.Contains(firstLine, "{") {
				text = text[idx+1:]
			}
		}
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		return strings.TrimSpace(text)
	}

	return text
}

// extractJSONObject returns the balanced object at the start of input, or ""
func extractJSONObject(input string) string {
	return extractBalanced(input, '{', '}')
}

// extractJSONArray returns the balanced array at the start of input, or ""
func extractJSONArray(input string) string {
	return extractBalanced(input, '[', ']')
}

func extractBalanced(input string, open, closing byte) string {
	if input == "" || input[0] != open {
		return ""
	}

	inString := false
	escape := false
	depth := 0

	for i := 0; i < len(input); i++ {
		ch := input[i]

		if inString {
			if escape {
				escape = false
				continue
			}
			if ch == '\\' {
				escape = true
				continue
			}
			if ch == '"' {
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			inString = true
		case open:
			depth++
		case closing:
			depth--
			if depth == 0 {
				return input[:i+1]
			}
		}
	}

	return ""
}

// ParseJSON decodes an LLM response into loosely-typed JSON. It cleans wrappers first
// and falls back to jsonrepair for trailing commas, single quotes, truncation and the like.
func ParseJSON(text string) (any, error) {
	cleaned := CleanJSONBlock(text)
	if cleaned == "" {
		return nil, &ParseError{Message: "empty response"}
	}

	var out any
	err := json.Unmarshal([]byte(cleaned), &out)
	if err == nil {
		return out, nil
	}

	repaired, repairErr := jsonrepair.JSONRepair(cleaned)
	if repairErr != nil {
		return nil, &ParseError{Message: "response is not valid JSON", Cause: err}
	}
	if err := json.Unmarshal([]byte(repaired), &out); err != nil {
		return nil, &ParseError{Message: "repaired response is not valid JSON", Cause: err}
	}
	return out, nil
}
