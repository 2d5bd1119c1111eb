package ingestion

import (
	"context"
	"errors"
	"strings"

	"github.com/jonathan/resume-memory/internal/llm"
)

// FactExtractor is the oracle operation that pulls structured career facts out of a document
type FactExtractor interface {
	Extract(ctx context.Context, document string, schema llm.ExtractionSchema) (any, error)
}

// ExtractFacts asks the oracle for the career facts in text. The result is untrusted
// and must be sanitized before use.
func ExtractFacts(ctx context.Context, o FactExtractor, text string) (any, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("document contains no text")
	}
	return o.Extract(ctx, text, llm.CareerFactsSchema())
}
