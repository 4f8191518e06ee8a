package mapper

import (
	"github.com/githubnext/rulecheck/pkg/validation"
)

// minLocateConfidence rejects the document-level fallback span
const minLocateConfidence = 0.25

// SpanLocator implements validation.LineLocator for YAML rule documents
type SpanLocator struct {
	mapper *Mapper
}

// NewSpanLocator parses src and returns a locator over it
func NewSpanLocator(src []byte) (*SpanLocator, error) {
	m, err := New(src)
	if err != nil {
		return nil, err
	}
	return &SpanLocator{mapper: m}, nil
}

// Locate implements validation.LineLocator
func (l *SpanLocator) Locate(path, message string, errType validation.ErrorType) (int, bool) {
	meta := ErrorMeta{Kind: string(errType)}
	if errType == validation.TypeAdditionalProperties || errType == validation.TypeRequired {
		meta.Property = validation.MessageProperty(message)
	}

	spans, err := l.mapper.Spans(path, meta)
	if err != nil || len(spans) == 0 || spans[0].Confidence < minLocateConfidence {
		return 0, false
	}
	return spans[0].StartLine, true
}
