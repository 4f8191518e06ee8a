package parser

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/githubnext/rulecheck/pkg/validation"
)

// SyntaxError reports a rule document that could not be decoded at all
type SyntaxError struct {
	Line    int
	Column  int
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("line %d, column %d: %s", e.Line, e.Column, e.Message)
}

// newJSONSyntaxError converts an encoding/json error to a SyntaxError with a
// 1-based line and column
func newJSONSyntaxError(content []byte, err error) *SyntaxError {
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		line, column := offsetToLineColumn(content, syntaxErr.Offset)
		return &SyntaxError{Line: line, Column: column, Message: syntaxErr.Error()}
	}

	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		line, column := offsetToLineColumn(content, int64(len(content)))
		return &SyntaxError{Line: line, Column: column, Message: "unexpected end of JSON input"}
	}

	return &SyntaxError{Line: 1, Column: 1, Message: err.Error()}
}

// offsetToLineColumn converts a byte offset into a 1-based line and column
func offsetToLineColumn(content []byte, offset int64) (int, int) {
	if offset > int64(len(content)) {
		offset = int64(len(content))
	}
	line, column := 1, 1
	for _, b := range content[:offset] {
		if b == '\n' {
			line++
			column = 1
		} else {
			column++
		}
	}
	// encoding/json reports the offset after the offending byte
	if column > 1 {
		column--
	}
	return line, column
}

// newYAMLSyntaxError extracts line and column information from goccy/go-yaml errors,
// which are formatted as "[line:column] message" followed by a source excerpt
func newYAMLSyntaxError(err error) *SyntaxError {
	errStr := err.Error()
	firstLine, _, _ := strings.Cut(errStr, "\n")

	if strings.HasPrefix(firstLine, "[") {
		closeIdx := strings.Index(firstLine, "]")
		if closeIdx > 0 {
			var line, column int
			if _, scanErr := fmt.Sscanf(firstLine[1:closeIdx], "%d:%d", &line, &column); scanErr == nil {
				return &SyntaxError{
					Line:    line,
					Column:  column,
					Message: strings.TrimSpace(firstLine[closeIdx+1:]),
				}
			}
		}
	}

	// Parse "yaml: line X: message" format
	if strings.Contains(firstLine, "line ") {
		parts := strings.SplitN(firstLine, "line ", 2)
		var line int
		if _, scanErr := fmt.Sscanf(parts[1], "%d", &line); scanErr == nil {
			message := parts[1]
			if idx := strings.Index(message, ":"); idx >= 0 {
				message = strings.TrimSpace(message[idx+1:])
			}
			return &SyntaxError{Line: line, Column: 1, Message: message}
		}
	}

	return &SyntaxError{Line: 1, Column: 1, Message: strings.TrimSpace(firstLine)}
}

// TypeSyntax tags diagnostics for documents that could not be decoded
const TypeSyntax validation.ErrorType = "syntax"

// Diagnostic converts the syntax error into the shared diagnostic shape so it can be
// reported alongside schema and semantic diagnostics
func (e *SyntaxError) Diagnostic() validation.ValidationError {
	return validation.ValidationError{
		Type:      TypeSyntax,
		Code:      "document." + string(TypeSyntax),
		Path:      "$",
		Message:   "$: " + e.Message,
		Arguments: []any{e.Line, e.Column},
	}.WithLineNumber(e.Line)
}
