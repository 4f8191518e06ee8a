package parser

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

// DocumentFormat identifies the source syntax of a rule document
type DocumentFormat string

const (
	FormatJSON DocumentFormat = "json"
	FormatYAML DocumentFormat = "yaml"
)

// ErrUnsupportedFormat is returned for files that are neither JSON nor YAML
var ErrUnsupportedFormat = errors.New("unsupported rule document format")

// RuleDocument is a parsed rule together with its original source text
type RuleDocument struct {
	Filename string
	Format   DocumentFormat
	Raw      string
	// Data is the decoded document with JSON semantics: objects are map[string]any,
	// arrays []any and numbers json.Number
	Data any
}

// FormatFromFilename picks the document format from a file extension.
// Files without an extension are treated as JSON.
func FormatFromFilename(filename string) (DocumentFormat, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".json", "":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, filename)
	}
}

// ParseRuleDocument decodes a rule document. The format is derived from filename.
func ParseRuleDocument(content []byte, filename string) (*RuleDocument, error) {
	format, err := FormatFromFilename(filename)
	if err != nil {
		return nil, err
	}
	return ParseRuleDocumentAs(content, filename, format)
}

// ParseRuleDocumentAs decodes a rule document in an explicit format
func ParseRuleDocumentAs(content []byte, filename string, format DocumentFormat) (*RuleDocument, error) {
	var (
		data any
		err  error
	)

	switch format {
	case FormatJSON:
		data, err = decodeJSON(content)
	case FormatYAML:
		data, err = decodeYAML(content)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, err
	}

	return &RuleDocument{
		Filename: filename,
		Format:   format,
		Raw:      string(content),
		Data:     data,
	}, nil
}

func decodeJSON(content []byte) (any, error) {
	if len(bytes.TrimSpace(content)) == 0 {
		return nil, &SyntaxError{Line: 1, Column: 1, Message: "empty rule document"}
	}
	data, err := jsonschema.UnmarshalJSON(bytes.NewReader(content))
	if err != nil {
		return nil, newJSONSyntaxError(content, err)
	}
	return data, nil
}

// decodeYAML decodes YAML and normalizes it through JSON so YAML and JSON rules
// validate identically
func decodeYAML(content []byte) (any, error) {
	var raw any
	if err := yaml.Unmarshal(content, &raw); err != nil {
		return nil, newYAMLSyntaxError(err)
	}
	if raw == nil {
		return nil, &SyntaxError{Line: 1, Column: 1, Message: "empty rule document"}
	}

	normalized, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to convert YAML rule document to JSON: %w", err)
	}
	return jsonschema.UnmarshalJSON(bytes.NewReader(normalized))
}
