package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/githubnext/rulecheck/internal/mapper"
	"github.com/githubnext/rulecheck/pkg/console"
	"github.com/githubnext/rulecheck/pkg/parser"
	"github.com/githubnext/rulecheck/pkg/semantic"
	"github.com/githubnext/rulecheck/pkg/validation"
)

// Engine wires the schema validator, the semantic validator and the cascade filter
// into one pipeline. It is safe for concurrent use.
type Engine struct {
	schema    *parser.SchemaValidator
	validator *validation.Validator
}

// NewEngine builds an engine. Empty paths select the embedded schema and catalog.
func NewEngine(schemaPath, catalogPath string, verbose bool) (*Engine, error) {
	var (
		schema *parser.SchemaValidator
		err    error
	)
	if schemaPath == "" {
		schema, err = parser.DefaultSchemaValidator()
	} else {
		var content []byte
		content, err = os.ReadFile(schemaPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read schema %s: %w", schemaPath, err)
		}
		schema, err = parser.NewSchemaValidator(string(content), schemaPath)
	}
	if err != nil {
		return nil, err
	}

	var catalog *semantic.Catalog
	if catalogPath == "" {
		catalog, err = semantic.DefaultCatalog()
	} else {
		catalog, err = semantic.LoadCatalog(catalogPath)
	}
	if err != nil {
		return nil, err
	}

	if verbose {
		fmt.Fprintln(os.Stderr, console.FormatVerboseMessage(fmt.Sprintf("Using schema %s (version %s)", schema.SchemaFilename(), schema.SchemaVersion())))
		if catalogPath != "" {
			fmt.Fprintln(os.Stderr, console.FormatVerboseMessage(fmt.Sprintf("Using catalog %s", catalogPath)))
		}
	}

	return &Engine{
		schema:    schema,
		validator: validation.NewValidator(schema, semantic.New(catalog), schema.SchemaFilename(), schema.SchemaVersion()),
	}, nil
}

// FileReport is the outcome of validating one rule document
type FileReport struct {
	File            string                       `json:"file"`
	Format          parser.DocumentFormat        `json:"format,omitempty"`
	Valid           bool                         `json:"valid"`
	SchemaFilename  string                       `json:"schemaFilename"`
	SchemaVersion   string                       `json:"schemaVersion"`
	ErrorCount      int                          `json:"errorCount"`
	SuppressedCount int                          `json:"suppressedCount"`
	HasHiddenErrors bool                         `json:"hasHiddenErrors"`
	Errors          []validation.ValidationError `json:"errors"`
	// Failure is set when the file could not be read or has an unsupported format
	Failure string `json:"failure,omitempty"`

	raw string
}

// CheckOptions controls a single document check
type CheckOptions struct {
	Lines         bool
	DisableFilter bool
}

// ValidateFile reads and validates a rule file
func (e *Engine) ValidateFile(path string, opts CheckOptions) FileReport {
	content, err := os.ReadFile(path)
	if err != nil {
		return e.failure(path, fmt.Errorf("failed to read %s: %w", path, err))
	}
	format, err := parser.FormatFromFilename(path)
	if err != nil {
		return e.failure(path, err)
	}
	return e.ValidateContent(content, path, format, opts)
}

// ValidateContent validates an in-memory rule document
func (e *Engine) ValidateContent(content []byte, name string, format parser.DocumentFormat, opts CheckOptions) FileReport {
	report := FileReport{
		File:           name,
		Format:         format,
		SchemaFilename: e.schema.SchemaFilename(),
		SchemaVersion:  e.schema.SchemaVersion(),
		raw:            string(content),
	}

	doc, err := parser.ParseRuleDocumentAs(content, name, format)
	if err != nil {
		var syntaxErr *parser.SyntaxError
		if !errors.As(err, &syntaxErr) {
			return e.failure(name, err)
		}
		report.Errors = []validation.ValidationError{syntaxErr.Diagnostic()}
		report.ErrorCount = 1
		return report
	}

	result, stats := e.validator.ValidateWithStats(doc.Data, doc.Raw, validation.Options{
		IncludeLineNumbers: opts.Lines,
		DisableFilter:      opts.DisableFilter,
		Locator:            locatorFor(doc),
	})

	report.Valid = result.Valid()
	report.ErrorCount = result.ErrorCount
	report.Errors = result.Errors
	report.SuppressedCount = stats.SuppressedCount
	report.HasHiddenErrors = stats.HasHiddenErrors
	return report
}

// locatorFor picks the line locator for a document's format. YAML documents are
// mapped through the YAML AST; JSON uses the orchestrator's text locator.
func locatorFor(doc *parser.RuleDocument) validation.LineLocator {
	if doc.Format != parser.FormatYAML {
		return nil
	}
	locator, err := mapper.NewSpanLocator([]byte(doc.Raw))
	if err != nil {
		return nil
	}
	return locator
}

func (e *Engine) failure(name string, err error) FileReport {
	return FileReport{
		File:           name,
		SchemaFilename: e.schema.SchemaFilename(),
		SchemaVersion:  e.schema.SchemaVersion(),
		Errors:         []validation.ValidationError{},
		Failure:        err.Error(),
	}
}
