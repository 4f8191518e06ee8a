package validation

// ErrorType is the taxonomy tag of a diagnostic. It drives triage priority in the
// cascade filter.
type ErrorType string

// Structural diagnostic types reported by the schema validator
const (
	TypeRequired             ErrorType = "required"
	TypeType                 ErrorType = "type"
	TypeEnum                 ErrorType = "enum"
	TypeConst                ErrorType = "const"
	TypePattern              ErrorType = "pattern"
	TypeAdditionalProperties ErrorType = "additionalProperties"
	TypeOneOf                ErrorType = "oneOf"
)

// rootCauseTypes are the diagnostic types that directly explain why a value is wrong
var rootCauseTypes = map[ErrorType]bool{
	TypeEnum:                 true,
	TypeConst:                true,
	TypePattern:              true,
	TypeAdditionalProperties: true,
}

// ValidationError is a single diagnostic about a rule document.
// Both the structural and the semantic validator produce this shape.
type ValidationError struct {
	Type       ErrorType `json:"type"`
	Code       string    `json:"code"`
	Path       string    `json:"path"`
	SchemaPath string    `json:"schemaPath"`
	Message    string    `json:"message"`
	Arguments  []any     `json:"arguments"`
	LineNumber *int      `json:"lineNumber,omitempty"`
}

// IsRootCause reports whether the error is of a type that explains the underlying
// mistake (enum, const, pattern, additionalProperties)
func (e ValidationError) IsRootCause() bool {
	return rootCauseTypes[e.Type]
}

// IsOneOf reports whether the error is the generic "matched none of the alternatives" marker
func (e ValidationError) IsOneOf() bool {
	return e.Type == TypeOneOf
}

// WithLineNumber returns a copy of the error annotated with a 1-based line number
func (e ValidationError) WithLineNumber(line int) ValidationError {
	e.LineNumber = &line
	return e
}

// Line returns the line number and whether it is known
func (e ValidationError) Line() (int, bool) {
	if e.LineNumber == nil {
		return 0, false
	}
	return *e.LineNumber, true
}

func (e ValidationError) Error() string {
	return e.Message
}

// ValidationResult is the outcome of validating one rule document
type ValidationResult struct {
	SchemaFilename string            `json:"schemaFilename"`
	SchemaVersion  string            `json:"schemaVersion"`
	ErrorCount     int               `json:"errorCount"`
	Errors         []ValidationError `json:"errors"`
}

// Valid reports whether the document produced no diagnostics
func (r ValidationResult) Valid() bool {
	return r.ErrorCount == 0
}

// FilterResult is the outcome of cascade filtering
type FilterResult struct {
	FilteredErrors  []ValidationError `json:"filteredErrors"`
	SuppressedCount int               `json:"suppressedCount"`
	// HasHiddenErrors is set when at least one diagnostic was suppressed, so callers
	// can point users at the unfiltered output.
	HasHiddenErrors bool `json:"hasHiddenErrors"`
}
