package validation

// StructuralValidator checks a document against the rule schema and reports
// violations in the shared diagnostic shape
type StructuralValidator interface {
	ValidateStructure(doc any) []ValidationError
}

// SemanticValidator checks business rules (operator/type compatibility, function
// arity) and reports violations in the shared diagnostic shape
type SemanticValidator interface {
	ValidateSemantics(doc any) []ValidationError
}

// Options controls a single validation run
type Options struct {
	// IncludeLineNumbers annotates every diagnostic with its source line
	IncludeLineNumbers bool
	// DisableFilter returns every raw diagnostic, bypassing the cascade filter.
	// Used to audit the filter's suppression decisions.
	DisableFilter bool
	// Locator overrides the text locator built from the raw source
	Locator LineLocator
}

// Validator merges the structural and semantic diagnostics for a document and
// triages them. It holds no per-request state and is safe for concurrent use.
type Validator struct {
	structural     StructuralValidator
	semantic       SemanticValidator
	schemaFilename string
	schemaVersion  string
}

// NewValidator creates a validator. semantic may be nil.
func NewValidator(structural StructuralValidator, semantic SemanticValidator, schemaFilename, schemaVersion string) *Validator {
	return &Validator{
		structural:     structural,
		semantic:       semantic,
		schemaFilename: schemaFilename,
		schemaVersion:  schemaVersion,
	}
}

// Validate runs the validation pipeline for one document. raw is the original source
// text and is only needed for line numbers.
func (v *Validator) Validate(doc any, raw string, opts Options) ValidationResult {
	result, _ := v.ValidateWithStats(doc, raw, opts)
	return result
}

// ValidateWithStats is Validate that also returns the cascade filter outcome.
// When the filter is disabled the FilterResult reports zero suppressions.
func (v *Validator) ValidateWithStats(doc any, raw string, opts Options) (ValidationResult, FilterResult) {
	var errs []ValidationError
	if v.structural != nil {
		errs = append(errs, v.structural.ValidateStructure(doc)...)
	}
	if v.semantic != nil {
		errs = append(errs, v.semantic.ValidateSemantics(doc)...)
	}

	if opts.IncludeLineNumbers {
		errs = annotateLines(errs, raw, opts.Locator)
	}

	stats := FilterResult{FilteredErrors: errs}
	if !opts.DisableFilter {
		stats = FilterCascadingErrors(errs)
		errs = stats.FilteredErrors
	}

	if errs == nil {
		errs = []ValidationError{}
	}

	return ValidationResult{
		SchemaFilename: v.schemaFilename,
		SchemaVersion:  v.schemaVersion,
		ErrorCount:     len(errs),
		Errors:         errs,
	}, stats
}

func annotateLines(errs []ValidationError, raw string, locator LineLocator) []ValidationError {
	if locator == nil {
		if raw == "" {
			return errs
		}
		locator = NewTextLocator(raw)
	}

	annotated := make([]ValidationError, len(errs))
	for i, e := range errs {
		if line, ok := locator.Locate(e.Path, e.Message, e.Type); ok {
			e = e.WithLineNumber(line)
		}
		annotated[i] = e
	}
	return annotated
}
