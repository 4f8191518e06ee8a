package mapper

// Span describes a location in the source YAML rule document.
type Span struct {
	StartLine  int // 1-based
	StartCol   int // 1-based
	EndLine    int
	EndCol     int
	Confidence float64 // 0.0 - 1.0
	Reason     string  // short reason why this span was chosen
}

// ErrorMeta carries the diagnostic details the mapper needs beyond the path.
type ErrorMeta struct {
	Kind     string // diagnostic type: "type", "required", "additionalProperties", ...
	Property string // missing or unexpected property for required and additionalProperties
}
