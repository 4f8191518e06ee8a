package validation

import (
	"strings"
)

// maxCascadedRequired caps how many "required" errors survive at a path whose
// errors come from more than one alternative branch
const maxCascadedRequired = 3

// actionablePriority orders diagnostic types from most to least actionable
var actionablePriority = []ErrorType{
	TypeEnum,
	TypeConst,
	TypePattern,
	TypeAdditionalProperties,
	TypeType,
	TypeRequired,
}

// propertyEvidenceTypes are the types kept once an unknown property has been reported
var propertyEvidenceTypes = map[ErrorType]bool{
	TypeAdditionalProperties: true,
	TypeRequired:             true,
	TypePattern:              true,
	TypeType:                 true,
}

// filterPass is one stage of the cascade filter
type filterPass func([]ValidationError) []ValidationError

// cascadePasses run left to right; each one only sees the previous one's output
var cascadePasses = []filterPass{
	DeduplicateMessages,
	DeduplicateBranches,
	SelectActionable,
	SuppressOneOfCascades,
	SuppressParentErrors,
}

// FilterCascadingErrors collapses the redundant diagnostics produced by union type
// (oneOf) checking into the smallest set that still explains every distinct problem.
func FilterCascadingErrors(errs []ValidationError) FilterResult {
	if len(errs) == 0 {
		return FilterResult{FilteredErrors: []ValidationError{}}
	}

	current := errs
	for _, pass := range cascadePasses {
		next := pass(current)
		// A pass may narrow the set but never erase it
		if len(next) == 0 {
			continue
		}
		current = next
	}

	filtered := make([]ValidationError, len(current))
	copy(filtered, current)

	suppressed := len(errs) - len(filtered)
	return FilterResult{
		FilteredErrors:  filtered,
		SuppressedCount: suppressed,
		HasHiddenErrors: suppressed > 0,
	}
}

// DeduplicateMessages drops errors whose message was already seen, keeping first-seen
// order. Errors without a message are always kept.
func DeduplicateMessages(errs []ValidationError) []ValidationError {
	seen := make(map[string]struct{}, len(errs))
	result := make([]ValidationError, 0, len(errs))
	for _, e := range errs {
		if e.Message != "" {
			if _, ok := seen[e.Message]; ok {
				continue
			}
			seen[e.Message] = struct{}{}
		}
		result = append(result, e)
	}
	return result
}

// DeduplicateBranches resolves paths whose errors were raised against more than one
// schema definition, which happens when a value is checked against every alternative
// of a union type.
func DeduplicateBranches(errs []ValidationError) []ValidationError {
	result := make([]ValidationError, 0, len(errs))
	for _, group := range groupByPath(errs) {
		branches := groupByDefinition(group.errors)
		if len(branches) <= 1 {
			result = append(result, group.errors...)
			continue
		}

		if roots := filterErrors(group.errors, ValidationError.IsRootCause); len(roots) > 0 {
			result = append(result, roots...)
			continue
		}

		if required := filterByType(group.errors, TypeRequired); len(required) > 0 {
			result = append(result, firstN(required, maxCascadedRequired)...)
			continue
		}

		result = append(result, branches[0].errors...)
	}
	return result
}

// SelectActionable reduces every path to the errors a user can act on. A path
// without a oneOf marker keeps its most actionable error, or one per schema
// definition for root-cause ties (see mostActionable).
func SelectActionable(errs []ValidationError) []ValidationError {
	rootPaths := rootCausePaths(errs)

	result := make([]ValidationError, 0, len(errs))
	for _, group := range groupByPath(errs) {
		switch {
		case len(group.errors) == 1:
			result = append(result, group.errors...)
		case containsOneOf(group.errors):
			result = append(result, resolveOneOfCascade(group.errors, hasDescendant(group.path, rootPaths))...)
		default:
			result = append(result, mostActionable(group.errors)...)
		}
	}
	return result
}

// SuppressOneOfCascades drops errors that only exist because the wrong union branch
// was tested. An unknown property is definitive, so it narrows the whole set to
// property evidence. Otherwise generic oneOf markers go once anything specific is known.
func SuppressOneOfCascades(errs []ValidationError) []ValidationError {
	if len(filterByType(errs, TypeAdditionalProperties)) > 0 {
		return filterErrors(errs, func(e ValidationError) bool {
			return propertyEvidenceTypes[e.Type]
		})
	}

	specific := filterErrors(errs, func(e ValidationError) bool { return !e.IsOneOf() })
	if len(specific) > 0 {
		return specific
	}
	return errs
}

// SuppressParentErrors drops a root-cause error when a descendant path carries a
// root-cause error of its own, since the descendant is more specific about the same
// mistake. required and type errors are never dropped here.
func SuppressParentErrors(errs []ValidationError) []ValidationError {
	rootPaths := rootCausePaths(errs)
	return filterErrors(errs, func(e ValidationError) bool {
		if !e.IsRootCause() {
			return true
		}
		return !hasDescendant(e.Path, rootPaths)
	})
}

// resolveOneOfCascade picks the errors to keep for one path that carries a oneOf marker
func resolveOneOfCascade(group []ValidationError, childHasRootCause bool) []ValidationError {
	if roots := filterErrors(group, ValidationError.IsRootCause); len(roots) > 0 {
		return roots
	}

	marker, hasMarker := firstOneOf(group)
	if childHasRootCause && hasMarker {
		return []ValidationError{marker}
	}

	if required := filterByType(group, TypeRequired); len(required) > 0 {
		return firstN(required, maxCascadedRequired)
	}

	if hasMarker {
		return []ValidationError{marker}
	}
	return mostActionable(group)
}

// mostActionable keeps the first error of the highest priority type present. This is
// not always a single error: when the winning type is a root-cause type, the first
// error of that type from each distinct schema definition is kept, since each one
// explains why its own branch failed. Ties of that kind are what DeduplicateBranches
// leaves behind, and keeping them makes re-filtering its output a no-op.
func mostActionable(group []ValidationError) []ValidationError {
	for _, t := range actionablePriority {
		candidates := filterByType(group, t)
		if len(candidates) == 0 {
			continue
		}
		if !rootCauseTypes[t] {
			return candidates[:1]
		}
		var kept []ValidationError
		definitions := make(map[string]bool)
		for _, c := range candidates {
			def := schemaDefinition(c.SchemaPath)
			if len(kept) > 0 && definitions[def] {
				continue
			}
			definitions[def] = true
			kept = append(kept, c)
		}
		return kept
	}
	return group[:1]
}

type pathGroup struct {
	path   string
	errors []ValidationError
}

// groupByPath groups errors by exact path in first-seen order
func groupByPath(errs []ValidationError) []pathGroup {
	index := make(map[string]int)
	var groups []pathGroup
	for _, e := range errs {
		i, ok := index[e.Path]
		if !ok {
			i = len(groups)
			index[e.Path] = i
			groups = append(groups, pathGroup{path: e.Path})
		}
		groups[i].errors = append(groups[i].errors, e)
	}
	return groups
}

type definitionGroup struct {
	definition string
	errors     []ValidationError
}

// groupByDefinition groups errors by the schema definition they were raised against
func groupByDefinition(errs []ValidationError) []definitionGroup {
	index := make(map[string]int)
	var groups []definitionGroup
	for _, e := range errs {
		def := schemaDefinition(e.SchemaPath)
		i, ok := index[def]
		if !ok {
			i = len(groups)
			index[def] = i
			groups = append(groups, definitionGroup{definition: def})
		}
		groups[i].errors = append(groups[i].errors, e)
	}
	return groups
}

// definitionMarkers are the schema path segments under which named definitions live
var definitionMarkers = []string{"/definitions/", "/$defs/"}

// schemaDefinition truncates a schema path after the named definition it points into.
// "#/definitions/Condition/properties/type/const" -> "#/definitions/Condition".
// Schema paths outside any definition map to the empty string.
func schemaDefinition(schemaPath string) string {
	best := -1
	var marker string
	for _, m := range definitionMarkers {
		if idx := strings.Index(schemaPath, m); idx >= 0 && (best < 0 || idx < best) {
			best = idx
			marker = m
		}
	}
	if best < 0 {
		return ""
	}

	nameStart := best + len(marker)
	if end := strings.Index(schemaPath[nameStart:], "/"); end >= 0 {
		return schemaPath[:nameStart+end]
	}
	return schemaPath
}

func rootCausePaths(errs []ValidationError) map[string]bool {
	paths := make(map[string]bool)
	for _, e := range errs {
		if e.IsRootCause() {
			paths[e.Path] = true
		}
	}
	return paths
}

// hasDescendant reports whether any path in the set lies strictly below parent
func hasDescendant(parent string, paths map[string]bool) bool {
	for p := range paths {
		if isDescendantPath(p, parent) {
			return true
		}
	}
	return false
}

func isDescendantPath(path, parent string) bool {
	return strings.HasPrefix(path, parent+".") || strings.HasPrefix(path, parent+"[")
}

func containsOneOf(errs []ValidationError) bool {
	_, ok := firstOneOf(errs)
	return ok
}

func firstOneOf(errs []ValidationError) (ValidationError, bool) {
	for _, e := range errs {
		if e.IsOneOf() {
			return e, true
		}
	}
	return ValidationError{}, false
}

func filterByType(errs []ValidationError, t ErrorType) []ValidationError {
	return filterErrors(errs, func(e ValidationError) bool { return e.Type == t })
}

func filterErrors(errs []ValidationError, keep func(ValidationError) bool) []ValidationError {
	var result []ValidationError
	for _, e := range errs {
		if keep(e) {
			result = append(result, e)
		}
	}
	return result
}

func firstN(errs []ValidationError, n int) []ValidationError {
	if len(errs) <= n {
		return errs
	}
	return errs[:n]
}
