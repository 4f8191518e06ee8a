package validation

import (
	"regexp"
	"strings"
)

// LineLocator maps a diagnostic's document path to a 1-based source line
type LineLocator interface {
	Locate(path, message string, errType ErrorType) (int, bool)
}

// TextLocator locates paths by scanning raw JSON text
type TextLocator struct {
	raw string
}

// NewTextLocator creates a locator over the raw JSON source of a document
func NewTextLocator(raw string) *TextLocator {
	return &TextLocator{raw: raw}
}

// Locate implements LineLocator
func (l *TextLocator) Locate(path, message string, errType ErrorType) (int, bool) {
	return FindLine(path, message, errType, l.raw)
}

var arrayIndexSuffix = regexp.MustCompile(`(\[\d+\])+$`)

// FindLine returns the 1-based line of the property a diagnostic points at.
// For additionalProperties errors the path names the containing object, so the
// offending property is read from the message instead. A path that names no property
// resolves to the document root, line 1.
func FindLine(path, message string, errType ErrorType, raw string) (int, bool) {
	segments := parsePathSegments(path)

	var target string
	var context []string
	if len(segments) > 0 {
		target = segments[len(segments)-1]
		context = segments[:len(segments)-1]
	}

	if errType == TypeAdditionalProperties {
		if property := extractAdditionalPropertyName(message); property != "" {
			target = property
			context = segments
		}
	}

	if target == "" {
		return 1, true
	}
	if line, ok := scanWithContext(raw, target, strings.Join(context, ".")); ok {
		return line, true
	}
	if line, ok := scanForKey(raw, target); ok {
		return line, true
	}
	if len(segments) == 0 {
		return 1, true
	}
	return 0, false
}

// parsePathSegments splits "$.a.b[0].c" into ["a", "b", "c"]
func parsePathSegments(path string) []string {
	path = strings.TrimPrefix(strings.TrimSpace(path), "$")
	var segments []string
	for _, part := range strings.Split(path, ".") {
		part = arrayIndexSuffix.ReplaceAllString(part, "")
		if part == "" {
			continue
		}
		segments = append(segments, part)
	}
	return segments
}

// MessageProperty returns the property a message prefix names, for example "colour"
// from "$.definition.colour: is not defined in the schema"
func MessageProperty(message string) string {
	return extractAdditionalPropertyName(message)
}

// extractAdditionalPropertyName reads the offending property out of messages like
// "$.definition.colour: is not defined in the schema"
func extractAdditionalPropertyName(message string) string {
	prefix, _, found := strings.Cut(message, ":")
	if !found {
		return ""
	}
	prefix = strings.TrimSpace(prefix)
	if idx := strings.LastIndex(prefix, "."); idx >= 0 {
		prefix = prefix[idx+1:]
	}
	prefix = arrayIndexSuffix.ReplaceAllString(prefix, "")
	if prefix == "$" {
		return ""
	}
	return prefix
}

// frame is one open object or array while scanning
type frame struct {
	key     string
	isArray bool
}

// keyToken is an object key found while scanning, with the enclosing frames
type keyToken struct {
	name    string
	line    int
	context string
}

// scanWithContext finds the first key named target whose enclosing keys join to context
func scanWithContext(raw, target, context string) (int, bool) {
	var found keyToken
	ok := false
	scanKeys(raw, func(tok keyToken) bool {
		if tok.name == target && tok.context == context {
			found, ok = tok, true
			return false
		}
		return true
	})
	return found.line, ok
}

// scanForKey finds the first key named target anywhere in the text
func scanForKey(raw, target string) (int, bool) {
	var found keyToken
	ok := false
	scanKeys(raw, func(tok keyToken) bool {
		if tok.name == target {
			found, ok = tok, true
			return false
		}
		return true
	})
	return found.line, ok
}

// scanKeys tokenizes JSON text just enough to report every object key with its line
// and the keys of the containers around it. Braces and quotes inside string literals
// are ignored. visit returns false to stop the scan.
func scanKeys(raw string, visit func(keyToken) bool) {
	var stack []frame
	line := 1
	pendingKey := ""

	contextOf := func() string {
		var keys []string
		for _, f := range stack {
			if f.key != "" {
				keys = append(keys, f.key)
			}
		}
		return strings.Join(keys, ".")
	}

	for i := 0; i < len(raw); i++ {
		c := raw[i]
		switch c {
		case '\n':
			line++
		case '"':
			str, end := readString(raw, i)
			i = end
			if isFollowedByColon(raw, end+1) {
				if !visit(keyToken{name: str, line: line, context: contextOf()}) {
					return
				}
				pendingKey = str
			}
		case '{', '[':
			stack = append(stack, frame{key: pendingKey, isArray: c == '['})
			pendingKey = ""
		case '}', ']':
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
			pendingKey = ""
		case ',':
			pendingKey = ""
		}
	}
}

// readString reads the string literal starting at the quote at start and returns its
// content and the index of the closing quote. An unterminated string ends at the line.
func readString(raw string, start int) (string, int) {
	var sb strings.Builder
	for i := start + 1; i < len(raw); i++ {
		switch raw[i] {
		case '\\':
			if i+1 < len(raw) {
				sb.WriteByte(raw[i+1])
				i++
			}
		case '"':
			return sb.String(), i
		case '\n':
			return sb.String(), i - 1
		default:
			sb.WriteByte(raw[i])
		}
	}
	return sb.String(), len(raw) - 1
}

func isFollowedByColon(raw string, from int) bool {
	for i := from; i < len(raw); i++ {
		switch raw[i] {
		case ' ', '\t', '\r', '\n':
			continue
		case ':':
			return true
		default:
			return false
		}
	}
	return false
}
