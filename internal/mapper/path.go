package mapper

import (
	"fmt"
	"strconv"
	"strings"
)

// segment is one step of a document path: an object key or an array index
type segment struct {
	key   string
	index int // -1 for object keys
}

func (s segment) isIndex() bool {
	return s.index >= 0
}

// parsePath splits "$.definition.expressions[0].value" into key and index segments.
// "$" and "" address the document root.
func parsePath(path string) ([]segment, error) {
	path = strings.TrimSpace(path)
	if path != "" && !strings.HasPrefix(path, "$") {
		return nil, fmt.Errorf("invalid document path %q: must start with '$'", path)
	}
	rest := strings.TrimPrefix(path, "$")

	var segments []segment
	for len(rest) > 0 {
		switch rest[0] {
		case '.':
			rest = rest[1:]
			end := strings.IndexAny(rest, ".[")
			if end < 0 {
				end = len(rest)
			}
			if end == 0 {
				return nil, fmt.Errorf("invalid document path %q: empty key", path)
			}
			segments = append(segments, segment{key: rest[:end], index: -1})
			rest = rest[end:]
		case '[':
			end := strings.IndexByte(rest, ']')
			if end < 0 {
				return nil, fmt.Errorf("invalid document path %q: unterminated index", path)
			}
			idx, err := parseIndex(rest[1:end])
			if err != nil {
				return nil, fmt.Errorf("invalid document path %q: %w", path, err)
			}
			segments = append(segments, segment{index: idx})
			rest = rest[end+1:]
		default:
			return nil, fmt.Errorf("invalid document path %q: unexpected %q", path, rest[0])
		}
	}
	return segments, nil
}

// parseIndex parses a non-negative array index
func parseIndex(s string) (int, error) {
	if s == "" || s[0] == '-' || s[0] == '+' {
		return 0, fmt.Errorf("invalid array index %q", s)
	}
	idx, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid array index %q", s)
	}
	return idx, nil
}
