// Package mapper maps diagnostic paths of YAML rule documents onto source spans
// using the goccy/go-yaml AST, so YAML rules get accurate line numbers even for
// flow collections and multi-document quirks the text scanner cannot see.
package mapper

import (
	"fmt"
	"strings"

	"github.com/goccy/go-yaml/ast"
	"github.com/goccy/go-yaml/parser"
	"github.com/goccy/go-yaml/token"
)

// Mapper resolves document paths against a parsed YAML source
type Mapper struct {
	src  []byte
	root ast.Node
}

// New parses src once so many paths can be mapped against it
func New(src []byte) (*Mapper, error) {
	file, err := parser.ParseBytes(src, 0)
	if err != nil {
		return nil, fmt.Errorf("yaml parse error: %w", err)
	}

	m := &Mapper{src: src}
	if len(file.Docs) > 0 && file.Docs[0] != nil {
		m.root = file.Docs[0].Body
	}
	return m, nil
}

// MapErrorToSpans parses yamlBytes and maps a single diagnostic to candidate spans
// ordered by confidence.
func MapErrorToSpans(yamlBytes []byte, path string, meta ErrorMeta) ([]Span, error) {
	m, err := New(yamlBytes)
	if err != nil {
		return nil, err
	}
	return m.Spans(path, meta)
}

// Spans maps a "$"-rooted document path to candidate spans ordered by confidence.
// For required and additionalProperties the path names the containing object and
// meta.Property the member in question.
func (m *Mapper) Spans(path string, meta ErrorMeta) ([]Span, error) {
	segments, err := parsePath(path)
	if err != nil {
		return nil, err
	}
	if m.root == nil {
		return []Span{documentFallbackSpan()}, nil
	}

	node, key := lookup(m.root, segments)
	if node != nil {
		switch meta.Kind {
		case "additionalProperties", "required":
			if meta.Property != "" {
				if propertyKey := findKey(node, meta.Property); propertyKey != nil {
					return []Span{nodeSpan(propertyKey, 0.98, fmt.Sprintf("property key '%s'", meta.Property))}, nil
				}
			}
			return []Span{containerSpan(node, key, len(segments) == 0)}, nil
		default:
			if len(segments) == 0 {
				return []Span{rootSpan("document root")}, nil
			}
			if key != nil {
				return []Span{nodeSpan(key, 0.95, "property key")}, nil
			}
			return []Span{nodeSpan(positionNode(node), 0.9, "array item")}, nil
		}
	}

	if candidates := m.fallback(segments, meta); len(candidates) > 0 {
		return candidates, nil
	}
	return []Span{documentFallbackSpan()}, nil
}

// lookup walks the AST along segments. It returns the node for the last segment
// and, when that segment is an object key, the key node.
func lookup(root ast.Node, segments []segment) (ast.Node, ast.Node) {
	current := unwrap(root)
	var key ast.Node

	for _, seg := range segments {
		key = nil
		if seg.isIndex() {
			seq, ok := current.(*ast.SequenceNode)
			if !ok || seg.index >= len(seq.Values) {
				return nil, nil
			}
			current = unwrap(seq.Values[seg.index])
			continue
		}

		entry := findEntry(current, seg.key)
		if entry == nil {
			return nil, nil
		}
		key = entry.Key
		current = unwrap(entry.Value)
	}
	return current, key
}

// mappingEntries returns the key/value pairs of a mapping. A mapping with a single
// entry can be represented by the value node itself.
func mappingEntries(node ast.Node) []*ast.MappingValueNode {
	switch n := node.(type) {
	case *ast.MappingNode:
		return n.Values
	case *ast.MappingValueNode:
		return []*ast.MappingValueNode{n}
	}
	return nil
}

func findEntry(node ast.Node, name string) *ast.MappingValueNode {
	for _, entry := range mappingEntries(node) {
		if keyMatches(entry.Key, name) {
			return entry
		}
	}
	return nil
}

func findKey(node ast.Node, name string) ast.Node {
	if entry := findEntry(node, name); entry != nil {
		return entry.Key
	}
	return nil
}

// keyMatches checks if a mapping key node matches the expected key
func keyMatches(keyNode ast.MapKeyNode, name string) bool {
	switch key := keyNode.(type) {
	case *ast.StringNode:
		return key.Value == name
	case *ast.MappingKeyNode:
		return key.Value.GetToken().Value == name
	default:
		if tk := key.GetToken(); tk != nil {
			return tk.Value == name
		}
		return false
	}
}

// unwrap strips anchors and tags so lookup sees the underlying collection
func unwrap(node ast.Node) ast.Node {
	for {
		switch n := node.(type) {
		case *ast.AnchorNode:
			node = n.Value
		case *ast.TagNode:
			node = n.Value
		default:
			return node
		}
	}
}

// positionNode picks the node whose token best marks where node starts: the
// first key for mappings, the node itself otherwise
func positionNode(node ast.Node) ast.Node {
	if entries := mappingEntries(node); len(entries) > 0 {
		return entries[0].Key
	}
	return node
}

// containerSpan points at an object that is missing a member or holds an unexpected one
func containerSpan(node, key ast.Node, isRoot bool) Span {
	switch {
	case isRoot:
		return rootSpan("document root object")
	case key != nil:
		return nodeSpan(key, 0.75, "containing object key")
	default:
		return nodeSpan(positionNode(node), 0.7, "containing array item")
	}
}

// fallback points at the nearest ancestor that exists, then at a textual match
func (m *Mapper) fallback(segments []segment, meta ErrorMeta) []Span {
	var candidates []Span

	for i := len(segments) - 1; i > 0; i-- {
		node, key := lookup(m.root, segments[:i])
		if node == nil {
			continue
		}
		target := key
		if target == nil {
			target = positionNode(node)
		}
		candidates = append(candidates, nodeSpan(target, 0.4, fmt.Sprintf("nearest existing ancestor at depth %d", i)))
		break
	}

	name := meta.Property
	if name == "" && len(segments) > 0 && !segments[len(segments)-1].isIndex() {
		name = segments[len(segments)-1].key
	}
	if name != "" {
		candidates = append(candidates, searchKeyInText(m.src, name)...)
	}
	return candidates
}

// searchKeyInText finds lines that declare name as a mapping key
func searchKeyInText(src []byte, name string) []Span {
	var spans []Span
	for i, line := range strings.Split(string(src), "\n") {
		trimmed := strings.TrimLeft(line, " -")
		if !strings.HasPrefix(trimmed, name+":") {
			continue
		}
		col := len(line) - len(trimmed) + 1
		spans = append(spans, Span{
			StartLine:  i + 1,
			StartCol:   col,
			EndLine:    i + 1,
			EndCol:     col + len(name),
			Confidence: 0.3,
			Reason:     fmt.Sprintf("text match for key '%s'", name),
		})
	}
	return spans
}

// nodeSpan builds a Span from the node's token
func nodeSpan(node ast.Node, confidence float64, reason string) Span {
	if tk := node.GetToken(); tk != nil && tk.Position != nil {
		return tokenSpan(tk, confidence, reason)
	}
	return Span{StartLine: 1, StartCol: 1, EndLine: 1, EndCol: 1, Confidence: confidence * 0.5, Reason: reason + " (no position)"}
}

func tokenSpan(tk *token.Token, confidence float64, reason string) Span {
	pos := tk.Position
	return Span{
		StartLine:  pos.Line,
		StartCol:   pos.Column,
		EndLine:    pos.Line,
		EndCol:     pos.Column + len(tk.Value),
		Confidence: confidence,
		Reason:     reason,
	}
}

func rootSpan(reason string) Span {
	return Span{StartLine: 1, StartCol: 1, EndLine: 1, EndCol: 1, Confidence: 0.9, Reason: reason}
}

// documentFallbackSpan is returned when nothing better is known
func documentFallbackSpan() Span {
	return Span{
		StartLine:  1,
		StartCol:   1,
		EndLine:    1,
		EndCol:     1,
		Confidence: 0.2,
		Reason:     "document-level fallback",
	}
}
