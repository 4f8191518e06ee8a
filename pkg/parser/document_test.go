package parser

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestFormatFromFilename(t *testing.T) {
	tests := []struct {
		filename string
		want     DocumentFormat
		wantErr  bool
	}{
		{"rule.json", FormatJSON, false},
		{"RULE.JSON", FormatJSON, false},
		{"rule", FormatJSON, false},
		{"rule.yaml", FormatYAML, false},
		{"dir/rule.yml", FormatYAML, false},
		{"rule.toml", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			got, err := FormatFromFilename(tt.filename)
			if tt.wantErr {
				if !errors.Is(err, ErrUnsupportedFormat) {
					t.Errorf("expected ErrUnsupportedFormat, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseRuleDocumentJSON(t *testing.T) {
	doc, err := ParseRuleDocument([]byte(validRuleJSON), "rules/high-value.json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Format != FormatJSON || doc.Filename != "rules/high-value.json" || doc.Raw != validRuleJSON {
		t.Errorf("unexpected document metadata: %+v", doc)
	}

	data, ok := doc.Data.(map[string]any)
	if !ok {
		t.Fatalf("expected an object, got %T", doc.Data)
	}
	if _, ok := data["version"].(json.Number); !ok {
		t.Errorf("expected numbers to decode as json.Number, got %T", data["version"])
	}
}

func TestParseRuleDocumentYAML(t *testing.T) {
	content := `ruleId: R-7
name: Weekend orders
definition:
  type: group
  operator: OR
  expressions:
    - type: condition
      field: order.day
      operator: in
      value:
        type: literal
        dataType: list
        value: [SAT, SUN]
`
	doc, err := ParseRuleDocument([]byte(content), "weekend.yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Format != FormatYAML {
		t.Errorf("expected YAML format, got %q", doc.Format)
	}

	v := mustValidator(t)
	if errs := v.ValidateStructure(doc.Data); len(errs) != 0 {
		t.Errorf("expected YAML rule to be valid, got %+v", errs)
	}
}

func TestParseRuleDocumentSyntaxErrors(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		content  string
		wantLine int
	}{
		{
			name:     "empty json",
			filename: "empty.json",
			content:  "  \n",
			wantLine: 1,
		},
		{
			name:     "invalid json on third line",
			filename: "bad.json",
			content:  "{\n  \"ruleId\": \"R-1\",\n  \"name\": ,\n}",
			wantLine: 3,
		},
		{
			name:     "truncated json",
			filename: "truncated.json",
			content:  "{\n  \"ruleId\": \"R-1\",\n",
			wantLine: 3,
		},
		{
			name:     "empty yaml",
			filename: "empty.yaml",
			content:  "",
			wantLine: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRuleDocument([]byte(tt.content), tt.filename)
			var syntaxErr *SyntaxError
			if !errors.As(err, &syntaxErr) {
				t.Fatalf("expected a SyntaxError, got %v", err)
			}
			if syntaxErr.Line != tt.wantLine {
				t.Errorf("line = %d, want %d (%v)", syntaxErr.Line, tt.wantLine, syntaxErr)
			}
		})
	}
}

func TestParseRuleDocumentInvalidYAML(t *testing.T) {
	_, err := ParseRuleDocument([]byte("ruleId: R-1\nname: [unclosed\n"), "bad.yaml")
	var syntaxErr *SyntaxError
	if !errors.As(err, &syntaxErr) {
		t.Fatalf("expected a SyntaxError, got %v", err)
	}
	if syntaxErr.Line < 1 {
		t.Errorf("expected a positive line number, got %d", syntaxErr.Line)
	}
}

func TestOffsetToLineColumn(t *testing.T) {
	content := []byte("ab\ncd\nef")
	tests := []struct {
		offset     int64
		wantLine   int
		wantColumn int
	}{
		{0, 1, 1},
		{2, 1, 2},
		{4, 2, 1},
		{8, 3, 2},
		{100, 3, 2},
	}

	for _, tt := range tests {
		line, column := offsetToLineColumn(content, tt.offset)
		if line != tt.wantLine || column != tt.wantColumn {
			t.Errorf("offsetToLineColumn(%d) = %d:%d, want %d:%d", tt.offset, line, column, tt.wantLine, tt.wantColumn)
		}
	}
}

func TestSyntaxErrorDiagnostic(t *testing.T) {
	err := &SyntaxError{Line: 4, Column: 2, Message: "invalid character '}'"}
	d := err.Diagnostic()

	if d.Type != TypeSyntax || d.Code != "document.syntax" || d.Path != "$" {
		t.Errorf("unexpected diagnostic %+v", d)
	}
	if line, ok := d.Line(); !ok || line != 4 {
		t.Errorf("expected line 4, got %d (%v)", line, ok)
	}
	if d.Message != "$: invalid character '}'" {
		t.Errorf("unexpected message %q", d.Message)
	}
}
