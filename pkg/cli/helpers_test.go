package cli

import (
	"os"
	"path/filepath"
	"testing"
)

const validRule = `{
  "ruleId": "R-100",
  "name": "High value order",
  "definition": {
    "type": "group",
    "operator": "AND",
    "expressions": [
      {
        "type": "condition",
        "field": "order.total",
        "operator": ">",
        "value": { "type": "literal", "dataType": "number", "value": 100 }
      }
    ]
  }
}`

const typoRule = `{
  "ruleId": "R-101",
  "name": "Typo in discriminator",
  "definition": {
    "type": "group",
    "operator": "AND",
    "expressions": [
      {
        "type": "conditon",
        "field": "order.total",
        "operator": ">",
        "value": { "type": "literal", "dataType": "number", "value": 100 }
      }
    ]
  }
}`

const incompleteRule = `{
  "ruleId": "R-104",
  "name": "Incomplete condition",
  "definition": {
    "type": "group",
    "operator": "AND",
    "expressions": [
      {
        "type": "condition",
        "field": "order.total"
      }
    ]
  }
}`

const semanticRule = `{
  "ruleId": "R-102",
  "name": "Comparison against text",
  "definition": {
    "type": "group",
    "operator": "AND",
    "expressions": [
      {
        "type": "condition",
        "field": "customer.name",
        "operator": ">",
        "value": { "type": "literal", "dataType": "string", "value": "M" }
      }
    ]
  }
}`

const yamlRule = `ruleId: R-103
name: Weekend orders
definition:
  type: group
  operator: XOR
  expressions:
    - type: condition
      field: order.day
      operator: in
      value:
        type: literal
        dataType: list
        value: [SAT, SUN]
`

// writeFiles creates files relative to a fresh temp dir and returns the dir
func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func mustEngine(t *testing.T) *Engine {
	t.Helper()
	engine, err := NewEngine("", "", false)
	if err != nil {
		t.Fatalf("failed to build engine: %v", err)
	}
	return engine
}
