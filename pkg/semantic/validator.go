// Package semantic checks rule documents against a business catalog of operators,
// functions and fields. It only inspects subtrees that are structurally sound;
// anything malformed is left to the schema validator.
package semantic

import (
	"fmt"

	"github.com/githubnext/rulecheck/pkg/validation"
)

// Semantic diagnostic types
const (
	TypeOperatorType    validation.ErrorType = "operatorType"
	TypeFunctionArity   validation.ErrorType = "functionArity"
	TypeUnknownFunction validation.ErrorType = "unknownFunction"
	TypeUnknownField    validation.ErrorType = "unknownField"
	TypeGroupArity      validation.ErrorType = "groupArity"
)

// Validator implements validation.SemanticValidator
type Validator struct {
	catalog *Catalog
}

// New creates a semantic validator for catalog
func New(catalog *Catalog) *Validator {
	return &Validator{catalog: catalog}
}

// NewDefault creates a semantic validator backed by the embedded catalog
func NewDefault() (*Validator, error) {
	catalog, err := DefaultCatalog()
	if err != nil {
		return nil, err
	}
	return New(catalog), nil
}

// ValidateSemantics walks the rule definition and reports catalog violations
func (v *Validator) ValidateSemantics(doc any) []validation.ValidationError {
	root, ok := doc.(map[string]any)
	if !ok {
		return nil
	}
	definition, ok := root["definition"].(map[string]any)
	if !ok {
		return nil
	}

	w := &walker{catalog: v.catalog}
	w.expression("$.definition", definition)
	return w.errs
}

type walker struct {
	catalog *Catalog
	errs    []validation.ValidationError
}

func (w *walker) report(t validation.ErrorType, path, message string, args ...any) {
	w.errs = append(w.errs, validation.ValidationError{
		Type:      t,
		Code:      "semantic." + string(t),
		Path:      path,
		Message:   fmt.Sprintf("%s: %s", path, message),
		Arguments: args,
	})
}

func (w *walker) expression(path string, node map[string]any) {
	switch stringField(node, "type") {
	case "group":
		w.group(path, node)
	case "condition":
		w.condition(path, node)
	}
}

func (w *walker) group(path string, node map[string]any) {
	expressions, ok := node["expressions"].([]any)
	if !ok {
		return
	}
	if stringField(node, "operator") == "NOT" && len(expressions) != 1 {
		w.report(TypeGroupArity, path+".expressions",
			fmt.Sprintf("NOT groups take exactly one expression, got %d", len(expressions)),
			"NOT", len(expressions))
	}
	for i, item := range expressions {
		if child, ok := item.(map[string]any); ok {
			w.expression(fmt.Sprintf("%s.expressions[%d]", path, i), child)
		}
	}
}

func (w *walker) condition(path string, node map[string]any) {
	if field := stringField(node, "field"); field != "" && !w.catalog.knowsField(field) {
		w.report(TypeUnknownField, path+".field", fmt.Sprintf("field '%s' is not defined in the catalog", field), field)
	}

	operator := stringField(node, "operator")
	value, ok := node["value"].(map[string]any)
	if !ok {
		return
	}
	dataType := w.value(path+".value", value)
	if operator != "" && !w.catalog.operatorAccepts(operator, dataType) {
		w.report(TypeOperatorType, path+".operator",
			fmt.Sprintf("operator '%s' cannot be applied to %s values", operator, dataType),
			operator, dataType)
	}
}

// value checks a value node and returns its data type, or "" when unknown
func (w *walker) value(path string, node map[string]any) string {
	switch stringField(node, "type") {
	case "literal":
		return stringField(node, "dataType")
	case "field":
		field := stringField(node, "field")
		if field == "" {
			return ""
		}
		if !w.catalog.knowsField(field) {
			w.report(TypeUnknownField, path+".field", fmt.Sprintf("field '%s' is not defined in the catalog", field), field)
			return ""
		}
		return w.catalog.fieldType(field)
	case "function":
		return w.function(path, node)
	case "arithmetic":
		w.operand(path, "left", node)
		w.operand(path, "right", node)
		return "number"
	}
	return ""
}

func (w *walker) function(path string, node map[string]any) string {
	args, _ := node["args"].([]any)
	for i, arg := range args {
		if child, ok := arg.(map[string]any); ok {
			w.value(fmt.Sprintf("%s.args[%d]", path, i), child)
		}
	}

	name := stringField(node, "name")
	if name == "" {
		return ""
	}
	fn, ok := w.catalog.Functions[name]
	if !ok {
		w.report(TypeUnknownFunction, path+".name", fmt.Sprintf("function '%s' is not defined in the catalog", name), name)
		return ""
	}
	if !fn.AcceptsArgs(len(args)) {
		w.report(TypeFunctionArity, path+".args", arityMessage(name, fn, len(args)), name, len(args))
	}
	return fn.Returns
}

func (w *walker) operand(path, side string, node map[string]any) {
	child, ok := node[side].(map[string]any)
	if !ok {
		return
	}
	operandPath := path + "." + side
	dataType := w.value(operandPath, child)
	if dataType != "" && dataType != DataTypeAny && dataType != "number" {
		w.report(TypeOperatorType, operandPath,
			fmt.Sprintf("arithmetic operator '%s' needs number operands, got %s", stringField(node, "operator"), dataType),
			stringField(node, "operator"), dataType)
	}
}

func arityMessage(name string, fn Function, got int) string {
	switch {
	case fn.MaxArgs == fn.MinArgs:
		return fmt.Sprintf("function '%s' takes %d argument(s), got %d", name, fn.MinArgs, got)
	case fn.MaxArgs < 0:
		return fmt.Sprintf("function '%s' takes at least %d argument(s), got %d", name, fn.MinArgs, got)
	default:
		return fmt.Sprintf("function '%s' takes between %d and %d arguments, got %d", name, fn.MinArgs, fn.MaxArgs, got)
	}
}

func stringField(node map[string]any, key string) string {
	s, _ := node[key].(string)
	return s
}
