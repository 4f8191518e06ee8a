package parser

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/githubnext/rulecheck/pkg/constants"
	"github.com/githubnext/rulecheck/pkg/validation"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/santhosh-tekuri/jsonschema/v6/kind"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

//go:embed schemas/rule_schema.json
var ruleSchema string

// RuleSchemaJSON returns the embedded rule document schema
func RuleSchemaJSON() string {
	return ruleSchema
}

// schemaURL is the resource name the schema is registered under with the compiler
const schemaURL = "http://rulecheck.local/rule_schema.json"

var printer = message.NewPrinter(language.English)

// SchemaValidator validates rule documents against a compiled JSON schema and
// reports every violation as a validation.ValidationError
type SchemaValidator struct {
	schema   *jsonschema.Schema
	filename string
	version  string
}

// DefaultSchemaValidator compiles the embedded rule schema
func DefaultSchemaValidator() (*SchemaValidator, error) {
	return NewSchemaValidator(ruleSchema, constants.DefaultSchemaFilename)
}

// NewSchemaValidator compiles schemaJSON. filename is only used to identify the
// schema in validation results.
func NewSchemaValidator(schemaJSON, filename string) (*SchemaValidator, error) {
	// Create a new compiler
	compiler := jsonschema.NewCompiler()

	// Parse the schema JSON first
	schemaDoc, err := jsonschema.UnmarshalJSON(strings.NewReader(schemaJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to parse schema %s: %w", filename, err)
	}

	if err := compiler.AddResource(schemaURL, schemaDoc); err != nil {
		return nil, fmt.Errorf("failed to add schema resource %s: %w", filename, err)
	}

	schema, err := compiler.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema %s: %w", filename, err)
	}

	return &SchemaValidator{
		schema:   schema,
		filename: filename,
		version:  schemaVersionOf(schemaDoc),
	}, nil
}

// SchemaFilename returns the name of the schema the validator was built from
func (v *SchemaValidator) SchemaFilename() string {
	return v.filename
}

// SchemaVersion returns the "version" declared by the schema, or "unversioned"
func (v *SchemaValidator) SchemaVersion() string {
	return v.version
}

// ValidateStructure validates doc and flattens the validator's error tree into
// one record per violation. oneOf failures also yield a marker record at the
// union's own path.
func (v *SchemaValidator) ValidateStructure(doc any) []validation.ValidationError {
	err := v.schema.Validate(doc)
	if err == nil {
		return nil
	}

	verr, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return []validation.ValidationError{{
			Type:    "schema",
			Code:    "schema.error",
			Path:    "$",
			Message: "$: " + err.Error(),
		}}
	}

	var errs []validation.ValidationError
	collectViolations(verr, doc, &errs)
	return errs
}

// collectViolations walks the error tree depth first. Container nodes only
// contribute their causes.
func collectViolations(verr *jsonschema.ValidationError, doc any, out *[]validation.ValidationError) {
	switch verr.ErrorKind.(type) {
	case *kind.Schema, *kind.Group, *kind.Reference, *kind.AllOf:
		for _, cause := range verr.Causes {
			collectViolations(cause, doc, out)
		}
		return
	}

	*out = append(*out, convertViolation(verr, doc)...)
	for _, cause := range verr.Causes {
		collectViolations(cause, doc, out)
	}
}

// convertViolation turns one error tree node into validation errors. required and
// additionalProperties produce one record per property.
func convertViolation(verr *jsonschema.ValidationError, doc any) []validation.ValidationError {
	path := instancePath(doc, verr.InstanceLocation)
	schemaPath := keywordLocation(verr)

	newError := func(t validation.ErrorType, msg string, args ...any) validation.ValidationError {
		return validation.ValidationError{
			Type:       t,
			Code:       "schema." + string(t),
			Path:       path,
			SchemaPath: schemaPath,
			Message:    msg,
			Arguments:  args,
		}
	}

	switch k := verr.ErrorKind.(type) {
	case *kind.Required:
		errs := make([]validation.ValidationError, 0, len(k.Missing))
		for _, prop := range k.Missing {
			errs = append(errs, newError(validation.TypeRequired,
				fmt.Sprintf("%s.%s: is missing but it is required", path, prop), prop))
		}
		return errs

	case *kind.AdditionalProperties:
		errs := make([]validation.ValidationError, 0, len(k.Properties))
		for _, prop := range k.Properties {
			errs = append(errs, newError(validation.TypeAdditionalProperties,
				fmt.Sprintf("%s.%s: is not defined in the schema and the schema does not allow additional properties", path, prop), prop))
		}
		return errs

	case *kind.Type:
		args := []any{k.Got}
		for _, want := range k.Want {
			args = append(args, want)
		}
		return []validation.ValidationError{newError(validation.TypeType,
			fmt.Sprintf("%s: %s found, %s expected", path, k.Got, strings.Join(k.Want, " or ")), args...)}

	case *kind.Enum:
		return []validation.ValidationError{newError(validation.TypeEnum,
			fmt.Sprintf("%s: does not have a value in the enumeration %s", path, formatValues(k.Want)), k.Want...)}

	case *kind.Const:
		return []validation.ValidationError{newError(validation.TypeConst,
			fmt.Sprintf("%s: must be the constant value %s", path, formatValue(k.Want)), k.Want)}

	case *kind.Pattern:
		return []validation.ValidationError{newError(validation.TypePattern,
			fmt.Sprintf("%s: does not match the regex pattern %s", path, k.Want), k.Want)}

	case *kind.OneOf:
		return []validation.ValidationError{newError(validation.TypeOneOf,
			fmt.Sprintf("%s: should be valid to one and only one schema, but %d are valid", path, len(k.Subschemas)), len(k.Subschemas))}

	case *kind.AnyOf:
		return []validation.ValidationError{newError("anyOf",
			fmt.Sprintf("%s: should be valid to at least one schema", path))}
	}

	keyword := "schema"
	if kp := verr.ErrorKind.KeywordPath(); len(kp) > 0 {
		keyword = kp[0]
	}
	return []validation.ValidationError{newError(validation.ErrorType(keyword),
		fmt.Sprintf("%s: %s", path, verr.ErrorKind.LocalizedString(printer)))}
}

// instancePath renders an instance location as "$.a.b[0].c", using the document to
// tell array indexes from object keys
func instancePath(doc any, location []string) string {
	var sb strings.Builder
	sb.WriteString("$")

	current := doc
	for _, token := range location {
		switch value := current.(type) {
		case []any:
			sb.WriteString("[" + token + "]")
			current = nil
			if i, err := strconv.Atoi(token); err == nil && i >= 0 && i < len(value) {
				current = value[i]
			}
		case map[string]any:
			sb.WriteString("." + token)
			current = value[token]
		default:
			if _, err := strconv.Atoi(token); err == nil {
				sb.WriteString("[" + token + "]")
			} else {
				sb.WriteString("." + token)
			}
			current = nil
		}
	}
	return sb.String()
}

// keywordLocation returns the schema-relative location of the keyword that failed,
// e.g. "#/definitions/Condition/required"
func keywordLocation(verr *jsonschema.ValidationError) string {
	fragment := "#"
	if idx := strings.Index(verr.SchemaURL, "#"); idx >= 0 {
		fragment = verr.SchemaURL[idx:]
	}
	for _, token := range verr.ErrorKind.KeywordPath() {
		token = strings.ReplaceAll(token, "~", "~0")
		token = strings.ReplaceAll(token, "/", "~1")
		fragment += "/" + token
	}
	return fragment
}

func formatValues(values []any) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = formatValue(v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func formatValue(v any) string {
	switch val := v.(type) {
	case string:
		return "'" + val + "'"
	case json.Number:
		return val.String()
	case nil:
		return "null"
	}
	if data, err := json.Marshal(v); err == nil {
		return string(data)
	}
	return fmt.Sprint(v)
}

// schemaVersionOf reads the top level "version" of a schema document
func schemaVersionOf(schemaDoc any) string {
	if m, ok := schemaDoc.(map[string]any); ok {
		switch version := m["version"].(type) {
		case string:
			return version
		case json.Number:
			return version.String()
		}
	}
	return "unversioned"
}
