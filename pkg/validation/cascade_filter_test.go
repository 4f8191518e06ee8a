package validation

import (
	"fmt"
	"testing"
)

func verr(t ErrorType, path, schemaPath, message string) ValidationError {
	return ValidationError{
		Type:       t,
		Code:       string(t),
		Path:       path,
		SchemaPath: schemaPath,
		Message:    message,
	}
}

func oneOfMarker(path string) ValidationError {
	return verr(TypeOneOf, path, "#/definitions/Expression/oneOf", path+": should be valid to one and only one schema, but 0 are valid")
}

func typesOf(errs []ValidationError) []ErrorType {
	types := make([]ErrorType, len(errs))
	for i, e := range errs {
		types[i] = e.Type
	}
	return types
}

func TestFilterCascadingErrorsEmpty(t *testing.T) {
	for _, input := range [][]ValidationError{nil, {}} {
		result := FilterCascadingErrors(input)
		if len(result.FilteredErrors) != 0 {
			t.Errorf("expected no errors, got %d", len(result.FilteredErrors))
		}
		if result.FilteredErrors == nil {
			t.Error("expected non-nil empty slice")
		}
		if result.SuppressedCount != 0 || result.HasHiddenErrors {
			t.Errorf("expected no suppression, got %+v", result)
		}
	}
}

func TestDeduplicateMessages(t *testing.T) {
	input := []ValidationError{
		verr(TypeRequired, "$.a", "#/definitions/A/required", "$.a.x: is missing"),
		verr(TypeRequired, "$.a", "#/definitions/B/required", "$.a.x: is missing"),
		verr(TypeType, "$.b", "", ""),
		verr(TypeType, "$.c", "", ""),
		verr(TypeEnum, "$.d", "", "$.d: not in enum"),
	}

	got := DeduplicateMessages(input)
	if len(got) != 4 {
		t.Fatalf("expected 4 errors, got %d: %v", len(got), got)
	}
	if got[0].SchemaPath != "#/definitions/A/required" {
		t.Errorf("expected first-seen error to be kept, got %q", got[0].SchemaPath)
	}
	if got[1].Path != "$.b" || got[2].Path != "$.c" {
		t.Errorf("errors without message must never be deduplicated, got %v", got)
	}
}

func TestSchemaDefinition(t *testing.T) {
	tests := []struct {
		schemaPath string
		want       string
	}{
		{"#/definitions/Condition/required", "#/definitions/Condition"},
		{"#/definitions/ConditionGroup/properties/type/const", "#/definitions/ConditionGroup"},
		{"#/definitions/Value", "#/definitions/Value"},
		{"#/$defs/Literal/additionalProperties", "#/$defs/Literal"},
		{"#/properties/name/type", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.schemaPath, func(t *testing.T) {
			if got := schemaDefinition(tt.schemaPath); got != tt.want {
				t.Errorf("schemaDefinition(%q) = %q, want %q", tt.schemaPath, got, tt.want)
			}
		})
	}
}

func TestDeduplicateBranches(t *testing.T) {
	tests := []struct {
		name  string
		input []ValidationError
		want  []ErrorType
	}{
		{
			name: "single definition keeps everything",
			input: []ValidationError{
				verr(TypeRequired, "$.a", "#/definitions/A/required", "m1"),
				verr(TypeType, "$.a", "#/definitions/A/properties/x/type", "m2"),
			},
			want: []ErrorType{TypeRequired, TypeType},
		},
		{
			name: "root causes win across branches",
			input: []ValidationError{
				verr(TypeRequired, "$.a", "#/definitions/A/required", "m1"),
				verr(TypeConst, "$.a", "#/definitions/A/properties/type/const", "m2"),
				verr(TypeRequired, "$.a", "#/definitions/B/required", "m3"),
				verr(TypePattern, "$.a", "#/definitions/B/pattern", "m4"),
			},
			want: []ErrorType{TypeConst, TypePattern},
		},
		{
			name: "required capped at three",
			input: []ValidationError{
				verr(TypeRequired, "$.a", "#/definitions/A/required", "m1"),
				verr(TypeRequired, "$.a", "#/definitions/B/required", "m2"),
				verr(TypeRequired, "$.a", "#/definitions/B/required", "m3"),
				verr(TypeRequired, "$.a", "#/definitions/B/required", "m4"),
				verr(TypeType, "$.a", "#/definitions/B/type", "m5"),
			},
			want: []ErrorType{TypeRequired, TypeRequired, TypeRequired},
		},
		{
			name: "falls back to first branch",
			input: []ValidationError{
				verr(TypeType, "$.a", "#/definitions/A/type", "m1"),
				verr("minLength", "$.a", "#/definitions/A/minLength", "m2"),
				verr(TypeType, "$.a", "#/definitions/B/type", "m3"),
			},
			want: []ErrorType{TypeType, "minLength"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := typesOf(DeduplicateBranches(tt.input))
			if fmt.Sprint(got) != fmt.Sprint(tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSelectActionable(t *testing.T) {
	tests := []struct {
		name  string
		input []ValidationError
		want  []ErrorType
	}{
		{
			name: "priority picks enum over required",
			input: []ValidationError{
				verr(TypeRequired, "$.a", "", "m1"),
				verr(TypeEnum, "$.a", "", "m2"),
				verr(TypeType, "$.a", "", "m3"),
			},
			want: []ErrorType{TypeEnum},
		},
		{
			name: "const before pattern",
			input: []ValidationError{
				verr(TypePattern, "$.a", "", "m1"),
				verr(TypeConst, "$.a", "", "m2"),
			},
			want: []ErrorType{TypeConst},
		},
		{
			name: "unknown types fall back to first",
			input: []ValidationError{
				verr("operatorType", "$.a", "", "m1"),
				verr("functionArity", "$.a", "", "m2"),
			},
			want: []ErrorType{"operatorType"},
		},
		{
			name: "root cause ties keep one error per definition",
			input: []ValidationError{
				verr(TypeConst, "$.a.type", "#/definitions/A/properties/type/const", "m1"),
				verr(TypeConst, "$.a.type", "#/definitions/B/properties/type/const", "m2"),
				verr(TypeConst, "$.a.type", "#/definitions/B/properties/type/const", "m3"),
			},
			want: []ErrorType{TypeConst, TypeConst},
		},
		{
			name: "required ties keep a single error",
			input: []ValidationError{
				verr(TypeRequired, "$.a", "#/definitions/A/required", "m1"),
				verr(TypeRequired, "$.a", "#/definitions/B/required", "m2"),
			},
			want: []ErrorType{TypeRequired},
		},
		{
			name: "oneOf group keeps root causes",
			input: []ValidationError{
				oneOfMarker("$.a"),
				verr(TypeEnum, "$.a", "", "m1"),
				verr(TypePattern, "$.a", "", "m2"),
				verr(TypeRequired, "$.a", "", "m3"),
			},
			want: []ErrorType{TypeEnum, TypePattern},
		},
		{
			name: "oneOf group defers to child root cause",
			input: []ValidationError{
				oneOfMarker("$.a"),
				verr(TypeRequired, "$.a", "", "m1"),
				verr(TypeConst, "$.a.type", "", "m2"),
			},
			want: []ErrorType{TypeOneOf, TypeConst},
		},
		{
			name: "oneOf group keeps up to three required",
			input: []ValidationError{
				oneOfMarker("$.a"),
				verr(TypeRequired, "$.a", "", "m1"),
				verr(TypeRequired, "$.a", "", "m2"),
				verr(TypeRequired, "$.a", "", "m3"),
				verr(TypeRequired, "$.a", "", "m4"),
			},
			want: []ErrorType{TypeRequired, TypeRequired, TypeRequired},
		},
		{
			name: "oneOf group with only type errors keeps marker",
			input: []ValidationError{
				oneOfMarker("$.a"),
				verr(TypeType, "$.a", "", "m1"),
			},
			want: []ErrorType{TypeOneOf},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := typesOf(SelectActionable(tt.input))
			if fmt.Sprint(got) != fmt.Sprint(tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSuppressOneOfCascades(t *testing.T) {
	tests := []struct {
		name  string
		input []ValidationError
		want  []ErrorType
	}{
		{
			name: "additional property narrows the set",
			input: []ValidationError{
				verr(TypeAdditionalProperties, "$.a", "", "m1"),
				verr(TypeEnum, "$.b", "", "m2"),
				verr(TypeRequired, "$.c", "", "m3"),
				oneOfMarker("$.d"),
			},
			want: []ErrorType{TypeAdditionalProperties, TypeRequired},
		},
		{
			name: "specific errors drop markers",
			input: []ValidationError{
				oneOfMarker("$.a"),
				verr(TypeEnum, "$.b", "", "m1"),
			},
			want: []ErrorType{TypeEnum},
		},
		{
			name: "markers alone are kept",
			input: []ValidationError{
				oneOfMarker("$.a"),
				oneOfMarker("$.b"),
			},
			want: []ErrorType{TypeOneOf, TypeOneOf},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := typesOf(SuppressOneOfCascades(tt.input))
			if fmt.Sprint(got) != fmt.Sprint(tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSuppressParentErrors(t *testing.T) {
	input := []ValidationError{
		verr(TypeConst, "$.a", "", "parent const"),
		verr(TypeRequired, "$.a", "", "parent required"),
		verr(TypeEnum, "$.a.b", "", "child enum"),
		verr(TypeEnum, "$.list", "", "list enum"),
		verr(TypePattern, "$.list[0]", "", "item pattern"),
		verr(TypeEnum, "$.ab", "", "sibling enum"),
	}

	got := SuppressParentErrors(input)
	var messages []string
	for _, e := range got {
		messages = append(messages, e.Message)
	}
	want := []string{"parent required", "child enum", "item pattern", "sibling enum"}
	if fmt.Sprint(messages) != fmt.Sprint(want) {
		t.Errorf("got %v, want %v", messages, want)
	}
}

func TestFilterPriorityLaw(t *testing.T) {
	input := []ValidationError{
		verr(TypeRequired, "$.x", "#/definitions/A/required", "$.x.name: is missing but it is required"),
		verr(TypeEnum, "$.x", "#/definitions/A/enum", "$.x: does not have a value in the enumeration"),
	}

	result := FilterCascadingErrors(input)
	if got := typesOf(result.FilteredErrors); fmt.Sprint(got) != "[enum]" {
		t.Errorf("expected only the enum error, got %v", got)
	}
}

func TestFilterRootCauseWinsOverCascade(t *testing.T) {
	input := []ValidationError{
		oneOfMarker("$.x"),
		verr(TypeEnum, "$.x", "#/definitions/Expression/enum", "$.x: does not have a value in the enumeration"),
	}

	result := FilterCascadingErrors(input)
	if got := typesOf(result.FilteredErrors); fmt.Sprint(got) != "[enum]" {
		t.Errorf("expected only the enum error, got %v", got)
	}
	if result.SuppressedCount != 1 || !result.HasHiddenErrors {
		t.Errorf("expected one hidden error, got %+v", result)
	}
}

func TestFilterChildBeatsParent(t *testing.T) {
	input := []ValidationError{
		verr(TypeConst, "$.a", "#/definitions/A/const", "$.a: must be the constant value 'x'"),
		verr(TypeEnum, "$.a.b", "#/definitions/A/properties/b/enum", "$.a.b: does not have a value in the enumeration"),
	}

	result := FilterCascadingErrors(input)
	for _, e := range result.FilteredErrors {
		if e.Path == "$.a" {
			t.Errorf("parent error should be suppressed, got %v", result.FilteredErrors)
		}
	}
	if len(result.FilteredErrors) != 1 {
		t.Errorf("expected one error, got %d", len(result.FilteredErrors))
	}
}

func TestFilterAdditionalPropertiesDominance(t *testing.T) {
	input := []ValidationError{
		verr(TypeAdditionalProperties, "$.y", "#/definitions/A/additionalProperties", "$.y.colour: is not defined in the schema"),
		verr(TypeEnum, "$.y.z", "#/definitions/A/properties/z/enum", "$.y.z: does not have a value in the enumeration"),
		oneOfMarker("$.y"),
	}

	result := FilterCascadingErrors(input)
	if got := typesOf(result.FilteredErrors); fmt.Sprint(got) != "[additionalProperties]" {
		t.Errorf("expected only the additionalProperties error, got %v", got)
	}
}

func TestFilterScenarioDiscriminatorTypo(t *testing.T) {
	path := "$.definition.expressions[0]"
	input := []ValidationError{
		verr(TypeConst, path, "#/definitions/Condition/properties/type/const", path+".type: must be the constant value 'condition'"),
		verr(TypeConst, path, "#/definitions/ConditionGroup/properties/type/const", path+".type: must be the constant value 'group'"),
	}
	for i := 0; i < 13; i++ {
		def := "Condition"
		if i%2 == 1 {
			def = "ConditionGroup"
		}
		input = append(input, verr(TypeRequired, path, "#/definitions/"+def+"/required",
			fmt.Sprintf("%s.prop%d: is missing but it is required", path, i)))
	}

	result := FilterCascadingErrors(input)
	if len(result.FilteredErrors) < 1 || len(result.FilteredErrors) > 2 {
		t.Fatalf("expected 1-2 errors, got %d: %v", len(result.FilteredErrors), result.FilteredErrors)
	}
	for _, e := range result.FilteredErrors {
		if e.Type != TypeConst && e.Type != TypeEnum {
			t.Errorf("expected only const/enum errors, got %v", e.Type)
		}
	}
	if result.SuppressedCount != 13 {
		t.Errorf("expected 13 suppressed errors, got %d", result.SuppressedCount)
	}
}

func TestFilterScenarioMissingField(t *testing.T) {
	path := "$.definition.expressions[0]"
	legit := verr(TypeRequired, path, "#/definitions/Condition/required", path+".value: is missing but it is required")
	input := []ValidationError{oneOfMarker(path), legit}
	for i := 0; i < 9; i++ {
		input = append(input, verr(TypeRequired, path, "#/definitions/ConditionGroup/required",
			fmt.Sprintf("%s.groupProp%d: is missing but it is required", path, i)))
	}

	result := FilterCascadingErrors(input)
	if len(result.FilteredErrors) != 1 {
		t.Fatalf("expected exactly one error, got %d: %v", len(result.FilteredErrors), result.FilteredErrors)
	}
	if result.FilteredErrors[0].Message != legit.Message {
		t.Errorf("expected the legitimate required error, got %q", result.FilteredErrors[0].Message)
	}
	if result.SuppressedCount != 10 {
		t.Errorf("expected 10 suppressed, got %d", result.SuppressedCount)
	}
}

// propertyInputs are inputs shared by the conservation, idempotence and
// non-emptiness checks
func propertyInputs() map[string][]ValidationError {
	return map[string][]ValidationError{
		"single": {verr(TypeType, "$.a", "", "m")},
		"markers only": {
			oneOfMarker("$.a"),
			oneOfMarker("$.b"),
		},
		"mixed cascade": {
			oneOfMarker("$.definition"),
			verr(TypeRequired, "$.definition", "#/definitions/ConditionGroup/required", "$.definition.expressions: missing"),
			verr(TypeConst, "$.definition.type", "#/definitions/Condition/properties/type/const", "$.definition.type: const condition"),
			verr(TypeConst, "$.definition.type", "#/definitions/ConditionGroup/properties/type/const", "$.definition.type: const group"),
			verr(TypeEnum, "$.definition.operator", "#/definitions/ConditionGroup/properties/operator/enum", "$.definition.operator: enum"),
			verr(TypeType, "$.version", "#/properties/version/type", "$.version: integer expected"),
			verr("operatorType", "$.definition.expressions[0].operator", "", "$.definition.expressions[0].operator: not applicable"),
		},
		"additional properties": {
			verr(TypeAdditionalProperties, "$.y", "#/definitions/A/additionalProperties", "$.y.a: not defined"),
			verr(TypeAdditionalProperties, "$.y", "#/definitions/B/additionalProperties", "$.y.b: not defined"),
			verr(TypeEnum, "$.y.z", "#/definitions/A/properties/z/enum", "$.y.z: enum"),
			verr(TypeRequired, "$.y", "#/definitions/B/required", "$.y.q: missing"),
		},
		"null messages": {
			verr(TypeRequired, "", "", ""),
			verr(TypeRequired, "", "", ""),
		},
	}
}

func TestFilterConservation(t *testing.T) {
	for name, input := range propertyInputs() {
		t.Run(name, func(t *testing.T) {
			result := FilterCascadingErrors(input)
			if result.SuppressedCount+len(result.FilteredErrors) != len(input) {
				t.Errorf("suppressed %d + kept %d != original %d", result.SuppressedCount, len(result.FilteredErrors), len(input))
			}
		})
	}
}

func TestFilterNonEmpty(t *testing.T) {
	for name, input := range propertyInputs() {
		t.Run(name, func(t *testing.T) {
			if result := FilterCascadingErrors(input); len(result.FilteredErrors) == 0 {
				t.Error("filter erased a non-empty error set")
			}
		})
	}
}

func TestFilterIdempotent(t *testing.T) {
	for name, input := range propertyInputs() {
		t.Run(name, func(t *testing.T) {
			first := FilterCascadingErrors(input)
			second := FilterCascadingErrors(first.FilteredErrors)
			if second.SuppressedCount != 0 {
				t.Errorf("second pass suppressed %d errors: %v -> %v", second.SuppressedCount, first.FilteredErrors, second.FilteredErrors)
			}
		})
	}
}

func TestFilterDoesNotMutateInput(t *testing.T) {
	input := []ValidationError{
		oneOfMarker("$.x"),
		verr(TypeEnum, "$.x", "", "enum"),
		verr(TypeRequired, "$.x", "", "required"),
	}
	snapshot := fmt.Sprint(input)

	FilterCascadingErrors(input)
	if fmt.Sprint(input) != snapshot {
		t.Error("input slice was modified")
	}
}
