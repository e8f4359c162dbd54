package validator

import "testing"

func TestValidateAcceptsMatchingTypes(t *testing.T) {
	v := NewPropertyValidator()

	result := v.Validate(map[string]any{
		"name":       "Alice",
		"age":        float64(30),
		"active":     true,
		"created_at": "2026-01-02T15:04:05Z",
		"ref":        "7c9e6679-7425-40de-944b-e07fc1f90ae7",
	}, map[string]FieldDefinition{
		"name":       {Type: FieldTypeString, Required: true},
		"age":        {Type: FieldTypeNumber},
		"active":     {Type: FieldTypeBoolean},
		"created_at": {Type: FieldTypeTimestamp},
		"ref":        {Type: FieldTypeUUID},
	})

	if !result.IsValid {
		t.Fatalf("expected valid result, got errors: %v", result.Errors)
	}
}

func TestValidateRejectsMissingRequiredField(t *testing.T) {
	v := NewPropertyValidator()

	result := v.Validate(map[string]any{}, map[string]FieldDefinition{
		"name": {Type: FieldTypeString, Required: true},
	})

	if result.IsValid || len(result.Errors) != 1 {
		t.Fatalf("expected one error, got %+v", result)
	}
	if result.Errors[0].Field != "name" {
		t.Fatalf("unexpected field: %s", result.Errors[0].Field)
	}
}

func TestValidateRejectsWrongTypes(t *testing.T) {
	v := NewPropertyValidator()

	result := v.Validate(map[string]any{
		"age":        "thirty",
		"created_at": "yesterday",
	}, map[string]FieldDefinition{
		"age":        {Type: FieldTypeNumber},
		"created_at": {Type: FieldTypeTimestamp},
	})

	if result.IsValid || len(result.Errors) != 2 {
		t.Fatalf("expected two errors, got %+v", result)
	}
}

func TestValidateIgnoresUndeclaredProperties(t *testing.T) {
	v := NewPropertyValidator()

	result := v.Validate(map[string]any{"extra": 1}, map[string]FieldDefinition{})
	if !result.IsValid {
		t.Fatalf("undeclared properties must pass: %+v", result)
	}
}
