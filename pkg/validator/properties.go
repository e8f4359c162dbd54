package validator

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// FieldType enumerates the value types a dimension property may declare.
type FieldType string

const (
	FieldTypeString    FieldType = "string"
	FieldTypeNumber    FieldType = "number"
	FieldTypeBoolean   FieldType = "boolean"
	FieldTypeTimestamp FieldType = "timestamp"
	FieldTypeUUID      FieldType = "uuid"
)

// FieldDefinition declares the expected shape of one property.
type FieldDefinition struct {
	Type     FieldType `json:"type"`
	Required bool      `json:"required"`
}

// ValidationError describes one rejected property.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Value   any    `json:"value,omitempty"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Result collects the outcome of validating one property map.
type Result struct {
	IsValid bool              `json:"is_valid"`
	Errors  []ValidationError `json:"errors"`
}

// PropertyValidator validates record properties against field
// definitions.
type PropertyValidator struct{}

// NewPropertyValidator creates a property validator.
func NewPropertyValidator() *PropertyValidator {
	return &PropertyValidator{}
}

// Validate checks every declared field against the given properties.
// Undeclared properties pass through untouched.
func (v *PropertyValidator) Validate(properties map[string]any, fields map[string]FieldDefinition) Result {
	result := Result{IsValid: true, Errors: []ValidationError{}}

	for name, def := range fields {
		value, exists := properties[name]

		if def.Required && (!exists || value == nil) {
			result.IsValid = false
			result.Errors = append(result.Errors, ValidationError{
				Field:   name,
				Message: "required field is missing",
			})
			continue
		}
		if !exists || value == nil {
			continue
		}

		if err := validateFieldType(value, def.Type); err != nil {
			result.IsValid = false
			result.Errors = append(result.Errors, ValidationError{
				Field:   name,
				Message: err.Error(),
				Value:   value,
			})
		}
	}

	return result
}

func validateFieldType(value any, fieldType FieldType) error {
	switch fieldType {
	case FieldTypeString:
		if _, ok := value.(string); !ok {
			return fmt.Errorf("expected string, got %T", value)
		}
	case FieldTypeNumber:
		switch value.(type) {
		case float64, float32, int, int32, int64:
		default:
			return fmt.Errorf("expected number, got %T", value)
		}
	case FieldTypeBoolean:
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("expected boolean, got %T", value)
		}
	case FieldTypeTimestamp:
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("expected RFC3339 timestamp string, got %T", value)
		}
		if _, err := time.Parse(time.RFC3339, s); err != nil {
			return fmt.Errorf("invalid timestamp: %v", err)
		}
	case FieldTypeUUID:
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("expected UUID string, got %T", value)
		}
		if _, err := uuid.Parse(s); err != nil {
			return fmt.Errorf("invalid UUID: %v", err)
		}
	default:
		return fmt.Errorf("unknown field type %q", fieldType)
	}
	return nil
}
