package pipeline

import (
	"context"
	"fmt"

	"github.com/rpattn/dimstore/internal/domain"
	"github.com/rpattn/dimstore/pkg/validator"
)

// PropertyValidation is a before-persist stage that rejects records
// whose properties do not match the dimension's declared fields.
type PropertyValidation struct {
	fields    map[string]validator.FieldDefinition
	validator *validator.PropertyValidator
}

// NewPropertyValidation builds a validation stage for one dimension's
// field definitions.
func NewPropertyValidation(fields map[string]validator.FieldDefinition) *PropertyValidation {
	return &PropertyValidation{
		fields:    fields,
		validator: validator.NewPropertyValidator(),
	}
}

// BeforePersist implements BeforePersister.
func (v *PropertyValidation) BeforePersist(_ context.Context, dim domain.Dimension, rec *domain.Record) error {
	result := v.validator.Validate(rec.Properties, v.fields)
	if result.IsValid {
		return nil
	}
	return fmt.Errorf("invalid %s properties: %v", dim.Name, result.Errors)
}
