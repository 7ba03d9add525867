// Package validation validates request structs with go-playground/validator
// and converts failures into domain validation errors.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	domainerrors "github.com/heyrat/heyrat-server/internal/errors"
	"github.com/heyrat/heyrat-server/internal/normalize"
)

// Display name bounds, counted in runes after trimming.
const (
	DisplayNameMin = 2
	DisplayNameMax = 40
)

// Validator wraps go-playground/validator with domain error conversion.
type Validator struct {
	v *validator.Validate
}

// New creates a validator configured for our domain.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Use JSON tag names in error messages.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})

	//nolint:errcheck // registration only fails on empty tag names
	_ = v.RegisterValidation("displayname", func(fl validator.FieldLevel) bool {
		n := normalize.RuneLen(fl.Field().String())
		return n >= DisplayNameMin && n <= DisplayNameMax
	})
	//nolint:errcheck // registration only fails on empty tag names
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})

	return &Validator{v: v}
}

// Validate validates a struct and returns a domain error on failure.
func (v *Validator) Validate(s any) error {
	if err := v.v.Struct(s); err != nil {
		return formatError(err)
	}
	return nil
}

// Var validates a single value against a tag expression, reporting it under field.
func (v *Validator) Var(field string, value any, tag string) error {
	err := v.v.Var(value, tag)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	details := map[string]string{field: friendlyMessage(verrs[0])}
	return domainerrors.ValidationWithDetails(field+" "+details[field], details)
}

// formatError converts validator errors to a domain validation error with per-field messages.
func formatError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	fields := make(map[string]string, len(verrs))
	names := make([]string, 0, len(verrs))
	for _, e := range verrs {
		fields[e.Field()] = friendlyMessage(e)
		names = append(names, e.Field())
	}

	return domainerrors.ValidationWithDetails("invalid fields: "+strings.Join(names, ", "), fields)
}

func friendlyMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required", "notblank":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		if e.Kind() == reflect.Slice {
			return fmt.Sprintf("must contain at least %s items", e.Param())
		}
		return fmt.Sprintf("must be at least %s characters", e.Param())
	case "max":
		if e.Kind() == reflect.Slice {
			return fmt.Sprintf("must contain at most %s items", e.Param())
		}
		return fmt.Sprintf("must not exceed %s characters", e.Param())
	case "gte":
		return "must be greater than or equal to " + e.Param()
	case "lte":
		return "must be less than or equal to " + e.Param()
	case "displayname":
		return fmt.Sprintf("must be between %d and %d characters", DisplayNameMin, DisplayNameMax)
	default:
		return "is invalid"
	}
}
