package dreambiz

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// NewValidator returns a validator that reports fields by their JSON names.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// check validates v and returns the first failure as an InvalidInput error.
func (e *Engine) check(op string, v any) error {
	err := e.validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return newError(KindInvalidInput, op, "the details could not be validated", err)
	}

	fe := fieldErrs[0]
	ve := ValidationError{Field: fe.Field(), Message: describe(fe)}
	return newError(KindInvalidInput, op, fmt.Sprintf("%s: %s", ve.Field, ve.Message), ve)
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "len":
		return fmt.Sprintf("must be exactly %s characters", fe.Param())
	case "alpha":
		return "must contain letters only"
	case "email":
		return "must be a valid email address"
	case "url":
		return "must be a valid URL"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", strings.ReplaceAll(fe.Param(), " ", ", "))
	default:
		return fmt.Sprintf("failed the %q check", fe.Tag())
	}
}

// invalid is a shorthand for a single-field InvalidInput error.
func invalid(op, field, message string) error {
	ve := ValidationError{Field: field, Message: message}
	return newError(KindInvalidInput, op, fmt.Sprintf("%s: %s", field, message), ve)
}
