package domain

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// validatorInstance returns the shared validator. Field names in reported
// errors come from the json tag so they match what API clients send.
func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "" || name == "-" {
				return strings.ToLower(fld.Name)
			}
			return name
		})
	})
	return validate
}

// ValidateCategoryInput checks the shape of a category creation request.
func ValidateCategoryInput(in CategoryInput) error {
	return validateStruct(in)
}

// ValidateCategoryUpdate checks the shape of a category rename request.
func ValidateCategoryUpdate(u CategoryUpdate) error {
	return validateStruct(u)
}

// ValidateBookInput checks the shape of a book creation request.
func ValidateBookInput(in BookInput) error {
	return validateStruct(in)
}

// ValidateBookUpdate checks the shape of the fields supplied in a partial book update.
func ValidateBookUpdate(u BookUpdate) error {
	return validateStruct(u)
}

// validateStruct runs struct-tag validation and converts the first failure
// into a *ValidationError.
func validateStruct(s interface{}) error {
	err := validatorInstance().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return NewValidationError("request", err.Error())
	}

	fe := fieldErrs[0]
	return NewValidationError(fe.Field(), describeFieldError(fe))
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	default:
		return fmt.Sprintf("failed %q constraint", fe.Tag())
	}
}
