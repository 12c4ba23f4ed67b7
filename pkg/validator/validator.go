package validator

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

type CustomValidator struct {
	validator *validator.Validate
}

func NewValidator() *CustomValidator {
	v := validator.New()
	// Report json/form names instead of Go field names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
			if name != "" && name != "-" {
				return name
			}
		}
		return f.Name
	})
	return &CustomValidator{validator: v}
}

func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

func (cv *CustomValidator) FormatValidationErrors(err error) map[string]string {
	errors := make(map[string]string)

	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		for _, e := range validationErrors {
			field := e.Field()
			switch e.Tag() {
			case "required":
				errors[field] = field + " is required"
			case "email":
				errors[field] = field + " must be a valid email address"
			case "min":
				errors[field] = field + " must be at least " + e.Param() + " characters"
			case "max":
				errors[field] = field + " must be at most " + e.Param() + " characters"
			case "gte":
				errors[field] = field + " must be greater than or equal to " + e.Param()
			case "oneof":
				errors[field] = field + " must be one of: " + strings.ReplaceAll(e.Param(), " ", ", ")
			case "eqfield":
				errors[field] = field + " does not match " + strings.ToLower(e.Param())
			case "uuid":
				errors[field] = field + " must be a valid id"
			default:
				errors[field] = field + " is invalid"
			}
		}
	}

	return errors
}

// First returns one message from the formatted errors, for places that can
// only show a single line.
func (cv *CustomValidator) First(err error) string {
	formatted := cv.FormatValidationErrors(err)
	if len(formatted) == 0 {
		return err.Error()
	}
	keys := make([]string, 0, len(formatted))
	for k := range formatted {
		keys = append(keys, k)
	}
	// map order is random; pick the smallest key for a stable message
	first := keys[0]
	for _, k := range keys[1:] {
		if k < first {
			first = k
		}
	}
	return formatted[first]
}
