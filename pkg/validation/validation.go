package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	dErrors "estatehub/pkg/domain-errors"
	stringutil "estatehub/pkg/string"
)

var defaultValidator = newValidator()

var (
	currencyPattern = regexp.MustCompile(`^[A-Z]{3}$`)
	colorPattern    = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonFieldName)
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	_ = v.RegisterValidation("currency", func(fl validator.FieldLevel) bool {
		return currencyPattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("hexcolor_or_empty", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return s == "" || colorPattern.MatchString(s)
	})
	return v
}

// jsonFieldName reports fields by their JSON name so per-field errors match
// the request body. Untagged fields fall back to snake_case.
func jsonFieldName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	if name == "" {
		return stringutil.ToSnakeCase(f.Name)
	}
	return name
}

// Validate validates a struct using the default validator and returns a
// validation_failed domain error with one message per offending field.
func Validate(req any) error {
	err := defaultValidator.Struct(req)
	if err == nil {
		return nil
	}
	fields := Fields(err)
	if len(fields) == 0 {
		return dErrors.New(dErrors.CodeValidation, ErrorMessage(err))
	}
	return dErrors.Validation(ErrorMessage(err), fields)
}

// Fields maps each failing field path (e.g. "pricing.sale_price") to its message.
func Fields(err error) map[string]string {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return nil
	}
	out := make(map[string]string, len(validationErrs))
	for _, fe := range validationErrs {
		path := fieldPath(fe)
		if _, seen := out[path]; !seen {
			out[path] = message(fe)
		}
	}
	return out
}

// ErrorMessage converts a validator error into a human-readable message
func ErrorMessage(err error) string {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) || len(validationErrs) == 0 {
		return "invalid request body"
	}
	if len(validationErrs) > 1 {
		return fmt.Sprintf("%s (and %d more)", message(validationErrs[0]), len(validationErrs)-1)
	}
	return message(validationErrs[0])
}

// fieldPath drops the root struct name from the namespace.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return fe.Field()
}

func message(fe validator.FieldError) string {
	field := fieldPath(fe)
	switch fe.ActualTag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email", field)
	case "url":
		return fmt.Sprintf("%s must be a valid url", field)
	case "uuid":
		return fmt.Sprintf("%s must be a valid uuid", field)
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max", "lte":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	case "notblank":
		return fmt.Sprintf("%s must not be blank", field)
	case "currency":
		return fmt.Sprintf("%s must be a 3-letter ISO 4217 code", field)
	case "hexcolor_or_empty":
		return fmt.Sprintf("%s must be a hex color", field)
	default:
		if field == "" {
			return "invalid request body"
		}
		return fmt.Sprintf("%s is invalid", field)
	}
}
