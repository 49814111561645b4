// Package validator plugs go-playground/validator into echo and reports
// failures with the JSON path of each field.
package validator

import (
	"reflect"
	"strings"

	domainerrors "globalchek/internal/domain/errors"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

// Validator implements echo.Validator.
type Validator struct {
	validate *validator.Validate
}

// New creates a validator that names fields after their json tag.
func New() *Validator {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			name, _, _ = strings.Cut(field.Tag.Get("form"), ",")
		}

		return name
	})
	_ = validate.RegisterValidation("notblank", notBlank)

	return &Validator{validate: validate}
}

// Validate checks i and returns a *domainerrors.ValidationError on failure.
func (v *Validator) Validate(i any) error {
	err := v.validate.Struct(i)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return errors.WithStack(err)
	}

	fields := make([]domainerrors.FieldError, 0, len(validationErrs))
	for _, fieldErr := range validationErrs {
		fields = append(fields, domainerrors.FieldError{
			Path:    fieldPath(fieldErr),
			Message: message(fieldErr),
		})
	}

	return domainerrors.NewValidationError(fields...)
}

// fieldPath drops the root struct name from the namespace: "req.guestEmail" -> "guestEmail".
func fieldPath(fieldErr validator.FieldError) string {
	_, path, found := strings.Cut(fieldErr.Namespace(), ".")
	if !found {
		return fieldErr.Field()
	}

	return path
}

func message(fieldErr validator.FieldError) string {
	switch fieldErr.Tag() {
	case "required", "notblank":
		return "is required"
	case "email":
		return "must be a valid email"
	case "uuid", "uuid4":
		return "must be a valid UUID"
	case "len":
		return "must be exactly " + fieldErr.Param() + " characters"
	case "min":
		if fieldErr.Kind() == reflect.String {
			return "must be at least " + fieldErr.Param() + " characters"
		}

		return "must be at least " + fieldErr.Param()
	case "max":
		if fieldErr.Kind() == reflect.String {
			return "must be at most " + fieldErr.Param() + " characters"
		}

		return "must be at most " + fieldErr.Param()
	case "gt":
		return "must be greater than " + fieldErr.Param()
	case "oneof":
		return "must be one of " + strings.ReplaceAll(fieldErr.Param(), " ", ", ")
	case "numeric":
		return "must contain digits only"
	case "datetime":
		return "must be a date in " + fieldErr.Param() + " format"
	default:
		return "is invalid"
	}
}

func notBlank(fl validator.FieldLevel) bool {
	field := fl.Field()
	if field.Kind() == reflect.Pointer {
		if field.IsNil() {
			return true
		}
		field = field.Elem()
	}
	if field.Kind() != reflect.String {
		return true
	}

	return strings.TrimSpace(field.String()) != ""
}
