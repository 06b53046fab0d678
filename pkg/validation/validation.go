package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	dErrors "caremonitor/pkg/domain-errors"
)

var defaultValidator = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	// Report form/json names ("email") instead of Go field names ("Email").
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return strings.ToLower(f.Name)
		}
		return name
	})
	return v
}

// Messager lets a request type override the message for a field/tag pair.
// The key passed in is "<field>.<tag>", e.g. "email.required".
type Messager interface {
	ValidationMessage(key, param string) (string, bool)
}

// FieldErrors maps a field name to the first message reported for it.
type FieldErrors map[string]string

func (f FieldErrors) Error() string {
	parts := make([]string, 0, len(f))
	for field, msg := range f {
		parts = append(parts, field+": "+msg)
	}
	return strings.Join(parts, "; ")
}

// Validate validates a struct using the default validator and returns a domain error.
// The wrapped error is a FieldErrors so form handlers can render per-field messages.
func Validate(req any) error {
	err := defaultValidator.Struct(req)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) || len(validationErrs) == 0 {
		return dErrors.New(dErrors.CodeValidation, "invalid request body")
	}

	fields := FieldErrors{}
	first := ""
	for _, fe := range validationErrs {
		if _, seen := fields[fe.Field()]; seen {
			continue
		}
		msg := message(req, fe)
		fields[fe.Field()] = msg
		if first == "" {
			first = msg
		}
	}
	return &dErrors.Error{Code: dErrors.CodeValidation, Message: first, Err: fields}
}

// Fields extracts per-field messages from an error returned by Validate.
func Fields(err error) FieldErrors {
	var fields FieldErrors
	if errors.As(err, &fields) {
		return fields
	}
	return nil
}

func message(req any, fe validator.FieldError) string {
	if m, ok := req.(Messager); ok {
		if msg, ok := m.ValidationMessage(fe.Field()+"."+fe.ActualTag(), fe.Param()); ok {
			return msg
		}
	}
	field := fe.Field()
	switch fe.ActualTag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "notblank":
		return fmt.Sprintf("%s must not be blank", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
