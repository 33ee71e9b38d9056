package http

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"locadora-api/internal/format"
)

var registerBindingOnce sync.Once

// registerBindingValidators teaches gin's validator the custom tags used by
// the service input types and makes it report JSON field names.
func registerBindingValidators() {
	registerBindingOnce.Do(func() {
		engine, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			slog.Error("unexpected binding validator engine", "type", fmt.Sprintf("%T", binding.Validator.Engine()))
			return
		}
		engine.RegisterTagNameFunc(jsonFieldName)
		if err := engine.RegisterValidation("iso_date", validateISODate); err != nil {
			slog.Error("register iso_date validator", "error", err)
		}
	})
}

func jsonFieldName(field reflect.StructField) string {
	name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	if name == "" {
		return field.Name
	}
	return name
}

func validateISODate(fl validator.FieldLevel) bool {
	_, err := format.ParseDateISO(fl.Field().String())
	return err == nil
}

// bindingFieldErrors maps validator failures to one message per field.
func bindingFieldErrors(err error) (map[string]string, bool) {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return nil, false
	}

	fields := make(map[string]string, len(validationErrs))
	for _, fieldErr := range validationErrs {
		name := fieldErr.Field()
		if _, exists := fields[name]; exists {
			continue
		}
		fields[name] = bindingMessage(fieldErr)
	}
	return fields, true
}

func bindingMessage(fieldErr validator.FieldError) string {
	switch fieldErr.Tag() {
	case "required":
		return fieldErr.Field() + " is required"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fieldErr.Field(), fieldErr.Param())
	case "iso_date":
		return fieldErr.Field() + " must be YYYY-MM-DD"
	case "max":
		return fmt.Sprintf("%s must have at most %s characters", fieldErr.Field(), fieldErr.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", fieldErr.Field(), fieldErr.Tag())
	}
}
