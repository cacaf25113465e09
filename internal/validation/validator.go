// Package validation validates request payloads with validator/v10 and
// converts failures into domain validation errors.
package validation

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/go-playground/validator/v10"

	domainerrors "github.com/fairytaleapp/fairytale-server/internal/errors"
	"github.com/fairytaleapp/fairytale-server/internal/normalize"
)

// Validator wraps go-playground/validator with domain error conversion.
type Validator struct {
	v *validator.Validate
}

// New creates a validator configured for this API's request types.
func New() *Validator {
	v := validator.New()

	// Report field errors under the JSON name clients actually sent.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := fld.Tag.Get("json")
		if name == "" {
			return fld.Name
		}
		for i := range len(name) {
			if name[i] == ',' {
				return name[:i]
			}
		}
		return name
	})

	// lang: any spelling normalize recognizes (ISO 639-1/2, locale, name).
	_ = v.RegisterValidation("lang", func(fl validator.FieldLevel) bool {
		return normalize.LanguageCode(fl.Field().String()) != ""
	})

	return &Validator{v: v}
}

// Validate validates a struct and returns a domain error listing every
// failing field.
func (v *Validator) Validate(s any) error {
	err := v.v.Struct(s)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	fieldErrors := make(map[string]string, len(validationErrs))
	for _, e := range validationErrs {
		fieldErrors[e.Field()] = friendlyMessage(e)
	}
	return domainerrors.ValidationWithDetails("validation failed", fieldErrors)
}

func friendlyMessage(e validator.FieldError) string {
	// min/max read differently on collections than on strings.
	counted := "characters"
	if e.Kind() == reflect.Slice || e.Kind() == reflect.Map {
		counted = "items"
	}

	switch e.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must have at least %s %s", e.Param(), counted)
	case "max":
		return fmt.Sprintf("must not exceed %s %s", e.Param(), counted)
	case "len":
		return fmt.Sprintf("must be exactly %s %s", e.Param(), counted)
	case "lang":
		return "must be a supported language"
	case "oneof":
		return "must be one of: " + e.Param()
	default:
		return "is invalid"
	}
}
