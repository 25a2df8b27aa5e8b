package validator

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// CustomValidator implements echo.Validator using go-playground/validator
type CustomValidator struct {
	v *validator.Validate
}

// FieldError names the first rejected field by its JSON name
type FieldError struct {
	Field string
	Rule  string
}

func (e *FieldError) Error() string {
	return "invalid " + e.Field + ": failed " + e.Rule
}

// New creates a new CustomValidator instance
func New() *CustomValidator {
	v := validator.New()
	// report fields by their json name
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	// notblank rejects strings that are empty after trimming whitespace
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	return &CustomValidator{v: v}
}

// Validate performs struct validation. A failed rule is reported as *FieldError.
func (cv *CustomValidator) Validate(i interface{}) error {
	err := cv.v.Struct(i)
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		field := verrs[0].Field()
		if idx := strings.IndexByte(field, '['); idx > 0 {
			field = field[:idx]
		}
		return &FieldError{Field: field, Rule: verrs[0].Tag()}
	}
	return err
}
