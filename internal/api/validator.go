package api

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type requestValidator struct {
	validate *validator.Validate
}

// NewValidator returns an echo.Validator that reports fields by their JSON
// names.
func NewValidator() echo.Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &requestValidator{validate: v}
}

func (v *requestValidator) Validate(i interface{}) error {
	return v.validate.Struct(i)
}

// validationMessage renders the first failed rule as "field: message".
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}

	fe := verrs[0]
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}

	var msg string
	switch fe.Tag() {
	case "required":
		msg = "This field is required."
	case "email":
		msg = "Enter a valid email address."
	case "min":
		switch fe.Kind() {
		case reflect.String:
			msg = fmt.Sprintf("Ensure this field has at least %s characters.", fe.Param())
		case reflect.Slice:
			msg = "This list may not be empty."
		default:
			msg = fmt.Sprintf("Ensure this value is greater than or equal to %s.", fe.Param())
		}
	case "max":
		if fe.Kind() == reflect.String {
			msg = fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
		} else {
			msg = fmt.Sprintf("Ensure this value is less than or equal to %s.", fe.Param())
		}
	case "oneof":
		msg = fmt.Sprintf("\"%v\" is not a valid choice.", fe.Value())
	default:
		msg = fmt.Sprintf("failed on the '%s' rule", fe.Tag())
	}
	return field + ": " + msg
}
