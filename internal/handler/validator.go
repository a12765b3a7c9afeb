package handler

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/placenote/internal/apperr"
)

// RequestValidator plugs go-playground/validator into echo.  Failures come
// back as *apperr.ValidationError named after the JSON field.
type RequestValidator struct {
	v *validator.Validate
}

func NewRequestValidator() *RequestValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &RequestValidator{v: v}
}

// Validate implements echo.Validator.  Only the first failing field is
// reported.
func (rv *RequestValidator) Validate(i interface{}) error {
	err := rv.v.Struct(i)
	if err == nil {
		return nil
	}
	var fe validator.ValidationErrors
	if !errors.As(err, &fe) || len(fe) == 0 {
		return apperr.Invalid("body", apperr.ErrInvalidParameter)
	}
	f := fe[0]
	kind := apperr.ErrInvalidParameter
	if f.Tag() == "required" {
		kind = apperr.ErrMissingField
	}
	return apperr.Invalid(f.Field(), kind)
}

// bindAndValidate decodes the request body into dst and runs the validator.
func bindAndValidate(c echo.Context, dst interface{}) error {
	if err := c.Bind(dst); err != nil {
		return apperr.Invalid("body", apperr.ErrInvalidParameter)
	}
	return c.Validate(dst)
}
