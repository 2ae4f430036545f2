package api

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

// ValidationError describes one field that failed a required-field check.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Type    string `json:"type"`
}

// ValidationErrors is returned before any request is sent when the body is
// missing required fields.
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	parts := make([]string, 0, len(v))
	for _, e := range v {
		parts = append(parts, e.Field+": "+e.Message)
	}
	return "invalid request: " + strings.Join(parts, "; ")
}

func newValidator() *validator.Validate {
	v := validator.New()
	// Report fields by their JSON names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterStructValidation(func(sl validator.StructLevel) {
		n := sl.Current().Interface().(NewTransaction)
		if n.Amount.IsZero() {
			sl.ReportError(n.Amount, "amount", "Amount", "required", "")
		}
		if n.Date.IsZero() {
			sl.ReportError(n.Date, "date", "Date", "required", "")
		}
	}, NewTransaction{})
	v.RegisterStructValidation(func(sl validator.StructLevel) {
		p := sl.Current().Interface().(ProductInput)
		if p.Price.IsZero() {
			sl.ReportError(p.Price, "price", "Price", "required", "")
		}
	}, ProductInput{})
	return v
}

func validateRequest(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	out := make(ValidationErrors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, ValidationError{
			Field:   fe.Field(),
			Message: errorMsg(fe),
			Type:    fe.Tag(),
		})
	}
	return out
}

func errorMsg(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Invalid email format"
	case "oneof":
		return "Must be one of: " + fe.Param()
	case "hexcolor":
		return "Must be a hex color"
	default:
		return "Invalid value"
	}
}
