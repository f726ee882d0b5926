package model

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

var (
	validate *validator.Validate
	once     sync.Once
)

func GetValidator() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		// Report fields by their wire name
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			for _, tag := range []string{"json", "query", "param"} {
				name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
				if name == "-" {
					return ""
				}
				if name != "" {
					return name
				}
			}
			return fld.Name
		})

		_ = validate.RegisterValidation("measurement", func(fl validator.FieldLevel) bool {
			_, ok := Measurement(fl.Field().String()).Float()
			return ok
		})
		_ = validate.RegisterValidation("calendar_date", func(fl validator.FieldLevel) bool {
			_, err := time.Parse(DateLayout, fl.Field().String())
			return err == nil
		})
		_ = validate.RegisterValidation("clock_time", func(fl validator.FieldLevel) bool {
			_, err := time.Parse(TimeLayout, fl.Field().String())
			return err == nil
		})
	})
	return validate
}

// FormatValidationError converts validator errors to ErrorDetail.
// Every failing field is reported so clients can highlight all of them at once.
func FormatValidationError(err error) *ErrorDetail {
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
		fields := make([]FieldError, 0, len(validationErrors))
		for _, e := range validationErrors {
			fields = append(fields, FieldError{Field: e.Field(), Message: fieldMessage(e)})
		}
		return &ErrorDetail{
			Code:    CodeValidation,
			Message: fmt.Sprintf("%s: %s", fields[0].Field, fields[0].Message),
			Fields:  fields,
		}
	}

	return &ErrorDetail{
		Code:    CodeValidation,
		Message: err.Error(),
	}
}

// NewFieldError builds a single-field validation failure.
func NewFieldError(field, message string) *ErrorDetail {
	return &ErrorDetail{
		Code:    CodeValidation,
		Message: field + ": " + message,
		Fields:  []FieldError{{Field: field, Message: message}},
	}
}

func fieldMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "measurement":
		return "must be a finite number"
	case "calendar_date":
		return "must be a date in YYYY-MM-DD format"
	case "clock_time":
		return "must be a time in HH:MM format"
	case "oneof":
		return "must be one of [" + e.Param() + "]"
	case "max":
		return "must be at most " + e.Param()
	case "min":
		return "must be at least " + e.Param()
	case "email":
		return "must be a valid email address"
	default:
		return "failed on the '" + e.Tag() + "' rule"
	}
}
