package api

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

// ValidationMessage turns a gin binding error into a message that names
// the offending field instead of leaking validator internals.
func ValidationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "invalid request body"
	}

	for _, ferr := range verrs {
		return fieldMessage(ferr)
	}
	return "invalid request body"
}

func fieldMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return err.Field() + " is required"
	case "email":
		return err.Field() + " must be a valid email address"
	case "min":
		return err.Field() + " must be at least " + err.Param() + " characters"
	case "max":
		return err.Field() + " must be at most " + err.Param() + " characters"
	default:
		return err.Field() + " is invalid"
	}
}
