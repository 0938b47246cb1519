package profiles

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

const professionTag = "profession"

var fieldMessages = map[string]string{
	"DisplayName": "Name is too long.",
	"PhotoURL":    "Photo must be a valid URL.",
	"Age":         "Age must be between 10 and 100.",
	"Profession":  "Please select a profession from the list.",
}

type ValidationError struct {
	Field   string
	Message string
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", v.Field, v.Message)
}

// NewAgeValidationError is reported when the submitted age is not a number
func NewAgeValidationError() ValidationError {
	return ValidationError{Field: "Age", Message: fieldMessages["Age"]}
}

// ParseAge parses the age field of a submitted form. A blank field is nil.
func ParseAge(value string) (*int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	age, err := strconv.Atoi(value)
	if err != nil {
		return nil, NewAgeValidationError()
	}
	return &age, nil
}

func NewValidator() (*validator.Validate, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.RegisterValidation(professionTag, func(fl validator.FieldLevel) bool {
		return IsProfession(fl.Field().String())
	}); err != nil {
		return nil, err
	}
	return validate, nil
}

func validateForm(validate *validator.Validate, form Form) error {
	err := validate.Struct(form)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
		field := validationErrors[0].StructField()
		message, ok := fieldMessages[field]
		if !ok {
			message = "Invalid value."
		}
		return ValidationError{Field: field, Message: message}
	}
	return err
}
