package controller

import "errors"

// Validator is implemented by request DTOs that check their own shape.
type Validator interface {
	Validate() error
}

// ValidateDTO runs dto.Validate when dto implements Validator and converts a
// plain error into a validation AppError.
func ValidateDTO(dto interface{}) error {
	validator, ok := dto.(Validator)
	if !ok {
		return nil
	}
	err := validator.Validate()
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return err
	}
	return NewValidationError(err.Error(), nil)
}
