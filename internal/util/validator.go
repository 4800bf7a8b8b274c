package util

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidateStruct aplica as tags `validate` de um DTO de requisição.
func ValidateStruct(v any) error {
	if err := validate.Struct(v); err != nil {
		var invalid *validator.InvalidValidationError
		if errors.As(err, &invalid) {
			return err
		}
		var fields []string
		for _, fe := range err.(validator.ValidationErrors) {
			fields = append(fields, fe.Field())
		}
		return errors.New("campos inválidos: " + strings.Join(fields, ", "))
	}
	return nil
}

// ValidatePassword verifica requisitos mínimos de senha.
func ValidatePassword(password string) error {
	if len(password) < 5 {
		return errors.New("senha deve ter pelo menos 5 caracteres")
	}
	return nil
}
