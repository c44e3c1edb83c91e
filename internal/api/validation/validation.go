// Package validation checks request bodies before they reach the auth service.
package validation

import (
	"net/mail"
	"strings"
	"unicode/utf8"
)

// FieldError describes a validation error for a specific field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

const (
	maxEmailLength    = 255
	minPasswordLength = 8
	maxPasswordLength = 72 // bcrypt ignores anything longer
)

// LoginRequest mirrors the fields of POST /auth/login.
type LoginRequest struct {
	Email    string
	Password string
}

// ValidateLoginRequest validates the fields of a login request.
func ValidateLoginRequest(req LoginRequest) []FieldError {
	var errs []FieldError

	email := strings.TrimSpace(req.Email)
	switch {
	case email == "":
		errs = append(errs, FieldError{Field: "email", Message: "El correo es obligatorio"})
	case len(email) > maxEmailLength:
		errs = append(errs, FieldError{Field: "email", Message: "El correo no puede superar 255 caracteres"})
	case !validEmail(email):
		errs = append(errs, FieldError{Field: "email", Message: "El correo no es válido"})
	}

	if req.Password == "" {
		errs = append(errs, FieldError{Field: "password", Message: "La contraseña es obligatoria"})
	}

	return errs
}

// ChangePasswordRequest mirrors the fields of PUT /auth/password.
type ChangePasswordRequest struct {
	CurrentPassword string
	NewPassword     string
}

// ValidateChangePasswordRequest validates the fields of a password change.
// Whether the current password matches is checked by the auth service.
func ValidateChangePasswordRequest(req ChangePasswordRequest) []FieldError {
	var errs []FieldError

	if req.CurrentPassword == "" {
		errs = append(errs, FieldError{Field: "current_password", Message: "La contraseña actual es obligatoria"})
	}

	n := utf8.RuneCountInString(req.NewPassword)
	switch {
	case req.NewPassword == "":
		errs = append(errs, FieldError{Field: "new_password", Message: "La nueva contraseña es obligatoria"})
	case n < minPasswordLength:
		errs = append(errs, FieldError{Field: "new_password", Message: "La nueva contraseña debe tener al menos 8 caracteres"})
	case len(req.NewPassword) > maxPasswordLength:
		errs = append(errs, FieldError{Field: "new_password", Message: "La nueva contraseña no puede superar 72 bytes"})
	case req.NewPassword == req.CurrentPassword:
		errs = append(errs, FieldError{Field: "new_password", Message: "La nueva contraseña debe ser distinta de la actual"})
	}

	return errs
}

func validEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}
