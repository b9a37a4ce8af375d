package models

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
)

var (
	// ErrEmailRequired - e-mail не указан.
	ErrEmailRequired = errors.New("email is required")
	// ErrInvalidEmail - e-mail не разбирается как адрес.
	ErrInvalidEmail = errors.New("invalid email format")
	// ErrPasswordRequired - пароль не указан.
	ErrPasswordRequired = errors.New("password is required")
	// ErrPasswordMismatch - пароль и подтверждение не совпадают.
	ErrPasswordMismatch = errors.New("passwords do not match")
)

// Validate проверяет форму входа до любого сетевого вызова.
// Нормализует e-mail: обрезает пробелы и приводит к нижнему регистру.
func (c *Credentials) Validate() error {
	const op = "models.Credentials.Validate"

	email := strings.TrimSpace(c.Email)
	if email == "" {
		return fmt.Errorf("%s: %w", op, ErrEmailRequired)
	}

	if _, err := mail.ParseAddress(email); err != nil {
		return fmt.Errorf("%s: %w", op, ErrInvalidEmail)
	}

	if c.Password == "" {
		return fmt.Errorf("%s: %w", op, ErrPasswordRequired)
	}

	c.Email = strings.ToLower(email)
	return nil
}

// Registration - форма регистрации с подтверждением пароля.
type Registration struct {
	Credentials
	Confirm string
}

// Validate дополняет проверку формы входа сравнением подтверждения.
func (r *Registration) Validate() error {
	const op = "models.Registration.Validate"

	if err := r.Credentials.Validate(); err != nil {
		return err
	}

	if r.Password != r.Confirm {
		return fmt.Errorf("%s: %w", op, ErrPasswordMismatch)
	}

	return nil
}
