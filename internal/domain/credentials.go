package domain

import (
	"errors"
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation"
)

const (
	UsernameMinLen = 5
	UsernameMaxLen = 20
	PasswordMinLen = 6
	PasswordMaxLen = 255
)

// Alphanumeric at both ends, single ".", "_" or "-" separators in between.
var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9]([._-]?[a-zA-Z0-9])*$`)

// Username is a validated account name.
type Username string

func (u Username) String() string {
	return string(u)
}

// RawPassword is a validated, not yet hashed password. It is never persisted.
type RawPassword string

// Credentials are the raw username/password inputs of sign-up and log-in.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Validate checks the boundary rules and returns a *FieldError describing every violation.
func (c Credentials) Validate() error {
	err := validation.ValidateStruct(&c,
		validation.Field(&c.Username,
			validation.Required,
			validation.Length(UsernameMinLen, UsernameMaxLen),
			validation.Match(usernamePattern).Error("must contain only letters, digits and single '.', '_' or '-' separators, and start and end with a letter or digit"),
		),
		validation.Field(&c.Password,
			validation.Required,
			validation.Length(PasswordMinLen, PasswordMaxLen),
		),
	)
	return NewFieldError(err)
}

// Parse validates the credentials and returns them as value objects.
func (c Credentials) Parse() (Username, RawPassword, error) {
	if err := c.Validate(); err != nil {
		return "", "", err
	}
	return Username(c.Username), RawPassword(c.Password), nil
}

// FieldError carries per-field validation messages and matches ErrInvalidField.
type FieldError struct {
	Fields map[string]string
}

func (e *FieldError) Error() string {
	return ErrInvalidField.Error()
}

func (e *FieldError) Unwrap() error {
	return ErrInvalidField
}

// NewFieldError converts an ozzo-validation result into a *FieldError.
// A nil input yields nil; non-field errors are returned unchanged.
func NewFieldError(err error) error {
	if err == nil {
		return nil
	}
	var errs validation.Errors
	if !errors.As(err, &errs) {
		return err
	}
	fields := make(map[string]string, len(errs))
	for name, fieldErr := range errs {
		if fieldErr != nil {
			fields[name] = fieldErr.Error()
		}
	}
	return &FieldError{Fields: fields}
}
