// Package service holds the admin-facing operations on products, packages,
// sellers and admins. Every mutation is attributed to an admin and audited
// after it commits.
package service

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks request values that break a business rule.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidCredentials is returned by Login for any unknown email or wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// ValidationError carries the user-facing message of a rejected request.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// Is makes every ValidationError match ErrValidation.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func invalid(format string, args ...interface{}) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}
