package service

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound covers records that do not exist or belong to
	// another provider; the two cases are indistinguishable on purpose.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateCPF means the provider already has an active record
	// with the candidate CPF.
	ErrDuplicateCPF = errors.New("cpf already registered")

	// ErrSubscriptionLapsed gates every provider operation; maps to
	// HTTP 402 at the transport boundary.
	ErrSubscriptionLapsed = errors.New("subscription lapsed")

	ErrInvalidCredentials = errors.New("invalid credentials")
)

// ValidationError marks failures resolved locally before any query is
// issued. The transport layer maps it to HTTP 400; it must never be
// confused with an upstream failure.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}
