// Package common defines shared constants and sentinel errors used across
// corebank components. Callers should use errors.Is to match these values;
// human-readable reasons are attached with fmt.Errorf("%w: reason").
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")

	// Engine/service-level errors.
	ErrValidation   = errors.New("validation error")
	ErrUnauthorized = errors.New("unauthorized")
	ErrStore        = errors.New("store error")

	// Auth errors (invalid, malformed, or revoked token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenRevoked = errors.New("token revoked")
)
