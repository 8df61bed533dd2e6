package domain

import (
	"github.com/allisson/vaultemu/internal/errors"
)

// Secret error definitions.
var (
	// ErrSecretDisabled indicates the value of a disabled secret version was requested.
	ErrSecretDisabled = errors.Wrap(errors.ErrIllegalState, "secret is disabled")

	// ErrEmptySecretValue indicates a secret version was created without a value.
	ErrEmptySecretValue = errors.Wrap(errors.ErrInvalidInput, "secret value cannot be empty")
)
