package domain

import (
	"github.com/allisson/vaultemu/internal/errors"
)

// Key error definitions.
var (
	// ErrOperationNotAllowed indicates the key version is disabled or does not permit the operation.
	ErrOperationNotAllowed = errors.Wrap(errors.ErrIllegalState, "operation not allowed for key")

	// ErrRotationPolicyNotFound indicates the key has no rotation policy.
	ErrRotationPolicyNotFound = errors.Wrap(errors.ErrNotFound, "rotation policy not found")
)
