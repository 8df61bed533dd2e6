package domain

import (
	"github.com/allisson/vaultemu/internal/errors"
)

// Entity lifecycle error definitions.
var (
	// ErrEntityNotFound indicates the name or the exact version is absent from the queried store.
	ErrEntityNotFound = errors.Wrap(errors.ErrNotFound, "entity not found")

	// ErrDeletedEntityExists indicates a create collided with a deleted, not yet purged entity.
	ErrDeletedEntityExists = errors.Wrap(errors.ErrConflict, "a deleted entity with this name already exists")

	// ErrInvalidRecoveryLevel indicates an unknown recovery level value.
	ErrInvalidRecoveryLevel = errors.Wrap(errors.ErrInvalidInput, "invalid recovery level")

	// ErrInvalidRecoverableDays indicates the recoverable days do not fit the recovery level.
	ErrInvalidRecoverableDays = errors.Wrap(errors.ErrInvalidInput, "invalid recoverable days")

	// ErrNotBeforeAfterExpiry indicates notBefore is later than expiry.
	ErrNotBeforeAfterExpiry = errors.Wrap(errors.ErrInvalidInput, "not before must not be after expiry")

	// ErrInvalidTimeShift indicates a non-positive time shift offset.
	ErrInvalidTimeShift = errors.Wrap(errors.ErrInvalidInput, "time shift offset must be positive")

	// ErrEntityNotPurgeable indicates at least one version cannot be purged under its recovery level.
	ErrEntityNotPurgeable = errors.Wrap(errors.ErrIllegalState, "entity cannot be purged")

	// ErrManagedEntity indicates a lifecycle change on an entity owned by another entity.
	ErrManagedEntity = errors.Wrap(errors.ErrIllegalState, "managed entity can only change through its owner")

	// ErrNotDeletedRole is raised (as a panic) when a deleted-role operation runs on an active store.
	ErrNotDeletedRole = errors.Wrap(errors.ErrIllegalState, "operation requires a store in deleted role")
)
