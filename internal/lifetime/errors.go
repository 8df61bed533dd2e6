package lifetime

import (
	"github.com/allisson/vaultemu/internal/errors"
)

// Lifetime policy error definitions.
var (
	// ErrInvalidTrigger indicates a trigger value outside of its allowed range.
	ErrInvalidTrigger = errors.Wrap(errors.ErrInvalidInput, "invalid lifetime action trigger")

	// ErrInvalidExpiryPeriod indicates a rotation policy expiry shorter than the minimum.
	ErrInvalidExpiryPeriod = errors.Wrap(errors.ErrInvalidInput, "invalid expiry period")

	// ErrMissingExpiry indicates a before-expiry trigger on an entity without expiry.
	ErrMissingExpiry = errors.Wrap(errors.ErrInvalidInput, "expiry is not set, before expiry triggers are not allowed")

	// ErrNotifyAfterCreate indicates a notify action combined with an after-creation trigger.
	ErrNotifyAfterCreate = errors.Wrap(errors.ErrInvalidInput, "notify actions cannot be used with time after creation trigger")

	// ErrNotifyRemoved indicates an update that would drop an existing notify action.
	ErrNotifyRemoved = errors.Wrap(errors.ErrInvalidInput, "notify action cannot be removed")

	// ErrNoActions indicates a policy without any lifetime action.
	ErrNoActions = errors.Wrap(errors.ErrInvalidInput, "at least one lifetime action is required")
)
