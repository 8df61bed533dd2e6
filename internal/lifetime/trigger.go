// Package lifetime implements lifetime action policies and the trigger engine
// that replays renewals and rotations missed during a time shift.
package lifetime

import (
	"fmt"
	"time"

	"github.com/allisson/vaultemu/internal/errors"
)

// Action is what happens when a trigger fires.
type Action string

const (
	// ActionRenew renews a certificate or rotates a key.
	ActionRenew Action = "Renew"
	// ActionNotify only reports the event to the configured notifier.
	ActionNotify Action = "Notify"
)

// TriggerKind selects how a trigger value is interpreted.
type TriggerKind string

const (
	// DaysBeforeExpiry fires the given number of days before the validity ends.
	DaysBeforeExpiry TriggerKind = "DaysBeforeExpiry"
	// LifetimePercentage fires when the given percentage of the validity has passed.
	LifetimePercentage TriggerKind = "LifetimePercentage"
	// DaysAfterCreate fires the given number of days after creation.
	DaysAfterCreate TriggerKind = "DaysAfterCreate"
)

const (
	// MonthlyLimit bounds days-before-expiry triggers to validityMonths * MonthlyLimit.
	MonthlyLimit = 27
	// MinimumExpiryPeriodDays is the shortest key rotation expiry period.
	MinimumExpiryPeriodDays = 28
	// MinimumThresholdBeforeExpiryDays is the least room left between a key trigger and expiry.
	MinimumThresholdBeforeExpiryDays = 7
	// DefaultRenewPercentage is the lifetime percentage of the default certificate policy.
	DefaultRenewPercentage = 80
)

// Trigger defines when an action fires.
type Trigger struct {
	Kind  TriggerKind
	Value int
}

// String implements fmt.Stringer.
func (t Trigger) String() string {
	return fmt.Sprintf("%s(%d)", t.Kind, t.Value)
}

// AfterDays returns how many days after validityStart the trigger fires for
// a validity window ending at expiry.
func (t Trigger) AfterDays(validityStart, expiry time.Time) int64 {
	switch t.Kind {
	case DaysBeforeExpiry:
		return DaysBetween(validityStart, expiry) - int64(t.Value)
	case LifetimePercentage:
		// one percent is days/100 at two decimals, so the product is exact before truncation
		return DaysBetween(validityStart, expiry) * int64(t.Value) / 100
	default:
		return int64(t.Value)
	}
}

// ValidateForCertificate checks the trigger against the certificate validity.
func (t Trigger) ValidateForCertificate(validityMonths int) error {
	switch t.Kind {
	case DaysBeforeExpiry:
		if t.Value <= 0 || t.Value > MonthlyLimit*validityMonths {
			return errors.Wrapf(ErrInvalidTrigger,
				"value must be between 1 and validity months multiplied by %d", MonthlyLimit)
		}
	case LifetimePercentage:
		if t.Value <= 0 || t.Value >= 100 {
			return errors.Wrap(ErrInvalidTrigger, "value must be between 1 and 99")
		}
	default:
		return errors.Wrapf(ErrInvalidTrigger, "unsupported trigger kind %q for certificates", t.Kind)
	}
	return nil
}

// RotateAfterDays returns the rotation offset of a key trigger for the given expiry period.
func (t Trigger) RotateAfterDays(expiryPeriodDays int) int64 {
	if t.Kind == DaysBeforeExpiry {
		return int64(expiryPeriodDays - t.Value)
	}
	return int64(t.Value)
}

// ValidateForKey checks a key rotation trigger. latestExpiry is the expiry of
// the latest key version, nil when the key never expires.
func (t Trigger) ValidateForKey(expiryPeriodDays int, latestExpiry *time.Time) error {
	if expiryPeriodDays < MinimumExpiryPeriodDays {
		return errors.Wrapf(ErrInvalidExpiryPeriod, "must be at least %d days", MinimumExpiryPeriodDays)
	}
	switch t.Kind {
	case DaysAfterCreate:
		if t.Value > expiryPeriodDays-MinimumThresholdBeforeExpiryDays {
			return errors.Wrapf(ErrInvalidTrigger,
				"trigger must be at least %d days before expiry", MinimumThresholdBeforeExpiryDays)
		}
	case DaysBeforeExpiry:
		if latestExpiry == nil {
			return ErrMissingExpiry
		}
		if t.Value < MinimumThresholdBeforeExpiryDays {
			return errors.Wrapf(ErrInvalidTrigger,
				"trigger must be at least %d days before expiry", MinimumThresholdBeforeExpiryDays)
		}
	default:
		return errors.Wrapf(ErrInvalidTrigger, "unsupported trigger kind %q for keys", t.Kind)
	}
	return nil
}

// DaysBetween counts the whole days from start to end.
func DaysBetween(start, end time.Time) int64 {
	return int64(end.Sub(start) / (24 * time.Hour))
}
