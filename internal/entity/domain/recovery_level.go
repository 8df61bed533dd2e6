package domain

import (
	"fmt"

	"github.com/allisson/vaultemu/internal/errors"
)

// RecoveryLevel controls whether deleted entities can be recovered and/or purged.
// Values match the deletion recovery levels of the emulated service.
type RecoveryLevel string

const (
	Purgeable                                     RecoveryLevel = "Purgeable"
	RecoverableAndPurgeable                       RecoveryLevel = "Recoverable+Purgeable"
	Recoverable                                   RecoveryLevel = "Recoverable"
	RecoverableAndProtectedSubscription           RecoveryLevel = "Recoverable+ProtectedSubscription"
	CustomizedRecoverableAndPurgeable             RecoveryLevel = "CustomizedRecoverable+Purgeable"
	CustomizedRecoverable                         RecoveryLevel = "CustomizedRecoverable"
	CustomizedRecoverableAndProtectedSubscription RecoveryLevel = "CustomizedRecoverable+ProtectedSubscription"
)

const (
	// MinRecoverableDays is the lowest retention allowed for customized recovery levels.
	MinRecoverableDays = 7
	// MaxRecoverableDays is the highest retention, and the fixed one for non customized levels.
	MaxRecoverableDays = 90
)

// DefaultRecoveryLevel is used when a vault is created without explicit recovery settings.
const DefaultRecoveryLevel = Recoverable

// RecoveryLevels lists every supported recovery level.
var RecoveryLevels = []RecoveryLevel{
	Purgeable,
	RecoverableAndPurgeable,
	Recoverable,
	RecoverableAndProtectedSubscription,
	CustomizedRecoverableAndPurgeable,
	CustomizedRecoverable,
	CustomizedRecoverableAndProtectedSubscription,
}

// ParseRecoveryLevel converts a string into a RecoveryLevel.
func ParseRecoveryLevel(value string) (RecoveryLevel, error) {
	for _, level := range RecoveryLevels {
		if string(level) == value {
			return level, nil
		}
	}
	return "", errors.Wrapf(ErrInvalidRecoveryLevel, "%q", value)
}

// Recoverable reports whether deleted entities are kept in the deleted store.
func (r RecoveryLevel) Recoverable() bool {
	return r != Purgeable
}

// Purgeable reports whether deleted entities may be purged before their scheduled date.
func (r RecoveryLevel) Purgeable() bool {
	switch r {
	case Purgeable, RecoverableAndPurgeable, CustomizedRecoverableAndPurgeable:
		return true
	default:
		return false
	}
}

// SubscriptionProtected reports whether the vault itself is protected from deletion.
func (r RecoveryLevel) SubscriptionProtected() bool {
	return r == RecoverableAndProtectedSubscription || r == CustomizedRecoverableAndProtectedSubscription
}

// Customized reports whether the retention period can be chosen in the 7..90 days range.
func (r RecoveryLevel) Customized() bool {
	switch r {
	case CustomizedRecoverableAndPurgeable, CustomizedRecoverable, CustomizedRecoverableAndProtectedSubscription:
		return true
	default:
		return false
	}
}

// ValidateRecoverableDays checks the (level, days) pair: Purgeable takes no days,
// customized levels take 7..90 and every other level takes exactly 90.
func (r RecoveryLevel) ValidateRecoverableDays(days *int) error {
	if _, err := ParseRecoveryLevel(string(r)); err != nil {
		return err
	}
	if !r.Recoverable() {
		if days != nil {
			return errors.Wrapf(ErrInvalidRecoverableDays, "must be empty for %s", r)
		}
		return nil
	}
	if days == nil {
		return errors.Wrapf(ErrInvalidRecoverableDays, "must be set for %s", r)
	}
	if r.Customized() {
		if *days < MinRecoverableDays || *days > MaxRecoverableDays {
			return errors.Wrapf(
				ErrInvalidRecoverableDays,
				"must be between %d and %d for %s", MinRecoverableDays, MaxRecoverableDays, r,
			)
		}
		return nil
	}
	if *days != MaxRecoverableDays {
		return errors.Wrapf(ErrInvalidRecoverableDays, "must be %d for %s", MaxRecoverableDays, r)
	}
	return nil
}

// DefaultRecoverableDays returns the retention used when none was given for the level.
func (r RecoveryLevel) DefaultRecoverableDays() *int {
	if !r.Recoverable() {
		return nil
	}
	days := MaxRecoverableDays
	return &days
}

// String implements fmt.Stringer.
func (r RecoveryLevel) String() string {
	return string(r)
}

// FormatRecoverableDays renders optional recoverable days for logs and messages.
func FormatRecoverableDays(days *int) string {
	if days == nil {
		return "none"
	}
	return fmt.Sprintf("%d", *days)
}
