package domain

import (
	"time"

	entityDomain "github.com/allisson/vaultemu/internal/entity/domain"
	"github.com/allisson/vaultemu/internal/errors"
	"github.com/allisson/vaultemu/internal/lifetime"
)

// LifetimePolicy holds the lifetime actions of a certificate. ActionRenew
// issues a new certificate version.
type LifetimePolicy struct {
	*lifetime.Policy
}

// NewLifetimePolicy creates a lifetime action policy.
func NewLifetimePolicy(
	id entityDomain.EntityID,
	actions map[lifetime.Action]lifetime.Trigger,
	now time.Time,
) *LifetimePolicy {
	return &LifetimePolicy{Policy: lifetime.NewPolicy(id, actions, now)}
}

// NewDefaultLifetimePolicy creates the policy attached to new certificates:
// renew at 80% of the lifetime.
func NewDefaultLifetimePolicy(id entityDomain.EntityID, now time.Time) *LifetimePolicy {
	return NewLifetimePolicy(id, map[lifetime.Action]lifetime.Trigger{
		lifetime.ActionRenew: {Kind: lifetime.LifetimePercentage, Value: lifetime.DefaultRenewPercentage},
	}, now)
}

// AutoRenew reports whether the policy renews the certificate.
func (p *LifetimePolicy) AutoRenew() bool {
	return p.HasAction(lifetime.ActionRenew)
}

// Validate checks every trigger against the certificate validity.
func (p *LifetimePolicy) Validate(validityMonths int) error {
	actions := p.Actions()
	if len(actions) == 0 {
		return lifetime.ErrNoActions
	}
	for action, trigger := range actions {
		if action != lifetime.ActionRenew && action != lifetime.ActionNotify {
			return errors.Wrapf(lifetime.ErrInvalidTrigger, "unknown action %q", action)
		}
		if err := trigger.ValidateForCertificate(validityMonths); err != nil {
			return err
		}
	}
	return nil
}

func offsetFor(validityMonths int) func(lifetime.Trigger) lifetime.OffsetFunc {
	return func(trigger lifetime.Trigger) lifetime.OffsetFunc {
		return func(start time.Time) int64 {
			return trigger.AfterDays(start, lifetime.AddMonths(start, validityMonths))
		}
	}
}

// MissedRenewals returns the renewals that should have happened since validityStart.
func (p *LifetimePolicy) MissedRenewals(validityStart time.Time, validityMonths int, now time.Time) []time.Time {
	return p.MissedTriggers(lifetime.ActionRenew, validityStart, offsetFor(validityMonths), now)
}

// MissedNotifications returns the notifications that should have fired since validityStart.
func (p *LifetimePolicy) MissedNotifications(validityStart time.Time, validityMonths int, now time.Time) []time.Time {
	return p.MissedTriggers(lifetime.ActionNotify, validityStart, offsetFor(validityMonths), now)
}
