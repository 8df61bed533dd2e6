package domain

import (
	"sync"
	"time"

	entityDomain "github.com/allisson/vaultemu/internal/entity/domain"
	"github.com/allisson/vaultemu/internal/errors"
	"github.com/allisson/vaultemu/internal/lifetime"
)

// RotationPolicy rotates a key periodically and sets the expiry of new versions.
// ActionRenew is the rotate action.
type RotationPolicy struct {
	*lifetime.Policy
	mu         sync.RWMutex
	expiryDays int
}

// NewRotationPolicy creates a rotation policy.
func NewRotationPolicy(
	id entityDomain.EntityID,
	expiryDays int,
	actions map[lifetime.Action]lifetime.Trigger,
	now time.Time,
) *RotationPolicy {
	return &RotationPolicy{
		Policy:     lifetime.NewPolicy(id, actions, now),
		expiryDays: expiryDays,
	}
}

// ExpiryDays returns the lifetime of new key versions.
func (p *RotationPolicy) ExpiryDays() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.expiryDays
}

// AutoRotate reports whether the policy rotates the key.
func (p *RotationPolicy) AutoRotate() bool {
	return p.HasAction(lifetime.ActionRenew)
}

// Validate checks every action against the expiry period and the latest key
// version's expiry.
func (p *RotationPolicy) Validate(latestExpiry *time.Time) error {
	expiryDays := p.ExpiryDays()
	for action, trigger := range p.Actions() {
		if err := trigger.ValidateForKey(expiryDays, latestExpiry); err != nil {
			return err
		}
		if action == lifetime.ActionNotify && trigger.Kind != lifetime.DaysBeforeExpiry {
			return lifetime.ErrNotifyAfterCreate
		}
	}
	return nil
}

// Update merges another policy into this one. A notify action, once set, cannot be removed.
func (p *RotationPolicy) Update(other *RotationPolicy) error {
	if p.HasAction(lifetime.ActionNotify) && !other.HasAction(lifetime.ActionNotify) {
		return lifetime.ErrNotifyRemoved
	}
	p.mu.Lock()
	p.expiryDays = other.ExpiryDays()
	p.mu.Unlock()
	p.SetActions(other.Actions())
	return nil
}

func (p *RotationPolicy) offsetFor(trigger lifetime.Trigger) lifetime.OffsetFunc {
	return lifetime.ConstantOffset(trigger.RotateAfterDays(p.ExpiryDays()))
}

// MissedRotations returns the rotations that should have happened since keyCreation.
func (p *RotationPolicy) MissedRotations(keyCreation, now time.Time) []time.Time {
	if !p.AutoRotate() {
		return nil
	}
	return p.MissedTriggers(lifetime.ActionRenew, keyCreation, p.offsetFor, now)
}

// MissedNotifications returns the notifications that should have fired since keyCreation.
func (p *RotationPolicy) MissedNotifications(keyCreation, now time.Time) []time.Time {
	return p.MissedTriggers(lifetime.ActionNotify, keyCreation, p.offsetFor, now)
}

// ValidateActions rejects a policy without actions.
func ValidateActions(actions map[lifetime.Action]lifetime.Trigger) error {
	if len(actions) == 0 {
		return lifetime.ErrNoActions
	}
	for action := range actions {
		if action != lifetime.ActionRenew && action != lifetime.ActionNotify {
			return errors.Wrapf(lifetime.ErrInvalidTrigger, "unknown action %q", action)
		}
	}
	return nil
}
