package lifetime

import (
	"maps"
	"sync"
	"time"

	entityDomain "github.com/allisson/vaultemu/internal/entity/domain"
)

// Policy holds the lifetime actions attached to an entity name. It is shared
// by certificate lifetime policies and key rotation policies.
type Policy struct {
	mu        sync.RWMutex
	id        entityDomain.EntityID
	createdOn time.Time
	updatedOn time.Time
	actions   map[Action]Trigger
	clock     func() time.Time
}

// NewPolicy creates a policy created at now.
func NewPolicy(id entityDomain.EntityID, actions map[Action]Trigger, now time.Time) *Policy {
	now = now.UTC()
	return &Policy{
		id:        id,
		createdOn: now,
		updatedOn: now,
		actions:   maps.Clone(actions),
		clock:     time.Now,
	}
}

// SetClock replaces the clock stamping updates.
func (p *Policy) SetClock(now func() time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clock = now
}

// ID returns the entity the policy belongs to.
func (p *Policy) ID() entityDomain.EntityID {
	return p.id
}

// CreatedOn returns the creation timestamp.
func (p *Policy) CreatedOn() time.Time {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.createdOn
}

// UpdatedOn returns the last update timestamp.
func (p *Policy) UpdatedOn() time.Time {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.updatedOn
}

// Actions returns a copy of the configured actions.
func (p *Policy) Actions() map[Action]Trigger {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return maps.Clone(p.actions)
}

// Trigger returns the trigger of an action.
func (p *Policy) Trigger(action Action) (Trigger, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	trigger, ok := p.actions[action]
	return trigger, ok
}

// HasAction reports whether the action is configured.
func (p *Policy) HasAction(action Action) bool {
	_, ok := p.Trigger(action)
	return ok
}

// SetActions replaces the actions and marks the policy updated.
func (p *Policy) SetActions(actions map[Action]Trigger) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.actions = maps.Clone(actions)
	p.markUpdate()
}

// MarkUpdate stamps the update timestamp.
func (p *Policy) MarkUpdate() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.markUpdate()
}

func (p *Policy) markUpdate() {
	p.updatedOn = p.clock().UTC()
}

// TimeShift moves the policy timestamps back by offsetSeconds.
func (p *Policy) TimeShift(offsetSeconds int) error {
	if offsetSeconds <= 0 {
		return entityDomain.ErrInvalidTimeShift
	}
	d := time.Duration(offsetSeconds) * time.Second
	p.mu.Lock()
	defer p.mu.Unlock()
	p.createdOn = p.createdOn.Add(-d)
	p.updatedOn = p.updatedOn.Add(-d)
	return nil
}

// MissedTriggers returns the trigger timestamps of action that should have
// fired between the entity creation and now, or nil when the action is not configured.
func (p *Policy) MissedTriggers(
	action Action,
	entityCreation time.Time,
	offsetFor func(Trigger) OffsetFunc,
	now time.Time,
) []time.Time {
	trigger, ok := p.Trigger(action)
	if !ok {
		return nil
	}
	offset := offsetFor(trigger)
	start := FindTriggerTimeOffset(p.CreatedOn(), entityCreation, offset)
	return CollectMissedTriggerDays(offset, start, now)
}
