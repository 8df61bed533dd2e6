package domain

import (
	"maps"
	"sync"
	"time"
)

// Entity is implemented by every record kept in a versioned store.
type Entity interface {
	// ID returns the versioned identifier of the record.
	ID() VersionedEntityID
	// BaseEntity returns the shared lifecycle record.
	BaseEntity() *Base
	// TimeShift moves every timestamp of the record back by offsetSeconds.
	TimeShift(offsetSeconds int) error
}

// Deletion holds the soft-delete stamps. Both dates exist together or not at all.
type Deletion struct {
	DeletedDate        time.Time
	ScheduledPurgeDate time.Time
}

// Base is the mutable lifecycle record shared by keys, secrets and certificates.
// All accessors are safe for concurrent use; a time shift is atomic per entity.
type Base struct {
	mu              sync.RWMutex
	id              VersionedEntityID
	tags            map[string]string
	enabled         bool
	notBefore       *time.Time
	expiry          *time.Time
	created         time.Time
	updated         time.Time
	recoveryLevel   RecoveryLevel
	recoverableDays *int
	deletion        *Deletion
	managed         bool
	clock           func() time.Time
}

// NewBase creates an enabled, untagged record created at now.
func NewBase(id VersionedEntityID, level RecoveryLevel, recoverableDays *int, now time.Time) *Base {
	now = now.UTC()
	return &Base{
		id:              id,
		tags:            map[string]string{},
		enabled:         true,
		created:         now,
		updated:         now,
		recoveryLevel:   level,
		recoverableDays: copyInt(recoverableDays),
		clock:           time.Now,
	}
}

// SetClock replaces the clock stamping updates. Stores pass their own clock.
func (b *Base) SetClock(now func() time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.clock = now
}

// ID returns the versioned identifier.
func (b *Base) ID() VersionedEntityID {
	return b.id
}

// BaseEntity returns the receiver so that embedding types satisfy Entity.
func (b *Base) BaseEntity() *Base {
	return b
}

// Tags returns a copy of the tags.
func (b *Base) Tags() map[string]string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return maps.Clone(b.tags)
}

// SetTags replaces the tags.
func (b *Base) SetTags(tags map[string]string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tags = maps.Clone(tags)
	if b.tags == nil {
		b.tags = map[string]string{}
	}
	b.touch()
}

// AddTags merges tags into the existing ones, overwriting equal keys.
func (b *Base) AddTags(tags map[string]string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	maps.Copy(b.tags, tags)
	b.touch()
}

// ClearTags removes every tag.
func (b *Base) ClearTags() {
	b.SetTags(nil)
}

// Enabled reports whether the version can be used.
func (b *Base) Enabled() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.enabled
}

// SetEnabled enables or disables the version.
func (b *Base) SetEnabled(enabled bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.enabled = enabled
	b.touch()
}

// NotBefore returns the start of the validity window, nil when unbounded.
func (b *Base) NotBefore() *time.Time {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return copyTime(b.notBefore)
}

// Expiry returns the end of the validity window, nil when unbounded.
func (b *Base) Expiry() *time.Time {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return copyTime(b.expiry)
}

// SetExpiry sets the validity window. Either bound may be nil.
func (b *Base) SetExpiry(notBefore, expiry *time.Time) error {
	return b.setValidity(notBefore, expiry, true)
}

// SetValidity sets the validity window without touching the update
// timestamp. Used while minting or shifting a version.
func (b *Base) SetValidity(notBefore, expiry *time.Time) error {
	return b.setValidity(notBefore, expiry, false)
}

func (b *Base) setValidity(notBefore, expiry *time.Time, touch bool) error {
	if notBefore != nil && expiry != nil && notBefore.After(*expiry) {
		return ErrNotBeforeAfterExpiry
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.notBefore = copyTime(notBefore)
	b.expiry = copyTime(expiry)
	if touch {
		b.touch()
	}
	return nil
}

// Created returns the creation timestamp.
func (b *Base) Created() time.Time {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.created
}

// Updated returns the last update timestamp.
func (b *Base) Updated() time.Time {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.updated
}

// StampCreated sets both the creation and update timestamps. Used when a
// version is minted for a point in the past (renewal catch-up).
func (b *Base) StampCreated(t time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.created = t.UTC()
	b.updated = t.UTC()
}

// RecoveryLevel returns the level fixed at creation.
func (b *Base) RecoveryLevel() RecoveryLevel {
	return b.recoveryLevel
}

// RecoverableDays returns the retention fixed at creation, nil when not recoverable.
func (b *Base) RecoverableDays() *int {
	return copyInt(b.recoverableDays)
}

// Managed reports whether the entity is owned by another entity (e.g. a certificate key).
func (b *Base) Managed() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.managed
}

// SetManaged marks the entity as owned by another entity.
func (b *Base) SetManaged(managed bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.managed = managed
}

// Deletion returns a copy of the soft-delete stamps, nil while active.
func (b *Base) Deletion() *Deletion {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.deletion == nil {
		return nil
	}
	d := *b.deletion
	return &d
}

// MarkDeleted stamps deletedDate (truncated to seconds) and scheduledPurgeDate.
func (b *Base) MarkDeleted(now time.Time) {
	deleted := now.UTC().Truncate(time.Second)
	days := 0
	if b.recoverableDays != nil {
		days = *b.recoverableDays
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.deletion = &Deletion{
		DeletedDate:        deleted,
		ScheduledPurgeDate: deleted.AddDate(0, 0, days),
	}
}

// MarkRecovered clears the soft-delete stamps.
func (b *Base) MarkRecovered() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.deletion = nil
}

// IsPurgeExpired reports whether the scheduled purge date has passed.
func (b *Base) IsPurgeExpired(now time.Time) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.deletion != nil && b.deletion.ScheduledPurgeDate.Before(now)
}

// CanPurge reports whether an explicit purge is allowed.
func (b *Base) CanPurge() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.deletion != nil && b.recoveryLevel.Purgeable()
}

// TimeShift subtracts offsetSeconds from every timestamp of the record,
// simulating that this much time has passed.
func (b *Base) TimeShift(offsetSeconds int) error {
	if offsetSeconds <= 0 {
		return ErrInvalidTimeShift
	}
	d := time.Duration(offsetSeconds) * time.Second
	b.mu.Lock()
	defer b.mu.Unlock()
	b.created = b.created.Add(-d)
	b.updated = b.updated.Add(-d)
	b.notBefore = shiftTime(b.notBefore, d)
	b.expiry = shiftTime(b.expiry, d)
	if b.deletion != nil {
		b.deletion.DeletedDate = b.deletion.DeletedDate.Add(-d)
		b.deletion.ScheduledPurgeDate = b.deletion.ScheduledPurgeDate.Add(-d)
	}
	return nil
}

// touch must be called with the write lock held.
func (b *Base) touch() {
	b.updated = b.clock().UTC()
}

func shiftTime(t *time.Time, d time.Duration) *time.Time {
	if t == nil {
		return nil
	}
	shifted := t.Add(-d)
	return &shifted
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := t.UTC()
	return &c
}

func copyInt(i *int) *int {
	if i == nil {
		return nil
	}
	c := *i
	return &c
}

// TimePtr is a helper for building optional timestamps.
func TimePtr(t time.Time) *time.Time {
	return &t
}

// IntPtr is a helper for building optional day counts.
func IntPtr(i int) *int {
	return &i
}
