// Package store implements the in-memory versioned entity stores and the
// soft-delete state machine shared by keys, secrets and certificates.
package store

import (
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/allisson/vaultemu/internal/entity/domain"
	"github.com/allisson/vaultemu/internal/errors"
)

// Role fixes whether a store holds active or deleted entities.
type Role int

const (
	// RoleActive stores live entities.
	RoleActive Role = iota
	// RoleDeleted stores soft-deleted entities waiting for recovery or purge.
	RoleDeleted
)

// String implements fmt.Stringer.
func (r Role) String() string {
	if r == RoleDeleted {
		return "deleted"
	}
	return "active"
}

// VersionedStore keeps every version of every entity name of one kind, in
// insertion order. All per-name operations are atomic.
type VersionedStore[E domain.Entity] struct {
	mu              sync.RWMutex
	vault           string
	role            Role
	recoveryLevel   domain.RecoveryLevel
	recoverableDays *int
	versions        map[string][]string
	entities        map[string]map[string]E
}

// NewVersionedStore creates an empty store after validating the recovery settings.
func NewVersionedStore[E domain.Entity](
	vault string,
	role Role,
	level domain.RecoveryLevel,
	recoverableDays *int,
) (*VersionedStore[E], error) {
	if err := level.ValidateRecoverableDays(recoverableDays); err != nil {
		return nil, err
	}
	return &VersionedStore[E]{
		vault:           vault,
		role:            role,
		recoveryLevel:   level,
		recoverableDays: recoverableDays,
		versions:        map[string][]string{},
		entities:        map[string]map[string]E{},
	}, nil
}

// Role returns the role fixed at construction.
func (s *VersionedStore[E]) Role() Role {
	return s.role
}

// Put adds (or replaces) the version carried by the entity id. New versions become the latest.
func (s *VersionedStore[E]) Put(entity E) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.putLocked(entity)
}

func (s *VersionedStore[E]) putLocked(entity E) {
	id := entity.ID()
	byVersion, ok := s.entities[id.Name]
	if !ok {
		byVersion = map[string]E{}
		s.entities[id.Name] = byVersion
	}
	if _, exists := byVersion[id.Version]; !exists {
		s.versions[id.Name] = append(s.versions[id.Name], id.Version)
	}
	byVersion[id.Version] = entity
}

// Get returns the exact version.
func (s *VersionedStore[E]) Get(id domain.VersionedEntityID) (E, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entity, ok := s.entities[id.Name][id.Version]
	if !ok {
		var zero E
		return zero, errors.Wrapf(domain.ErrEntityNotFound, "%s", id)
	}
	return entity, nil
}

// Versions returns every version of the name in insertion order.
func (s *VersionedStore[E]) Versions(id domain.EntityID) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	versions, ok := s.versions[id.Name]
	if !ok {
		return nil, errors.Wrapf(domain.ErrEntityNotFound, "%s", id)
	}
	return slices.Clone(versions), nil
}

// LatestVersion returns the id of the most recently added version.
func (s *VersionedStore[E]) LatestVersion(id domain.EntityID) (domain.VersionedEntityID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	versions, ok := s.versions[id.Name]
	if !ok || len(versions) == 0 {
		return domain.VersionedEntityID{}, errors.Wrapf(domain.ErrEntityNotFound, "%s", id)
	}
	return id.WithVersion(versions[len(versions)-1]), nil
}

// LatestEntity returns the most recently added version.
func (s *VersionedStore[E]) LatestEntity(id domain.EntityID) (E, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entity, ok := s.latestLocked(id.Name)
	if !ok {
		return entity, errors.Wrapf(domain.ErrEntityNotFound, "%s", id)
	}
	return entity, nil
}

func (s *VersionedStore[E]) latestLocked(name string) (E, bool) {
	versions := s.versions[name]
	if len(versions) == 0 {
		var zero E
		return zero, false
	}
	entity, ok := s.entities[name][versions[len(versions)-1]]
	return entity, ok
}

// ListLatest returns the latest version of every name, sorted by name.
func (s *VersionedStore[E]) ListLatest() []E {
	return s.listLatest(func(E) bool { return true })
}

// ListLatestNonManaged is ListLatest without entities owned by another entity.
func (s *VersionedStore[E]) ListLatestNonManaged() []E {
	return s.listLatest(func(e E) bool { return !e.BaseEntity().Managed() })
}

func (s *VersionedStore[E]) listLatest(keep func(E) bool) []E {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]E, 0, len(s.versions))
	for _, name := range s.sortedNamesLocked() {
		entity, ok := s.latestLocked(name)
		if ok && keep(entity) {
			result = append(result, entity)
		}
	}
	return result
}

// Names returns every stored name, sorted.
func (s *VersionedStore[E]) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedNamesLocked()
}

func (s *VersionedStore[E]) sortedNamesLocked() []string {
	names := make([]string, 0, len(s.versions))
	for name := range s.versions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ContainsName reports whether any version of the name is stored.
func (s *VersionedStore[E]) ContainsName(id domain.EntityID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.versions[id.Name]
	return ok
}

// ContainsEntity reports whether the exact version is stored.
func (s *VersionedStore[E]) ContainsEntity(id domain.VersionedEntityID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.entities[id.Name][id.Version]
	return ok
}

// MoveTo removes every version of the name and, when the recovery level is
// recoverable, re-inserts them into dst after applying transform. Both stores
// are locked for the whole move, active role first, so no reader sees the name
// in both stores or, for recoverable levels, in neither.
func (s *VersionedStore[E]) MoveTo(id domain.EntityID, dst *VersionedStore[E], transform func(E) E) error {
	if dst == s {
		return errors.Wrap(errors.ErrIllegalState, "source and destination store must differ")
	}
	unlock := lockPair(s, dst)
	defer unlock()

	versions, ok := s.versions[id.Name]
	if !ok {
		return errors.Wrapf(domain.ErrEntityNotFound, "%s", id)
	}
	byVersion := s.entities[id.Name]
	delete(s.versions, id.Name)
	delete(s.entities, id.Name)

	if !s.recoveryLevel.Recoverable() {
		return nil
	}
	for _, version := range versions {
		entity := byVersion[version]
		if transform != nil {
			entity = transform(entity)
		}
		dst.putLocked(entity)
	}
	return nil
}

// PutUnlessIn adds the entity unless its name is absent here and present in
// other. The check and the put run under both locks, like MoveTo, so a
// concurrent move cannot leave the name in both stores.
func (s *VersionedStore[E]) PutUnlessIn(other *VersionedStore[E], entity E) error {
	if other == s {
		return errors.Wrap(errors.ErrIllegalState, "stores must differ")
	}
	unlock := lockPair(s, other)
	defer unlock()

	name := entity.ID().Name
	if _, here := s.versions[name]; !here {
		if _, there := other.versions[name]; there {
			return errors.Wrapf(domain.ErrDeletedEntityExists, "%s", entity.ID().Unversioned())
		}
	}
	s.putLocked(entity)
	return nil
}

// lockPair write-locks both stores, active role first.
func lockPair[E domain.Entity](a, b *VersionedStore[E]) func() {
	first, second := a, b
	if a.role > b.role {
		first, second = b, a
	}
	first.mu.Lock()
	second.mu.Lock()
	return func() {
		second.mu.Unlock()
		first.mu.Unlock()
	}
}

// PurgeExpired removes every name having a version whose scheduled purge date is before now.
// It panics on an active-role store.
func (s *VersionedStore[E]) PurgeExpired(now time.Time) []domain.EntityID {
	s.assertDeletedRole()
	s.mu.Lock()
	defer s.mu.Unlock()
	var purged []domain.EntityID
	for _, name := range s.sortedNamesLocked() {
		expired := false
		for _, entity := range s.entities[name] {
			if entity.BaseEntity().IsPurgeExpired(now) {
				expired = true
				break
			}
		}
		if expired {
			delete(s.versions, name)
			delete(s.entities, name)
			purged = append(purged, domain.NewEntityID(s.vault, name))
		}
	}
	return purged
}

// PurgeDeleted permanently removes the name when every version can be purged.
// It panics on an active-role store.
func (s *VersionedStore[E]) PurgeDeleted(id domain.EntityID) error {
	s.assertDeletedRole()
	s.mu.Lock()
	defer s.mu.Unlock()
	byVersion, ok := s.entities[id.Name]
	if !ok {
		return errors.Wrapf(domain.ErrEntityNotFound, "%s", id)
	}
	for _, entity := range byVersion {
		if !entity.BaseEntity().CanPurge() {
			return errors.Wrapf(domain.ErrEntityNotPurgeable, "%s (%s)", id, s.recoveryLevel)
		}
	}
	delete(s.versions, id.Name)
	delete(s.entities, id.Name)
	return nil
}

// ForEach calls fn for every stored version. fn runs outside the store lock
// on a snapshot, so it may call back into the store.
func (s *VersionedStore[E]) ForEach(fn func(E)) {
	s.mu.RLock()
	snapshot := make([]E, 0, len(s.entities))
	for _, name := range s.sortedNamesLocked() {
		for _, version := range s.versions[name] {
			snapshot = append(snapshot, s.entities[name][version])
		}
	}
	s.mu.RUnlock()
	for _, entity := range snapshot {
		fn(entity)
	}
}

func (s *VersionedStore[E]) assertDeletedRole() {
	if s.role != RoleDeleted {
		panic(domain.ErrNotDeletedRole)
	}
}
