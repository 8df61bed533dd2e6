package store

import (
	"log/slog"
	"time"

	"github.com/allisson/vaultemu/internal/entity/domain"
	"github.com/allisson/vaultemu/internal/errors"
)

// VaultStore is the soft-delete state machine of one entity kind inside one
// vault: an active and a deleted VersionedStore sharing the vault's recovery settings.
type VaultStore[E domain.Entity] struct {
	vault           string
	kind            string
	recoveryLevel   domain.RecoveryLevel
	recoverableDays *int
	active          *VersionedStore[E]
	deleted         *VersionedStore[E]
	logger          *slog.Logger
	now             func() time.Time
}

// NewVaultStore creates the active/deleted store pair for an entity kind.
func NewVaultStore[E domain.Entity](
	vault string,
	kind string,
	level domain.RecoveryLevel,
	recoverableDays *int,
	logger *slog.Logger,
) (*VaultStore[E], error) {
	active, err := NewVersionedStore[E](vault, RoleActive, level, recoverableDays)
	if err != nil {
		return nil, err
	}
	deleted, err := NewVersionedStore[E](vault, RoleDeleted, level, recoverableDays)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &VaultStore[E]{
		vault:           vault,
		kind:            kind,
		recoveryLevel:   level,
		recoverableDays: recoverableDays,
		active:          active,
		deleted:         deleted,
		logger:          logger.With(slog.String("vault", vault), slog.String("kind", kind)),
		now:             func() time.Time { return time.Now().UTC() },
	}, nil
}

// SetClock replaces the wall clock. Only meant for tests.
func (s *VaultStore[E]) SetClock(now func() time.Time) {
	s.now = now
}

// Now returns the current wall clock time.
func (s *VaultStore[E]) Now() time.Time {
	return s.now()
}

// Vault returns the base URI of the owning vault.
func (s *VaultStore[E]) Vault() string {
	return s.vault
}

// RecoveryLevel returns the recovery level applied to new entities.
func (s *VaultStore[E]) RecoveryLevel() domain.RecoveryLevel {
	return s.recoveryLevel
}

// RecoverableDays returns the retention applied to new entities.
func (s *VaultStore[E]) RecoverableDays() *int {
	return s.recoverableDays
}

// EntityID builds the id of a name inside this vault.
func (s *VaultStore[E]) EntityID(name string) domain.EntityID {
	return domain.NewEntityID(s.vault, name)
}

// NewBase creates the base record of a new version stamped with the vault's recovery settings.
// Later updates of the record are stamped with the store clock.
func (s *VaultStore[E]) NewBase(id domain.VersionedEntityID) *domain.Base {
	base := domain.NewBase(id, s.recoveryLevel, s.recoverableDays, s.now())
	base.SetClock(s.Now)
	return base
}

// AddVersion stores a new version. It fails when the name only exists as a deleted entity.
func (s *VaultStore[E]) AddVersion(entity E) error {
	s.purgeExpired()
	if err := s.active.PutUnlessIn(s.deleted, entity); err != nil {
		return err
	}
	s.logger.Debug("entity version added", slog.String("id", entity.ID().String()))
	return nil
}

// Delete moves every version of the name to the deleted store, or destroys
// them when the recovery level is not recoverable. Managed names are rejected.
func (s *VaultStore[E]) Delete(id domain.EntityID) error {
	if err := rejectManaged(s.active, id); err != nil {
		return err
	}
	return s.DeleteManaged(id)
}

// DeleteManaged is Delete without the managed guard, used by the owner of a
// managed entity to cascade its own deletion.
func (s *VaultStore[E]) DeleteManaged(id domain.EntityID) error {
	now := s.now()
	err := s.active.MoveTo(id, s.deleted, func(e E) E {
		e.BaseEntity().MarkDeleted(now)
		return e
	})
	if err != nil {
		return err
	}
	s.logger.Debug("entity deleted", slog.String("id", id.String()))
	return nil
}

// Recover moves a deleted name back to the active store. Managed names are rejected.
func (s *VaultStore[E]) Recover(id domain.EntityID) error {
	if err := rejectManaged(s.deleted, id); err != nil {
		return err
	}
	return s.RecoverManaged(id)
}

// RecoverManaged is Recover without the managed guard.
func (s *VaultStore[E]) RecoverManaged(id domain.EntityID) error {
	s.purgeExpired()
	err := s.deleted.MoveTo(id, s.active, func(e E) E {
		e.BaseEntity().MarkRecovered()
		return e
	})
	if err != nil {
		return err
	}
	s.logger.Debug("entity recovered", slog.String("id", id.String()))
	return nil
}

// Purge permanently removes a deleted name when its recovery level allows
// it. Managed names are rejected.
func (s *VaultStore[E]) Purge(id domain.EntityID) error {
	if err := rejectManaged(s.deleted, id); err != nil {
		return err
	}
	return s.PurgeManaged(id)
}

// PurgeManaged is Purge without the managed guard.
func (s *VaultStore[E]) PurgeManaged(id domain.EntityID) error {
	s.purgeExpired()
	if !s.deleted.ContainsName(id) {
		return errors.Wrapf(domain.ErrEntityNotFound, "%s", id)
	}
	if err := s.deleted.PurgeDeleted(id); err != nil {
		return err
	}
	s.logger.Debug("entity purged", slog.String("id", id.String()))
	return nil
}

// SetEnabled enables or disables an active version.
func (s *VaultStore[E]) SetEnabled(id domain.VersionedEntityID, enabled bool) error {
	entity, err := s.active.Get(id)
	if err != nil {
		return err
	}
	entity.BaseEntity().SetEnabled(enabled)
	return nil
}

// SetExpiry sets the validity window of an active version.
func (s *VaultStore[E]) SetExpiry(id domain.VersionedEntityID, notBefore, expiry *time.Time) error {
	entity, err := s.active.Get(id)
	if err != nil {
		return err
	}
	return entity.BaseEntity().SetExpiry(notBefore, expiry)
}

// AddTags merges tags into an active version.
func (s *VaultStore[E]) AddTags(id domain.VersionedEntityID, tags map[string]string) error {
	entity, err := s.active.Get(id)
	if err != nil {
		return err
	}
	entity.BaseEntity().AddTags(tags)
	return nil
}

// ClearTags removes every tag of an active version.
func (s *VaultStore[E]) ClearTags(id domain.VersionedEntityID) error {
	entity, err := s.active.Get(id)
	if err != nil {
		return err
	}
	entity.BaseEntity().ClearTags()
	return nil
}

// Get returns an active version.
func (s *VaultStore[E]) Get(id domain.VersionedEntityID) (E, error) {
	return s.active.Get(id)
}

// GetDeleted returns a deleted version.
func (s *VaultStore[E]) GetDeleted(id domain.VersionedEntityID) (E, error) {
	s.purgeExpired()
	return s.deleted.Get(id)
}

// Latest returns the latest active version of the name.
func (s *VaultStore[E]) Latest(id domain.EntityID) (E, error) {
	return s.active.LatestEntity(id)
}

// LatestDeleted returns the latest deleted version of the name.
func (s *VaultStore[E]) LatestDeleted(id domain.EntityID) (E, error) {
	s.purgeExpired()
	return s.deleted.LatestEntity(id)
}

// Versions returns every active version of the name in creation order.
func (s *VaultStore[E]) Versions(id domain.EntityID) ([]string, error) {
	return s.active.Versions(id)
}

// LatestVersion returns the id of the latest active version.
func (s *VaultStore[E]) LatestVersion(id domain.EntityID) (domain.VersionedEntityID, error) {
	return s.active.LatestVersion(id)
}

// ListLatest returns the latest active version of every name.
func (s *VaultStore[E]) ListLatest() []E {
	return s.active.ListLatest()
}

// ListLatestNonManaged returns the latest active version of every name not owned by another entity.
func (s *VaultStore[E]) ListLatestNonManaged() []E {
	return s.active.ListLatestNonManaged()
}

// ListDeleted returns the latest deleted version of every non managed name.
func (s *VaultStore[E]) ListDeleted() []E {
	s.purgeExpired()
	return s.deleted.ListLatestNonManaged()
}

// IsActive reports whether the name exists in the active store.
func (s *VaultStore[E]) IsActive(id domain.EntityID) bool {
	return s.active.ContainsName(id)
}

// IsDeleted reports whether the name exists in the deleted store.
func (s *VaultStore[E]) IsDeleted(id domain.EntityID) bool {
	return s.deleted.ContainsName(id)
}

// ForEachActive calls fn for every active version.
func (s *VaultStore[E]) ForEachActive(fn func(E)) {
	s.active.ForEach(fn)
}

// ForEachDeleted calls fn for every deleted version.
func (s *VaultStore[E]) ForEachDeleted(fn func(E)) {
	s.deleted.ForEach(fn)
}

// TimeShift moves every timestamp of every version back by offsetSeconds,
// then purges deleted entities whose retention ran out.
func (s *VaultStore[E]) TimeShift(offsetSeconds int) error {
	if offsetSeconds <= 0 {
		return domain.ErrInvalidTimeShift
	}
	var shiftErr error
	shift := func(e E) {
		if err := e.TimeShift(offsetSeconds); err != nil && shiftErr == nil {
			shiftErr = err
		}
	}
	s.active.ForEach(shift)
	s.deleted.ForEach(shift)
	if shiftErr != nil {
		return shiftErr
	}
	s.purgeExpired()
	return nil
}

// NamesReadyForRemoval returns the names present in neither store.
func (s *VaultStore[E]) NamesReadyForRemoval(names []string) []string {
	var result []string
	for _, name := range names {
		id := s.EntityID(name)
		if !s.active.ContainsName(id) && !s.deleted.ContainsName(id) {
			result = append(result, name)
		}
	}
	return result
}

func (s *VaultStore[E]) purgeExpired() {
	for _, id := range s.deleted.PurgeExpired(s.now()) {
		s.logger.Debug("expired entity purged", slog.String("id", id.String()))
	}
}

// rejectManaged fails when the latest version of the name in src is managed.
// A missing name passes, so the caller reports not found itself.
func rejectManaged[E domain.Entity](src *VersionedStore[E], id domain.EntityID) error {
	latest, err := src.LatestEntity(id)
	if err != nil {
		return nil
	}
	if latest.BaseEntity().Managed() {
		return errors.Wrapf(domain.ErrManagedEntity, "%s", id)
	}
	return nil
}
