package usecase

import (
	"context"
	"log/slog"
	"sync"
	"time"

	cryptoDomain "github.com/allisson/vaultemu/internal/crypto/domain"
	cryptoService "github.com/allisson/vaultemu/internal/crypto/service"
	entityDomain "github.com/allisson/vaultemu/internal/entity/domain"
	"github.com/allisson/vaultemu/internal/entity/store"
	"github.com/allisson/vaultemu/internal/errors"
	keysDomain "github.com/allisson/vaultemu/internal/keys/domain"
	"github.com/allisson/vaultemu/internal/lifetime"
)

// EntityKind names keys in logs and notifications.
const EntityKind = "key"

// CreateKeyInput holds the optional attributes of a new key version.
type CreateKeyInput struct {
	Spec       cryptoDomain.KeySpec
	Operations []cryptoDomain.KeyOperation
	Tags       map[string]string
	// Enabled defaults to true when nil.
	Enabled   *bool
	NotBefore *time.Time
	Expiry    *time.Time
	Managed   bool
}

// KeyStore keeps the keys of one vault.
type KeyStore struct {
	*store.VaultStore[*keysDomain.Key]
	generator KeyGenerator
	notifier  lifetime.Notifier
	logger    *slog.Logger

	mu       sync.RWMutex
	policies map[string]*keysDomain.RotationPolicy
}

// NewKeyStore creates an empty key store.
func NewKeyStore(
	vault string,
	level entityDomain.RecoveryLevel,
	recoverableDays *int,
	generator KeyGenerator,
	notifier lifetime.Notifier,
	logger *slog.Logger,
) (*KeyStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	vaultStore, err := store.NewVaultStore[*keysDomain.Key](vault, EntityKind, level, recoverableDays, logger)
	if err != nil {
		return nil, err
	}
	return &KeyStore{
		VaultStore: vaultStore,
		generator:  generator,
		notifier:   notifier,
		logger:     logger.With(slog.String("vault", vault), slog.String("kind", EntityKind)),
		policies:   map[string]*keysDomain.RotationPolicy{},
	}, nil
}

// CreateKeyVersion generates new material and stores it as the latest version of name.
func (s *KeyStore) CreateKeyVersion(name string, input CreateKeyInput) (entityDomain.VersionedEntityID, error) {
	material, err := s.generator.GenerateKey(input.Spec)
	if err != nil {
		return entityDomain.VersionedEntityID{}, err
	}
	return s.ImportKeyVersion(name, material, input)
}

// ImportKeyVersion stores existing material as the latest version of name.
func (s *KeyStore) ImportKeyVersion(
	name string,
	material cryptoService.KeyMaterial,
	input CreateKeyInput,
) (entityDomain.VersionedEntityID, error) {
	id := s.EntityID(name).NewVersion()
	key := keysDomain.NewKey(s.NewBase(id), material, input.Operations)
	if input.Tags != nil {
		key.SetTags(input.Tags)
	}
	if input.Enabled != nil {
		key.SetEnabled(*input.Enabled)
	}
	key.SetManaged(input.Managed)

	expiry := input.Expiry
	if expiry == nil {
		expiry = s.policyExpiry(id.Unversioned(), key.Created())
	}
	if input.NotBefore != nil || expiry != nil {
		if err := key.SetValidity(input.NotBefore, expiry); err != nil {
			return entityDomain.VersionedEntityID{}, err
		}
	}

	if err := s.AddVersion(key); err != nil {
		return entityDomain.VersionedEntityID{}, err
	}
	return id, nil
}

// CreateManagedKeyVersion creates the key backing a certificate: managed,
// enabled, permitting every operation, valid in [notBefore, expiry].
func (s *KeyStore) CreateManagedKeyVersion(
	name string,
	spec cryptoDomain.KeySpec,
	notBefore, expiry time.Time,
) (entityDomain.VersionedEntityID, error) {
	return s.CreateKeyVersion(name, CreateKeyInput{
		Spec:       spec,
		Operations: cryptoDomain.AllKeyOperations,
		NotBefore:  &notBefore,
		Expiry:     &expiry,
		Managed:    true,
	})
}

// RotateKey creates a new version with material equivalent to the latest
// version. Operations and tags are copied and the new version is enabled.
func (s *KeyStore) RotateKey(id entityDomain.EntityID) (entityDomain.VersionedEntityID, error) {
	latest, err := s.Latest(id)
	if err != nil {
		return entityDomain.VersionedEntityID{}, err
	}
	enabled := true
	rotated, err := s.CreateKeyVersion(id.Name, CreateKeyInput{
		Spec:       latest.Spec(),
		Operations: latest.Operations(),
		Tags:       latest.Tags(),
		Enabled:    &enabled,
		Managed:    latest.Managed(),
	})
	if err != nil {
		return entityDomain.VersionedEntityID{}, err
	}
	s.logger.Debug("key rotated", slog.String("id", rotated.String()))
	return rotated, nil
}

// SetRotationPolicy validates the policy against the latest key version and
// stores it, merging into the existing policy of the key.
func (s *KeyStore) SetRotationPolicy(policy *keysDomain.RotationPolicy) error {
	if err := keysDomain.ValidateActions(policy.Actions()); err != nil {
		return err
	}
	latest, err := s.Latest(policy.ID())
	if err != nil {
		return err
	}
	if err := policy.Validate(latest.Expiry()); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.policies[policy.ID().Name]
	if !ok {
		policy.SetClock(s.Now)
		s.policies[policy.ID().Name] = policy
		return nil
	}
	return existing.Update(policy)
}

// RotationPolicy returns the policy of the key. Policies of purged keys are dropped first.
func (s *KeyStore) RotationPolicy(id entityDomain.EntityID) (*keysDomain.RotationPolicy, error) {
	s.purgeDeletedPolicies()
	s.mu.RLock()
	defer s.mu.RUnlock()
	policy, ok := s.policies[id.Name]
	if !ok {
		return nil, errors.Wrapf(keysDomain.ErrRotationPolicyNotFound, "%s", id)
	}
	return policy, nil
}

// TimeShift shifts every key version and policy, then replays the rotations
// and notifications that fell into the skipped interval.
func (s *KeyStore) TimeShift(ctx context.Context, offsetSeconds int) error {
	if err := s.VaultStore.TimeShift(offsetSeconds); err != nil {
		return err
	}
	for _, policy := range s.policySnapshot() {
		if err := policy.TimeShift(offsetSeconds); err != nil {
			return err
		}
	}
	s.purgeDeletedPolicies()

	for _, policy := range s.policySnapshot() {
		if !s.IsActive(policy.ID()) {
			continue
		}
		s.notifyMissed(ctx, policy)
		if err := s.performMissedRotations(policy); err != nil {
			return err
		}
	}
	return nil
}

func (s *KeyStore) performMissedRotations(policy *keysDomain.RotationPolicy) error {
	latest, err := s.Latest(policy.ID())
	if err != nil {
		return err
	}
	for _, rotationTime := range policy.MissedRotations(latest.Created(), s.Now()) {
		rotated, err := s.RotateKey(policy.ID())
		if err != nil {
			return err
		}
		key, err := s.Get(rotated)
		if err != nil {
			return err
		}
		if diff := int(s.Now().Sub(rotationTime).Seconds()); diff > 0 {
			if err := key.TimeShift(diff); err != nil {
				return err
			}
		}
		s.logger.Info("missed key rotation replayed",
			slog.String("id", rotated.String()),
			slog.Time("rotation_time", rotationTime),
		)
	}
	return nil
}

func (s *KeyStore) notifyMissed(ctx context.Context, policy *keysDomain.RotationPolicy) {
	if s.notifier == nil {
		return
	}
	trigger, ok := policy.Trigger(lifetime.ActionNotify)
	if !ok {
		return
	}
	latest, err := s.Latest(policy.ID())
	if err != nil {
		return
	}
	for _, at := range policy.MissedNotifications(latest.Created(), s.Now()) {
		s.notifier.Notify(ctx, lifetime.Event{ID: policy.ID(), Kind: EntityKind, Trigger: trigger, TriggeredAt: at})
	}
}

func (s *KeyStore) policyExpiry(id entityDomain.EntityID, created time.Time) *time.Time {
	s.mu.RLock()
	policy, ok := s.policies[id.Name]
	s.mu.RUnlock()
	if !ok || policy.ExpiryDays() <= 0 {
		return nil
	}
	expiry := created.AddDate(0, 0, policy.ExpiryDays())
	return &expiry
}

func (s *KeyStore) policySnapshot() []*keysDomain.RotationPolicy {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*keysDomain.RotationPolicy, 0, len(s.policies))
	for _, policy := range s.policies {
		result = append(result, policy)
	}
	return result
}

func (s *KeyStore) purgeDeletedPolicies() {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.policies))
	for name := range s.policies {
		names = append(names, name)
	}
	for _, name := range s.NamesReadyForRemoval(names) {
		delete(s.policies, name)
	}
}
