// Package usecase implements the certificate store of a vault. Every
// certificate version is backed by a managed key version and a managed
// secret version of the same name.
package usecase

import (
	"context"
	"log/slog"
	"sync"
	"time"

	certDomain "github.com/allisson/vaultemu/internal/certificates/domain"
	cryptoService "github.com/allisson/vaultemu/internal/crypto/service"
	entityDomain "github.com/allisson/vaultemu/internal/entity/domain"
	"github.com/allisson/vaultemu/internal/entity/store"
	"github.com/allisson/vaultemu/internal/errors"
	keysUsecase "github.com/allisson/vaultemu/internal/keys/usecase"
	"github.com/allisson/vaultemu/internal/lifetime"
	secretsUsecase "github.com/allisson/vaultemu/internal/secrets/usecase"
)

// EntityKind names certificates in logs and notifications.
const EntityKind = "certificate"

// CertificateStore keeps the certificates of one vault.
type CertificateStore struct {
	*store.VaultStore[*certDomain.Certificate]
	keys     *keysUsecase.KeyStore
	secrets  *secretsUsecase.SecretStore
	issuer   cryptoService.CertificateIssuer
	notifier lifetime.Notifier
	logger   *slog.Logger

	mu       sync.RWMutex
	policies map[string]*certDomain.LifetimePolicy
}

// NewCertificateStore creates an empty certificate store on top of the key
// and secret stores of the same vault.
func NewCertificateStore(
	vault string,
	level entityDomain.RecoveryLevel,
	recoverableDays *int,
	keys *keysUsecase.KeyStore,
	secrets *secretsUsecase.SecretStore,
	issuer cryptoService.CertificateIssuer,
	notifier lifetime.Notifier,
	logger *slog.Logger,
) (*CertificateStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	vaultStore, err := store.NewVaultStore[*certDomain.Certificate](vault, EntityKind, level, recoverableDays, logger)
	if err != nil {
		return nil, err
	}
	return &CertificateStore{
		VaultStore: vaultStore,
		keys:       keys,
		secrets:    secrets,
		issuer:     issuer,
		notifier:   notifier,
		logger:     logger.With(slog.String("vault", vault), slog.String("kind", EntityKind)),
		policies:   map[string]*certDomain.LifetimePolicy{},
	}, nil
}

// SetClock replaces the wall clock of the certificate store and its backing stores.
func (s *CertificateStore) SetClock(now func() time.Time) {
	s.VaultStore.SetClock(now)
	s.keys.SetClock(now)
	s.secrets.SetClock(now)
}

// CreateCertificateVersion generates a managed key, issues a self-signed
// certificate and stores the bundle as a managed secret. The three versions
// share the same version token.
func (s *CertificateStore) CreateCertificateVersion(
	ctx context.Context,
	name string,
	policy certDomain.IssuancePolicy,
) (entityDomain.VersionedEntityID, error) {
	policy = policy.Normalize()
	policy.Name = name
	if err := policy.Validate(); err != nil {
		return entityDomain.VersionedEntityID{}, err
	}
	id := s.EntityID(name)
	if !s.IsActive(id) && (s.keys.IsActive(id) || s.secrets.IsActive(id)) {
		return entityDomain.VersionedEntityID{}, errors.Wrapf(certDomain.ErrBackingEntityExists, "%s", id)
	}

	now := s.Now()
	if policy.ValidityStart.IsZero() {
		policy.ValidityStart = now
	}
	kid, err := s.keys.CreateManagedKeyVersion(name, policy.KeySpec, now, lifetime.AddMonths(now, policy.ValidityMonths))
	if err != nil {
		return entityDomain.VersionedEntityID{}, err
	}
	versionedID := id.WithVersion(kid.Version)
	if err := s.issue(ctx, versionedID, kid, policy); err != nil {
		return entityDomain.VersionedEntityID{}, err
	}

	s.mu.Lock()
	if _, ok := s.policies[name]; !ok {
		lifetimePolicy := certDomain.NewDefaultLifetimePolicy(id, now)
		lifetimePolicy.SetClock(s.Now)
		s.policies[name] = lifetimePolicy
	}
	s.mu.Unlock()

	s.logger.Debug("certificate created", slog.String("id", versionedID.String()))
	return versionedID, nil
}

// issue creates the X.509, the managed secret and the certificate entity for
// the key version kid.
func (s *CertificateStore) issue(
	ctx context.Context,
	id, kid entityDomain.VersionedEntityID,
	policy certDomain.IssuancePolicy,
) error {
	key, err := s.keys.Get(kid)
	if err != nil {
		return err
	}
	cert, der, err := s.issuer.IssueCertificate(cryptoService.CertificateRequest{
		Subject:   policy.Subject,
		DNSNames:  policy.DNSNames,
		NotBefore: policy.CertNotBefore(),
		NotAfter:  policy.Expiry(),
		Key:       key.Material(),
	})
	if err != nil {
		return err
	}
	bundle, err := s.issuer.EncodeCertificate(der, key.Material(), policy.ContentType)
	if err != nil {
		return err
	}

	sid := s.secrets.EntityID(id.Name).WithVersion(id.Version)
	err = s.secrets.CreateManagedSecretVersion(
		ctx, sid, bundle, string(policy.ContentType), policy.ValidityStart, policy.Expiry(),
	)
	if err != nil {
		return err
	}

	certificate, err := certDomain.NewCertificate(s.NewBase(id), kid, sid, cert, der, policy)
	if err != nil {
		return err
	}
	return s.AddVersion(certificate)
}

// UpdateIssuancePolicy edits the issuance policy of the latest version. The
// next renewal uses the edited policy.
func (s *CertificateStore) UpdateIssuancePolicy(id entityDomain.EntityID, edit func(*certDomain.IssuancePolicy)) error {
	latest, err := s.Latest(id)
	if err != nil {
		return err
	}
	return latest.UpdateIssuancePolicy(edit)
}

// SetLifetimeActionPolicy validates the policy against the validity of the
// latest version and stores it, merging into the existing policy.
func (s *CertificateStore) SetLifetimeActionPolicy(policy *certDomain.LifetimePolicy) error {
	latest, err := s.Latest(policy.ID())
	if err != nil {
		return err
	}
	if err := policy.Validate(latest.IssuancePolicy().ValidityMonths); err != nil {
		return err
	}

	s.purgeDeletedPolicies()
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.policies[policy.ID().Name]
	if !ok {
		policy.SetClock(s.Now)
		s.policies[policy.ID().Name] = policy
		return nil
	}
	existing.SetActions(policy.Actions())
	return nil
}

// LifetimeActionPolicy returns the policy of the certificate. Policies of
// purged certificates are dropped first.
func (s *CertificateStore) LifetimeActionPolicy(id entityDomain.EntityID) (*certDomain.LifetimePolicy, error) {
	s.purgeDeletedPolicies()
	s.mu.RLock()
	defer s.mu.RUnlock()
	policy, ok := s.policies[id.Name]
	if !ok {
		return nil, errors.Wrapf(certDomain.ErrLifetimePolicyNotFound, "%s", id)
	}
	return policy, nil
}

// Delete deletes the certificate with its managed key and secret. Nothing
// changes unless the three entities are active.
func (s *CertificateStore) Delete(id entityDomain.EntityID) error {
	if !s.IsActive(id) {
		return errors.Wrapf(entityDomain.ErrEntityNotFound, "%s", id)
	}
	if !s.keys.IsActive(id) || !s.secrets.IsActive(id) {
		return errors.Wrapf(certDomain.ErrBackingEntityMissing, "%s", id)
	}
	if err := s.VaultStore.Delete(id); err != nil {
		return err
	}
	if err := s.keys.DeleteManaged(id); err != nil {
		return err
	}
	return s.secrets.DeleteManaged(id)
}

// Recover recovers the certificate with its managed key and secret.
func (s *CertificateStore) Recover(id entityDomain.EntityID) error {
	if err := s.checkDeleted(id); err != nil {
		return err
	}
	if err := s.VaultStore.Recover(id); err != nil {
		return err
	}
	if err := s.keys.RecoverManaged(id); err != nil {
		return err
	}
	return s.secrets.RecoverManaged(id)
}

// Purge purges the certificate with its managed key and secret.
func (s *CertificateStore) Purge(id entityDomain.EntityID) error {
	if err := s.checkDeleted(id); err != nil {
		return err
	}
	if !s.RecoveryLevel().Purgeable() {
		return errors.Wrapf(entityDomain.ErrEntityNotPurgeable, "%s (%s)", id, s.RecoveryLevel())
	}
	if err := s.VaultStore.Purge(id); err != nil {
		return err
	}
	if err := s.keys.PurgeManaged(id); err != nil {
		return err
	}
	return s.secrets.PurgeManaged(id)
}

func (s *CertificateStore) checkDeleted(id entityDomain.EntityID) error {
	if !s.IsDeleted(id) {
		return errors.Wrapf(entityDomain.ErrEntityNotFound, "%s", id)
	}
	if !s.keys.IsDeleted(id) || !s.secrets.IsDeleted(id) {
		return errors.Wrapf(certDomain.ErrBackingEntityMissing, "%s", id)
	}
	return nil
}

// TimeShift shifts every certificate version and policy, then issues the
// renewals that fell into the skipped interval. The key and secret stores
// must be shifted by the caller beforehand.
func (s *CertificateStore) TimeShift(ctx context.Context, offsetSeconds int) error {
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
		if !policy.AutoRenew() {
			continue
		}
		if err := s.performMissedRenewals(ctx, policy); err != nil {
			return err
		}
	}
	return nil
}

func (s *CertificateStore) performMissedRenewals(ctx context.Context, policy *certDomain.LifetimePolicy) error {
	latest, err := s.Latest(policy.ID())
	if err != nil {
		return err
	}
	months := latest.IssuancePolicy().ValidityMonths
	for _, renewalTime := range policy.MissedRenewals(latest.Created(), months, s.Now()) {
		if err := s.renewAt(ctx, policy.ID(), renewalTime); err != nil {
			return err
		}
	}
	return nil
}

// renewAt issues a certificate version as if it had been renewed at renewalTime.
func (s *CertificateStore) renewAt(ctx context.Context, id entityDomain.EntityID, renewalTime time.Time) error {
	latest, err := s.Latest(id)
	if err != nil {
		return err
	}
	policy := latest.IssuancePolicy()
	policy.ValidityStart = renewalTime
	expiry := policy.Expiry()

	var kid, certID entityDomain.VersionedEntityID
	if policy.ReuseKeyOnRenewal {
		kid, err = s.keys.LatestVersion(id)
		if err != nil {
			return err
		}
		key, err := s.keys.Get(kid)
		if err != nil {
			return err
		}
		notBefore := key.NotBefore()
		if notBefore == nil {
			return errors.Wrapf(certDomain.ErrMissingKeyValidity, "%s", kid)
		}
		if err := key.SetExpiry(notBefore, &expiry); err != nil {
			return err
		}
		certID = id.NewVersion()
	} else {
		kid, err = s.keys.RotateKey(id)
		if err != nil {
			return err
		}
		key, err := s.keys.Get(kid)
		if err != nil {
			return err
		}
		if err := key.SetValidity(&renewalTime, &expiry); err != nil {
			return err
		}
		key.SetManaged(true)
		key.StampCreated(renewalTime)
		certID = id.WithVersion(kid.Version)
	}

	if err := s.issue(ctx, certID, kid, policy); err != nil {
		return err
	}
	renewed, err := s.Get(certID)
	if err != nil {
		return err
	}
	renewed.StampCreated(renewalTime)
	secret, err := s.secrets.Get(renewed.Sid())
	if err != nil {
		return err
	}
	secret.StampCreated(renewalTime)

	s.logger.Info("missed certificate renewal replayed",
		slog.String("id", certID.String()),
		slog.String("kid", kid.String()),
		slog.Time("renewal_time", renewalTime),
	)
	return nil
}

func (s *CertificateStore) notifyMissed(ctx context.Context, policy *certDomain.LifetimePolicy) {
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
	months := latest.IssuancePolicy().ValidityMonths
	for _, at := range policy.MissedNotifications(latest.Created(), months, s.Now()) {
		s.notifier.Notify(ctx, lifetime.Event{ID: policy.ID(), Kind: EntityKind, Trigger: trigger, TriggeredAt: at})
	}
}

// RegenerateCertificates re-issues the X.509 of every version whose validity
// start moved away from the certificate's not before, and updates the
// backing secret with the new bundle.
func (s *CertificateStore) RegenerateCertificates(ctx context.Context) error {
	var regenErr error
	regenerate := func(cert *certDomain.Certificate) {
		if regenErr != nil {
			return
		}
		if cert.Deletion() != nil {
			s.logger.Warn("deleted certificate regeneration skipped", slog.String("id", cert.ID().String()))
			return
		}
		if !cert.NeedsRegeneration() {
			return
		}
		regenErr = s.regenerate(ctx, cert)
	}
	s.ForEachActive(regenerate)
	s.ForEachDeleted(regenerate)
	return regenErr
}

func (s *CertificateStore) regenerate(ctx context.Context, cert *certDomain.Certificate) error {
	policy := cert.IssuedWith()
	policy.ValidityStart = cert.ValidityStart()
	key, err := s.keys.Get(cert.Kid())
	if err != nil {
		return err
	}
	x509Cert, der, err := s.issuer.IssueCertificate(cryptoService.CertificateRequest{
		Subject:   policy.Subject,
		DNSNames:  policy.DNSNames,
		NotBefore: policy.CertNotBefore(),
		NotAfter:  policy.Expiry(),
		Key:       key.Material(),
	})
	if err != nil {
		return err
	}
	bundle, err := s.issuer.EncodeCertificate(der, key.Material(), policy.ContentType)
	if err != nil {
		return err
	}
	secret, err := s.secrets.Get(cert.Sid())
	if err != nil {
		return err
	}
	if err := s.secrets.ReplaceValue(ctx, secret, bundle); err != nil {
		return err
	}
	cert.Reissue(x509Cert, der, policy)
	s.logger.Debug("certificate regenerated", slog.String("id", cert.ID().String()))
	return nil
}

func (s *CertificateStore) policySnapshot() []*certDomain.LifetimePolicy {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*certDomain.LifetimePolicy, 0, len(s.policies))
	for _, policy := range s.policies {
		result = append(result, policy)
	}
	return result
}

func (s *CertificateStore) purgeDeletedPolicies() {
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
