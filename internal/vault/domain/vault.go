// Package domain defines the vault: a base URI with aliases that owns the
// key, secret and certificate stores sharing its recovery settings.
package domain

import (
	"context"
	"log/slog"
	"net/url"
	"slices"
	"strings"
	"sync"
	"time"

	certUsecase "github.com/allisson/vaultemu/internal/certificates/usecase"
	cryptoDomain "github.com/allisson/vaultemu/internal/crypto/domain"
	cryptoService "github.com/allisson/vaultemu/internal/crypto/service"
	entityDomain "github.com/allisson/vaultemu/internal/entity/domain"
	"github.com/allisson/vaultemu/internal/errors"
	keysUsecase "github.com/allisson/vaultemu/internal/keys/usecase"
	"github.com/allisson/vaultemu/internal/lifetime"
	secretsUsecase "github.com/allisson/vaultemu/internal/secrets/usecase"
)

// Dependencies are the collaborators shared by the stores of a vault.
type Dependencies struct {
	Provider cryptoService.Provider
	Keeper   cryptoDomain.KMSKeeper
	Notifier lifetime.Notifier
	Logger   *slog.Logger
}

// Vault is an emulated vault.
type Vault struct {
	mu              sync.RWMutex
	baseURI         string
	aliases         []string
	recoveryLevel   entityDomain.RecoveryLevel
	recoverableDays *int
	createdOn       time.Time
	deletedOn       *time.Time
	now             func() time.Time
	logger          *slog.Logger

	keys         *keysUsecase.KeyStore
	secrets      *secretsUsecase.SecretStore
	certificates *certUsecase.CertificateStore
}

// NormalizeURI validates an absolute URL and drops its trailing slash.
func NormalizeURI(uri string) (string, error) {
	parsed, err := url.Parse(strings.TrimSpace(uri))
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return "", errors.Wrapf(ErrInvalidVaultURI, "%q", uri)
	}
	return strings.TrimSuffix(parsed.String(), "/"), nil
}

// NewVault creates an active vault with empty stores.
func NewVault(
	baseURI string,
	level entityDomain.RecoveryLevel,
	recoverableDays *int,
	deps Dependencies,
) (*Vault, error) {
	uri, err := NormalizeURI(baseURI)
	if err != nil {
		return nil, err
	}
	if err := level.ValidateRecoverableDays(recoverableDays); err != nil {
		return nil, err
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	keys, err := keysUsecase.NewKeyStore(uri, level, recoverableDays, deps.Provider, deps.Notifier, logger)
	if err != nil {
		return nil, err
	}
	secrets, err := secretsUsecase.NewSecretStore(uri, level, recoverableDays, deps.Keeper, logger)
	if err != nil {
		return nil, err
	}
	certificates, err := certUsecase.NewCertificateStore(
		uri, level, recoverableDays, keys, secrets, deps.Provider, deps.Notifier, logger,
	)
	if err != nil {
		return nil, err
	}

	v := &Vault{
		baseURI:         uri,
		aliases:         []string{},
		recoveryLevel:   level,
		recoverableDays: recoverableDays,
		now:             func() time.Time { return time.Now().UTC() },
		logger:          logger.With(slog.String("vault", uri)),
		keys:            keys,
		secrets:         secrets,
		certificates:    certificates,
	}
	v.createdOn = v.now()
	return v, nil
}

// SetClock replaces the wall clock of the vault and its stores. Only meant for tests.
func (v *Vault) SetClock(now func() time.Time) {
	v.mu.Lock()
	v.now = now
	v.mu.Unlock()
	v.certificates.SetClock(now)
}

// BaseURI returns the normalized base URI.
func (v *Vault) BaseURI() string {
	return v.baseURI
}

// Aliases returns the sorted aliases.
func (v *Vault) Aliases() []string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return slices.Clone(v.aliases)
}

// SetAliases replaces the aliases. The base URI cannot be one of them.
func (v *Vault) SetAliases(aliases []string) error {
	normalized := make([]string, 0, len(aliases))
	for _, alias := range aliases {
		uri, err := NormalizeURI(alias)
		if err != nil {
			return err
		}
		if uri == v.baseURI {
			return errors.Wrapf(ErrInvalidAlias, "base uri %s cannot be an alias", uri)
		}
		normalized = append(normalized, uri)
	}
	slices.Sort(normalized)
	v.mu.Lock()
	defer v.mu.Unlock()
	v.aliases = slices.Compact(normalized)
	return nil
}

// Matches reports whether uri is the base URI or one of the aliases.
func (v *Vault) Matches(uri string) bool {
	normalized, err := NormalizeURI(uri)
	if err != nil {
		return false
	}
	if normalized == v.baseURI {
		return true
	}
	v.mu.RLock()
	defer v.mu.RUnlock()
	return slices.Contains(v.aliases, normalized)
}

// RecoveryLevel returns the recovery level of the vault and its entities.
func (v *Vault) RecoveryLevel() entityDomain.RecoveryLevel {
	return v.recoveryLevel
}

// RecoverableDays returns the retention of deleted entities and of the deleted vault.
func (v *Vault) RecoverableDays() *int {
	if v.recoverableDays == nil {
		return nil
	}
	days := *v.recoverableDays
	return &days
}

// CreatedOn returns the creation timestamp.
func (v *Vault) CreatedOn() time.Time {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.createdOn
}

// DeletedOn returns the deletion timestamp, nil while active.
func (v *Vault) DeletedOn() *time.Time {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.deletedOn == nil {
		return nil
	}
	deleted := *v.deletedOn
	return &deleted
}

// IsDeleted reports whether the vault is deleted.
func (v *Vault) IsDeleted() bool {
	return v.DeletedOn() != nil
}

// Keys returns the key store.
func (v *Vault) Keys() *keysUsecase.KeyStore {
	return v.keys
}

// Secrets returns the secret store.
func (v *Vault) Secrets() *secretsUsecase.SecretStore {
	return v.secrets
}

// Certificates returns the certificate store.
func (v *Vault) Certificates() *certUsecase.CertificateStore {
	return v.certificates
}

// Delete marks the vault deleted.
func (v *Vault) Delete() error {
	if v.recoveryLevel.SubscriptionProtected() {
		return errors.Wrapf(ErrVaultProtected, "%s", v.baseURI)
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	now := v.now()
	v.deletedOn = &now
	return nil
}

// Recover restores a deleted vault.
func (v *Vault) Recover() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.deletedOn == nil {
		return errors.Wrapf(ErrVaultNotDeleted, "%s", v.baseURI)
	}
	v.deletedOn = nil
	return nil
}

// IsExpired reports whether a deleted vault outlived its retention.
func (v *Vault) IsExpired() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.deletedOn == nil {
		return false
	}
	days := 0
	if v.recoverableDays != nil {
		days = *v.recoverableDays
	}
	return v.deletedOn.AddDate(0, 0, days).Before(v.now())
}

// TimeShift simulates that offsetSeconds have passed: every timestamp of the
// vault and its entities moves back, missed rotations and renewals are
// replayed and, when requested, certificates are re-issued to match.
func (v *Vault) TimeShift(ctx context.Context, offsetSeconds int, regenerateCertificates bool) error {
	if offsetSeconds <= 0 {
		return errors.Wrap(entityDomain.ErrInvalidTimeShift, v.baseURI)
	}
	d := time.Duration(offsetSeconds) * time.Second
	v.mu.Lock()
	v.createdOn = v.createdOn.Add(-d)
	if v.deletedOn != nil {
		deleted := v.deletedOn.Add(-d)
		v.deletedOn = &deleted
	}
	v.mu.Unlock()

	if err := v.keys.TimeShift(ctx, offsetSeconds); err != nil {
		return err
	}
	if err := v.secrets.TimeShift(ctx, offsetSeconds); err != nil {
		return err
	}
	if err := v.certificates.TimeShift(ctx, offsetSeconds); err != nil {
		return err
	}
	if regenerateCertificates {
		if err := v.certificates.RegenerateCertificates(ctx); err != nil {
			return err
		}
	}
	v.logger.InfoContext(ctx, "vault time shifted",
		slog.Int("offset_seconds", offsetSeconds),
		slog.Bool("regenerate_certificates", regenerateCertificates),
	)
	return nil
}
