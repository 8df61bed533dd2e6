// Package usecase implements the secret store of a vault.
package usecase

import (
	"context"
	"log/slog"
	"time"

	cryptoDomain "github.com/allisson/vaultemu/internal/crypto/domain"
	entityDomain "github.com/allisson/vaultemu/internal/entity/domain"
	"github.com/allisson/vaultemu/internal/entity/store"
	"github.com/allisson/vaultemu/internal/errors"
	secretsDomain "github.com/allisson/vaultemu/internal/secrets/domain"
)

// EntityKind names secrets in logs.
const EntityKind = "secret"

// CreateSecretInput holds the value and optional attributes of a new secret version.
type CreateSecretInput struct {
	Value       []byte
	ContentType string
	Tags        map[string]string
	// Enabled defaults to true when nil.
	Enabled   *bool
	NotBefore *time.Time
	Expiry    *time.Time
}

// SecretStore keeps the secrets of one vault. Values are sealed with the keeper.
type SecretStore struct {
	*store.VaultStore[*secretsDomain.Secret]
	keeper cryptoDomain.KMSKeeper
}

// NewSecretStore creates an empty secret store.
func NewSecretStore(
	vault string,
	level entityDomain.RecoveryLevel,
	recoverableDays *int,
	keeper cryptoDomain.KMSKeeper,
	logger *slog.Logger,
) (*SecretStore, error) {
	vaultStore, err := store.NewVaultStore[*secretsDomain.Secret](vault, EntityKind, level, recoverableDays, logger)
	if err != nil {
		return nil, err
	}
	return &SecretStore{VaultStore: vaultStore, keeper: keeper}, nil
}

// CreateSecretVersion seals the value and stores it as the latest version of name.
func (s *SecretStore) CreateSecretVersion(
	ctx context.Context,
	name string,
	input CreateSecretInput,
) (entityDomain.VersionedEntityID, error) {
	id := s.EntityID(name).NewVersion()
	secret, err := s.newSecret(ctx, id, input.Value, input.ContentType)
	if err != nil {
		return entityDomain.VersionedEntityID{}, err
	}
	if input.Tags != nil {
		secret.SetTags(input.Tags)
	}
	if input.Enabled != nil {
		secret.SetEnabled(*input.Enabled)
	}
	if input.NotBefore != nil || input.Expiry != nil {
		if err := secret.SetValidity(input.NotBefore, input.Expiry); err != nil {
			return entityDomain.VersionedEntityID{}, err
		}
	}
	if err := s.AddVersion(secret); err != nil {
		return entityDomain.VersionedEntityID{}, err
	}
	return id, nil
}

// CreateManagedSecretVersion stores the secret backing a certificate under
// the certificate's version.
func (s *SecretStore) CreateManagedSecretVersion(
	ctx context.Context,
	id entityDomain.VersionedEntityID,
	value []byte,
	contentType string,
	notBefore, expiry time.Time,
) error {
	secret, err := s.newSecret(ctx, id, value, contentType)
	if err != nil {
		return err
	}
	secret.SetManaged(true)
	if err := secret.SetValidity(&notBefore, &expiry); err != nil {
		return err
	}
	return s.AddVersion(secret)
}

// Value unseals the value of an enabled active version. Callers should
// cryptoDomain.Zero the result once done.
func (s *SecretStore) Value(ctx context.Context, id entityDomain.VersionedEntityID) ([]byte, error) {
	secret, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if !secret.Enabled() {
		return nil, errors.Wrapf(secretsDomain.ErrSecretDisabled, "%s", id)
	}
	return s.keeper.Decrypt(ctx, secret.Sealed())
}

// ReplaceValue reseals the value of a version, active or deleted.
func (s *SecretStore) ReplaceValue(ctx context.Context, secret *secretsDomain.Secret, value []byte) error {
	sealed, err := s.keeper.Encrypt(ctx, value)
	if err != nil {
		return err
	}
	secret.Reseal(sealed)
	return nil
}

// TimeShift moves every secret version back by offsetSeconds.
func (s *SecretStore) TimeShift(_ context.Context, offsetSeconds int) error {
	return s.VaultStore.TimeShift(offsetSeconds)
}

func (s *SecretStore) newSecret(
	ctx context.Context,
	id entityDomain.VersionedEntityID,
	value []byte,
	contentType string,
) (*secretsDomain.Secret, error) {
	if len(value) == 0 {
		return nil, secretsDomain.ErrEmptySecretValue
	}
	sealed, err := s.keeper.Encrypt(ctx, value)
	if err != nil {
		return nil, err
	}
	return secretsDomain.NewSecret(s.NewBase(id), sealed, contentType), nil
}
