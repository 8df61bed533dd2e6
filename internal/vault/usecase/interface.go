// Package usecase implements the vault directory: the registry that owns
// every emulated vault and fans time shifts out to them.
package usecase

import (
	"context"

	entityDomain "github.com/allisson/vaultemu/internal/entity/domain"
	vaultDomain "github.com/allisson/vaultemu/internal/vault/domain"
)

// VaultDirectory defines the interface for vault registry operations.
// A URI matches a vault when it equals its base URI or one of its aliases.
type VaultDirectory interface {
	Create(
		ctx context.Context,
		baseURI string,
		level entityDomain.RecoveryLevel,
		recoverableDays *int,
		aliases []string,
	) (*vaultDomain.Vault, error)
	// GetOrCreate returns the active vault matching uri, creating it with the
	// default recovery settings when no vault matches.
	GetOrCreate(ctx context.Context, uri string) (*vaultDomain.Vault, error)
	Get(ctx context.Context, uri string) (*vaultDomain.Vault, error)
	GetIncludeDeleted(ctx context.Context, uri string) (*vaultDomain.Vault, error)
	List(ctx context.Context) []*vaultDomain.Vault
	ListDeleted(ctx context.Context) []*vaultDomain.Vault
	Delete(ctx context.Context, uri string) error
	Recover(ctx context.Context, uri string) error
	Purge(ctx context.Context, uri string) error
	// UpdateAlias adds and/or removes one alias. Empty strings mean no change.
	UpdateAlias(ctx context.Context, baseURI, add, remove string) (*vaultDomain.Vault, error)
	TimeShift(ctx context.Context, offsetSeconds int, regenerateCertificates bool) error
	TimeShiftVault(ctx context.Context, uri string, offsetSeconds int, regenerateCertificates bool) error
}
