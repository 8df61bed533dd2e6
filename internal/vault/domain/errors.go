package domain

import (
	"github.com/allisson/vaultemu/internal/errors"
)

// Vault error definitions.
var (
	// ErrVaultNotFound indicates no vault matches the URI.
	ErrVaultNotFound = errors.Wrap(errors.ErrNotFound, "vault not found")

	// ErrVaultAlreadyExists indicates the URI or alias is already used by a vault.
	ErrVaultAlreadyExists = errors.Wrap(errors.ErrConflict, "vault already exists")

	// ErrInvalidVaultURI indicates the base URI or an alias is not an absolute URL.
	ErrInvalidVaultURI = errors.Wrap(errors.ErrInvalidInput, "invalid vault uri")

	// ErrInvalidAlias indicates an alias equal to the base URI or a malformed alias update.
	ErrInvalidAlias = errors.Wrap(errors.ErrInvalidInput, "invalid vault alias")

	// ErrVaultProtected indicates a subscription protected vault cannot be deleted.
	ErrVaultProtected = errors.Wrap(errors.ErrIllegalState, "vault is subscription protected")

	// ErrVaultNotDeleted indicates recovery of a vault that is not deleted.
	ErrVaultNotDeleted = errors.Wrap(errors.ErrIllegalState, "vault is not deleted")
)
