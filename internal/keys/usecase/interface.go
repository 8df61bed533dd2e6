// Package usecase implements the key store of a vault: versioned keys with
// soft delete, on-demand rotation and rotation policies replayed on time shift.
package usecase

import (
	cryptoDomain "github.com/allisson/vaultemu/internal/crypto/domain"
	cryptoService "github.com/allisson/vaultemu/internal/crypto/service"
)

// KeyGenerator creates key material. cryptoService.Provider implements it.
type KeyGenerator interface {
	GenerateKey(spec cryptoDomain.KeySpec) (cryptoService.KeyMaterial, error)
}
