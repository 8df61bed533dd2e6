// Package domain defines the key entity and its rotation policy.
package domain

import (
	"slices"
	"sync"

	cryptoDomain "github.com/allisson/vaultemu/internal/crypto/domain"
	cryptoService "github.com/allisson/vaultemu/internal/crypto/service"
	entityDomain "github.com/allisson/vaultemu/internal/entity/domain"
	"github.com/allisson/vaultemu/internal/errors"
)

// Key is one version of a key.
type Key struct {
	*entityDomain.Base
	material   cryptoService.KeyMaterial
	mu         sync.RWMutex
	operations []cryptoDomain.KeyOperation
}

// NewKey creates a key version around existing material.
func NewKey(base *entityDomain.Base, material cryptoService.KeyMaterial, operations []cryptoDomain.KeyOperation) *Key {
	return &Key{
		Base:       base,
		material:   material,
		operations: slices.Clone(operations),
	}
}

// Spec returns the parameters used to generate the material. Rotation reuses it.
func (k *Key) Spec() cryptoDomain.KeySpec {
	return k.material.Spec()
}

// Material returns the key material.
func (k *Key) Material() cryptoService.KeyMaterial {
	return k.material
}

// Operations returns the permitted operations.
func (k *Key) Operations() []cryptoDomain.KeyOperation {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return slices.Clone(k.operations)
}

// SetOperations replaces the permitted operations.
func (k *Key) SetOperations(operations []cryptoDomain.KeyOperation) {
	k.mu.Lock()
	k.operations = slices.Clone(operations)
	k.mu.Unlock()
}

func (k *Key) allow(operation cryptoDomain.KeyOperation) error {
	if !k.Enabled() {
		return errors.Wrapf(ErrOperationNotAllowed, "%s is disabled", k.ID())
	}
	k.mu.RLock()
	defer k.mu.RUnlock()
	if !slices.Contains(k.operations, operation) {
		return errors.Wrapf(ErrOperationNotAllowed, "%s does not permit %s", k.ID(), operation)
	}
	return nil
}

// Sign signs digest when the version is enabled and permits signing.
func (k *Key) Sign(alg cryptoDomain.SignatureAlgorithm, digest []byte) ([]byte, error) {
	if err := k.allow(cryptoDomain.OperationSign); err != nil {
		return nil, err
	}
	return k.material.Sign(alg, digest)
}

// Verify checks a signature when the version is enabled and permits verification.
func (k *Key) Verify(alg cryptoDomain.SignatureAlgorithm, digest, signature []byte) (bool, error) {
	if err := k.allow(cryptoDomain.OperationVerify); err != nil {
		return false, err
	}
	return k.material.Verify(alg, digest, signature)
}

// Encrypt encrypts plaintext when the version is enabled and permits encryption.
func (k *Key) Encrypt(alg cryptoDomain.EncryptionAlgorithm, plaintext, aad []byte) ([]byte, []byte, error) {
	if err := k.allow(cryptoDomain.OperationEncrypt); err != nil {
		return nil, nil, err
	}
	return k.material.Encrypt(alg, plaintext, aad)
}

// Decrypt decrypts ciphertext when the version is enabled and permits decryption.
func (k *Key) Decrypt(alg cryptoDomain.EncryptionAlgorithm, ciphertext, iv, aad []byte) ([]byte, error) {
	if err := k.allow(cryptoDomain.OperationDecrypt); err != nil {
		return nil, err
	}
	return k.material.Decrypt(alg, ciphertext, iv, aad)
}
