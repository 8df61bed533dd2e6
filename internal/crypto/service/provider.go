package service

import (
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/rsa"
	"fmt"

	cryptoDomain "github.com/allisson/vaultemu/internal/crypto/domain"
)

// CryptoProvider generates key material and issues certificates.
type CryptoProvider struct {
	aeadManager AEADManager
}

// NewCryptoProvider creates a provider using aeadManager for symmetric keys.
func NewCryptoProvider(aeadManager AEADManager) *CryptoProvider {
	return &CryptoProvider{aeadManager: aeadManager}
}

// GenerateKey creates new key material for the spec.
func (p *CryptoProvider) GenerateKey(spec cryptoDomain.KeySpec) (KeyMaterial, error) {
	spec = spec.Normalize()
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	switch {
	case spec.Type.IsRSA():
		key, err := rsa.GenerateKey(rand.Reader, spec.Size)
		if err != nil {
			return nil, fmt.Errorf("failed to generate rsa key: %w", err)
		}
		return NewRSAKeyMaterial(spec.Type, key), nil
	case spec.Type.IsEC():
		curve, err := ellipticCurve(spec.Curve)
		if err != nil {
			return nil, err
		}
		key, err := ecdsa.GenerateKey(curve, rand.Reader)
		if err != nil {
			return nil, fmt.Errorf("failed to generate ec key: %w", err)
		}
		return NewECKeyMaterial(spec.Type, key)
	default:
		key := make([]byte, spec.Size/8)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("failed to generate oct key: %w", err)
		}
		return NewOctKeyMaterial(spec.Type, key, p.aeadManager), nil
	}
}
