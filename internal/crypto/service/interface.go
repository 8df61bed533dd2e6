// Package service is the crypto provider of the emulator: key material
// generation and use, self-signed certificate issuance and the keeper that
// seals secret values.
package service

import (
	"context"
	"crypto"
	"crypto/x509"

	cryptoDomain "github.com/allisson/vaultemu/internal/crypto/domain"
)

// AEAD seals and opens the payloads of symmetric keys.
type AEAD interface {
	// Algorithm names the cipher family.
	Algorithm() cryptoDomain.Algorithm

	// Encrypt encrypts plaintext with optional AAD and returns ciphertext and nonce.
	Encrypt(plaintext, aad []byte) (ciphertext, nonce []byte, err error)

	// Decrypt decrypts ciphertext using the provided nonce and AAD.
	Decrypt(ciphertext, nonce, aad []byte) ([]byte, error)
}

// AEADManager defines the interface for creating AEAD cipher instances.
type AEADManager interface {
	// CreateCipher creates an AEAD cipher instance for the specified algorithm.
	CreateCipher(key []byte, alg cryptoDomain.Algorithm) (AEAD, error)
}

// KeyMaterial is the key of one key version: RSA, EC or symmetric (oct).
// Every variant exposes the same capability set and rejects the algorithms
// it cannot serve with ErrUnsupportedAlgorithm.
type KeyMaterial interface {
	// Spec returns the parameters the material was generated with.
	Spec() cryptoDomain.KeySpec

	// Sign signs a digest.
	Sign(alg cryptoDomain.SignatureAlgorithm, digest []byte) ([]byte, error)

	// Verify checks a signature over a digest.
	Verify(alg cryptoDomain.SignatureAlgorithm, digest, signature []byte) (bool, error)

	// Encrypt encrypts plaintext. iv is nil for asymmetric algorithms.
	Encrypt(alg cryptoDomain.EncryptionAlgorithm, plaintext, aad []byte) (ciphertext, iv []byte, err error)

	// Decrypt reverses Encrypt.
	Decrypt(alg cryptoDomain.EncryptionAlgorithm, ciphertext, iv, aad []byte) ([]byte, error)

	// Signer returns the private key of asymmetric material.
	Signer() (crypto.Signer, bool)
}

// CertificateIssuer issues and encodes self-signed certificates.
type CertificateIssuer interface {
	// IssueCertificate creates a self-signed certificate and returns it with its DER encoding.
	IssueCertificate(req CertificateRequest) (*x509.Certificate, []byte, error)

	// EncodeCertificate renders certificate and private key in the given container format.
	EncodeCertificate(der []byte, key KeyMaterial, contentType cryptoDomain.CertContentType) ([]byte, error)
}

// Provider is the crypto collaborator used by the key and certificate stores.
type Provider interface {
	CertificateIssuer

	// GenerateKey creates new key material.
	GenerateKey(spec cryptoDomain.KeySpec) (KeyMaterial, error)
}

// KMSService opens keepers for gocloud.dev secrets URLs.
type KMSService interface {
	// OpenKeeper opens a keeper for the given URL.
	OpenKeeper(ctx context.Context, keyURI string) (cryptoDomain.KMSKeeper, error)
}
