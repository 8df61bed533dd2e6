package domain

import (
	"github.com/allisson/vaultemu/internal/errors"
)

// Cryptographic operation error definitions.
//
// These wrap the standard errors from internal/errors so the HTTP layer maps
// them like any other validation failure.
var (
	// ErrUnsupportedAlgorithm indicates the requested algorithm does not fit the key material.
	ErrUnsupportedAlgorithm = errors.Wrap(errors.ErrInvalidInput, "unsupported algorithm")

	// ErrInvalidKeySize indicates a key size not supported by the key type.
	ErrInvalidKeySize = errors.Wrap(errors.ErrInvalidInput, "invalid key size")

	// ErrUnsupportedKeyType indicates an unknown key type.
	ErrUnsupportedKeyType = errors.Wrap(errors.ErrInvalidInput, "unsupported key type")

	// ErrUnsupportedCurve indicates an unknown elliptic curve.
	ErrUnsupportedCurve = errors.Wrap(errors.ErrInvalidInput, "unsupported curve")

	// ErrDecryptionFailed indicates a decryption operation failed.
	//
	// Wrong key, tampered ciphertext and wrong nonce are not told apart.
	ErrDecryptionFailed = errors.Wrap(errors.ErrInvalidInput, "decryption failed")

	// ErrUnsupportedKeeper indicates a secret keeper URL with an unknown scheme.
	ErrUnsupportedKeeper = errors.Wrap(errors.ErrInvalidInput, "unsupported secret keeper")

	// ErrInvalidCertificateRequest indicates a certificate cannot be issued with the given parameters.
	ErrInvalidCertificateRequest = errors.Wrap(errors.ErrInvalidInput, "invalid certificate request")
)
