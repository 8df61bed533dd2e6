package service

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1" //nolint:gosec // RSA-OAEP is defined over SHA-1
	"crypto/sha256"
	"hash"

	cryptoDomain "github.com/allisson/vaultemu/internal/crypto/domain"
	"github.com/allisson/vaultemu/internal/errors"
)

func signatureHash(alg cryptoDomain.SignatureAlgorithm) (crypto.Hash, bool) {
	switch alg {
	case cryptoDomain.RS256, cryptoDomain.PS256, cryptoDomain.ES256:
		return crypto.SHA256, true
	case cryptoDomain.RS384, cryptoDomain.PS384, cryptoDomain.ES384:
		return crypto.SHA384, true
	case cryptoDomain.RS512, cryptoDomain.PS512, cryptoDomain.ES512:
		return crypto.SHA512, true
	default:
		return 0, false
	}
}

func unsupported(alg any, spec cryptoDomain.KeySpec) error {
	return errors.Wrapf(cryptoDomain.ErrUnsupportedAlgorithm, "%v for %s key", alg, spec.Type)
}

// RSAKeyMaterial is RSA key material.
type RSAKeyMaterial struct {
	spec cryptoDomain.KeySpec
	key  *rsa.PrivateKey
}

// NewRSAKeyMaterial wraps an existing RSA private key.
func NewRSAKeyMaterial(keyType cryptoDomain.KeyType, key *rsa.PrivateKey) *RSAKeyMaterial {
	return &RSAKeyMaterial{
		spec: cryptoDomain.KeySpec{Type: keyType, Size: key.N.BitLen()},
		key:  key,
	}
}

// Spec implements KeyMaterial.
func (m *RSAKeyMaterial) Spec() cryptoDomain.KeySpec {
	return m.spec
}

// Signer implements KeyMaterial.
func (m *RSAKeyMaterial) Signer() (crypto.Signer, bool) {
	return m.key, true
}

// Sign implements KeyMaterial.
func (m *RSAKeyMaterial) Sign(alg cryptoDomain.SignatureAlgorithm, digest []byte) ([]byte, error) {
	h, ok := signatureHash(alg)
	if !ok || alg[0] == 'E' {
		return nil, unsupported(alg, m.spec)
	}
	if alg[0] == 'P' {
		return rsa.SignPSS(rand.Reader, m.key, h, digest, &rsa.PSSOptions{SaltLength: rsa.PSSSaltLengthEqualsHash})
	}
	return rsa.SignPKCS1v15(rand.Reader, m.key, h, digest)
}

// Verify implements KeyMaterial.
func (m *RSAKeyMaterial) Verify(alg cryptoDomain.SignatureAlgorithm, digest, signature []byte) (bool, error) {
	h, ok := signatureHash(alg)
	if !ok || alg[0] == 'E' {
		return false, unsupported(alg, m.spec)
	}
	var err error
	if alg[0] == 'P' {
		err = rsa.VerifyPSS(&m.key.PublicKey, h, digest, signature, &rsa.PSSOptions{SaltLength: rsa.PSSSaltLengthEqualsHash})
	} else {
		err = rsa.VerifyPKCS1v15(&m.key.PublicKey, h, digest, signature)
	}
	return err == nil, nil
}

func oaepHash(alg cryptoDomain.EncryptionAlgorithm) (hash.Hash, bool) {
	switch alg {
	case cryptoDomain.RSAOAEP:
		return sha1.New(), true //nolint:gosec
	case cryptoDomain.RSAOAEP256:
		return sha256.New(), true
	default:
		return nil, false
	}
}

// Encrypt implements KeyMaterial. RSA algorithms ignore aad.
func (m *RSAKeyMaterial) Encrypt(
	alg cryptoDomain.EncryptionAlgorithm,
	plaintext, _ []byte,
) (ciphertext, iv []byte, err error) {
	if alg == cryptoDomain.RSA15 {
		ciphertext, err = rsa.EncryptPKCS1v15(rand.Reader, &m.key.PublicKey, plaintext)
		return ciphertext, nil, err
	}
	h, ok := oaepHash(alg)
	if !ok {
		return nil, nil, unsupported(alg, m.spec)
	}
	ciphertext, err = rsa.EncryptOAEP(h, rand.Reader, &m.key.PublicKey, plaintext, nil)
	return ciphertext, nil, err
}

// Decrypt implements KeyMaterial.
func (m *RSAKeyMaterial) Decrypt(
	alg cryptoDomain.EncryptionAlgorithm,
	ciphertext, _, _ []byte,
) ([]byte, error) {
	var (
		plaintext []byte
		err       error
	)
	if alg == cryptoDomain.RSA15 {
		plaintext, err = rsa.DecryptPKCS1v15(rand.Reader, m.key, ciphertext)
	} else {
		h, ok := oaepHash(alg)
		if !ok {
			return nil, unsupported(alg, m.spec)
		}
		plaintext, err = rsa.DecryptOAEP(h, rand.Reader, m.key, ciphertext, nil)
	}
	if err != nil {
		return nil, cryptoDomain.ErrDecryptionFailed
	}
	return plaintext, nil
}

// ECKeyMaterial is elliptic curve key material. It signs only.
type ECKeyMaterial struct {
	spec cryptoDomain.KeySpec
	key  *ecdsa.PrivateKey
}

// NewECKeyMaterial wraps an existing ECDSA private key.
func NewECKeyMaterial(keyType cryptoDomain.KeyType, key *ecdsa.PrivateKey) (*ECKeyMaterial, error) {
	curve, err := curveName(key.Curve)
	if err != nil {
		return nil, err
	}
	return &ECKeyMaterial{spec: cryptoDomain.KeySpec{Type: keyType, Curve: curve}, key: key}, nil
}

func ellipticCurve(curve cryptoDomain.KeyCurve) (elliptic.Curve, error) {
	switch curve {
	case cryptoDomain.CurveP256:
		return elliptic.P256(), nil
	case cryptoDomain.CurveP384:
		return elliptic.P384(), nil
	case cryptoDomain.CurveP521:
		return elliptic.P521(), nil
	default:
		return nil, errors.Wrapf(cryptoDomain.ErrUnsupportedCurve, "%q", curve)
	}
}

func curveName(curve elliptic.Curve) (cryptoDomain.KeyCurve, error) {
	switch curve {
	case elliptic.P256():
		return cryptoDomain.CurveP256, nil
	case elliptic.P384():
		return cryptoDomain.CurveP384, nil
	case elliptic.P521():
		return cryptoDomain.CurveP521, nil
	default:
		return "", cryptoDomain.ErrUnsupportedCurve
	}
}

func (m *ECKeyMaterial) checkAlgorithm(alg cryptoDomain.SignatureAlgorithm) error {
	expected := map[cryptoDomain.KeyCurve]cryptoDomain.SignatureAlgorithm{
		cryptoDomain.CurveP256: cryptoDomain.ES256,
		cryptoDomain.CurveP384: cryptoDomain.ES384,
		cryptoDomain.CurveP521: cryptoDomain.ES512,
	}
	if expected[m.spec.Curve] != alg {
		return unsupported(alg, m.spec)
	}
	return nil
}

// Spec implements KeyMaterial.
func (m *ECKeyMaterial) Spec() cryptoDomain.KeySpec {
	return m.spec
}

// Signer implements KeyMaterial.
func (m *ECKeyMaterial) Signer() (crypto.Signer, bool) {
	return m.key, true
}

// Sign implements KeyMaterial.
func (m *ECKeyMaterial) Sign(alg cryptoDomain.SignatureAlgorithm, digest []byte) ([]byte, error) {
	if err := m.checkAlgorithm(alg); err != nil {
		return nil, err
	}
	return ecdsa.SignASN1(rand.Reader, m.key, digest)
}

// Verify implements KeyMaterial.
func (m *ECKeyMaterial) Verify(alg cryptoDomain.SignatureAlgorithm, digest, signature []byte) (bool, error) {
	if err := m.checkAlgorithm(alg); err != nil {
		return false, err
	}
	return ecdsa.VerifyASN1(&m.key.PublicKey, digest, signature), nil
}

// Encrypt implements KeyMaterial.
func (m *ECKeyMaterial) Encrypt(alg cryptoDomain.EncryptionAlgorithm, _, _ []byte) ([]byte, []byte, error) {
	return nil, nil, unsupported(alg, m.spec)
}

// Decrypt implements KeyMaterial.
func (m *ECKeyMaterial) Decrypt(alg cryptoDomain.EncryptionAlgorithm, _, _, _ []byte) ([]byte, error) {
	return nil, unsupported(alg, m.spec)
}

// OctKeyMaterial is symmetric key material encrypting through an AEADManager.
type OctKeyMaterial struct {
	spec cryptoDomain.KeySpec
	key  []byte
	aead AEADManager
}

// NewOctKeyMaterial wraps raw symmetric key bytes.
func NewOctKeyMaterial(keyType cryptoDomain.KeyType, key []byte, aead AEADManager) *OctKeyMaterial {
	return &OctKeyMaterial{
		spec: cryptoDomain.KeySpec{Type: keyType, Size: len(key) * 8},
		key:  key,
		aead: aead,
	}
}

func (m *OctKeyMaterial) cipher(alg cryptoDomain.EncryptionAlgorithm) (AEAD, error) {
	var (
		required  int
		algorithm cryptoDomain.Algorithm
	)
	switch alg {
	case cryptoDomain.A128GCM:
		required, algorithm = 128, cryptoDomain.AESGCM
	case cryptoDomain.A192GCM:
		required, algorithm = 192, cryptoDomain.AESGCM
	case cryptoDomain.A256GCM:
		required, algorithm = 256, cryptoDomain.AESGCM
	case cryptoDomain.C20P:
		required, algorithm = 256, cryptoDomain.ChaCha20
	default:
		return nil, unsupported(alg, m.spec)
	}
	if m.spec.Size != required {
		return nil, unsupported(alg, m.spec)
	}
	return m.aead.CreateCipher(m.key, algorithm)
}

// Spec implements KeyMaterial.
func (m *OctKeyMaterial) Spec() cryptoDomain.KeySpec {
	return m.spec
}

// Signer implements KeyMaterial.
func (m *OctKeyMaterial) Signer() (crypto.Signer, bool) {
	return nil, false
}

// Sign implements KeyMaterial.
func (m *OctKeyMaterial) Sign(alg cryptoDomain.SignatureAlgorithm, _ []byte) ([]byte, error) {
	return nil, unsupported(alg, m.spec)
}

// Verify implements KeyMaterial.
func (m *OctKeyMaterial) Verify(alg cryptoDomain.SignatureAlgorithm, _, _ []byte) (bool, error) {
	return false, unsupported(alg, m.spec)
}

// Encrypt implements KeyMaterial.
func (m *OctKeyMaterial) Encrypt(
	alg cryptoDomain.EncryptionAlgorithm,
	plaintext, aad []byte,
) (ciphertext, iv []byte, err error) {
	c, err := m.cipher(alg)
	if err != nil {
		return nil, nil, err
	}
	return c.Encrypt(plaintext, aad)
}

// Decrypt implements KeyMaterial.
func (m *OctKeyMaterial) Decrypt(alg cryptoDomain.EncryptionAlgorithm, ciphertext, iv, aad []byte) ([]byte, error) {
	c, err := m.cipher(alg)
	if err != nil {
		return nil, err
	}
	return c.Decrypt(ciphertext, iv, aad)
}
