package service

import (
	"crypto/x509"
	"encoding/pem"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	pkcs12 "software.sslmate.com/src/go-pkcs12"

	cryptoDomain "github.com/allisson/vaultemu/internal/crypto/domain"
)

func TestParseSubject(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		name, err := ParseSubject("CN=example.com, O=Example, OU=Dev, L=City, ST=State, C=HU")
		require.NoError(t, err)
		assert.Equal(t, "example.com", name.CommonName)
		assert.Equal(t, []string{"Example"}, name.Organization)
		assert.Equal(t, []string{"HU"}, name.Country)
	})

	t.Run("Error_MissingCN", func(t *testing.T) {
		_, err := ParseSubject("O=Example")
		assert.ErrorIs(t, err, cryptoDomain.ErrInvalidCertificateRequest)
	})

	t.Run("Error_Malformed", func(t *testing.T) {
		_, err := ParseSubject("CN")
		assert.ErrorIs(t, err, cryptoDomain.ErrInvalidCertificateRequest)
		_, err = ParseSubject("CN=a,XX=b")
		assert.ErrorIs(t, err, cryptoDomain.ErrInvalidCertificateRequest)
	})
}

func TestCryptoProvider_IssueCertificate(t *testing.T) {
	provider := NewCryptoProvider(NewAEADManager())
	key := generateTestKey(t, cryptoDomain.KeySpec{Type: cryptoDomain.KeyTypeEC})
	notBefore := time.Now().UTC().Truncate(time.Second)
	notAfter := notBefore.AddDate(0, 12, 0)

	t.Run("Success", func(t *testing.T) {
		cert, der, err := provider.IssueCertificate(CertificateRequest{
			Subject:   "CN=example.com",
			DNSNames:  []string{"example.com", "www.example.com"},
			NotBefore: notBefore,
			NotAfter:  notAfter,
			Key:       key,
		})

		require.NoError(t, err)
		assert.NotEmpty(t, der)
		assert.Equal(t, "example.com", cert.Subject.CommonName)
		assert.Equal(t, []string{"example.com", "www.example.com"}, cert.DNSNames)
		assert.True(t, cert.NotBefore.Equal(notBefore))
		assert.True(t, cert.NotAfter.Equal(notAfter))
		assert.NoError(t, cert.CheckSignatureFrom(cert))
	})

	t.Run("Error_SymmetricKey", func(t *testing.T) {
		_, _, err := provider.IssueCertificate(CertificateRequest{
			Subject:   "CN=example.com",
			NotBefore: notBefore,
			NotAfter:  notAfter,
			Key:       generateTestKey(t, cryptoDomain.KeySpec{Type: cryptoDomain.KeyTypeOct}),
		})
		assert.ErrorIs(t, err, cryptoDomain.ErrInvalidCertificateRequest)
	})

	t.Run("Error_InvertedValidity", func(t *testing.T) {
		_, _, err := provider.IssueCertificate(CertificateRequest{
			Subject:   "CN=example.com",
			NotBefore: notAfter,
			NotAfter:  notBefore,
			Key:       key,
		})
		assert.ErrorIs(t, err, cryptoDomain.ErrInvalidCertificateRequest)
	})
}

func TestCryptoProvider_EncodeCertificate(t *testing.T) {
	provider := NewCryptoProvider(NewAEADManager())
	key := generateTestKey(t, cryptoDomain.KeySpec{Type: cryptoDomain.KeyTypeEC})
	now := time.Now().UTC()
	_, der, err := provider.IssueCertificate(CertificateRequest{
		Subject:   "CN=example.com",
		NotBefore: now,
		NotAfter:  now.AddDate(1, 0, 0),
		Key:       key,
	})
	require.NoError(t, err)

	t.Run("Success_PEM", func(t *testing.T) {
		encoded, err := provider.EncodeCertificate(der, key, cryptoDomain.ContentTypePEM)
		require.NoError(t, err)

		keyBlock, rest := pem.Decode(encoded)
		require.NotNil(t, keyBlock)
		assert.Equal(t, "PRIVATE KEY", keyBlock.Type)
		certBlock, _ := pem.Decode(rest)
		require.NotNil(t, certBlock)
		assert.Equal(t, der, certBlock.Bytes)
		_, err = x509.ParsePKCS8PrivateKey(keyBlock.Bytes)
		assert.NoError(t, err)
	})

	t.Run("Success_PKCS12", func(t *testing.T) {
		encoded, err := provider.EncodeCertificate(der, key, cryptoDomain.ContentTypePKCS12)
		require.NoError(t, err)

		privateKey, cert, _, err := pkcs12.DecodeChain(encoded, "")
		require.NoError(t, err)
		assert.NotNil(t, privateKey)
		assert.Equal(t, der, cert.Raw)
	})

	t.Run("Error_UnknownContentType", func(t *testing.T) {
		_, err := provider.EncodeCertificate(der, key, "text/plain")
		assert.ErrorIs(t, err, cryptoDomain.ErrInvalidCertificateRequest)
	})
}

// TestEncodePEM tests that PEM encoding failures are returned.
func TestEncodePEM(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		encoded, err := encodePEM(&pem.Block{Type: "CERTIFICATE", Bytes: []byte("der")})

		require.NoError(t, err)
		block, rest := pem.Decode(encoded)
		require.NotNil(t, block)
		assert.Equal(t, []byte("der"), block.Bytes)
		assert.Empty(t, rest)
	})

	t.Run("Error_InvalidHeader", func(t *testing.T) {
		encoded, err := encodePEM(
			&pem.Block{Type: "CERTIFICATE", Bytes: []byte("der")},
			&pem.Block{Type: "PRIVATE KEY", Headers: map[string]string{"bad:key": "v"}, Bytes: []byte("key")},
		)

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "PRIVATE KEY")
		assert.Nil(t, encoded)
	})
}
