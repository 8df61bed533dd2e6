package service

import (
	"bytes"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"math/big"
	"strings"
	"time"

	pkcs12 "software.sslmate.com/src/go-pkcs12"

	cryptoDomain "github.com/allisson/vaultemu/internal/crypto/domain"
	"github.com/allisson/vaultemu/internal/errors"
)

// CertificateRequest holds what is needed to issue a self-signed certificate.
type CertificateRequest struct {
	// Subject is an X.500 distinguished name, e.g. "CN=example.com,O=Example".
	Subject   string
	DNSNames  []string
	NotBefore time.Time
	NotAfter  time.Time
	Key       KeyMaterial
}

// ParseSubject converts a comma separated distinguished name into a pkix.Name.
// Supported attributes: CN, O, OU, L, ST, C.
func ParseSubject(subject string) (pkix.Name, error) {
	var name pkix.Name
	for part := range strings.SplitSeq(subject, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		attr, value, ok := strings.Cut(part, "=")
		if !ok || strings.TrimSpace(value) == "" {
			return pkix.Name{}, errors.Wrapf(cryptoDomain.ErrInvalidCertificateRequest, "malformed subject %q", subject)
		}
		value = strings.TrimSpace(value)
		switch strings.ToUpper(strings.TrimSpace(attr)) {
		case "CN":
			name.CommonName = value
		case "O":
			name.Organization = append(name.Organization, value)
		case "OU":
			name.OrganizationalUnit = append(name.OrganizationalUnit, value)
		case "L":
			name.Locality = append(name.Locality, value)
		case "ST":
			name.Province = append(name.Province, value)
		case "C":
			name.Country = append(name.Country, value)
		default:
			return pkix.Name{}, errors.Wrapf(cryptoDomain.ErrInvalidCertificateRequest, "unsupported subject attribute %q", attr)
		}
	}
	if name.CommonName == "" {
		return pkix.Name{}, errors.Wrap(cryptoDomain.ErrInvalidCertificateRequest, "subject must contain CN")
	}
	return name, nil
}

// IssueCertificate creates a self-signed certificate for the request.
func (p *CryptoProvider) IssueCertificate(req CertificateRequest) (*x509.Certificate, []byte, error) {
	if req.Key == nil {
		return nil, nil, errors.Wrap(cryptoDomain.ErrInvalidCertificateRequest, "key is required")
	}
	signer, ok := req.Key.Signer()
	if !ok {
		return nil, nil, errors.Wrapf(cryptoDomain.ErrInvalidCertificateRequest, "%s keys cannot sign certificates", req.Key.Spec().Type)
	}
	if !req.NotAfter.After(req.NotBefore) {
		return nil, nil, errors.Wrap(cryptoDomain.ErrInvalidCertificateRequest, "not after must be later than not before")
	}
	subject, err := ParseSubject(req.Subject)
	if err != nil {
		return nil, nil, err
	}

	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate serial number: %w", err)
	}

	keyUsage := x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign
	if req.Key.Spec().Type.IsRSA() {
		keyUsage |= x509.KeyUsageKeyEncipherment
	}
	template := &x509.Certificate{
		SerialNumber:          serial,
		Subject:               subject,
		Issuer:                subject,
		DNSNames:              req.DNSNames,
		NotBefore:             req.NotBefore.UTC(),
		NotAfter:              req.NotAfter.UTC(),
		KeyUsage:              keyUsage,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth, x509.ExtKeyUsageClientAuth},
		BasicConstraintsValid: true,
	}

	der, err := x509.CreateCertificate(rand.Reader, template, template, signer.Public(), signer)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create certificate: %w", err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse certificate: %w", err)
	}
	return cert, der, nil
}

// EncodeCertificate renders the certificate and its private key as a PEM
// bundle or as a passwordless PKCS#12 archive.
func (p *CryptoProvider) EncodeCertificate(
	der []byte,
	key KeyMaterial,
	contentType cryptoDomain.CertContentType,
) ([]byte, error) {
	signer, ok := key.Signer()
	if !ok {
		return nil, errors.Wrap(cryptoDomain.ErrInvalidCertificateRequest, "certificate key must be asymmetric")
	}

	switch contentType {
	case cryptoDomain.ContentTypePEM:
		privateKey, err := x509.MarshalPKCS8PrivateKey(signer)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal private key: %w", err)
		}
		return encodePEM(
			&pem.Block{Type: "PRIVATE KEY", Bytes: privateKey},
			&pem.Block{Type: "CERTIFICATE", Bytes: der},
		)
	case cryptoDomain.ContentTypePKCS12:
		cert, err := x509.ParseCertificate(der)
		if err != nil {
			return nil, fmt.Errorf("failed to parse certificate: %w", err)
		}
		pfx, err := pkcs12.Modern.Encode(signer, cert, nil, "")
		if err != nil {
			return nil, fmt.Errorf("failed to encode pkcs12: %w", err)
		}
		return pfx, nil
	default:
		return nil, errors.Wrapf(cryptoDomain.ErrInvalidCertificateRequest, "unsupported content type %q", contentType)
	}
}

func encodePEM(blocks ...*pem.Block) ([]byte, error) {
	var buf bytes.Buffer
	for _, block := range blocks {
		if err := pem.Encode(&buf, block); err != nil {
			return nil, fmt.Errorf("failed to encode %s block: %w", block.Type, err)
		}
	}
	return buf.Bytes(), nil
}
