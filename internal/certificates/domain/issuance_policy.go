package domain

import (
	"slices"
	"time"

	cryptoDomain "github.com/allisson/vaultemu/internal/crypto/domain"
	cryptoService "github.com/allisson/vaultemu/internal/crypto/service"
	"github.com/allisson/vaultemu/internal/errors"
	"github.com/allisson/vaultemu/internal/lifetime"
)

// MaxValidityMonths bounds the validity of issued certificates.
const MaxValidityMonths = 120

// IssuancePolicy describes how the certificate versions of a name are issued.
type IssuancePolicy struct {
	Name     string
	Subject  string
	DNSNames []string
	// ValidityMonths is the lifetime of each issued certificate.
	ValidityMonths int
	// ValidityStart is the not before of the certificate. Zero means now.
	ValidityStart     time.Time
	ContentType       cryptoDomain.CertContentType
	KeySpec           cryptoDomain.KeySpec
	ReuseKeyOnRenewal bool
	Exportable        bool
}

// Clone returns a deep copy.
func (p IssuancePolicy) Clone() IssuancePolicy {
	p.DNSNames = slices.Clone(p.DNSNames)
	return p
}

// Normalize fills the content type and key defaults.
func (p IssuancePolicy) Normalize() IssuancePolicy {
	if p.ContentType == "" {
		p.ContentType = cryptoDomain.ContentTypePKCS12
	}
	if p.KeySpec.Type == "" {
		p.KeySpec.Type = cryptoDomain.KeyTypeRSA
	}
	p.KeySpec = p.KeySpec.Normalize()
	return p.Clone()
}

// Validate checks that a certificate can be issued with the policy.
func (p IssuancePolicy) Validate() error {
	if p.ValidityMonths < 1 || p.ValidityMonths > MaxValidityMonths {
		return errors.Wrapf(ErrInvalidIssuancePolicy, "validity months must be between 1 and %d", MaxValidityMonths)
	}
	if p.ContentType != cryptoDomain.ContentTypePEM && p.ContentType != cryptoDomain.ContentTypePKCS12 {
		return errors.Wrapf(ErrInvalidIssuancePolicy, "unsupported content type %q", p.ContentType)
	}
	if p.KeySpec.Type.IsOct() {
		return errors.Wrap(ErrInvalidIssuancePolicy, "certificates require an RSA or EC key")
	}
	if err := p.KeySpec.Validate(); err != nil {
		return err
	}
	if _, err := cryptoService.ParseSubject(p.Subject); err != nil {
		return err
	}
	return nil
}

// Expiry returns the end of the validity window.
func (p IssuancePolicy) Expiry() time.Time {
	return lifetime.AddMonths(p.ValidityStart, p.ValidityMonths)
}

// CertNotBefore returns the not before written into the certificate: the
// validity start truncated to the day.
func (p IssuancePolicy) CertNotBefore() time.Time {
	return p.ValidityStart.UTC().Truncate(24 * time.Hour)
}
