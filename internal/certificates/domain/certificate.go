// Package domain defines the certificate entity, its issuance policy and its
// lifetime action policy.
package domain

import (
	"bytes"
	"crypto/sha1" //nolint:gosec // certificate thumbprints are SHA-1 by definition
	"crypto/x509"
	"sync"
	"time"

	entityDomain "github.com/allisson/vaultemu/internal/entity/domain"
	"github.com/allisson/vaultemu/internal/lifetime"
)

// Certificate is one version of a certificate. The private key lives in the
// managed key version Kid and the exportable bundle in the managed secret version Sid.
type Certificate struct {
	*entityDomain.Base
	kid entityDomain.VersionedEntityID
	sid entityDomain.VersionedEntityID

	mu          sync.RWMutex
	certificate *x509.Certificate
	der         []byte
	policy      IssuancePolicy
	// issued is the policy the current X.509 was generated from.
	issued IssuancePolicy
}

// NewCertificate creates a certificate version. The validity window of the
// entity is taken from the policy.
func NewCertificate(
	base *entityDomain.Base,
	kid, sid entityDomain.VersionedEntityID,
	cert *x509.Certificate,
	der []byte,
	policy IssuancePolicy,
) (*Certificate, error) {
	start, expiry := policy.ValidityStart, policy.Expiry()
	if err := base.SetValidity(&start, &expiry); err != nil {
		return nil, err
	}
	return &Certificate{
		Base:        base,
		kid:         kid,
		sid:         sid,
		certificate: cert,
		der:         bytes.Clone(der),
		policy:      policy.Clone(),
		issued:      policy.Clone(),
	}, nil
}

// Kid returns the managed key version holding the private key.
func (c *Certificate) Kid() entityDomain.VersionedEntityID {
	return c.kid
}

// Sid returns the managed secret version holding the exportable bundle.
func (c *Certificate) Sid() entityDomain.VersionedEntityID {
	return c.sid
}

// X509 returns the parsed certificate.
func (c *Certificate) X509() *x509.Certificate {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.certificate
}

// DER returns a copy of the encoded certificate.
func (c *Certificate) DER() []byte {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return bytes.Clone(c.der)
}

// Thumbprint returns the SHA-1 digest of the encoded certificate.
func (c *Certificate) Thumbprint() []byte {
	sum := sha1.Sum(c.DER()) //nolint:gosec
	return sum[:]
}

// IssuancePolicy returns a copy of the issuance policy used for renewals.
func (c *Certificate) IssuancePolicy() IssuancePolicy {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.policy.Clone()
}

// IssuedWith returns a copy of the policy the current X.509 was generated from.
func (c *Certificate) IssuedWith() IssuancePolicy {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.issued.Clone()
}

// UpdateIssuancePolicy edits the issuance policy. Name and validity start
// cannot change. The edit is rejected when the result does not validate.
func (c *Certificate) UpdateIssuancePolicy(edit func(*IssuancePolicy)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	updated := c.policy.Clone()
	edit(&updated)
	updated.Name = c.policy.Name
	updated.ValidityStart = c.policy.ValidityStart
	updated = updated.Normalize()
	if err := updated.Validate(); err != nil {
		return err
	}
	c.policy = updated
	return nil
}

// Reissue replaces the X.509 after a regeneration.
func (c *Certificate) Reissue(cert *x509.Certificate, der []byte, issued IssuancePolicy) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.certificate = cert
	c.der = bytes.Clone(der)
	c.issued = issued.Clone()
}

// ValidityStart returns the not before of the entity, or its creation when unset.
func (c *Certificate) ValidityStart() time.Time {
	if nb := c.NotBefore(); nb != nil {
		return *nb
	}
	return c.Created()
}

// NeedsRegeneration reports whether the X.509 no longer matches the shifted
// validity start. Deleted versions are never regenerated.
func (c *Certificate) NeedsRegeneration() bool {
	if c.Deletion() != nil {
		return false
	}
	desired := c.ValidityStart().UTC().Truncate(24 * time.Hour)
	return !desired.Equal(c.X509().NotBefore)
}

// TimeShift shifts the timestamps, then recomputes the expiry from the
// validity start since validity is measured in months.
func (c *Certificate) TimeShift(offsetSeconds int) error {
	if err := c.Base.TimeShift(offsetSeconds); err != nil {
		return err
	}
	start := c.ValidityStart()
	expiry := lifetime.AddMonths(start, c.IssuancePolicy().ValidityMonths)
	return c.SetValidity(&start, &expiry)
}
