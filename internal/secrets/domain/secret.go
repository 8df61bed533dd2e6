// Package domain defines the secret entity. Secret values are kept sealed by
// a KMS keeper and only opened on read.
package domain

import (
	"bytes"
	"sync"

	entityDomain "github.com/allisson/vaultemu/internal/entity/domain"
)

// Secret is one version of a secret.
type Secret struct {
	*entityDomain.Base
	mu          sync.RWMutex
	sealed      []byte
	contentType string
}

// NewSecret creates a secret version holding an already sealed value.
func NewSecret(base *entityDomain.Base, sealed []byte, contentType string) *Secret {
	return &Secret{
		Base:        base,
		sealed:      bytes.Clone(sealed),
		contentType: contentType,
	}
}

// Sealed returns a copy of the sealed value.
func (s *Secret) Sealed() []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return bytes.Clone(s.sealed)
}

// Reseal replaces the sealed value, used when a certificate behind a managed secret is re-issued.
func (s *Secret) Reseal(sealed []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sealed = bytes.Clone(sealed)
}

// ContentType returns the media type of the value.
func (s *Secret) ContentType() string {
	return s.contentType
}
