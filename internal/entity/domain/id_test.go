package domain

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEntityID(t *testing.T) {
	id := NewEntityID("https://vault.localhost:8443/", "my-key")

	assert.Equal(t, "https://vault.localhost:8443/my-key", id.String())

	versioned := id.WithVersion("abc")
	assert.Equal(t, "https://vault.localhost:8443/my-key/abc", versioned.String())
	assert.Equal(t, id, versioned.Unversioned())
}

func TestNewVersion(t *testing.T) {
	pattern := regexp.MustCompile(`^[0-9a-f]{32}$`)
	seen := map[string]struct{}{}

	for range 100 {
		version := NewVersion()
		assert.Regexp(t, pattern, version)
		seen[version] = struct{}{}
	}

	assert.Len(t, seen, 100)
}
