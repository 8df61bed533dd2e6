// Package domain defines the building blocks shared by every vault entity kind:
// identities, recovery levels and the mutable base record that carries tags,
// validity window, audit timestamps and soft-delete metadata.
package domain

import (
	"strings"

	"github.com/google/uuid"
)

// EntityID identifies an entity (all of its versions) inside one vault.
type EntityID struct {
	// Vault is the base URI of the owning vault.
	Vault string
	// Name is the entity name, unique per vault and entity kind.
	Name string
}

// NewEntityID creates an unversioned entity identifier.
func NewEntityID(vault, name string) EntityID {
	return EntityID{Vault: vault, Name: name}
}

// String returns the "<vault>/<name>" form of the identifier.
func (e EntityID) String() string {
	return strings.TrimSuffix(e.Vault, "/") + "/" + e.Name
}

// WithVersion returns the versioned identifier of the given version.
func (e EntityID) WithVersion(version string) VersionedEntityID {
	return VersionedEntityID{EntityID: e, Version: version}
}

// NewVersion returns the identifier of a freshly minted version.
func (e EntityID) NewVersion() VersionedEntityID {
	return e.WithVersion(NewVersion())
}

// VersionedEntityID identifies a single version of an entity.
type VersionedEntityID struct {
	EntityID
	// Version is an opaque, store generated token.
	Version string
}

// Unversioned drops the version part of the identifier.
func (v VersionedEntityID) Unversioned() EntityID {
	return v.EntityID
}

// String returns the "<vault>/<name>/<version>" form of the identifier.
func (v VersionedEntityID) String() string {
	return v.EntityID.String() + "/" + v.Version
}

// NewVersion generates a 32 character lowercase hex version token. UUIDv7 keeps
// the tokens unique and roughly time ordered.
func NewVersion() string {
	return strings.ReplaceAll(uuid.Must(uuid.NewV7()).String(), "-", "")
}
