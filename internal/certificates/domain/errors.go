package domain

import (
	"github.com/allisson/vaultemu/internal/errors"
)

// Certificate error definitions.
var (
	// ErrInvalidIssuancePolicy indicates the issuance policy cannot produce a certificate.
	ErrInvalidIssuancePolicy = errors.Wrap(errors.ErrInvalidInput, "invalid issuance policy")

	// ErrLifetimePolicyNotFound indicates the certificate has no lifetime action policy.
	ErrLifetimePolicyNotFound = errors.Wrap(errors.ErrNotFound, "lifetime action policy not found")

	// ErrBackingEntityExists indicates a key or secret already uses the name of a new certificate.
	ErrBackingEntityExists = errors.Wrap(errors.ErrIllegalState, "key or secret with the certificate name already exists")

	// ErrBackingEntityMissing indicates the managed key or secret of a certificate is not in the expected state.
	ErrBackingEntityMissing = errors.Wrap(errors.ErrIllegalState, "managed key or secret of the certificate is missing")

	// ErrMissingKeyValidity indicates a managed key lost its validity window.
	ErrMissingKeyValidity = errors.Wrap(errors.ErrIllegalState, "managed key must have a not before timestamp")
)
