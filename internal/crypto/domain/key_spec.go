package domain

import (
	"slices"

	"github.com/allisson/vaultemu/internal/errors"
)

// Default key sizes.
const (
	DefaultRSAKeySize = 2048
	DefaultOctKeySize = 256
)

var (
	rsaKeySizes = []int{2048, 3072, 4096}
	octKeySizes = []int{128, 192, 256}
	curves      = []KeyCurve{CurveP256, CurveP384, CurveP521}
)

// KeySpec describes how to generate key material. It is kept with every key
// version so that a rotation can generate equivalent material.
type KeySpec struct {
	Type  KeyType
	Size  int
	Curve KeyCurve
}

// Normalize fills the defaults of the key type.
func (s KeySpec) Normalize() KeySpec {
	switch {
	case s.Type.IsRSA() && s.Size == 0:
		s.Size = DefaultRSAKeySize
	case s.Type.IsOct() && s.Size == 0:
		s.Size = DefaultOctKeySize
	case s.Type.IsEC() && s.Curve == "":
		s.Curve = CurveP256
	}
	return s
}

// Validate checks that the spec can be generated.
func (s KeySpec) Validate() error {
	switch {
	case s.Type.IsRSA():
		if !slices.Contains(rsaKeySizes, s.Size) {
			return errors.Wrapf(ErrInvalidKeySize, "rsa key size %d", s.Size)
		}
	case s.Type.IsOct():
		if !slices.Contains(octKeySizes, s.Size) {
			return errors.Wrapf(ErrInvalidKeySize, "oct key size %d", s.Size)
		}
	case s.Type.IsEC():
		if !slices.Contains(curves, s.Curve) {
			return errors.Wrapf(ErrUnsupportedCurve, "%q", s.Curve)
		}
	default:
		return errors.Wrapf(ErrUnsupportedKeyType, "%q", s.Type)
	}
	return nil
}
