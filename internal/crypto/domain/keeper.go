package domain

import (
	"context"
)

// KMSKeeper seals and opens small payloads. *secrets.Keeper from gocloud.dev implements it.
type KMSKeeper interface {
	Encrypt(ctx context.Context, plaintext []byte) ([]byte, error)
	Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error)
	Close() error
}
