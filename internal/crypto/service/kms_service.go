package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"slices"
	"strings"

	"gocloud.dev/secrets"
	_ "gocloud.dev/secrets/awskms"
	_ "gocloud.dev/secrets/azurekeyvault"
	_ "gocloud.dev/secrets/gcpkms"
	_ "gocloud.dev/secrets/hashivault"
	_ "gocloud.dev/secrets/localsecrets"

	cryptoDomain "github.com/allisson/vaultemu/internal/crypto/domain"
)

// KeeperSchemes lists the secret keeper URL schemes the emulator can seal secret values with.
var KeeperSchemes = []string{"base64key", "awskms", "azurekeyvault", "gcpkms", "hashivault"}

type kmsService struct{}

// NewKMSService creates a KMSService backed by gocloud.dev/secrets.
func NewKMSService() KMSService {
	return &kmsService{}
}

// OpenKeeper opens the keeper sealing secret values. An empty keyURI opens a
// local keeper with a random key, so sealed values live as long as the process.
func (k *kmsService) OpenKeeper(ctx context.Context, keyURI string) (cryptoDomain.KMSKeeper, error) {
	if keyURI == "" {
		var err error
		if keyURI, err = RandomLocalKeeperURL(); err != nil {
			return nil, err
		}
	}
	if scheme := KeeperScheme(keyURI); !slices.Contains(KeeperSchemes, scheme) {
		return nil, fmt.Errorf("failed to open KMS keeper: %w: %q", cryptoDomain.ErrUnsupportedKeeper, scheme)
	}

	keeper, err := secrets.OpenKeeper(ctx, keyURI)
	if err != nil {
		return nil, fmt.Errorf("failed to open KMS keeper: %w", err)
	}
	return keeper, nil
}

// KeeperScheme returns the scheme of a keeper URL, empty when it has none.
func KeeperScheme(keyURI string) string {
	scheme, _, found := strings.Cut(keyURI, "://")
	if !found {
		return ""
	}
	return scheme
}

// RandomLocalKeeperURL returns a base64key:// URL holding a fresh 256-bit key.
func RandomLocalKeeperURL() (string, error) {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return "", fmt.Errorf("failed to generate keeper key: %w", err)
	}
	defer cryptoDomain.Zero(key)
	return "base64key://" + base64.URLEncoding.EncodeToString(key), nil
}
