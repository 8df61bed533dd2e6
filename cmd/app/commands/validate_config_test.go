package commands

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	entityDomain "github.com/allisson/vaultemu/internal/entity/domain"
	vaultDomain "github.com/allisson/vaultemu/internal/vault/domain"
	"github.com/allisson/vaultemu/internal/vault/http/mocks"
)

func newVault(t *testing.T, uri string, level entityDomain.RecoveryLevel, days *int, aliases ...string) *vaultDomain.Vault {
	t.Helper()
	vault, err := vaultDomain.NewVault(uri, level, days, vaultDomain.Dependencies{Logger: slog.New(slog.DiscardHandler)})
	require.NoError(t, err)
	require.NoError(t, vault.SetAliases(aliases))
	return vault
}

func TestRunValidateConfig(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.DiscardHandler)
	vaults := []*vaultDomain.Vault{
		newVault(t, "https://localhost:8443", entityDomain.RecoverableAndPurgeable, entityDomain.IntPtr(90),
			"https://127.0.0.1:8443"),
		newVault(t, "https://purgeable.localhost:8443", entityDomain.Purgeable, nil),
	}

	t.Run("text-output", func(t *testing.T) {
		directory := &mocks.MockVaultDirectory{}
		directory.On("List", mock.Anything).Return(vaults).Once()

		var out bytes.Buffer
		err := RunValidateConfig(ctx, directory, logger, &out, "text")

		require.NoError(t, err)
		require.Contains(t, out.String(), "2 vault(s) would be registered")
		require.Contains(t, out.String(), "https://localhost:8443 (Recoverable+Purgeable, 90 days)")
		require.Contains(t, out.String(), "aliases: https://127.0.0.1:8443")
		require.Contains(t, out.String(), "https://purgeable.localhost:8443 (Purgeable, no retention)")
		directory.AssertExpectations(t)
	})

	t.Run("json-output", func(t *testing.T) {
		directory := &mocks.MockVaultDirectory{}
		directory.On("List", mock.Anything).Return(vaults).Once()

		var out bytes.Buffer
		err := RunValidateConfig(ctx, directory, logger, &out, "json")

		require.NoError(t, err)
		require.Contains(t, out.String(), `"valid": true`)
		require.Contains(t, out.String(), `"baseUri": "https://purgeable.localhost:8443"`)
		require.Contains(t, out.String(), `"recoverableDays": 90`)
		directory.AssertExpectations(t)
	})

	t.Run("invalid-format", func(t *testing.T) {
		directory := &mocks.MockVaultDirectory{}

		err := RunValidateConfig(ctx, directory, logger, &bytes.Buffer{}, "yaml")

		require.Error(t, err)
		require.Contains(t, err.Error(), "invalid format")
		directory.AssertExpectations(t)
	})
}
