// Package mocks provides mock implementations for testing HTTP handlers.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	entityDomain "github.com/allisson/vaultemu/internal/entity/domain"
	vaultDomain "github.com/allisson/vaultemu/internal/vault/domain"
)

// MockVaultDirectory is a mock implementation of VaultDirectory.
type MockVaultDirectory struct {
	mock.Mock
}

func (m *MockVaultDirectory) vault(args mock.Arguments) *vaultDomain.Vault {
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*vaultDomain.Vault)
}

func (m *MockVaultDirectory) vaults(args mock.Arguments) []*vaultDomain.Vault {
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]*vaultDomain.Vault)
}

// Create mocks the Create method of VaultDirectory.
func (m *MockVaultDirectory) Create(
	ctx context.Context,
	baseURI string,
	level entityDomain.RecoveryLevel,
	recoverableDays *int,
	aliases []string,
) (*vaultDomain.Vault, error) {
	args := m.Called(ctx, baseURI, level, recoverableDays, aliases)
	return m.vault(args), args.Error(1)
}

// GetOrCreate mocks the GetOrCreate method of VaultDirectory.
func (m *MockVaultDirectory) GetOrCreate(ctx context.Context, uri string) (*vaultDomain.Vault, error) {
	args := m.Called(ctx, uri)
	return m.vault(args), args.Error(1)
}

// Get mocks the Get method of VaultDirectory.
func (m *MockVaultDirectory) Get(ctx context.Context, uri string) (*vaultDomain.Vault, error) {
	args := m.Called(ctx, uri)
	return m.vault(args), args.Error(1)
}

// GetIncludeDeleted mocks the GetIncludeDeleted method of VaultDirectory.
func (m *MockVaultDirectory) GetIncludeDeleted(ctx context.Context, uri string) (*vaultDomain.Vault, error) {
	args := m.Called(ctx, uri)
	return m.vault(args), args.Error(1)
}

// List mocks the List method of VaultDirectory.
func (m *MockVaultDirectory) List(ctx context.Context) []*vaultDomain.Vault {
	return m.vaults(m.Called(ctx))
}

// ListDeleted mocks the ListDeleted method of VaultDirectory.
func (m *MockVaultDirectory) ListDeleted(ctx context.Context) []*vaultDomain.Vault {
	return m.vaults(m.Called(ctx))
}

// Delete mocks the Delete method of VaultDirectory.
func (m *MockVaultDirectory) Delete(ctx context.Context, uri string) error {
	return m.Called(ctx, uri).Error(0)
}

// Recover mocks the Recover method of VaultDirectory.
func (m *MockVaultDirectory) Recover(ctx context.Context, uri string) error {
	return m.Called(ctx, uri).Error(0)
}

// Purge mocks the Purge method of VaultDirectory.
func (m *MockVaultDirectory) Purge(ctx context.Context, uri string) error {
	return m.Called(ctx, uri).Error(0)
}

// UpdateAlias mocks the UpdateAlias method of VaultDirectory.
func (m *MockVaultDirectory) UpdateAlias(ctx context.Context, baseURI, add, remove string) (*vaultDomain.Vault, error) {
	args := m.Called(ctx, baseURI, add, remove)
	return m.vault(args), args.Error(1)
}

// TimeShift mocks the TimeShift method of VaultDirectory.
func (m *MockVaultDirectory) TimeShift(ctx context.Context, offsetSeconds int, regenerateCertificates bool) error {
	return m.Called(ctx, offsetSeconds, regenerateCertificates).Error(0)
}

// TimeShiftVault mocks the TimeShiftVault method of VaultDirectory.
func (m *MockVaultDirectory) TimeShiftVault(
	ctx context.Context,
	uri string,
	offsetSeconds int,
	regenerateCertificates bool,
) error {
	return m.Called(ctx, uri, offsetSeconds, regenerateCertificates).Error(0)
}
