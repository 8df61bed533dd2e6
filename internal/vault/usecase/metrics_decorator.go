package usecase

import (
	"context"
	"time"

	entityDomain "github.com/allisson/vaultemu/internal/entity/domain"
	"github.com/allisson/vaultemu/internal/metrics"
	vaultDomain "github.com/allisson/vaultemu/internal/vault/domain"
)

const metricsDomain = "vault"

// vaultDirectoryWithMetrics decorates VaultDirectory with metrics instrumentation.
type vaultDirectoryWithMetrics struct {
	next    VaultDirectory
	metrics metrics.BusinessMetrics
}

// NewVaultDirectoryWithMetrics wraps a VaultDirectory with metrics recording.
func NewVaultDirectoryWithMetrics(directory VaultDirectory, m metrics.BusinessMetrics) VaultDirectory {
	return &vaultDirectoryWithMetrics{
		next:    directory,
		metrics: m,
	}
}

func (v *vaultDirectoryWithMetrics) record(ctx context.Context, operation string, start time.Time, err error) {
	status := metrics.StatusFromError(err)
	v.metrics.RecordOperation(ctx, metricsDomain, operation, status)
	v.metrics.RecordDuration(ctx, metricsDomain, operation, time.Since(start), status)
}

// Create records metrics for vault creation operations.
func (v *vaultDirectoryWithMetrics) Create(
	ctx context.Context,
	baseURI string,
	level entityDomain.RecoveryLevel,
	recoverableDays *int,
	aliases []string,
) (*vaultDomain.Vault, error) {
	start := time.Now()
	vault, err := v.next.Create(ctx, baseURI, level, recoverableDays, aliases)
	v.record(ctx, "vault_create", start, err)
	return vault, err
}

// GetOrCreate records metrics for implicit vault lookups.
func (v *vaultDirectoryWithMetrics) GetOrCreate(ctx context.Context, uri string) (*vaultDomain.Vault, error) {
	start := time.Now()
	vault, err := v.next.GetOrCreate(ctx, uri)
	v.record(ctx, "vault_get_or_create", start, err)
	return vault, err
}

// Get records metrics for vault lookups.
func (v *vaultDirectoryWithMetrics) Get(ctx context.Context, uri string) (*vaultDomain.Vault, error) {
	start := time.Now()
	vault, err := v.next.Get(ctx, uri)
	v.record(ctx, "vault_get", start, err)
	return vault, err
}

// GetIncludeDeleted records metrics for vault lookups including deleted vaults.
func (v *vaultDirectoryWithMetrics) GetIncludeDeleted(ctx context.Context, uri string) (*vaultDomain.Vault, error) {
	start := time.Now()
	vault, err := v.next.GetIncludeDeleted(ctx, uri)
	v.record(ctx, "vault_get_include_deleted", start, err)
	return vault, err
}

// List records metrics for vault listing.
func (v *vaultDirectoryWithMetrics) List(ctx context.Context) []*vaultDomain.Vault {
	start := time.Now()
	vaults := v.next.List(ctx)
	v.record(ctx, "vault_list", start, nil)
	return vaults
}

// ListDeleted records metrics for deleted vault listing.
func (v *vaultDirectoryWithMetrics) ListDeleted(ctx context.Context) []*vaultDomain.Vault {
	start := time.Now()
	vaults := v.next.ListDeleted(ctx)
	v.record(ctx, "vault_list_deleted", start, nil)
	return vaults
}

// Delete records metrics for vault deletion.
func (v *vaultDirectoryWithMetrics) Delete(ctx context.Context, uri string) error {
	start := time.Now()
	err := v.next.Delete(ctx, uri)
	v.record(ctx, "vault_delete", start, err)
	return err
}

// Recover records metrics for vault recovery.
func (v *vaultDirectoryWithMetrics) Recover(ctx context.Context, uri string) error {
	start := time.Now()
	err := v.next.Recover(ctx, uri)
	v.record(ctx, "vault_recover", start, err)
	return err
}

// Purge records metrics for vault purge.
func (v *vaultDirectoryWithMetrics) Purge(ctx context.Context, uri string) error {
	start := time.Now()
	err := v.next.Purge(ctx, uri)
	v.record(ctx, "vault_purge", start, err)
	return err
}

// UpdateAlias records metrics for alias updates.
func (v *vaultDirectoryWithMetrics) UpdateAlias(
	ctx context.Context,
	baseURI, add, remove string,
) (*vaultDomain.Vault, error) {
	start := time.Now()
	vault, err := v.next.UpdateAlias(ctx, baseURI, add, remove)
	v.record(ctx, "vault_update_alias", start, err)
	return vault, err
}

// TimeShift records metrics for time shifts of every vault.
func (v *vaultDirectoryWithMetrics) TimeShift(ctx context.Context, offsetSeconds int, regenerateCertificates bool) error {
	start := time.Now()
	err := v.next.TimeShift(ctx, offsetSeconds, regenerateCertificates)
	v.record(ctx, "vault_time_shift_all", start, err)
	return err
}

// TimeShiftVault records metrics for time shifts of a single vault.
func (v *vaultDirectoryWithMetrics) TimeShiftVault(
	ctx context.Context,
	uri string,
	offsetSeconds int,
	regenerateCertificates bool,
) error {
	start := time.Now()
	err := v.next.TimeShiftVault(ctx, uri, offsetSeconds, regenerateCertificates)
	v.record(ctx, "vault_time_shift", start, err)
	return err
}
