package usecase

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	entityDomain "github.com/allisson/vaultemu/internal/entity/domain"
	"github.com/allisson/vaultemu/internal/errors"
	vaultDomain "github.com/allisson/vaultemu/internal/vault/domain"
)

// Defaults are the recovery settings of vaults created on first use.
type Defaults struct {
	RecoveryLevel   entityDomain.RecoveryLevel
	RecoverableDays *int
}

// directory implements VaultDirectory with a mutex-guarded slice kept in creation order.
type directory struct {
	mu       sync.RWMutex
	vaults   []*vaultDomain.Vault
	deps     vaultDomain.Dependencies
	defaults Defaults
	logger   *slog.Logger
	clock    func() time.Time
}

// NewVaultDirectory creates an empty directory. New vaults share deps.
func NewVaultDirectory(deps vaultDomain.Dependencies, defaults Defaults) (VaultDirectory, error) {
	if err := defaults.RecoveryLevel.ValidateRecoverableDays(defaults.RecoverableDays); err != nil {
		return nil, err
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &directory{
		vaults:   []*vaultDomain.Vault{},
		deps:     deps,
		defaults: defaults,
		logger:   logger,
	}, nil
}

// Create registers a new vault. The base URI and the aliases must not match any existing vault.
func (d *directory) Create(
	ctx context.Context,
	baseURI string,
	level entityDomain.RecoveryLevel,
	recoverableDays *int,
	aliases []string,
) (*vaultDomain.Vault, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.createLocked(ctx, baseURI, level, recoverableDays, aliases)
}

func (d *directory) createLocked(
	ctx context.Context,
	baseURI string,
	level entityDomain.RecoveryLevel,
	recoverableDays *int,
	aliases []string,
) (*vaultDomain.Vault, error) {
	uri, err := vaultDomain.NormalizeURI(baseURI)
	if err != nil {
		return nil, err
	}
	if d.findLocked(uri, anyState) != nil {
		return nil, errors.Wrapf(vaultDomain.ErrVaultAlreadyExists, "%s", uri)
	}
	for _, alias := range aliases {
		if d.findLocked(alias, anyState) != nil {
			return nil, errors.Wrapf(vaultDomain.ErrVaultAlreadyExists, "alias %s", alias)
		}
	}

	vault, err := vaultDomain.NewVault(uri, level, recoverableDays, d.deps)
	if err != nil {
		return nil, err
	}
	if err := vault.SetAliases(aliases); err != nil {
		return nil, err
	}
	if d.clock != nil {
		vault.SetClock(d.clock)
	}
	d.vaults = append(d.vaults, vault)

	d.logger.InfoContext(ctx, "vault created",
		slog.String("base_uri", uri),
		slog.String("recovery_level", level.String()),
		slog.String("recoverable_days", entityDomain.FormatRecoverableDays(recoverableDays)),
	)
	return vault, nil
}

// GetOrCreate returns the vault matching uri or creates it with the defaults.
// Concurrent callers for the same uri all receive the same vault.
func (d *directory) GetOrCreate(ctx context.Context, uri string) (*vaultDomain.Vault, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if vault := d.findLocked(uri, anyState); vault != nil {
		if vault.IsDeleted() {
			return nil, errors.Wrapf(vaultDomain.ErrVaultNotFound, "vault %s is deleted", uri)
		}
		return vault, nil
	}
	return d.createLocked(ctx, uri, d.defaults.RecoveryLevel, d.defaults.RecoverableDays, nil)
}

// Get returns the active vault matching uri.
func (d *directory) Get(_ context.Context, uri string) (*vaultDomain.Vault, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if vault := d.findLocked(uri, activeOnly); vault != nil {
		return vault, nil
	}
	return nil, errors.Wrapf(vaultDomain.ErrVaultNotFound, "%s", uri)
}

// GetIncludeDeleted returns the vault matching uri, active or deleted.
func (d *directory) GetIncludeDeleted(_ context.Context, uri string) (*vaultDomain.Vault, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if vault := d.findLocked(uri, anyState); vault != nil {
		return vault, nil
	}
	return nil, errors.Wrapf(vaultDomain.ErrVaultNotFound, "%s", uri)
}

// List returns the active vaults in creation order.
func (d *directory) List(_ context.Context) []*vaultDomain.Vault {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.filterLocked(activeOnly)
}

// ListDeleted returns the deleted vaults whose retention has not run out.
func (d *directory) ListDeleted(ctx context.Context) []*vaultDomain.Vault {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.purgeExpiredLocked(ctx)
	return d.filterLocked(deletedOnly)
}

// Delete soft-deletes the active vault matching uri.
func (d *directory) Delete(ctx context.Context, uri string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	vault := d.findLocked(uri, activeOnly)
	if vault == nil {
		return errors.Wrapf(vaultDomain.ErrVaultNotFound, "%s", uri)
	}
	if err := vault.Delete(); err != nil {
		return err
	}
	d.logger.InfoContext(ctx, "vault deleted", slog.String("base_uri", vault.BaseURI()))
	return nil
}

// Recover restores the deleted vault matching uri.
func (d *directory) Recover(ctx context.Context, uri string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.purgeExpiredLocked(ctx)
	vault := d.findLocked(uri, deletedOnly)
	if vault == nil {
		return errors.Wrapf(vaultDomain.ErrVaultNotFound, "deleted vault %s", uri)
	}
	if err := vault.Recover(); err != nil {
		return err
	}
	d.logger.InfoContext(ctx, "vault recovered", slog.String("base_uri", vault.BaseURI()))
	return nil
}

// Purge permanently removes the deleted vault matching uri.
func (d *directory) Purge(ctx context.Context, uri string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.purgeExpiredLocked(ctx)
	vault := d.findLocked(uri, deletedOnly)
	if vault == nil {
		return errors.Wrapf(vaultDomain.ErrVaultNotFound, "deleted vault %s", uri)
	}
	d.removeLocked(vault)
	d.logger.InfoContext(ctx, "vault purged", slog.String("base_uri", vault.BaseURI()))
	return nil
}

// UpdateAlias adds and/or removes one alias of the vault matching baseURI.
func (d *directory) UpdateAlias(ctx context.Context, baseURI, add, remove string) (*vaultDomain.Vault, error) {
	if add == "" && remove == "" {
		return nil, errors.Wrap(errors.ErrInvalidInput, "at least one of add or remove must be set")
	}
	if add == remove {
		return nil, errors.Wrap(errors.ErrInvalidInput, "add and remove must differ")
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	vault := d.findLocked(baseURI, anyState)
	if vault == nil {
		return nil, errors.Wrapf(vaultDomain.ErrVaultNotFound, "%s", baseURI)
	}

	aliases := vault.Aliases()
	if add != "" {
		if d.findLocked(add, anyState) != nil {
			return nil, errors.Wrapf(vaultDomain.ErrVaultAlreadyExists, "alias %s", add)
		}
		aliases = append(aliases, add)
	}
	if remove != "" {
		normalized, err := vaultDomain.NormalizeURI(remove)
		if err != nil {
			return nil, err
		}
		aliases = slices.DeleteFunc(aliases, func(alias string) bool { return alias == normalized })
	}
	if err := vault.SetAliases(aliases); err != nil {
		return nil, err
	}

	d.logger.InfoContext(ctx, "vault aliases updated",
		slog.String("base_uri", vault.BaseURI()),
		slog.String("add", add),
		slog.String("remove", remove),
	)
	return vault, nil
}

// TimeShift shifts every vault concurrently, then purges the deleted vaults
// whose retention ran out.
func (d *directory) TimeShift(ctx context.Context, offsetSeconds int, regenerateCertificates bool) error {
	if offsetSeconds <= 0 {
		return entityDomain.ErrInvalidTimeShift
	}
	d.mu.RLock()
	vaults := slices.Clone(d.vaults)
	d.mu.RUnlock()

	d.logger.InfoContext(ctx, "time shift of all vaults",
		slog.Int("offset_seconds", offsetSeconds),
		slog.Int("vaults", len(vaults)),
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, vault := range vaults {
		g.Go(func() error {
			return vault.TimeShift(gctx, offsetSeconds, regenerateCertificates)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.purgeExpiredLocked(ctx)
	return nil
}

// TimeShiftVault shifts the active vault matching uri.
func (d *directory) TimeShiftVault(
	ctx context.Context,
	uri string,
	offsetSeconds int,
	regenerateCertificates bool,
) error {
	vault, err := d.Get(ctx, uri)
	if err != nil {
		return err
	}
	if err := vault.TimeShift(ctx, offsetSeconds, regenerateCertificates); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.purgeExpiredLocked(ctx)
	return nil
}

type statePredicate func(*vaultDomain.Vault) bool

func anyState(*vaultDomain.Vault) bool { return true }

func activeOnly(v *vaultDomain.Vault) bool { return !v.IsDeleted() }

func deletedOnly(v *vaultDomain.Vault) bool { return v.IsDeleted() }

func (d *directory) findLocked(uri string, keep statePredicate) *vaultDomain.Vault {
	for _, vault := range d.vaults {
		if vault.Matches(uri) && keep(vault) {
			return vault
		}
	}
	return nil
}

func (d *directory) filterLocked(keep statePredicate) []*vaultDomain.Vault {
	result := make([]*vaultDomain.Vault, 0, len(d.vaults))
	for _, vault := range d.vaults {
		if keep(vault) {
			result = append(result, vault)
		}
	}
	return result
}

func (d *directory) removeLocked(target *vaultDomain.Vault) {
	d.vaults = slices.DeleteFunc(d.vaults, func(v *vaultDomain.Vault) bool { return v == target })
}

func (d *directory) purgeExpiredLocked(ctx context.Context) {
	d.vaults = slices.DeleteFunc(d.vaults, func(v *vaultDomain.Vault) bool {
		if !v.IsExpired() {
			return false
		}
		d.logger.InfoContext(ctx, "expired vault purged", slog.String("base_uri", v.BaseURI()))
		return true
	})
}
