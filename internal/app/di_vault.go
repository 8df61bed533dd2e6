package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/allisson/vaultemu/internal/config"
	entityDomain "github.com/allisson/vaultemu/internal/entity/domain"
	"github.com/allisson/vaultemu/internal/lifetime"
	vaultDomain "github.com/allisson/vaultemu/internal/vault/domain"
	vaultHTTP "github.com/allisson/vaultemu/internal/vault/http"
	vaultUseCase "github.com/allisson/vaultemu/internal/vault/usecase"
)

// Notifier returns the receiver of lifetime notify events.
func (c *Container) Notifier() (lifetime.Notifier, error) {
	var err error
	c.notifierInit.Do(func() {
		c.notifier, err = c.initNotifier()
		if err != nil {
			c.setInitError("notifier", err)
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.getInitError("notifier"); exists {
		return nil, storedErr
	}
	return c.notifier, nil
}

// VaultDirectory returns the vault directory with the startup vaults registered.
func (c *Container) VaultDirectory() (vaultUseCase.VaultDirectory, error) {
	var err error
	c.vaultDirectoryInit.Do(func() {
		c.vaultDirectory, err = c.initVaultDirectory()
		if err != nil {
			c.setInitError("vaultDirectory", err)
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.getInitError("vaultDirectory"); exists {
		return nil, storedErr
	}
	return c.vaultDirectory, nil
}

// VaultHandler returns the management API handler.
func (c *Container) VaultHandler() (*vaultHTTP.VaultHandler, error) {
	var err error
	c.vaultHandlerInit.Do(func() {
		c.vaultHandler, err = c.initVaultHandler()
		if err != nil {
			c.setInitError("vaultHandler", err)
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.getInitError("vaultHandler"); exists {
		return nil, storedErr
	}
	return c.vaultHandler, nil
}

// initNotifier logs notify events, counting them when metrics are enabled.
func (c *Container) initNotifier() (lifetime.Notifier, error) {
	logNotifier := lifetime.NewLogNotifier(c.Logger())
	if !c.config.MetricsEnabled {
		return logNotifier, nil
	}
	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for notifier: %w", err)
	}
	return lifetime.NewMetricsNotifier(logNotifier, businessMetrics), nil
}

// initVaultDirectory creates the directory and registers the configured vaults.
func (c *Container) initVaultDirectory() (vaultUseCase.VaultDirectory, error) {
	logger := c.Logger()

	keeper, err := c.SecretKeeper()
	if err != nil {
		return nil, fmt.Errorf("failed to get secret keeper for vault directory: %w", err)
	}

	notifier, err := c.Notifier()
	if err != nil {
		return nil, fmt.Errorf("failed to get notifier for vault directory: %w", err)
	}

	defaults, err := defaultsFromConfig(c.config)
	if err != nil {
		return nil, err
	}

	deps := vaultDomain.Dependencies{
		Provider: c.CryptoProvider(),
		Keeper:   keeper,
		Notifier: notifier,
		Logger:   logger,
	}
	directory, err := vaultUseCase.NewVaultDirectory(deps, defaults)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault directory: %w", err)
	}

	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for vault directory: %w", err)
		}
		directory = vaultUseCase.NewVaultDirectoryWithMetrics(directory, businessMetrics)
	}

	definitions, err := c.config.VaultDefinitions()
	if err != nil {
		return nil, fmt.Errorf("failed to load vault definitions: %w", err)
	}
	if err := RegisterVaults(context.Background(), directory, definitions, defaults); err != nil {
		return nil, err
	}
	logger.Info("vault directory ready", slog.Int("vaults", len(definitions)))

	return directory, nil
}

// initVaultHandler creates the management API handler.
func (c *Container) initVaultHandler() (*vaultHTTP.VaultHandler, error) {
	directory, err := c.VaultDirectory()
	if err != nil {
		return nil, fmt.Errorf("failed to get vault directory for vault handler: %w", err)
	}
	return vaultHTTP.NewVaultHandler(directory, c.Logger()), nil
}

// RegisterVaults creates one vault per definition. Definitions without a
// recovery level use defaults.
func RegisterVaults(
	ctx context.Context,
	directory vaultUseCase.VaultDirectory,
	definitions []config.VaultDefinition,
	defaults vaultUseCase.Defaults,
) error {
	for _, def := range definitions {
		level, days := defaults.RecoveryLevel, defaults.RecoverableDays
		if def.RecoveryLevel != "" {
			parsed, err := entityDomain.ParseRecoveryLevel(def.RecoveryLevel)
			if err != nil {
				return fmt.Errorf("vault %s: %w", def.BaseURI, err)
			}
			level, days = parsed, def.RecoverableDays
			if days == nil {
				days = parsed.DefaultRecoverableDays()
			}
		}
		if _, err := directory.Create(ctx, def.BaseURI, level, days, def.Aliases); err != nil {
			return fmt.Errorf("failed to register vault %s: %w", def.BaseURI, err)
		}
	}
	return nil
}

// defaultsFromConfig parses the default recovery settings.
func defaultsFromConfig(cfg *config.Config) (vaultUseCase.Defaults, error) {
	level, err := entityDomain.ParseRecoveryLevel(cfg.DefaultRecoveryLevel)
	if err != nil {
		return vaultUseCase.Defaults{}, fmt.Errorf("invalid default recovery level: %w", err)
	}
	days := cfg.DefaultRecoverableDaysPtr()
	if days == nil {
		days = level.DefaultRecoverableDays()
	}
	if err := level.ValidateRecoverableDays(days); err != nil {
		return vaultUseCase.Defaults{}, fmt.Errorf("invalid default recoverable days: %w", err)
	}
	return vaultUseCase.Defaults{RecoveryLevel: level, RecoverableDays: days}, nil
}
