// Package config provides application configuration through environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/allisson/go-env"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// SkipVaultNames disables the registration of the named default vaults.
const SkipVaultNames = "-"

// Config holds all application configuration.
type Config struct {
	// ServerHost is the host address the server will bind to.
	ServerHost string
	// ServerPort is the port number the server will listen on.
	ServerPort int
	// ShutdownTimeout bounds the graceful shutdown of the servers.
	ShutdownTimeout time.Duration

	// LogLevel is the logging level (e.g., "debug", "info", "warn", "error").
	LogLevel string

	// RateLimitEnabled indicates whether per client IP rate limiting is enabled.
	RateLimitEnabled bool
	// RateLimitRequestsPerSec is the number of requests allowed per second per client IP.
	RateLimitRequestsPerSec float64
	// RateLimitBurst is the burst size of the per client IP limiter.
	RateLimitBurst int

	// CORSEnabled indicates whether CORS is enabled.
	CORSEnabled bool
	// CORSAllowOrigins is a comma-separated list of allowed origins for CORS.
	CORSAllowOrigins string

	// MetricsEnabled indicates whether metrics collection is enabled.
	MetricsEnabled bool
	// MetricsNamespace is the namespace for the application metrics.
	MetricsNamespace string
	// MetricsPort is the port number for the metrics server.
	MetricsPort int

	// DefaultRecoveryLevel is applied to vaults created without recovery settings.
	DefaultRecoveryLevel string
	// DefaultRecoverableDays is applied together with DefaultRecoveryLevel. Zero means
	// the default retention of the level.
	DefaultRecoverableDays int

	// VaultNames is a comma-separated list of vault names registered at startup
	// as https://{name}.localhost:{port}. "-" disables them.
	VaultNames string
	// VaultAliases is a comma-separated list of "vaultHost=aliasAuthority" pairs.
	VaultAliases string
	// VaultDefinitionsFile is an optional YAML file with extra vault definitions.
	VaultDefinitionsFile string

	// SecretKeeperURL is the gocloud.dev secrets URL sealing secret values.
	// Empty means a random in-process key.
	SecretKeeperURL string
}

// VaultDefinition describes a vault registered at startup.
type VaultDefinition struct {
	BaseURI         string   `yaml:"baseUri"         json:"baseUri"`
	RecoveryLevel   string   `yaml:"recoveryLevel"   json:"recoveryLevel,omitempty"`
	RecoverableDays *int     `yaml:"recoverableDays" json:"recoverableDays,omitempty"`
	Aliases         []string `yaml:"aliases"         json:"aliases,omitempty"`
}

type definitionsFile struct {
	Vaults []VaultDefinition `yaml:"vaults"`
}

// Load loads configuration from environment variables and .env file.
func Load() *Config {
	// Try to load .env file recursively
	loadDotEnv()

	return &Config{
		// Server configuration
		ServerHost:      env.GetString("SERVER_HOST", "0.0.0.0"),
		ServerPort:      env.GetInt("SERVER_PORT", 8443),
		ShutdownTimeout: env.GetDuration("SHUTDOWN_TIMEOUT_SECONDS", 10, time.Second),

		// Logging
		LogLevel: env.GetString("LOG_LEVEL", "info"),

		// Rate Limiting (IP-based)
		RateLimitEnabled:        env.GetBool("RATE_LIMIT_ENABLED", false),
		RateLimitRequestsPerSec: env.GetFloat64("RATE_LIMIT_REQUESTS_PER_SEC", 50.0),
		RateLimitBurst:          env.GetInt("RATE_LIMIT_BURST", 100),

		// CORS
		CORSEnabled:      env.GetBool("CORS_ENABLED", false),
		CORSAllowOrigins: env.GetString("CORS_ALLOW_ORIGINS", ""),

		// Metrics
		MetricsEnabled:   env.GetBool("METRICS_ENABLED", true),
		MetricsNamespace: env.GetString("METRICS_NAMESPACE", "vaultemu"),
		MetricsPort:      env.GetInt("METRICS_PORT", 8081),

		// Vault defaults
		DefaultRecoveryLevel:   env.GetString("DEFAULT_RECOVERY_LEVEL", "Recoverable+Purgeable"),
		DefaultRecoverableDays: env.GetInt("DEFAULT_RECOVERABLE_DAYS", 0),

		// Startup vaults
		VaultNames:           env.GetString("VAULT_NAMES", "primary,secondary"),
		VaultAliases:         env.GetString("VAULT_ALIASES", ""),
		VaultDefinitionsFile: env.GetString("VAULT_DEFINITIONS_FILE", ""),

		// Secret keeper
		SecretKeeperURL: env.GetString("SECRET_KEEPER_URL", ""),
	}
}

// GetGinMode returns the appropriate Gin mode based on log level.
func (c *Config) GetGinMode() string {
	switch c.LogLevel {
	case "debug":
		return "debug"
	case "info", "warn", "error":
		return "release"
	default:
		return "release"
	}
}

// DefaultRecoverableDaysPtr returns the configured default retention, nil when unset.
func (c *Config) DefaultRecoverableDaysPtr() *int {
	if c.DefaultRecoverableDays <= 0 {
		return nil
	}
	days := c.DefaultRecoverableDays
	return &days
}

// VaultDefinitions returns every vault registered at startup: the default hosts
// of the server port, one per configured name, then the YAML file entries.
// Aliases from VaultAliases are attached to the vault whose host they name.
func (c *Config) VaultDefinitions() ([]VaultDefinition, error) {
	var defs []VaultDefinition
	if strings.TrimSpace(c.VaultNames) != SkipVaultNames {
		defs = append(defs, c.defaultHostDefinitions()...)
	}

	fileDefs, err := c.loadDefinitionsFile()
	if err != nil {
		return nil, err
	}
	defs = append(defs, fileDefs...)

	aliases, err := parseAliases(c.VaultAliases)
	if err != nil {
		return nil, err
	}
	for i := range defs {
		host := hostOf(defs[i].BaseURI)
		for _, alias := range aliases[host] {
			defs[i].Aliases = append(defs[i].Aliases, "https://"+alias)
		}
	}
	return defs, nil
}

func (c *Config) defaultHostDefinitions() []VaultDefinition {
	port := c.ServerPort
	defs := []VaultDefinition{
		{
			BaseURI: fmt.Sprintf("https://localhost:%d", port),
			Aliases: []string{
				fmt.Sprintf("https://127.0.0.1:%d", port),
				fmt.Sprintf("https://default.vaultemu:%d", port),
				fmt.Sprintf("https://default.vaultemu.localhost:%d", port),
			},
		},
	}
	for _, name := range strings.Split(c.VaultNames, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		defs = append(defs, VaultDefinition{BaseURI: fmt.Sprintf("https://%s.localhost:%d", name, port)})
	}
	return defs
}

func (c *Config) loadDefinitionsFile() ([]VaultDefinition, error) {
	if c.VaultDefinitionsFile == "" {
		return nil, nil
	}
	data, err := os.ReadFile(c.VaultDefinitionsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read vault definitions file: %w", err)
	}
	var file definitionsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse vault definitions file: %w", err)
	}
	for i, def := range file.Vaults {
		if strings.TrimSpace(def.BaseURI) == "" {
			return nil, fmt.Errorf("vault definition %d: baseUri is required", i)
		}
	}
	return file.Vaults, nil
}

// parseAliases turns "host=alias,host=alias2" into a host to aliases map.
func parseAliases(value string) (map[string][]string, error) {
	result := map[string][]string{}
	for _, pair := range strings.Split(value, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		host, alias, ok := strings.Cut(pair, "=")
		host, alias = strings.TrimSpace(host), strings.TrimSpace(alias)
		if !ok || host == "" || alias == "" {
			return nil, fmt.Errorf("invalid vault alias %q: expected vaultHost=aliasAuthority", pair)
		}
		result[host] = append(result[host], alias)
	}
	return result, nil
}

func hostOf(uri string) string {
	host := strings.TrimPrefix(uri, "https://")
	host = strings.TrimPrefix(host, "http://")
	host, _, _ = strings.Cut(host, "/")
	name, _, _ := strings.Cut(host, ":")
	return name
}

// loadDotEnv searches for a .env file recursively from the current directory
// up to the root directory and loads it if found.
func loadDotEnv() {
	// Get current working directory
	cwd, err := os.Getwd()
	if err != nil {
		return
	}

	// Search for .env file recursively up the directory tree
	dir := cwd
	for {
		envPath := filepath.Join(dir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			// .env file found, load it
			_ = godotenv.Load(envPath)
			return
		}

		// Move to parent directory
		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root directory
			break
		}
		dir = parent
	}
}
