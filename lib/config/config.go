// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/bureau-foundation/sdcwt/lib/binhash"
)

// Environment represents the deployment environment.
type Environment string

const (
	// Development is for local development machines.
	Development Environment = "development"
	// Staging is for pre-production testing.
	Staging Environment = "staging"
	// Production is for production deployments.
	Production Environment = "production"
)

// Salt sources.
const (
	// SaltCrypto draws disclosure salts from crypto/rand.
	SaltCrypto = "crypto"
	// SaltSeeded derives disclosure salts from Issuer.SaltSeed, giving
	// reproducible tokens for test vectors.
	SaltSeeded = "seeded"
)

// Output formats.
const (
	FormatBinary = "binary"
	FormatHex    = "hex"
)

// Config is the configuration of the sdcwt tool.
type Config struct {
	// Environment identifies the deployment type (development, staging, production).
	Environment Environment `yaml:"environment"`

	// Paths configures directory locations.
	Paths PathsConfig `yaml:"paths"`

	// Issuer configures how tokens are assembled.
	Issuer IssuerConfig `yaml:"issuer"`

	// Output configures how tokens are written.
	Output OutputConfig `yaml:"output"`

	// Per-environment overrides, applied after the base config is
	// loaded.
	Development *ConfigOverrides `yaml:"development,omitempty"`
	Staging     *ConfigOverrides `yaml:"staging,omitempty"`
	Production  *ConfigOverrides `yaml:"production,omitempty"`
}

// ConfigOverrides contains fields that can be overridden per environment.
type ConfigOverrides struct {
	Paths  *PathsConfig  `yaml:"paths,omitempty"`
	Issuer *IssuerConfig `yaml:"issuer,omitempty"`
	Output *OutputConfig `yaml:"output,omitempty"`
}

// PathsConfig configures directory locations.
type PathsConfig struct {
	// Root is the base directory for sdcwt data.
	Root string `yaml:"root"`

	// Keys holds the issuer keypair.
	Keys string `yaml:"keys"`
}

// IssuerConfig configures the headers and disclosures of issued tokens.
type IssuerConfig struct {
	// Alg is the COSE signature algorithm written to the protected
	// header. Default: -8 (EdDSA)
	Alg int64 `yaml:"alg"`

	// Typ is the protected header content type.
	// Default: application/sd-cwt
	Typ string `yaml:"typ"`

	// SdAlg names the disclosure digest algorithm (SHA-256, SHA-384,
	// SHA-512, SHAKE128, SHAKE256). Default: SHA-256
	SdAlg string `yaml:"sd_alg"`

	// Audience is used when a claim template has no aud.
	Audience string `yaml:"audience"`

	// Lifetime sets exp relative to iat when a template has no exp.
	// Empty means tokens carry no exp.
	Lifetime string `yaml:"lifetime"`

	// SaltSource is "crypto" or "seeded".
	// Default: crypto (forced in production)
	SaltSource string `yaml:"salt_source"`

	// SaltSeed is the seed for the seeded salt source.
	SaltSeed string `yaml:"salt_seed"`

	// PassphraseFile names a file holding the passphrase that seals the
	// issuer private key at rest. Empty stores the key unsealed.
	PassphraseFile string `yaml:"passphrase_file"`
}

// OutputConfig configures token output.
type OutputConfig struct {
	// Format is "binary" or "hex". Default: binary
	Format string `yaml:"format"`

	// CanonicalOnly makes commands that write tokens emit the shortest
	// form, and makes validate require it.
	// Default: false (development), true (production)
	CanonicalOnly bool `yaml:"canonical_only"`
}

// Default returns the default configuration. Commands run with it when
// neither --config nor SDCWT_CONFIG names a file.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	defaultRoot := filepath.Join(homeDir, ".local", "share", "sdcwt")

	return &Config{
		Environment: Development,
		Paths: PathsConfig{
			Root: defaultRoot,
			Keys: filepath.Join(defaultRoot, "keys"),
		},
		Issuer: IssuerConfig{
			Alg:        -8,
			Typ:        "application/sd-cwt",
			SdAlg:      binhash.SHA256.String(),
			SaltSource: SaltCrypto,
		},
		Output: OutputConfig{
			Format: FormatBinary,
		},
	}
}

// Load loads configuration from the SDCWT_CONFIG environment variable.
// It fails when the variable is not set; callers that can run on
// defaults check the variable themselves.
func Load() (*Config, error) {
	configPath := os.Getenv("SDCWT_CONFIG")
	if configPath == "" {
		return nil, fmt.Errorf("SDCWT_CONFIG environment variable not set; " +
			"set it to the path of your sdcwt.yaml config file, or use --config flag")
	}

	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path. Only ${HOME}
// and similar path variables are expanded; environment variables do
// not override config values.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}

	cfg.applyEnvironmentOverrides()
	cfg.expandVariables()

	return cfg, nil
}

// loadFile loads a single configuration file, merging into the current config.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

// applyEnvironmentOverrides applies the environment-specific overrides.
func (c *Config) applyEnvironmentOverrides() {
	var overrides *ConfigOverrides

	switch c.Environment {
	case Development:
		overrides = c.Development
	case Staging:
		overrides = c.Staging
	case Production:
		overrides = c.Production
		// Production defaults: shortest-form output, random salts.
		if overrides == nil {
			overrides = &ConfigOverrides{
				Issuer: &IssuerConfig{SaltSource: SaltCrypto},
				Output: &OutputConfig{CanonicalOnly: true},
			}
		}
	}

	if overrides == nil {
		return
	}

	if overrides.Paths != nil {
		if overrides.Paths.Root != "" {
			c.Paths.Root = overrides.Paths.Root
		}
		if overrides.Paths.Keys != "" {
			c.Paths.Keys = overrides.Paths.Keys
		}
	}

	if overrides.Issuer != nil {
		if overrides.Issuer.Alg != 0 {
			c.Issuer.Alg = overrides.Issuer.Alg
		}
		if overrides.Issuer.Typ != "" {
			c.Issuer.Typ = overrides.Issuer.Typ
		}
		if overrides.Issuer.SdAlg != "" {
			c.Issuer.SdAlg = overrides.Issuer.SdAlg
		}
		if overrides.Issuer.Audience != "" {
			c.Issuer.Audience = overrides.Issuer.Audience
		}
		if overrides.Issuer.Lifetime != "" {
			c.Issuer.Lifetime = overrides.Issuer.Lifetime
		}
		if overrides.Issuer.SaltSource != "" {
			c.Issuer.SaltSource = overrides.Issuer.SaltSource
		}
		if overrides.Issuer.SaltSeed != "" {
			c.Issuer.SaltSeed = overrides.Issuer.SaltSeed
		}
		if overrides.Issuer.PassphraseFile != "" {
			c.Issuer.PassphraseFile = overrides.Issuer.PassphraseFile
		}
	}

	if overrides.Output != nil {
		if overrides.Output.Format != "" {
			c.Output.Format = overrides.Output.Format
		}
		// CanonicalOnly is a bool, so we always apply it from overrides.
		c.Output.CanonicalOnly = overrides.Output.CanonicalOnly
	}
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in paths.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"SDCWT_ROOT": c.Paths.Root,
		"HOME":       os.Getenv("HOME"),
	}

	c.Paths.Root = expandVars(c.Paths.Root, vars)
	vars["SDCWT_ROOT"] = c.Paths.Root // Update for dependent paths.

	c.Paths.Keys = expandVars(c.Paths.Keys, vars)
	c.Issuer.PassphraseFile = expandVars(c.Issuer.PassphraseFile, vars)
}

// expandVars expands ${VAR} and ${VAR:-default} patterns.
var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		// Check provided vars first, then environment.
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Environment != Development && c.Environment != Staging && c.Environment != Production {
		errs = append(errs, fmt.Errorf("invalid environment: %s", c.Environment))
	}

	if c.Paths.Root == "" {
		errs = append(errs, fmt.Errorf("paths.root is required"))
	}
	if c.Paths.Keys == "" {
		errs = append(errs, fmt.Errorf("paths.keys is required"))
	}

	if c.Issuer.Alg == 0 {
		errs = append(errs, fmt.Errorf("issuer.alg is required"))
	}
	if c.Issuer.Typ == "" {
		errs = append(errs, fmt.Errorf("issuer.typ is required"))
	}
	if _, err := binhash.ParseAlgorithm(c.Issuer.SdAlg); err != nil {
		errs = append(errs, fmt.Errorf("issuer.sd_alg: %w", err))
	}
	if c.Issuer.Lifetime != "" {
		if lifetime, err := time.ParseDuration(c.Issuer.Lifetime); err != nil {
			errs = append(errs, fmt.Errorf("issuer.lifetime: %w", err))
		} else if lifetime <= 0 {
			errs = append(errs, fmt.Errorf("issuer.lifetime must be positive, got %s", c.Issuer.Lifetime))
		}
	}

	saltSources := []string{SaltCrypto, SaltSeeded}
	if !slices.Contains(saltSources, c.Issuer.SaltSource) {
		errs = append(errs, fmt.Errorf("issuer.salt_source must be one of: %v", saltSources))
	}
	if c.Issuer.SaltSource == SaltSeeded {
		if c.Issuer.SaltSeed == "" {
			errs = append(errs, fmt.Errorf("issuer.salt_seed is required with salt_source %q", SaltSeeded))
		}
		if c.Environment == Production {
			errs = append(errs, fmt.Errorf("issuer.salt_source %q is not allowed in production", SaltSeeded))
		}
	}

	formats := []string{FormatBinary, FormatHex}
	if !slices.Contains(formats, c.Output.Format) {
		errs = append(errs, fmt.Errorf("output.format must be one of: %v", formats))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// SdAlgorithm returns the configured disclosure digest algorithm.
func (c *Config) SdAlgorithm() (binhash.Algorithm, error) {
	return binhash.ParseAlgorithm(c.Issuer.SdAlg)
}

// TokenLifetime returns the configured token lifetime, zero when
// tokens carry no exp.
func (c *Config) TokenLifetime() (time.Duration, error) {
	if c.Issuer.Lifetime == "" {
		return 0, nil
	}
	return time.ParseDuration(c.Issuer.Lifetime)
}

// EnsurePaths creates all configured directories if they don't exist.
// The key directory is private to the user.
func (c *Config) EnsurePaths() error {
	if c.Paths.Root != "" {
		if err := os.MkdirAll(c.Paths.Root, 0755); err != nil {
			return fmt.Errorf("creating %s: %w", c.Paths.Root, err)
		}
	}
	if c.Paths.Keys != "" {
		if err := os.MkdirAll(c.Paths.Keys, 0700); err != nil {
			return fmt.Errorf("creating %s: %w", c.Paths.Keys, err)
		}
	}
	return nil
}
