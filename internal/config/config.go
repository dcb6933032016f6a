// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-josekit.
//
// go-josekit is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/jeremyhahn/go-josekit/pkg/attack"
	"github.com/jeremyhahn/go-josekit/pkg/engine"
	"github.com/jeremyhahn/go-josekit/pkg/keys"
	"github.com/jeremyhahn/go-josekit/pkg/logging"
)

const (
	// EnvPrefix prefixes environment overrides, e.g. JOSEKIT_OUTPUT_FORMAT.
	EnvPrefix = "JOSEKIT"

	// FileName is the configuration file looked up in the home directory.
	FileName = ".josekit.yaml"
)

// Output formats
const (
	OutputText = "text"
	OutputJSON = "json"
	OutputYAML = "yaml"
)

// Config represents the complete CLI configuration
type Config struct {
	Output  OutputConfig  `yaml:"output" mapstructure:"output"`
	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`
	Keys    KeysConfig    `yaml:"keys" mapstructure:"keys"`
	Attack  AttackConfig  `yaml:"attack" mapstructure:"attack"`
	JWE     JWEConfig     `yaml:"jwe" mapstructure:"jwe"`
	Metrics MetricsConfig `yaml:"metrics" mapstructure:"metrics"`
}

// OutputConfig controls how results are printed
type OutputConfig struct {
	Format string `yaml:"format" mapstructure:"format"`
	// Compact prints decoded JSON on one line instead of indented.
	Compact bool `yaml:"compact" mapstructure:"compact"`
}

// LoggingConfig controls logging behavior
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// KeysConfig holds key generation defaults
type KeysConfig struct {
	RSABits       int    `yaml:"rsa_bits" mapstructure:"rsa_bits"`
	SymmetricBits int    `yaml:"symmetric_bits" mapstructure:"symmetric_bits"`
	ECCurve       string `yaml:"ec_curve" mapstructure:"ec_curve"`
	OKPCurve      string `yaml:"okp_curve" mapstructure:"okp_curve"`
}

// AttackConfig controls the attack commands
type AttackConfig struct {
	NoneMode     string   `yaml:"none_mode" mapstructure:"none_mode"` // canonical, all, custom
	NoneVariants []string `yaml:"none_variants,omitempty" mapstructure:"none_variants"`

	// TrailingNewline keeps the newline after the PEM text used as the
	// key-confusion HMAC secret.
	TrailingNewline bool `yaml:"trailing_newline" mapstructure:"trailing_newline"`
}

// JWEConfig holds encryption defaults
type JWEConfig struct {
	PBES2Count int `yaml:"pbes2_count" mapstructure:"pbes2_count"`
}

// MetricsConfig controls the metrics dump
type MetricsConfig struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// Dump writes the Prometheus text exposition to stderr on exit.
	Dump bool `yaml:"dump" mapstructure:"dump"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Output: OutputConfig{Format: OutputText},
		Logging: LoggingConfig{
			Level:  "warn",
			Format: logging.FormatText,
		},
		Keys: KeysConfig{
			RSABits:       keys.DefaultRSABits,
			SymmetricBits: keys.DefaultSymmetricBits,
			ECCurve:       string(keys.DefaultECCurve),
			OKPCurve:      string(keys.DefaultOKPCurve),
		},
		Attack: AttackConfig{
			NoneMode:        attack.NoneModeCanonical,
			TrailingNewline: true,
		},
		JWE:     JWEConfig{PBES2Count: engine.DefaultPBES2Count},
		Metrics: MetricsConfig{Enabled: true},
	}
}

// Load reads configuration from path, or from $HOME/.josekit.yaml when path
// is empty and that file exists, then applies JOSEKIT_* environment
// overrides on top of the defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v, Default())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" {
		if home, err := os.UserHomeDir(); err == nil {
			candidate := filepath.Join(home, FileName)
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
			}
		}
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if errors.As(err, &notFound) {
				return nil, fmt.Errorf("config file not found: %w", err)
			}
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// setDefaults registers every key so that environment overrides apply to it
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("output.format", cfg.Output.Format)
	v.SetDefault("output.compact", cfg.Output.Compact)
	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)
	v.SetDefault("keys.rsa_bits", cfg.Keys.RSABits)
	v.SetDefault("keys.symmetric_bits", cfg.Keys.SymmetricBits)
	v.SetDefault("keys.ec_curve", cfg.Keys.ECCurve)
	v.SetDefault("keys.okp_curve", cfg.Keys.OKPCurve)
	v.SetDefault("attack.none_mode", cfg.Attack.NoneMode)
	v.SetDefault("attack.none_variants", cfg.Attack.NoneVariants)
	v.SetDefault("attack.trailing_newline", cfg.Attack.TrailingNewline)
	v.SetDefault("jwe.pbes2_count", cfg.JWE.PBES2Count)
	v.SetDefault("metrics.enabled", cfg.Metrics.Enabled)
	v.SetDefault("metrics.dump", cfg.Metrics.Dump)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	switch strings.ToLower(c.Output.Format) {
	case OutputText, OutputJSON, OutputYAML:
	default:
		return fmt.Errorf("invalid output format: %s (must be text, json, or yaml)", c.Output.Format)
	}

	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case logging.FormatText, logging.FormatJSON:
	default:
		return fmt.Errorf("invalid log format: %s (must be text or json)", c.Logging.Format)
	}

	if !slices.Contains(keys.RSASizes, c.Keys.RSABits) {
		return fmt.Errorf("invalid keys.rsa_bits: %d (must be one of %v)", c.Keys.RSABits, keys.RSASizes)
	}
	if !slices.Contains(keys.SymmetricSizes, c.Keys.SymmetricBits) {
		return fmt.Errorf("invalid keys.symmetric_bits: %d (must be one of %v)", c.Keys.SymmetricBits, keys.SymmetricSizes)
	}
	if err := checkCurve(c.Keys.ECCurve, keys.EC); err != nil {
		return fmt.Errorf("invalid keys.ec_curve: %w", err)
	}
	if err := checkCurve(c.Keys.OKPCurve, keys.OKP); err != nil {
		return fmt.Errorf("invalid keys.okp_curve: %w", err)
	}

	if _, err := c.NoneVariants(); err != nil {
		return fmt.Errorf("invalid attack settings: %w", err)
	}

	if c.JWE.PBES2Count < 1 || c.JWE.PBES2Count > engine.MaxPBES2Count {
		return fmt.Errorf("invalid jwe.pbes2_count: %d (must be between 1 and %d)", c.JWE.PBES2Count, engine.MaxPBES2Count)
	}
	return nil
}

func checkCurve(name string, family keys.Family) error {
	curve, err := keys.ParseCurve(name)
	if err != nil {
		return err
	}
	if curve.Family() != family {
		return fmt.Errorf("%s is not a %s curve", curve, family)
	}
	return nil
}

// NoneVariants returns the "alg" values the none attack tries
func (c *Config) NoneVariants() ([]string, error) {
	return attack.VariantsForMode(c.Attack.NoneMode, c.Attack.NoneVariants)
}

// YAML renders the configuration
func (c *Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}
