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
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

// TestLoad_Success tests successful loading of a valid config file
func TestLoad_Success(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	configPath := writeConfig(t, t.TempDir(), "config.yaml", `
output:
  format: "json"
  compact: true

logging:
  level: "debug"
  format: "json"

keys:
  rsa_bits: 4096
  symmetric_bits: 512
  ec_curve: "P-384"
  okp_curve: "Ed25519"

attack:
  none_mode: "custom"
  none_variants: ["none", "NoNe"]
  trailing_newline: false

jwe:
  pbes2_count: 600000

metrics:
  enabled: true
  dump: true
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Output.Format != OutputJSON || !cfg.Output.Compact {
		t.Errorf("Unexpected output config: %+v", cfg.Output)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("Unexpected logging config: %+v", cfg.Logging)
	}
	if cfg.Keys.RSABits != 4096 || cfg.Keys.SymmetricBits != 512 {
		t.Errorf("Unexpected key sizes: %+v", cfg.Keys)
	}
	if cfg.Keys.ECCurve != "P-384" || cfg.Keys.OKPCurve != "Ed25519" {
		t.Errorf("Unexpected curves: %+v", cfg.Keys)
	}
	if cfg.Attack.TrailingNewline {
		t.Error("Expected trailing_newline to be false")
	}
	if cfg.JWE.PBES2Count != 600000 {
		t.Errorf("Expected pbes2_count 600000, got %d", cfg.JWE.PBES2Count)
	}
	if !cfg.Metrics.Dump {
		t.Error("Expected metrics dump to be enabled")
	}

	variants, err := cfg.NoneVariants()
	if err != nil {
		t.Fatalf("NoneVariants failed: %v", err)
	}
	if strings.Join(variants, ",") != "none,NoNe" {
		t.Errorf("Unexpected none variants: %v", variants)
	}
}

// TestLoad_Defaults tests that an empty path without a home file yields the defaults
func TestLoad_Defaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	want := Default()
	if cfg.Output != want.Output || cfg.Logging != want.Logging || cfg.Keys != want.Keys {
		t.Errorf("Expected defaults, got %+v", cfg)
	}
	if cfg.JWE.PBES2Count != 10000 {
		t.Errorf("Expected default pbes2_count 10000, got %d", cfg.JWE.PBES2Count)
	}
	variants, err := cfg.NoneVariants()
	if err != nil {
		t.Fatalf("NoneVariants failed: %v", err)
	}
	if len(variants) != 4 {
		t.Errorf("Expected 4 canonical variants, got %v", variants)
	}
}

// TestLoad_HomeFile tests that $HOME/.josekit.yaml is picked up
func TestLoad_HomeFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	writeConfig(t, home, FileName, "attack:\n  none_mode: all\n")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	variants, err := cfg.NoneVariants()
	if err != nil {
		t.Fatalf("NoneVariants failed: %v", err)
	}
	if len(variants) != 16 {
		t.Errorf("Expected 16 variants, got %d", len(variants))
	}
	if cfg.Output.Format != OutputText {
		t.Errorf("Expected default output format, got %s", cfg.Output.Format)
	}
}

// TestLoad_EnvOverrides tests JOSEKIT_* environment overrides
func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	configPath := writeConfig(t, t.TempDir(), "config.yaml", "output:\n  format: text\n")

	t.Setenv("JOSEKIT_OUTPUT_FORMAT", "yaml")
	t.Setenv("JOSEKIT_LOGGING_LEVEL", "error")
	t.Setenv("JOSEKIT_JWE_PBES2_COUNT", "2048")

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Output.Format != OutputYAML {
		t.Errorf("Expected yaml output from env, got %s", cfg.Output.Format)
	}
	if cfg.Logging.Level != "error" {
		t.Errorf("Expected error level from env, got %s", cfg.Logging.Level)
	}
	if cfg.JWE.PBES2Count != 2048 {
		t.Errorf("Expected pbes2_count 2048 from env, got %d", cfg.JWE.PBES2Count)
	}
}

// TestLoad_Errors tests missing, malformed and invalid files
func TestLoad_Errors(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()

	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("Expected error for missing file")
	}

	malformed := writeConfig(t, dir, "bad.yaml", "output: [unclosed\n")
	if _, err := Load(malformed); err == nil {
		t.Error("Expected error for malformed YAML")
	}

	invalid := writeConfig(t, dir, "invalid.yaml", "keys:\n  rsa_bits: 1536\n")
	_, err := Load(invalid)
	if err == nil || !strings.Contains(err.Error(), "rsa_bits") {
		t.Errorf("Expected rsa_bits validation error, got %v", err)
	}
}

// TestValidate tests individual validation rules
func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"output format", func(c *Config) { c.Output.Format = "xml" }, "output format"},
		{"log level", func(c *Config) { c.Logging.Level = "trace" }, "log level"},
		{"log format", func(c *Config) { c.Logging.Format = "console" }, "log format"},
		{"symmetric bits", func(c *Config) { c.Keys.SymmetricBits = 100 }, "symmetric_bits"},
		{"ec curve family", func(c *Config) { c.Keys.ECCurve = "X25519" }, "ec_curve"},
		{"okp curve", func(c *Config) { c.Keys.OKPCurve = "Curve41417" }, "okp_curve"},
		{"none mode", func(c *Config) { c.Attack.NoneMode = "some" }, "attack"},
		{"custom without variants", func(c *Config) { c.Attack.NoneMode = "custom" }, "attack"},
		{"custom non-none variant", func(c *Config) {
			c.Attack.NoneMode = "custom"
			c.Attack.NoneVariants = []string{"null"}
		}, "attack"},
		{"pbes2 zero", func(c *Config) { c.JWE.PBES2Count = 0 }, "pbes2_count"},
		{"pbes2 too large", func(c *Config) { c.JWE.PBES2Count = 2000000 }, "pbes2_count"},
	}

	if err := Default().Validate(); err != nil {
		t.Fatalf("Default config must be valid: %v", err)
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

// TestYAML tests rendering of the configuration
func TestYAML(t *testing.T) {
	out, err := Default().YAML()
	if err != nil {
		t.Fatalf("YAML failed: %v", err)
	}
	for _, want := range []string{"output:", "format: text", "rsa_bits: 2048", "none_mode: canonical", "pbes2_count: 10000"} {
		if !strings.Contains(string(out), want) {
			t.Errorf("Expected YAML to contain %q\n%s", want, out)
		}
	}
	if strings.Contains(string(out), "none_variants") {
		t.Error("Expected empty none_variants to be omitted")
	}
}
