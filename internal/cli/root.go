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

package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeremyhahn/go-josekit/internal/config"
	"github.com/jeremyhahn/go-josekit/pkg/engine"
	"github.com/jeremyhahn/go-josekit/pkg/jose"
	"github.com/jeremyhahn/go-josekit/pkg/jwa"
	"github.com/jeremyhahn/go-josekit/pkg/keys"
	"github.com/jeremyhahn/go-josekit/pkg/logging"
	"github.com/jeremyhahn/go-josekit/pkg/metrics"
	"github.com/jeremyhahn/go-josekit/pkg/validation"
)

// Options holds the global flags
type Options struct {
	// ConfigFile is the path to the configuration file
	ConfigFile string

	// OutputFormat overrides output.format from the configuration
	OutputFormat string

	// Verbose enables debug logging
	Verbose bool

	// Metrics dumps the Prometheus exposition to stderr on exit
	Metrics bool
}

// app is the state shared by every command of one invocation
type app struct {
	opts   Options
	cfg    *config.Config
	logger *logging.Logger
}

func newApp() *app {
	return &app{
		cfg:    config.Default(),
		logger: logging.Discard(),
	}
}

// Execute runs the josekit command line and reports a failure on stderr
func Execute() error {
	a := newApp()
	root := a.newRootCmd()
	return a.run(root)
}

func (a *app) run(root *cobra.Command) error {
	err := root.Execute()
	if err != nil {
		a.logger.Debug("command failed", "error", err)
		_ = a.printer(root.ErrOrStderr()).PrintError(err) // best-effort
	}
	if a.dumpMetrics() {
		if dumpErr := metrics.Dump(root.ErrOrStderr()); dumpErr != nil && err == nil {
			err = dumpErr
		}
	}
	return err
}

func (a *app) newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "josekit",
		Short: "josekit - JOSE token toolkit for security testing",
		Long: `josekit decodes, signs, verifies, encrypts and decrypts compact JWS and
JWE tokens, and forges tokens for the classic JWT verifier attacks.

Attacks:
  - none:          strip the signature and set "alg" to a none variant
  - embed-jwk:     sign with an attacker key and embed it in the header
  - key-confusion: HMAC-sign with the public key PEM as the secret
  - empty-key:     HMAC-sign with a zero-length secret
  - psychic:       zero ECDSA signature (CVE-2022-21449)`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	// Persistent flags (available to all commands)
	flags := cmd.PersistentFlags()
	flags.StringVar(&a.opts.ConfigFile, "config", "",
		"config file (default is $HOME/"+config.FileName+")")
	flags.StringVarP(&a.opts.OutputFormat, "output", "o", "",
		"output format (text, json, yaml)")
	flags.BoolVarP(&a.opts.Verbose, "verbose", "v", false,
		"verbose output")
	flags.BoolVar(&a.opts.Metrics, "metrics", false,
		"dump Prometheus metrics to stderr on exit")

	// Add subcommands
	cmd.AddCommand(a.newVersionCmd())
	cmd.AddCommand(a.newDecodeCmd())
	cmd.AddCommand(a.newSignCmd())
	cmd.AddCommand(a.newVerifyCmd())
	cmd.AddCommand(a.newEncryptCmd())
	cmd.AddCommand(a.newDecryptCmd())
	cmd.AddCommand(a.newAttackCmd())
	cmd.AddCommand(a.newKeyCmd())
	cmd.AddCommand(a.newScanCmd())
	cmd.AddCommand(a.newConfigCmd())
	return cmd
}

// setup loads the configuration and builds the logger
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.opts.ConfigFile)
	if err != nil {
		return err
	}
	if a.opts.OutputFormat != "" {
		cfg.Output.Format = strings.ToLower(a.opts.OutputFormat)
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	if a.opts.Verbose {
		cfg.Logging.Level = "debug"
	}
	a.cfg = cfg

	logger, err := logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}
	a.logger = logger.With("command", cmd.Name())

	if cfg.Metrics.Enabled || a.opts.Metrics {
		metrics.Enable()
	} else {
		metrics.Disable()
	}
	a.logger.Debugf("loaded configuration (output=%s, none_mode=%s)", cfg.Output.Format, cfg.Attack.NoneMode)
	return nil
}

func (a *app) dumpMetrics() bool {
	return metrics.IsEnabled() && (a.opts.Metrics || a.cfg.Metrics.Dump)
}

// printer returns a Printer for the configured output format
func (a *app) printer(w io.Writer) *Printer {
	return NewPrinter(a.cfg.Output.Format, w).WithCompact(a.cfg.Output.Compact)
}

// errorType labels an error for josekit_errors_total
func errorType(err error) string {
	switch {
	case errors.Is(err, jose.ErrMalformedToken):
		return "malformed_token"
	case errors.Is(err, engine.ErrUnsupportedAlgorithm):
		return "unsupported_algorithm"
	case errors.Is(err, engine.ErrKeyMismatch):
		return "key_mismatch"
	case errors.Is(err, engine.ErrDecryptionFailed):
		return "decryption_failed"
	case errors.Is(err, keys.ErrPemFormat), errors.Is(err, keys.ErrJwkFormat), errors.Is(err, keys.ErrUnsupportedKeyFormat):
		return "key_format"
	}
	return "other"
}

// warnWeakKey logs when key is below the strength RFC 7518 requires for alg
func (a *app) warnWeakKey(key *keys.Key, alg string) {
	if reason, weak := validation.WeakKey(key, alg); weak {
		a.logger.Warn("weak key", "alg", validation.SanitizeForLog(alg), "reason", reason)
	}
}

// unknownLabel stands in for metric label values outside the known set
const unknownLabel = "unknown"

// algorithmLabel maps a header "alg" or "enc" value to its registered name
func algorithmLabel(name string) string {
	desc, err := jwa.Lookup(name)
	if err != nil {
		return unknownLabel
	}
	return desc.Name
}

// observe records an engine call in the metrics registry
func observe(timer *metrics.Timer, err error) {
	timer.ObserveAs(err, errorType(err))
}

// readInput returns the first argument, or stdin when it is absent or "-"
func readInput(cmd *cobra.Command, args []string) (string, error) {
	if len(args) > 0 && args[0] != "-" {
		return strings.TrimSpace(args[0]), nil
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	input := strings.TrimSpace(string(data))
	if input == "" {
		return "", errors.New("no input: pass a token argument or pipe one on stdin")
	}
	return input, nil
}

// keyFlags are the flags of commands that take a key
type keyFlags struct {
	file       string
	secret     string
	kid        string
	passphrase string
}

func (f *keyFlags) register(cmd *cobra.Command, usage string) {
	cmd.Flags().StringVarP(&f.file, "key", "k", "", usage+" (PEM or JWK file)")
	cmd.Flags().StringVar(&f.secret, "secret", "", "shared secret text, used instead of --key")
	cmd.Flags().StringVar(&f.kid, "kid", "", "key ID to assign to the key")
	cmd.Flags().StringVar(&f.passphrase, "passphrase", "", "passphrase of an encrypted PKCS#8 key")
}

func (f *keyFlags) provided() bool {
	return f.file != "" || f.secret != ""
}

// load reads the key named by the flags
func (f *keyFlags) load() (*keys.Key, error) {
	switch {
	case f.file != "" && f.secret != "":
		return nil, errors.New("--key and --secret are mutually exclusive")
	case f.secret != "":
		return keys.NewSymmetric([]byte(f.secret), f.kid), nil
	case f.file != "":
		return loadKeyFile(f.file, f.kid, f.passphrase)
	}
	return nil, errors.New("a key is required: use --key or --secret")
}

func loadKeyFile(path, kid, passphrase string) (*keys.Key, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read key file: %w", err)
	}
	var pass []byte
	if passphrase != "" {
		pass = []byte(passphrase)
	}
	key, err := keys.Load(data, kid, pass)
	if err != nil {
		return nil, fmt.Errorf("failed to load key %s: %w", path, err)
	}
	return key, nil
}
