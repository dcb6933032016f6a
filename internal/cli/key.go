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
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jeremyhahn/go-josekit/pkg/keys"
	"github.com/jeremyhahn/go-josekit/pkg/metrics"
)

// Key text formats
const (
	keyFormatJWK = "jwk"
	keyFormatPEM = "pem"
)

func (a *app) newKeyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "key",
		Short: "Key management operations",
		Long:  `Generate, convert and inspect JWK and PEM keys`,
	}
	cmd.AddCommand(a.newKeyGenerateCmd())
	cmd.AddCommand(a.newKeyConvertCmd())
	cmd.AddCommand(a.newKeyPublicCmd())
	cmd.AddCommand(a.newKeyThumbprintCmd())
	return cmd
}

func (a *app) newKeyGenerateCmd() *cobra.Command {
	var (
		keyType    string
		size       int
		curve      string
		kid        string
		format     string
		publicOnly bool
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a new key",
		Long: `Generate an RSA, EC, OKP or symmetric (oct) key. Sizes and curves default to
the keys section of the configuration. An empty --kid yields a random UUID.`,
		Example: `  josekit key generate --type RSA --size 4096
  josekit key generate --type EC --curve secp256k1 --format pem
  josekit key generate --type oct --size 512 --kid hmac-1`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			family, err := keys.ParseFamily(keyType)
			if err != nil {
				return err
			}

			parameter := curve
			switch family {
			case keys.RSA:
				parameter = strconv.Itoa(a.cfg.Keys.RSABits)
			case keys.Symmetric:
				parameter = strconv.Itoa(a.cfg.Keys.SymmetricBits)
			case keys.EC:
				if curve == "" {
					parameter = a.cfg.Keys.ECCurve
				}
			case keys.OKP:
				if curve == "" {
					parameter = a.cfg.Keys.OKPCurve
				}
			}
			if size != 0 {
				parameter = strconv.Itoa(size)
			}

			timer := metrics.NewTimer(metrics.OpGenerate, string(family))
			key, err := generateKey(family, parameter, kid)
			observe(timer, err)
			if err != nil {
				return err
			}
			a.logger.Debug("generated key", "key", key.String())

			if publicOnly {
				key = key.Public()
			}
			return a.printKey(cmd.OutOrStdout(), key, format, nil)
		},
	}
	cmd.Flags().StringVarP(&keyType, "type", "t", string(keys.RSA), "key type (RSA, EC, OKP, oct)")
	cmd.Flags().IntVar(&size, "size", 0, "RSA modulus or secret size in bits")
	cmd.Flags().StringVar(&curve, "curve", "", "EC or OKP curve")
	cmd.Flags().StringVar(&kid, "kid", "", "key ID (default random UUID)")
	cmd.Flags().StringVarP(&format, "format", "f", keyFormatJWK, "key format (jwk, pem)")
	cmd.Flags().BoolVar(&publicOnly, "public", false, "print only the public key")
	return cmd
}

// generateKey dispatches to the typed generator of a family
func generateKey(family keys.Family, parameter, kid string) (*keys.Key, error) {
	switch family {
	case keys.RSA, keys.Symmetric:
		bits, err := strconv.Atoi(parameter)
		if err != nil {
			return nil, fmt.Errorf("%w: size %q", keys.ErrUnsupportedParameter, parameter)
		}
		if family == keys.RSA {
			return keys.GenerateRSA(bits, kid)
		}
		return keys.GenerateSymmetric(bits, kid)
	case keys.EC, keys.OKP:
		curve, err := keys.ParseCurve(parameter)
		if err != nil {
			return nil, err
		}
		if family == keys.EC {
			return keys.GenerateEC(curve, kid)
		}
		return keys.GenerateOKP(curve, kid)
	}
	return keys.Generate(family, parameter, kid)
}

func (a *app) newKeyConvertCmd() *cobra.Command {
	var (
		to            string
		kid           string
		passphrase    string
		newPassphrase string
		publicOnly    bool
	)
	cmd := &cobra.Command{
		Use:   "convert [file]",
		Short: "Convert a key between PEM and JWK",
		Long: `Convert reads a PEM or JWK key from a file or stdin and prints it in the
other format. --new-passphrase writes an encrypted PKCS#8 PEM.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := readKey(cmd, args, kid, passphrase)
			if err != nil {
				return err
			}
			if publicOnly {
				key = key.Public()
			}
			var encryptWith []byte
			if newPassphrase != "" {
				if to != keyFormatPEM {
					return fmt.Errorf("--new-passphrase needs --to %s", keyFormatPEM)
				}
				encryptWith = []byte(newPassphrase)
			}
			return a.printKey(cmd.OutOrStdout(), key, to, encryptWith)
		},
	}
	cmd.Flags().StringVar(&to, "to", keyFormatJWK, "target format (jwk, pem)")
	cmd.Flags().StringVar(&kid, "kid", "", "key ID to assign")
	cmd.Flags().StringVar(&passphrase, "passphrase", "", "passphrase of an encrypted PKCS#8 input")
	cmd.Flags().StringVar(&newPassphrase, "new-passphrase", "", "encrypt the PEM output with this passphrase")
	cmd.Flags().BoolVar(&publicOnly, "public", false, "convert only the public key")
	return cmd
}

func (a *app) newKeyPublicCmd() *cobra.Command {
	var (
		format     string
		passphrase string
	)
	cmd := &cobra.Command{
		Use:   "public [file]",
		Short: "Print the public part of a key",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := readKey(cmd, args, "", passphrase)
			if err != nil {
				return err
			}
			return a.printKey(cmd.OutOrStdout(), key.Public(), format, nil)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", keyFormatJWK, "key format (jwk, pem)")
	cmd.Flags().StringVar(&passphrase, "passphrase", "", "passphrase of an encrypted PKCS#8 input")
	return cmd
}

func (a *app) newKeyThumbprintCmd() *cobra.Command {
	var passphrase string
	cmd := &cobra.Command{
		Use:   "thumbprint [file]",
		Short: "Print the RFC 7638 SHA-256 thumbprint of a key",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := readKey(cmd, args, "", passphrase)
			if err != nil {
				return err
			}
			thumbprint, err := key.Thumbprint()
			if err != nil {
				return err
			}
			return a.printer(cmd.OutOrStdout()).PrintThumbprint(key, thumbprint)
		},
	}
	cmd.Flags().StringVar(&passphrase, "passphrase", "", "passphrase of an encrypted PKCS#8 input")
	return cmd
}

// readKey loads a key from the file argument, or from stdin
func readKey(cmd *cobra.Command, args []string, kid, passphrase string) (*keys.Key, error) {
	if len(args) > 0 && args[0] != "-" {
		return loadKeyFile(args[0], kid, passphrase)
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return nil, fmt.Errorf("failed to read stdin: %w", err)
	}
	var pass []byte
	if passphrase != "" {
		pass = []byte(passphrase)
	}
	return keys.Load(data, kid, pass)
}

// printKey exports key in format and prints it
func (a *app) printKey(w io.Writer, key *keys.Key, format string, passphrase []byte) error {
	label := format
	if format != keyFormatJWK && format != keyFormatPEM {
		label = unknownLabel
	}
	timer := metrics.NewTimer(metrics.OpConvert, label)
	text, err := exportKey(key, format, passphrase)
	observe(timer, err)
	if err != nil {
		return err
	}
	return a.printer(w).PrintKey(KeyOutput{Key: key, Format: format, Text: text})
}

func exportKey(key *keys.Key, format string, passphrase []byte) ([]byte, error) {
	switch format {
	case keyFormatJWK:
		return keys.ToJWK(key, key.HasPrivate())
	case keyFormatPEM:
		if passphrase != nil {
			return keys.ToEncryptedPEM(key, key.HasPrivate(), passphrase)
		}
		return keys.ToPEM(key, key.HasPrivate())
	}
	return nil, fmt.Errorf("unknown key format: %s (must be jwk or pem)", format)
}
