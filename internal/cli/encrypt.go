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
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeremyhahn/go-josekit/pkg/engine"
	"github.com/jeremyhahn/go-josekit/pkg/jose"
	"github.com/jeremyhahn/go-josekit/pkg/metrics"
	"github.com/jeremyhahn/go-josekit/pkg/validation"
)

const headerP2C = "p2c"

func (a *app) newEncryptCmd() *cobra.Command {
	var (
		alg     string
		enc     string
		content contentFlags
		key     keyFlags
	)
	cmd := &cobra.Command{
		Use:   "encrypt",
		Short: "Encrypt a payload into a compact JWE",
		Long: `Encrypt seals --payload under the "alg" and "enc" of --header (or --alg and
--enc). For the public-key algorithms only the public part of --key is used.
PBES2 algorithms use jwe.pbes2_count as "p2c" unless the header sets one.`,
		Example: `  josekit encrypt --alg RSA-OAEP-256 --enc A256GCM --key rsa.pem --payload hello
  josekit encrypt --alg PBES2-HS256+A128KW --enc A128CBC-HS256 --secret pw --payload hello`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			header, err := content.parseHeader()
			if err != nil {
				return err
			}
			if alg != "" {
				header = header.MustSet(jose.HeaderAlgorithm, alg)
			}
			if enc != "" {
				header = header.MustSet(jose.HeaderEncryption, enc)
			}
			keyAlg, _ := header.GetString(jose.HeaderAlgorithm)
			if keyAlg == "" {
				return errors.New(`no "alg" in the header: use --alg`)
			}
			if strings.HasPrefix(keyAlg, "PBES2-") && !header.Has(headerP2C) {
				header = header.MustSet(headerP2C, a.cfg.JWE.PBES2Count)
			}

			payload, err := content.readPayload()
			if err != nil {
				return err
			}
			k, err := key.load()
			if err != nil {
				return err
			}
			a.logger.Debug("encrypting", "alg", validation.SanitizeForLog(keyAlg), "key", k.String())
			a.warnWeakKey(k, keyAlg)

			timer := metrics.NewTimer(metrics.OpEncrypt, algorithmLabel(keyAlg))
			jwe, err := engine.Encrypt(header, payload, k.Public())
			observe(timer, err)
			if err != nil {
				return err
			}
			return a.printer(cmd.OutOrStdout()).PrintToken(jwe)
		},
	}
	cmd.Flags().StringVarP(&alg, "alg", "a", "", "key management algorithm")
	cmd.Flags().StringVarP(&enc, "enc", "e", "", "content encryption algorithm")
	content.register(cmd)
	key.register(cmd, "recipient key")
	return cmd
}

func (a *app) newDecryptCmd() *cobra.Command {
	var key keyFlags
	cmd := &cobra.Command{
		Use:   "decrypt [token]",
		Short: "Decrypt a compact JWE",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			jwe, err := jose.ParseJWE(token)
			if err != nil {
				return err
			}
			k, err := key.load()
			if err != nil {
				return err
			}

			timer := metrics.NewTimer(metrics.OpDecrypt, algorithmLabel(jwe.Algorithm()))
			plaintext, err := engine.Decrypt(jwe, k)
			observe(timer, err)
			if err != nil {
				return err
			}
			return a.printer(cmd.OutOrStdout()).PrintPlaintext(jwe.Header(), plaintext)
		},
	}
	key.register(cmd, "private key or shared secret")
	return cmd
}
