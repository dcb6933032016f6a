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
	"os"

	"github.com/spf13/cobra"

	"github.com/jeremyhahn/go-josekit/pkg/engine"
	"github.com/jeremyhahn/go-josekit/pkg/jose"
	"github.com/jeremyhahn/go-josekit/pkg/metrics"
	"github.com/jeremyhahn/go-josekit/pkg/validation"
)

// ErrSignatureInvalid is returned by verify when the signature does not check out
var ErrSignatureInvalid = errors.New("signature verification failed")

// contentFlags describe a header and payload given on the command line
type contentFlags struct {
	header      string
	payload     string
	payloadFile string
}

func (f *contentFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.header, "header", "", "protected header JSON")
	cmd.Flags().StringVarP(&f.payload, "payload", "p", "", "payload text")
	cmd.Flags().StringVar(&f.payloadFile, "payload-file", "", "read the payload from a file")
}

func (f *contentFlags) set() bool {
	return f.header != "" || f.payload != "" || f.payloadFile != ""
}

func (f *contentFlags) parseHeader() (*jose.Header, error) {
	if f.header == "" {
		return jose.NewHeader(), nil
	}
	return jose.ParseHeader([]byte(f.header))
}

func (f *contentFlags) readPayload() ([]byte, error) {
	switch {
	case f.payload != "" && f.payloadFile != "":
		return nil, errors.New("--payload and --payload-file are mutually exclusive")
	case f.payloadFile != "":
		data, err := os.ReadFile(f.payloadFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read payload file: %w", err)
		}
		return data, nil
	}
	return []byte(f.payload), nil
}

func (a *app) newSignCmd() *cobra.Command {
	var (
		alg     string
		content contentFlags
		key     keyFlags
	)
	cmd := &cobra.Command{
		Use:   "sign [token]",
		Short: "Sign a payload, or re-sign an existing JWS",
		Long: `Sign builds a JWS from --header and --payload, or re-signs the JWS given as
argument or on stdin. --alg overrides the "alg" header member; every other
member keeps its position.`,
		Example: `  josekit sign --alg HS256 --secret s3cr3t --payload '{"sub":"admin"}'
  josekit sign --alg ES256 --key ec.pem eyJhbGciOiJIUzI1NiJ9.e30.c2ln`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var jws *jose.JWS
			if content.set() {
				header, err := content.parseHeader()
				if err != nil {
					return err
				}
				payload, err := content.readPayload()
				if err != nil {
					return err
				}
				jws = jose.NewJWS(header, payload)
			} else {
				token, err := readInput(cmd, args)
				if err != nil {
					return err
				}
				if jws, err = jose.ParseJWS(token); err != nil {
					return err
				}
			}
			if alg != "" {
				jws = jws.WithAlgorithm(alg)
			}
			if jws.Algorithm() == "" {
				return errors.New(`no "alg" in the header: use --alg`)
			}

			k, err := key.load()
			if err != nil {
				return err
			}
			a.logger.Debug("signing", "alg", validation.SanitizeForLog(jws.Algorithm()), "key", k.String())
			a.warnWeakKey(k, jws.Algorithm())

			timer := metrics.NewTimer(metrics.OpSign, algorithmLabel(jws.Algorithm()))
			signed, err := engine.Sign(jws, k)
			observe(timer, err)
			if err != nil {
				return err
			}
			return a.printer(cmd.OutOrStdout()).PrintToken(signed)
		},
	}
	cmd.Flags().StringVarP(&alg, "alg", "a", "", "signature algorithm")
	content.register(cmd)
	key.register(cmd, "signing key")
	return cmd
}

func (a *app) newVerifyCmd() *cobra.Command {
	var key keyFlags
	cmd := &cobra.Command{
		Use:   "verify [token]",
		Short: "Verify the signature of a JWS",
		Long: `Verify checks the signature of a JWS under the "alg" of its header. Tokens
using a none algorithm never verify. The command exits non-zero when the
signature is invalid.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			jws, err := jose.ParseJWS(token)
			if err != nil {
				return err
			}
			k, err := key.load()
			if err != nil {
				return err
			}

			timer := metrics.NewTimer(metrics.OpVerify, algorithmLabel(jws.Algorithm()))
			valid, err := engine.Verify(jws, k)
			observe(timer, err)
			if err != nil {
				return err
			}
			if err := a.printer(cmd.OutOrStdout()).PrintVerification(jws.Algorithm(), valid); err != nil {
				return err
			}
			if !valid {
				return ErrSignatureInvalid
			}
			return nil
		},
	}
	key.register(cmd, "verification key")
	return cmd
}
