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

	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"

	"github.com/jeremyhahn/go-josekit/pkg/jose"
	"github.com/jeremyhahn/go-josekit/pkg/metrics"
)

func (a *app) newDecodeCmd() *cobra.Command {
	var (
		query   string
		compact bool
	)
	cmd := &cobra.Command{
		Use:   "decode [token]",
		Short: "Decode a JWS or JWE without verifying it",
		Long: `Decode prints the header of a compact JWS or JWE and, for a JWS, its payload.
Nothing is verified. Use --query to extract a payload member with a GJSON path,
e.g. --query sub or --query "roles.#".`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := readInput(cmd, args)
			if err != nil {
				return err
			}

			timer := metrics.NewTimer(metrics.OpDecode, "")
			obj, err := jose.Parse(token)
			observe(timer, err)
			if err != nil {
				return err
			}
			a.logger.Debug("decoded token", "kind", obj.Kind(), "header", obj.Header().Names())

			printer := a.printer(cmd.OutOrStdout())
			if cmd.Flags().Changed("compact") {
				printer = printer.WithCompact(compact)
			}
			if query == "" {
				return printer.PrintDecoded(newDecodedToken(obj))
			}

			jws, ok := obj.(*jose.JWS)
			if !ok {
				return errors.New("--query needs a JWS: a JWE payload is encrypted")
			}
			payload := jws.Payload()
			if !gjson.ValidBytes(payload) {
				return errors.New("payload is not JSON")
			}
			result := gjson.GetBytes(payload, query)
			if !result.Exists() {
				return fmt.Errorf("no payload member matches %q", query)
			}
			return printer.PrintQuery(query, result.Raw)
		},
	}
	cmd.Flags().StringVarP(&query, "query", "q", "", "GJSON path into the payload")
	cmd.Flags().BoolVar(&compact, "compact", false, "print JSON on one line")
	return cmd
}
