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
	"os"

	"github.com/spf13/cobra"

	"github.com/jeremyhahn/go-josekit/pkg/jose"
	"github.com/jeremyhahn/go-josekit/pkg/metrics"
	"github.com/jeremyhahn/go-josekit/pkg/scanner"
	"github.com/jeremyhahn/go-josekit/pkg/validation"
)

const stdinSource = "-"

func (a *app) newScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan [file...]",
		Short: "Find JWS and JWE tokens in files or stdin",
		Long: `Scan searches arbitrary data, such as captured HTTP traffic or logs, for
compact JWS and JWE tokens. Only candidates that parse with a JSON header
carrying "alg" are reported, with their byte offsets.`,
		Example: `  josekit scan request.txt
  curl -si https://example.test/login | josekit scan`,
		RunE: func(cmd *cobra.Command, args []string) error {
			sources := args
			if len(sources) == 0 {
				sources = []string{stdinSource}
			}

			var all []SourceMatch
			for _, source := range sources {
				data, err := readSource(cmd, source)
				if err != nil {
					return err
				}

				timer := metrics.NewTimer(metrics.OpScan, "")
				found := scanner.Find(data)
				observe(timer, nil)
				recordFound(found)
				a.logger.Debug("scanned", "source", validation.SanitizeForLog(source), "bytes", len(data), "tokens", len(found))

				for _, m := range found {
					all = append(all, SourceMatch{Source: source, Match: m})
				}
			}
			return a.printer(cmd.OutOrStdout()).PrintMatches(all)
		},
	}
	return cmd
}

func readSource(cmd *cobra.Command, source string) ([]byte, error) {
	if source == stdinSource {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(source)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", source, err)
	}
	return data, nil
}

func recordFound(found []scanner.Match) {
	var jws, jwe int
	for _, m := range found {
		if m.Kind == jose.KindJWE {
			jwe++
		} else {
			jws++
		}
	}
	metrics.RecordTokensFound(string(jose.KindJWS), jws)
	metrics.RecordTokensFound(string(jose.KindJWE), jwe)
}
