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
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/jeremyhahn/go-josekit/pkg/jose"
	"github.com/jeremyhahn/go-josekit/pkg/keys"
	"github.com/jeremyhahn/go-josekit/pkg/scanner"
)

// OutputFormat defines the output format type
type OutputFormat string

const (
	OutputFormatText OutputFormat = "text"
	OutputFormatJSON OutputFormat = "json"
	OutputFormatYAML OutputFormat = "yaml"
)

// Printer handles formatted output
type Printer struct {
	format  OutputFormat
	writer  io.Writer
	compact bool
}

// NewPrinter creates a new Printer
func NewPrinter(format string, writer io.Writer) *Printer {
	return &Printer{
		format: OutputFormat(format),
		writer: writer,
	}
}

// WithCompact returns a printer that renders decoded JSON on one line
func (p *Printer) WithCompact(compact bool) *Printer {
	cp := *p
	cp.compact = compact
	return &cp
}

// DecodedToken is the view of a parsed token printed by decode
type DecodedToken struct {
	Kind      string         `json:"kind" yaml:"kind"`
	Header    map[string]any `json:"header" yaml:"header"`
	Payload   any            `json:"payload,omitempty" yaml:"payload,omitempty"`
	Signature string         `json:"signature,omitempty" yaml:"signature,omitempty"`

	EncryptedKey string `json:"encrypted_key,omitempty" yaml:"encrypted_key,omitempty"`
	IV           string `json:"iv,omitempty" yaml:"iv,omitempty"`
	Ciphertext   string `json:"ciphertext,omitempty" yaml:"ciphertext,omitempty"`
	Tag          string `json:"tag,omitempty" yaml:"tag,omitempty"`

	headerJSON  []byte
	payloadText []byte
}

func newDecodedToken(obj jose.Object) *DecodedToken {
	d := &DecodedToken{
		Kind:       string(obj.Kind()),
		Header:     obj.Header().Map(),
		headerJSON: obj.Header().Bytes(),
	}
	switch o := obj.(type) {
	case *jose.JWS:
		d.payloadText = o.Payload()
		d.Signature = jose.EncodeSegment(o.Signature())
		var v any
		if err := json.Unmarshal(d.payloadText, &v); err == nil {
			d.Payload = v
		} else {
			d.Payload = string(d.payloadText)
		}
	case *jose.JWE:
		d.EncryptedKey = jose.EncodeSegment(o.EncryptedKey())
		d.IV = jose.EncodeSegment(o.IV())
		d.Ciphertext = jose.EncodeSegment(o.Ciphertext())
		d.Tag = jose.EncodeSegment(o.Tag())
	}
	return d
}

// PrintDecoded prints the header and payload of a token
func (p *Printer) PrintDecoded(d *DecodedToken) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(d)
	case OutputFormatYAML:
		return p.printYAML(d)
	case OutputFormatText:
		fmt.Fprintf(p.writer, "Kind: %s\n", d.Kind)
		fmt.Fprintln(p.writer, "Header:")
		fmt.Fprintln(p.writer, p.formatJSON(d.headerJSON))
		if d.Kind == string(jose.KindJWS) {
			fmt.Fprintln(p.writer, "Payload:")
			fmt.Fprintln(p.writer, p.formatJSON(d.payloadText))
			fmt.Fprintf(p.writer, "Signature: %s\n", d.Signature)
			return nil
		}
		fmt.Fprintf(p.writer, "Encrypted Key: %s\n", d.EncryptedKey)
		fmt.Fprintf(p.writer, "IV:            %s\n", d.IV)
		fmt.Fprintf(p.writer, "Ciphertext:    %s\n", d.Ciphertext)
		fmt.Fprintf(p.writer, "Tag:           %s\n", d.Tag)
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// formatJSON pretty-prints JSON text and leaves anything else untouched
func (p *Printer) formatJSON(data []byte) string {
	formatted, err := jose.FormatJSON(data, p.compact)
	if err != nil {
		return string(data)
	}
	return string(formatted)
}

// PrintQuery prints the result of a payload query
func (p *Printer) PrintQuery(path, raw string) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(map[string]interface{}{
			"query":  path,
			"result": json.RawMessage(raw),
		})
	case OutputFormatYAML:
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			return err
		}
		return p.printYAML(map[string]interface{}{
			"query":  path,
			"result": v,
		})
	case OutputFormatText:
		fmt.Fprintln(p.writer, p.formatJSON([]byte(raw)))
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintToken prints a compact serialization
func (p *Printer) PrintToken(obj jose.Object) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(map[string]interface{}{
			"kind":  string(obj.Kind()),
			"token": obj.Serialize(),
		})
	case OutputFormatYAML:
		return p.printYAML(map[string]interface{}{
			"kind":  string(obj.Kind()),
			"token": obj.Serialize(),
		})
	case OutputFormatText:
		fmt.Fprintln(p.writer, obj.Serialize())
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintVerification prints the outcome of a signature check
func (p *Printer) PrintVerification(alg string, valid bool) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(map[string]interface{}{
			"algorithm": alg,
			"valid":     valid,
		})
	case OutputFormatYAML:
		return p.printYAML(map[string]interface{}{
			"algorithm": alg,
			"valid":     valid,
		})
	case OutputFormatText:
		if valid {
			fmt.Fprintf(p.writer, "Signature valid (%s)\n", alg)
		} else {
			fmt.Fprintf(p.writer, "Signature invalid (%s)\n", alg)
		}
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintPlaintext prints decrypted content
func (p *Printer) PrintPlaintext(header *jose.Header, plaintext []byte) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(map[string]interface{}{
			"header":    header.Map(),
			"plaintext": string(plaintext),
		})
	case OutputFormatYAML:
		return p.printYAML(map[string]interface{}{
			"header":    header.Map(),
			"plaintext": string(plaintext),
		})
	case OutputFormatText:
		fmt.Fprintln(p.writer, p.formatJSON(plaintext))
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// AttackOutput is one forged token, with the key that signed it if any
type AttackOutput struct {
	Attack string
	Token  *jose.JWS
	Key    *keys.Key
}

// PrintAttacks prints forged tokens
func (p *Printer) PrintAttacks(results []AttackOutput) error {
	entries := make([]map[string]interface{}, 0, len(results))
	for _, r := range results {
		entry := map[string]interface{}{
			"attack":    r.Attack,
			"algorithm": r.Token.Algorithm(),
			"token":     r.Token.Serialize(),
		}
		if r.Key != nil {
			text, err := keys.ToJWK(r.Key, r.Key.HasPrivate())
			if err != nil {
				return err
			}
			var j map[string]interface{}
			if err := json.Unmarshal(text, &j); err != nil {
				return err
			}
			entry["key"] = j
		}
		entries = append(entries, entry)
	}

	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(map[string]interface{}{"results": entries})
	case OutputFormatYAML:
		return p.printYAML(map[string]interface{}{"results": entries})
	case OutputFormatText:
		for _, r := range results {
			fmt.Fprintln(p.writer, r.Token.Serialize())
		}
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// KeyOutput is a key rendered as JWK or PEM text
type KeyOutput struct {
	Key    *keys.Key
	Format string
	Text   []byte
}

// PrintKey prints an exported key
func (p *Printer) PrintKey(k KeyOutput) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(map[string]interface{}{
			"kid":     k.Key.ID(),
			"type":    string(k.Key.Family()),
			"private": k.Key.HasPrivate(),
			"format":  k.Format,
			"key":     k.keyValue(),
		})
	case OutputFormatYAML:
		return p.printYAML(map[string]interface{}{
			"kid":     k.Key.ID(),
			"type":    string(k.Key.Family()),
			"private": k.Key.HasPrivate(),
			"format":  k.Format,
			"key":     string(k.Text),
		})
	case OutputFormatText:
		if k.Format == keyFormatJWK {
			fmt.Fprintln(p.writer, p.formatJSON(k.Text))
		} else {
			fmt.Fprint(p.writer, string(k.Text))
		}
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

func (k KeyOutput) keyValue() interface{} {
	if k.Format == keyFormatJWK {
		return json.RawMessage(k.Text)
	}
	return string(k.Text)
}

// PrintThumbprint prints an RFC 7638 thumbprint
func (p *Printer) PrintThumbprint(key *keys.Key, thumbprint string) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(map[string]interface{}{
			"kid":        key.ID(),
			"thumbprint": thumbprint,
		})
	case OutputFormatYAML:
		return p.printYAML(map[string]interface{}{
			"kid":        key.ID(),
			"thumbprint": thumbprint,
		})
	case OutputFormatText:
		fmt.Fprintln(p.writer, thumbprint)
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// SourceMatch is a token found by scan in one input
type SourceMatch struct {
	Source string
	scanner.Match
}

// PrintMatches prints tokens found by scan
func (p *Printer) PrintMatches(matches []SourceMatch) error {
	entries := make([]map[string]interface{}, 0, len(matches))
	for _, m := range matches {
		entries = append(entries, map[string]interface{}{
			"source": m.Source,
			"start":  m.Start,
			"end":    m.End,
			"kind":   string(m.Kind),
			"token":  m.Text,
		})
	}

	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(map[string]interface{}{"matches": entries})
	case OutputFormatYAML:
		return p.printYAML(map[string]interface{}{"matches": entries})
	case OutputFormatText:
		for _, m := range matches {
			fmt.Fprintf(p.writer, "%s:%d-%d  %s  %s\n", m.Source, m.Start, m.End, m.Kind, m.Text)
		}
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintRaw prints preformatted text regardless of format
func (p *Printer) PrintRaw(data []byte) error {
	_, err := p.writer.Write(data)
	return err
}

// PrintError prints an error message
func (p *Printer) PrintError(err error) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(map[string]interface{}{
			"status": "error",
			"error":  err.Error(),
		})
	case OutputFormatYAML:
		return p.printYAML(map[string]interface{}{
			"status": "error",
			"error":  err.Error(),
		})
	case OutputFormatText:
		fmt.Fprintf(p.writer, "Error: %v\n", err)
		return nil
	default:
		// Fall back to text so an invalid --output still reports the cause
		fmt.Fprintf(p.writer, "Error: %v\n", err)
		return nil
	}
}

// printJSON prints data as JSON
func (p *Printer) printJSON(data interface{}) error {
	encoder := json.NewEncoder(p.writer)
	if !p.compact {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(data)
}

// printYAML prints data as YAML
func (p *Printer) printYAML(data interface{}) error {
	encoder := yaml.NewEncoder(p.writer)
	encoder.SetIndent(2)
	if err := encoder.Encode(data); err != nil {
		return err
	}
	return encoder.Close()
}
