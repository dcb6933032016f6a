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

package jose

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/mohae/deepcopy"
)

// Field is one header member: its name and its raw JSON value.
type Field struct {
	Name  string
	Value json.RawMessage
}

// Header is an ordered, immutable JOSE header. Members keep the order they
// were parsed or added in, and a header that was never modified serializes
// to exactly the bytes it was parsed from. Set and Remove return a new
// Header.
type Header struct {
	raw    []byte
	fields []Field
}

// NewHeader returns an empty header, serialized as "{}".
func NewHeader() *Header {
	return &Header{}
}

// ParseHeader parses a JSON object, preserving member order and the exact
// input bytes. Duplicate member names keep the position of their first
// occurrence and the value of their last.
func ParseHeader(data []byte) (*Header, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: header: %v", ErrMalformedToken, err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("%w: header is not a JSON object", ErrMalformedToken)
	}

	h := &Header{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: header: %v", ErrMalformedToken, err)
		}
		name, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("%w: header member name", ErrMalformedToken)
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, fmt.Errorf("%w: header member %q: %v", ErrMalformedToken, name, err)
		}
		if i := h.index(name); i >= 0 {
			h.fields[i].Value = value
		} else {
			h.fields = append(h.fields, Field{Name: name, Value: value})
		}
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("%w: header: %v", ErrMalformedToken, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("%w: trailing data after header", ErrMalformedToken)
	}

	h.raw = bytes.Clone(data)
	return h, nil
}

func (h *Header) index(name string) int {
	for i, f := range h.fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// Get returns the raw JSON value of a member.
func (h *Header) Get(name string) (json.RawMessage, bool) {
	i := h.index(name)
	if i < 0 {
		return nil, false
	}
	return bytes.Clone(h.fields[i].Value), true
}

// GetString returns a member holding a JSON string. Members of any other
// type report false.
func (h *Header) GetString(name string) (string, bool) {
	raw, ok := h.Get(name)
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// Has reports whether a member is present.
func (h *Header) Has(name string) bool {
	return h.index(name) >= 0
}

// Names lists member names in order.
func (h *Header) Names() []string {
	names := make([]string, len(h.fields))
	for i, f := range h.fields {
		names[i] = f.Name
	}
	return names
}

// Len returns the number of members.
func (h *Header) Len() int {
	return len(h.fields)
}

// Set returns a header with name set to value. An existing member keeps its
// position; a new member is appended. value is marshalled to JSON unless it
// is already a json.RawMessage, which must be valid JSON.
func (h *Header) Set(name string, value any) (*Header, error) {
	raw, err := marshalValue(value)
	if err != nil {
		return nil, fmt.Errorf("jose: header member %q: %w", name, err)
	}
	out := h.Clone()
	out.raw = nil
	if i := out.index(name); i >= 0 {
		out.fields[i].Value = raw
	} else {
		out.fields = append(out.fields, Field{Name: name, Value: raw})
	}
	return out, nil
}

// MustSet is Set for values known to marshal, such as strings and numbers.
func (h *Header) MustSet(name string, value any) *Header {
	out, err := h.Set(name, value)
	if err != nil {
		panic(err)
	}
	return out
}

// Remove returns a header without name. Removing an absent member returns
// the receiver.
func (h *Header) Remove(name string) *Header {
	i := h.index(name)
	if i < 0 {
		return h
	}
	out := h.Clone()
	out.raw = nil
	out.fields = append(out.fields[:i], out.fields[i+1:]...)
	return out
}

// Clone returns a deep copy of the header.
func (h *Header) Clone() *Header {
	fields, _ := deepcopy.Copy(h.fields).([]Field)
	return &Header{raw: bytes.Clone(h.raw), fields: fields}
}

// Bytes returns the JSON encoding of the header: the parsed bytes when the
// header is unmodified, and a compact rendering in member order otherwise.
func (h *Header) Bytes() []byte {
	if h.raw != nil {
		return bytes.Clone(h.raw)
	}
	var b bytes.Buffer
	b.WriteByte('{')
	for i, f := range h.fields {
		if i > 0 {
			b.WriteByte(',')
		}
		name, _ := marshalValue(f.Name)
		b.Write(name)
		b.WriteByte(':')
		b.Write(f.Value)
	}
	b.WriteByte('}')
	return b.Bytes()
}

// Map decodes the header into a map. Member order is lost.
func (h *Header) Map() map[string]any {
	m := make(map[string]any, len(h.fields))
	for _, f := range h.fields {
		var v any
		dec := json.NewDecoder(bytes.NewReader(f.Value))
		dec.UseNumber()
		if err := dec.Decode(&v); err == nil {
			m[f.Name] = v
		}
	}
	return m
}

// MarshalJSON implements json.Marshaler.
func (h *Header) MarshalJSON() ([]byte, error) {
	return h.Bytes(), nil
}

func marshalValue(value any) (json.RawMessage, error) {
	if raw, ok := value.(json.RawMessage); ok {
		if !json.Valid(raw) {
			return nil, fmt.Errorf("invalid JSON value")
		}
		var b bytes.Buffer
		if err := json.Compact(&b, raw); err != nil {
			return nil, err
		}
		return b.Bytes(), nil
	}
	var b bytes.Buffer
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(value); err != nil {
		return nil, err
	}
	return bytes.TrimRight(b.Bytes(), "\n"), nil
}
