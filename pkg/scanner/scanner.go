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

// Package scanner locates compact JWS and JWE tokens in arbitrary bytes,
// such as captured HTTP requests and responses.
package scanner

import (
	"bytes"
	"regexp"

	"github.com/jeremyhahn/go-josekit/pkg/jose"
)

// candidateRe matches a run of base64url segments whose first segment
// could encode a JSON object ("{" followed by a quote or whitespace).
var candidateRe = regexp.MustCompile(`\be[wy][A-Za-z0-9_-]+(?:\.[A-Za-z0-9_-]*)+`)

// Match is one token found in a buffer. Text is buf[Start:End].
type Match struct {
	Start  int
	End    int
	Kind   jose.Kind
	Text   string
	Object jose.Object
}

// Find returns every parseable token in buf, in order of appearance.
// Candidates that fail to parse are skipped, so the result never contains
// a token whose header is not a JSON object carrying "alg".
func Find(buf []byte) []Match {
	var matches []Match
	for _, loc := range candidateRe.FindAllIndex(buf, -1) {
		if m, ok := match(buf, loc[0], loc[1]); ok {
			matches = append(matches, m)
		}
	}
	return matches
}

// FindString is Find over a string.
func FindString(s string) []Match {
	return Find([]byte(s))
}

// match tries the JWE and JWS readings of a candidate. A longer dotted run
// is cut down to its first five or three segments; this also sheds a
// sentence-ending period after a token.
func match(buf []byte, start, end int) (Match, bool) {
	candidate := buf[start:end]
	for _, segments := range []int{5, 3} {
		n := prefixLen(candidate, segments)
		if n < 0 {
			continue
		}
		text := string(candidate[:n])
		obj, err := jose.Parse(text)
		if err != nil {
			continue
		}
		return Match{
			Start:  start,
			End:    start + n,
			Kind:   obj.Kind(),
			Text:   text,
			Object: obj,
		}, true
	}
	return Match{}, false
}

// prefixLen returns the length of the first n dot-separated segments of
// b, or -1 when b has fewer.
func prefixLen(b []byte, n int) int {
	offset := 0
	for i := 1; i < n; i++ {
		dot := bytes.IndexByte(b[offset:], '.')
		if dot < 0 {
			return -1
		}
		offset += dot + 1
	}
	if next := bytes.IndexByte(b[offset:], '.'); next >= 0 {
		return offset + next
	}
	return len(b)
}
