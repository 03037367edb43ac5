package tree

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/zclconf/go-cty/cty"
)

// LitKind is the target encoding of a literal leaf. The same source token
// can denote different encodings ('42' is an Int or a Real depending on
// position); the expected kind supplied by the caller decides, never the
// token alone.
type LitKind int

const (
	// LitAny accepts any literal; the spelling grammar decides the kind.
	LitAny LitKind = iota
	LitBool
	LitInt
	LitReal
	LitChar
	// LitIdent is a bare identifier, used for structure projections and
	// when-block patterns.
	LitIdent
)

var litKindNames = map[LitKind]string{
	LitAny:   "any",
	LitBool:  "Bool",
	LitInt:   "Int",
	LitReal:  "Real",
	LitChar:  "Char",
	LitIdent: "String",
}

func (k LitKind) String() string {
	if name, ok := litKindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Literal spellings of the source language. Integers and reals accept the
// width suffixes of the persisted format (_i8 .. _ui64, _f32, _f64).
var (
	intRegex   = regexp.MustCompile(`^[-+]?\d+(_u?i(8|16|32|64))?$`)
	realRegex  = regexp.MustCompile(`^[-+]?(\d+\.\d*|\.\d+|\d+[eE][-+]?\d+|\d+\.\d*[eE][-+]?\d+)(_f(32|64))?$`)
	identRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

func isBoolSpelling(s string) bool  { return s == "true" || s == "false" }
func isIntSpelling(s string) bool   { return intRegex.MatchString(s) }
func isRealSpelling(s string) bool  { return realRegex.MatchString(s) }
func isCharSpelling(s string) bool  { return len(s) > 1 && s[0] == '\'' }
func isIdentSpelling(s string) bool { return identRegex.MatchString(s) }

// numericValue parses the numeric part of an int or real spelling into a
// cty number, dropping any width suffix.
func numericValue(s string) (cty.Value, error) {
	if i := strings.IndexByte(s, '_'); i >= 0 {
		s = s[:i]
	}
	return cty.ParseNumberVal(s)
}

func leaf(spelling string, kind LitKind, val cty.Value) *Node {
	return &Node{kind: NodeLeaf, lk: kind, spelling: spelling, val: val}
}

// parseToken interprets a source token under the expected literal kind.
func parseToken(token string, want LitKind) (*Node, error) {
	switch want {
	case LitBool:
		if isBoolSpelling(token) {
			return leaf(token, LitBool, cty.BoolVal(token == "true")), nil
		}
	case LitInt:
		if isIntSpelling(token) {
			v, err := numericValue(token)
			if err != nil {
				return nil, err
			}
			return leaf(token, LitInt, v), nil
		}
	case LitReal:
		// An integer spelling is a valid real in real position.
		if isRealSpelling(token) || isIntSpelling(token) {
			v, err := numericValue(token)
			if err != nil {
				return nil, err
			}
			return leaf(token, LitReal, v), nil
		}
	case LitChar:
		if isCharSpelling(token) {
			return leaf(token, LitChar, cty.StringVal(token)), nil
		}
	case LitIdent:
		if isIdentSpelling(token) {
			return leaf(token, LitIdent, cty.StringVal(token)), nil
		}
	case LitAny:
		// No expectation: classify by the closed spelling grammar, most
		// specific first.
		switch {
		case isBoolSpelling(token):
			return parseToken(token, LitBool)
		case isIntSpelling(token):
			return parseToken(token, LitInt)
		case isRealSpelling(token):
			return parseToken(token, LitReal)
		case isCharSpelling(token):
			return parseToken(token, LitChar)
		case isIdentSpelling(token):
			return parseToken(token, LitIdent)
		}
	}
	return nil, fmt.Errorf("token %q is not a valid %s literal", token, want)
}

// Compatible reports whether a literal of kind k can sit in a position
// expecting want.
func (k LitKind) Compatible(want LitKind) bool {
	if want == LitAny || k == want {
		return true
	}
	// Integer literals are accepted in real position.
	return k == LitInt && want == LitReal
}
