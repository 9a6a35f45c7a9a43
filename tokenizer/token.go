package tokenizer

import (
	"github.com/onigkit/onigkit/ast"
)

// TokenType classifies a lexed token.
type TokenType string

const (
	TypeCharacter                 TokenType = "Character"
	TypeCharacterClassOpen        TokenType = "CharacterClassOpen"
	TypeCharacterClassClose       TokenType = "CharacterClassClose"
	TypeCharacterClassHyphen      TokenType = "CharacterClassHyphen"
	TypeCharacterClassIntersector TokenType = "CharacterClassIntersector"
	TypeCharacterSet              TokenType = "CharacterSet"
	TypeAssertion                 TokenType = "Assertion"
	TypeBackreference             TokenType = "Backreference"
	TypeSubroutine                TokenType = "Subroutine"
	TypeGroupOpen                 TokenType = "GroupOpen"
	TypeGroupClose                TokenType = "GroupClose"
	TypeAlternator                TokenType = "Alternator"
	TypeQuantifier                TokenType = "Quantifier"
	TypeDirective                 TokenType = "Directive"
)

// GroupKind is the sub-kind of a GroupOpen token.
type GroupKind string

const (
	GroupCapturing      GroupKind = "capturing"
	GroupNonCapturing   GroupKind = "noncapturing"
	GroupAtomic         GroupKind = "atomic"
	GroupLookahead      GroupKind = "lookahead"
	GroupLookbehind     GroupKind = "lookbehind"
	GroupAbsentRepeater GroupKind = "absent_repeater"
)

// Token is one lexed unit of the pattern. Raw holds the consumed
// lexeme; the remaining fields are populated per type.
type Token struct {
	Type TokenType
	Raw  string

	// Character
	Value rune

	// CharacterSet, CharacterClassOpen, Assertion, lookarounds
	SetKind ast.SetKind
	Name    string // posix/property value or group name
	Negate  bool

	// Assertion
	AssertKind ast.AssertionKind

	// Quantifier; bounds are as written, possibly reversed
	Min       int
	Max       int
	QuantKind ast.QuantifierKind

	// GroupOpen
	GroupKind GroupKind
	Flags     *ast.FlagGroupModifiers

	// Backreference and Subroutine; numeric refs are absolute after
	// relative forms are resolved against the running capture count
	Ref    int
	ByName bool

	// Directive
	DirKind ast.DirectiveKind
}
