package ast

// ast is the abstract syntax tree for Oniguruma regular expressions.

import (
	"encoding/json"
)

// NodeType represents the type of a node in the AST
type NodeType string

const (
	RegexNode               NodeType = "Regex"
	PatternNode             NodeType = "Pattern"
	AlternativeNode         NodeType = "Alternative"
	FlagsNode               NodeType = "Flags"
	CharacterNode           NodeType = "Character"
	CharacterClassNode      NodeType = "CharacterClass"
	CharacterClassRangeNode NodeType = "CharacterClassRange"
	CharacterSetNode        NodeType = "CharacterSet"
	AssertionNode           NodeType = "Assertion"
	LookaroundAssertionNode NodeType = "LookaroundAssertion"
	GroupNode               NodeType = "Group"
	CapturingGroupNode      NodeType = "CapturingGroup"
	AbsentFunctionNode      NodeType = "AbsentFunction"
	BackreferenceNode       NodeType = "Backreference"
	SubroutineNode          NodeType = "Subroutine"
	QuantifierNode          NodeType = "Quantifier"
	DirectiveNode           NodeType = "Directive"
)

// ClassKind distinguishes union classes from `&&` intersection classes.
type ClassKind string

const (
	ClassUnion        ClassKind = "union"
	ClassIntersection ClassKind = "intersection"
)

// SetKind is the discriminant of a CharacterSet node.
type SetKind string

const (
	SetAny      SetKind = "any"      // \O
	SetDot      SetKind = "dot"      // .
	SetDigit    SetKind = "digit"    // \d, \D
	SetHex      SetKind = "hex"      // \h, \H
	SetSpace    SetKind = "space"    // \s, \S
	SetWord     SetKind = "word"     // \w, \W
	SetNewline  SetKind = "newline"  // \R, \N
	SetGrapheme SetKind = "grapheme" // \X
	SetPosix    SetKind = "posix"    // [[:name:]]
	SetProperty SetKind = "property" // \p{Name}, \P{Name}
)

// AssertionKind names zero-width assertions other than lookarounds.
type AssertionKind string

const (
	AssertLineStart        AssertionKind = "line_start"         // ^
	AssertLineEnd          AssertionKind = "line_end"           // $
	AssertStringStart      AssertionKind = "string_start"       // \A
	AssertStringEnd        AssertionKind = "string_end"         // \z
	AssertStringEndNewline AssertionKind = "string_end_newline" // \Z
	AssertSearchStart      AssertionKind = "search_start"       // \G
	AssertWordBoundary     AssertionKind = "word_boundary"      // \b, \B
	AssertGraphemeBoundary AssertionKind = "grapheme_boundary"  // \y, \Y
)

// LookaroundKind distinguishes lookahead from lookbehind.
type LookaroundKind string

const (
	Lookahead  LookaroundKind = "lookahead"
	Lookbehind LookaroundKind = "lookbehind"
)

// QuantifierKind is the matching discipline of a quantifier.
type QuantifierKind string

const (
	Greedy     QuantifierKind = "greedy"
	Lazy       QuantifierKind = "lazy"
	Possessive QuantifierKind = "possessive"
)

// DirectiveKind distinguishes \K from inline flag directives like (?im).
type DirectiveKind string

const (
	DirectiveKeep  DirectiveKind = "keep"
	DirectiveFlags DirectiveKind = "flags"
)

// AbsentKind names the supported absent-function forms. Only the
// repeater form (?~...) is supported.
type AbsentKind string

const (
	AbsentRepeater AbsentKind = "repeater"
)

// InfinityMax is the sentinel for an unbounded quantifier maximum.
const InfinityMax = int(^uint(0) >> 1)

// MaxCodePoint is the largest valid Unicode scalar value.
const MaxCodePoint = 0x10FFFF

// Node represents a node in the AST
type Node interface {
	Type() NodeType
}

// Regex is the root node, tying a pattern to its flag record.
type Regex struct {
	Pattern *Pattern
	Flags   *Flags
}

func (r *Regex) Type() NodeType {
	return RegexNode
}

// Pattern holds the top-level alternation. Alternatives always contains
// *Alternative nodes.
type Pattern struct {
	Alternatives []Node
}

func (p *Pattern) Type() NodeType {
	return PatternNode
}

// Alternative is one branch of an alternation, an ordered element list.
type Alternative struct {
	Elements []Node
}

func (a *Alternative) Type() NodeType {
	return AlternativeNode
}

// Flags is the pattern-level flag record. TextSegmentMode is "" when
// unset, otherwise "grapheme" or "word".
type Flags struct {
	IgnoreCase      bool
	DotAll          bool
	Extended        bool
	DigitIsAscii    bool
	SpaceIsAscii    bool
	WordIsAscii     bool
	PosixIsAscii    bool
	TextSegmentMode string
}

func (f *Flags) Type() NodeType {
	return FlagsNode
}

// FlagSet is the subset of flags usable in inline modifiers.
type FlagSet struct {
	IgnoreCase   bool
	DotAll       bool
	Extended     bool
	DigitIsAscii bool
	SpaceIsAscii bool
	WordIsAscii  bool
	PosixIsAscii bool
}

// IsZero reports whether no flag is set.
func (fs *FlagSet) IsZero() bool {
	return fs == nil || *fs == FlagSet{}
}

// FlagGroupModifiers carries the enable/disable sets of a flag group
// (?im-x:...) or flag directive (?im-x).
type FlagGroupModifiers struct {
	Enable  *FlagSet
	Disable *FlagSet
}

// IsZero reports whether neither set enables or disables anything.
func (m *FlagGroupModifiers) IsZero() bool {
	return m == nil || (m.Enable.IsZero() && m.Disable.IsZero())
}

// Character is a single Unicode scalar value.
type Character struct {
	Value rune
}

func (c *Character) Type() NodeType {
	return CharacterNode
}

// CharacterClass is a bracket expression. Elements always contains
// class-valid nodes: Character, CharacterClassRange, CharacterSet or
// nested CharacterClass.
type CharacterClass struct {
	Kind     ClassKind
	Negate   bool
	Elements []Node
}

func (c *CharacterClass) Type() NodeType {
	return CharacterClassNode
}

// CharacterClassRange is a min-max range inside a class.
type CharacterClassRange struct {
	Min *Character
	Max *Character
}

func (r *CharacterClassRange) Type() NodeType {
	return CharacterClassRangeNode
}

// CharacterSet is a predefined set such as \d, \X, a POSIX class or a
// Unicode property. Value is set for the posix and property kinds.
type CharacterSet struct {
	Kind           SetKind
	Value          string
	Negate         bool
	VariableLength bool
}

func (s *CharacterSet) Type() NodeType {
	return CharacterSetNode
}

// Assertion is a zero-width assertion. Negate applies to the two
// boundary kinds only.
type Assertion struct {
	Kind   AssertionKind
	Negate bool
}

func (a *Assertion) Type() NodeType {
	return AssertionNode
}

// LookaroundAssertion is a lookahead or lookbehind group.
type LookaroundAssertion struct {
	Kind         LookaroundKind
	Negate       bool
	Alternatives []Node
}

func (l *LookaroundAssertion) Type() NodeType {
	return LookaroundAssertionNode
}

// Group is a non-capturing group, optionally atomic or carrying scoped
// flag modifiers.
type Group struct {
	Atomic       bool
	Flags        *FlagGroupModifiers
	Alternatives []Node
}

func (g *Group) Type() NodeType {
	return GroupNode
}

// CapturingGroup is a numbered, optionally named, capturing group.
type CapturingGroup struct {
	Number       int
	Name         string
	Alternatives []Node
}

func (g *CapturingGroup) Type() NodeType {
	return CapturingGroupNode
}

// AbsentFunction is Oniguruma's (?~...) construct.
type AbsentFunction struct {
	Kind         AbsentKind
	Alternatives []Node
}

func (a *AbsentFunction) Type() NodeType {
	return AbsentFunctionNode
}

// Backreference refers to a capturing group by number or name. Orphan
// marks a reference to a group on its right that validation was told to
// let through.
type Backreference struct {
	Ref    any // int or string
	Orphan bool
}

func (b *Backreference) Type() NodeType {
	return BackreferenceNode
}

// Subroutine is a \g<ref> call. Ref 0 denotes full-pattern recursion.
type Subroutine struct {
	Ref any // int or string
}

func (s *Subroutine) Type() NodeType {
	return SubroutineNode
}

// Quantifier repeats its element between Min and Max times. Max is
// InfinityMax when unbounded.
type Quantifier struct {
	Kind    QuantifierKind
	Min     int
	Max     int
	Element Node
}

func (q *Quantifier) Type() NodeType {
	return QuantifierNode
}

// Directive is \K or an inline flag directive such as (?im-x).
type Directive struct {
	Kind  DirectiveKind
	Flags *FlagGroupModifiers
}

func (d *Directive) Type() NodeType {
	return DirectiveNode
}

// MarshalJSON emits the node with its type discriminant.
func (r *Regex) MarshalJSON() ([]byte, error) {
	return marshalNode(r, map[string]any{
		"pattern": r.Pattern,
		"flags":   r.Flags,
	})
}

func (p *Pattern) MarshalJSON() ([]byte, error) {
	return marshalNode(p, map[string]any{"alternatives": p.Alternatives})
}

func (a *Alternative) MarshalJSON() ([]byte, error) {
	return marshalNode(a, map[string]any{"elements": a.Elements})
}

func (f *Flags) MarshalJSON() ([]byte, error) {
	m := map[string]any{
		"ignoreCase":   f.IgnoreCase,
		"dotAll":       f.DotAll,
		"extended":     f.Extended,
		"digitIsAscii": f.DigitIsAscii,
		"spaceIsAscii": f.SpaceIsAscii,
		"wordIsAscii":  f.WordIsAscii,
		"posixIsAscii": f.PosixIsAscii,
	}
	if f.TextSegmentMode != "" {
		m["textSegmentMode"] = f.TextSegmentMode
	}
	return marshalNode(f, m)
}

func (c *Character) MarshalJSON() ([]byte, error) {
	return marshalNode(c, map[string]any{"value": c.Value})
}

func (c *CharacterClass) MarshalJSON() ([]byte, error) {
	return marshalNode(c, map[string]any{
		"kind":     c.Kind,
		"negate":   c.Negate,
		"elements": c.Elements,
	})
}

func (r *CharacterClassRange) MarshalJSON() ([]byte, error) {
	return marshalNode(r, map[string]any{"min": r.Min, "max": r.Max})
}

func (s *CharacterSet) MarshalJSON() ([]byte, error) {
	m := map[string]any{"kind": s.Kind}
	if s.Value != "" {
		m["value"] = s.Value
	}
	if s.Negate {
		m["negate"] = true
	}
	if s.VariableLength {
		m["variableLength"] = true
	}
	return marshalNode(s, m)
}

func (a *Assertion) MarshalJSON() ([]byte, error) {
	m := map[string]any{"kind": a.Kind}
	if a.Negate {
		m["negate"] = true
	}
	return marshalNode(a, m)
}

func (l *LookaroundAssertion) MarshalJSON() ([]byte, error) {
	return marshalNode(l, map[string]any{
		"kind":         l.Kind,
		"negate":       l.Negate,
		"alternatives": l.Alternatives,
	})
}

func (g *Group) MarshalJSON() ([]byte, error) {
	m := map[string]any{"alternatives": g.Alternatives}
	if g.Atomic {
		m["atomic"] = true
	}
	if !g.Flags.IsZero() {
		m["flags"] = flagModifiersJSON(g.Flags)
	}
	return marshalNode(g, m)
}

func (g *CapturingGroup) MarshalJSON() ([]byte, error) {
	m := map[string]any{
		"number":       g.Number,
		"alternatives": g.Alternatives,
	}
	if g.Name != "" {
		m["name"] = g.Name
	}
	return marshalNode(g, m)
}

func (a *AbsentFunction) MarshalJSON() ([]byte, error) {
	return marshalNode(a, map[string]any{
		"kind":         a.Kind,
		"alternatives": a.Alternatives,
	})
}

func (b *Backreference) MarshalJSON() ([]byte, error) {
	m := map[string]any{"ref": b.Ref}
	if b.Orphan {
		m["orphan"] = true
	}
	return marshalNode(b, m)
}

func (s *Subroutine) MarshalJSON() ([]byte, error) {
	return marshalNode(s, map[string]any{"ref": s.Ref})
}

func (q *Quantifier) MarshalJSON() ([]byte, error) {
	m := map[string]any{
		"kind":    q.Kind,
		"min":     q.Min,
		"element": q.Element,
	}
	if q.Max == InfinityMax {
		m["max"] = "infinity"
	} else {
		m["max"] = q.Max
	}
	return marshalNode(q, m)
}

func (d *Directive) MarshalJSON() ([]byte, error) {
	m := map[string]any{"kind": d.Kind}
	if !d.Flags.IsZero() {
		m["flags"] = flagModifiersJSON(d.Flags)
	}
	return marshalNode(d, m)
}

func marshalNode(n Node, fields map[string]any) ([]byte, error) {
	fields["type"] = n.Type()
	return json.Marshal(fields)
}

func flagModifiersJSON(m *FlagGroupModifiers) map[string]any {
	out := make(map[string]any)
	if !m.Enable.IsZero() {
		out["enable"] = flagSetJSON(m.Enable)
	}
	if !m.Disable.IsZero() {
		out["disable"] = flagSetJSON(m.Disable)
	}
	return out
}

func flagSetJSON(fs *FlagSet) map[string]bool {
	out := make(map[string]bool)
	if fs.IgnoreCase {
		out["ignoreCase"] = true
	}
	if fs.DotAll {
		out["dotAll"] = true
	}
	if fs.Extended {
		out["extended"] = true
	}
	if fs.DigitIsAscii {
		out["digitIsAscii"] = true
	}
	if fs.SpaceIsAscii {
		out["spaceIsAscii"] = true
	}
	if fs.WordIsAscii {
		out["wordIsAscii"] = true
	}
	if fs.PosixIsAscii {
		out["posixIsAscii"] = true
	}
	return out
}
