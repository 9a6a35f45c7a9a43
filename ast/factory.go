package ast

// Factory functions producing well-formed nodes. Local invariants are
// checked here so that parser and transforms can rely on them.

import (
	"github.com/dlclark/regexp2"

	"github.com/onigkit/onigkit/uniprops"
)

// groupNamePattern is the Oniguruma group-name predicate: a leading
// alphabetic or connector-punctuation character followed by anything up
// to the closing delimiter.
var groupNamePattern = regexp2.MustCompile(`^[\p{L}\p{Nl}\p{Pc}][^)]*$`, regexp2.None)

// posixClassNames are the POSIX bracket names Oniguruma understands.
var posixClassNames = map[string]bool{
	"alnum": true, "alpha": true, "ascii": true, "blank": true,
	"cntrl": true, "digit": true, "graph": true, "lower": true,
	"print": true, "punct": true, "space": true, "upper": true,
	"word": true, "xdigit": true,
}

// NewRegex ties a pattern to its flag record.
func NewRegex(pattern *Pattern, flags *Flags) *Regex {
	if flags == nil {
		flags = &Flags{}
	}
	return &Regex{Pattern: pattern, Flags: flags}
}

// NewFlags builds a flag record; a nil input is an empty record.
func NewFlags(flags *Flags) *Flags {
	if flags == nil {
		return &Flags{}
	}
	copied := *flags
	return &copied
}

// NewPattern builds a pattern from alternatives. Every member must be
// an *Alternative.
func NewPattern(alternatives []Node) (*Pattern, error) {
	if len(alternatives) == 0 {
		alternatives = []Node{NewAlternative(nil)}
	}
	for _, alt := range alternatives {
		if _, ok := alt.(*Alternative); !ok {
			return nil, Invariantf("pattern alternative must be an Alternative, got %s", alt.Type())
		}
	}
	return &Pattern{Alternatives: alternatives}, nil
}

// NewAlternative builds an alternative from an element list.
func NewAlternative(elements []Node) *Alternative {
	if elements == nil {
		elements = []Node{}
	}
	return &Alternative{Elements: elements}
}

// CharacterOptions tunes NewCharacter.
type CharacterOptions struct {
	// UseLastValid caps values above 0x10FFFF at 0x10FFFF instead of
	// rejecting them.
	UseLastValid bool
}

// NewCharacter builds a character node for a Unicode scalar value.
// Values above 0x13FFFF are always rejected; values above 0x10FFFF are
// rejected unless UseLastValid caps them.
func NewCharacter(value rune, opts *CharacterOptions) (*Character, error) {
	if value < 0 || value > 0x13FFFF {
		return nil, Invariantf("invalid code point %d", value)
	}
	if value > MaxCodePoint {
		if opts == nil || !opts.UseLastValid {
			return nil, Invariantf("code point %d exceeds 0x10FFFF", value)
		}
		value = MaxCodePoint
	}
	return &Character{Value: value}, nil
}

// NewCharacterClass builds a class node; members must be class-valid.
func NewCharacterClass(kind ClassKind, negate bool, elements []Node) (*CharacterClass, error) {
	if kind != ClassUnion && kind != ClassIntersection {
		return nil, Invariantf("unknown class kind %q", kind)
	}
	if elements == nil {
		elements = []Node{}
	}
	for _, el := range elements {
		switch el.Type() {
		case CharacterNode, CharacterClassNode, CharacterClassRangeNode, CharacterSetNode:
		default:
			return nil, Invariantf("%s is not valid inside a character class", el.Type())
		}
	}
	return &CharacterClass{Kind: kind, Negate: negate, Elements: elements}, nil
}

// NewCharacterClassRange builds a range; descending ranges are invalid.
func NewCharacterClassRange(min, max *Character) (*CharacterClassRange, error) {
	if min == nil || max == nil {
		return nil, Invariantf("range endpoints must be characters")
	}
	if min.Value > max.Value {
		return nil, Invariantf("descending character class range %d-%d", min.Value, max.Value)
	}
	return &CharacterClassRange{Min: min, Max: max}, nil
}

// NewCharacterSet builds a non-named character set. VariableLength is
// derived: graphemes and non-negated newline sequences span a variable
// number of code points.
func NewCharacterSet(kind SetKind, negate bool) (*CharacterSet, error) {
	switch kind {
	case SetDigit, SetHex, SetSpace, SetWord, SetNewline:
	case SetAny, SetDot, SetGrapheme:
		if negate {
			return nil, Invariantf("character set kind %q is not negatable", kind)
		}
	case SetPosix, SetProperty:
		return nil, Invariantf("named character set kind %q needs a dedicated constructor", kind)
	default:
		return nil, Invariantf("unknown character set kind %q", kind)
	}
	set := &CharacterSet{Kind: kind, Negate: negate}
	if kind == SetGrapheme || (kind == SetNewline && !negate) {
		set.VariableLength = true
	}
	return set, nil
}

// NewPosixClass builds a [[:name:]] set; unknown names are invalid.
func NewPosixClass(name string, negate bool) (*CharacterSet, error) {
	if !posixClassNames[name] {
		return nil, Syntaxf("invalid POSIX class name %q", name)
	}
	return &CharacterSet{Kind: SetPosix, Value: name, Negate: negate}, nil
}

// UnicodePropertyOptions tunes NewUnicodeProperty.
type UnicodePropertyOptions struct {
	Negate bool
	// SkipValidation accepts unknown property names verbatim.
	SkipValidation bool
	// NormalizeUnknown canonicalizes unknown names instead of
	// rejecting them.
	NormalizeUnknown bool
	// PropertyMap maps normalized slugs to canonical names. When nil,
	// the built-in table is used.
	PropertyMap map[string]string
}

// NewUnicodeProperty builds a \p{...} set. Known names are replaced by
// their canonical spelling from the property map.
func NewUnicodeProperty(name string, opts *UnicodePropertyOptions) (*CharacterSet, error) {
	if opts == nil {
		opts = &UnicodePropertyOptions{}
	}
	table := opts.PropertyMap
	if table == nil {
		table = uniprops.DefaultPropertyMap
	}
	value, ok := table[uniprops.Slug(name)]
	if !ok {
		switch {
		case opts.NormalizeUnknown:
			value = uniprops.Normalize(name)
		case opts.SkipValidation:
			value = name
		default:
			return nil, Syntaxf("invalid Unicode property name %q", name)
		}
	}
	return &CharacterSet{Kind: SetProperty, Value: value, Negate: opts.Negate}, nil
}

// NewAssertion builds a zero-width assertion. Only the two boundary
// kinds are negatable.
func NewAssertion(kind AssertionKind, negate bool) (*Assertion, error) {
	switch kind {
	case AssertWordBoundary, AssertGraphemeBoundary:
	case AssertLineStart, AssertLineEnd, AssertStringStart, AssertStringEnd,
		AssertStringEndNewline, AssertSearchStart:
		if negate {
			return nil, Invariantf("assertion kind %q is not negatable", kind)
		}
	default:
		return nil, Invariantf("unknown assertion kind %q", kind)
	}
	return &Assertion{Kind: kind, Negate: negate}, nil
}

// NewLookaroundAssertion builds a lookahead or lookbehind.
func NewLookaroundAssertion(kind LookaroundKind, negate bool, alternatives []Node) (*LookaroundAssertion, error) {
	if kind != Lookahead && kind != Lookbehind {
		return nil, Invariantf("unknown lookaround kind %q", kind)
	}
	alts, err := normalizeAlternatives(alternatives)
	if err != nil {
		return nil, err
	}
	return &LookaroundAssertion{Kind: kind, Negate: negate, Alternatives: alts}, nil
}

// NewGroup builds a non-capturing group.
func NewGroup(flags *FlagGroupModifiers, atomic bool, alternatives []Node) (*Group, error) {
	if atomic && !flags.IsZero() {
		return nil, Invariantf("atomic groups cannot carry flag modifiers")
	}
	alts, err := normalizeAlternatives(alternatives)
	if err != nil {
		return nil, err
	}
	return &Group{Atomic: atomic, Flags: flags, Alternatives: alts}, nil
}

// NewCapturingGroup builds a capturing group. Numbers are 1-based; the
// optional name must satisfy the group-name predicate.
func NewCapturingGroup(number int, name string, alternatives []Node) (*CapturingGroup, error) {
	if number < 1 {
		return nil, Invariantf("capturing group number %d is not positive", number)
	}
	if name != "" {
		ok, err := groupNamePattern.MatchString(name)
		if err != nil || !ok {
			return nil, Syntaxf("invalid group name %q", name)
		}
	}
	alts, err := normalizeAlternatives(alternatives)
	if err != nil {
		return nil, err
	}
	return &CapturingGroup{Number: number, Name: name, Alternatives: alts}, nil
}

// NewAbsentFunction builds an absent function; only the repeater form
// is supported.
func NewAbsentFunction(kind AbsentKind, alternatives []Node) (*AbsentFunction, error) {
	if kind != AbsentRepeater {
		return nil, Featuref("unsupported absent function kind %q", kind)
	}
	alts, err := normalizeAlternatives(alternatives)
	if err != nil {
		return nil, err
	}
	return &AbsentFunction{Kind: kind, Alternatives: alts}, nil
}

// NewBackreference builds a backreference to a group number or name.
func NewBackreference(ref any, orphan bool) (*Backreference, error) {
	switch r := ref.(type) {
	case int:
		if r < 1 {
			return nil, Invariantf("backreference number %d is not positive", r)
		}
	case string:
		if r == "" {
			return nil, Invariantf("empty backreference name")
		}
	default:
		return nil, Invariantf("backreference ref must be an int or string, got %T", ref)
	}
	return &Backreference{Ref: ref, Orphan: orphan}, nil
}

// NewSubroutine builds a subroutine call. Ref 0 is full-pattern
// recursion.
func NewSubroutine(ref any) (*Subroutine, error) {
	switch r := ref.(type) {
	case int:
		if r < 0 {
			return nil, Invariantf("subroutine number %d is negative", r)
		}
	case string:
		if r == "" {
			return nil, Invariantf("empty subroutine name")
		}
	default:
		return nil, Invariantf("subroutine ref must be an int or string, got %T", ref)
	}
	return &Subroutine{Ref: ref}, nil
}

// NewQuantifier wraps a quantifiable element.
func NewQuantifier(kind QuantifierKind, min, max int, element Node) (*Quantifier, error) {
	if kind != Greedy && kind != Lazy && kind != Possessive {
		return nil, Invariantf("unknown quantifier kind %q", kind)
	}
	if min < 0 || max < min {
		return nil, Invariantf("invalid quantifier bounds {%d,%d}", min, max)
	}
	if element == nil {
		return nil, Invariantf("quantifier needs an element")
	}
	switch element.Type() {
	case AssertionNode, DirectiveNode, LookaroundAssertionNode:
		return nil, Syntaxf("%s is not quantifiable", element.Type())
	}
	return &Quantifier{Kind: kind, Min: min, Max: max, Element: element}, nil
}

// NewDirective builds a \K or inline-flag directive.
func NewDirective(kind DirectiveKind, flags *FlagGroupModifiers) (*Directive, error) {
	switch kind {
	case DirectiveKeep:
		if !flags.IsZero() {
			return nil, Invariantf("keep directive cannot carry flags")
		}
	case DirectiveFlags:
		if flags.IsZero() {
			return nil, Invariantf("flag directive needs at least one modifier")
		}
	default:
		return nil, Invariantf("unknown directive kind %q", kind)
	}
	return &Directive{Kind: kind, Flags: flags}, nil
}

func normalizeAlternatives(alternatives []Node) ([]Node, error) {
	if len(alternatives) == 0 {
		return []Node{NewAlternative(nil)}, nil
	}
	for _, alt := range alternatives {
		if _, ok := alt.(*Alternative); !ok {
			return nil, Invariantf("group alternative must be an Alternative, got %s", alt.Type())
		}
	}
	return alternatives, nil
}
