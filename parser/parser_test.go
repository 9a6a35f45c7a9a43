package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onigkit/onigkit/ast"
)

func parse(t *testing.T, pattern string, opts *Options) *ast.Regex {
	t.Helper()
	re, err := Parse(pattern, opts)
	require.NoError(t, err)
	require.NotNil(t, re.Pattern)
	return re
}

func firstAlternative(t *testing.T, re *ast.Regex) *ast.Alternative {
	t.Helper()
	require.NotEmpty(t, re.Pattern.Alternatives)
	alt, ok := re.Pattern.Alternatives[0].(*ast.Alternative)
	require.True(t, ok)
	return alt
}

func TestParseSimpleConcatenation(t *testing.T) {
	re := parse(t, "abc", nil)
	alt := firstAlternative(t, re)
	require.Len(t, alt.Elements, 3)
	for i, want := range []rune{'a', 'b', 'c'} {
		ch, ok := alt.Elements[i].(*ast.Character)
		require.True(t, ok)
		assert.Equal(t, want, ch.Value)
	}
}

func TestParseAlternation(t *testing.T) {
	re := parse(t, "a|b|", nil)
	assert.Len(t, re.Pattern.Alternatives, 3, "trailing alternator keeps an empty branch")
}

func TestCapturingGroupNumbering(t *testing.T) {
	re := parse(t, "(a)(b(c))", nil)
	alt := firstAlternative(t, re)
	require.Len(t, alt.Elements, 2)

	first := alt.Elements[0].(*ast.CapturingGroup)
	assert.Equal(t, 1, first.Number)

	second := alt.Elements[1].(*ast.CapturingGroup)
	assert.Equal(t, 2, second.Number)

	innerAlt := second.Alternatives[0].(*ast.Alternative)
	third := innerAlt.Elements[1].(*ast.CapturingGroup)
	assert.Equal(t, 3, third.Number, "numbers follow source order of the opens")
}

func TestNamedGroups(t *testing.T) {
	re := parse(t, `(?<word>a)\k<word>`, nil)
	alt := firstAlternative(t, re)

	g := alt.Elements[0].(*ast.CapturingGroup)
	assert.Equal(t, "word", g.Name)
	assert.Equal(t, 1, g.Number)

	ref := alt.Elements[1].(*ast.Backreference)
	assert.Equal(t, "word", ref.Ref)
	assert.False(t, ref.Orphan)
}

func TestUnnamedGroupsWithNamedPresent(t *testing.T) {
	re := parse(t, `(a)(?<x>b)`, nil)
	alt := firstAlternative(t, re)
	assert.IsType(t, &ast.Group{}, alt.Elements[0], "unnamed group loses capturing status")

	g := alt.Elements[1].(*ast.CapturingGroup)
	assert.Equal(t, 1, g.Number, "the named group is the only capture")

	re = parse(t, `(a)(?<x>b)`, &Options{Rules: Rules{CaptureGroup: true}})
	alt = firstAlternative(t, re)
	first := alt.Elements[0].(*ast.CapturingGroup)
	assert.Equal(t, 1, first.Number)
	second := alt.Elements[1].(*ast.CapturingGroup)
	assert.Equal(t, 2, second.Number)
}

func TestBackreferenceValidation(t *testing.T) {
	_, err := Parse(`\k<2>(a)`, nil)
	assert.ErrorIs(t, err, ast.ErrReference, "reference to the right errors")

	re := parse(t, `\k<2>(a)(b)`, &Options{SkipBackrefValidation: true})
	alt := firstAlternative(t, re)
	ref := alt.Elements[0].(*ast.Backreference)
	assert.Equal(t, 2, ref.Ref)
	assert.True(t, ref.Orphan)

	_, err = Parse(`\k<nope>`, nil)
	assert.ErrorIs(t, err, ast.ErrReference)
}

func TestNumberedRefsMixedWithNames(t *testing.T) {
	_, err := Parse(`(a)(?<x>b)\1`, nil)
	assert.ErrorIs(t, err, ast.ErrReference)

	re := parse(t, `(a)(?<x>b)\1`, &Options{Rules: Rules{CaptureGroup: true}})
	alt := firstAlternative(t, re)
	ref := alt.Elements[2].(*ast.Backreference)
	assert.Equal(t, 1, ref.Ref)
}

func TestSubroutines(t *testing.T) {
	re := parse(t, `\g<1>(a)`, nil)
	alt := firstAlternative(t, re)
	sub := alt.Elements[0].(*ast.Subroutine)
	assert.Equal(t, 1, sub.Ref, "forward subroutine references are fine")

	re = parse(t, `\g<0>a`, nil)
	alt = firstAlternative(t, re)
	sub = alt.Elements[0].(*ast.Subroutine)
	assert.Equal(t, 0, sub.Ref, "zero is whole-pattern recursion")

	_, err := Parse(`\g<name>`, nil)
	assert.ErrorIs(t, err, ast.ErrReference)

	_, err = Parse(`\g<2>(a)`, nil)
	assert.ErrorIs(t, err, ast.ErrReference)

	_, err = Parse(`(?<x>a)(?<x>b)\g<x>`, nil)
	assert.ErrorIs(t, err, ast.ErrReference, "duplicate names are unusable as subroutine targets")

	re = parse(t, `(?<x>a)(?<x>b)`, nil)
	alt = firstAlternative(t, re)
	assert.Equal(t, 1, alt.Elements[0].(*ast.CapturingGroup).Number)
	assert.Equal(t, 2, alt.Elements[1].(*ast.CapturingGroup).Number)
}

func TestQuantifierParsing(t *testing.T) {
	re := parse(t, "a{3,1}", nil)
	alt := firstAlternative(t, re)
	q := alt.Elements[0].(*ast.Quantifier)
	assert.Equal(t, ast.Possessive, q.Kind, "reversed bounds mean possessive")
	assert.Equal(t, 1, q.Min)
	assert.Equal(t, 3, q.Max)

	re = parse(t, "a*?", nil)
	alt = firstAlternative(t, re)
	q = alt.Elements[0].(*ast.Quantifier)
	assert.Equal(t, ast.Lazy, q.Kind)

	re = parse(t, "a**", nil)
	alt = firstAlternative(t, re)
	q = alt.Elements[0].(*ast.Quantifier)
	inner, ok := q.Element.(*ast.Quantifier)
	require.True(t, ok, "chained quantifiers nest")
	assert.IsType(t, &ast.Character{}, inner.Element)

	_, err := Parse("*a", nil)
	assert.ErrorIs(t, err, ast.ErrSyntax)

	_, err = Parse("^*", nil)
	assert.ErrorIs(t, err, ast.ErrSyntax, "assertions are not quantifiable")
}

func TestCharacterClassShapes(t *testing.T) {
	re := parse(t, "[abc]", nil)
	alt := firstAlternative(t, re)
	cc := alt.Elements[0].(*ast.CharacterClass)
	assert.Equal(t, ast.ClassUnion, cc.Kind)
	assert.Len(t, cc.Elements, 3)

	re = parse(t, "[a-z0-9]", nil)
	cc = firstAlternative(t, re).Elements[0].(*ast.CharacterClass)
	require.Len(t, cc.Elements, 2)
	r := cc.Elements[0].(*ast.CharacterClassRange)
	assert.Equal(t, 'a', r.Min.Value)
	assert.Equal(t, 'z', r.Max.Value)

	re = parse(t, "[^a]", nil)
	cc = firstAlternative(t, re).Elements[0].(*ast.CharacterClass)
	assert.True(t, cc.Negate)

	re = parse(t, "[a[b]]", nil)
	cc = firstAlternative(t, re).Elements[0].(*ast.CharacterClass)
	require.Len(t, cc.Elements, 2)
	assert.IsType(t, &ast.CharacterClass{}, cc.Elements[1])
}

func TestCharacterClassIntersection(t *testing.T) {
	re := parse(t, `[a-z&&aeiou]`, nil)
	cc := firstAlternative(t, re).Elements[0].(*ast.CharacterClass)
	assert.Equal(t, ast.ClassIntersection, cc.Kind)
	require.Len(t, cc.Elements, 2)

	assert.IsType(t, &ast.CharacterClassRange{}, cc.Elements[0],
		"singleton segments unwrap to their element")

	seg := cc.Elements[1].(*ast.CharacterClass)
	assert.Equal(t, ast.ClassUnion, seg.Kind)
	assert.Len(t, seg.Elements, 5)
}

func TestClassHyphenHandling(t *testing.T) {
	re := parse(t, "[-a]", nil)
	cc := firstAlternative(t, re).Elements[0].(*ast.CharacterClass)
	ch := cc.Elements[0].(*ast.Character)
	assert.Equal(t, '-', ch.Value, "leading hyphen is literal")

	re = parse(t, "[a-]", nil)
	cc = firstAlternative(t, re).Elements[0].(*ast.CharacterClass)
	ch = cc.Elements[1].(*ast.Character)
	assert.Equal(t, '-', ch.Value, "trailing hyphen is literal")

	re = parse(t, "[a-b-c]", nil)
	cc = firstAlternative(t, re).Elements[0].(*ast.CharacterClass)
	require.Len(t, cc.Elements, 3)
	assert.IsType(t, &ast.CharacterClassRange{}, cc.Elements[0])
	assert.Equal(t, '-', cc.Elements[1].(*ast.Character).Value,
		"a hyphen after a completed range is literal")

	_, err := Parse("[z-a]", nil)
	assert.ErrorIs(t, err, ast.ErrSyntax)

	_, err = Parse(`[\d-z]`, nil)
	assert.ErrorIs(t, err, ast.ErrSyntax, "set endpoints are invalid")
}

func TestPosixAndPropertyClasses(t *testing.T) {
	re := parse(t, `[[:digit:]]`, nil)
	cc := firstAlternative(t, re).Elements[0].(*ast.CharacterClass)
	set := cc.Elements[0].(*ast.CharacterSet)
	assert.Equal(t, ast.SetPosix, set.Kind)
	assert.Equal(t, "digit", set.Value)

	_, err := Parse(`[[:widget:]]`, nil)
	assert.ErrorIs(t, err, ast.ErrSyntax)

	re = parse(t, `\p{Nd}`, nil)
	set = firstAlternative(t, re).Elements[0].(*ast.CharacterSet)
	assert.Equal(t, "Decimal_Number", set.Value, "property names canonicalize")

	_, err = Parse(`\p{Widget}`, nil)
	assert.ErrorIs(t, err, ast.ErrSyntax)

	re = parse(t, `\p{Widget}`, &Options{SkipPropertyNameValidation: true})
	set = firstAlternative(t, re).Elements[0].(*ast.CharacterSet)
	assert.Equal(t, "Widget", set.Value)

	re = parse(t, `\p{widget thing}`, &Options{NormalizeUnknownPropertyNames: true})
	set = firstAlternative(t, re).Elements[0].(*ast.CharacterSet)
	assert.Equal(t, "Widget_Thing", set.Value)
}

func TestLookbehindRestrictions(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
	}{
		{name: "lookahead inside positive lookbehind", pattern: `(?<=a(?=b))`},
		{name: "negative lookahead inside positive lookbehind", pattern: `(?<=a(?!b))`},
		{name: "negative lookbehind inside positive lookbehind", pattern: `(?<=a(?<!b))`},
		{name: "lookahead inside negative lookbehind", pattern: `(?<!a(?=b))`},
		{name: "capture inside negative lookbehind", pattern: `(?<!(a))`},
		{name: "capture deep inside negative lookbehind", pattern: `(?<!(?<=(a)))`},
		{name: "quantified capture inside negative lookbehind", pattern: `(?<!(a)?)`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.pattern, nil)
			assert.ErrorIs(t, err, ast.ErrFeature)

			_, err = Parse(tt.pattern, &Options{SkipLookbehindValidation: true})
			assert.NoError(t, err)
		})
	}
}

func TestLookbehindAllowedContent(t *testing.T) {
	for _, pattern := range []string{
		`(?<=(a))`,       // capture in positive lookbehind
		`(?<=a(?<=b))`,   // positive lookbehind nesting
		`(?<!a(?<!b))`,   // negative inside negative
		`(?<!a(?:b|cd))`, // plain groups and alternation
	} {
		t.Run(pattern, func(t *testing.T) {
			_, err := Parse(pattern, nil)
			assert.NoError(t, err)
		})
	}
}

func TestAbsentFunction(t *testing.T) {
	re := parse(t, `(?~abc)`, nil)
	af := firstAlternative(t, re).Elements[0].(*ast.AbsentFunction)
	assert.Equal(t, ast.AbsentRepeater, af.Kind)

	_, err := Parse(`(?~a(?~b))`, nil)
	assert.ErrorIs(t, err, ast.ErrFeature, "absent functions do not nest")

	_, err = Parse(`(?~|a|b)`, nil)
	assert.ErrorIs(t, err, ast.ErrFeature)
}

func TestGroupVariants(t *testing.T) {
	re := parse(t, `(?>a)(?i:b)(?im-x:c)`, nil)
	alt := firstAlternative(t, re)

	atomic := alt.Elements[0].(*ast.Group)
	assert.True(t, atomic.Atomic)

	flagged := alt.Elements[1].(*ast.Group)
	require.NotNil(t, flagged.Flags)
	assert.True(t, flagged.Flags.Enable.IgnoreCase)

	both := alt.Elements[2].(*ast.Group)
	assert.True(t, both.Flags.Enable.DotAll)
	assert.True(t, both.Flags.Disable.Extended)
}

func TestDirectives(t *testing.T) {
	re := parse(t, `a\Kb(?i)c`, nil)
	alt := firstAlternative(t, re)

	keep := alt.Elements[1].(*ast.Directive)
	assert.Equal(t, ast.DirectiveKeep, keep.Kind)

	flags := alt.Elements[3].(*ast.Directive)
	assert.Equal(t, ast.DirectiveFlags, flags.Kind)
	assert.True(t, flags.Flags.Enable.IgnoreCase)
}

func TestFlagRecord(t *testing.T) {
	re := parse(t, "a", &Options{Flags: "imD"})
	assert.True(t, re.Flags.IgnoreCase)
	assert.True(t, re.Flags.DotAll)
	assert.True(t, re.Flags.DigitIsAscii)
	assert.False(t, re.Flags.Extended)
}

func TestSyntaxErrors(t *testing.T) {
	for _, pattern := range []string{"(a", "a)", "[a", "[]", `\p{`, "(?<>a)"} {
		t.Run(pattern, func(t *testing.T) {
			_, err := Parse(pattern, nil)
			assert.ErrorIs(t, err, ast.ErrSyntax)
		})
	}
}
