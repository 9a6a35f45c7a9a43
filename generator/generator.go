// Package generator serializes an AST back to Oniguruma pattern
// source. It inverts the parser on any well-formed tree.
package generator

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/onigkit/onigkit/ast"
)

// Result is the generated pattern and its flag string.
type Result struct {
	Pattern string
	Flags   string
}

// Generate renders the AST to pattern source.
func Generate(re *ast.Regex) (Result, error) {
	if re == nil || re.Pattern == nil {
		return Result{}, ast.Invariantf("cannot generate from a nil regex")
	}
	var b strings.Builder
	if err := writeAlternation(&b, re.Pattern.Alternatives); err != nil {
		return Result{}, err
	}
	return Result{Pattern: b.String(), Flags: FlagsString(re.Flags)}, nil
}

// FlagsString assembles the flag string for a flag record.
func FlagsString(f *ast.Flags) string {
	if f == nil {
		return ""
	}
	var b strings.Builder
	if f.IgnoreCase {
		b.WriteByte('i')
	}
	if f.DotAll {
		b.WriteByte('m')
	}
	if f.Extended {
		b.WriteByte('x')
	}
	if f.DigitIsAscii {
		b.WriteByte('D')
	}
	if f.SpaceIsAscii {
		b.WriteByte('S')
	}
	if f.WordIsAscii {
		b.WriteByte('W')
	}
	if f.PosixIsAscii {
		b.WriteByte('P')
	}
	switch f.TextSegmentMode {
	case "grapheme":
		b.WriteString("y{g}")
	case "word":
		b.WriteString("y{w}")
	}
	return b.String()
}

func writeAlternation(b *strings.Builder, alternatives []ast.Node) error {
	for i, alt := range alternatives {
		if i > 0 {
			b.WriteByte('|')
		}
		a, ok := alt.(*ast.Alternative)
		if !ok {
			return ast.Invariantf("alternation member is %s, not an Alternative", alt.Type())
		}
		for _, el := range a.Elements {
			if err := writeNode(b, el, false); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeNode(b *strings.Builder, n ast.Node, inClass bool) error {
	switch node := n.(type) {
	case *ast.Character:
		writeCharacter(b, node.Value, inClass)
	case *ast.CharacterSet:
		writeCharacterSet(b, node, inClass)
	case *ast.CharacterClass:
		return writeClass(b, node)
	case *ast.CharacterClassRange:
		writeCharacter(b, node.Min.Value, true)
		b.WriteByte('-')
		writeCharacter(b, node.Max.Value, true)
	case *ast.Assertion:
		writeAssertion(b, node)
	case *ast.LookaroundAssertion:
		return writeLookaround(b, node)
	case *ast.Group:
		return writeGroup(b, node)
	case *ast.CapturingGroup:
		return writeCapturingGroup(b, node)
	case *ast.AbsentFunction:
		b.WriteString("(?~")
		if err := writeAlternation(b, node.Alternatives); err != nil {
			return err
		}
		b.WriteByte(')')
	case *ast.Backreference:
		writeRef(b, 'k', node.Ref)
	case *ast.Subroutine:
		writeRef(b, 'g', node.Ref)
	case *ast.Quantifier:
		return writeQuantifier(b, node)
	case *ast.Directive:
		writeDirective(b, node)
	default:
		return ast.Invariantf("cannot generate source for %s", n.Type())
	}
	return nil
}

// patternMeta are characters needing a backslash outside classes.
const patternMeta = `\^$.|?*+()[{`

// classMeta are characters needing a backslash inside classes.
const classMeta = `\][^-&`

func writeCharacter(b *strings.Builder, value rune, inClass bool) {
	switch value {
	case '\n':
		b.WriteString(`\n`)
		return
	case '\t':
		b.WriteString(`\t`)
		return
	case '\r':
		b.WriteString(`\r`)
		return
	case '\f':
		b.WriteString(`\f`)
		return
	case '\v':
		b.WriteString(`\v`)
		return
	case 0x07:
		b.WriteString(`\a`)
		return
	case 0x1B:
		b.WriteString(`\e`)
		return
	}
	if value < 0x20 || value == 0x7F {
		fmt.Fprintf(b, `\x%02X`, value)
		return
	}
	meta := patternMeta
	if inClass {
		meta = classMeta
	}
	if value < 0x80 && strings.ContainsRune(meta, value) {
		b.WriteByte('\\')
		b.WriteRune(value)
		return
	}
	if value > 0x7F && !unicode.IsPrint(value) {
		fmt.Fprintf(b, `\x{%X}`, value)
		return
	}
	b.WriteRune(value)
}

func writeCharacterSet(b *strings.Builder, s *ast.CharacterSet, inClass bool) {
	shorthand := func(lower, upper string) {
		if s.Negate {
			b.WriteString(upper)
		} else {
			b.WriteString(lower)
		}
	}
	switch s.Kind {
	case ast.SetDot:
		b.WriteByte('.')
	case ast.SetAny:
		b.WriteString(`\O`)
	case ast.SetDigit:
		shorthand(`\d`, `\D`)
	case ast.SetHex:
		shorthand(`\h`, `\H`)
	case ast.SetSpace:
		shorthand(`\s`, `\S`)
	case ast.SetWord:
		shorthand(`\w`, `\W`)
	case ast.SetNewline:
		shorthand(`\R`, `\N`)
	case ast.SetGrapheme:
		b.WriteString(`\X`)
	case ast.SetPosix:
		neg := ""
		if s.Negate {
			neg = "^"
		}
		if inClass {
			fmt.Fprintf(b, "[:%s%s:]", neg, s.Value)
		} else {
			fmt.Fprintf(b, "[[:%s%s:]]", neg, s.Value)
		}
	case ast.SetProperty:
		if s.Negate {
			fmt.Fprintf(b, `\P{%s}`, s.Value)
		} else {
			fmt.Fprintf(b, `\p{%s}`, s.Value)
		}
	}
}

func writeClass(b *strings.Builder, c *ast.CharacterClass) error {
	b.WriteByte('[')
	if c.Negate {
		b.WriteByte('^')
	}
	if c.Kind == ast.ClassIntersection {
		for i, seg := range c.Elements {
			if i > 0 {
				b.WriteString("&&")
			}
			if err := writeClassSegment(b, seg); err != nil {
				return err
			}
		}
	} else {
		for _, el := range c.Elements {
			if err := writeNode(b, el, true); err != nil {
				return err
			}
		}
	}
	b.WriteByte(']')
	return nil
}

// writeClassSegment renders one intersection operand. Non-negated
// union classes flatten into the segment, matching how the parser
// wraps multi-element segments.
func writeClassSegment(b *strings.Builder, seg ast.Node) error {
	if inner, ok := seg.(*ast.CharacterClass); ok && inner.Kind == ast.ClassUnion && !inner.Negate {
		for _, el := range inner.Elements {
			if err := writeNode(b, el, true); err != nil {
				return err
			}
		}
		return nil
	}
	return writeNode(b, seg, true)
}

func writeAssertion(b *strings.Builder, a *ast.Assertion) {
	switch a.Kind {
	case ast.AssertLineStart:
		b.WriteByte('^')
	case ast.AssertLineEnd:
		b.WriteByte('$')
	case ast.AssertStringStart:
		b.WriteString(`\A`)
	case ast.AssertStringEnd:
		b.WriteString(`\z`)
	case ast.AssertStringEndNewline:
		b.WriteString(`\Z`)
	case ast.AssertSearchStart:
		b.WriteString(`\G`)
	case ast.AssertWordBoundary:
		if a.Negate {
			b.WriteString(`\B`)
		} else {
			b.WriteString(`\b`)
		}
	case ast.AssertGraphemeBoundary:
		if a.Negate {
			b.WriteString(`\Y`)
		} else {
			b.WriteString(`\y`)
		}
	}
}

func writeLookaround(b *strings.Builder, l *ast.LookaroundAssertion) error {
	switch {
	case l.Kind == ast.Lookahead && !l.Negate:
		b.WriteString("(?=")
	case l.Kind == ast.Lookahead:
		b.WriteString("(?!")
	case !l.Negate:
		b.WriteString("(?<=")
	default:
		b.WriteString("(?<!")
	}
	if err := writeAlternation(b, l.Alternatives); err != nil {
		return err
	}
	b.WriteByte(')')
	return nil
}

func writeGroup(b *strings.Builder, g *ast.Group) error {
	switch {
	case g.Atomic:
		b.WriteString("(?>")
	case !g.Flags.IsZero():
		b.WriteString("(?")
		writeModifiers(b, g.Flags)
		b.WriteByte(':')
	default:
		b.WriteString("(?:")
	}
	if err := writeAlternation(b, g.Alternatives); err != nil {
		return err
	}
	b.WriteByte(')')
	return nil
}

func writeCapturingGroup(b *strings.Builder, g *ast.CapturingGroup) error {
	if g.Name != "" {
		fmt.Fprintf(b, "(?<%s>", g.Name)
	} else {
		b.WriteByte('(')
	}
	if err := writeAlternation(b, g.Alternatives); err != nil {
		return err
	}
	b.WriteByte(')')
	return nil
}

func writeRef(b *strings.Builder, escape byte, ref any) {
	b.WriteByte('\\')
	b.WriteByte(escape)
	switch r := ref.(type) {
	case int:
		fmt.Fprintf(b, "<%d>", r)
	case string:
		fmt.Fprintf(b, "<%s>", r)
	}
}

func writeQuantifier(b *strings.Builder, q *ast.Quantifier) error {
	if err := writeNode(b, q.Element, false); err != nil {
		return err
	}
	switch {
	case q.Min == 0 && q.Max == 1:
		b.WriteByte('?')
	case q.Min == 0 && q.Max == ast.InfinityMax:
		b.WriteByte('*')
	case q.Min == 1 && q.Max == ast.InfinityMax:
		b.WriteByte('+')
	case q.Max == ast.InfinityMax:
		fmt.Fprintf(b, "{%d,}", q.Min)
	case q.Min == q.Max:
		fmt.Fprintf(b, "{%d}", q.Min)
	default:
		fmt.Fprintf(b, "{%d,%d}", q.Min, q.Max)
	}
	switch q.Kind {
	case ast.Lazy:
		b.WriteByte('?')
	case ast.Possessive:
		b.WriteByte('+')
	}
	return nil
}

func writeDirective(b *strings.Builder, d *ast.Directive) {
	if d.Kind == ast.DirectiveKeep {
		b.WriteString(`\K`)
		return
	}
	b.WriteString("(?")
	writeModifiers(b, d.Flags)
	b.WriteByte(')')
}

func writeModifiers(b *strings.Builder, m *ast.FlagGroupModifiers) {
	if m == nil {
		return
	}
	writeFlagSet(b, m.Enable)
	if !m.Disable.IsZero() {
		b.WriteByte('-')
		writeFlagSet(b, m.Disable)
	}
}

func writeFlagSet(b *strings.Builder, fs *ast.FlagSet) {
	if fs == nil {
		return
	}
	if fs.IgnoreCase {
		b.WriteByte('i')
	}
	if fs.DotAll {
		b.WriteByte('m')
	}
	if fs.Extended {
		b.WriteByte('x')
	}
	if fs.DigitIsAscii {
		b.WriteByte('D')
	}
	if fs.SpaceIsAscii {
		b.WriteByte('S')
	}
	if fs.WordIsAscii {
		b.WriteByte('W')
	}
	if fs.PosixIsAscii {
		b.WriteByte('P')
	}
}
