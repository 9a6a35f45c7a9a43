// Package parser builds an AST from a token stream by recursive
// descent. Parser-scoped state lives in a context value whose lifetime
// is one Parse call.
package parser

import (
	"github.com/onigkit/onigkit/ast"
	"github.com/onigkit/onigkit/tokenizer"
)

// Rules mirrors Oniguruma compile options that change the grammar.
type Rules struct {
	// CaptureGroup keeps unnamed groups capturing alongside named
	// groups (ONIG_OPTION_CAPTURE_GROUP).
	CaptureGroup bool `yaml:"captureGroup"`
	// Singleline makes `.` match newline and `^`/`$` ignore line
	// breaks (ONIG_OPTION_SINGLELINE).
	Singleline bool `yaml:"singleline"`
}

// Options control a Parse call.
type Options struct {
	// Flags is the initial flag string, parsed by the tokenizer.
	Flags string
	Rules Rules
	// SkipBackrefValidation emits orphan backreferences instead of
	// erroring when a reference points at a group to its right.
	SkipBackrefValidation bool
	// SkipLookbehindValidation suppresses the lookbehind content
	// checks.
	SkipLookbehindValidation bool
	// SkipPropertyNameValidation accepts unknown Unicode property
	// names verbatim.
	SkipPropertyNameValidation bool
	// NormalizeUnknownPropertyNames canonicalizes unknown property
	// names instead of rejecting them.
	NormalizeUnknownPropertyNames bool
	// UnicodePropertyMap overrides the built-in slug-to-canonical
	// property table.
	UnicodePropertyMap map[string]string
}

// context is the parser-scoped state bundle shared by the descent
// helpers. It does not outlive one Parse call.
type context struct {
	tokens []tokenizer.Token
	pos    int
	opts   *Options

	capturingGroups []*ast.CapturingGroup
	namedGroups     map[string][]*ast.CapturingGroup
	subroutines     []*ast.Subroutine
	hasNumberedRef  bool
	hasNamedGroup   bool
}

// scope tracks the enclosing constructs that restrict what may be
// emitted at the current position.
type scope struct {
	inLookbehind  bool
	negLookbehind bool
	inAbsent      bool
}

// Parse transforms pattern source into an AST, validating references
// and lookbehind content along the way.
func Parse(source string, opts *Options) (*ast.Regex, error) {
	if opts == nil {
		opts = &Options{}
	}
	lexed, err := tokenizer.Tokenize(source, &tokenizer.Options{
		Flags:        opts.Flags,
		CaptureGroup: opts.Rules.CaptureGroup,
		Singleline:   opts.Rules.Singleline,
	})
	if err != nil {
		return nil, err
	}

	ctx := &context{
		tokens:         lexed.Tokens,
		opts:           opts,
		namedGroups:    make(map[string][]*ast.CapturingGroup),
		hasNumberedRef: lexed.HasNumberedRef,
		hasNamedGroup:  lexed.HasNamedGroup,
	}

	alternatives, err := ctx.parseAlternatives(scope{})
	if err != nil {
		return nil, err
	}
	if !ctx.done() {
		return nil, ast.Syntaxf("unexpected token %q", ctx.peek().Raw)
	}

	pattern, err := ast.NewPattern(alternatives)
	if err != nil {
		return nil, err
	}
	regex := ast.NewRegex(pattern, lexed.Flags)

	if err := ctx.validate(); err != nil {
		return nil, err
	}
	return regex, nil
}

func (ctx *context) done() bool {
	return ctx.pos >= len(ctx.tokens)
}

func (ctx *context) peek() *tokenizer.Token {
	if ctx.done() {
		return nil
	}
	return &ctx.tokens[ctx.pos]
}

func (ctx *context) next() *tokenizer.Token {
	t := ctx.peek()
	if t != nil {
		ctx.pos++
	}
	return t
}

// parseAlternatives consumes elements up to the enclosing group close
// or the end of input, returning the alternative list.
func (ctx *context) parseAlternatives(sc scope) ([]ast.Node, error) {
	current := ast.NewAlternative(nil)
	alternatives := []ast.Node{current}

	for {
		t := ctx.peek()
		if t == nil || t.Type == tokenizer.TypeGroupClose {
			return alternatives, nil
		}
		ctx.pos++

		switch t.Type {
		case tokenizer.TypeAlternator:
			current = ast.NewAlternative(nil)
			alternatives = append(alternatives, current)

		case tokenizer.TypeQuantifier:
			if len(current.Elements) == 0 {
				return nil, ast.Syntaxf("quantifier %q has nothing to repeat", t.Raw)
			}
			last := current.Elements[len(current.Elements)-1]
			q, err := buildQuantifier(t, last)
			if err != nil {
				return nil, err
			}
			current.Elements[len(current.Elements)-1] = q

		default:
			el, err := ctx.parseElement(t, sc)
			if err != nil {
				return nil, err
			}
			if el == nil {
				continue
			}
			if err := checkLookbehindContent(sc, el, ctx.opts); err != nil {
				return nil, err
			}
			current.Elements = append(current.Elements, el)
		}
	}
}

// buildQuantifier wraps the preceding element. Reversed interval
// bounds are Oniguruma's possessive notation, so {3,1} becomes a
// possessive {1,3}.
func buildQuantifier(t *tokenizer.Token, element ast.Node) (*ast.Quantifier, error) {
	min, max, kind := t.Min, t.Max, t.QuantKind
	if max < min {
		min, max = max, min
		kind = ast.Possessive
	}
	return ast.NewQuantifier(kind, min, max, element)
}

func (ctx *context) parseElement(t *tokenizer.Token, sc scope) (ast.Node, error) {
	switch t.Type {
	case tokenizer.TypeCharacter:
		return ctx.newCharacter(t.Value)

	case tokenizer.TypeCharacterSet:
		return ctx.buildCharacterSet(t)

	case tokenizer.TypeAssertion:
		return ast.NewAssertion(t.AssertKind, t.Negate)

	case tokenizer.TypeDirective:
		return ast.NewDirective(t.DirKind, t.Flags)

	case tokenizer.TypeBackreference:
		return ctx.buildBackreference(t)

	case tokenizer.TypeSubroutine:
		return ctx.buildSubroutine(t)

	case tokenizer.TypeCharacterClassOpen:
		return ctx.parseCharacterClass(t)

	case tokenizer.TypeGroupOpen:
		return ctx.parseGroup(t, sc)

	default:
		return nil, ast.Syntaxf("unexpected token %q", t.Raw)
	}
}

func (ctx *context) newCharacter(value rune) (*ast.Character, error) {
	if value > ast.MaxCodePoint {
		return nil, ast.Syntaxf("code point %X exceeds 0x10FFFF", value)
	}
	return ast.NewCharacter(value, nil)
}

func (ctx *context) buildCharacterSet(t *tokenizer.Token) (*ast.CharacterSet, error) {
	switch t.SetKind {
	case ast.SetPosix:
		return ast.NewPosixClass(t.Name, t.Negate)
	case ast.SetProperty:
		return ast.NewUnicodeProperty(t.Name, &ast.UnicodePropertyOptions{
			Negate:           t.Negate,
			SkipValidation:   ctx.opts.SkipPropertyNameValidation,
			NormalizeUnknown: ctx.opts.NormalizeUnknownPropertyNames,
			PropertyMap:      ctx.opts.UnicodePropertyMap,
		})
	case ast.SetDot:
		return &ast.CharacterSet{Kind: ast.SetDot}, nil
	default:
		return ast.NewCharacterSet(t.SetKind, t.Negate)
	}
}

func (ctx *context) buildBackreference(t *tokenizer.Token) (*ast.Backreference, error) {
	if t.ByName {
		if len(ctx.namedGroups[t.Name]) > 0 {
			return ast.NewBackreference(t.Name, false)
		}
		if ctx.opts.SkipBackrefValidation {
			return ast.NewBackreference(t.Name, true)
		}
		return nil, ast.Referencef("backreference to undefined group name %q", t.Name)
	}
	if t.Ref <= len(ctx.capturingGroups) {
		return ast.NewBackreference(t.Ref, false)
	}
	if ctx.opts.SkipBackrefValidation {
		return ast.NewBackreference(t.Ref, true)
	}
	return nil, ast.Referencef("backreference to undefined group %d", t.Ref)
}

func (ctx *context) buildSubroutine(t *tokenizer.Token) (*ast.Subroutine, error) {
	var ref any
	if t.ByName {
		ref = t.Name
	} else {
		ref = t.Ref
	}
	sub, err := ast.NewSubroutine(ref)
	if err != nil {
		return nil, err
	}
	ctx.subroutines = append(ctx.subroutines, sub)
	return sub, nil
}

// parseGroup materializes the node for a GroupOpen token and consumes
// through the matching close.
func (ctx *context) parseGroup(t *tokenizer.Token, sc scope) (ast.Node, error) {
	inner := sc
	var group ast.Node

	switch t.GroupKind {
	case tokenizer.GroupCapturing:
		number := len(ctx.capturingGroups) + 1
		cg, err := ast.NewCapturingGroup(number, t.Name, nil)
		if err != nil {
			return nil, err
		}
		// Registered before the body parses so that references
		// inside the group resolve.
		ctx.capturingGroups = append(ctx.capturingGroups, cg)
		if t.Name != "" {
			ctx.namedGroups[t.Name] = append(ctx.namedGroups[t.Name], cg)
		}
		group = cg

	case tokenizer.GroupNonCapturing:
		g, err := ast.NewGroup(t.Flags, false, nil)
		if err != nil {
			return nil, err
		}
		group = g

	case tokenizer.GroupAtomic:
		g, err := ast.NewGroup(nil, true, nil)
		if err != nil {
			return nil, err
		}
		group = g

	case tokenizer.GroupLookahead:
		la, err := ast.NewLookaroundAssertion(ast.Lookahead, t.Negate, nil)
		if err != nil {
			return nil, err
		}
		group = la

	case tokenizer.GroupLookbehind:
		la, err := ast.NewLookaroundAssertion(ast.Lookbehind, t.Negate, nil)
		if err != nil {
			return nil, err
		}
		inner.inLookbehind = true
		inner.negLookbehind = sc.negLookbehind || t.Negate
		group = la

	case tokenizer.GroupAbsentRepeater:
		if sc.inAbsent {
			return nil, ast.Featuref("nested absent functions are not supported")
		}
		af, err := ast.NewAbsentFunction(ast.AbsentRepeater, nil)
		if err != nil {
			return nil, err
		}
		inner.inAbsent = true
		group = af

	default:
		return nil, ast.Syntaxf("unknown group kind %q", t.GroupKind)
	}

	alternatives, err := ctx.parseAlternatives(inner)
	if err != nil {
		return nil, err
	}
	if closing := ctx.next(); closing == nil || closing.Type != tokenizer.TypeGroupClose {
		return nil, ast.Syntaxf("unclosed group")
	}

	switch g := group.(type) {
	case *ast.CapturingGroup:
		g.Alternatives = alternatives
	case *ast.Group:
		g.Alternatives = alternatives
	case *ast.LookaroundAssertion:
		g.Alternatives = alternatives
	case *ast.AbsentFunction:
		g.Alternatives = alternatives
	}
	return group, nil
}

// checkLookbehindContent enforces the Oniguruma lookbehind content
// rule on each element emitted inside a lookbehind alternative. The
// check runs against the emitted child directly; a quantifier over a
// forbidden element is caught when that element is emitted, before the
// quantifier wraps it.
func checkLookbehindContent(sc scope, el ast.Node, opts *Options) error {
	if !sc.inLookbehind || opts.SkipLookbehindValidation {
		return nil
	}
	switch n := el.(type) {
	case *ast.LookaroundAssertion:
		if n.Kind == ast.Lookahead {
			return ast.Featuref("lookahead assertions are not allowed inside lookbehind")
		}
		if n.Negate && !sc.negLookbehind {
			return ast.Featuref("negative lookbehind is not allowed inside positive lookbehind")
		}
	case *ast.CapturingGroup:
		if sc.negLookbehind {
			return ast.Featuref("capturing groups are not allowed inside negative lookbehind")
		}
	}
	return nil
}

// parseCharacterClass consumes a class body after its open token.
// Segments separated by && become an intersection; a single segment
// stays a union.
func (ctx *context) parseCharacterClass(open *tokenizer.Token) (*ast.CharacterClass, error) {
	var segments [][]ast.Node
	var current []ast.Node

	for {
		t := ctx.next()
		if t == nil {
			return nil, ast.Syntaxf("unclosed character class")
		}

		switch t.Type {
		case tokenizer.TypeCharacterClassClose:
			segments = append(segments, current)
			return buildClass(open, segments)

		case tokenizer.TypeCharacterClassIntersector:
			segments = append(segments, current)
			current = nil

		case tokenizer.TypeCharacterClassHyphen:
			el, err := ctx.parseHyphen(current)
			if err != nil {
				return nil, err
			}
			if el != nil {
				// Range connector: replace the previous sibling.
				current[len(current)-1] = el
			} else {
				ch, err := ctx.newCharacter('-')
				if err != nil {
					return nil, err
				}
				current = append(current, ch)
			}

		case tokenizer.TypeCharacterClassOpen:
			nested, err := ctx.parseCharacterClass(t)
			if err != nil {
				return nil, err
			}
			current = append(current, nested)

		case tokenizer.TypeCharacter:
			ch, err := ctx.newCharacter(t.Value)
			if err != nil {
				return nil, err
			}
			current = append(current, ch)

		case tokenizer.TypeCharacterSet:
			set, err := ctx.buildCharacterSet(t)
			if err != nil {
				return nil, err
			}
			current = append(current, set)

		default:
			return nil, ast.Syntaxf("unexpected token %q in character class", t.Raw)
		}
	}
}

// parseHyphen decides whether a hyphen connects a range. It does when
// a previous sibling exists and is a Character or CharacterSet, and
// the next token is a Character or CharacterSet; otherwise the hyphen
// is a literal. Connected endpoints must both be characters.
func (ctx *context) parseHyphen(current []ast.Node) (ast.Node, error) {
	if len(current) == 0 {
		return nil, nil
	}
	prev := current[len(current)-1]
	if prev.Type() != ast.CharacterNode && prev.Type() != ast.CharacterSetNode {
		return nil, nil
	}
	next := ctx.peek()
	if next == nil || (next.Type != tokenizer.TypeCharacter && next.Type != tokenizer.TypeCharacterSet) {
		return nil, nil
	}
	ctx.pos++

	minChar, ok := prev.(*ast.Character)
	if !ok {
		return nil, ast.Syntaxf("character class range endpoint is not a character")
	}
	if next.Type != tokenizer.TypeCharacter {
		return nil, ast.Syntaxf("character class range endpoint is not a character")
	}
	maxChar, err := ctx.newCharacter(next.Value)
	if err != nil {
		return nil, err
	}
	if minChar.Value > maxChar.Value {
		return nil, ast.Syntaxf("character class range %q-%q is descending", string(minChar.Value), string(maxChar.Value))
	}
	return ast.NewCharacterClassRange(minChar, maxChar)
}

func buildClass(open *tokenizer.Token, segments [][]ast.Node) (*ast.CharacterClass, error) {
	if len(segments) == 1 {
		return ast.NewCharacterClass(ast.ClassUnion, open.Negate, segments[0])
	}
	elements := make([]ast.Node, 0, len(segments))
	for _, seg := range segments {
		if len(seg) == 1 {
			elements = append(elements, seg[0])
			continue
		}
		wrapped, err := ast.NewCharacterClass(ast.ClassUnion, false, seg)
		if err != nil {
			return nil, err
		}
		elements = append(elements, wrapped)
	}
	return ast.NewCharacterClass(ast.ClassIntersection, open.Negate, elements)
}

// validate runs the whole-pattern checks after AST construction.
func (ctx *context) validate() error {
	if ctx.hasNumberedRef && ctx.hasNamedGroup && !ctx.opts.Rules.CaptureGroup {
		return ast.Referencef("numbered backreferences cannot be mixed with named groups")
	}

	total := len(ctx.capturingGroups)
	for _, sub := range ctx.subroutines {
		switch ref := sub.Ref.(type) {
		case int:
			if ref == 0 {
				continue
			}
			if ref > total {
				return ast.Referencef(`subroutine \g<%d> references an undefined group`, ref)
			}
		case string:
			defs := ctx.namedGroups[ref]
			switch len(defs) {
			case 0:
				return ast.Referencef(`subroutine \g<%s> references an undefined group name`, ref)
			case 1:
			default:
				return ast.Referencef(`subroutine \g<%s> references a duplicated group name`, ref)
			}
		}
	}
	return nil
}
