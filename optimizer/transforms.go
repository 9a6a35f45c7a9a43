package optimizer

// The transform catalog. Every transform is a Visitor preserving match
// semantics under the pattern's flag record; none mutates flags.

import (
	"github.com/onigkit/onigkit/ast"
	"github.com/onigkit/onigkit/traverser"
	"github.com/onigkit/onigkit/uniprops"
)

// Transform is one named rewrite in the catalog.
type Transform struct {
	Name        string
	Description string
	Visitor     traverser.Visitor
}

// registry lists the catalog in execution order.
var registry = []Transform{
	{
		Name:        "use-shorthands",
		Description: "Replace properties, POSIX classes and range trios with shorthand sets",
		Visitor:     useShorthands(),
	},
	{
		Name:        "use-unicode-aliases",
		Description: "Canonicalize Unicode property names to their short aliases",
		Visitor:     useUnicodeAliases(),
	},
	{
		Name:        "unnest-useless-classes",
		Description: "Flatten nested classes that add no semantics",
		Visitor:     unnestUselessClasses(),
	},
	{
		Name:        "unwrap-negation-wrappers",
		Description: "Collapse negated singleton classes onto their set",
		Visitor:     unwrapNegationWrappers(),
	},
	{
		Name:        "dedupe-classes",
		Description: "Drop duplicate members of union classes",
		Visitor:     dedupeClasses(),
	},
	{
		Name:        "alternation-to-class",
		Description: "Fuse runs of single-length alternatives into one class",
		Visitor:     alternationToClass(),
	},
	{
		Name:        "unwrap-classes",
		Description: "Unwrap singleton union classes outside class context",
		Visitor:     unwrapClasses(),
	},
	{
		Name:        "remove-useless-flags",
		Description: "Strip flag modifiers with no effect on a parsed pattern",
		Visitor:     removeUselessFlags(),
	},
}

func rootFlags(p *traverser.Path) *ast.Flags {
	if re, ok := p.Root.(*ast.Regex); ok && re.Flags != nil {
		return re.Flags
	}
	return &ast.Flags{}
}

func classEnter(fn func(p *traverser.Path, cc *ast.CharacterClass) error) traverser.Visitor {
	return traverser.Visitor{
		string(ast.CharacterClassNode): {Enter: func(p *traverser.Path, _ any) error {
			cc, ok := p.Node.(*ast.CharacterClass)
			if !ok {
				return nil
			}
			return fn(p, cc)
		}},
	}
}

// unwrapClasses collapses a non-negated singleton union class outside
// class context onto its only child.
func unwrapClasses() traverser.Visitor {
	return classEnter(func(p *traverser.Path, cc *ast.CharacterClass) error {
		if _, inClass := p.Parent.(*ast.CharacterClass); inClass || p.Parent == nil {
			return nil
		}
		if cc.Kind != ast.ClassUnion || cc.Negate || len(cc.Elements) != 1 {
			return nil
		}
		child := cc.Elements[0]
		switch child.Type() {
		case ast.CharacterNode, ast.CharacterSetNode:
			return p.ReplaceWith(child, true)
		}
		return nil
	})
}

// unnestUselessClasses flattens union classes nested inside other
// classes, folding negation when the inner class is an only child, and
// unnests singleton intersections.
func unnestUselessClasses() traverser.Visitor {
	return classEnter(func(p *traverser.Path, inner *ast.CharacterClass) error {
		outer, ok := p.Parent.(*ast.CharacterClass)
		if !ok {
			return nil
		}
		if inner.Kind == ast.ClassIntersection && len(inner.Elements) == 1 {
			return p.ReplaceWith(inner.Elements[0], true)
		}
		if inner.Kind != ast.ClassUnion || outer.Kind != ast.ClassUnion {
			return nil
		}
		if len(outer.Elements) == 1 {
			outer.Negate = outer.Negate != inner.Negate
			return p.ReplaceWithMultiple(inner.Elements, true)
		}
		if inner.Negate {
			return nil
		}
		return p.ReplaceWithMultiple(inner.Elements, true)
	})
}

// negationFlippable are the set kinds whose negation stays expressible
// after the wrapper class is dropped.
func negationFlippable(kind ast.SetKind) bool {
	switch kind {
	case ast.SetDigit, ast.SetHex, ast.SetSpace, ast.SetWord, ast.SetPosix, ast.SetProperty:
		return true
	}
	return false
}

// unwrapNegationWrappers collapses [^\d]-style wrappers by flipping
// the set, and turns [^\n] into \N outside classes. The \N rewrite is
// suppressed directly under a non-lazy quantifier, where Oniguruma
// mistreats \N.
func unwrapNegationWrappers() traverser.Visitor {
	return classEnter(func(p *traverser.Path, cc *ast.CharacterClass) error {
		if cc.Kind != ast.ClassUnion || !cc.Negate || len(cc.Elements) != 1 {
			return nil
		}
		switch child := cc.Elements[0].(type) {
		case *ast.CharacterSet:
			if !negationFlippable(child.Kind) {
				return nil
			}
			flipped := *child
			flipped.Negate = !child.Negate
			return p.ReplaceWith(&flipped, true)
		case *ast.Character:
			if child.Value != '\n' {
				return nil
			}
			if _, inClass := p.Parent.(*ast.CharacterClass); inClass || p.Parent == nil {
				return nil
			}
			if q, ok := p.Parent.(*ast.Quantifier); ok && q.Kind != ast.Lazy {
				return nil
			}
			return p.ReplaceWith(&ast.CharacterSet{Kind: ast.SetNewline, Negate: true}, true)
		}
		return nil
	})
}

// dedupeClasses drops duplicate members of union classes.
func dedupeClasses() traverser.Visitor {
	return classEnter(func(_ *traverser.Path, cc *ast.CharacterClass) error {
		if cc.Kind != ast.ClassUnion || len(cc.Elements) < 2 {
			return nil
		}
		kept := cc.Elements[:0:0]
		for _, el := range cc.Elements {
			duplicate := false
			for _, seen := range kept {
				if ast.NodesEqual(el, seen) {
					duplicate = true
					break
				}
			}
			if !duplicate {
				kept = append(kept, el)
			}
		}
		if len(kept) != len(cc.Elements) {
			cc.Elements = kept
		}
		return nil
	})
}

// alternationVisitor applies fn to every node type that owns an
// alternative list.
func alternationVisitor(fn func(node ast.Node) error) traverser.Visitor {
	enter := func(p *traverser.Path, _ any) error {
		return fn(p.Node)
	}
	v := traverser.Visitor{}
	for _, key := range []ast.NodeType{
		ast.PatternNode, ast.GroupNode, ast.CapturingGroupNode,
		ast.LookaroundAssertionNode, ast.AbsentFunctionNode,
	} {
		v[string(key)] = traverser.Callbacks{Enter: enter}
	}
	return v
}

func alternativesOf(node ast.Node) []ast.Node {
	switch n := node.(type) {
	case *ast.Pattern:
		return n.Alternatives
	case *ast.Group:
		return n.Alternatives
	case *ast.CapturingGroup:
		return n.Alternatives
	case *ast.LookaroundAssertion:
		return n.Alternatives
	case *ast.AbsentFunction:
		return n.Alternatives
	}
	return nil
}

func setAlternatives(node ast.Node, alts []ast.Node) {
	switch n := node.(type) {
	case *ast.Pattern:
		n.Alternatives = alts
	case *ast.Group:
		n.Alternatives = alts
	case *ast.CapturingGroup:
		n.Alternatives = alts
	case *ast.LookaroundAssertion:
		n.Alternatives = alts
	case *ast.AbsentFunction:
		n.Alternatives = alts
	}
}

// classableAlternative returns the single-length element of an
// alternative that can move into a union class, or nil.
func classableAlternative(alt ast.Node) ast.Node {
	a, ok := alt.(*ast.Alternative)
	if !ok || len(a.Elements) != 1 {
		return nil
	}
	el := a.Elements[0]
	switch n := el.(type) {
	case *ast.Character:
		return el
	case *ast.CharacterClass:
		return el
	case *ast.CharacterSet:
		if negationFlippable(n.Kind) {
			return el
		}
	}
	return nil
}

// alternationToClass fuses adjacent single-length alternatives into
// one alternative holding a union class. Singleton runs are unchanged.
func alternationToClass() traverser.Visitor {
	return alternationVisitor(func(node ast.Node) error {
		alts := alternativesOf(node)
		if len(alts) < 2 {
			return nil
		}

		var out []ast.Node
		var run []ast.Node
		flush := func() error {
			if len(run) == 0 {
				return nil
			}
			if len(run) == 1 {
				out = append(out, run[0])
				run = nil
				return nil
			}
			members := make([]ast.Node, 0, len(run))
			for _, alt := range run {
				members = append(members, classableAlternative(alt))
			}
			class, err := ast.NewCharacterClass(ast.ClassUnion, false, members)
			if err != nil {
				return err
			}
			out = append(out, ast.NewAlternative([]ast.Node{class}))
			run = nil
			return nil
		}

		for _, alt := range alts {
			if classableAlternative(alt) != nil {
				run = append(run, alt)
				continue
			}
			if err := flush(); err != nil {
				return err
			}
			out = append(out, alt)
		}
		if err := flush(); err != nil {
			return err
		}
		if len(out) != len(alts) {
			setAlternatives(node, out)
		}
		return nil
	})
}

// matchesProperty reports whether a set is the given property under
// any accepted spelling.
func matchesProperty(el ast.Node, spellings ...string) bool {
	set, ok := el.(*ast.CharacterSet)
	if !ok || set.Kind != ast.SetProperty || set.Negate {
		return false
	}
	for _, s := range spellings {
		if set.Value == s {
			return true
		}
	}
	return false
}

func isRange(el ast.Node, min, max rune) bool {
	r, ok := el.(*ast.CharacterClassRange)
	return ok && r.Min.Value == min && r.Max.Value == max
}

// useShorthands rewrites verbose set spellings to their single-letter
// equivalents where the flag record keeps the semantics identical.
func useShorthands() traverser.Visitor {
	v := traverser.Visitor{
		string(ast.CharacterSetNode): {Enter: func(p *traverser.Path, _ any) error {
			set, ok := p.Node.(*ast.CharacterSet)
			if !ok {
				return nil
			}
			flags := rootFlags(p)
			replace := func(kind ast.SetKind) error {
				return p.ReplaceWith(&ast.CharacterSet{Kind: kind, Negate: set.Negate}, true)
			}
			switch set.Kind {
			case ast.SetProperty:
				switch set.Value {
				case "Decimal_Number":
					if !flags.DigitIsAscii && !flags.PosixIsAscii {
						return replace(ast.SetDigit)
					}
				case "ASCII_Hex_Digit":
					return replace(ast.SetHex)
				case "White_Space":
					if !flags.SpaceIsAscii && !flags.PosixIsAscii {
						return replace(ast.SetSpace)
					}
				case "cntrl":
					if !flags.PosixIsAscii && !set.Negate {
						return p.ReplaceWith(&ast.CharacterSet{Kind: ast.SetProperty, Value: "Cc"}, true)
					}
				}
			case ast.SetPosix:
				// digit, xdigit and space rewrite regardless of the
				// ASCII flags: the replacement shifts with the same
				// flags. cntrl becomes \p{Cc} only without posixIsAscii.
				switch set.Value {
				case "digit":
					return replace(ast.SetDigit)
				case "xdigit":
					return replace(ast.SetHex)
				case "space":
					return replace(ast.SetSpace)
				case "cntrl":
					if !flags.PosixIsAscii && !set.Negate {
						return p.ReplaceWith(&ast.CharacterSet{Kind: ast.SetProperty, Value: "Cc"}, true)
					}
				}
			}
			return nil
		}},
	}
	class := classEnter(func(p *traverser.Path, cc *ast.CharacterClass) error {
		if cc.Kind != ast.ClassUnion {
			return nil
		}
		flags := rootFlags(p)
		rewriteHexTrio(cc)
		rewriteFullRange(cc)
		if !flags.WordIsAscii && !flags.PosixIsAscii {
			rewriteWordProperties(cc)
		}
		return nil
	})
	v[string(ast.CharacterClassNode)] = class[string(ast.CharacterClassNode)]
	return v
}

// rewriteHexTrio replaces the 0-9, A-F, a-f range trio with \h.
func rewriteHexTrio(cc *ast.CharacterClass) {
	digits, upper, lower := -1, -1, -1
	for i, el := range cc.Elements {
		switch {
		case digits < 0 && isRange(el, '0', '9'):
			digits = i
		case upper < 0 && isRange(el, 'A', 'F'):
			upper = i
		case lower < 0 && isRange(el, 'a', 'f'):
			lower = i
		}
	}
	if digits < 0 || upper < 0 || lower < 0 {
		return
	}
	removeIndices(cc, digits, upper, lower)
	cc.Elements = append(cc.Elements, &ast.CharacterSet{Kind: ast.SetHex})
}

// rewriteFullRange replaces a 0-0x10FFFF range with \p{Any}.
func rewriteFullRange(cc *ast.CharacterClass) {
	for i, el := range cc.Elements {
		if isRange(el, 0, ast.MaxCodePoint) {
			removeIndices(cc, i)
			cc.Elements = append(cc.Elements, &ast.CharacterSet{Kind: ast.SetProperty, Value: "Any"})
			return
		}
	}
}

// rewriteWordProperties replaces properties covering L, M, N and Pc
// with \w. P is accepted for Pc as its supercategory.
func rewriteWordProperties(cc *ast.CharacterClass) {
	letter, mark, number, connector := -1, -1, -1, -1
	for i, el := range cc.Elements {
		switch {
		case letter < 0 && matchesProperty(el, "Letter", "L"):
			letter = i
		case mark < 0 && matchesProperty(el, "Mark", "M"):
			mark = i
		case number < 0 && matchesProperty(el, "Number", "N"):
			number = i
		case connector < 0 && matchesProperty(el, "Connector_Punctuation", "Pc", "Punctuation", "P"):
			connector = i
		}
	}
	if letter < 0 || mark < 0 || number < 0 || connector < 0 {
		return
	}
	removeIndices(cc, letter, mark, number, connector)
	cc.Elements = append(cc.Elements, &ast.CharacterSet{Kind: ast.SetWord})
}

func removeIndices(cc *ast.CharacterClass, indices ...int) {
	drop := make(map[int]bool, len(indices))
	for _, i := range indices {
		drop[i] = true
	}
	kept := cc.Elements[:0:0]
	for i, el := range cc.Elements {
		if !drop[i] {
			kept = append(kept, el)
		}
	}
	cc.Elements = kept
}

// useUnicodeAliases rewrites canonical property names to their short
// aliases.
func useUnicodeAliases() traverser.Visitor {
	return traverser.Visitor{
		string(ast.CharacterSetNode): {Enter: func(p *traverser.Path, _ any) error {
			set, ok := p.Node.(*ast.CharacterSet)
			if !ok || set.Kind != ast.SetProperty {
				return nil
			}
			if alias, ok := uniprops.ShortAlias(set.Value); ok && alias != set.Value {
				set.Value = alias
			}
			return nil
		}},
	}
}

// stripExtended drops the x flag from a modifier set; free-spacing has
// no meaning once the pattern is parsed.
func stripExtended(fs *ast.FlagSet) *ast.FlagSet {
	if fs.IsZero() || !fs.Extended {
		return fs
	}
	stripped := *fs
	stripped.Extended = false
	if stripped.IsZero() {
		return nil
	}
	return &stripped
}

// removeUselessFlags strips extended-mode modifiers from flag groups
// and directives, dropping directives that end up empty.
func removeUselessFlags() traverser.Visitor {
	return traverser.Visitor{
		string(ast.DirectiveNode): {Enter: func(p *traverser.Path, _ any) error {
			d, ok := p.Node.(*ast.Directive)
			if !ok || d.Kind != ast.DirectiveFlags || d.Flags.IsZero() {
				return nil
			}
			enable := stripExtended(d.Flags.Enable)
			disable := stripExtended(d.Flags.Disable)
			if enable == d.Flags.Enable && disable == d.Flags.Disable {
				return nil
			}
			if enable.IsZero() && disable.IsZero() {
				return p.Remove()
			}
			d.Flags = &ast.FlagGroupModifiers{Enable: enable, Disable: disable}
			return nil
		}},
		string(ast.GroupNode): {Enter: func(p *traverser.Path, _ any) error {
			g, ok := p.Node.(*ast.Group)
			if !ok || g.Flags.IsZero() {
				return nil
			}
			enable := stripExtended(g.Flags.Enable)
			disable := stripExtended(g.Flags.Disable)
			if enable == g.Flags.Enable && disable == g.Flags.Disable {
				return nil
			}
			if enable.IsZero() && disable.IsZero() {
				g.Flags = nil
				return nil
			}
			g.Flags = &ast.FlagGroupModifiers{Enable: enable, Disable: disable}
			return nil
		}},
	}
}
