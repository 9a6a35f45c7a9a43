package config

// The transform-selector expression language used by profiles, e.g.
// "all - alternation-to-class" or "use-shorthands + unwrap-classes".
// Operators must be separated from names by whitespace, since names
// themselves are kebab-case.

import (
	"fmt"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/onigkit/onigkit/optimizer"
)

// selectorExpr is the root of a selector expression.
type selectorExpr struct {
	First *selectorTerm `parser:"@@"`
	Rest  []*selectorOp `parser:"@@*"`
}

type selectorOp struct {
	Operator string        `parser:"@('+' | '-')"`
	Term     *selectorTerm `parser:"@@"`
}

// selectorTerm is a transform name or the keywords all/none.
type selectorTerm struct {
	Name string `parser:"@Ident"`
}

var selectorParser = participle.MustBuild[selectorExpr](
	participle.Lexer(lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Ident", Pattern: `[a-zA-Z][a-zA-Z0-9]*(?:-[a-zA-Z][a-zA-Z0-9]*)*`},
		{Name: "Punct", Pattern: `[+-]`},
		{Name: "Whitespace", Pattern: `\s+`},
	})),
	participle.Elide("Whitespace"),
)

// Selector is a parsed transform-selector expression.
type Selector struct {
	expr *selectorExpr
}

// ParseSelector parses a selector expression.
func ParseSelector(input string) (*Selector, error) {
	expr, err := selectorParser.ParseString("", input)
	if err != nil {
		return nil, fmt.Errorf("failed to parse selector %q: %w", input, err)
	}
	return &Selector{expr: expr}, nil
}

// AllowList resolves an allow expression: a plain sum of transform
// names. Keywords and subtraction have no place in a whitelist.
func (s *Selector) AllowList() ([]string, error) {
	terms := []*selectorTerm{s.expr.First}
	for _, op := range s.expr.Rest {
		if op.Operator != "+" {
			return nil, fmt.Errorf("allow expressions cannot subtract (%q)", op.Term.Name)
		}
		terms = append(terms, op.Term)
	}
	names := make([]string, 0, len(terms))
	for _, t := range terms {
		if t.Name == "all" || t.Name == "none" {
			return nil, fmt.Errorf("keyword %q is not valid in an allow expression", t.Name)
		}
		names = append(names, t.Name)
	}
	return names, nil
}

// OverrideMap resolves an override expression against the default
// transform set. The first term may be "all", "none" or a name; later
// terms toggle individual transforms on (+) or off (-).
func (s *Selector) OverrideMap() map[string]bool {
	override := make(map[string]bool)
	switch s.expr.First.Name {
	case "all":
		for name := range optimizer.GetOptionalOptimizations(nil) {
			override[name] = true
		}
	case "none":
		for name := range optimizer.GetOptionalOptimizations(nil) {
			override[name] = false
		}
	default:
		override[s.expr.First.Name] = true
	}
	for _, op := range s.expr.Rest {
		override[op.Term.Name] = op.Operator == "+"
	}
	return override
}
