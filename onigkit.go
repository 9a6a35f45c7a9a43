// Package onigkit parses Oniguruma regular expressions into an AST,
// walks and mutates that AST with a visitor-driven traverser, rewrites
// it with a catalog of semantics-preserving optimizations, and
// serializes it back to pattern source.
//
// The subpackages carry the implementation; this package re-exposes
// the main entry points for callers that want the whole pipeline.
package onigkit

import (
	"github.com/onigkit/onigkit/ast"
	"github.com/onigkit/onigkit/generator"
	"github.com/onigkit/onigkit/optimizer"
	"github.com/onigkit/onigkit/parser"
	"github.com/onigkit/onigkit/traverser"
)

// Parse builds an AST from pattern source.
func Parse(source string, opts *parser.Options) (*ast.Regex, error) {
	return parser.Parse(source, opts)
}

// Traverse walks an AST with the given visitor.
func Traverse(root ast.Node, state any, visitor traverser.Visitor) error {
	return traverser.Traverse(root, state, visitor)
}

// Optimize parses, optimizes and regenerates a pattern.
func Optimize(pattern string, opts *optimizer.Options) (optimizer.Result, error) {
	return optimizer.Optimize(pattern, opts)
}

// Generate serializes an AST back to pattern source.
func Generate(re *ast.Regex) (generator.Result, error) {
	return generator.Generate(re)
}
