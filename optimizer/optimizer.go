// Package optimizer rewrites equivalent patterns into smaller or more
// idiomatic forms. It runs a catalog of AST-to-AST transforms to a
// fixed point and serializes the result.
package optimizer

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/onigkit/onigkit/ast"
	"github.com/onigkit/onigkit/generator"
	"github.com/onigkit/onigkit/parser"
	"github.com/onigkit/onigkit/traverser"
)

// DefaultMaxPasses bounds the fixed-point loop.
const DefaultMaxPasses = 20

// Options control an Optimize call.
type Options struct {
	// Flags is the parser flag string.
	Flags string
	// Rules is forwarded to the parser.
	Rules parser.Rules
	// Override forces individual transforms on or off by name.
	Override map[string]bool
	// Allow, when non-nil, whitelists the transforms that may run.
	Allow []string
	// MaxPasses caps the fixed-point loop; 0 means DefaultMaxPasses.
	MaxPasses int
}

// Result is the optimized pattern and its AST.
type Result struct {
	Pattern string
	AST     *ast.Regex
}

// Optimize parses the pattern, runs the active transforms until a full
// pass leaves the generated source unchanged, and returns the result.
func Optimize(pattern string, opts *Options) (Result, error) {
	if opts == nil {
		opts = &Options{}
	}
	re, err := parser.Parse(pattern, &parser.Options{Flags: opts.Flags, Rules: opts.Rules})
	if err != nil {
		return Result{}, err
	}

	active, err := activeTransforms(opts)
	if err != nil {
		return Result{}, err
	}
	visitor := mergeVisitors(active)

	maxPasses := opts.MaxPasses
	if maxPasses <= 0 {
		maxPasses = DefaultMaxPasses
	}

	gen, err := generator.Generate(re)
	if err != nil {
		return Result{}, err
	}
	previous := gen.Pattern

	for pass := 1; pass <= maxPasses; pass++ {
		if err := traverser.Traverse(re, nil, visitor); err != nil {
			return Result{}, err
		}
		gen, err = generator.Generate(re)
		if err != nil {
			return Result{}, err
		}
		log.Debug().
			Int("pass", pass).
			Str("pattern", gen.Pattern).
			Msg("Optimizer pass finished")
		if gen.Pattern == previous {
			return Result{Pattern: gen.Pattern, AST: re}, nil
		}
		previous = gen.Pattern
	}
	return Result{}, fmt.Errorf("%w after %d passes", ast.ErrNonConverging, maxPasses)
}

// GetOptionalOptimizationsOptions tunes GetOptionalOptimizations.
type GetOptionalOptimizationsOptions struct {
	// Disable returns the map with every transform off.
	Disable bool
}

// GetOptionalOptimizations returns the default enable map over the
// transform catalog.
func GetOptionalOptimizations(opts *GetOptionalOptimizationsOptions) map[string]bool {
	enabled := make(map[string]bool, len(registry))
	for _, t := range registry {
		enabled[t.Name] = opts == nil || !opts.Disable
	}
	return enabled
}

// activeTransforms resolves the transform set for a run, in catalog
// order.
func activeTransforms(opts *Options) ([]Transform, error) {
	enabled := GetOptionalOptimizations(nil)
	if opts.Allow != nil {
		enabled = GetOptionalOptimizations(&GetOptionalOptimizationsOptions{Disable: true})
		for _, name := range opts.Allow {
			if _, ok := enabled[name]; !ok {
				return nil, ast.Invariantf("unknown transform %q", name)
			}
			enabled[name] = true
		}
	}
	for name, on := range opts.Override {
		if _, ok := enabled[name]; !ok {
			return nil, ast.Invariantf("unknown transform %q", name)
		}
		enabled[name] = on
	}

	var active []Transform
	for _, t := range registry {
		if enabled[t.Name] {
			active = append(active, t)
		}
	}
	return active, nil
}

// mergeVisitors unions the transform visitors. Per node, each
// transform's callback runs in catalog order; a chain stops when an
// earlier callback removed the node.
func mergeVisitors(transforms []Transform) traverser.Visitor {
	enters := make(map[string][]traverser.VisitFn)
	exits := make(map[string][]traverser.VisitFn)
	for _, t := range transforms {
		for key, cb := range t.Visitor {
			if cb.Enter != nil {
				enters[key] = append(enters[key], cb.Enter)
			}
			if cb.Exit != nil {
				exits[key] = append(exits[key], cb.Exit)
			}
		}
	}

	merged := traverser.Visitor{}
	for key := range enters {
		merged[key] = traverser.Callbacks{Enter: chain(enters[key]), Exit: chain(exits[key])}
	}
	for key := range exits {
		if _, ok := merged[key]; !ok {
			merged[key] = traverser.Callbacks{Exit: chain(exits[key])}
		}
	}
	return merged
}

func chain(fns []traverser.VisitFn) traverser.VisitFn {
	if len(fns) == 0 {
		return nil
	}
	return func(p *traverser.Path, state any) error {
		for _, fn := range fns {
			if p.Removed() {
				return nil
			}
			if err := fn(p, state); err != nil {
				return err
			}
		}
		return nil
	}
}
