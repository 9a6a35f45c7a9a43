package optimizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onigkit/onigkit/ast"
	"github.com/onigkit/onigkit/parser"
)

func optimize(t *testing.T, pattern string, opts *Options) Result {
	t.Helper()
	result, err := Optimize(pattern, opts)
	require.NoError(t, err)
	require.NotNil(t, result.AST)
	return result
}

func TestOptimizeDefaults(t *testing.T) {
	tests := []struct {
		name     string
		pattern  string
		flags    string
		expected string
	}{
		{
			name:     "decimal number property becomes shorthand",
			pattern:  `\p{Decimal_Number}`,
			expected: `\d`,
		},
		{
			name:     "short property spelling becomes shorthand",
			pattern:  `\p{Nd}`,
			expected: `\d`,
		},
		{
			name:     "posix digit becomes shorthand",
			pattern:  `[[:digit:]]`,
			expected: `\d`,
		},
		{
			name:     "digit property is kept under ascii digits",
			pattern:  `\p{Decimal_Number}`,
			flags:    "D",
			expected: `\p{Nd}`,
		},
		{
			name:     "posix digit rewrites even under ascii posix",
			pattern:  `[[:digit:]]`,
			flags:    "P",
			expected: `\d`,
		},
		{
			name:     "hex digit property needs no gate",
			pattern:  `\p{ASCII_Hex_Digit}`,
			flags:    "DSP",
			expected: `\h`,
		},
		{
			name:     "hex range trio fuses and unwraps",
			pattern:  `[0-9A-Fa-f]`,
			expected: `\h`,
		},
		{
			name:     "control posix becomes property",
			pattern:  `[[:cntrl:]]`,
			expected: `\p{Cc}`,
		},
		{
			name:     "full range becomes any property",
			pattern:  `[\x{0}-\x{10FFFF}]`,
			expected: `\p{Any}`,
		},
		{
			name:     "negated digit wrapper flips the set",
			pattern:  `[^\d]`,
			expected: `\D`,
		},
		{
			name:     "negated newline class becomes shorthand",
			pattern:  `[^\n]`,
			expected: `\N`,
		},
		{
			name:     "newline wrapper under greedy quantifier is kept",
			pattern:  `[^\n]{2}`,
			expected: `[^\n]{2}`,
		},
		{
			name:     "newline wrapper under lazy quantifier rewrites",
			pattern:  `[^\n]{2,}?`,
			expected: `\N{2,}?`,
		},
		{
			name:     "nested class flattens and unwraps",
			pattern:  `[[a]]`,
			expected: `a`,
		},
		{
			name:     "double negation cancels",
			pattern:  `[^[^a]]`,
			expected: `a`,
		},
		{
			name:     "single-length alternatives fuse into a class",
			pattern:  `a|b|c`,
			expected: `[abc]`,
		},
		{
			name:     "longer alternatives break the run",
			pattern:  `a|bc|d`,
			expected: `a|bc|d`,
		},
		{
			name:     "duplicate class members collapse",
			pattern:  `[aab]`,
			expected: `[ab]`,
		},
		{
			name:     "extended flag group is stripped",
			pattern:  `(?x:a b)`,
			expected: `(?:ab)`,
		},
		{
			name:     "extended directive is dropped",
			pattern:  `(?x)a b`,
			expected: `ab`,
		},
		{
			name:     "canonical property gets its alias",
			pattern:  `\p{Letter}`,
			expected: `\p{L}`,
		},
		{
			name:     "plain patterns are untouched",
			pattern:  `(?<x>ab)\k<x>`,
			expected: `(?<x>ab)\k<x>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := optimize(t, tt.pattern, &Options{Flags: tt.flags})
			assert.Equal(t, tt.expected, result.Pattern)
		})
	}
}

func TestOptimizeWithAllowList(t *testing.T) {
	// Only use-shorthands: the wrapping class survives.
	result := optimize(t, `[0-9A-Fa-f]`, &Options{Allow: []string{"use-shorthands"}})
	assert.Equal(t, `[\h]`, result.Pattern)

	result = optimize(t, `[\p{L}\p{M}\p{N}\p{Pc}]`, &Options{Allow: []string{"use-shorthands"}})
	assert.Equal(t, `[\w]`, result.Pattern)

	result = optimize(t, `[[a]]`, &Options{Allow: []string{"unnest-useless-classes"}})
	assert.Equal(t, `[a]`, result.Pattern)

	// A transform outside the allow list does not run.
	result = optimize(t, `a|b`, &Options{Allow: []string{"use-shorthands"}})
	assert.Equal(t, `a|b`, result.Pattern)
}

func TestWordFusionFlagGates(t *testing.T) {
	pattern := `[\p{L}\p{M}\p{N}\p{Pc}]`

	result := optimize(t, pattern, &Options{Allow: []string{"use-shorthands"}, Flags: "W"})
	assert.NotEqual(t, `[\w]`, result.Pattern, "wordIsAscii blocks the fusion")

	result = optimize(t, pattern, &Options{Allow: []string{"use-shorthands"}, Flags: "P"})
	assert.NotEqual(t, `[\w]`, result.Pattern, "posixIsAscii blocks the fusion")
}

func TestOptimizeWithOverride(t *testing.T) {
	result := optimize(t, `[^\d]`, &Options{
		Override: map[string]bool{"unwrap-negation-wrappers": false},
	})
	assert.Equal(t, `[^\d]`, result.Pattern)

	_, err := Optimize(`a`, &Options{Override: map[string]bool{"no-such-transform": true}})
	assert.ErrorIs(t, err, ast.ErrInvariant)

	_, err = Optimize(`a`, &Options{Allow: []string{"no-such-transform"}})
	assert.ErrorIs(t, err, ast.ErrInvariant)
}

func TestOptimizeIdempotence(t *testing.T) {
	patterns := []string{
		`\p{Decimal_Number}`,
		`[0-9A-Fa-f]`,
		`[^\n]`,
		`[[a]]`,
		`a|b|c`,
		`(?x:a b)`,
		`(?<x>ab)\k<x>`,
		`[a-z&&[^aeiou]]`,
	}

	for _, pattern := range patterns {
		t.Run(pattern, func(t *testing.T) {
			once := optimize(t, pattern, nil)
			twice := optimize(t, once.Pattern, nil)
			assert.Equal(t, once.Pattern, twice.Pattern)
		})
	}
}

func TestOptimizePreservesCaptures(t *testing.T) {
	result := optimize(t, `(a)(?<x1>b|c)\k<x1>`, &Options{Rules: parser.Rules{CaptureGroup: true}})

	var groups []*ast.CapturingGroup
	var collect func(n ast.Node)
	collect = func(n ast.Node) {
		switch node := n.(type) {
		case *ast.Regex:
			collect(node.Pattern)
		case *ast.Pattern:
			for _, alt := range node.Alternatives {
				collect(alt)
			}
		case *ast.Alternative:
			for _, el := range node.Elements {
				collect(el)
			}
		case *ast.CapturingGroup:
			groups = append(groups, node)
			for _, alt := range node.Alternatives {
				collect(alt)
			}
		case *ast.Quantifier:
			collect(node.Element)
		}
	}
	collect(result.AST)

	require.Len(t, groups, 2)
	assert.Equal(t, 1, groups[0].Number)
	assert.Equal(t, 2, groups[1].Number)
	assert.Equal(t, "x1", groups[1].Name)
}

func TestOptimizePreservesFlags(t *testing.T) {
	result := optimize(t, `\p{Decimal_Number}`, &Options{Flags: "iD"})
	assert.True(t, result.AST.Flags.IgnoreCase)
	assert.True(t, result.AST.Flags.DigitIsAscii)
}

func TestOptimizePassCeiling(t *testing.T) {
	// One pass is not enough to see the rewrite settle, so the
	// orchestrator reports non-convergence instead of returning a
	// result it never re-checked.
	_, err := Optimize(`a|b`, &Options{MaxPasses: 1})
	assert.ErrorIs(t, err, ast.ErrNonConverging)

	result := optimize(t, `a|b`, &Options{MaxPasses: 2})
	assert.Equal(t, `[ab]`, result.Pattern)
}

func TestOptimizeParseErrorsPropagate(t *testing.T) {
	_, err := Optimize("(a", nil)
	assert.ErrorIs(t, err, ast.ErrSyntax)
}

func TestGetOptionalOptimizations(t *testing.T) {
	defaults := GetOptionalOptimizations(nil)
	assert.NotEmpty(t, defaults)
	for name, on := range defaults {
		assert.True(t, on, "transform %q should default on", name)
	}

	disabled := GetOptionalOptimizations(&GetOptionalOptimizationsOptions{Disable: true})
	assert.Equal(t, len(defaults), len(disabled))
	for name, on := range disabled {
		assert.False(t, on, "transform %q should be off", name)
	}
}
