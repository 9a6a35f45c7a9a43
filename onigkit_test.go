package onigkit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onigkit/onigkit/ast"
	"github.com/onigkit/onigkit/traverser"
)

func TestPipeline(t *testing.T) {
	re, err := Parse(`(?<word>\p{Letter}+)`, nil)
	require.NoError(t, err)

	var names []string
	err = Traverse(re, nil, traverser.Visitor{
		string(ast.CapturingGroupNode): {Enter: func(p *traverser.Path, _ any) error {
			names = append(names, p.Node.(*ast.CapturingGroup).Name)
			return nil
		}},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"word"}, names)

	generated, err := Generate(re)
	require.NoError(t, err)
	assert.Equal(t, `(?<word>\p{Letter}+)`, generated.Pattern)

	optimized, err := Optimize(`\p{Decimal_Number}+`, nil)
	require.NoError(t, err)
	assert.Equal(t, `\d+`, optimized.Pattern)
}
