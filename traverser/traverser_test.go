package traverser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onigkit/onigkit/ast"
	"github.com/onigkit/onigkit/parser"
)

func mustParse(t *testing.T, pattern string) *ast.Regex {
	t.Helper()
	re, err := parser.Parse(pattern, nil)
	require.NoError(t, err)
	return re
}

func charNode(t *testing.T, value rune) *ast.Character {
	t.Helper()
	ch, err := ast.NewCharacter(value, nil)
	require.NoError(t, err)
	return ch
}

func TestVisitOrder(t *testing.T) {
	re := mustParse(t, "a(b)")

	var events []string
	record := func(tag string) VisitFn {
		return func(p *Path, _ any) error {
			events = append(events, tag+":"+string(p.Node.Type()))
			return nil
		}
	}

	err := Traverse(re, nil, Visitor{
		Wildcard: {
			Enter: record("enter"),
			Exit:  record("exit"),
		},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"enter:Regex",
		"enter:Pattern",
		"enter:Alternative",
		"enter:Character",
		"exit:Character",
		"enter:CapturingGroup",
		"enter:Alternative",
		"enter:Character",
		"exit:Character",
		"exit:Alternative",
		"exit:CapturingGroup",
		"exit:Alternative",
		"exit:Pattern",
		"enter:Flags",
		"exit:Flags",
		"exit:Regex",
	}, events)
}

func TestWildcardAndTypedDispatchOrder(t *testing.T) {
	re := mustParse(t, "a")

	var events []string
	err := Traverse(re, nil, Visitor{
		Wildcard: {
			Enter: func(p *Path, _ any) error {
				if p.Node.Type() == ast.CharacterNode {
					events = append(events, "wildcard-enter:"+string(p.Node.Type()))
				}
				return nil
			},
			Exit: func(p *Path, _ any) error {
				if p.Node.Type() == ast.CharacterNode {
					events = append(events, "wildcard-exit:"+string(p.Node.Type()))
				}
				return nil
			},
		},
		string(ast.CharacterNode): {
			Enter: func(p *Path, _ any) error {
				events = append(events, "typed-enter")
				return nil
			},
			Exit: func(p *Path, _ any) error {
				events = append(events, "typed-exit")
				return nil
			},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"wildcard-enter:Character", "typed-enter",
		"typed-exit", "wildcard-exit:Character",
	}, events, "wildcard enters first, exits last for the typed node")
}

func TestStateIsPassedThrough(t *testing.T) {
	re := mustParse(t, "abc")
	type counter struct{ n int }
	state := &counter{}

	err := Traverse(re, state, Visitor{
		string(ast.CharacterNode): {Enter: func(p *Path, s any) error {
			s.(*counter).n++
			return nil
		}},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, state.n)
}

func TestSkip(t *testing.T) {
	re := mustParse(t, "(ab)c")

	var visited []rune
	err := Traverse(re, nil, Visitor{
		string(ast.CapturingGroupNode): {Enter: func(p *Path, _ any) error {
			p.Skip()
			return nil
		}},
		string(ast.CharacterNode): {Enter: func(p *Path, _ any) error {
			visited = append(visited, p.Node.(*ast.Character).Value)
			return nil
		}},
	})
	require.NoError(t, err)
	assert.Equal(t, []rune{'c'}, visited, "skipped group's children are not visited")
}

func TestReplaceWith(t *testing.T) {
	re := mustParse(t, "ab")

	err := Traverse(re, nil, Visitor{
		string(ast.CharacterNode): {Enter: func(p *Path, _ any) error {
			if p.Node.(*ast.Character).Value == 'a' {
				return p.ReplaceWith(&ast.CharacterSet{Kind: ast.SetDigit}, false)
			}
			return nil
		}},
	})
	require.NoError(t, err)

	alt := re.Pattern.Alternatives[0].(*ast.Alternative)
	assert.IsType(t, &ast.CharacterSet{}, alt.Elements[0])
	assert.IsType(t, &ast.Character{}, alt.Elements[1])
}

func TestReplaceWithMultipleNoTraverse(t *testing.T) {
	re := mustParse(t, "abc")

	var visited []rune
	err := Traverse(re, nil, Visitor{
		string(ast.CharacterNode): {Enter: func(p *Path, _ any) error {
			ch := p.Node.(*ast.Character)
			visited = append(visited, ch.Value)
			if ch.Value == 'b' {
				return p.ReplaceWithMultiple([]ast.Node{charNode(t, 'x'), charNode(t, 'y')}, false)
			}
			return nil
		}},
	})
	require.NoError(t, err)

	assert.Equal(t, []rune{'a', 'b', 'c'}, visited,
		"inserted nodes are stepped over; following siblings visited exactly once")

	alt := re.Pattern.Alternatives[0].(*ast.Alternative)
	require.Len(t, alt.Elements, 4)
	values := make([]rune, 4)
	for i, el := range alt.Elements {
		values[i] = el.(*ast.Character).Value
	}
	assert.Equal(t, []rune{'a', 'x', 'y', 'c'}, values)
}

func TestReplaceWithMultipleTraverse(t *testing.T) {
	re := mustParse(t, "abc")

	var visited []rune
	err := Traverse(re, nil, Visitor{
		string(ast.CharacterNode): {Enter: func(p *Path, _ any) error {
			ch := p.Node.(*ast.Character)
			visited = append(visited, ch.Value)
			if ch.Value == 'b' {
				return p.ReplaceWithMultiple([]ast.Node{charNode(t, 'x'), charNode(t, 'y')}, false)
			}
			return nil
		}},
	})
	require.NoError(t, err)
	assert.Equal(t, []rune{'a', 'b', 'c'}, visited)

	// Same edit with traverse: the inserted nodes are visited too,
	// immediately after the splice.
	re = mustParse(t, "abc")
	visited = nil
	err = Traverse(re, nil, Visitor{
		string(ast.CharacterNode): {Enter: func(p *Path, _ any) error {
			ch := p.Node.(*ast.Character)
			visited = append(visited, ch.Value)
			if ch.Value == 'b' {
				return p.ReplaceWithMultiple([]ast.Node{charNode(t, 'x'), charNode(t, 'y')}, true)
			}
			return nil
		}},
	})
	require.NoError(t, err)
	assert.Equal(t, []rune{'a', 'b', 'x', 'y', 'c'}, visited)
}

func TestRemove(t *testing.T) {
	re := mustParse(t, "abc")

	var visited []rune
	err := Traverse(re, nil, Visitor{
		string(ast.CharacterNode): {Enter: func(p *Path, _ any) error {
			ch := p.Node.(*ast.Character)
			visited = append(visited, ch.Value)
			if ch.Value == 'b' {
				return p.Remove()
			}
			return nil
		}},
	})
	require.NoError(t, err)

	assert.Equal(t, []rune{'a', 'b', 'c'}, visited, "removal resumes at the former next sibling")
	alt := re.Pattern.Alternatives[0].(*ast.Alternative)
	require.Len(t, alt.Elements, 2)
}

func TestRemoveSkipsExitCallbacks(t *testing.T) {
	re := mustParse(t, "a")

	var exits int
	err := Traverse(re, nil, Visitor{
		string(ast.CharacterNode): {
			Enter: func(p *Path, _ any) error { return p.Remove() },
			Exit: func(p *Path, _ any) error {
				exits++
				return nil
			},
		},
	})
	require.NoError(t, err)
	assert.Zero(t, exits)
}

func TestRemoveAllPrevSiblings(t *testing.T) {
	re := mustParse(t, "abcd")

	var visited []rune
	err := Traverse(re, nil, Visitor{
		string(ast.CharacterNode): {Enter: func(p *Path, _ any) error {
			ch := p.Node.(*ast.Character)
			visited = append(visited, ch.Value)
			if ch.Value == 'c' {
				return p.RemoveAllPrevSiblings()
			}
			return nil
		}},
	})
	require.NoError(t, err)

	assert.Equal(t, []rune{'a', 'b', 'c', 'd'}, visited)
	alt := re.Pattern.Alternatives[0].(*ast.Alternative)
	require.Len(t, alt.Elements, 2)
	assert.Equal(t, 'c', alt.Elements[0].(*ast.Character).Value)
}

func TestRemoveAllNextSiblings(t *testing.T) {
	re := mustParse(t, "abcd")

	var visited []rune
	err := Traverse(re, nil, Visitor{
		string(ast.CharacterNode): {Enter: func(p *Path, _ any) error {
			ch := p.Node.(*ast.Character)
			visited = append(visited, ch.Value)
			if ch.Value == 'b' {
				return p.RemoveAllNextSiblings()
			}
			return nil
		}},
	})
	require.NoError(t, err)

	assert.Equal(t, []rune{'a', 'b'}, visited)
	alt := re.Pattern.Alternatives[0].(*ast.Alternative)
	require.Len(t, alt.Elements, 2)
}

// Unwrapping nested groups into their parent alternative while
// traversing the inserted nodes flattens the whole chain in one walk.
func TestGroupUnwrappingCascade(t *testing.T) {
	re, err := parser.Parse("(?:a(?:b))", nil)
	require.NoError(t, err)

	err = Traverse(re, nil, Visitor{
		string(ast.GroupNode): {Enter: func(p *Path, _ any) error {
			g := p.Node.(*ast.Group)
			alt := g.Alternatives[0].(*ast.Alternative)
			return p.ReplaceWithMultiple(alt.Elements, true)
		}},
	})
	require.NoError(t, err)

	alt := re.Pattern.Alternatives[0].(*ast.Alternative)
	require.Len(t, alt.Elements, 2)
	first, ok := alt.Elements[0].(*ast.Character)
	require.True(t, ok)
	assert.Equal(t, 'a', first.Value)
	second, ok := alt.Elements[1].(*ast.Character)
	require.True(t, ok)
	assert.Equal(t, 'b', second.Value)
}

func TestMutationOutsideContainerFails(t *testing.T) {
	re := mustParse(t, "a*")

	err := Traverse(re, nil, Visitor{
		string(ast.CharacterNode): {Enter: func(p *Path, _ any) error {
			// The quantifier's element is a single-child slot.
			return p.Remove()
		}},
	})
	assert.ErrorIs(t, err, ast.ErrInvariant)
}

func TestReplaceSingleChildSlot(t *testing.T) {
	re := mustParse(t, "a*")

	err := Traverse(re, nil, Visitor{
		string(ast.CharacterNode): {Enter: func(p *Path, _ any) error {
			return p.ReplaceWith(&ast.CharacterSet{Kind: ast.SetDigit}, false)
		}},
	})
	require.NoError(t, err)

	alt := re.Pattern.Alternatives[0].(*ast.Alternative)
	q := alt.Elements[0].(*ast.Quantifier)
	assert.IsType(t, &ast.CharacterSet{}, q.Element)
}

func TestPathMetadata(t *testing.T) {
	re := mustParse(t, "ab")

	err := Traverse(re, nil, Visitor{
		string(ast.CharacterNode): {Enter: func(p *Path, _ any) error {
			assert.Equal(t, re, p.Root)
			assert.Equal(t, "elements", p.Key)
			assert.IsType(t, &ast.Alternative{}, p.Parent)
			assert.Len(t, p.Container(), 2)
			if p.Node.(*ast.Character).Value == 'b' {
				assert.Equal(t, 1, p.Index)
			}
			return nil
		}},
	})
	require.NoError(t, err)
}
