// Package traverser walks an AST depth-first with pre-order enter and
// post-order exit callbacks, and provides mutation primitives that stay
// correct while iteration is in progress. Array iteration is driven by
// an explicit cursor that the primitives adjust, so siblings following
// an edit are visited exactly once.
package traverser

import (
	"github.com/onigkit/onigkit/ast"
)

// Wildcard is the visitor key dispatched for every node type.
const Wildcard = "*"

// VisitFn is an enter or exit callback.
type VisitFn func(p *Path, state any) error

// Callbacks pairs the enter and exit functions for one node type.
type Callbacks struct {
	Enter VisitFn
	Exit  VisitFn
}

// Visitor maps node type names (and the wildcard) to callbacks.
type Visitor map[string]Callbacks

// cursor is the explicit iteration state for one array container.
type cursor struct {
	index int
	shift int
}

// Path is the view of the current node handed to callbacks, carrying
// the mutation primitives.
type Path struct {
	// Node is the current node. Mutation primitives keep it in sync.
	Node ast.Node
	// Parent is nil for the traversal root.
	Parent ast.Node
	// Key names the slot in the parent: a field name for single-child
	// links, the container field name for array members.
	Key string
	// Index is the position in the container, -1 for single-child
	// links.
	Index int
	// Root is the node Traverse was called with.
	Root ast.Node

	w   *walker
	cur *cursor

	skipped     bool
	removed     bool
	replaced    bool
	traverseNew bool
}

// Removed reports whether the current node was removed or multi-
// replaced, so chained visitors can stop touching it.
func (p *Path) Removed() bool {
	return p.removed
}

// Container returns the current array container holding this node, or
// nil for single-child links.
func (p *Path) Container() []ast.Node {
	if p.cur == nil {
		return nil
	}
	return getContainer(p.Parent, p.Key)
}

// Skip prevents descent into this node's children. Exit callbacks
// still run.
func (p *Path) Skip() {
	p.skipped = true
}

// ReplaceWith swaps the current node in its parent slot. With traverse
// set, the replacement is visited in full with the active visitor,
// like a node inserted by ReplaceWithMultiple; otherwise only the exit
// callbacks run against it.
func (p *Path) ReplaceWith(n ast.Node, traverse bool) error {
	if n == nil {
		return ast.Invariantf("cannot replace a node with nil")
	}
	if p.Parent == nil {
		return ast.Invariantf("cannot replace the traversal root")
	}
	if p.cur != nil {
		container := getContainer(p.Parent, p.Key)
		container[p.cur.index] = n
	} else if err := setChild(p.Parent, p.Key, n); err != nil {
		return err
	}
	p.Node = n
	p.replaced = true
	p.traverseNew = traverse
	return nil
}

// ReplaceWithMultiple splices the given nodes in place of the current
// node. With traverse set, each inserted node is visited immediately
// with the active visitor; either way the enclosing iteration resumes
// at what was the next sibling.
func (p *Path) ReplaceWithMultiple(nodes []ast.Node, traverse bool) error {
	if p.cur == nil {
		return ast.Invariantf("cannot multi-replace a node outside an array container")
	}
	i := p.cur.index
	container := getContainer(p.Parent, p.Key)
	spliced := make([]ast.Node, 0, len(container)-1+len(nodes))
	spliced = append(spliced, container[:i]...)
	spliced = append(spliced, nodes...)
	spliced = append(spliced, container[i+1:]...)
	if err := setContainer(p.Parent, p.Key, spliced); err != nil {
		return err
	}
	p.removed = true

	if !traverse {
		p.cur.shift = len(nodes) - 1
		return nil
	}

	sub := &cursor{index: i}
	for consumed := 0; consumed < len(nodes); consumed++ {
		sub.shift = 0
		current := getContainer(p.Parent, p.Key)
		if sub.index >= len(current) {
			break
		}
		if err := p.w.visit(current[sub.index], p.Parent, p.Key, sub); err != nil {
			return err
		}
		sub.index += 1 + sub.shift
	}
	p.cur.shift = sub.index - i - 1
	return nil
}

// Remove deletes the current node from its container. Descent and exit
// callbacks are skipped; iteration resumes at the former next sibling.
func (p *Path) Remove() error {
	if p.cur == nil {
		return ast.Invariantf("cannot remove a node outside an array container")
	}
	i := p.cur.index
	container := getContainer(p.Parent, p.Key)
	spliced := append(append([]ast.Node{}, container[:i]...), container[i+1:]...)
	if err := setContainer(p.Parent, p.Key, spliced); err != nil {
		return err
	}
	p.removed = true
	p.cur.shift = -1
	return nil
}

// RemoveAllPrevSiblings deletes every sibling before the current node
// and moves the cursor to position 0.
func (p *Path) RemoveAllPrevSiblings() error {
	if p.cur == nil {
		return ast.Invariantf("cannot remove siblings outside an array container")
	}
	i := p.cur.index
	container := getContainer(p.Parent, p.Key)
	spliced := append([]ast.Node{}, container[i:]...)
	if err := setContainer(p.Parent, p.Key, spliced); err != nil {
		return err
	}
	p.cur.index = 0
	p.Index = 0
	return nil
}

// RemoveAllNextSiblings deletes every sibling after the current node.
func (p *Path) RemoveAllNextSiblings() error {
	if p.cur == nil {
		return ast.Invariantf("cannot remove siblings outside an array container")
	}
	i := p.cur.index
	container := getContainer(p.Parent, p.Key)
	spliced := append([]ast.Node{}, container[:i+1]...)
	return setContainer(p.Parent, p.Key, spliced)
}

type walker struct {
	visitor Visitor
	state   any
	root    ast.Node
}

// Traverse walks the tree rooted at root, dispatching the visitor for
// every node. state is passed through to every callback.
func Traverse(root ast.Node, state any, visitor Visitor) error {
	if root == nil {
		return ast.Invariantf("cannot traverse a nil root")
	}
	w := &walker{visitor: visitor, state: state, root: root}
	return w.visit(root, nil, "", nil)
}

func (w *walker) visit(node ast.Node, parent ast.Node, key string, cur *cursor) error {
	p := &Path{
		Node:   node,
		Parent: parent,
		Key:    key,
		Index:  -1,
		Root:   w.root,
		w:      w,
		cur:    cur,
	}
	if cur != nil {
		p.Index = cur.index
	}

	if cb, ok := w.visitor[Wildcard]; ok && cb.Enter != nil {
		if err := cb.Enter(p, w.state); err != nil {
			return err
		}
	}
	if !p.removed {
		if cb, ok := w.visitor[string(p.Node.Type())]; ok && cb.Enter != nil {
			if err := cb.Enter(p, w.state); err != nil {
				return err
			}
		}
	}

	if p.removed {
		return nil
	}
	if p.replaced && p.traverseNew {
		// The replacement gets its own full visit; this path's exit
		// callbacks do not fire for it.
		return w.visit(p.Node, parent, key, cur)
	}
	if !p.skipped && !p.replaced {
		if err := w.walkChildren(p.Node); err != nil {
			return err
		}
	}
	if cb, ok := w.visitor[string(p.Node.Type())]; ok && cb.Exit != nil {
		if err := cb.Exit(p, w.state); err != nil {
			return err
		}
	}
	if cb, ok := w.visitor[Wildcard]; ok && cb.Exit != nil {
		if err := cb.Exit(p, w.state); err != nil {
			return err
		}
	}
	return nil
}

func (w *walker) walkChildren(node ast.Node) error {
	switch n := node.(type) {
	case *ast.Regex:
		if n.Pattern != nil {
			if err := w.visit(n.Pattern, n, "pattern", nil); err != nil {
				return err
			}
		}
		if n.Flags != nil {
			return w.visit(n.Flags, n, "flags", nil)
		}
		return nil
	case *ast.Pattern:
		return w.walkArray(n, "alternatives")
	case *ast.Alternative:
		return w.walkArray(n, "elements")
	case *ast.CharacterClass:
		return w.walkArray(n, "elements")
	case *ast.Group:
		return w.walkArray(n, "alternatives")
	case *ast.CapturingGroup:
		return w.walkArray(n, "alternatives")
	case *ast.LookaroundAssertion:
		return w.walkArray(n, "alternatives")
	case *ast.AbsentFunction:
		return w.walkArray(n, "alternatives")
	case *ast.CharacterClassRange:
		if err := w.visit(n.Min, n, "min", nil); err != nil {
			return err
		}
		return w.visit(n.Max, n, "max", nil)
	case *ast.Quantifier:
		return w.visit(n.Element, n, "element", nil)
	default:
		// Terminal nodes have no children.
		return nil
	}
}

func (w *walker) walkArray(parent ast.Node, key string) error {
	cur := &cursor{}
	for cur.index = 0; ; cur.index += 1 + cur.shift {
		cur.shift = 0
		container := getContainer(parent, key)
		if cur.index >= len(container) {
			return nil
		}
		if err := w.visit(container[cur.index], parent, key, cur); err != nil {
			return err
		}
	}
}

func getContainer(parent ast.Node, key string) []ast.Node {
	switch p := parent.(type) {
	case *ast.Pattern:
		return p.Alternatives
	case *ast.Alternative:
		return p.Elements
	case *ast.CharacterClass:
		return p.Elements
	case *ast.Group:
		return p.Alternatives
	case *ast.CapturingGroup:
		return p.Alternatives
	case *ast.LookaroundAssertion:
		return p.Alternatives
	case *ast.AbsentFunction:
		return p.Alternatives
	}
	return nil
}

func setContainer(parent ast.Node, key string, nodes []ast.Node) error {
	switch p := parent.(type) {
	case *ast.Pattern:
		p.Alternatives = nodes
	case *ast.Alternative:
		p.Elements = nodes
	case *ast.CharacterClass:
		p.Elements = nodes
	case *ast.Group:
		p.Alternatives = nodes
	case *ast.CapturingGroup:
		p.Alternatives = nodes
	case *ast.LookaroundAssertion:
		p.Alternatives = nodes
	case *ast.AbsentFunction:
		p.Alternatives = nodes
	default:
		return ast.Invariantf("node type %s has no %s container", parent.Type(), key)
	}
	return nil
}

func setChild(parent ast.Node, key string, n ast.Node) error {
	switch p := parent.(type) {
	case *ast.Regex:
		switch key {
		case "pattern":
			pattern, ok := n.(*ast.Pattern)
			if !ok {
				return ast.Invariantf("regex pattern slot needs a Pattern, got %s", n.Type())
			}
			p.Pattern = pattern
		case "flags":
			flags, ok := n.(*ast.Flags)
			if !ok {
				return ast.Invariantf("regex flags slot needs Flags, got %s", n.Type())
			}
			p.Flags = flags
		default:
			return ast.Invariantf("regex has no slot %q", key)
		}
	case *ast.Quantifier:
		switch n.Type() {
		case ast.AssertionNode, ast.DirectiveNode, ast.LookaroundAssertionNode:
			return ast.Invariantf("%s is not quantifiable", n.Type())
		}
		p.Element = n
	case *ast.CharacterClassRange:
		ch, ok := n.(*ast.Character)
		if !ok {
			return ast.Invariantf("range endpoint slot needs a Character, got %s", n.Type())
		}
		if key == "min" {
			p.Min = ch
		} else {
			p.Max = ch
		}
	default:
		return ast.Invariantf("node type %s has no single-child slot %q", parent.Type(), key)
	}
	return nil
}
