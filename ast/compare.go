package ast

// NodesEqual compares two AST nodes for structural equality
func NodesEqual(a, b Node) bool {
	if a == nil || b == nil {
		return a == b
	}

	if a.Type() != b.Type() {
		return false
	}

	switch n1 := a.(type) {
	case *Regex:
		n2 := b.(*Regex)
		return NodesEqual(n1.Pattern, n2.Pattern) && NodesEqual(n1.Flags, n2.Flags)
	case *Pattern:
		return nodeListsEqual(n1.Alternatives, b.(*Pattern).Alternatives)
	case *Alternative:
		return nodeListsEqual(n1.Elements, b.(*Alternative).Elements)
	case *Flags:
		return *n1 == *b.(*Flags)
	case *Character:
		return n1.Value == b.(*Character).Value
	case *CharacterClass:
		n2 := b.(*CharacterClass)
		return n1.Kind == n2.Kind && n1.Negate == n2.Negate &&
			nodeListsEqual(n1.Elements, n2.Elements)
	case *CharacterClassRange:
		n2 := b.(*CharacterClassRange)
		return n1.Min.Value == n2.Min.Value && n1.Max.Value == n2.Max.Value
	case *CharacterSet:
		return *n1 == *b.(*CharacterSet)
	case *Assertion:
		return *n1 == *b.(*Assertion)
	case *LookaroundAssertion:
		n2 := b.(*LookaroundAssertion)
		return n1.Kind == n2.Kind && n1.Negate == n2.Negate &&
			nodeListsEqual(n1.Alternatives, n2.Alternatives)
	case *Group:
		n2 := b.(*Group)
		return n1.Atomic == n2.Atomic && modifiersEqual(n1.Flags, n2.Flags) &&
			nodeListsEqual(n1.Alternatives, n2.Alternatives)
	case *CapturingGroup:
		n2 := b.(*CapturingGroup)
		return n1.Number == n2.Number && n1.Name == n2.Name &&
			nodeListsEqual(n1.Alternatives, n2.Alternatives)
	case *AbsentFunction:
		n2 := b.(*AbsentFunction)
		return n1.Kind == n2.Kind && nodeListsEqual(n1.Alternatives, n2.Alternatives)
	case *Backreference:
		n2 := b.(*Backreference)
		return n1.Ref == n2.Ref && n1.Orphan == n2.Orphan
	case *Subroutine:
		return n1.Ref == b.(*Subroutine).Ref
	case *Quantifier:
		n2 := b.(*Quantifier)
		return n1.Kind == n2.Kind && n1.Min == n2.Min && n1.Max == n2.Max &&
			NodesEqual(n1.Element, n2.Element)
	case *Directive:
		n2 := b.(*Directive)
		return n1.Kind == n2.Kind && modifiersEqual(n1.Flags, n2.Flags)
	}

	return false
}

func nodeListsEqual(a, b []Node) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !NodesEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}

func modifiersEqual(a, b *FlagGroupModifiers) bool {
	if a.IsZero() || b.IsZero() {
		return a.IsZero() == b.IsZero()
	}
	return flagSetsEqual(a.Enable, b.Enable) && flagSetsEqual(a.Disable, b.Disable)
}

func flagSetsEqual(a, b *FlagSet) bool {
	if a.IsZero() || b.IsZero() {
		return a.IsZero() == b.IsZero()
	}
	return *a == *b
}
