package program

import "fmt"

// Check statically verifies a program tree (skeleton or bound) against the
// operation table: child counts, argument counts and child output types.
// It returns the tree's output type. Parameter references are fine anywhere
// except the operand-type tag of equal(), which must be a literal because it
// participates in typing.
func Check(n *Node) (ValueType, error) {
	if len(n.Args) != n.Op.ArgCount() {
		return 0, fmt.Errorf("%s: want %d args, have %d", n.Op, n.Op.ArgCount(), len(n.Args))
	}
	if len(n.Children) != n.Op.Arity() {
		return 0, fmt.Errorf("%s: want %d children, have %d", n.Op, n.Op.Arity(), len(n.Children))
	}

	childTypes := make([]ValueType, len(n.Children))
	for i, c := range n.Children {
		t, err := Check(c)
		if err != nil {
			return 0, err
		}
		childTypes[i] = t
	}

	if n.Op.Polymorphic() {
		tag := n.Args[0]
		if tag.Param != "" {
			return 0, fmt.Errorf("%s: operand type tag must be a literal, got $%s", n.Op, tag.Param)
		}
		want, err := ParseOperandType(tag.Literal)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", n.Op, err)
		}
		for i, t := range childTypes {
			if t != want {
				return 0, fmt.Errorf("%s: operand %d is %s, want %s", n.Op, i, t, want)
			}
		}
		return n.Op.Output(), nil
	}

	for i, t := range childTypes {
		if t != n.Op.ChildType(i) {
			return 0, fmt.Errorf("%s: child %d is %s, want %s", n.Op, i, t, n.Op.ChildType(i))
		}
	}
	return n.Op.Output(), nil
}
