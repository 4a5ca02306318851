package program

import "strings"

// Signature reduces a bound program to a canonical string so that logically
// identical programs collapse to one key. Text pattern and synonym choices
// are not part of the tree, so they never influence the signature. The
// operands of union and intersect are ordered lexicographically by their own
// signatures, which makes commutative reorderings indistinguishable.
func Signature(n *Node) string {
	var b strings.Builder
	writeSignature(&b, n)
	return b.String()
}

func writeSignature(b *strings.Builder, n *Node) {
	b.WriteString(n.Op.String())
	b.WriteByte('(')
	for i, a := range n.Args {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(a.String())
	}
	if len(n.Children) > 0 {
		if len(n.Args) > 0 {
			b.WriteByte(';')
		}
		children := make([]string, len(n.Children))
		for i, c := range n.Children {
			var cb strings.Builder
			writeSignature(&cb, c)
			children[i] = cb.String()
		}
		if n.Op == OpUnion || n.Op == OpIntersect {
			if children[1] < children[0] {
				children[0], children[1] = children[1], children[0]
			}
		}
		b.WriteString(strings.Join(children, ";"))
	}
	b.WriteByte(')')
}
