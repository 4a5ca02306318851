package program

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Arg is one operation argument: either a bound literal or a reference to a
// free template parameter (written "$name" in template definitions).
type Arg struct {
	Literal string
	Param   string // non-empty for an unresolved parameter reference
}

// ParseArg interprets an argument string from a template definition.
func ParseArg(s string) Arg {
	if strings.HasPrefix(s, "$") {
		return Arg{Param: strings.TrimPrefix(s, "$")}
	}
	return Arg{Literal: s}
}

func (a Arg) bound() bool { return a.Param == "" }

func (a Arg) String() string {
	if !a.bound() {
		return "$" + a.Param
	}
	return a.Literal
}

// Node is one operation in a program tree. A template's skeleton contains
// nodes with unresolved Args; a Bound program has every Arg resolved to a
// literal. Nodes are never mutated after construction: Bind produces a deep
// copy.
type Node struct {
	Op       Op
	Label    string // optional template-declared handle for constraints
	Args     []Arg
	Children []*Node
}

// Params returns the free parameter names referenced in the subtree, in
// traversal (pre-order, argument-order) sequence, deduplicated.
func (n *Node) Params() []string {
	var out []string
	seen := make(map[string]struct{})
	n.walk(func(m *Node) {
		for _, a := range m.Args {
			if a.bound() {
				continue
			}
			if _, dup := seen[a.Param]; dup {
				continue
			}
			seen[a.Param] = struct{}{}
			out = append(out, a.Param)
		}
	})
	return out
}

// FullyBound reports whether the subtree rooted at n, with the given partial
// binding applied, has no unresolved parameters left.
func (n *Node) FullyBound(binding map[string]string) bool {
	bound := true
	n.walk(func(m *Node) {
		for _, a := range m.Args {
			if a.bound() {
				continue
			}
			if _, ok := binding[a.Param]; !ok {
				bound = false
			}
		}
	})
	return bound
}

// Bind resolves every parameter reference against the binding and returns a
// new tree of literal nodes. It fails if any referenced parameter is absent.
func (n *Node) Bind(binding map[string]string) (*Node, error) {
	out := &Node{Op: n.Op, Label: n.Label}
	if len(n.Args) > 0 {
		out.Args = make([]Arg, len(n.Args))
		for i, a := range n.Args {
			if a.bound() {
				out.Args[i] = a
				continue
			}
			v, ok := binding[a.Param]
			if !ok {
				return nil, fmt.Errorf("parameter %q unbound", a.Param)
			}
			out.Args[i] = Arg{Literal: v}
		}
	}
	if len(n.Children) > 0 {
		out.Children = make([]*Node, len(n.Children))
		for i, c := range n.Children {
			bc, err := c.Bind(binding)
			if err != nil {
				return nil, err
			}
			out.Children[i] = bc
		}
	}
	return out, nil
}

// Find returns the descendant (or n itself) carrying the given label.
func (n *Node) Find(label string) *Node {
	var found *Node
	n.walk(func(m *Node) {
		if found == nil && m.Label == label {
			found = m
		}
	})
	return found
}

func (n *Node) walk(fn func(*Node)) {
	fn(n)
	for _, c := range n.Children {
		c.walk(fn)
	}
}

// nodeJSON is the serialized form of a node in output records.
type nodeJSON struct {
	Op       string      `json:"op"`
	Args     []string    `json:"args,omitempty"`
	Children []*nodeJSON `json:"children,omitempty"`
}

func (n *Node) toJSON() *nodeJSON {
	out := &nodeJSON{Op: n.Op.String()}
	for _, a := range n.Args {
		out.Args = append(out.Args, a.String())
	}
	for _, c := range n.Children {
		out.Children = append(out.Children, c.toJSON())
	}
	return out
}

// MarshalJSON serializes the tree in the record wire format:
// {"op":"filter","args":["color","red"],"children":[{"op":"scene"}]}.
func (n *Node) MarshalJSON() ([]byte, error) {
	return json.Marshal(n.toJSON())
}

func (n *nodeJSON) toNode() (*Node, error) {
	op, err := ParseOp(n.Op)
	if err != nil {
		return nil, err
	}
	out := &Node{Op: op}
	for _, a := range n.Args {
		out.Args = append(out.Args, ParseArg(a))
	}
	for _, c := range n.Children {
		cn, err := c.toNode()
		if err != nil {
			return nil, err
		}
		out.Children = append(out.Children, cn)
	}
	return out, nil
}

// UnmarshalJSON decodes the record wire format back into a tree.
func (n *Node) UnmarshalJSON(data []byte) error {
	var raw nodeJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	decoded, err := raw.toNode()
	if err != nil {
		return err
	}
	*n = *decoded
	return nil
}
