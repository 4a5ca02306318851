package program

import "fmt"

// Op enumerates the closed operation set. Every op has a declared child
// signature and output type (see table below); the interpreter dispatches
// over this enum exhaustively, so an op without an evaluation rule cannot
// exist.
type Op uint8

const (
	OpScene Op = iota
	OpFilter
	OpUnique
	OpRelate
	OpUnion
	OpIntersect
	OpCount
	OpExist
	OpQuery
	OpSame
	OpEqual
	OpGreaterThan
	OpLessThan

	opCount // slice sentinel, keep last
)

// opSpec declares the static shape of one operation.
type opSpec struct {
	name     string
	children []ValueType // expected output type of each child, in order
	args     int         // operation arguments (attribute names, values, labels)
	out      ValueType
	// polymorphic marks equal(), whose operand type is declared by its
	// argument rather than fixed in the table.
	polymorphic bool
}

var opSpecs = [opCount]opSpec{
	OpScene:       {name: "scene", out: TypeObjectSet},
	OpFilter:      {name: "filter", children: []ValueType{TypeObjectSet}, args: 2, out: TypeObjectSet},
	OpUnique:      {name: "unique", children: []ValueType{TypeObjectSet}, out: TypeEntity},
	OpRelate:      {name: "relate", children: []ValueType{TypeEntity}, args: 1, out: TypeObjectSet},
	OpUnion:       {name: "union", children: []ValueType{TypeObjectSet, TypeObjectSet}, out: TypeObjectSet},
	OpIntersect:   {name: "intersect", children: []ValueType{TypeObjectSet, TypeObjectSet}, out: TypeObjectSet},
	OpCount:       {name: "count", children: []ValueType{TypeObjectSet}, out: TypeInteger},
	OpExist:       {name: "exist", children: []ValueType{TypeObjectSet}, out: TypeBoolean},
	OpQuery:       {name: "query", children: []ValueType{TypeEntity}, args: 1, out: TypeAttribute},
	OpSame:        {name: "same", children: []ValueType{TypeEntity}, args: 1, out: TypeObjectSet},
	OpEqual:       {name: "equal", children: []ValueType{0, 0}, args: 1, out: TypeBoolean, polymorphic: true},
	OpGreaterThan: {name: "greater_than", children: []ValueType{TypeInteger, TypeInteger}, out: TypeBoolean},
	OpLessThan:    {name: "less_than", children: []ValueType{TypeInteger, TypeInteger}, out: TypeBoolean},
}

var opsByName = func() map[string]Op {
	m := make(map[string]Op, opCount)
	for op := Op(0); op < opCount; op++ {
		m[opSpecs[op].name] = op
	}
	return m
}()

// ParseOp resolves an operation name from a template definition.
func ParseOp(name string) (Op, error) {
	op, ok := opsByName[name]
	if !ok {
		return 0, fmt.Errorf("unknown operation %q", name)
	}
	return op, nil
}

func (op Op) String() string {
	if op >= opCount {
		return fmt.Sprintf("op(%d)", op)
	}
	return opSpecs[op].name
}

// Arity returns the number of children the operation takes.
func (op Op) Arity() int { return len(opSpecs[op].children) }

// ArgCount returns the number of operation arguments it takes.
func (op Op) ArgCount() int { return opSpecs[op].args }

// Output returns the declared output type.
func (op Op) Output() ValueType { return opSpecs[op].out }

// ChildType returns the declared output type required of child i.
// For equal() the operand type is derived from the node argument instead;
// callers must consult Polymorphic first.
func (op Op) ChildType(i int) ValueType { return opSpecs[op].children[i] }

// Polymorphic reports whether the operand types come from the node argument
// (true only for equal).
func (op Op) Polymorphic() bool { return opSpecs[op].polymorphic }

// ParseOperandType resolves the operand type tag carried by equal():
// "integer", "attribute_value" or "boolean".
func ParseOperandType(tag string) (ValueType, error) {
	switch tag {
	case "integer":
		return TypeInteger, nil
	case "attribute_value":
		return TypeAttribute, nil
	case "boolean":
		return TypeBoolean, nil
	default:
		return 0, fmt.Errorf("unknown operand type %q", tag)
	}
}
