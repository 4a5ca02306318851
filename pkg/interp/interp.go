// Package interp evaluates bound programs against a scene graph.
//
// Evaluation is bottom-up and strict: every child is evaluated before its
// parent, and the first failure aborts the whole program with an *EvalError.
// There are no partial or default values; a program either yields exactly
// one typed value or a well-defined rejection.
package interp

import (
	"fmt"

	"github.com/J3rome/CLEAR-AQA-Dataset-Generator/pkg/program"
	"github.com/J3rome/CLEAR-AQA-Dataset-Generator/pkg/scene"
)

// Evaluate runs a fully bound program tree against the scene. Unbound
// parameter references and arity mismatches surface as *EvalError with
// ReasonIllFormed; they indicate a caller bug rather than a scene-dependent
// rejection, but are handled uniformly so the search can prune either way.
func Evaluate(n *program.Node, sc *scene.Scene) (program.Value, error) {
	child := make([]program.Value, len(n.Children))
	for i, c := range n.Children {
		v, err := Evaluate(c, sc)
		if err != nil {
			return program.Value{}, err
		}
		child[i] = v
	}

	args, err := literalArgs(n)
	if err != nil {
		return program.Value{}, err
	}

	switch n.Op {
	case program.OpScene:
		all := make([]int, sc.Len())
		for i := range all {
			all[i] = i
		}
		return program.ObjectSet(all), nil

	case program.OpFilter:
		set, err := objectSet(n.Op, child[0])
		if err != nil {
			return program.Value{}, err
		}
		attr, want := args[0], args[1]
		var kept []int
		for _, idx := range set {
			if sc.Entity(idx).Attributes[attr] == want {
				kept = append(kept, idx)
			}
		}
		return program.ObjectSet(kept), nil

	case program.OpUnique:
		set, err := objectSet(n.Op, child[0])
		if err != nil {
			return program.Value{}, err
		}
		if len(set) != 1 {
			return program.Value{}, &EvalError{
				Op:     n.Op,
				Reason: ReasonCardinality,
				Detail: fmt.Sprintf("unique() needs exactly 1 entity, got %d", len(set)),
			}
		}
		return program.EntityValue(set[0]), nil

	case program.OpRelate:
		ent, err := entity(n.Op, child[0])
		if err != nil {
			return program.Value{}, err
		}
		related := sc.Related(ent, args[0])
		out := make([]int, len(related))
		copy(out, related)
		return program.ObjectSet(out), nil

	case program.OpUnion, program.OpIntersect:
		a, err := objectSet(n.Op, child[0])
		if err != nil {
			return program.Value{}, err
		}
		b, err := objectSet(n.Op, child[1])
		if err != nil {
			return program.Value{}, err
		}
		if n.Op == program.OpUnion {
			return program.ObjectSet(mergeUnion(a, b)), nil
		}
		return program.ObjectSet(mergeIntersect(a, b)), nil

	case program.OpCount:
		set, err := objectSet(n.Op, child[0])
		if err != nil {
			return program.Value{}, err
		}
		return program.IntValue(len(set)), nil

	case program.OpExist:
		set, err := objectSet(n.Op, child[0])
		if err != nil {
			return program.Value{}, err
		}
		return program.BoolValue(len(set) > 0), nil

	case program.OpQuery:
		ent, err := entity(n.Op, child[0])
		if err != nil {
			return program.Value{}, err
		}
		v, ok := sc.Entity(ent).Attributes[args[0]]
		if !ok {
			return program.Value{}, &EvalError{
				Op:     n.Op,
				Reason: ReasonUnknownAttribute,
				Detail: fmt.Sprintf("entity %q has no attribute %q", sc.Entity(ent).ID, args[0]),
			}
		}
		return program.AttrValue(v), nil

	case program.OpSame:
		ent, err := entity(n.Op, child[0])
		if err != nil {
			return program.Value{}, err
		}
		want, ok := sc.Entity(ent).Attributes[args[0]]
		if !ok {
			return program.Value{}, &EvalError{
				Op:     n.Op,
				Reason: ReasonUnknownAttribute,
				Detail: fmt.Sprintf("entity %q has no attribute %q", sc.Entity(ent).ID, args[0]),
			}
		}
		var out []int
		for i := 0; i < sc.Len(); i++ {
			if i == ent {
				continue
			}
			if sc.Entity(i).Attributes[args[0]] == want {
				out = append(out, i)
			}
		}
		return program.ObjectSet(out), nil

	case program.OpEqual:
		want, err := program.ParseOperandType(args[0])
		if err != nil {
			return program.Value{}, &EvalError{Op: n.Op, Reason: ReasonIllFormed, Detail: err.Error()}
		}
		for i, v := range child {
			if v.Type != want {
				return program.Value{}, &EvalError{
					Op:     n.Op,
					Reason: ReasonTypeMismatch,
					Detail: fmt.Sprintf("operand %d is %s, want %s", i, v.Type, want),
				}
			}
		}
		switch want {
		case program.TypeInteger:
			return program.BoolValue(child[0].Int == child[1].Int), nil
		case program.TypeBoolean:
			return program.BoolValue(child[0].Bool == child[1].Bool), nil
		default:
			return program.BoolValue(child[0].Attr == child[1].Attr), nil
		}

	case program.OpGreaterThan, program.OpLessThan:
		for i, v := range child {
			if v.Type != program.TypeInteger {
				return program.Value{}, &EvalError{
					Op:     n.Op,
					Reason: ReasonTypeMismatch,
					Detail: fmt.Sprintf("operand %d is %s, want integer", i, v.Type),
				}
			}
		}
		if n.Op == program.OpGreaterThan {
			return program.BoolValue(child[0].Int > child[1].Int), nil
		}
		return program.BoolValue(child[0].Int < child[1].Int), nil
	}

	// Unreachable while Op stays a closed enum.
	return program.Value{}, &EvalError{Op: n.Op, Reason: ReasonIllFormed, Detail: "no evaluation rule"}
}

func literalArgs(n *program.Node) ([]string, error) {
	if len(n.Args) != n.Op.ArgCount() {
		return nil, &EvalError{
			Op:     n.Op,
			Reason: ReasonIllFormed,
			Detail: fmt.Sprintf("want %d args, have %d", n.Op.ArgCount(), len(n.Args)),
		}
	}
	out := make([]string, len(n.Args))
	for i, a := range n.Args {
		if a.Param != "" {
			return nil, &EvalError{
				Op:     n.Op,
				Reason: ReasonIllFormed,
				Detail: fmt.Sprintf("parameter $%s unbound", a.Param),
			}
		}
		out[i] = a.Literal
	}
	return out, nil
}

func objectSet(op program.Op, v program.Value) ([]int, error) {
	if v.Type != program.TypeObjectSet {
		return nil, &EvalError{
			Op:     op,
			Reason: ReasonTypeMismatch,
			Detail: fmt.Sprintf("operand is %s, want object_set", v.Type),
		}
	}
	return v.Set, nil
}

func entity(op program.Op, v program.Value) (int, error) {
	if v.Type != program.TypeEntity {
		return 0, &EvalError{
			Op:     op,
			Reason: ReasonTypeMismatch,
			Detail: fmt.Sprintf("operand is %s, want entity", v.Type),
		}
	}
	return v.Entity, nil
}

// mergeUnion merges two ascending index slices, dropping duplicates.
func mergeUnion(a, b []int) []int {
	out := make([]int, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] < b[j]:
			out = append(out, a[i])
			i++
		case a[i] > b[j]:
			out = append(out, b[j])
			j++
		default:
			out = append(out, a[i])
			i++
			j++
		}
	}
	out = append(out, a[i:]...)
	out = append(out, b[j:]...)
	return out
}

func mergeIntersect(a, b []int) []int {
	var out []int
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] < b[j]:
			i++
		case a[i] > b[j]:
			j++
		default:
			out = append(out, a[i])
			i++
			j++
		}
	}
	return out
}
