package program

import (
	"fmt"
	"strconv"
	"strings"
)

// ValueType enumerates the closed set of types a program value can have.
type ValueType uint8

const (
	TypeObjectSet ValueType = iota
	TypeEntity
	TypeInteger
	TypeBoolean
	TypeAttribute
)

func (t ValueType) String() string {
	switch t {
	case TypeObjectSet:
		return "object_set"
	case TypeEntity:
		return "entity"
	case TypeInteger:
		return "integer"
	case TypeBoolean:
		return "boolean"
	case TypeAttribute:
		return "attribute_value"
	default:
		return fmt.Sprintf("value_type(%d)", t)
	}
}

// Value is the tagged variant produced by evaluating a program node.
// Exactly one payload field is meaningful, selected by Type.
type Value struct {
	Type ValueType

	Set    []int // TypeObjectSet: ascending entity indices
	Entity int   // TypeEntity
	Int    int   // TypeInteger
	Bool   bool  // TypeBoolean
	Attr   string
}

// ObjectSet wraps entity indices as an ObjectSet value. The slice must
// already be in ascending order with no duplicates.
func ObjectSet(indices []int) Value { return Value{Type: TypeObjectSet, Set: indices} }

// EntityValue wraps an entity index.
func EntityValue(i int) Value { return Value{Type: TypeEntity, Entity: i} }

// IntValue wraps an integer.
func IntValue(n int) Value { return Value{Type: TypeInteger, Int: n} }

// BoolValue wraps a boolean.
func BoolValue(b bool) Value { return Value{Type: TypeBoolean, Bool: b} }

// AttrValue wraps an attribute value.
func AttrValue(v string) Value { return Value{Type: TypeAttribute, Attr: v} }

// Answer renders the value as the literal answer string used in output
// records: "2", "true", "red". ObjectSet and Entity values are intermediate
// only and never surface as answers.
func (v Value) Answer() string {
	switch v.Type {
	case TypeInteger:
		return strconv.Itoa(v.Int)
	case TypeBoolean:
		return strconv.FormatBool(v.Bool)
	case TypeAttribute:
		return v.Attr
	case TypeEntity:
		return fmt.Sprintf("entity(%d)", v.Entity)
	case TypeObjectSet:
		parts := make([]string, len(v.Set))
		for i, idx := range v.Set {
			parts[i] = strconv.Itoa(idx)
		}
		return "{" + strings.Join(parts, ",") + "}"
	default:
		return ""
	}
}

// Size returns the cardinality of an ObjectSet value, or -1 for any other
// type.
func (v Value) Size() int {
	if v.Type != TypeObjectSet {
		return -1
	}
	return len(v.Set)
}
