package interp

import (
	"errors"
	"fmt"

	"github.com/J3rome/CLEAR-AQA-Dataset-Generator/pkg/program"
)

// Reason classifies why a program evaluation was rejected.
type Reason string

const (
	// ReasonCardinality: unique() saw zero or more than one entity.
	ReasonCardinality Reason = "cardinality"
	// ReasonUnknownAttribute: query()/same() on an attribute the entity lacks.
	ReasonUnknownAttribute Reason = "unknown_attribute"
	// ReasonTypeMismatch: an operand's runtime type disagrees with the op.
	ReasonTypeMismatch Reason = "type_mismatch"
	// ReasonIllFormed: unbound parameter or malformed node reached the
	// interpreter. Statically checked trees never trigger this.
	ReasonIllFormed Reason = "ill_formed"
)

// EvalError is the expected, recoverable rejection of one candidate program.
// The search prunes on it; it never aborts a run.
type EvalError struct {
	Op     program.Op
	Reason Reason
	Detail string
}

func (e *EvalError) Error() string {
	return fmt.Sprintf("eval %s: %s: %s", e.Op, e.Reason, e.Detail)
}

// IsEvalError reports whether err is (or wraps) an evaluation rejection.
func IsEvalError(err error) bool {
	var ev *EvalError
	return errors.As(err, &ev)
}
