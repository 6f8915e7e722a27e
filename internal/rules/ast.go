// Package rules implements the declarative rule engine: a JSON-expressed
// rule list evaluated once per simulation frame against entity property data.
//
// A rule is selector + filter + mutation list. Rules are immutable after
// load and live until the driver is reset at scene teardown.
package rules

import (
	"github.com/halcyon-games/atomic/internal/scalar"
	"github.com/halcyon-games/atomic/internal/selector"
)

// Expr is a sealed interface over the closed expression node set.
// Only Literal, PropertyRef, DeltaRef, and Call implement it.
type Expr interface {
	expr()
}

// Literal is a constant scalar operand.
type Literal struct {
	Value scalar.Value
}

func (Literal) expr() {}

// PropertyRef reads a property of the entity under evaluation.
// Key is stored case-folded; folding happens once at load time, never
// on the per-frame path.
type PropertyRef struct {
	Key string
}

func (PropertyRef) expr() {}

// DeltaRef reads the current frame's delta time in seconds.
type DeltaRef struct{}

func (DeltaRef) expr() {}

// Op enumerates the operators of the expression grammar.
type Op string

const (
	OpAdd Op = "add"
	OpSub Op = "sub"
	OpMul Op = "mul"
	OpDiv Op = "div"
	OpNeg Op = "neg"

	OpEq Op = "eq"
	OpNe Op = "ne"
	OpLt Op = "lt"
	OpLe Op = "le"
	OpGt Op = "gt"
	OpGe Op = "ge"

	OpAnd Op = "and"
	OpOr  Op = "or"
	OpNot Op = "not"
)

// arity returns (min, max) operand counts for an operator; max -1 is
// unbounded. Unknown operators return (0, 0).
func (o Op) arity() (int, int) {
	switch o {
	case OpAdd, OpMul, OpAnd, OpOr:
		return 2, -1
	case OpSub, OpDiv, OpEq, OpNe, OpLt, OpLe, OpGt, OpGe:
		return 2, 2
	case OpNeg, OpNot:
		return 1, 1
	default:
		return 0, 0
	}
}

// Call applies an operator to its operands.
type Call struct {
	Op   Op
	Args []Expr
}

func (Call) expr() {}

// Mutation assigns the result of evaluating Value to one property of the
// entity under evaluation. Key is stored case-folded.
type Mutation struct {
	Key   string
	Value Expr
}

// Rule is one compiled rule. From resolves the candidate set each frame;
// Where filters candidates (nil matches everything); Mutations apply, in
// order, to every retained entity.
type Rule struct {
	From      selector.Selector
	Where     Expr
	Mutations []Mutation
}
