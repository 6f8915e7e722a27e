package rules

import (
	"github.com/halcyon-games/atomic/internal/component"
	"github.com/halcyon-games/atomic/internal/scalar"
)

// Env carries the read-only inputs for evaluating one entity's expressions:
// the entity's property view and the frame delta time.
type Env struct {
	Props component.Properties
	Delta float64
}

// Eval evaluates an expression against an environment.
//
// Evaluation is total - it never errors and never aborts a frame:
//   - a missing property resolves to Absent
//   - arithmetic coerces Absent to 0
//   - and/or treat non-boolean operands as false
//   - ordered comparison with a non-numeric operand is false
//   - eq/ne are type-strict (Absent equals only Absent)
//   - division by zero yields 0 rather than Inf, so a bad denominator
//     cannot poison downstream arithmetic
func Eval(e Expr, env *Env) scalar.Value {
	switch node := e.(type) {
	case Literal:
		return node.Value

	case PropertyRef:
		return env.Props.GetFolded(node.Key)

	case DeltaRef:
		return scalar.Number(env.Delta)

	case Call:
		return evalCall(node, env)

	default:
		return scalar.Absent{}
	}
}

// EvalBool evaluates a filter expression. A nil expression matches.
func EvalBool(e Expr, env *Env) bool {
	if e == nil {
		return true
	}
	return scalar.AsBool(Eval(e, env))
}

func evalCall(c Call, env *Env) scalar.Value {
	switch c.Op {
	case OpAdd, OpMul:
		acc := scalar.AsNumber(Eval(c.Args[0], env))
		for _, arg := range c.Args[1:] {
			n := scalar.AsNumber(Eval(arg, env))
			if c.Op == OpAdd {
				acc += n
			} else {
				acc *= n
			}
		}
		return scalar.Number(acc)

	case OpSub:
		return scalar.Number(scalar.AsNumber(Eval(c.Args[0], env)) - scalar.AsNumber(Eval(c.Args[1], env)))

	case OpDiv:
		den := scalar.AsNumber(Eval(c.Args[1], env))
		if den == 0 {
			return scalar.Number(0)
		}
		return scalar.Number(scalar.AsNumber(Eval(c.Args[0], env)) / den)

	case OpNeg:
		return scalar.Number(-scalar.AsNumber(Eval(c.Args[0], env)))

	case OpEq:
		return scalar.Bool(scalar.Equal(Eval(c.Args[0], env), Eval(c.Args[1], env)))
	case OpNe:
		return scalar.Bool(!scalar.Equal(Eval(c.Args[0], env), Eval(c.Args[1], env)))

	case OpLt:
		return scalar.Bool(scalar.Less(Eval(c.Args[0], env), Eval(c.Args[1], env)))
	case OpGt:
		return scalar.Bool(scalar.Less(Eval(c.Args[1], env), Eval(c.Args[0], env)))
	case OpLe:
		return scalar.Bool(orderedLE(Eval(c.Args[0], env), Eval(c.Args[1], env)))
	case OpGe:
		return scalar.Bool(orderedLE(Eval(c.Args[1], env), Eval(c.Args[0], env)))

	case OpAnd:
		for _, arg := range c.Args {
			if !scalar.AsBool(Eval(arg, env)) {
				return scalar.Bool(false)
			}
		}
		return scalar.Bool(true)

	case OpOr:
		for _, arg := range c.Args {
			if scalar.AsBool(Eval(arg, env)) {
				return scalar.Bool(true)
			}
		}
		return scalar.Bool(false)

	case OpNot:
		return scalar.Bool(!scalar.AsBool(Eval(c.Args[0], env)))

	default:
		return scalar.Absent{}
	}
}

// orderedLE reports a <= b under the numeric-only ordering rules.
func orderedLE(a, b scalar.Value) bool {
	an, aok := a.(scalar.Number)
	bn, bok := b.(scalar.Number)
	return aok && bok && an <= bn
}
