package rules

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/halcyon-games/atomic/internal/component"
	"github.com/halcyon-games/atomic/internal/scalar"
	"github.com/halcyon-games/atomic/internal/selector"
)

// The rule JSON grammar.
//
// A rule file is {"rules": [...]}. Each rule:
//
//	{
//	  "from":  "#poisoned",
//	  "where": {"op": "gt", "args": ["properties.health", 0]},
//	  "do": {"mut": [
//	    {"target": "properties.health",
//	     "value": {"op": "sub", "args": ["self.properties.health", "self.properties.poisonStacks"]}}
//	  ]}
//	}
//
// Expression nodes:
//   - JSON number / bool        -> literal
//   - "properties.<key>"        -> property read (filter context)
//   - "self.properties.<key>"   -> property read (mutation context)
//   - "deltaTime"               -> frame delta seconds
//   - any other string          -> text literal
//   - {"op": ..., "args": [..]} -> operator application

const (
	propertyPrefix     = "properties."
	selfPropertyPrefix = "self.properties."
	deltaTimeRef       = "deltaTime"
)

// DecodeError describes a structurally invalid rule file.
type DecodeError struct {
	Rule    int // zero-based rule index, -1 for file-level problems
	Field   string
	Message string
}

func (e *DecodeError) Error() string {
	if e.Rule < 0 {
		return fmt.Sprintf("rules: %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("rules: rule %d: %s: %s", e.Rule, e.Field, e.Message)
}

type ruleFile struct {
	Rules []ruleJSON `json:"rules"`
}

type ruleJSON struct {
	From  string          `json:"from"`
	Where json.RawMessage `json:"where"`
	Do    doJSON          `json:"do"`
}

type doJSON struct {
	Mut []mutJSON `json:"mut"`
}

type mutJSON struct {
	Target string          `json:"target"`
	Value  json.RawMessage `json:"value"`
}

type callJSON struct {
	Op   string            `json:"op"`
	Args []json.RawMessage `json:"args"`
}

// Decode parses a rule file into compiled rules. Selector syntax, operator
// names, arities, and mutation targets are all checked here; a file that
// decodes is ready for the driver with no further validation.
func Decode(data []byte) ([]Rule, error) {
	var file ruleFile
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&file); err != nil {
		return nil, &DecodeError{Rule: -1, Field: "file", Message: err.Error()}
	}
	if len(file.Rules) == 0 {
		return nil, &DecodeError{Rule: -1, Field: "rules", Message: "rule file declares no rules"}
	}

	rules := make([]Rule, 0, len(file.Rules))
	for i, rj := range file.Rules {
		rule, err := decodeRule(i, rj)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

func decodeRule(idx int, rj ruleJSON) (Rule, error) {
	sel, err := selector.TryParse(rj.From)
	if err != nil {
		return Rule{}, &DecodeError{Rule: idx, Field: "from", Message: err.Error()}
	}

	var where Expr
	if len(rj.Where) > 0 {
		where, err = decodeExpr(rj.Where)
		if err != nil {
			return Rule{}, &DecodeError{Rule: idx, Field: "where", Message: err.Error()}
		}
	}

	if len(rj.Do.Mut) == 0 {
		return Rule{}, &DecodeError{Rule: idx, Field: "do.mut", Message: "rule declares no mutations"}
	}

	muts := make([]Mutation, 0, len(rj.Do.Mut))
	for mi, mj := range rj.Do.Mut {
		key, ok := strings.CutPrefix(mj.Target, propertyPrefix)
		if !ok || key == "" {
			return Rule{}, &DecodeError{
				Rule:    idx,
				Field:   fmt.Sprintf("do.mut[%d].target", mi),
				Message: fmt.Sprintf("target must be %q<key>, got %q", propertyPrefix, mj.Target),
			}
		}
		value, err := decodeExpr(mj.Value)
		if err != nil {
			return Rule{}, &DecodeError{Rule: idx, Field: fmt.Sprintf("do.mut[%d].value", mi), Message: err.Error()}
		}
		muts = append(muts, Mutation{Key: component.FoldKey(key), Value: value})
	}

	return Rule{From: sel, Where: where, Mutations: muts}, nil
}

func decodeExpr(data json.RawMessage) (Expr, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty expression")
	}

	switch data[0] {
	case '{':
		var call callJSON
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&call); err != nil {
			return nil, err
		}
		return decodeCall(call)

	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, err
		}
		return decodeStringOperand(s), nil

	case '[':
		return nil, fmt.Errorf("arrays are not expressions")

	case 'n':
		return nil, fmt.Errorf("null is not an expression")

	default:
		v, err := scalar.UnmarshalValue(data)
		if err != nil {
			return nil, err
		}
		return Literal{Value: v}, nil
	}
}

func decodeCall(call callJSON) (Expr, error) {
	op := Op(call.Op)
	min, max := op.arity()
	if min == 0 {
		return nil, fmt.Errorf("unknown operator %q", call.Op)
	}
	if len(call.Args) < min || (max >= 0 && len(call.Args) > max) {
		return nil, fmt.Errorf("operator %q: got %d args, want %s", call.Op, len(call.Args), arityString(min, max))
	}

	args := make([]Expr, 0, len(call.Args))
	for i, raw := range call.Args {
		arg, err := decodeExpr(raw)
		if err != nil {
			return nil, fmt.Errorf("operator %q arg %d: %w", call.Op, i, err)
		}
		args = append(args, arg)
	}
	return Call{Op: op, Args: args}, nil
}

// decodeStringOperand resolves the string forms: property refs (either
// context prefix), the delta-time ref, or a plain text literal.
func decodeStringOperand(s string) Expr {
	if key, ok := strings.CutPrefix(s, selfPropertyPrefix); ok && key != "" {
		return PropertyRef{Key: component.FoldKey(key)}
	}
	if key, ok := strings.CutPrefix(s, propertyPrefix); ok && key != "" {
		return PropertyRef{Key: component.FoldKey(key)}
	}
	if s == deltaTimeRef {
		return DeltaRef{}
	}
	return Literal{Value: scalar.Text(s)}
}

func arityString(min, max int) string {
	if max < 0 {
		return fmt.Sprintf("at least %d", min)
	}
	if min == max {
		return fmt.Sprintf("exactly %d", min)
	}
	return fmt.Sprintf("%d..%d", min, max)
}
