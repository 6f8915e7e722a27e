package scalar

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Value is a sealed interface representing the closed set of property value
// types. Only Number, Bool, Text, and Absent implement this.
//
// The set is deliberately closed: property maps hold scalars only, never
// arrays or nested objects. This keeps per-frame evaluation branch-predictable
// and keeps the persistence format trivial.
type Value interface {
	scalarValue() // Sealed - only these types implement it
}

// Absent represents a missing value. It is distinct from a zero value:
// "has no property" and "has property 0" are different states.
//
// Using an explicit type (rather than nil) ensures every Value is non-nil
// and safe to type-switch on.
type Absent struct{}

func (Absent) scalarValue() {}

// Number represents a numeric value. All numbers are float64; the runtime
// does not distinguish integers from reals.
type Number float64

func (Number) scalarValue() {}

// Bool represents a boolean value.
type Bool bool

func (Bool) scalarValue() {}

// Text represents a string value.
type Text string

func (Text) scalarValue() {}

// String renders a value for diagnostics and text output.
// Numbers render without a trailing ".0" when integral.
func String(v Value) string {
	switch val := v.(type) {
	case Absent:
		return "<absent>"
	case Number:
		return strconv.FormatFloat(float64(val), 'g', -1, 64)
	case Bool:
		return strconv.FormatBool(bool(val))
	case Text:
		return string(val)
	default:
		return fmt.Sprintf("<invalid %T>", v)
	}
}

// MarshalValue marshals a Value to JSON bytes. Absent marshals to null.
func MarshalValue(v Value) ([]byte, error) {
	switch val := v.(type) {
	case Absent:
		return []byte("null"), nil
	case Number:
		return json.Marshal(float64(val))
	case Bool:
		return json.Marshal(bool(val))
	case Text:
		return json.Marshal(string(val))
	default:
		return nil, fmt.Errorf("unknown scalar type: %T", v)
	}
}

// UnmarshalValue decodes a JSON scalar into a Value.
//
// Arrays, objects, and null are rejected: property values are scalars only,
// and absence is represented by omission, never by an explicit null.
func UnmarshalValue(data []byte) (Value, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty JSON value")
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, err
		}
		return Text(s), nil

	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return nil, err
		}
		return Bool(b), nil

	case 'n':
		return nil, fmt.Errorf("null is not a property value: absence is represented by omission")

	case '[', '{':
		return nil, fmt.Errorf("property values must be scalars, got %c...", data[0])

	default:
		var f float64
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, err
		}
		return Number(f), nil
	}
}

// FromGo converts a decoded-JSON Go value (as produced by encoding/json or
// yaml.v3) into a Value. Integers and floats both become Number.
func FromGo(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return nil, fmt.Errorf("null is not a property value: absence is represented by omission")
	case bool:
		return Bool(val), nil
	case string:
		return Text(val), nil
	case float64:
		return Number(val), nil
	case float32:
		return Number(val), nil
	case int:
		return Number(val), nil
	case int64:
		return Number(val), nil
	case uint64:
		return Number(val), nil
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return nil, fmt.Errorf("number out of range: %s", val)
		}
		return Number(f), nil
	default:
		return nil, fmt.Errorf("property values must be scalars, got %T", v)
	}
}
