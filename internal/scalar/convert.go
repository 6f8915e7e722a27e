package scalar

// Conversion and comparison rules for the closed scalar set.
//
// Evaluation never aborts on a type mismatch or a missing value. A missing
// numeric operand is 0, a missing boolean operand is false, and an ordered
// comparison involving a non-number is simply false. Equality is type-strict:
// Number(1) != Text("1"), and Absent equals only Absent.

// AsNumber coerces a value to a number for arithmetic.
// Absent coerces to 0; Bool coerces to 0/1; Text coerces to 0.
func AsNumber(v Value) float64 {
	switch val := v.(type) {
	case Number:
		return float64(val)
	case Bool:
		if val {
			return 1
		}
		return 0
	default:
		return 0
	}
}

// AsBool coerces a value to a boolean for logical operators and filters.
// Only Bool(true) is truthy; every other value, including non-zero numbers,
// is false. Filters that want numeric tests must compare explicitly.
func AsBool(v Value) bool {
	b, ok := v.(Bool)
	return ok && bool(b)
}

// Equal reports type-strict equality between two values.
func Equal(a, b Value) bool {
	switch av := a.(type) {
	case Absent:
		_, ok := b.(Absent)
		return ok
	case Number:
		bv, ok := b.(Number)
		return ok && av == bv
	case Bool:
		bv, ok := b.(Bool)
		return ok && av == bv
	case Text:
		bv, ok := b.(Text)
		return ok && av == bv
	default:
		return false
	}
}

// Less reports a < b under ordered comparison.
// Both operands must be numbers; any other combination reports false.
func Less(a, b Value) bool {
	an, aok := a.(Number)
	bn, bok := b.(Number)
	return aok && bok && an < bn
}

// IsAbsent reports whether v is the Absent value.
func IsAbsent(v Value) bool {
	_, ok := v.(Absent)
	return ok
}
