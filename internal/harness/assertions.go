package harness

import (
	"fmt"
	"strings"

	"github.com/halcyon-games/atomic/internal/entity"
	"github.com/halcyon-games/atomic/internal/scalar"
	"github.com/halcyon-games/atomic/internal/selector"
	"github.com/halcyon-games/atomic/internal/sim"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", e.Actual)
	return buf.String()
}

// EvaluateAssertions checks every assertion against the final world and
// the trace, returning one message per failure. An empty slice means all
// assertions passed.
func EvaluateAssertions(world *sim.World, result *Result, assertions []Assertion) []string {
	var failures []string
	for i, assertion := range assertions {
		var err error
		switch assertion.Type {
		case AssertPropertyEquals:
			err = assertPropertyEquals(world, assertion)
		case AssertHasTag:
			err = assertHasTag(world, assertion)
		case AssertSelectorCount:
			err = assertSelectorCount(world, assertion)
		case AssertMutationCount:
			err = assertMutationCount(result.Trace, assertion)
		default:
			err = fmt.Errorf("unknown assertion type %q", assertion.Type)
		}
		if err != nil {
			failures = append(failures, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return failures
}

// assertPropertyEquals checks an entity's property against an exact
// expected value under the scalar equality rules (type-strict).
func assertPropertyEquals(world *sim.World, assertion Assertion) error {
	e, ok := world.Index().LookupID(assertion.ID)
	if !ok {
		return &AssertionError{
			Type:     AssertPropertyEquals,
			Expected: fmt.Sprintf("entity with id %q", assertion.ID),
			Actual:   "no such id in the world",
		}
	}

	want, err := scalar.FromGo(assertion.Value)
	if err != nil {
		return fmt.Errorf("property_equals value: %w", err)
	}

	props, _ := world.Props().TryGetBehavior(e)
	got := props.Get(assertion.Property)
	if !scalar.Equal(got, want) {
		return &AssertionError{
			Type:     AssertPropertyEquals,
			Expected: fmt.Sprintf("%s.%s == %s", assertion.ID, assertion.Property, scalar.String(want)),
			Actual:   scalar.String(got),
		}
	}
	return nil
}

// assertHasTag checks tag membership; expect=false asserts absence.
func assertHasTag(world *sim.World, assertion Assertion) error {
	expect := true
	if assertion.Expect != nil {
		expect = *assertion.Expect
	}

	e, ok := world.Index().LookupID(assertion.ID)
	if !ok {
		return &AssertionError{
			Type:     AssertHasTag,
			Expected: fmt.Sprintf("entity with id %q", assertion.ID),
			Actual:   "no such id in the world",
		}
	}

	tags, _ := world.Tags().TryGetBehavior(e)
	if tags.Has(assertion.Tag) != expect {
		return &AssertionError{
			Type:     AssertHasTag,
			Expected: fmt.Sprintf("%s has tag %q: %v", assertion.ID, assertion.Tag, expect),
			Actual:   fmt.Sprintf("tags: %v", tags.Names()),
		}
	}
	return nil
}

// assertSelectorCount resolves a selector and checks its cardinality.
func assertSelectorCount(world *sim.World, assertion Assertion) error {
	sel, err := selector.TryParse(assertion.Selector)
	if err != nil {
		return fmt.Errorf("selector_count: %w", err)
	}

	count := 0
	world.Index().Resolve(sel, func(entity.Entity) bool {
		count++
		return true
	})

	if count != assertion.Count {
		return &AssertionError{
			Type:     AssertSelectorCount,
			Expected: fmt.Sprintf("selector %s resolves %d entities", sel, assertion.Count),
			Actual:   fmt.Sprintf("%d entities", count),
		}
	}
	return nil
}

// assertMutationCount checks trace cardinality, optionally for one frame.
func assertMutationCount(trace []TraceEvent, assertion Assertion) error {
	count := 0
	scope := "total"
	for _, event := range trace {
		if assertion.Frame != nil && event.Frame != *assertion.Frame {
			continue
		}
		count++
	}
	if assertion.Frame != nil {
		scope = fmt.Sprintf("frame %d", *assertion.Frame)
	}

	if count != assertion.Count {
		return &AssertionError{
			Type:     AssertMutationCount,
			Expected: fmt.Sprintf("%d mutation(s) in %s", assertion.Count, scope),
			Actual:   fmt.Sprintf("%d mutation(s)", count),
		}
	}
	return nil
}
