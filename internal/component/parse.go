package component

import (
	"fmt"
	"sort"

	"github.com/halcyon-games/atomic/internal/event"
	"github.com/halcyon-games/atomic/internal/scalar"
)

// ParseDiagnostic is published when property-map construction encounters a
// malformed entry. The same condition also fails the parse; the event exists
// so observers (editors, validators) see the problem even when the caller
// swallows the error.
type ParseDiagnostic struct {
	Key    string
	Reason string
}

// ParseProperties builds a Properties map from decoded-JSON input.
//
// Keys fold before insertion; two keys that fold to the same form are a
// duplicate. Duplicates, empty keys, and non-scalar values each publish a
// ParseDiagnostic on the bus AND fail the parse - the event is for
// observability, the error halts loading on bad input.
func ParseProperties(bus *event.Bus, raw map[string]any) (Properties, error) {
	props := NewProperties()
	seen := make(map[string]string, len(raw))

	// Map iteration order is random; walk keys sorted so the reported
	// duplicate is deterministic.
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if key == "" {
			return fail(bus, key, "property key must not be empty")
		}
		folded := FoldKey(key)
		if prev, dup := seen[folded]; dup {
			return fail(bus, key, fmt.Sprintf("duplicate property key: %q collides with %q", key, prev))
		}
		seen[folded] = key

		value, err := scalar.FromGo(raw[key])
		if err != nil {
			return fail(bus, key, err.Error())
		}
		props.SetFolded(folded, value)
	}
	return props, nil
}

func fail(bus *event.Bus, key, reason string) (Properties, error) {
	event.Publish(bus, ParseDiagnostic{Key: key, Reason: reason})
	return Properties{}, fmt.Errorf("parse properties: key %q: %s", key, reason)
}
