// Package harness provides a conformance testing framework for the rule
// driver: YAML scenarios pair an inline scene and rule file with assertions
// over the final world state and the per-frame mutation trace.
//
// Scenarios run against the real wiring - a fresh sim.World per run with
// dirty tracking enabled - so the trace is the driver's actual committed
// output, not a reconstruction.
package harness

import (
	"encoding/json"
	"fmt"

	"github.com/halcyon-games/atomic/internal/cli"
	"github.com/halcyon-games/atomic/internal/entity"
	"github.com/halcyon-games/atomic/internal/sim"
)

// DefaultDelta is the per-frame delta time used when a scenario leaves
// delta unset.
const DefaultDelta = 1.0 / 60

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh world for isolation. Execution flow:
//
//  1. Build a world with dirty tracking
//  2. Load the rule file, then spawn the scene
//  3. Discard spawn-time dirty marks so the trace holds rule output only
//  4. Run the configured frames, draining the tracker into the trace
//     after each one
//  5. Evaluate assertions against the final world and the trace
func Run(scenario *Scenario) (*Result, error) {
	world := sim.NewWorld(sim.WithDirtyTracking())

	if err := world.LoadRules([]byte(scenario.Rules)); err != nil {
		return nil, fmt.Errorf("scenario %s: load rules: %w", scenario.Name, err)
	}

	if _, err := cli.LoadSceneBytes(world, []byte(scenario.Scene)); err != nil {
		return nil, fmt.Errorf("scenario %s: load scene: %w", scenario.Name, err)
	}

	// Spawning marks everything dirty; the trace starts at frame 1.
	world.Tracker().Reset()

	delta := scenario.Delta
	if delta == 0 {
		delta = DefaultDelta
	}

	result := NewResult()
	for i := 0; i < scenario.Frames; i++ {
		frame := world.RunFrame(delta)
		if err := drainTrace(world, frame, result); err != nil {
			return nil, fmt.Errorf("scenario %s: frame %d: %w", scenario.Name, frame, err)
		}
	}

	for _, errMsg := range EvaluateAssertions(world, result, scenario.Assertions) {
		result.AddError(errMsg)
	}

	return result, nil
}

// drainTrace flushes the dirty tracker into the result as one trace event
// per dirty entity, stamped with the frame that produced them.
func drainTrace(world *sim.World, frame uint64, result *Result) error {
	return world.Tracker().Flush(func(dirty []entity.Entity) error {
		for _, e := range dirty {
			props, ok := world.Props().TryGetBehavior(e)
			if !ok {
				// Deactivated mid-frame; nothing left to record.
				continue
			}
			propsJSON, err := json.Marshal(props)
			if err != nil {
				return fmt.Errorf("marshal properties for entity %d: %w", e, err)
			}
			var ident string
			if id, ok := world.Idents().TryGetBehavior(e); ok {
				ident = string(id)
			}
			result.AddMutationTrace(frame, e, ident, propsJSON)
		}
		return nil
	})
}
