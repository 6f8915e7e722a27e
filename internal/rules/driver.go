package rules

import (
	"log/slog"

	"github.com/halcyon-games/atomic/internal/behavior"
	"github.com/halcyon-games/atomic/internal/component"
	"github.com/halcyon-games/atomic/internal/entity"
	"github.com/halcyon-games/atomic/internal/scalar"
	"github.com/halcyon-games/atomic/internal/selector"
)

// Driver evaluates the loaded rule list once per frame.
//
// The driver is stateless across frames beyond the immutable rule list and
// reusable scratch buffers. Per RunFrame, for each rule in declaration order:
//
//  1. resolve the rule's selector to an ordered candidate sequence
//  2. filter candidates against their current property values; order of
//     the survivors is preserved
//  3. for each retained entity, evaluate every mutation value expression
//     against that entity's pre-mutation values, then commit all targets
//     in a single registry write
//
// Within one rule pass no entity's expression inputs are affected by another
// entity's mutation, and an entity's own mutation entries all read the values
// from before the pass touched it. Rules are not isolated from each other:
// later rules observe earlier rules' committed writes in the same frame.
//
// A frame always runs to completion over the full rule set; evaluation is
// total and commit failures are logged, not propagated.
type Driver struct {
	index *selector.Registry
	props *behavior.Registry[component.Properties]
	rules []Rule

	// Scratch buffers reused across frames so steady-state evaluation of
	// ~1000 mutations/frame stays off the allocator.
	candidates []entity.Entity
	retained   []entity.Entity
	staged     []scalar.Value
	stagedRule *Rule
	apply      func(*component.Properties)
}

// NewDriver wires a driver against the selector index and the Properties
// registry. Rules load separately via Load.
func NewDriver(index *selector.Registry, props *behavior.Registry[component.Properties]) *Driver {
	d := &Driver{
		index:      index,
		props:      props,
		candidates: make([]entity.Entity, 0, 256),
		retained:   make([]entity.Entity, 0, 256),
		staged:     make([]scalar.Value, 0, 8),
	}
	// One commit closure for the driver's lifetime; per-entity closures
	// would put an allocation on the mutation hot path.
	d.apply = func(p *component.Properties) {
		for i, mut := range d.stagedRule.Mutations {
			p.SetFolded(mut.Key, d.staged[i])
		}
	}
	return d
}

// Load installs the rule list, replacing any previous one. The slice is
// copied; rules are immutable once loaded. Rule order is evaluation order.
func (d *Driver) Load(rules []Rule) {
	d.rules = make([]Rule, len(rules))
	copy(d.rules, rules)
	slog.Debug("rules loaded", "count", len(rules))
}

// Rules returns the loaded rules in declaration order.
func (d *Driver) Rules() []Rule {
	return d.rules
}

// Reset drops the loaded rule list. Called at scene teardown.
func (d *Driver) Reset() {
	d.rules = nil
}

// RunFrame evaluates every loaded rule once, in declaration order.
// dt is the frame delta time in seconds, exposed to value expressions
// through the deltaTime ref.
func (d *Driver) RunFrame(dt float64) {
	for ri := range d.rules {
		d.runRule(&d.rules[ri], dt)
	}
}

func (d *Driver) runRule(rule *Rule, dt float64) {
	d.candidates = d.index.AppendResolved(d.candidates[:0], rule.From)
	if len(d.candidates) == 0 {
		return
	}

	// Filter phase: read-only, completes before any mutation in this pass.
	env := Env{Delta: dt}
	d.retained = d.retained[:0]
	for _, e := range d.candidates {
		env.Props, _ = d.props.TryGetBehavior(e)
		if EvalBool(rule.Where, &env) {
			d.retained = append(d.retained, e)
		}
	}

	// Mutation phase: stage every value from the entity's own pre-mutation
	// state, then commit the whole mutation list in one write.
	d.stagedRule = rule
	for _, e := range d.retained {
		env.Props, _ = d.props.TryGetBehavior(e)
		d.staged = d.staged[:0]
		for mi := range rule.Mutations {
			d.staged = append(d.staged, Eval(rule.Mutations[mi].Value, &env))
		}
		if err := d.props.SetBehavior(e, d.apply); err != nil {
			// An event handler may have deactivated the entity mid-frame.
			// The frame never aborts; skip and keep going.
			slog.Warn("rule mutation skipped", "selector", rule.From.String(), "entity", e, "error", err)
		}
	}
	d.stagedRule = nil
}
