// Package component defines the built-in behavior types the core itself
// understands: Ident (stable string id), Tags (membership labels), Parent
// (scene hierarchy edge), and Properties (the dynamically-typed scalar map
// the rule engine reads and writes).
package component

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"golang.org/x/text/cases"

	"github.com/halcyon-games/atomic/internal/scalar"
)

// FoldKey normalizes a property key for case-insensitive lookup using
// Unicode case folding. Rule loaders fold keys once at load time so the
// per-frame lookup path never folds.
func FoldKey(key string) string {
	return cases.Fold().String(key)
}

// Properties is a behavior holding a mapping from case-insensitive string
// keys to scalar values. Keys are unique after folding.
//
// The backing map is mutated in place: a frame's worth of property writes
// reuses the same map storage rather than copying it, which keeps mutation
// of thousands of entities per frame off the allocator. The trade-off is
// that lifecycle events for Properties observe the live map; nothing in the
// core indexes on old Properties values.
type Properties struct {
	m map[string]scalar.Value
}

// NewProperties returns an empty property map.
func NewProperties() Properties {
	return Properties{m: make(map[string]scalar.Value)}
}

// Len returns the number of keys present.
func (p Properties) Len() int {
	return len(p.m)
}

// Get looks up a key, folding it first. Missing keys resolve to Absent.
func (p Properties) Get(key string) scalar.Value {
	return p.GetFolded(FoldKey(key))
}

// GetFolded looks up an already-folded key. Missing keys resolve to Absent.
func (p Properties) GetFolded(key string) scalar.Value {
	if v, ok := p.m[key]; ok {
		return v
	}
	return scalar.Absent{}
}

// Has reports whether a key is present, folding it first.
func (p Properties) Has(key string) bool {
	_, ok := p.m[FoldKey(key)]
	return ok
}

// Set stores a value under the folded form of key.
func (p *Properties) Set(key string, v scalar.Value) {
	p.SetFolded(FoldKey(key), v)
}

// SetFolded stores a value under an already-folded key.
func (p *Properties) SetFolded(key string, v scalar.Value) {
	if p.m == nil {
		p.m = make(map[string]scalar.Value, 8)
	}
	p.m[key] = v
}

// Delete removes a key, folding it first. Returns true if it was present.
func (p *Properties) Delete(key string) bool {
	folded := FoldKey(key)
	if _, ok := p.m[folded]; !ok {
		return false
	}
	delete(p.m, folded)
	return true
}

// SortedKeys returns the folded keys in ascending byte order.
// Used wherever deterministic enumeration matters (persistence, traces).
func (p Properties) SortedKeys() []string {
	keys := make([]string, 0, len(p.m))
	for k := range p.m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Each calls fn for every (folded key, value) pair in ascending key order.
func (p Properties) Each(fn func(key string, v scalar.Value) bool) {
	for _, k := range p.SortedKeys() {
		if !fn(k, p.m[k]) {
			return
		}
	}
}

// MarshalJSON renders the map with sorted keys for deterministic output.
func (p Properties) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range p.SortedKeys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		keyBytes, err := json.Marshal(k)
		if err != nil {
			return nil, fmt.Errorf("marshal key %q: %w", k, err)
		}
		buf.Write(keyBytes)
		buf.WriteByte(':')
		valBytes, err := scalar.MarshalValue(p.m[k])
		if err != nil {
			return nil, fmt.Errorf("marshal value for key %q: %w", k, err)
		}
		buf.Write(valBytes)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
