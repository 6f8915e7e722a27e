package component

import "sort"

// Ident is a behavior carrying an entity's stable string id, unique across
// the scene. Selector lookups by bare literal resolve against it.
type Ident string

// Parent is a behavior carrying a scene-hierarchy edge. The core stores it
// on behalf of the scene collaborator but never interprets it.
type Parent struct {
	Entity uint16
}

// Tags is a behavior carrying an entity's membership labels. Selector
// lookups by "#name" resolve against it.
//
// The label set is kept sorted and unique. Mutations build fresh slices
// rather than shifting in place: the selector registry diffs the old value
// (from the pre-update event) against the new one, so an old Tags must keep
// describing the old set after the mutation runs. Tags change rarely; the
// copy is not on the hot path.
type Tags struct {
	names []string
}

// NewTags builds a tag set from labels, dropping duplicates and empties.
func NewTags(labels ...string) Tags {
	var t Tags
	for _, l := range labels {
		t.Add(l)
	}
	return t
}

// Len returns the number of labels.
func (t Tags) Len() int {
	return len(t.names)
}

// Has reports whether the label is present.
func (t Tags) Has(label string) bool {
	i := sort.SearchStrings(t.names, label)
	return i < len(t.names) && t.names[i] == label
}

// Add inserts a label, keeping the set sorted. Empty labels and duplicates
// are ignored.
func (t *Tags) Add(label string) {
	if label == "" || t.Has(label) {
		return
	}
	i := sort.SearchStrings(t.names, label)
	names := make([]string, 0, len(t.names)+1)
	names = append(names, t.names[:i]...)
	names = append(names, label)
	names = append(names, t.names[i:]...)
	t.names = names
}

// Remove drops a label. Returns true if it was present.
func (t *Tags) Remove(label string) bool {
	i := sort.SearchStrings(t.names, label)
	if i >= len(t.names) || t.names[i] != label {
		return false
	}
	names := make([]string, 0, len(t.names)-1)
	names = append(names, t.names[:i]...)
	names = append(names, t.names[i+1:]...)
	t.names = names
	return true
}

// Each calls fn for every label in ascending order.
func (t Tags) Each(fn func(label string) bool) {
	for _, l := range t.names {
		if !fn(l) {
			return
		}
	}
}

// Names returns a copy of the label set in ascending order.
func (t Tags) Names() []string {
	out := make([]string, len(t.names))
	copy(out, t.names)
	return out
}
