package harness

import "encoding/json"

// TraceEvent records one committed entity snapshot in frame order.
// One event appears per dirty entity per frame, after that frame's rules
// have all run.
type TraceEvent struct {
	Frame      uint64          `json:"frame"`
	Entity     uint16          `json:"entity"`
	Ident      string          `json:"ident,omitempty"`
	Properties json.RawMessage `json:"properties"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall scenario success.
	Pass bool `json:"pass"`

	// Trace contains every committed mutation in frame order.
	// Used for assertions and golden comparison.
	Trace []TraceEvent `json:"trace"`

	// Errors contains assertion failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds an assertion error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddMutationTrace appends one snapshot event to the trace.
func (r *Result) AddMutationTrace(frame uint64, entity uint16, ident string, properties json.RawMessage) {
	r.Trace = append(r.Trace, TraceEvent{
		Frame:      frame,
		Entity:     entity,
		Ident:      ident,
		Properties: properties,
	})
}
