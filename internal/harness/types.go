package harness

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/epicflow/internal/action"
	"github.com/roach88/epicflow/internal/engine"
)

// TraceEvent is one reduced action.
type TraceEvent struct {
	Seq    int64  `json:"seq"`
	Source string `json:"source"`
	Type   string `json:"type"`

	// Payload is the canonical JSON of the action payload.
	Payload json.RawMessage `json:"payload"`
}

func newTraceEvent(rec engine.Record) (TraceEvent, error) {
	payload, err := action.MarshalCanonical(rec.Action)
	if err != nil {
		return TraceEvent{}, fmt.Errorf("trace seq %d: %w", rec.Seq, err)
	}
	return TraceEvent{
		Seq:     rec.Seq,
		Source:  rec.Source,
		Type:    string(rec.Action.Kind()),
		Payload: payload,
	}, nil
}

// Line renders the event as "seq source type payload".
func (e TraceEvent) Line() string {
	return fmt.Sprintf("%03d %s %s %s", e.Seq, e.Source, e.Type, e.Payload)
}

// fields decodes the payload for matching.
func (e TraceEvent) fields() map[string]any {
	var m map[string]any
	if err := json.Unmarshal(e.Payload, &m); err != nil {
		return nil
	}
	return m
}

// Failure is an epic that terminated with an error.
type Failure struct {
	Epic  string `json:"epic"`
	Error string `json:"error"`
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every assertion held.
	Pass bool `json:"pass"`

	// Session is the session token of the run.
	Session string `json:"session"`

	// Trace holds every reduced action in order.
	Trace []TraceEvent `json:"trace"`

	// State is the final state as generic JSON.
	State map[string]any `json:"state"`

	// Failures lists the epics that terminated with an error.
	Failures []Failure `json:"failures,omitempty"`

	// Errors holds assertion failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		State:  map[string]any{},
		Errors: []string{},
	}
}

// AddError adds an assertion failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// count returns the number of trace events of type t.
func (r *Result) count(t string) int {
	n := 0
	for _, e := range r.Trace {
		if e.Type == t {
			n++
		}
	}
	return n
}
