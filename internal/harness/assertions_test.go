package harness

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func event(seq int64, source, typ, payload string) TraceEvent {
	return TraceEvent{Seq: seq, Source: source, Type: typ, Payload: json.RawMessage(payload)}
}

func sampleTrace() []TraceEvent {
	return []TraceEvent{
		event(1, "dispatch", "fetchUser", `{"id":"1"}`),
		event(2, "fetchUser", "setUser", `{"user":{"firstName":"Ada","id":"1"}}`),
		event(3, "dispatch", "ping", `{}`),
		event(4, "ping", "pong", `{}`),
	}
}

func TestAssertTraceContains_Found(t *testing.T) {
	err := assertTraceContains(sampleTrace(), Assertion{Type: AssertTraceContains, Action: "pong"})
	assert.NoError(t, err)
}

func TestAssertTraceContains_NotFound(t *testing.T) {
	err := assertTraceContains(sampleTrace(), Assertion{Type: AssertTraceContains, Action: "endGame"})
	require.Error(t, err)

	var ae *AssertionError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, AssertTraceContains, ae.Type)
	assert.Len(t, ae.Trace, 4)
}

func TestAssertTraceContains_SourceFilter(t *testing.T) {
	trace := sampleTrace()
	assert.NoError(t, assertTraceContains(trace, Assertion{Action: "pong", Source: "ping"}))
	assert.Error(t, assertTraceContains(trace, Assertion{Action: "pong", Source: "dispatch"}))
}

func TestAssertTraceContains_NestedSubsetMatch(t *testing.T) {
	trace := sampleTrace()

	ok := Assertion{Action: "setUser", Payload: map[string]any{"user": map[string]any{"firstName": "Ada"}}}
	assert.NoError(t, assertTraceContains(trace, ok))

	wrong := Assertion{Action: "setUser", Payload: map[string]any{"user": map[string]any{"firstName": "Grace"}}}
	assert.Error(t, assertTraceContains(trace, wrong))

	missing := Assertion{Action: "setUser", Payload: map[string]any{"token": "x"}}
	assert.Error(t, assertTraceContains(trace, missing))
}

func TestAssertTraceContains_NumbersCompareAcrossDecoders(t *testing.T) {
	trace := []TraceEvent{event(1, "dispatch", "uploadPhotos", `{"files":[{"name":"a","size":3}]}`)}
	a := Assertion{Action: "uploadPhotos", Payload: map[string]any{
		"files": []any{map[string]any{"name": "a", "size": 3}},
	}}
	assert.NoError(t, assertTraceContains(trace, a))
}

func TestAssertTraceOrder_Correct(t *testing.T) {
	err := assertTraceOrder(sampleTrace(), Assertion{Actions: []string{"fetchUser", "setUser", "pong"}})
	assert.NoError(t, err)
}

func TestAssertTraceOrder_WrongOrder(t *testing.T) {
	err := assertTraceOrder(sampleTrace(), Assertion{Actions: []string{"pong", "ping"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "should be before")
}

func TestAssertTraceOrder_MissingAction(t *testing.T) {
	err := assertTraceOrder(sampleTrace(), Assertion{Actions: []string{"ping", "endGame"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing action: endGame")
}

func TestAssertTraceCount(t *testing.T) {
	trace := append(sampleTrace(), event(5, "ping", "pong", `{}`))

	assert.NoError(t, assertTraceCount(trace, Assertion{Action: "pong", Count: 2}))
	assert.NoError(t, assertTraceCount(trace, Assertion{Action: "endGame", Count: 0}))

	err := assertTraceCount(trace, Assertion{Action: "pong", Count: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 occurrences")
}

func TestAssertFinalState(t *testing.T) {
	st := map[string]any{
		"user":      map[string]any{"id": "1"},
		"photoUrls": []any{"//a", "//b"},
		"products":  nil,
		"messages":  []any{},
	}

	tests := []struct {
		name   string
		path   string
		equals any
		ok     bool
	}{
		{"nested field", "user.id", "1", true},
		{"index", "photoUrls.1", "//b", true},
		{"whole list", "photoUrls", []string{"//a", "//b"}, true},
		{"null", "products", nil, true},
		{"empty list", "messages", []any{}, true},
		{"mismatch", "user.id", "2", false},
		{"index out of range", "photoUrls.2", "//c", false},
		{"missing key", "user.name", "x", false},
		{"path through scalar", "user.id.x", "1", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := assertFinalState(st, Assertion{Type: AssertFinalState, Path: tt.path, Equals: tt.equals})
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestAssertEpicFailed(t *testing.T) {
	failures := []Failure{{Epic: "fetchProduct", Error: "boom"}}

	assert.NoError(t, assertEpicFailed(failures, Assertion{Epic: "fetchProduct"}))

	err := assertEpicFailed(failures, Assertion{Epic: "login"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "[fetchProduct]")
}

func TestEvaluateAssertions(t *testing.T) {
	result := NewResult()
	result.Trace = sampleTrace()

	errs := EvaluateAssertions(result, []Assertion{
		{Type: AssertTraceContains, Action: "pong"},
		{Type: AssertTraceCount, Action: "ping", Count: 3},
		{Type: "bogus"},
	})
	require.Len(t, errs, 2)
	assert.Contains(t, errs[0], "trace_count")
	assert.Contains(t, errs[1], `unknown assertion type "bogus"`)
}

func TestAssertionError_ErrorFormat(t *testing.T) {
	err := &AssertionError{
		Type:     AssertTraceCount,
		Expected: "1 occurrences of pong",
		Actual:   "0 occurrences",
		Trace:    []TraceEvent{event(1, "dispatch", "ping", `{}`)},
	}
	msg := err.Error()
	assert.Contains(t, msg, "Assertion failed: trace_count")
	assert.Contains(t, msg, "Expected: 1 occurrences of pong")
	assert.Contains(t, msg, "Full trace:")
	assert.Contains(t, msg, "001 dispatch ping {}")
}
