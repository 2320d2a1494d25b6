// Package harness runs scenario files against the engine.
//
// A scenario names the epics to run, configures the fake API and message
// feed, and lists the actions to dispatch. A step may await a number of
// reduced actions of a given type before the next dispatch, which pins the
// interleaving of concurrent epics and keeps traces reproducible.
//
// After the flow the engine is stopped and drained, then assertions are
// evaluated against the trace and the final state:
//
//   - trace_contains: an action of the type (optionally from a source) with
//     a payload containing the given fields
//   - trace_order: the first occurrences of the listed types are in order
//   - trace_count: the type occurs exactly count times
//   - final_state: the value at a dotted path in the state JSON
//   - epic_failed: the named epic terminated with an error
//
// Traces can be compared against golden files with RunWithGolden.
package harness
