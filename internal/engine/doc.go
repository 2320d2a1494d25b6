// Package engine runs epics against the reducer.
//
// ARCHITECTURE:
//
// Single-Writer Event Loop:
// Dispatched actions and actions emitted by epics share one FIFO queue. Run
// takes them one at a time, so the state changes in a single goroutine and
// the order of reduced actions is the order of the trace and the journal.
//
// Action Processing:
//  1. Stamp the action with the next sequence number
//  2. Reduce it into the current state
//  3. Append it to the journal, if one is configured
//  4. Notify observers
//  5. Queue it on every live epic's feed
//
// Each epic has its own unbounded feed and forwarding goroutine, so a
// slow epic never stalls the loop, and an epic that emits while its input is
// full cannot deadlock against it.
//
// Stopping:
// Stop closes external intake only. Epic output keeps flowing back into the
// epics until the queue and feeds are empty and the shared stream.Activity
// shows no operation in flight for two settle periods; then the epics'
// inputs close and Run waits for their streams to end.
//
// Epic Failure:
// An epic whose stream ends with an error is logged, recorded in Failures
// and detached. The remaining epics keep running.
package engine
