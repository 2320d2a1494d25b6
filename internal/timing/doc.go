// Package timing implements the throttle and debounce rate limiters.
//
// Each limiter is a pure state machine over explicit instants: nothing in
// this package reads the wall clock on its own. The same machine is driven
// three ways:
//
//   - Simulate replays a virtual-time Timeline through it (tests, CLI).
//   - Run drives it from a channel with a clock.Clock (epics).
//   - Callers may step it by hand via Push, Deadline, Expire and Flush.
//
// When an input arrives at the exact instant a window closes, the input is
// processed first and counts as inside the window.
package timing
