// Package clock provides the two notions of time used by epicflow.
//
// Seq is a logical clock: every action the engine reduces is stamped with a
// strictly increasing sequence number, so traces and journals order
// deterministically without consulting the wall clock.
//
// Clock abstracts wall time for the rate limiters and the fake API's
// latency. Real delegates to package time; Fake only moves when a test
// calls Advance, which makes throttle and debounce windows reproducible.
package clock
