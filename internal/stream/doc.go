// Package stream provides the channel plumbing epics are built from.
//
// A Stream is a receive-only channel paired with the error that ended it.
// Dispatch is the single operator behind every epic: it maps each input to
// an asynchronous operation and merges the operations' results into one
// output, under a Policy that decides what happens when a new input arrives
// while earlier operations are still running:
//
//	Merge   run all operations concurrently; emit results as they complete
//	Switch  cancel the running operation and discard anything it delivers
//	Concat  queue inputs and run one operation at a time
//
// All policy state lives in one goroutine; operation goroutines only report
// to it over a channel. Superseded operations are recognised by generation
// number, so a late result can never leak into the output.
package stream
