// Package journal records dispatched actions in SQLite.
//
// Every action the engine reduces is appended with its session token, its
// sequence number within the session, the epic (or "dispatch") that
// produced it and its payload in canonical JSON. Rows are content
// addressed: the ID is derived from session, seq and the action itself, so
// appending the same record twice is a no-op.
//
// The journal is diagnostic. Sessions can be listed, read back in dispatch
// order and replayed through the reducer to reconstruct the final state,
// but the engine never loads state from it.
package journal
