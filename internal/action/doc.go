// Package action defines the actions that flow through epicflow.
//
// An Action is a tagged variant: Kind() is the discriminator and the concrete
// struct carries the kind-specific payload. Actions are immutable values.
// Their identity is irrelevant; only the order in which they are dispatched
// matters.
//
// This package imports nothing internal. Every other package builds on it.
//
// Wire form is the Envelope ({"type": ..., "payload": ...}) used by the
// journal, scenario files and CLI scripts. Content-addressed IDs are computed
// over the canonical JSON of an envelope (see ID).
package action
