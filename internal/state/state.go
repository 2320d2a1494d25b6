// Package state holds the application state and the pure reducer that
// folds actions into it.
package state

import "github.com/roach88/epicflow/internal/action"

// AppState is the application state.
//
// States are treated as immutable once returned by Reduce: the reducer
// copies any map or slice it changes, so a snapshot handed to a reader stays
// valid while the dispatch loop moves on.
type AppState struct {
	User            *action.User              `json:"user"`
	PhotoURLs       []string                  `json:"photoUrls"`
	ProductByID     map[string]action.Product `json:"productById"`
	Messages        []string                  `json:"messages"`
	Products        []action.Product          `json:"products"`
	SelectedProduct *action.Product           `json:"selectedProduct"`
}

// Initial returns the empty starting state.
func Initial() AppState {
	return AppState{
		ProductByID: map[string]action.Product{},
		Messages:    []string{},
	}
}

// Reader gives epics read-only access to the current state.
type Reader interface {
	Snapshot() AppState
}

// Fixed is a Reader that always returns the same state.
type Fixed AppState

// Snapshot implements Reader.
func (f Fixed) Snapshot() AppState { return AppState(f) }
