package journal

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/epicflow/internal/state"
)

// ErrUnknownSession is returned when replaying a session with no entries.
var ErrUnknownSession = errors.New("unknown session")

// Replay folds a session through the reducer, starting from the initial
// state, and returns the resulting state. Epics are not run: the journal
// already holds every action they produced.
func (s *Store) Replay(ctx context.Context, session string) (state.AppState, error) {
	entries, err := s.ReadSession(ctx, session)
	if err != nil {
		return state.AppState{}, fmt.Errorf("replay: %w", err)
	}
	if len(entries) == 0 {
		return state.AppState{}, fmt.Errorf("replay %s: %w", session, ErrUnknownSession)
	}

	st := state.Initial()
	for _, e := range entries {
		a, err := e.Action()
		if err != nil {
			return state.AppState{}, fmt.Errorf("replay %s #%d: %w", session, e.Seq, err)
		}
		st = state.Reduce(st, a)
	}
	return st, nil
}
