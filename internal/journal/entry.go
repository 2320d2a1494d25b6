package journal

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/epicflow/internal/action"
)

// Entry is one journaled action.
type Entry struct {
	ID      string          `json:"id"`
	Session string          `json:"session"`
	Seq     int64           `json:"seq"`
	Source  string          `json:"source"`
	Kind    action.Kind     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// NewEntry builds the journal record for a reduced action.
func NewEntry(session string, seq int64, source string, a action.Action) (Entry, error) {
	payload, err := action.MarshalCanonical(a)
	if err != nil {
		return Entry{}, fmt.Errorf("journal entry %d: %w", seq, err)
	}
	id, err := action.ID(session, seq, a)
	if err != nil {
		return Entry{}, fmt.Errorf("journal entry %d: %w", seq, err)
	}
	return Entry{
		ID:      id,
		Session: session,
		Seq:     seq,
		Source:  source,
		Kind:    a.Kind(),
		Payload: payload,
	}, nil
}

// Action decodes the journaled action.
func (e Entry) Action() (action.Action, error) {
	return action.Envelope{Type: e.Kind, Payload: e.Payload}.Unwrap()
}
