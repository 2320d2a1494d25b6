package journal

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/roach88/epicflow/internal/action"
)

// ReadSession returns the entries of a session ordered by seq.
// Returns an empty slice (not nil) for an unknown session.
func (s *Store) ReadSession(ctx context.Context, session string) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session, seq, source, kind, payload
		FROM actions
		WHERE session = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, session)
	if err != nil {
		return nil, fmt.Errorf("query session %s: %w", session, err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var (
			e       Entry
			kind    string
			payload string
		)
		if err := rows.Scan(&e.ID, &e.Session, &e.Seq, &e.Source, &kind, &payload); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		e.Kind = action.Kind(kind)
		e.Payload = json.RawMessage(payload)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate session %s: %w", session, err)
	}
	return entries, nil
}

// SessionInfo summarizes one journaled session.
type SessionInfo struct {
	Session  string `json:"session"`
	Actions  int    `json:"actions"`
	FirstSeq int64  `json:"first_seq"`
	LastSeq  int64  `json:"last_seq"`
}

// Sessions lists every session in the journal. Session tokens are UUIDv7,
// so lexical order is creation order.
func (s *Store) Sessions(ctx context.Context) ([]SessionInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT session, COUNT(*), MIN(seq), MAX(seq)
		FROM actions
		GROUP BY session
		ORDER BY session COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	sessions := []SessionInfo{}
	for rows.Next() {
		var si SessionInfo
		if err := rows.Scan(&si.Session, &si.Actions, &si.FirstSeq, &si.LastSeq); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, si)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}
