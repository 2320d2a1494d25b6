package journal

import (
	"context"
	"fmt"
)

// Append inserts an entry. Entries are keyed by ID, so appending a record
// that is already present is silently ignored.
func (s *Store) Append(ctx context.Context, e Entry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO actions (id, session, seq, source, kind, payload)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		e.ID,
		e.Session,
		e.Seq,
		e.Source,
		string(e.Kind),
		string(e.Payload),
	)
	if err != nil {
		return fmt.Errorf("append %s #%d: %w", e.Session, e.Seq, err)
	}
	return nil
}
