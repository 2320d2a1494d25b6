package journal

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/epicflow/internal/action"
	"github.com/roach88/epicflow/internal/state"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func mustEntry(t *testing.T, session string, seq int64, source string, a action.Action) Entry {
	t.Helper()
	e, err := NewEntry(session, seq, source, a)
	require.NoError(t, err)
	return e
}

func TestOpen_CreatesDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	for i := 0; i < 3; i++ {
		s, err := Open(path)
		require.NoError(t, err, "open #%d", i)
		require.NoError(t, s.Close())
	}
}

func TestOpen_Pragmas(t *testing.T) {
	s := openTestStore(t)

	mode, err := s.pragma("journal_mode")
	require.NoError(t, err)
	assert.Equal(t, "wal", mode)

	version, err := s.pragma("user_version")
	require.NoError(t, err)
	assert.Equal(t, "1", version)
}

func TestOpen_BadPath(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing", "dir", "journal.db"))
	assert.Error(t, err)
}

func TestNewEntry(t *testing.T) {
	e := mustEntry(t, "s1", 3, "login", action.SetUser{User: action.User{ID: "1", FirstName: "Ada"}})

	assert.Equal(t, action.KindSetUser, e.Kind)
	assert.Equal(t, "login", e.Source)
	assert.JSONEq(t, `{"user":{"id":"1","firstName":"Ada"}}`, string(e.Payload))
	assert.Len(t, e.ID, 64)

	again := mustEntry(t, "s1", 3, "login", action.SetUser{User: action.User{ID: "1", FirstName: "Ada"}})
	assert.Equal(t, e.ID, again.ID)

	a, err := e.Action()
	require.NoError(t, err)
	assert.Equal(t, action.SetUser{User: action.User{ID: "1", FirstName: "Ada"}}, a)
}

func TestAppend_ReadSessionOrdered(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	// Out of order on purpose.
	require.NoError(t, s.Append(ctx, mustEntry(t, "s1", 2, "ping", action.Pong{})))
	require.NoError(t, s.Append(ctx, mustEntry(t, "s1", 1, "dispatch", action.Ping{})))
	require.NoError(t, s.Append(ctx, mustEntry(t, "s2", 1, "dispatch", action.Logout{})))

	entries, err := s.ReadSession(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, int64(1), entries[0].Seq)
	assert.Equal(t, action.KindPing, entries[0].Kind)
	assert.Equal(t, "dispatch", entries[0].Source)
	assert.Equal(t, int64(2), entries[1].Seq)
	assert.Equal(t, "ping", entries[1].Source)
}

func TestAppend_Idempotent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	e := mustEntry(t, "s1", 1, "dispatch", action.Ping{})

	require.NoError(t, s.Append(ctx, e))
	require.NoError(t, s.Append(ctx, e))

	entries, err := s.ReadSession(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestAppend_SeqConflictWithinSession(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, mustEntry(t, "s1", 1, "dispatch", action.Ping{})))
	err := s.Append(ctx, mustEntry(t, "s1", 1, "dispatch", action.Pong{}))
	assert.Error(t, err, "two different actions cannot share a seq")
}

func TestReadSession_UnknownIsEmpty(t *testing.T) {
	s := openTestStore(t)

	entries, err := s.ReadSession(context.Background(), "nope")
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

func TestSessions(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	sessions, err := s.Sessions(ctx)
	require.NoError(t, err)
	assert.Empty(t, sessions)

	require.NoError(t, s.Append(ctx, mustEntry(t, "b", 1, "dispatch", action.Ping{})))
	require.NoError(t, s.Append(ctx, mustEntry(t, "a", 4, "dispatch", action.Ping{})))
	require.NoError(t, s.Append(ctx, mustEntry(t, "a", 5, "ping", action.Pong{})))

	sessions, err = s.Sessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []SessionInfo{
		{Session: "a", Actions: 2, FirstSeq: 4, LastSeq: 5},
		{Session: "b", Actions: 1, FirstSeq: 1, LastSeq: 1},
	}, sessions)
}

func TestReplay(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	actions := []action.Action{
		action.Login{Login: "ada"},
		action.SetUser{User: action.User{ID: "1", FirstName: "Ada"}},
		action.SetProduct{Product: action.Product{ID: "7", Name: "chair"}},
		action.SetMessage{Message: "hi"},
	}
	for i, a := range actions {
		require.NoError(t, s.Append(ctx, mustEntry(t, "s1", int64(i+1), "dispatch", a)))
	}

	got, err := s.Replay(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, state.Fold(state.Initial(), actions...), got)
}

func TestReplay_UnknownSession(t *testing.T) {
	s := openTestStore(t)
	_, err := s.Replay(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrUnknownSession)
}
