package engine

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/epicflow/internal/action"
	"github.com/roach88/epicflow/internal/epic"
	"github.com/roach88/epicflow/internal/state"
	"github.com/roach88/epicflow/internal/stream"
)

// echo answers every ping with another ping, so it never drains.
func echo(ctx context.Context, in <-chan action.Action, _ state.Reader, deps epic.Dependencies) *stream.Stream[action.Action] {
	pings := stream.Select(ctx, in, action.As[action.Ping])
	return stream.Dispatch(ctx, pings, stream.Options{Policy: stream.Concat, Name: "echo", Logger: deps.Logger},
		func(_ context.Context, _ action.Ping, emit func(action.Action) bool) error {
			emit(action.Ping{})
			return nil
		})
}

func TestActionQuota(t *testing.T) {
	q := &actionQuota{limit: 2}
	assert.NoError(t, q.check("s"))
	assert.NoError(t, q.check("s"))

	err := q.check("s")
	require.Error(t, err)
	assert.True(t, IsQuotaExceeded(err))
	assert.True(t, IsQuotaExceeded(fmt.Errorf("wrapped: %w", err)))
	assert.Equal(t, "session s exceeded action quota: 3 actions > 2 limit", err.Error())
}

func TestEngine_QuotaStopsFeedbackLoop(t *testing.T) {
	rec := newRecorder()
	e := New([]epic.Named{{Name: "echo", Epic: echo}}, epic.Dependencies{},
		WithSession("loop"), WithMaxActions(5), WithObserver(rec.observe))
	errc := run(t, e)

	require.True(t, e.Dispatch(action.Ping{}))
	err := wait(t, errc)
	require.Error(t, err)

	var qe *QuotaExceededError
	require.ErrorAs(t, err, &qe)
	assert.Equal(t, "loop", qe.Session)
	assert.Equal(t, int64(5), qe.Limit)
	assert.Len(t, rec.records, 5)
	assert.Equal(t, int64(5), e.Seq())
}

func TestEngine_ZeroQuotaIsUnlimited(t *testing.T) {
	e := New(nil, epic.Dependencies{}, WithMaxActions(5), WithMaxActions(0))
	assert.Nil(t, e.quota)
}
