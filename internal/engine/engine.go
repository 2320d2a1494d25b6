package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/roach88/epicflow/internal/action"
	"github.com/roach88/epicflow/internal/clock"
	"github.com/roach88/epicflow/internal/epic"
	"github.com/roach88/epicflow/internal/journal"
	"github.com/roach88/epicflow/internal/state"
	"github.com/roach88/epicflow/internal/stream"
)

// SourceDispatch is the source recorded for actions submitted with Dispatch.
const SourceDispatch = "dispatch"

// DefaultSettle is how long a stopping engine must stay quiet before it
// closes the epics' inputs.
const DefaultSettle = 5 * time.Millisecond

// Sequencer stamps reduced actions. Implemented by clock.Seq.
type Sequencer interface {
	Next() int64
	Current() int64
}

// SessionGenerator produces session tokens.
// Implemented by UUIDv7Generator (production) and test generators.
type SessionGenerator interface {
	Generate() string
}

// Record describes one reduced action.
type Record struct {
	Seq    int64
	Source string
	Action action.Action
	// State is the state after the action was reduced.
	State state.AppState
}

// Observer is called on the engine goroutine after every reduced action.
// It must not block; it may call Dispatch and Stop.
type Observer func(Record)

type eventKind int

const (
	eventAction eventKind = iota + 1
	eventStop
	eventEpicDone
)

type event struct {
	kind   eventKind
	source string
	action action.Action

	// Set for eventEpicDone.
	runner *runner
	err    error
}

// Engine is the single-writer dispatch loop.
//
// Every action, whether dispatched from outside or emitted by an epic, is
// queued in FIFO order and processed by Run on one goroutine: it is stamped
// with the next sequence number, reduced into the state, journaled, shown to
// observers and then fed to every live epic. Epics only ever see an action
// after its effect on the state is visible through the state.Reader they
// were given.
//
// Thread-safety model:
//   - Dispatch, Stop, State: safe from any goroutine
//   - Run: must be called exactly once
type Engine struct {
	epics     []epic.Named
	deps      epic.Dependencies
	logger    *slog.Logger
	journal   *journal.Store
	session   string
	sessions  SessionGenerator
	seq       Sequencer
	observers []Observer
	initial   state.AppState
	quota     *actionQuota
	activity  *stream.Activity
	settle    time.Duration

	queue   *queue[event]
	current atomic.Pointer[state.AppState]

	mu       sync.Mutex
	started  bool
	stopped  bool
	failures []*EpicError
}

// Option configures an Engine.
type Option func(*Engine)

// WithJournal appends every reduced action to j.
func WithJournal(j *journal.Store) Option {
	return func(e *Engine) { e.journal = j }
}

// WithSession fixes the session token instead of generating one.
func WithSession(token string) Option {
	return func(e *Engine) { e.session = token }
}

// WithSessionGenerator sets the generator used when no session is given.
func WithSessionGenerator(g SessionGenerator) Option {
	return func(e *Engine) { e.sessions = g }
}

// WithSequencer replaces the sequence counter, e.g. to continue numbering.
func WithSequencer(s Sequencer) Option {
	return func(e *Engine) { e.seq = s }
}

// WithObserver registers o. Observers run in registration order.
func WithObserver(o Observer) Option {
	return func(e *Engine) { e.observers = append(e.observers, o) }
}

// WithLogger sets the engine logger. It is also handed to epics that were
// not given one.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithMaxActions makes Run fail with a QuotaExceededError once more than n
// actions have been reduced. Zero means no limit.
func WithMaxActions(n int64) Option {
	return func(e *Engine) {
		if n > 0 {
			e.quota = &actionQuota{limit: n}
		} else {
			e.quota = nil
		}
	}
}

// WithSettle sets how long a stopping engine waits for quiet before it
// closes the epics' inputs.
func WithSettle(d time.Duration) Option {
	return func(e *Engine) { e.settle = d }
}

// WithInitialState starts the engine from s instead of state.Initial().
func WithInitialState(s state.AppState) Option {
	return func(e *Engine) { e.initial = s }
}

// New creates an engine running epics with deps. The epic slice is copied,
// and epics receive actions in slice order.
func New(epics []epic.Named, deps epic.Dependencies, opts ...Option) *Engine {
	e := &Engine{
		epics:    append([]epic.Named(nil), epics...),
		deps:     deps,
		logger:   slog.Default(),
		sessions: UUIDv7Generator{},
		seq:      clock.NewSeq(),
		initial:  state.Initial(),
		queue:    newQueue[event](),
		settle:   DefaultSettle,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.session == "" {
		e.session = e.sessions.Generate()
	}
	if e.deps.Logger == nil {
		e.deps.Logger = e.logger
	}
	if e.deps.Activity == nil {
		e.deps.Activity = &stream.Activity{}
	}
	e.activity = e.deps.Activity
	initial := e.initial
	e.current.Store(&initial)
	return e
}

// Session returns the session token stamped on journaled actions.
func (e *Engine) Session() string {
	return e.session
}

// State returns the current state.
func (e *Engine) State() state.AppState {
	return *e.current.Load()
}

// Snapshot implements state.Reader.
func (e *Engine) Snapshot() state.AppState {
	return e.State()
}

// Seq returns the sequence number of the last reduced action.
func (e *Engine) Seq() int64 {
	return e.seq.Current()
}

// Failures returns the epics that have terminated with an error, in the
// order the engine observed them.
func (e *Engine) Failures() []*EpicError {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]*EpicError(nil), e.failures...)
}

// Dispatch submits an action. Actions dispatched before Run are processed
// once it starts. Returns false after Stop or once Run has returned.
func (e *Engine) Dispatch(a action.Action) bool {
	if a == nil {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stopped {
		return false
	}
	return e.queue.Enqueue(event{kind: eventAction, source: SourceDispatch, action: a})
}

// Stop stops accepting dispatched actions. Actions the epics emit are
// still reduced and fed back to every epic until the run goes quiet: the
// queue and every feed are empty and no operation is in flight for two
// consecutive settle periods. Then the epics' inputs close and Run returns
// once every epic has finished.
//
// An operation that never ends on its own, such as listening to a held
// feed, keeps the run alive until Run's context ends.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stopped {
		return
	}
	e.stopped = true
	e.queue.Enqueue(event{kind: eventStop})
}

// Run processes actions until Stop has drained every epic, returning nil,
// or until ctx ends, returning its error.
func (e *Engine) Run(ctx context.Context) error {
	e.mu.Lock()
	if e.started {
		e.mu.Unlock()
		return ErrAlreadyRunning
	}
	e.started = true
	e.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer e.queue.Close()

	live := make([]*runner, 0, len(e.epics))
	for _, n := range e.epics {
		live = append(live, e.start(ctx, n))
	}
	e.logger.Info("engine starting", "session", e.session, "epics", len(live))

	var (
		stopping     bool
		inputsClosed bool
		quiet        bool
		settle       *time.Timer
		settleC      <-chan time.Time
	)
	disarm := func() {
		if settle != nil {
			settle.Stop()
		}
		settle, settleC, quiet = nil, nil, false
	}
	defer disarm()

	for {
		ev, ok := e.queue.TryDequeue()
		if !ok {
			if stopping && !inputsClosed && settleC == nil {
				settle = time.NewTimer(e.settle)
				settleC = settle.C
			}
			select {
			case <-ctx.Done():
				e.logger.Info("engine stopping: context cancelled", "session", e.session)
				return ctx.Err()
			case <-e.queue.Wait():
			case <-settleC:
				settle, settleC = nil, nil
				if !e.idle(live) {
					quiet = false
					continue
				}
				if !quiet {
					quiet = true
					continue
				}
				e.logger.Info("engine stopping: draining epics", "live", len(live))
				inputsClosed = true
				for _, r := range live {
					r.feed.Close()
				}
				if len(live) == 0 {
					e.logger.Info("engine stopped", "session", e.session, "seq", e.seq.Current())
					return nil
				}
			}
			continue
		}
		disarm()

		switch ev.kind {
		case eventAction:
			if e.quota != nil {
				if err := e.quota.check(e.session); err != nil {
					e.logger.Error("engine stopping: action quota exceeded",
						"session", e.session,
						"limit", e.quota.limit,
					)
					return err
				}
			}
			e.process(ctx, ev, live, inputsClosed)

		case eventStop:
			e.logger.Info("engine stopping: waiting for epics to go quiet", "live", len(live))
			stopping = true

		case eventEpicDone:
			live = detach(live, ev.runner)
			e.finished(ev.runner, ev.err)
		}

		if inputsClosed && len(live) == 0 {
			e.logger.Info("engine stopped", "session", e.session, "seq", e.seq.Current())
			return nil
		}
	}
}

// idle reports whether no epic has queued input or an operation in flight.
// CRITICAL: Called only from the Run goroutine.
func (e *Engine) idle(live []*runner) bool {
	if e.queue.Len() > 0 || !e.activity.Idle() {
		return false
	}
	for _, r := range live {
		if r.feed.Len() > 0 {
			return false
		}
	}
	return true
}

// process handles one action.
// CRITICAL: Called only from the Run goroutine.
func (e *Engine) process(ctx context.Context, ev event, live []*runner, inputsClosed bool) {
	seq := e.seq.Next()
	next := state.Reduce(e.State(), ev.action)
	e.current.Store(&next)

	e.logger.Debug("action reduced",
		"seq", seq,
		"source", ev.source,
		"type", ev.action.Kind(),
	)

	if e.journal != nil {
		entry, err := journal.NewEntry(e.session, seq, ev.source, ev.action)
		if err == nil {
			err = e.journal.Append(ctx, entry)
		}
		if err != nil {
			// Log and continue; the journal is diagnostic.
			e.logger.Error("journal append failed",
				"seq", seq,
				"type", ev.action.Kind(),
				"error", err,
			)
		}
	}

	rec := Record{Seq: seq, Source: ev.source, Action: ev.action, State: next}
	for _, o := range e.observers {
		o(rec)
	}

	if inputsClosed {
		return
	}
	for _, r := range live {
		r.feed.Enqueue(ev.action)
	}
}

// finished records the end of an epic.
// CRITICAL: Called only from the Run goroutine.
func (e *Engine) finished(r *runner, err error) {
	if err == nil || errors.Is(err, context.Canceled) {
		e.logger.Debug("epic completed", "epic", r.name)
		return
	}
	fail := &EpicError{Epic: r.name, Seq: e.seq.Current(), Err: err}
	e.mu.Lock()
	e.failures = append(e.failures, fail)
	e.mu.Unlock()
	e.logger.Error("epic terminated",
		"epic", r.name,
		"seq", fail.Seq,
		"error", err,
	)
}

func detach(live []*runner, r *runner) []*runner {
	for i, l := range live {
		if l == r {
			r.stop()
			return append(live[:i], live[i+1:]...)
		}
	}
	return live
}
