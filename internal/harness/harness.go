package harness

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/roach88/epicflow/internal/action"
	"github.com/roach88/epicflow/internal/api"
	"github.com/roach88/epicflow/internal/clock"
	"github.com/roach88/epicflow/internal/engine"
	"github.com/roach88/epicflow/internal/epic"
	"github.com/roach88/epicflow/internal/testutil"
)

// Timeouts for a scenario run.
const (
	AwaitTimeout = 2 * time.Second
	DrainTimeout = 5 * time.Second

	// IdlePeriod is how long the run must be quiet before virtual time
	// moves on.
	IdlePeriod = 2 * time.Millisecond
)

// Harness runs a single scenario.
type Harness struct {
	scenario *Scenario
	logger   *slog.Logger

	mu     sync.Mutex
	result *Result
	err    error
	update chan struct{}
}

// Run executes a scenario with a fresh engine and a fake API and returns
// the result with assertions evaluated.
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext is Run with a caller context.
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	h := &Harness{
		scenario: scenario,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
		result:   NewResult(),
		update:   make(chan struct{}, 1),
	}
	return h.run(ctx)
}

func (h *Harness) run(ctx context.Context) (*Result, error) {
	epics, err := epic.Resolve(h.scenario.Epics)
	if err != nil {
		return nil, err
	}

	clk := testutil.NewFakeClock()
	client := h.scenario.API.fake()
	client.Clock = clk
	deps := epic.Dependencies{
		API:      client,
		Messages: api.Replay{Messages: h.scenario.Messages},
		Clock:    clk,
		Logger:   h.logger,
	}
	eng := engine.New(epics, deps,
		engine.WithSessionGenerator(testutil.NewFixedSessionGenerator(h.scenario.Session)),
		engine.WithSequencer(testutil.NewDeterministicClock()),
		engine.WithObserver(h.observe),
		engine.WithLogger(h.logger),
	)
	h.result.Session = eng.Session()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- eng.Run(runCtx) }()
	go h.tick(runCtx, clk)

	if err := h.executeFlow(ctx, eng); err != nil {
		eng.Stop()
		return nil, fmt.Errorf("failed to execute flow: %w", err)
	}

	eng.Stop()
	select {
	case err := <-done:
		if err != nil {
			return nil, fmt.Errorf("engine: %w", err)
		}
	case <-time.After(DrainTimeout):
		return nil, fmt.Errorf("engine did not drain within %s", DrainTimeout)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.err != nil {
		return nil, h.err
	}

	result := h.result
	for _, f := range eng.Failures() {
		result.Failures = append(result.Failures, Failure{Epic: f.Epic, Error: f.Err.Error()})
	}
	st, err := stateMap(eng.State())
	if err != nil {
		return nil, err
	}
	result.State = st

	for _, msg := range EvaluateAssertions(result, h.scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

// tick drives virtual time. Whenever no action has been reduced for one
// idle period and a timer is pending, the clock jumps to the next deadline,
// so throttle windows and API latency elapse without real waiting.
func (h *Harness) tick(ctx context.Context, clk *clock.Fake) {
	t := time.NewTicker(IdlePeriod)
	defer t.Stop()
	last := -1
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
		h.mu.Lock()
		n := len(h.result.Trace)
		h.mu.Unlock()
		if n == last {
			clk.AdvanceToNext()
		}
		last = n
	}
}

// observe runs on the engine goroutine.
func (h *Harness) observe(rec engine.Record) {
	ev, err := newTraceEvent(rec)

	h.mu.Lock()
	if err != nil && h.err == nil {
		h.err = err
	}
	h.result.Trace = append(h.result.Trace, ev)
	h.mu.Unlock()

	select {
	case h.update <- struct{}{}:
	default:
	}
}

func (h *Harness) executeFlow(ctx context.Context, eng *engine.Engine) error {
	for i, step := range h.scenario.Flow {
		a, err := step.Dispatch.Action()
		if err != nil {
			return fmt.Errorf("flow[%d]: %w", i, err)
		}
		if !eng.Dispatch(a) {
			return fmt.Errorf("flow[%d]: engine rejected %s", i, a.Kind())
		}
		if step.Await == nil {
			continue
		}
		if err := h.await(ctx, *step.Await); err != nil {
			return fmt.Errorf("flow[%d]: %w", i, err)
		}
	}
	return nil
}

func (h *Harness) await(ctx context.Context, aw Await) error {
	timeout := time.NewTimer(AwaitTimeout)
	defer timeout.Stop()
	for {
		h.mu.Lock()
		got := h.result.count(aw.Type)
		h.mu.Unlock()
		if got >= aw.want() {
			return nil
		}
		select {
		case <-h.update:
		case <-timeout.C:
			return fmt.Errorf("await %s: saw %d of %d within %s", aw.Type, got, aw.want(), AwaitTimeout)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (c APIConfig) fake() *api.Fake {
	f := api.NewFake()
	f.Latency = c.Latency
	f.PhotoPrefix = c.PhotoPrefix
	if c.LoginID != "" {
		f.Entity = action.Entity{ID: c.LoginID}
	}
	if c.Users != nil {
		f.Users = make(map[string]action.User, len(c.Users))
		for id, u := range c.Users {
			f.Users[id] = action.User{ID: id, FirstName: u.FirstName, LastName: u.LastName}
		}
	}
	if c.Products != nil {
		f.Products = make(map[string]action.Product, len(c.Products))
		for id, name := range c.Products {
			f.Products[id] = action.Product{ID: id, Name: name}
		}
	}
	if len(c.FailProducts) > 0 {
		f.FailProducts = make(map[string]bool, len(c.FailProducts))
		for _, id := range c.FailProducts {
			f.FailProducts[id] = true
		}
	}
	return f
}

// stateMap converts a value to generic JSON.
func stateMap(v any) (map[string]any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode state: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}
	return m, nil
}
