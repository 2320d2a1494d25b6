package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/roach88/epicflow/internal/action"
	"github.com/roach88/epicflow/internal/api"
	"github.com/roach88/epicflow/internal/config"
	"github.com/roach88/epicflow/internal/engine"
	"github.com/roach88/epicflow/internal/journal"
	"github.com/roach88/epicflow/internal/state"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Config     string
	Journal    string
	Script     string
	Session    string
	Messages   []string
	Drain      time.Duration
	MaxActions int64

	// SessionGenerator overrides the session token generator (for testing).
	// If nil, the engine uses UUIDv7 tokens.
	SessionGenerator engine.SessionGenerator
}

// ScriptStep is one entry of a run script.
type ScriptStep struct {
	Type    string         `yaml:"type"`
	Payload map[string]any `yaml:"payload,omitempty"`
	// After delays the dispatch, measured from the previous step.
	After time.Duration `yaml:"after,omitempty"`
}

// RunResult is the outcome of a run.
type RunResult struct {
	Session  string         `json:"session"`
	Actions  int64          `json:"actions"`
	State    state.AppState `json:"state"`
	Failures []string       `json:"failures,omitempty"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the epics over scripted or piped actions",
		Long: `Start the engine with the configured epics, dispatch actions and print
the final state once every epic has drained.

Actions come from a YAML script (--script) or, without one, from stdin as
one JSON envelope per line: {"type":"fetchUser","payload":{"id":"1"}}.
The backend is the in-process fake; messages come from the configured
websocket or from --message values.

Example:
  epicflow run --script ./demo.yaml
  echo '{"type":"ping"}' | epicflow run --journal ./epicflow.db
  epicflow run --config ./epicflow.cue --message hi --script ./listen.yaml`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEngine(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Config, "config", "c", "", "config file (.cue, .yaml or .yml)")
	cmd.Flags().StringVar(&opts.Journal, "journal", "", "SQLite journal path (overrides config)")
	cmd.Flags().StringVar(&opts.Script, "script", "", "YAML list of actions to dispatch")
	cmd.Flags().StringVar(&opts.Session, "session", "", "session token (default: new UUIDv7)")
	cmd.Flags().StringArrayVar(&opts.Messages, "message", nil, "message played to each subscription (repeatable)")
	cmd.Flags().Int64Var(&opts.MaxActions, "max-actions", 100000, "fail once more actions are reduced (0 = no limit)")
	cmd.Flags().DurationVar(&opts.Drain, "drain", 5*time.Second, "how long to wait for epics after the last action")

	return cmd
}

func runEngine(opts *RunOptions, cmd *cobra.Command) error {
	cfg, err := loadConfig(opts.Config)
	if err != nil {
		return err
	}
	logger := newLogger(cmd.ErrOrStderr(), opts.Verbose, cfg.LogLevel())

	var steps []ScriptStep
	if opts.Script != "" {
		steps, err = LoadScript(opts.Script)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to load script", err)
		}
	}

	epics, err := cfg.EpicSet()
	if err != nil {
		return WrapExitError(ExitFailure, "invalid config", err)
	}

	engineOpts := []engine.Option{engine.WithLogger(logger), engine.WithMaxActions(opts.MaxActions)}
	if opts.Session != "" {
		engineOpts = append(engineOpts, engine.WithSession(opts.Session))
	} else if opts.SessionGenerator != nil {
		engineOpts = append(engineOpts, engine.WithSessionGenerator(opts.SessionGenerator))
	}

	journalPath := cfg.Journal.Path
	if opts.Journal != "" {
		journalPath = opts.Journal
	}
	if journalPath != "" {
		logger.Info("opening journal", "path", journalPath)
		j, err := journal.Open(journalPath)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open journal", err)
		}
		defer func() {
			if closeErr := j.Close(); closeErr != nil {
				logger.Error("error closing journal", "error", closeErr)
			}
		}()
		engineOpts = append(engineOpts, engine.WithJournal(j))
	}

	deps := cfg.Dependencies()
	deps.API = newClient(cfg)
	deps.Messages = newMessageSource(cfg, opts.Messages, logger)
	deps.Logger = logger
	eng := engine.New(epics, deps, engineOpts...)

	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("received signal, stopping", "signal", sig)
			eng.Stop()
		case <-ctx.Done():
		}
	}()

	logger.Info("engine starting", "session", eng.Session(), "epics", len(epics))
	done := make(chan error, 1)
	go func() { done <- eng.Run(ctx) }()

	if opts.Script != "" {
		err = dispatchScript(ctx, eng, steps)
	} else {
		err = dispatchLines(eng, cmd.InOrStdin())
	}
	eng.Stop()

	runErr := drain(done, cancel, opts.Drain, logger)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read actions", err)
	}
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return WrapExitError(ExitFailure, "engine error", runErr)
	}
	logger.Info("engine stopped", "actions", eng.Seq())

	result := RunResult{Session: eng.Session(), Actions: eng.Seq(), State: eng.State()}
	for _, f := range eng.Failures() {
		result.Failures = append(result.Failures, f.Error())
	}
	return outputRun(opts.formatter(cmd), result)
}

// drain waits for Run to return, cancelling it after timeout.
func drain(done <-chan error, cancel context.CancelFunc, timeout time.Duration, logger *slog.Logger) error {
	select {
	case err := <-done:
		return err
	case <-time.After(timeout):
		logger.Warn("epics still running after drain timeout, cancelling", "timeout", timeout)
		cancel()
		return <-done
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		var cfgErr *config.Error
		if errors.As(err, &cfgErr) {
			return nil, WrapExitError(ExitFailure, "invalid config", err)
		}
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	return cfg, nil
}

func newClient(cfg *config.Config) *api.Fake {
	f := api.NewFake()
	f.Latency = cfg.API.Latency
	if len(cfg.API.FailProducts) > 0 {
		f.FailProducts = make(map[string]bool, len(cfg.API.FailProducts))
		for _, id := range cfg.API.FailProducts {
			f.FailProducts[id] = true
		}
	}
	return f
}

func newMessageSource(cfg *config.Config, messages []string, logger *slog.Logger) api.MessageSource {
	if cfg.Socket.URL != "" {
		return &api.WebSocketSource{URL: cfg.Socket.URL, Logger: logger}
	}
	return api.Replay{Messages: messages}
}

// LoadScript reads a YAML list of actions. Every step is decoded up front
// so a bad script fails before the engine starts.
func LoadScript(path string) ([]ScriptStep, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var steps []ScriptStep
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&steps); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	for i, s := range steps {
		if _, err := s.Action(); err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
	}
	return steps, nil
}

// Action decodes the step.
func (s ScriptStep) Action() (action.Action, error) {
	return action.FromPayload(action.Kind(s.Type), s.Payload)
}

func dispatchScript(ctx context.Context, eng *engine.Engine, steps []ScriptStep) error {
	for i, s := range steps {
		if s.After > 0 {
			select {
			case <-time.After(s.After):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		a, err := s.Action()
		if err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}
		if !eng.Dispatch(a) {
			return nil // stopped by signal
		}
	}
	return nil
}

// dispatchLines dispatches one JSON envelope per non-blank line.
func dispatchLines(eng *engine.Engine, r io.Reader) error {
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := sc.Bytes()
		if len(text) == 0 {
			continue
		}
		a, err := action.Unmarshal(text)
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		if !eng.Dispatch(a) {
			return nil
		}
	}
	return sc.Err()
}

func outputRun(f *OutputFormatter, result RunResult) error {
	failed := len(result.Failures) > 0
	if f.JSON() {
		resp := CLIResponse{Status: "ok", Data: result, Session: result.Session}
		if failed {
			resp.Status = "error"
			resp.Error = &CLIError{
				Code:    ErrCodeEpicFailed,
				Message: fmt.Sprintf("%d epic(s) failed", len(result.Failures)),
			}
		}
		if err := f.Encode(resp); err != nil {
			return err
		}
	} else {
		w := f.Writer
		st, err := json.MarshalIndent(result.State, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "Session: %s\n", result.Session)
		fmt.Fprintf(w, "Actions: %d\n", result.Actions)
		fmt.Fprintf(w, "State:\n%s\n", st)
		for _, msg := range result.Failures {
			fmt.Fprintf(w, "✗ %s\n", msg)
		}
	}
	if failed {
		return NewExitError(ExitFailure, fmt.Sprintf("%d epic(s) failed", len(result.Failures)))
	}
	return nil
}
