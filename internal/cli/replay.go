package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/epicflow/internal/journal"
	"github.com/roach88/epicflow/internal/state"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	Session  string
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Rebuild a session's state from the journal",
		Long: `Fold every journaled action of a session through the reducer, starting
from the initial state, and print the resulting state.

No epic runs during replay: the journal already holds every action the
epics produced, so the result equals the state the live run ended with.

Exit codes:
  0 - State rebuilt
  2 - Command error (journal or session not found, etc.)

Examples:
  epicflow replay --db ./epicflow.db --session 0190...
  epicflow replay --db ./epicflow.db --session 0190... --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite journal (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Session, "session", "", "session to replay (required)")
	_ = cmd.MarkFlagRequired("session")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	ctx := context.Background()
	f := opts.formatter(cmd)

	j, err := openJournal(opts.Database)
	if err != nil {
		return err
	}
	defer j.Close()

	f.VerboseLog("replaying session %s", opts.Session)
	st, err := j.Replay(ctx, opts.Session)
	if errors.Is(err, journal.ErrUnknownSession) {
		return NewExitError(ExitCommandError, fmt.Sprintf("session not found: %s", opts.Session))
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to replay session", err)
	}
	return outputReplay(f, opts.Session, st)
}

func outputReplay(f *OutputFormatter, session string, st state.AppState) error {
	return f.Respond(session, st, func(w io.Writer) error {
		b, err := json.MarshalIndent(st, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(w, "Session: %s\n%s\n", session, b)
		return err
	})
}
