package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/roach88/epicflow/internal/journal"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	Session  string
	Type     string // optional - filter to one action type
	Source   string // optional - filter to one source
}

// TraceResult holds a session timeline.
type TraceResult struct {
	Session  string          `json:"session"`
	Timeline []journal.Entry `json:"timeline"`
	Stats    TraceStats      `json:"stats"`
}

// TraceStats summarizes a timeline.
type TraceStats struct {
	Total    int            `json:"total"`
	Dispatch int            `json:"dispatched"`
	BySource map[string]int `json:"by_source"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Show journaled sessions or one session's timeline",
		Long: `Read the action journal written by "epicflow run --journal".

Without --session, lists every session with its action count. With
--session, prints the timeline of that session: each reduced action with
its sequence number and the source that produced it ("dispatch" for
external actions, the epic name otherwise).

Examples:
  epicflow trace --db ./epicflow.db
  epicflow trace --db ./epicflow.db --session 0190...
  epicflow trace --db ./epicflow.db --session 0190... --source login --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite journal (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Session, "session", "", "session to trace")
	cmd.Flags().StringVar(&opts.Type, "type", "", "filter to one action type")
	cmd.Flags().StringVar(&opts.Source, "source", "", "filter to one source")

	return cmd
}

// openJournal opens an existing journal. A missing file is a command
// error rather than a fresh empty journal.
func openJournal(path string) (*journal.Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, WrapExitError(ExitCommandError, "journal not found", err)
	}
	j, err := journal.Open(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open journal", err)
	}
	return j, nil
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := context.Background()
	f := opts.formatter(cmd)

	j, err := openJournal(opts.Database)
	if err != nil {
		return err
	}
	defer j.Close()

	if opts.Session == "" {
		sessions, err := j.Sessions(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list sessions", err)
		}
		return outputSessions(f, sessions)
	}

	entries, err := j.ReadSession(ctx, opts.Session)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read session", err)
	}
	if len(entries) == 0 {
		return NewExitError(ExitCommandError, fmt.Sprintf("session not found: %s", opts.Session))
	}

	result := TraceResult{
		Session:  opts.Session,
		Timeline: filterEntries(entries, opts.Type, opts.Source),
		Stats:    TraceStats{BySource: map[string]int{}},
	}
	for _, e := range result.Timeline {
		result.Stats.Total++
		result.Stats.BySource[e.Source]++
	}
	result.Stats.Dispatch = result.Stats.BySource["dispatch"]

	return f.Respond(result.Session, result, func(w io.Writer) error {
		return outputTraceText(w, result)
	})
}

func filterEntries(entries []journal.Entry, typ, source string) []journal.Entry {
	out := make([]journal.Entry, 0, len(entries))
	for _, e := range entries {
		if typ != "" && string(e.Kind) != typ {
			continue
		}
		if source != "" && e.Source != source {
			continue
		}
		out = append(out, e)
	}
	return out
}

func outputSessions(f *OutputFormatter, sessions []journal.SessionInfo) error {
	return f.Respond("", sessions, func(w io.Writer) error {
		if len(sessions) == 0 {
			_, err := fmt.Fprintln(w, "No sessions found in journal.")
			return err
		}
		fmt.Fprintf(w, "%-36s  %7s  %s\n", "SESSION", "ACTIONS", "SEQ")
		for _, s := range sessions {
			fmt.Fprintf(w, "%-36s  %7d  %d..%d\n", s.Session, s.Actions, s.FirstSeq, s.LastSeq)
		}
		return nil
	})
}

func outputTraceText(w io.Writer, result TraceResult) error {
	fmt.Fprintf(w, "Session: %s\n\n", result.Session)
	for _, e := range result.Timeline {
		fmt.Fprintf(w, "%03d %-20s %s %s\n", e.Seq, e.Source, e.Kind, e.Payload)
	}

	sources := make([]string, 0, len(result.Stats.BySource))
	for s := range result.Stats.BySource {
		sources = append(sources, s)
	}
	sort.Strings(sources)

	fmt.Fprintf(w, "\n%d action(s)\n", result.Stats.Total)
	for _, s := range sources {
		fmt.Fprintf(w, "  %-20s %d\n", s, result.Stats.BySource[s])
	}
	return nil
}
