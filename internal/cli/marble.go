package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/epicflow/internal/timing"
)

// MarbleOptions holds flags for the marble command.
type MarbleOptions struct {
	*RootOptions
	Window   time.Duration
	Leading  bool
	Trailing bool
}

// MarbleResult is the simulated output of a rate limiter.
type MarbleResult struct {
	Limiter string `json:"limiter"`
	Input   string `json:"input"`
	Output  string `json:"output"`
}

// NewMarbleCommand creates the marble command.
func NewMarbleCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MarbleOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "marble throttle|debounce <diagram>",
		Short: "Simulate throttle or debounce on a marble diagram",
		Long: `Feed a marble diagram through a throttle or debounce on a virtual clock
and print the output diagram. One frame is one millisecond.

Examples:
  epicflow marble throttle --window 3ms "abcdefgahi |"
  epicflow marble throttle --window 3ms --trailing "ab------ |"
  epicflow marble debounce --window 2ms "a-b----c |"`,
		Args:          cobra.ExactArgs(2),
		ValidArgs:     []string{"throttle", "debounce"},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMarble(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().DurationVar(&opts.Window, "window", 3*time.Millisecond, "rate limit window")
	cmd.Flags().BoolVar(&opts.Leading, "leading", true, "throttle: emit on the leading edge")
	cmd.Flags().BoolVar(&opts.Trailing, "trailing", false, "throttle: emit the latest value on the trailing edge")

	return cmd
}

func runMarble(opts *MarbleOptions, kind, diagram string, cmd *cobra.Command) error {
	var (
		limiter timing.Limiter[string]
		label   string
	)
	switch kind {
	case "throttle":
		cfg := timing.ThrottleConfig{Window: opts.Window, Leading: opts.Leading, Trailing: opts.Trailing}
		t, err := timing.NewThrottle[string](cfg)
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid throttle", err)
		}
		limiter, label = t, cfg.String()
	case "debounce":
		d, err := timing.NewDebounce[string](opts.Window)
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid debounce", err)
		}
		limiter, label = d, fmt.Sprintf("debounce(%s)", opts.Window)
	default:
		return NewExitError(ExitCommandError, fmt.Sprintf("unknown limiter %q: want throttle or debounce", kind))
	}

	in, err := timing.FromMarble(diagram)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid diagram", err)
	}
	out, err := timing.Simulate(limiter, in).Marble()
	if err != nil {
		return WrapExitError(ExitFailure, "output has no marble form", err)
	}

	f := opts.formatter(cmd)
	result := MarbleResult{Limiter: label, Input: diagram, Output: out}
	f.VerboseLog("%s", label)
	return f.Respond("", result, func(w io.Writer) error {
		_, err := fmt.Fprintln(w, out)
		return err
	})
}
