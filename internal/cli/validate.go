package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/epicflow/internal/config"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool             `json:"valid"`
	Epics    []string         `json:"epics,omitempty"`
	Problems []config.Problem `json:"problems,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <config>",
		Short: "Validate a config file",
		Long: `Check a CUE or YAML config file against the config schema and the
epic registry without starting the engine.

Exit codes:
  0 - Config is valid
  1 - Config has problems
  2 - Command error (file not readable, etc.)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	cfg, err := config.Load(path)
	var cfgErr *config.Error
	switch {
	case errors.As(err, &cfgErr):
		result := ValidationResult{Problems: cfgErr.Problems}
		if f.JSON() {
			if err := f.Encode(CLIResponse{
				Status: "error",
				Data:   result,
				Error:  &CLIError{Code: ErrCodeInvalidConfig, Message: cfgErr.Error()},
			}); err != nil {
				return err
			}
		} else {
			fmt.Fprintf(f.Writer, "✗ %s\n", path)
			for _, p := range cfgErr.Problems {
				fmt.Fprintf(f.Writer, "  %s\n", p)
			}
		}
		return NewExitError(ExitFailure, fmt.Sprintf("%d problem(s) in %s", len(cfgErr.Problems), path))
	case err != nil:
		if outErr := f.Error(ErrCodeGeneric, err.Error(), nil); outErr != nil {
			return outErr
		}
		return WrapExitError(ExitCommandError, "failed to read config", err)
	}

	result := ValidationResult{Valid: true, Epics: cfg.Epics}
	if f.JSON() {
		return f.Encode(CLIResponse{Status: "ok", Data: result})
	}
	fmt.Fprintf(f.Writer, "✓ %s is valid (%d epics)\n", path, len(cfg.Epics))
	f.VerboseLog("epics: %v", cfg.Epics)
	return nil
}
