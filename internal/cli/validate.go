package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/halcyon-games/atomic/internal/rules"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid     bool   `json:"valid"`
	RuleCount int    `json:"rule_count"`
	Error     string `json:"error,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <rules.json>",
		Short: "Validate a rule file without running it",
		Long: `Validate a JSON rule file against the rule schema.

Performs CUE schema validation followed by full decoding, so selector
syntax and operator arity errors surface too. Nothing is executed.`,
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
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		_ = formatter.Error(ErrCodeReadFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, "read rule file", err)
	}
	formatter.VerboseLog("Read %d bytes from %s", len(data), path)

	loaded, err := rules.Load(data)
	if err != nil {
		if formatter.Format == "json" {
			_ = formatter.Error(ErrCodeBadRules, err.Error(), ValidationResult{Valid: false, Error: err.Error()})
		} else {
			fmt.Fprintln(formatter.Writer, "✗ Rule file invalid")
			fmt.Fprintln(formatter.Writer)
			fmt.Fprintf(formatter.Writer, "  %v\n", err)
		}
		return WrapExitError(ExitFailure, "rule file invalid", err)
	}

	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true, RuleCount: len(loaded)})
	}
	fmt.Fprintf(formatter.Writer, "✓ %d rule(s) valid\n", len(loaded))
	return nil
}
