package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/halcyon-games/atomic/internal/persist"
)

// InspectOptions holds flags for the inspect command.
type InspectOptions struct {
	*RootOptions
	Batch  string
	Entity int
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InspectOptions{RootOptions: rootOpts, Entity: -1}

	cmd := &cobra.Command{
		Use:   "inspect <journal.db>",
		Short: "Inspect a snapshot journal",
		Long: `List the batches recorded in a snapshot journal.

With --batch, prints that batch's entity snapshots in capture order.
With --entity, prints every snapshot ever taken of an entity index.

Example:
  atomic inspect run.db
  atomic inspect run.db --batch 0192e6b2-...
  atomic inspect run.db --entity 300`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Batch, "batch", "", "show snapshots for one batch id")
	cmd.Flags().IntVar(&opts.Entity, "entity", -1, "show snapshot history for one entity index")

	return cmd
}

func runInspect(opts *InspectOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	if _, err := os.Stat(path); err != nil {
		_ = formatter.Error(ErrCodeNotFound, err.Error(), nil)
		return WrapExitError(ExitCommandError, "journal not found", err)
	}

	journal, err := persist.Open(path)
	if err != nil {
		_ = formatter.Error(ErrCodeJournal, err.Error(), nil)
		return WrapExitError(ExitCommandError, "open journal", err)
	}
	defer journal.Close()

	ctx := cmd.Context()

	switch {
	case opts.Batch != "":
		snaps, err := journal.BatchSnapshots(ctx, opts.Batch)
		if err != nil {
			_ = formatter.Error(ErrCodeJournal, err.Error(), nil)
			return WrapExitError(ExitCommandError, "read batch", err)
		}
		return outputSnapshots(formatter, snaps)

	case opts.Entity >= 0:
		if opts.Entity > 0xFFFF {
			return NewExitError(ExitCommandError, "--entity must fit the 16-bit index space")
		}
		snaps, err := journal.EntityHistory(ctx, uint16(opts.Entity))
		if err != nil {
			_ = formatter.Error(ErrCodeJournal, err.Error(), nil)
			return WrapExitError(ExitCommandError, "read entity history", err)
		}
		return outputSnapshots(formatter, snaps)

	default:
		batches, err := journal.Batches(ctx)
		if err != nil {
			_ = formatter.Error(ErrCodeJournal, err.Error(), nil)
			return WrapExitError(ExitCommandError, "read batches", err)
		}
		return outputBatches(formatter, batches)
	}
}

func outputBatches(formatter *OutputFormatter, batches []persist.Batch) error {
	if formatter.Format == "json" {
		return formatter.Success(batches)
	}
	if len(batches) == 0 {
		fmt.Fprintln(formatter.Writer, "Journal is empty")
		return nil
	}
	for _, b := range batches {
		fmt.Fprintf(formatter.Writer, "%s  frame=%d  entities=%d  %s\n", b.ID, b.Frame, b.EntityCount, b.CreatedAt)
	}
	return nil
}

func outputSnapshots(formatter *OutputFormatter, snaps []persist.Snapshot) error {
	if formatter.Format == "json" {
		return formatter.Success(snaps)
	}
	if len(snaps) == 0 {
		fmt.Fprintln(formatter.Writer, "No snapshots")
		return nil
	}
	for _, s := range snaps {
		if s.Ident != "" {
			fmt.Fprintf(formatter.Writer, "entity=%d  id=%s  %s\n", s.Entity, s.Ident, s.Properties)
		} else {
			fmt.Fprintf(formatter.Writer, "entity=%d  %s\n", s.Entity, s.Properties)
		}
	}
	return nil
}
