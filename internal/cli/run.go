package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/halcyon-games/atomic/internal/entity"
	"github.com/halcyon-games/atomic/internal/persist"
	"github.com/halcyon-games/atomic/internal/sim"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Frames   int
	Delta    float64
	Journal  string
	Capacity int
}

// RunResult summarizes a completed run.
type RunResult struct {
	Entities int     `json:"entities"`
	Rules    int     `json:"rules"`
	Frames   uint64  `json:"frames"`
	Elapsed  float64 `json:"sim_seconds"`
	Batches  int     `json:"batches,omitempty"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <scene.json> <rules.json>",
		Short: "Run a scene against a rule file",
		Long: `Spawn a scene's entities and step the rule driver a fixed number of frames.

With --journal, the dirty tracker is enabled and every frame's mutated
entities are flushed to a SQLite snapshot journal. Running against an
existing journal resumes frame numbering from its latest batch.

Example:
  atomic run scene.json rules.json --frames 60
  atomic run scene.json rules.json --frames 600 --journal run.db`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimulation(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Frames, "frames", 1, "number of frames to run")
	cmd.Flags().Float64Var(&opts.Delta, "dt", 1.0/60, "frame delta time in seconds")
	cmd.Flags().StringVar(&opts.Journal, "journal", "", "path to SQLite snapshot journal (enables dirty tracking)")
	cmd.Flags().IntVar(&opts.Capacity, "capacity", 0, "entity index space size (0 = default)")

	return cmd
}

func runSimulation(opts *RunOptions, scenePath, rulesPath string, cmd *cobra.Command) error {
	// Configure logging based on verbose flag
	logLevel := slog.LevelInfo
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))

	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	if opts.Frames < 1 {
		return NewExitError(ExitCommandError, "--frames must be at least 1")
	}
	if opts.Delta <= 0 {
		return NewExitError(ExitCommandError, "--dt must be positive")
	}
	if opts.Capacity != 0 && opts.Capacity <= entity.ReservedCount {
		return NewExitError(ExitCommandError,
			fmt.Sprintf("--capacity must exceed the reserved index range (%d), or 0 for the default", entity.ReservedCount))
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	// An existing journal resumes the frame clock from its latest batch, so
	// appended batches keep strictly increasing frame stamps.
	var journal *persist.Journal
	var resumeFrame uint64
	if opts.Journal != "" {
		var err error
		journal, err = persist.Open(opts.Journal)
		if err != nil {
			_ = formatter.Error(ErrCodeJournal, err.Error(), nil)
			return WrapExitError(ExitCommandError, "open journal", err)
		}
		defer func() {
			if closeErr := journal.Close(); closeErr != nil {
				slog.Error("error closing journal", "error", closeErr)
			}
		}()

		latest, ok, err := journal.LatestBatch(ctx)
		if err != nil {
			_ = formatter.Error(ErrCodeJournal, err.Error(), nil)
			return WrapExitError(ExitCommandError, "read journal", err)
		}
		if ok {
			resumeFrame = latest.Frame
			slog.Info("resuming journal", "path", opts.Journal, "frame", resumeFrame)
		}
	}

	worldOpts := []sim.Option{
		sim.WithCapacity(opts.Capacity),
		sim.WithStartFrame(resumeFrame),
	}
	if journal != nil {
		worldOpts = append(worldOpts, sim.WithDirtyTracking())
	}
	world := sim.NewWorld(worldOpts...)

	// Load rules first so a bad rule file fails before any spawning.
	rulesData, err := os.ReadFile(rulesPath)
	if err != nil {
		_ = formatter.Error(ErrCodeReadFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, "read rule file", err)
	}
	if err := world.LoadRules(rulesData); err != nil {
		_ = formatter.Error(ErrCodeBadRules, err.Error(), nil)
		return WrapExitError(ExitFailure, "rule file invalid", err)
	}
	slog.Info("rules loaded", "path", rulesPath, "count", len(world.Rules()))

	spawned, err := LoadScene(world, scenePath)
	if err != nil {
		_ = formatter.Error(ErrCodeBadScene, err.Error(), nil)
		return WrapExitError(ExitCommandError, "load scene", err)
	}
	slog.Info("scene loaded", "path", scenePath, "entities", spawned)

	var (
		snapper *persist.Snapshotter
		batches int
	)
	if journal != nil {
		snapper = persist.NewSnapshotter(journal, world.Tracker(), world.Idents(), world.Props())

		// Initial batch: the scene as spawned, before any rule runs.
		// Stamped with the start frame (0 for a fresh journal).
		batchID, err := snapper.Flush(ctx, world.Clock().Frame())
		if err != nil {
			_ = formatter.Error(ErrCodeJournal, err.Error(), nil)
			return WrapExitError(ExitCommandError, "journal initial state", err)
		}
		if batchID != "" {
			batches++
		}
	}

	for i := 0; i < opts.Frames; i++ {
		frame := world.RunFrame(opts.Delta)
		if snapper != nil {
			batchID, err := snapper.Flush(ctx, frame)
			if err != nil {
				_ = formatter.Error(ErrCodeJournal, err.Error(), nil)
				return WrapExitError(ExitCommandError, fmt.Sprintf("journal frame %d", frame), err)
			}
			if batchID != "" {
				batches++
			}
		}
	}

	result := RunResult{
		Entities: world.Entities().Count(),
		Rules:    len(world.Rules()),
		Frames:   world.Clock().Frame(),
		Elapsed:  world.Clock().Elapsed(),
	}
	if opts.Journal != "" {
		result.Batches = batches
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	fmt.Fprintf(formatter.Writer, "Ran %d frame(s) over %d entit(ies) with %d rule(s)\n",
		result.Frames, result.Entities, result.Rules)
	if opts.Journal != "" {
		fmt.Fprintf(formatter.Writer, "Journal %s: %d batch(es)\n", opts.Journal, batches)
	}
	return nil
}
