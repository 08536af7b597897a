package cli

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"github.com/ludock/ludock/pkg/config"
	"github.com/ludock/ludock/pkg/pipeline"
)

// newRunCmd creates the run command: the full compile → validate →
// snapshot → render → diff pipeline writing the results/ artifacts.
func newRunCmd() *cobra.Command {
	var (
		render3D       bool
		diffOn         bool
		relaxed        bool
		preset         string
		refresh        bool
		updateBaseline bool
		debugBounds    bool
		debugOrigin    bool
		debugAxes      bool
		width          int
		height         int
		noTUI          bool
	)

	cmd := &cobra.Command{
		Use:   "run [project]",
		Short: "Compile, validate, snapshot, and diff a scene project",
		Long: `Run builds the DataModel from the project directory, validates
structure and scripts, captures the world snapshot, optionally renders a
deterministic frame, and diffs against the stored baseline.

Artifacts are written to results/: world.json, diagnostics.json, and,
when enabled, render.png and diff.json.

The exit code is non-zero when validation found errors, so automated
callers can gate on it directly.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			projectRoot := "."
			if len(args) == 1 {
				projectRoot = args[0]
			}

			cfg, err := config.Load(projectRoot)
			if err != nil {
				return err
			}

			opts := pipeline.Options{
				ProjectRoot:    projectRoot,
				Preset:         preset,
				Render3D:       render3D,
				Diff:           diffOn,
				Relaxed:        relaxed || cfg.Analysis.Relaxed,
				Analyzer:       cfg.Analysis.Command,
				Refresh:        refresh,
				UpdateBaseline: updateBaseline,
				Width:          width,
				Height:         height,
				DebugBounds:    debugBounds || cfg.Render.DebugBounds,
				DebugOrigin:    debugOrigin || cfg.Render.DebugOrigin,
				DebugAxes:      debugAxes || cfg.Render.DebugAxes,
				Logger:         logger,
			}
			if opts.Width == 0 {
				opts.Width = cfg.Render.Width
			}
			if opts.Height == 0 {
				opts.Height = cfg.Render.Height
			}
			if err := opts.ValidateAndSetDefaults(); err != nil {
				return err
			}

			c, err := openCache(ctx, projectRoot, cfg.Cache, logger)
			if err != nil {
				return err
			}
			store, err := openBaseline(ctx, projectRoot, cfg.Baseline, logger)
			if err != nil {
				_ = c.Close()
				return err
			}
			runner := pipeline.NewRunner(c, nil, store, logger)
			defer runner.Close()

			interactive := !noTUI && term.IsTerminal(os.Stdout.Fd())
			var result *pipeline.Result
			if interactive {
				result, err = executeWithTUI(ctx, runner, opts)
			} else {
				p := newProgress(logger)
				result, err = runner.Execute(ctx, opts)
				if err == nil {
					p.done(fmt.Sprintf("Validated %d instances", result.Stats.InstanceCount))
				}
			}
			if err != nil {
				return err
			}

			if err := writeArtifacts(projectRoot, opts, result); err != nil {
				return err
			}
			printRunSummary(projectRoot, opts, result)

			if result.Diagnostics.HasErrors() {
				return fmt.Errorf("%d validation errors", result.Diagnostics.ErrorCount())
			}
			if result.RenderErr != nil {
				return fmt.Errorf("render: %w", result.RenderErr)
			}
			if result.DiffErr != nil {
				return fmt.Errorf("diff: %w", result.DiffErr)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&render3D, "3d", false, "render the 3D frame")
	cmd.Flags().BoolVar(&diffOn, "diff", false, "diff against the stored baseline")
	cmd.Flags().BoolVar(&relaxed, "relaxed", false, "downgrade script analysis findings to warnings")
	cmd.Flags().StringVar(&preset, "preset", "", "option preset: agent, ci, or debug")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "bypass the render cache")
	cmd.Flags().BoolVar(&updateBaseline, "update-baseline", false, "store the current snapshot as the new baseline")
	cmd.Flags().BoolVar(&debugBounds, "debug-bounds", false, "overlay part bounding boxes")
	cmd.Flags().BoolVar(&debugOrigin, "debug-origin", false, "overlay the world origin marker")
	cmd.Flags().BoolVar(&debugAxes, "debug-axes", false, "overlay the world axes")
	cmd.Flags().IntVar(&width, "width", 0, "render width in pixels")
	cmd.Flags().IntVar(&height, "height", 0, "render height in pixels")
	cmd.Flags().BoolVar(&noTUI, "no-tui", false, "disable the interactive progress display")

	return cmd
}

// executeWithTUI runs the pipeline behind the bubbletea progress display,
// fed by the pipeline's stage hook.
func executeWithTUI(ctx context.Context, runner *pipeline.Runner, opts pipeline.Options) (*pipeline.Result, error) {
	updates := make(chan tea.Msg, 16)
	opts.StageHook = func(stage string, done bool, note string) {
		updates <- stageMsg{stage: stage, done: done, note: note}
	}

	var (
		result  *pipeline.Result
		execErr error
		done    = make(chan struct{})
	)
	prog := tea.NewProgram(NewRunProgressModel(updates), tea.WithContext(ctx))
	go func() {
		defer close(done)
		result, execErr = runner.Execute(ctx, opts)
		updates <- runDoneMsg{err: execErr}
	}()

	if _, err := prog.Run(); err != nil {
		// The display failing or being quit must not lose the run; keep
		// draining stage events until the pipeline finishes.
		loggerFromContext(ctx).Debug("progress display stopped", "err", err)
	}
	for {
		select {
		case <-done:
			if execErr != nil {
				return nil, execErr
			}
			return result, nil
		case <-updates:
			// discard late stage events
		}
	}
}

// writeArtifacts writes the results/ artifact set for the run.
func writeArtifacts(projectRoot string, opts pipeline.Options, result *pipeline.Result) error {
	if err := os.MkdirAll(artifactPath(projectRoot, ""), 0o755); err != nil {
		return fmt.Errorf("create results dir: %w", err)
	}

	if err := writeWorld(result, artifactPath(projectRoot, worldArtifact)); err != nil {
		return err
	}
	if err := result.Diagnostics.WriteFile(artifactPath(projectRoot, diagnosticsArtifact)); err != nil {
		return err
	}
	if result.Diff != nil {
		if err := result.Diff.WriteFile(artifactPath(projectRoot, diffArtifact)); err != nil {
			return err
		}
	}
	if len(result.RenderPNG) > 0 {
		if err := os.WriteFile(artifactPath(projectRoot, renderArtifact), result.RenderPNG, 0o644); err != nil {
			return fmt.Errorf("write render artifact: %w", err)
		}
	}
	return nil
}

func printRunSummary(projectRoot string, opts pipeline.Options, result *pipeline.Result) {
	printNewline()
	if result.Diagnostics.HasErrors() {
		printError("Validation failed with %d errors", result.Diagnostics.ErrorCount())
		for _, d := range result.Diagnostics.Errors {
			printDetail("%s", d.String())
		}
	} else {
		printSuccess("Validated %d instances", result.Stats.InstanceCount)
	}
	printStats(result.Stats.InstanceCount, result.Diagnostics.ErrorCount(), result.CacheInfo.RenderHit)

	printFile(artifactPath(projectRoot, worldArtifact))
	printFile(artifactPath(projectRoot, diagnosticsArtifact))
	if result.Diff != nil {
		printFile(artifactPath(projectRoot, diffArtifact))
		if result.Changed() {
			printWarning("World changed: %d added, %d removed, %d modified",
				len(result.Diff.Added), len(result.Diff.Removed), len(result.Diff.Modified))
		}
	}
	if len(result.RenderPNG) > 0 {
		printFile(artifactPath(projectRoot, renderArtifact))
	}

	if !opts.Render3D && !result.Diagnostics.HasErrors() {
		printNextStep("Render the frame", "ludock run --3d")
	}
}
