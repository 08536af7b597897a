package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/ludock/ludock/pkg/analysis"
	"github.com/ludock/ludock/pkg/baseline"
	"github.com/ludock/ludock/pkg/cache"
	"github.com/ludock/ludock/pkg/datamodel"
	"github.com/ludock/ludock/pkg/diff"
	"github.com/ludock/ludock/pkg/loader"
	"github.com/ludock/ludock/pkg/render"
	"github.com/ludock/ludock/pkg/snapshot"
)

// Runner executes pipeline runs against a cache and a baseline store.
//
// The Runner is stateless apart from its collaborators; multiple
// goroutines can share one Runner with different options.
type Runner struct {
	Cache    cache.Cache
	Keyer    cache.Keyer
	Baseline baseline.Store
	Logger   *log.Logger
}

// NewRunner creates a runner. A nil cache disables render caching, a nil
// keyer uses the default, a nil store disables diffing against baselines.
func NewRunner(c cache.Cache, keyer cache.Keyer, store baseline.Store, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Cache: c, Keyer: keyer, Baseline: store, Logger: logger}
}

// Execute runs load → snapshot → {render, diff}. Load failures return an
// error; diagnostics, including ones that blocked rendering, come back in
// the result. Render and diff failures are per-stage fields so one failed
// side channel never hides the other's output.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	r.applyLogger(&opts)

	result := &Result{}

	// Stage 1: load and analyze.
	opts.stage("load", false, "")
	loadStart := time.Now()
	root, report, err := loader.Load(opts.ProjectRoot)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	result.Root = root
	result.Stats.LoadTime = time.Since(loadStart)
	result.Stats.InstanceCount = root.Count()
	opts.stage("load", true, fmt.Sprintf("%d instances", result.Stats.InstanceCount))

	opts.stage("analyze", false, "")
	analysisStart := time.Now()
	scriptReport, err := analysis.Run(ctx, opts.ProjectRoot, analysis.Options{
		Command: opts.Analyzer,
		Relaxed: opts.Relaxed,
	})
	if err != nil {
		return nil, fmt.Errorf("analysis: %w", err)
	}
	report.Merge(scriptReport)
	report.Sort()
	result.Diagnostics = report
	result.Stats.AnalysisTime = time.Since(analysisStart)
	opts.stage("analyze", true, fmt.Sprintf("%d findings", len(report.Errors)))

	r.Logger.Info("loaded project",
		"instances", result.Stats.InstanceCount,
		"errors", report.ErrorCount(),
		"duration", result.Stats.LoadTime)

	// Stage 2: snapshot. Always captured, even for a failing project, so
	// the world artifact shows what did load.
	opts.stage("snapshot", false, "")
	snapStart := time.Now()
	result.Snapshot = snapshot.Capture(root)
	hash, err := snapshot.Hash(result.Snapshot)
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	result.SnapshotHash = hash
	result.Stats.SnapshotTime = time.Since(snapStart)
	opts.stage("snapshot", true, hash[:12])

	// Stage 3: render and diff, concurrently. Error diagnostics block the
	// render (an image of a broken scene would be misleading) but not the
	// diff, which is exactly what shows what broke.
	var wg sync.WaitGroup
	if opts.Render3D && !report.HasErrors() {
		wg.Add(1)
		opts.stage("render", false, "")
		go func() {
			defer wg.Done()
			start := time.Now()
			png, hit, err := r.renderCached(ctx, root, hash, opts)
			result.RenderPNG = png
			result.CacheInfo.RenderHit = hit
			result.RenderErr = err
			result.Stats.RenderTime = time.Since(start)
			note := "fresh"
			if hit {
				note = "cached"
			}
			opts.stage("render", true, note)
		}()
	}
	if opts.Diff && r.Baseline != nil {
		wg.Add(1)
		opts.stage("diff", false, "")
		go func() {
			defer wg.Done()
			start := time.Now()
			result.Diff, result.DiffErr = r.diffBaseline(ctx, opts, result.Snapshot)
			result.Stats.DiffTime = time.Since(start)
			note := "no baseline"
			if result.Diff != nil {
				note = result.Diff.Status
			}
			opts.stage("diff", true, note)
		}()
	}
	wg.Wait()

	if result.RenderErr == nil && result.RenderPNG != nil {
		r.Logger.Info("rendered frame",
			"bytes", len(result.RenderPNG),
			"cached", result.CacheInfo.RenderHit,
			"duration", result.Stats.RenderTime)
	}
	if result.Diff != nil {
		r.Logger.Info("diffed against baseline",
			"status", result.Diff.Status,
			"added", len(result.Diff.Added),
			"removed", len(result.Diff.Removed),
			"modified", len(result.Diff.Modified))
	}

	return result, nil
}

// renderCached renders through the content-addressed cache. The key is the
// snapshot hash plus every option that shapes output bytes, so a hit is
// exactly the artifact a fresh render would produce.
func (r *Runner) renderCached(ctx context.Context, root *datamodel.Instance, snapshotHash string, opts Options) ([]byte, bool, error) {
	key := r.Keyer.RenderKey(snapshotHash, opts.RenderKeyOpts())

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			return data, true, nil
		}
	}

	fb, err := render.Render(root, render.Options{
		Width:       opts.Width,
		Height:      opts.Height,
		DebugBounds: opts.DebugBounds,
		DebugOrigin: opts.DebugOrigin,
		DebugAxes:   opts.DebugAxes,
	})
	if err != nil {
		return nil, false, err
	}
	data, err := render.EncodePNGBytes(fb)
	if err != nil {
		return nil, false, err
	}
	_ = r.Cache.Set(ctx, key, data, TTLRender)
	return data, false, nil
}

// diffBaseline compares the current snapshot against the stored baseline.
// With no baseline yet, the snapshot becomes the baseline and no diff is
// reported.
func (r *Runner) diffBaseline(ctx context.Context, opts Options, current snapshot.Snapshot) (*diff.Report, error) {
	stored, ok, err := r.Baseline.Load(ctx, opts.Project)
	if err != nil {
		return nil, err
	}
	if !ok {
		r.Logger.Debug("no baseline yet, storing current snapshot", "project", opts.Project)
		return nil, r.Baseline.Save(ctx, opts.Project, current)
	}

	report, err := diff.Compare(stored, current)
	if err != nil {
		return nil, err
	}
	if opts.UpdateBaseline {
		if err := r.Baseline.Save(ctx, opts.Project, current); err != nil {
			return &report, err
		}
	}
	return &report, nil
}

// Close releases the cache and baseline store.
func (r *Runner) Close() error {
	var first error
	if r.Cache != nil {
		first = r.Cache.Close()
	}
	if r.Baseline != nil {
		if err := r.Baseline.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
