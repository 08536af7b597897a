// Package pipeline orchestrates the full validate → snapshot → render →
// diff run. Centralizing it here keeps the CLI and the artifact server on
// identical behavior.
//
// # Architecture
//
// A run has four stages:
//
//  1. Load: build the DataModel from the project directory and collect
//     structural and script diagnostics.
//  2. Snapshot: project the tree into the schema-versioned world artifact
//     and compute its content hash.
//  3. Render: rasterize the snapshot to a PNG, cached by content hash.
//  4. Diff: compare the snapshot against the stored baseline.
//
// Render and diff depend only on the snapshot and run concurrently.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, store, logger)
//	defer runner.Close()
//	opts := pipeline.Options{ProjectRoot: ".", Render3D: true, Diff: true}
//	result, err := runner.Execute(ctx, opts)
package pipeline

import (
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/ludock/ludock/pkg/cache"
	"github.com/ludock/ludock/pkg/datamodel"
	"github.com/ludock/ludock/pkg/diag"
	"github.com/ludock/ludock/pkg/diff"
	"github.com/ludock/ludock/pkg/snapshot"
)

// Default output dimensions, shared by CLI flags and config defaults.
const (
	DefaultWidth  = 800
	DefaultHeight = 600
)

// TTLRender is how long cached render artifacts live. Renders are pure
// functions of their key, so the TTL only bounds disk usage.
const TTLRender = 14 * 24 * time.Hour

// Preset names bundling option sets for common callers.
const (
	// PresetAgent is the default for automated callers: full validation
	// and diff, no image, machine-first output.
	PresetAgent = "agent"
	// PresetCI adds the render so pipelines can archive the frame.
	PresetCI = "ci"
	// PresetDebug renders with every overlay and relaxed analysis, for a
	// person investigating a scene.
	PresetDebug = "debug"
)

// ValidPresets is the set of supported presets.
var ValidPresets = map[string]bool{
	PresetAgent: true,
	PresetCI:    true,
	PresetDebug: true,
}

// Options configures one pipeline run.
type Options struct {
	// ProjectRoot is the directory containing game/ and ludock.toml.
	ProjectRoot string `json:"project_root"`

	// Project names the baseline slot. Empty defaults to the project
	// root's base name.
	Project string `json:"project,omitempty"`

	// Preset applies a bundled option set before explicit fields.
	Preset string `json:"preset,omitempty"`

	// Stage toggles.
	Render3D bool `json:"render_3d,omitempty"`
	Diff     bool `json:"diff,omitempty"`

	// Render options.
	Width       int  `json:"width,omitempty"`
	Height      int  `json:"height,omitempty"`
	DebugBounds bool `json:"debug_bounds,omitempty"`
	DebugOrigin bool `json:"debug_origin,omitempty"`
	DebugAxes   bool `json:"debug_axes,omitempty"`

	// Analysis options.
	Relaxed  bool   `json:"relaxed,omitempty"`
	Analyzer string `json:"analyzer,omitempty"`

	// Refresh bypasses the render cache.
	Refresh bool `json:"refresh,omitempty"`

	// UpdateBaseline stores the current snapshot as the new baseline
	// after diffing. A first run with no stored baseline always stores.
	UpdateBaseline bool `json:"update_baseline,omitempty"`

	// Runtime options (not serialized).
	Logger *log.Logger `json:"-"`

	// StageHook, when set, is called at stage boundaries: once with
	// done=false when a stage starts and once with done=true and a short
	// note when it finishes. Used by the CLI progress display.
	StageHook func(stage string, done bool, note string) `json:"-"`

	validated bool `json:"-"`
}

// stage invokes the hook, if any.
func (o *Options) stage(name string, done bool, note string) {
	if o.StageHook != nil {
		o.StageHook(name, done, note)
	}
}

// ValidateAndSetDefaults checks required fields, expands the preset, and
// applies defaults. Idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.ProjectRoot == "" {
		return fmt.Errorf("project root is required")
	}
	if o.Preset != "" {
		if !ValidPresets[o.Preset] {
			return fmt.Errorf("invalid preset: %q (must be one of: agent, ci, debug)", o.Preset)
		}
		o.applyPreset()
	}
	if o.Project == "" {
		o.Project = filepath.Base(o.ProjectRoot)
	}
	if o.Width == 0 {
		o.Width = DefaultWidth
	}
	if o.Height == 0 {
		o.Height = DefaultHeight
	}
	if o.Width < 0 || o.Height < 0 {
		return fmt.Errorf("render dimensions must be positive")
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

func (o *Options) applyPreset() {
	switch o.Preset {
	case PresetAgent:
		o.Diff = true
	case PresetCI:
		o.Render3D = true
		o.Diff = true
	case PresetDebug:
		o.Render3D = true
		o.Diff = true
		o.Relaxed = true
		o.DebugBounds = true
		o.DebugOrigin = true
		o.DebugAxes = true
	}
}

// RenderKeyOpts returns the cache key options for the render stage.
func (o *Options) RenderKeyOpts() cache.RenderKeyOpts {
	return cache.RenderKeyOpts{
		Width:       o.Width,
		Height:      o.Height,
		DebugBounds: o.DebugBounds,
		DebugOrigin: o.DebugOrigin,
		DebugAxes:   o.DebugAxes,
	}
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Root is the loaded DataModel.
	Root *datamodel.Instance

	// Snapshot is the world artifact, and SnapshotHash its content hash.
	Snapshot     snapshot.Snapshot
	SnapshotHash string

	// Diagnostics merges loader and analyzer findings.
	Diagnostics diag.Report

	// Diff is nil when diffing was disabled or no baseline exists yet.
	Diff *diff.Report

	// RenderPNG is the encoded frame; nil when rendering was disabled or
	// skipped because of errors.
	RenderPNG []byte

	// RenderErr and DiffErr carry per-stage failures. The stages run
	// concurrently and fail independently; a broken baseline store must
	// not discard a good render.
	RenderErr error
	DiffErr   error

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Ok reports whether the run produced no error diagnostics and no stage
// failures.
func (r *Result) Ok() bool {
	return !r.Diagnostics.HasErrors() && r.RenderErr == nil && r.DiffErr == nil
}

// Changed reports whether the diff found any difference.
func (r *Result) Changed() bool {
	return r.Diff != nil && r.Diff.Status == diff.StatusChanged
}

// Stats contains pipeline execution statistics.
type Stats struct {
	InstanceCount int
	LoadTime      time.Duration
	AnalysisTime  time.Duration
	SnapshotTime  time.Duration
	RenderTime    time.Duration
	DiffTime      time.Duration
}

// CacheInfo tracks cache hits.
type CacheInfo struct {
	RenderHit bool
}
