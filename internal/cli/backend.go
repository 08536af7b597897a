package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/ludock/ludock/pkg/baseline"
	"github.com/ludock/ludock/pkg/cache"
	"github.com/ludock/ludock/pkg/config"
	"github.com/ludock/ludock/pkg/pipeline"
	"github.com/ludock/ludock/pkg/snapshot"
)

// resultsDir is where run artifacts are written, relative to the project.
const resultsDir = "results"

// Artifact file names under resultsDir.
const (
	worldArtifact       = "world.json"
	diffArtifact        = "diff.json"
	diagnosticsArtifact = "diagnostics.json"
	renderArtifact      = "render.png"
)

// openCache builds the render cache backend the config selects: Redis
// when an address is configured, a project-local file cache otherwise.
func openCache(ctx context.Context, projectRoot string, cfg config.Cache, logger *log.Logger) (cache.Cache, error) {
	if cfg.RedisAddr != "" {
		logger.Debug("using redis render cache", "addr", cfg.RedisAddr)
		c, err := cache.NewRedisCache(ctx, cfg.RedisAddr)
		if err != nil {
			return nil, fmt.Errorf("open render cache: %w", err)
		}
		return c, nil
	}
	dir := cfg.Dir
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(projectRoot, dir)
	}
	c, err := cache.NewFileCache(dir)
	if err != nil {
		return nil, fmt.Errorf("open render cache: %w", err)
	}
	return c, nil
}

// openBaseline builds the baseline store the config selects: MongoDB when
// a URI is configured, project-local files otherwise.
func openBaseline(ctx context.Context, projectRoot string, cfg config.Baseline, logger *log.Logger) (baseline.Store, error) {
	if cfg.MongoURI != "" {
		logger.Debug("using mongodb baseline store", "db", cfg.MongoDB)
		s, err := baseline.NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, fmt.Errorf("open baseline store: %w", err)
		}
		return s, nil
	}
	dir := cfg.Dir
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(projectRoot, dir)
	}
	s, err := baseline.NewFileStore(dir)
	if err != nil {
		return nil, fmt.Errorf("open baseline store: %w", err)
	}
	return s, nil
}

func artifactPath(projectRoot, name string) string {
	return filepath.Join(projectRoot, resultsDir, name)
}

// writeWorld writes the run's world snapshot artifact.
func writeWorld(result *pipeline.Result, path string) error {
	return snapshot.WriteFile(result.Snapshot, path)
}
