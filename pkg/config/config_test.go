package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Render.Width != 800 || cfg.Render.Height != 600 {
		t.Fatalf("default render = %+v", cfg.Render)
	}
	if cfg.Cache.Dir == "" || cfg.Baseline.Dir == "" {
		t.Fatalf("default dirs missing: %+v", cfg)
	}
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	dir := writeConfig(t, `
[render]
width = 1920
height = 1080

[analysis]
relaxed = true
`)
	cfg, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Render.Width != 1920 || cfg.Render.Height != 1080 {
		t.Fatalf("render = %+v", cfg.Render)
	}
	if !cfg.Analysis.Relaxed {
		t.Fatal("relaxed not read")
	}
	if cfg.Baseline.MongoDB != "ludock" {
		t.Fatalf("unset field lost its default: %+v", cfg.Baseline)
	}
}

func TestLoadBackendSelection(t *testing.T) {
	dir := writeConfig(t, `
[cache]
redis_addr = "localhost:6379"

[baseline]
mongo_uri = "mongodb://localhost:27017"
mongo_db = "scenes"
`)
	cfg, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Cache.RedisAddr != "localhost:6379" {
		t.Fatalf("cache = %+v", cfg.Cache)
	}
	if cfg.Baseline.MongoURI == "" || cfg.Baseline.MongoDB != "scenes" {
		t.Fatalf("baseline = %+v", cfg.Baseline)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	dir := writeConfig(t, `
[render]
widht = 800
`)
	if _, err := Load(dir); err == nil {
		t.Fatal("want error for misspelled key")
	}
}

func TestLoadRejectsBadDimensions(t *testing.T) {
	dir := writeConfig(t, `
[render]
width = -1
height = 600
`)
	if _, err := Load(dir); err == nil {
		t.Fatal("want error for negative width")
	}
}
