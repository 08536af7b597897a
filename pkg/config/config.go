// Package config loads project settings from ludock.toml at the project
// root. Every field has a default; a project without a config file works
// out of the box.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// FileName is the config file looked up at the project root.
const FileName = "ludock.toml"

// Config is the full project configuration.
type Config struct {
	Render   Render   `toml:"render"`
	Analysis Analysis `toml:"analysis"`
	Cache    Cache    `toml:"cache"`
	Baseline Baseline `toml:"baseline"`
}

// Render configures the output image.
type Render struct {
	Width       int  `toml:"width"`
	Height      int  `toml:"height"`
	DebugBounds bool `toml:"debug_bounds"`
	DebugOrigin bool `toml:"debug_origin"`
	DebugAxes   bool `toml:"debug_axes"`
}

// Analysis configures the external script analyzer.
type Analysis struct {
	// Relaxed downgrades analyzer findings to warnings.
	Relaxed bool `toml:"relaxed"`
	// Command overrides the analyzer binary name.
	Command string `toml:"command"`
}

// Cache selects the render cache backend. RedisAddr set means Redis;
// otherwise a file cache under Dir.
type Cache struct {
	Dir       string `toml:"dir"`
	RedisAddr string `toml:"redis_addr"`
}

// Baseline selects the baseline store. MongoURI set means MongoDB;
// otherwise baselines live under Dir.
type Baseline struct {
	Dir      string `toml:"dir"`
	MongoURI string `toml:"mongo_uri"`
	MongoDB  string `toml:"mongo_db"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Render: Render{Width: 800, Height: 600},
		Cache:  Cache{Dir: filepath.Join(".ludock", "cache")},
		Baseline: Baseline{
			Dir:     filepath.Join(".ludock", "baselines"),
			MongoDB: "ludock",
		},
	}
}

// Load reads ludock.toml from the project root, falling back to defaults
// when the file does not exist. Fields missing from the file keep their
// default values.
func Load(projectRoot string) (Config, error) {
	cfg := Default()
	path := filepath.Join(projectRoot, FileName)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", FileName, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("parse %s: unknown key %q", FileName, undecoded[0].String())
	}
	if cfg.Render.Width <= 0 || cfg.Render.Height <= 0 {
		return Config{}, fmt.Errorf("parse %s: render dimensions must be positive", FileName)
	}
	return cfg, nil
}
