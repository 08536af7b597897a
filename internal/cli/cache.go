package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ludock/ludock/pkg/cache"
	"github.com/ludock/ludock/pkg/config"
)

// newCacheCmd creates the cache command group for managing the local
// render artifact cache. Redis-backed caches are managed on the Redis
// side; these subcommands only touch the file backend.
func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the render artifact cache",
	}
	cmd.AddCommand(newCacheClearCmd())
	cmd.AddCommand(newCachePathCmd())
	return cmd
}

func newCacheClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear [project]",
		Short: "Delete all cached render artifacts",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openFileCache(args)
			if err != nil {
				return err
			}
			defer c.Close()
			if err := c.Clear(); err != nil {
				return fmt.Errorf("clear cache: %w", err)
			}
			printSuccess("Cleared render cache at %s", c.Dir())
			return nil
		},
	}
}

func newCachePathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path [project]",
		Short: "Print the cache directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openFileCache(args)
			if err != nil {
				return err
			}
			defer c.Close()
			fmt.Println(c.Dir())
			return nil
		},
	}
}

func openFileCache(args []string) (*cache.FileCache, error) {
	projectRoot := "."
	if len(args) == 1 {
		projectRoot = args[0]
	}
	cfg, err := config.Load(projectRoot)
	if err != nil {
		return nil, err
	}
	dir := cfg.Cache.Dir
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(projectRoot, dir)
	}
	return cache.NewFileCache(dir)
}
