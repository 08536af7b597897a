package cli

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ludock/ludock/pkg/analysis"
	"github.com/ludock/ludock/pkg/config"
)

// newDoctorCmd creates the doctor command: check the local toolchain and
// project setup.
func newDoctorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor [project]",
		Short: "Check the local toolchain",
		Long: `Doctor checks that everything a run needs is in place: the project
configuration parses, the script analyzer is reachable, and the artifact
directories are writable. Problems are reported as warnings; only a
broken configuration fails the command.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectRoot := "."
			if len(args) == 1 {
				projectRoot = args[0]
			}

			healthy := true

			cfg, err := config.Load(projectRoot)
			if err != nil {
				printError("Configuration: %v", err)
				return err
			}
			cfgPath := filepath.Join(projectRoot, config.FileName)
			if _, statErr := os.Stat(cfgPath); statErr == nil {
				printSuccess("Configuration: %s", cfgPath)
			} else {
				printInfo("Configuration: using defaults (no %s)", config.FileName)
			}

			if _, statErr := os.Stat(filepath.Join(projectRoot, "game")); statErr == nil {
				printSuccess("Project layout: game/ directory present")
			} else {
				printWarning("Project layout: no game/ directory, runs will fail")
				healthy = false
			}

			analyzer := cfg.Analysis.Command
			if analyzer == "" {
				analyzer = analysis.DefaultCommand
			}
			if local := filepath.Join(projectRoot, analyzer); isExecutable(local) {
				printSuccess("Script analyzer: %s (project-local)", local)
			} else if path, lookErr := exec.LookPath(analyzer); lookErr == nil {
				printSuccess("Script analyzer: %s", path)
			} else {
				printWarning("Script analyzer: %q not found, scripts will not be checked", analyzer)
				healthy = false
			}

			for _, dir := range []string{
				filepath.Join(projectRoot, resultsDir),
				filepath.Join(projectRoot, cfg.Cache.Dir),
				filepath.Join(projectRoot, cfg.Baseline.Dir),
			} {
				if err := checkWritable(dir); err != nil {
					printWarning("Directory %s: %v", dir, err)
					healthy = false
				} else {
					printSuccess("Directory %s: writable", dir)
				}
			}

			printNewline()
			if healthy {
				printSuccess("Everything looks good")
			} else {
				printWarning("Some checks failed, see above")
			}
			return nil
		},
	}
	return cmd
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir() && info.Mode()&0o111 != 0
}

// checkWritable creates the directory if needed and probes it with a
// temp file.
func checkWritable(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, ".doctor-*")
	if err != nil {
		return fmt.Errorf("not writable: %w", err)
	}
	name := f.Name()
	_ = f.Close()
	return os.Remove(name)
}
