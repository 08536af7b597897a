// Package analysis shells out to an external Luau type checker and folds
// its findings into the diagnostics report. The integration is optional:
// a missing analyzer binary is reported once as a warning, never as a
// failure, so projects without scripts or without the toolchain still
// validate.
package analysis

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/ludock/ludock/pkg/diag"
)

// DefaultCommand is the analyzer binary looked up on PATH; a project-local
// copy next to the project root takes precedence.
const DefaultCommand = "luau-analyze"

// Options configures one analysis run.
type Options struct {
	// Command overrides the analyzer binary. Empty uses DefaultCommand.
	Command string

	// Relaxed downgrades every analyzer finding to a warning, for projects
	// mid-migration that want visibility without a failing exit.
	Relaxed bool
}

// Run analyzes every .lua file under the project's game directory and
// returns the merged findings. The returned error covers only setup
// problems; analyzer findings, including its non-zero exit, land in the
// report.
func Run(ctx context.Context, projectRoot string, opts Options) (diag.Report, error) {
	report := diag.NewReport()
	logger := log.FromContext(ctx).With("component", "analysis")

	files, err := luaFiles(projectRoot)
	if err != nil {
		return report, err
	}
	if len(files) == 0 {
		logger.Debug("no lua sources, skipping analysis")
		return report, nil
	}

	cmd, err := resolveCommand(projectRoot, opts.Command)
	if err != nil {
		logger.Warn("analyzer not found, skipping script analysis", "command", opts.Command)
		report.Add(diag.Diagnostic{
			Severity: diag.SeverityWarning,
			Message:  fmt.Sprintf("script analysis skipped: %v", err),
			Code:     "AnalyzerMissing",
		})
		return report, nil
	}

	logger.Debug("running analyzer", "command", cmd, "files", len(files))
	out, runErr := runAnalyzer(ctx, cmd, projectRoot, files)
	if runErr != nil && len(out) == 0 {
		// The analyzer exits non-zero when it finds problems; only a run
		// that produced no output at all is a setup failure.
		return report, fmt.Errorf("run %s: %w", cmd, runErr)
	}

	severity := diag.SeverityError
	if opts.Relaxed {
		severity = diag.SeverityWarning
	}
	for _, line := range strings.Split(string(out), "\n") {
		if d, ok := parseLine(line, severity); ok {
			report.Add(d)
		}
	}
	report.Sort()
	return report, nil
}

// luaFiles lists every .lua file under game/, sorted, paths relative to
// the project root.
func luaFiles(projectRoot string) ([]string, error) {
	var files []string
	gameDir := filepath.Join(projectRoot, "game")
	err := filepath.WalkDir(gameDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".lua") {
			return nil
		}
		rel, err := filepath.Rel(projectRoot, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list lua sources: %w", err)
	}
	slices.Sort(files)
	return files, nil
}

func resolveCommand(projectRoot, override string) (string, error) {
	name := override
	if name == "" {
		name = DefaultCommand
	}
	if local := filepath.Join(projectRoot, name); isExecutable(local) {
		return local, nil
	}
	return exec.LookPath(name)
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir() && info.Mode()&0o111 != 0
}

func runAnalyzer(ctx context.Context, cmd, dir string, files []string) ([]byte, error) {
	args := append([]string{"--formatter=plain"}, files...)
	c := exec.CommandContext(ctx, cmd, args...)
	c.Dir = dir
	return c.CombinedOutput()
}

// parseLine parses one analyzer output line. Two shapes are accepted:
//
//	file.lua(3,5): TypeError: message
//	file.lua:3:5: message
//
// Lines that match neither shape are dropped.
func parseLine(line string, severity string) (diag.Diagnostic, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return diag.Diagnostic{}, false
	}

	file, rest, lineNo, ok := splitLocation(line)
	if !ok {
		return diag.Diagnostic{}, false
	}

	msg := strings.TrimSpace(rest)
	d := diag.Diagnostic{
		Severity: severity,
		File:     file,
		Line:     lineNo,
		Message:  msg,
		Code:     classify(msg),
	}
	if hint, ok := extractHint(msg); ok {
		d.Hint = hint
	}
	return d, true
}

// splitLocation peels "file(line,col):" or "file:line:col:" off the front.
func splitLocation(line string) (file, rest string, lineNo int, ok bool) {
	if open := strings.Index(line, "("); open > 0 {
		if end := strings.Index(line[open:], "):"); end > 0 {
			loc := line[open+1 : open+end]
			lineStr, _, _ := strings.Cut(loc, ",")
			if n, err := strconv.Atoi(lineStr); err == nil {
				return line[:open], line[open+end+2:], n, true
			}
		}
	}

	parts := strings.SplitN(line, ":", 4)
	if len(parts) >= 3 && strings.HasSuffix(parts[0], ".lua") {
		if n, err := strconv.Atoi(parts[1]); err == nil {
			// The third segment may be a column or the message itself.
			if len(parts) == 4 {
				if _, err := strconv.Atoi(parts[2]); err == nil {
					return parts[0], parts[3], n, true
				}
				return parts[0], strings.Join(parts[2:], ":"), n, true
			}
			return parts[0], parts[2], n, true
		}
	}
	return "", "", 0, false
}

// classify maps analyzer message prefixes and phrases to stable codes.
func classify(msg string) string {
	switch {
	case strings.HasPrefix(msg, "TypeError"):
		if strings.Contains(msg, "does not exist") || strings.Contains(msg, "Unknown") {
			return "UnknownProperty"
		}
		return "TypeMismatch"
	case strings.HasPrefix(msg, "SyntaxError"):
		return "Syntax"
	case strings.Contains(msg, "Unknown global"), strings.Contains(msg, "Unknown require"):
		return "UnknownGlobal"
	default:
		return "Lint"
	}
}

// extractHint pulls the analyzer's "Did you mean ..." suggestion out of a
// message, when present.
func extractHint(msg string) (string, bool) {
	idx := strings.Index(msg, "Did you mean")
	if idx < 0 {
		return "", false
	}
	hint := strings.TrimSpace(msg[idx:])
	hint = strings.TrimSuffix(hint, "?")
	return hint, true
}
