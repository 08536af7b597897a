// Package diag defines the diagnostics artifact shared by the loader and
// the external script-analysis integration. Every error the pipeline can
// surface carries enough location information (file, line, instance path)
// for an automated agent to act on it without human translation.
package diag

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
)

// SchemaVersion is the diagnostics artifact schema version.
const SchemaVersion = "1.0"

// Severity levels for diagnostics.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// Diagnostic is one finding: a parse error, a hierarchy violation, or an
// external-analysis message.
type Diagnostic struct {
	Severity string `json:"severity"`
	File     string `json:"file,omitempty"`
	Line     int    `json:"line,omitempty"`
	Message  string `json:"message"`

	// Code is a stable machine-readable category, e.g. "UnknownProperty".
	Code string `json:"code,omitempty"`
	// Hint is a suggested fix, e.g. "Did you mean 'Size'".
	Hint string `json:"hint,omitempty"`
	// Path is the instance path the finding applies to, when known.
	Path string `json:"path,omitempty"`
}

func (d Diagnostic) String() string {
	loc := d.File
	if d.Line > 0 {
		loc = fmt.Sprintf("%s:%d", d.File, d.Line)
	}
	if loc != "" {
		return fmt.Sprintf("%s: %s: %s", loc, d.Severity, d.Message)
	}
	return fmt.Sprintf("%s: %s", d.Severity, d.Message)
}

// Report is the diagnostics artifact: merged loader findings and external
// analysis output.
type Report struct {
	SchemaVersion string       `json:"schemaVersion"`
	Errors        []Diagnostic `json:"errors"`
}

// NewReport creates an empty report with the current schema version.
func NewReport() Report {
	return Report{SchemaVersion: SchemaVersion, Errors: []Diagnostic{}}
}

// Add appends diagnostics to the report.
func (r *Report) Add(ds ...Diagnostic) {
	r.Errors = append(r.Errors, ds...)
}

// Merge appends another report's diagnostics.
func (r *Report) Merge(other Report) {
	r.Errors = append(r.Errors, other.Errors...)
}

// ErrorCount returns the number of error-severity diagnostics.
func (r Report) ErrorCount() int {
	n := 0
	for _, d := range r.Errors {
		if d.Severity == SeverityError {
			n++
		}
	}
	return n
}

// HasErrors reports whether any error-severity diagnostic is present.
func (r Report) HasErrors() bool { return r.ErrorCount() > 0 }

// Sort orders diagnostics by (file, line, path, message) for reproducible
// artifact bytes.
func (r *Report) Sort() {
	slices.SortStableFunc(r.Errors, func(a, b Diagnostic) int {
		if c := strings.Compare(a.File, b.File); c != 0 {
			return c
		}
		if a.Line != b.Line {
			return a.Line - b.Line
		}
		if c := strings.Compare(a.Path, b.Path); c != 0 {
			return c
		}
		return strings.Compare(a.Message, b.Message)
	})
}

// Write encodes the report as indented JSON.
func (r Report) Write(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encode diagnostics: %w", err)
	}
	return nil
}

// WriteFile writes the report to path with 0644 permissions.
func (r Report) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return r.Write(f)
}
