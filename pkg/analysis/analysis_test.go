package analysis

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ludock/ludock/pkg/diag"
)

func TestParseLine(t *testing.T) {
	cases := []struct {
		in       string
		wantOK   bool
		wantFile string
		wantLine int
		wantCode string
		wantHint string
	}{
		{
			in:       `game/ServerScriptService/Main.server.lua(4,11): TypeError: Type 'string' could not be converted into 'number'`,
			wantOK:   true,
			wantFile: "game/ServerScriptService/Main.server.lua",
			wantLine: 4,
			wantCode: "TypeMismatch",
		},
		{
			in:       `game/a.lua(2,1): TypeError: Key 'Colr' does not exist in type 'Part'. Did you mean 'Color'?`,
			wantOK:   true,
			wantFile: "game/a.lua",
			wantLine: 2,
			wantCode: "UnknownProperty",
			wantHint: "Did you mean 'Color'",
		},
		{
			in:       `game/b.lua:7:3: SyntaxError: Expected ')' (to close '(' at column 1)`,
			wantOK:   true,
			wantFile: "game/b.lua",
			wantLine: 7,
			wantCode: "Syntax",
		},
		{
			in:       `game/c.lua:12: Unknown global 'pritn'`,
			wantOK:   true,
			wantFile: "game/c.lua",
			wantLine: 12,
			wantCode: "UnknownGlobal",
		},
		{in: "", wantOK: false},
		{in: "analyzing 3 files...", wantOK: false},
	}

	for _, tc := range cases {
		d, ok := parseLine(tc.in, diag.SeverityError)
		if ok != tc.wantOK {
			t.Errorf("parseLine(%q) ok = %v, want %v", tc.in, ok, tc.wantOK)
			continue
		}
		if !ok {
			continue
		}
		if d.File != tc.wantFile || d.Line != tc.wantLine || d.Code != tc.wantCode {
			t.Errorf("parseLine(%q) = %+v", tc.in, d)
		}
		if d.Hint != tc.wantHint {
			t.Errorf("parseLine(%q) hint = %q, want %q", tc.in, d.Hint, tc.wantHint)
		}
	}
}

func TestRunWithoutAnalyzerIsWarning(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "game", "ServerScriptService")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "Main.server.lua"), []byte(`print("hi")`), 0o644); err != nil {
		t.Fatal(err)
	}

	report, err := Run(context.Background(), root, Options{Command: "definitely-not-a-real-analyzer"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.HasErrors() {
		t.Fatalf("missing analyzer must not produce errors: %+v", report.Errors)
	}
	if len(report.Errors) != 1 || report.Errors[0].Code != "AnalyzerMissing" {
		t.Fatalf("want one AnalyzerMissing warning, got %+v", report.Errors)
	}
}

func TestRunWithoutScriptsIsEmpty(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "game", "Workspace"), 0o755); err != nil {
		t.Fatal(err)
	}
	report, err := Run(context.Background(), root, Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(report.Errors) != 0 {
		t.Fatalf("want no findings, got %+v", report.Errors)
	}
}

func TestRelaxedDowngradesSeverity(t *testing.T) {
	d, ok := parseLine(`game/a.lua(1,1): TypeError: boom`, diag.SeverityWarning)
	if !ok || d.Severity != diag.SeverityWarning {
		t.Fatalf("got %+v", d)
	}
}
