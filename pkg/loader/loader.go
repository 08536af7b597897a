// Package loader builds a DataModel from a project directory.
//
// Layout convention: the project root contains a `game/` directory whose
// subdirectories are services, folders, or models, and whose files are
// declarative instance files (parsed by the dsl collaborator) or Lua
// script stubs:
//
//	game/Workspace/MyPart.part        declarative Part
//	game/Workspace/cat.model/         Model directory
//	game/ServerScriptService/Main.server.lua   Script
//	game/StarterGui/Hud.gui           ScreenGui
//
// Directory entries are sorted lexicographically by name before insertion;
// that sort is the sole source of "first seen" tie-breaking anywhere in
// the system, which is what keeps identity assignment independent of
// filesystem enumeration order.
//
// Errors are accumulated, not fail-fast: one run reports every problem in
// the project, each tagged with its source file.
package loader

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/ludock/ludock/pkg/datamodel"
	"github.com/ludock/ludock/pkg/diag"
	"github.com/ludock/ludock/pkg/dsl"
)

// GameDir is the project subdirectory holding the instance tree.
const GameDir = "game"

// scriptSuffixes maps file-stem markers to script classes.
var scriptSuffixes = []struct {
	suffix string
	class  string
}{
	{".server", datamodel.ClassScript},
	{".local", datamodel.ClassLocalScript},
	{".module", datamodel.ClassModuleScript},
}

// extensionClasses maps declarative file extensions to classes.
var extensionClasses = map[string]string{
	".part":         datamodel.ClassPart,
	".basepart":     datamodel.ClassPart,
	".model":        datamodel.ClassModel,
	".folder":       datamodel.ClassFolder,
	".camera":       datamodel.ClassCamera,
	".gui":          datamodel.ClassScreenGui,
	".frame":        datamodel.ClassFrame,
	".label":        datamodel.ClassTextLabel,
	".button":       datamodel.ClassTextButton,
	".script":       datamodel.ClassScript,
	".localscript":  datamodel.ClassLocalScript,
	".modulescript": datamodel.ClassModuleScript,
}

// serviceNames is consulted when inferring a directory's class.
var serviceNames = map[string]bool{
	datamodel.ClassWorkspace:           true,
	datamodel.ClassLighting:            true,
	datamodel.ClassReplicatedFirst:     true,
	datamodel.ClassReplicatedStorage:   true,
	datamodel.ClassServerScriptService: true,
	datamodel.ClassServerStorage:       true,
	datamodel.ClassStarterGui:          true,
	datamodel.ClassStarterPack:         true,
	datamodel.ClassStarterPlayer:       true,
	datamodel.ClassSoundService:        true,
}

// Load builds the DataModel for the project at root. It returns the tree
// together with every accumulated structural and type finding; the error
// is non-nil only for conditions that prevent loading at all (missing or
// unreadable game directory).
func Load(projectRoot string) (*datamodel.Instance, diag.Report, error) {
	report := diag.NewReport()

	gamePath := filepath.Join(projectRoot, GameDir)
	if info, err := os.Stat(gamePath); err != nil || !info.IsDir() {
		return nil, report, fmt.Errorf("game directory not found at %s", gamePath)
	}

	root := datamodel.NewRoot()
	l := &loader{projectRoot: projectRoot, report: &report}
	l.loadDirectory(gamePath, root)

	if err := datamodel.AssignIdentities(root); err != nil {
		report.Add(diag.Diagnostic{
			Severity: diag.SeverityError,
			Message:  err.Error(),
			Code:     "IdentityCollision",
		})
	}

	report.Sort()
	return root, report, nil
}

type loader struct {
	projectRoot string
	report      *diag.Report
}

func (l *loader) addError(file string, line int, code, msg, hint string) {
	l.report.Add(diag.Diagnostic{
		Severity: diag.SeverityError,
		File:     file,
		Line:     line,
		Message:  msg,
		Code:     code,
		Hint:     hint,
	})
}

// relPath returns the slash-normalized path relative to the project root,
// the form diagnostics and identity derivation use.
func (l *loader) relPath(path string) string {
	rel, err := filepath.Rel(l.projectRoot, path)
	if err != nil {
		rel = path
	}
	return filepath.ToSlash(rel)
}

func (l *loader) loadDirectory(dir string, parent *datamodel.Instance) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		l.addError(l.relPath(dir), 0, "IO", fmt.Sprintf("read directory: %v", err), "")
		return
	}
	// os.ReadDir sorts by name already; sort explicitly anyway because this
	// order is a documented determinism guarantee, not an accident.
	slices.SortFunc(entries, func(a, b os.DirEntry) int {
		return strings.Compare(a.Name(), b.Name())
	})

	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		path := filepath.Join(dir, name)
		if entry.IsDir() {
			l.loadSubdirectory(path, name, parent)
		} else {
			l.loadFile(path, name, parent)
		}
	}
}

func (l *loader) loadSubdirectory(path, name string, parent *datamodel.Instance) {
	class, cleanName := classifyDirectory(name)

	inst, err := datamodel.New(class, cleanName)
	if err != nil {
		l.addError(l.relPath(path), 0, "UnknownClass", err.Error(), "")
		return
	}
	if err := parent.AddChild(inst); err != nil {
		l.addError(l.relPath(path), 0, "IllegalParent", err.Error(), "")
		return
	}
	l.loadDirectory(path, inst)
}

func (l *loader) loadFile(path, name string, parent *datamodel.Instance) {
	ext := strings.ToLower(filepath.Ext(name))
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	file := l.relPath(path)

	switch ext {
	case ".json", ".toml", "":
		return // project metadata, not instances
	case ".lua":
		l.loadScript(path, file, stem, parent)
		return
	}

	class, ok := extensionClasses[ext]
	if !ok {
		l.addError(file, 0, "UnknownExtension",
			fmt.Sprintf("unknown instance file extension %q", ext), "")
		return
	}

	content, err := os.ReadFile(path)
	if err != nil {
		l.addError(file, 0, "IO", fmt.Sprintf("read file: %v", err), "")
		return
	}

	props, parseErrs := dsl.Parse(string(content))
	for _, pe := range parseErrs {
		l.addError(file, pe.Line, "Syntax",
			fmt.Sprintf("col %d: %s", pe.Col, pe.Message), "")
	}

	// ClassName and Name assignments override the file-derived defaults.
	instName := stem
	if v, ok := props["ClassName"]; ok {
		if s, isStr := v.(datamodel.String); isStr {
			class = string(s)
		}
		delete(props, "ClassName")
	}
	if v, ok := props["Name"]; ok {
		if s, isStr := v.(datamodel.String); isStr {
			instName = string(s)
		}
		delete(props, "Name")
	}

	inst, err := datamodel.New(class, instName)
	if err != nil {
		l.addError(file, 0, "UnknownClass", err.Error(),
			"ClassName must be one of the closed class set")
		return
	}

	for _, propName := range slices.Sorted(maps.Keys(props)) {
		if err := inst.SetProperty(propName, props[propName]); err != nil {
			l.addError(file, 0, typeErrorCode(err),
				fmt.Sprintf("%s: %v", propName, err), propertyHint(class, propName))
		}
	}

	if err := parent.AddChild(inst); err != nil {
		l.addError(file, 0, "IllegalParent", err.Error(), "")
	}
}

func (l *loader) loadScript(path, file, stem string, parent *datamodel.Instance) {
	class := datamodel.ClassScript
	scriptName := stem
	for _, s := range scriptSuffixes {
		if strings.HasSuffix(stem, s.suffix) {
			class = s.class
			scriptName = strings.TrimSuffix(stem, s.suffix)
			break
		}
	}

	source, err := os.ReadFile(path)
	if err != nil {
		l.addError(file, 0, "IO", fmt.Sprintf("read file: %v", err), "")
		return
	}

	inst, err := datamodel.New(class, scriptName)
	if err != nil {
		l.addError(file, 0, "UnknownClass", err.Error(), "")
		return
	}
	if err := inst.SetProperty("Source", datamodel.String(source)); err != nil {
		l.addError(file, 0, "PropertyKind", err.Error(), "")
	}
	if err := parent.AddChild(inst); err != nil {
		l.addError(file, 0, "IllegalParent", err.Error(), "")
	}
}

// classifyDirectory infers a directory's class. An extension-style suffix
// ("cat.model") wins, then known service names, then Folder.
func classifyDirectory(name string) (class, cleanName string) {
	if idx := strings.LastIndexByte(name, '.'); idx >= 0 {
		if class, ok := extensionClasses[strings.ToLower(name[idx:])]; ok {
			return class, name[:idx]
		}
	}
	if serviceNames[name] {
		return name, name
	}
	return datamodel.ClassFolder, name
}

func typeErrorCode(err error) string {
	switch {
	case errors.Is(err, datamodel.ErrUnknownProperty):
		return "UnknownProperty"
	case errors.Is(err, datamodel.ErrPropertyKind):
		return "TypeMismatch"
	case errors.Is(err, datamodel.ErrUnknownEnumCategory), errors.Is(err, datamodel.ErrUnknownEnumItem):
		return "UnknownEnum"
	default:
		return "TypeError"
	}
}

// propertyHint suggests a near-miss property name for UnknownProperty
// findings so an agent can self-correct without a schema lookup.
func propertyHint(class, property string) string {
	spec, ok := datamodel.LookupClass(class)
	if !ok {
		return ""
	}
	lower := strings.ToLower(property)
	for candidate := range spec.Properties {
		if strings.ToLower(candidate) == lower && candidate != property {
			return fmt.Sprintf("Did you mean '%s'", candidate)
		}
	}
	return ""
}
