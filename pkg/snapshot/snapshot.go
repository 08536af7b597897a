// Package snapshot provides the immutable, serializable projection of a
// DataModel at a point in time. Snapshots are the unit the renderer and
// the diff engine consume, and the schema-versioned world artifact written
// to disk.
package snapshot

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/ludock/ludock/pkg/datamodel"
)

// SchemaVersion is the snapshot artifact schema version. Snapshots with a
// different major version are incompatible for diffing.
const SchemaVersion = "1.0"

// Record is one instance in pre-order traversal position.
type Record struct {
	ID         datamodel.Identity   `json:"id"`
	Class      string               `json:"class"`
	Name       string               `json:"name"`
	Path       string               `json:"path"`
	ParentPath string               `json:"parentPath,omitempty"`
	Properties datamodel.Properties `json:"properties"`
}

// Snapshot is an ordered pre-order projection of the full instance tree.
type Snapshot struct {
	SchemaVersion string   `json:"schemaVersion"`
	Instances     []Record `json:"instances"`
}

// Capture projects the finalized tree into a snapshot. Identities must be
// assigned; record order is the tree's canonical pre-order, so byte output
// is deterministic for identical input.
func Capture(root *datamodel.Instance) Snapshot {
	s := Snapshot{SchemaVersion: SchemaVersion}
	root.Walk(func(i *datamodel.Instance) bool {
		rec := Record{
			ID:         i.ID(),
			Class:      i.Class,
			Name:       i.Name,
			Path:       i.Path(),
			Properties: i.Properties,
		}
		if p := i.Parent(); p != nil {
			rec.ParentPath = p.Path()
		}
		s.Instances = append(s.Instances, rec)
		return true
	})
	return s
}

// CompatibleVersions reports whether two schema versions can be diffed:
// the major components must match.
func CompatibleVersions(a, b string) bool {
	return major(a) == major(b) && major(a) != ""
}

func major(v string) string {
	maj, _, _ := strings.Cut(v, ".")
	return maj
}

// Marshal encodes the snapshot as indented JSON.
func Marshal(s Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(s, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Hash returns the SHA-256 hex digest of the marshaled snapshot. Used as a
// content-addressed cache key for render artifacts.
func Hash(s Snapshot) (string, error) {
	data, err := Marshal(s)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// Write encodes the snapshot to w as indented JSON.
func Write(s Snapshot, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return nil
}

// WriteFile writes the snapshot to path with 0644 permissions.
func WriteFile(s Snapshot, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return Write(s, f)
}

// Read decodes a snapshot from r and validates the schema version is one
// this build can read.
func Read(r io.Reader) (Snapshot, error) {
	var s Snapshot
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	if !CompatibleVersions(s.SchemaVersion, SchemaVersion) {
		return Snapshot{}, fmt.Errorf("incompatible snapshot schema version %q (want %s-compatible)", s.SchemaVersion, SchemaVersion)
	}
	return s, nil
}

// ReadFile reads a snapshot artifact from disk.
func ReadFile(path string) (Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return Snapshot{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Read(f)
}

// Restore rebuilds an instance tree from a snapshot, re-running structural
// and property validation and identity assignment. Used by the standalone
// render and tree commands, which start from a world artifact instead of a
// project.
func Restore(s Snapshot) (*datamodel.Instance, error) {
	root := datamodel.NewRoot()
	byPath := map[string]*datamodel.Instance{datamodel.RootPath: root}

	for _, rec := range s.Instances {
		if rec.Path == datamodel.RootPath {
			if err := restoreProperties(root, rec); err != nil {
				return nil, err
			}
			continue
		}
		parent, ok := byPath[rec.ParentPath]
		if !ok {
			return nil, fmt.Errorf("restore %s: parent %q not seen before child", rec.Path, rec.ParentPath)
		}
		inst, err := datamodel.New(rec.Class, rec.Name)
		if err != nil {
			return nil, fmt.Errorf("restore %s: %w", rec.Path, err)
		}
		if err := restoreProperties(inst, rec); err != nil {
			return nil, err
		}
		if err := parent.AddChild(inst); err != nil {
			return nil, fmt.Errorf("restore %s: %w", rec.Path, err)
		}
		byPath[rec.Path] = inst
	}

	if err := datamodel.AssignIdentities(root); err != nil {
		return nil, err
	}
	return root, nil
}

// restoreProperties applies a record's properties through the same
// per-class validation a loaded project goes through, so a hand-edited
// artifact cannot smuggle in properties the class does not declare.
func restoreProperties(inst *datamodel.Instance, rec Record) error {
	for _, name := range slices.Sorted(maps.Keys(rec.Properties)) {
		if err := inst.SetProperty(name, rec.Properties[name]); err != nil {
			return fmt.Errorf("restore %s: %w", rec.Path, err)
		}
	}
	return nil
}
