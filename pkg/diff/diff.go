// Package diff compares two snapshots and reports added, removed, and
// modified instances. Instances pair by identity first, then leftover
// records pair by tree position, so a property edit reads as a
// modification of the same instance rather than a remove/add pair.
// Numeric comparisons carry a tolerance so re-serialized floats do not
// read as scene changes, while discrete values (strings, booleans, enums,
// pixel offsets) compare exactly.
package diff

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"math"
	"os"
	"slices"

	"github.com/ludock/ludock/pkg/datamodel"
	"github.com/ludock/ludock/pkg/snapshot"
)

// SchemaVersion is the diff artifact schema version.
const SchemaVersion = "1.0"

// Float tolerance: values a and b are equal when
// |a-b| <= AbsTolerance + RelTolerance*max(|a|, |b|).
const (
	AbsTolerance = 1e-4
	RelTolerance = 1e-7
)

// Report statuses.
const (
	StatusChanged   = "changed"
	StatusUnchanged = "unchanged"
)

// Entry identifies one instance in an added or removed list.
type Entry struct {
	ID    datamodel.Identity `json:"id"`
	Class string             `json:"class"`
	Name  string             `json:"name"`
	Path  string             `json:"path"`
}

// Displacement summarizes how far a spatial value moved, so a consumer can
// reason about magnitude without decoding the value encoding.
type Displacement struct {
	Distance      float64 `json:"distance"`
	RotationAngle float64 `json:"rotationAngle,omitempty"`
}

// PropertyChange is one changed property on a surviving instance.
type PropertyChange struct {
	Property     string        `json:"property"`
	Old          jsonValue     `json:"old"`
	New          jsonValue     `json:"new"`
	Displacement *Displacement `json:"displacement,omitempty"`
}

// Modification is a surviving instance with at least one changed property.
type Modification struct {
	ID      datamodel.Identity `json:"id"`
	Class   string             `json:"class"`
	Name    string             `json:"name"`
	Path    string             `json:"path"`
	Changes []PropertyChange   `json:"changes"`
}

// Report is the diff artifact.
type Report struct {
	SchemaVersion string         `json:"schemaVersion"`
	Status        string         `json:"status"`
	Added         []Entry        `json:"added"`
	Removed       []Entry        `json:"removed"`
	Modified      []Modification `json:"modified"`
}

// jsonValue wraps a datamodel value for artifact encoding; nil values (a
// property present on only one side) encode as JSON null.
type jsonValue struct{ v datamodel.Value }

func (j jsonValue) MarshalJSON() ([]byte, error) {
	if j.v == nil {
		return []byte("null"), nil
	}
	return datamodel.MarshalValue(j.v)
}

// Compare diffs current against baseline. It fails when the two snapshots
// carry incompatible schema versions; everything else is reported, never
// errored.
//
// Pairing runs in two passes. Identities match first; identity encodes
// both tree position and a content digest, so an edited instance gets a
// new identity. The second pass therefore re-pairs leftover added/removed
// records that share a class and canonical path: those are the same
// instance with edited properties, reported as modified (or, when every
// property delta is within tolerance, not reported at all). Only records
// with no positional partner remain added or removed.
func Compare(baseline, current snapshot.Snapshot) (Report, error) {
	if !snapshot.CompatibleVersions(baseline.SchemaVersion, current.SchemaVersion) {
		return Report{}, fmt.Errorf("incompatible snapshot schema versions %q and %q",
			baseline.SchemaVersion, current.SchemaVersion)
	}

	base := byIdentity(baseline)
	cur := byIdentity(current)

	r := Report{
		SchemaVersion: SchemaVersion,
		Added:         []Entry{},
		Removed:       []Entry{},
		Modified:      []Modification{},
	}

	var added, removed []snapshot.Record
	for id, rec := range cur {
		if _, ok := base[id]; !ok {
			added = append(added, rec)
		}
	}
	for id, rec := range base {
		if _, ok := cur[id]; !ok {
			removed = append(removed, rec)
		}
	}
	for id, now := range cur {
		was, ok := base[id]
		if !ok {
			continue
		}
		if changes := compareProperties(was, now); len(changes) > 0 {
			r.Modified = append(r.Modified, Modification{
				ID: id, Class: now.Class, Name: now.Name, Path: now.Path,
				Changes: changes,
			})
		}
	}

	// Pair the residue by position. Sorted by identity first so that
	// identical siblings (same class and path) pair deterministically.
	sortRecords(added)
	sortRecords(removed)
	removedByPath := make(map[pathKey][]snapshot.Record, len(removed))
	for _, rec := range removed {
		k := pathKey{rec.Class, rec.Path}
		removedByPath[k] = append(removedByPath[k], rec)
	}
	for _, now := range added {
		k := pathKey{now.Class, now.Path}
		partners := removedByPath[k]
		if len(partners) == 0 {
			r.Added = append(r.Added, entryOf(now))
			continue
		}
		was := partners[0]
		removedByPath[k] = partners[1:]
		if changes := compareProperties(was, now); len(changes) > 0 {
			r.Modified = append(r.Modified, Modification{
				ID: now.ID, Class: now.Class, Name: now.Name, Path: now.Path,
				Changes: changes,
			})
		}
		// Identity drifted but every property is within tolerance:
		// round-trip noise, not a change.
	}
	for _, partners := range removedByPath {
		for _, rec := range partners {
			r.Removed = append(r.Removed, entryOf(rec))
		}
	}

	sortEntries(r.Added)
	sortEntries(r.Removed)
	slices.SortFunc(r.Modified, func(a, b Modification) int {
		return datamodel.CompareIdentity(a.ID, b.ID)
	})

	r.Status = StatusUnchanged
	if len(r.Added)+len(r.Removed)+len(r.Modified) > 0 {
		r.Status = StatusChanged
	}
	return r, nil
}

// pathKey positions an instance in the tree independent of its content.
type pathKey struct {
	Class string
	Path  string
}

func byIdentity(s snapshot.Snapshot) map[datamodel.Identity]snapshot.Record {
	m := make(map[datamodel.Identity]snapshot.Record, len(s.Instances))
	for _, rec := range s.Instances {
		m[rec.ID] = rec
	}
	return m
}

func sortRecords(recs []snapshot.Record) {
	slices.SortFunc(recs, func(a, b snapshot.Record) int {
		return datamodel.CompareIdentity(a.ID, b.ID)
	})
}

func entryOf(rec snapshot.Record) Entry {
	return Entry{ID: rec.ID, Class: rec.Class, Name: rec.Name, Path: rec.Path}
}

func sortEntries(es []Entry) {
	slices.SortFunc(es, func(a, b Entry) int {
		return datamodel.CompareIdentity(a.ID, b.ID)
	})
}

func compareProperties(was, now snapshot.Record) []PropertyChange {
	names := make(map[string]struct{}, len(was.Properties)+len(now.Properties))
	for n := range was.Properties {
		names[n] = struct{}{}
	}
	for n := range now.Properties {
		names[n] = struct{}{}
	}

	var changes []PropertyChange
	for _, name := range slices.Sorted(maps.Keys(names)) {
		old := was.Properties[name]
		cur := now.Properties[name]
		if valuesEqual(old, cur) {
			continue
		}
		changes = append(changes, PropertyChange{
			Property:     name,
			Old:          jsonValue{old},
			New:          jsonValue{cur},
			Displacement: displacement(old, cur),
		})
	}
	return changes
}

// valuesEqual applies the per-kind comparison policy: toleranced for
// continuous kinds, exact for discrete ones. Values of different kinds,
// or present on only one side, are never equal.
func valuesEqual(a, b datamodel.Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Kind() != b.Kind() {
		return false
	}
	switch av := a.(type) {
	case datamodel.Number:
		return floatEqual(float64(av), float64(b.(datamodel.Number)))
	case datamodel.Vector3:
		bv := b.(datamodel.Vector3)
		return floatEqual(av.X, bv.X) && floatEqual(av.Y, bv.Y) && floatEqual(av.Z, bv.Z)
	case datamodel.Color3:
		bv := b.(datamodel.Color3)
		return floatEqual(av.R, bv.R) && floatEqual(av.G, bv.G) && floatEqual(av.B, bv.B)
	case datamodel.UDim2:
		bv := b.(datamodel.UDim2)
		// Scales are continuous, pixel offsets discrete.
		return floatEqual(av.X.Scale, bv.X.Scale) && floatEqual(av.Y.Scale, bv.Y.Scale) &&
			av.X.Offset == bv.X.Offset && av.Y.Offset == bv.Y.Offset
	case datamodel.CFrame:
		bv := b.(datamodel.CFrame)
		if !floatEqual(av.Position.X, bv.Position.X) ||
			!floatEqual(av.Position.Y, bv.Position.Y) ||
			!floatEqual(av.Position.Z, bv.Position.Z) {
			return false
		}
		for i := range av.Rotation {
			if !floatEqual(av.Rotation[i], bv.Rotation[i]) {
				return false
			}
		}
		return true
	default:
		// String, Bool, Enum: exact.
		return a.Equal(b)
	}
}

func floatEqual(a, b float64) bool {
	return math.Abs(a-b) <= AbsTolerance+RelTolerance*math.Max(math.Abs(a), math.Abs(b))
}

// displacement computes the spatial summary for kinds that have one.
func displacement(old, cur datamodel.Value) *Displacement {
	if old == nil || cur == nil {
		return nil
	}
	switch ov := old.(type) {
	case datamodel.Vector3:
		nv, ok := cur.(datamodel.Vector3)
		if !ok {
			return nil
		}
		return &Displacement{Distance: ov.Distance(nv)}
	case datamodel.CFrame:
		nv, ok := cur.(datamodel.CFrame)
		if !ok {
			return nil
		}
		return &Displacement{
			Distance:      ov.Position.Distance(nv.Position),
			RotationAngle: ov.Rotation.AngleTo(nv.Rotation),
		}
	}
	return nil
}

// Write encodes the report as indented JSON.
func (r Report) Write(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encode diff: %w", err)
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
