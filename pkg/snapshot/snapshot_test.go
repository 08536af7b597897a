package snapshot

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/ludock/ludock/pkg/datamodel"
)

func buildTree(t *testing.T) *datamodel.Instance {
	t.Helper()
	root := datamodel.NewRoot()

	ws, err := datamodel.New(datamodel.ClassWorkspace, "Workspace")
	if err != nil {
		t.Fatal(err)
	}
	if err := root.AddChild(ws); err != nil {
		t.Fatal(err)
	}

	part, err := datamodel.New(datamodel.ClassPart, "Brick")
	if err != nil {
		t.Fatal(err)
	}
	if err := part.SetProperty("Size", datamodel.Vector3{X: 4, Y: 1, Z: 2}); err != nil {
		t.Fatal(err)
	}
	if err := part.SetProperty("Color", datamodel.Color3{R: 1}); err != nil {
		t.Fatal(err)
	}
	if err := ws.AddChild(part); err != nil {
		t.Fatal(err)
	}

	if err := datamodel.AssignIdentities(root); err != nil {
		t.Fatal(err)
	}
	return root
}

func TestCaptureOrderAndPaths(t *testing.T) {
	s := Capture(buildTree(t))

	if s.SchemaVersion != SchemaVersion {
		t.Errorf("SchemaVersion = %q", s.SchemaVersion)
	}
	if len(s.Instances) != 3 {
		t.Fatalf("got %d records", len(s.Instances))
	}
	if s.Instances[0].Path != "game" || s.Instances[0].ParentPath != "" {
		t.Errorf("root record: %+v", s.Instances[0])
	}
	if s.Instances[2].Path != "game/Workspace/Brick" || s.Instances[2].ParentPath != "game/Workspace" {
		t.Errorf("part record: %+v", s.Instances[2])
	}
	if s.Instances[2].ID == (datamodel.Identity{}) {
		t.Error("record carries the zero identity")
	}
}

func TestMarshalDeterministic(t *testing.T) {
	s := Capture(buildTree(t))
	a, err := Marshal(s)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Marshal(s)
	if err != nil {
		t.Fatal(err)
	}
	if string(a) != string(b) {
		t.Error("marshaling the same snapshot twice produced different bytes")
	}

	h1, err := Hash(s)
	if err != nil {
		t.Fatal(err)
	}
	h2, err := Hash(Capture(buildTree(t)))
	if err != nil {
		t.Fatal(err)
	}
	if h1 != h2 {
		t.Error("identical trees hash differently")
	}
	if len(h1) != 64 {
		t.Errorf("hash length = %d, want 64 hex chars", len(h1))
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	s := Capture(buildTree(t))
	path := filepath.Join(t.TempDir(), "world.json")
	if err := WriteFile(s, path); err != nil {
		t.Fatal(err)
	}

	got, err := ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	h1, _ := Hash(s)
	h2, _ := Hash(got)
	if h1 != h2 {
		t.Error("round trip changed the snapshot content")
	}
}

func TestReadRejectsIncompatibleVersion(t *testing.T) {
	_, err := Read(strings.NewReader(`{"schemaVersion":"2.0","instances":[]}`))
	if err == nil || !strings.Contains(err.Error(), "incompatible") {
		t.Errorf("want incompatible version error, got %v", err)
	}
	// Minor version drift within the same major is readable.
	if _, err := Read(strings.NewReader(`{"schemaVersion":"1.9","instances":[]}`)); err != nil {
		t.Errorf("minor version rejected: %v", err)
	}
}

func TestCompatibleVersions(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"1.0", "1.0", true},
		{"1.0", "1.3", true},
		{"1.0", "2.0", false},
		{"", "1.0", false},
	}
	for _, tt := range tests {
		if got := CompatibleVersions(tt.a, tt.b); got != tt.want {
			t.Errorf("CompatibleVersions(%q, %q) = %v", tt.a, tt.b, got)
		}
	}
}

func TestRestoreRebuildsIdenticalTree(t *testing.T) {
	orig := buildTree(t)
	s := Capture(orig)

	restored, err := Restore(s)
	if err != nil {
		t.Fatal(err)
	}

	h1, err := Hash(s)
	if err != nil {
		t.Fatal(err)
	}
	h2, err := Hash(Capture(restored))
	if err != nil {
		t.Fatal(err)
	}
	if h1 != h2 {
		t.Error("restored tree does not reproduce the snapshot")
	}

	// Identity assignment is re-derived, not trusted from the artifact.
	part := restored.FindFirstClass(datamodel.ClassPart)
	if part == nil {
		t.Fatal("part missing after restore")
	}
	if part.ID() != orig.FindFirstClass(datamodel.ClassPart).ID() {
		t.Error("re-derived identity differs from the original")
	}
}

func TestRestoreRejectsOrphans(t *testing.T) {
	s := Snapshot{
		SchemaVersion: SchemaVersion,
		Instances: []Record{
			{Class: datamodel.ClassPart, Name: "Lost", Path: "game/Workspace/Lost", ParentPath: "game/Workspace"},
		},
	}
	if _, err := Restore(s); err == nil {
		t.Error("child before its parent must fail")
	}
}

func TestRestoreRevalidatesProperties(t *testing.T) {
	// A hand-edited artifact with an unknown or mistyped property must not
	// restore; every value goes through the same per-class checks a loaded
	// project does.
	base := func() []Record {
		return []Record{
			{Class: datamodel.ClassDataModel, Name: "DataModel", Path: "game"},
			{Class: datamodel.ClassWorkspace, Name: "Workspace", Path: "game/Workspace", ParentPath: "game"},
		}
	}

	cases := []struct {
		name string
		rec  Record
	}{
		{"mistyped kind", Record{
			Class: datamodel.ClassPart, Name: "Bad", Path: "game/Workspace/Bad", ParentPath: "game/Workspace",
			Properties: datamodel.Properties{"Anchored": datamodel.Vector3{X: 1}},
		}},
		{"unknown property", Record{
			Class: datamodel.ClassPart, Name: "Bad", Path: "game/Workspace/Bad", ParentPath: "game/Workspace",
			Properties: datamodel.Properties{"Mass": datamodel.Number(10)},
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := Snapshot{SchemaVersion: SchemaVersion, Instances: append(base(), tc.rec)}
			if _, err := Restore(s); err == nil {
				t.Error("invalid property restored without error")
			}
		})
	}
}

func TestRestoreRevalidatesStructure(t *testing.T) {
	// A hand-edited artifact with an illegal parent must not restore.
	s := Snapshot{
		SchemaVersion: SchemaVersion,
		Instances: []Record{
			{Class: datamodel.ClassDataModel, Name: "DataModel", Path: "game"},
			{Class: datamodel.ClassWorkspace, Name: "Workspace", Path: "game/Workspace", ParentPath: "game"},
			{Class: datamodel.ClassLighting, Name: "Lighting", Path: "game/Workspace/Lighting", ParentPath: "game/Workspace"},
		},
	}
	if _, err := Restore(s); err == nil {
		t.Error("service under Workspace must fail to restore")
	}
}
