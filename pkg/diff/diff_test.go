package diff

import (
	"testing"

	"github.com/ludock/ludock/pkg/datamodel"
	"github.com/ludock/ludock/pkg/snapshot"
)

func buildScene(t *testing.T, parts map[string]map[string]datamodel.Value) snapshot.Snapshot {
	t.Helper()
	root := datamodel.NewRoot()
	ws, err := datamodel.New(datamodel.ClassWorkspace, "Workspace")
	if err != nil {
		t.Fatal(err)
	}
	if err := root.AddChild(ws); err != nil {
		t.Fatal(err)
	}
	for _, name := range sortedNames(parts) {
		part, err := datamodel.New(datamodel.ClassPart, name)
		if err != nil {
			t.Fatal(err)
		}
		for prop, v := range parts[name] {
			if err := part.SetProperty(prop, v); err != nil {
				t.Fatal(err)
			}
		}
		if err := ws.AddChild(part); err != nil {
			t.Fatal(err)
		}
	}
	if err := datamodel.AssignIdentities(root); err != nil {
		t.Fatal(err)
	}
	return snapshot.Capture(root)
}

func sortedNames(m map[string]map[string]datamodel.Value) []string {
	names := make([]string, 0, len(m))
	for n := range m {
		names = append(names, n)
	}
	for i := range names {
		for j := i + 1; j < len(names); j++ {
			if names[j] < names[i] {
				names[i], names[j] = names[j], names[i]
			}
		}
	}
	return names
}

func TestCompareIdenticalScenes(t *testing.T) {
	scene := map[string]map[string]datamodel.Value{
		"A": {"Anchored": datamodel.Bool(true)},
	}
	r, err := Compare(buildScene(t, scene), buildScene(t, scene))
	if err != nil {
		t.Fatal(err)
	}
	if r.Status != StatusUnchanged {
		t.Fatalf("status = %s", r.Status)
	}
	if len(r.Added)+len(r.Removed)+len(r.Modified) != 0 {
		t.Fatalf("unexpected diff: %+v", r)
	}
}

func TestCompareWithinToleranceIsUnchanged(t *testing.T) {
	// The edit changes the identity (it digests content), so the pair is
	// re-matched by path; with every delta inside tolerance nothing is
	// reported.
	base := buildScene(t, map[string]map[string]datamodel.Value{
		"A": {"Position": datamodel.Vector3{X: 1, Y: 0, Z: 0}},
	})
	cur := buildScene(t, map[string]map[string]datamodel.Value{
		"A": {"Position": datamodel.Vector3{X: 1 + 5e-5, Y: 0, Z: 0}},
	})

	r, err := Compare(base, cur)
	if err != nil {
		t.Fatal(err)
	}
	if r.Status != StatusUnchanged {
		t.Fatalf("sub-tolerance drift reported as change: %+v", r)
	}
	if len(r.Added)+len(r.Removed)+len(r.Modified) != 0 {
		t.Fatalf("unexpected diff: %+v", r)
	}
}

func TestComparePropertyEditIsModification(t *testing.T) {
	base := buildScene(t, map[string]map[string]datamodel.Value{
		"MyPart": {
			"Size":  datamodel.Vector3{X: 10, Y: 1, Z: 10},
			"Color": datamodel.Color3{R: 1},
		},
	})
	cur := buildScene(t, map[string]map[string]datamodel.Value{
		"MyPart": {
			"Size":  datamodel.Vector3{X: 10, Y: 1, Z: 10},
			"Color": datamodel.Color3{B: 1},
		},
	})

	r, err := Compare(base, cur)
	if err != nil {
		t.Fatal(err)
	}
	if len(r.Added) != 0 || len(r.Removed) != 0 {
		t.Fatalf("added=%d removed=%d, want 0/0", len(r.Added), len(r.Removed))
	}
	if len(r.Modified) != 1 {
		t.Fatalf("modified = %+v", r.Modified)
	}
	m := r.Modified[0]
	if m.Path != "game/Workspace/MyPart" {
		t.Fatalf("path = %q", m.Path)
	}
	if len(m.Changes) != 1 || m.Changes[0].Property != "Color" {
		t.Fatalf("changes = %+v", m.Changes)
	}
}

func TestComparePositionChangeDisplacement(t *testing.T) {
	base := buildScene(t, map[string]map[string]datamodel.Value{
		"A": {"Position": datamodel.Vector3{X: 0, Y: 0, Z: 0}},
	})
	cur := buildScene(t, map[string]map[string]datamodel.Value{
		"A": {"Position": datamodel.Vector3{X: 3, Y: 4, Z: 0}},
	})

	r, err := Compare(base, cur)
	if err != nil {
		t.Fatal(err)
	}
	if len(r.Modified) != 1 {
		t.Fatalf("modified = %+v", r.Modified)
	}
	m := r.Modified[0]
	if len(m.Changes) != 1 || m.Changes[0].Property != "Position" {
		t.Fatalf("changes = %+v", m.Changes)
	}
	d := m.Changes[0].Displacement
	if d == nil || floatNotClose(d.Distance, 5) {
		t.Fatalf("displacement = %+v, want distance 5", d)
	}
}

func TestCompareRenameIsAddRemove(t *testing.T) {
	// A renamed instance occupies a different path, so no positional
	// partner exists and the change stays an add/remove pair.
	base := buildScene(t, map[string]map[string]datamodel.Value{
		"Old": {"Anchored": datamodel.Bool(true)},
	})
	cur := buildScene(t, map[string]map[string]datamodel.Value{
		"New": {"Anchored": datamodel.Bool(true)},
	})

	r, err := Compare(base, cur)
	if err != nil {
		t.Fatal(err)
	}
	if len(r.Added) != 1 || len(r.Removed) != 1 || len(r.Modified) != 0 {
		t.Fatalf("added=%d removed=%d modified=%d, want 1/1/0",
			len(r.Added), len(r.Removed), len(r.Modified))
	}
	if r.Added[0].Path != "game/Workspace/New" || r.Removed[0].Path != "game/Workspace/Old" {
		t.Fatalf("paths: %+v / %+v", r.Added[0], r.Removed[0])
	}
}

func TestCompareIdentityStablePairing(t *testing.T) {
	// A record whose identity survives (hand-edited artifact) still lands
	// in Modified through the first pairing pass.
	base := buildScene(t, map[string]map[string]datamodel.Value{
		"A": {"Transparency": datamodel.Number(0)},
	})
	cur := buildScene(t, map[string]map[string]datamodel.Value{
		"A": {"Transparency": datamodel.Number(0)},
	})
	for i, rec := range cur.Instances {
		if rec.Name == "A" {
			rec.Properties["Transparency"] = datamodel.Number(0.9)
			cur.Instances[i] = rec
		}
	}

	r, err := Compare(base, cur)
	if err != nil {
		t.Fatal(err)
	}
	if len(r.Modified) != 1 || len(r.Added)+len(r.Removed) != 0 {
		t.Fatalf("diff = %+v", r)
	}
	if r.Modified[0].Changes[0].Property != "Transparency" {
		t.Fatalf("changes = %+v", r.Modified[0].Changes)
	}
}

func TestCompareMixedKindsNeverEqual(t *testing.T) {
	if valuesEqual(datamodel.Number(1), datamodel.String("1")) {
		t.Fatal("cross-kind values compared equal")
	}
	if valuesEqual(datamodel.Number(1), nil) {
		t.Fatal("value equal to absent")
	}
	if !valuesEqual(nil, nil) {
		t.Fatal("absent must equal absent")
	}
}

func TestCompareDiscreteKindsExact(t *testing.T) {
	u1 := datamodel.NewUDim2(0.5, 10, 0.5, 10)
	u2 := datamodel.NewUDim2(0.5, 11, 0.5, 10)
	if valuesEqual(u1, u2) {
		t.Fatal("offset difference ignored")
	}
	u3 := datamodel.NewUDim2(0.5+1e-9, 10, 0.5, 10)
	if !valuesEqual(u1, u3) {
		t.Fatal("sub-tolerance scale difference reported")
	}
	if valuesEqual(datamodel.Bool(true), datamodel.Bool(false)) {
		t.Fatal("bool compared with tolerance")
	}
}

func TestCompareIncompatibleVersions(t *testing.T) {
	base := buildScene(t, nil)
	cur := buildScene(t, nil)
	cur.SchemaVersion = "2.0"
	if _, err := Compare(base, cur); err == nil {
		t.Fatal("want error for incompatible schema versions")
	}
}

func floatNotClose(a, b float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d > 1e-9
}
