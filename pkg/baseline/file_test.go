package baseline

import (
	"context"
	"testing"

	"github.com/ludock/ludock/pkg/datamodel"
	"github.com/ludock/ludock/pkg/snapshot"
)

func sampleSnapshot(t *testing.T) snapshot.Snapshot {
	t.Helper()
	root := datamodel.NewRoot()
	ws, err := datamodel.New(datamodel.ClassWorkspace, "Workspace")
	if err != nil {
		t.Fatal(err)
	}
	if err := root.AddChild(ws); err != nil {
		t.Fatal(err)
	}
	if err := datamodel.AssignIdentities(root); err != nil {
		t.Fatal(err)
	}
	return snapshot.Capture(root)
}

func TestFileStoreRoundTrip(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	ctx := context.Background()

	if _, ok, err := store.Load(ctx, "proj"); err != nil || ok {
		t.Fatalf("Load before Save = %v, %v", ok, err)
	}

	want := sampleSnapshot(t)
	if err := store.Save(ctx, "proj", want); err != nil {
		t.Fatal(err)
	}

	got, ok, err := store.Load(ctx, "proj")
	if err != nil || !ok {
		t.Fatalf("Load = %v, %v", ok, err)
	}
	wantHash, _ := snapshot.Hash(want)
	gotHash, _ := snapshot.Hash(got)
	if wantHash != gotHash {
		t.Fatal("loaded baseline differs from saved one")
	}

	// Projects are isolated.
	if _, ok, _ := store.Load(ctx, "other"); ok {
		t.Fatal("baseline leaked across projects")
	}
}

func TestFileStoreOverwrite(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	first := sampleSnapshot(t)
	if err := store.Save(ctx, "proj", first); err != nil {
		t.Fatal(err)
	}
	if err := store.Save(ctx, "proj", first); err != nil {
		t.Fatalf("overwriting a baseline errored: %v", err)
	}
}
