package datamodel

import (
	"testing"
)

func buildTree(t *testing.T) *Instance {
	t.Helper()
	root := NewRoot()
	ws := mustNew(t, ClassWorkspace, "Workspace")
	mustAdd(t, root, ws)
	part := mustNew(t, ClassPart, "Brick")
	if err := part.SetProperty("Size", Vector3{4, 1, 2}); err != nil {
		t.Fatal(err)
	}
	mustAdd(t, ws, part)
	return root
}

func TestAssignIdentitiesDeterministic(t *testing.T) {
	a := buildTree(t)
	b := buildTree(t)
	if err := AssignIdentities(a); err != nil {
		t.Fatal(err)
	}
	if err := AssignIdentities(b); err != nil {
		t.Fatal(err)
	}

	ids := func(root *Instance) []Identity {
		var out []Identity
		root.Walk(func(i *Instance) bool {
			out = append(out, i.ID())
			return true
		})
		return out
	}
	as, bs := ids(a), ids(b)
	for i := range as {
		if as[i] != bs[i] {
			t.Errorf("identity %d differs between identical trees", i)
		}
	}
}

func TestIdentityChangesWithContent(t *testing.T) {
	a := buildTree(t)
	b := buildTree(t)
	partB := b.FindFirstClass(ClassPart)
	if err := partB.SetProperty("Size", Vector3{8, 1, 2}); err != nil {
		t.Fatal(err)
	}
	if err := AssignIdentities(a); err != nil {
		t.Fatal(err)
	}
	if err := AssignIdentities(b); err != nil {
		t.Fatal(err)
	}

	if a.FindFirstClass(ClassPart).ID() == partB.ID() {
		t.Error("property change did not change identity")
	}
	// The content change is local: the parent service keeps its identity.
	if a.FindFirstClass(ClassWorkspace).ID() != b.FindFirstClass(ClassWorkspace).ID() {
		t.Error("parent identity changed because a child did")
	}
}

func TestIdentityChangesWithPosition(t *testing.T) {
	// Two identical parts under different parents must differ.
	root := NewRoot()
	ws := mustNew(t, ClassWorkspace, "Workspace")
	mustAdd(t, root, ws)
	m1 := mustNew(t, ClassModel, "A")
	m2 := mustNew(t, ClassModel, "B")
	mustAdd(t, ws, m1)
	mustAdd(t, ws, m2)
	mustAdd(t, m1, mustNew(t, ClassPart, "Brick"))
	mustAdd(t, m2, mustNew(t, ClassPart, "Brick"))

	if err := AssignIdentities(root); err != nil {
		t.Fatal(err)
	}
	p1 := m1.Children()[0]
	p2 := m2.Children()[0]
	if p1.ID() == p2.ID() {
		t.Error("identical parts under different parents share an identity")
	}
}

func TestIdenticalSiblingsGetDistinctIdentities(t *testing.T) {
	// Same class, same name, same properties: the occurrence index keeps
	// the identities apart.
	root := NewRoot()
	ws := mustNew(t, ClassWorkspace, "Workspace")
	mustAdd(t, root, ws)
	mustAdd(t, ws, mustNew(t, ClassPart, "Brick"))
	mustAdd(t, ws, mustNew(t, ClassPart, "Brick"))

	if err := AssignIdentities(root); err != nil {
		t.Fatalf("identical siblings must not collide: %v", err)
	}
	kids := ws.Children()
	if kids[0].ID() == kids[1].ID() {
		t.Error("identical siblings share an identity")
	}
}

func TestCompareIdentityOrdersBytes(t *testing.T) {
	a := Identity{0x01}
	b := Identity{0x02}
	if CompareIdentity(a, b) >= 0 {
		t.Error("CompareIdentity(a, b) not negative for a < b")
	}
	if CompareIdentity(b, a) <= 0 {
		t.Error("CompareIdentity(b, a) not positive for b > a")
	}
	if CompareIdentity(a, a) != 0 {
		t.Error("CompareIdentity(a, a) != 0")
	}
}
