package datamodel

import (
	"fmt"
	"slices"
	"strings"
)

// RootPath is the canonical path of the DataModel root.
const RootPath = "game"

// Instance is one node of the scene graph. A parent exclusively owns its
// children; the parent pointer is a non-owning back-reference used only for
// path computation and validation.
//
// The zero value is not usable; construct instances with [New] or
// [NewRoot] so the class is validated up front.
type Instance struct {
	id         Identity
	idAssigned bool

	Class      string
	Name       string
	Properties Properties

	parent   *Instance
	children []*Instance
}

// NewRoot creates the DataModel root.
func NewRoot() *Instance {
	return &Instance{
		Class:      ClassDataModel,
		Name:       ClassDataModel,
		Properties: Properties{},
	}
}

// New creates a detached instance of the given class. The class must be in
// the closed class table.
func New(class, name string) (*Instance, error) {
	if !KnownClass(class) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownClass, class)
	}
	return &Instance{Class: class, Name: name, Properties: Properties{}}, nil
}

// ID returns the assigned identity. It is the zero identity until
// [AssignIdentities] runs over the tree.
func (i *Instance) ID() Identity { return i.id }

// Parent returns the owning parent, or nil for the root.
func (i *Instance) Parent() *Instance { return i.parent }

// Children returns the ordered child sequence. The slice is owned by the
// instance; callers must not mutate it.
func (i *Instance) Children() []*Instance { return i.children }

// AddChild appends child to i's child sequence after checking the class
// table's parent legality rules. Violations are structural errors, raised
// here rather than silently corrected.
func (i *Instance) AddChild(child *Instance) error {
	if child.parent != nil {
		return fmt.Errorf("%w: %s", ErrHasParent, child.Name)
	}
	if !LegalChild(i.Class, child.Class) {
		return fmt.Errorf("%w: %s under %s", ErrIllegalParent, child.Class, i.Class)
	}
	child.parent = i
	i.children = append(i.children, child)
	return nil
}

// SetProperty validates the property name and value kind against the class
// table before storing. Enum values are additionally checked against the
// enum registry.
func (i *Instance) SetProperty(name string, v Value) error {
	kind, ok := PropertyKind(i.Class, name)
	if !ok {
		return fmt.Errorf("%w: %s.%s", ErrUnknownProperty, i.Class, name)
	}
	if v.Kind() != kind {
		return fmt.Errorf("%w: %s.%s wants %s, got %s", ErrPropertyKind, i.Class, name, kind, v.Kind())
	}
	if e, isEnum := v.(Enum); isEnum {
		if err := e.Validate(); err != nil {
			return err
		}
	}
	i.Properties[name] = v
	return nil
}

// Property returns the named property value.
func (i *Instance) Property(name string) (Value, bool) {
	v, ok := i.Properties[name]
	return v, ok
}

// Path returns the canonical slash-joined path from the root, e.g.
// "game/Workspace/MyPart". A detached instance's path starts at itself.
func (i *Instance) Path() string {
	if i.parent == nil {
		if i.Class == ClassDataModel {
			return RootPath
		}
		return i.Name
	}
	return i.parent.Path() + "/" + i.Name
}

// Walk visits i and its descendants in pre-order. Returning false from fn
// skips the node's subtree.
func (i *Instance) Walk(fn func(*Instance) bool) {
	if !fn(i) {
		return
	}
	for _, c := range i.children {
		c.Walk(fn)
	}
}

// Count returns the number of instances in the subtree rooted at i,
// including i itself.
func (i *Instance) Count() int {
	n := 0
	i.Walk(func(*Instance) bool { n++; return true })
	return n
}

// FindFirstClass returns the first descendant (pre-order) of the given
// class, or nil.
func (i *Instance) FindFirstClass(class string) *Instance {
	var found *Instance
	i.Walk(func(inst *Instance) bool {
		if found != nil {
			return false
		}
		if inst.Class == class {
			found = inst
			return false
		}
		return true
	})
	return found
}

// SortChildren orders every child sequence in the subtree by (name, class).
// The loader inserts in sorted file order already; this exists so trees
// rebuilt from other sources (snapshot restore, tests) reach the same
// canonical order before identity assignment.
func (i *Instance) SortChildren() {
	slices.SortStableFunc(i.children, func(a, b *Instance) int {
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return strings.Compare(a.Class, b.Class)
	})
	for _, c := range i.children {
		c.SortChildren()
	}
}
