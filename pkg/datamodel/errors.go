package datamodel

import "errors"

var (
	// ErrUnknownClass is returned when an instance names a class that is not
	// in the class table. The class set is closed; unknown classes are a
	// load error, never a default.
	ErrUnknownClass = errors.New("unknown class")

	// ErrIllegalParent is returned by [Instance.AddChild] when the child's
	// class is not allowed under the parent's class (for example a Lighting
	// service parented under anything but the DataModel root).
	ErrIllegalParent = errors.New("illegal parent class")

	// ErrUnknownProperty is returned by [Instance.SetProperty] when the
	// property name is not declared for the instance's class.
	ErrUnknownProperty = errors.New("unknown property")

	// ErrPropertyKind is returned by [Instance.SetProperty] when the value's
	// kind does not match the property's declared kind.
	ErrPropertyKind = errors.New("property kind mismatch")

	// ErrUnknownEnumCategory is returned when an enum value names a category
	// that is not in the enum registry.
	ErrUnknownEnumCategory = errors.New("unknown enum category")

	// ErrUnknownEnumItem is returned when an enum value is not one of the
	// allowed items for its category.
	ErrUnknownEnumItem = errors.New("unknown enum item")

	// ErrIdentityCollision is returned by [AssignIdentities] when two
	// structurally distinct instances derive the same identity. Collisions
	// are a hard structural error, never tolerated.
	ErrIdentityCollision = errors.New("identity collision")

	// ErrHasParent is returned by [Instance.AddChild] when the child is
	// already owned by another parent. The tree is single-owner.
	ErrHasParent = errors.New("instance already has a parent")
)
