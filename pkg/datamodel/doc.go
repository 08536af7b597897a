// Package datamodel implements the virtual DataModel: a typed, single-owner
// scene graph with deterministic, content-addressed instance identity.
//
// The package has three layers:
//
//  1. Typed values: a closed union of property value kinds (Vector3, CFrame,
//     Color3, UDim2, Enum, String, Number, Bool) with equality, canonical
//     byte encoding, and tagged JSON (de)serialization.
//  2. The instance tree: nodes carrying a class tag, a property map, and
//     parent/child edges. A static class table declares which parents and
//     which properties are legal for each class; violations surface as
//     structural or type errors at insertion, never as silent corrections.
//  3. Identity assignment: every node receives a 128-bit identity derived
//     from its canonical path and a digest of its own properties. Identity
//     is stable across runs for identical input and changes if and only if
//     the node's defining content or tree position changes.
//
// Instances are never mutated in place across runs; a run always rebuilds
// the tree from scratch and snapshots it. This is what makes rendering and
// diffing downstream safely parallel.
package datamodel
