package datamodel

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"slices"
	"strconv"

	"github.com/google/uuid"
)

// Identity is the 128-bit deterministic key naming an instance across runs.
// It is a name-based (SHA-1, RFC 4122 version 5) UUID over the instance's
// canonical path key and a digest of its own properties, so it is stable
// for identical input and changes exactly when the instance's defining
// content or tree position changes.
type Identity = uuid.UUID

// identityNamespace matches the original scheme's OID namespace. Fixed and
// versioned with the snapshot schema; changing it invalidates every stored
// baseline.
var identityNamespace = uuid.NameSpaceOID

// CompareIdentity orders identities by their byte representation. This is
// the sole ordering used anywhere identity order matters (rasterization
// order, depth tie-breaks, diff output).
func CompareIdentity(a, b Identity) int {
	return bytes.Compare(a[:], b[:])
}

// contentDigest hashes the instance's class and its property map (sorted by
// name, canonical value encoding). Children are deliberately excluded: a
// node's identity must not change because a grandchild did.
func contentDigest(i *Instance) [sha256.Size]byte {
	h := sha256.New()
	h.Write([]byte(i.Class))
	h.Write([]byte{0})

	names := make([]string, 0, len(i.Properties))
	for name := range i.Properties {
		names = append(names, name)
	}
	slices.Sort(names)

	var buf []byte
	for _, name := range names {
		buf = buf[:0]
		buf = append(buf, name...)
		buf = append(buf, '=')
		buf = i.Properties[name].appendCanonical(buf)
		buf = append(buf, 0)
		h.Write(buf)
	}

	var sum [sha256.Size]byte
	h.Sum(sum[:0])
	return sum
}

// AssignIdentities derives and sets the identity of every node in the tree.
// Sibling order must be final before calling: the path key includes each
// node's occurrence index among same-(class, name) siblings, counted in
// their final order.
//
// An identity collision between two distinct nodes is a hard error
// (wrapping [ErrIdentityCollision]); it reports both paths.
func AssignIdentities(root *Instance) error {
	seen := make(map[Identity]string, root.Count())
	return assignSubtree(root, nil, seen)
}

func assignSubtree(i *Instance, parentKey []byte, seen map[Identity]string) error {
	digest := contentDigest(i)

	name := make([]byte, 0, len(parentKey)+len(i.Class)+len(i.Name)+8+sha256.Size)
	name = append(name, parentKey...)
	name = append(name, digest[:]...)

	id := uuid.NewSHA1(identityNamespace, name)
	if prev, dup := seen[id]; dup {
		return fmt.Errorf("%w: %s and %s", ErrIdentityCollision, prev, i.Path())
	}
	seen[id] = i.Path()
	i.id = id
	i.idAssigned = true

	// Occurrence index counts same-(class, name) siblings in final order so
	// that identical siblings still receive distinct identities.
	occurrence := make(map[[2]string]int, len(i.children))
	for _, c := range i.children {
		key := [2]string{c.Class, c.Name}
		idx := occurrence[key]
		occurrence[key] = idx + 1

		childKey := append([]byte(nil), parentKey...)
		childKey = append(childKey, segmentKey(c.Class, c.Name, idx)...)
		if err := assignSubtree(c, childKey, seen); err != nil {
			return err
		}
	}
	return nil
}

// segmentKey encodes one (class, name, occurrence-index) path tuple with
// unambiguous separators.
func segmentKey(class, name string, idx int) []byte {
	b := make([]byte, 0, len(class)+len(name)+8)
	b = append(b, class...)
	b = append(b, 0)
	b = append(b, name...)
	b = append(b, 0)
	b = strconv.AppendInt(b, int64(idx), 10)
	b = append(b, ';')
	return b
}
