package binding

import (
	"bytes"
	"cmp"
	"strings"

	"github.com/google/uuid"
)

// Identifier is the stable identity of a binding: the storage it reads
// through to plus the derivation path taken from there. Two bindings derived
// the same way from the same slot have equal identifiers, so Identifier is
// usable as a map key.
type Identifier struct {
	root uuid.UUID
	path string
}

// NewIdentifier returns a fresh root identifier for custom storage.
func NewIdentifier() Identifier {
	return Identifier{root: uuid.New()}
}

// IdentifierOf returns the root identifier for storage with the given id,
// such as a core.Slot.
func IdentifierOf(id uuid.UUID) Identifier {
	return Identifier{root: id}
}

// Root returns the identity of the underlying storage.
func (i Identifier) Root() uuid.UUID {
	return i.root
}

// Path returns the derivation path, empty for a root binding.
func (i Identifier) Path() string {
	return i.path
}

// IsZero reports whether i is the zero Identifier.
func (i Identifier) IsZero() bool {
	return i.root == uuid.Nil && i.path == ""
}

// Child returns the identifier of a projection tagged tag.
func (i Identifier) Child(tag string) Identifier {
	return Identifier{root: i.root, path: i.path + "/" + tag}
}

// HasPrefix reports whether i is other or derived from other.
func (i Identifier) HasPrefix(other Identifier) bool {
	if i.root != other.root {
		return false
	}
	return i.path == other.path || strings.HasPrefix(i.path, other.path+"/")
}

// Compare orders identifiers by root, then by path.
func (i Identifier) Compare(other Identifier) int {
	if c := bytes.Compare(i.root[:], other.root[:]); c != 0 {
		return c
	}
	return cmp.Compare(i.path, other.path)
}

func (i Identifier) String() string {
	return i.root.String() + i.path
}
