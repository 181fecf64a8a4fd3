// Package id allocates time-ordered unique identifiers for panes, tabs,
// arrangements, and every other store-owned entity.
package id

import "github.com/google/uuid"

// ID is a 128-bit time-ordered identifier. Its string form sorts
// lexicographically in creation order, which the store relies on only for
// deterministic tie-breaking and log readability, never for correctness.
type ID string

// Nil is the zero value; no allocated ID ever equals it.
const Nil ID = ""

// Allocator mints fresh IDs. The zero value is ready to use.
type Allocator struct{}

// NewAllocator returns an Allocator. Allocators carry no state and are safe
// for concurrent use; a single instance is usually shared across the store.
func NewAllocator() *Allocator {
	return &Allocator{}
}

// New mints a fresh time-ordered ID.
func (a *Allocator) New() ID {
	u, err := uuid.NewV7()
	if err != nil {
		// NewV7 only fails if the OS entropy source is broken; fall back to
		// a random v4 rather than panicking mid-mutation.
		u = uuid.New()
	}
	return ID(u.String())
}

// Valid reports whether id looks like an allocated identifier.
func (id ID) Valid() bool {
	return id != Nil
}

func (id ID) String() string {
	return string(id)
}
