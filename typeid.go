package ecs

import (
	"reflect"
	"sync/atomic"
)

// TypeID is the opaque, totally-ordered, hashable token spec.md §6 assumes
// an external reflection module produces for every component type. Here it
// is minted by a TypeRegistry instead: a per-registry counter, shared by
// every world given that registry so they interoperate on the same
// component declarations, mirroring component.ComponentKind[T]'s atomic.Uint32 id.
type TypeID uint64

// TypeRegistry mints stable TypeIDs. Construct one ComponentKind per
// component type, typically as a package-level variable, and share the
// registry across every World that needs to agree on those ids — this is
// the "TypeRegistry handle... injected at world construction" dependency
// spec.md §9 calls for in place of a real reflection system.
type TypeRegistry struct {
	next   atomic.Uint64
	byType map[reflect.Type]TypeID
}

// NewTypeRegistry constructs an empty registry. IDs start at 1 so the zero
// value of TypeID can mean "unregistered".
func NewTypeRegistry() *TypeRegistry {
	return &TypeRegistry{byType: make(map[reflect.Type]TypeID)}
}

// idForType lazily assigns a TypeID to a reflect.Type. This is the only
// place the core leans on reflection, and only as an ergonomic stand-in for
// the external reflection module spec.md §1 treats as a collaborator: it
// lets World.Reserve[T]() and friends derive a TypeID from a bare type
// parameter without every component having to be predeclared through a
// ComponentKind. Not safe for concurrent registration from multiple
// goroutines, consistent with the rest of the core (spec.md §5).
func (r *TypeRegistry) idForType(t reflect.Type) TypeID {
	if id, ok := r.byType[t]; ok {
		return id
	}
	id := TypeID(r.next.Add(1))
	r.byType[t] = id
	return id
}

// typeIDFor derives T's TypeID from r, assigning one on first use.
func typeIDFor[T any](r *TypeRegistry) TypeID {
	return r.idForType(reflect.TypeFor[T]())
}

// ComponentKind is a stable handle identifying component type T within one
// TypeRegistry. Two ComponentKind[T] values minted from the same registry
// for the same T compare equal.
type ComponentKind[T any] struct {
	id TypeID
}

// NewComponentKind returns T's TypeID in r, minting one on first use; it
// agrees with the id a World using r derives for T.
func NewComponentKind[T any](r *TypeRegistry) ComponentKind[T] {
	return ComponentKind[T]{id: typeIDFor[T](r)}
}

// ID returns the underlying TypeID.
func (k ComponentKind[T]) ID() TypeID { return k.id }

// Valid reports whether k was minted by a registry (as opposed to the zero
// value).
func (k ComponentKind[T]) Valid() bool { return k.id != 0 }
