package ecs

import (
	"fmt"

	"github.com/kamstrup/intmap"
	"go.uber.org/zap"
)

// World owns the entity identity space (an authoritative per-index
// generation vector plus a free list) and a type-keyed table of component
// storages, per spec.md §3/§4.4.
type World struct {
	generations []uint32
	free        []uint32
	count       int

	storages *intmap.Map[TypeID, storage]
	sorters  []*Collection

	types  *TypeRegistry
	logger *zap.Logger
}

// NewWorld constructs an empty world. Without WithTypeRegistry, the world
// mints its own registry; without WithLogger, it logs nothing.
func NewWorld(opts ...WorldOption) *World {
	w := &World{
		storages: intmap.New[TypeID, storage](16),
		types:    NewTypeRegistry(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Generate allocates a live entity, reusing a free slot if one exists and
// preserving that slot's current generation, or starting at generation 0
// for a brand-new slot.
func (w *World) Generate() Entity { return w.generate(genTombstone) }

// GenerateWithGeneration is Generate but pins the returned entity's
// generation explicitly (ignored if it equals the tombstone generation, in
// which case behavior matches Generate).
func (w *World) GenerateWithGeneration(gen uint32) Entity { return w.generate(gen) }

func (w *World) generate(gen uint32) Entity {
	var idx uint32
	if n := len(w.free); n > 0 {
		idx = w.free[n-1]
		w.free = w.free[:n-1]
		if gen == genTombstone {
			gen = w.generations[idx]
		}
	} else {
		idx = uint32(len(w.generations))
		w.generations = append(w.generations, 0)
		if gen == genTombstone {
			gen = 0
		}
	}
	w.generations[idx] = gen
	w.count++
	if w.logger != nil {
		w.logger.Debug("ecs: generate", zap.Uint32("index", idx), zap.Uint32("generation", gen))
	}
	return NewEntity(idx, gen)
}

// Release frees e's slot and bumps its generation, so stale copies of e
// will no longer compare alive. It does not touch component storages.
// Precondition: Contains(e).
func (w *World) Release(e Entity) {
	if !w.Contains(e) {
		panic("ecs: release: entity not alive")
	}
	idx := e.Index()
	w.generations[idx] = nextGeneration(w.generations[idx])
	w.free = append(w.free, idx)
	w.count--
}

// Destroy erases e from every storage that contains it, then releases it.
// Precondition: Contains(e).
func (w *World) Destroy(e Entity) {
	if !w.Contains(e) {
		panic("ecs: destroy: entity not alive")
	}
	for s := range w.storages.Values() {
		if s.contains(e) {
			s.erase(w, e)
		}
	}
	w.Release(e)
}

// Contains reports whether e refers to a currently live entity: its index
// is in range and its generation matches the slot's current generation.
func (w *World) Contains(e Entity) bool {
	idx := e.Index()
	return !e.IsTombstone() && idx < uint32(len(w.generations)) && w.generations[idx] == e.Generation()
}

// Count returns the number of live entities.
func (w *World) Count() int { return w.count }

// TypeRegistry exposes the registry used to derive component TypeIDs, so
// it can be shared with another world via WithTypeRegistry.
func (w *World) TypeRegistry() *TypeRegistry { return w.types }

// Reserve returns T's storage, lazily creating it (applying opts only on
// creation) — spec.md §4.4's canonical way to obtain a storage handle.
func Reserve[T any](w *World, opts ...StorageOption) *ComponentSet[T] {
	id := typeIDFor[T](w.types)
	if existing, ok := w.storages.Get(id); ok {
		return existing.(*ComponentSet[T])
	}
	kind := ComponentKind[T]{id: id}
	cs := newComponentSet(kind, resolveStorageOptions(opts))
	w.storages.Put(id, cs)
	if w.logger != nil {
		w.logger.Debug("ecs: storage created",
			zap.String("type", fmt.Sprintf("%T", *new(T))),
			zap.Uint64("type_id", uint64(id)))
	}
	return cs
}

// Storage returns T's storage without creating it.
func Storage[T any](w *World) (*ComponentSet[T], bool) {
	id := typeIDFor[T](w.types)
	s, ok := w.storages.Get(id)
	if !ok {
		return nil, false
	}
	return s.(*ComponentSet[T]), true
}

// TypeIDOf derives T's TypeID within w's registry, minting one on first use.
func TypeIDOf[T any](w *World) TypeID { return typeIDFor[T](w.types) }

// Has reports whether e has a component of type T.
func Has[T any](w *World, e Entity) bool {
	cs, ok := Storage[T](w)
	return ok && cs.Contains(e)
}

// Get returns a pointer to e's T component. Precondition: Contains(e) &&
// storage<T>().Contains(e).
func Get[T any](w *World, e Entity) *T {
	if !w.Contains(e) {
		panic("ecs: get: entity not alive")
	}
	cs, ok := Storage[T](w)
	if !ok {
		panic("ecs: get: component type not registered")
	}
	return cs.Get(e)
}

// Emplace constructs a T component for e, lazily creating the storage.
// Precondition: Contains(e) && !storage<T>().Contains(e).
func Emplace[T any](w *World, e Entity, v T) *T {
	if !w.Contains(e) {
		panic("ecs: emplace: entity not alive")
	}
	return Reserve[T](w).Emplace(w, e, v)
}

// EmplaceBack is Emplace without hole reuse on Fixed storages.
func EmplaceBack[T any](w *World, e Entity, v T) *T {
	if !w.Contains(e) {
		panic("ecs: emplace_back: entity not alive")
	}
	return Reserve[T](w).EmplaceBack(w, e, v)
}

// Replace reconstructs e's T component in place. Precondition:
// storage<T>().Contains(e).
func Replace[T any](w *World, e Entity, v T) *T {
	cs, ok := Storage[T](w)
	if !ok {
		panic("ecs: replace: component type not registered")
	}
	return cs.Replace(w, e, v)
}

// EmplaceOrReplace creates or updates e's T component, firing exactly one
// event.
func EmplaceOrReplace[T any](w *World, e Entity, v T) *T {
	if !w.Contains(e) {
		panic("ecs: emplace_or_replace: entity not alive")
	}
	return Reserve[T](w).EmplaceOrReplace(w, e, v)
}

// EmplaceBackOrReplace is EmplaceOrReplace using EmplaceBack's discipline on
// the create path.
func EmplaceBackOrReplace[T any](w *World, e Entity, v T) *T {
	if !w.Contains(e) {
		panic("ecs: emplace_back_or_replace: entity not alive")
	}
	return Reserve[T](w).EmplaceBackOrReplace(w, e, v)
}

// Erase removes e's T component. Precondition: storage<T>().Contains(e).
func Erase[T any](w *World, e Entity) {
	cs, ok := Storage[T](w)
	if !ok {
		panic("ecs: erase: component type not registered")
	}
	cs.Erase(w, e)
}

// EraseAndRelease erases e's T component and, if that was e's last
// component, also releases e. Reports whether the release happened — this
// is informational, not an error (spec.md §7).
func EraseAndRelease[T any](w *World, e Entity) bool {
	Erase[T](w, e)
	if w.Size(e) == 0 {
		w.Release(e)
		return true
	}
	return false
}

// Size returns how many component storages currently hold e.
func (w *World) Size(e Entity) int {
	n := 0
	for s := range w.storages.Values() {
		if s.contains(e) {
			n++
		}
	}
	return n
}

// Empty reports whether e has no components at all.
func (w *World) Empty(e Entity) bool { return w.Size(e) == 0 }

// ContainsAll reports whether e is present in every named storage.
func (w *World) ContainsAll(e Entity, ids ...TypeID) bool {
	for _, id := range ids {
		s, ok := w.storages.Get(id)
		if !ok || !s.contains(e) {
			return false
		}
	}
	return true
}

// ContainsAny reports whether e is present in at least one named storage.
func (w *World) ContainsAny(e Entity, ids ...TypeID) bool {
	for _, id := range ids {
		if s, ok := w.storages.Get(id); ok && s.contains(e) {
			return true
		}
	}
	return false
}

// ContainsNone is the negation of ContainsAny.
func (w *World) ContainsNone(e Entity, ids ...TypeID) bool {
	return !w.ContainsAny(e, ids...)
}

// Clear empties every storage's dense/value arrays, preserving storage
// identity and reserved capacity.
func (w *World) Clear() {
	for s := range w.storages.Values() {
		s.clear()
	}
	if w.logger != nil {
		w.logger.Debug("ecs: clear")
	}
}

// ClearComponent empties T's storage only, if it exists.
func ClearComponent[T any](w *World) {
	if cs, ok := Storage[T](w); ok {
		cs.clear()
	}
}

// Purge clears every storage and drops the storage table and all collection
// sorters entirely.
func (w *World) Purge() {
	for s := range w.storages.Values() {
		s.clear()
	}
	w.storages = intmap.New[TypeID, storage](16)
	w.sorters = nil
	if w.logger != nil {
		w.logger.Debug("ecs: purge")
	}
}

// NewWith1 generates an entity and emplaces one component, standing in for
// spec.md §4.4's insert<Cs…>(...) — Go generic methods cannot take an
// independent variadic type-parameter list, so arities are spelled out
// individually (see spec.md §9's redesign note on variadic templates).
func NewWith1[A any](w *World, a A) Entity {
	e := w.Generate()
	Emplace[A](w, e, a)
	return e
}

// NewWith2 is NewWith1 for two components.
func NewWith2[A, B any](w *World, a A, b B) Entity {
	e := w.Generate()
	Emplace[A](w, e, a)
	Emplace[B](w, e, b)
	return e
}

// NewWith3 is NewWith1 for three components.
func NewWith3[A, B, C any](w *World, a A, b B, c C) Entity {
	e := w.Generate()
	Emplace[A](w, e, a)
	Emplace[B](w, e, b)
	Emplace[C](w, e, c)
	return e
}

// NewWith4 is NewWith1 for four components.
func NewWith4[A, B, C, D any](w *World, a A, b B, c C, d D) Entity {
	e := w.Generate()
	Emplace[A](w, e, a)
	Emplace[B](w, e, b)
	Emplace[C](w, e, c)
	Emplace[D](w, e, d)
	return e
}
