package ecs

// storage is the type-erased operations every ComponentSet[T] exposes to
// World, View, and Collection, regardless of T. It stands in for the
// "vtable-of-function-pointers struct" spec.md §9 describes as the
// replacement for a polymorphic base-class pointer.
type storage interface {
	typeID() TypeID
	contains(e Entity) bool
	erase(w *World, e Entity)
	clear()
	size() int
	dense() []Entity
	// offset and swapPositions let a Collection physically reorder a
	// storage's dense array without knowing T.
	offset(e Entity) uint32
	swapPositions(p1, p2 uint32)
	discipline() StorageDiscipline
	// onCreateDispatcher/onRemoveDispatcher expose the event channels a
	// collection sorter needs to subscribe to, without knowing T.
	onCreateDispatcher() *dispatcher
	onRemoveDispatcher() *dispatcher
}
