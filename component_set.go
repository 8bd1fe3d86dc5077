package ecs

// StorageDiscipline selects how a ComponentSet reacts to erase/emplace.
// Compact storages keep Dense fully packed via swap-and-pop, at the cost of
// moving existing values on erase. Fixed storages never move an existing
// value: erase leaves a hole, and emplace prefers reusing one.
type StorageDiscipline uint8

const (
	// Compact is the default discipline: Emplace always appends, Erase
	// swaps the last element into the erased slot.
	Compact StorageDiscipline = iota
	// Fixed forbids moving existing values. Erase leaves a hole (a
	// tombstoned Dense slot); Emplace reuses the most recently freed hole before
	// appending. Sort is a precondition violation on a Fixed storage.
	Fixed
)

// EventSubscription is a thin handle over one event channel (on_create,
// on_update, or on_remove) of a ComponentSet, letting callers subscribe,
// subscribe-before-anchor, and unsubscribe without reaching into the
// ComponentSet's internals.
type EventSubscription struct {
	d *dispatcher
}

// Subscribe appends fn to the end of the dispatch order.
func (es EventSubscription) Subscribe(fn EventCallback) CallbackHandle {
	return es.d.Subscribe(fn)
}

// SubscribeBefore inserts fn immediately before anchor's subscription.
func (es EventSubscription) SubscribeBefore(fn EventCallback, anchor CallbackHandle) CallbackHandle {
	return es.d.SubscribeBefore(fn, anchor)
}

// Unsubscribe removes a previously registered callback.
func (es EventSubscription) Unsubscribe(h CallbackHandle) {
	es.d.Unsubscribe(h)
}

// ComponentSet is an entitySet plus a parallel dense array of component
// values of type T, with on_create/on_update/on_remove event channels
// (spec.md §3/§4.3). Each concrete T gets its own monomorphized
// ComponentSet[T]; there is no shared polymorphic pool.
type ComponentSet[T any] struct {
	kind       ComponentKind[T]
	set        entitySet
	values     []T
	holes      []uint32 // free Dense positions, Fixed discipline only
	disc       StorageDiscipline

	onCreate dispatcher
	onUpdate dispatcher
	onRemove dispatcher
}

// newComponentSet constructs an empty, registered ComponentSet for kind.
func newComponentSet[T any](kind ComponentKind[T], opts storageOptions) *ComponentSet[T] {
	cs := &ComponentSet[T]{
		kind:       kind,
		set:        newEntitySet(opts.sparsePageSize),
		disc:       opts.discipline,
	}
	if opts.initialCapacity > 0 {
		cs.Reserve(opts.initialCapacity)
	}
	return cs
}

// OnCreate returns the subscription handle for the creation event, fired
// after a new value is installed and constructed.
func (s *ComponentSet[T]) OnCreate() EventSubscription { return EventSubscription{&s.onCreate} }

// OnUpdate returns the subscription handle for the update event, fired
// after Replace (or the replace half of EmplaceOrReplace) runs.
func (s *ComponentSet[T]) OnUpdate() EventSubscription { return EventSubscription{&s.onUpdate} }

// OnRemove returns the subscription handle for the removal event, fired
// before the value is actually erased; observers may still read it.
func (s *ComponentSet[T]) OnRemove() EventSubscription { return EventSubscription{&s.onRemove} }

// Contains reports whether e currently has a component in this set.
func (s *ComponentSet[T]) Contains(e Entity) bool { return s.set.Contains(e) }

// Len returns the number of live components (Fixed-discipline holes do not
// count).
func (s *ComponentSet[T]) Len() int { return s.set.Len() - len(s.holes) }

// Empty reports whether Len() == 0.
func (s *ComponentSet[T]) Empty() bool { return s.Len() == 0 }

// Reserve grows the backing dense/value arrays' capacity.
func (s *ComponentSet[T]) Reserve(n int) {
	s.set.Reserve(n)
	if cap(s.values) < n {
		grown := make([]T, len(s.values), n)
		copy(grown, s.values)
		s.values = grown
	}
}

// Get returns a pointer to e's component. Precondition: Contains(e).
func (s *ComponentSet[T]) Get(e Entity) *T {
	pos := s.set.Offset(e)
	return &s.values[pos]
}

// Emplace constructs a component for e. If e is absent and the storage is
// Fixed with a free hole, the hole is reused; otherwise the value is
// appended. Precondition: !Contains(e).
func (s *ComponentSet[T]) Emplace(w *World, e Entity, v T) *T {
	if s.Contains(e) {
		panic("ecs: emplace: entity already present")
	}
	var pos uint32
	if s.disc == Fixed && len(s.holes) > 0 {
		pos = s.holes[len(s.holes)-1]
		s.holes = s.holes[:len(s.holes)-1]
		s.set.dense[pos] = e
		s.set.setSlot(e.Index(), pos)
		s.values[pos] = v
	} else {
		pos = uint32(len(s.set.dense))
		s.set.Insert(e)
		s.values = append(s.values, v)
	}
	s.onCreate.emit(w, e)
	return &s.values[pos]
}

// EmplaceBack always appends, never reusing a hole even on a Fixed storage.
// Precondition: !Contains(e).
func (s *ComponentSet[T]) EmplaceBack(w *World, e Entity, v T) *T {
	if s.Contains(e) {
		panic("ecs: emplace_back: entity already present")
	}
	s.set.Insert(e)
	s.values = append(s.values, v)
	s.onCreate.emit(w, e)
	return &s.values[len(s.values)-1]
}

// TryEmplace is the fallible variant spec.md §9 preserves as the one place
// a result type is meaningful: it reports AlreadyPresent instead of
// panicking.
func (s *ComponentSet[T]) TryEmplace(w *World, e Entity, v T) (ptr *T, alreadyPresent bool) {
	if s.Contains(e) {
		return nil, true
	}
	return s.Emplace(w, e, v), false
}

// Replace destroys and reconstructs e's value in place, firing on_update.
// Precondition: Contains(e).
func (s *ComponentSet[T]) Replace(w *World, e Entity, v T) *T {
	pos := s.set.Offset(e)
	s.values[pos] = v
	s.onUpdate.emit(w, e)
	return &s.values[pos]
}

// EmplaceOrReplace dispatches exactly one event: on_create for a new
// entity, on_update for an existing one.
func (s *ComponentSet[T]) EmplaceOrReplace(w *World, e Entity, v T) *T {
	if s.Contains(e) {
		return s.Replace(w, e, v)
	}
	return s.Emplace(w, e, v)
}

// EmplaceBackOrReplace is EmplaceOrReplace using EmplaceBack's no-hole-reuse
// discipline for the create path.
func (s *ComponentSet[T]) EmplaceBackOrReplace(w *World, e Entity, v T) *T {
	if s.Contains(e) {
		return s.Replace(w, e, v)
	}
	return s.EmplaceBack(w, e, v)
}

// Erase fires on_remove (observers may still read the value) and then
// removes e. Compact storages swap the last element into e's slot; Fixed
// storages leave a hole. Precondition: Contains(e).
func (s *ComponentSet[T]) Erase(w *World, e Entity) {
	if !s.Contains(e) {
		panic("ecs: erase: entity not present")
	}
	s.onRemove.emit(w, e)

	pos := s.set.Offset(e)
	if s.disc == Fixed {
		var zero T
		s.set.dense[pos] = Tombstone
		s.set.clearSlot(e.Index())
		s.values[pos] = zero
		s.holes = append(s.holes, pos)
		return
	}

	last := uint32(len(s.set.dense)) - 1
	if pos != last {
		s.set.Swap(pos, last)
		s.values[pos], s.values[last] = s.values[last], s.values[pos]
	}
	s.set.dense = s.set.dense[:last]
	s.set.clearSlot(e.Index())
	s.values = s.values[:last]
}

// Sort reorders Dense (and Values in lockstep) so the entities named by
// keys appear first, in that order. Precondition: discipline != Fixed.
func (s *ComponentSet[T]) Sort(keys []Entity) {
	if s.disc == Fixed {
		panic("ecs: sort: fixed storage does not support reordering")
	}
	write := uint32(0)
	for _, key := range keys {
		pos, ok := s.set.slot(key.Index())
		if !ok || pos >= uint32(len(s.set.dense)) || s.set.dense[pos] != key {
			continue
		}
		if pos != write {
			s.set.Swap(pos, write)
			s.values[pos], s.values[write] = s.values[write], s.values[pos]
		}
		write++
	}
}

// SortFunc reorders Dense/Values by comparing values with less, a
// precondition violation on Fixed storages.
func (s *ComponentSet[T]) SortFunc(less func(a, b T) bool) {
	if s.disc == Fixed {
		panic("ecs: sort: fixed storage does not support reordering")
	}
	keys := make([]Entity, len(s.set.dense))
	copy(keys, s.set.dense)
	values := append([]T(nil), s.values...)
	// simple insertion sort over keys/values kept in lockstep; component
	// sets are not expected to hold enough entries to need better than
	// O(n^2) in the rare case a caller sorts by value instead of by key.
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && less(values[j], values[j-1]); j-- {
			keys[j], keys[j-1] = keys[j-1], keys[j]
			values[j], values[j-1] = values[j-1], values[j]
		}
	}
	s.Sort(keys)
}

// Pack compacts a Fixed storage's holes, updating Sparse. No-op for Compact
// storages (which never hold holes) and fires no events.
func (s *ComponentSet[T]) Pack() {
	if len(s.holes) == 0 {
		return
	}
	newDense := make([]Entity, 0, len(s.set.dense)-len(s.holes))
	newValues := make([]T, 0, cap(newDense))
	for i, e := range s.set.dense {
		if e.IsTombstone() {
			continue
		}
		newDense = append(newDense, e)
		newValues = append(newValues, s.values[i])
	}
	s.set.dense = newDense
	s.values = newValues
	s.holes = nil
	for pos, e := range s.set.dense {
		s.set.setSlot(e.Index(), uint32(pos))
	}
}

// --- storage interface -----------------------------------------------

func (s *ComponentSet[T]) typeID() TypeID { return s.kind.ID() }

func (s *ComponentSet[T]) contains(e Entity) bool { return s.Contains(e) }

func (s *ComponentSet[T]) erase(w *World, e Entity) { s.Erase(w, e) }

func (s *ComponentSet[T]) clear() {
	s.set.Clear()
	s.values = s.values[:0]
	s.holes = s.holes[:0]
}

func (s *ComponentSet[T]) size() int { return s.Len() }

func (s *ComponentSet[T]) dense() []Entity { return s.set.Dense() }

func (s *ComponentSet[T]) offset(e Entity) uint32 { return s.set.Offset(e) }

// swapPositions is the type-erased reorder primitive Collection uses to
// maintain its prefix. Precondition: discipline != Fixed — a Fixed storage's
// values must never move once placed, the same guarantee Sort/SortFunc
// enforce, so a Collection must reject a Fixed storage as a collected type
// before this is ever called on one.
func (s *ComponentSet[T]) swapPositions(p1, p2 uint32) {
	if s.disc == Fixed {
		panic("ecs: swap: fixed storage does not support reordering")
	}
	s.set.Swap(p1, p2)
	s.values[p1], s.values[p2] = s.values[p2], s.values[p1]
}

func (s *ComponentSet[T]) discipline() StorageDiscipline { return s.disc }

func (s *ComponentSet[T]) onCreateDispatcher() *dispatcher { return &s.onCreate }

func (s *ComponentSet[T]) onRemoveDispatcher() *dispatcher { return &s.onRemove }

var _ storage = (*ComponentSet[int])(nil)
