package ecs

// View is a non-owning, composable iteration object over the intersection
// of included storages minus excluded storages, with optional storages
// exposed only for nullable lookup (spec.md §3/§4.5). Its main included
// storage is a Go type parameter so the hot loop stays monomorphized; the
// rest of included/excluded/optional are held type-erased, since Go has no
// variadic type parameters (spec.md §9).
//
// A View holds no cache of matching entities: every step re-tests
// membership against the current state of every referenced storage.
type View[T any] struct {
	main     *ComponentSet[T]
	included []storage
	excluded []storage
	optional []storage
}

// NewView constructs a view directly from storage references, the
// "reachable without the query builder" path spec.md §4.7 describes. main
// may be nil, in which case the view is permanently empty.
func NewView[T any](main *ComponentSet[T], included, excluded, optional []storage) *View[T] {
	return &View[T]{main: main, included: included, excluded: excluded, optional: optional}
}

// SizeHint returns the size of the main storage: an upper bound on the
// number of entities ForEach will visit.
func (v *View[T]) SizeHint() int {
	if v.main == nil {
		return 0
	}
	return v.main.Len()
}

// Contains reports whether e satisfies the view's full predicate: present
// in main and every other included storage, absent from every excluded
// storage.
func (v *View[T]) Contains(e Entity) bool {
	if v.main == nil || !v.main.Contains(e) {
		return false
	}
	for _, s := range v.included {
		if !s.contains(e) {
			return false
		}
	}
	for _, s := range v.excluded {
		if s.contains(e) {
			return false
		}
	}
	return true
}

// Find locates e within the view; it is Contains spelled the way spec.md
// §4.5 names the membership-test/locate pair.
func (v *View[T]) Find(e Entity) bool { return v.Contains(e) }

// ForEach visits every entity satisfying the view's predicate, walking the
// main storage's current dense array from back to front, passing a pointer
// to its main component.
// Returning false from fn stops iteration early (spec.md §4.5's
// cooperative-termination contract).
func (v *View[T]) ForEach(fn func(e Entity, main *T) bool) {
	if v.main == nil {
		return
	}
	dense := v.main.dense()
	for i := len(dense) - 1; i >= 0; i-- {
		e := dense[i]
		if e.IsTombstone() {
			continue // Fixed-storage hole
		}
		if !v.viewPredicate(e) {
			continue
		}
		if !fn(e, &v.main.values[i]) {
			return
		}
	}
}

func (v *View[T]) viewPredicate(e Entity) bool {
	for _, s := range v.included {
		if !s.contains(e) {
			return false
		}
	}
	for _, s := range v.excluded {
		if s.contains(e) {
			return false
		}
	}
	return true
}

// OptionalHas reports whether e has a value in the view's idx'th optional
// storage (in NewView's optional order). Combine with Optional[T2] to fetch
// the typed value once presence is known.
func (v *View[T]) OptionalHas(idx int, e Entity) bool {
	if idx < 0 || idx >= len(v.optional) {
		return false
	}
	return v.optional[idx].contains(e)
}

// Optional returns a pointer to e's T2 component in an optional storage
// obtained from the world, or nil if absent. This is the generic helper
// behind spec.md §4.5's "nullable pointer for each optional C" — View
// itself only tracks membership for optional storages (via Contains checks
// callers can layer on top), since a fixed View[T] cannot also be generic
// over an open-ended list of optional component types.
func Optional[T2 any](w *World, e Entity) *T2 {
	cs, ok := Storage[T2](w)
	if !ok || !cs.Contains(e) {
		return nil
	}
	return cs.Get(e)
}
