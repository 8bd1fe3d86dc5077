package ecs

// Collection physically reorders the storages it collects so that every
// entity satisfying its predicate occupies a contiguous prefix of each
// collected storage's dense array (spec.md §4.6). Included and excluded
// storages narrow the predicate without being reordered themselves.
//
// A Collection with no collected types (the degenerate "entity collection"
// named in spec.md §4.6) owns its own entitySet instead of reordering
// anything, and behaves like a cached, incrementally-maintained View.
type Collection struct {
	world *World

	collected []TypeID
	included  []TypeID
	excluded  []TypeID

	n        uint32   // size of the maintained prefix, collected mode only
	entities entitySet // membership cache, degenerate mode only

	handles []sorterHandle
}

type sorterHandle struct {
	disp   *dispatcher
	handle CallbackHandle
}

// restrictiveness ranks a collection for the anchor ordering in
// subscribeRanked: the more types it constrains, the more restrictive, and
// the later its handle_create (and the earlier its handle_remove) runs
// relative to a less restrictive nested collection sharing a storage.
func (c *Collection) restrictiveness() int {
	return len(c.collected) + len(c.included) + len(c.excluded)
}

// constraints returns a signed membership map: +1 for a type that must be
// present (collected or included), -1 for a type that must be absent
// (excluded). Two collections conflict if their collected sets overlap but
// neither constraint map is a subset of the other (spec.md §4.6).
func (c *Collection) constraints() map[TypeID]int8 {
	m := make(map[TypeID]int8, c.restrictiveness())
	for _, t := range c.collected {
		m[t] = 1
	}
	for _, t := range c.included {
		m[t] = 1
	}
	for _, t := range c.excluded {
		m[t] = -1
	}
	return m
}

func isSubsetConstraints(small, big map[TypeID]int8) bool {
	for t, sign := range small {
		if big[t] != sign {
			return false
		}
	}
	return true
}

func collectedOverlap(a, b *Collection) bool {
	for _, t := range a.collected {
		for _, t2 := range b.collected {
			if t == t2 {
				return true
			}
		}
	}
	return false
}

func conflicts(a, b *Collection) bool {
	if !collectedOverlap(a, b) {
		return false
	}
	ca, cb := a.constraints(), b.constraints()
	return !isSubsetConstraints(ca, cb) && !isSubsetConstraints(cb, ca)
}

// predicate reports whether e satisfies every collected/included (present)
// and excluded (absent) constraint, reading storages live from the world.
func (c *Collection) predicate(e Entity) bool {
	return c.predicateIgnoring(e, 0)
}

// predicateIgnoring is predicate, but treats ignored as already absent
// regardless of what its storage currently reports. handleExcludedRemoved
// needs this: it runs from an excluded storage's on_remove, which fires
// before the component is actually gone (spec.md §4.3), so the storage
// would otherwise still report it present at the moment the collection
// needs to treat it as gone.
func (c *Collection) predicateIgnoring(e Entity, ignored TypeID) bool {
	for _, t := range c.collected {
		s, ok := c.world.storages.Get(t)
		if !ok || !s.contains(e) {
			return false
		}
	}
	for _, t := range c.included {
		s, ok := c.world.storages.Get(t)
		if !ok || !s.contains(e) {
			return false
		}
	}
	for _, t := range c.excluded {
		if t == ignored {
			continue
		}
		if s, ok := c.world.storages.Get(t); ok && s.contains(e) {
			return false
		}
	}
	return true
}

// Size reports the number of entities currently satisfying the collection's
// predicate.
func (c *Collection) Size() int {
	if len(c.collected) == 0 {
		return c.entities.Len()
	}
	return int(c.n)
}

// Contains reports whether e is currently within the maintained prefix (or
// membership cache, degenerate mode).
func (c *Collection) Contains(e Entity) bool {
	if len(c.collected) == 0 {
		return c.entities.Contains(e)
	}
	first, ok := c.world.storages.Get(c.collected[0])
	if !ok || !first.contains(e) {
		return false
	}
	return first.offset(e) < c.n
}

// ForEach visits every entity in the maintained prefix. Returning false from
// fn stops iteration early.
func (c *Collection) ForEach(fn func(e Entity) bool) {
	if len(c.collected) == 0 {
		dense := c.entities.Dense()
		for i := len(dense) - 1; i >= 0; i-- {
			if !fn(dense[i]) {
				return
			}
		}
		return
	}
	first, ok := c.world.storages.Get(c.collected[0])
	if !ok {
		return
	}
	dense := first.dense()
	n := int(c.n)
	if n > len(dense) {
		n = len(dense)
	}
	for i := n - 1; i >= 0; i-- {
		if !fn(dense[i]) {
			return
		}
	}
}

// handleCreate is subscribed to every collected/included storage's
// on_create (an excluded storage's on_remove gets handleExcludedRemoved
// instead). It grows the prefix or membership cache when e starts
// satisfying the predicate.
func (c *Collection) handleCreate(w *World, e Entity) {
	c.tryGrow(e, c.predicate(e))
}

// tryGrow does handleCreate's work given a precomputed satisfies verdict.
// Split out so handleExcludedRemoved can supply predicateIgnoring's verdict
// instead of predicate's (see predicateIgnoring's doc comment).
func (c *Collection) tryGrow(e Entity, satisfies bool) {
	if len(c.collected) == 0 {
		if c.entities.Contains(e) || !satisfies {
			return
		}
		c.entities.Insert(e)
		return
	}
	if !satisfies {
		return
	}
	first, ok := c.world.storages.Get(c.collected[0])
	if !ok || !first.contains(e) {
		return
	}
	pos := first.offset(e)
	if pos < c.n {
		return // already within the prefix
	}
	for _, t := range c.collected {
		s, ok := c.world.storages.Get(t)
		if !ok {
			continue
		}
		s.swapPositions(s.offset(e), c.n)
	}
	c.n++
}

// handleExcludedRemoved is handle_create's counterpart for an excluded
// type t: subscribed to t's on_remove, it must treat t as already absent
// even though the removal it is reacting to hasn't physically happened yet.
func (c *Collection) handleExcludedRemoved(w *World, e Entity, t TypeID) {
	c.tryGrow(e, c.predicateIgnoring(e, t))
}

// handleRemove is subscribed to every collected/included storage's
// on_remove (and every excluded storage's on_create). It shrinks the
// prefix or membership cache when e stops satisfying the predicate. It does
// not itself re-test the predicate: on_remove fires before the triggering
// component is actually gone, so it only needs to know whether e is
// currently inside the maintained region.
func (c *Collection) handleRemove(w *World, e Entity) {
	if len(c.collected) == 0 {
		if !c.entities.Contains(e) {
			return
		}
		c.entities.Erase(e)
		return
	}
	first, ok := w.storages.Get(c.collected[0])
	if !ok || !first.contains(e) {
		return
	}
	pos := first.offset(e)
	if pos >= c.n {
		return // not within the prefix
	}
	c.n--
	for _, t := range c.collected {
		s, ok := w.storages.Get(t)
		if !ok {
			continue
		}
		s.swapPositions(s.offset(e), c.n)
	}
}

// moreRestrictiveAnchor is the handle_create anchor predicate: insert before
// the nearest existing entry with a strictly greater rank (spec.md §4.6's
// next_handler).
func moreRestrictiveAnchor(rank int) func(int) bool {
	return func(existing int) bool { return existing > rank }
}

// lessRestrictiveAnchor is the handle_remove anchor predicate: insert before
// the nearest existing entry with a strictly smaller rank (spec.md §4.6's
// prev_handler).
func lessRestrictiveAnchor(rank int) func(int) bool {
	return func(existing int) bool { return existing < rank }
}

// registerPresence wires handleCreate to t's on_create and handleRemove to
// t's on_remove: the ordinary (non-excluded) direction.
func (c *Collection) registerPresence(t TypeID) {
	s, ok := c.world.storages.Get(t)
	if !ok {
		return
	}
	rank := c.restrictiveness()
	createDisp := s.onCreateDispatcher()
	removeDisp := s.onRemoveDispatcher()
	h1 := createDisp.subscribeRanked(c.handleCreate, rank, moreRestrictiveAnchor(rank))
	h2 := removeDisp.subscribeRanked(c.handleRemove, rank, lessRestrictiveAnchor(rank))
	c.handles = append(c.handles, sorterHandle{createDisp, h1}, sorterHandle{removeDisp, h2})
}

// registerAbsence wires handleRemove to t's on_create and handleCreate to
// t's on_remove: the inverted direction an excluded type needs, since
// gaining an excluded component can only shrink the collection and losing
// one can only grow it (spec.md §4.6, "symmetric for exclude-type sorters").
func (c *Collection) registerAbsence(t TypeID) {
	s, ok := c.world.storages.Get(t)
	if !ok {
		return
	}
	rank := c.restrictiveness()
	createDisp := s.onCreateDispatcher()
	removeDisp := s.onRemoveDispatcher()
	onExcludedRemoved := func(w *World, e Entity) { c.handleExcludedRemoved(w, e, t) }
	h1 := createDisp.subscribeRanked(c.handleRemove, rank, lessRestrictiveAnchor(rank))
	h2 := removeDisp.subscribeRanked(onExcludedRemoved, rank, moreRestrictiveAnchor(rank))
	c.handles = append(c.handles, sorterHandle{createDisp, h1}, sorterHandle{removeDisp, h2})
}

// Close unsubscribes every handler this collection registered. The world's
// sorter slot for it is not reclaimed; call World.Purge or drop the
// reference if that matters.
func (c *Collection) Close() {
	for _, h := range c.handles {
		h.disp.Unsubscribe(h.handle)
	}
	c.handles = nil
}

// newCollection builds a Collection for the given (collected, included,
// excluded) type lists, performs the initial scan spec.md §4.6 requires,
// checks for conflicts against every existing sorter, and wires its event
// handlers in restrictiveness order.
func (w *World) newCollection(collected, included, excluded []TypeID) *Collection {
	c := &Collection{world: w, collected: append([]TypeID(nil), collected...),
		included: append([]TypeID(nil), included...), excluded: append([]TypeID(nil), excluded...)}
	if len(c.collected) == 0 {
		c.entities = newEntitySet(defaultSparsePageSize)
	}

	// A Fixed storage's values must never move once placed (spec.md §6); a
	// collected type gets physically reordered on every prefix-maintenance
	// event, so naming one here is a precondition violation, not merely a
	// deferred panic the first time swapPositions runs.
	for _, t := range c.collected {
		if s, ok := w.storages.Get(t); ok && s.discipline() == Fixed {
			panic("ecs: collection: fixed storage cannot be a collected type")
		}
	}

	for _, existing := range w.sorters {
		if conflicts(c, existing) {
			panic("ecs: collection: conflicts with an existing collection over a shared collected type")
		}
	}

	c.initialScan()

	for _, t := range c.collected {
		c.registerPresence(t)
	}
	for _, t := range c.included {
		c.registerPresence(t)
	}
	for _, t := range c.excluded {
		c.registerAbsence(t)
	}

	w.sorters = append(w.sorters, c)
	if w.logger != nil {
		w.logger.Debug("ecs: collection created")
	}
	return c
}

// initialScan populates the prefix (or membership cache) from the world's
// current state, before any event handlers are registered.
func (c *Collection) initialScan() {
	if len(c.collected) == 0 {
		var scan []Entity
		if len(c.included) > 0 {
			if s, ok := c.world.storages.Get(c.included[0]); ok {
				scan = s.dense()
			}
		}
		for _, e := range scan {
			if !e.IsTombstone() && c.predicate(e) {
				c.entities.Insert(e)
			}
		}
		return
	}
	first, ok := c.world.storages.Get(c.collected[0])
	if !ok {
		return
	}
	candidates := append([]Entity(nil), first.dense()...)
	for _, e := range candidates {
		if e.IsTombstone() || !c.predicate(e) {
			continue
		}
		pos := first.offset(e)
		if pos < c.n {
			continue
		}
		for _, t := range c.collected {
			s, ok := c.world.storages.Get(t)
			if !ok {
				continue
			}
			s.swapPositions(s.offset(e), c.n)
		}
		c.n++
	}
}

// IsCollected reports whether any of types is a collected (reorderable)
// member of some sorter currently registered on w, per spec.md §4.6's
// conflict-avoidance query ("the world exposes is_collected<Cs...>()"): a
// caller about to build a new collected-type collection can check this
// first instead of relying solely on the panic from a conflict.
func (w *World) IsCollected(types ...TypeID) bool {
	for _, c := range w.sorters {
		for _, ct := range c.collected {
			for _, t := range types {
				if ct == t {
					return true
				}
			}
		}
	}
	return false
}
