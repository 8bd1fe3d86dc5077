package ecs

// defaultSparsePageSize is the page granularity used when a World does not
// request a different one via WithSparsePageSize. Must stay a power of two.
const defaultSparsePageSize = 4096

// entitySet is the sparse-dense set described in spec.md §3/§4.2: a
// contiguous Dense array of live entities plus a paged Sparse array mapping
// an entity's index to its position in Dense. Pages are allocated lazily so
// that sparsely-populated index ranges don't pay for unused pages.
type entitySet struct {
	dense    []Entity
	pages    [][]uint32 // each non-nil page has length pageSize
	pageSize uint32
	pageBits uint32 // log2(pageSize), pageSize is always a power of two
}

func newEntitySet(pageSize uint32) entitySet {
	if pageSize == 0 {
		pageSize = defaultSparsePageSize
	}
	if pageSize&(pageSize-1) != 0 {
		panic("ecs: sparse_page_size must be a power of two")
	}
	bits := uint32(0)
	for 1<<bits < pageSize {
		bits++
	}
	return entitySet{pageSize: pageSize, pageBits: bits}
}

func (s *entitySet) pageOf(index uint32) (page, offset uint32) {
	return index >> s.pageBits, index & (s.pageSize - 1)
}

// slot returns the dense position stored for index, and whether a position
// is recorded there at all (false if the page is missing or the slot is
// empty). Callers still check Dense to confirm the entity matches.
func (s *entitySet) slot(index uint32) (pos uint32, ok bool) {
	page, offset := s.pageOf(index)
	if int(page) >= len(s.pages) || s.pages[page] == nil {
		return 0, false
	}
	pos = s.pages[page][offset]
	return pos, pos != indexTombstone
}

func (s *entitySet) setSlot(index, pos uint32) {
	page, offset := s.pageOf(index)
	for int(page) >= len(s.pages) {
		s.pages = append(s.pages, nil)
	}
	if s.pages[page] == nil {
		p := make([]uint32, s.pageSize)
		for i := range p {
			p[i] = indexTombstone
		}
		s.pages[page] = p
	}
	s.pages[page][offset] = pos
}

func (s *entitySet) clearSlot(index uint32) {
	page, offset := s.pageOf(index)
	if int(page) < len(s.pages) && s.pages[page] != nil {
		s.pages[page][offset] = indexTombstone
	}
}

// Contains reports whether e (generation included) is a member.
func (s *entitySet) Contains(e Entity) bool {
	pos, ok := s.slot(e.Index())
	return ok && pos < uint32(len(s.dense)) && s.dense[pos] == e
}

// Offset returns e's dense position. Precondition: Contains(e).
func (s *entitySet) Offset(e Entity) uint32 {
	pos, ok := s.slot(e.Index())
	if !ok || pos >= uint32(len(s.dense)) || s.dense[pos] != e {
		panic("ecs: offset: entity not present")
	}
	return pos
}

// Insert appends e to Dense and records its position in Sparse.
// Precondition: !Contains(e).
func (s *entitySet) Insert(e Entity) {
	if s.Contains(e) {
		panic("ecs: insert: entity already present")
	}
	pos := uint32(len(s.dense))
	s.dense = append(s.dense, e)
	s.setSlot(e.Index(), pos)
}

// Erase removes e via swap-and-pop: Dense's last element takes e's slot, and
// Sparse is updated for the swapped entity. Precondition: Contains(e).
func (s *entitySet) Erase(e Entity) {
	pos := s.Offset(e)
	last := uint32(len(s.dense)) - 1
	if pos != last {
		moved := s.dense[last]
		s.dense[pos] = moved
		s.setSlot(moved.Index(), pos)
	}
	s.dense = s.dense[:last]
	s.clearSlot(e.Index())
}

// Swap exchanges the entities at two dense positions and fixes up Sparse.
func (s *entitySet) Swap(p1, p2 uint32) {
	if p1 == p2 {
		return
	}
	s.dense[p1], s.dense[p2] = s.dense[p2], s.dense[p1]
	s.setSlot(s.dense[p1].Index(), p1)
	s.setSlot(s.dense[p2].Index(), p2)
}

// Sort reorders Dense so the entities named by keys appear first, in the
// given order; entities absent from keys retain their relative order after
// that prefix. Entities in keys that are not members of s are ignored.
func (s *entitySet) Sort(keys []Entity) {
	sorted := make([]Entity, 0, len(s.dense))
	for _, key := range keys {
		if s.Contains(key) {
			sorted = append(sorted, key)
			s.clearSlot(key.Index()) // taken: skipped below and on repeats
		}
	}
	for _, e := range s.dense {
		if s.Contains(e) {
			sorted = append(sorted, e)
		}
	}
	copy(s.dense, sorted)
	for pos, e := range s.dense {
		s.setSlot(e.Index(), uint32(pos))
	}
}

// Clear empties Dense and invalidates every Sparse slot without freeing the
// page backing store.
func (s *entitySet) Clear() {
	for _, e := range s.dense {
		s.clearSlot(e.Index())
	}
	s.dense = s.dense[:0]
}

// Reserve grows Dense's backing capacity.
func (s *entitySet) Reserve(n int) {
	if n <= len(s.dense) {
		return
	}
	grown := make([]Entity, len(s.dense), n)
	copy(grown, s.dense)
	s.dense = grown
}

func (s *entitySet) Len() int   { return len(s.dense) }
func (s *entitySet) Empty() bool { return len(s.dense) == 0 }

// Dense exposes the backing dense array for read-only iteration.
func (s *entitySet) Dense() []Entity { return s.dense }

// At returns the entity at dense position p.
func (s *entitySet) At(p uint32) Entity { return s.dense[p] }
