package ecs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectionMaintainsPrefixOnCreateAndErase(t *testing.T) {
	w := NewWorld()
	e0, e1, e2 := w.Generate(), w.Generate(), w.Generate()
	Emplace(w, e0, position{})
	Emplace(w, e1, position{})

	b := w.Query()
	Collect[position](b)
	Include[velocity](b)
	c := b.BuildCollection()

	assert.Equal(t, 0, c.Size(), "neither e0 nor e1 has velocity yet")

	Emplace(w, e0, velocity{})
	assert.Equal(t, 1, c.Size())
	assert.True(t, c.Contains(e0))

	Emplace(w, e2, position{})
	Emplace(w, e2, velocity{})
	assert.Equal(t, 2, c.Size())
	assert.True(t, c.Contains(e2))

	Erase[velocity](w, e0)
	assert.Equal(t, 1, c.Size())
	assert.False(t, c.Contains(e0))
	assert.True(t, c.Contains(e2))
}

func TestCollectionInitialScanCapturesExistingEntities(t *testing.T) {
	w := NewWorld()
	e0, e1 := w.Generate(), w.Generate()
	Emplace(w, e0, position{})
	Emplace(w, e0, velocity{})
	Emplace(w, e1, position{})

	b := w.Query()
	Collect[position](b)
	Include[velocity](b)
	c := b.BuildCollection()

	assert.Equal(t, 1, c.Size())
	assert.True(t, c.Contains(e0))
}

func TestCollectionExcludeShrinksOnComponentAdded(t *testing.T) {
	w := NewWorld()
	e := w.Generate()
	Emplace(w, e, position{})

	b := w.Query()
	Collect[position](b)
	Exclude[tag](b)
	c := b.BuildCollection()

	require.Equal(t, 1, c.Size())

	Emplace(w, e, tag{})
	assert.Equal(t, 0, c.Size())

	Erase[tag](w, e)
	assert.Equal(t, 1, c.Size())
}

func TestCollectionDegenerateEntityCollection(t *testing.T) {
	w := NewWorld()
	e0, e1 := w.Generate(), w.Generate()
	Emplace(w, e0, position{})
	Emplace(w, e1, position{})
	Emplace(w, e1, tag{})

	b := w.Query()
	Include[position](b)
	Exclude[tag](b)
	c := b.BuildCollection()

	assert.Equal(t, 1, c.Size())
	assert.True(t, c.Contains(e0))
	assert.False(t, c.Contains(e1))

	var visited []Entity
	c.ForEach(func(e Entity) bool { visited = append(visited, e); return true })
	assert.Equal(t, []Entity{e0}, visited)
}

func TestCollectionConflictingConstraintsPanic(t *testing.T) {
	w := NewWorld()
	b1 := w.Query()
	Collect[position](b1)
	Include[velocity](b1)
	b1.BuildCollection()

	b2 := w.Query()
	Collect[position](b2)
	Include[tag](b2)

	assert.Panics(t, func() { b2.BuildCollection() })
}

func TestCollectionNestedNonConflictingOrdering(t *testing.T) {
	w := NewWorld()
	e0 := w.Generate()
	Emplace(w, e0, position{})

	outer := w.Query()
	Collect[position](outer)
	kOuter := outer.BuildCollection()

	inner := w.Query()
	Collect[position](inner)
	Include[velocity](inner)
	kInner := inner.BuildCollection()

	assert.Equal(t, 1, kOuter.Size())
	assert.Equal(t, 0, kInner.Size())

	Emplace(w, e0, velocity{})

	assert.Equal(t, 1, kOuter.Size())
	assert.Equal(t, 1, kInner.Size())
	assert.True(t, kInner.Contains(e0))
	assert.True(t, kOuter.Contains(e0), "kInner's prefix must remain within kOuter's")
}

func TestCollectionRejectsFixedCollectedType(t *testing.T) {
	w := NewWorld()
	Reserve[position](w, WithDiscipline(Fixed))

	b := w.Query()
	Collect[position](b)

	assert.Panics(t, func() { b.BuildCollection() })
}

func TestWorldIsCollected(t *testing.T) {
	w := NewWorld()
	posID := TypeIDOf[position](w)
	assert.False(t, w.IsCollected(posID))

	b := w.Query()
	Collect[position](b)
	b.BuildCollection()

	assert.True(t, w.IsCollected(posID))
}
