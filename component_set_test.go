package ecs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type position struct{ X, Y float64 }
type velocity struct{ DX, DY float64 }
type tag struct{}

func newTestComponentSet[T any](opts ...StorageOption) *ComponentSet[T] {
	r := NewTypeRegistry()
	kind := NewComponentKind[T](r)
	return newComponentSet(kind, resolveStorageOptions(opts))
}

func TestComponentSetEmplaceFiresOnCreate(t *testing.T) {
	w := NewWorld()
	cs := newTestComponentSet[position]()
	var created Entity
	cs.OnCreate().Subscribe(func(_ *World, e Entity) { created = e })

	e := w.Generate()
	cs.Emplace(w, e, position{1, 2})

	assert.Equal(t, e, created)
	assert.True(t, cs.Contains(e))
	assert.Equal(t, position{1, 2}, *cs.Get(e))
}

func TestComponentSetEmplacePanicsWhenAlreadyPresent(t *testing.T) {
	w := NewWorld()
	cs := newTestComponentSet[position]()
	e := w.Generate()
	cs.Emplace(w, e, position{})
	assert.Panics(t, func() { cs.Emplace(w, e, position{}) })
}

func TestComponentSetTryEmplace(t *testing.T) {
	w := NewWorld()
	cs := newTestComponentSet[position]()
	e := w.Generate()

	_, already := cs.TryEmplace(w, e, position{1, 1})
	assert.False(t, already)

	ptr, already := cs.TryEmplace(w, e, position{2, 2})
	assert.True(t, already)
	assert.Nil(t, ptr)
	assert.Equal(t, position{1, 1}, *cs.Get(e))
}

func TestComponentSetReplaceFiresOnUpdate(t *testing.T) {
	w := NewWorld()
	cs := newTestComponentSet[position]()
	e := w.Generate()
	cs.Emplace(w, e, position{0, 0})

	var updated Entity
	cs.OnUpdate().Subscribe(func(_ *World, e Entity) { updated = e })
	cs.Replace(w, e, position{9, 9})

	assert.Equal(t, e, updated)
	assert.Equal(t, position{9, 9}, *cs.Get(e))
}

func TestComponentSetEraseFiresOnRemoveBeforeRemoval(t *testing.T) {
	w := NewWorld()
	cs := newTestComponentSet[position]()
	e := w.Generate()
	cs.Emplace(w, e, position{3, 4})

	var sawStillPresent bool
	cs.OnRemove().Subscribe(func(_ *World, e Entity) { sawStillPresent = cs.Contains(e) })
	cs.Erase(w, e)

	assert.True(t, sawStillPresent, "on_remove observers must still see the value")
	assert.False(t, cs.Contains(e))
}

func TestComponentSetCompactEraseSwapsLastElement(t *testing.T) {
	w := NewWorld()
	cs := newTestComponentSet[position]()
	e0, e1, e2 := w.Generate(), w.Generate(), w.Generate()
	cs.Emplace(w, e0, position{0, 0})
	cs.Emplace(w, e1, position{1, 1})
	cs.Emplace(w, e2, position{2, 2})

	cs.Erase(w, e0)

	require.True(t, cs.Contains(e2))
	assert.Equal(t, position{2, 2}, *cs.Get(e2))
	assert.Equal(t, 2, cs.Len())
}

func TestComponentSetFixedEraseLeavesHoleAndReusesIt(t *testing.T) {
	w := NewWorld()
	cs := newTestComponentSet[position](WithDiscipline(Fixed))
	e0 := w.Generate()
	e1 := w.Generate()
	cs.Emplace(w, e0, position{0, 0})
	cs.Emplace(w, e1, position{1, 1})

	cs.Erase(w, e0)
	assert.Equal(t, 1, cs.Len())
	assert.True(t, cs.dense()[0].IsTombstone())

	e2 := w.Generate()
	cs.Emplace(w, e2, position{2, 2})
	assert.Equal(t, e2, cs.dense()[0], "emplace should reuse the hole instead of appending")
	assert.Equal(t, 2, cs.Len())
}

func TestComponentSetFixedSortPanics(t *testing.T) {
	cs := newTestComponentSet[position](WithDiscipline(Fixed))
	assert.Panics(t, func() { cs.Sort(nil) })
}

func TestComponentSetPackCompactsHoles(t *testing.T) {
	w := NewWorld()
	cs := newTestComponentSet[position](WithDiscipline(Fixed))
	e0, e1, e2 := w.Generate(), w.Generate(), w.Generate()
	cs.Emplace(w, e0, position{0, 0})
	cs.Emplace(w, e1, position{1, 1})
	cs.Emplace(w, e2, position{2, 2})
	cs.Erase(w, e0)

	cs.Pack()

	assert.Len(t, cs.dense(), 2)
	assert.True(t, cs.Contains(e1))
	assert.True(t, cs.Contains(e2))
}

func TestComponentSetSortFuncOrdersByValue(t *testing.T) {
	w := NewWorld()
	cs := newTestComponentSet[position]()
	e0, e1, e2 := w.Generate(), w.Generate(), w.Generate()
	cs.Emplace(w, e0, position{X: 3})
	cs.Emplace(w, e1, position{X: 1})
	cs.Emplace(w, e2, position{X: 2})

	cs.SortFunc(func(a, b position) bool { return a.X < b.X })

	dense := cs.dense()
	assert.Equal(t, []Entity{e1, e2, e0}, dense)
}
