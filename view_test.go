package ecs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestViewForEachIncludeExclude(t *testing.T) {
	w := NewWorld()

	both := w.Generate()
	Emplace(w, both, position{X: 1})
	Emplace(w, both, velocity{DX: 1})

	posOnly := w.Generate()
	Emplace(w, posOnly, position{X: 2})

	tagged := w.Generate()
	Emplace(w, tagged, position{X: 3})
	Emplace(w, tagged, velocity{DX: 3})
	Emplace(w, tagged, tag{})

	b := w.Query()
	Include[velocity](b)
	Exclude[tag](b)
	view := BuildView[position](b)

	var visited []Entity
	view.ForEach(func(e Entity, p *position) bool {
		visited = append(visited, e)
		return true
	})

	assert.ElementsMatch(t, []Entity{both}, visited)
	assert.True(t, view.Contains(both))
	assert.False(t, view.Contains(posOnly), "missing required velocity")
	assert.False(t, view.Contains(tagged), "excluded by tag")
}

func TestViewForEachEarlyExit(t *testing.T) {
	w := NewWorld()
	e0, e1 := w.Generate(), w.Generate()
	Emplace(w, e0, position{})
	Emplace(w, e1, position{})

	b := w.Query()
	view := BuildView[position](b)

	visited := 0
	view.ForEach(func(e Entity, p *position) bool {
		visited++
		return false
	})

	assert.Equal(t, 1, visited)
}

func TestViewOptionalLookup(t *testing.T) {
	w := NewWorld()
	withVel := w.Generate()
	Emplace(w, withVel, position{})
	Emplace(w, withVel, velocity{DX: 9})

	withoutVel := w.Generate()
	Emplace(w, withoutVel, position{})

	b := w.Query()
	QueryOptional[velocity](b)
	view := BuildView[position](b)

	idx := 0
	assert.True(t, view.OptionalHas(idx, withVel))
	assert.False(t, view.OptionalHas(idx, withoutVel))
	assert.Equal(t, velocity{DX: 9}, *Optional[velocity](w, withVel))
	assert.Nil(t, Optional[velocity](w, withoutVel))
}

func TestViewWithNilMainIsEmpty(t *testing.T) {
	view := NewView[position](nil, nil, nil, nil)
	assert.Equal(t, 0, view.SizeHint())
	view.ForEach(func(e Entity, p *position) bool {
		t.Fatal("should never be called")
		return true
	})
}
