package ecs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEntityPacking(t *testing.T) {
	cases := []struct {
		name  string
		index uint32
		gen   uint32
	}{
		{"zero", 0, 0},
		{"mid", 12345, 7},
		{"max_index", indexTombstone - 1, 0},
		{"max_gen", 0, maxGeneration},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			e := NewEntity(c.index, c.gen)
			assert.Equal(t, c.index, e.Index())
			assert.Equal(t, c.gen, e.Generation())
			assert.False(t, e.IsTombstone())
		})
	}
}

func TestEntityTombstone(t *testing.T) {
	assert.True(t, Tombstone.IsTombstone())
	assert.Equal(t, indexTombstone, Tombstone.Index())
	assert.Equal(t, genTombstone, Tombstone.Generation())
}

func TestNextGenerationSkipsTombstone(t *testing.T) {
	assert.Equal(t, uint32(0), nextGeneration(genTombstone-1))
	assert.Equal(t, uint32(6), nextGeneration(5))
}

func TestEntityString(t *testing.T) {
	assert.Equal(t, "Entity(tombstone)", Tombstone.String())
	assert.Contains(t, NewEntity(3, 1).String(), "Entity(3:1)")
}
