package ecs

// QueryBuilder accumulates include/exclude/optional/collect type lists and
// materializes either a View or a Collection from them (spec.md §4.7).
// Because Go methods cannot introduce their own type parameters, the
// type-specific steps (Include, Exclude, QueryOptional, Collect) are free
// functions taking *QueryBuilder rather than generic methods on it — the
// same constraint World's Reserve/Emplace/etc. work around.
type QueryBuilder struct {
	world     *World
	included  []TypeID
	excluded  []TypeID
	optional  []TypeID
	collected []TypeID
}

// Query starts a new QueryBuilder against w.
func (w *World) Query() *QueryBuilder {
	return &QueryBuilder{world: w}
}

// Include adds T to the builder's required-present list, reserving its
// storage if it doesn't already exist so later materialization always has
// a storage to resolve the TypeID against.
func Include[T any](b *QueryBuilder) *QueryBuilder {
	Reserve[T](b.world)
	b.included = append(b.included, TypeIDOf[T](b.world))
	return b
}

// Exclude adds T to the builder's required-absent list.
func Exclude[T any](b *QueryBuilder) *QueryBuilder {
	Reserve[T](b.world)
	b.excluded = append(b.excluded, TypeIDOf[T](b.world))
	return b
}

// QueryOptional adds T to the builder's optional list: a materialized View
// will expose presence/value lookups for it without requiring it.
func QueryOptional[T any](b *QueryBuilder) *QueryBuilder {
	Reserve[T](b.world)
	b.optional = append(b.optional, TypeIDOf[T](b.world))
	return b
}

// Collect adds T to the builder's collected list: a materialized Collection
// will physically reorder T's storage to maintain a matching prefix.
func Collect[T any](b *QueryBuilder) *QueryBuilder {
	Reserve[T](b.world)
	b.collected = append(b.collected, TypeIDOf[T](b.world))
	return b
}

func resolveStorages(w *World, ids []TypeID) []storage {
	out := make([]storage, 0, len(ids))
	for _, id := range ids {
		if s, ok := w.storages.Get(id); ok {
			out = append(out, s)
		}
	}
	return out
}

// BuildView materializes a View[T] from the builder: T is the view's main
// (monomorphized) storage, and every Include/Exclude/QueryOptional call so
// far becomes the view's included/excluded/optional storage list. Any
// Collect calls are ignored — a View never reorders storages.
func BuildView[T any](b *QueryBuilder) *View[T] {
	main := Reserve[T](b.world)
	return NewView[T](main, resolveStorages(b.world, b.included), resolveStorages(b.world, b.excluded), resolveStorages(b.world, b.optional))
}

// BuildCollection materializes a Collection from the builder's
// collected/included/excluded lists (QueryOptional calls are ignored —
// optional storages have no role in a collection's predicate). Panics if
// the new collection's constraints conflict with an existing one over a
// shared collected type (spec.md §4.6); check World.IsCollected first to
// avoid that in code that can route around the conflict.
func (b *QueryBuilder) BuildCollection() *Collection {
	return b.world.newCollection(b.collected, b.included, b.excluded)
}
