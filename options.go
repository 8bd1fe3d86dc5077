package ecs

import "go.uber.org/zap"

// storageOptions collects the configuration recognized at storage creation
// time (spec.md §6): discipline, initial capacity, and sparse page size.
type storageOptions struct {
	discipline      StorageDiscipline
	initialCapacity int
	sparsePageSize  uint32
}

// StorageOption configures a component storage at the point World.Reserve
// creates it.
type StorageOption func(*storageOptions)

// WithDiscipline selects Compact (default) or Fixed storage behavior.
func WithDiscipline(d StorageDiscipline) StorageOption {
	return func(o *storageOptions) { o.discipline = d }
}

// WithInitialCapacity reserves dense/value capacity up front.
func WithInitialCapacity(n int) StorageOption {
	return func(o *storageOptions) { o.initialCapacity = n }
}

// WithSparsePageSize overrides the default sparse page granularity. Must be
// a power of two; violating that is a precondition violation (panic),
// checked when the storage is created.
func WithSparsePageSize(n uint32) StorageOption {
	return func(o *storageOptions) { o.sparsePageSize = n }
}

func resolveStorageOptions(opts []StorageOption) storageOptions {
	o := storageOptions{sparsePageSize: defaultSparsePageSize}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WorldOption configures a World at construction time, following the
// functional-options shape used throughout the pack (e.g.
// DangerosoDavo-ecs/world.go's NewWorld(opts ...WorldOption)).
type WorldOption func(*World)

// WithLogger attaches a structured logger. Without one, World logs nothing.
func WithLogger(logger *zap.Logger) WorldOption {
	return func(w *World) { w.logger = logger }
}

// WithTypeRegistry injects a shared TypeRegistry, letting several worlds
// agree on the same component TypeIDs. Without one, World mints its own.
func WithTypeRegistry(registry *TypeRegistry) WorldOption {
	return func(w *World) { w.types = registry }
}
