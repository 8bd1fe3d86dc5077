package ecs

import "sync/atomic"

// CallbackHandle is an opaque, stable subscription id. Unlike the C++
// source's use of handler-object pointers as identity (spec.md §9 flags
// this as an incidental coupling), handles here are a monotonically
// increasing counter independent of where the callback is stored.
type CallbackHandle uint64

var nextCallbackHandle atomic.Uint64

func newCallbackHandle() CallbackHandle {
	return CallbackHandle(nextCallbackHandle.Add(1))
}

// EventCallback is invoked for a component create/update/remove event. It
// receives the owning world so handlers can read or mutate other storages,
// per spec.md §5's re-entrancy rules.
type EventCallback func(w *World, e Entity)

type callbackEntry struct {
	handle CallbackHandle
	fn     EventCallback
	rank   int // 0 for plain subscribers; collection sorters use subscribeRanked
}

// dispatcher is an ordered list of (handle, callback) pairs implementing
// the "insert before anchor" subscription contract of spec.md §4.3: with no
// anchor, a new subscriber goes to the end; with an anchor, it is spliced in
// immediately before that anchor's entry. Dispatch runs left-to-right,
// synchronously, exactly once per firing.
type dispatcher struct {
	entries []callbackEntry
}

// Subscribe appends fn to the end of the dispatch order.
func (d *dispatcher) Subscribe(fn EventCallback) CallbackHandle {
	h := newCallbackHandle()
	d.entries = append(d.entries, callbackEntry{handle: h, fn: fn})
	return h
}

// SubscribeBefore inserts fn immediately before anchor's entry. If anchor is
// not currently subscribed, fn is appended at the end.
func (d *dispatcher) SubscribeBefore(fn EventCallback, anchor CallbackHandle) CallbackHandle {
	h := newCallbackHandle()
	for i, entry := range d.entries {
		if entry.handle == anchor {
			d.entries = append(d.entries, callbackEntry{})
			copy(d.entries[i+1:], d.entries[i:])
			d.entries[i] = callbackEntry{handle: h, fn: fn}
			return h
		}
	}
	d.entries = append(d.entries, callbackEntry{handle: h, fn: fn})
	return h
}

// subscribeRanked inserts fn immediately before the first existing entry for
// which anchor(existing.rank) holds, or appends it if none does. Collection
// sorters use this instead of Subscribe/SubscribeBefore to implement
// spec.md §4.6's next_handler/prev_handler anchor rule: for handle_create
// subscriptions anchor is "rank greater than mine" (so create dispatch runs
// least-restrictive first, each sorter claiming its boundary slot before a
// more restrictive nested sorter reclaims part of it), and for
// handle_remove subscriptions anchor is "rank less than mine" (so remove
// dispatch runs most-restrictive first, shrinking the innermost prefix
// before an outer one can be disturbed by its swap).
func (d *dispatcher) subscribeRanked(fn EventCallback, rank int, anchor func(existingRank int) bool) CallbackHandle {
	h := newCallbackHandle()
	for i, entry := range d.entries {
		if anchor(entry.rank) {
			d.entries = append(d.entries, callbackEntry{})
			copy(d.entries[i+1:], d.entries[i:])
			d.entries[i] = callbackEntry{handle: h, fn: fn, rank: rank}
			return h
		}
	}
	d.entries = append(d.entries, callbackEntry{handle: h, fn: fn, rank: rank})
	return h
}

// Unsubscribe removes a previously registered callback, if still present.
func (d *dispatcher) Unsubscribe(h CallbackHandle) {
	for i, entry := range d.entries {
		if entry.handle == h {
			d.entries = append(d.entries[:i], d.entries[i+1:]...)
			return
		}
	}
}

// emit invokes every subscriber in dispatch order.
func (d *dispatcher) emit(w *World, e Entity) {
	for _, entry := range d.entries {
		entry.fn(w, e)
	}
}
