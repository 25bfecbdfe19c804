package heap

// LookupCache is the interpreter's method-lookup cache. The heap never
// reads its contents; it only clears it at the end of every collection,
// since the cache is a weak structure the heap cannot safely retain
// across a copy (see SPEC_FULL.md's Clear caches step).
type LookupCache interface {
	Clear()
}

// ActivationRecycleList is the interpreter's free list of reusable
// activation records. Like LookupCache it is cleared, never read, by the
// heap: both structures are invalidated together at the end of every
// collection (spec's Clear caches step names both).
type ActivationRecycleList interface {
	Clear()
}

// InstallLookupCache registers the cache the heap will clear after every
// scavenge and become. A nil cache is legal; the heap simply has nothing
// to clear.
func (h *Heap) InstallLookupCache(cache LookupCache) {
	h.cache = cache
}

// InstallActivationRecycleList registers the recycle list the heap will
// clear alongside the lookup cache. A nil list is legal.
func (h *Heap) InstallActivationRecycleList(list ActivationRecycleList) {
	h.recycleList = list
}

func (h *Heap) clearCaches() {
	if h.cache != nil {
		h.cache.Clear()
	}
	if h.recycleList != nil {
		h.recycleList.Clear()
	}
}
