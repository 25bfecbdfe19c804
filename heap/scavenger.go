package heap

import "fmt"

// Scavenge runs one full collection: flip, trace strong roots, run the
// Cheney loop to a fixpoint with the pending ephemerons, mourn the dead,
// clear caches, and apply the early-growth heuristic. reason is surfaced
// in REPORT_GC tracing only.
func (h *Heap) Scavenge(reason string) {
	if h.ReportGC {
		log.Debugf("scavenge start: reason=%s used=%d", reason, h.to.used())
	}

	h.flip()
	h.processRoots()

	scan := h.to.base + kNewObjectAlignmentOffset
	for {
		for scan < h.to.top {
			scan = h.processToSpaceObject(scan)
		}
		if !h.processEphemeronList() {
			break
		}
	}

	h.mournEphemeronList()
	h.mournWeakList()
	h.mournClassTable()
	h.clearCaches()

	if h.Debug {
		h.from.poisonUnallocated()
		h.from.poisonRetired()
		if err := h.from.noAccess(); err != nil {
			log.Debugf("scavenge: from-space noAccess failed: %v", err)
		}
	}

	if h.to.used() > h.to.size()*h.cfg.growthThresholdEighths()/8 {
		h.grow(h.to.size(), "early growth heuristic")
	}

	if h.ReportGC {
		log.Debugf("scavenge end: used=%d capacity=%d", h.to.used(), h.to.size())
	}
}

func (c Config) growthThresholdEighths() int {
	if c.GrowthThresholdEighths == 0 {
		return 7
	}
	return c.GrowthThresholdEighths
}

// flip swaps to and from. If the new to-space (the old from-space) is
// smaller than the new from-space (this happens right after a grow,
// which only resizes one side), it is freed and reallocated at the
// larger size so both sides stay equal.
func (h *Heap) flip() {
	h.to, h.from = h.from, h.to
	if h.to.size() < h.from.size() {
		if err := h.to.free(); err != nil {
			panic(fmt.Errorf("heap: flip: free undersized to-space: %w", err))
		}
		fresh, err := newSemispace(h.from.size())
		if err != nil {
			panic(fmt.Errorf("heap: flip: reallocate to-space: %w", err))
		}
		h.to = fresh
	}
	if err := h.to.readWrite(); err != nil {
		panic(fmt.Errorf("heap: flip: protect to-space rw: %w", err))
	}
	h.to.resetTop()
}

func (h *Heap) processRoots() {
	h.roots.objectStore = h.scavengeValue(h.roots.objectStore)
	h.roots.currentActivation = h.scavengeValue(h.roots.currentActivation)
	for i := 0; i < h.roots.handleCount; i++ {
		ptr := h.roots.handles[i]
		if ptr != nil {
			*ptr = h.scavengeValue(*ptr)
		}
	}
}

// scavengeValue is the root-level scavenge primitive from spec 4.F step
// 2: immediates and old-space pointers pass through unchanged; a
// forwarded target is redirected; otherwise the object is copied to
// to-space and a forwarding header is left behind.
func (h *Heap) scavengeValue(v Value) Value {
	if v.IsImmediate() {
		return v
	}
	addr := v.address()
	if h.to.contains(addr) {
		return v
	}
	hdr := h.readHeader(addr)
	if hdr.isForwarded() {
		return fromAddress(hdr.forwardingTarget())
	}
	return fromAddress(h.copyToToSpace(addr, hdr))
}

// copyToToSpace performs the actual copy-and-forward: allocate space in
// to-space, copy the object's bytes, and leave a forwarding header at
// the old address.
func (h *Heap) copyToToSpace(oldAddr Address, hdr header) Address {
	words, overflowed := hdr.heapSizeWords()
	var sizeWords uint32
	if overflowed {
		sizeWords = uint32(h.readRawWord(oldAddr + kWordSize))
	} else {
		sizeWords = words
	}
	sizeBytes := int(sizeWords) * kWordSize

	newAddr, ok := h.to.tryAllocate(sizeBytes)
	if !ok {
		panic(fmt.Errorf("%w: to-space exhausted mid-scavenge", ErrOutOfCapacity))
	}

	from := h.spaceFor(oldAddr)
	copy(h.to.bytesAt(newAddr, sizeBytes), from.bytesAt(oldAddr, sizeBytes))
	from.setWordAt(oldAddr, uint64(setForwarded(newAddr)))
	return newAddr
}

// scavengePointer rewrites the Value at addr's slot in place, the
// in-place variant scavengeValue's callers that already hold a
// to-space address (ephemeron processing) use instead of round-tripping
// through a *Value.
func (h *Heap) scavengePointer(addr Address, slot uint32) {
	h.writeSlot(addr, slot, h.scavengeValue(h.readSlot(addr, slot)))
}

// processToSpaceObject implements one iteration of the Cheney loop: scan
// the object at scan, scavenge its class, and either defer it to the
// weak/ephemeron list or scavenge its pointer range in place. Returns
// the next scan cursor.
func (h *Heap) processToSpaceObject(scan Address) Address {
	cid := h.cidOf(scan)
	h.scavengeClass(cid)

	switch shapeOf(cid) {
	case shapeWeakArray:
		h.addToWeakList(scan)
	case shapeEphemeron:
		h.addToEphemeronList(scan)
	case shapeBytes, shapeForwardingCorpse:
		// no pointer-scanned payload
	default:
		first, last := h.pointerRange(scan)
		for i := first; i < last; i++ {
			h.scavengePointer(scan, i)
		}
	}

	return scan + Address(h.heapSizeWordsOf(scan)*kWordSize)
}

// scavengeClass copies the class object for cid if it has not already
// been copied this collection. It never rewrites the instance's own
// cid; that rewrite only happens during Become.
func (h *Heap) scavengeClass(cid uint32) {
	h.classes.register(cid, h.scavengeValue(h.classes.at(cid)))
}

// mournClassTable sweeps [kFirstLegalCid, top): a slot whose target
// still points into from-space is either retargeted, if that object was
// forwarded by some other path this collection (a root, a handle, or a
// generic pointer slot on a surviving object), or freed into the free
// list, if it was not. Checking isForwarded rather than assuming
// "in from-space implies dead" matters because scavengeClass is not the
// only way a class object gets copied: a cid with zero live instances
// this collection can still have its class kept alive by a direct
// reference elsewhere, and class_table[cid] must keep pointing at it.
func (h *Heap) mournClassTable() {
	for cid := kFirstLegalCid; cid < h.classes.top; cid++ {
		if h.classes.isFree(cid) {
			continue
		}
		class := h.classes.at(cid)
		if class.IsImmediate() {
			continue
		}
		addr := class.address()
		if !h.from.contains(addr) {
			continue
		}
		hdr := h.readHeader(addr)
		if hdr.isForwarded() {
			h.classes.register(cid, fromAddress(hdr.forwardingTarget()))
		} else {
			h.classes.free(cid)
		}
	}
}

// grow doubles the from-space's capacity (repeatedly, per
// growTargetSize) until it can satisfy sizeRequested, then scavenges,
// which flips the larger space into place. Panics if the target would
// exceed MaxSemispaceCapacity.
func (h *Heap) grow(sizeRequested int, reason string) {
	newSize := growTargetSize(h.from.size(), sizeRequested)
	if newSize > h.cfg.MaxSemispaceCapacity {
		panic(fmt.Errorf("%w: requested %d exceeds max %d", ErrSemispaceCapacity, newSize, h.cfg.MaxSemispaceCapacity))
	}

	if h.TraceGrowth {
		log.Debugf("grow: reason=%s old=%d new=%d", reason, h.from.size(), newSize)
	}

	if err := h.from.free(); err != nil {
		panic(fmt.Errorf("heap: grow: free from-space: %w", err))
	}
	fresh, err := newSemispace(newSize)
	if err != nil {
		panic(fmt.Errorf("heap: grow: reallocate from-space: %w", err))
	}
	h.from = fresh

	h.Scavenge(reason)
}
