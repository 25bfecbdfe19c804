package heap

// AllocateEphemeron allocates a (key, value, finalizer) triple whose
// value is retained only while the key is independently reachable.
func (h *Heap) AllocateEphemeron(key, value, finalizer Value) Value {
	addr := h.allocate(kEphemeronCid, ephemeronHeapSizeWords)
	h.initializeHeader(addr, kEphemeronCid, ephemeronHeapSizeWords)
	h.writeSlot(addr, ephemeronKeySlot, key)
	h.writeSlot(addr, ephemeronValueSlot, value)
	h.writeSlot(addr, ephemeronFinalizerSlot, finalizer)
	h.writeRawWord(addr+ephemeronNextWord*kWordSize, 0)
	h.writeSlot(addr, ephemeronHeapSizeWords-1, NewSmallInteger(0))
	return fromAddress(addr)
}

// addToEphemeronList threads addr onto the pending-ephemeron worklist
// via its untagged next word, which is never scavenged and is cleared
// back to zero by mournEphemeronList on exit from collection.
func (h *Heap) addToEphemeronList(addr Address) {
	h.writeRawWord(addr+ephemeronNextWord*kWordSize, uint64(h.ephemeronList))
	h.ephemeronList = addr
}

func (h *Heap) nextEphemeron(addr Address) Address {
	return Address(h.readRawWord(addr + ephemeronNextWord*kWordSize))
}

// keyDischarges reports whether an ephemeron's key already satisfies
// the discharge rule: immediate, in old space (not modeled, so never
// true here), or already forwarded. A pointer into from-space that has
// not been forwarded means the key has not yet been proven live.
func (h *Heap) keyDischarges(key Value) bool {
	if key.IsImmediate() {
		return true
	}
	addr := key.address()
	if h.to.contains(addr) {
		return true
	}
	return h.readHeader(addr).isForwarded()
}

// processEphemeronList runs one discharge pass over the pending list,
// scavenging key/value/finalizer for every ephemeron whose key is
// provably live and re-queuing the rest. It returns whether any
// ephemeron was discharged this pass, which the Cheney loop in
// scavenger.go uses to decide whether to keep iterating.
func (h *Heap) processEphemeronList() (progressed bool) {
	pending := h.ephemeronList
	h.ephemeronList = 0
	for pending != 0 {
		next := h.nextEphemeron(pending)
		key := h.readSlot(pending, ephemeronKeySlot)
		if h.keyDischarges(key) {
			h.scavengePointer(pending, ephemeronKeySlot)
			h.scavengePointer(pending, ephemeronValueSlot)
			h.scavengePointer(pending, ephemeronFinalizerSlot)
			h.writeRawWord(pending+ephemeronNextWord*kWordSize, 0)
			progressed = true
		} else {
			h.addToEphemeronList(pending)
		}
		pending = next
	}
	return progressed
}

// mournEphemeronList clears every still-pending ephemeron's key, value,
// and finalizer to nil: the key never discharged, so it is dead. The
// finalizer is dropped rather than queued; OnEphemeronFinalizable is the
// hook a later design can use to change that.
func (h *Heap) mournEphemeronList() {
	pending := h.ephemeronList
	h.ephemeronList = 0
	nilValue := h.nilObject()
	for pending != 0 {
		next := h.nextEphemeron(pending)
		finalizer := h.readSlot(pending, ephemeronFinalizerSlot)
		h.OnEphemeronFinalizable(finalizer)
		h.writeSlot(pending, ephemeronKeySlot, nilValue)
		h.writeSlot(pending, ephemeronValueSlot, nilValue)
		h.writeSlot(pending, ephemeronFinalizerSlot, nilValue)
		h.writeRawWord(pending+ephemeronNextWord*kWordSize, 0)
		pending = next
	}
}
