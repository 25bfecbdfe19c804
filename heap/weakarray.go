package heap

// addToWeakList threads addr (a to-space weak array already copied by
// the Cheney loop) onto the pending-weak-array worklist via its
// untagged next word.
func (h *Heap) addToWeakList(addr Address) {
	h.writeRawWord(addr+weakArrayNextWord*kWordSize, uint64(h.weakList))
	h.weakList = addr
}

func (h *Heap) nextWeakArray(addr Address) Address {
	return Address(h.readRawWord(addr + weakArrayNextWord*kWordSize))
}

// mournWeakList walks every weak array queued during this collection,
// rewriting slots whose target did not survive to nil and slots whose
// target did survive to its forwarded address. Run once, after strong
// tracing and the ephemeron fixpoint have both settled.
func (h *Heap) mournWeakList() {
	pending := h.weakList
	h.weakList = 0
	nilValue := h.nilObject()
	for pending != 0 {
		next := h.nextWeakArray(pending)
		count := weakArrayElementCount(h.heapSizeWordsOf(pending))
		for i := uint32(0); i < count; i++ {
			h.mournWeakSlot(pending, weakArrayElementsStart+i, nilValue)
		}
		h.writeRawWord(pending+weakArrayNextWord*kWordSize, 0)
		pending = next
	}
}

func (h *Heap) mournWeakSlot(addr Address, slot uint32, nilValue Value) {
	v := h.readSlot(addr, slot)
	if v.IsImmediate() {
		return
	}
	target := v.address()
	if h.to.contains(target) {
		return
	}
	hdr := h.readHeader(target)
	if hdr.isForwarded() {
		h.writeSlot(addr, slot, fromAddress(hdr.forwardingTarget()))
		return
	}
	h.writeSlot(addr, slot, nilValue)
}
