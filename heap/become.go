package heap

// Become performs a bulk identity swap: every pre-existing pointer that
// referenced old[i] is rewritten, across roots, to-space, and the class
// table, to resolve to new[i] instead. It returns false, performing no
// mutation, if old and new differ in length or either contains an
// immediate element.
func (h *Heap) Become(old, new []Value) bool {
	if len(old) != len(new) {
		return false
	}
	for i := range old {
		if old[i].IsImmediate() || new[i].IsImmediate() {
			return false
		}
	}

	for i := range old {
		h.becomeOne(old[i], new[i])
	}

	h.forwardRoots()
	h.forwardToSpace()
	h.forwardClassTable()
	h.clearCaches()

	if h.TraceBecome {
		log.Debugf("become: %d pairs", len(old))
	}
	return true
}

// BecomeChecked is Become for callers that would rather check an error
// with errors.Is than branch on a bare bool.
func (h *Heap) BecomeChecked(old, new []Value) error {
	if !h.Become(old, new) {
		return ErrInvalidBecome
	}
	return nil
}

// becomeOne turns old into a forwarding corpse targeting new, migrating
// old's identity hash first since identity hashes must survive become.
func (h *Heap) becomeOne(old, new Value) {
	addr := old.address()
	hash := h.readHeader(addr).identityHash()
	originalSize := h.heapSizeWordsOf(addr)

	newAddr := new.address()
	newHdr := h.readHeader(newAddr)
	newWords, newOverflowed := newHdr.heapSizeWords()
	if newOverflowed {
		newWords = 0
	}
	h.writeHeader(newAddr, makeHeader(newHdr.cid(), newWords, hash))

	if uint64(originalSize) <= kHeapSizeMask {
		h.writeHeader(addr, makeHeader(kForwardingCorpseCid, originalSize, hash))
		h.writeSlot(addr, corpseTargetWord, new)
	} else {
		h.writeHeader(addr, makeHeader(kForwardingCorpseCid, kOverflowSizeSentinel, hash))
		h.writeRawWord(addr+kWordSize, uint64(originalSize))
		h.writeSlot(addr, corpseOverflowTargetWord, new)
	}
}

const (
	corpseTargetWord         = 1
	corpseOverflowTargetWord = 2
)

func (h *Heap) corpseTarget(addr Address) Value {
	hdr := h.readHeader(addr)
	if _, overflowed := hdr.heapSizeWords(); overflowed {
		return h.readSlot(addr, corpseOverflowTargetWord)
	}
	return h.readSlot(addr, corpseTargetWord)
}

func (h *Heap) isForwardingCorpse(v Value) bool {
	return v.IsHeapPointer() && h.cidOf(v.address()) == kForwardingCorpseCid
}

// forwardValue rewrites v to its become-target if v points at a
// forwarding corpse, following chains (a corpse may itself become a
// corpse's target across repeated become calls) until it reaches a
// non-corpse.
func (h *Heap) forwardValue(v Value) Value {
	for h.isForwardingCorpse(v) {
		v = h.corpseTarget(v.address())
	}
	return v
}

func (h *Heap) forwardRoots() {
	h.roots.objectStore = h.forwardValue(h.roots.objectStore)
	h.roots.currentActivation = h.forwardValue(h.roots.currentActivation)
	for i := 0; i < h.roots.handleCount; i++ {
		ptr := h.roots.handles[i]
		if ptr != nil {
			*ptr = h.forwardValue(*ptr)
		}
	}
}

// forwardToSpace scans the active semispace once: for each non-corpse
// object, first applies the ForwardClass rule to its cid, then rewrites
// every pointer slot that targets a corpse.
func (h *Heap) forwardToSpace() {
	scan := h.to.base + kNewObjectAlignmentOffset
	for scan < h.to.top {
		cid := h.cidOf(scan)
		if shapeOf(cid) != shapeForwardingCorpse {
			newCid := h.forwardClass(cid)
			if newCid != cid {
				h.rewriteCid(scan, newCid)
			}
			switch shapeOf(newCid) {
			case shapeBytes:
			case shapeWeakArray:
				count := weakArrayElementCount(h.heapSizeWordsOf(scan))
				for i := uint32(0); i < count; i++ {
					h.forwardSlot(scan, weakArrayElementsStart+i)
				}
			case shapeEphemeron:
				h.forwardSlot(scan, ephemeronKeySlot)
				h.forwardSlot(scan, ephemeronValueSlot)
				h.forwardSlot(scan, ephemeronFinalizerSlot)
			default:
				first, last := h.pointerRange(scan)
				for i := first; i < last; i++ {
					h.forwardSlot(scan, i)
				}
			}
		}
		scan += Address(h.heapSizeWordsOf(scan) * kWordSize)
	}
}

func (h *Heap) forwardSlot(addr Address, slot uint32) {
	v := h.readSlot(addr, slot)
	if v.IsImmediate() {
		return
	}
	h.writeSlot(addr, slot, h.forwardValue(v))
}

// rewriteCid changes an instance's class id in place, the one mutation
// Become is allowed that Scavenge is not.
func (h *Heap) rewriteCid(addr Address, newCid uint32) {
	hdr := h.readHeader(addr)
	words, overflowed := hdr.heapSizeWords()
	if overflowed {
		words = 0
	}
	h.writeHeader(addr, makeHeader(newCid, words, hdr.identityHash()))
}

// forwardClass implements the ForwardClass rule: if cid's class slot
// holds a forwarding corpse, the replacement class inherits cid (if the
// replacement has no id of its own yet) or the instance adopts the
// replacement's own id.
func (h *Heap) forwardClass(cid uint32) uint32 {
	class := h.classes.at(cid)
	if !h.isForwardingCorpse(class) {
		return cid
	}
	replacement := h.corpseTarget(class.address())
	if !replacement.IsHeapPointer() {
		return cid
	}
	idSlot := h.readSlot(replacement.address(), 1)
	if !idSlot.IsSmallInteger() {
		// Replacement has no id of its own yet: it inherits cid in
		// place rather than minting a fresh one.
		h.writeSlot(replacement.address(), 1, NewSmallInteger(int64(cid)))
		return cid
	}
	return uint32(idSlot.SmallInteger())
}

// forwardClassTable sweeps every class slot: a slot whose class became
// another class with a different id is freed (the id change already
// moved live instances onto the new cid in forwardToSpace); a slot whose
// replacement kept the same id is simply retargeted.
func (h *Heap) forwardClassTable() {
	for cid := kFirstLegalCid; cid < h.classes.top; cid++ {
		if h.classes.isFree(cid) {
			continue
		}
		class := h.classes.at(cid)
		if !h.isForwardingCorpse(class) {
			continue
		}
		replacement := h.corpseTarget(class.address())
		if !replacement.IsHeapPointer() {
			h.classes.register(cid, replacement)
			continue
		}
		idSlot := h.readSlot(replacement.address(), 1)
		if idSlot.IsSmallInteger() && uint32(idSlot.SmallInteger()) == cid {
			h.classes.register(cid, replacement)
		} else {
			h.classes.free(cid)
		}
	}
}
