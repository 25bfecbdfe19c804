package heap

import (
	"fmt"
	"math"
)

// roundWordsToAlignment pads a header-inclusive word count up to an even
// number, matching the source's rule that every object's total slot
// count (header included) is even. Returns the padded word count and
// whether a filler word was added.
func roundWordsToAlignment(words uint32) (padded uint32, hasFiller bool) {
	if words%2 == 0 {
		return words, false
	}
	return words + 1, true
}

// allocate is the core bump/scavenge/grow/retry loop every typed
// allocator funnels through. sizeWords includes the header word.
func (h *Heap) allocate(cid uint32, sizeWords uint32) Address {
	sizeBytes := int(sizeWords) * kWordSize

	if addr, ok := h.to.tryAllocate(sizeBytes); ok {
		return addr
	}

	h.Scavenge("allocation failure")
	if addr, ok := h.to.tryAllocate(sizeBytes); ok {
		return addr
	}

	h.grow(sizeBytes, "allocation failure after scavenge")
	if addr, ok := h.to.tryAllocate(sizeBytes); ok {
		return addr
	}

	panic(fmt.Errorf("%w: cid=%d size=%d", ErrOutOfCapacity, cid, sizeBytes))
}

// initializeHeader writes a fresh object's header, assigning it a new
// identity hash. Overflow sizes (more words than the header's size
// field can hold) are written into the extra word immediately following
// the header, per the header's overflow-sentinel convention.
func (h *Heap) initializeHeader(addr Address, cid uint32, sizeWords uint32) {
	hash := h.nextIdentityHash()
	if uint64(sizeWords) <= kHeapSizeMask {
		h.writeHeader(addr, makeHeader(cid, sizeWords, hash))
	} else {
		h.writeHeader(addr, makeHeader(cid, kOverflowSizeSentinel, hash))
		h.writeRawWord(addr+kWordSize, uint64(sizeWords))
	}
}

// AllocateRegularObject allocates a fixed-slot instance of cid with
// numSlots instance variables, all initialized to nil (the object
// store's nil singleton — callers without an object store yet may leave
// this zero and rely on the SmallInteger-0 filler convention instead).
func (h *Heap) AllocateRegularObject(cid uint32, numSlots uint32) Value {
	sizeWords, filler := roundWordsToAlignment(1 + numSlots)
	addr := h.allocate(cid, sizeWords)
	h.initializeHeader(addr, cid, sizeWords)
	nilValue := h.nilObject()
	for i := uint32(0); i < numSlots; i++ {
		h.writeSlot(addr, 1+i, nilValue)
	}
	if filler {
		h.writeSlot(addr, sizeWords-1, NewSmallInteger(0))
	}
	return fromAddress(addr)
}

// AllocateArray allocates an array of n elements, each initialized to
// nil.
func (h *Heap) AllocateArray(n uint32) Value {
	sizeWords, filler := roundWordsToAlignment(1 + n)
	addr := h.allocate(kArrayCid, sizeWords)
	h.initializeHeader(addr, kArrayCid, sizeWords)
	nilValue := h.nilObject()
	for i := uint32(0); i < n; i++ {
		h.writeSlot(addr, 1+i, nilValue)
	}
	if filler {
		h.writeSlot(addr, sizeWords-1, NewSmallInteger(0))
	}
	return fromAddress(addr)
}

// AllocateWeakArray allocates an array of n weakly-held elements, each
// initialized to nil.
func (h *Heap) AllocateWeakArray(n uint32) Value {
	sizeWords, filler := roundWordsToAlignment(weakArrayElementsStart + n)
	addr := h.allocate(kWeakArrayCid, sizeWords)
	h.initializeHeader(addr, kWeakArrayCid, sizeWords)
	h.writeRawWord(addr+weakArrayNextWord*kWordSize, 0)
	nilValue := h.nilObject()
	for i := uint32(0); i < n; i++ {
		h.writeSlot(addr, weakArrayElementsStart+i, nilValue)
	}
	if filler {
		h.writeSlot(addr, sizeWords-1, NewSmallInteger(0))
	}
	return fromAddress(addr)
}

// AllocateClosure allocates a closure with numCopied captured slots
// (plus one fixed slot for the referenced method/code object).
func (h *Heap) AllocateClosure(numCopied uint32) Value {
	const methodSlot = 1
	sizeWords, filler := roundWordsToAlignment(1 + methodSlot + numCopied)
	addr := h.allocate(kClosureCid, sizeWords)
	h.initializeHeader(addr, kClosureCid, sizeWords)
	nilValue := h.nilObject()
	for i := uint32(0); i < methodSlot+numCopied; i++ {
		h.writeSlot(addr, 1+i, nilValue)
	}
	if filler {
		h.writeSlot(addr, sizeWords-1, NewSmallInteger(0))
	}
	return fromAddress(addr)
}

// Activation slot layout: sender, receiver, method, selector.
const activationFixedSlots = 4

// AllocateActivation allocates an interpreter call frame. Locals and
// the operand stack are the interpreter's concern, not the heap's; this
// models only the sender-chain and identification fields PrintStack
// needs.
func (h *Heap) AllocateActivation() Value {
	sizeWords, filler := roundWordsToAlignment(1 + activationFixedSlots)
	addr := h.allocate(kActivationCid, sizeWords)
	h.initializeHeader(addr, kActivationCid, sizeWords)
	nilValue := h.nilObject()
	for i := uint32(0); i < activationFixedSlots; i++ {
		h.writeSlot(addr, 1+i, nilValue)
	}
	if filler {
		h.writeSlot(addr, sizeWords-1, NewSmallInteger(0))
	}
	return fromAddress(addr)
}

// AllocateByteArray allocates an n-byte raw buffer, zero-filled.
func (h *Heap) AllocateByteArray(n uint32) Value {
	return h.allocateBytes(kByteArrayCid, n)
}

// AllocateByteString allocates an n-byte Latin-1 string buffer,
// zero-filled.
func (h *Heap) AllocateByteString(n uint32) Value {
	return h.allocateBytes(kByteStringCid, n)
}

// AllocateWideString allocates an n-rune UTF-16-ish string buffer (2
// bytes per element), zero-filled.
func (h *Heap) AllocateWideString(n uint32) Value {
	return h.allocateBytes(kWideStringCid, n*2)
}

func (h *Heap) allocateBytes(cid uint32, payloadBytes uint32) Value {
	payloadWords := (payloadBytes + kWordSize - 1) / kWordSize
	sizeWords, _ := roundWordsToAlignment(1 + payloadWords)
	addr := h.allocate(cid, sizeWords)
	h.initializeHeader(addr, cid, sizeWords)
	buf := h.spaceFor(addr).bytesAt(addr+kWordSize, int(sizeWords-1)*kWordSize)
	for i := range buf {
		buf[i] = 0
	}
	return fromAddress(addr)
}

// AllocateMediumInteger allocates a boxed 64-bit integer ("mint" in the
// source, promoted to when a SmallInteger overflows).
func (h *Heap) AllocateMediumInteger(v int64) Value {
	sizeWords, _ := roundWordsToAlignment(2)
	addr := h.allocate(kMintCid, sizeWords)
	h.initializeHeader(addr, kMintCid, sizeWords)
	h.writeRawWord(addr+kWordSize, uint64(v))
	return fromAddress(addr)
}

// AllocateLargeInteger allocates a bignum with capacity raw digit words,
// zero-filled.
func (h *Heap) AllocateLargeInteger(capacity uint32) Value {
	sizeWords, _ := roundWordsToAlignment(1 + capacity)
	addr := h.allocate(kBigintCid, sizeWords)
	h.initializeHeader(addr, kBigintCid, sizeWords)
	buf := h.spaceFor(addr).bytesAt(addr+kWordSize, int(capacity)*kWordSize)
	for i := range buf {
		buf[i] = 0
	}
	return fromAddress(addr)
}

// AllocateFloat64 allocates a boxed double.
func (h *Heap) AllocateFloat64(v float64) Value {
	sizeWords, _ := roundWordsToAlignment(2)
	addr := h.allocate(kFloat64Cid, sizeWords)
	h.initializeHeader(addr, kFloat64Cid, sizeWords)
	h.writeRawWord(addr+kWordSize, math.Float64bits(v))
	return fromAddress(addr)
}

// AllocateMessage allocates a dynamic-send message object, lazily
// resolving its cid through MessageClassID on first use, mirroring the
// source's lazy object_store()->Message() registration.
func (h *Heap) AllocateMessage(selector Value, args []Value) Value {
	if h.messageCid == kIllegalCid {
		if h.MessageClassID == nil {
			panic("heap: AllocateMessage: no Message class registered")
		}
		h.messageCid = h.MessageClassID()
	}
	const selectorSlot = 1
	sizeWords, filler := roundWordsToAlignment(1 + selectorSlot + uint32(len(args)))
	addr := h.allocate(h.messageCid, sizeWords)
	h.initializeHeader(addr, h.messageCid, sizeWords)
	h.writeSlot(addr, 1, selector)
	for i, a := range args {
		h.writeSlot(addr, uint32(2+i), a)
	}
	if filler {
		h.writeSlot(addr, sizeWords-1, NewSmallInteger(0))
	}
	return fromAddress(addr)
}

// nilObject reads the canonical nil singleton from slot 0 of the
// object-store root, the convention this heap uses in place of a
// dedicated immediate (see DESIGN.md).
func (h *Heap) nilObject() Value {
	if h.roots.objectStore == 0 {
		return 0
	}
	return h.readSlot(h.roots.objectStore.address(), 1)
}
