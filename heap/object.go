package heap

// shapeKind classifies how the scavenger walks an object's payload.
// Encodes the design note's "dynamic dispatch on object shape": instead
// of virtual methods, the scavenger consults this table keyed by cid.
type shapeKind int

const (
	// shapePointers means every word in [1, heapSizeWords) is a Value
	// slot to scavenge generically. Covers regular objects, arrays,
	// closures, and activations: scavenging an immediate slot is a
	// no-op, so treating the whole payload uniformly as Values is safe
	// and avoids a second per-shape field layout.
	shapePointers shapeKind = iota

	// shapeBytes means the payload is raw bytes with no pointers at
	// all: byte arrays, byte/wide strings, boxed numbers.
	shapeBytes

	// shapeWeakArray and shapeEphemeron are walked specially by the
	// scavenger (deferred to the weak/ephemeron lists) rather than
	// through the generic pointer range.
	shapeWeakArray
	shapeEphemeron

	// shapeForwardingCorpse has a single payload word: the forwarding
	// target (or, if the original size overflowed the header's size
	// field, the overflow size — see become.go).
	shapeForwardingCorpse
)

func shapeOf(cid uint32) shapeKind {
	switch cid {
	case kByteArrayCid, kByteStringCid, kWideStringCid, kMintCid, kBigintCid, kFloat64Cid:
		return shapeBytes
	case kWeakArrayCid:
		return shapeWeakArray
	case kEphemeronCid:
		return shapeEphemeron
	case kForwardingCorpseCid:
		return shapeForwardingCorpse
	default:
		return shapePointers
	}
}

// pointerRange returns the [first, last) word-index range, relative to
// addr, that the generic scavenger should visit. Only meaningful for
// shapePointers objects.
func (h *Heap) pointerRange(addr Address) (first, last uint32) {
	return 1, h.heapSizeWordsOf(addr)
}

// Ephemeron slot layout: fixed regardless of heapSizeWords.
const (
	ephemeronKeySlot       = 1
	ephemeronValueSlot     = 2
	ephemeronFinalizerSlot = 3
	ephemeronNextWord      = 4
	ephemeronHeapSizeWords = 6 // header + 3 slots + next + one pad word
)

// WeakArray layout: header, next (raw, untagged), then elements.
const (
	weakArrayNextWord        = 1
	weakArrayElementsStart   = 2
)

func weakArrayElementCount(heapSizeWords uint32) uint32 {
	return heapSizeWords - weakArrayElementsStart
}
