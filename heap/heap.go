package heap

import (
	"fmt"
	"math/rand"

	"github.com/google/uuid"
	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("soupheap")

// Heap is a single isolate's managed-object heap: two semispaces, a
// class table, a root set, and the scavenger/become machinery that ties
// them together. A Heap is owned by exactly one interpreter and is never
// touched concurrently (see SPEC_FULL.md's concurrency model); create one
// per isolate rather than sharing it.
type Heap struct {
	id uuid.UUID

	to   *semispace
	from *semispace

	classes     *classTable
	roots       roots
	cache       LookupCache
	recycleList ActivationRecycleList

	identityRand *rand.Rand

	ephemeronList Address
	weakList      Address

	cfg Config

	// ReportGC, TraceGrowth, TraceBecome, and Debug mirror Config's
	// fields but are runtime-toggleable, matching the source's
	// compile-time switches turned into fields instead of #ifdefs.
	ReportGC    bool
	TraceGrowth bool
	TraceBecome bool
	Debug       bool

	// OnEphemeronFinalizable defaults to discarding the finalizer.
	// Preserves the source's TODO boundary: finalizer queue delivery is
	// out of scope here.
	OnEphemeronFinalizable func(finalizer Value)

	// MessageClassID resolves the cid used by AllocateMessage the first
	// time it is called, mirroring the source's lazy
	// object_store()->Message() registration. Left nil, AllocateMessage
	// panics, since a heap with no interpreter-registered Message class
	// has no legal cid to use.
	MessageClassID func() uint32
	messageCid     uint32
}

// NewHeap constructs a heap with two fresh semispaces sized per cfg and
// a class table with cfg's initial capacity. It panics if the initial
// virtual-memory reservation fails, matching the source's treatment of
// startup allocation failure as fatal.
func NewHeap(cfg Config) *Heap {
	to, err := newSemispace(cfg.InitialSemispaceCapacity)
	if err != nil {
		panic(fmt.Errorf("heap: allocate initial to-space: %w", err))
	}
	from, err := newSemispace(cfg.InitialSemispaceCapacity)
	if err != nil {
		panic(fmt.Errorf("heap: allocate initial from-space: %w", err))
	}

	id := uuid.New()
	seed := cfg.Seed
	if seed == 0 {
		seed = idSeed(id)
	}

	handlesCapacity := cfg.HandlesCapacity
	if handlesCapacity <= 0 {
		handlesCapacity = kHandlesCapacity
	}

	h := &Heap{
		id:           id,
		to:           to,
		from:         from,
		classes:      newClassTable(cfg.ClassTableInitialCapacity),
		identityRand: rand.New(rand.NewSource(int64(seed))),
		cfg:          cfg,
		ReportGC:     cfg.ReportGC,
		TraceGrowth:  cfg.TraceGrowth,
		TraceBecome:  cfg.TraceBecome,
		Debug:        cfg.Debug,
		OnEphemeronFinalizable: func(Value) {},
	}
	h.roots.handles = make([]*Value, handlesCapacity)
	if h.Debug {
		from.poisonRetired()
	}
	return h
}

// ID returns the isolate UUID stamped at construction. The heap's own
// log lines do not include it.
func (h *Heap) ID() uuid.UUID {
	return h.id
}

// Bootstrap allocates a minimal object-store root and installs it,
// giving nilObject something to resolve before the interpreter has
// populated a real object store. The returned array is its own nil
// slot, a self-referential placeholder: every caller that wants a
// language-visible nil object is expected to replace slot 0 once the
// interpreter's own bootstrap has a real singleton to install there.
func (h *Heap) Bootstrap() Value {
	addr := h.allocate(kArrayCid, 2)
	h.initializeHeader(addr, kArrayCid, 2)
	store := fromAddress(addr)
	h.writeSlot(addr, 1, store)
	h.InitializeRoot(store)
	return store
}

func idSeed(id uuid.UUID) uint64 {
	var s uint64
	for _, b := range id {
		s = s<<8 | uint64(b)
	}
	return s
}

func (h *Heap) nextIdentityHash() uint32 {
	return uint32(h.identityRand.Int63() & int64(kHashMask))
}

// spaceFor locates the semispace that addr belongs to, to-space or
// from-space. It panics if addr lies in neither, which can only happen
// for a corrupt pointer.
func (h *Heap) spaceFor(addr Address) *semispace {
	if h.to.contains(addr) {
		return h.to
	}
	if h.from.contains(addr) {
		return h.from
	}
	panic("heap: address outside both semispaces")
}

func (h *Heap) readHeader(addr Address) header {
	return header(h.spaceFor(addr).wordAt(addr))
}

func (h *Heap) writeHeader(addr Address, hdr header) {
	h.spaceFor(addr).setWordAt(addr, uint64(hdr))
}

func (h *Heap) readRawWord(addr Address) uint64 {
	return h.spaceFor(addr).wordAt(addr)
}

func (h *Heap) writeRawWord(addr Address, w uint64) {
	h.spaceFor(addr).setWordAt(addr, w)
}

func (h *Heap) readSlot(addr Address, wordIndex uint32) Value {
	return Value(h.readRawWord(addr + Address(wordIndex*kWordSize)))
}

func (h *Heap) writeSlot(addr Address, wordIndex uint32, v Value) {
	h.writeRawWord(addr+Address(wordIndex*kWordSize), uint64(v))
}

// cidOf and heapSizeWordsOf read an object's header fields without exposing
// the raw header word, per the encapsulation design note.
func (h *Heap) cidOf(addr Address) uint32 {
	return h.readHeader(addr).cid()
}

func (h *Heap) heapSizeWordsOf(addr Address) uint32 {
	hdr := h.readHeader(addr)
	words, overflowed := hdr.heapSizeWords()
	if overflowed {
		return uint32(h.readRawWord(addr + kWordSize))
	}
	return words
}
