package heap

import "fmt"

const (
	// kInitialSemispaceCapacity and kMaxSemispaceCapacity bound a single
	// semispace's size in bytes. Values match the source's
	// sizeof(uword)*MB and 16*sizeof(uword)*MB under a fixed 8-byte word.
	kInitialSemispaceCapacity = 8 * 1024 * 1024
	kMaxSemispaceCapacity     = 16 * 8 * 1024 * 1024

	// kNewObjectAlignmentOffset biases the first object's address within
	// a semispace. It is zero under this heap's word-based tagging (see
	// SUPPLEMENTED FEATURES in SPEC_FULL.md) but kept as a named constant
	// for parity with the source.
	kNewObjectAlignmentOffset = 0

	// Poison patterns written into unallocated/freed memory when
	// Heap.Debug is set, so stray reads of either are visible rather
	// than silently plausible.
	kUnallocatedWord   uint64 = 0xABABABABABABABAB
	kUninitializedWord uint64 = 0xCBCBCBCBCBCBCBCB
)

// semispace is one half of the copying heap: a contiguous reservation
// with a bump-pointer allocator. At any time exactly one semispace is
// "to-space" (live, growable, read-write) and the other is "from-space"
// (retired after a scavenge, optionally protected in debug mode).
type semispace struct {
	res   *reservation
	base  Address
	top   Address
	limit Address
}

func newSemispace(capacityBytes int) (*semispace, error) {
	res, err := reserveMemory(capacityBytes)
	if err != nil {
		return nil, fmt.Errorf("heap: reserve semispace: %w", err)
	}
	base := Address(addressOfSlice(res.bytes()))
	s := &semispace{
		res:   res,
		base:  base,
		top:   base + kNewObjectAlignmentOffset,
		limit: base + Address(capacityBytes),
	}
	return s, nil
}

func (s *semispace) size() int {
	return int(s.limit - s.base)
}

func (s *semispace) used() int {
	return int(s.top - s.base - kNewObjectAlignmentOffset)
}

func (s *semispace) resetTop() {
	s.top = s.base + kNewObjectAlignmentOffset
}

func (s *semispace) readWrite() error {
	return s.res.readWrite()
}

func (s *semispace) noAccess() error {
	return s.res.noAccess()
}

func (s *semispace) free() error {
	return s.res.release()
}

// tryAllocate bumps the pointer by sizeBytes, which must already be a
// multiple of kObjectAlignment. It returns false (not an error) when the
// semispace is full; Heap.allocate is responsible for scavenging,
// growing, and retrying.
func (s *semispace) tryAllocate(sizeBytes int) (Address, bool) {
	addr := s.top
	next := addr + Address(sizeBytes)
	if next > s.limit {
		return 0, false
	}
	s.top = next
	return addr, true
}

func (s *semispace) contains(addr Address) bool {
	return addr >= s.base && addr < s.limit
}

// wordAt and setWordAt read/write a single 8-byte word at addr, which
// must lie within this semispace and be 8-byte aligned. They are the
// primitive every header, slot, and payload access in the rest of the
// package funnels through.
func (s *semispace) wordAt(addr Address) uint64 {
	off := uintptr(addr - s.base)
	return getWord(s.res.bytes()[off : off+8])
}

func (s *semispace) setWordAt(addr Address, w uint64) {
	off := uintptr(addr - s.base)
	putWord(s.res.bytes()[off:off+8], w)
}

func (s *semispace) bytesAt(addr Address, length int) []byte {
	off := uintptr(addr - s.base)
	return s.res.bytes()[off : off+uintptr(length)]
}

// poisonUnallocated fills the unused tail of the semispace with a
// recognizable bit pattern, so a read past a legitimately allocated
// object is visibly wrong in a debug dump rather than plausible garbage.
func (s *semispace) poisonUnallocated() {
	fillWords(s.bytesFrom(s.top, s.limit), kUnallocatedWord)
}

// poisonRetired fills the entire semispace after it has been retired as
// from-space, distinguishing "never allocated" from "scavenged away."
func (s *semispace) poisonRetired() {
	fillWords(s.bytesFrom(s.base, s.limit), kUninitializedWord)
}

func (s *semispace) bytesFrom(from, to Address) []byte {
	mem := s.res.bytes()
	off := uintptr(from - s.base)
	end := uintptr(to - s.base)
	return mem[off:end]
}

func fillWords(buf []byte, pattern uint64) {
	for i := 0; i+8 <= len(buf); i += 8 {
		putWord(buf[i:i+8], pattern)
	}
}

// growTargetSize repeatedly doubles current until the increase covers
// requested, matching the source's Grow loop instead of a single
// multiply: a request larger than the current capacity can otherwise
// demand more than one doubling.
func growTargetSize(current, requested int) int {
	newSize := current
	for newSize-current < requested {
		newSize *= 2
	}
	return newSize
}
