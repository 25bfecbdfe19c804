package heap

// Built-in cids. Reserved slots [0, kFirstRegularObjectCid) exist before
// any class object does, matching the source's pre-populated low cid
// range.
const (
	kIllegalCid          uint32 = 0
	kSmallIntegerCid     uint32 = 1
	kArrayCid            uint32 = 2
	kByteArrayCid        uint32 = 3
	kByteStringCid       uint32 = 4
	kWideStringCid       uint32 = 5
	kWeakArrayCid        uint32 = 6
	kEphemeronCid        uint32 = 7
	kForwardingCorpseCid uint32 = 8
	kActivationCid       uint32 = 9
	kClosureCid          uint32 = 10
	kMintCid             uint32 = 11
	kBigintCid           uint32 = 12
	kFloat64Cid          uint32 = 13

	kFirstLegalCid          uint32 = 1
	kFirstRegularObjectCid  uint32 = 14

	kClassTableInitialCapacity = 1024
)

// classSlot is one entry of the class table: either a live class
// pointer or a free-list link encoded as a SmallInteger.
type classSlot struct {
	class Value
}

// classTable is the dense, cid-indexed map from class id to class
// object, with a free list threading recycled slots together the way
// the source links freed slots through their own value field.
type classTable struct {
	slots    []classSlot
	top      uint32
	freeHead uint32 // kIllegalCid means empty
}

func newClassTable(capacity int) *classTable {
	t := &classTable{
		slots:    make([]classSlot, capacity),
		top:      kFirstRegularObjectCid,
		freeHead: kIllegalCid,
	}
	return t
}

func (t *classTable) capacity() int {
	return len(t.slots)
}

// allocateID implements the table's three-step id-acquisition rule. The
// caller (Heap.AllocateClassID) is responsible for the scavenge-and-retry
// step; this method only pops the free list or bumps top.
func (t *classTable) allocateID() (uint32, bool) {
	if t.freeHead != kIllegalCid {
		id := t.freeHead
		t.freeHead = uint32(t.slots[id].class.SmallInteger())
		return id, true
	}
	if t.top < uint32(len(t.slots)) {
		id := t.top
		t.top++
		return id, true
	}
	return 0, false
}

func (t *classTable) free(id uint32) {
	t.slots[id].class = NewSmallInteger(int64(t.freeHead))
	t.freeHead = id
}

func (t *classTable) register(id uint32, class Value) {
	t.slots[id].class = class
}

func (t *classTable) at(id uint32) Value {
	return t.slots[id].class
}

func (t *classTable) isFree(id uint32) bool {
	return t.slots[id].class.IsSmallInteger() || t.slots[id].class == 0
}

// AllocateClassID implements the class table's three-step acquisition
// rule: pop the free list, else bump top, else scavenge (which may
// recycle slots via mournClassTable) and retry once. A table still full
// after that is unrecoverable, matching the source's "class table
// growth unimplemented" fatality (see DESIGN.md, "Class-table overflow").
func (h *Heap) AllocateClassID() uint32 {
	if id, ok := h.classes.allocateID(); ok {
		return id
	}
	h.Scavenge("class table exhausted")
	if id, ok := h.classes.allocateID(); ok {
		return id
	}
	panic(ErrClassTableExhausted)
}

// RegisterClass installs class at cid and stamps the class object's own
// id field (slot 0, by convention) with SmallInteger(cid).
func (h *Heap) RegisterClass(cid uint32, class Value) {
	h.classes.register(cid, class)
	if class.IsHeapPointer() {
		h.writeSlot(class.address(), 1, NewSmallInteger(int64(cid)))
	}
}

// ClassAt returns the class object registered at cid.
func (h *Heap) ClassAt(cid uint32) Value {
	return h.classes.at(cid)
}
