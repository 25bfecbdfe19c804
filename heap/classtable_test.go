package heap

import "testing"

func TestClassTableAllocateIDBumpsTop(t *testing.T) {
	ct := newClassTable(32)
	first, ok := ct.allocateID()
	if !ok {
		t.Fatal("allocateID should succeed with room in the table")
	}
	if first != kFirstRegularObjectCid {
		t.Fatalf("first allocated id = %d, want %d", first, kFirstRegularObjectCid)
	}
	second, _ := ct.allocateID()
	if second != first+1 {
		t.Fatalf("second allocated id = %d, want %d", second, first+1)
	}
}

func TestClassTableFreeListRecycling(t *testing.T) {
	ct := newClassTable(32)
	a, _ := ct.allocateID()
	b, _ := ct.allocateID()

	ct.free(a)
	ct.free(b)

	// LIFO: the most recently freed id comes back first.
	got, ok := ct.allocateID()
	if !ok || got != b {
		t.Fatalf("allocateID after freeing %d,%d = %d, want %d", a, b, got, b)
	}
	got2, ok := ct.allocateID()
	if !ok || got2 != a {
		t.Fatalf("second allocateID = %d, want %d", got2, a)
	}
}

func TestClassTableExhaustion(t *testing.T) {
	ct := newClassTable(int(kFirstRegularObjectCid) + 1)
	if _, ok := ct.allocateID(); !ok {
		t.Fatal("one id should be available")
	}
	if _, ok := ct.allocateID(); ok {
		t.Fatal("table should be exhausted")
	}
}

func TestHeapAllocateClassIDPanicsWhenExhausted(t *testing.T) {
	h := NewHeap(Config{
		InitialSemispaceCapacity: kInitialSemispaceCapacity,
		MaxSemispaceCapacity:     kMaxSemispaceCapacity,
		ClassTableInitialCapacity: int(kFirstRegularObjectCid),
	})
	h.Bootstrap()

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic on class table exhaustion")
		}
	}()
	h.AllocateClassID()
}

// A class with zero live instances this collection must still survive a
// scavenge if something other than an instance of its own cid keeps it
// reachable (here, a handle pointing at the class object directly) —
// mournClassTable must retarget the slot, not free it, once the class
// was forwarded by that other path.
func TestMournClassTableRetargetsClassKeptAliveByHandle(t *testing.T) {
	h := NewHeap(DefaultConfig())
	h.Bootstrap()

	cid := h.AllocateClassID()
	// The class object is an instance of a built-in cid, not of cid, so
	// scanning it does not scavenge cid's slot.
	class := h.AllocateRegularObject(kArrayCid, 2)
	h.RegisterClass(cid, class)

	// No instance of cid is ever allocated: the only thing keeping class
	// reachable is this handle, not a scan of a to-space instance.
	root := class
	h.PushHandle(&root)
	h.Scavenge("test")
	h.PopHandle()

	if h.classes.isFree(cid) {
		t.Fatal("mournClassTable freed a cid whose class was kept alive by a handle")
	}
	got := h.ClassAt(cid)
	if got != root {
		t.Fatalf("ClassAt(%d) = %v after scavenge, want %v (the forwarded class)", cid, got, root)
	}
	if !h.to.contains(got.address()) {
		t.Fatal("ClassAt should point into to-space after scavenge")
	}
}

func TestRegisterClassStampsID(t *testing.T) {
	h := NewHeap(DefaultConfig())
	h.Bootstrap()

	cid := h.AllocateClassID()
	class := h.AllocateRegularObject(kFirstRegularObjectCid, 2)
	h.RegisterClass(cid, class)

	if got := h.ClassAt(cid); got != class {
		t.Fatalf("ClassAt(%d) = %v, want %v", cid, got, class)
	}
	idSlot := h.readSlot(class.address(), 1)
	if !idSlot.IsSmallInteger() || uint32(idSlot.SmallInteger()) != cid {
		t.Fatalf("class id slot = %v, want SmallInteger(%d)", idSlot, cid)
	}
}
