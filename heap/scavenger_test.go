package heap

import "testing"

func newTestHeap(t *testing.T) *Heap {
	t.Helper()
	h := NewHeap(DefaultConfig())
	h.Bootstrap()
	return h
}

// S1: Cheney roundtrip.
func TestScavengeCheneyRoundtrip(t *testing.T) {
	h := newTestHeap(t)

	a := h.AllocateArray(3)
	h.writeSlot(a.address(), 1, NewSmallInteger(1))
	h.writeSlot(a.address(), 2, NewSmallInteger(2))
	h.writeSlot(a.address(), 3, NewSmallInteger(3))

	h.SetActivation(0)
	root := a
	h.PushHandle(&root)
	h.Scavenge("test")
	h.PopHandle()

	if !root.IsHeapPointer() {
		t.Fatal("array root must survive as a heap pointer")
	}
	if !h.to.contains(root.address()) {
		t.Fatal("array root must live in to-space after scavenge")
	}
	for i, want := range []int64{1, 2, 3} {
		got := h.readSlot(root.address(), uint32(1+i))
		if !got.IsSmallInteger() || got.SmallInteger() != want {
			t.Fatalf("element %d = %v, want SmallInteger(%d)", i, got, want)
		}
	}
}

// S2: forward chain — mutual references survive a scavenge together.
func TestScavengeForwardChain(t *testing.T) {
	h := newTestHeap(t)

	a := h.AllocateArray(1)
	b := h.AllocateArray(1)
	h.writeSlot(a.address(), 1, b)
	h.writeSlot(b.address(), 1, a)

	root := b
	h.PushHandle(&root)
	h.Scavenge("test")
	h.PopHandle()

	bNew := root
	aNew := h.readSlot(bNew.address(), 1)
	if !aNew.IsHeapPointer() || !h.to.contains(aNew.address()) {
		t.Fatal("a must have survived into to-space")
	}
	bBack := h.readSlot(aNew.address(), 1)
	if bBack != bNew {
		t.Fatalf("a[0] = %v, want %v (the surviving b)", bBack, bNew)
	}
}

// S7: grow on pressure.
func TestScavengeGrowsUnderPressure(t *testing.T) {
	h := NewHeap(Config{
		InitialSemispaceCapacity: 512,
		MaxSemispaceCapacity:     1 << 20,
		HandlesCapacity:          kHandlesCapacity,
		ClassTableInitialCapacity: kClassTableInitialCapacity,
	})
	h.Bootstrap()

	before := h.to.size()
	root := h.roots.objectStore
	h.PushHandle(&root)
	for i := 0; i < 40; i++ {
		a := h.AllocateArray(2)
		h.writeSlot(a.address(), 1, root)
		root = a
	}
	h.PopHandle()

	if h.to.size() <= before {
		t.Fatalf("expected growth: before=%d after=%d", before, h.to.size())
	}
}

func TestIdempotentScavenge(t *testing.T) {
	h := newTestHeap(t)
	a := h.AllocateArray(2)
	root := a
	h.PushHandle(&root)
	h.Scavenge("first")
	used1 := h.to.used()
	h.Scavenge("second")
	used2 := h.to.used()
	h.PopHandle()

	if used1 != used2 {
		t.Fatalf("used() changed across idempotent scavenge: %d vs %d", used1, used2)
	}
}

func TestIdentityHashSurvivesScavenge(t *testing.T) {
	h := newTestHeap(t)
	a := h.AllocateArray(1)
	hashBefore := h.readHeader(a.address()).identityHash()

	root := a
	h.PushHandle(&root)
	h.Scavenge("test")
	h.PopHandle()

	hashAfter := h.readHeader(root.address()).identityHash()
	if hashBefore != hashAfter {
		t.Fatalf("identity hash changed across scavenge: %x vs %x", hashBefore, hashAfter)
	}
}
