package heap

import "testing"

// S5: weak array clears a dead target but keeps a strongly rooted one.
func TestWeakArrayClearsDeadTarget(t *testing.T) {
	h := newTestHeap(t)

	x := h.AllocateArray(1)
	y := h.AllocateArray(1)
	w := h.AllocateWeakArray(2)
	h.writeSlot(w.address(), weakArrayElementsStart+0, x)
	h.writeSlot(w.address(), weakArrayElementsStart+1, y)

	rootW := w
	rootX := x
	h.PushHandle(&rootW)
	h.PushHandle(&rootX)
	h.Scavenge("test")
	h.PopHandle()
	h.PopHandle()

	got0 := h.readSlot(rootW.address(), weakArrayElementsStart+0)
	if got0 != rootX {
		t.Fatalf("w[0] = %v, want surviving %v", got0, rootX)
	}
	got1 := h.readSlot(rootW.address(), weakArrayElementsStart+1)
	if got1 != h.nilObject() {
		t.Fatalf("w[1] = %v, want nil", got1)
	}
}
