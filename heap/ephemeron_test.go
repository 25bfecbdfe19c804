package heap

import "testing"

// S3: ephemeron key dies -> key, value, and finalizer are all cleared.
func TestEphemeronKeyDies(t *testing.T) {
	h := newTestHeap(t)

	key := h.AllocateArray(1)
	value := h.AllocateArray(1)
	finalizer := h.AllocateArray(1)
	e := h.AllocateEphemeron(key, value, finalizer)

	root := e
	h.PushHandle(&root)
	h.Scavenge("test")
	h.PopHandle()

	nilValue := h.nilObject()
	if got := h.readSlot(root.address(), ephemeronKeySlot); got != nilValue {
		t.Fatalf("key = %v, want nil", got)
	}
	if got := h.readSlot(root.address(), ephemeronValueSlot); got != nilValue {
		t.Fatalf("value = %v, want nil", got)
	}
	if got := h.readSlot(root.address(), ephemeronFinalizerSlot); got != nilValue {
		t.Fatalf("finalizer = %v, want nil", got)
	}
}

// S4: a key reachable only through the ephemeron's own value slot does
// not survive; the value slot does not gate the key's own liveness.
func TestEphemeronValueDoesNotKeepKeyAlive(t *testing.T) {
	h := newTestHeap(t)

	key := h.AllocateArray(1)
	e := h.AllocateEphemeron(key, key, 0)

	root := e
	h.PushHandle(&root)
	h.Scavenge("test")
	h.PopHandle()

	nilValue := h.nilObject()
	if got := h.readSlot(root.address(), ephemeronKeySlot); got != nilValue {
		t.Fatalf("key = %v, want nil (value slot must not keep key alive)", got)
	}
}

// A key kept alive by an independent strong root discharges the
// ephemeron and keeps the value alive too.
func TestEphemeronKeyKeptAliveByStrongRoot(t *testing.T) {
	h := newTestHeap(t)

	key := h.AllocateArray(1)
	value := h.AllocateArray(1)
	e := h.AllocateEphemeron(key, value, 0)

	rootE := e
	rootKey := key
	h.PushHandle(&rootE)
	h.PushHandle(&rootKey)
	h.Scavenge("test")
	h.PopHandle()
	h.PopHandle()

	gotKey := h.readSlot(rootE.address(), ephemeronKeySlot)
	if gotKey != rootKey {
		t.Fatalf("key = %v, want %v", gotKey, rootKey)
	}
	gotValue := h.readSlot(rootE.address(), ephemeronValueSlot)
	if !gotValue.IsHeapPointer() || !h.to.contains(gotValue.address()) {
		t.Fatal("value must survive when key is strongly rooted")
	}
}
