package heap

import "testing"

func TestHeaderFieldRoundTrip(t *testing.T) {
	h := makeHeader(kArrayCid, 6, 0x1234)
	if got := h.cid(); got != kArrayCid {
		t.Fatalf("cid() = %d, want %d", got, kArrayCid)
	}
	words, overflowed := h.heapSizeWords()
	if overflowed {
		t.Fatal("unexpected overflow")
	}
	if words != 6 {
		t.Fatalf("heapSizeWords() = %d, want 6", words)
	}
	if got := h.identityHash(); got != 0x1234 {
		t.Fatalf("identityHash() = %x, want 1234", got)
	}
	if h.isForwarded() {
		t.Fatal("fresh header must not be forwarded")
	}
}

func TestHeaderOverflowSentinel(t *testing.T) {
	h := makeHeader(kByteArrayCid, uint32(kHeapSizeMask+1), 0)
	_, overflowed := h.heapSizeWords()
	if !overflowed {
		t.Fatal("expected overflow sentinel for size exceeding field width")
	}
}

func TestSetForwardedRoundTrip(t *testing.T) {
	target := Address(0x1000)
	h := setForwarded(target)
	if !h.isForwarded() {
		t.Fatal("setForwarded result must report isForwarded")
	}
	if got := h.forwardingTarget(); got != target {
		t.Fatalf("forwardingTarget() = %x, want %x", got, target)
	}
}

func TestForwardingTargetPanicsWhenNotForwarded(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	h := makeHeader(kArrayCid, 4, 0)
	h.forwardingTarget()
}
