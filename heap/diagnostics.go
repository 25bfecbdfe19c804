package heap

import (
	"fmt"
	"strings"
)

// CountInstances linearly scans to-space and counts live instances of
// cid. Purely diagnostic; never consulted by allocation or collection.
func (h *Heap) CountInstances(cid uint32) int {
	n := 0
	h.walkToSpace(func(addr Address) {
		if h.cidOf(addr) == cid {
			n++
		}
	})
	return n
}

// CollectInstances linearly scans to-space and appends every instance
// of cid to out, returning the extended slice.
func (h *Heap) CollectInstances(cid uint32, out []Value) []Value {
	h.walkToSpace(func(addr Address) {
		if h.cidOf(addr) == cid {
			out = append(out, fromAddress(addr))
		}
	})
	return out
}

func (h *Heap) walkToSpace(visit func(addr Address)) {
	scan := h.to.base + kNewObjectAlignmentOffset
	for scan < h.to.top {
		visit(scan)
		scan += Address(h.heapSizeWordsOf(scan) * kWordSize)
	}
}

// Activation slot indices, matching AllocateActivation's layout.
const (
	activationSenderSlot   = 1
	activationReceiverSlot = 2
	activationMethodSlot   = 3
	activationSelectorSlot = 4
)

// MixinNamer lets the interpreter supply the human-readable name the
// heap itself has no way to compute (it only holds cids and Values).
// PrintStack calls it on each frame's receiver, method, and selector.
type MixinNamer func(classOrMethod Value) string

// PrintStack walks the current activation via the sender chain and
// returns one line per frame: the receiver's mixin name, the defining
// method's mixin name if different, and the selector — the format the
// source uses for crash reports. The walk stops, without output for it,
// at the first sender that is not a heap pointer to an activation.
func (h *Heap) PrintStack(namer MixinNamer) string {
	var b strings.Builder
	act := h.roots.currentActivation
	for act.IsHeapPointer() {
		addr := act.address()
		if h.cidOf(addr) != kActivationCid {
			break
		}
		receiver := h.readSlot(addr, activationReceiverSlot)
		method := h.readSlot(addr, activationMethodSlot)
		selector := h.readSlot(addr, activationSelectorSlot)

		receiverName := namer(receiver)
		methodName := namer(method)
		if methodName != "" && methodName != receiverName {
			fmt.Fprintf(&b, "%s(%s) %s\n", receiverName, methodName, namer(selector))
		} else {
			fmt.Fprintf(&b, "%s %s\n", receiverName, namer(selector))
		}

		act = h.readSlot(addr, activationSenderSlot)
	}
	return b.String()
}
