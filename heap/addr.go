package heap

import (
	"encoding/binary"
	"unsafe"
)

// addressOfSlice returns the address of a byte slice's backing array.
// Used once, at semispace creation, to turn the Go allocation backing a
// reservation into the Address space the rest of the heap reasons in.
func addressOfSlice(b []byte) uintptr {
	if len(b) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(&b[0]))
}

func getWord(buf []byte) uint64 {
	return binary.LittleEndian.Uint64(buf)
}

func putWord(buf []byte, w uint64) {
	binary.LittleEndian.PutUint64(buf, w)
}
