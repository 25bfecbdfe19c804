//go:build unix

package heap

import "golang.org/x/sys/unix"

// reservation is a virtual-memory region backing one semispace, acquired
// with a real mmap so the heap's memory model is what the design
// describes rather than a slice the Go runtime's own collector also
// manages. Grounded on the pack's goloader mmap/mprotect split, adapted
// from raw syscall to golang.org/x/sys/unix.
type reservation struct {
	mem []byte
}

func reserveMemory(size int) (*reservation, error) {
	mem, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, err
	}
	return &reservation{mem: mem}, nil
}

func (r *reservation) bytes() []byte {
	return r.mem
}

func (r *reservation) release() error {
	if r.mem == nil {
		return nil
	}
	err := unix.Munmap(r.mem)
	r.mem = nil
	return err
}

// readWrite restores PROT_READ|PROT_WRITE after a prior noAccess call,
// or is a no-op if the region is already accessible.
func (r *reservation) readWrite() error {
	return unix.Mprotect(r.mem, unix.PROT_READ|unix.PROT_WRITE)
}

// noAccess revokes all access, matching the source's debug-mode
// from-space protection after a scavenge so that a stray pointer into
// the retired semispace faults immediately instead of reading stale
// data.
func (r *reservation) noAccess() error {
	return unix.Mprotect(r.mem, unix.PROT_NONE)
}
