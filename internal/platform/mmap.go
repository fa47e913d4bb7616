package platform

import (
	"os"

	"golang.org/x/sys/unix"
)

// Mapping is a read/write, MAP_SHARED view of a file descriptor. It is the
// sole surface through which the database and address map touch disk.
type Mapping struct {
	data []byte
}

// Map memory-maps the first size bytes of f with MAP_SHARED, read/write
// semantics, mirroring the pack's slotted-cache and mmap-backed WAL
// examples (syscall.Mmap / unix.Mmap over PROT_READ|PROT_WRITE).
func Map(f *os.File, size int) (*Mapping, error) {
	if size == 0 {
		return &Mapping{data: nil}, nil
	}
	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, err
	}
	return &Mapping{data: data}, nil
}

// Bytes returns the mapped region. Callers must re-fetch this slice from
// the new Mapping after the file is unmapped and mapped again; the previous
// slice becomes invalid the instant the region is unmapped.
func (m *Mapping) Bytes() []byte {
	return m.data
}

// Len returns the size in bytes of the current mapping.
func (m *Mapping) Len() int {
	return len(m.data)
}

// Unmap releases the mapped region. It is a no-op on an empty mapping.
func (m *Mapping) Unmap() error {
	if m.data == nil {
		return nil
	}
	err := unix.Munmap(m.data)
	m.data = nil
	return err
}
