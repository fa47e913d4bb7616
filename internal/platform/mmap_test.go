package platform

import (
	"os"
	"path/filepath"
	"testing"
)

func TestMapWriteReadPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mapped.db")
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	defer f.Close()

	const size = 4096
	if err := f.Truncate(size); err != nil {
		t.Fatalf("Truncate: %v", err)
	}

	m, err := Map(f, size)
	if err != nil {
		t.Fatalf("Map: %v", err)
	}
	if m.Len() != size {
		t.Fatalf("Len = %d, want %d", m.Len(), size)
	}

	PutWord(m.Bytes()[0:4], 0x11223344)
	if err := m.Unmap(); err != nil {
		t.Fatalf("Unmap: %v", err)
	}

	m2, err := Map(f, size)
	if err != nil {
		t.Fatalf("re-Map: %v", err)
	}
	defer m2.Unmap()

	if got := GetWord(m2.Bytes()[0:4]); got != 0x11223344 {
		t.Fatalf("persisted word = %#x, want 0x11223344", got)
	}
}

func TestMapZeroSizeIsEmptyNoop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.db")
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	defer f.Close()

	m, err := Map(f, 0)
	if err != nil {
		t.Fatalf("Map: %v", err)
	}
	if m.Bytes() != nil {
		t.Fatal("a zero-size mapping must have a nil byte slice")
	}
	if err := m.Unmap(); err != nil {
		t.Fatalf("Unmap on an empty mapping must be a no-op: %v", err)
	}
}
