package database

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/objectlite/objectlite/internal/object"
)

func TestBootstrapCreatesRootRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.obl")
	db, err := Create(Options{Filename: path, LogLevel: LogNone})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer db.Close()

	mem := db.Mem()
	if got := uint32(mem[0])<<24 | uint32(mem[1])<<16 | uint32(mem[2])<<8 | uint32(mem[3]); got != magic {
		t.Fatalf("magic word = %#x, want %#x", got, magic)
	}
	if len(mem) < DefaultGrowthSize*4 {
		t.Fatalf("mapped %d bytes, want at least %d", len(mem), DefaultGrowthSize*4)
	}
	if db.rootAddrMapPA == object.UnassignedPA {
		t.Fatal("address_map_addr is unassigned")
	}

	nextLogical, err := object.AsInteger(db.allocatorObj.Storage.(object.SlottedStorage).Slots[0])
	if err != nil || nextLogical != 4 {
		t.Fatalf("allocator.next_logical = %v, %v; want 4", nextLogical, err)
	}
	nextPhysical, err := object.AsInteger(db.allocatorObj.Storage.(object.SlottedStorage).Slots[1])
	if err != nil || nextPhysical <= 5 {
		t.Fatalf("allocator.next_physical = %v, %v; want > 5", nextPhysical, err)
	}
}

func TestReopenReadsRootRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.obl")
	db, err := Create(Options{Filename: path, LogLevel: LogNone})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	addrMapPA := db.rootAddrMapPA
	if err := db.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	db2, err := Open(Options{Filename: path})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db2.Close()
	if db2.rootAddrMapPA != addrMapPA {
		t.Fatalf("reopened address_map_addr = %d, want %d", db2.rootAddrMapPA, addrMapPA)
	}
}

// MaterializeAt must populate the LRU cache on an address-map miss so a
// later lookup of the same LA can be satisfied without descending the
// address map (spec §4.C).
func TestMaterializeAtPopulatesCache(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.obl")
	db, err := Create(Options{Filename: path, LogLevel: LogNone})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer db.Close()

	const allocatorLA object.LA = 1
	if _, ok := db.cache.Get(uint32(allocatorLA)); ok {
		t.Fatal("cache must start empty for an LA not yet resolved")
	}

	obj, err := db.MaterializeAt(nil, allocatorLA, 1)
	if err != nil {
		t.Fatalf("MaterializeAt: %v", err)
	}

	cachedPA, ok := db.cache.Get(uint32(allocatorLA))
	if !ok {
		t.Fatal("MaterializeAt must populate the cache on a miss")
	}
	if cachedPA != obj.PA {
		t.Fatalf("cached PA = %d, want %d (the resolved object's PA)", cachedPA, obj.PA)
	}
}

// A stub synthesized by a depth-0 MaterializeAt call must be upgraded to the
// real object once a later call resolves it at a positive depth, so the read
// set never strands callers on a stub forever (spec §4.B, §9).
func TestMaterializeAtUpgradesStubInReadSet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.obl")
	db, err := Create(Options{Filename: path, LogLevel: LogNone})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer db.Close()

	const allocatorLA object.LA = 1

	stub, err := db.MaterializeAt(nil, allocatorLA, 0)
	if err != nil {
		t.Fatalf("MaterializeAt depth 0: %v", err)
	}
	if !object.IsStub(stub) {
		t.Fatal("depth-0 MaterializeAt must return a stub")
	}
	if cur, found := db.readSet.Lookup(uint64(allocatorLA)); !found || cur != stub {
		t.Fatal("read set must hold the stub after the depth-0 call")
	}

	real, err := db.MaterializeAt(nil, allocatorLA, 1)
	if err != nil {
		t.Fatalf("MaterializeAt depth 1: %v", err)
	}
	if object.IsStub(real) {
		t.Fatal("depth-1 MaterializeAt must return the real object, not a stub")
	}

	cur, found := db.readSet.Lookup(uint64(allocatorLA))
	if !found {
		t.Fatal("read set lost the entry for the LA after the upgrade")
	}
	if cur == stub || object.IsStub(cur) {
		t.Fatal("read set must hold the materialized object, not the stale stub, after the upgrade")
	}
	if cur != real {
		t.Fatal("read set entry must be the same pointer MaterializeAt returned")
	}

	again, err := db.MaterializeAt(nil, allocatorLA, 0)
	if err != nil {
		t.Fatalf("MaterializeAt depth 0 after upgrade: %v", err)
	}
	if object.IsStub(again) {
		t.Fatal("a later depth-0 call must return the already-materialized object from the read set, not a fresh stub")
	}
	if again != real {
		t.Fatal("a later depth-0 call must return the exact object already in the read set")
	}
}

func TestMain(m *testing.M) {
	code := m.Run()
	Shutdown()
	os.Exit(code)
}
