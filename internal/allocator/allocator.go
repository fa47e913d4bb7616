// Package allocator implements the session-scoped counters that assign
// the next free logical and physical addresses (spec §4.G). The counters
// are persisted as an ordinary SLOTTED object inside the file. Allocation
// mutates the in-memory object and marks it dirty; Flush, which the
// transaction's commit calls, writes the record and its two counter slots
// into the mapped region.
package allocator

import (
	"github.com/objectlite/objectlite/internal/codec"
	"github.com/objectlite/objectlite/internal/object"
	"github.com/objectlite/objectlite/internal/oblerr"
)

// Dirtier marks an object as part of the current transaction's write set.
type Dirtier interface {
	MarkDirty(o *object.Object)
}

// Allocator wraps the persisted allocator record.
type Allocator struct {
	obj      *object.Object
	expectLA object.LA
	dirty    Dirtier
}

// Wrap validates that obj carries the ALLOCATOR shape (two integer slots)
// before returning an Allocator bound to it. A mismatch reports
// MISSING_SYSTEM_OBJECT (spec §4.G).
func Wrap(obj *object.Object, expectedShapeLA object.LA, dirty Dirtier) (*Allocator, error) {
	if obj == nil || obj.Shape == nil || obj.Shape.LA != expectedShapeLA {
		return nil, oblerr.Newf(oblerr.MissingSystemObject, "allocator object missing or has the wrong shape")
	}
	if _, err := object.SlotCount(obj.Shape); err != nil {
		return nil, oblerr.Newf(oblerr.MissingSystemObject, "allocator shape is malformed: %v", err)
	}
	slotted, ok := obj.Storage.(object.SlottedStorage)
	if !ok || len(slotted.Slots) != 2 {
		return nil, oblerr.New(oblerr.MissingSystemObject)
	}
	return &Allocator{obj: obj, expectLA: expectedShapeLA, dirty: dirty}, nil
}

func (a *Allocator) slots() object.SlottedStorage {
	return a.obj.Storage.(object.SlottedStorage)
}

// AllocateLogical returns the current next_logical value, then increments
// it by 1.
func (a *Allocator) AllocateLogical() (object.LA, error) {
	nextSlot := a.slots().Slots[0]
	v, err := object.AsInteger(nextSlot)
	if err != nil {
		return object.UnassignedLA, oblerr.New(oblerr.MissingSystemObject)
	}
	nextSlot.Storage = object.IntegerStorage{Value: v + 1}
	if a.dirty != nil {
		a.dirty.MarkDirty(a.obj)
		a.dirty.MarkDirty(nextSlot)
	}
	return object.LA(uint32(v)), nil
}

// AllocatePhysical returns the current next_physical value, then
// increments it by size words.
func (a *Allocator) AllocatePhysical(size int) (object.PA, error) {
	nextSlot := a.slots().Slots[1]
	v, err := object.AsInteger(nextSlot)
	if err != nil {
		return object.UnassignedPA, oblerr.New(oblerr.MissingSystemObject)
	}
	nextSlot.Storage = object.IntegerStorage{Value: v + int32(size)}
	if a.dirty != nil {
		a.dirty.MarkDirty(a.obj)
		a.dirty.MarkDirty(nextSlot)
	}
	return object.PA(uint32(v)), nil
}

// Flush re-serializes the allocator record and both of its counter slots
// directly, independent of write-set iteration order. AllocateLogical and
// AllocatePhysical are typically called mid-commit, after the write set's
// ascending-LA cursor has already passed the allocator's own low LAs (1, 2,
// 3); MarkDirty re-inserts them, but a stack-based in-order iterator already
// under way never revisits an earlier position, so the counters' final
// values would otherwise never reach disk. Callers must invoke Flush once,
// after every allocation for a commit is done (spec §4.G: "its next values
// are persisted at commit").
func (a *Allocator) Flush(mem []byte) error {
	s := a.slots()
	if err := codec.WriteObject(s.Slots[0], mem); err != nil {
		return err
	}
	if err := codec.WriteObject(s.Slots[1], mem); err != nil {
		return err
	}
	return codec.WriteObject(a.obj, mem)
}

// NextLogicalPeek and NextPhysicalPeek return the counters without
// advancing them, used by bootstrap and diagnostics.
func (a *Allocator) NextLogicalPeek() (object.LA, error) {
	v, err := object.AsInteger(a.slots().Slots[0])
	return object.LA(uint32(v)), err
}

func (a *Allocator) NextPhysicalPeek() (object.PA, error) {
	v, err := object.AsInteger(a.slots().Slots[1])
	return object.PA(uint32(v)), err
}
