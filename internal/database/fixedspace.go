package database

import (
	"sync"

	"github.com/objectlite/objectlite/internal/object"
	"github.com/objectlite/objectlite/internal/platform"
)

// fixedSpace is the process-wide table of singleton and primitive-shape
// objects living in the reserved high range of logical addresses (spec
// §4.H, §9). It is built once by Startup and shared, read-only, by every
// database opened afterward.
type fixedSpace struct {
	byLA map[object.LA]*object.Object
}

var (
	fixedMu    sync.Mutex
	fixedTable *fixedSpace
)

// Startup lazily builds the fixed-space table. It is idempotent: repeated
// calls before a matching Shutdown are no-ops, matching spec §9's
// no-refcounting startup/shutdown pair.
func Startup() {
	fixedMu.Lock()
	defer fixedMu.Unlock()
	if fixedTable == nil {
		fixedTable = buildFixedSpace()
	}
}

// Shutdown tears down the fixed-space table. A subsequent Startup rebuilds
// it from scratch.
func Shutdown() {
	fixedMu.Lock()
	defer fixedMu.Unlock()
	fixedTable = nil
}

func fixedSpaceObject(la object.LA) *object.Object {
	fixedMu.Lock()
	t := fixedTable
	fixedMu.Unlock()
	if t == nil {
		return nil
	}
	return t.byLA[la]
}

// shapeObjectForTag returns the fixed-space shape object describing the
// on-disk storage variant tag, used when session/transaction code
// constructs new objects of a built-in kind.
func shapeObjectForTag(t object.Tag) *object.Object {
	var la object.LA
	switch t {
	case object.INTEGER:
		la = object.LAIntegerShape
	case object.FLOAT:
		la = object.LAFloatShape
	case object.DOUBLE:
		la = object.LADoubleShape
	case object.CHAR:
		la = object.LACharShape
	case object.STRING:
		la = object.LAStringShape
	case object.FIXED:
		la = object.LAFixedShape
	case object.CHUNK:
		la = object.LAChunkShape
	case object.ADDRTREEPAGE:
		la = object.LAAddrTreePageShape
	case object.SLOTTED:
		la = object.LAAllocatorShape
	case object.NIL:
		la = object.LANilShape
	case object.BOOLEAN:
		la = object.LABooleanShape
	case object.STUB:
		la = object.LAStubShape
	default:
		return nil
	}
	return fixedSpaceObject(la)
}

// stubShapeObject is the shared shape every synthesized stub carries.
func stubShapeObject() *object.Object {
	return fixedSpaceObject(object.LAStubShape)
}

func nilObject() *object.Object   { return fixedSpaceObject(object.LANil) }
func trueObject() *object.Object  { return fixedSpaceObject(object.LATrue) }
func falseObject() *object.Object { return fixedSpaceObject(object.LAFalse) }

// NilObject, TrueObject, FalseObject and ShapeForTag expose the process-wide
// fixed-space singletons so the session layer can construct new objects of
// a built-in kind without session importing database's unexported helpers.
func NilObject() *object.Object           { return nilObject() }
func TrueObject() *object.Object          { return trueObject() }
func FalseObject() *object.Object         { return falseObject() }
func ShapeForTag(t object.Tag) *object.Object { return shapeObjectForTag(t) }

// buildFixedSpace constructs the fifteen fixed-space entries. FixedCollection
// (FIXED) shape, String shape, Nil shape and the nil object form a
// self-referential cycle (spec §4.H, §9): they are allocated first with
// zero-value Storage, then back-patched once every pointer in the cycle
// exists.
func buildFixedSpace() *fixedSpace {
	fixedShape := &object.Object{LA: object.LAFixedShape}
	stringShape := &object.Object{LA: object.LAStringShape}
	nilShape := &object.Object{LA: object.LANilShape}
	nilObj := &object.Object{LA: object.LANil}

	mkName := func(s string) *object.Object {
		return &object.Object{Shape: stringShape, Storage: object.StringStorage{Units: platform.EncodeUTF16(s)}}
	}

	stringShape.Storage = object.ShapeStorage{Name: mkName("String"), StorageFormat: object.STRING}
	fixedShape.Storage = object.ShapeStorage{Name: mkName("FixedCollection"), StorageFormat: object.FIXED}
	nilShape.Storage = object.ShapeStorage{Name: mkName("Nil"), StorageFormat: object.NIL}
	nilObj.Shape = nilShape
	nilObj.Storage = object.NilStorage{}

	mkShape := func(la object.LA, name string, format object.Tag) *object.Object {
		return &object.Object{LA: la, Storage: object.ShapeStorage{Name: mkName(name), StorageFormat: format}}
	}

	booleanShape := mkShape(object.LABooleanShape, "Boolean", object.BOOLEAN)
	integerShape := mkShape(object.LAIntegerShape, "Integer", object.INTEGER)
	floatShape := mkShape(object.LAFloatShape, "Float", object.FLOAT)
	doubleShape := mkShape(object.LADoubleShape, "Double", object.DOUBLE)
	charShape := mkShape(object.LACharShape, "Character", object.CHAR)
	chunkShape := mkShape(object.LAChunkShape, "Chunk", object.CHUNK)
	addrTreePageShape := mkShape(object.LAAddrTreePageShape, "AddressTreePage", object.ADDRTREEPAGE)
	stubShape := mkShape(object.LAStubShape, "Stub", object.STUB)

	slotNameElems := []*object.Object{mkName("next_logical"), mkName("next_physical")}
	allocatorSlotNames := &object.Object{Shape: fixedShape, Storage: object.FixedStorage{Elements: slotNameElems}}
	allocatorShape := &object.Object{
		LA: object.LAAllocatorShape,
		Storage: object.ShapeStorage{
			Name:          mkName("Allocator"),
			SlotNames:     allocatorSlotNames,
			StorageFormat: object.SLOTTED,
		},
	}

	trueObj := &object.Object{LA: object.LATrue, Shape: booleanShape, Storage: object.BooleanStorage{Value: 1}}
	falseObj := &object.Object{LA: object.LAFalse, Shape: booleanShape, Storage: object.BooleanStorage{Value: 0}}

	entries := []*object.Object{
		nilObj, trueObj, falseObj,
		integerShape, floatShape, doubleShape, charShape, stringShape,
		fixedShape, chunkShape, addrTreePageShape, allocatorShape,
		nilShape, booleanShape, stubShape,
	}

	t := &fixedSpace{byLA: make(map[object.LA]*object.Object, len(entries))}
	for _, e := range entries {
		t.byLA[e.LA] = e
	}
	return t
}
