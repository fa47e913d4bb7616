package object

import (
	"testing"
	"unicode/utf16"
)

func strObject(s string) *Object {
	return &Object{Storage: StringStorage{Units: utf16.Encode([]rune(s))}}
}

func TestAssignedAndPersisted(t *testing.T) {
	o := &Object{LA: UnassignedLA, PA: UnassignedPA}
	if o.Assigned() || o.Persisted() {
		t.Fatal("a fresh object must be neither assigned nor persisted")
	}
	o.LA = 42
	if !o.Assigned() || o.Persisted() {
		t.Fatal("an object with only an LA is assigned but not persisted")
	}
	o.PA = 7
	if !o.Persisted() {
		t.Fatal("an object with both LA and PA must be persisted")
	}
}

func TestInFixedSpace(t *testing.T) {
	if !InFixedSpace(LANil) || !InFixedSpace(LAStubShape) {
		t.Fatal("fixed-space constants must report InFixedSpace")
	}
	if InFixedSpace(UnassignedLA) {
		t.Fatal("the unassigned sentinel must never be in fixed space")
	}
	if InFixedSpace(100) {
		t.Fatal("an ordinary low LA must not be in fixed space")
	}
}

func TestStorageTagShapeOfShape(t *testing.T) {
	shapeOfShape := &Object{Shape: nil, Storage: ShapeStorage{StorageFormat: SHAPE}}
	if got := StorageTag(shapeOfShape); got != SHAPE {
		t.Fatalf("StorageTag(shape-of-shape) = %s, want SHAPE", got)
	}
}

func TestStorageTagFollowsShape(t *testing.T) {
	shape := &Object{Storage: ShapeStorage{StorageFormat: INTEGER}}
	instance := &Object{Shape: shape, Storage: IntegerStorage{Value: 5}}
	if got := StorageTag(instance); got != INTEGER {
		t.Fatalf("StorageTag(instance) = %s, want INTEGER", got)
	}
}

func TestIsStub(t *testing.T) {
	stub := &Object{Storage: StubStorage{LA: 10}}
	real := &Object{Storage: IntegerStorage{Value: 1}}
	if !IsStub(stub) {
		t.Fatal("a STUB-backed object must report IsStub")
	}
	if IsStub(real) {
		t.Fatal("a non-stub object must not report IsStub")
	}
}

func TestTagValid(t *testing.T) {
	if !SHAPE.Valid() || !STRING.Valid() {
		t.Fatal("defined tags must be valid")
	}
	if Tag(-1).Valid() || tagCount.Valid() {
		t.Fatal("out-of-range tags must not be valid")
	}
}

func TestTagString(t *testing.T) {
	if SHAPE.String() != "SHAPE" || Tag(999).String() != "UNKNOWN" {
		t.Fatalf("unexpected Tag.String() results")
	}
}

func TestAccessorsWrongStorageReportsError(t *testing.T) {
	notAnInteger := &Object{Storage: BooleanStorage{Value: 1}}
	if _, err := AsInteger(notAnInteger); err == nil {
		t.Fatal("AsInteger on a BOOLEAN object must fail")
	}
	notABoolean := &Object{Storage: IntegerStorage{Value: 1}}
	if _, err := AsBoolean(notABoolean); err == nil {
		t.Fatal("AsBoolean on an INTEGER object must fail")
	}
}

func TestFixedAtBoundsChecking(t *testing.T) {
	elems := []*Object{{Storage: IntegerStorage{Value: 1}}, {Storage: IntegerStorage{Value: 2}}}
	fixed := &Object{Storage: FixedStorage{Elements: elems}}

	got, err := FixedAt(fixed, 1)
	if err != nil || got != elems[1] {
		t.Fatalf("FixedAt(1) = %v, %v; want elems[1]", got, err)
	}
	if _, err := FixedAt(fixed, 2); err == nil {
		t.Fatal("FixedAt out of range must report an error")
	}
	if _, err := FixedAt(fixed, -1); err == nil {
		t.Fatal("FixedAt of a negative index must report an error")
	}
}

func TestSlotByNameAndUnknownSentinel(t *testing.T) {
	nameA := strObject("a")
	nameB := strObject("b")
	slotNames := &Object{Storage: FixedStorage{Elements: []*Object{nameA, nameB}}}
	shape := &Object{Storage: ShapeStorage{SlotNames: slotNames}}

	valA := &Object{Storage: IntegerStorage{Value: 1}}
	valB := &Object{Storage: IntegerStorage{Value: 2}}
	instance := &Object{Shape: shape, Storage: SlottedStorage{Slots: []*Object{valA, valB}}}

	if got := SlotByName(instance, "b"); got != valB {
		t.Fatalf("SlotByName(b) = %v, want valB", got)
	}
	if got := SlotByName(instance, "nonexistent"); got != nil {
		t.Fatalf("SlotByName of an unknown name = %v, want nil sentinel", got)
	}
}

func TestSlotCount(t *testing.T) {
	slotNames := &Object{Storage: FixedStorage{Elements: []*Object{strObject("x"), strObject("y"), strObject("z")}}}
	shape := &Object{Storage: ShapeStorage{SlotNames: slotNames}}

	n, err := SlotCount(shape)
	if err != nil || n != 3 {
		t.Fatalf("SlotCount = %d, %v; want 3", n, err)
	}

	emptyShape := &Object{Storage: ShapeStorage{}}
	n, err = SlotCount(emptyShape)
	if err != nil || n != 0 {
		t.Fatalf("SlotCount on a shape with no slot names = %d, %v; want 0", n, err)
	}
}
