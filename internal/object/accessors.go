package object

import (
	"unicode/utf16"

	"github.com/objectlite/objectlite/internal/oblerr"
)

// AsInteger returns o's signed value if o is an INTEGER object, else 0 and
// a WRONG_STORAGE error (spec §4.D).
func AsInteger(o *Object) (int32, error) {
	is, ok := o.Storage.(IntegerStorage)
	if !ok {
		return 0, oblerr.Newf(oblerr.WrongStorage, "expected INTEGER, got %s", StorageTag(o))
	}
	return is.Value, nil
}

// AsBoolean returns o's value if o is a BOOLEAN object, else false and a
// WRONG_STORAGE error.
func AsBoolean(o *Object) (bool, error) {
	bs, ok := o.Storage.(BooleanStorage)
	if !ok {
		return false, oblerr.Newf(oblerr.WrongStorage, "expected BOOLEAN, got %s", StorageTag(o))
	}
	return bs.Value != 0, nil
}

// AsString returns o's UTF-16 code units if o is a STRING object, else nil
// and a WRONG_STORAGE error.
func AsString(o *Object) ([]uint16, error) {
	ss, ok := o.Storage.(StringStorage)
	if !ok {
		return nil, oblerr.Newf(oblerr.WrongStorage, "expected STRING, got %s", StorageTag(o))
	}
	return ss.Units, nil
}

// FixedSizeOf returns the length of a FIXED object's element array, else 0
// and a WRONG_STORAGE error.
func FixedSizeOf(o *Object) (int, error) {
	fs, ok := o.Storage.(FixedStorage)
	if !ok {
		return 0, oblerr.Newf(oblerr.WrongStorage, "expected FIXED, got %s", StorageTag(o))
	}
	return len(fs.Elements), nil
}

// FixedAt returns the element at index i of a FIXED object. An out-of-
// bounds index reports INVALID_INDEX and returns nil (spec §7).
func FixedAt(o *Object, i int) (*Object, error) {
	fs, ok := o.Storage.(FixedStorage)
	if !ok {
		return nil, oblerr.Newf(oblerr.WrongStorage, "expected FIXED, got %s", StorageTag(o))
	}
	if i < 0 || i >= len(fs.Elements) {
		return nil, oblerr.Newf(oblerr.InvalidIndex, "index %d out of range [0,%d)", i, len(fs.Elements))
	}
	return fs.Elements[i], nil
}

// SlotCount returns the number of slot names a SHAPE object declares, else
// 0 and a WRONG_STORAGE error.
func SlotCount(shape *Object) (int, error) {
	ss, ok := shape.Storage.(ShapeStorage)
	if !ok {
		return 0, oblerr.Newf(oblerr.WrongStorage, "expected SHAPE, got %s", StorageTag(shape))
	}
	if ss.SlotNames == nil {
		return 0, nil
	}
	return FixedSizeOf(ss.SlotNames)
}

// SlottedAt returns the slot value at index i of a SLOTTED object.
func SlottedAt(o *Object, i int) (*Object, error) {
	sl, ok := o.Storage.(SlottedStorage)
	if !ok {
		return nil, oblerr.Newf(oblerr.WrongStorage, "expected SLOTTED, got %s", StorageTag(o))
	}
	if i < 0 || i >= len(sl.Slots) {
		return nil, oblerr.Newf(oblerr.InvalidIndex, "index %d out of range [0,%d)", i, len(sl.Slots))
	}
	return sl.Slots[i], nil
}

// SlotByName looks up a SLOTTED object's slot by name, consulting its
// shape's slot_names. An unknown name returns a nil sentinel with no error
// (spec §7: "slot lookup by unknown name (returns a sentinel)").
func SlotByName(o *Object, name string) *Object {
	sl, ok := o.Storage.(SlottedStorage)
	if !ok || o.Shape == nil {
		return nil
	}
	ss, ok := o.Shape.Storage.(ShapeStorage)
	if !ok || ss.SlotNames == nil {
		return nil
	}
	names, ok := ss.SlotNames.Storage.(FixedStorage)
	if !ok {
		return nil
	}
	for i, n := range names.Elements {
		if n == nil {
			continue
		}
		ns, ok := n.Storage.(StringStorage)
		if !ok {
			continue
		}
		if string(utf16.Decode(ns.Units)) == name && i < len(sl.Slots) {
			return sl.Slots[i]
		}
	}
	return nil
}
