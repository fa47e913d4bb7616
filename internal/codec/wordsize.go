// Package codec serializes and deserializes objects between their
// in-memory representation (internal/object) and the mapped database file,
// one storage variant at a time (spec §4.E).
//
// ADDRTREEPAGE has a reader and writer here, but internal/addrmap reads and
// writes its own pages directly rather than through this package, to avoid
// a circular dependency (the address map is this package's own client
// during commit). BOOLEAN, NIL and STUB have no on-disk form: their
// dispatch entries report WRONG_STORAGE. The true, false and nil singletons
// live only in internal/database's in-memory fixed-space table, and stubs
// never reach disk at all.
package codec

import (
	"github.com/objectlite/objectlite/internal/addrmap"
	"github.com/objectlite/objectlite/internal/object"
	"github.com/objectlite/objectlite/internal/oblerr"
)

// WordSize returns the number of words o occupies on disk, including its
// leading shape word (spec §4.E's size table).
func WordSize(o *object.Object) (int, error) {
	switch st := o.Storage.(type) {
	case object.ShapeStorage:
		return 5, nil
	case object.SlottedStorage:
		return 1 + len(st.Slots), nil
	case object.FixedStorage:
		return 2 + len(st.Elements), nil
	case object.AddrTreePageStorage:
		return 2 + addrmap.PageFanout, nil
	case object.IntegerStorage:
		return 2, nil
	case object.StringStorage:
		return 2 + stringDataWords(len(st.Units)), nil
	default:
		return 0, oblerr.Newf(oblerr.WrongStorage, "%s objects have no generic on-disk size", o.Storage.Tag())
	}
}

// stringDataWords returns the number of words needed to pack n UTF-16 code
// units two to a word (spec §4.E: ceil(length*2/4)).
func stringDataWords(n int) int {
	return (n*2 + 3) / 4
}
