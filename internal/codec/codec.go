package codec

import (
	"github.com/objectlite/objectlite/internal/addrmap"
	"github.com/objectlite/objectlite/internal/object"
	"github.com/objectlite/objectlite/internal/oblerr"
	"github.com/objectlite/objectlite/internal/platform"
)

// Resolver resolves a referenced logical address into its object, following
// the read set / address map / stub-synthesis chain a session owns
// (spec §4.D step 5). codec depends only on this narrow interface so it
// never imports session or database.
type Resolver interface {
	ReadAt(la object.LA, depth int) (*object.Object, error)
}

type reader func(r Resolver, mem []byte, pa object.PA, depth int, shape *object.Object) (object.Storage, error)
type writer func(o *object.Object, mem []byte) error

var readers [tagSlots]reader
var writers [tagSlots]writer

// tagSlots is sized generously past the last defined object.Tag so adding
// a reserved tag never requires resizing these tables.
const tagSlots = 16

func invalidReader(_ Resolver, _ []byte, _ object.PA, _ int, _ *object.Object) (object.Storage, error) {
	return nil, oblerr.New(oblerr.WrongStorage)
}

func invalidWriter(o *object.Object, _ []byte) error {
	return oblerr.Newf(oblerr.WrongStorage, "%s has no generic on-disk form", o.Storage.Tag())
}

func init() {
	for i := range readers {
		readers[i] = invalidReader
		writers[i] = invalidWriter
	}
	readers[object.SHAPE] = readShape
	writers[object.SHAPE] = writeShape
	readers[object.SLOTTED] = readSlotted
	writers[object.SLOTTED] = writeSlotted
	readers[object.FIXED] = readFixed
	writers[object.FIXED] = writeFixed
	readers[object.ADDRTREEPAGE] = readAddrTreePage
	writers[object.ADDRTREEPAGE] = writeAddrTreePage
	readers[object.INTEGER] = readInteger
	writers[object.INTEGER] = writeInteger
	readers[object.STRING] = readString
	writers[object.STRING] = writeString
}

func readWord(mem []byte, pa object.PA) uint32 {
	off := int(pa) * 4
	return platform.GetWord(mem[off : off+4])
}

func writeWord(mem []byte, pa object.PA, v uint32) {
	off := int(pa) * 4
	platform.PutWord(mem[off:off+4], v)
}

func writeRefOrZero(mem []byte, pa object.PA, ref *object.Object) {
	la := object.UnassignedLA
	if ref != nil {
		la = ref.LA
	}
	writeWord(mem, pa, uint32(la))
}

func resolveRef(r Resolver, la object.LA, depth int) (*object.Object, error) {
	if la == object.UnassignedLA {
		return nil, nil
	}
	return r.ReadAt(la, depth)
}

// ReadObject deserializes the object at pa, assigning it logical address la
// (spec §4.E "read_object"). The shape word is read first and, unless it is
// the shape-of-shape sentinel (object.LANil), resolved with a recursive load
// depth of 1 — shapes are always fully materialized, never left as stubs.
func ReadObject(r Resolver, mem []byte, la object.LA, pa object.PA, depth int) (*object.Object, error) {
	shapeWord := object.LA(readWord(mem, pa))

	var shapeObj *object.Object
	var tag object.Tag
	if shapeWord == object.LANil {
		tag = object.SHAPE
	} else {
		so, err := r.ReadAt(shapeWord, 1)
		if err != nil {
			return nil, err
		}
		ss, ok := so.Storage.(object.ShapeStorage)
		if !ok {
			return nil, oblerr.Newf(oblerr.WrongStorage, "object at LA %d declares a shape that is not a SHAPE", shapeWord)
		}
		shapeObj = so
		tag = ss.StorageFormat
	}

	storage, err := readers[tag](r, mem, pa, depth, shapeObj)
	if err != nil {
		return nil, err
	}
	return &object.Object{LA: la, PA: pa, Shape: shapeObj, Storage: storage}, nil
}

// WriteObject serializes o into mem at o.PA, including the leading shape
// word (spec §4.E "write_object"). o.LA and o.PA must already be assigned.
func WriteObject(o *object.Object, mem []byte) error {
	shapeLA := object.LANil
	if o.Shape != nil {
		shapeLA = o.Shape.LA
	}
	writeWord(mem, o.PA, uint32(shapeLA))
	return writers[o.Storage.Tag()](o, mem)
}

func readShape(r Resolver, mem []byte, pa object.PA, depth int, _ *object.Object) (object.Storage, error) {
	name, err := resolveRef(r, object.LA(readWord(mem, pa+1)), depth-1)
	if err != nil {
		return nil, err
	}
	slotNames, err := resolveRef(r, object.LA(readWord(mem, pa+2)), depth-1)
	if err != nil {
		return nil, err
	}
	currentShape, err := resolveRef(r, object.LA(readWord(mem, pa+3)), depth-1)
	if err != nil {
		return nil, err
	}
	format := object.Tag(readWord(mem, pa+4))
	return object.ShapeStorage{Name: name, SlotNames: slotNames, CurrentShape: currentShape, StorageFormat: format}, nil
}

func writeShape(o *object.Object, mem []byte) error {
	ss := o.Storage.(object.ShapeStorage)
	writeRefOrZero(mem, o.PA+1, ss.Name)
	writeRefOrZero(mem, o.PA+2, ss.SlotNames)
	writeRefOrZero(mem, o.PA+3, ss.CurrentShape)
	writeWord(mem, o.PA+4, uint32(ss.StorageFormat))
	return nil
}

func readSlotted(r Resolver, mem []byte, pa object.PA, depth int, shape *object.Object) (object.Storage, error) {
	n, err := object.SlotCount(shape)
	if err != nil {
		return nil, err
	}
	slots := make([]*object.Object, n)
	for i := 0; i < n; i++ {
		slots[i], err = resolveRef(r, object.LA(readWord(mem, pa+1+object.PA(i))), depth-1)
		if err != nil {
			return nil, err
		}
	}
	return object.SlottedStorage{Slots: slots}, nil
}

func writeSlotted(o *object.Object, mem []byte) error {
	sl := o.Storage.(object.SlottedStorage)
	for i, ref := range sl.Slots {
		writeRefOrZero(mem, o.PA+1+object.PA(i), ref)
	}
	return nil
}

func readFixed(r Resolver, mem []byte, pa object.PA, depth int, _ *object.Object) (object.Storage, error) {
	n := int(readWord(mem, pa+1))
	elements := make([]*object.Object, n)
	for i := 0; i < n; i++ {
		ref, err := resolveRef(r, object.LA(readWord(mem, pa+2+object.PA(i))), depth-1)
		if err != nil {
			return nil, err
		}
		elements[i] = ref
	}
	return object.FixedStorage{Elements: elements}, nil
}

func writeFixed(o *object.Object, mem []byte) error {
	fs := o.Storage.(object.FixedStorage)
	writeWord(mem, o.PA+1, uint32(len(fs.Elements)))
	for i, ref := range fs.Elements {
		writeRefOrZero(mem, o.PA+2+object.PA(i), ref)
	}
	return nil
}

// readAddrTreePage and writeAddrTreePage exist for completeness and direct
// inspection tools; the address map itself bypasses the codec entirely
// (internal/addrmap) to avoid a circular dependency during commit.
func readAddrTreePage(_ Resolver, mem []byte, pa object.PA, _ int, _ *object.Object) (object.Storage, error) {
	height := int(readWord(mem, pa+1))
	entries := make([]object.PA, addrmap.PageFanout)
	for i := 0; i < addrmap.PageFanout; i++ {
		entries[i] = object.PA(readWord(mem, pa+2+object.PA(i)))
	}
	return object.AddrTreePageStorage{Height: height, Entries: entries}, nil
}

func writeAddrTreePage(o *object.Object, mem []byte) error {
	ats := o.Storage.(object.AddrTreePageStorage)
	writeWord(mem, o.PA+1, uint32(ats.Height))
	for i, pa := range ats.Entries {
		writeWord(mem, o.PA+2+object.PA(i), uint32(pa))
	}
	return nil
}

func readInteger(_ Resolver, mem []byte, pa object.PA, _ int, _ *object.Object) (object.Storage, error) {
	off := int(pa+1) * 4
	return object.IntegerStorage{Value: platform.GetSignedWord(mem[off : off+4])}, nil
}

func writeInteger(o *object.Object, mem []byte) error {
	is := o.Storage.(object.IntegerStorage)
	off := int(o.PA+1) * 4
	platform.PutSignedWord(mem[off:off+4], is.Value)
	return nil
}

func readString(_ Resolver, mem []byte, pa object.PA, _ int, _ *object.Object) (object.Storage, error) {
	n := int(readWord(mem, pa+1))
	units := make([]uint16, n)
	base := pa + 2
	for i := 0; i < n; i++ {
		word := readWord(mem, base+object.PA(i/2))
		if i%2 == 0 {
			units[i] = uint16(word >> 16)
		} else {
			units[i] = uint16(word)
		}
	}
	return object.StringStorage{Units: units}, nil
}

func writeString(o *object.Object, mem []byte) error {
	ss := o.Storage.(object.StringStorage)
	writeWord(mem, o.PA+1, uint32(len(ss.Units)))
	base := o.PA + 2
	for i := 0; i < stringDataWords(len(ss.Units)); i++ {
		var hi, lo uint32
		if 2*i < len(ss.Units) {
			hi = uint32(ss.Units[2*i])
		}
		if 2*i+1 < len(ss.Units) {
			lo = uint32(ss.Units[2*i+1])
		}
		writeWord(mem, base+object.PA(i), hi<<16|lo)
	}
	return nil
}
