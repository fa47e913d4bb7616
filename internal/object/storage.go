package object

// Storage is the tagged payload an Object carries. Each concrete type below
// implements storageVariant as a marker, the same polymorphic-node idiom
// used elsewhere in this codebase for small closed type hierarchies.
type Storage interface {
	Tag() Tag
	storageVariant()
}

// ShapeStorage is the SHAPE variant: metadata describing another object's
// storage layout, and for SLOTTED objects, its ordered slot names.
type ShapeStorage struct {
	Name          *Object // STRING object
	SlotNames     *Object // FIXED object of STRING objects
	CurrentShape  *Object // SHAPE object or nil
	StorageFormat Tag
}

func (ShapeStorage) Tag() Tag { return SHAPE }
func (ShapeStorage) storageVariant() {}

// SlottedStorage is an array of object references whose length is fixed
// by the owning shape's slot_names length.
type SlottedStorage struct {
	Slots []*Object
}

func (SlottedStorage) Tag() Tag { return SLOTTED }
func (SlottedStorage) storageVariant() {}

// FixedStorage is an array of object references of known, immutable
// length, written with an explicit length word (spec §4.E).
type FixedStorage struct {
	Elements []*Object
}

func (FixedStorage) Tag() Tag { return FIXED }
func (FixedStorage) storageVariant() {}

// AddrTreePageStorage is one node of the address map: a branch (entries
// are child PAs) or a leaf (entries are target PAs), depending on Height.
type AddrTreePageStorage struct {
	Height  int
	Entries []PA // length PAGE_FANOUT
}

func (AddrTreePageStorage) Tag() Tag { return ADDRTREEPAGE }
func (AddrTreePageStorage) storageVariant() {}

// IntegerStorage holds a signed 32-bit value.
type IntegerStorage struct {
	Value int32
}

func (IntegerStorage) Tag() Tag { return INTEGER }
func (IntegerStorage) storageVariant() {}

// BooleanStorage holds an unsigned 32-bit value that is always 0 or 1.
type BooleanStorage struct {
	Value uint32
}

func (BooleanStorage) Tag() Tag { return BOOLEAN }
func (BooleanStorage) storageVariant() {}

// NilStorage carries no payload.
type NilStorage struct{}

func (NilStorage) Tag() Tag { return NIL }
func (NilStorage) storageVariant() {}

// StubStorage is a placeholder standing in for a not-yet-loaded object.
// Accessors do not resolve stubs: a depth-0 read returns the stub itself,
// and references past the load depth are stubs inside their parent's
// storage. Loading the same logical address later at a positive depth
// replaces the stub in the database's read set, not in the parents that
// hold it.
type StubStorage struct {
	LA LA
}

func (StubStorage) Tag() Tag { return STUB }
func (StubStorage) storageVariant() {}

// StringStorage holds a length-prefixed array of UTF-16 code units.
type StringStorage struct {
	Units []uint16
}

func (StringStorage) Tag() Tag { return STRING }
func (StringStorage) storageVariant() {}
