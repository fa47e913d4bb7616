package object

// Object is the in-memory record for every ObjectLite value: an owning
// database, an optional session, a logical and physical address, and a
// tagged storage payload (spec §3, §4.D).
//
// DB and Session are deliberately untyped here: object is a leaf package
// with no dependency on the database or session packages, which construct
// and own Objects directly. Callers that need the concrete owner type
// assert it back (e.g. db, _ := o.DB.(*database.Database)).
type Object struct {
	DB      interface{}
	Session interface{}

	LA LA
	PA PA

	Shape   *Object // nil only for shape-of-shape objects
	Storage Storage
}

// ShapeOf returns the shape pointer without resolving through stubs.
func ShapeOf(o *Object) *Object {
	return o.Shape
}

// StorageTag returns SHAPE when o has no shape (o is itself a shape
// object), otherwise the shape's declared storage_format.
func StorageTag(o *Object) Tag {
	if o.Shape == nil {
		return SHAPE
	}
	ss, ok := o.Shape.Storage.(ShapeStorage)
	if !ok {
		return SHAPE
	}
	return ss.StorageFormat
}

// IsStub reports whether o stands in for a not-yet-loaded object.
func IsStub(o *Object) bool {
	_, ok := o.Storage.(StubStorage)
	return ok
}

// Assigned reports whether the object has been given a logical address.
func (o *Object) Assigned() bool {
	return o.LA != UnassignedLA
}

// Persisted reports whether the object has both a logical and a physical
// address (fully written to disk).
func (o *Object) Persisted() bool {
	return o.LA != UnassignedLA && o.PA != UnassignedPA
}
