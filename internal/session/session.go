// Package session implements ObjectLite's session layer (spec §4.I): a
// lightweight handle on an open database that resolves logical addresses
// through the database's read set and owns at most one open transaction
// at a time. Adapted from the teacher's connection/session split in
// internal/engine, with the per-connection state collapsed into a single
// struct since ObjectLite has no network protocol of its own.
package session

import (
	"github.com/objectlite/objectlite/internal/allocator"
	"github.com/objectlite/objectlite/internal/database"
	"github.com/objectlite/objectlite/internal/oblerr"
	"github.com/objectlite/objectlite/internal/object"
	"github.com/objectlite/objectlite/internal/platform"
	"github.com/objectlite/objectlite/internal/txn"
)

// Session is a single client's handle onto a Database: at_address access
// plus, at most, one open transaction (spec §4.I, §4.J).
type Session struct {
	db *database.Database
	mu *platform.CountingMutex
	tx *txn.Transaction
}

// New wraps db in a fresh session with no open transaction.
func New(db *database.Database) *Session {
	return &Session{db: db, mu: platform.NewCountingMutex()}
}

// AtAddress resolves la using the database's default stub depth (spec
// §4.E "at_address").
func (s *Session) AtAddress(la object.LA) (*object.Object, error) {
	return s.AtAddressDepth(la, s.db.DefaultStubDepth())
}

// AtAddressDepth resolves la, fully loading depth levels of referenced
// objects before the rest are returned as stubs (spec §4.E
// "at_address_depth").
func (s *Session) AtAddressDepth(la object.LA, depth int) (*object.Object, error) {
	return s.db.MaterializeAt(s, la, depth)
}

// CurrentTransaction returns the session's open transaction, or nil.
func (s *Session) CurrentTransaction() *txn.Transaction {
	s.mu.Wait()
	defer s.mu.Post()
	return s.tx
}

// Begin opens a new transaction on this session. A session that already
// has one open reports ALREADY_IN_TRANSACTION (spec §4.I, §4.J): a second
// begin on the same session never silently replaces the first.
func (s *Session) Begin() (*txn.Transaction, error) {
	s.mu.Wait()
	defer s.mu.Post()
	if s.tx != nil && s.tx.State == txn.Open {
		return nil, oblerr.New(oblerr.AlreadyInTransaction)
	}
	s.tx = txn.Begin(s.db)
	return s.tx, nil
}

// ensure returns the session's open transaction, starting one implicitly
// if none is open. Object constructors use this so a caller may create
// objects without an explicit Begin, matching the convenience the spec's
// scenario walkthroughs assume (spec §8).
func (s *Session) ensure() (*txn.Transaction, error) {
	s.mu.Wait()
	defer s.mu.Post()
	if s.tx != nil && s.tx.State == txn.Open {
		return s.tx, nil
	}
	s.tx = txn.Begin(s.db)
	return s.tx, nil
}

// Commit commits the session's open transaction. Calling Commit with no
// open transaction is a no-op: there is no write set to flush.
func (s *Session) Commit() error {
	s.mu.Wait()
	tx := s.tx
	s.mu.Post()
	if tx == nil || tx.State != txn.Open {
		return nil
	}
	err := tx.Commit()
	s.mu.Wait()
	s.tx = nil
	s.mu.Post()
	return err
}

// Abort discards the session's open transaction, if any.
func (s *Session) Abort() {
	s.mu.Wait()
	defer s.mu.Post()
	if s.tx != nil {
		s.tx.Abort()
		s.tx = nil
	}
}

// Close aborts any open transaction and releases the session's mutex
// (spec §4.I: "session destruction aborts any open transaction").
func (s *Session) Close() {
	s.Abort()
	s.mu.Destroy()
}

// alloc wraps the database's allocator against the session's current
// transaction, so every object a constructor below creates is both
// assigned a logical address and registered in the write set atomically.
func (s *Session) alloc(tx *txn.Transaction) (*allocator.Allocator, error) {
	return s.db.WrapAllocator(tx)
}

// newObject allocates a logical address for a brand-new object of the
// given shape and storage, and marks it dirty against tx. The physical
// address stays unassigned until commit (spec §4.J).
func (s *Session) newObject(tx *txn.Transaction, shape *object.Object, storage object.Storage) (*object.Object, error) {
	alloc, err := s.alloc(tx)
	if err != nil {
		return nil, err
	}
	la, err := alloc.AllocateLogical()
	if err != nil {
		return nil, err
	}
	o := &object.Object{
		DB:      s.db,
		Session: s,
		LA:      la,
		PA:      object.UnassignedPA,
		Shape:   shape,
		Storage: storage,
	}
	tx.MarkDirty(o)
	return o, nil
}

// NewInteger creates a new INTEGER object holding value (spec §4.D, §6).
func (s *Session) NewInteger(value int32) (*object.Object, error) {
	tx, err := s.ensure()
	if err != nil {
		return nil, err
	}
	return s.newObject(tx, database.ShapeForTag(object.INTEGER), object.IntegerStorage{Value: value})
}

// NewString creates a new STRING object holding the UTF-16 encoding of v
// (spec §4.D, §6).
func (s *Session) NewString(v string) (*object.Object, error) {
	tx, err := s.ensure()
	if err != nil {
		return nil, err
	}
	units := platform.EncodeUTF16(v)
	return s.newObject(tx, database.ShapeForTag(object.STRING), object.StringStorage{Units: units})
}

// NewFixed creates a new FIXED object holding elements in order (spec
// §4.D, §4.E). elements may contain nil entries (spec §7 "nil element in
// a FIXED tuple").
func (s *Session) NewFixed(elements []*object.Object) (*object.Object, error) {
	tx, err := s.ensure()
	if err != nil {
		return nil, err
	}
	return s.newObject(tx, database.ShapeForTag(object.FIXED), object.FixedStorage{Elements: elements})
}

// NewSlotted creates a new SLOTTED object under shape, whose slot count
// must match len(slots) (spec §4.D, §7 "slot count mismatch").
func (s *Session) NewSlotted(shape *object.Object, slots []*object.Object) (*object.Object, error) {
	n, err := object.SlotCount(shape)
	if err != nil {
		return nil, err
	}
	if n != len(slots) {
		return nil, oblerr.Newf(oblerr.ArgumentSize, "shape declares %d slots, got %d", n, len(slots))
	}
	tx, err := s.ensure()
	if err != nil {
		return nil, err
	}
	return s.newObject(tx, shape, object.SlottedStorage{Slots: slots})
}

// True, False and Nil return the process-wide singletons (spec §4.H):
// they are never constructed per-session, only referenced.
func (s *Session) True() *object.Object  { return database.TrueObject() }
func (s *Session) False() *object.Object { return database.FalseObject() }
func (s *Session) Nil() *object.Object   { return database.NilObject() }
