// Package database implements ObjectLite's file lifecycle: open/create,
// bootstrap of a fresh file, growth, the root record, and the internal
// at_address materializer every session and codec read ultimately calls
// through (spec §4.H).
package database

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/objectlite/objectlite/internal/addrmap"
	"github.com/objectlite/objectlite/internal/allocator"
	"github.com/objectlite/objectlite/internal/codec"
	"github.com/objectlite/objectlite/internal/diag"
	"github.com/objectlite/objectlite/internal/lru"
	"github.com/objectlite/objectlite/internal/oblerr"
	"github.com/objectlite/objectlite/internal/oblog"
	"github.com/objectlite/objectlite/internal/object"
	"github.com/objectlite/objectlite/internal/platform"
	"github.com/objectlite/objectlite/internal/rbtree"
)

const magic = 0x6F626C00

// root record word offsets, PAs 1..4 (spec §6).
const (
	rootWordAddrMap   object.PA = 1
	rootWordAllocator object.PA = 2
	rootWordNameMap   object.PA = 3
	rootWordShapeMap  object.PA = 4
	firstFreePA       object.PA = 5
)

// Database is one open ObjectLite file.
type Database struct {
	opts     Options
	file     *os.File
	mapping  *platform.Mapping
	extent   int // words currently mapped
	logger   *slog.Logger
	logClose func()

	lastErr *oblerr.Error

	readSet *rbtree.Tree[*object.Object]
	cache   *lru.Cache[object.PA] // LA -> PA fast path in front of addrMap.Lookup (spec §4.C)
	mu      *platform.CountingMutex

	addrMap *addrmap.Map

	rootAddrMapPA   object.PA
	rootAllocatorLA object.LA
	rootNameMapLA   object.LA
	rootShapeMapLA  object.LA
	rootDirty       bool

	allocatorObj  *object.Object
	activeDirtier allocator.Dirtier

	diag *diag.Bus
}

// Notify publishes a lifecycle event to every observer registered through
// Options.Observers. Used directly by database and, through the Host
// interface, by the transaction layer for commit/abort events.
func (db *Database) Notify(eventType diag.EventType, data interface{}) {
	if db.diag == nil {
		return
	}
	db.diag.Notify(diag.Event{Type: eventType, Filename: db.opts.Filename, Timestamp: time.Now(), Data: data})
}

// SetActiveDirtier installs dirty as the target for any allocator mutation
// triggered by the address map while a transaction commit is in progress
// (new tree pages consume physical addresses too). ClearActiveDirtier
// restores the bootstrap-time no-op once commit finishes.
func (db *Database) SetActiveDirtier(dirty allocator.Dirtier) { db.activeDirtier = dirty }

// ClearActiveDirtier releases the active dirtier installed by
// SetActiveDirtier.
func (db *Database) ClearActiveDirtier() { db.activeDirtier = nil }

// Create opens path, creating it if it does not exist, equivalent to
// Open with AllowCreation forced true.
func Create(opts Options) (*Database, error) {
	opts.AllowCreation = true
	return Open(opts)
}

// Open opens or, if AllowCreation is set and the file is new, creates and
// bootstraps the database named by opts.Filename (spec §4.H).
func Open(opts Options) (*Database, error) {
	Startup()
	opts = opts.withDefaults()

	logger, logClose, err := oblog.New(opts.LogLevel, opts.LogFile)
	if err != nil {
		return nil, oblerr.Newf(oblerr.UnableToOpenFile, "opening log file: %v", err)
	}

	flags := os.O_RDWR
	if opts.AllowCreation {
		flags |= os.O_CREATE
	}
	f, err := os.OpenFile(opts.Filename, flags, 0o644)
	if err != nil {
		logClose()
		return nil, oblerr.Newf(oblerr.UnableToOpenFile, "%v", err)
	}

	st, err := f.Stat()
	if err != nil {
		f.Close()
		logClose()
		return nil, oblerr.Newf(oblerr.UnableToOpenFile, "%v", err)
	}

	db := &Database{
		opts:     opts,
		file:     f,
		logger:   logger,
		logClose: logClose,
		mu:       platform.NewCountingMutex(),
		readSet:  rbtree.New(readSetKey, nil, readSetSame),
		cache:    lru.New[object.PA](DefaultCacheBuckets, DefaultCacheMaxSize),
		diag:     diag.NewBus(),
	}
	for _, obs := range opts.Observers {
		db.diag.Subscribe(obs)
	}
	db.addrMap = addrmap.New(
		func() object.PA { return db.rootAddrMapPA },
		func(pa object.PA) { db.rootAddrMapPA = pa; db.rootDirty = true },
		db.mem,
		db.ensureExtent,
		bootstrapAllocatorAdapter{db},
		object.LAAddrTreePageShape,
	)
	db.Notify(diag.EventOpenStart, nil)

	growthBytes := int64(opts.GrowthSize) * 4
	if st.Size() < growthBytes {
		db.Notify(diag.EventBootstrapStart, nil)
		if err := db.mapExtent(opts.GrowthSize); err != nil {
			f.Close()
			logClose()
			return nil, err
		}
		db.bootstrap()
		db.logger.Info("database bootstrapped", "file", opts.Filename, "words", db.extent)
		db.Notify(diag.EventBootstrapEnd, db.extent)
	} else {
		words := int(st.Size() / 4)
		if err := db.mapExtent(words); err != nil {
			f.Close()
			logClose()
			return nil, err
		}
		db.readRootRecord()
		if err := db.loadAllocator(); err != nil {
			db.Close()
			return nil, err
		}
		db.logger.Info("database opened", "file", opts.Filename, "words", db.extent)
	}
	db.Notify(diag.EventOpenEnd, db.extent)

	db.addrMap = addrmap.New(
		func() object.PA { return db.rootAddrMapPA },
		func(pa object.PA) { db.rootAddrMapPA = pa; db.rootDirty = true },
		db.mem,
		db.ensureExtent,
		bootstrapAllocatorAdapter{db},
		object.LAAddrTreePageShape,
	)

	return db, nil
}

func readSetKey(o *object.Object) uint64 { return uint64(o.LA) }

// readSetSame reports whether two read-set entries for the same LA are the
// identical object instance. Pointer identity, not value equality, is the
// right notion here: a stub and the real materialized object it stands in
// for are never the same pointer, so inserting the latter always replaces
// the former in place (spec §4.B "same key, different object → released
// and replaced"; §9's read-set-is-authoritative role depends on this —
// without it, a stub synthesized on one lookup stays cached forever and
// every later lookup re-reads the disk into a fresh, disconnected object).
func readSetSame(a, b *object.Object) bool { return a == b }

func (db *Database) mem() []byte { return db.mapping.Bytes() }

func (db *Database) readWord(pa object.PA) uint32 {
	off := int(pa) * 4
	return platform.GetWord(db.mem()[off : off+4])
}

func (db *Database) writeWord(pa object.PA, v uint32) {
	off := int(pa) * 4
	platform.PutWord(db.mem()[off:off+4], v)
}

func (db *Database) readRootRecord() {
	db.rootAddrMapPA = object.PA(db.readWord(rootWordAddrMap))
	db.rootAllocatorLA = object.LA(db.readWord(rootWordAllocator))
	db.rootNameMapLA = object.LA(db.readWord(rootWordNameMap))
	db.rootShapeMapLA = object.LA(db.readWord(rootWordShapeMap))
}

func (db *Database) writeRootRecord() {
	db.writeWord(0, magic)
	db.writeWord(rootWordAddrMap, uint32(db.rootAddrMapPA))
	db.writeWord(rootWordAllocator, uint32(db.rootAllocatorLA))
	db.writeWord(rootWordNameMap, uint32(db.rootNameMapLA))
	db.writeWord(rootWordShapeMap, uint32(db.rootShapeMapLA))
	db.rootDirty = false
}

// mapExtent (re)maps the file to cover at least words 32-bit words,
// growing the underlying file first if it is smaller.
func (db *Database) mapExtent(words int) error {
	if db.mapping != nil {
		if err := db.mapping.Unmap(); err != nil {
			return oblerr.Newf(oblerr.UnableToOpenFile, "%v", err)
		}
	}
	size := int64(words) * 4
	st, err := db.file.Stat()
	if err != nil {
		return oblerr.Newf(oblerr.UnableToOpenFile, "%v", err)
	}
	if st.Size() < size {
		if err := db.file.Truncate(size); err != nil {
			return oblerr.Newf(oblerr.UnableToOpenFile, "%v", err)
		}
	}
	m, err := platform.Map(db.file, int(size))
	if err != nil {
		return oblerr.Newf(oblerr.UnableToOpenFile, "%v", err)
	}
	db.mapping = m
	db.extent = words
	return nil
}

// ensureExtent grows the file, in GrowthSize increments, until pa+words
// lies within the mapped extent (spec §4.F/§4.H: allocations that run past
// the current extent trigger growth, with no lock held across it).
func (db *Database) ensureExtent(pa object.PA, words int) error {
	needed := int(pa) + words
	if needed <= db.extent {
		return nil
	}
	target := db.extent
	for target < needed {
		target += db.opts.GrowthSize
	}
	db.logger.Debug("growing database file", "from_words", db.extent, "to_words", target)
	db.Notify(diag.EventExtentGrow, target)
	return db.mapExtent(target)
}

// bootstrapAllocatorAdapter lets the address map reuse the Allocator
// interface during normal operation; at bootstrap time the address map
// never needs it (the leaf root already covers the three small LAs
// assigned), so it is only ever invoked once the real allocator exists.
type bootstrapAllocatorAdapter struct{ db *Database }

func (a bootstrapAllocatorAdapter) AllocatePhysical(words int) (object.PA, error) {
	if a.db.allocatorObj == nil {
		return 0, oblerr.New(oblerr.MissingSystemObject)
	}
	dirty := a.db.activeDirtier
	if dirty == nil {
		dirty = nopDirtier{}
	}
	alloc, err := a.db.WrapAllocator(dirty)
	if err != nil {
		return 0, err
	}
	pa, err := alloc.AllocatePhysical(words)
	if err != nil {
		return 0, err
	}
	if err := a.db.ensureExtent(pa, words); err != nil {
		return 0, err
	}
	return pa, nil
}

type nopDirtier struct{}

func (nopDirtier) MarkDirty(*object.Object) {}

func (db *Database) loadAllocator() error {
	obj, err := db.MaterializeAt(nil, db.rootAllocatorLA, 2)
	if err != nil {
		return err
	}
	db.allocatorObj = obj
	return nil
}

// LastError returns the last {code, message} set by a failing call on this
// database, or nil if none is pending (spec §7).
func (db *Database) LastError() *oblerr.Error { return db.lastErr }

// ClearError clears the last-error slot.
func (db *Database) ClearError() { db.lastErr = nil }

func (db *Database) setError(err error) error {
	if e, ok := err.(*oblerr.Error); ok {
		db.lastErr = e
		db.logger.Error("operation failed", "code", e.Code, "message", e.Message)
	}
	return err
}

// Close unmaps the file and releases the read set (spec §4.H).
func (db *Database) Close() error {
	db.Notify(diag.EventCloseStart, nil)
	defer db.Notify(diag.EventCloseEnd, nil)
	if db.rootDirty {
		db.writeRootRecord()
	}
	var err error
	if db.mapping != nil {
		err = db.mapping.Unmap()
	}
	if db.file != nil {
		if cerr := db.file.Close(); err == nil {
			err = cerr
		}
	}
	db.readSet = rbtree.New(readSetKey, nil, readSetSame)
	db.mu.Destroy()
	if db.logClose != nil {
		db.logClose()
	}
	return err
}

// Logger returns the database's configured logger, for components (session,
// transaction) constructed from it.
func (db *Database) Logger() *slog.Logger { return db.logger }

// AllocatorObject returns the persisted allocator record, loaded once at
// open/bootstrap time and mutated in place by every allocation.
func (db *Database) AllocatorObject() *object.Object { return db.allocatorObj }

// WrapAllocator binds the database's allocator record to dirty — normally
// the current transaction, so allocations become part of its write set.
func (db *Database) WrapAllocator(dirty allocator.Dirtier) (*allocator.Allocator, error) {
	av, err := allocator.Wrap(db.allocatorObj, object.LAAllocatorShape, dirty)
	if err != nil {
		return nil, db.setError(err)
	}
	return av, nil
}

// AddrMap exposes the address map for the session/transaction layer.
func (db *Database) AddrMap() *addrmap.Map { return db.addrMap }

// Mem exposes the mapped region for direct codec reads/writes during
// commit.
func (db *Database) Mem() []byte { return db.mem() }

// EnsureExtent exposes file-growth to the transaction layer's write path.
func (db *Database) EnsureExtent(pa object.PA, words int) error { return db.ensureExtent(pa, words) }

// MarkRootDirty flags the root record for rewriting on next Close/Sync,
// used when a write touches the address-map root PA.
func (db *Database) MarkRootDirty() { db.rootDirty = true }

// Sync flushes a dirty root record to the mapped region immediately.
func (db *Database) Sync() {
	if db.rootDirty {
		db.writeRootRecord()
	}
}

// DefaultStubDepth returns the configured default depth new top-level reads
// should use.
func (db *Database) DefaultStubDepth() int { return db.opts.DefaultStubDepth }

// dbResolver adapts Database.MaterializeAt to the codec.Resolver interface
// for one particular owning session.
type dbResolver struct {
	db    *Database
	owner interface{}
}

func (r dbResolver) ReadAt(la object.LA, depth int) (*object.Object, error) {
	return r.db.MaterializeAt(r.owner, la, depth)
}

// MaterializeAt implements at_address/at_address_depth (spec §4.H, §4.E
// step 4): fixed space short-circuits; otherwise the read set is consulted
// under the database mutex, then the LRU cache (§4.C) is tried as a faster
// path to the PA than descending the address map, falling back to
// db.addrMap.Lookup and populating the cache on a miss; then the codec,
// per the acquire → lookup → release → (miss path) → acquire → insert →
// release pattern spec §5 requires. LA→PA bindings are write-once (spec
// §4.F: an address, once assigned, is never reassigned), so the cache
// needs no invalidation path.
func (db *Database) MaterializeAt(owner interface{}, la object.LA, depth int) (*object.Object, error) {
	if object.InFixedSpace(la) {
		if o := fixedSpaceObject(la); o != nil {
			return o, nil
		}
		return nil, db.setError(oblerr.New(oblerr.InvalidAddress))
	}

	db.mu.Wait()
	cur, found := db.readSet.Lookup(uint64(la))
	db.mu.Post()
	if found && !object.IsStub(cur) {
		return cur, nil
	}

	pa, ok := db.cache.Get(uint32(la))
	if !ok {
		var err error
		pa, err = db.addrMap.Lookup(la)
		if err != nil {
			return nil, db.setError(err)
		}
		if pa == object.UnassignedPA {
			return nil, db.setError(oblerr.Newf(oblerr.InvalidAddress, "logical address %d is not assigned", la))
		}
		db.cache.Insert(uint32(la), pa)
	}

	if depth <= 0 {
		stub := &object.Object{LA: la, Shape: stubShapeObject(), Storage: object.StubStorage{LA: la}, DB: db, Session: owner}
		db.mu.Wait()
		db.readSet.Insert(stub)
		db.mu.Post()
		return stub, nil
	}

	resolver := dbResolver{db: db, owner: owner}
	obj, err := codec.ReadObject(resolver, db.mem(), la, pa, depth)
	if err != nil {
		return nil, db.setError(err)
	}
	obj.DB = db
	obj.Session = owner

	db.mu.Wait()
	db.readSet.Insert(obj)
	db.mu.Post()
	return obj, nil
}

// bootstrap lays out PA 0 (magic), the root record, the allocator record
// and its two integer slots, and a single leaf address-map page — in that
// order, with logical addresses assigned by hand since the allocator does
// not exist yet to assign its own (spec §4.H).
func (db *Database) bootstrap() {
	const (
		allocatorPA     object.PA = firstFreePA       // SLOTTED, 3 words
		nextPhysicalPA  object.PA = allocatorPA + 3    // INTEGER, 2 words
		nextLogicalPA   object.PA = nextPhysicalPA + 2 // INTEGER, 2 words
		addrLeafPA      object.PA = nextLogicalPA + 2  // ADDRTREEPAGE, 2+fanout words
	)
	addrLeafEnd := addrLeafPA + object.PA(addrmap.PageWords)

	addrmap.BootstrapLeaf(db.mem(), addrLeafPA, object.LAAddrTreePageShape)

	allocatorShape := fixedSpaceObject(object.LAAllocatorShape)
	nextLogicalSlot := &object.Object{LA: 3, PA: nextLogicalPA, Shape: shapeObjectForTag(object.INTEGER), Storage: object.IntegerStorage{Value: 4}}
	nextPhysicalSlot := &object.Object{LA: 2, PA: nextPhysicalPA, Shape: shapeObjectForTag(object.INTEGER), Storage: object.IntegerStorage{Value: int32(uint32(addrLeafEnd))}}
	allocatorObj := &object.Object{LA: 1, PA: allocatorPA, Shape: allocatorShape, Storage: object.SlottedStorage{Slots: []*object.Object{nextLogicalSlot, nextPhysicalSlot}}}

	mem := db.mem()
	_ = codec.WriteObject(nextLogicalSlot, mem)
	_ = codec.WriteObject(nextPhysicalSlot, mem)
	_ = codec.WriteObject(allocatorObj, mem)

	db.rootAddrMapPA = addrLeafPA
	tmpMap := addrmap.New(
		func() object.PA { return db.rootAddrMapPA },
		func(pa object.PA) { db.rootAddrMapPA = pa },
		db.mem,
		db.ensureExtent,
		bootstrapNoAllocator{},
		object.LAAddrTreePageShape,
	)
	_ = tmpMap.Assign(1, allocatorPA)
	_ = tmpMap.Assign(2, nextPhysicalPA)
	_ = tmpMap.Assign(3, nextLogicalPA)

	db.rootAllocatorLA = 1
	db.rootNameMapLA = object.UnassignedLA
	db.rootShapeMapLA = object.UnassignedLA
	db.writeRootRecord()

	db.allocatorObj = allocatorObj
}

// bootstrapNoAllocator backs the address map during bootstrap, when the
// three assigned LAs are small enough that no new page is ever allocated.
type bootstrapNoAllocator struct{}

func (bootstrapNoAllocator) AllocatePhysical(int) (object.PA, error) {
	return 0, fmt.Errorf("address map tried to allocate during bootstrap")
}
