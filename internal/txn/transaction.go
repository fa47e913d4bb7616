// Package txn implements ObjectLite's transactions: a per-session write set
// and the commit/abort protocol that serializes it to disk (spec §4.J),
// adapted from the teacher's domain/transaction.Transaction (an atomically
// incremented numeric ID paired with a UUID, an active flag, and a start
// time) with the flat Changes log replaced by the ordered write set spec
// §4.J actually specifies.
package txn

import (
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/objectlite/objectlite/internal/addrmap"
	"github.com/objectlite/objectlite/internal/allocator"
	"github.com/objectlite/objectlite/internal/codec"
	"github.com/objectlite/objectlite/internal/diag"
	"github.com/objectlite/objectlite/internal/oblerr"
	"github.com/objectlite/objectlite/internal/object"
	"github.com/objectlite/objectlite/internal/rbtree"
)

var txIDCounter uint64

// State is a transaction's position in the Open → {Committed, Aborted}
// state machine (spec §4.J). Both terminal states are final.
type State int

const (
	Open State = iota
	Committed
	Aborted
)

func (s State) String() string {
	switch s {
	case Open:
		return "open"
	case Committed:
		return "committed"
	case Aborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Host is the subset of *database.Database a transaction needs to commit:
// allocation, the address map, the mapped region, and file growth. A
// narrow interface here, rather than importing database directly, keeps
// database free to depend on txn for session wiring without a cycle.
type Host interface {
	WrapAllocator(dirty allocator.Dirtier) (*allocator.Allocator, error)
	AddrMap() *addrmap.Map
	Mem() []byte
	EnsureExtent(pa object.PA, words int) error
	SetActiveDirtier(dirty allocator.Dirtier)
	ClearActiveDirtier()
	MarkRootDirty()
	Logger() *slog.Logger
	Notify(eventType diag.EventType, data interface{})
}

// Transaction owns one session's write set: every object mutated or
// created since Begin, keyed by logical address.
type Transaction struct {
	ID        string
	TxID      uint64
	State     State
	StartTime time.Time

	host     Host
	writeSet *rbtree.Tree[*object.Object]
	logger   *slog.Logger
}

// Begin starts a new transaction against host.
func Begin(host Host) *Transaction {
	tx := &Transaction{
		ID:        uuid.New().String(),
		TxID:      atomic.AddUint64(&txIDCounter, 1),
		State:     Open,
		StartTime: time.Now(),
		host:      host,
		writeSet:  rbtree.New(func(o *object.Object) uint64 { return uint64(o.LA) }, nil, nil),
		logger:    host.Logger(),
	}
	tx.logger.Debug("transaction begin", "tx_id", tx.TxID, "uuid", tx.ID)
	return tx
}

// MarkDirty inserts o into the write set if the transaction is still open
// and o already carries a logical address (spec §4.J: object constructors
// allocate the LA up front, so only the physical address and bytes remain
// to be written at commit).
func (tx *Transaction) MarkDirty(o *object.Object) {
	if tx.State != Open || o.LA == object.UnassignedLA {
		return
	}
	tx.writeSet.Insert(o)
}

// Commit writes every object in the write set to disk in ascending
// logical-address order (spec §4.J, §8 "atomicity-of-order"), then
// transitions to Committed. A failure mid-commit leaves the transaction
// Aborted; whatever was already written stays on disk, matching spec §5's
// no-journal, single-writer design.
func (tx *Transaction) Commit() error {
	if tx.State != Open {
		return oblerr.Newf(oblerr.AlreadyInTransaction, "transaction %d is %s, not open", tx.TxID, tx.State)
	}

	alloc, err := tx.host.WrapAllocator(tx)
	if err != nil {
		tx.State = Aborted
		return err
	}

	tx.host.SetActiveDirtier(tx)
	defer tx.host.ClearActiveDirtier()

	it := tx.writeSet.InorderIter()
	count := 0
	for {
		o, ok := it.Next()
		if !ok {
			break
		}
		if err := tx.writeOne(o, alloc); err != nil {
			tx.State = Aborted
			tx.logger.Error("commit failed", "tx_id", tx.TxID, "la", o.LA, "error", err)
			return err
		}
		count++
	}

	// The allocator's own counters are almost always mutated after the
	// write-set cursor has already passed their LAs (1-3): re-serialize
	// them directly rather than relying on the in-order iterator to
	// revisit a position it has already left (spec §4.G).
	if err := alloc.Flush(tx.host.Mem()); err != nil {
		tx.State = Aborted
		tx.logger.Error("commit failed flushing allocator", "tx_id", tx.TxID, "error", err)
		return err
	}

	tx.host.MarkRootDirty()
	tx.State = Committed
	tx.writeSet = nil
	tx.logger.Debug("transaction committed", "tx_id", tx.TxID, "objects_written", count)
	tx.host.Notify(diag.EventCommit, count)
	return nil
}

// writeOne assigns a logical/physical address to a never-persisted object
// (spec §4.J "write of a new object"), or simply re-serializes an object
// that already has both, then writes its bytes through the codec.
func (tx *Transaction) writeOne(o *object.Object, alloc *allocator.Allocator) error {
	if o.PA == object.UnassignedPA {
		if o.LA == object.UnassignedLA {
			la, err := alloc.AllocateLogical()
			if err != nil {
				return err
			}
			o.LA = la
		}
		words, err := codec.WordSize(o)
		if err != nil {
			return err
		}
		pa, err := alloc.AllocatePhysical(words)
		if err != nil {
			return err
		}
		if err := tx.host.EnsureExtent(pa, words); err != nil {
			return err
		}
		o.PA = pa
		if err := tx.host.AddrMap().Assign(o.LA, o.PA); err != nil {
			return err
		}
	}
	return codec.WriteObject(o, tx.host.Mem())
}

// Abort discards the write set without writing anything (spec §4.J).
func (tx *Transaction) Abort() {
	if tx.State != Open {
		return
	}
	tx.State = Aborted
	tx.writeSet = nil
	tx.logger.Debug("transaction aborted", "tx_id", tx.TxID)
	tx.host.Notify(diag.EventAbort, tx.TxID)
}

// String implements fmt.Stringer for log correlation.
func (tx *Transaction) String() string {
	return fmt.Sprintf("txn{id=%d state=%s}", tx.TxID, tx.State)
}
