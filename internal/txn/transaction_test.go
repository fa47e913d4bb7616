package txn

import (
	"log/slog"
	"testing"

	"github.com/objectlite/objectlite/internal/addrmap"
	"github.com/objectlite/objectlite/internal/allocator"
	"github.com/objectlite/objectlite/internal/diag"
	"github.com/objectlite/objectlite/internal/object"
)

// fakeHost satisfies Host without a real database, for the parts of the
// commit path that don't need a working allocator or address map.
type fakeHost struct {
	logger *slog.Logger
}

func (h *fakeHost) WrapAllocator(dirty allocator.Dirtier) (*allocator.Allocator, error) {
	return nil, nil
}
func (h *fakeHost) AddrMap() *addrmap.Map              { return nil }
func (h *fakeHost) Mem() []byte                        { return nil }
func (h *fakeHost) EnsureExtent(object.PA, int) error  { return nil }
func (h *fakeHost) SetActiveDirtier(allocator.Dirtier) {}
func (h *fakeHost) ClearActiveDirtier()                {}
func (h *fakeHost) MarkRootDirty()                     {}
func (h *fakeHost) Logger() *slog.Logger               { return h.logger }
func (h *fakeHost) Notify(diag.EventType, interface{}) {}

func newFakeHost() *fakeHost {
	return &fakeHost{logger: slog.New(slog.DiscardHandler)}
}

func TestBeginAssignsDistinctIDs(t *testing.T) {
	host := newFakeHost()
	a := Begin(host)
	b := Begin(host)
	if a.TxID == b.TxID {
		t.Fatal("two transactions received the same numeric ID")
	}
	if a.ID == b.ID {
		t.Fatal("two transactions received the same UUID")
	}
	if a.State != Open || b.State != Open {
		t.Fatal("a new transaction must start Open")
	}
}

func TestMarkDirtySkipsUnassignedLA(t *testing.T) {
	host := newFakeHost()
	tx := Begin(host)

	unassigned := &object.Object{LA: object.UnassignedLA, Storage: object.IntegerStorage{Value: 1}}
	tx.MarkDirty(unassigned)

	assigned := &object.Object{LA: object.LA(5), Storage: object.IntegerStorage{Value: 2}}
	tx.MarkDirty(assigned)

	count := 0
	it := tx.writeSet.InorderIter()
	for {
		_, ok := it.Next()
		if !ok {
			break
		}
		count++
	}
	if count != 1 {
		t.Fatalf("write set has %d entries, want 1 (only the assigned-LA object)", count)
	}
}

func TestMarkDirtyAfterTerminalStateIsNoop(t *testing.T) {
	host := newFakeHost()
	tx := Begin(host)
	tx.Abort()

	o := &object.Object{LA: object.LA(7), Storage: object.IntegerStorage{Value: 1}}
	tx.MarkDirty(o)

	if tx.writeSet != nil {
		t.Fatal("an aborted transaction's write set must stay nil")
	}
}

func TestAbortIsIdempotentAfterTerminal(t *testing.T) {
	host := newFakeHost()
	tx := Begin(host)
	tx.Abort()
	if tx.State != Aborted {
		t.Fatalf("state = %v, want Aborted", tx.State)
	}
	tx.Abort()
	if tx.State != Aborted {
		t.Fatal("re-aborting a terminal transaction must not change its state")
	}
}

func TestCommitOnTerminalTransactionFails(t *testing.T) {
	host := newFakeHost()
	tx := Begin(host)
	tx.Abort()
	if err := tx.Commit(); err == nil {
		t.Fatal("committing an already-aborted transaction should fail")
	}
}

func TestStateStringer(t *testing.T) {
	cases := map[State]string{Open: "open", Committed: "committed", Aborted: "aborted"}
	for s, want := range cases {
		if got := s.String(); got != want {
			t.Fatalf("State(%d).String() = %q, want %q", s, got, want)
		}
	}
}
