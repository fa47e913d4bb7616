// Package addrmap implements the logical-to-physical address map: a radix
// tree of fixed-fanout pages stored inside the database file (spec §4.F).
//
// The map reads and writes words directly into the mapped region rather
// than going through the codec package, deliberately inverting the normal
// dependency (codec depends on nothing that depends on it back) to avoid
// a circular dependency, since Assign runs during commit — the codec's
// own client (spec §4.F, §9).
package addrmap

import (
	"github.com/objectlite/objectlite/internal/object"
	"github.com/objectlite/objectlite/internal/oblerr"
	"github.com/objectlite/objectlite/internal/platform"
)

// PageShift and PageFanout are the build-time constants controlling the
// radix tree's branching factor (spec §6).
const (
	PageShift  = 8
	PageFanout = 1 << PageShift

	// PageWords is shape_la + height + one entry per fanout slot.
	PageWords = 2 + PageFanout
	PageBytes = PageWords * 4
)

// Allocator is the subset of the allocator component the map needs to
// create new pages.
type Allocator interface {
	AllocatePhysical(words int) (object.PA, error)
}

// Map is the address map. It is constructed with small accessor closures
// instead of a direct *database.Database pointer so this package stays a
// leaf with no dependency on database/session, avoiding an import cycle.
type Map struct {
	getRootPA    func() object.PA
	setRootPA    func(object.PA)
	mem          func() []byte
	ensureExtent func(pa object.PA, words int) error
	alloc        Allocator
	pageShapeLA  object.LA
}

// New constructs an address map bound to the given database accessors.
func New(
	getRootPA func() object.PA,
	setRootPA func(object.PA),
	mem func() []byte,
	ensureExtent func(pa object.PA, words int) error,
	alloc Allocator,
	pageShapeLA object.LA,
) *Map {
	return &Map{
		getRootPA:    getRootPA,
		setRootPA:    setRootPA,
		mem:          mem,
		ensureExtent: ensureExtent,
		alloc:        alloc,
		pageShapeLA:  pageShapeLA,
	}
}

func indexAt(la object.LA, height int) uint32 {
	return (uint32(la) >> (PageShift * uint(height))) & (PageFanout - 1)
}

// requiredHeight returns the smallest height h such that a page at that
// height can address la directly (spec §4.F, invariant 6).
func requiredHeight(la object.LA) int {
	h := 0
	v := uint32(la)
	for h < 3 && v>>(PageShift*uint(h+1)) != 0 {
		h++
	}
	return h
}

func readWord(mem []byte, pa object.PA) uint32 {
	off := int(pa) * 4
	return platform.GetWord(mem[off : off+4])
}

func writeWord(mem []byte, pa object.PA, v uint32) {
	off := int(pa) * 4
	platform.PutWord(mem[off:off+4], v)
}

func entryAddr(pagePA object.PA, idx uint32) object.PA {
	return pagePA + 2 + object.PA(idx)
}

func (m *Map) rootShapeAndHeight() (object.PA, int, error) {
	rootPA := m.getRootPA()
	if rootPA == object.UnassignedPA {
		return 0, 0, oblerr.New(oblerr.InvalidAddress)
	}
	mem := m.mem()
	shapeWord := object.LA(readWord(mem, rootPA))
	if shapeWord != m.pageShapeLA {
		return 0, 0, oblerr.Newf(oblerr.WrongStorage, "address map is corrupted")
	}
	height := int(readWord(mem, rootPA+1))
	return rootPA, height, nil
}

// Lookup resolves la to its physical address, or returns UnassignedPA if
// la has never been assigned.
func (m *Map) Lookup(la object.LA) (object.PA, error) {
	rootPA, height, err := m.rootShapeAndHeight()
	if err != nil {
		return object.UnassignedPA, err
	}
	if requiredHeight(la) > height {
		return object.UnassignedPA, nil
	}
	return m.descendLookup(rootPA, height, la)
}

func (m *Map) descendLookup(pagePA object.PA, height int, la object.LA) (object.PA, error) {
	mem := m.mem()
	idx := indexAt(la, height)
	entry := readWord(mem, entryAddr(pagePA, idx))
	if entry == 0 {
		return object.UnassignedPA, nil
	}
	if height == 0 {
		return object.PA(entry), nil
	}
	return m.descendLookup(object.PA(entry), height-1, la)
}

// allocatePage allocates and initializes a new page at the given height:
// shape word, height word, and zeroed entries (the latter are already zero
// because file growth zero-fills new extent).
func (m *Map) allocatePage(height int) (object.PA, error) {
	pa, err := m.alloc.AllocatePhysical(PageWords)
	if err != nil {
		return 0, err
	}
	if err := m.ensureExtent(pa, PageWords); err != nil {
		return 0, err
	}
	mem := m.mem()
	writeWord(mem, pa, uint32(m.pageShapeLA))
	writeWord(mem, pa+1, uint32(height))
	return pa, nil
}

// Assign writes pa at the leaf position for la, growing the tree's height
// and creating intermediate pages on demand (spec §4.F).
func (m *Map) Assign(la object.LA, pa object.PA) error {
	rootPA, height, err := m.rootShapeAndHeight()
	if err != nil {
		return err
	}

	reqHeight := requiredHeight(la)
	for height < reqHeight {
		newPA, err := m.allocatePage(height + 1)
		if err != nil {
			return err
		}
		mem := m.mem()
		writeWord(mem, entryAddr(newPA, 0), uint32(rootPA))
		rootPA = newPA
		height++
		m.setRootPA(rootPA)
	}

	curPA := rootPA
	for h := height; h > 0; h-- {
		mem := m.mem()
		idx := indexAt(la, h)
		entry := readWord(mem, entryAddr(curPA, idx))
		if entry == 0 {
			childPA, err := m.allocatePage(h - 1)
			if err != nil {
				return err
			}
			mem = m.mem()
			writeWord(mem, entryAddr(curPA, idx), uint32(childPA))
			entry = uint32(childPA)
		}
		curPA = object.PA(entry)
	}

	mem := m.mem()
	idx := indexAt(la, 0)
	writeWord(mem, entryAddr(curPA, idx), uint32(pa))
	return nil
}

// BootstrapLeaf writes a fresh height-0 leaf page at pa, used once during
// database bootstrap to create the address map's initial root.
func BootstrapLeaf(mem []byte, pa object.PA, pageShapeLA object.LA) {
	writeWord(mem, pa, uint32(pageShapeLA))
	writeWord(mem, pa+1, 0)
}
