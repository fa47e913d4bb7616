package object

// LA is a logical address: a stable 32-bit identifier of an object that
// survives relocation inside the file.
type LA uint32

// PA is a physical address: a 32-bit word offset inside the database file.
type PA uint32

// UnassignedLA and UnassignedPA denote "no address yet" (spec §3).
const (
	UnassignedLA LA = 0
	UnassignedPA PA = 0
)

// FixedSize is the number of fixed-space singleton slots (spec §6).
const FixedSize = 15

// AddrMax is the largest representable logical address.
const AddrMax LA = 0xFFFFFFFF

// FixedSpaceBase is the first LA of the reserved fixed-space range
// [FixedSpaceBase, AddrMax].
const FixedSpaceBase = AddrMax - FixedSize + 1

// InFixedSpace reports whether la falls in the reserved high range.
func InFixedSpace(la LA) bool {
	return la >= FixedSpaceBase && la != UnassignedLA
}
