package object

// Fixed-space logical addresses, assigned from the top of the address
// range downward (spec §6). FixedSize (15) must match the number of
// constants below.
const (
	LANil LA = AddrMax - iota
	LATrue
	LAFalse
	LAIntegerShape
	LAFloatShape
	LADoubleShape
	LACharShape
	LAStringShape
	LAFixedShape
	LAChunkShape
	LAAddrTreePageShape
	LAAllocatorShape
	LANilShape
	LABooleanShape
	LAStubShape
)
