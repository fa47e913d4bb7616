// Package platform holds ObjectLite's fixed-width integer conversions,
// memory mapping, and mutual exclusion primitives — the lowest layer of
// the persistence kernel, with no knowledge of objects, shapes, or
// addresses.
package platform

import "encoding/binary"

// Word is the unit of addressing and I/O: an unsigned 32-bit integer,
// stored big-endian on disk.
type Word = uint32

// ByteOrder is the wire byte order for every word ObjectLite persists.
var ByteOrder = binary.BigEndian

// PutWord writes an unsigned word at buf[0:4].
func PutWord(buf []byte, v Word) {
	ByteOrder.PutUint32(buf, v)
}

// GetWord reads an unsigned word from buf[0:4].
func GetWord(buf []byte) Word {
	return ByteOrder.Uint32(buf)
}

// PutSignedWord writes a signed 32-bit value as its big-endian bit pattern.
func PutSignedWord(buf []byte, v int32) {
	ByteOrder.PutUint32(buf, uint32(v))
}

// GetSignedWord reads a signed 32-bit value from its big-endian bit pattern.
func GetSignedWord(buf []byte) int32 {
	return int32(ByteOrder.Uint32(buf))
}
