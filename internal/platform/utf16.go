package platform

import (
	"encoding/binary"
	"unicode/utf16"

	"golang.org/x/text/encoding/unicode"

	"github.com/objectlite/objectlite/internal/oblerr"
)

// utf16BE is the big-endian UTF-16 transcoding the STRING storage variant's
// wire format uses (two code units packed per word, big-endian, per spec
// §6). x/text's codec does the transcoding; DecodeUTF16 checks surrogate
// pairing itself before decoding, so a lone or truncated surrogate is
// reported as an error rather than replaced.
var utf16BE = unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)

// EncodeUTF16 converts a Go string into UTF-16 code units.
func EncodeUTF16(s string) []uint16 {
	raw, err := utf16BE.NewEncoder().String(s)
	if err != nil {
		// Every well-formed Go string (valid UTF-8) encodes to UTF-16
		// cleanly; this path only guards a caller that bypassed that
		// guarantee with an invalid string literal built from raw bytes.
		return utf16.Encode([]rune(s))
	}
	units := make([]uint16, len(raw)/2)
	for i := range units {
		units[i] = binary.BigEndian.Uint16(raw[i*2:])
	}
	return units
}

// DecodeUTF16 converts UTF-16 code units back into a Go string, reporting
// CONVERSION_ERROR both for a nil slice and for a code unit sequence that
// is not well-formed UTF-16 (an unpaired surrogate).
func DecodeUTF16(units []uint16) (string, error) {
	if units == nil {
		return "", oblerr.New(oblerr.ConversionError)
	}
	for i := 0; i < len(units); i++ {
		if !utf16.IsSurrogate(rune(units[i])) {
			continue
		}
		if i+1 < len(units) && utf16.DecodeRune(rune(units[i]), rune(units[i+1])) != 0xFFFD {
			i++
			continue
		}
		return "", oblerr.Newf(oblerr.ConversionError, "unpaired utf-16 surrogate at unit %d", i)
	}
	raw := make([]byte, len(units)*2)
	for i, u := range units {
		binary.BigEndian.PutUint16(raw[i*2:], u)
	}
	s, err := utf16BE.NewDecoder().Bytes(raw)
	if err != nil {
		return "", oblerr.Newf(oblerr.ConversionError, "malformed utf-16 sequence: %v", err)
	}
	return string(s), nil
}
