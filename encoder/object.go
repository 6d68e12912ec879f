package encoder

import (
	"encoding/binary"
	"fmt"
)

// HeaderSize is the width, in bytes, of an object file's bit-length header.
const HeaderSize = 8

// EncodeObject prepends the big-endian u64 bit-length header spec.md's
// object file layout requires ahead of packed binary bytes. bitLength is
// the number of significant bits in packed (everything BinaryPacker.Push
// accumulated before Finish's zero-padding) — a reader needs it to tell a
// real trailing zero bit from Finish's padding.
func EncodeObject(bitLength uint64, packed []byte) []byte {
	out := make([]byte, HeaderSize+len(packed))
	binary.BigEndian.PutUint64(out[:HeaderSize], bitLength)
	copy(out[HeaderSize:], packed)
	return out
}

// DecodeObject splits an object file back into its declared bit length and
// packed payload.
func DecodeObject(data []byte) (bitLength uint64, packed []byte, err error) {
	if len(data) < HeaderSize {
		return 0, nil, fmt.Errorf("encoder: object file too short for header: %d bytes", len(data))
	}
	bitLength = binary.BigEndian.Uint64(data[:HeaderSize])
	return bitLength, data[HeaderSize:], nil
}
