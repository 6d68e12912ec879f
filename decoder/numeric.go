package decoder

import "github.com/Urethramancer/minimisa/bitio"

// The readers below mirror bitio.Reader's ReadUConstant/ReadSignedAddr/
// ReadShiftVal/ReadSize algorithms exactly, but operate against the generic
// BitSource interface instead of the concrete *bitio.Reader type, so that a
// memory.Memory-backed adapter (package vm, decoding live during CPU
// execution) can share this code with disassembly, which reads from a
// bitio.Reader wrapping a cleartext stream.

func parseUnsigned(bits string) uint64 {
	var u uint64
	for i := 0; i < len(bits); i++ {
		u <<= 1
		if bits[i] == '1' {
			u |= 1
		}
	}
	return u
}

func parseSigned(bits string) int64 {
	u := parseUnsigned(bits)
	n := len(bits)
	if n < 64 && u&(1<<uint(n-1)) != 0 {
		u |= ^uint64(0) << uint(n)
	}
	return int64(u)
}

// readUConstant decodes the prefix-length-self-describing unsigned constant
// encoding from spec.md §4.1 against a BitSource.
func readUConstant(src BitSource) (uint64, error) {
	b0, err := src.ReadBits(1)
	if err != nil {
		return 0, err
	}
	if b0 == "0" {
		bits, err := src.ReadBits(1)
		if err != nil {
			return 0, err
		}
		return parseUnsigned(bits), nil
	}

	b1, err := src.ReadBits(1)
	if err != nil {
		return 0, err
	}
	if b1 == "0" {
		bits, err := src.ReadBits(8)
		if err != nil {
			return 0, err
		}
		return parseUnsigned(bits), nil
	}

	b2, err := src.ReadBits(1)
	if err != nil {
		return 0, err
	}
	if b2 == "0" {
		bits, err := src.ReadBits(32)
		if err != nil {
			return 0, err
		}
		return parseUnsigned(bits), nil
	}

	bits, err := src.ReadBits(64)
	if err != nil {
		return 0, err
	}
	return parseUnsigned(bits), nil
}

// readSignedAddr decodes a signed-address field (prefix selects width 8, 16,
// 32 or 64, payload is two's complement), per spec.md §4.1.
func readSignedAddr(src BitSource) (int64, error) {
	b0, err := src.ReadBits(1)
	if err != nil {
		return 0, err
	}
	if b0 == "0" {
		bits, err := src.ReadBits(8)
		if err != nil {
			return 0, err
		}
		return parseSigned(bits), nil
	}

	b1, err := src.ReadBits(1)
	if err != nil {
		return 0, err
	}
	if b1 == "0" {
		bits, err := src.ReadBits(16)
		if err != nil {
			return 0, err
		}
		return parseSigned(bits), nil
	}

	b2, err := src.ReadBits(1)
	if err != nil {
		return 0, err
	}
	if b2 == "0" {
		bits, err := src.ReadBits(32)
		if err != nil {
			return 0, err
		}
		return parseSigned(bits), nil
	}

	bits, err := src.ReadBits(64)
	if err != nil {
		return 0, err
	}
	return parseSigned(bits), nil
}

// readShiftVal decodes the shift-value encoding (1 bit for value 1, else a
// "0" prefix and a 6-bit unsigned payload), per spec.md §4.1.
func readShiftVal(src BitSource) (uint64, error) {
	b0, err := src.ReadBits(1)
	if err != nil {
		return 0, err
	}
	if b0 == "1" {
		return 1, nil
	}
	bits, err := src.ReadBits(6)
	if err != nil {
		return 0, err
	}
	return parseUnsigned(bits), nil
}

// readSize decodes the memory-operand-width field: 2 bits for {1,4}, else 3
// bits for {8,16,32,64}. Unlike bitio.Reader.ReadSize, a BitSource has no
// Peek, so the 2-bit prefix is read once and, if it doesn't resolve, a
// single further bit is read to complete the 3-bit code — never re-reading
// bits already consumed.
func readSize(src BitSource) (uint64, error) {
	two, err := src.ReadBits(2)
	if err != nil {
		return 0, err
	}
	if v, ok := bitio.DecodeSizeBits(two); ok {
		return v, nil
	}
	third, err := src.ReadBits(1)
	if err != nil {
		return 0, err
	}
	three := two + third
	v, ok := bitio.DecodeSizeBits(three)
	if !ok {
		return 0, &ErrUnknownSizeCode{Bits: three}
	}
	return v, nil
}
