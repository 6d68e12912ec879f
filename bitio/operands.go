package bitio

import "fmt"

// EncodeUConstant implements the prefix-length-self-describing unsigned
// constant encoding from spec.md §4.1:
//
//	0 b1    -> values 0,1
//	10 b8   -> values 2..255
//	110 b32 -> values 256..2^32-1
//	111 b64 -> values 2^32..2^64-1
func EncodeUConstant(v uint64) (string, error) {
	switch {
	case v < 2:
		s, err := BinaryRepr(int64(v), 1, false)
		return "0" + s, err
	case v < 256:
		s, err := BinaryRepr(int64(v), 8, false)
		return "10" + s, err
	case v < 1<<32:
		s, err := BinaryRepr(int64(v), 32, false)
		return "110" + s, err
	default:
		s, err := binaryReprUint64(v, 64)
		return "111" + s, err
	}
}

// binaryReprUint64 is BinaryRepr for the 64-bit unsigned case, where v may
// exceed the range representable losslessly as a signed int64.
func binaryReprUint64(v uint64, k int) (string, error) {
	b := make([]byte, k)
	for i := 0; i < k; i++ {
		if v&(1<<uint(k-1-i)) != 0 {
			b[i] = '1'
		} else {
			b[i] = '0'
		}
	}
	return string(b), nil
}

// AddrWidths are the widths the signed-address encoding chooses among, in
// ascending order. The resolver picks the smallest one whose signed range
// contains the offset (spec.md §4.1, §4.5).
var AddrWidths = []int{8, 16, 32, 64}

// AddrPrefix returns the self-describing prefix bits for a signed-address
// field of the given width.
func AddrPrefix(width int) (string, error) {
	switch width {
	case 8:
		return "0", nil
	case 16:
		return "10", nil
	case 32:
		return "110", nil
	case 64:
		return "111", nil
	default:
		return "", fmt.Errorf("bitio: invalid address width %d", width)
	}
}

// BitCost is the total encoded size (prefix + payload) of a signed-address
// field of the given width, per spec.md §4.5.
func BitCost(width int) int {
	switch width {
	case 8:
		return 9
	case 16:
		return 18
	case 32:
		return 35
	case 64:
		return 67
	default:
		return 0
	}
}

// SmallestAddrWidth returns the smallest width in AddrWidths whose signed
// range contains s, or 0 if even 64 bits cannot hold it.
func SmallestAddrWidth(s int64) int {
	for _, w := range AddrWidths {
		lo := -(int64(1) << uint(w-1))
		hi := int64(1) << uint(w-1)
		if w == 64 {
			return 64
		}
		if s >= lo && s < hi {
			return w
		}
	}
	return 0
}

// EncodeSignedAddr encodes a resolved relative/absolute offset using the
// smallest viable width, prefixed per spec.md §4.1.
func EncodeSignedAddr(s int64) (string, int, error) {
	w := SmallestAddrWidth(s)
	if w == 0 {
		return "", 0, fmt.Errorf("bitio: address %d exceeds 64-bit signed range", s)
	}
	prefix, err := AddrPrefix(w)
	if err != nil {
		return "", 0, err
	}
	payload, err := BinaryRepr(s, w, true)
	if err != nil {
		return "", 0, err
	}
	return prefix + payload, w, nil
}

// EncodeShiftVal implements the shift-value encoding from spec.md §4.1: the
// value 1 encodes as the single bit "1"; any other value in [0,64) encodes
// as "0" followed by a 6-bit unsigned payload.
func EncodeShiftVal(v uint64) (string, error) {
	if v == 1 {
		return "1", nil
	}
	if v >= 64 {
		return "", &ErrOutOfRange{Value: int64(v), Width: 6, Signed: false}
	}
	s, err := BinaryRepr(int64(v), 6, false)
	if err != nil {
		return "", err
	}
	return "0" + s, nil
}

// NbReg is the register count and NbBitReg its fixed encoding width
// (log2(NbReg)), per spec.md §3/§4.1.
const (
	NbReg    = 8
	NbBitReg = 3
)

// EncodeRegister encodes a register number on the fixed NbBitReg-bit width.
func EncodeRegister(r uint64) (string, error) {
	if r >= NbReg {
		return "", fmt.Errorf("bitio: register %d out of range", r)
	}
	return BinaryRepr(int64(r), NbBitReg, false)
}

// sizeCodes maps a memory operation width to its fixed-width opcode field,
// per spec.md §4.1.
var sizeCodes = map[uint64]string{
	1:  "00",
	4:  "01",
	8:  "100",
	16: "101",
	32: "110",
	64: "111",
}

var sizeDecode = map[string]uint64{}

func init() {
	for v, code := range sizeCodes {
		sizeDecode[code] = v
	}
}

// EncodeSize encodes one of the fixed memory-operand widths {1,4,8,16,32,64}.
func EncodeSize(bits uint64) (string, error) {
	code, ok := sizeCodes[bits]
	if !ok {
		return "", fmt.Errorf("bitio: invalid operand size %d", bits)
	}
	return code, nil
}

// DecodeSizeBits reverse-looks-up a size code (2 or 3 bits) back to its
// operand width. It exists so callers outside this package (package decoder,
// decoding against a generic BitSource rather than a *Reader) can perform the
// same lookup Reader.ReadSize does internally.
func DecodeSizeBits(bits string) (uint64, bool) {
	v, ok := sizeDecode[bits]
	return v, ok
}

// DirectionCode and ConditionCode/MemCounterCode implement the remaining
// fixed-width table lookups from spec.md §4.1 (Direction: 1 bit, Condition:
// 3 bits, MemCounter: 2 bits). Conditions and counters live in package isa
// alongside the rest of the instruction-set tables; Direction is small
// enough to keep here.
var directionCodes = map[string]string{
	"left":  "0",
	"right": "1",
}

// EncodeDirection encodes the shift direction operand.
func EncodeDirection(dir string) (string, error) {
	code, ok := directionCodes[dir]
	if !ok {
		return "", fmt.Errorf("bitio: unknown direction %q", dir)
	}
	return code, nil
}
