// Package memory implements the bit-addressable memory shared by the
// assembled program loader and the CPU: a flat sequence of 64-bit words
// addressed by four independent named bit counters (pc, sp, a0, a1), plus
// the VRAM segment's cross-goroutine read/write guard.
//
// Grounded on _examples/original_source/emu/include/memory.rs's
// Memory::read/write (bit-straddling-word arithmetic for an explicit
// address) and _examples/original_source/subject/simu.src/memory.rs's
// Memory (named counters, read_bit/write_bit advancing one of them). The
// two are merged here: ReadBits/WriteBits take a counter name and a bit
// count (spec.md §3's "every read/write is expressed as (counter_id,
// bit_count)"), generalizing simu.src's single-bit-at-a-time version to
// the emu version's up-to-64-bit span per operation.
package memory

import (
	"fmt"
	"sync"

	"github.com/Urethramancer/minimisa/isa"
)

// Default segment sizes in bits, per spec.md §3.
const (
	DefaultText  = 32 << 10
	DefaultStack = 16 << 10
	DefaultData  = 16 << 10
	DefaultVRAM  = 327680
)

// ErrOutOfBounds reports an access past the end of memory.
type ErrOutOfBounds struct {
	Address uint64
	Size    uint64
}

func (e *ErrOutOfBounds) Error() string {
	return fmt.Sprintf("memory: address %d out of bounds (size %d bits)", e.Address, e.Size)
}

// ErrProgramTooLarge reports a program that does not fit the text segment.
type ErrProgramTooLarge struct {
	Bits int
	Text uint64
}

func (e *ErrProgramTooLarge) Error() string {
	return fmt.Sprintf("memory: program is %d bits, text segment holds %d", e.Bits, e.Text)
}

// Segments describes the four memory regions, each sized in bits. Their sum
// is the total memory size; spec.md §3 requires this invariant to hold
// whenever segment sizes are overridden.
type Segments struct {
	Text  uint64 `toml:"text"`
	Stack uint64 `toml:"stack"`
	Data  uint64 `toml:"data"`
	VRAM  uint64 `toml:"vram"`
}

// DefaultSegments returns the spec.md §3 default geometry.
func DefaultSegments() Segments {
	return Segments{Text: DefaultText, Stack: DefaultStack, Data: DefaultData, VRAM: DefaultVRAM}
}

func (s Segments) total() uint64 { return s.Text + s.Stack + s.Data + s.VRAM }

// Memory is a flat bit-addressable store with four named counters and a
// guarded VRAM segment. The zero value is not usable; construct with New.
type Memory struct {
	seg     Segments
	words   []uint64
	counter [4]uint64

	vramMu    sync.RWMutex
	vramStart uint64
}

// New allocates a Memory with the given segment geometry. It panics if the
// segments are degenerate (zero total), since that can only be a
// configuration bug, not a runtime condition callers should recover from.
func New(seg Segments) *Memory {
	total := seg.total()
	if total == 0 {
		panic("memory: zero-sized segment geometry")
	}
	m := &Memory{
		seg:       seg,
		words:     make([]uint64, (total+63)/64),
		vramStart: seg.Text + seg.Stack + seg.Data,
	}
	// sp starts at the Stack segment's low end; left at zero it would sit
	// inside Text, and the first push/call would overwrite loaded code.
	m.counter[isa.MemCounterIndex["sp"]] = seg.Text
	return m
}

// Size returns the total memory size in bits.
func (m *Memory) Size() uint64 { return m.seg.total() }

// Segments returns the memory's segment geometry.
func (m *Memory) Segments() Segments { return m.seg }

// Counter returns the current bit-address of the named counter (pc, sp,
// a0, a1).
func (m *Memory) Counter(name string) (uint64, error) {
	idx, ok := isa.MemCounterIndex[name]
	if !ok {
		return 0, fmt.Errorf("memory: unknown counter %q", name)
	}
	return m.counter[idx], nil
}

// SetCounter sets the named counter to an absolute bit-address.
func (m *Memory) SetCounter(name string, value uint64) error {
	idx, ok := isa.MemCounterIndex[name]
	if !ok {
		return fmt.Errorf("memory: unknown counter %q", name)
	}
	m.counter[idx] = value
	return nil
}

// LoadProgram copies packed binary code into the start of the text segment
// and resets pc to 0, per the teacher's cpu.CPU.LoadCode convention
// generalized from byte- to bit-addressing.
func (m *Memory) LoadProgram(code []byte) error {
	bits := len(code) * 8
	if uint64(bits) > m.seg.Text {
		return &ErrProgramTooLarge{Bits: bits, Text: m.seg.Text}
	}
	for i, b := range code {
		m.writeAt(uint64(i*8), uint64(b), 8)
	}
	m.counter[isa.MemCounterIndex["pc"]] = 0
	return nil
}

// ReadBits reads n bits (n <= 64) starting at the named counter's current
// position and advances the counter by n, per spec.md §3's invariant.
func (m *Memory) ReadBits(counter string, n int) (uint64, error) {
	idx, ok := isa.MemCounterIndex[counter]
	if !ok {
		return 0, fmt.Errorf("memory: unknown counter %q", counter)
	}
	addr := m.counter[idx]
	if addr+uint64(n) > m.Size() {
		return 0, &ErrOutOfBounds{Address: addr, Size: m.Size()}
	}
	v := m.readAt(addr, n)
	m.counter[idx] += uint64(n)
	return v, nil
}

// WriteBits writes the low n bits (n <= 64) of value starting at the named
// counter's current position and advances the counter by n. A write that
// reaches into the VRAM segment holds VRAMGuard()'s write lock.
func (m *Memory) WriteBits(counter string, value uint64, n int) error {
	idx, ok := isa.MemCounterIndex[counter]
	if !ok {
		return fmt.Errorf("memory: unknown counter %q", counter)
	}
	addr := m.counter[idx]
	if addr+uint64(n) > m.Size() {
		return &ErrOutOfBounds{Address: addr, Size: m.Size()}
	}
	if addr+uint64(n) > m.vramStart {
		m.vramMu.Lock()
		defer m.vramMu.Unlock()
	}
	m.writeAt(addr, value, n)
	m.counter[idx] += uint64(n)
	return nil
}

// readAt and writeAt implement the bit-straddling-word arithmetic that
// _examples/original_source/emu/include/memory.rs's Memory::read/write is
// grounded on, reworked rather than ported literally: the Rust computes a
// shift of `64 - n - bit_pos`, which underflows (and would panic on the
// shift) in exactly the straddling case its own `bit_pos + n > 64` guard
// exists to handle. We instead split the n-bit field explicitly into the
// nHi bits taken from the low end of the first word and the nLo bits taken
// from the high end of the second, which never computes a negative shift
// amount and stays well-defined for every n in [1,64].
func maskOf(bits int) uint64 {
	if bits >= 64 {
		return ^uint64(0)
	}
	if bits <= 0 {
		return 0
	}
	return (uint64(1) << uint(bits)) - 1
}

func (m *Memory) readAt(address uint64, n int) uint64 {
	bitPos := address % 64
	word := address / 64

	if bitPos+uint64(n) <= 64 {
		shift := 64 - bitPos - uint64(n)
		return (m.words[word] >> shift) & maskOf(n)
	}

	nHi := int(64 - bitPos)
	nLo := n - nHi
	hiPart := m.words[word] & maskOf(nHi)
	var loPart uint64
	if int(word)+1 < len(m.words) {
		loPart = m.words[word+1] >> uint(64-nLo)
	}
	return (hiPart << uint(nLo)) | loPart
}

func (m *Memory) writeAt(address, value uint64, n int) {
	bitPos := address % 64
	word := address / 64
	value &= maskOf(n)

	if bitPos+uint64(n) <= 64 {
		shift := 64 - bitPos - uint64(n)
		m.words[word] = (m.words[word] &^ (maskOf(n) << shift)) | (value << shift)
		return
	}

	nHi := int(64 - bitPos)
	nLo := n - nHi
	hiPart := value >> uint(nLo)
	loPart := value & maskOf(nLo)
	m.words[word] = (m.words[word] &^ maskOf(nHi)) | hiPart
	if int(word)+1 < len(m.words) {
		shift := uint(64 - nLo)
		m.words[word+1] = (m.words[word+1] &^ (maskOf(nLo) << shift)) | (loPart << shift)
	}
}

// VRAMGuard returns the mutex guarding the VRAM segment, per spec.md §5:
// the display thread read-locks at ~60Hz, the CPU thread write-locks on
// every write that reaches into the VRAM segment, and no other
// cross-goroutine state exists.
func (m *Memory) VRAMGuard() *sync.RWMutex { return &m.vramMu }

// ReadVRAM copies n bits starting at the given offset into the VRAM
// segment (0 = first VRAM bit). Callers needing a consistent multi-read
// snapshot should hold VRAMGuard() themselves; ReadVRAM takes its own
// read-lock only for this single access.
func (m *Memory) ReadVRAM(offset uint64, n int) (uint64, error) {
	if offset+uint64(n) > m.seg.VRAM {
		return 0, &ErrOutOfBounds{Address: offset, Size: m.seg.VRAM}
	}
	m.vramMu.RLock()
	defer m.vramMu.RUnlock()
	return m.readAt(m.vramStart+offset, n), nil
}

// WriteVRAM writes the low n bits of value at the given VRAM-relative
// offset, under the write lock.
func (m *Memory) WriteVRAM(offset uint64, value uint64, n int) error {
	if offset+uint64(n) > m.seg.VRAM {
		return &ErrOutOfBounds{Address: offset, Size: m.seg.VRAM}
	}
	m.vramMu.Lock()
	defer m.vramMu.Unlock()
	m.writeAt(m.vramStart+offset, value, n)
	return nil
}
