// Command run loads a MinimISA object file and executes it. Mirrors
// cmd/run68/main.go's flag-based shape: persistent knobs as flags, a
// single positional object file last, exit 1 with a stderr message on
// any I/O or decode failure. -d/-s/-g select debug, step and graphical
// mode per spec.md §6; debug and step mode are backed by package debug's
// in-process contracts rather than the ncurses UI spec.md places out of
// scope, and graphical mode drives package video's Surface contract with
// no SDL back end attached.
package main

import (
	"bufio"
	"encoding/binary"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/Urethramancer/minimisa/debug"
	"github.com/Urethramancer/minimisa/encoder"
	"github.com/Urethramancer/minimisa/isa"
	"github.com/Urethramancer/minimisa/video"
	"github.com/Urethramancer/minimisa/vm"
	"github.com/sirupsen/logrus"
)

var (
	debugMode    = flag.Bool("d", false, "Enable debug mode (breakpoints halt execution).")
	stepMode     = flag.Bool("s", false, "Enable step mode (block for Enter between instructions).")
	graphical    = flag.Bool("g", false, "Attach a video surface driven by the VRAM segment.")
	maxCycles    = flag.Int("cycles", 1000000, "Maximum number of instructions to execute.")
	breakAtFlags breakList
)

// breakList collects repeated -break=<pc> flags into a slice.
type breakList []uint64

func (b *breakList) String() string { return fmt.Sprint(*b) }
func (b *breakList) Set(s string) error {
	var v uint64
	if _, err := fmt.Sscanf(s, "%d", &v); err != nil {
		return fmt.Errorf("invalid breakpoint address %q: %w", s, err)
	}
	*b = append(*b, v)
	return nil
}

func init() {
	flag.Var(&breakAtFlags, "break", "Set a breakpoint at the given program counter bit address (repeatable).")
}

func main() {
	log := logrus.StandardLogger()
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: run [options] <objectfile.bin>")
		flag.PrintDefaults()
		os.Exit(1)
	}
	filename := flag.Arg(0)

	data, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading object file: %v\n", err)
		os.Exit(1)
	}

	_, packed, err := encoder.DecodeObject(data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading object file: %v\n", err)
		os.Exit(1)
	}

	machine := vm.New(isa.DefaultOpcodes, log)
	if err := machine.LoadCode(0, packed); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading program: %v\n", err)
		os.Exit(1)
	}

	breakpoints := debug.NewBreakpointRegistry()
	for _, addr := range breakAtFlags {
		breakpoints.Add(addr)
	}

	var stepper debug.Stepper = debug.NoopStepper{}
	if *stepMode {
		stepper = stdinStepper{r: bufio.NewReader(os.Stdin)}
	}

	if *graphical {
		quit := make(chan struct{})
		go runDisplayLoop(machine, video.NullSurface{}, quit)
		defer close(quit)
	}

	log.Println("--- CPU state before execution ---")
	machine.DumpRegisters()

	executed, runErr := runLoop(machine, breakpoints, stepper, *maxCycles, *debugMode)

	log.Println("--- CPU state after execution ---")
	machine.DumpRegisters()

	if runErr != nil {
		fmt.Fprintf(os.Stderr, "Execution failed after %d instructions: %v\n", executed, runErr)
		os.Exit(1)
	}
	if executed >= *maxCycles {
		log.Printf("Execution stopped: maximum cycle count (%d) reached.", *maxCycles)
	} else {
		log.Printf("Execution finished after %d instructions.", executed)
	}
}

// runLoop drives the CPU, consulting the breakpoint registry before each
// fetch when debugMode is set and gating each step through stepper.
func runLoop(machine *vm.VM, breakpoints *debug.BreakpointRegistry, stepper debug.Stepper, max int, debugMode bool) (int, error) {
	machine.CPU.Running = true
	executed := 0
	for ; executed < max; executed++ {
		if !machine.CPU.Running || machine.CPU.Halted {
			break
		}
		if debugMode {
			pc, err := machine.Mem.Counter("pc")
			if err != nil {
				return executed, err
			}
			if breakpoints.Has(pc) {
				break
			}
		}
		if err := stepper.Step(); err != nil {
			return executed, err
		}
		if err := machine.CPU.Step(); err != nil {
			return executed, err
		}
	}
	return executed, nil
}

// runDisplayLoop owns the display thread spec.md §5 describes: read VRAM
// under the guard at ~60 Hz, present a frame, stop when the surface asks
// to quit or the caller closes quit.
func runDisplayLoop(machine *vm.VM, surface video.Surface, quit <-chan struct{}) {
	ticker := time.NewTicker(time.Second / 60)
	defer ticker.Stop()
	for {
		select {
		case <-quit:
			return
		case <-ticker.C:
			// ReadVRAM takes VRAMGuard()'s read lock itself for each
			// 64-bit word, so the frame is copied word by word rather
			// than as one snapshot taken under a single lock.
			vramBits := machine.Mem.Segments().VRAM
			frame := make([]byte, 0, vramBits/8)
			for off := uint64(0); off+64 <= vramBits; off += 64 {
				word, err := machine.Mem.ReadVRAM(off, 64)
				if err != nil {
					return
				}
				frame = binary.BigEndian.AppendUint64(frame, word)
			}
			if err := surface.Present(frame); err != nil {
				return
			}
			if surface.ShouldQuit() {
				machine.CPU.Running = false
				return
			}
		}
	}
}

// stdinStepper blocks on a newline read between instructions, the
// emulator-side half of spec.md §5's stdin-blocking step-mode suspension
// point (the interactive prompt itself is the ncurses debugger's job, out
// of scope here).
type stdinStepper struct {
	r *bufio.Reader
}

func (s stdinStepper) Step() error {
	fmt.Fprint(os.Stderr, "(step) press Enter to continue> ")
	_, err := s.r.ReadString('\n')
	return err
}
