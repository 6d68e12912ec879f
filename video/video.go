// Package video defines the contract a graphical front end implements
// against the VM's VRAM segment. No back end lives here: the SDL display
// surface spec.md §1 describes is an explicit non-goal, an external
// collaborator referenced only by this interface.
//
// Grounded on _examples/original_source/subject/simu.src/screen.rs's
// Screen struct (a frame buffer pulled from memory and presented at a
// fixed rate) and spec.md §5's display-thread contract: read VRAM under
// the mutex memory.Memory already exposes via VRAMGuard, present a frame,
// repeat at ~60 Hz until told to quit.
package video

// Surface is whatever can present a VRAM frame and report when the user
// has asked it to close. Present receives one full copy of the VRAM
// segment's bits, already read out from behind memory.Memory's VRAMGuard
// by the caller — a Surface implementation never touches CPU memory
// itself.
type Surface interface {
	Present(frame []byte) error
	ShouldQuit() bool
}

// NullSurface discards every frame and never asks to quit. It is the
// default a CPU runs against when no -g flag requests a graphical
// surface, so the display loop's shape runs unconditionally rather than
// being an if-nil special case at every call site.
type NullSurface struct{}

// Present implements Surface by doing nothing.
func (NullSurface) Present([]byte) error { return nil }

// ShouldQuit implements Surface, always declining to quit.
func (NullSurface) ShouldQuit() bool { return false }
